package nn

import (
	"fmt"
	"math/rand"

	"github.com/YuminosukeSato/denseflow/core/model"
	"github.com/YuminosukeSato/denseflow/pkg/errors"
	"github.com/YuminosukeSato/denseflow/tensor"
	"gonum.org/v1/gonum/mat"
)

// DenseLayer is a fully connected layer computing act(x·W + b).
type DenseLayer struct {
	name              string
	units             int
	inputDim          int
	activation        *activation
	kernelInitializer string
	biasInitializer   string

	kernel *mat.Dense    // (inputDim, units)
	bias   *mat.VecDense // (units)

	kernelGrad *mat.Dense
	biasGrad   *mat.VecDense

	// Set by forward in training mode for the backward pass.
	input  *mat.Dense
	output *mat.Dense

	err error
}

// LayerOption configures a DenseLayer.
type LayerOption func(*DenseLayer)

// WithActivation sets the activation by name (default "linear").
func WithActivation(name string) LayerOption {
	return func(l *DenseLayer) {
		act, err := lookupActivation(name)
		if err != nil {
			l.err = err
			return
		}
		l.activation = act
	}
}

// WithInputDim fixes the number of input features. Only the first layer of
// a model needs it; later layers infer it from their predecessor.
func WithInputDim(n int) LayerOption {
	return func(l *DenseLayer) {
		l.inputDim = n
	}
}

// WithKernelInitializer sets the kernel initializer (default
// "glorot_uniform").
func WithKernelInitializer(name string) LayerOption {
	return func(l *DenseLayer) {
		l.kernelInitializer = name
	}
}

// WithBiasInitializer sets the bias initializer (default "zeros").
func WithBiasInitializer(name string) LayerOption {
	return func(l *DenseLayer) {
		l.biasInitializer = name
	}
}

// WithName names the layer. Unnamed layers get "dense", "dense_1", ... when
// added to a model.
func WithName(name string) LayerOption {
	return func(l *DenseLayer) {
		l.name = name
	}
}

// Dense creates a fully connected layer with the given number of output
// units.
//
//	hidden := nn.Dense(512, nn.WithActivation("relu"), nn.WithInputDim(784))
//	output := nn.Dense(10, nn.WithActivation("softmax"))
func Dense(units int, opts ...LayerOption) *DenseLayer {
	l := &DenseLayer{
		units:             units,
		activation:        activations[Linear],
		kernelInitializer: GlorotUniform,
		biasInitializer:   Zeros,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Name returns the layer name.
func (l *DenseLayer) Name() string { return l.name }

// Units returns the number of outputs.
func (l *DenseLayer) Units() int { return l.units }

// InputDim returns the number of inputs, or 0 if not yet known.
func (l *DenseLayer) InputDim() int { return l.inputDim }

// Activation returns the activation name.
func (l *DenseLayer) Activation() string { return l.activation.name }

// Built reports whether the layer's weights exist.
func (l *DenseLayer) Built() bool { return l.kernel != nil }

// Kernel returns the (inputDim, units) weight matrix, or nil before Build.
func (l *DenseLayer) Kernel() *mat.Dense { return l.kernel }

// Bias returns the bias vector, or nil before Build.
func (l *DenseLayer) Bias() *mat.VecDense { return l.bias }

// CountParams returns inputDim*units + units, or 0 while inputDim is
// unknown.
func (l *DenseLayer) CountParams() int {
	if l.inputDim == 0 {
		return 0
	}
	return l.inputDim*l.units + l.units
}

func (l *DenseLayer) validate() error {
	if l.err != nil {
		return l.err
	}
	if l.units <= 0 {
		return errors.NewValidationError("units", "must be positive", l.units)
	}
	if l.inputDim < 0 {
		return errors.NewValidationError("input_dim", "must not be negative", l.inputDim)
	}
	if _, err := lookupInitializer(l.kernelInitializer); err != nil {
		return err
	}
	_, err := lookupInitializer(l.biasInitializer)
	return err
}

// build allocates and initializes the weights for inputDim inputs.
func (l *DenseLayer) build(inputDim int, rng *rand.Rand) error {
	if l.inputDim != 0 && l.inputDim != inputDim {
		return errors.NewDimensionError(l.name+".build", l.inputDim, inputDim, 1)
	}
	kernelInit, err := lookupInitializer(l.kernelInitializer)
	if err != nil {
		return err
	}
	biasInit, err := lookupInitializer(l.biasInitializer)
	if err != nil {
		return err
	}

	l.inputDim = inputDim
	l.kernel = mat.NewDense(inputDim, l.units, nil)
	l.bias = mat.NewVecDense(l.units, nil)
	kernelInit(rng, inputDim, l.units, l.kernel.RawMatrix().Data)
	biasInit(rng, inputDim, l.units, l.bias.RawVector().Data)
	l.kernelGrad = mat.NewDense(inputDim, l.units, nil)
	l.biasGrad = mat.NewVecDense(l.units, nil)
	return nil
}

// forward computes act(x·W + b). In training mode the input and output are
// kept for backward.
func (l *DenseLayer) forward(x *mat.Dense, training bool) *mat.Dense {
	r, _ := x.Dims()
	out := mat.NewDense(r, l.units, nil)
	out.Mul(x, l.kernel)
	tensor.AddRowVectorInPlace(out, l.bias)
	l.activation.forward(out)
	if training {
		l.input = x
		l.output = out
	}
	return out
}

// backward takes grad = dL/dz (the activation already applied by the
// caller), stores the parameter gradients and returns dL/dx. needInput is
// false for the first layer, whose input gradient nobody reads.
func (l *DenseLayer) backward(grad *mat.Dense, needInput bool) *mat.Dense {
	l.kernelGrad.Mul(l.input.T(), grad)

	bg := l.biasGrad.RawVector().Data
	for j := range bg {
		bg[j] = 0
	}
	r, _ := grad.Dims()
	for i := 0; i < r; i++ {
		for j, g := range grad.RawRowView(i) {
			bg[j] += g
		}
	}

	l.input, l.output = nil, nil
	if !needInput {
		return nil
	}
	var dx mat.Dense
	dx.Mul(grad, l.kernel.T())
	return &dx
}

func (l *DenseLayer) params() []Parameter {
	return []Parameter{
		{Name: l.name + "/kernel", Value: l.kernel.RawMatrix().Data, Grad: l.kernelGrad.RawMatrix().Data},
		{Name: l.name + "/bias", Value: l.bias.RawVector().Data, Grad: l.biasGrad.RawVector().Data},
	}
}

// weights exports the layer in the portable form.
func (l *DenseLayer) weights() model.LayerWeights {
	w := model.LayerWeights{
		Name:       l.name,
		Activation: l.activation.name,
		InputDim:   l.inputDim,
		Units:      l.units,
	}
	if l.Built() {
		w.Kernel = append([]float64(nil), l.kernel.RawMatrix().Data...)
		w.Bias = append([]float64(nil), l.bias.RawVector().Data...)
	}
	return w
}

// denseFromWeights rebuilds an unbuilt layer from its portable form.
func denseFromWeights(w model.LayerWeights) (*DenseLayer, error) {
	l := Dense(w.Units, WithName(w.Name), WithActivation(w.Activation), WithInputDim(w.InputDim))
	if err := l.validate(); err != nil {
		return nil, err
	}
	return l, nil
}

// setWeights attaches exported parameters. Layers exported before building
// carry none and stay unbuilt.
func (l *DenseLayer) setWeights(w model.LayerWeights) error {
	if len(w.Kernel) == 0 {
		return nil
	}
	if len(w.Kernel) != l.inputDim*l.units || len(w.Bias) != l.units {
		return errors.NewValidationError("layers."+l.name, "weights do not match input_dim*units", len(w.Kernel))
	}
	l.kernel = mat.NewDense(l.inputDim, l.units, append([]float64(nil), w.Kernel...))
	l.bias = mat.NewVecDense(l.units, append([]float64(nil), w.Bias...))
	l.kernelGrad = mat.NewDense(l.inputDim, l.units, nil)
	l.biasGrad = mat.NewVecDense(l.units, nil)
	return nil
}

func (l *DenseLayer) String() string {
	return fmt.Sprintf("Dense(name=%s, units=%d, activation=%s)", l.name, l.units, l.activation.name)
}
