package nn

import (
	"github.com/YuminosukeSato/denseflow/metrics"
	"github.com/YuminosukeSato/denseflow/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Loss names accepted by WithLoss.
const (
	SparseCategoricalCrossentropy = "sparse_categorical_crossentropy"
	CategoricalCrossentropy       = "categorical_crossentropy"
	MeanSquaredError              = "mse"
)

// Loss scores predictions against targets and supplies the gradient that
// starts back-propagation.
type Loss interface {
	// Name is the identifier used by WithLoss.
	Name() string

	// Compute returns the mean loss over the batch.
	Compute(yTrue, yPred mat.Matrix) (float64, error)

	// Gradient writes dL/dyPred into grad, which has yPred's shape.
	Gradient(yTrue, yPred, grad *mat.Dense)

	// TargetWidth is the number of target columns expected for a model
	// with the given number of outputs.
	TargetWidth(outputs int) int
}

type sparseCategoricalCrossentropy struct{}

func (sparseCategoricalCrossentropy) Name() string { return SparseCategoricalCrossentropy }

func (sparseCategoricalCrossentropy) Compute(yTrue, yPred mat.Matrix) (float64, error) {
	return metrics.SparseCategoricalCrossentropy(yTrue, yPred)
}

func (sparseCategoricalCrossentropy) Gradient(yTrue, yPred, grad *mat.Dense) {
	n, _ := yPred.Dims()
	grad.Zero()
	for i := 0; i < n; i++ {
		label := int(yTrue.At(i, 0))
		if p := yPred.At(i, label); p > metrics.Epsilon && p < 1-metrics.Epsilon {
			grad.Set(i, label, -1/(p*float64(n)))
		}
	}
}

func (sparseCategoricalCrossentropy) TargetWidth(int) int { return 1 }

type categoricalCrossentropy struct{}

func (categoricalCrossentropy) Name() string { return CategoricalCrossentropy }

func (categoricalCrossentropy) Compute(yTrue, yPred mat.Matrix) (float64, error) {
	return metrics.CategoricalCrossentropy(yTrue, yPred)
}

func (categoricalCrossentropy) Gradient(yTrue, yPred, grad *mat.Dense) {
	n, _ := yPred.Dims()
	grad.Apply(func(i, j int, _ float64) float64 {
		p := yPred.At(i, j)
		if p <= metrics.Epsilon || p >= 1-metrics.Epsilon {
			return 0
		}
		return -yTrue.At(i, j) / (p * float64(n))
	}, grad)
}

func (categoricalCrossentropy) TargetWidth(outputs int) int { return outputs }

type meanSquaredError struct{}

func (meanSquaredError) Name() string { return MeanSquaredError }

func (meanSquaredError) Compute(yTrue, yPred mat.Matrix) (float64, error) {
	return metrics.MeanSquaredError(yTrue, yPred)
}

func (meanSquaredError) Gradient(yTrue, yPred, grad *mat.Dense) {
	n, k := yPred.Dims()
	grad.Sub(yPred, yTrue)
	grad.Scale(2/float64(n*k), grad)
}

func (meanSquaredError) TargetWidth(outputs int) int { return outputs }

var losses = map[string]Loss{
	SparseCategoricalCrossentropy: sparseCategoricalCrossentropy{},
	CategoricalCrossentropy:       categoricalCrossentropy{},
	MeanSquaredError:              meanSquaredError{},
	"mean_squared_error":          meanSquaredError{},
}

// LookupLoss returns the loss registered under name.
func LookupLoss(name string) (Loss, error) {
	loss, ok := losses[name]
	if !ok {
		return nil, errors.NewValidationError("loss", "unknown loss, want one of "+joinNames(losses), name)
	}
	return loss, nil
}

// softmaxCrossentropyGradient writes dL/dz for a softmax output layer
// trained with a crossentropy loss: (p - onehot) / n. It skips the
// clipped 1/p term that the unfused path would go through.
func softmaxCrossentropyGradient(loss Loss, yTrue, yPred, grad *mat.Dense) bool {
	n, _ := yPred.Dims()
	switch loss.(type) {
	case sparseCategoricalCrossentropy:
		grad.Copy(yPred)
		for i := 0; i < n; i++ {
			label := int(yTrue.At(i, 0))
			grad.Set(i, label, grad.At(i, label)-1)
		}
	case categoricalCrossentropy:
		grad.Sub(yPred, yTrue)
	default:
		return false
	}
	grad.Scale(1/float64(n), grad)
	return true
}
