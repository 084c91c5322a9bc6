package nn

import (
	"math"

	"github.com/YuminosukeSato/denseflow/pkg/errors"
	"gonum.org/v1/gonum/floats"
)

// Optimizer names accepted by WithOptimizer.
const (
	RMSpropName = "rmsprop"
	SGDName     = "sgd"
	AdamName    = "adam"
)

// Parameter is a trainable tensor together with the gradient computed for
// the current batch. Value and Grad are views into the layer's storage.
type Parameter struct {
	Name  string
	Value []float64
	Grad  []float64
}

// Optimizer updates parameters from their gradients. The parameter list
// passed to Apply must have the same order on every call; per-parameter
// state is keyed by position.
type Optimizer interface {
	Name() string
	LearningRate() float64
	SetLearningRate(lr float64)
	Apply(params []Parameter)
}

// SGD is stochastic gradient descent with optional momentum.
type SGD struct {
	lr       float64
	Momentum float64

	velocity [][]float64
}

// NewSGD creates an SGD optimizer. Keras defaults are lr 0.01, momentum 0.
func NewSGD(lr, momentum float64) *SGD {
	return &SGD{lr: lr, Momentum: momentum}
}

func (o *SGD) Name() string { return SGDName }
func (o *SGD) LearningRate() float64 { return o.lr }
func (o *SGD) SetLearningRate(lr float64) { o.lr = lr }

// Apply performs p -= lr*g, or with momentum v = m*v - lr*g; p += v.
func (o *SGD) Apply(params []Parameter) {
	if o.Momentum == 0 {
		for _, p := range params {
			floats.AddScaled(p.Value, -o.lr, p.Grad)
		}
		return
	}
	o.velocity = ensureSlots(o.velocity, params)
	for i, p := range params {
		v := o.velocity[i]
		floats.Scale(o.Momentum, v)
		floats.AddScaled(v, -o.lr, p.Grad)
		floats.Add(p.Value, v)
	}
}

// RMSprop divides the step by a running root mean square of recent
// gradients.
type RMSprop struct {
	lr      float64
	Rho     float64
	Epsilon float64

	meanSquare [][]float64
}

// NewRMSprop creates an RMSprop optimizer. Keras defaults are lr 1e-3,
// rho 0.9, epsilon 1e-7.
func NewRMSprop(lr, rho, epsilon float64) *RMSprop {
	return &RMSprop{lr: lr, Rho: rho, Epsilon: epsilon}
}

func (o *RMSprop) Name() string { return RMSpropName }
func (o *RMSprop) LearningRate() float64 { return o.lr }
func (o *RMSprop) SetLearningRate(lr float64) { o.lr = lr }

// Apply performs v = rho*v + (1-rho)*g²; p -= lr*g / (sqrt(v) + eps).
func (o *RMSprop) Apply(params []Parameter) {
	o.meanSquare = ensureSlots(o.meanSquare, params)
	for i, p := range params {
		v := o.meanSquare[i]
		for j, g := range p.Grad {
			v[j] = o.Rho*v[j] + (1-o.Rho)*g*g
			p.Value[j] -= o.lr * g / (math.Sqrt(v[j]) + o.Epsilon)
		}
	}
}

// Adam keeps bias-corrected running estimates of the first and second
// gradient moments.
type Adam struct {
	lr      float64
	Beta1   float64
	Beta2   float64
	Epsilon float64

	step int
	m    [][]float64
	v    [][]float64
}

// NewAdam creates an Adam optimizer. Keras defaults are lr 1e-3,
// beta1 0.9, beta2 0.999, epsilon 1e-7.
func NewAdam(lr, beta1, beta2, epsilon float64) *Adam {
	return &Adam{lr: lr, Beta1: beta1, Beta2: beta2, Epsilon: epsilon}
}

func (o *Adam) Name() string { return AdamName }
func (o *Adam) LearningRate() float64 { return o.lr }
func (o *Adam) SetLearningRate(lr float64) { o.lr = lr }

// Apply performs one Adam step with the bias correction folded into the
// learning rate.
func (o *Adam) Apply(params []Parameter) {
	o.m = ensureSlots(o.m, params)
	o.v = ensureSlots(o.v, params)
	o.step++
	t := float64(o.step)
	lr := o.lr * math.Sqrt(1-math.Pow(o.Beta2, t)) / (1 - math.Pow(o.Beta1, t))
	for i, p := range params {
		m, v := o.m[i], o.v[i]
		for j, g := range p.Grad {
			m[j] = o.Beta1*m[j] + (1-o.Beta1)*g
			v[j] = o.Beta2*v[j] + (1-o.Beta2)*g*g
			p.Value[j] -= lr * m[j] / (math.Sqrt(v[j]) + o.Epsilon)
		}
	}
}

// ensureSlots sizes per-parameter state to match params, keeping existing
// state whose length still fits.
func ensureSlots(slots [][]float64, params []Parameter) [][]float64 {
	if len(slots) != len(params) {
		slots = make([][]float64, len(params))
	}
	for i, p := range params {
		if len(slots[i]) != len(p.Value) {
			slots[i] = make([]float64, len(p.Value))
		}
	}
	return slots
}

// NewOptimizer returns the named optimizer with Keras default settings.
func NewOptimizer(name string) (Optimizer, error) {
	switch name {
	case RMSpropName:
		return NewRMSprop(1e-3, 0.9, 1e-7), nil
	case SGDName:
		return NewSGD(0.01, 0), nil
	case AdamName:
		return NewAdam(1e-3, 0.9, 0.999, 1e-7), nil
	}
	return nil, errors.NewValidationError("optimizer", "unknown optimizer, want adam, rmsprop or sgd", name)
}
