package nn

import (
	"math"
	"sort"
	"strings"

	"github.com/YuminosukeSato/denseflow/core/parallel"
	"github.com/YuminosukeSato/denseflow/pkg/errors"
	"github.com/YuminosukeSato/denseflow/tensor"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Activation names accepted by WithActivation.
const (
	Linear  = "linear"
	ReLU    = "relu"
	Sigmoid = "sigmoid"
	Tanh    = "tanh"
	Softmax = "softmax"
)

// activation applies a nonlinearity in place and back-propagates through it
// using only the activated output.
type activation struct {
	name string

	// forward overwrites z with act(z).
	forward func(z *mat.Dense)

	// backward overwrites grad (dL/da) with dL/dz given a = act(z).
	backward func(a, grad *mat.Dense)
}

var activations = map[string]*activation{
	Linear: {
		name:     Linear,
		forward:  func(*mat.Dense) {},
		backward: func(_, _ *mat.Dense) {},
	},
	ReLU: {
		name:    ReLU,
		forward: tensor.ReLUInPlace,
		backward: func(a, grad *mat.Dense) {
			grad.Apply(func(i, j int, g float64) float64 {
				if a.At(i, j) > 0 {
					return g
				}
				return 0
			}, grad)
		},
	},
	Sigmoid: {
		name: Sigmoid,
		forward: func(z *mat.Dense) {
			z.Apply(func(_, _ int, v float64) float64 { return sigmoid(v) }, z)
		},
		backward: func(a, grad *mat.Dense) {
			grad.Apply(func(i, j int, g float64) float64 {
				s := a.At(i, j)
				return g * s * (1 - s)
			}, grad)
		},
	},
	Tanh: {
		name: Tanh,
		forward: func(z *mat.Dense) {
			z.Apply(func(_, _ int, v float64) float64 { return math.Tanh(v) }, z)
		},
		backward: func(a, grad *mat.Dense) {
			grad.Apply(func(i, j int, g float64) float64 {
				t := a.At(i, j)
				return g * (1 - t*t)
			}, grad)
		},
	},
	Softmax: {
		name:     Softmax,
		forward:  softmaxInPlace,
		backward: softmaxBackward,
	},
}

func lookupActivation(name string) (*activation, error) {
	if name == "" {
		name = Linear
	}
	act, ok := activations[name]
	if !ok {
		return nil, errors.NewValidationError("activation", "unknown activation, want one of "+joinNames(activations), name)
	}
	return act, nil
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}

// softmaxInPlace normalizes every row of z into a probability
// distribution. The row maximum is subtracted first so exp never
// overflows.
func softmaxInPlace(z *mat.Dense) {
	r, c := z.Dims()
	parallel.ParallelizeWithThreshold(r, parallel.DefaultThreshold/max(c, 1), func(start, end int) {
		for i := start; i < end; i++ {
			row := z.RawRowView(i)
			floats.AddConst(-floats.Max(row), row)
			for j, v := range row {
				row[j] = math.Exp(v)
			}
			floats.Scale(1/floats.Sum(row), row)
		}
	})
}

// softmaxBackward applies the softmax Jacobian row by row:
// dz_j = a_j * (g_j - Σ_k g_k a_k).
func softmaxBackward(a, grad *mat.Dense) {
	r, _ := grad.Dims()
	for i := 0; i < r; i++ {
		ai := a.RawRowView(i)
		gi := grad.RawRowView(i)
		dot := floats.Dot(ai, gi)
		for j := range gi {
			gi[j] = ai[j] * (gi[j] - dot)
		}
	}
}

func joinNames[V any](m map[string]V) string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}
