package tensor

import (
	"math"

	"github.com/YuminosukeSato/denseflow/core/parallel"
	"github.com/YuminosukeSato/denseflow/pkg/errors"
)

// BroadcastTo materializes a copied into shape. It is the explicit form of
// what the binary operations do implicitly.
func BroadcastTo(a *Array, shape Shape) (*Array, error) {
	out, err := BroadcastShapes(a.shape, shape)
	if err != nil {
		return nil, err
	}
	if !out.Equal(shape) {
		return nil, errors.NewShapeError("BroadcastTo", a.shape, shape)
	}
	return binaryOp(a, Zeros(shape...), func(x, _ float64) float64 { return x })
}

// Tile0 stacks n copies of a along a new leading axis, turning a (10,)
// vector into a (n, 10) matrix. This is the manual way of matching a
// vector to a matrix before an element-wise add.
func Tile0(a *Array, n int) (*Array, error) {
	if n < 0 {
		return nil, errors.NewValidationError("n", "must be non-negative", n)
	}
	expanded, err := a.ExpandDims(0)
	if err != nil {
		return nil, err
	}
	copies := make([]*Array, n)
	for i := range copies {
		copies[i] = expanded
	}
	if n == 0 {
		shape := append(Shape{0}, a.shape...)
		return Zeros(shape...), nil
	}
	return Concatenate0(copies...)
}

// Concatenate0 joins arrays along axis 0. All arrays must agree on every
// other axis.
func Concatenate0(arrays ...*Array) (*Array, error) {
	if len(arrays) == 0 {
		return nil, errors.NewModelError("Concatenate0", "no arrays", errors.ErrEmptyData)
	}
	first := arrays[0]
	if first.Ndim() == 0 {
		return nil, errors.NewValueError("Concatenate0", "zero-dimensional arrays cannot be concatenated")
	}
	rows := 0
	size := 0
	for _, a := range arrays {
		if a.Ndim() != first.Ndim() || !a.shape[1:].Equal(first.shape[1:]) {
			return nil, errors.NewShapeError("Concatenate0", first.shape, a.shape)
		}
		rows += a.shape[0]
		size += a.Size()
	}
	data := make([]float64, 0, size)
	for _, a := range arrays {
		data = append(data, a.data...)
	}
	shape := first.shape.Clone()
	shape[0] = rows
	return &Array{shape: shape, data: data}, nil
}

// Add returns a + b with broadcasting.
func (a *Array) Add(b *Array) (*Array, error) {
	return binaryOp(a, b, func(x, y float64) float64 { return x + y })
}

// Sub returns a - b with broadcasting.
func (a *Array) Sub(b *Array) (*Array, error) {
	return binaryOp(a, b, func(x, y float64) float64 { return x - y })
}

// Mul returns the element-wise product with broadcasting.
func (a *Array) Mul(b *Array) (*Array, error) {
	return binaryOp(a, b, func(x, y float64) float64 { return x * y })
}

// Div returns the element-wise quotient with broadcasting. Division by zero
// follows IEEE 754.
func (a *Array) Div(b *Array) (*Array, error) {
	return binaryOp(a, b, func(x, y float64) float64 { return x / y })
}

// Maximum returns the element-wise maximum with broadcasting. NaN wins, as
// in NumPy.
func (a *Array) Maximum(b *Array) (*Array, error) {
	return binaryOp(a, b, func(x, y float64) float64 {
		if math.IsNaN(x) || math.IsNaN(y) {
			return math.NaN()
		}
		if x > y {
			return x
		}
		return y
	})
}

// Apply returns fn applied to every element of a.
func (a *Array) Apply(fn func(float64) float64) *Array {
	out := &Array{shape: a.shape.Clone(), data: make([]float64, len(a.data))}
	parallel.ParallelizeWithThreshold(len(a.data), parallel.DefaultThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			out.data[i] = fn(a.data[i])
		}
	})
	return out
}

// ReLU returns max(a, 0) element-wise.
func (a *Array) ReLU() *Array {
	return a.Apply(relu)
}

func relu(v float64) float64 {
	if v > 0 {
		return v
	}
	return 0
}

// binaryOp evaluates fn over the broadcast shape of a and b. Operands are
// indexed through broadcast strides, so an expanded operand is never copied.
func binaryOp(a, b *Array, fn func(x, y float64) float64) (*Array, error) {
	shape, err := BroadcastShapes(a.shape, b.shape)
	if err != nil {
		return nil, err
	}
	n := shape.NumElements()
	out := &Array{shape: shape, data: make([]float64, n)}
	if n == 0 {
		return out, nil
	}

	if a.shape.Equal(b.shape) {
		parallel.ParallelizeWithThreshold(n, parallel.DefaultThreshold, func(start, end int) {
			for i := start; i < end; i++ {
				out.data[i] = fn(a.data[i], b.data[i])
			}
		})
		return out, nil
	}

	outStrides := shape.Strides()
	aStrides := broadcastStrides(a.shape, shape)
	bStrides := broadcastStrides(b.shape, shape)
	parallel.ParallelizeWithThreshold(n, parallel.DefaultThreshold, func(start, end int) {
		for k := start; k < end; k++ {
			rem, ai, bi := k, 0, 0
			for d, s := range outStrides {
				coord := rem / s
				rem -= coord * s
				ai += coord * aStrides[d]
				bi += coord * bStrides[d]
			}
			out.data[k] = fn(a.data[ai], b.data[bi])
		}
	})
	return out, nil
}
