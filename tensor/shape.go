package tensor

import (
	"math"
	"strconv"

	"github.com/YuminosukeSato/denseflow/pkg/errors"
)

// Shape holds the dimensions of an Array in row-major order. The empty
// shape is a scalar.
type Shape []int

// NumElements returns the product of the dimensions (1 for a scalar).
func (s Shape) NumElements() int {
	n := 1
	for _, dim := range s {
		n *= dim
	}
	return n
}

// Ndim returns the number of axes.
func (s Shape) Ndim() int {
	return len(s)
}

// Equal reports whether two shapes are identical.
func (s Shape) Equal(other Shape) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

// Clone returns a copy of the shape.
func (s Shape) Clone() Shape {
	clone := make(Shape, len(s))
	copy(clone, s)
	return clone
}

// Strides returns row-major element strides: stride[i] is the product of
// all dimensions after i.
func (s Shape) Strides() []int {
	strides := make([]int, len(s))
	acc := 1
	for i := len(s) - 1; i >= 0; i-- {
		strides[i] = acc
		acc *= s[i]
	}
	return strides
}

// String renders the shape NumPy-style, e.g. (32, 10) or (10,).
func (s Shape) String() string {
	return errors.FormatShape(s)
}

func (s Shape) validate(op string) error {
	n := 1
	for i, dim := range s {
		if dim < 0 {
			return errors.NewValidationError(op, "negative dimension at axis "+strconv.Itoa(i), dim)
		}
		if dim != 0 && n > math.MaxInt/dim {
			return errors.NewValidationError(op, "element count of "+s.String()+" overflows int", dim)
		}
		n *= dim
	}
	return nil
}

// BroadcastShapes returns the shape produced by broadcasting a against b.
//
// Shapes are compared from the trailing axis. Two dimensions are compatible
// when they are equal or one of them is 1; a missing leading axis counts
// as 1. The result takes the larger dimension on every axis:
//
//	(32, 10) with (10,)          -> (32, 10)
//	(64, 3, 32, 10) with (32, 10) -> (64, 3, 32, 10)
//	(3, 1) with (1, 5)           -> (3, 5)
//	(3, 4) with (5,)             -> error
func BroadcastShapes(a, b Shape) (Shape, error) {
	n := len(a)
	if len(b) > n {
		n = len(b)
	}
	out := make(Shape, n)
	for i := 1; i <= n; i++ {
		da, db := 1, 1
		if i <= len(a) {
			da = a[len(a)-i]
		}
		if i <= len(b) {
			db = b[len(b)-i]
		}
		switch {
		case da == db:
			out[n-i] = da
		case da == 1:
			out[n-i] = db
		case db == 1:
			out[n-i] = da
		default:
			return nil, errors.NewBroadcastError(a, b, n-i)
		}
	}
	return out, nil
}

// broadcastStrides returns strides for reading an array of shape in as if it
// had shape out. Padded and size-1 axes get stride 0.
func broadcastStrides(in, out Shape) []int {
	strides := make([]int, len(out))
	inStrides := in.Strides()
	offset := len(out) - len(in)
	for i := range out {
		j := i - offset
		if j < 0 || in[j] == 1 {
			continue
		}
		strides[i] = inStrides[j]
	}
	return strides
}
