package tensor

import (
	"math/rand"
	"strconv"

	"github.com/YuminosukeSato/denseflow/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Array is an N-dimensional float64 array stored contiguously in row-major
// order. Reshape and ExpandDims return views that share the backing slice;
// every other operation allocates its result.
type Array struct {
	shape Shape
	data  []float64
}

// NewArray wraps data with shape. len(data) must equal the shape's element
// count. A nil data slice allocates zeros.
func NewArray(shape Shape, data []float64) (*Array, error) {
	if err := shape.validate("NewArray"); err != nil {
		return nil, err
	}
	n := shape.NumElements()
	if data == nil {
		data = make([]float64, n)
	}
	if len(data) != n {
		return nil, errors.NewValueError("NewArray",
			"data length "+strconv.Itoa(len(data))+" does not match shape "+shape.String())
	}
	return &Array{shape: shape.Clone(), data: data}, nil
}

// Zeros returns a zero-filled array. It panics on negative dimensions, like
// make does.
func Zeros(shape ...int) *Array {
	a, err := NewArray(Shape(shape), nil)
	if err != nil {
		panic(err)
	}
	return a
}

// Scalar returns a zero-dimensional array holding v.
func Scalar(v float64) *Array {
	return &Array{shape: Shape{}, data: []float64{v}}
}

// RandomUniform fills a new array with samples from [0, 1).
func RandomUniform(rng *rand.Rand, shape ...int) *Array {
	a := Zeros(shape...)
	for i := range a.data {
		a.data[i] = rng.Float64()
	}
	return a
}

// FromDense copies a gonum matrix into a 2-D array.
func FromDense(m mat.Matrix) *Array {
	r, c := m.Dims()
	a := Zeros(r, c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			a.data[i*c+j] = m.At(i, j)
		}
	}
	return a
}

// FromVector copies a gonum vector into a 1-D array.
func FromVector(v mat.Vector) *Array {
	n := v.Len()
	a := Zeros(n)
	for i := 0; i < n; i++ {
		a.data[i] = v.AtVec(i)
	}
	return a
}

// Shape returns a copy of the array's shape.
func (a *Array) Shape() Shape {
	return a.shape.Clone()
}

// Ndim returns the number of axes.
func (a *Array) Ndim() int {
	return len(a.shape)
}

// Size returns the number of elements.
func (a *Array) Size() int {
	return len(a.data)
}

// Data returns the backing slice. Writes are visible through every view.
func (a *Array) Data() []float64 {
	return a.data
}

// Clone returns a deep copy.
func (a *Array) Clone() *Array {
	data := make([]float64, len(a.data))
	copy(data, a.data)
	return &Array{shape: a.shape.Clone(), data: data}
}

func (a *Array) offset(op string, idx []int) (int, error) {
	if len(idx) != len(a.shape) {
		return 0, errors.NewValueError(op, "expected "+strconv.Itoa(len(a.shape))+" indices, got "+strconv.Itoa(len(idx)))
	}
	off := 0
	strides := a.shape.Strides()
	for i, v := range idx {
		if v < 0 || v >= a.shape[i] {
			return 0, errors.NewValueError(op, "index "+strconv.Itoa(v)+" out of range for axis "+strconv.Itoa(i)+" with size "+strconv.Itoa(a.shape[i]))
		}
		off += v * strides[i]
	}
	return off, nil
}

// At returns the element at idx.
func (a *Array) At(idx ...int) (float64, error) {
	off, err := a.offset("Array.At", idx)
	if err != nil {
		return 0, err
	}
	return a.data[off], nil
}

// Set stores v at idx.
func (a *Array) Set(v float64, idx ...int) error {
	off, err := a.offset("Array.Set", idx)
	if err != nil {
		return err
	}
	a.data[off] = v
	return nil
}

// Reshape returns a view with a new shape holding the same number of
// elements. One dimension may be -1 and is inferred.
//
//	images.Reshape(60000, 28*28)
//	images.Reshape(-1, 784)
func (a *Array) Reshape(shape ...int) (*Array, error) {
	target := Shape(shape).Clone()
	infer := -1
	known := 1
	for i, d := range target {
		switch {
		case d == -1 && infer == -1:
			infer = i
		case d < 0:
			return nil, errors.NewValidationError("Reshape", "invalid dimension", d)
		default:
			known *= d
		}
	}
	if infer >= 0 {
		if known == 0 || a.Size()%known != 0 {
			return nil, errors.NewShapeError("Reshape", a.shape, target)
		}
		target[infer] = a.Size() / known
	}
	if target.NumElements() != a.Size() {
		return nil, errors.NewShapeError("Reshape", a.shape, target)
	}
	return &Array{shape: target, data: a.data}, nil
}

// ExpandDims returns a view with a new axis of size 1 inserted at axis.
// Negative axes count from the end, so -1 appends.
func (a *Array) ExpandDims(axis int) (*Array, error) {
	n := len(a.shape) + 1
	if axis < 0 {
		axis += n
	}
	if axis < 0 || axis >= n {
		return nil, errors.NewValueError("ExpandDims", "axis "+strconv.Itoa(axis)+" out of range for "+strconv.Itoa(n)+" dimensions")
	}
	shape := make(Shape, 0, n)
	shape = append(shape, a.shape[:axis]...)
	shape = append(shape, 1)
	shape = append(shape, a.shape[axis:]...)
	return &Array{shape: shape, data: a.data}, nil
}

// Transpose returns the transpose of a 2-D array.
func (a *Array) Transpose() (*Array, error) {
	if len(a.shape) != 2 {
		return nil, errors.NewValueError("Transpose", "expected a 2-D array, got shape "+a.shape.String())
	}
	r, c := a.shape[0], a.shape[1]
	out := Zeros(c, r)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			out.data[j*r+i] = a.data[i*c+j]
		}
	}
	return out, nil
}

// ToDense copies a non-empty 2-D array into a gonum matrix.
func (a *Array) ToDense() (*mat.Dense, error) {
	if len(a.shape) != 2 {
		return nil, errors.NewValueError("ToDense", "expected a 2-D array, got shape "+a.shape.String())
	}
	if a.Size() == 0 {
		return nil, errors.NewModelError("ToDense", "empty array", errors.ErrEmptyData)
	}
	data := make([]float64, len(a.data))
	copy(data, a.data)
	return mat.NewDense(a.shape[0], a.shape[1], data), nil
}

// ToVecDense copies a non-empty 1-D array into a gonum vector.
func (a *Array) ToVecDense() (*mat.VecDense, error) {
	if len(a.shape) != 1 {
		return nil, errors.NewValueError("ToVecDense", "expected a 1-D array, got shape "+a.shape.String())
	}
	if a.Size() == 0 {
		return nil, errors.NewModelError("ToVecDense", "empty array", errors.ErrEmptyData)
	}
	data := make([]float64, len(a.data))
	copy(data, a.data)
	return mat.NewVecDense(len(data), data), nil
}

// Row returns a copy of the i-th slice along axis 0, e.g. one image of a
// (n, 28, 28) stack as a (28, 28) array.
func (a *Array) Row(i int) (*Array, error) {
	if len(a.shape) == 0 {
		return nil, errors.NewValueError("Row", "scalar has no rows")
	}
	if i < 0 || i >= a.shape[0] {
		return nil, errors.NewValueError("Row", "index "+strconv.Itoa(i)+" out of range for axis 0 with size "+strconv.Itoa(a.shape[0]))
	}
	inner := a.shape[1:].NumElements()
	data := make([]float64, inner)
	copy(data, a.data[i*inner:(i+1)*inner])
	return &Array{shape: a.shape[1:].Clone(), data: data}, nil
}
