package tensor

import (
	"github.com/YuminosukeSato/denseflow/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// The functions in this file compute everything with explicit loops, one
// scalar at a time. They exist to be compared against the gonum-backed
// versions in vectorized.go and must give identical results.

func checkNonEmpty(op string, m mat.Matrix) (int, int, error) {
	r, c := m.Dims()
	if r == 0 || c == 0 {
		return 0, 0, errors.NewModelError(op, "empty matrix", errors.ErrEmptyData)
	}
	return r, c, nil
}

// NaiveReLU returns max(x, 0) computed entry by entry.
func NaiveReLU(x mat.Matrix) (*mat.Dense, error) {
	r, c, err := checkNonEmpty("NaiveReLU", x)
	if err != nil {
		return nil, err
	}
	out := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v := x.At(i, j)
			if v < 0 {
				v = 0
			}
			out.Set(i, j, v)
		}
	}
	return out, nil
}

// NaiveAdd returns x + y for two matrices of the same shape.
func NaiveAdd(x, y mat.Matrix) (*mat.Dense, error) {
	r, c, err := checkNonEmpty("NaiveAdd", x)
	if err != nil {
		return nil, err
	}
	yr, yc := y.Dims()
	if yr != r {
		return nil, errors.NewDimensionError("NaiveAdd", r, yr, 0)
	}
	if yc != c {
		return nil, errors.NewDimensionError("NaiveAdd", c, yc, 1)
	}
	out := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			out.Set(i, j, x.At(i, j)+y.At(i, j))
		}
	}
	return out, nil
}

// NaiveAddMatrixAndVector adds vector y to every row of x. y must have one
// entry per column of x.
func NaiveAddMatrixAndVector(x mat.Matrix, y mat.Vector) (*mat.Dense, error) {
	r, c, err := checkNonEmpty("NaiveAddMatrixAndVector", x)
	if err != nil {
		return nil, err
	}
	if y.Len() != c {
		return nil, errors.NewDimensionError("NaiveAddMatrixAndVector", c, y.Len(), 1)
	}
	out := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			out.Set(i, j, x.At(i, j)+y.AtVec(j))
		}
	}
	return out, nil
}

// NaiveVectorDot returns the dot product of two vectors of equal length.
func NaiveVectorDot(x, y mat.Vector) (float64, error) {
	if x.Len() != y.Len() {
		return 0, errors.NewDimensionError("NaiveVectorDot", x.Len(), y.Len(), 0)
	}
	z := 0.0
	for i := 0; i < x.Len(); i++ {
		z += x.AtVec(i) * y.AtVec(i)
	}
	return z, nil
}

// NaiveMatrixVectorDot returns x·y, one row dot product at a time.
func NaiveMatrixVectorDot(x mat.Matrix, y mat.Vector) (*mat.VecDense, error) {
	r, c, err := checkNonEmpty("NaiveMatrixVectorDot", x)
	if err != nil {
		return nil, err
	}
	if y.Len() != c {
		return nil, errors.NewDimensionError("NaiveMatrixVectorDot", c, y.Len(), 1)
	}
	z := mat.NewVecDense(r, nil)
	for i := 0; i < r; i++ {
		row := mat.NewVecDense(c, mat.Row(nil, i, x))
		v, err := NaiveVectorDot(row, y)
		if err != nil {
			return nil, err
		}
		z.SetVec(i, v)
	}
	return z, nil
}

// NaiveMatrixDot returns x·y where x is (a, b) and y is (b, c).
func NaiveMatrixDot(x, y mat.Matrix) (*mat.Dense, error) {
	r, inner, err := checkNonEmpty("NaiveMatrixDot", x)
	if err != nil {
		return nil, err
	}
	yr, c := y.Dims()
	if yr != inner {
		return nil, errors.NewDimensionError("NaiveMatrixDot", inner, yr, 0)
	}
	z := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			sum := 0.0
			for k := 0; k < inner; k++ {
				sum += x.At(i, k) * y.At(k, j)
			}
			z.Set(i, j, sum)
		}
	}
	return z, nil
}
