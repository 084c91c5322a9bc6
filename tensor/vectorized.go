package tensor

import (
	"github.com/YuminosukeSato/denseflow/core/parallel"
	"github.com/YuminosukeSato/denseflow/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// ReLU returns max(x, 0). Rows are processed concurrently once the matrix
// is large enough.
func ReLU(x mat.Matrix) (*mat.Dense, error) {
	if _, _, err := checkNonEmpty("ReLU", x); err != nil {
		return nil, err
	}
	out := mat.DenseCopyOf(x)
	ReLUInPlace(out)
	return out, nil
}

// ReLUInPlace clamps negative entries of m to zero.
func ReLUInPlace(m *mat.Dense) {
	r, c := m.Dims()
	parallel.ParallelizeWithThreshold(r, parallel.DefaultThreshold/max(c, 1), func(start, end int) {
		for i := start; i < end; i++ {
			row := m.RawRowView(i)
			for j, v := range row {
				if v < 0 {
					row[j] = 0
				}
			}
		}
	})
}

// Add returns x + y for two matrices of the same shape.
func Add(x, y mat.Matrix) (out *mat.Dense, err error) {
	defer errors.Recover(&err, "tensor.Add")
	r, c, err := checkNonEmpty("Add", x)
	if err != nil {
		return nil, err
	}
	yr, yc := y.Dims()
	if yr != r {
		return nil, errors.NewDimensionError("Add", r, yr, 0)
	}
	if yc != c {
		return nil, errors.NewDimensionError("Add", c, yc, 1)
	}
	out = mat.NewDense(r, c, nil)
	out.Add(x, y)
	return out, nil
}

// AddRowVector broadcasts v across the rows of x: out[i, j] = x[i, j] + v[j].
// The vector is never expanded into a matrix.
func AddRowVector(x mat.Matrix, v mat.Vector) (*mat.Dense, error) {
	_, c, err := checkNonEmpty("AddRowVector", x)
	if err != nil {
		return nil, err
	}
	if v.Len() != c {
		return nil, errors.NewDimensionError("AddRowVector", c, v.Len(), 1)
	}
	out := mat.DenseCopyOf(x)
	AddRowVectorInPlace(out, v)
	return out, nil
}

// AddRowVectorInPlace adds v to every row of m. The caller guarantees
// v.Len() equals the column count.
func AddRowVectorInPlace(m *mat.Dense, v mat.Vector) {
	r, c := m.Dims()
	vec := vectorData(v)
	parallel.ParallelizeWithThreshold(r, parallel.DefaultThreshold/max(c, 1), func(start, end int) {
		for i := start; i < end; i++ {
			floats.Add(m.RawRowView(i), vec)
		}
	})
}

// VectorDot returns the dot product of two vectors of equal length.
func VectorDot(x, y mat.Vector) (float64, error) {
	if x.Len() != y.Len() {
		return 0, errors.NewDimensionError("VectorDot", x.Len(), y.Len(), 0)
	}
	if x.Len() == 0 {
		return 0, nil
	}
	return mat.Dot(x, y), nil
}

// MatrixVectorDot returns x·y.
func MatrixVectorDot(x mat.Matrix, y mat.Vector) (*mat.VecDense, error) {
	r, c, err := checkNonEmpty("MatrixVectorDot", x)
	if err != nil {
		return nil, err
	}
	if y.Len() != c {
		return nil, errors.NewDimensionError("MatrixVectorDot", c, y.Len(), 1)
	}
	out := mat.NewVecDense(r, nil)
	out.MulVec(x, y)
	return out, nil
}

// MatrixDot returns x·y where x is (a, b) and y is (b, c).
func MatrixDot(x, y mat.Matrix) (*mat.Dense, error) {
	r, inner, err := checkNonEmpty("MatrixDot", x)
	if err != nil {
		return nil, err
	}
	yr, c := y.Dims()
	if yr != inner {
		return nil, errors.NewDimensionError("MatrixDot", inner, yr, 0)
	}
	out := mat.NewDense(r, c, nil)
	out.Mul(x, y)
	return out, nil
}

// vectorData returns v's entries as a contiguous slice, copying only when
// v is strided or not a VecDense.
func vectorData(v mat.Vector) []float64 {
	if vd, ok := v.(*mat.VecDense); ok {
		raw := vd.RawVector()
		if raw.Inc == 1 {
			return raw.Data[:vd.Len()]
		}
	}
	out := make([]float64, v.Len())
	for i := range out {
		out[i] = v.AtVec(i)
	}
	return out
}
