// Package metrics implements evaluation metrics for regression and
// classification outputs held in gonum vectors and matrices.
package metrics

import (
	"math"

	"github.com/YuminosukeSato/denseflow/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

func checkVectors(op string, yTrue, yPred *mat.VecDense) (int, error) {
	if yTrue == nil || yPred == nil || yTrue.IsEmpty() {
		return 0, errors.NewValueError(op, "empty vector")
	}
	n := yTrue.Len()
	if yPred.IsEmpty() || yPred.Len() != n {
		got := 0
		if !yPred.IsEmpty() {
			got = yPred.Len()
		}
		return 0, errors.NewDimensionError(op, n, got, 0)
	}
	return n, nil
}

func checkMatrices(op string, yTrue, yPred mat.Matrix) (int, int, error) {
	if yTrue == nil || yPred == nil {
		return 0, 0, errors.NewValueError(op, "nil matrix")
	}
	r, c := yTrue.Dims()
	pr, pc := yPred.Dims()
	if r == 0 || c == 0 {
		return 0, 0, errors.NewValueError(op, "empty matrix")
	}
	if pr != r {
		return 0, 0, errors.NewDimensionError(op, r, pr, 0)
	}
	if pc != c {
		return 0, 0, errors.NewDimensionError(op, c, pc, 1)
	}
	return r, c, nil
}

// MSE computes the mean squared error (1/n) Σ (yTrue - yPred)².
func MSE(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkVectors("MSE", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	var sum float64
	for i := 0; i < n; i++ {
		diff := yTrue.AtVec(i) - yPred.AtVec(i)
		sum += diff * diff
	}
	return sum / float64(n), nil
}

// MSEMatrix computes MSE for (n, 1) column matrices.
func MSEMatrix(yTrue, yPred mat.Matrix) (float64, error) {
	r, c, err := checkMatrices("MSEMatrix", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	if c != 1 {
		return 0, errors.NewValueError("MSEMatrix", "must be a column vector (n×1 matrix)")
	}
	return MSE(
		mat.NewVecDense(r, mat.Col(nil, 0, yTrue)),
		mat.NewVecDense(r, mat.Col(nil, 0, yPred)),
	)
}

// RMSE is the square root of MSE.
func RMSE(yTrue, yPred *mat.VecDense) (float64, error) {
	mse, err := MSE(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return math.Sqrt(mse), nil
}

// MAE computes the mean absolute error (1/n) Σ |yTrue - yPred|.
func MAE(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkVectors("MAE", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	var sum float64
	for i := 0; i < n; i++ {
		sum += math.Abs(yTrue.AtVec(i) - yPred.AtVec(i))
	}
	return sum / float64(n), nil
}

// MAEMatrix computes MAE for (n, 1) column matrices.
func MAEMatrix(yTrue, yPred mat.Matrix) (float64, error) {
	r, c, err := checkMatrices("MAEMatrix", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	if c != 1 {
		return 0, errors.NewValueError("MAEMatrix", "must be a column vector (n×1 matrix)")
	}
	return MAE(
		mat.NewVecDense(r, mat.Col(nil, 0, yTrue)),
		mat.NewVecDense(r, mat.Col(nil, 0, yPred)),
	)
}

// MeanSquaredError averages the squared difference over every entry of two
// equally shaped matrices, the multi-output form of MSE.
func MeanSquaredError(yTrue, yPred mat.Matrix) (float64, error) {
	r, c, err := checkMatrices("MeanSquaredError", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	var diff mat.Dense
	diff.Sub(yTrue, yPred)
	d := diff.RawMatrix().Data
	return floats.Dot(d, d) / float64(r*c), nil
}

// MeanAbsoluteError averages the absolute difference over every entry.
func MeanAbsoluteError(yTrue, yPred mat.Matrix) (float64, error) {
	r, c, err := checkMatrices("MeanAbsoluteError", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	var sum float64
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			sum += math.Abs(yTrue.At(i, j) - yPred.At(i, j))
		}
	}
	return sum / float64(r*c), nil
}

// R2Score computes the coefficient of determination 1 - RSS/TSS.
func R2Score(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkVectors("R2Score", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	var yMean float64
	for i := 0; i < n; i++ {
		yMean += yTrue.AtVec(i)
	}
	yMean /= float64(n)

	var tss, rss float64
	for i := 0; i < n; i++ {
		t := yTrue.AtVec(i)
		p := yPred.AtVec(i)
		tss += (t - yMean) * (t - yMean)
		rss += (t - p) * (t - p)
	}

	if tss == 0 {
		return 0, errors.Newf("R2Score: total sum of squares is zero (no variance in yTrue)")
	}
	return 1 - rss/tss, nil
}
