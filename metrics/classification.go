package metrics

import (
	"math"

	"github.com/YuminosukeSato/denseflow/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Epsilon bounds predicted probabilities away from 0 and 1 before taking
// logarithms.
const Epsilon = 1e-7

// Accuracy is the fraction of positions where yPred equals yTrue.
func Accuracy(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkVectors("Accuracy", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	correct := 0
	for i := 0; i < n; i++ {
		if yTrue.AtVec(i) == yPred.AtVec(i) {
			correct++
		}
	}
	return float64(correct) / float64(n), nil
}

// ClassificationError is 1 - Accuracy.
func ClassificationError(yTrue, yPred *mat.VecDense) (float64, error) {
	acc, err := Accuracy(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return 1 - acc, nil
}

// Argmax returns the column index of the largest entry in every row. Ties
// go to the lowest index.
func Argmax(m mat.Matrix) []int {
	r, c := m.Dims()
	out := make([]int, r)
	if c == 0 {
		return out
	}
	row := make([]float64, c)
	for i := 0; i < r; i++ {
		mat.Row(row, i, m)
		out[i] = floats.MaxIdx(row)
	}
	return out
}

// SparseLabel converts a label stored as float64 to a class index in
// [0, numClasses). Fractional and out-of-range values are rejected.
func SparseLabel(v float64, numClasses int) (int, error) {
	if v != math.Trunc(v) {
		return 0, errors.NewValidationError("labels", "must be integral class indices", v)
	}
	if v < 0 || v >= float64(numClasses) {
		return 0, errors.NewValidationError("labels", "outside [0, num_classes)", v)
	}
	return int(v), nil
}

// SparseCategoricalAccuracy compares integer labels held in an (n, 1)
// column against the argmax of (n, k) class probabilities.
func SparseCategoricalAccuracy(labels, probs mat.Matrix) (float64, error) {
	if labels == nil || probs == nil {
		return 0, errors.NewValueError("SparseCategoricalAccuracy", "nil matrix")
	}
	n, c := labels.Dims()
	pn, _ := probs.Dims()
	if n == 0 {
		return 0, errors.NewValueError("SparseCategoricalAccuracy", "empty matrix")
	}
	if c != 1 {
		return 0, errors.NewDimensionError("SparseCategoricalAccuracy", 1, c, 1)
	}
	if pn != n {
		return 0, errors.NewDimensionError("SparseCategoricalAccuracy", n, pn, 0)
	}
	_, k := probs.Dims()
	pred := Argmax(probs)
	correct := 0
	for i, p := range pred {
		label, err := SparseLabel(labels.At(i, 0), k)
		if err != nil {
			return 0, err
		}
		if label == p {
			correct++
		}
	}
	return float64(correct) / float64(n), nil
}

// CategoricalAccuracy compares the argmax of one-hot targets with the argmax
// of predicted probabilities.
func CategoricalAccuracy(onehot, probs mat.Matrix) (float64, error) {
	n, _, err := checkMatrices("CategoricalAccuracy", onehot, probs)
	if err != nil {
		return 0, err
	}
	want := Argmax(onehot)
	got := Argmax(probs)
	correct := 0
	for i := range want {
		if want[i] == got[i] {
			correct++
		}
	}
	return float64(correct) / float64(n), nil
}

// ConfusionMatrix counts predictions per (true, predicted) class pair. Row
// i, column j holds how many samples of class i were predicted as j.
func ConfusionMatrix(yTrue, yPred []int, numClasses int) (*mat.Dense, error) {
	if len(yTrue) == 0 {
		return nil, errors.NewValueError("ConfusionMatrix", "empty labels")
	}
	if len(yPred) != len(yTrue) {
		return nil, errors.NewDimensionError("ConfusionMatrix", len(yTrue), len(yPred), 0)
	}
	if numClasses <= 0 {
		return nil, errors.NewValidationError("numClasses", "must be positive", numClasses)
	}
	cm := mat.NewDense(numClasses, numClasses, nil)
	for i := range yTrue {
		t, p := yTrue[i], yPred[i]
		if t < 0 || t >= numClasses || p < 0 || p >= numClasses {
			return nil, errors.NewValidationError("labels", "outside [0, numClasses)", [2]int{t, p})
		}
		cm.Set(t, p, cm.At(t, p)+1)
	}
	return cm, nil
}

// SparseCategoricalCrossentropy is the mean of -log p[label] over the rows
// of probs, with probabilities clipped to [Epsilon, 1-Epsilon].
func SparseCategoricalCrossentropy(labels, probs mat.Matrix) (float64, error) {
	if labels == nil || probs == nil {
		return 0, errors.NewValueError("SparseCategoricalCrossentropy", "nil matrix")
	}
	n, c := labels.Dims()
	pn, k := probs.Dims()
	if n == 0 {
		return 0, errors.NewValueError("SparseCategoricalCrossentropy", "empty matrix")
	}
	if c != 1 {
		return 0, errors.NewDimensionError("SparseCategoricalCrossentropy", 1, c, 1)
	}
	if pn != n {
		return 0, errors.NewDimensionError("SparseCategoricalCrossentropy", n, pn, 0)
	}
	var sum float64
	for i := 0; i < n; i++ {
		label, err := SparseLabel(labels.At(i, 0), k)
		if err != nil {
			return 0, err
		}
		sum -= math.Log(errors.ClipValue(probs.At(i, label), Epsilon, 1-Epsilon))
	}
	return sum / float64(n), nil
}

// CategoricalCrossentropy is the mean of -Σ y log p over the rows, with
// probabilities clipped to [Epsilon, 1-Epsilon].
func CategoricalCrossentropy(onehot, probs mat.Matrix) (float64, error) {
	n, k, err := checkMatrices("CategoricalCrossentropy", onehot, probs)
	if err != nil {
		return 0, err
	}
	var sum float64
	for i := 0; i < n; i++ {
		for j := 0; j < k; j++ {
			if y := onehot.At(i, j); y != 0 {
				sum -= y * math.Log(errors.ClipValue(probs.At(i, j), Epsilon, 1-Epsilon))
			}
		}
	}
	return sum / float64(n), nil
}
