package preprocessing

import (
	"strconv"

	"github.com/YuminosukeSato/denseflow/pkg/errors"
	"github.com/YuminosukeSato/denseflow/tensor"
	"gonum.org/v1/gonum/mat"
)

// PixelScale maps 8-bit intensities onto [0, 1].
const PixelScale = 1.0 / 255

// Flatten turns an (n, h, w) image stack into an (n, h*w) matrix, one
// image per row.
func Flatten(images *tensor.Array) (*mat.Dense, error) {
	shape := images.Shape()
	if shape.Ndim() < 2 {
		return nil, errors.NewValueError("Flatten", "expected at least 2 dimensions, got shape "+shape.String())
	}
	flat, err := images.Reshape(shape[0], -1)
	if err != nil {
		return nil, err
	}
	return flat.ToDense()
}

// Rescaler multiplies every value by Factor. It is stateless; Fit only
// exists to satisfy model.Transformer.
type Rescaler struct {
	Factor float64
}

// NewRescaler returns a Rescaler with the given factor.
func NewRescaler(factor float64) *Rescaler {
	return &Rescaler{Factor: factor}
}

// NewPixelRescaler returns a Rescaler that divides by 255.
func NewPixelRescaler() *Rescaler {
	return NewRescaler(PixelScale)
}

// Fit is a no-op.
func (r *Rescaler) Fit(X mat.Matrix) error {
	return nil
}

// Transform returns Factor * X.
func (r *Rescaler) Transform(X mat.Matrix) (mat.Matrix, error) {
	rows, cols := X.Dims()
	if rows == 0 || cols == 0 {
		return nil, errors.NewModelError("Rescaler.Transform", "empty data", errors.ErrEmptyData)
	}
	var out mat.Dense
	out.Scale(r.Factor, X)
	return &out, nil
}

// FitTransform is Transform.
func (r *Rescaler) FitTransform(X mat.Matrix) (mat.Matrix, error) {
	return r.Transform(X)
}

// InverseTransform divides by Factor.
func (r *Rescaler) InverseTransform(X mat.Matrix) (mat.Matrix, error) {
	if r.Factor == 0 {
		return nil, errors.NewValidationError("factor", "cannot invert a zero factor", r.Factor)
	}
	rows, cols := X.Dims()
	if rows == 0 || cols == 0 {
		return nil, errors.NewModelError("Rescaler.InverseTransform", "empty data", errors.ErrEmptyData)
	}
	var out mat.Dense
	out.Scale(1/r.Factor, X)
	return &out, nil
}

// ToCategorical one-hot encodes integer labels into an (n, numClasses)
// matrix. numClasses <= 0 infers max(labels)+1.
func ToCategorical(labels []int, numClasses int) (*mat.Dense, error) {
	if len(labels) == 0 {
		return nil, errors.NewModelError("ToCategorical", "empty labels", errors.ErrEmptyData)
	}
	if numClasses <= 0 {
		for _, l := range labels {
			numClasses = max(numClasses, l+1)
		}
	}
	out := mat.NewDense(len(labels), numClasses, nil)
	for i, l := range labels {
		if l < 0 || l >= numClasses {
			return nil, errors.NewValidationError("labels",
				"label at index "+strconv.Itoa(i)+" outside [0, "+strconv.Itoa(numClasses)+")", l)
		}
		out.Set(i, l, 1)
	}
	return out, nil
}

// LabelsToColumn stores labels as an (n, 1) matrix, the target layout of
// sparse categorical losses.
func LabelsToColumn(labels []int) (*mat.Dense, error) {
	if len(labels) == 0 {
		return nil, errors.NewModelError("LabelsToColumn", "empty labels", errors.ErrEmptyData)
	}
	data := make([]float64, len(labels))
	for i, l := range labels {
		data[i] = float64(l)
	}
	return mat.NewDense(len(labels), 1, data), nil
}

// ColumnToLabels is the inverse of LabelsToColumn; values are truncated to
// int.
func ColumnToLabels(col mat.Matrix) []int {
	r, _ := col.Dims()
	labels := make([]int, r)
	for i := range labels {
		labels[i] = int(col.At(i, 0))
	}
	return labels
}
