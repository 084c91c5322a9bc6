package nn

import (
	"github.com/YuminosukeSato/denseflow/metrics"
	"github.com/YuminosukeSato/denseflow/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Metric names accepted by WithMetrics.
const (
	Accuracy                  = "accuracy"
	SparseCategoricalAccuracy = "sparse_categorical_accuracy"
	CategoricalAccuracy       = "categorical_accuracy"
	MeanSquaredErrorMetric    = "mse"
	MeanAbsoluteErrorMetric   = "mae"
)

type metricFunc func(yTrue, yPred mat.Matrix) (float64, error)

// namedMetric is a metric as it appears in logs and History.
type namedMetric struct {
	name string
	fn   metricFunc
}

// resolveMetric maps a metric name onto its implementation. "accuracy"
// follows the target layout implied by loss.
func resolveMetric(name string, loss Loss) (namedMetric, error) {
	switch name {
	case Accuracy, "acc":
		if _, sparse := loss.(sparseCategoricalCrossentropy); sparse {
			return namedMetric{Accuracy, metrics.SparseCategoricalAccuracy}, nil
		}
		return namedMetric{Accuracy, metrics.CategoricalAccuracy}, nil
	case SparseCategoricalAccuracy:
		return namedMetric{name, metrics.SparseCategoricalAccuracy}, nil
	case CategoricalAccuracy:
		return namedMetric{name, metrics.CategoricalAccuracy}, nil
	case MeanSquaredErrorMetric, "mean_squared_error":
		return namedMetric{MeanSquaredErrorMetric, metrics.MeanSquaredError}, nil
	case MeanAbsoluteErrorMetric, "mean_absolute_error":
		return namedMetric{MeanAbsoluteErrorMetric, metrics.MeanAbsoluteError}, nil
	}
	return namedMetric{}, errors.NewValidationError("metrics", "unknown metric", name)
}
