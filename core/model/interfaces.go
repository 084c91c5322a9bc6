package model

import "gonum.org/v1/gonum/mat"

// Transformer learns parameters from data and applies them.
type Transformer interface {
	Fit(X mat.Matrix) error
	Transform(X mat.Matrix) (mat.Matrix, error)
	FitTransform(X mat.Matrix) (mat.Matrix, error)
}

// InverseTransformer can undo its transformation.
type InverseTransformer interface {
	Transformer
	InverseTransform(X mat.Matrix) (mat.Matrix, error)
}

// Predictor maps a batch of samples to one output row per sample.
type Predictor interface {
	Predict(X mat.Matrix, batchSize int) (*mat.Dense, error)
}

// Classifier is a Predictor whose output rows are class probabilities.
type Classifier interface {
	Predictor

	// PredictClasses returns the most probable class per sample.
	PredictClasses(X mat.Matrix, batchSize int) ([]int, error)
}

// ParameterGetter exposes a model's hyperparameters.
type ParameterGetter interface {
	GetParams() map[string]interface{}
}

// Persistable models can be written to a file.
type Persistable interface {
	Save(path string) error
}
