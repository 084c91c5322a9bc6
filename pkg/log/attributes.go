// Package log defines standard attribute keys so every package logs the same
// facts under the same names. Keys are hierarchical ("model.name",
// "data.samples") to keep them filterable.

package log

// Model and operation context.
const (
	// ModelNameKey identifies the model type, e.g. "Sequential".
	ModelNameKey = "model.name"

	// LayerKey identifies a layer inside a model, e.g. "dense_1".
	LayerKey = "model.layer"

	// OperationKey is the operation being performed: fit, predict, evaluate...
	OperationKey = "ml.operation"

	// ComponentKey identifies the package emitting the record.
	ComponentKey = "ml.component"

	// PhaseKey is the lifecycle phase: training, validation, inference...
	PhaseKey = "ml.phase"
)

// Data shape and characteristics.
const (
	SamplesKey   = "data.samples"
	FeaturesKey  = "data.features"
	ShapeKey     = "data.shape"
	DataTypeKey  = "data.type"
	BatchSizeKey = "data.batch_size"
	PathKey      = "data.path"
)

// Performance and training metrics.
const (
	DurationMsKey = "perf.duration_ms"
	SpeedupKey    = "perf.speedup"
	AccuracyKey   = "metrics.accuracy"
	LossKey       = "metrics.loss"
	EpochKey      = "training.epoch"
	StepKey       = "training.step"
)

// Hyperparameters.
const (
	OptimizerKey    = "hyperparams.optimizer"
	LearningRateKey = "hyperparams.learning_rate"
	RandomSeedKey   = "config.random_seed"
)

// Error context.
const (
	ErrorCodeKey  = "error.code"
	SuggestionKey = "error.suggestion"
)

// Standard attribute values.
const (
	OperationFit       = "fit"
	OperationPredict   = "predict"
	OperationEvaluate  = "evaluate"
	OperationTransform = "transform"
	OperationLoad      = "load"

	PhaseTraining      = "training"
	PhaseValidation    = "validation"
	PhaseInference     = "inference"
	PhasePreprocessing = "preprocessing"

	ErrorNotFitted         = "NOT_FITTED"
	ErrorDimensionMismatch = "DIMENSION_MISMATCH"
	ErrorNumerical         = "NUMERICAL_INSTABILITY"
)
