package nn

import (
	"github.com/YuminosukeSato/denseflow/core/model"
	"github.com/YuminosukeSato/denseflow/pkg/errors"
	"github.com/YuminosukeSato/denseflow/pkg/log"
)

const (
	modelType      = "Sequential"
	weightsVersion = "1.0"
)

// Weights exports the architecture, weights and compile configuration.
// Optimizer slot state (momentum, running averages) is not included.
func (s *Sequential) Weights() *model.ModelWeights {
	mw := &model.ModelWeights{
		ModelType:       modelType,
		Version:         weightsVersion,
		Layers:          make([]model.LayerWeights, len(s.layers)),
		Hyperparameters: map[string]interface{}{"name": s.name, "seed": s.seed},
		Metadata:        map[string]interface{}{"params": s.CountParams()},
		IsFitted:        s.IsFitted(),
	}
	for i, l := range s.layers {
		mw.Layers[i] = l.weights()
	}
	if s.Compiled() {
		mw.Hyperparameters["optimizer"] = s.optimizer.Name()
		mw.Hyperparameters["learning_rate"] = s.optimizer.LearningRate()
		mw.Hyperparameters["loss"] = s.loss.Name()
		mw.Hyperparameters["metrics"] = s.MetricNames()
	}
	if features, samples := s.state.GetDimensions(); samples > 0 {
		mw.Metadata["n_features"] = features
		mw.Metadata["n_samples"] = samples
	}
	return mw
}

// ExportWeights returns Weights as indented JSON.
func (s *Sequential) ExportWeights() ([]byte, error) {
	return s.Weights().ToJSON()
}

// Save writes the model to path in gob format. Only built models can be
// saved.
func (s *Sequential) Save(path string) error {
	if !s.Built() {
		return errors.NewNotFittedError("Sequential", "Save")
	}
	if err := model.SaveModel(s.Weights(), path); err != nil {
		return errors.Wrapf(err, "save %s", path)
	}
	log.GetLoggerWithName("nn.sequential").Info("Model saved",
		log.ModelNameKey, s.name,
		log.PathKey, path,
	)
	return nil
}

// LoadSequential reads a model written by Save.
func LoadSequential(path string) (*Sequential, error) {
	var mw model.ModelWeights
	if err := model.LoadModel(&mw, path); err != nil {
		return nil, errors.Wrapf(err, "load %s", path)
	}
	if err := mw.Validate(); err != nil {
		return nil, err
	}
	return FromWeights(&mw)
}

// ImportWeights rebuilds a model from the JSON produced by ExportWeights.
func ImportWeights(data []byte) (*Sequential, error) {
	var mw model.ModelWeights
	if err := mw.FromJSON(data); err != nil {
		return nil, err
	}
	return FromWeights(&mw)
}

// FromWeights rebuilds a model, recompiling it when the weights carry a
// compile configuration.
func FromWeights(mw *model.ModelWeights) (*Sequential, error) {
	if mw.ModelType != modelType {
		return nil, errors.NewValidationError("model_type", "expected "+modelType, mw.ModelType)
	}
	if mw.Version != weightsVersion {
		return nil, errors.NewValidationError("version", "unsupported weights version", mw.Version)
	}

	s, err := NewSequential()
	if err != nil {
		return nil, err
	}
	if name, ok := mw.Hyperparameters["name"].(string); ok && name != "" {
		s.name = name
	}
	if seed, ok := asFloat(mw.Hyperparameters["seed"]); ok {
		s.seed = int64(seed)
	}
	for _, lw := range mw.Layers {
		l, err := denseFromWeights(lw)
		if err != nil {
			return nil, err
		}
		if err := s.Add(l); err != nil {
			return nil, err
		}
	}
	// Attach weights once every layer is added.
	for i, lw := range mw.Layers {
		if err := s.layers[i].setWeights(lw); err != nil {
			return nil, err
		}
	}

	if lossName, ok := mw.Hyperparameters["loss"].(string); ok {
		opts := []CompileOption{WithLoss(lossName), WithMetrics(asStrings(mw.Hyperparameters["metrics"])...)}
		if optName, ok := mw.Hyperparameters["optimizer"].(string); ok {
			opts = append(opts, WithOptimizer(optName))
		}
		if err := s.Compile(opts...); err != nil {
			return nil, err
		}
		if lr, ok := asFloat(mw.Hyperparameters["learning_rate"]); ok {
			s.optimizer.SetLearningRate(lr)
		}
	}

	if s.Built() {
		features := s.layers[0].inputDim
		samples := 0
		if n, ok := asFloat(mw.Metadata["n_samples"]); ok {
			samples = int(n)
		}
		s.state.SetDimensions(features, samples)
		if mw.IsFitted {
			s.state.SetFitted()
		}
	}
	return s, nil
}

// asFloat accepts the numeric types gob and JSON decode into interface{}.
func asFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func asStrings(v interface{}) []string {
	switch s := v.(type) {
	case []string:
		return s
	case []interface{}:
		out := make([]string, 0, len(s))
		for _, item := range s {
			if str, ok := item.(string); ok {
				out = append(out, str)
			}
		}
		return out
	}
	return nil
}
