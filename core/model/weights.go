package model

import (
	"encoding/json"

	"github.com/YuminosukeSato/denseflow/pkg/errors"
)

// LayerWeights holds one dense layer's parameters. Kernel is row-major with
// InputDim rows and Units columns.
type LayerWeights struct {
	Name       string    `json:"name"`
	Activation string    `json:"activation"`
	InputDim   int       `json:"input_dim"`
	Units      int       `json:"units"`
	Kernel     []float64 `json:"kernel"`
	Bias       []float64 `json:"bias"`
}

// ModelWeights is the portable JSON form of a layered model.
type ModelWeights struct {
	ModelType string `json:"model_type"`

	// Version is checked for compatibility on import.
	Version string `json:"version"`

	Layers []LayerWeights `json:"layers"`

	// Hyperparameters records the compile configuration (optimizer, loss,
	// metrics).
	Hyperparameters map[string]interface{} `json:"hyperparameters"`

	// Metadata carries training statistics such as the final loss.
	Metadata map[string]interface{} `json:"metadata,omitempty"`

	IsFitted bool `json:"is_fitted"`
}

// ToJSON serializes the weights as indented JSON.
func (mw *ModelWeights) ToJSON() ([]byte, error) {
	data, err := json.MarshalIndent(mw, "", "  ")
	return data, errors.Wrap(err, "failed to marshal weights")
}

// FromJSON replaces mw with the decoded data and validates it.
func (mw *ModelWeights) FromJSON(data []byte) error {
	if err := json.Unmarshal(data, mw); err != nil {
		return errors.Wrap(err, "failed to unmarshal weights")
	}
	return mw.Validate()
}

// Validate checks that the weights describe a consistent network.
func (mw *ModelWeights) Validate() error {
	if mw.ModelType == "" {
		return errors.NewValidationError("model_type", "is required", mw.ModelType)
	}
	if mw.Version == "" {
		return errors.NewValidationError("version", "is required", mw.Version)
	}
	if mw.IsFitted && len(mw.Layers) == 0 {
		return errors.NewValidationError("layers", "fitted model must have layers", len(mw.Layers))
	}
	for i, l := range mw.Layers {
		if len(l.Kernel) == 0 && len(l.Bias) == 0 {
			// Exported before building.
			if mw.IsFitted {
				return errors.NewValidationError("layers."+l.Name+".kernel", "fitted model must have weights", 0)
			}
			if i > 0 && l.InputDim != 0 && mw.Layers[i-1].Units != l.InputDim {
				return errors.NewDimensionError("ModelWeights.Validate", mw.Layers[i-1].Units, l.InputDim, 1)
			}
			continue
		}
		if len(l.Kernel) != l.InputDim*l.Units {
			return errors.NewValidationError("layers."+l.Name+".kernel",
				"length must equal input_dim*units", len(l.Kernel))
		}
		if len(l.Bias) != l.Units {
			return errors.NewValidationError("layers."+l.Name+".bias", "length must equal units", len(l.Bias))
		}
		if i > 0 && mw.Layers[i-1].Units != l.InputDim {
			return errors.NewDimensionError("ModelWeights.Validate", mw.Layers[i-1].Units, l.InputDim, 1)
		}
	}
	return nil
}

// Clone returns a deep copy.
func (mw *ModelWeights) Clone() *ModelWeights {
	clone := &ModelWeights{
		ModelType:       mw.ModelType,
		Version:         mw.Version,
		IsFitted:        mw.IsFitted,
		Layers:          make([]LayerWeights, len(mw.Layers)),
		Hyperparameters: make(map[string]interface{}, len(mw.Hyperparameters)),
		Metadata:        make(map[string]interface{}, len(mw.Metadata)),
	}

	for i, l := range mw.Layers {
		l.Kernel = append([]float64(nil), l.Kernel...)
		l.Bias = append([]float64(nil), l.Bias...)
		clone.Layers[i] = l
	}
	for k, v := range mw.Hyperparameters {
		clone.Hyperparameters[k] = v
	}
	for k, v := range mw.Metadata {
		clone.Metadata[k] = v
	}

	return clone
}
