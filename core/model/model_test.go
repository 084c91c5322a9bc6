package model

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/YuminosukeSato/denseflow/performance"
	"github.com/YuminosukeSato/denseflow/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

func TestStateManager(t *testing.T) {
	s := NewStateManager()
	if s.IsFitted() {
		t.Fatal("new StateManager should not be fitted")
	}

	err := s.RequireFitted("Sequential", "Predict")
	var nfErr *errors.NotFittedError
	if !errors.As(err, &nfErr) {
		t.Fatalf("RequireFitted() = %v, want *NotFittedError", err)
	}
	if nfErr.Method != "Predict" {
		t.Errorf("Method = %q", nfErr.Method)
	}

	s.SetDimensions(784, 60000)
	s.SetFitted()
	if err := s.RequireFitted("Sequential", "Predict"); err != nil {
		t.Errorf("RequireFitted after SetFitted: %v", err)
	}
	if err := s.RequireFeatures("Predict", 784); err != nil {
		t.Errorf("RequireFeatures(784): %v", err)
	}
	var dimErr *errors.DimensionError
	if err := s.RequireFeatures("Predict", 10); !errors.As(err, &dimErr) {
		t.Errorf("RequireFeatures(10) = %v, want *DimensionError", err)
	}

	state := s.GetState()
	other := NewStateManager()
	other.SetState(state)
	if f, n := other.GetDimensions(); !other.IsFitted() || f != 784 || n != 60000 {
		t.Errorf("SetState round trip = %+v", other.GetState())
	}

	s.Reset()
	if f, n := s.GetDimensions(); s.IsFitted() || f != 0 || n != 0 {
		t.Errorf("Reset left state %+v", s.GetState())
	}
}

type snapshot struct {
	Name   string
	Values []float64
	State  *StateManager
}

func TestPersistence(t *testing.T) {
	in := snapshot{Name: "dense", Values: []float64{1.5, -2}, State: NewStateManager()}
	in.State.SetDimensions(3, 10)
	in.State.SetFitted()

	path := filepath.Join(t.TempDir(), "model.gob")
	if err := SaveModel(in, path); err != nil {
		t.Fatalf("SaveModel: %v", err)
	}
	var out snapshot
	if err := LoadModel(&out, path); err != nil {
		t.Fatalf("LoadModel: %v", err)
	}
	if out.Name != "dense" || len(out.Values) != 2 || out.Values[1] != -2 {
		t.Errorf("decoded %+v", out)
	}
	if !out.State.IsFitted() || out.State.NFeatures != 3 {
		t.Errorf("decoded state %+v", out.State.GetState())
	}

	if err := LoadModel(&out, filepath.Join(t.TempDir(), "missing.gob")); err == nil {
		t.Error("expected error for missing file")
	}
	if err := LoadModelFromReader(&out, bytes.NewReader([]byte("not gob"))); err == nil {
		t.Error("expected error for garbage input")
	}
}

func validWeights() *ModelWeights {
	return &ModelWeights{
		ModelType: "Sequential",
		Version:   "1",
		IsFitted:  true,
		Layers: []LayerWeights{
			{Name: "dense", Activation: "relu", InputDim: 2, Units: 3, Kernel: make([]float64, 6), Bias: make([]float64, 3)},
			{Name: "dense_1", Activation: "softmax", InputDim: 3, Units: 2, Kernel: make([]float64, 6), Bias: make([]float64, 2)},
		},
		Hyperparameters: map[string]interface{}{"optimizer": "rmsprop"},
	}
}

func TestModelWeightsValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*ModelWeights)
		wantErr bool
	}{
		{name: "valid", mutate: func(*ModelWeights) {}},
		{name: "missing type", mutate: func(w *ModelWeights) { w.ModelType = "" }, wantErr: true},
		{name: "missing version", mutate: func(w *ModelWeights) { w.Version = "" }, wantErr: true},
		{name: "fitted without layers", mutate: func(w *ModelWeights) { w.Layers = nil }, wantErr: true},
		{name: "short kernel", mutate: func(w *ModelWeights) { w.Layers[0].Kernel = w.Layers[0].Kernel[:5] }, wantErr: true},
		{name: "short bias", mutate: func(w *ModelWeights) { w.Layers[1].Bias = nil }, wantErr: true},
		{name: "unbuilt layers", mutate: func(w *ModelWeights) {
			w.IsFitted = false
			w.Layers[0].Kernel, w.Layers[0].Bias = nil, nil
			w.Layers[1].Kernel, w.Layers[1].Bias = nil, nil
			w.Layers[1].InputDim = 0
		}},
		{name: "fitted without weights", mutate: func(w *ModelWeights) {
			w.Layers[1].Kernel, w.Layers[1].Bias = nil, nil
		}, wantErr: true},
		{name: "chain mismatch", mutate: func(w *ModelWeights) {
			w.Layers[1].InputDim = 2
			w.Layers[1].Kernel = make([]float64, 4)
		}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := validWeights()
			tt.mutate(w)
			err := w.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestModelWeightsJSON(t *testing.T) {
	w := validWeights()
	w.Layers[0].Kernel[4] = 0.25
	data, err := w.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}
	if !bytes.Contains(data, []byte(`"model_type": "Sequential"`)) {
		t.Errorf("unexpected JSON: %s", data)
	}

	var back ModelWeights
	if err := back.FromJSON(data); err != nil {
		t.Fatalf("FromJSON: %v", err)
	}
	if back.Layers[0].Kernel[4] != 0.25 || back.Layers[1].Activation != "softmax" {
		t.Errorf("decoded %+v", back.Layers)
	}

	clone := w.Clone()
	clone.Layers[0].Kernel[4] = 9
	clone.Hyperparameters["optimizer"] = "sgd"
	if w.Layers[0].Kernel[4] != 0.25 || w.Hyperparameters["optimizer"] != "rmsprop" {
		t.Error("Clone shares state with the original")
	}
}

func TestStreamBatches(t *testing.T) {
	x := mat.NewDense(5, 2, []float64{0, 0, 1, 1, 2, 2, 3, 3, 4, 4})
	y := mat.NewDense(5, 1, []float64{0, 1, 2, 3, 4})
	pool := performance.NewMatrixPool()

	order := []int{4, 2, 0, 1, 3}
	var sizes []int
	var firstRows []float64
	for b := range StreamBatches(context.Background(), x, y, order, 2, pool) {
		sizes = append(sizes, b.Len())
		firstRows = append(firstRows, b.Y.At(0, 0))
		if b.X.At(0, 0) != b.Y.At(0, 0) {
			t.Errorf("step %d: x and y rows out of sync", b.Step)
		}
		b.Release()
	}

	wantSizes := []int{2, 2, 1}
	wantFirst := []float64{4, 0, 3}
	if len(sizes) != len(wantSizes) {
		t.Fatalf("got %d batches, want %d", len(sizes), len(wantSizes))
	}
	for i := range wantSizes {
		if sizes[i] != wantSizes[i] || firstRows[i] != wantFirst[i] {
			t.Errorf("batch %d: size %d first %v, want %d %v", i, sizes[i], firstRows[i], wantSizes[i], wantFirst[i])
		}
	}
	if stats := pool.GetStats(); stats.CurrentInUse != 0 {
		t.Errorf("CurrentInUse = %d after releasing every batch", stats.CurrentInUse)
	}
}

func TestStreamBatchesCancel(t *testing.T) {
	x := mat.NewDense(100, 1, nil)
	y := mat.NewDense(100, 1, nil)
	order := make([]int, 100)
	for i := range order {
		order[i] = i
	}

	ctx, cancel := context.WithCancel(context.Background())
	ch := StreamBatches(ctx, x, y, order, 10, performance.NewMatrixPool())
	first := <-ch
	first.Release()
	cancel()

	// The channel must close without the consumer reading all ten batches.
	n := 0
	for b := range ch {
		b.Release()
		n++
	}
	if n > 9 {
		t.Errorf("received %d batches after cancel", n)
	}
}
