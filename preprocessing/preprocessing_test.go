package preprocessing

import (
	"math"
	"testing"

	"github.com/YuminosukeSato/denseflow/pkg/errors"
	"github.com/YuminosukeSato/denseflow/tensor"
	"gonum.org/v1/gonum/mat"
)

func TestFlatten(t *testing.T) {
	images := tensor.Zeros(3, 28, 28)
	images.Data()[28*28+5] = 7

	flat, err := Flatten(images)
	if err != nil {
		t.Fatalf("Flatten: %v", err)
	}
	r, c := flat.Dims()
	if r != 3 || c != 784 {
		t.Fatalf("dims = (%d, %d), want (3, 784)", r, c)
	}
	if flat.At(1, 5) != 7 {
		t.Errorf("flat[1, 5] = %v, want 7", flat.At(1, 5))
	}

	if _, err := Flatten(tensor.Zeros(5)); err == nil {
		t.Error("expected error for 1-D input")
	}
}

func TestRescaler(t *testing.T) {
	x := mat.NewDense(2, 2, []float64{0, 255, 51, 102})
	r := NewPixelRescaler()
	if err := r.Fit(x); err != nil {
		t.Fatal(err)
	}
	got, err := r.Transform(x)
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	want := mat.NewDense(2, 2, []float64{0, 1, 0.2, 0.4})
	if !mat.EqualApprox(got, want, 1e-12) {
		t.Errorf("Transform = %v", mat.Formatted(got))
	}

	back, err := r.InverseTransform(got)
	if err != nil {
		t.Fatalf("InverseTransform: %v", err)
	}
	if !mat.EqualApprox(back, x, 1e-9) {
		t.Errorf("InverseTransform = %v", mat.Formatted(back))
	}

	if _, err := NewRescaler(0).InverseTransform(x); err == nil {
		t.Error("expected error inverting zero factor")
	}
}

func TestStandardScaler(t *testing.T) {
	x := mat.NewDense(4, 3, []float64{
		1, 10, 5,
		2, 20, 5,
		3, 30, 5,
		4, 40, 5,
	})

	s := NewStandardScalerDefault()
	if _, err := s.Transform(x); err == nil {
		t.Fatal("expected NotFittedError before Fit")
	}

	scaled, err := s.FitTransform(x)
	if err != nil {
		t.Fatalf("FitTransform: %v", err)
	}

	wantMean := []float64{2.5, 25, 5}
	for j, m := range wantMean {
		if math.Abs(s.Mean[j]-m) > 1e-12 {
			t.Errorf("Mean[%d] = %v, want %v", j, s.Mean[j], m)
		}
	}
	if s.Scale[2] != 1 {
		t.Errorf("constant feature scale = %v, want 1", s.Scale[2])
	}

	for j := 0; j < 2; j++ {
		col := mat.Col(nil, j, scaled)
		sum, sq := 0.0, 0.0
		for _, v := range col {
			sum += v
			sq += v * v
		}
		if math.Abs(sum) > 1e-9 || math.Abs(sq/4-1) > 1e-9 {
			t.Errorf("feature %d not standardized: sum %v, var %v", j, sum, sq/4)
		}
	}
	for i := 0; i < 4; i++ {
		if scaled.At(i, 2) != 0 {
			t.Errorf("constant feature row %d = %v, want 0", i, scaled.At(i, 2))
		}
	}

	back, err := s.InverseTransform(scaled)
	if err != nil {
		t.Fatalf("InverseTransform: %v", err)
	}
	if !mat.EqualApprox(back, x, 1e-9) {
		t.Errorf("InverseTransform = %v", mat.Formatted(back))
	}

	var dimErr *errors.DimensionError
	if _, err := s.Transform(mat.NewDense(2, 2, nil)); !errors.As(err, &dimErr) {
		t.Errorf("Transform with wrong width = %v, want *DimensionError", err)
	}
}

func TestMinMaxScaler(t *testing.T) {
	x := mat.NewDense(3, 2, []float64{0, 5, 5, 5, 10, 5})
	m := NewMinMaxScaler([2]float64{-1, 1})
	scaled, err := m.FitTransform(x)
	if err != nil {
		t.Fatalf("FitTransform: %v", err)
	}
	want := mat.NewDense(3, 2, []float64{-1, -1, 0, -1, 1, -1})
	if !mat.EqualApprox(scaled, want, 1e-12) {
		t.Errorf("FitTransform = %v", mat.Formatted(scaled))
	}
	back, err := m.InverseTransform(scaled)
	if err != nil {
		t.Fatal(err)
	}
	if !mat.EqualApprox(back, x, 1e-12) {
		t.Errorf("InverseTransform = %v", mat.Formatted(back))
	}

	if err := NewMinMaxScaler([2]float64{1, 0}).Fit(x); err == nil {
		t.Error("expected error for inverted feature range")
	}
}

func TestToCategorical(t *testing.T) {
	tests := []struct {
		name       string
		labels     []int
		numClasses int
		wantCols   int
		wantErr    bool
	}{
		{name: "explicit classes", labels: []int{5, 0, 4}, numClasses: 10, wantCols: 10},
		{name: "inferred classes", labels: []int{2, 0, 1}, numClasses: 0, wantCols: 3},
		{name: "label too large", labels: []int{3, 11}, numClasses: 10, wantErr: true},
		{name: "negative label", labels: []int{-1}, numClasses: 10, wantErr: true},
		{name: "empty", labels: nil, numClasses: 10, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToCategorical(tt.labels, tt.numClasses)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("ToCategorical: %v", err)
			}
			r, c := got.Dims()
			if r != len(tt.labels) || c != tt.wantCols {
				t.Fatalf("dims = (%d, %d)", r, c)
			}
			for i, l := range tt.labels {
				if got.At(i, l) != 1 || mat.Sum(got.RowView(i)) != 1 {
					t.Errorf("row %d is not one-hot for label %d", i, l)
				}
			}
		})
	}
}

func TestLabelsToColumn(t *testing.T) {
	col, err := LabelsToColumn([]int{3, 1, 4})
	if err != nil {
		t.Fatal(err)
	}
	if r, c := col.Dims(); r != 3 || c != 1 {
		t.Fatalf("dims = (%d, %d)", r, c)
	}
	labels := ColumnToLabels(col)
	if labels[0] != 3 || labels[2] != 4 {
		t.Errorf("ColumnToLabels = %v", labels)
	}
	if _, err := LabelsToColumn(nil); !errors.Is(err, errors.ErrEmptyData) {
		t.Errorf("LabelsToColumn(nil) = %v", err)
	}
}
