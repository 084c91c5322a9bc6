package mnist

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/YuminosukeSato/denseflow/pkg/errors"
	"github.com/YuminosukeSato/denseflow/tensor"
)

func encodeImages(t *testing.T, images *tensor.Array) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := WriteImages(&buf, images); err != nil {
		t.Fatalf("WriteImages: %v", err)
	}
	return buf.Bytes()
}

func encodeLabels(t *testing.T, labels []int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := WriteLabels(&buf, labels); err != nil {
		t.Fatalf("WriteLabels: %v", err)
	}
	return buf.Bytes()
}

func gzipBytes(t *testing.T, raw []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(raw); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestReadImages(t *testing.T) {
	ds := Synthetic(5, 1)
	raw := encodeImages(t, ds.Images)

	tests := []struct {
		name string
		data []byte
	}{
		{name: "raw", data: raw},
		{name: "gzip", data: gzipBytes(t, raw)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			images, err := ReadImages(bytes.NewReader(tt.data))
			if err != nil {
				t.Fatalf("ReadImages: %v", err)
			}
			if !images.Shape().Equal(tensor.Shape{5, 28, 28}) {
				t.Errorf("shape = %v, want (5, 28, 28)", images.Shape())
			}
			for i, v := range images.Data() {
				if v != ds.Images.Data()[i] {
					t.Fatalf("pixel %d = %v, want %v", i, v, ds.Images.Data()[i])
				}
			}
		})
	}
}

func TestReadLabels(t *testing.T) {
	want := []int{5, 0, 4, 1, 9}
	got, err := ReadLabels(bytes.NewReader(gzipBytes(t, encodeLabels(t, want))))
	if err != nil {
		t.Fatalf("ReadLabels: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("labels[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestReadErrors(t *testing.T) {
	labels := encodeLabels(t, []int{1, 2, 3})
	images := encodeImages(t, Synthetic(2, 0).Images)

	tests := []struct {
		name string
		fn   func() error
	}{
		{"images with label magic", func() error { _, err := ReadImages(bytes.NewReader(labels)); return err }},
		{"labels with image magic", func() error { _, err := ReadLabels(bytes.NewReader(images)); return err }},
		{"truncated images", func() error { _, err := ReadImages(bytes.NewReader(images[:100])); return err }},
		{"truncated labels", func() error { _, err := ReadLabels(bytes.NewReader(labels[:9])); return err }},
		{"empty input", func() error { _, err := ReadLabels(bytes.NewReader(nil)); return err }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.fn(); err == nil {
				t.Error("expected error")
			}
		})
	}

	_, err := ReadImages(bytes.NewReader(labels))
	var valErr *errors.ValueError
	if !errors.As(err, &valErr) {
		t.Errorf("bad magic error = %v, want *ValueError", err)
	}
}

func TestReadImagesOversizedHeader(t *testing.T) {
	tests := []struct {
		name string
		dims [3]uint32
	}{
		{"product overflows", [3]uint32{1<<24 - 1, 1<<24 - 1, 1<<24 - 1}},
		{"product wraps to zero", [3]uint32{1 << 24, 1 << 24, 1 << 24}},
		{"over byte limit", [3]uint32{1 << 24, 28, 28}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			header := []uint32{ImageMagic, tt.dims[0], tt.dims[1], tt.dims[2]}
			if err := binary.Write(&buf, binary.BigEndian, header); err != nil {
				t.Fatal(err)
			}
			images, err := ReadImages(&buf)
			var valErr *errors.ValidationError
			if !errors.As(err, &valErr) {
				t.Fatalf("ReadImages(%v) = %v, %v; want *ValidationError", tt.dims, images, err)
			}
		})
	}
}

func writeSplit(t *testing.T, dir, prefix string, ds *Dataset, compress bool) {
	t.Helper()
	images := encodeImages(t, ds.Images)
	labels := encodeLabels(t, ds.Labels)
	suffix := ""
	if compress {
		images = gzipBytes(t, images)
		labels = gzipBytes(t, labels)
		suffix = ".gz"
	}
	if err := os.WriteFile(filepath.Join(dir, prefix+"-images-idx3-ubyte"+suffix), images, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, prefix+"-labels-idx1-ubyte"+suffix), labels, 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadData(t *testing.T) {
	dir := t.TempDir()
	writeSplit(t, dir, "train", Synthetic(30, 1), true)
	writeSplit(t, dir, "t10k", Synthetic(10, 2), false)

	train, test, err := LoadData(dir)
	if err != nil {
		t.Fatalf("LoadData: %v", err)
	}
	if train.Len() != 30 || test.Len() != 10 {
		t.Errorf("sizes = %d/%d, want 30/10", train.Len(), test.Len())
	}
	if !test.Shape().Equal(tensor.Shape{10, 28, 28}) {
		t.Errorf("test shape = %v", test.Shape())
	}

	train, _, err = LoadData(dir, WithMaxSamples(12))
	if err != nil {
		t.Fatalf("LoadData with max samples: %v", err)
	}
	if train.Len() != 12 || !train.Shape().Equal(tensor.Shape{12, 28, 28}) {
		t.Errorf("truncated train = %d %v", train.Len(), train.Shape())
	}

	_, _, err = LoadData(dir, WithStrict(true))
	var shapeErr *errors.InputShapeError
	if !errors.As(err, &shapeErr) {
		t.Errorf("strict load error = %v, want *InputShapeError", err)
	}
}

func TestLoadDataMissingFiles(t *testing.T) {
	if _, _, err := LoadData(t.TempDir()); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("error = %v, want os.ErrNotExist", err)
	}
}

func TestLoadDataMismatchedCounts(t *testing.T) {
	dir := t.TempDir()
	ds := Synthetic(10, 1)
	ds.Labels = ds.Labels[:8]
	writeSplit(t, dir, "train", ds, false)
	writeSplit(t, dir, "t10k", Synthetic(4, 2), false)

	_, _, err := LoadData(dir)
	var dimErr *errors.DimensionError
	if !errors.As(err, &dimErr) {
		t.Errorf("error = %v, want *DimensionError", err)
	}
}

func TestValidateLabels(t *testing.T) {
	ds := Synthetic(3, 0)
	ds.Labels[1] = 12
	var valErr *errors.ValidationError
	if err := ds.Validate(); !errors.As(err, &valErr) {
		t.Errorf("Validate() = %v, want *ValidationError", err)
	}
}

func TestSynthetic(t *testing.T) {
	ds := Synthetic(20, 7)
	if err := ds.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	for _, v := range ds.Images.Data() {
		if v < 0 || v > 255 {
			t.Fatalf("pixel %v out of range", v)
		}
	}
	if ds.Labels[13] != 3 {
		t.Errorf("labels[13] = %d, want 3", ds.Labels[13])
	}
}

func TestDatasetImage(t *testing.T) {
	ds := Synthetic(4, 3)
	img, err := ds.Image(1)
	if err != nil {
		t.Fatalf("Image: %v", err)
	}
	if r, c := img.Dims(); r != ImageRows || c != ImageCols {
		t.Fatalf("Image dims = %dx%d", r, c)
	}
	want, _ := ds.Images.At(1, 6, 10)
	if got := img.At(6, 10); got != want {
		t.Errorf("Image(1)[6,10] = %v, want %v", got, want)
	}
	if _, err := ds.Image(4); err == nil {
		t.Error("expected error for out-of-range index")
	}
}
