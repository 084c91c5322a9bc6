// Package mnist loads the MNIST handwritten-digit dataset from its IDX
// files.
//
// The four files are looked up in one directory, either raw or gzipped:
//
//	train-images-idx3-ubyte  train-labels-idx1-ubyte
//	t10k-images-idx3-ubyte   t10k-labels-idx1-ubyte
//
// Images come back as (n, 28, 28) arrays of raw intensities in [0, 255];
// use package preprocessing to flatten and rescale them.
package mnist

import (
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"

	"github.com/YuminosukeSato/denseflow/pkg/errors"
	"github.com/YuminosukeSato/denseflow/pkg/log"
	"github.com/YuminosukeSato/denseflow/tensor"
	"gonum.org/v1/gonum/mat"
)

const (
	ImageRows    = 28
	ImageCols    = 28
	NumClasses   = 10
	TrainSamples = 60000
	TestSamples  = 10000
)

// Dataset pairs an (n, rows, cols) image stack with one label per image.
type Dataset struct {
	Images *tensor.Array
	Labels []int
}

// Len returns the number of samples.
func (d *Dataset) Len() int {
	return len(d.Labels)
}

// Shape returns the image stack's shape.
func (d *Dataset) Shape() tensor.Shape {
	return d.Images.Shape()
}

// Validate checks that images and labels agree and that every label is a
// digit.
func (d *Dataset) Validate() error {
	shape := d.Images.Shape()
	if shape.Ndim() != 3 {
		return errors.NewValueError("Dataset.Validate", "expected (n, rows, cols) images, got "+shape.String())
	}
	if shape[0] != len(d.Labels) {
		return errors.NewDimensionError("Dataset.Validate", shape[0], len(d.Labels), 0)
	}
	for i, l := range d.Labels {
		if l < 0 || l >= NumClasses {
			return errors.NewValidationError("labels", "label at index "+strconv.Itoa(i)+" is not a digit", l)
		}
	}
	return nil
}

// Image returns sample i as a (rows, cols) matrix of raw intensities.
func (d *Dataset) Image(i int) (*mat.Dense, error) {
	img, err := d.Images.Row(i)
	if err != nil {
		return nil, err
	}
	return img.ToDense()
}

// Head returns a dataset holding the first n samples. The image data is
// shared with d.
func (d *Dataset) Head(n int) (*Dataset, error) {
	if n < 0 || n >= d.Len() {
		return d, nil
	}
	shape := d.Images.Shape()
	images, err := tensor.NewArray(tensor.Shape{n, shape[1], shape[2]}, d.Images.Data()[:n*shape[1]*shape[2]])
	if err != nil {
		return nil, err
	}
	return &Dataset{Images: images, Labels: d.Labels[:n]}, nil
}

type loadConfig struct {
	maxSamples int
	strict     bool
}

// Option configures LoadData.
type Option func(*loadConfig)

// WithMaxSamples keeps only the first n samples of each split; n <= 0
// keeps everything.
func WithMaxSamples(n int) Option {
	return func(c *loadConfig) {
		c.maxSamples = n
	}
}

// WithStrict requires the canonical MNIST sizes: 60000 training and 10000
// test images of 28x28.
func WithStrict(strict bool) Option {
	return func(c *loadConfig) {
		c.strict = strict
	}
}

// LoadData reads the training and test splits from dir.
func LoadData(dir string, opts ...Option) (train, test *Dataset, err error) {
	cfg := &loadConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	logger := log.GetLoggerWithName("mnist")

	train, err = loadSplit(dir, "train", TrainSamples, cfg)
	if err != nil {
		return nil, nil, err
	}
	test, err = loadSplit(dir, "t10k", TestSamples, cfg)
	if err != nil {
		return nil, nil, err
	}

	logger.Info("MNIST loaded",
		log.PathKey, dir,
		"train_shape", train.Shape().String(),
		"test_shape", test.Shape().String(),
	)
	return train, test, nil
}

func loadSplit(dir, prefix string, want int, cfg *loadConfig) (*Dataset, error) {
	imagePath, err := findFile(dir, prefix+"-images-idx3-ubyte")
	if err != nil {
		return nil, err
	}
	labelPath, err := findFile(dir, prefix+"-labels-idx1-ubyte")
	if err != nil {
		return nil, err
	}

	images, err := readFile(imagePath, ReadImages)
	if err != nil {
		return nil, err
	}
	labels, err := readFile(labelPath, ReadLabels)
	if err != nil {
		return nil, err
	}

	ds := &Dataset{Images: images, Labels: labels}
	if err := ds.Validate(); err != nil {
		return nil, errors.Wrapf(err, "mnist: %s split", prefix)
	}
	if cfg.strict {
		expected := []int{want, ImageRows, ImageCols}
		if got := ds.Shape(); !got.Equal(expected) {
			return nil, errors.NewInputShapeError("loading", expected, got)
		}
	}
	if cfg.maxSamples > 0 {
		return ds.Head(cfg.maxSamples)
	}
	return ds, nil
}

// findFile returns dir/name, or dir/name.gz when only the compressed file
// exists.
func findFile(dir, name string) (string, error) {
	for _, candidate := range []string{name, name + ".gz"} {
		path := filepath.Join(dir, candidate)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", errors.Wrapf(os.ErrNotExist, "mnist: %s not found in %s", name, dir)
}

func readFile[T any](path string, decode func(io.Reader) (T, error)) (T, error) {
	f, err := os.Open(path)
	if err != nil {
		var zero T
		return zero, errors.Wrap(err, "mnist: open")
	}
	defer f.Close()
	out, err := decode(f)
	if err != nil {
		var zero T
		return zero, errors.Wrapf(err, "mnist: decode %s", filepath.Base(path))
	}
	return out, nil
}

// Synthetic generates n 28x28 images whose label determines which band of
// rows is lit, plus pixel noise. The classes are linearly separable.
func Synthetic(n int, seed int64) *Dataset {
	rng := rand.New(rand.NewSource(seed))
	images := tensor.Zeros(n, ImageRows, ImageCols)
	data := images.Data()
	labels := make([]int, n)
	for i := 0; i < n; i++ {
		label := i % NumClasses
		labels[i] = label
		img := data[i*ImageRows*ImageCols : (i+1)*ImageRows*ImageCols]
		for j := range img {
			img[j] = float64(rng.Intn(32))
		}
		start := label*2 + 4
		for row := start; row < start+4 && row < ImageRows; row++ {
			for col := 6; col < 22; col++ {
				img[row*ImageCols+col] = float64(200 + rng.Intn(56))
			}
		}
	}
	return &Dataset{Images: images, Labels: labels}
}
