package visualize

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/YuminosukeSato/denseflow/datasets/mnist"
	"github.com/YuminosukeSato/denseflow/metrics"
	"github.com/YuminosukeSato/denseflow/nn"
	"github.com/YuminosukeSato/denseflow/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func requireFile(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	require.NoError(t, err, "plot not written")
	require.NotZero(t, info.Size(), "%s is empty", path)
}

func TestPlotDigit(t *testing.T) {
	ds := mnist.Synthetic(3, 1)
	img, err := ds.Image(2)
	require.NoError(t, err)
	r, c := img.Dims()
	require.Equal(t, mnist.ImageRows, r)
	require.Equal(t, mnist.ImageCols, c)

	for _, name := range []string{"digit.png", "digit.svg"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			require.NoError(t, PlotDigit(img, "label 2", path))
			requireFile(t, path)
		})
	}

	t.Run("constant image", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "blank.png")
		require.NoError(t, PlotDigit(mat.NewDense(4, 4, nil), "", path))
		requireFile(t, path)
	})

	t.Run("empty", func(t *testing.T) {
		var valErr *errors.ValueError
		err := PlotDigit(&mat.Dense{}, "", filepath.Join(t.TempDir(), "x.png"))
		assert.True(t, errors.As(err, &valErr), "PlotDigit() = %v, want *ValueError", err)
	})
}

func TestGridOrientation(t *testing.T) {
	g := grid{mat.NewDense(2, 3, []float64{
		1, 2, 3,
		4, 5, 6,
	})}
	c, r := g.Dims()
	assert.Equal(t, 3, c)
	assert.Equal(t, 2, r)
	// grid row 0 is the bottom of the plot, i.e. the last matrix row.
	assert.Equal(t, 4.0, g.Z(0, 0))
	assert.Equal(t, 3.0, g.Z(2, 1))
}

func TestBinaryPalette(t *testing.T) {
	colors := binaryPalette(3).Colors()
	require.Len(t, colors, 3)
	r, _, _, _ := colors[0].RGBA()
	assert.Equal(t, uint32(0xffff), r, "minimum should be white")
	r, _, _, _ = colors[2].RGBA()
	assert.Equal(t, uint32(0), r, "maximum should be black")
}

func TestPlotHistory(t *testing.T) {
	history := &nn.History{
		Epochs: []int{0, 1, 2},
		Metrics: map[string][]float64{
			"loss":     {0.9, 0.5, 0.3},
			"val_loss": {1.0, 0.6, 0.45},
			"accuracy": {0.6, 0.8, 0.9},
		},
	}

	tests := []struct {
		metric string
	}{
		{"loss"},
		{"accuracy"},
	}
	for _, tt := range tests {
		t.Run(tt.metric, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), tt.metric+".png")
			require.NoError(t, PlotHistory(history, tt.metric, path))
			requireFile(t, path)
		})
	}

	var valErr *errors.ValidationError
	err := PlotHistory(history, "mae", filepath.Join(t.TempDir(), "mae.png"))
	assert.True(t, errors.As(err, &valErr), "PlotHistory(mae) = %v, want *ValidationError", err)

	var valueErr *errors.ValueError
	err = PlotHistory(nn.NewHistory(), "loss", filepath.Join(t.TempDir(), "none.png"))
	assert.True(t, errors.As(err, &valueErr), "PlotHistory(empty) = %v, want *ValueError", err)
}

func TestPoints(t *testing.T) {
	xys := points([]int{0, 1, 2}, []float64{0.5, 0.25})
	require.Len(t, xys, 2)
	assert.Equal(t, 1.0, xys[0].X, "epochs are plotted one-based")
	assert.Equal(t, 0.25, xys[1].Y)
}

func TestPlotConfusionMatrix(t *testing.T) {
	cm, err := metrics.ConfusionMatrix([]int{0, 1, 2, 2, 1}, []int{0, 2, 2, 2, 1}, 3)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "cm.png")
	require.NoError(t, PlotConfusionMatrix(cm, path))
	requireFile(t, path)

	var dimErr *errors.DimensionError
	err = PlotConfusionMatrix(mat.NewDense(2, 3, nil), path)
	assert.True(t, errors.As(err, &dimErr), "PlotConfusionMatrix(2x3) = %v, want *DimensionError", err)

	assert.Equal(t, []string{"2", "1", "0"}, reversed(classNames(3)))
}
