// Package visualize renders digits, training curves and confusion matrices
// to image files with gonum/plot. The output format follows the file
// extension (.png, .svg, .pdf, ...).
package visualize

import (
	"image/color"
	"strconv"
	"strings"

	"github.com/YuminosukeSato/denseflow/nn"
	"github.com/YuminosukeSato/denseflow/pkg/errors"
	"github.com/YuminosukeSato/denseflow/pkg/log"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

const (
	digitSize   = 4 * vg.Inch
	historyW    = 6 * vg.Inch
	historyH    = 4 * vg.Inch
	confusionSz = 6 * vg.Inch
)

// grid exposes a matrix to plotter.HeatMap with row 0 drawn at the top.
type grid struct {
	m mat.Matrix
}

func (g grid) Dims() (c, r int) {
	r, c = g.m.Dims()
	return c, r
}

func (g grid) Z(c, r int) float64 {
	rows, _ := g.m.Dims()
	return g.m.At(rows-1-r, c)
}

func (g grid) X(c int) float64 { return float64(c) }
func (g grid) Y(r int) float64 { return float64(r) }

// binary runs from white at the minimum to black at the maximum.
type binary []color.Color

func (b binary) Colors() []color.Color { return b }

func binaryPalette(n int) palette.Palette {
	colors := make(binary, n)
	for i := range colors {
		v := uint8(255 - 255*i/(n-1))
		colors[i] = color.Gray{Y: v}
	}
	return colors
}

func checkMatrix(op string, m *mat.Dense) error {
	if m == nil || m.IsEmpty() {
		return errors.NewValueError(op, "empty matrix")
	}
	return nil
}

// PlotDigit draws image as a heat map with a white-to-black palette, the
// way a training digit is usually displayed.
func PlotDigit(image *mat.Dense, title, path string) error {
	if err := checkMatrix("PlotDigit", image); err != nil {
		return err
	}

	p := plot.New()
	p.Title.Text = title
	p.HideAxes()

	h := plotter.NewHeatMap(grid{image}, binaryPalette(256))
	h.Min = mat.Min(image)
	h.Max = mat.Max(image)
	if h.Max == h.Min {
		h.Max = h.Min + 1
	}
	p.Add(h)

	return save(p, digitSize, digitSize, path)
}

// PlotHistory draws metric and, when recorded, its "val_" counterpart
// against the epoch number.
func PlotHistory(history *nn.History, metric, path string) error {
	if history == nil || history.Len() == 0 {
		return errors.NewValueError("PlotHistory", "empty history")
	}
	train, ok := history.Metrics[metric]
	if !ok {
		return errors.NewValidationError("metric", "not recorded; have "+strings.Join(history.Names(), ", "), metric)
	}

	p := plot.New()
	p.Title.Text = metric
	p.X.Label.Text = "epoch"
	p.Y.Label.Text = metric
	p.Legend.Top = true

	lines := []interface{}{"train", points(history.Epochs, train)}
	if val, ok := history.Metrics["val_"+metric]; ok {
		lines = append(lines, "validation", points(history.Epochs, val))
	}
	if err := plotutil.AddLinePoints(p, lines...); err != nil {
		return errors.Wrap(err, "visualize: add lines")
	}

	return save(p, historyW, historyH, path)
}

// PlotConfusionMatrix draws a (true, predicted) count matrix as a heat map
// with the count printed in each cell.
func PlotConfusionMatrix(cm *mat.Dense, path string) error {
	if err := checkMatrix("PlotConfusionMatrix", cm); err != nil {
		return err
	}
	rows, cols := cm.Dims()
	if rows != cols {
		return errors.NewDimensionError("PlotConfusionMatrix", rows, cols, 1)
	}

	p := plot.New()
	p.Title.Text = "confusion matrix"
	p.X.Label.Text = "predicted"
	p.Y.Label.Text = "true"

	h := plotter.NewHeatMap(grid{cm}, palette.Heat(12, 1))
	h.Min = 0
	h.Max = floats.Max(cm.RawMatrix().Data)
	if h.Max == 0 {
		h.Max = 1
	}
	p.Add(h)

	cells := plotter.XYLabels{
		XYs:    make(plotter.XYs, 0, rows*cols),
		Labels: make([]string, 0, rows*cols),
	}
	g := grid{cm}
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			cells.XYs = append(cells.XYs, plotter.XY{X: g.X(c), Y: g.Y(r)})
			cells.Labels = append(cells.Labels, strconv.FormatFloat(g.Z(c, r), 'f', -1, 64))
		}
	}
	labels, err := plotter.NewLabels(cells)
	if err != nil {
		return errors.Wrap(err, "visualize: cell labels")
	}
	p.Add(labels)

	p.NominalX(classNames(cols)...)
	p.NominalY(reversed(classNames(rows))...)

	return save(p, confusionSz, confusionSz, path)
}

func points(epochs []int, values []float64) plotter.XYs {
	n := len(values)
	if len(epochs) < n {
		n = len(epochs)
	}
	xys := make(plotter.XYs, n)
	for i := 0; i < n; i++ {
		xys[i].X = float64(epochs[i] + 1)
		xys[i].Y = values[i]
	}
	return xys
}

func classNames(n int) []string {
	names := make([]string, n)
	for i := range names {
		names[i] = strconv.Itoa(i)
	}
	return names
}

func reversed(s []string) []string {
	out := make([]string, len(s))
	for i, v := range s {
		out[len(s)-1-i] = v
	}
	return out
}

func save(p *plot.Plot, w, h vg.Length, path string) error {
	if err := p.Save(w, h, path); err != nil {
		return errors.Wrapf(err, "visualize: save %s", path)
	}
	log.GetLoggerWithName("visualize").Debug("Plot saved", log.PathKey, path)
	return nil
}
