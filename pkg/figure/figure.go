package figure

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

const (
	figWidth  = 6 * vg.Inch
	figHeight = 4 * vg.Inch

	histogramBins = 20
)

// XY is one point of a named series.
type XY struct {
	X, Y float64
}

// Series is a named line for Lines figures.
type Series struct {
	Name   string
	Points []XY
}

// PredictedVsActual writes a scatter of predictions against observed values
// with the identity line for reference.
func PredictedVsActual(path string, actual, predicted []float64) error {
	if len(actual) != len(predicted) {
		return fmt.Errorf("length mismatch: %d actual, %d predicted", len(actual), len(predicted))
	}
	if len(actual) == 0 {
		return fmt.Errorf("no values to plot")
	}

	p := plot.New()
	p.Title.Text = "Predicted vs actual"
	p.X.Label.Text = "actual"
	p.Y.Label.Text = "predicted"

	pts := make(plotter.XYs, len(actual))
	for i := range actual {
		pts[i].X = actual[i]
		pts[i].Y = predicted[i]
	}

	s, err := plotter.NewScatter(pts)
	if err != nil {
		return fmt.Errorf("error building scatter: %w", err)
	}
	p.Add(s)

	mn := floats.Min(actual)
	mx := floats.Max(actual)
	ident, err := plotter.NewLine(plotter.XYs{{X: mn, Y: mn}, {X: mx, Y: mx}})
	if err != nil {
		return fmt.Errorf("error building identity line: %w", err)
	}
	p.Add(ident)

	return save(p, path)
}

// Distribution writes a histogram of the values.
func Distribution(path, title string, values []float64) error {
	if len(values) == 0 {
		return fmt.Errorf("no values to plot")
	}

	p := plot.New()
	p.Title.Text = title
	p.Y.Label.Text = "count"

	h, err := plotter.NewHist(plotter.Values(values), histogramBins)
	if err != nil {
		return fmt.Errorf("error building histogram: %w", err)
	}
	p.Add(h)

	return save(p, path)
}

// Lines writes one line per series with a legend.
func Lines(path, title, xLabel, yLabel string, series []Series) error {
	if len(series) == 0 {
		return fmt.Errorf("no series to plot")
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel

	args := make([]interface{}, 0, len(series)*2)
	for _, s := range series {
		pts := make(plotter.XYs, len(s.Points))
		for i, xy := range s.Points {
			pts[i].X = xy.X
			pts[i].Y = xy.Y
		}
		args = append(args, s.Name, pts)
	}

	if err := plotutil.AddLinePoints(p, args...); err != nil {
		return fmt.Errorf("error building lines: %w", err)
	}

	return save(p, path)
}

func save(p *plot.Plot, path string) error {
	if err := p.Save(figWidth, figHeight, path); err != nil {
		return fmt.Errorf("error saving figure %s: %w", path, err)
	}
	return nil
}
