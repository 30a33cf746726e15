package chart

import (
	"fmt"
	"image/color"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

var seriesColors = []color.RGBA{
	{R: 66, G: 133, B: 244, A: 255},
	{R: 219, G: 68, B: 55, A: 255},
	{R: 15, G: 157, B: 88, A: 255},
	{R: 244, G: 180, B: 0, A: 255},
}

func seriesColor(i int) color.Color {
	return seriesColors[i%len(seriesColors)]
}

// Plot builds the gonum plot for f. Gaps in a series break its line into
// separate segments that share one legend entry.
func (f *Figure) Plot() (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = f.Title
	p.X.Label.Text = f.XLabel
	p.Y.Label.Text = f.YLabel

	for i, s := range f.Series {
		c := seriesColor(i)
		var legend []plot.Thumbnailer

		segs := f.segments(s)
		if len(segs) == 0 {
			segs = [][]int{nil}
		}

		for _, seg := range segs {
			pts := make(plotter.XYs, len(seg))
			for j, idx := range seg {
				pts[j].X = f.X[idx]
				pts[j].Y = s.Y[idx]
			}

			line, points, err := plotter.NewLinePoints(pts)
			if err != nil {
				return nil, fmt.Errorf("chart: series %q: %w", s.Label, err)
			}
			line.Color = c
			line.Width = vg.Points(2)
			points.Color = c
			points.Radius = vg.Points(4)

			if len(pts) > 0 {
				p.Add(line, points)
			}
			if legend == nil {
				legend = []plot.Thumbnailer{line, points}
			}
		}

		p.Legend.Add(s.Label, legend...)
	}

	if f.Grid {
		p.Add(plotter.NewGrid())
	}

	return p, nil
}

// RenderPNG writes f as a PNG image of the given size.
func (f *Figure) RenderPNG(w io.Writer, width, height vg.Length) error {
	p, err := f.Plot()
	if err != nil {
		return err
	}

	wt, err := p.WriterTo(width, height, "png")
	if err != nil {
		return fmt.Errorf("chart: failed to create png writer: %w", err)
	}

	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("chart: failed to write png: %w", err)
	}

	return nil
}
