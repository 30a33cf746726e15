package chart

import (
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// gapValue is how echarts marks a missing point.
const gapValue = "-"

// Line builds the interactive echarts line chart for f.
func (f *Figure) Line() *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: f.Title}),
		charts.WithTitleOpts(opts.Title{Title: f.Title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "bottom"}),
		charts.WithXAxisOpts(opts.XAxis{
			Name:      f.XLabel,
			SplitLine: &opts.SplitLine{Show: opts.Bool(f.Grid)},
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Name:      f.YLabel,
			SplitLine: &opts.SplitLine{Show: opts.Bool(f.Grid)},
		}),
	)

	labels := make([]string, len(f.X))
	for i, x := range f.X {
		labels[i] = strconv.FormatFloat(x, 'g', -1, 64)
	}
	line.SetXAxis(labels)

	for _, s := range f.Series {
		data := make([]opts.LineData, len(f.X))
		for i := range f.X {
			if i >= len(s.Y) || math.IsNaN(s.Y[i]) || math.IsInf(s.Y[i], 0) {
				data[i] = opts.LineData{Value: gapValue}
				continue
			}
			data[i] = opts.LineData{Value: s.Y[i]}
		}

		line.AddSeries(s.Label, data,
			charts.WithLineChartOpts(opts.LineChart{
				ShowSymbol:   opts.Bool(true),
				ConnectNulls: opts.Bool(false),
			}),
		)
	}

	return line
}

// RenderHTML writes f as a standalone HTML page.
func (f *Figure) RenderHTML(w io.Writer) error {
	if err := f.Line().Render(w); err != nil {
		return fmt.Errorf("chart: failed to write html: %w", err)
	}

	return nil
}
