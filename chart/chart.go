// Package chart renders line figures of benchmark timings.
package chart

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/plot/vg"
)

// Format selects a renderer.
type Format string

const (
	PNG  Format = "png"
	HTML Format = "html"
)

// ParseFormat accepts "png" or "html" in any case.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case PNG, HTML:
		return f, nil
	default:
		return "", fmt.Errorf("chart: unknown format %q", s)
	}
}

// Default figure size, matching an 8x6 inch canvas.
const (
	DefaultWidth  = 8 * vg.Inch
	DefaultHeight = 6 * vg.Inch
)

// Series is one labelled line. Y is parallel to the figure's X; NaN entries
// are gaps.
type Series struct {
	Label string
	Y     []float64
}

// Figure is a set of lines sharing one x axis.
type Figure struct {
	Title  string
	XLabel string
	YLabel string
	Grid   bool

	X      []float64
	Series []Series
}

// Lines returns the number of series with at least one plottable point.
func (f *Figure) Lines() int {
	n := 0
	for _, s := range f.Series {
		if len(f.segments(s)) > 0 {
			n++
		}
	}
	return n
}

// segments splits s into runs of consecutive points with finite y.
func (f *Figure) segments(s Series) [][]int {
	var (
		out [][]int
		cur []int
	)
	for i := range f.X {
		if i >= len(s.Y) || math.IsNaN(s.Y[i]) || math.IsInf(s.Y[i], 0) {
			if len(cur) > 0 {
				out = append(out, cur)
				cur = nil
			}
			continue
		}
		cur = append(cur, i)
	}
	if len(cur) > 0 {
		out = append(out, cur)
	}
	return out
}
