package bench

import (
	"io"
	"log/slog"
	"math"
	"os"

	"github.com/haormj/imgbench/accelerated/cpu"
	"github.com/haormj/imgbench/accelerated/detect"
	"github.com/haormj/imgbench/chart"
)

const (
	FigureTitle = "CPU vs GPU Image Processing Performance"
	XLabel      = "Image size (pixels)"
	YLabel      = "Average time per trial (s)"
)

// Figure plots size against average duration. The CPU series is always
// present; the GPU series is added only if the accelerator ran for at least
// one size, with NaN gaps where it did not.
func (r *Result) Figure() *chart.Figure {
	fig := &chart.Figure{
		Title:  FigureTitle,
		XLabel: XLabel,
		YLabel: YLabel,
		Grid:   true,
		X:      make([]float64, len(r.Sizes)),
	}
	for i, s := range r.Sizes {
		fig.X[i] = float64(s)
	}

	fig.Series = append(fig.Series, chart.Series{
		Label: "CPU",
		Y:     append([]float64(nil), r.Primary...),
	})

	if r.AcceleratorRan() {
		y := make([]float64, len(r.Secondary))
		for i, t := range r.Secondary {
			if t.Valid {
				y[i] = t.Seconds
			} else {
				y[i] = math.NaN()
			}
		}
		fig.Series = append(fig.Series, chart.Series{Label: "GPU", Y: y})
	}

	return fig
}

// findAccelerator is replaced in tests.
var findAccelerator = detect.Accelerator

type config struct {
	opts   Options
	format chart.Format
	logger *slog.Logger
	out    io.Writer
}

type Option func(*config)

func WithChannels(n int) Option {
	return func(c *config) { c.opts.Channels = n }
}

func WithTrials(n int) Option {
	return func(c *config) { c.opts.Trials = n }
}

func WithSeed(seed int64) Option {
	return func(c *config) { c.opts.Seed = seed }
}

// WithFormat selects how the figure is rendered for display.
func WithFormat(f chart.Format) Option {
	return func(c *config) { c.format = f }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithOutput redirects the progress lines.
func WithOutput(w io.Writer) Option {
	return func(c *config) { c.out = w }
}

// BenchmarkAndPlot benchmarks sizes on the CPU and, if one is found, the
// accelerator, then displays the comparison figure.
func BenchmarkAndPlot(sizes []int, opts ...Option) (err error) {
	c := config{
		opts:   DefaultOptions(),
		format: chart.PNG,
		logger: slog.Default(),
		out:    os.Stdout,
	}
	for _, o := range opts {
		o(&c)
	}

	r := &Runner{
		CPU:    &cpu.CPU{},
		Out:    c.out,
		Logger: c.logger,
	}

	if accel, ok := findAccelerator(c.logger); ok {
		defer func() {
			if relErr := accel.Release(); err == nil {
				err = relErr
			}
		}()
		r.Accelerator = accel
	}

	res, err := r.Run(sizes, c.opts)
	if err != nil {
		return err
	}

	return chart.Show(res.Figure(), c.format)
}
