// Package bench times an elementwise affine transform on synthetic image
// tensors, on the CPU and on an accelerator when one is present.
package bench

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/haormj/imgbench/accelerated"
	"github.com/haormj/imgbench/accelerated/cpu"
	"github.com/haormj/imgbench/tensor"
	"golang.org/x/exp/rand"
)

// The benchmarked transform is out = in*Scale + Shift.
const (
	Scale float32 = 1.5
	Shift float32 = 2.0
)

// WarmupRuns is the number of untimed accelerator runs before timing.
const WarmupRuns = 3

const (
	DefaultChannels = 3
	DefaultTrials   = 5
	DefaultSeed     = 42
)

// Timing is an average per-trial duration in seconds. The zero value means
// the backend did not run.
type Timing struct {
	Seconds float64
	Valid   bool
}

// Unavailable is the timing recorded when the accelerator is absent.
var Unavailable = Timing{}

func Seconds(s float64) Timing {
	return Timing{Seconds: s, Valid: true}
}

func (t Timing) String() string {
	if !t.Valid {
		return "n/a"
	}
	return strconv.FormatFloat(t.Seconds, 'f', 6, 64)
}

// Options are the benchmark parameters besides the size list.
type Options struct {
	Channels int
	Trials   int
	Seed     int64
}

func DefaultOptions() Options {
	return Options{
		Channels: DefaultChannels,
		Trials:   DefaultTrials,
		Seed:     DefaultSeed,
	}
}

// Result holds one timing per input size for each backend. Primary and
// Secondary are always the same length as Sizes.
type Result struct {
	// Device is the resolved primary device name. It is informational only;
	// Primary always times the CPU.
	Device string

	Sizes     []int
	Primary   []float64
	Secondary []Timing
}

// AcceleratorRan reports whether any secondary timing was recorded.
func (r *Result) AcceleratorRan() bool {
	for _, t := range r.Secondary {
		if t.Valid {
			return true
		}
	}
	return false
}

// Runner runs the benchmark against a CPU backend and an optional
// accelerator.
type Runner struct {
	// CPU defaults to the gonum backend.
	CPU accelerated.Backend
	// Accelerator is nil when no accelerator is available.
	Accelerator accelerated.Backend

	// Out receives the progress lines. Defaults to os.Stdout.
	Out    io.Writer
	Logger *slog.Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

func (r *Runner) cpu() accelerated.Backend {
	if r.CPU == nil {
		return &cpu.CPU{}
	}
	return r.CPU
}

func (r *Runner) out() io.Writer {
	if r.Out == nil {
		return os.Stdout
	}
	return r.Out
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger == nil {
		return slog.Default()
	}
	return r.Logger
}

func (r *Runner) now() time.Time {
	if r.Now == nil {
		return time.Now()
	}
	return r.Now()
}

// Run benchmarks every size in order. Errors from tensor allocation or a
// backend abort the run and are returned as is.
func (r *Runner) Run(sizes []int, opts Options) (*Result, error) {
	out := r.out()
	logger := r.logger()
	src := rand.NewSource(uint64(opts.Seed))

	device := r.cpu().Name()
	if r.Accelerator != nil {
		device = r.Accelerator.Name()
	}
	logger.Info("resolved primary device", "device", device)
	fmt.Fprintf(out, "\nUsing device: %s\n", device)

	res := &Result{
		Device:    device,
		Sizes:     append([]int(nil), sizes...),
		Primary:   make([]float64, 0, len(sizes)),
		Secondary: make([]Timing, 0, len(sizes)),
	}

	for _, size := range sizes {
		fmt.Fprintf(out, "\n--- Benchmarking %dx%d ---\n", size, size)

		img, err := tensor.Rand(src, opts.Channels, size, size)
		if err != nil {
			return nil, err
		}

		cpuTime, err := r.measure(r.cpu(), img, opts.Trials, 0)
		if err != nil {
			return nil, err
		}
		res.Primary = append(res.Primary, cpuTime)
		fmt.Fprintf(out, "CPU: %.6f s\n", cpuTime)

		if r.Accelerator == nil {
			res.Secondary = append(res.Secondary, Unavailable)
			fmt.Fprintln(out, "GPU not available.")
			continue
		}

		gpuTime, err := r.measure(r.Accelerator, img, opts.Trials, WarmupRuns)
		if err != nil {
			return nil, err
		}
		res.Secondary = append(res.Secondary, Seconds(gpuTime))
		fmt.Fprintf(out, "GPU: %.6f s\n", gpuTime)

		logger.Debug("benchmarked size", "size", size, "cpu", cpuTime, "gpu", gpuTime)
	}

	return res, nil
}

// measure copies img to b, runs warmup untimed transforms, then returns the
// average wall-clock seconds over trials timed transforms. Queued work is
// forced to complete after the warm-up and before the clock stops.
func (r *Runner) measure(b accelerated.Backend, img *tensor.Image, trials, warmup int) (avg float64, err error) {
	in, err := b.Upload(img.Data)
	if err != nil {
		return 0, err
	}
	defer func() {
		if relErr := in.Release(); err == nil {
			err = relErr
		}
	}()

	dst, err := b.Alloc(img.Len())
	if err != nil {
		return 0, err
	}
	defer func() {
		if relErr := dst.Release(); err == nil {
			err = relErr
		}
	}()

	for i := 0; i < warmup; i++ {
		if err := b.Affine(dst, in, Scale, Shift); err != nil {
			return 0, err
		}
	}
	if err := b.Synchronize(); err != nil {
		return 0, err
	}

	start := r.now()
	for i := 0; i < trials; i++ {
		if err := b.Affine(dst, in, Scale, Shift); err != nil {
			return 0, err
		}
	}
	if err := b.Synchronize(); err != nil {
		return 0, err
	}
	elapsed := r.now().Sub(start)

	return elapsed.Seconds() / float64(trials), nil
}
