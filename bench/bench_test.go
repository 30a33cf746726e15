package bench

import (
	"bytes"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/haormj/imgbench/accelerated"
	"github.com/haormj/imgbench/accelerated/cpu"
	"github.com/haormj/imgbench/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingBackend computes on the host but records every call, standing in
// for an asynchronous accelerator.
type recordingBackend struct {
	cpu.CPU
	name       string
	syncErr    error
	releaseErr error

	events  []string
	uploads [][]float32
	lastIn  []float32
	lastOut []float32
}

func (b *recordingBackend) Name() string {
	return b.name
}

func (b *recordingBackend) Upload(vals []float32) (accelerated.Buffer, error) {
	b.uploads = append(b.uploads, append([]float32(nil), vals...))
	return b.CPU.Upload(vals)
}

func (b *recordingBackend) Affine(out, in accelerated.Buffer, scale, shift float32) error {
	b.events = append(b.events, "affine")
	if err := b.CPU.Affine(out, in, scale, shift); err != nil {
		return err
	}
	b.lastIn, _ = in.Data()
	b.lastOut, _ = out.Data()
	return nil
}

func (b *recordingBackend) Synchronize() error {
	b.events = append(b.events, "sync")
	return b.syncErr
}

func (b *recordingBackend) Release() error {
	b.events = append(b.events, "release")
	return b.releaseErr
}

// stepClock advances by step on every reading, so each timed region spans
// exactly one step.
func stepClock(step time.Duration) func() time.Time {
	now := time.Unix(0, 0)
	return func() time.Time {
		now = now.Add(step)
		return now
	}
}

func newRunner(accel accelerated.Backend) (*Runner, *recordingBackend, *bytes.Buffer) {
	host := &recordingBackend{name: "cpu"}
	out := &bytes.Buffer{}
	return &Runner{
		CPU:         host,
		Accelerator: accel,
		Out:         out,
		Logger:      log.Discard(),
		Now:         stepClock(10 * time.Millisecond),
	}, host, out
}

func repeat(s string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = s
	}
	return out
}

func TestRunWithoutAccelerator(t *testing.T) {
	r, host, out := newRunner(nil)

	res, err := r.Run([]int{4, 8}, Options{Channels: 1, Trials: 5, Seed: 42})
	require.NoError(t, err)

	assert.Equal(t, "cpu", res.Device)
	assert.Equal(t, []int{4, 8}, res.Sizes)
	require.Len(t, res.Primary, 2)
	require.Len(t, res.Secondary, 2)
	for i := range res.Sizes {
		assert.InDelta(t, 0.002, res.Primary[i], 1e-12)
		assert.Equal(t, Unavailable, res.Secondary[i])
	}
	assert.False(t, res.AcceleratorRan())

	var want []string
	for range res.Sizes {
		want = append(want, "sync")
		want = append(want, repeat("affine", 5)...)
		want = append(want, "sync")
	}
	assert.Equal(t, want, host.events)

	fig := res.Figure()
	assert.Equal(t, 1, fig.Lines())
	require.Len(t, fig.Series, 1)
	assert.Equal(t, "CPU", fig.Series[0].Label)

	printed := out.String()
	assert.Contains(t, printed, "Using device: cpu")
	assert.Contains(t, printed, "--- Benchmarking 4x4 ---")
	assert.Contains(t, printed, "--- Benchmarking 8x8 ---")
	assert.Contains(t, printed, "CPU: 0.002000 s")
	assert.Contains(t, printed, "GPU not available.")
}

func TestRunWithAccelerator(t *testing.T) {
	gpu := &recordingBackend{name: "fake-gpu"}
	r, host, out := newRunner(gpu)

	res, err := r.Run([]int{4, 16, 8}, Options{Channels: 3, Trials: 4, Seed: 42})
	require.NoError(t, err)

	assert.Equal(t, "fake-gpu", res.Device)
	require.Len(t, res.Secondary, 3)
	for i := range res.Sizes {
		assert.InDelta(t, 0.0025, res.Primary[i], 1e-12)
		require.True(t, res.Secondary[i].Valid)
		assert.InDelta(t, 0.0025, res.Secondary[i].Seconds, 1e-12)
	}

	var want []string
	for range res.Sizes {
		want = append(want, repeat("affine", WarmupRuns)...)
		want = append(want, "sync")
		want = append(want, repeat("affine", 4)...)
		want = append(want, "sync")
	}
	assert.Equal(t, want, gpu.events)

	// Both backends see the same tensor for each size.
	assert.Equal(t, host.uploads, gpu.uploads)
	require.Len(t, gpu.uploads, 3)
	assert.Len(t, gpu.uploads[1], 3*16*16)

	fig := res.Figure()
	assert.Equal(t, 2, fig.Lines())
	assert.Equal(t, "GPU", fig.Series[1].Label)
	assert.Contains(t, out.String(), "GPU: 0.002500 s")
}

func TestAcceleratorComputesAffine(t *testing.T) {
	gpu := &recordingBackend{name: "fake-gpu"}
	r, _, _ := newRunner(gpu)

	_, err := r.Run([]int{5}, Options{Channels: 2, Trials: 1, Seed: 3})
	require.NoError(t, err)

	require.Len(t, gpu.lastOut, 2*5*5)
	for i, v := range gpu.lastIn {
		assert.InDelta(t, v*1.5+2.0, gpu.lastOut[i], 1e-6)
	}
}

func TestRunDeterministicData(t *testing.T) {
	run := func(seed int64) [][]float32 {
		r, host, _ := newRunner(nil)
		_, err := r.Run([]int{4, 8}, Options{Channels: 3, Trials: 2, Seed: seed})
		require.NoError(t, err)
		return host.uploads
	}

	a, b, c := run(42), run(42), run(43)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestRunEmptySizes(t *testing.T) {
	r, _, _ := newRunner(&recordingBackend{name: "fake-gpu"})

	res, err := r.Run(nil, DefaultOptions())
	require.NoError(t, err)

	assert.Empty(t, res.Primary)
	assert.Empty(t, res.Secondary)

	fig := res.Figure()
	assert.Empty(t, fig.X)
	assert.Equal(t, 0, fig.Lines())
}

func TestRunRealClock(t *testing.T) {
	res, err := (&Runner{Out: &bytes.Buffer{}, Logger: log.Discard()}).
		Run([]int{4}, Options{Channels: 1, Trials: 5, Seed: 42})
	require.NoError(t, err)

	require.Len(t, res.Primary, 1)
	assert.GreaterOrEqual(t, res.Primary[0], 0.0)
	assert.Equal(t, []Timing{Unavailable}, res.Secondary)
}

func TestRunZeroTrials(t *testing.T) {
	r, _, _ := newRunner(nil)

	res, err := r.Run([]int{4}, Options{Channels: 1, Trials: 0, Seed: 42})
	require.NoError(t, err)
	assert.True(t, math.IsInf(res.Primary[0], 1))
}

func TestRunInvalidShape(t *testing.T) {
	r, _, _ := newRunner(nil)

	_, err := r.Run([]int{4, -2}, DefaultOptions())
	assert.Error(t, err)

	_, err = r.Run([]int{4}, Options{Channels: -1, Trials: 1})
	assert.Error(t, err)
}

func TestRunPropagatesAcceleratorError(t *testing.T) {
	errQueue := errors.New("queue failed")
	r, _, _ := newRunner(&recordingBackend{name: "fake-gpu", syncErr: errQueue})

	_, err := r.Run([]int{4}, DefaultOptions())
	assert.ErrorIs(t, err, errQueue)
}

func TestFigureGaps(t *testing.T) {
	res := &Result{
		Sizes:     []int{256, 512, 1024},
		Primary:   []float64{0.1, 0.2, 0.3},
		Secondary: []Timing{Seconds(0.01), Unavailable, Seconds(0.03)},
	}

	fig := res.Figure()
	assert.Equal(t, FigureTitle, fig.Title)
	assert.Equal(t, XLabel, fig.XLabel)
	assert.Equal(t, YLabel, fig.YLabel)
	assert.True(t, fig.Grid)
	assert.Equal(t, []float64{256, 512, 1024}, fig.X)

	require.Len(t, fig.Series, 2)
	gpu := fig.Series[1].Y
	assert.Equal(t, 0.01, gpu[0])
	assert.True(t, math.IsNaN(gpu[1]))
	assert.Equal(t, 0.03, gpu[2])
}

func TestTimingString(t *testing.T) {
	assert.Equal(t, "n/a", Unavailable.String())
	assert.Equal(t, "0.001500", Seconds(0.0015).String())
}
