package cpu

import (
	"fmt"

	"github.com/haormj/imgbench/accelerated"
	"gonum.org/v1/gonum/blas/blas32"
)

type CPU struct {
}

// Buffer is a host-memory accelerated.Buffer.
type Buffer struct {
	data []float32
}

// Len implements accelerated.Buffer.
func (b *Buffer) Len() int {
	return len(b.data)
}

// Data implements accelerated.Buffer.
func (b *Buffer) Data() ([]float32, error) {
	return append([]float32(nil), b.data...), nil
}

// Release implements accelerated.Buffer.
func (b *Buffer) Release() error {
	b.data = nil

	return nil
}

// Name implements accelerated.Backend.
func (*CPU) Name() string {
	return "cpu"
}

// Upload implements accelerated.Backend.
func (*CPU) Upload(vals []float32) (accelerated.Buffer, error) {
	return &Buffer{data: append([]float32(nil), vals...)}, nil
}

// Alloc implements accelerated.Backend.
func (*CPU) Alloc(n int) (accelerated.Buffer, error) {
	if n < 0 {
		return nil, fmt.Errorf("accelerated/cpu: negative buffer length %d", n)
	}

	return &Buffer{data: make([]float32, n)}, nil
}

// Affine implements accelerated.Backend. It computes out = in*scale + shift
// before returning.
func (*CPU) Affine(out, in accelerated.Buffer, scale, shift float32) error {
	o, ok := out.(*Buffer)
	if !ok {
		return fmt.Errorf("accelerated/cpu: out is %T, not a host buffer", out)
	}

	i, ok := in.(*Buffer)
	if !ok {
		return fmt.Errorf("accelerated/cpu: in is %T, not a host buffer", in)
	}

	AffineSlice(o.data, i.data, scale, shift)

	return nil
}

// AffineSlice writes src*scale + shift into dst. dst must be at least as
// long as src.
func AffineSlice(dst, src []float32, scale, shift float32) {
	if len(dst) < len(src) {
		panic(fmt.Sprintf("accelerated/cpu: dst length %d shorter than src length %d", len(dst), len(src)))
	}

	n := len(src)
	if n == 0 {
		return
	}

	dst = dst[:n]
	for i := range dst {
		dst[i] = shift
	}

	blas32.Axpy(scale,
		blas32.Vector{N: n, Data: src, Inc: 1},
		blas32.Vector{N: n, Data: dst, Inc: 1},
	)
}

// Synchronize implements accelerated.Backend. CPU work is never queued.
func (*CPU) Synchronize() error {
	return nil
}

// Release implements accelerated.Backend.
func (*CPU) Release() error {
	return nil
}

// SetupContext implements accelerated.Backend.
func (*CPU) SetupContext() error {
	return nil
}

var _ accelerated.Backend = &CPU{}
