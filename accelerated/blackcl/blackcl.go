//go:build opencl

package blackcl

import (
	"errors"
	"fmt"

	"github.com/haormj/imgbench/accelerated"
	"gitlab.com/microo8/blackcl"
)

type OpenCL struct {
	device *blackcl.Device
	kernel *blackcl.Kernel

	pending []<-chan error
}

func New() *OpenCL {
	return &OpenCL{}
}

// Buffer is a device vector of known length.
type Buffer struct {
	vec *blackcl.Vector
	n   int
}

// Len implements accelerated.Buffer.
func (b *Buffer) Len() int {
	return b.n
}

// Data implements accelerated.Buffer.
func (b *Buffer) Data() ([]float32, error) {
	if b.n == 0 {
		return []float32{}, nil
	}

	data, err := b.vec.Data()
	if err != nil {
		return nil, fmt.Errorf("accelerated/blackcl: failed to read buffer: %w", err)
	}

	return data, nil
}

// Release implements accelerated.Buffer.
func (b *Buffer) Release() error {
	if b.vec == nil {
		return nil
	}

	if err := b.vec.Release(); err != nil {
		return fmt.Errorf("accelerated/blackcl: failed to release buffer: %w", err)
	}
	b.vec = nil

	return nil
}

// Name implements accelerated.Backend.
func (o *OpenCL) Name() string {
	return "opencl/blackcl"
}

// Release implements accelerated.Backend.
func (o *OpenCL) Release() error {
	syncErr := o.Synchronize()

	if err := o.device.Release(); err != nil {
		return fmt.Errorf("accelerated/blackcl: failed to release device: %w", err)
	}

	return syncErr
}

// Alloc implements accelerated.Backend.
func (o *OpenCL) Alloc(n int) (accelerated.Buffer, error) {
	if n < 0 {
		return nil, fmt.Errorf("accelerated/blackcl: negative buffer length %d", n)
	}

	if n == 0 {
		return &Buffer{}, nil
	}

	vec, err := o.device.NewVector(n)
	if err != nil {
		return nil, fmt.Errorf("accelerated/blackcl: failed to create buffer: %w", err)
	}

	return &Buffer{vec: vec, n: n}, nil
}

// Upload implements accelerated.Backend. The copy has completed when Upload
// returns.
func (o *OpenCL) Upload(vals []float32) (accelerated.Buffer, error) {
	buf, err := o.Alloc(len(vals))
	if err != nil {
		return nil, err
	}

	b := buf.(*Buffer)
	if b.n == 0 {
		return b, nil
	}

	if err := <-b.vec.Copy(vals); err != nil {
		b.Release()
		return nil, fmt.Errorf("accelerated/blackcl: failed to copy buffer to device: %w", err)
	}

	return b, nil
}

// Affine implements accelerated.Backend. The kernel run is queued; call
// Synchronize to wait for it.
func (o *OpenCL) Affine(out, in accelerated.Buffer, scale, shift float32) error {
	outDev, ok := out.(*Buffer)
	if !ok {
		return fmt.Errorf("accelerated/blackcl: out is %T, not a device buffer", out)
	}

	inDev, ok := in.(*Buffer)
	if !ok {
		return fmt.Errorf("accelerated/blackcl: in is %T, not a device buffer", in)
	}

	if outDev.n < inDev.n {
		return fmt.Errorf("accelerated/blackcl: out length %d shorter than in length %d", outDev.n, inDev.n)
	}

	n := inDev.n
	if n == 0 {
		return nil
	}

	global, local := workSize(n)

	done := o.kernel.Global(global).Local(local).Run(affineArgs(outDev.vec, inDev.vec, scale, shift, n)...)
	o.pending = append(o.pending, done)

	return nil
}

// Synchronize implements accelerated.Backend.
func (o *OpenCL) Synchronize() error {
	var errs []error

	for _, done := range o.pending {
		if err := <-done; err != nil {
			errs = append(errs, fmt.Errorf("accelerated/blackcl: failed to run affine: %w", err))
		}
	}
	o.pending = o.pending[:0]

	return errors.Join(errs...)
}

// SetupContext implements accelerated.Backend.
func (o *OpenCL) SetupContext() error {
	var err error

	o.device, err = blackcl.GetDefaultDevice()
	if err != nil {
		return fmt.Errorf("accelerated/blackcl: failed to get default device: %w", err)
	}

	o.device.AddProgram(affineSrc)
	o.kernel = o.device.Kernel("affine")

	return nil
}

var _ accelerated.Backend = &OpenCL{}
