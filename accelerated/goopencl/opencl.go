//go:build opencl

package goopencl

import (
	"errors"
	"fmt"

	"github.com/haormj/imgbench/accelerated"
	"github.com/passkeyra/go-opencl/opencl"
)

const float32Size = 4

type OpenCL struct {
	device       opencl.Device
	context      opencl.Context
	commandQueue opencl.CommandQueue

	// Programs are built on first use of each (scale, shift) pair.
	kernels map[affineKey]opencl.Kernel
}

// Buffer is an OpenCL memory object holding n float32 values.
type Buffer struct {
	o   *OpenCL
	mem opencl.Buffer
	n   int

	released bool
}

// Len implements accelerated.Buffer.
func (b *Buffer) Len() int {
	return b.n
}

// Data implements accelerated.Buffer. The read blocks until queued work on
// the buffer has finished.
func (b *Buffer) Data() ([]float32, error) {
	data := make([]float32, b.n)
	if b.n == 0 {
		return data, nil
	}

	if err := b.o.commandQueue.EnqueueReadBuffer(b.mem, true, data); err != nil {
		return nil, fmt.Errorf("accelerated/goopencl: failed to read buffer: %w", err)
	}

	return data, nil
}

// Release implements accelerated.Buffer.
func (b *Buffer) Release() error {
	if b.released || b.n == 0 {
		return nil
	}

	b.mem.Release()
	b.released = true

	return nil
}

// Name implements accelerated.Backend.
func (o *OpenCL) Name() string {
	return "opencl/go-opencl"
}

// Release implements accelerated.Backend.
func (o *OpenCL) Release() error {
	err := o.Synchronize()

	o.context.Release()

	return err
}

var _ accelerated.Backend = &OpenCL{}

var errNoDevice = errors.New("accelerated/goopencl: no available device")

// getFirstDevice returns the first available OpenCL device of type deviceType.
func getFirstDevice(deviceType opencl.DeviceType) (opencl.Device, error) {
	platforms, err := opencl.GetPlatforms()
	if err != nil {
		return opencl.Device{}, fmt.Errorf("accelerated/goopencl: failed to list platforms: %w", err)
	}

	for _, platform := range platforms {
		var devices []opencl.Device
		devices, err = platform.GetDevices(deviceType)
		if err != nil {
			continue
		}

		for _, device := range devices {
			var available bool
			err = device.GetInfo(opencl.DeviceAvailable, &available)
			if err == nil && available {
				return device, nil
			}
		}
	}

	return opencl.Device{}, errNoDevice
}

func (o *OpenCL) SetupContext() (err error) {
	var undo cleanups
	defer func() {
		if err != nil {
			undo.unwind()
		}
	}()

	o.device, err = getFirstDevice(opencl.DeviceTypeGPU)
	if err != nil {
		return err
	}

	o.context, err = o.device.CreateContext()
	if err != nil {
		return fmt.Errorf("accelerated/goopencl: failed to create context: %w", err)
	}
	undo.push(func() { o.context.Release() })

	o.commandQueue, err = o.context.CreateCommandQueue(o.device)
	if err != nil {
		return fmt.Errorf("accelerated/goopencl: failed to create command queue: %w", err)
	}

	o.kernels = make(map[affineKey]opencl.Kernel)

	return nil
}

// kernel returns the affine kernel compiled for scale and shift.
func (o *OpenCL) kernel(scale, shift float32) (opencl.Kernel, error) {
	key := affineKey{scale: scale, shift: shift}
	if k, ok := o.kernels[key]; ok {
		return k, nil
	}

	prog, err := o.context.CreateProgramWithSource(affineSource(affineSrc, scale, shift))
	if err != nil {
		return opencl.Kernel{}, fmt.Errorf("accelerated/goopencl: failed to create program: %w", err)
	}

	if err := prog.Build(o.device, nil); err != nil {
		return opencl.Kernel{}, fmt.Errorf("accelerated/goopencl: failed to build program: %w", err)
	}

	k, err := prog.CreateKernel("affine")
	if err != nil {
		return opencl.Kernel{}, fmt.Errorf("accelerated/goopencl: failed to create kernel: %w", err)
	}

	o.kernels[key] = k

	return k, nil
}

// Alloc implements accelerated.Backend.
func (o *OpenCL) Alloc(n int) (accelerated.Buffer, error) {
	if n < 0 {
		return nil, fmt.Errorf("accelerated/goopencl: negative buffer length %d", n)
	}

	if n == 0 {
		return &Buffer{o: o}, nil
	}

	mem, err := o.context.CreateBuffer([]opencl.MemFlags{opencl.MemReadWrite}, uint64(n*float32Size))
	if err != nil {
		return nil, fmt.Errorf("accelerated/goopencl: failed to create buffer: %w", err)
	}

	return &Buffer{o: o, mem: mem, n: n}, nil
}

// Upload implements accelerated.Backend. The write is blocking.
func (o *OpenCL) Upload(vals []float32) (accelerated.Buffer, error) {
	buf, err := o.Alloc(len(vals))
	if err != nil {
		return nil, err
	}

	b := buf.(*Buffer)
	if b.n == 0 {
		return b, nil
	}

	if err := o.commandQueue.EnqueueWriteBuffer(b.mem, true, vals); err != nil {
		b.Release()
		return nil, fmt.Errorf("accelerated/goopencl: failed to copy buffer to device: %w", err)
	}

	return b, nil
}

// Affine implements accelerated.Backend. The kernel is enqueued without
// waiting; Synchronize finishes the queue. The first call for a new scale
// and shift compiles a program.
func (o *OpenCL) Affine(out, in accelerated.Buffer, scale, shift float32) error {
	outDev, ok := out.(*Buffer)
	if !ok {
		return fmt.Errorf("accelerated/goopencl: out is %T, not a device buffer", out)
	}

	inDev, ok := in.(*Buffer)
	if !ok {
		return fmt.Errorf("accelerated/goopencl: in is %T, not a device buffer", in)
	}

	if outDev.n < inDev.n {
		return fmt.Errorf("accelerated/goopencl: out length %d shorter than in length %d", outDev.n, inDev.n)
	}

	n := inDev.n
	if n == 0 {
		return nil
	}

	k, err := o.kernel(scale, shift)
	if err != nil {
		return err
	}

	for i, arg := range affineArgs(&outDev.mem, &inDev.mem) {
		if err := k.SetArg(uint32(i), arg.size, arg.value); err != nil {
			return fmt.Errorf("accelerated/goopencl: failed to set kernel arg %d: %w", i, err)
		}
	}

	if err := o.commandQueue.EnqueueNDRangeKernel(k, uint32(1), []uint64{uint64(n)}); err != nil {
		return fmt.Errorf("accelerated/goopencl: failed to enqueue affine: %w", err)
	}

	return nil
}

// Synchronize implements accelerated.Backend. go-opencl's Finish reports no
// error; enqueue failures surface from Affine instead.
func (o *OpenCL) Synchronize() error {
	o.commandQueue.Finish()

	return nil
}
