package goopencl

import (
	_ "embed"
	"fmt"
	"strconv"
)

//go:embed affine.cl
var affineSrc string

// kernelArg is one Kernel.SetArg call. go-opencl only takes buffer pointers
// as kernel arguments, so scalars are compiled into the program instead.
type kernelArg struct {
	size  uint64
	value interface{}
}

const memObjectSize = 8

// affineArgs lays out the arguments of the affine kernel.
func affineArgs[B any](out, in *B) []kernelArg {
	return []kernelArg{
		{memObjectSize, out},
		{memObjectSize, in},
	}
}

// floatLiteral formats v as an exact OpenCL C float expression.
func floatLiteral(v float32) string {
	return "((float)(" + strconv.FormatFloat(float64(v), 'x', -1, 32) + "))"
}

// affineSource returns the kernel source with scale and shift defined.
func affineSource(src string, scale, shift float32) string {
	return fmt.Sprintf("#define SCALE %s\n#define SHIFT %s\n%s", floatLiteral(scale), floatLiteral(shift), src)
}

// affineKey identifies a program built for one (scale, shift) pair.
type affineKey struct {
	scale, shift float32
}

// cleanups runs release functions in reverse order of registration.
type cleanups []func()

func (c *cleanups) push(f func()) {
	*c = append(*c, f)
}

func (c *cleanups) unwind() {
	for i := len(*c) - 1; i >= 0; i-- {
		(*c)[i]()
	}
	*c = nil
}
