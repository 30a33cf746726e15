package blackcl

import (
	_ "embed"
)

//go:embed affine.cl
var affineSrc string

const localGroupSize = 64

// workSize rounds n up to whole work groups. The kernel skips ids >= n.
func workSize(n int) (global, local int) {
	return (n + localGroupSize - 1) / localGroupSize * localGroupSize, localGroupSize
}

// affineArgs lays out the arguments of the affine kernel in affine.cl order.
func affineArgs(out, in interface{}, scale, shift float32, n int) []interface{} {
	return []interface{}{out, in, scale, shift, uint32(n)}
}
