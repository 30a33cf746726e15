//go:build opencl

package detect

import (
	"github.com/haormj/imgbench/accelerated"
	"github.com/haormj/imgbench/accelerated/blackcl"
	"github.com/haormj/imgbench/accelerated/goopencl"
)

var candidates = []candidate{
	{name: "blackcl", new: func() accelerated.Backend { return blackcl.New() }},
	{name: "go-opencl", new: func() accelerated.Backend { return &goopencl.OpenCL{} }},
}
