//go:build !opencl

package detect

var candidates []candidate
