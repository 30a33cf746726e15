package accelerated

// Buffer is a float32 array resident on a backend's device.
type Buffer interface {
	Len() int
	// Data copies the buffer contents back to host memory.
	Data() ([]float32, error)
	Release() error
}

// Backend is an execution path for elementwise tensor arithmetic.
//
// Affine may return before the queued work has executed. Synchronize blocks
// until everything queued so far has completed and reports the errors any
// of it produced.
type Backend interface {
	Name() string
	SetupContext() error
	Upload(vals []float32) (Buffer, error)
	Alloc(n int) (Buffer, error)
	Affine(out, in Buffer, scale, shift float32) error
	Synchronize() error
	Release() error
}
