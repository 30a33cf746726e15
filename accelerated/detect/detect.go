// Package detect resolves the optional accelerator backend.
package detect

import (
	"log/slog"

	"github.com/haormj/imgbench/accelerated"
)

// candidate constructs a backend and sets up its context. Errors mean the
// backend is unusable on this machine.
type candidate struct {
	name string
	new  func() accelerated.Backend
}

// Accelerator returns the first accelerator backend whose context can be set
// up, or false if there is none. The returned backend must be released by
// the caller.
func Accelerator(logger *slog.Logger) (accelerated.Backend, bool) {
	return first(logger, candidates)
}

func first(logger *slog.Logger, candidates []candidate) (accelerated.Backend, bool) {
	if logger == nil {
		logger = slog.Default()
	}

	if len(candidates) == 0 {
		logger.Debug("built without accelerator support")
		return nil, false
	}

	for _, p := range candidates {
		backend := p.new()
		if err := backend.SetupContext(); err != nil {
			logger.Debug("accelerator unavailable", "backend", p.name, "err", err)
			continue
		}

		logger.Info("accelerator available", "backend", backend.Name())
		return backend, true
	}

	return nil, false
}
