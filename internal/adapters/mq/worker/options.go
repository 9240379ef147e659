package worker

import (
	"github.com/okian/wardrobe/internal/domain/dedupe"
	"github.com/okian/wardrobe/pkg/logger"
)

// Option applies a configuration option to the InMemoryWorker.
type Option func(*InMemoryWorker)

// WithName sets the worker name for identification and logging.
func WithName(name string) Option {
	return func(w *InMemoryWorker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(l logger.Logger) Option {
	return func(w *InMemoryWorker) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithCoalescer releases each event's user key before invalidating.
func WithCoalescer(c dedupe.Coalescer) Option {
	return func(w *InMemoryWorker) {
		w.coalescer = c
	}
}
