package worker

import (
	"github.com/okian/lineup/pkg/logger"
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

// WithInvalidator drops cached scores of the rated player after each vote.
func WithInvalidator(inv Invalidator) Option {
	return func(w *InMemoryWorker) {
		if inv != nil {
			w.invalidator = inv
		}
	}
}

// WithPublisher announces every persisted vote.
func WithPublisher(p Publisher) Option {
	return func(w *InMemoryWorker) {
		if p != nil {
			w.publisher = p
		}
	}
}
