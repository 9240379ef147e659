package repository

import (
	"time"

	"github.com/okian/wardrobe/pkg/logger"
)

type settings struct {
	log      logger.Logger
	now      func() time.Time
	maxConns int
}

func defaultSettings() settings {
	return settings{log: logger.Nop(), now: time.Now, maxConns: 10}
}

// Option configures a store.
type Option func(*settings)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.log = l
		}
	}
}

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *settings) {
		if now != nil {
			s.now = now
		}
	}
}

// WithMaxConns caps open database connections. Ignored by the memory store.
func WithMaxConns(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.maxConns = n
		}
	}
}
