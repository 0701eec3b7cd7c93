package repository

import (
	"time"

	"github.com/okian/scoutlab/pkg/logger"
)

// Option applies a configuration option to the SQLiteStore.
type Option func(*SQLiteStore)

// WithBreakerTimeout sets how long an open breaker rejects loads before
// letting a probe through.
func WithBreakerTimeout(timeout time.Duration) Option {
	return func(s *SQLiteStore) {
		if timeout > 0 {
			s.breakerTimeout = timeout
		}
	}
}

// WithBreakerThreshold sets how many consecutive failures open the breaker.
func WithBreakerThreshold(n uint32) Option {
	return func(s *SQLiteStore) {
		if n > 0 {
			s.breakerThreshold = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(s *SQLiteStore) {
		if l != nil {
			s.logger = l
		}
	}
}
