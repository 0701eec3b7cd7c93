// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru"

	"github.com/okian/scoutlab/internal/adapters/repository"
	"github.com/okian/scoutlab/internal/domain/forest"
	"github.com/okian/scoutlab/internal/domain/recommend"
	"github.com/okian/scoutlab/pkg/logger"
	"github.com/okian/scoutlab/pkg/metrics"
)

// Default service configuration constants.
const (
	defaultSessionCacheSize   = 256
	defaultMemoCacheSize      = 16
	defaultMaxRecommendations = 20
	defaultPlayerDBPath       = "Data/database.sqlite"
)

// Service implements the API dependencies for both workflows: the session
// scoped tabular trainer and the shared player recommender.
type Service struct {
	mu sync.RWMutex

	// Session table; evicting a session purges its memo.
	sessions *lru.Cache

	// Player catalog, built once on first use.
	catalogMu sync.Mutex
	catalog   *recommend.Catalog
	store     repository.Store
	ownsStore bool

	// Configuration
	sessionCacheSize   int
	memoCacheSize      int
	trees              int
	seed               int64
	workers            int
	maxRecommendations int
	playerDBPath       string
	breakerTimeout     time.Duration

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithSessionCacheSize bounds how many sessions are kept; the least recently
// used one is ended when the table is full.
func WithSessionCacheSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.sessionCacheSize = size
		}
	}
}

// WithMemoCacheSize bounds the memoized loads and runs per session.
func WithMemoCacheSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.memoCacheSize = size
		}
	}
}

// WithForest sets the ensemble size and seed used by every training run.
func WithForest(trees int, seed int64) Option {
	return func(s *Service) {
		if trees > 0 {
			s.trees = trees
		}
		s.seed = seed
	}
}

// WithWorkers sets how many trees are grown concurrently per run.
func WithWorkers(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithMaxRecommendations caps k for similar-player lookups.
func WithMaxRecommendations(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxRecommendations = n
		}
	}
}

// WithPlayerDB sets where the football database is opened from.
func WithPlayerDB(path string, breakerTimeout time.Duration) Option {
	return func(s *Service) {
		if path != "" {
			s.playerDBPath = path
		}
		if breakerTimeout > 0 {
			s.breakerTimeout = breakerTimeout
		}
	}
}

// WithPlayerStore uses an already opened player store instead of opening
// the database file. The caller keeps ownership of the store.
func WithPlayerStore(store repository.Store) Option {
	return func(s *Service) {
		s.store = store
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		sessionCacheSize:   defaultSessionCacheSize,
		memoCacheSize:      defaultMemoCacheSize,
		trees:              forest.DefaultTrees,
		seed:               forest.DefaultSeed,
		workers:            1,
		maxRecommendations: defaultMaxRecommendations,
		playerDBPath:       defaultPlayerDBPath,
		logger:             nil, // Will be replaced when service starts
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes the session table.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	sessions, err := lru.NewWithEvict(s.sessionCacheSize, func(key, value interface{}) {
		if sess, ok := value.(*session); ok {
			sess.close()
		}
		s.logger.Debug(context.Background(), "session ended", logger.Any("session", key))
	})
	if err != nil {
		return fmt.Errorf("create session table: %w", err)
	}
	s.sessions = sessions
	s.ownsStore = s.store == nil

	s.started = true
	metrics.UpdateActiveSessions(0)
	s.logger.Info(ctx, "scoutlab service started",
		logger.Int("sessionCacheSize", s.sessionCacheSize),
		logger.Int("memoCacheSize", s.memoCacheSize),
		logger.Int("trees", s.trees),
		logger.Int64("seed", s.seed),
		logger.String("playerDB", s.playerDBPath),
	)
	return nil
}

// Stop ends every session and releases the player store.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(context.Background(), "stopping scoutlab service...")

	s.sessions.Purge()
	metrics.UpdateActiveSessions(0)

	s.catalogMu.Lock()
	if s.ownsStore && s.store != nil {
		if err := s.store.Close(); err != nil {
			s.logger.Warn(context.Background(), "failed to close player store", logger.Error(err))
		}
		s.store = nil
	}
	s.catalog = nil
	s.catalogMu.Unlock()

	s.started = false
	s.logger.Info(context.Background(), "scoutlab service stopped")
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":            s.started,
		"sessionCacheSize":   s.sessionCacheSize,
		"memoCacheSize":      s.memoCacheSize,
		"trees":              s.trees,
		"seed":               s.seed,
		"maxRecommendations": s.maxRecommendations,
	}

	if s.started {
		active := s.sessions.Len()
		stats["activeSessions"] = active
		metrics.UpdateActiveSessions(active)

		s.catalogMu.Lock()
		stats["catalogLoaded"] = s.catalog != nil
		if s.catalog != nil {
			stats["catalogPlayers"] = s.catalog.Len()
		}
		s.catalogMu.Unlock()
	}

	return stats
}

// ready guards operations that need Start.
func (s *Service) ready() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return ErrNotStarted
	}
	return nil
}
