// Package repository reads players and their attribute snapshots from the
// football SQLite database.
package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/okian/scoutlab/internal/domain/recommend"
	"github.com/okian/scoutlab/pkg/logger"
	"github.com/okian/scoutlab/pkg/metrics"
)

// Default data source configuration constants.
const (
	breakerName             = "player-db"
	defaultBreakerTimeout   = 30 * time.Second
	defaultBreakerThreshold = 3
)

// Store provides read access to the player tables.
type Store interface {
	// Players returns every identity row in table order.
	Players(ctx context.Context) ([]recommend.Player, error)
	// Snapshots returns every attribute snapshot in table order.
	Snapshots(ctx context.Context) ([]recommend.Snapshot, error)
	// Close releases the connection.
	Close() error
}

// SQLiteStore is a Store over a read-only SQLite file. Loads go through a
// circuit breaker so a dead source fails fast instead of being hammered by
// user retries.
type SQLiteStore struct {
	db *gorm.DB
	cb *gobreaker.CircuitBreaker[any]

	breakerTimeout   time.Duration
	breakerThreshold uint32
	logger           logger.Logger
}

// Open connects to the database at path. The file must already exist and
// hold both player tables; nothing is created.
func Open(ctx context.Context, path string, opts ...Option) (*SQLiteStore, error) {
	s := &SQLiteStore{
		breakerTimeout:   defaultBreakerTimeout,
		breakerThreshold: defaultBreakerThreshold,
		logger:           logger.Get().Named("repository"),
	}
	for _, opt := range opts {
		opt(s)
	}

	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	s.db = db

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	for _, table := range []string{playerRow{}.TableName(), attributeRow{}.TableName()} {
		if !db.WithContext(ctx).Migrator().HasTable(table) {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("%w: table %s not found", ErrUnavailable, table)
		}
	}

	s.cb = s.newBreaker()
	s.logger.Info(ctx, "player database opened", logger.String("path", path))
	return s, nil
}

func (s *SQLiteStore) newBreaker() *gobreaker.CircuitBreaker[any] {
	metrics.UpdateBreakerState(breakerName, stateToFloat(gobreaker.StateClosed))
	threshold := s.breakerThreshold
	return gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Timeout:     s.breakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			s.logger.Warn(context.Background(), "circuit breaker state transition",
				logger.String("name", name),
				logger.String("from", from.String()),
				logger.String("to", to.String()))
			metrics.UpdateBreakerState(name, stateToFloat(to))
			metrics.RecordBreakerTransition(name, from.String(), to.String())
		},
	})
}

// Players returns every identity row.
func (s *SQLiteStore) Players(ctx context.Context) ([]recommend.Player, error) {
	res, err := s.execute(func() (any, error) {
		var rows []playerRow
		if err := s.db.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
			return nil, err
		}
		out := make([]recommend.Player, len(rows))
		for i := range rows {
			out[i] = rows[i].toPlayer()
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}
	players, _ := res.([]recommend.Player)
	return players, nil
}

// Snapshots returns every attribute snapshot.
func (s *SQLiteStore) Snapshots(ctx context.Context) ([]recommend.Snapshot, error) {
	res, err := s.execute(func() (any, error) {
		var rows []attributeRow
		if err := s.db.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
			return nil, err
		}
		out := make([]recommend.Snapshot, len(rows))
		for i := range rows {
			out[i] = rows[i].toSnapshot()
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}
	snaps, _ := res.([]recommend.Snapshot)
	return snaps, nil
}

// Close releases the underlying connection.
func (s *SQLiteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// execute runs fn under the breaker. Every failure, rejected or not, is
// reported as ErrUnavailable.
func (s *SQLiteStore) execute(fn func() (any, error)) (any, error) {
	res, err := s.cb.Execute(fn)
	if err == nil {
		return res, nil
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		metrics.RecordErrorByComponent("repository", "rejected")
	} else {
		metrics.RecordErrorByComponent("repository", "query")
	}
	return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
