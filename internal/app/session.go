package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru"

	"github.com/okian/scoutlab/internal/domain/trainer"
	"github.com/okian/scoutlab/pkg/logger"
	"github.com/okian/scoutlab/pkg/metrics"
)

// Memo kinds, used as metric labels.
const (
	memoDataset = "dataset"
	memoRun     = "run"
)

// session owns one user's uploads, memo table and current run. Its
// operations are serialized by mu; close does not take mu so that ending a
// session never waits for a fit in progress.
type session struct {
	id      string
	created time.Time

	mu   sync.Mutex
	memo *lru.Cache
	run  atomic.Pointer[trainer.Run]
}

// SessionInfo describes a live session.
type SessionInfo struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateSession opens a new session with an empty memo table.
func (s *Service) CreateSession(ctx context.Context) (SessionInfo, error) {
	if err := s.ready(); err != nil {
		return SessionInfo{}, err
	}
	memo, err := lru.New(s.memoCacheSize)
	if err != nil {
		return SessionInfo{}, fmt.Errorf("create memo table: %w", err)
	}
	sess := &session{
		id:      uuid.NewString(),
		created: time.Now().UTC(),
		memo:    memo,
	}
	s.sessions.Add(sess.id, sess)
	metrics.UpdateActiveSessions(s.sessions.Len())
	s.logger.Info(ctx, "session created", logger.String("session", sess.id))
	return SessionInfo{ID: sess.id, CreatedAt: sess.created}, nil
}

// EndSession discards a session with its memo table and model.
func (s *Service) EndSession(ctx context.Context, id string) error {
	if err := s.ready(); err != nil {
		return err
	}
	if !s.sessions.Remove(id) {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	metrics.UpdateActiveSessions(s.sessions.Len())
	s.logger.Info(ctx, "session ended", logger.String("session", id))
	return nil
}

func (s *Service) session(id string) (*session, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	v, ok := s.sessions.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	sess, _ := v.(*session)
	return sess, nil
}

// close drops everything the session computed.
func (sess *session) close() {
	sess.memo.Purge()
	sess.run.Store(nil)
}

// memoized returns the cached value for key or computes and stores it.
// Failures are never cached. Callers hold sess.mu.
func (sess *session) memoized(kind, key string, compute func() (interface{}, error)) (interface{}, bool, error) {
	if v, ok := sess.memo.Get(key); ok {
		metrics.RecordMemoHit(kind)
		return v, true, nil
	}
	metrics.RecordMemoMiss(kind)
	v, err := compute()
	if err != nil {
		return nil, false, err
	}
	sess.memo.Add(key, v)
	return v, false, nil
}
