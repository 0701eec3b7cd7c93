package service

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/scoutlab/internal/adapters/repository"
	"github.com/okian/scoutlab/internal/domain/recommend"
	"github.com/okian/scoutlab/pkg/logger"
	"github.com/okian/scoutlab/pkg/metrics"
)

// Players searches the catalog by "<name> - <id>" label.
func (s *Service) Players(ctx context.Context, query string, limit int) ([]recommend.Player, error) {
	cat, err := s.loadCatalog(ctx)
	if err != nil {
		return nil, err
	}
	return cat.Search(query, limit), nil
}

// Recommend returns the k players most similar to the anchor.
func (s *Service) Recommend(ctx context.Context, anchorID int64, k int) ([]recommend.Recommendation, error) {
	if k > s.maxRecommendations {
		return nil, fmt.Errorf("%w: %d exceeds the limit of %d", recommend.ErrInvalidK, k, s.maxRecommendations)
	}
	cat, err := s.loadCatalog(ctx)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	recs, err := cat.Recommend(anchorID, k)
	if err != nil {
		metrics.RecordErrorByComponent("recommender", ErrorKind(err))
		return nil, err
	}
	metrics.RecordRecommendation(float64(time.Since(start).Microseconds()) / 1000)
	s.logger.Debug(ctx, "recommendations served", logger.Int64("anchor", anchorID), logger.Int("k", k))
	return recs, nil
}

// loadCatalog builds the player catalog on first use. Failures are not
// kept: the next call tries again.
func (s *Service) loadCatalog(ctx context.Context) (*recommend.Catalog, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	s.catalogMu.Lock()
	defer s.catalogMu.Unlock()

	if s.catalog != nil {
		return s.catalog, nil
	}

	start := time.Now()
	if s.store == nil {
		store, err := repository.Open(ctx, s.playerDBPath,
			repository.WithBreakerTimeout(s.breakerTimeout),
			repository.WithLogger(s.logger.Named("repository")))
		if err != nil {
			metrics.RecordErrorByComponent("catalog", KindDataSource)
			s.logger.Error(ctx, "player database unavailable", logger.String("path", s.playerDBPath), logger.Error(err))
			return nil, err
		}
		s.store = store
	}

	players, err := s.store.Players(ctx)
	if err != nil {
		metrics.RecordErrorByComponent("catalog", KindDataSource)
		return nil, err
	}
	snapshots, err := s.store.Snapshots(ctx)
	if err != nil {
		metrics.RecordErrorByComponent("catalog", KindDataSource)
		return nil, err
	}
	cat, err := recommend.BuildCatalog(players, snapshots)
	if err != nil {
		metrics.RecordErrorByComponent("catalog", ErrorKind(err))
		return nil, err
	}

	s.catalog = cat
	elapsed := time.Since(start)
	metrics.RecordCatalogLoad(cat.Len(), float64(elapsed.Milliseconds()))
	s.logger.Info(ctx, "player catalog loaded",
		logger.Int("players", cat.Len()),
		logger.Int("snapshots", len(snapshots)),
		logger.Duration("took", elapsed))
	return cat, nil
}
