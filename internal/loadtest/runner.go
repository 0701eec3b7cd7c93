// Package loadtest drives a running scoutlab service through complete
// trainer sessions and recommender lookups, concurrently, and verifies the
// answers against data whose labels follow a known rule.
package loadtest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cheggaaa/pb/v3"

	"github.com/okian/scoutlab/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0o750
	filePermission      = 0o600
	similarK            = 5
)

// Run executes the complete load test. Progress is drawn on progress when
// it is non-nil.
func Run(ctx context.Context, cfg Config, progress io.Writer) (*Stats, error) {
	cfg = cfg.withDefaults()
	log := logger.Get().Named("loadtest")
	stats := &Stats{StartTime: time.Now()}

	log.Info(ctx, "starting scoutlab load test",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("sessions", cfg.Sessions),
		logger.Int("rows", cfg.Rows),
		logger.Int("workers", cfg.Workers),
		logger.Duration("timeout", cfg.Timeout))

	c := newClient(cfg)

	// Step 1: Check service health
	if err := c.health(ctx); err != nil {
		return stats, err
	}

	// Step 2: Generate the dataset
	data := GenerateDataset(cfg.Rows, cfg.Seed)
	log.Info(ctx, "dataset generated", logger.String("shape", data.String()))
	if cfg.OutputFile != "" {
		if err := saveDataset(cfg.OutputFile, data); err != nil {
			log.Warn(ctx, "failed to save dataset", logger.Error(err))
		}
	}

	// Step 3: Run sessions concurrently
	runSessions(ctx, cfg, c, data, stats, progress)

	// Step 4: Exercise the recommender
	if cfg.SimilarPlayers > 0 {
		exerciseRecommender(ctx, cfg, c, stats)
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, stats)

	// Step 5: Verify results
	if err := verify(cfg, stats); err != nil {
		return stats, err
	}
	log.Info(ctx, "load test completed successfully")
	return stats, nil
}

// sessionResult is what one session contributes to the totals.
type sessionResult struct {
	checked  int
	matched  int
	memoHit  bool
	err      error
	duration time.Duration
}

func runSessions(ctx context.Context, cfg Config, c *client, data *Dataset, stats *Stats, progress io.Writer) {
	var bar *pb.ProgressBar
	if progress != nil {
		bar = pb.New(cfg.Sessions).SetWriter(progress).Start()
		defer bar.Finish()
	}

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	jobs := make(chan int, cfg.Workers)
	for w := 0; w < cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				res := runSession(ctx, cfg, c, data)

				mu.Lock()
				if res.err != nil {
					stats.SessionsFailed++
				} else {
					stats.SessionsCompleted++
				}
				if res.memoHit {
					stats.MemoHits++
				}
				stats.PredictionsChecked += res.checked
				stats.PredictionsMatched += res.matched
				mu.Unlock()

				if bar != nil {
					bar.Increment()
				}
				if res.err != nil {
					logger.Get().Named("loadtest").Warn(ctx, "session failed", logger.Int("session", i), logger.Error(res.err))
				} else if cfg.Verbose {
					logger.Get().Named("loadtest").Info(ctx, "session completed",
						logger.Int("session", i),
						logger.Int("matched", res.matched),
						logger.Duration("took", res.duration))
				}
			}
		}()
	}

feed:
	for i := 0; i < cfg.Sessions; i++ {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()
}

// runSession opens a session, trains twice (the second time from the
// memo), predicts the unlabelled rows and ends the session.
func runSession(ctx context.Context, cfg Config, c *client, data *Dataset) sessionResult {
	start := time.Now()
	id, err := c.createSession(ctx)
	if err != nil {
		return sessionResult{err: fmt.Errorf("create session: %w", err)}
	}
	defer func() {
		if err := c.endSession(context.WithoutCancel(ctx), id); err != nil {
			logger.Get().Named("loadtest").Warn(ctx, "failed to end session", logger.String("session", id), logger.Error(err))
		}
	}()

	content := data.CSV()
	if _, err := c.train(ctx, id, content, cfg.Holdout); err != nil {
		return sessionResult{err: fmt.Errorf("train: %w", err)}
	}
	again, err := c.train(ctx, id, content, cfg.Holdout)
	if err != nil {
		return sessionResult{err: fmt.Errorf("retrain: %w", err)}
	}

	pred, err := c.predict(ctx, id, data.Features())
	if err != nil {
		return sessionResult{err: fmt.Errorf("predict: %w", err), memoHit: again.Cached}
	}
	checked, matched, err := compare(data, pred)
	return sessionResult{
		checked:  checked,
		matched:  matched,
		memoHit:  again.Cached,
		err:      err,
		duration: time.Since(start),
	}
}

func exerciseRecommender(ctx context.Context, cfg Config, c *client, stats *Stats) {
	log := logger.Get().Named("loadtest")
	players, err := c.players(ctx, cfg.SimilarPlayers)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusServiceUnavailable {
			stats.SimilarSkipped = true
			log.Warn(ctx, "player database unavailable; skipping recommender", logger.Error(err))
			return
		}
		stats.SimilarFailed++
		log.Warn(ctx, "player search failed", logger.Error(err))
		return
	}

	for _, p := range players {
		stats.SimilarRequests++
		recs, err := c.similar(ctx, p.ID, similarK)
		if err == nil {
			err = checkRecommendations(p.ID, recs)
		}
		if err != nil {
			stats.SimilarFailed++
			log.Warn(ctx, "similar players failed", logger.Int64("player", p.ID), logger.Error(err))
		}
	}
}

func saveDataset(filename string, data *Dataset) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	if err := os.WriteFile(filename, data.CSV(), filePermission); err != nil {
		return fmt.Errorf("failed to write dataset: %w", err)
	}
	return nil
}

// displayFinalStats logs the final test statistics.
func displayFinalStats(ctx context.Context, stats *Stats) {
	var sessionsPerSecond float64
	if stats.Duration > 0 {
		sessionsPerSecond = float64(stats.SessionsCompleted) / stats.Duration.Seconds()
	}

	logger.Get().Named("loadtest").Info(ctx, "final statistics",
		logger.Int("sessionsCompleted", stats.SessionsCompleted),
		logger.Int("sessionsFailed", stats.SessionsFailed),
		logger.Int("memoHits", stats.MemoHits),
		logger.Int("predictionsChecked", stats.PredictionsChecked),
		logger.Float64("agreementPercent", stats.Agreement()*percentMultiplier),
		logger.Int("similarRequests", stats.SimilarRequests),
		logger.Int("similarFailed", stats.SimilarFailed),
		logger.Bool("similarSkipped", stats.SimilarSkipped),
		logger.Duration("duration", stats.Duration),
		logger.Float64("sessionsPerSecond", sessionsPerSecond))
}
