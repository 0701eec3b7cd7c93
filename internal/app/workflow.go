package service

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/okian/scoutlab/internal/domain/dataset"
	"github.com/okian/scoutlab/internal/domain/trainer"
	"github.com/okian/scoutlab/pkg/logger"
	"github.com/okian/scoutlab/pkg/metrics"
)

// previewRows is how many rows Inspect shows.
const previewRows = 5

// Upload is one user-supplied file.
type Upload struct {
	Filename string
	Content  []byte
}

// ColumnInfo summarises one inspected column.
type ColumnInfo struct {
	Name    string `json:"name"`
	Kind    string `json:"kind"`
	Missing int    `json:"missing"`
}

// Inspection previews an uploaded dataset.
type Inspection struct {
	Rows    int          `json:"rows"`
	Columns []ColumnInfo `json:"columns"`
	Header  []string     `json:"header"`
	Preview [][]string   `json:"preview"`
}

// TrainRequest names the target and problem type of a fit.
type TrainRequest struct {
	Target  string
	Problem trainer.ProblemType
	Holdout float64
}

// TrainResult reports a finished fit.
type TrainResult struct {
	Target   string           `json:"target"`
	Problem  string           `json:"problem_type"`
	Rows     int              `json:"rows"`
	Features []string         `json:"features"`
	Classes  []string         `json:"classes,omitempty"`
	Metrics  trainer.Metrics  `json:"metrics"`
	Holdout  *trainer.Metrics `json:"holdout,omitempty"`
	Cached   bool             `json:"cached"`
}

// Inspect parses an upload and describes its columns.
func (s *Service) Inspect(ctx context.Context, id string, up Upload) (*Inspection, error) {
	sess, err := s.session(id)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	t, err := s.loadTable(sess, up)
	if err != nil {
		s.logger.Warn(ctx, "inspect failed", logger.String("session", id), logger.Error(err))
		return nil, err
	}

	out := &Inspection{Rows: t.Len()}
	for _, c := range t.Columns() {
		out.Columns = append(out.Columns, ColumnInfo{Name: c.Name(), Kind: c.Kind().String(), Missing: c.MissingCount()})
	}
	out.Header, out.Preview = t.Head(previewRows).Records()
	return out, nil
}

// Train fits a model on an upload and makes it the session's current run.
// Identical uploads with identical parameters reuse the memoized run.
func (s *Service) Train(ctx context.Context, id string, up Upload, req TrainRequest) (*TrainResult, error) {
	sess, err := s.session(id)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	start := time.Now()
	problem := req.Problem.String()
	key := dataset.Fingerprint(up.Content, "run", up.Filename, req.Target, problem,
		strconv.FormatFloat(req.Holdout, 'g', -1, 64),
		strconv.Itoa(s.trees), strconv.FormatInt(s.seed, 10))

	v, cached, err := sess.memoized(memoRun, key, func() (interface{}, error) {
		t, err := s.loadTable(sess, up)
		if err != nil {
			return nil, err
		}
		prepared, err := trainer.Prepare(t, req.Target, req.Problem)
		if err != nil {
			return nil, err
		}
		return trainer.Train(prepared,
			trainer.WithTrees(s.trees),
			trainer.WithSeed(s.seed),
			trainer.WithWorkers(s.workers),
			trainer.WithHoldout(req.Holdout),
		)
	})
	if err != nil {
		metrics.RecordTrainingRun(problem, "error")
		metrics.RecordErrorByComponent("trainer", ErrorKind(err))
		s.logger.Warn(ctx, "training failed",
			logger.String("session", id),
			logger.String("target", req.Target),
			logger.String("problem", problem),
			logger.Error(err))
		return nil, err
	}
	run, _ := v.(*trainer.Run)
	sess.run.Store(run)

	elapsed := time.Since(start)
	metrics.RecordTrainingRun(problem, "ok")
	if !cached {
		metrics.RecordTrainingLatency(problem, float64(elapsed.Milliseconds()))
		metrics.RecordTrainingRows(run.Rows())
	}
	s.logger.Info(ctx, "model trained",
		logger.String("session", id),
		logger.String("target", req.Target),
		logger.String("problem", problem),
		logger.Int("rows", run.Rows()),
		logger.Bool("cached", cached),
		logger.Duration("took", elapsed))

	res := &TrainResult{
		Target:   req.Target,
		Problem:  problem,
		Rows:     run.Rows(),
		Features: run.Schema().FeatureNames(),
		Metrics:  run.Metrics,
		Holdout:  run.Holdout,
		Cached:   cached,
	}
	if labels := run.Schema().Labels; labels != nil {
		res.Classes = labels.Classes()
	}
	return res, nil
}

// Predict applies the session's current run to an upload and returns the
// upload with a prediction column appended.
func (s *Service) Predict(ctx context.Context, id string, up Upload) (*dataset.Table, error) {
	sess, err := s.session(id)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	run := sess.run.Load()
	if run == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoModel, id)
	}
	start := time.Now()
	t, err := s.loadTable(sess, up)
	if err != nil {
		return nil, err
	}
	out, err := run.Predict(t)
	if err != nil {
		metrics.RecordErrorByComponent("predictor", ErrorKind(err))
		s.logger.Warn(ctx, "prediction failed", logger.String("session", id), logger.Error(err))
		return nil, err
	}
	metrics.RecordPrediction(out.Len(), float64(time.Since(start).Milliseconds()))
	s.logger.Info(ctx, "predictions computed", logger.String("session", id), logger.Int("rows", out.Len()))
	return out, nil
}

// loadTable parses an upload through the session memo. Callers hold sess.mu.
func (s *Service) loadTable(sess *session, up Upload) (*dataset.Table, error) {
	format, err := dataset.DetectFormat(up.Filename)
	if err != nil {
		return nil, err
	}
	key := dataset.Fingerprint(up.Content, memoDataset, format.String())
	v, _, err := sess.memoized(memoDataset, key, func() (interface{}, error) {
		return dataset.Read(bytes.NewReader(up.Content), format)
	})
	if err != nil {
		return nil, err
	}
	t, _ := v.(*dataset.Table)
	return t, nil
}
