// Command scoutlab-train fits a model on one dataset from the command line,
// prints its metrics and optionally writes predictions for a second dataset.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/alexflint/go-arg"
	"github.com/cheggaaa/pb/v3"
	"github.com/goccy/go-json"

	"github.com/okian/scoutlab/internal/domain/dataset"
	"github.com/okian/scoutlab/internal/domain/forest"
	"github.com/okian/scoutlab/internal/domain/trainer"
	"github.com/okian/scoutlab/pkg/logger"
)

var version = "dev"

type args struct {
	Data    string  `arg:"-d,--data,required" help:"training dataset (.csv or .xlsx)"`
	Target  string  `arg:"-t,--target,required" help:"target column"`
	Problem string  `arg:"-p,--problem" default:"classification" help:"classification or regression"`
	Predict string  `arg:"--predict" help:"dataset to predict with the fitted model"`
	Out     string  `arg:"-o,--out" help:"CSV file for predictions (default: stdout)"`
	Trees   int     `arg:"--trees" default:"100" help:"number of trees"`
	Seed    int64   `arg:"--seed" default:"42" help:"random seed"`
	Holdout float64 `arg:"--holdout" help:"fraction of rows scored on a model fitted without them"`
	Workers int     `arg:"--workers" default:"4" help:"trees grown concurrently"`
	Quiet   bool    `arg:"-q,--quiet" help:"hide the progress bar"`
}

func (args) Version() string {
	return "scoutlab-train " + version
}

func (args) Description() string {
	return "Fit a random forest on a tabular dataset and report its metrics."
}

// report is what gets printed once training finishes.
type report struct {
	Target   string           `json:"target"`
	Problem  string           `json:"problem_type"`
	Rows     int              `json:"rows"`
	Features []string         `json:"features"`
	Classes  []string         `json:"classes,omitempty"`
	Metrics  trainer.Metrics  `json:"metrics"`
	Holdout  *trainer.Metrics `json:"holdout,omitempty"`
	Took     string           `json:"took"`
}

func main() {
	var a args
	arg.MustParse(&a)

	if err := logger.Init(logger.WithOutput(os.Stderr)); err != nil {
		fmt.Fprintln(os.Stderr, "failed to initialize logging:", err)
		os.Exit(1)
	}
	if err := run(context.Background(), a, os.Stdout, os.Stderr); err != nil {
		logger.Get().Error(context.Background(), "training failed", logger.Error(err))
		os.Exit(1)
	}
}

// run trains on a.Data, writes the report to stdout and predictions to
// a.Out (or stdout after the report).
func run(ctx context.Context, a args, stdout, stderr io.Writer) error {
	log := logger.Get().Named("train")

	problem, err := trainer.ParseProblemType(a.Problem)
	if err != nil {
		return err
	}
	table, err := readTable(a.Data)
	if err != nil {
		return err
	}
	prepared, err := trainer.Prepare(table, a.Target, problem)
	if err != nil {
		return err
	}
	log.Info(ctx, "dataset loaded",
		logger.String("data", a.Data),
		logger.Int("rows", prepared.Rows()),
		logger.Int("features", len(prepared.Schema.Features)))

	trees := a.Trees
	if trees <= 0 {
		trees = forest.DefaultTrees
	}
	opts := []trainer.Option{
		trainer.WithTrees(trees),
		trainer.WithSeed(a.Seed),
		trainer.WithWorkers(a.Workers),
		trainer.WithHoldout(a.Holdout),
	}
	var bar *pb.ProgressBar
	if !a.Quiet {
		bar = pb.New(trees).SetWriter(stderr).Start()
		opts = append(opts, trainer.WithProgress(func(done, _ int) {
			bar.SetCurrent(int64(done))
		}))
	}

	start := time.Now()
	result, err := trainer.Train(prepared, opts...)
	if bar != nil {
		bar.Finish()
	}
	if err != nil {
		return err
	}

	rep := report{
		Target:   a.Target,
		Problem:  problem.String(),
		Rows:     result.Rows(),
		Features: result.Schema().FeatureNames(),
		Metrics:  result.Metrics,
		Holdout:  result.Holdout,
		Took:     time.Since(start).Round(time.Millisecond).String(),
	}
	if labels := result.Schema().Labels; labels != nil {
		rep.Classes = labels.Classes()
	}
	out, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	if _, err := fmt.Fprintln(stdout, string(out)); err != nil {
		return err
	}

	if a.Predict == "" {
		return nil
	}
	return predict(ctx, result, a.Predict, a.Out, stdout)
}

func predict(ctx context.Context, result *trainer.Run, path, outPath string, stdout io.Writer) error {
	table, err := readTable(path)
	if err != nil {
		return err
	}
	predicted, err := result.Predict(table)
	if err != nil {
		return err
	}

	if outPath == "" {
		err = dataset.WriteCSV(stdout, predicted)
	} else {
		err = writeFile(outPath, predicted)
	}
	if err != nil {
		return fmt.Errorf("write predictions: %w", err)
	}
	logger.Get().Named("train").Info(ctx, "predictions written",
		logger.String("data", path), logger.Int("rows", predicted.Len()))
	return nil
}

// writeFile writes the table as CSV to path; a failed close is a failed write.
func writeFile(path string, t *dataset.Table) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := dataset.WriteCSV(f, t); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}

func readTable(path string) (*dataset.Table, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return dataset.ReadFile(path, content)
}
