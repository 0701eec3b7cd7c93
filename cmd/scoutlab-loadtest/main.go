// Command scoutlab-loadtest drives a running service through concurrent
// train/predict sessions and similar-player lookups and verifies the answers.
package main

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/alexflint/go-arg"

	"github.com/okian/scoutlab/internal/loadtest"
	"github.com/okian/scoutlab/pkg/logger"
)

// Default configuration constants.
const (
	defaultWorkers     = 2 // multiplier for runtime.NumCPU()
	defaultTestTimeout = 10 * time.Minute
)

type args struct {
	URL         string        `arg:"--url" default:"http://localhost:9080" help:"base URL of the service"`
	Sessions    int           `arg:"--sessions" default:"20" help:"sessions to run, each training twice and predicting once"`
	Rows        int           `arg:"--rows" default:"400" help:"rows in the generated dataset"`
	Workers     int           `arg:"--workers" help:"concurrent sessions (default CPU cores * 2)"`
	Timeout     time.Duration `arg:"--timeout" default:"2m" help:"HTTP request timeout"`
	Holdout     float64       `arg:"--holdout" help:"holdout fraction sent with each train request"`
	MinAccuracy float64       `arg:"--min-accuracy" default:"0.9" help:"required agreement with the generating rule"`
	Similar     int           `arg:"--similar" default:"10" help:"players whose neighbours are fetched (0 skips)"`
	Output      string        `arg:"--output" help:"save the generated dataset to this CSV file"`
	Seed        int64         `arg:"--seed" default:"1" help:"dataset generator seed"`
	Verbose     bool          `arg:"-v,--verbose" help:"log every session"`
}

func (args) Description() string {
	return "Scoutlab load test: concurrent sessions against a running service."
}

func main() {
	var a args
	arg.MustParse(&a)
	if a.Workers <= 0 {
		a.Workers = runtime.NumCPU() * defaultWorkers
	}

	if err := logger.Init(logger.WithOutput(os.Stderr)); err != nil {
		fmt.Fprintln(os.Stderr, "failed to initialize logging:", err)
		os.Exit(1)
	}

	// Create context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), defaultTestTimeout)
	defer cancel()

	_, err := loadtest.Run(ctx, loadtest.Config{
		BaseURL:        a.URL,
		Sessions:       a.Sessions,
		Rows:           a.Rows,
		Workers:        a.Workers,
		Timeout:        a.Timeout,
		Holdout:        a.Holdout,
		MinAccuracy:    a.MinAccuracy,
		SimilarPlayers: a.Similar,
		OutputFile:     a.Output,
		Seed:           a.Seed,
		Verbose:        a.Verbose,
	}, os.Stderr)
	if err != nil {
		logger.Get().Error(ctx, "load test failed", logger.Error(err))
		cancel()
		os.Exit(1) //nolint:gocritic // cancel already called
	}
}
