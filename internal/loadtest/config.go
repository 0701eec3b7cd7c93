package loadtest

import "time"

// Default configuration constants.
const (
	defaultBaseURL     = "http://localhost:9080"
	defaultSessions    = 20
	defaultRows        = 400
	defaultWorkers     = 4
	defaultTimeout     = 2 * time.Minute
	defaultMinAccuracy = 0.9
	percentMultiplier  = 100
)

// Config holds configuration for a load test run.
type Config struct {
	BaseURL        string        // Base URL of the service
	Sessions       int           // Sessions to open, each training and predicting once
	Rows           int           // Rows in the generated dataset
	Workers        int           // Concurrent sessions
	Timeout        time.Duration // HTTP request timeout
	Holdout        float64       // Holdout fraction sent with every train request
	MinAccuracy    float64       // Required share of predictions matching the generating rule
	SimilarPlayers int           // Players whose neighbours are fetched; 0 skips the recommender
	OutputFile     string        // Where the generated dataset is saved; empty skips saving
	Seed           int64         // Dataset generator seed
	Verbose        bool          // Log every session
}

func (c Config) withDefaults() Config {
	if c.BaseURL == "" {
		c.BaseURL = defaultBaseURL
	}
	if c.Sessions <= 0 {
		c.Sessions = defaultSessions
	}
	if c.Rows <= 0 {
		c.Rows = defaultRows
	}
	if c.Workers <= 0 {
		c.Workers = defaultWorkers
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.MinAccuracy <= 0 {
		c.MinAccuracy = defaultMinAccuracy
	}
	return c
}

// Stats holds load test statistics.
type Stats struct {
	SessionsCompleted  int
	SessionsFailed     int
	MemoHits           int
	PredictionsChecked int
	PredictionsMatched int
	SimilarRequests    int
	SimilarFailed      int
	SimilarSkipped     bool
	StartTime          time.Time
	EndTime            time.Time
	Duration           time.Duration
}

// Agreement is the share of checked predictions that matched the rule.
func (s *Stats) Agreement() float64 {
	if s.PredictionsChecked == 0 {
		return 0
	}
	return float64(s.PredictionsMatched) / float64(s.PredictionsChecked)
}
