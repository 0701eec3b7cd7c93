package loadtest

import (
	"fmt"
	"sort"
)

// predictionColumn is the column the service appends.
const predictionColumn = "prediction"

// compare counts predictions that agree with the generating rule.
func compare(data *Dataset, pred predictionsResponse) (checked, matched int, err error) {
	col := -1
	for i, name := range pred.Header {
		if name == predictionColumn {
			col = i
		}
	}
	if col < 0 {
		return 0, 0, ErrMissingForecast
	}
	if len(pred.Rows) != len(data.Rows) {
		return 0, 0, fmt.Errorf("%w: %d predictions for %d rows", ErrUnexpected, len(pred.Rows), len(data.Rows))
	}
	for i, row := range pred.Rows {
		checked++
		if row[col] == data.Expected(i) {
			matched++
		}
	}
	return checked, matched, nil
}

// checkRecommendations verifies an answer excludes the anchor and is ranked
// by descending score.
func checkRecommendations(anchor int64, recs similarResponse) error {
	for _, r := range recs.Recommendations {
		if r.PlayerID == anchor {
			return fmt.Errorf("%w: anchor %d recommended to itself", ErrUnexpected, anchor)
		}
	}
	sorted := sort.SliceIsSorted(recs.Recommendations, func(i, j int) bool {
		return recs.Recommendations[i].Score > recs.Recommendations[j].Score
	})
	if !sorted {
		return fmt.Errorf("%w: recommendations for %d not ranked by score", ErrUnexpected, anchor)
	}
	return nil
}

// verify turns the statistics into a pass or fail.
func verify(cfg Config, stats *Stats) error {
	if stats.SessionsFailed > 0 {
		return fmt.Errorf("%w: %d of %d", ErrSessionsFailed, stats.SessionsFailed, cfg.Sessions)
	}
	if got := stats.Agreement(); got < cfg.MinAccuracy {
		return fmt.Errorf("%w: %.3f below %.3f", ErrLowAgreement, got, cfg.MinAccuracy)
	}
	if stats.SimilarFailed > 0 {
		return fmt.Errorf("%w: %d similar-player requests failed", ErrUnexpected, stats.SimilarFailed)
	}
	return nil
}
