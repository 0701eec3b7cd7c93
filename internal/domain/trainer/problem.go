package trainer

import (
	"fmt"
	"strings"
)

// ProblemType fixes which estimator a run fits.
type ProblemType int

const (
	// Classification predicts a discrete target.
	Classification ProblemType = iota + 1
	// Regression predicts a continuous target.
	Regression
)

func (p ProblemType) String() string {
	switch p {
	case Classification:
		return "classification"
	case Regression:
		return "regression"
	default:
		return "unknown"
	}
}

// ParseProblemType accepts the English names and the dashboard's Indonesian
// labels, case-insensitively.
func ParseProblemType(s string) (ProblemType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "classification", "klasifikasi":
		return Classification, nil
	case "regression", "regresi":
		return Regression, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownProblemType, s)
	}
}
