package forest

import "errors"

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrEmptyTrainingSet = errors.New("training set is empty")
	ErrShapeMismatch    = errors.New("feature matrix and target differ in length")
	ErrRaggedMatrix     = errors.New("feature rows differ in width")
	ErrNonFinite        = errors.New("training data contains NaN or Inf")
)
