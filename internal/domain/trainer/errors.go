package trainer

import "errors"

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrUnknownProblemType = errors.New("unknown problem type")
	ErrTargetNotNumeric   = errors.New("regression target is not numeric")
	ErrTargetEmpty        = errors.New("target column has no observed values")
	ErrNoFeatures         = errors.New("dataset has no feature columns")
	ErrInvalidHoldout     = errors.New("holdout fraction must be in [0, 1)")
	ErrHoldoutTooSmall    = errors.New("dataset too small for the requested holdout")
)
