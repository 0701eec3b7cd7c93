package recommend

import "errors"

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrPlayerNotFound = errors.New("player not found")
	ErrInvalidK       = errors.New("number of recommendations must be at least 1")
	ErrEmptyCatalog   = errors.New("no player has an attribute snapshot")
)
