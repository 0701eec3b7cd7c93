package repository

import "errors"

// Sentinel kinds for player data source errors.
var (
	ErrUnavailable = errors.New("player database unavailable")
)
