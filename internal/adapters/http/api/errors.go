package api

import "errors"

// Sentinel kinds for API errors.
var (
	ErrBadRequest      = errors.New("bad request")
	ErrMissingFile     = errors.New("missing file field")
	ErrPayloadTooLarge = errors.New("upload exceeds the size limit")
)
