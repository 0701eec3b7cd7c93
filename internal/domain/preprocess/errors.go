package preprocess

import "errors"

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrUnseenCategory = errors.New("category not seen during training")
	ErrUnknownCode    = errors.New("code has no learned category")
	ErrNotFitted      = errors.New("transformer used before fit")
)
