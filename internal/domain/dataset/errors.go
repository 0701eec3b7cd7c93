package dataset

import (
	"errors"
	"fmt"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrEmptyDataset      = errors.New("dataset has no rows")
	ErrMalformed         = errors.New("malformed dataset")
	ErrMissingColumn     = errors.New("missing column")
	ErrNotNumeric        = errors.New("value is not numeric")
)

// ColumnError reports a failure tied to a single named column.
type ColumnError struct {
	Column string
	Err    error
}

func (e *ColumnError) Error() string {
	return fmt.Sprintf("column %q: %v", e.Column, e.Err)
}

func (e *ColumnError) Unwrap() error { return e.Err }

// MissingColumn builds the error returned when a required column is absent.
func MissingColumn(name string) error {
	return &ColumnError{Column: name, Err: ErrMissingColumn}
}
