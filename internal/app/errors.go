package service

import (
	"errors"

	"github.com/okian/scoutlab/internal/adapters/repository"
	"github.com/okian/scoutlab/internal/domain/dataset"
	"github.com/okian/scoutlab/internal/domain/forest"
	"github.com/okian/scoutlab/internal/domain/preprocess"
	"github.com/okian/scoutlab/internal/domain/recommend"
	"github.com/okian/scoutlab/internal/domain/trainer"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrNotStarted      = errors.New("service not started")
	ErrSessionNotFound = errors.New("session not found")
	ErrNoModel         = errors.New("no trained model in this session")
)

// Error kinds reported to users and used as metric labels.
const (
	KindInputFormat = "input_format"
	KindSchema      = "schema"
	KindNotFound    = "not_found"
	KindBadRequest  = "bad_request"
	KindConflict    = "conflict"
	KindDataSource  = "data_source"
	KindInternal    = "internal"
)

// ErrorKind sorts an operation error into the taxonomy callers act on:
// unsupported input, schema mismatch, unknown resource, bad parameters,
// missing prerequisite, unreachable data source, or anything else.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, dataset.ErrUnsupportedFormat):
		return KindInputFormat
	case errors.Is(err, dataset.ErrMissingColumn),
		errors.Is(err, dataset.ErrNotNumeric),
		errors.Is(err, preprocess.ErrUnseenCategory),
		errors.Is(err, trainer.ErrTargetNotNumeric),
		errors.Is(err, trainer.ErrTargetEmpty),
		errors.Is(err, trainer.ErrNoFeatures),
		errors.Is(err, forest.ErrNonFinite):
		return KindSchema
	case errors.Is(err, ErrSessionNotFound),
		errors.Is(err, recommend.ErrPlayerNotFound):
		return KindNotFound
	case errors.Is(err, dataset.ErrEmptyDataset),
		errors.Is(err, dataset.ErrMalformed),
		errors.Is(err, trainer.ErrUnknownProblemType),
		errors.Is(err, trainer.ErrInvalidHoldout),
		errors.Is(err, trainer.ErrHoldoutTooSmall),
		errors.Is(err, recommend.ErrInvalidK):
		return KindBadRequest
	case errors.Is(err, ErrNoModel):
		return KindConflict
	case errors.Is(err, repository.ErrUnavailable),
		errors.Is(err, recommend.ErrEmptyCatalog),
		errors.Is(err, ErrNotStarted):
		return KindDataSource
	default:
		return KindInternal
	}
}
