package loadtest

import (
	"errors"
	"fmt"
)

// Sentinel errors for load test outcomes.
var (
	ErrUnhealthy       = errors.New("service is not healthy")
	ErrUnexpected      = errors.New("unexpected response")
	ErrSessionsFailed  = errors.New("sessions failed")
	ErrLowAgreement    = errors.New("predictions disagree with the generating rule")
	ErrMissingForecast = errors.New("prediction column missing from response")
)

// APIError is an error body returned by the service.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d %s: %s", e.Status, e.Code, e.Message)
}
