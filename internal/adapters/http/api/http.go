// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	service "github.com/okian/scoutlab/internal/app"
	"github.com/okian/scoutlab/pkg/logger"
)

// Default request limits.
const (
	defaultMaxUploadBytes          = 32 << 20
	defaultRecommendations         = 5
	defaultPlayerSearchLimit       = 20
	multipartMemory          int64 = 8 << 20
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	SessionDependencies
	TrainerDependencies
	PlayerDependencies
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
	sessionsHandler *SessionsHandler
	trainerHandler  *TrainerHandler
	playersHandler  *PlayersHandler
}

// Option configures request limits of the Server.
type Option func(*options)

type options struct {
	maxUploadBytes         int64
	defaultRecommendations int
}

// WithMaxUploadBytes caps the size of an uploaded request body.
func WithMaxUploadBytes(n int64) Option {
	return func(o *options) {
		if n > 0 {
			o.maxUploadBytes = n
		}
	}
}

// WithDefaultRecommendations sets k when a similar-players request omits it.
func WithDefaultRecommendations(k int) Option {
	return func(o *options) {
		if k > 0 {
			o.defaultRecommendations = k
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	o := options{
		maxUploadBytes:         defaultMaxUploadBytes,
		defaultRecommendations: defaultRecommendations,
	}
	for _, opt := range opts {
		opt(&o)
	}
	validate := validator.New()
	return &Server{
		healthHandler:   NewHealthHandler(),
		statsHandler:    NewStatsHandler(statsProvider),
		sessionsHandler: NewSessionsHandler(deps),
		trainerHandler:  NewTrainerHandler(deps, validate, o.maxUploadBytes),
		playersHandler:  NewPlayersHandler(deps, validate, o.defaultRecommendations),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	mux.HandleFunc("POST /sessions", MetricsMiddleware(s.sessionsHandler.HandleCreate, "sessions"))
	mux.HandleFunc("DELETE /sessions/{id}", MetricsMiddleware(s.sessionsHandler.HandleEnd, "sessions"))
	mux.HandleFunc("POST /sessions/{id}/inspect", MetricsMiddleware(s.trainerHandler.HandleInspect, "inspect"))
	mux.HandleFunc("POST /sessions/{id}/train", MetricsMiddleware(s.trainerHandler.HandleTrain, "train"))
	mux.HandleFunc("POST /sessions/{id}/predict", MetricsMiddleware(s.trainerHandler.HandlePredict, "predict"))

	mux.HandleFunc("GET /players", MetricsMiddleware(s.playersHandler.HandleSearch, "players"))
	mux.HandleFunc("GET /players/{id}/similar", MetricsMiddleware(s.playersHandler.HandleSimilar, "similar"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeServiceError translates a service error into its status and code.
func writeServiceError(r *http.Request, w http.ResponseWriter, err error) {
	kind := service.ErrorKind(err)
	status := statusFor(kind)
	if status >= http.StatusInternalServerError {
		logger.Get().Named("api").Error(r.Context(), "request failed",
			logger.String("path", r.URL.Path), logger.String("kind", kind), logger.Error(err))
	}
	writeError(w, status, kind, err)
}

func statusFor(kind string) int {
	switch kind {
	case service.KindInputFormat:
		return http.StatusUnsupportedMediaType
	case service.KindSchema:
		return http.StatusUnprocessableEntity
	case service.KindNotFound:
		return http.StatusNotFound
	case service.KindBadRequest:
		return http.StatusBadRequest
	case service.KindConflict:
		return http.StatusConflict
	case service.KindDataSource:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Compile-time check that the service satisfies the handler contracts.
var _ Dependencies = (*service.Service)(nil)
