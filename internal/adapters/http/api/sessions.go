package api

import (
	"context"
	"net/http"

	service "github.com/okian/scoutlab/internal/app"
)

// SessionDependencies opens and closes analysis sessions.
type SessionDependencies interface {
	CreateSession(ctx context.Context) (service.SessionInfo, error)
	EndSession(ctx context.Context, id string) error
}

// SessionsHandler handles session lifecycle requests.
type SessionsHandler struct {
	deps SessionDependencies
}

// NewSessionsHandler creates a new sessions handler.
func NewSessionsHandler(deps SessionDependencies) *SessionsHandler {
	return &SessionsHandler{deps: deps}
}

// HandleCreate handles POST /sessions requests.
func (h *SessionsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	info, err := h.deps.CreateSession(r.Context())
	if err != nil {
		writeServiceError(r, w, err)
		return
	}
	writeJSON(w, http.StatusCreated, info)
}

// HandleEnd handles DELETE /sessions/{id} requests.
func (h *SessionsHandler) HandleEnd(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.EndSession(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(r, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
