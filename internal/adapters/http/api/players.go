package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"

	service "github.com/okian/scoutlab/internal/app"
	"github.com/okian/scoutlab/internal/domain/recommend"
)

// PlayerDependencies serves the player catalog.
type PlayerDependencies interface {
	Players(ctx context.Context, query string, limit int) ([]recommend.Player, error)
	Recommend(ctx context.Context, anchorID int64, k int) ([]recommend.Recommendation, error)
}

type searchQuery struct {
	Query string `validate:"max=256"`
	Limit int    `validate:"gte=0,lte=1000"`
}

type similarQuery struct {
	PlayerID int64 `validate:"gt=0"`
	K        int   `validate:"gte=1"`
}

type playerResponse struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Label string `json:"label"`
}

type similarResponse struct {
	PlayerID        int64                      `json:"player_id"`
	Recommendations []recommend.Recommendation `json:"recommendations"`
}

// PlayersHandler handles player search and similarity requests.
type PlayersHandler struct {
	deps     PlayerDependencies
	validate *validator.Validate
	defaultK int
}

// NewPlayersHandler creates a new players handler.
func NewPlayersHandler(deps PlayerDependencies, validate *validator.Validate, defaultK int) *PlayersHandler {
	return &PlayersHandler{deps: deps, validate: validate, defaultK: defaultK}
}

// HandleSearch handles GET /players?q=&limit= requests.
func (h *PlayersHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	q := searchQuery{Query: r.URL.Query().Get("q"), Limit: defaultPlayerSearchLimit}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, service.KindBadRequest, fmt.Errorf("%w: limit %q", ErrBadRequest, raw))
			return
		}
		q.Limit = n
	}
	if err := h.validate.Struct(&q); err != nil {
		writeError(w, http.StatusBadRequest, service.KindBadRequest, fmt.Errorf("%w: %w", ErrBadRequest, err))
		return
	}

	players, err := h.deps.Players(r.Context(), q.Query, q.Limit)
	if err != nil {
		writeServiceError(r, w, err)
		return
	}
	out := make([]playerResponse, 0, len(players))
	for _, p := range players {
		out = append(out, playerResponse{ID: p.ID, Name: p.Name, Label: p.Label()})
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleSimilar handles GET /players/{id}/similar?k= requests.
func (h *PlayersHandler) HandleSimilar(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, service.KindBadRequest, fmt.Errorf("%w: player id %q", ErrBadRequest, r.PathValue("id")))
		return
	}
	q := similarQuery{PlayerID: id, K: h.defaultK}
	if raw := r.URL.Query().Get("k"); raw != "" {
		k, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, service.KindBadRequest, fmt.Errorf("%w: k %q", ErrBadRequest, raw))
			return
		}
		q.K = k
	}
	if err := h.validate.Struct(&q); err != nil {
		writeError(w, http.StatusBadRequest, service.KindBadRequest, fmt.Errorf("%w: %w", ErrBadRequest, err))
		return
	}

	recs, err := h.deps.Recommend(r.Context(), q.PlayerID, q.K)
	if err != nil {
		writeServiceError(r, w, err)
		return
	}
	writeJSON(w, http.StatusOK, similarResponse{PlayerID: q.PlayerID, Recommendations: recs})
}
