package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"

	service "github.com/okian/scoutlab/internal/app"
	"github.com/okian/scoutlab/internal/domain/dataset"
	"github.com/okian/scoutlab/internal/domain/trainer"
)

// TrainerDependencies runs the tabular workflow inside a session.
type TrainerDependencies interface {
	Inspect(ctx context.Context, id string, up service.Upload) (*service.Inspection, error)
	Train(ctx context.Context, id string, up service.Upload, req service.TrainRequest) (*service.TrainResult, error)
	Predict(ctx context.Context, id string, up service.Upload) (*dataset.Table, error)
}

// trainForm mirrors the multipart fields of POST /sessions/{id}/train.
type trainForm struct {
	Target  string  `validate:"required,max=256"`
	Problem string  `validate:"required"`
	Holdout float64 `validate:"gte=0,lt=1"`
}

// predictionsResponse is the JSON form of a predicted table.
type predictionsResponse struct {
	Header []string   `json:"header"`
	Rows   [][]string `json:"rows"`
}

// TrainerHandler handles inspect, train and predict uploads.
type TrainerHandler struct {
	deps           TrainerDependencies
	validate       *validator.Validate
	maxUploadBytes int64
}

// NewTrainerHandler creates a new trainer handler.
func NewTrainerHandler(deps TrainerDependencies, validate *validator.Validate, maxUploadBytes int64) *TrainerHandler {
	return &TrainerHandler{deps: deps, validate: validate, maxUploadBytes: maxUploadBytes}
}

// HandleInspect handles POST /sessions/{id}/inspect requests.
func (h *TrainerHandler) HandleInspect(w http.ResponseWriter, r *http.Request) {
	up, ok := h.upload(w, r)
	if !ok {
		return
	}
	ins, err := h.deps.Inspect(r.Context(), r.PathValue("id"), up)
	if err != nil {
		writeServiceError(r, w, err)
		return
	}
	writeJSON(w, http.StatusOK, ins)
}

// HandleTrain handles POST /sessions/{id}/train requests.
func (h *TrainerHandler) HandleTrain(w http.ResponseWriter, r *http.Request) {
	up, ok := h.upload(w, r)
	if !ok {
		return
	}
	form := trainForm{
		Target:  r.FormValue("target"),
		Problem: r.FormValue("problem_type"),
	}
	if raw := r.FormValue("holdout"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, service.KindBadRequest, fmt.Errorf("%w: holdout %q", ErrBadRequest, raw))
			return
		}
		form.Holdout = v
	}
	if err := h.validate.Struct(&form); err != nil {
		writeError(w, http.StatusBadRequest, service.KindBadRequest, fmt.Errorf("%w: %w", ErrBadRequest, err))
		return
	}
	problem, err := trainer.ParseProblemType(form.Problem)
	if err != nil {
		writeServiceError(r, w, err)
		return
	}

	res, err := h.deps.Train(r.Context(), r.PathValue("id"), up, service.TrainRequest{
		Target:  form.Target,
		Problem: problem,
		Holdout: form.Holdout,
	})
	if err != nil {
		writeServiceError(r, w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandlePredict handles POST /sessions/{id}/predict requests. The predicted
// table is returned as CSV unless format=json is asked for.
func (h *TrainerHandler) HandlePredict(w http.ResponseWriter, r *http.Request) {
	up, ok := h.upload(w, r)
	if !ok {
		return
	}
	out, err := h.deps.Predict(r.Context(), r.PathValue("id"), up)
	if err != nil {
		writeServiceError(r, w, err)
		return
	}
	if r.URL.Query().Get("format") == "json" {
		header, rows := out.Records()
		writeJSON(w, http.StatusOK, predictionsResponse{Header: header, Rows: rows})
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="predictions.csv"`)
	w.WriteHeader(http.StatusOK)
	_ = dataset.WriteCSV(w, out)
}

// upload reads the multipart "file" field. On failure the error response is
// already written.
func (h *TrainerHandler) upload(w http.ResponseWriter, r *http.Request) (service.Upload, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		writeUploadError(w, err)
		return service.Upload{}, false
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, service.KindBadRequest, fmt.Errorf("%w: %w", ErrMissingFile, err))
		return service.Upload{}, false
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		writeUploadError(w, err)
		return service.Upload{}, false
	}
	return service.Upload{Filename: header.Filename, Content: content}, true
}

func writeUploadError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, "payload_too_large",
			fmt.Errorf("%w: limit is %d bytes", ErrPayloadTooLarge, tooLarge.Limit))
		return
	}
	writeError(w, http.StatusBadRequest, service.KindBadRequest, fmt.Errorf("%w: %w", ErrBadRequest, err))
}
