package leads

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"Sparkle/internal/repo"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

const maxBody = 64 << 10

type Handler struct {
	Service *Service
	Log     *zap.Logger
}

type retryRequest struct {
	Token string `json:"token"`
}

// Submit handles POST /api/leads/{kind}.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	kind, ok := repo.ParseKind(mux.Vars(r)["kind"])
	if !ok {
		http.Error(w, "Unknown form", http.StatusNotFound)
		return
	}

	var sub Submission
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	receipt, err := h.Service.Submit(r.Context(), kind, sub)
	var fieldErrs FieldErrors
	switch {
	case errors.As(err, &fieldErrs):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"errors": fieldErrs})
	case errors.Is(err, ErrSubmitInFlight):
		http.Error(w, "This form is already being submitted", http.StatusConflict)
	case errors.Is(err, ErrFormReused):
		http.Error(w, "This form was already used for a different submission", http.StatusConflict)
	case err != nil:
		h.logger().Error("submit lead", zap.String("kind", string(kind)), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"error": "We could not save your submission. Please try again.",
			"retry": true,
		})
	default:
		writeJSON(w, http.StatusCreated, receipt)
	}
}

// ExportStatus handles GET /api/leads/{id}/export?token=.
func (h *Handler) ExportStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := leadID(w, r)
	if !ok {
		return
	}
	state, err := h.Service.ExportStatus(r.Context(), id, r.URL.Query().Get("token"))
	if err != nil {
		h.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// RetryExport handles POST /api/leads/{id}/export/retry. The token may come in
// the body or the query string.
func (h *Handler) RetryExport(w http.ResponseWriter, r *http.Request) {
	id, ok := leadID(w, r)
	if !ok {
		return
	}
	token := r.URL.Query().Get("token")
	if token == "" && r.ContentLength != 0 {
		var req retryRequest
		r.Body = http.MaxBytesReader(w, r.Body, maxBody)
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request payload", http.StatusBadRequest)
			return
		}
		token = req.Token
	}

	state, err := h.Service.RetryExport(r.Context(), id, token)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (h *Handler) writeErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repo.ErrNotFound):
		http.Error(w, "Submission not found", http.StatusNotFound)
	case errors.Is(err, ErrBadToken):
		http.Error(w, "Forbidden", http.StatusForbidden)
	case errors.Is(err, ErrExportInFlight):
		http.Error(w, "Export already running", http.StatusConflict)
	default:
		h.logger().Error("lead export", zap.Error(err))
		http.Error(w, "DB error", http.StatusInternalServerError)
	}
}

func (h *Handler) logger() *zap.Logger {
	if h.Log == nil {
		return zap.NewNop()
	}
	return h.Log
}

func leadID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, "Invalid id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
