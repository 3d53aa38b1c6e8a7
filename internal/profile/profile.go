package profile

import (
	"Sparkle/internal/auth"
	"Sparkle/internal/repo"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

const maxDescription = 2000

type ProfileHandler struct {
	Repo repo.UserStore
	Log  *zap.Logger
}

type UpdateProfileRequest struct {
	Login       string `json:"login"`
	Description string `json:"description"`
}

// publicProfile is what other callers may see of an account.
type publicProfile struct {
	ID          int       `json:"id"`
	Login       string    `json:"login"`
	Description string    `json:"description"`
	Role        repo.Role `json:"role"`
}

func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if idStr, ok := vars["id"]; ok && idStr != "" {
		targetID, err := strconv.Atoi(idStr)
		if err != nil {
			http.Error(w, "Invalid id", http.StatusBadRequest)
			return
		}
		prof, err := h.Repo.GetProfileByID(r.Context(), targetID)
		if err != nil {
			h.notFound(w, err)
			return
		}
		writeJSON(w, publicProfile{ID: prof.ID, Login: prof.Login, Description: prof.Description, Role: prof.Role})
		return
	}

	userID, ok := auth.UserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	prof, err := h.Repo.GetProfileByID(r.Context(), userID)
	if err != nil {
		h.notFound(w, err)
		return
	}
	writeJSON(w, prof)
}

func (h *ProfileHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	req.Login = strings.TrimSpace(req.Login)
	if len(req.Description) > maxDescription {
		http.Error(w, "Description too long", http.StatusBadRequest)
		return
	}

	prof, err := h.Repo.UpdateProfile(r.Context(), userID, req.Login, req.Description)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			http.Error(w, "Profile not found", http.StatusNotFound)
			return
		}
		if h.Log != nil {
			h.Log.Error("update profile", zap.Int("user_id", userID), zap.Error(err))
		}
		http.Error(w, "DB error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, prof)
}

func (h *ProfileHandler) notFound(w http.ResponseWriter, err error) {
	if !errors.Is(err, repo.ErrNotFound) && h.Log != nil {
		h.Log.Error("get profile", zap.Error(err))
	}
	http.Error(w, "Profile not found", http.StatusNotFound)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
