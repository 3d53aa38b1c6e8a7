package admin

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"Sparkle/internal/auth"
	"Sparkle/internal/gate"
	"Sparkle/internal/repo"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type Handler struct {
	Leads repo.LeadStore
	Users repo.UserStore
	Roles *auth.RoleService
	Log   *zap.Logger
}

// Submissions is every stored lead grouped by kind, newest first.
type Submissions struct {
	Consultancy []repo.Lead       `json:"consultancy"`
	Partner     []repo.Lead       `json:"partner"`
	AMC         []repo.Lead       `json:"amc"`
	Counts      map[repo.Kind]int `json:"counts"`
}

type allLeads struct {
	store repo.LeadStore
}

func (a allLeads) Fetch(ctx context.Context) (Submissions, error) {
	s := Submissions{Counts: make(map[repo.Kind]int, len(repo.Kinds))}
	for _, k := range repo.Kinds {
		list, err := a.store.ListLeads(ctx, k)
		if err != nil {
			return Submissions{}, err
		}
		switch k {
		case repo.KindConsultancy:
			s.Consultancy = list
		case repo.KindPartner:
			s.Partner = list
		case repo.KindAMC:
			s.AMC = list
		}
		s.Counts[k] = len(list)
	}
	return s, nil
}

type statusRequest struct {
	Status string `json:"status"`
}

type roleRequest struct {
	UserID int       `json:"user_id"`
	Role   repo.Role `json:"role"`
}

func (h *Handler) logger() *zap.Logger {
	if h.Log == nil {
		return zap.NewNop()
	}
	return h.Log
}

// machine runs the access gate for the caller of r.
func (h *Handler) machine(r *http.Request) *gate.Machine {
	ctx := r.Context()
	m := gate.New(h.Roles, func(principal int) { h.Roles.Forget(ctx, principal) })
	if id, ok := auth.UserID(ctx); ok {
		m.Login(id)
		if _, err := m.Resolve(ctx); err != nil {
			h.logger().Warn("role query", zap.Int("user_id", id), zap.Error(err))
		}
	}
	return m
}

func statusFor(s gate.State) int {
	switch s {
	case gate.Admin:
		return http.StatusOK
	case gate.NonAdmin:
		return http.StatusForbidden
	case gate.RoleError:
		return http.StatusServiceUnavailable
	}
	return http.StatusUnauthorized
}

// require writes the gate's view and reports false unless the caller is an admin.
func (h *Handler) require(w http.ResponseWriter, r *http.Request) (*gate.Machine, bool) {
	m := h.machine(r)
	v := m.View()
	if v.State != gate.Admin {
		writeJSON(w, statusFor(v.State), v)
		return nil, false
	}
	return m, true
}

// Session reports where the caller stands with the gate. It always answers 200
// so the dashboard can render every state.
func (h *Handler) Session(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.machine(r).View())
}

// RetrySession re-runs a failed role query once and reports the new view.
func (h *Handler) RetrySession(w http.ResponseWriter, r *http.Request) {
	m := h.machine(r)
	if m.View().State == gate.RoleError {
		if _, err := m.Retry(r.Context()); err != nil {
			h.logger().Warn("role query retry", zap.Error(err))
		}
	}
	writeJSON(w, http.StatusOK, m.View())
}

func (h *Handler) fetch(w http.ResponseWriter, r *http.Request) (Submissions, bool) {
	m, ok := h.require(w, r)
	if !ok {
		return Submissions{}, false
	}
	subs, err := gate.Fetch[Submissions](r.Context(), m, allLeads{h.Leads})
	if err != nil {
		h.logger().Error("list submissions", zap.Error(err))
		http.Error(w, "DB error", http.StatusInternalServerError)
		return Submissions{}, false
	}
	return subs, true
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	subs, ok := h.fetch(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, subs)
}

func (h *Handler) ExportXLSX(w http.ResponseWriter, r *http.Request) {
	subs, ok := h.fetch(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+workbookName()+`"`)
	if err := WriteWorkbook(w, subs); err != nil {
		h.logger().Error("write workbook", zap.Error(err))
	}
}

func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.require(w, r); !ok {
		return
	}
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, "Invalid id", http.StatusBadRequest)
		return
	}
	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	status, ok := repo.NormalizeStatus(req.Status)
	if !ok {
		http.Error(w, "Invalid status", http.StatusBadRequest)
		return
	}

	if err := h.Leads.UpdateLeadStatus(r.Context(), id, status); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			http.Error(w, "Submission not found", http.StatusNotFound)
			return
		}
		h.logger().Error("update lead status", zap.Int64("lead_id", id), zap.Error(err))
		http.Error(w, "DB error", http.StatusInternalServerError)
		return
	}
	h.logger().Info("lead status changed", zap.Int64("lead_id", id), zap.String("status", status))
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) GrantRole(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.require(w, r); !ok {
		return
	}
	var req roleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	if req.Role != repo.RoleAdmin && req.Role != repo.RoleUser {
		http.Error(w, "Role must be admin or user", http.StatusBadRequest)
		return
	}
	if _, err := h.Users.GetProfileByID(r.Context(), req.UserID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			http.Error(w, "User not found", http.StatusNotFound)
			return
		}
		h.logger().Error("grant role lookup", zap.Error(err))
		http.Error(w, "DB error", http.StatusInternalServerError)
		return
	}
	if err := h.Roles.Grant(r.Context(), req.UserID, req.Role); err != nil {
		h.logger().Error("grant role", zap.Int("user_id", req.UserID), zap.Error(err))
		http.Error(w, "DB error", http.StatusInternalServerError)
		return
	}
	by, _ := auth.UserID(r.Context())
	h.logger().Info("role granted", zap.Int("user_id", req.UserID), zap.String("role", string(req.Role)), zap.Int("by", by))
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
