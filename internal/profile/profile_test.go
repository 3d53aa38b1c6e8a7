package profile

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"Sparkle/internal/auth"
	"Sparkle/internal/repo"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*ProfileHandler, int) {
	t.Helper()
	db, err := repo.Open(repo.SQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, repo.Migrate(db, repo.SQLite))
	r := repo.New(db, repo.SQLite)

	id, err := r.CreateUser(context.Background(), "asha", "asha@example.com", "hash")
	require.NoError(t, err)
	_, err = r.AssignInitialRole(context.Background(), id)
	require.NoError(t, err)
	return &ProfileHandler{Repo: r}, id
}

func TestOwnProfile(t *testing.T) {
	h, id := setup(t)

	rr := httptest.NewRecorder()
	h.GetProfile(rr, httptest.NewRequest(http.MethodGet, "/api/profile", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
	req = req.WithContext(auth.WithIdentity(req.Context(), id, "asha"))
	rr = httptest.NewRecorder()
	h.GetProfile(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var p repo.Profile
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&p))
	assert.Equal(t, "asha@example.com", p.Email)
	assert.Equal(t, repo.RoleAdmin, p.Role)
}

func TestProfileByIDHidesEmail(t *testing.T) {
	h, id := setup(t)
	router := mux.NewRouter()
	router.HandleFunc("/api/profile/{id}", h.GetProfile)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/profile/1", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.NotContains(t, rr.Body.String(), "asha@example.com")
	assert.Contains(t, rr.Body.String(), `"login":"asha"`)
	assert.Equal(t, 1, id)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/profile/77", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/profile/abc", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestUpdateProfile(t *testing.T) {
	h, id := setup(t)

	req := httptest.NewRequest(http.MethodPut, "/api/profile",
		strings.NewReader(`{"login":" asha.k ","description":"Rooftop owner in Pune"}`))
	req = req.WithContext(auth.WithIdentity(req.Context(), id, "asha"))
	rr := httptest.NewRecorder()
	h.UpdateProfile(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var p repo.Profile
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&p))
	assert.Equal(t, "asha.k", p.Login)
	assert.Equal(t, "Rooftop owner in Pune", p.Description)

	req = httptest.NewRequest(http.MethodPut, "/api/profile",
		strings.NewReader(`{"description":"`+strings.Repeat("x", maxDescription+1)+`"}`))
	req = req.WithContext(auth.WithIdentity(req.Context(), id, "asha"))
	rr = httptest.NewRecorder()
	h.UpdateProfile(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
