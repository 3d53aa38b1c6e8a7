package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/http/cookiejar"
	"strings"
	"testing"

	"Sparkle/internal/cache"
	"Sparkle/internal/config"
	"Sparkle/internal/repo"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	db, err := repo.Open(repo.SQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, repo.Migrate(db, repo.SQLite))

	cfg, err := config.Parse(func(k string) string {
		return map[string]string{
			"TOKEN_KEY":        "test-key",
			"INSECURE_COOKIES": "true",
			"RATE_LIMIT":       "1000",
			"RATE_BURST":       "1000",
		}[k]
	})
	require.NoError(t, err)

	router := mux.NewRouter()
	svc := HandleList(router, Deps{Cfg: cfg, Repo: repo.New(db, repo.SQLite), Cache: cache.NewMemoryCache(), Log: zap.NewNop()})
	srv := httptest.NewServer(CORS(router))
	t.Cleanup(func() {
		srv.Close()
		svc.Wait()
	})
	return srv
}

func newClient(t *testing.T) *http.Client {
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{Jar: jar}
}

func post(t *testing.T, c *http.Client, url, body string) *http.Response {
	t.Helper()
	res, err := c.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { res.Body.Close() })
	return res
}

func get(t *testing.T, c *http.Client, url string) *http.Response {
	t.Helper()
	res, err := c.Get(url)
	require.NoError(t, err)
	t.Cleanup(func() { res.Body.Close() })
	return res
}

func TestServerEndToEnd(t *testing.T) {
	srv := newTestServer(t)
	owner, visitor := newClient(t), newClient(t)

	res := post(t, owner, srv.URL+"/api/calculator/estimate", `{"monthly_bill":5000,"property_type":"residential"}`)
	require.Equal(t, http.StatusOK, res.StatusCode)
	var est map[string]any
	require.NoError(t, json.NewDecoder(res.Body).Decode(&est))
	assert.Equal(t, 5.7, est["ideal_system_size"])

	res = post(t, visitor, srv.URL+"/api/leads/consultancy",
		`{"name":"Asha","phone_number":"9876543210","email":"asha@example.com","location":"Pune","requirement_message":"3 kW"}`)
	require.Equal(t, http.StatusCreated, res.StatusCode)

	assert.Equal(t, http.StatusUnauthorized, get(t, owner, srv.URL+"/api/admin/submissions").StatusCode)

	require.Equal(t, http.StatusCreated,
		post(t, owner, srv.URL+"/api/register", `{"login":"owner","password":"sunshine","email":"o@example.com"}`).StatusCode)
	require.Equal(t, http.StatusCreated,
		post(t, visitor, srv.URL+"/api/register", `{"login":"visitor","password":"sunshine","email":"v@example.com"}`).StatusCode)

	assert.Equal(t, http.StatusForbidden, get(t, visitor, srv.URL+"/api/admin/submissions").StatusCode)

	res = get(t, owner, srv.URL+"/api/admin/submissions")
	require.Equal(t, http.StatusOK, res.StatusCode)
	var subs struct {
		Consultancy []repo.Lead `json:"consultancy"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&subs))
	require.Len(t, subs.Consultancy, 1)
	assert.Equal(t, "Asha", subs.Consultancy[0].Name)

	res = get(t, owner, srv.URL+"/api/user/profile")
	require.Equal(t, http.StatusOK, res.StatusCode)

	require.Equal(t, http.StatusNoContent, post(t, owner, srv.URL+"/api/logout", "").StatusCode)
	assert.Equal(t, http.StatusUnauthorized, get(t, owner, srv.URL+"/api/user/profile").StatusCode)
}

func TestCORSPreflight(t *testing.T) {
	srv := newTestServer(t)
	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/api/leads/amc", nil)
	require.NoError(t, err)
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusNoContent, res.StatusCode)
	assert.Contains(t, res.Header.Get("Access-Control-Allow-Methods"), "PATCH")
}
