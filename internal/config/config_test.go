package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"Sparkle/internal/repo"
	"Sparkle/internal/sheets"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestParseDefaults(t *testing.T) {
	c, err := Parse(env(map[string]string{"TOKEN_KEY": "secret"}))
	require.NoError(t, err)

	assert.Equal(t, ":8080", c.Addr)
	assert.Equal(t, repo.SQLite, c.DBDriver)
	assert.Equal(t, 5*time.Minute, c.RoleCacheTTL)
	assert.Equal(t, 2.0, c.RateLimit)
	assert.Equal(t, 6, c.RateBurst)
	assert.Equal(t, "info", c.LogLevel)
	assert.False(t, c.TLS())
	assert.False(t, c.AlertsEnabled())
	assert.False(t, c.InsecureCookies)
	assert.Equal(t, sheets.Config{}, c.Sheets)
}

func TestParseFromEnv(t *testing.T) {
	c, err := Parse(env(map[string]string{
		"TOKEN_KEY":              "secret",
		"ADDR":                   ":443",
		"TLS_CERT":               "server.crt",
		"TLS_KEY":                "server.key",
		"DB_DRIVER":              "Postgres",
		"DATABASE_URL":           "postgres://u:p@db/sparkle",
		"ROLE_CACHE_TTL":         "90s",
		"RESEND_API_KEY":         "re_123",
		"ALERT_TO":               "sales@solarsparkle.in, ops@solarsparkle.in ,",
		"SHEETS_CONSULTANCY_URL": "https://script.example/c",
		"SHEETS_SECRET":          "s3cret",
	}))
	require.NoError(t, err)

	assert.True(t, c.TLS())
	assert.Equal(t, repo.Postgres, c.DBDriver)
	assert.Equal(t, 90*time.Second, c.RoleCacheTTL)
	assert.Equal(t, []string{"sales@solarsparkle.in", "ops@solarsparkle.in"}, c.AlertTo)
	assert.True(t, c.AlertsEnabled())
	assert.Equal(t, "https://script.example/c", c.Sheets.ConsultancyURL)
	assert.Equal(t, "s3cret", c.Sheets.SharedSecret)
}

func TestParseCollectsErrors(t *testing.T) {
	_, err := Parse(env(map[string]string{
		"TLS_CERT":       "server.crt",
		"DB_DRIVER":      "mysql",
		"ROLE_CACHE_TTL": "soon",
		"RATE_BURST":     "0",
	}))
	require.Error(t, err)
	for _, want := range []string{"TOKEN_KEY", "TLS_CERT", "DB_DRIVER", "ROLE_CACHE_TTL", "RATE_BURST"} {
		assert.ErrorContains(t, err, want)
	}
}

func TestSheetsFileTakesPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sheets.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
sheets:
  partner_url: https://script.example/p
  shared_secret: from-file
`), 0o600))

	c, err := Parse(env(map[string]string{
		"TOKEN_KEY":              "secret",
		"SHEETS_CONFIG_FILE":     path,
		"SHEETS_CONSULTANCY_URL": "https://script.example/c",
		"SHEETS_SECRET":          "from-env",
	}))
	require.NoError(t, err)
	assert.Equal(t, sheets.Config{PartnerURL: "https://script.example/p", SharedSecret: "from-file"}, c.Sheets)
}

func TestSheetsFileWithoutBlockKeepsEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.yaml")
	require.NoError(t, os.WriteFile(path, []byte("other: true\n"), 0o600))

	c, err := Parse(env(map[string]string{
		"TOKEN_KEY":          "secret",
		"SHEETS_CONFIG_FILE": path,
		"SHEETS_AMC_URL":     "https://script.example/a",
	}))
	require.NoError(t, err)
	assert.Equal(t, "https://script.example/a", c.Sheets.AMCURL)
}

func TestSheetsFileMissing(t *testing.T) {
	_, err := Parse(env(map[string]string{
		"TOKEN_KEY":          "secret",
		"SHEETS_CONFIG_FILE": filepath.Join(t.TempDir(), "nope.yaml"),
	}))
	assert.ErrorContains(t, err, "SHEETS_CONFIG_FILE")
}

func TestParseTools(t *testing.T) {
	tc, err := ParseTools(env(map[string]string{}))
	require.NoError(t, err)
	assert.Equal(t, repo.SQLite, tc.DBDriver)
	assert.Empty(t, tc.RedisAddr)

	tc, err = ParseTools(env(map[string]string{
		"DB_DRIVER":    "Postgres",
		"DATABASE_URL": " postgres://db/sparkle ",
		"REDIS_ADDR":   "localhost:6379",
	}))
	require.NoError(t, err)
	assert.Equal(t, repo.Postgres, tc.DBDriver)
	assert.Equal(t, "postgres://db/sparkle", tc.DatabaseURL)
	assert.Equal(t, "localhost:6379", tc.RedisAddr)

	_, err = ParseTools(env(map[string]string{"DB_DRIVER": "mysql", "TOKEN_KEY": ""}))
	assert.ErrorContains(t, err, "DB_DRIVER")
}
