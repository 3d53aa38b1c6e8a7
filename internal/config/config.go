package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"Sparkle/internal/auth"
	"Sparkle/internal/repo"
	"Sparkle/internal/sheets"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const defaultAlertFrom = "Solar Sparkle <noreply@solarsparkle.in>"

type Config struct {
	Addr    string
	TLSCert string
	TLSKey  string

	DBDriver    repo.Dialect
	DatabaseURL string

	TokenKey []byte
	// InsecureCookies drops the Secure flag on the session cookie for plain-HTTP development.
	InsecureCookies bool

	RedisAddr    string
	RoleCacheTTL time.Duration

	RateLimit float64
	RateBurst int

	LogLevel string

	ResendAPIKey string
	AlertFrom    string
	AlertTo      []string

	Sheets           sheets.Config
	SheetsConfigFile string
}

func (c Config) TLS() bool { return c.TLSCert != "" }

func (c Config) AlertsEnabled() bool { return c.ResendAPIKey != "" && len(c.AlertTo) > 0 }

// Load reads .env when present, then the process environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return Parse(os.Getenv)
}

// Parse builds a Config from getenv. The notifier block from SHEETS_CONFIG_FILE,
// when that file names one, replaces the SHEETS_* variables as a whole.
func Parse(getenv func(string) string) (Config, error) {
	get := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}

	c := Config{
		Addr:             get("ADDR", ":8080"),
		TLSCert:          get("TLS_CERT", ""),
		TLSKey:           get("TLS_KEY", ""),
		DatabaseURL:      get("DATABASE_URL", ""),
		TokenKey:         []byte(get("TOKEN_KEY", "")),
		RedisAddr:        get("REDIS_ADDR", ""),
		LogLevel:         get("LOG_LEVEL", "info"),
		ResendAPIKey:     get("RESEND_API_KEY", ""),
		AlertFrom:        get("ALERT_FROM", defaultAlertFrom),
		SheetsConfigFile: get("SHEETS_CONFIG_FILE", ""),
		Sheets: sheets.Config{
			ConsultancyURL: get("SHEETS_CONSULTANCY_URL", ""),
			PartnerURL:     get("SHEETS_PARTNER_URL", ""),
			AMCURL:         get("SHEETS_AMC_URL", ""),
			SharedSecret:   get("SHEETS_SECRET", ""),
		},
	}
	var errs []error

	if len(c.TokenKey) == 0 {
		errs = append(errs, errors.New("TOKEN_KEY environment variable is not set"))
	}
	if (c.TLSCert == "") != (c.TLSKey == "") {
		errs = append(errs, errors.New("TLS_CERT and TLS_KEY must be set together"))
	}

	var err error
	if c.DBDriver, err = parseDialect(get("DB_DRIVER", "")); err != nil {
		errs = append(errs, err)
	}

	if c.InsecureCookies, err = strconv.ParseBool(get("INSECURE_COOKIES", "false")); err != nil {
		errs = append(errs, fmt.Errorf("INSECURE_COOKIES: %w", err))
	}
	if c.RoleCacheTTL, err = time.ParseDuration(get("ROLE_CACHE_TTL", auth.DefaultRoleTTL.String())); err != nil || c.RoleCacheTTL <= 0 {
		errs = append(errs, errors.New("ROLE_CACHE_TTL: want a positive duration"))
	}
	if c.RateLimit, err = strconv.ParseFloat(get("RATE_LIMIT", "2"), 64); err != nil || c.RateLimit <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT: want a positive number of requests per second"))
	}
	if c.RateBurst, err = strconv.Atoi(get("RATE_BURST", "6")); err != nil || c.RateBurst <= 0 {
		errs = append(errs, errors.New("RATE_BURST: want a positive integer"))
	}

	for _, to := range strings.Split(get("ALERT_TO", ""), ",") {
		if to = strings.TrimSpace(to); to != "" {
			c.AlertTo = append(c.AlertTo, to)
		}
	}

	if c.SheetsConfigFile != "" {
		if err := c.loadSheetsFile(); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return Config{}, errors.Join(errs...)
	}
	return c, nil
}

func parseDialect(s string) (repo.Dialect, error) {
	switch d := repo.Dialect(strings.ToLower(s)); d {
	case "":
		return repo.SQLite, nil
	case repo.Postgres, repo.SQLite:
		return d, nil
	default:
		return "", fmt.Errorf("DB_DRIVER %q: want postgres or sqlite", s)
	}
}

// Tools is the part of the configuration the operator CLI needs: the store
// and the role cache, without the web server's secrets.
type Tools struct {
	DBDriver    repo.Dialect
	DatabaseURL string
	RedisAddr   string
}

// LoadTools reads .env when present, then the process environment.
func LoadTools() (Tools, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Tools{}, fmt.Errorf("load .env: %w", err)
	}
	return ParseTools(os.Getenv)
}

func ParseTools(getenv func(string) string) (Tools, error) {
	d, err := parseDialect(strings.TrimSpace(getenv("DB_DRIVER")))
	if err != nil {
		return Tools{}, err
	}
	return Tools{
		DBDriver:    d,
		DatabaseURL: strings.TrimSpace(getenv("DATABASE_URL")),
		RedisAddr:   strings.TrimSpace(getenv("REDIS_ADDR")),
	}, nil
}

type fileConfig struct {
	Sheets *sheets.Config `yaml:"sheets"`
}

func (c *Config) loadSheetsFile() error {
	b, err := os.ReadFile(c.SheetsConfigFile)
	if err != nil {
		return fmt.Errorf("SHEETS_CONFIG_FILE: %w", err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(b, &fc); err != nil {
		return fmt.Errorf("SHEETS_CONFIG_FILE %s: %w", c.SheetsConfigFile, err)
	}
	if fc.Sheets != nil {
		c.Sheets = *fc.Sheets
	}
	return nil
}
