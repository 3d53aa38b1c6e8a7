package main

import (
	"Sparkle/internal/admin"
	"Sparkle/internal/alert"
	"Sparkle/internal/auth"
	"Sparkle/internal/cache"
	"Sparkle/internal/calc/solar"
	"Sparkle/internal/config"
	"Sparkle/internal/leads"
	"Sparkle/internal/logging"
	"Sparkle/internal/profile"
	"Sparkle/internal/repo"
	"Sparkle/internal/sheets"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var wg sync.WaitGroup

func CORS(mux *mux.Router) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		mux.ServeHTTP(w, r)
	})
}

type Deps struct {
	Cfg   config.Config
	Repo  repo.Repository
	Cache cache.Cache
	Log   *zap.Logger
}

// HandleList registers every route and returns the lead service so the caller
// can drain its background work on shutdown.
func HandleList(mux *mux.Router, d Deps) *leads.Service {
	roles := &auth.RoleService{Repo: d.Repo, Cache: d.Cache, TTL: d.Cfg.RoleCacheTTL, Log: d.Log}
	authEnv := &auth.Authenv{JWTkey: d.Cfg.TokenKey, Repo: d.Repo, Roles: roles, Log: d.Log, Insecure: d.Cfg.InsecureCookies}
	profileH := &profile.ProfileHandler{Repo: d.Repo, Log: d.Log}

	var notifier alert.Notifier = alert.NoopNotifier{Log: d.Log}
	if d.Cfg.AlertsEnabled() {
		notifier = alert.NewResendNotifier(d.Cfg.ResendAPIKey, d.Cfg.AlertFrom, d.Cfg.AlertTo, d.Log)
	}
	leadSvc := leads.NewService(d.Repo, sheets.NewClient(d.Cfg.Sheets), notifier, d.Log)
	leadsH := &leads.Handler{Service: leadSvc, Log: d.Log}
	adminH := &admin.Handler{Leads: d.Repo, Users: d.Repo, Roles: roles, Log: d.Log}
	solarH := &solar.Handler{Log: d.Log}

	limiter := auth.NewIPRateLimiter(rate.Limit(d.Cfg.RateLimit), d.Cfg.RateBurst)

	api := mux.PathPrefix("/api").Subrouter()
	api.Use(limiter.LimitMiddleware)
	api.Use(authEnv.OptionalAuth)

	api.HandleFunc("/login", authEnv.AuthHandler).Methods("POST")
	api.HandleFunc("/register", authEnv.RegisterHandler).Methods("POST")
	api.HandleFunc("/logout", authEnv.LogoutHandler).Methods("POST")
	api.HandleFunc("/user/role", authEnv.RoleHandler).Methods("GET")

	api.HandleFunc("/calculator/estimate", solarH.Calc).Methods("POST")
	api.HandleFunc("/calculator/assumptions", solarH.Assumptions).Methods("GET")
	api.HandleFunc("/calculator/report", solarH.Report).Methods("POST")

	api.HandleFunc("/leads/{kind:[a-z]+}", leadsH.Submit).Methods("POST")
	api.HandleFunc("/leads/{id:[0-9]+}/export", leadsH.ExportStatus).Methods("GET")
	api.HandleFunc("/leads/{id:[0-9]+}/export/retry", leadsH.RetryExport).Methods("POST")

	api.HandleFunc("/admin/session", adminH.Session).Methods("GET")
	api.HandleFunc("/admin/session/retry", adminH.RetrySession).Methods("POST")
	api.HandleFunc("/admin/submissions", adminH.List).Methods("GET")
	api.HandleFunc("/admin/submissions.xlsx", adminH.ExportXLSX).Methods("GET")
	api.HandleFunc("/admin/leads/{id:[0-9]+}/status", adminH.UpdateStatus).Methods("PATCH")
	api.HandleFunc("/admin/roles", adminH.GrantRole).Methods("POST")

	secureApi := api.PathPrefix("/user").Subrouter()
	secureApi.Use(authEnv.APIAuthMiddleware)

	secureApi.HandleFunc("/profile", profileH.GetProfile).Methods("GET")
	secureApi.HandleFunc("/profile", profileH.UpdateProfile).Methods("PATCH", "PUT")
	secureApi.HandleFunc("/profile/{id:[0-9]+}", profileH.GetProfile).Methods("GET")

	authFileServer := http.FileServer(http.Dir("./static/auth"))
	mux.PathPrefix("/auth/").
		Handler(authEnv.RedirectIfLoggedIn(http.StripPrefix("/auth", authFileServer)))
	adminFileServer := http.FileServer(http.Dir("./static/admin"))
	mux.PathPrefix("/admin/").
		Handler(authEnv.AuthMiddleware(http.StripPrefix("/admin", adminFileServer)))
	mainFileServer := http.FileServer(http.Dir("./static/main"))
	mux.PathPrefix("/").
		Handler(mainFileServer)

	return leadSvc
}

func openCache(ctx context.Context, cfg config.Config, log *zap.Logger) (cache.Cache, func(), error) {
	if cfg.RedisAddr == "" {
		log.Info("role cache: in-memory")
		return cache.NewMemoryCache(), func() {}, nil
	}
	rc := cache.NewRedisCache(cfg.RedisAddr)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rc.Ping(pingCtx); err != nil {
		rc.Close()
		return nil, nil, fmt.Errorf("redis %s: %w", cfg.RedisAddr, err)
	}
	log.Info("role cache: redis", zap.String("addr", cfg.RedisAddr))
	return rc, func() { rc.Close() }, nil
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()

	db, err := repo.Open(cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("open database", zap.Error(err))
	}
	defer db.Close()
	if err := repo.Migrate(db, cfg.DBDriver); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	roleCache, closeCache, err := openCache(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("role cache", zap.Error(err))
	}
	defer closeCache()

	mux := mux.NewRouter()
	leadSvc := HandleList(mux, Deps{Cfg: cfg, Repo: repo.New(db, cfg.DBDriver), Cache: roleCache, Log: logger})
	handler := CORS(mux)

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("starting server", zap.String("addr", cfg.Addr), zap.Bool("tls", cfg.TLS()), zap.String("db", string(cfg.DBDriver)))
	wg.Add(1)
	go func() {
		defer wg.Done()
		var err error
		if cfg.TLS() {
			err = server.ListenAndServeTLS(cfg.TLSCert, cfg.TLSKey)
		} else {
			err = server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", zap.Error(err))
			cancel()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received, closing active connections")

	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	wg.Wait()
	leadSvc.Wait()
	logger.Info("server stopped")
}
