package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/joho/godotenv"

	"github.com/genes8/docuguard/internal/api"
	"github.com/genes8/docuguard/internal/audit"
	"github.com/genes8/docuguard/internal/bootstrap"
	"github.com/genes8/docuguard/internal/cache"
	"github.com/genes8/docuguard/internal/config"
	"github.com/genes8/docuguard/internal/credentials"
	"github.com/genes8/docuguard/internal/gate"
	"github.com/genes8/docuguard/internal/notify"
	"github.com/genes8/docuguard/internal/oidcclient"
	"github.com/genes8/docuguard/internal/ratelimit"
	"github.com/genes8/docuguard/internal/rbac"
	"github.com/genes8/docuguard/internal/search"
	"github.com/genes8/docuguard/internal/storage"
	"github.com/genes8/docuguard/internal/tokens"
	"github.com/genes8/docuguard/pkg/logger"
)

func main() {
	// Dev/local .env files; in production we rely on system env vars, so
	// a missing file here is never fatal.
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic("config: " + err.Error())
	}

	log := logger.Setup(cfg.Environment)
	log.Info("application_startup", "env", cfg.Environment)

	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			TracesSampleRate: 1.0,
			Environment:      cfg.Environment,
		}); err != nil {
			log.Error("sentry_init_failed", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
			log.Info("sentry_initialized")
		}
	} else {
		log.Warn("sentry_dsn_missing", "details", "skipping_init")
	}

	ctx := context.Background()

	pool, err := storage.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("database_connect_failed", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	log.Info("database_connected")

	cacheClient, err := cache.New(ctx, cache.Options{URL: cfg.RedisURL})
	if err != nil {
		log.Error("cache_connect_failed", "error", err)
		os.Exit(1)
	}
	defer cacheClient.Close()
	log.Info("cache_connected")

	store := storage.New(pool)
	hasher := credentials.NewHasher(credentials.DefaultCost)
	tokenProvider := tokens.NewProvider([]byte(cfg.JWTSecret), cfg.JWTAccessTokenExpireMin, cfg.JWTRefreshTokenExpireDay, "docuguard")
	refreshStore := tokens.NewRefreshStore(cacheClient)
	resetService := credentials.NewResetService(cacheClient)
	limiter := ratelimit.New(cacheClient)
	evaluator := rbac.New(pool, store, cacheClient)
	searchEngine := search.New(pool)
	authGate := gate.New(tokenProvider, pool, store, evaluator, log)
	mailer := &notify.DevMailer{Logger: log}
	auditWriter := audit.New(store)

	var oidcClient *oidcclient.Client
	if cfg.OIDCEnabled {
		oidcClient, err = oidcclient.New(ctx, cacheClient, cfg.OIDCIssuerURL, cfg.OIDCClientID, cfg.OIDCClientSecret, cfg.OIDCRedirectURI)
		if err != nil {
			log.Error("oidc_init_failed", "error", err)
			os.Exit(1)
		}
		log.Info("oidc_initialized", "issuer", cfg.OIDCIssuerURL)
	}

	if err := bootstrap.Run(ctx, store, hasher, bootstrap.Options{
		SuperAdminEmail:    cfg.SuperAdminEmail,
		SuperAdminPassword: cfg.SuperAdminPassword,
	}, log); err != nil {
		log.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	log.Info("bootstrap_complete")

	server := &api.Server{
		Pool:         pool,
		Store:        store,
		Cache:        cacheClient,
		Hasher:       hasher,
		Tokens:       tokenProvider,
		RefreshStore: refreshStore,
		Reset:        resetService,
		Limiter:      limiter,
		RBAC:         evaluator,
		Gate:         authGate,
		Search:       searchEngine,
		OIDC:         oidcClient,
		Mailer:       mailer,
		Audit:        auditWriter,
		Logger:       log,
		Config:       cfg,
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      server.NewRouter(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Info("server_listening", "port", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		log.Error("server_startup_failed", "error", err)
		os.Exit(1)

	case sig := <-shutdown:
		log.Info("shutdown_signal_received", "signal", sig)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful_shutdown_failed", "error", err)
			_ = srv.Close()
		}
		pool.Close()
		log.Info("server_shutdown_complete")
	}
}
