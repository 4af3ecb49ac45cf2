package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/logicalerror-in/elice-dev/internal/api"
	"github.com/logicalerror-in/elice-dev/internal/auth"
	"github.com/logicalerror-in/elice-dev/internal/cache"
	"github.com/logicalerror-in/elice-dev/internal/config"
	"github.com/logicalerror-in/elice-dev/internal/db"
	apperrors "github.com/logicalerror-in/elice-dev/internal/errors"
	"github.com/logicalerror-in/elice-dev/internal/health"
	"github.com/logicalerror-in/elice-dev/internal/logger"
	"github.com/logicalerror-in/elice-dev/internal/metrics"
	"github.com/logicalerror-in/elice-dev/internal/middleware"
	"github.com/logicalerror-in/elice-dev/internal/posts"
)

const version = "0.1.0"

func main() {
	cfg := config.Load()

	logger.SetDefault(logger.New(os.Stdout, logger.ParseLevel(cfg.LogLevel), ""))
	log := logger.Default().WithComponent("main")
	ctx := context.Background()

	// Stores may still be starting up alongside us; retry before giving up.
	connectCfg := apperrors.ConnectRetryConfig()

	database, err := apperrors.RetryWithResult(ctx, connectCfg, func(ctx context.Context) (*db.DB, error) {
		return db.New(cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName)
	})
	if err != nil {
		log.Error(ctx, "failed to connect to database", err)
		os.Exit(1)
	}
	defer database.Close()

	if err := database.Migrate(); err != nil {
		log.Error(ctx, "failed to run migrations", err)
		os.Exit(1)
	}

	kv, err := apperrors.RetryWithResult(ctx, connectCfg, func(ctx context.Context) (*cache.Cache, error) {
		return cache.New(cfg.RedisAddr)
	})
	if err != nil {
		log.Error(ctx, "failed to connect to redis", err)
		os.Exit(1)
	}
	defer kv.Close()

	userRepo := db.NewUserRepository(database)
	postRepo := db.NewPostRepository(database)

	hasher := auth.NewPasswordHasher()
	codec := auth.NewTokenCodec(cfg.JWTSecret, cfg.AccessTTL, cfg.RefreshTTL)
	sessions := auth.NewSessionStore(kv)
	limiter := auth.NewLoginLimiter(kv, cfg.LoginRateLimit, cfg.LoginRateWindow, cfg.RateLimitFailOpen)

	authService := auth.NewService(userRepo, sessions, limiter, hasher, codec)
	authHandlers := auth.NewHandlers(authService, auth.CookieConfig{
		Enabled: cfg.RefreshCookieEnabled,
		Domain:  cfg.RefreshCookieDomain,
		Secure:  cfg.RefreshCookieSecure,
	})

	postService := posts.NewService(postRepo)
	postHandlers := posts.NewHandlers(postService)

	checker := health.NewChecker(&health.CheckerConfig{
		DB:      database.DB,
		Redis:   kv.Client(),
		Version: version,
	})

	appMetrics := metrics.New()

	router := api.NewRouter(authHandlers, authService, postHandlers, health.NewHandler(checker), appMetrics)

	handler := middleware.Chain(router,
		logger.RecoveryMiddleware,
		apperrors.RequestIDMiddleware,
		logger.LoggingMiddleware,
		metrics.Middleware(appMetrics),
		middleware.CORS(cfg.CORSAllowOrigins),
		middleware.Gzip,
		middleware.ETag,
	)

	server := &http.Server{
		Addr:              cfg.ServerAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info(ctx, "starting server", map[string]interface{}{"addr": cfg.ServerAddr})
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error(ctx, "server failed", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info(ctx, "shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "shutdown failed", err)
	}
}
