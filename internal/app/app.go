package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hoangdanh165/devplanner/internal/config"
	"github.com/hoangdanh165/devplanner/internal/database"
	"github.com/hoangdanh165/devplanner/internal/event"
	"github.com/hoangdanh165/devplanner/internal/generator"
	"github.com/hoangdanh165/devplanner/internal/handler"
	"github.com/hoangdanh165/devplanner/internal/metrics"
	"github.com/hoangdanh165/devplanner/internal/middleware"
	"github.com/hoangdanh165/devplanner/internal/oauth"
	"github.com/hoangdanh165/devplanner/internal/repository"
	"github.com/hoangdanh165/devplanner/internal/router"
	"github.com/hoangdanh165/devplanner/internal/service"
	"github.com/hoangdanh165/devplanner/internal/websocket"
)

type App struct {
	server       *http.Server
	db           *database.DB
	cleanupFuncs []func()
}

func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	slog.Info("connecting to PostgreSQL")
	db, err := database.New(context.Background(), cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.EnsureSchema(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure database schema: %w", err)
	}

	pool := db.Pool
	userRepo := repository.NewUserRepository(pool)
	tokenRepo := repository.NewTokenRepository(pool)
	planRepo := repository.NewPlanRepository(pool)
	slog.Info("database ready")

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	authService, err := service.NewAuthService(cfg.JWTSecret, cfg.JWTAccessTTL, cfg.JWTRefreshTTL, userRepo, tokenRepo)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize auth service: %w", err)
	}
	authMiddleware := middleware.NewAuthMiddleware(authService)

	googleProvider := oauth.NewGoogleProvider(oauth.GoogleConfig{ClientID: cfg.GoogleClientID})
	githubProvider := oauth.NewGitHubProvider(oauth.GitHubConfig{
		ClientID:     cfg.GitHubClientID,
		ClientSecret: cfg.GitHubClientSecret,
	})

	authHandler := handler.NewAuthHandler(authService, googleProvider, githubProvider,
		cfg.RefreshCookieName, cfg.RefreshCookieSecure, collector)

	bus := event.NewBus()
	hub := websocket.NewHub(bus, collector)
	go hub.Run()

	planService := service.NewPlanService(planRepo, generator.NewTemplateGenerator(), bus, collector)
	planHandler := handler.NewPlanHandler(planService)
	userHandler := handler.NewUserHandler(authService)

	appRouter := router.New(cfg, authMiddleware, router.Handlers{
		Auth: authHandler,
		Plan: planHandler,
		User: userHandler,
	}, hub, registry)

	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	go expiredTokenSweeper(cleanupCtx, tokenRepo)

	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           appRouter,
		ReadHeaderTimeout: cfg.ServerReadHeaderTimeout,
		WriteTimeout:      cfg.ServerWriteTimeout,
		IdleTimeout:       cfg.ServerIdleTimeout,
	}

	return &App{
		server: server,
		db:     db,
		cleanupFuncs: []func(){
			cleanupCancel,
			db.Close,
		},
	}, nil
}

func (a *App) Run() error {
	go func() {
		slog.Info("server starting", "addr", a.server.Addr)
		if serveErr := a.server.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			slog.Error("server failed", "error", serveErr)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	for _, cleanup := range a.cleanupFuncs {
		cleanup()
	}

	slog.Info("server stopped")
	return nil
}

// expiredTokenSweeper clears expired refresh tokens hourly so the table does
// not grow unbounded.
func expiredTokenSweeper(ctx context.Context, tokens *repository.TokenRepository) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := tokens.CleanExpired(ctx)
			if err != nil {
				slog.Warn("expired token sweep failed", "error", err)
				continue
			}
			if removed > 0 {
				slog.Info("expired refresh tokens removed", "count", removed)
			}
		}
	}
}
