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

	"github.com/redis/go-redis/v9"

	"go-auth-service/internal/config"
	"go-auth-service/internal/database"
	"go-auth-service/internal/event"
	"go-auth-service/internal/handler"
	"go-auth-service/internal/middleware"
	"go-auth-service/internal/model"
	"go-auth-service/internal/repository"
	"go-auth-service/internal/router"
	"go-auth-service/internal/service"
	"go-auth-service/internal/token"
)

// userDirectory is what both the postgres and the file-backed user
// repositories provide.
type userDirectory interface {
	FindByUsername(ctx context.Context, username string) (model.User, error)
	FindByUsernameOrEmail(ctx context.Context, login string) (model.User, error)
}

type App struct {
	server       *http.Server
	cleanupFuncs []func()
}

func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	var cleanups []func()
	fail := func(err error) (*App, error) {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
		return nil, err
	}

	var db *database.DB
	if cfg.DatabaseURL != "" {
		slog.Info("connecting to PostgreSQL")
		db, err = database.New(context.Background(), cfg.DatabaseURL, int32(cfg.DBMaxConns), int32(cfg.DBMinConns))
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		cleanups = append(cleanups, db.Close)

		if err := db.EnsureSchema(context.Background()); err != nil {
			return fail(fmt.Errorf("failed to ensure database schema: %w", err))
		}
		slog.Info("database ready")
	}

	var users userDirectory
	var auditSink service.AuditSink
	if db != nil {
		userRepo := repository.NewUserRepository(db.Pool)
		if err := userRepo.SeedDefaultAdmin(context.Background()); err != nil {
			return fail(fmt.Errorf("failed to seed default admin: %w", err))
		}
		users = userRepo
		auditSink = repository.NewAuditRepository(db.Pool)
	} else {
		fileRepo, err := repository.NewFileUserRepository(cfg.UsersFile)
		if err != nil {
			return fail(fmt.Errorf("failed to open users file: %w", err))
		}
		users = fileRepo

		fileLog, err := repository.NewFileAuditLog(cfg.AuditFile)
		if err != nil {
			return fail(fmt.Errorf("failed to open audit log: %w", err))
		}
		auditSink = fileLog
	}

	var tokenStore service.TokenStore
	switch cfg.TokenStore {
	case config.TokenStorePostgres:
		tokenStore = repository.NewTokenRepository(db.Pool)
	case config.TokenStoreRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		if err := client.Ping(context.Background()).Err(); err != nil {
			return fail(fmt.Errorf("failed to connect to redis: %w", err))
		}
		cleanups = append(cleanups, func() { _ = client.Close() })
		tokenStore = repository.NewRedisTokenStore(client)
	default:
		tokenStore = repository.NewMemoryTokenStore()
	}
	slog.Info("refresh token store ready", "backend", cfg.TokenStore)

	codec := token.NewCodec(cfg.JWTSecret)
	issuer := token.NewIssuer(codec, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	verifier := token.NewVerifier(codec, users, tokenStore)

	authService, err := service.NewAuthService(users)
	if err != nil {
		return fail(fmt.Errorf("failed to initialize auth service: %w", err))
	}
	tokenService := service.NewTokenService(issuer, tokenStore)
	refreshService := service.NewRefreshService(verifier, issuer, tokenStore, cfg.RotateRefreshTokens)

	bus := event.NewBus()
	auditService := service.NewAuditService(auditSink, bus)
	if cfg.AuditEnabled {
		auditService.Start()
		cleanups = append(cleanups, auditService.Stop)
	}

	janitorCtx, janitorCancel := context.WithCancel(context.Background())
	go runTokenJanitor(janitorCtx, tokenStore, cfg.TokenCleanInterval)
	cleanups = append(cleanups, janitorCancel)

	authMiddleware := middleware.NewAuthMiddleware(verifier)
	authHandler := handler.NewAuthHandler(authService, tokenService, refreshService, bus)
	auditHandler := handler.NewAuditHandler(auditService)
	healthHandler := handler.NewHealthHandler(cfg)
	docsHandler := handler.NewDocsHandler("./docs/openapi.yaml")

	appRouter := router.New(cfg, authMiddleware, authHandler, auditHandler, healthHandler, docsHandler)

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      appRouter,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  cfg.ServerIdleTimeout,
	}

	return &App{
		server:       server,
		cleanupFuncs: cleanups,
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

	// Cleanups run LIFO so stores outlive their consumers.
	for i := len(a.cleanupFuncs) - 1; i >= 0; i-- {
		a.cleanupFuncs[i]()
	}

	slog.Info("server stopped")
	return nil
}

// runTokenJanitor periodically sweeps expired refresh tokens out of the
// store. Redis expires keys itself, so its sweep is a no-op.
func runTokenJanitor(ctx context.Context, store service.TokenStore, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := store.CleanExpired(ctx)
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
