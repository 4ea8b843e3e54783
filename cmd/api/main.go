package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	httptransport "github.com/spec-kit/problem-tracker/internal/api/http"
	"github.com/spec-kit/problem-tracker/internal/api/http/handlers"
	"github.com/spec-kit/problem-tracker/internal/auth"
	"github.com/spec-kit/problem-tracker/internal/cache"
	"github.com/spec-kit/problem-tracker/internal/config"
	"github.com/spec-kit/problem-tracker/internal/events"
	"github.com/spec-kit/problem-tracker/internal/observability"
	"github.com/spec-kit/problem-tracker/internal/persistence"
	"github.com/spec-kit/problem-tracker/internal/repository"
	"github.com/spec-kit/problem-tracker/internal/repository/memory"
	"github.com/spec-kit/problem-tracker/internal/service"
	"github.com/spec-kit/problem-tracker/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	checks := map[string]handlers.Checker{"redis": redis.Ping}

	var (
		userRepo    repository.UserRepository
		problemRepo repository.ProblemRepository
	)
	if pool := pg.PoolHandle(); pool != nil {
		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pool, cfg.Postgres.MigrationsDir, logger); err != nil {
				logger.Fatal("failed to run migrations", zap.Error(err))
			}
		}
		userRepo = repository.NewUserRepository(pool)
		problemRepo = repository.NewProblemRepository(pool)
		checks["postgres"] = pg.Ping
	} else {
		if !cfg.App.IsDevelopment() {
			logger.Fatal("POSTGRES_DSN is required outside development")
		}
		logger.Warn("using in-memory storage; data is lost on restart")
		userRepo = memory.NewUserStore()
		problemRepo = memory.NewProblemStore()
	}

	tokens, err := auth.NewTokenManager([]byte(cfg.Auth.JWTSecret), cfg.Auth.TokenTTL)
	if err != nil {
		logger.Fatal("failed to init token manager", zap.Error(err))
	}

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()
	statsCache := cache.NewStatsCache(redis.Client, cfg.Cache.StatsTTL)

	worker.StartActivityWorker(service.NewActivityService(dispatcher, statsCache, logger))

	authService := service.NewAuthService(service.AuthDependencies{
		UserRepo:   userRepo,
		Hasher:     auth.NewBcryptHasher(),
		Tokens:     tokens,
		Dispatcher: dispatcher,
		Metrics:    metrics,
		Logger:     logger,
	})
	problemService := service.NewProblemService(service.ProblemDependencies{
		ProblemRepo: problemRepo,
		Dispatcher:  dispatcher,
		Logger:      logger,
	})
	adminService := service.NewAdminService(service.AdminDependencies{
		UserRepo:    userRepo,
		ProblemRepo: problemRepo,
		StatsCache:  statsCache,
		Logger:      logger,
	})

	app := httptransport.NewApp(cfg.App.Name, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, checks),
		Auth:           handlers.NewAuthHandler(authService, cfg.Auth.AdminSignupEnabled),
		Problems:       handlers.NewProblemsHandler(problemService),
		Admin:          handlers.NewAdminHandler(adminService, problemService),
		AuthMiddleware: auth.NewAuthMiddleware(tokens, metrics),
		AdminSignup:    cfg.Auth.AdminSignupEnabled,
	})

	go func() {
		logger.Info("listening", zap.String("addr", cfg.App.Addr()))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
