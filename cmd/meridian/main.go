package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/meridian-fin/meridian/internal/analysis"
	analysishttp "github.com/meridian-fin/meridian/internal/analysis/http"
	"github.com/meridian-fin/meridian/internal/app"
	"github.com/meridian-fin/meridian/internal/catalog"
	cataloghttp "github.com/meridian-fin/meridian/internal/catalog/http"
	"github.com/meridian-fin/meridian/internal/platform/cache"
	"github.com/meridian-fin/meridian/internal/platform/db"
	"github.com/meridian-fin/meridian/internal/projections"
	projectionshttp "github.com/meridian-fin/meridian/internal/projections/http"
	"github.com/meridian-fin/meridian/internal/ratios"
	ratioshttp "github.com/meridian-fin/meridian/internal/ratios/http"
	"github.com/meridian-fin/meridian/internal/statements"
	"github.com/meridian-fin/meridian/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	analysisCache := cache.New(redisClient, cfg.AnalysisCacheTTL)
	if err := analysisCache.ListenForInvalidation(ctx, ""); err != nil {
		logger.Warn("cache invalidation listener", slog.Any("error", err))
	}

	catalogRepo := catalog.NewRepository(pool)
	statementRepo := statements.NewRepository(pool)
	validator := statements.NewValidator(statementRepo)

	catalogHandler := cataloghttp.NewHandler(logger, catalogRepo)

	ratioService := ratios.NewService(ratios.NewRepository(pool), validator, analysisCache, logger)
	ratiosHandler := ratioshttp.NewHandler(logger, ratioService)

	analysisService := analysis.NewService(catalogRepo, statementRepo, validator, analysisCache, logger)
	analysisHandler := analysishttp.NewHandler(logger, analysisService)

	projectionRepo := projections.NewRepository(pool)
	projectionService := projections.NewService(projectionRepo, logger)
	projectionsHandler := projectionshttp.NewHandler(logger, projectionService, projectionRepo)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobsHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		CatalogHandler:     catalogHandler,
		RatiosHandler:      ratiosHandler,
		AnalysisHandler:    analysisHandler,
		ProjectionsHandler: projectionsHandler,
		JobsHandler:        jobsHandler,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
