// cmd/server/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"car-price-predictor/internal/artifact"
	"car-price-predictor/internal/cache"
	"car-price-predictor/internal/common/config"
	"car-price-predictor/internal/common/database"
	"car-price-predictor/internal/common/logger"
	"car-price-predictor/internal/common/observability"
	"car-price-predictor/internal/history"
	"car-price-predictor/internal/insights"
	"car-price-predictor/internal/predictor"
	"car-price-predictor/internal/server"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting car price predictor...")

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Load the model artifact ---
	// The artifact must load and validate before the server accepts a
	// single request. Any failure here is fatal.
	model, err := artifact.Load(cfg.Artifact.Path)
	if err != nil {
		zapLog.Fatal("model artifact failed to load", zap.String("path", cfg.Artifact.Path), zap.Error(err))
	}
	zapLog.Info("Model artifact loaded",
		zap.String("path", cfg.Artifact.Path),
		zap.Int("columns", model.Dimensions()),
		zap.Strings("numericFeatures", model.NumericFeatures()),
		zap.Strings("categoricalFeatures", model.CategoricalFeatures()),
	)

	svc, err := predictor.NewService(model, log)
	if err != nil {
		zapLog.Fatal("predictor initialization failed", zap.Error(err))
	}

	analyzer := insights.NewAnalyzer(cfg.Market.AveragePrice, cfg.Market.ComparisonBand)

	var checks []server.ReadinessCheck

	// --- Init PostgreSQL with retry (optional) ---
	var recorder *history.Recorder
	if cfg.History.Enabled {
		var pg *database.PostgresClient
		err = retryWithBackoff(func() error {
			var err error
			pg, err = database.NewPostgres(cfg.Database.Postgres)
			if err != nil {
				return err
			}
			return pg.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "PostgreSQL connection")

		if err != nil {
			zapLog.Fatal("postgres failed after retries", zap.Error(err))
		}
		defer pg.Close()
		zapLog.Info("PostgreSQL connected successfully")

		recorder = history.NewRecorder(pg.DB, log)
		checks = append(checks, server.ReadinessCheck{Name: "postgres", Check: pg.Ping})
	}

	// --- Init Redis with retry (optional) ---
	var predictionCache *cache.PredictionCache
	if cfg.Cache.Enabled {
		var rd *database.RedisClient
		err = retryWithBackoff(func() error {
			var err error
			rd, err = database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return err
			}
			return rd.Ping(ctx)
		}, 10, 2*time.Second, zapLog, "Redis connection")

		if err != nil {
			zapLog.Fatal("redis failed after retries", zap.Error(err))
		}
		defer rd.Close()
		zapLog.Info("Redis connected successfully")

		predictionCache = cache.New(rd.Client, config.GetDuration(cfg.Cache.TTL), log)
		checks = append(checks, server.ReadinessCheck{Name: "redis", Check: rd.Ping})
	}

	handler := server.NewHandler(svc, analyzer, predictionCache, recorder, cfg.History.Recent, obs, log)
	srv := server.New(cfg.Server, handler, checks, log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		zapLog.Info("Shutdown signal received", zap.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			zapLog.Fatal("http server failed", zap.Error(err))
		}
		return
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout))
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("graceful shutdown failed", zap.Error(err))
	}
	zapLog.Info("Server stopped")
}
