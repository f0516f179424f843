package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/patternbot/internal/config"
	dbRedis "github.com/kailas-cloud/patternbot/internal/db/redis"
	"github.com/kailas-cloud/patternbot/internal/domain"
	logpkg "github.com/kailas-cloud/patternbot/internal/logger"
	"github.com/kailas-cloud/patternbot/internal/metrics"
	"github.com/kailas-cloud/patternbot/internal/repository/patterncache"
	chiTransport "github.com/kailas-cloud/patternbot/internal/transport/chi"
	"github.com/kailas-cloud/patternbot/internal/transport/upstream"
	"github.com/kailas-cloud/patternbot/internal/version"
	healthuc "github.com/kailas-cloud/patternbot/internal/usecase/health"
	interactionuc "github.com/kailas-cloud/patternbot/internal/usecase/interaction"
	patternuc "github.com/kailas-cloud/patternbot/internal/usecase/pattern"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	if err := cfg.ValidateServer(); err != nil {
		logger.Fatal("Invalid server config", zap.Error(err))
	}
	publicKey, err := chiTransport.ParsePublicKey(cfg.Discord.PublicKey)
	if err != nil {
		logger.Fatal("Invalid public key", zap.Error(err))
	}

	logger.Info("Starting patternbot interactions server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("source_url", cfg.Patterns.SourceURL),
		zap.String("cache_driver", cfg.Cache.Driver),
	)

	// Register service metrics explicitly (no init())
	metrics.RegisterServiceMetrics()

	fetcher := upstream.NewFetcher(&upstream.Config{
		SourceURL: cfg.Patterns.SourceURL,
		Timeout:   time.Duration(cfg.Patterns.FetchTimeoutSec) * time.Second,
		UserAgent: cfg.Discord.UserAgent,
		Logger:    logger,
	})

	// Pass nil interface (not typed nil pointer!) when the cache is off.
	var cachePinger healthuc.CachePinger
	var patternFetcher domain.PatternFetcher = fetcher

	if cfg.Cache.Enabled() {
		store, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Cache.Addrs,
			Username: cfg.Cache.Username,
			Password: cfg.Cache.Password,
			DB:       cfg.Cache.DB,
		})
		if err != nil {
			logger.Fatal("Failed to create cache store", zap.Error(err))
		}
		defer store.Close()

		ctx := context.Background()
		if err := store.WaitForReady(ctx, time.Duration(cfg.Cache.ReadinessTimeout)*time.Second); err != nil {
			logger.Fatal("Cache store not ready", zap.Error(err))
		}
		logger.Info("Connected to cache store", zap.Strings("addrs", cfg.Cache.Addrs))
		cachePinger = store

		cached, err := patterncache.New(
			fetcher, store, fetcher.SourceURL(),
			time.Duration(cfg.Patterns.CacheTTLSec)*time.Second,
			metrics.PatternCacheTotal, logger,
		)
		if err != nil {
			logger.Fatal("Failed to create pattern cache", zap.Error(err))
		}
		patternFetcher = cached
		logger.Info("Pattern cache enabled", zap.Int("ttl_sec", cfg.Patterns.CacheTTLSec))
	}

	// Use case services
	patternSvc := patternuc.New(patternFetcher)
	interactionSvc := interactionuc.New(patternSvc)
	healthSvc := healthuc.New(cachePinger, fetcher)

	server := chiTransport.NewServer(interactionSvc, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(metrics.Middleware())
	server.Mount(r, chiTransport.SignatureMiddleware(publicKey, logger))

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.String("path", r.URL.Path),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(chiTransport.ErrorResponse{
						Code:    chiTransport.ErrorCodeInternal,
						Message: "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
