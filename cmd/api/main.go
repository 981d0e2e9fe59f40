package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/nikhilbhutani/speakcoach/internal/api"
	"github.com/nikhilbhutani/speakcoach/internal/assessment"
	"github.com/nikhilbhutani/speakcoach/internal/audio"
	"github.com/nikhilbhutani/speakcoach/internal/cache"
	"github.com/nikhilbhutani/speakcoach/internal/config"
	"github.com/nikhilbhutani/speakcoach/internal/database"
	"github.com/nikhilbhutani/speakcoach/internal/feedback"
	"github.com/nikhilbhutani/speakcoach/internal/fluency"
	"github.com/nikhilbhutani/speakcoach/internal/llm"
	"github.com/nikhilbhutani/speakcoach/internal/queue"
	"github.com/nikhilbhutani/speakcoach/internal/storage"
	"github.com/nikhilbhutani/speakcoach/internal/stt"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	// Database is optional; without it /api/v1 is not served.
	var db *pgxpool.Pool
	if pool, err := database.NewPool(ctx, cfg.Database); err != nil {
		slog.Warn("database unavailable, assessments disabled", "error", err)
	} else {
		db = pool
		defer db.Close()
		if err := database.RunMigrations(ctx, db, cfg.Database.MigrationsPath); err != nil {
			slog.Error("migrations failed", "error", err)
			os.Exit(1)
		}
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	var fbCache feedback.Cache
	if err := rdb.Ping(ctx).Err(); err != nil {
		slog.Warn("redis unavailable, running without cache", "error", err)
	} else {
		fbCache = cache.NewCache(rdb, "speakcoach:")
	}

	transcriber, err := stt.NewProvider(cfg.STT)
	if err != nil {
		slog.Error("failed to create STT provider", "error", err)
		os.Exit(1)
	}

	services := api.Services{
		DB:    db,
		Redis: rdb,
		Audio: audio.NewProcessor(fluency.NewAnalyzer(transcriber, cfg.STT.Language)),
		Feedback: feedback.NewProcessor(llm.NewGateway(cfg.LLM), fbCache, feedback.Config{
			Model:            cfg.Feedback.Model,
			IdealAnswerModel: cfg.Feedback.IdealAnswerModel,
			CacheTTL:         cfg.Feedback.CacheTTL,
		}),
	}

	if db != nil && cfg.Storage.SupabaseURL != "" {
		qc := queue.NewClient(cfg.Redis)
		defer qc.Close()
		services.Assessments = assessment.NewService(
			assessment.NewStore(db),
			storage.NewSupabaseStorage(cfg.Storage.SupabaseURL, cfg.Storage.SupabaseKey),
			cfg.Storage.Bucket,
			qc,
		)
	}

	router := api.NewRouter(cfg, services)
	defer router.Close()

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router.Setup(),
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("starting API server", "addr", cfg.Addr(), "stt_backend", transcriber.Name(), "assessments", services.Assessments != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced shutdown", "error", err)
	}
	slog.Info("server stopped")
}
