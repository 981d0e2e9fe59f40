package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/nikhilbhutani/speakcoach/internal/assessment"
	"github.com/nikhilbhutani/speakcoach/internal/audio"
	"github.com/nikhilbhutani/speakcoach/internal/cache"
	"github.com/nikhilbhutani/speakcoach/internal/config"
	"github.com/nikhilbhutani/speakcoach/internal/database"
	"github.com/nikhilbhutani/speakcoach/internal/feedback"
	"github.com/nikhilbhutani/speakcoach/internal/fluency"
	"github.com/nikhilbhutani/speakcoach/internal/llm"
	"github.com/nikhilbhutani/speakcoach/internal/queue"
	"github.com/nikhilbhutani/speakcoach/internal/queue/workers"
	"github.com/nikhilbhutani/speakcoach/internal/storage"
	"github.com/nikhilbhutani/speakcoach/internal/stt"
)

const concurrency = 4

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

	db, err := database.NewPool(ctx, cfg.Database)
	if err != nil {
		slog.Error("worker needs a database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	var fbCache feedback.Cache
	if err := rdb.Ping(ctx).Err(); err != nil {
		slog.Warn("redis cache unavailable", "error", err)
	} else {
		fbCache = cache.NewCache(rdb, "speakcoach:")
	}

	transcriber, err := stt.NewProvider(cfg.STT)
	if err != nil {
		slog.Error("failed to create STT provider", "error", err)
		os.Exit(1)
	}

	worker := workers.NewAssessmentWorker(
		assessment.NewStore(db),
		storage.NewSupabaseStorage(cfg.Storage.SupabaseURL, cfg.Storage.SupabaseKey),
		audio.NewProcessor(fluency.NewAnalyzer(transcriber, cfg.STT.Language)),
		feedback.NewProcessor(llm.NewGateway(cfg.LLM), fbCache, feedback.Config{
			Model:            cfg.Feedback.Model,
			IdealAnswerModel: cfg.Feedback.IdealAnswerModel,
			CacheTTL:         cfg.Feedback.CacheTTL,
		}),
		workers.AssessmentWorkerConfig{
			Bucket:         cfg.Storage.Bucket,
			TempDir:        cfg.Server.TempDir,
			Language:       cfg.STT.Language,
			PauseThreshold: cfg.Fluency.PauseThreshold,
		},
	)

	srv := asynq.NewServer(queue.RedisOpt(cfg.Redis), asynq.Config{
		Concurrency: concurrency,
		Logger:      queue.NewLogger(logger),
	})

	registry := queue.NewHandlersRegistry()
	registry.Register(queue.TypeAssessmentAnalyze, worker)

	slog.Info("starting worker", "concurrency", concurrency, "stt_backend", transcriber.Name())
	if err := srv.Run(registry.Mux()); err != nil {
		slog.Error("worker error", "error", err)
		os.Exit(1)
	}
}
