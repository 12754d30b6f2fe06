package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/flashdeckhq/flashdeck/internal/auth"
	"github.com/flashdeckhq/flashdeck/internal/cache"
	"github.com/flashdeckhq/flashdeck/internal/config"
	"github.com/flashdeckhq/flashdeck/internal/database"
	"github.com/flashdeckhq/flashdeck/internal/deck"
	"github.com/flashdeckhq/flashdeck/internal/queue"
	"github.com/flashdeckhq/flashdeck/internal/queue/workers"
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

	db, err := database.NewPool(context.Background(), cfg.Database)
	if err != nil {
		slog.Error("database unavailable", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}

	// Recount rewrites card_count, so the worker must drop the same cache
	// entries the API serves from.
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	store := auth.NewPostgresStore(db)
	tokenSvc := auth.NewTokenService(store, auth.TokenConfig{
		TokenLength:      cfg.Auth.TokenLength,
		MaxTokensPerUser: cfg.Auth.MaxTokensPerUser,
	})
	deckSvc := deck.NewService(db, cache.New(rdb, cfg.Cache.TTL))

	registry := queue.NewHandlersRegistry()
	registry.Register(queue.TypeTokenCleanup, asynq.HandlerFunc(workers.NewTokenWorker(tokenSvc).ProcessTask))
	registry.Register(queue.TypeDeckRecount, asynq.HandlerFunc(workers.NewDeckWorker(deckSvc).ProcessTask))

	scheduler := asynq.NewScheduler(redisOpt, nil)
	if _, err := scheduler.Register("@hourly", asynq.NewTask(queue.TypeTokenCleanup, nil)); err != nil {
		slog.Error("failed to schedule token cleanup", "error", err)
		os.Exit(1)
	}
	go func() {
		if err := scheduler.Run(); err != nil {
			slog.Error("scheduler error", "error", err)
			os.Exit(1)
		}
	}()

	srv := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: 10,
		Queues: map[string]int{
			"default": 1,
		},
	})

	slog.Info("starting worker", "concurrency", 10)
	if err := srv.Run(registry.Mux()); err != nil {
		slog.Error("worker error", "error", err)
		os.Exit(1)
	}
}
