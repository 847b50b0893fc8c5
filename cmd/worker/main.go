package main

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/workstreamlabs/retrieval/internal/cache"
	"github.com/workstreamlabs/retrieval/internal/config"
	"github.com/workstreamlabs/retrieval/internal/database"
	"github.com/workstreamlabs/retrieval/internal/document"
	"github.com/workstreamlabs/retrieval/internal/embedding"
	"github.com/workstreamlabs/retrieval/internal/queue/workers"
	"github.com/workstreamlabs/retrieval/internal/retrieval"
	"github.com/workstreamlabs/retrieval/internal/vectorstore"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel(cfg.LogLevel)}))
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	var db *pgxpool.Pool
	if cfg.Database.URL != "" {
		db, err = database.NewPool(ctx, cfg.Database)
		if err != nil {
			if cfg.Store.Backend == "postgres" {
				slog.Error("database unavailable", "error", err)
				os.Exit(1)
			}
			slog.Warn("database unavailable, document ingestion disabled", "error", err)
		}
	}
	if db != nil {
		defer db.Close()
	}

	rdb := cache.NewClient(cfg.Redis)
	defer rdb.Close()
	var embedCache embedding.Cache
	if err := rdb.Ping(ctx).Err(); err != nil {
		slog.Warn("redis cache unavailable, embedding cache disabled", "error", err)
	} else {
		embedCache = cache.NewEmbeddingCache(rdb, cfg.Embedding.CacheTTL, nil)
	}

	store, err := vectorstore.Open(cfg.Store, db)
	if err != nil {
		slog.Error("failed to open chunk store", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	provider, err := embedding.NewProvider(cfg.Embedding)
	if err != nil {
		slog.Error("failed to build embedding provider", "error", err)
		os.Exit(1)
	}
	generator := embedding.NewGenerator(provider, embedCache, cfg.Embedding, nil)
	coordinator := retrieval.NewCoordinator(store, generator, cfg.Retrieval, nil)

	var documents workers.DocumentStore
	if db != nil {
		documents = document.NewService(db, cfg.Document.MaxUploadBytes, nil)
	}

	worker := workers.NewIndexWorker(coordinator, documents, nil)

	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		},
		asynq.Config{
			Concurrency: cfg.Queue.Concurrency,
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
		},
	)

	slog.Info("starting worker",
		"concurrency", cfg.Queue.Concurrency,
		"store", cfg.Store.Backend,
		"provider", provider.Name(),
	)
	if err := srv.Run(worker.Mux()); err != nil {
		slog.Error("worker error", "error", err)
		os.Exit(1)
	}
}

func logLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
