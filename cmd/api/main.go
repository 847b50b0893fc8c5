package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/workstreamlabs/retrieval/internal/api"
	"github.com/workstreamlabs/retrieval/internal/cache"
	"github.com/workstreamlabs/retrieval/internal/config"
	"github.com/workstreamlabs/retrieval/internal/database"
	"github.com/workstreamlabs/retrieval/internal/document"
	"github.com/workstreamlabs/retrieval/internal/embedding"
	"github.com/workstreamlabs/retrieval/internal/queue"
	"github.com/workstreamlabs/retrieval/internal/retrieval"
	"github.com/workstreamlabs/retrieval/internal/suggest"
	"github.com/workstreamlabs/retrieval/internal/vectorstore"
)

func main() {
	// .env is a development convenience; deployed environments set vars
	// directly.
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

	// Postgres backs the chunk store and document metadata. With another
	// store backend the service runs without it; document routes need it.
	var db *pgxpool.Pool
	if cfg.Database.URL != "" {
		db, err = database.NewPool(ctx, cfg.Database)
		if err != nil {
			if cfg.Store.Backend == "postgres" {
				slog.Error("database unavailable", "error", err)
				os.Exit(1)
			}
			slog.Warn("database unavailable, document routes disabled", "error", err)
		}
	}
	if db != nil {
		defer db.Close()
		if err := database.RunMigrations(ctx, db, cfg.Database.MigrationsPath); err != nil {
			slog.Error("migrations failed", "error", err)
			os.Exit(1)
		}
	}

	rdb := cache.NewClient(cfg.Redis)
	defer rdb.Close()
	redisUp := true
	if err := rdb.Ping(ctx).Err(); err != nil {
		redisUp = false
		slog.Warn("redis unavailable, embedding cache disabled", "error", err)
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
	var embedCache embedding.Cache
	if redisUp {
		embedCache = cache.NewEmbeddingCache(rdb, cfg.Embedding.CacheTTL, nil)
	}
	generator := embedding.NewGenerator(provider, embedCache, cfg.Embedding, nil)

	coordinator := retrieval.NewCoordinator(store, generator, cfg.Retrieval, nil)
	suggestions := suggest.NewService(store, nil)

	var documents *document.Service
	if db != nil {
		documents = document.NewService(db, cfg.Document.MaxUploadBytes, nil)
	}

	queueClient := queue.NewClient(cfg.Redis)
	defer queueClient.Close()

	router := api.NewRouter(coordinator, documents, suggestions, queueClient, db, rdb)
	handler := router.Setup()

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("starting API server",
			"addr", cfg.Addr(),
			"store", cfg.Store.Backend,
			"provider", provider.Name(),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
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
