package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Embedding EmbeddingConfig
	Store     StoreConfig
	Retrieval RetrievalConfig
	Queue     QueueConfig
	Document  DocumentConfig
	LogLevel  string
}

type ServerConfig struct {
	Host string
	Port int
}

type DatabaseConfig struct {
	URL            string
	MaxConns       int
	MinConns       int
	MigrationsPath string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type EmbeddingConfig struct {
	Provider   string // "openai", "ollama", or "hash"
	Model      string // empty selects the provider default
	Dimensions int    // 0 derives from the model
	MaxTokens  int
	BatchSize  int
	BatchPause time.Duration
	Timeout    time.Duration
	CacheTTL   time.Duration
	OpenAIKey  string
	OllamaURL  string
}

type StoreConfig struct {
	Backend    string // "postgres", "sqlite", or "memory"
	SQLitePath string
}

type RetrievalConfig struct {
	DefaultLimit     int
	DefaultThreshold float64
	ContextTokens    int
}

type QueueConfig struct {
	Concurrency int
}

type DocumentConfig struct {
	MaxUploadBytes int64
}

func Load() (*Config, error) {
	port, err := getEnvInt("SERVER_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}

	maxConns, err := getEnvInt("DB_MAX_CONNS", 20)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_CONNS: %w", err)
	}

	minConns, err := getEnvInt("DB_MIN_CONNS", 5)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MIN_CONNS: %w", err)
	}

	redisDB, err := getEnvInt("REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	dimensions, err := getEnvInt("EMBEDDING_DIMENSIONS", 0)
	if err != nil {
		return nil, fmt.Errorf("invalid EMBEDDING_DIMENSIONS: %w", err)
	}

	maxTokens, err := getEnvInt("EMBEDDING_MAX_TOKENS", 8000)
	if err != nil {
		return nil, fmt.Errorf("invalid EMBEDDING_MAX_TOKENS: %w", err)
	}

	batchSize, err := getEnvInt("EMBEDDING_BATCH_SIZE", 100)
	if err != nil {
		return nil, fmt.Errorf("invalid EMBEDDING_BATCH_SIZE: %w", err)
	}

	batchPause, err := getEnvDuration("EMBEDDING_BATCH_PAUSE", 500*time.Millisecond)
	if err != nil {
		return nil, fmt.Errorf("invalid EMBEDDING_BATCH_PAUSE: %w", err)
	}

	embedTimeout, err := getEnvDuration("EMBEDDING_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid EMBEDDING_TIMEOUT: %w", err)
	}

	cacheTTL, err := getEnvDuration("EMBEDDING_CACHE_TTL", 24*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("invalid EMBEDDING_CACHE_TTL: %w", err)
	}

	limit, err := getEnvInt("RETRIEVAL_LIMIT", 5)
	if err != nil {
		return nil, fmt.Errorf("invalid RETRIEVAL_LIMIT: %w", err)
	}

	threshold, err := getEnvFloat("RETRIEVAL_THRESHOLD", 0.3)
	if err != nil {
		return nil, fmt.Errorf("invalid RETRIEVAL_THRESHOLD: %w", err)
	}

	contextTokens, err := getEnvInt("CONTEXT_MAX_TOKENS", 2000)
	if err != nil {
		return nil, fmt.Errorf("invalid CONTEXT_MAX_TOKENS: %w", err)
	}

	concurrency, err := getEnvInt("QUEUE_CONCURRENCY", 10)
	if err != nil {
		return nil, fmt.Errorf("invalid QUEUE_CONCURRENCY: %w", err)
	}

	uploadMB, err := getEnvInt("DOCUMENT_MAX_UPLOAD_MB", 20)
	if err != nil {
		return nil, fmt.Errorf("invalid DOCUMENT_MAX_UPLOAD_MB: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: port,
		},
		Database: DatabaseConfig{
			URL:            getEnv("DATABASE_URL", ""),
			MaxConns:       maxConns,
			MinConns:       minConns,
			MigrationsPath: getEnv("MIGRATIONS_PATH", "migrations"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		Embedding: EmbeddingConfig{
			Provider:   getEnv("EMBEDDING_PROVIDER", "openai"),
			Model:      getEnv("EMBEDDING_MODEL", ""),
			Dimensions: dimensions,
			MaxTokens:  maxTokens,
			BatchSize:  batchSize,
			BatchPause: batchPause,
			Timeout:    embedTimeout,
			CacheTTL:   cacheTTL,
			OpenAIKey:  getEnv("OPENAI_API_KEY", ""),
			OllamaURL:  getEnv("OLLAMA_URL", "http://localhost:11434"),
		},
		Store: StoreConfig{
			Backend:    getEnv("VECTOR_STORE", "postgres"),
			SQLitePath: getEnv("SQLITE_PATH", "data/chunks.db"),
		},
		Retrieval: RetrievalConfig{
			DefaultLimit:     limit,
			DefaultThreshold: threshold,
			ContextTokens:    contextTokens,
		},
		Queue: QueueConfig{
			Concurrency: concurrency,
		},
		Document: DocumentConfig{
			MaxUploadBytes: int64(uploadMB) << 20,
		},
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	return cfg, nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func (c *Config) Validate() error {
	var missing []string
	if c.Store.Backend == "postgres" && c.Database.URL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if c.Embedding.Provider == "openai" && c.Embedding.OpenAIKey == "" {
		missing = append(missing, "OPENAI_API_KEY")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required env vars: %s", strings.Join(missing, ", "))
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.Atoi(v)
}

func getEnvFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.ParseFloat(v, 64)
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return time.ParseDuration(v)
}
