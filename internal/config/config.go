package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Storage  StorageConfig
	LLM      LLMConfig
	Search   SearchConfig
	Pipeline PipelineConfig
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

type StorageConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
}

type LLMConfig struct {
	AnthropicKey     string
	OpenAIKey        string
	DefaultProvider  string
	FallbackProvider string
	ClassifyModel    string
	AnswerModel      string
	InsightModel     string
	EmbeddingModel   string
	MaxRetries       int
}

type SearchConfig struct {
	// Backend selects the full-text engine: "postgres" (shared by the API
	// and worker through the database) or "bleve" (file-based, exclusive
	// lock, single-process deployments only).
	Backend        string
	IndexPath      string
	EnableSemantic bool
}

type PipelineConfig struct {
	ProcessTimeout     time.Duration
	ClassifyPreviewLen int
	RetrievalTopK      int
	HistoryLimit       int
	ChunkSize          int
	ChunkOverlap       int
	MaxUploadBytes     int64
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

	maxRetries, err := getEnvInt("LLM_MAX_RETRIES", 2)
	if err != nil {
		return nil, fmt.Errorf("invalid LLM_MAX_RETRIES: %w", err)
	}

	timeoutSec, err := getEnvInt("PROCESS_TIMEOUT_SECONDS", 120)
	if err != nil {
		return nil, fmt.Errorf("invalid PROCESS_TIMEOUT_SECONDS: %w", err)
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
		Storage: StorageConfig{
			Endpoint:  getEnv("S3_ENDPOINT", "localhost:9000"),
			AccessKey: getEnv("S3_ACCESS_KEY", ""),
			SecretKey: getEnv("S3_SECRET_KEY", ""),
			Bucket:    getEnv("S3_BUCKET", "documents"),
			Region:    getEnv("S3_REGION", "us-east-1"),
			UseSSL:    getEnv("S3_USE_SSL", "false") == "true",
		},
		LLM: LLMConfig{
			AnthropicKey:     getEnv("ANTHROPIC_API_KEY", ""),
			OpenAIKey:        getEnv("OPENAI_API_KEY", ""),
			DefaultProvider:  getEnv("LLM_DEFAULT_PROVIDER", "anthropic"),
			FallbackProvider: getEnv("LLM_FALLBACK_PROVIDER", ""),
			ClassifyModel:    getEnv("LLM_CLASSIFY_MODEL", "claude-haiku-4-5"),
			AnswerModel:      getEnv("LLM_ANSWER_MODEL", "claude-sonnet-4-5"),
			InsightModel:     getEnv("LLM_INSIGHT_MODEL", "claude-haiku-4-5"),
			EmbeddingModel:   getEnv("LLM_EMBEDDING_MODEL", "text-embedding-3-small"),
			MaxRetries:       maxRetries,
		},
		Search: SearchConfig{
			Backend:        getEnv("SEARCH_BACKEND", "postgres"),
			IndexPath:      getEnv("SEARCH_INDEX_PATH", "data/chunks.bleve"),
			EnableSemantic: getEnv("SEARCH_ENABLE_SEMANTIC", "false") == "true",
		},
		Pipeline: PipelineConfig{
			ProcessTimeout:     time.Duration(timeoutSec) * time.Second,
			ClassifyPreviewLen: 2000,
			RetrievalTopK:      10,
			HistoryLimit:       20,
			ChunkSize:          1200,
			ChunkOverlap:       200,
			MaxUploadBytes:     50 << 20,
		},
	}

	return cfg, nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func (c *Config) Validate() error {
	var missing []string
	if c.Database.URL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if c.LLM.AnthropicKey == "" && c.LLM.OpenAIKey == "" {
		missing = append(missing, "ANTHROPIC_API_KEY or OPENAI_API_KEY")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required env vars: %s", strings.Join(missing, ", "))
	}
	if c.Search.Backend != "postgres" && c.Search.Backend != "bleve" {
		return fmt.Errorf("invalid SEARCH_BACKEND %q, want postgres or bleve", c.Search.Backend)
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
