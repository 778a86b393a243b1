package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port string

	// OpenAI (chat + embeddings)
	OpenAIAPIKey   string
	OpenAIModel    string
	EmbeddingModel string

	// Unstructured extraction
	UnstructuredAPIKey string
	UnstructuredURL    string

	// Qdrant vector index
	QdrantURL        string
	QdrantAPIKey     string
	QdrantCollection string

	// Local storage
	DataDir    string
	StagingDir string

	// Retrieval
	RetrievalTopK int

	// Fetch limits
	MaxPDFBytes  int64
	FetchTimeout time.Duration
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8080"),

		OpenAIAPIKey:   os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:    envOr("OPENAI_MODEL", "gpt-4-1106-preview"),
		EmbeddingModel: envOr("OPENAI_EMBEDDING_MODEL", "text-embedding-3-small"),

		UnstructuredAPIKey: os.Getenv("UNSTRUCTURED_API_KEY"),
		UnstructuredURL:    envOr("UNSTRUCTURED_URL", "https://api.unstructured.io/general/v0/general"),

		QdrantURL:        envOr("QDRANT_URL", "http://localhost:6333"),
		QdrantAPIKey:     os.Getenv("QDRANT_API_KEY"),
		QdrantCollection: envOr("QDRANT_COLLECTION", "paper_embeddings"),

		DataDir:    envOr("DATA_DIR", "data"),
		StagingDir: os.Getenv("STAGING_DIR"),

		RetrievalTopK: envInt("RETRIEVAL_TOP_K", 8),

		MaxPDFBytes:  envInt64("MAX_PDF_BYTES", 52428800), // 50MB
		FetchTimeout: envDuration("FETCH_TIMEOUT", 60*time.Second),
	}

	if cfg.RetrievalTopK <= 0 {
		cfg.RetrievalTopK = 8
	}
	if cfg.MaxPDFBytes <= 0 {
		cfg.MaxPDFBytes = 52428800
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 60 * time.Second
	}

	return cfg
}

func (c Config) Validate() error {
	if c.OpenAIAPIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required")
	}
	if c.UnstructuredAPIKey == "" {
		return fmt.Errorf("UNSTRUCTURED_API_KEY is required")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
