package config

import (
	"log/slog"
	"time"

	"github.com/caarlos0/env/v10"

	"paper-rag/internal/chunker"
)

// Config holds runtime configuration shared by all binaries.
type Config struct {
	// Server
	Port       int    `env:"PORT" envDefault:"8000"`
	HealthPort int    `env:"HEALTH_PORT" envDefault:"8081"`
	LogLevel   string `env:"LOG_LEVEL" envDefault:"info"`

	// Store
	StoreProvider      string `env:"STORE_PROVIDER" envDefault:"weaviate"` // "weaviate", "postgres" or "memory"
	WeaviateURL        string `env:"WEAVIATE_URL"`
	WeaviateAPIKey     string `env:"WEAVIATE_API_KEY"`
	WeaviateVectorizer string `env:"WEAVIATE_VECTORIZER" envDefault:"text2vec-weaviate"`
	PapersCollection   string `env:"PAPERS_COLLECTION" envDefault:"ArxivPDFs"`
	ChunksCollection   string `env:"CHUNKS_COLLECTION" envDefault:"PDFchunks"`
	DBURL              string `env:"DB_URL"`

	// Queue
	QueueProvider string `env:"QUEUE_PROVIDER" envDefault:"nats"`
	QueueURL      string `env:"QUEUE_URL"`

	// Cache
	CacheProvider string `env:"CACHE_PROVIDER" envDefault:"none"` // "redis" or "none"
	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	CacheTTL      int    `env:"CACHE_TTL" envDefault:"3600"` // seconds

	// LLM & Embeddings
	LLMProvider    string `env:"LLM_PROVIDER" envDefault:"openai"`
	OpenAIKey      string `env:"OPENAI_API_KEY"`
	LLMModel       string `env:"LLM_MODEL" envDefault:"gpt-4o-mini"`
	EmbeddingModel string `env:"EMBEDDING_MODEL" envDefault:"text-embedding-3-small"`
	TopK           int    `env:"TOP_K" envDefault:"5"`

	// Chunking
	ChunkStrategy        string  `env:"CHUNK_STRATEGY" envDefault:"sections"` // "sections" or "fixed"
	ChunkSize            int     `env:"CHUNK_SIZE" envDefault:"250"`
	ChunkOverlapFraction float64 `env:"CHUNK_OVERLAP_FRACTION" envDefault:"0.2"`

	// Ingestion
	BatchSize           int `env:"BATCH_SIZE" envDefault:"100"`
	BatchErrorThreshold int `env:"BATCH_ERROR_THRESHOLD" envDefault:"10"`
	PDFMaxPages         int `env:"PDF_MAX_PAGES" envDefault:"0"` // 0 reads every page

	// arXiv
	ArxivURL            string `env:"ARXIV_URL" envDefault:"http://export.arxiv.org/api/query"`
	ArxivQuery          string `env:"ARXIV_QUERY" envDefault:"vector database"`
	ArxivMaxResults     int    `env:"ARXIV_MAX_RESULTS" envDefault:"25"`
	DownloadDir         string `env:"DOWNLOAD_DIR" envDefault:"pdfs"`
	DownloadConcurrency int    `env:"DOWNLOAD_CONCURRENCY" envDefault:"4"`
}

// Load reads configuration from environment variables with defaults.
func Load() Config {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		slog.Warn("failed to parse env; using defaults where set", "err", err)
	}
	return cfg
}

// ChunkOptions returns the chunker settings carried by the config.
func (c Config) ChunkOptions() chunker.Options {
	return chunker.Options{
		Size:            c.ChunkSize,
		OverlapFraction: c.ChunkOverlapFraction,
		Strategy:        chunker.Strategy(c.ChunkStrategy),
	}
}

// CacheExpiry converts CacheTTL to a duration.
func (c Config) CacheExpiry() time.Duration {
	return time.Duration(c.CacheTTL) * time.Second
}
