package config

import (
	"testing"
	"time"

	"paper-rag/internal/chunker"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "LOG_LEVEL", "STORE_PROVIDER", "CHUNK_SIZE", "CHUNK_OVERLAP_FRACTION",
		"CHUNKS_COLLECTION", "BATCH_ERROR_THRESHOLD", "ARXIV_QUERY", "CACHE_PROVIDER", "CHUNK_STRATEGY"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	tests := []struct {
		name     string
		got      interface{}
		expected interface{}
	}{
		{"Port", cfg.Port, 8000},
		{"LogLevel", cfg.LogLevel, "info"},
		{"StoreProvider", cfg.StoreProvider, "weaviate"},
		{"QueueProvider", cfg.QueueProvider, "nats"},
		{"CacheProvider", cfg.CacheProvider, "none"},
		{"PapersCollection", cfg.PapersCollection, "ArxivPDFs"},
		{"ChunksCollection", cfg.ChunksCollection, "PDFchunks"},
		{"ChunkStrategy", cfg.ChunkStrategy, "sections"},
		{"ChunkSize", cfg.ChunkSize, 250},
		{"ChunkOverlapFraction", cfg.ChunkOverlapFraction, 0.2},
		{"BatchSize", cfg.BatchSize, 100},
		{"BatchErrorThreshold", cfg.BatchErrorThreshold, 10},
		{"ArxivQuery", cfg.ArxivQuery, "vector database"},
		{"ArxivMaxResults", cfg.ArxivMaxResults, 25},
		{"DownloadDir", cfg.DownloadDir, "pdfs"},
		{"LLMModel", cfg.LLMModel, "gpt-4o-mini"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("expected %s=%v, got %v", tt.name, tt.expected, tt.got)
			}
		})
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("CHUNK_SIZE", "64")
	t.Setenv("CHUNK_OVERLAP_FRACTION", "0.5")
	t.Setenv("CHUNK_STRATEGY", "fixed")

	cfg := Load()

	if cfg.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Port)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("expected log level 'debug', got %s", cfg.LogLevel)
	}
	want := chunker.Options{Size: 64, OverlapFraction: 0.5, Strategy: chunker.StrategyFixed}
	if got := cfg.ChunkOptions(); got != want {
		t.Errorf("expected chunk options %+v, got %+v", want, got)
	}
}

func TestCacheExpiry(t *testing.T) {
	cfg := Config{CacheTTL: 90}
	if got := cfg.CacheExpiry(); got != 90*time.Second {
		t.Errorf("expected 90s, got %v", got)
	}
}
