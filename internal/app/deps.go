package app

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"
	"github.com/openai/openai-go/v3"

	"paper-rag/internal/arxiv"
	"paper-rag/internal/cache"
	"paper-rag/internal/config"
	"paper-rag/internal/embeddings"
	"paper-rag/internal/extract"
	"paper-rag/internal/ingest"
	"paper-rag/internal/llm"
	"paper-rag/internal/logger"
	"paper-rag/internal/queue"
	"paper-rag/internal/rag"
	"paper-rag/internal/store"
)

// Deps bundles common runtime dependencies for services.
type Deps struct {
	Config config.Config
	Log    *slog.Logger
	Store  store.Store
	Cache  cache.Cache
}

// LoadConfig reads an optional .env file and then the environment.
func LoadConfig() config.Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Default().Warn("failed to load .env", "err", err)
	}
	return config.Load()
}

// Build loads env, config, and shared components.
func Build() (Deps, error) {
	return New(LoadConfig())
}

// New builds the shared components for cfg.
func New(cfg config.Config) (Deps, error) {
	log := logger.New(cfg.LogLevel)

	st, err := buildStore(cfg, log)
	if err != nil {
		return Deps{}, fmt.Errorf("failed to initialize store: %w", err)
	}
	return Deps{
		Config: cfg,
		Log:    log,
		Store:  st,
		Cache:  buildCache(cfg, log),
	}, nil
}

// Close releases the store and cache.
func (d Deps) Close() {
	if d.Cache != nil {
		if err := d.Cache.Close(); err != nil {
			d.Log.Warn("failed to close cache", "err", err)
		}
	}
	if d.Store != nil {
		if err := d.Store.Close(); err != nil {
			d.Log.Warn("failed to close store", "err", err)
		}
	}
}

// Pipeline builds the ingestion pipeline from config.
func (d Deps) Pipeline() (*ingest.Pipeline, error) {
	return ingest.New(d.Store, d.Log, ingest.Options{
		Chunk:          d.Config.ChunkOptions(),
		Extract:        extract.Options{MaxPages: d.Config.PDFMaxPages},
		BatchSize:      d.Config.BatchSize,
		ErrorThreshold: d.Config.BatchErrorThreshold,
	})
}

// Answerer builds the question answering service.
func (d Deps) Answerer() (*rag.Service, error) {
	client, err := buildLLM(d.Config, d.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize LLM: %w", err)
	}
	return rag.NewService(d.Store, client, d.Cache, d.Log, rag.Options{
		TopK:     d.Config.TopK,
		CacheTTL: d.Config.CacheExpiry(),
	}), nil
}

// Queue connects to the task queue.
func (d Deps) Queue() (queue.Queue, error) {
	q, err := buildQueue(d.Config, d.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize queue: %w", err)
	}
	return q, nil
}

// Arxiv builds the catalog client.
func (d Deps) Arxiv() *arxiv.Client {
	return arxiv.NewClient(d.Config.ArxivURL, nil, d.Log)
}

func collections(cfg config.Config) store.Collections {
	return store.Collections{Papers: cfg.PapersCollection, Chunks: cfg.ChunksCollection}
}

func buildStore(cfg config.Config, log *slog.Logger) (store.Store, error) {
	switch cfg.StoreProvider {
	case "weaviate":
		if cfg.WeaviateURL == "" {
			return nil, fmt.Errorf("WEAVIATE_URL is required when STORE_PROVIDER=weaviate")
		}
		headers := map[string]string{}
		if cfg.OpenAIKey != "" {
			headers["X-OpenAI-Api-Key"] = cfg.OpenAIKey
		}
		st, err := store.NewWeaviate(store.WeaviateOptions{
			URL:        cfg.WeaviateURL,
			APIKey:     cfg.WeaviateAPIKey,
			Vectorizer: cfg.WeaviateVectorizer,
			Headers:    headers,
		}, collections(cfg))
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Weaviate: %w", err)
		}
		log.Info("using Weaviate store", "url", cfg.WeaviateURL)
		return st, nil
	case "postgres":
		if cfg.DBURL == "" {
			return nil, fmt.Errorf("DB_URL is required when STORE_PROVIDER=postgres")
		}
		db, err := store.NewPostgres(cfg.DBURL, collections(cfg))
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Postgres: %w", err)
		}
		log.Info("using Postgres store")
		return db, nil
	case "memory":
		embedder, err := buildEmbedder(cfg, log)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize embedder: %w", err)
		}
		st, err := store.NewMemory(collections(cfg), embeddings.Func(embedder))
		if err != nil {
			return nil, fmt.Errorf("failed to initialize memory store: %w", err)
		}
		log.Info("using in-memory store")
		return st, nil
	default:
		return nil, fmt.Errorf("invalid STORE_PROVIDER: %s (valid options: weaviate, postgres, memory)", cfg.StoreProvider)
	}
}

// buildCache falls back to the no-op cache when Redis is unavailable.
func buildCache(cfg config.Config, log *slog.Logger) cache.Cache {
	if cfg.CacheProvider != "redis" {
		return cache.NewNoOpCache()
	}
	c, err := cache.NewRedisCache(cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		log.Warn("redis unavailable, answer caching disabled", "addr", cfg.RedisAddr, "err", err)
		return cache.NewNoOpCache()
	}
	log.Info("using Redis cache", "addr", cfg.RedisAddr)
	return c
}

func buildQueue(cfg config.Config, log *slog.Logger) (queue.Queue, error) {
	switch cfg.QueueProvider {
	case "nats":
		if cfg.QueueURL == "" {
			return nil, fmt.Errorf("QUEUE_URL is required when QUEUE_PROVIDER=nats")
		}
		nc, err := nats.Connect(cfg.QueueURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to NATS: %w", err)
		}
		log.Info("using NATS queue")
		return queue.NewNATS(log, nc), nil
	default:
		return nil, fmt.Errorf("invalid QUEUE_PROVIDER: %s (valid option: nats)", cfg.QueueProvider)
	}
}

func buildLLM(cfg config.Config, log *slog.Logger) (llm.Client, error) {
	switch cfg.LLMProvider {
	case "openai":
		if cfg.OpenAIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required when LLM_PROVIDER=openai")
		}
		client, err := llm.NewOpenAIClient(cfg.OpenAIKey, openai.ChatModel(cfg.LLMModel))
		if err != nil {
			return nil, fmt.Errorf("failed to initialize OpenAI client: %w", err)
		}
		log.Info("using OpenAI LLM client", "model", cfg.LLMModel)
		return client, nil
	default:
		return nil, fmt.Errorf("invalid LLM_PROVIDER: %s (valid option: openai)", cfg.LLMProvider)
	}
}

func buildEmbedder(cfg config.Config, log *slog.Logger) (embeddings.Embedder, error) {
	switch cfg.LLMProvider {
	case "openai":
		if cfg.OpenAIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required when LLM_PROVIDER=openai")
		}
		embedder, err := embeddings.NewOpenAIEmbedder(cfg.OpenAIKey, openai.EmbeddingModel(cfg.EmbeddingModel))
		if err != nil {
			return nil, fmt.Errorf("failed to initialize OpenAI embedder: %w", err)
		}
		log.Info("using OpenAI embedder", "model", cfg.EmbeddingModel)
		return embedder, nil
	default:
		return nil, fmt.Errorf("invalid LLM_PROVIDER: %s (valid option: openai)", cfg.LLMProvider)
	}
}
