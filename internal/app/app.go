// Package app builds the RAG service and its backends from configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"docqa/internal/chunker"
	"docqa/internal/config"
	"docqa/internal/domain"
	"docqa/internal/embedding"
	embedopenai "docqa/internal/embedding/openai"
	"docqa/internal/embedding/tfidf"
	"docqa/internal/generator"
	"docqa/internal/indexer"
	llmopenai "docqa/internal/llm/openai"
	"docqa/internal/prompt"
	"docqa/internal/retriever"
	"docqa/internal/searchstore/azure"
	"docqa/internal/searchstore/memory"
	"docqa/internal/searchstore/postgres"
	"docqa/internal/searchstore/redis"
	"docqa/internal/searchstore/sqlite"
	"docqa/internal/searchstore/vector"
	"docqa/internal/service"
	"docqa/internal/summarizer"
	"docqa/internal/vectorstore"
	vecmemory "docqa/internal/vectorstore/memory"
	"docqa/internal/vectorstore/qdrant"
)

// App owns the wired service and the resources behind it.
type App struct {
	Service *service.RAGService
	Store   domain.SearchStore

	closers []func() error
}

type options struct {
	store     domain.SearchStore
	completer domain.Completer
	observer  func(service.Stage)
}

type Option func(*options)

// WithSearchStore replaces the configured search store.
func WithSearchStore(store domain.SearchStore) Option {
	return func(o *options) { o.store = store }
}

// WithCompleter replaces the configured language model.
func WithCompleter(c domain.Completer) Option {
	return func(o *options) { o.completer = c }
}

// WithStageObserver forwards query stage transitions to fn.
func WithStageObserver(fn func(service.Stage)) Option {
	return func(o *options) { o.observer = fn }
}

// New validates cfg and wires every component.
func New(ctx context.Context, cfg *config.AppConfig, logger zerolog.Logger, opts ...Option) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	a := &App{}
	store := o.store
	if store == nil {
		s, closer, err := NewSearchStore(ctx, cfg.SearchStore, logger)
		if err != nil {
			return nil, err
		}
		store = s
		if closer != nil {
			a.closers = append(a.closers, closer)
		}
	}
	a.Store = store

	completer := o.completer
	if completer == nil {
		c, err := NewCompleter(cfg.LLM)
		if err != nil {
			// ingestion does not need a model; questions will fail at generation
			logger.Warn().Err(err).Msg("language model not configured")
			completer = unavailable{err: err}
		} else {
			completer = c
		}
	}

	var chunkOpts []chunker.Option
	if len(cfg.Chunker.Separators) > 0 {
		chunkOpts = append(chunkOpts, chunker.WithSeparators(cfg.Chunker.Separators...))
	}
	ch, err := chunker.NewRecursiveChunker(cfg.Chunker.MaxSize, cfg.Chunker.Overlap, chunkOpts...)
	if err != nil {
		a.Close()
		return nil, err
	}
	logger.Debug().Int("max_size", ch.MaxSize()).Int("overlap", ch.Overlap()).Msg("chunker configured")

	assembler := prompt.NewAssembler()
	if cfg.Prompt.Template != "" {
		assembler, err = prompt.NewAssemblerWithTemplate(cfg.Prompt.Template)
		if err != nil {
			a.Close()
			return nil, err
		}
	}

	svcOpts := []service.Option{
		service.WithLogger(logger.With().Str("component", "service").Logger()),
		service.WithTopK(cfg.Retrieval.TopK),
	}
	if cfg.Summarizer.Type == "frequency" {
		svcOpts = append(svcOpts, service.WithSummarizer(summarizer.NewFrequencySummarizer(), cfg.Summarizer.MaxSentences))
	}
	if o.observer != nil {
		svcOpts = append(svcOpts, service.WithStageObserver(o.observer))
	}

	a.Service = service.NewRAGService(
		ch,
		indexer.NewPublisher(store,
			indexer.WithConcurrency(cfg.Publish.Concurrency),
			indexer.WithLogger(logger.With().Str("component", "indexer").Logger())),
		retriever.New(store, retriever.WithLogger(logger.With().Str("component", "retriever").Logger())),
		assembler,
		generator.New(completer, generator.WithLogger(logger.With().Str("component", "generator").Logger())),
		svcOpts...,
	)
	return a, nil
}

// Close releases the search store connections.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}

// NewSearchStore builds the configured store. The returned closer may be nil.
func NewSearchStore(ctx context.Context, cfg config.SearchStoreConfig, logger zerolog.Logger) (domain.SearchStore, func() error, error) {
	logger = logger.With().Str("search_store", cfg.Type).Logger()
	switch cfg.Type {
	case "memory", "":
		return memory.NewStore(), nil, nil
	case "azure":
		if cfg.Azure == nil {
			return nil, nil, missing("azure")
		}
		s, err := azure.NewStore(azure.Config{
			Endpoint:   cfg.Azure.Endpoint,
			Index:      cfg.Azure.Index,
			APIKey:     os.Getenv(cfg.Azure.APIKeyEnv),
			APIVersion: cfg.Azure.APIVersion,
			Timeout:    seconds(cfg.Azure.TimeoutSecs),
		})
		if err != nil {
			return nil, nil, err
		}
		return s, nil, nil
	case "sqlite":
		if cfg.SQLite == nil {
			return nil, nil, missing("sqlite")
		}
		s, err := sqlite.Open(cfg.SQLite.Path)
		if err != nil {
			return nil, nil, err
		}
		logger.Debug().Str("path", s.Path()).Msg("sqlite index opened")
		return s, s.Close, nil
	case "postgres":
		if cfg.Postgres == nil {
			return nil, nil, missing("postgres")
		}
		url := cfg.Postgres.URL
		if url == "" {
			url = os.Getenv(cfg.Postgres.URLEnv)
		}
		s, err := postgres.New(ctx, postgres.Config{URL: url, Table: cfg.Postgres.Table})
		if err != nil {
			return nil, nil, err
		}
		if err := s.Migrate(ctx); err != nil {
			s.Close()
			return nil, nil, err
		}
		return s, s.Close, nil
	case "redis":
		if cfg.Redis == nil {
			return nil, nil, missing("redis")
		}
		var password string
		if cfg.Redis.PasswordEnv != "" {
			password = os.Getenv(cfg.Redis.PasswordEnv)
		}
		s, err := redis.Connect(ctx, redis.Config{
			Addr:       cfg.Redis.Addr,
			Password:   password,
			DB:         cfg.Redis.DB,
			Prefix:     cfg.Redis.Prefix,
			MaxRetries: cfg.Redis.MaxRetries,
		}, logger)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	case "vector":
		if cfg.Vector == nil {
			return nil, nil, missing("vector")
		}
		emb, err := newEmbedder(cfg.Vector.Embedder)
		if err != nil {
			return nil, nil, err
		}
		storage, err := newVectorStorage(cfg.Vector.Storage)
		if err != nil {
			return nil, nil, err
		}
		return vector.NewStore(emb, storage, vector.WithLogger(logger)), nil, nil
	default:
		return nil, nil, fmt.Errorf("%w: unknown search store %q", domain.ErrInvalidConfiguration, cfg.Type)
	}
}

// NewCompleter builds the chat model client.
func NewCompleter(cfg config.LLMConfig) (domain.Completer, error) {
	return llmopenai.NewClient(llmopenai.Config{
		Provider:    cfg.Provider,
		Endpoint:    cfg.Endpoint,
		APIKeyEnv:   cfg.APIKeyEnv,
		APIVersion:  cfg.APIVersion,
		Model:       cfg.Model,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
		Timeout:     seconds(cfg.TimeoutSecs),
		MaxRetries:  cfg.MaxRetries,
	})
}

func newEmbedder(cfg config.EmbedderConfig) (embedding.Embedder, error) {
	switch cfg.Type {
	case "tfidf", "":
		return tfidf.NewEmbedder(), nil
	case "openai":
		if cfg.OpenAI == nil {
			return nil, missing("openai embedder")
		}
		return embedopenai.NewClient(embedopenai.Config{
			BaseURL:    cfg.OpenAI.BaseURL,
			APIKeyEnv:  cfg.OpenAI.APIKeyEnv,
			Model:      cfg.OpenAI.Model,
			Timeout:    seconds(cfg.OpenAI.TimeoutSecs),
			MaxRetries: cfg.OpenAI.MaxRetries,
		})
	default:
		return nil, fmt.Errorf("%w: unknown embedder %q", domain.ErrInvalidConfiguration, cfg.Type)
	}
}

func newVectorStorage(cfg config.VectorStorageConfig) (vectorstore.Storage, error) {
	switch cfg.Type {
	case "memory", "":
		return vecmemory.NewStorage(), nil
	case "qdrant":
		if cfg.Qdrant == nil {
			return nil, missing("qdrant")
		}
		var key string
		if cfg.Qdrant.APIKeyEnv != "" {
			key = os.Getenv(cfg.Qdrant.APIKeyEnv)
		}
		return qdrant.NewStorage(qdrant.Config{
			URL:        cfg.Qdrant.URL,
			APIKey:     key,
			Collection: cfg.Qdrant.Collection,
			Timeout:    seconds(cfg.Qdrant.TimeoutSecs),
		}), nil
	default:
		return nil, fmt.Errorf("%w: unknown vector storage %q", domain.ErrInvalidConfiguration, cfg.Type)
	}
}

func missing(what string) error {
	return fmt.Errorf("%w: %s config missing", domain.ErrInvalidConfiguration, what)
}

func seconds(n int) time.Duration { return time.Duration(n) * time.Second }

type unavailable struct{ err error }

func (u unavailable) Complete(context.Context, string) (string, error) { return "", u.err }
