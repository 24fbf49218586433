package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"docqa/internal/domain"
)

// LogConfig controls the process logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ChunkerConfig configures how documents are split into chunks.
type ChunkerConfig struct {
	MaxSize    int      `yaml:"max_size"`
	Overlap    int      `yaml:"overlap"`
	Separators []string `yaml:"separators,omitempty"`
}

// PublishConfig controls how chunks are uploaded.
type PublishConfig struct {
	Concurrency int `yaml:"concurrency"`
}

// RetrievalConfig controls how many records each question uses.
type RetrievalConfig struct {
	TopK int `yaml:"top_k"`
}

// PromptConfig optionally overrides the answer prompt template.
type PromptConfig struct {
	Template string `yaml:"template,omitempty"`
}

// SummarizerConfig selects and configures the summarizer.
type SummarizerConfig struct {
	Type         string `yaml:"type"`
	MaxSentences int    `yaml:"max_sentences"`
}

// AzureSearchConfig contains connection details for Azure Cognitive Search.
type AzureSearchConfig struct {
	Endpoint    string `yaml:"endpoint"`
	Index       string `yaml:"index"`
	APIKeyEnv   string `yaml:"api_key_env"`
	APIVersion  string `yaml:"api_version"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// SQLiteConfig points at the SQLite database file, or ":memory:".
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// PostgresConfig reads the connection URL from URLEnv when URL is empty.
type PostgresConfig struct {
	URL    string `yaml:"url"`
	URLEnv string `yaml:"url_env"`
	Table  string `yaml:"table"`
}

// RedisConfig contains connection details for a Redis search store.
type RedisConfig struct {
	Addr        string `yaml:"addr"`
	PasswordEnv string `yaml:"password_env"`
	DB          int    `yaml:"db"`
	Prefix      string `yaml:"prefix"`
	MaxRetries  int    `yaml:"max_retries"`
}

// OpenAIEmbedderConfig holds configuration for the OpenAI-compatible embedder.
type OpenAIEmbedderConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
	MaxRetries  int    `yaml:"max_retries"`
}

// EmbedderConfig selects and configures the text embedder implementation.
type EmbedderConfig struct {
	Type   string                `yaml:"type"`
	OpenAI *OpenAIEmbedderConfig `yaml:"openai,omitempty"`
}

// QdrantConfig contains connection details for a Qdrant vector store.
type QdrantConfig struct {
	URL         string `yaml:"url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Collection  string `yaml:"collection"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// VectorStorageConfig selects where record vectors live.
type VectorStorageConfig struct {
	Type   string        `yaml:"type"`
	Qdrant *QdrantConfig `yaml:"qdrant,omitempty"`
}

// VectorConfig configures the embedding-backed search store.
type VectorConfig struct {
	Embedder EmbedderConfig      `yaml:"embedder"`
	Storage  VectorStorageConfig `yaml:"storage"`
}

// SearchStoreConfig selects and configures the search store implementation.
type SearchStoreConfig struct {
	Type     string             `yaml:"type"`
	Azure    *AzureSearchConfig `yaml:"azure,omitempty"`
	SQLite   *SQLiteConfig      `yaml:"sqlite,omitempty"`
	Postgres *PostgresConfig    `yaml:"postgres,omitempty"`
	Redis    *RedisConfig       `yaml:"redis,omitempty"`
	Vector   *VectorConfig      `yaml:"vector,omitempty"`
}

// LLMConfig configures the chat model that answers questions.
type LLMConfig struct {
	Provider    string  `yaml:"provider"`
	Endpoint    string  `yaml:"endpoint"`
	APIKeyEnv   string  `yaml:"api_key_env"`
	APIVersion  string  `yaml:"api_version"`
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
	TimeoutSecs int     `yaml:"timeout_secs"`
	MaxRetries  int     `yaml:"max_retries"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Log         LogConfig         `yaml:"log"`
	Chunker     ChunkerConfig     `yaml:"chunker"`
	Publish     PublishConfig     `yaml:"publish"`
	Retrieval   RetrievalConfig   `yaml:"retrieval"`
	Prompt      PromptConfig      `yaml:"prompt"`
	Summarizer  SummarizerConfig  `yaml:"summarizer"`
	SearchStore SearchStoreConfig `yaml:"search_store"`
	LLM         LLMConfig         `yaml:"llm"`
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := defaultConfig()
			applyEnv(cfg)
			return cfg, nil
		}
		return nil, err
	}
	cfg := defaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	applyConfigDefaults(cfg)
	applyEnv(cfg)
	return cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/docqa/config.yaml.
// If neither exists, it writes defaults to ~/.config/docqa/config.yaml and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := defaultConfig()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	applyEnv(cfg)
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate rejects settings no component can run with.
func (c *AppConfig) Validate() error {
	if c.Chunker.MaxSize <= 0 {
		return fmt.Errorf("%w: chunker.max_size must be positive, got %d", domain.ErrInvalidConfiguration, c.Chunker.MaxSize)
	}
	if c.Chunker.Overlap < 0 || c.Chunker.Overlap >= c.Chunker.MaxSize {
		return fmt.Errorf("%w: chunker.overlap must be in [0, %d), got %d",
			domain.ErrInvalidConfiguration, c.Chunker.MaxSize, c.Chunker.Overlap)
	}
	if c.Retrieval.TopK < 1 {
		return fmt.Errorf("%w: retrieval.top_k must be at least 1, got %d", domain.ErrInvalidConfiguration, c.Retrieval.TopK)
	}
	switch c.SearchStore.Type {
	case "memory", "azure", "sqlite", "postgres", "redis", "vector":
	default:
		return fmt.Errorf("%w: unknown search store %q", domain.ErrInvalidConfiguration, c.SearchStore.Type)
	}
	return nil
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "docqa", "config.yaml"), nil
}

func defaultConfig() *AppConfig {
	return &AppConfig{
		Log:         LogConfig{Level: "info", Format: "console"},
		Chunker:     ChunkerConfig{MaxSize: 5000, Overlap: 20},
		Publish:     PublishConfig{Concurrency: 1},
		Retrieval:   RetrievalConfig{TopK: 2},
		Summarizer:  SummarizerConfig{Type: "frequency", MaxSentences: 3},
		SearchStore: SearchStoreConfig{Type: "memory"},
		LLM: LLMConfig{
			Provider:    "azure",
			APIKeyEnv:   "OPENAI_API_KEY",
			Model:       "o4-mini",
			Temperature: 1,
			TimeoutSecs: 60,
		},
	}
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Publish.Concurrency == 0 {
		cfg.Publish.Concurrency = 1
	}
	if cfg.SearchStore.Type == "" {
		cfg.SearchStore.Type = "memory"
	}
	cfg.SearchStore.Type = strings.ToLower(cfg.SearchStore.Type)

	switch cfg.SearchStore.Type {
	case "azure":
		if cfg.SearchStore.Azure == nil {
			cfg.SearchStore.Azure = &AzureSearchConfig{}
		}
		az := cfg.SearchStore.Azure
		if az.Index == "" {
			az.Index = "azure-rag-demo-index"
		}
		if az.APIKeyEnv == "" {
			az.APIKeyEnv = "AZURE_SEARCH_KEY"
		}
		if az.TimeoutSecs == 0 {
			az.TimeoutSecs = 15
		}
	case "sqlite":
		if cfg.SearchStore.SQLite == nil {
			cfg.SearchStore.SQLite = &SQLiteConfig{}
		}
		if cfg.SearchStore.SQLite.Path == "" {
			cfg.SearchStore.SQLite.Path = filepath.Join(".docqa", "index.db")
		}
	case "postgres":
		if cfg.SearchStore.Postgres == nil {
			cfg.SearchStore.Postgres = &PostgresConfig{}
		}
		if cfg.SearchStore.Postgres.URLEnv == "" {
			cfg.SearchStore.Postgres.URLEnv = "DATABASE_URL"
		}
	case "redis":
		if cfg.SearchStore.Redis == nil {
			cfg.SearchStore.Redis = &RedisConfig{}
		}
		if cfg.SearchStore.Redis.Addr == "" {
			cfg.SearchStore.Redis.Addr = "localhost:6379"
		}
		if cfg.SearchStore.Redis.MaxRetries == 0 {
			cfg.SearchStore.Redis.MaxRetries = 5
		}
	case "vector":
		if cfg.SearchStore.Vector == nil {
			cfg.SearchStore.Vector = &VectorConfig{}
		}
		applyVectorDefaults(cfg.SearchStore.Vector)
	}
}

func applyVectorDefaults(v *VectorConfig) {
	if v.Embedder.Type == "" {
		v.Embedder.Type = "tfidf"
	}
	if v.Embedder.Type == "openai" {
		if v.Embedder.OpenAI == nil {
			v.Embedder.OpenAI = &OpenAIEmbedderConfig{}
		}
		if v.Embedder.OpenAI.BaseURL == "" {
			v.Embedder.OpenAI.BaseURL = "https://api.openai.com/v1"
		}
		if v.Embedder.OpenAI.APIKeyEnv == "" {
			v.Embedder.OpenAI.APIKeyEnv = "OPENAI_API_KEY"
		}
		if v.Embedder.OpenAI.Model == "" {
			v.Embedder.OpenAI.Model = "text-embedding-3-small"
		}
		if v.Embedder.OpenAI.TimeoutSecs == 0 {
			v.Embedder.OpenAI.TimeoutSecs = 30
		}
	}
	if v.Storage.Type == "" {
		v.Storage.Type = "memory"
	}
	if v.Storage.Type == "qdrant" {
		if v.Storage.Qdrant == nil {
			v.Storage.Qdrant = &QdrantConfig{}
		}
		if v.Storage.Qdrant.URL == "" {
			v.Storage.Qdrant.URL = "http://localhost:6333"
		}
		if v.Storage.Qdrant.Collection == "" {
			v.Storage.Qdrant.Collection = "docqa"
		}
	}
}

// applyEnv fills connection settings from the environment variables the
// Azure SDKs use, without overriding values set in the file.
func applyEnv(cfg *AppConfig) {
	if cfg.SearchStore.Type == "azure" && cfg.SearchStore.Azure != nil && cfg.SearchStore.Azure.Endpoint == "" {
		cfg.SearchStore.Azure.Endpoint = os.Getenv("AZURE_SEARCH_ENDPOINT")
	}
	if cfg.LLM.Endpoint == "" {
		cfg.LLM.Endpoint = os.Getenv("AZURE_OPENAI_ENDPOINT")
	}
	if cfg.LLM.APIVersion == "" {
		cfg.LLM.APIVersion = os.Getenv("OPENAI_API_VERSION")
	}
}
