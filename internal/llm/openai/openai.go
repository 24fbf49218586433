// Package openai completes prompts with an OpenAI or Azure OpenAI chat model.
package openai

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/azure"
	"github.com/openai/openai-go/option"
)

const (
	ProviderAzure  = "azure"
	ProviderOpenAI = "openai"

	DefaultAPIVersion  = "2024-12-01-preview"
	DefaultDeployment  = "o4-mini"
	DefaultTemperature = 1.0
)

type Config struct {
	Provider string
	// Endpoint is the Azure resource endpoint, or an OpenAI-compatible base URL.
	Endpoint   string
	APIKeyEnv  string
	APIVersion string
	// Model is the deployment name for Azure.
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
	MaxRetries  int
}

// Client implements domain.Completer.
type Client struct {
	client      openai.Client
	model       string
	temperature float64
	maxTokens   int
	timeout     time.Duration
}

func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKeyEnv == "" {
		cfg.APIKeyEnv = "OPENAI_API_KEY"
	}
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("missing API key in env %s", cfg.APIKeyEnv)
	}
	if cfg.Model == "" {
		cfg.Model = DefaultDeployment
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}

	opts := []option.RequestOption{option.WithMaxRetries(cfg.MaxRetries)}
	switch strings.ToLower(cfg.Provider) {
	case ProviderAzure, "":
		if cfg.Endpoint == "" {
			return nil, errors.New("azure endpoint is required")
		}
		if cfg.APIVersion == "" {
			cfg.APIVersion = DefaultAPIVersion
		}
		opts = append(opts,
			azure.WithEndpoint(cfg.Endpoint, cfg.APIVersion),
			azure.WithAPIKey(key),
		)
	case ProviderOpenAI:
		opts = append(opts, option.WithAPIKey(key))
		if cfg.Endpoint != "" {
			opts = append(opts, option.WithBaseURL(cfg.Endpoint))
		}
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", cfg.Provider)
	}

	return &Client{
		client:      openai.NewClient(opts...),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		timeout:     cfg.Timeout,
	}, nil
}

// Complete sends prompt as a single user message and returns the first choice.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Temperature: openai.Float(c.temperature),
	}
	if c.maxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(c.maxTokens))
	}

	completion, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", errors.New("no completion choices returned")
	}
	return completion.Choices[0].Message.Content, nil
}
