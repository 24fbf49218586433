package azure

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"docqa/internal/domain"
)

const (
	DefaultAPIVersion = "2023-11-01"
	DefaultIndex      = "azure-rag-demo-index"
)

// Store is a minimal REST client for an Azure Cognitive Search index whose
// fields are id (key), data and source. The index must already exist.
type Store struct {
	endpoint   string
	index      string
	apiKey     string
	apiVersion string
	client     *http.Client
}

type Config struct {
	Endpoint   string
	Index      string
	APIKey     string
	APIVersion string
	Timeout    time.Duration
}

func NewStore(cfg Config) (*Store, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("azure search endpoint is required")
	}
	if cfg.APIKey == "" {
		return nil, errors.New("azure search api key is required")
	}
	if cfg.Index == "" {
		cfg.Index = DefaultIndex
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = DefaultAPIVersion
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Store{
		endpoint:   strings.TrimRight(cfg.Endpoint, "/"),
		index:      cfg.Index,
		apiKey:     cfg.APIKey,
		apiVersion: cfg.APIVersion,
		client:     &http.Client{Timeout: timeout},
	}, nil
}

type indexAction struct {
	Action string `json:"@search.action"`
	domain.Record
}

type indexResponse struct {
	Value []struct {
		Key          string `json:"key"`
		Status       bool   `json:"status"`
		ErrorMessage string `json:"errorMessage"`
		StatusCode   int    `json:"statusCode"`
	} `json:"value"`
}

// Upload sends a single upload action. Azure replaces a document with the same key.
func (s *Store) Upload(ctx context.Context, rec domain.Record) error {
	body := map[string]any{
		"value": []indexAction{{Action: "upload", Record: rec}},
	}
	var resp indexResponse
	if err := s.postJSON(ctx, s.docsURL("index"), body, &resp); err != nil {
		return err
	}
	for _, item := range resp.Value {
		if !item.Status {
			return fmt.Errorf("azure search rejected document %s (%d): %s", item.Key, item.StatusCode, item.ErrorMessage)
		}
	}
	return nil
}

type searchResponse struct {
	Value []struct {
		Score float64 `json:"@search.score"`
		domain.Record
	} `json:"value"`
}

// Query runs a full-text search and returns hits in service order.
func (s *Store) Query(ctx context.Context, text string, topK int) ([]domain.SearchResult, error) {
	if topK <= 0 {
		topK = 5
	}
	req := map[string]any{
		"search": text,
		"top":    topK,
		"select": "id,data,source",
	}
	var resp searchResponse
	if err := s.postJSON(ctx, s.docsURL("search"), req, &resp); err != nil {
		return nil, err
	}
	results := make([]domain.SearchResult, 0, len(resp.Value))
	for _, v := range resp.Value {
		results = append(results, domain.SearchResult{Record: v.Record, Score: v.Score})
	}
	return results, nil
}

func (s *Store) docsURL(op string) string {
	q := url.Values{"api-version": []string{s.apiVersion}}
	return fmt.Sprintf("%s/indexes/%s/docs/%s?%s", s.endpoint, url.PathEscape(s.index), op, q.Encode())
}

func (s *Store) postJSON(ctx context.Context, url string, body any, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", s.apiKey)
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 && resp.StatusCode != http.StatusMultiStatus {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("azure search POST %s failed: %s %s", req.URL.Path, resp.Status, strings.TrimSpace(string(msg)))
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
