package redis

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"docqa/internal/domain"
	"docqa/internal/lexical"
)

const DefaultPrefix = "docqa"

type Config struct {
	Addr       string
	Password   string
	DB         int
	Prefix     string
	MaxRetries int
}

// Store keeps one hash per record plus a set of ids. Ranking is lexical and
// happens client-side.
type Store struct {
	client *redis.Client
	prefix string
}

// Connect dials Redis and pings it, backing off between attempts.
func Connect(ctx context.Context, cfg Config, logger zerolog.Logger) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:            cfg.Addr,
		Password:        cfg.Password,
		DB:              cfg.DB,
		MaxRetries:      3,
		MinRetryBackoff: 8 * time.Millisecond,
		MaxRetryBackoff: 512 * time.Millisecond,
		DialTimeout:     5 * time.Second,
		ReadTimeout:     3 * time.Second,
		WriteTimeout:    3 * time.Second,
	})

	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}

	var err error
	for i := 0; i < maxRetries; i++ {
		if i > 0 {
			backoff := time.Duration(1<<uint(i)) * time.Second
			logger.Info().Dur("backoff", backoff).Msg("waiting before redis retry")
			select {
			case <-ctx.Done():
				client.Close()
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		err = client.Ping(ctx).Err()
		if err == nil {
			logger.Info().Int("attempts_needed", i+1).Str("addr", cfg.Addr).Msg("redis connected")
			return NewStore(client, cfg.Prefix), nil
		}
		logger.Warn().Err(err).Int("attempt", i+1).Msg("redis ping failed")
	}

	client.Close()
	return nil, fmt.Errorf("failed to connect to redis after %d attempts: %w", maxRetries, err)
}

// NewStore wraps an existing client.
func NewStore(client *redis.Client, prefix string) *Store {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Store{client: client, prefix: prefix}
}

func (s *Store) Close() error { return s.client.Close() }

func (s *Store) recordKey(id string) string { return s.prefix + ":record:" + id }

func (s *Store) idsKey() string { return s.prefix + ":ids" }

func (s *Store) Upload(ctx context.Context, rec domain.Record) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, s.recordKey(rec.ID), "id", rec.ID, "data", rec.Data, "source", rec.Source)
		pipe.SAdd(ctx, s.idsKey(), rec.ID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to store record %s: %w", rec.ID, err)
	}
	return nil
}

func (s *Store) Query(ctx context.Context, text string, topK int) ([]domain.SearchResult, error) {
	ids, err := s.client.SMembers(ctx, s.idsKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list record ids: %w", err)
	}
	sortIDs(ids)

	cmds := make([]*redis.MapStringStringCmd, len(ids))
	_, err = s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, id := range ids {
			cmds[i] = pipe.HGetAll(ctx, s.recordKey(id))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load records: %w", err)
	}

	records := make([]domain.Record, 0, len(ids))
	for _, cmd := range cmds {
		fields := cmd.Val()
		if len(fields) == 0 {
			continue
		}
		records = append(records, domain.Record{ID: fields["id"], Data: fields["data"], Source: fields["source"]})
	}

	texts := make([]string, len(records))
	for i, r := range records {
		texts[i] = r.Data
	}
	ranked := lexical.Rank(text, texts, topK)
	results := make([]domain.SearchResult, 0, len(ranked))
	for _, r := range ranked {
		results = append(results, domain.SearchResult{Record: records[r.Index], Score: r.Score})
	}
	return results, nil
}

// Count returns the number of stored records.
func (s *Store) Count(ctx context.Context) (int64, error) {
	return s.client.SCard(ctx, s.idsKey()).Result()
}

// sortIDs orders numeric ids numerically and everything else lexically after them.
func sortIDs(ids []string) {
	sort.SliceStable(ids, func(i, j int) bool {
		a, errA := strconv.Atoi(ids[i])
		b, errB := strconv.Atoi(ids[j])
		switch {
		case errA == nil && errB == nil:
			return a < b
		case errA == nil:
			return true
		case errB == nil:
			return false
		default:
			return ids[i] < ids[j]
		}
	})
}
