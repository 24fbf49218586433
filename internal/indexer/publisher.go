package indexer

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"docqa/internal/domain"
)

// Outcome is the result of uploading a single chunk.
type Outcome struct {
	ID    string
	Chunk int
	Err   error
}

// OK reports whether the record was accepted by the store.
func (o Outcome) OK() bool { return o.Err == nil }

// Report lists one outcome per published chunk, in input order.
type Report struct {
	Outcomes []Outcome
}

// Succeeded returns the number of records accepted by the store.
func (r Report) Succeeded() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.OK() {
			n++
		}
	}
	return n
}

// Failed returns the number of records the store rejected.
func (r Report) Failed() int { return len(r.Outcomes) - r.Succeeded() }

// Failures returns the failed outcomes.
func (r Report) Failures() []Outcome {
	var out []Outcome
	for _, o := range r.Outcomes {
		if !o.OK() {
			out = append(out, o)
		}
	}
	return out
}

// Err joins every failure, or returns nil when all records were accepted.
func (r Report) Err() error {
	var errs []error
	for _, o := range r.Failures() {
		errs = append(errs, o.Err)
	}
	return errors.Join(errs...)
}

// Publisher uploads chunks to a search store one record at a time.
type Publisher struct {
	store       domain.SearchStore
	concurrency int
	logger      zerolog.Logger
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithConcurrency bounds the number of uploads in flight. Values below 1 mean sequential.
func WithConcurrency(n int) Option {
	return func(p *Publisher) {
		if n > 0 {
			p.concurrency = n
		}
	}
}

// WithLogger sets the publisher logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// NewPublisher creates a publisher writing to store.
func NewPublisher(store domain.SearchStore, opts ...Option) *Publisher {
	p := &Publisher{
		store:       store,
		concurrency: 1,
		logger:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// RecordFor maps the chunk at 1-based position to its store record.
func RecordFor(position int, chunk domain.Chunk) domain.Record {
	return domain.Record{
		ID:     strconv.Itoa(position),
		Data:   chunk.Text,
		Source: chunk.Source,
	}
}

// Publish uploads every chunk. A failed upload is recorded and skipped; it
// never stops the remaining uploads.
func (p *Publisher) Publish(ctx context.Context, chunks []domain.Chunk) Report {
	report := Report{Outcomes: make([]Outcome, len(chunks))}
	if len(chunks) == 0 {
		return report
	}

	p.logger.Info().Int("chunks", len(chunks)).Int("concurrency", p.concurrency).Msg("publishing chunks")

	var g errgroup.Group
	g.SetLimit(p.concurrency)
	for i, chunk := range chunks {
		i := i
		rec := RecordFor(i+1, chunk)
		g.Go(func() error {
			report.Outcomes[i] = p.publishOne(ctx, i+1, rec)
			return nil
		})
	}
	_ = g.Wait()

	p.logger.Info().
		Int("succeeded", report.Succeeded()).
		Int("failed", report.Failed()).
		Msg("publish complete")
	return report
}

func (p *Publisher) publishOne(ctx context.Context, position int, rec domain.Record) Outcome {
	out := Outcome{ID: rec.ID, Chunk: position}
	if err := ctx.Err(); err != nil {
		out.Err = fmt.Errorf("%w: record %s: %w", domain.ErrPublishFailure, rec.ID, err)
		return out
	}
	if err := p.store.Upload(ctx, rec); err != nil {
		out.Err = fmt.Errorf("%w: record %s: %w", domain.ErrPublishFailure, rec.ID, err)
		p.logger.Warn().Err(err).Str("id", rec.ID).Msg("upload failed")
		return out
	}
	p.logger.Debug().Str("id", rec.ID).Int("length", len(rec.Data)).Msg("uploaded record")
	return out
}
