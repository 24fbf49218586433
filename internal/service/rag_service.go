package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"docqa/internal/domain"
	"docqa/internal/generator"
	"docqa/internal/indexer"
	"docqa/internal/loader"
	"docqa/internal/prompt"
	"docqa/internal/retriever"
)

const (
	DefaultTopK             = 2
	DefaultSummarySentences = 3
)

// IngestResult describes one ingested document.
type IngestResult struct {
	Source  string
	Chunks  []domain.Chunk
	Report  indexer.Report
	Summary string
}

// Answer is the model response together with what produced it. Sources are
// the retrieved records; they are not cited in Text.
type Answer struct {
	Text    string
	Prompt  string
	Sources []domain.SearchResult
}

// RAGService runs ingestion (chunk, publish) and questions (retrieve,
// assemble, generate) over injected components.
type RAGService struct {
	chunker   domain.Chunker
	publisher *indexer.Publisher
	retriever *retriever.Retriever
	assembler *prompt.Assembler
	generator *generator.Generator

	summarizer       domain.Summarizer
	summarySentences int
	topK             int
	observe          func(Stage)
	logger           zerolog.Logger
}

type Option func(*RAGService)

func WithLogger(logger zerolog.Logger) Option {
	return func(s *RAGService) { s.logger = logger }
}

// WithTopK sets how many records each question retrieves.
func WithTopK(k int) Option {
	return func(s *RAGService) { s.topK = k }
}

// WithSummarizer enables a short summary of every ingested document.
func WithSummarizer(sum domain.Summarizer, maxSentences int) Option {
	return func(s *RAGService) {
		s.summarizer = sum
		s.summarySentences = maxSentences
	}
}

// WithStageObserver registers fn to be called on every query stage transition.
func WithStageObserver(fn func(Stage)) Option {
	return func(s *RAGService) { s.observe = fn }
}

func NewRAGService(
	chunker domain.Chunker,
	publisher *indexer.Publisher,
	retriever *retriever.Retriever,
	assembler *prompt.Assembler,
	generator *generator.Generator,
	opts ...Option,
) *RAGService {
	s := &RAGService{
		chunker:          chunker,
		publisher:        publisher,
		retriever:        retriever,
		assembler:        assembler,
		generator:        generator,
		summarySentences: DefaultSummarySentences,
		topK:             DefaultTopK,
		logger:           zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ingest loads path and indexes it.
func (s *RAGService) Ingest(ctx context.Context, path string) (*IngestResult, error) {
	doc, err := loader.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return s.IngestDocument(ctx, doc)
}

// IngestDocument chunks doc and publishes every chunk. Per-record failures
// are reported in the result, not returned as an error.
func (s *RAGService) IngestDocument(ctx context.Context, doc domain.Document) (*IngestResult, error) {
	start := time.Now()
	chunks, err := s.chunker.Split(doc)
	if err != nil {
		return nil, err
	}
	report := s.publisher.Publish(ctx, chunks)

	res := &IngestResult{Source: doc.Source, Chunks: chunks, Report: report}
	if s.summarizer != nil {
		summary, err := s.summarizer.Summarize(doc.Text, s.summarySentences)
		if err != nil {
			s.logger.Warn().Err(err).Str("source", doc.Source).Msg("summary failed")
		}
		res.Summary = summary
	}

	ev := s.logger.Info()
	if report.Failed() > 0 {
		ev = s.logger.Warn().Err(report.Err())
	}
	ev.Str("source", doc.Source).
		Int("chunks", len(chunks)).
		Int("succeeded", report.Succeeded()).
		Int("failed", report.Failed()).
		Dur("took", time.Since(start)).
		Msg("document ingested")
	return res, nil
}

// Ask answers question from the indexed records. The first failing stage
// aborts the query with a *QueryError.
func (s *RAGService) Ask(ctx context.Context, question string) (*Answer, error) {
	s.transition(StageIdle)

	s.transition(StageRetrieving)
	results, err := s.retriever.Search(ctx, question, s.topK)
	if err != nil {
		return nil, s.fail(StageRetrieving, err)
	}

	s.transition(StageAssembling)
	text, err := s.assembler.Assemble(question, results)
	if err != nil {
		return nil, s.fail(StageAssembling, err)
	}

	s.transition(StageGenerating)
	answer, err := s.generator.Generate(ctx, text)
	if err != nil {
		return nil, s.fail(StageGenerating, err)
	}

	s.transition(StageDone)
	s.logger.Info().Int("sources", len(results)).Msg("question answered")
	return &Answer{Text: answer, Prompt: text, Sources: results}, nil
}

func (s *RAGService) transition(stage Stage) {
	if s.observe != nil {
		s.observe(stage)
	}
}

func (s *RAGService) fail(stage Stage, err error) error {
	s.transition(StageFailed)
	s.logger.Error().Err(err).Stringer("stage", stage).Msg("query failed")
	return &QueryError{Stage: stage, Err: err}
}
