package domain

import "context"

// Chunker splits a document into retrievable chunks.
type Chunker interface {
	Split(doc Document) ([]Chunk, error)
}

// SearchStore is the external index the core uploads to and queries.
// Upload replaces any record with the same id.
type SearchStore interface {
	Upload(ctx context.Context, rec Record) error
	Query(ctx context.Context, text string, topK int) ([]SearchResult, error)
}

// Completer is the external language model.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Summarizer produces a brief summary of the provided text.
type Summarizer interface {
	Summarize(text string, maxSentences int) (string, error)
}
