package chunker

import (
	"fmt"
	"strings"

	"docqa/internal/domain"
)

const (
	DefaultMaxSize = 5000
	DefaultOverlap = 20
)

// DefaultSeparators goes from paragraph to line to sentence to word to character.
var DefaultSeparators = []string{"\n\n", "\n", ". ", " ", ""}

// RecursiveChunker splits text on a hierarchy of separators, preferring the
// coarsest boundary that keeps pieces within maxSize, then stitches adjacent
// pieces together with a fixed character overlap.
//
// All lengths are counted in runes.
type RecursiveChunker struct {
	maxSize    int
	overlap    int
	separators []string
}

// Option configures a RecursiveChunker.
type Option func(*RecursiveChunker)

// WithSeparators replaces the separator hierarchy. The empty separator is
// appended when missing so that splitting always terminates.
func WithSeparators(separators ...string) Option {
	return func(c *RecursiveChunker) {
		if len(separators) == 0 {
			return
		}
		seps := append([]string(nil), separators...)
		if seps[len(seps)-1] != "" {
			seps = append(seps, "")
		}
		c.separators = seps
	}
}

// NewRecursiveChunker validates the size parameters and returns a chunker.
func NewRecursiveChunker(maxSize, overlap int, opts ...Option) (*RecursiveChunker, error) {
	if maxSize <= 0 {
		return nil, fmt.Errorf("%w: max size must be positive, got %d", domain.ErrInvalidConfiguration, maxSize)
	}
	if overlap < 0 || overlap >= maxSize {
		return nil, fmt.Errorf("%w: overlap must be in [0, %d), got %d", domain.ErrInvalidConfiguration, maxSize, overlap)
	}
	c := &RecursiveChunker{
		maxSize:    maxSize,
		overlap:    overlap,
		separators: DefaultSeparators,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Split is a convenience wrapper building a chunker for a single document.
func Split(doc domain.Document, maxSize, overlap int) ([]domain.Chunk, error) {
	c, err := NewRecursiveChunker(maxSize, overlap)
	if err != nil {
		return nil, err
	}
	return c.Split(doc)
}

// MaxSize returns the configured maximum chunk length.
func (c *RecursiveChunker) MaxSize() int { return c.maxSize }

// Overlap returns the configured overlap length.
func (c *RecursiveChunker) Overlap() int { return c.overlap }

// Split turns a document into ordered chunks carrying the document's source.
func (c *RecursiveChunker) Split(doc domain.Document) ([]domain.Chunk, error) {
	texts := c.SplitText(doc.Text)
	chunks := make([]domain.Chunk, len(texts))
	for i, text := range texts {
		chunks[i] = domain.Chunk{
			Index:  i + 1,
			Text:   text,
			Source: doc.Source,
		}
	}
	return chunks, nil
}

// SplitText returns the chunk texts for text. Every chunk is a substring of
// text. Empty input yields no chunks.
func (c *RecursiveChunker) SplitText(text string) []string {
	if text == "" {
		return nil
	}
	src := []rune(text)
	if len(src) <= c.maxSize {
		return []string{text}
	}
	pieces := c.split(src, span{0, len(src)}, c.separators)
	out := make([]string, len(pieces))
	for i, sp := range c.stitch(pieces) {
		out[i] = string(src[sp.start:sp.end])
	}
	return out
}

// span is a half-open rune range of the source text.
type span struct{ start, end int }

func (s span) len() int { return s.end - s.start }

// split breaks sp into pieces no longer than maxSize. Pieces are grouped up
// to maxSize-overlap so the overlap can later be prepended without trimming.
func (c *RecursiveChunker) split(src []rune, sp span, separators []string) []span {
	if sp.len() <= c.maxSize {
		return []span{sp}
	}
	sep, finer := pickSeparator(string(src[sp.start:sp.end]), separators)

	var pieces []span
	for _, group := range c.merge(splitSpan(src, sp, []rune(sep))) {
		if group.len() > c.maxSize {
			pieces = append(pieces, c.split(src, group, finer)...)
			continue
		}
		pieces = append(pieces, group)
	}
	return pieces
}

// merge greedily extends a group over consecutive parts while the source
// range it covers, separators included, fits the piece budget. A single part
// over budget becomes its own group.
func (c *RecursiveChunker) merge(parts []span) []span {
	budget := c.maxSize - c.overlap

	var groups []span
	var current span
	open := false
	for _, part := range parts {
		if part.len() == 0 {
			continue
		}
		if open && part.end-current.start > budget {
			groups = append(groups, current)
			open = false
		}
		if !open {
			current = part
			open = true
			continue
		}
		current.end = part.end
	}
	if open {
		groups = append(groups, current)
	}
	return groups
}

// stitch extends each piece after the first backwards by up to overlap runes
// of the source, so the overlap includes the separator dropped between the
// pieces. The extension is trimmed to keep the chunk within maxSize and never
// reaches past the start of the previous piece.
func (c *RecursiveChunker) stitch(pieces []span) []span {
	out := make([]span, len(pieces))
	for i, piece := range pieces {
		if i == 0 || c.overlap == 0 {
			out[i] = piece
			continue
		}
		n := min(c.overlap, c.maxSize-piece.len())
		start := max(piece.start-n, pieces[i-1].start)
		out[i] = span{start, piece.end}
	}
	return out
}

// pickSeparator returns the first separator present in text and the finer
// separators after it. The empty separator always matches.
func pickSeparator(text string, separators []string) (string, []string) {
	for i, sep := range separators {
		if sep == "" || strings.Contains(text, sep) {
			return sep, separators[i+1:]
		}
	}
	return "", nil
}

// splitSpan cuts sp at every non-overlapping occurrence of sep, scanning left
// to right. The returned parts exclude the separators. An empty sep yields
// one part per rune.
func splitSpan(src []rune, sp span, sep []rune) []span {
	if len(sep) == 0 {
		parts := make([]span, 0, sp.len())
		for i := sp.start; i < sp.end; i++ {
			parts = append(parts, span{i, i + 1})
		}
		return parts
	}
	var parts []span
	from := sp.start
	for i := sp.start; i+len(sep) <= sp.end; {
		if hasPrefixAt(src, i, sep) {
			parts = append(parts, span{from, i})
			i += len(sep)
			from = i
			continue
		}
		i++
	}
	return append(parts, span{from, sp.end})
}

func hasPrefixAt(src []rune, i int, prefix []rune) bool {
	for j, r := range prefix {
		if src[i+j] != r {
			return false
		}
	}
	return true
}
