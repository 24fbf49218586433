// Package lexical holds the word-level text helpers shared by the lexical
// search stores, the TF-IDF embedder, the summarizer and the TUI.
package lexical

import (
	"math"
	"regexp"
	"sort"
	"strings"
)

var (
	wordRe     = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`)
	sentenceRe = regexp.MustCompile(`(?m)(?U)([^.!?]+[.!?])`)
	stopwords  = buildStopwords()
)

// Words returns every lowercased word in text, stopwords included.
func Words(text string) []string {
	return wordRe.FindAllString(strings.ToLower(text), -1)
}

// Tokens returns the lowercased words of text with stopwords removed.
func Tokens(text string) []string {
	raw := Words(text)
	out := raw[:0]
	for _, t := range raw {
		if IsStopword(t) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// TokenSet returns the distinct non-stopword tokens of text.
func TokenSet(text string) map[string]struct{} {
	tokens := Tokens(text)
	m := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		m[t] = struct{}{}
	}
	return m
}

// IsStopword reports whether the lowercased token is a stopword.
func IsStopword(token string) bool {
	_, ok := stopwords[token]
	return ok
}

// Sentences splits text into sentences ending in . ! or ?. Trailing text
// without a terminator is kept, trimmed, as a final sentence.
func Sentences(text string) []string {
	var sentences []string
	end := 0
	for _, loc := range sentenceRe.FindAllStringIndex(text, -1) {
		sentences = append(sentences, text[loc[0]:loc[1]])
		end = loc[1]
	}
	if rest := strings.TrimSpace(text[end:]); rest != "" {
		sentences = append(sentences, rest)
	}
	return sentences
}

// Overlap counts the distinct tokens of text present in query.
func Overlap(query map[string]struct{}, text string) int {
	score := 0
	seen := make(map[string]struct{})
	for _, t := range Tokens(text) {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		if _, ok := query[t]; ok {
			score++
		}
	}
	return score
}

// Ochiai is |A∩B| / sqrt(|A||B|) over the distinct tokens of query and text.
func Ochiai(query map[string]struct{}, text string) float64 {
	set := TokenSet(text)
	if len(query) == 0 || len(set) == 0 {
		return 0
	}
	inter := 0
	for t := range set {
		if _, ok := query[t]; ok {
			inter++
		}
	}
	return float64(inter) / math.Sqrt(float64(len(query))*float64(len(set)))
}

// Scored pairs a candidate position with its score.
type Scored struct {
	Index int
	Score float64
}

// Rank scores every text against query and returns the matches (score > 0)
// best first, ties broken by input position, truncated to topK.
func Rank(query string, texts []string, topK int) []Scored {
	q := TokenSet(query)
	var out []Scored
	for i, text := range texts {
		if s := Ochiai(q, text); s > 0 {
			out = append(out, Scored{Index: i, Score: s})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if topK > 0 && len(out) > topK {
		out = out[:topK]
	}
	return out
}

func buildStopwords() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "for", "to", "of", "in", "on", "at", "by", "with", "as", "is", "are", "was", "were", "be", "been", "being", "it", "this", "that", "these", "those", "from", "up", "down", "over", "under", "again", "further", "than", "so", "such", "into", "about", "between", "through", "during", "before", "after", "above", "below", "out", "off", "own", "same", "too", "very", "can", "will", "just", "don", "should", "now",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
