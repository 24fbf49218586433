package summarizer

import (
	"math"
	"sort"
	"strings"

	"docqa/internal/lexical"
)

// DefaultMaxSentences is used when the caller passes a non-positive limit.
const DefaultMaxSentences = 3

// FrequencySummarizer ranks sentences by normalized token frequency.
type FrequencySummarizer struct{}

// NewFrequencySummarizer creates a frequency-based sentence ranker summarizer.
func NewFrequencySummarizer() *FrequencySummarizer {
	return &FrequencySummarizer{}
}

// Summarize picks the maxSentences highest scoring sentences and returns them
// in document order.
func (s *FrequencySummarizer) Summarize(text string, maxSentences int) (string, error) {
	if maxSentences <= 0 {
		maxSentences = DefaultMaxSentences
	}
	sentences := lexical.Sentences(text)
	if len(sentences) == 0 {
		return "", nil
	}

	freq := map[string]float64{}
	for _, sent := range sentences {
		for _, tok := range lexical.Tokens(sent) {
			freq[tok]++
		}
	}
	maxF := 0.0
	for _, v := range freq {
		maxF = math.Max(maxF, v)
	}
	if maxF > 0 {
		for k, v := range freq {
			freq[k] = v / maxF
		}
	}

	type pair struct {
		idx   int
		score float64
	}
	scores := make([]pair, len(sentences))
	for i, sent := range sentences {
		words := lexical.Words(sent)
		score := 0.0
		for _, w := range words {
			score += freq[w]
		}
		// long sentences should not win on length alone
		if n := float64(len(words)); n > 0 {
			score /= math.Sqrt(n)
		}
		scores[i] = pair{i, score}
	}
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].score > scores[j].score })
	if maxSentences > len(scores) {
		maxSentences = len(scores)
	}

	selected := make([]int, maxSentences)
	for i := range selected {
		selected[i] = scores[i].idx
	}
	sort.Ints(selected)
	out := make([]string, 0, len(selected))
	for _, idx := range selected {
		out = append(out, strings.TrimSpace(sentences[idx]))
	}
	return strings.Join(out, " "), nil
}
