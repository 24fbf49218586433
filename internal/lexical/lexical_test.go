package lexical

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokens_DropsStopwordsAndLowercases(t *testing.T) {
	assert.Equal(t, []string{"paragraph", "cats"}, Tokens("Paragraph A is about CATS."))
	assert.Equal(t, []string{"paragraph", "a", "is", "about", "cats"}, Words("Paragraph A is about CATS."))
}

func TestTokens_KeepsApostrophesInsideWords(t *testing.T) {
	assert.Equal(t, []string{"dog's", "bowl"}, Tokens("the dog's bowl"))
}

func TestSentences(t *testing.T) {
	assert.Len(t, Sentences("One. Two! Three?"), 3)
	assert.Equal(t, []string{"no terminator"}, Sentences("  no terminator  "))
	assert.Nil(t, Sentences("   "))
}

func TestSentences_KeepsTrailingUnterminatedText(t *testing.T) {
	got := Sentences("One. Two! tail words  ")
	require.Len(t, got, 3)
	assert.Equal(t, "One.", got[0])
	assert.Equal(t, "tail words", got[2])
}

func TestOchiai(t *testing.T) {
	q := TokenSet("cats dogs")
	assert.InDelta(t, 1.0, Ochiai(q, "dogs and cats"), 1e-9)
	assert.InDelta(t, 0.5, Ochiai(q, "cats birds"), 1e-9)
	assert.Zero(t, Ochiai(q, "birds"))
	assert.Zero(t, Ochiai(map[string]struct{}{}, "cats"))
}

func TestRank_OrdersByScoreThenPosition(t *testing.T) {
	texts := []string{"birds only", "cats here", "cats and dogs", "cats there"}
	got := Rank("cats dogs", texts, 0)
	require.Len(t, got, 3)
	assert.Equal(t, 2, got[0].Index)
	assert.Equal(t, 1, got[1].Index)
	assert.Equal(t, 3, got[2].Index)

	assert.Len(t, Rank("cats dogs", texts, 2), 2)
	assert.Empty(t, Rank("zebras", texts, 5))
}
