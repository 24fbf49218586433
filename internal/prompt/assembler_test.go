package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docqa/internal/domain"
)

func results(texts ...string) []domain.SearchResult {
	out := make([]domain.SearchResult, len(texts))
	for i, t := range texts {
		out[i] = domain.SearchResult{Record: domain.Record{ID: t, Data: t}, Rank: i + 1}
	}
	return out
}

func TestBuildContext_JoinsInOrder(t *testing.T) {
	assert.Equal(t, "b\na\nc", BuildContext(results("b", "a", "c")))
	assert.Equal(t, "", BuildContext(nil))
}

func TestAssemble_ContextBeforeQuestion(t *testing.T) {
	a := NewAssembler()
	question := "What is Paragraph A about?"
	got, err := a.Assemble(question, results("Paragraph A is about cats.", "s.\n\nParagraph B is about dogs."))
	require.NoError(t, err)

	assert.Contains(t, got, "Paragraph A is about cats.\ns.\n\nParagraph B is about dogs.")
	assert.Equal(t, 1, strings.Count(got, question))
	assert.Less(t, strings.Index(got, "<context>"), strings.Index(got, "<question>"))
	assert.Less(t, strings.Index(got, "cats."), strings.Index(got, question))
	assert.Contains(t, got, InsufficientInformation)
	assert.True(t, strings.HasSuffix(got, "Answer:"))
}

func TestAssemble_EmptyResultsStillValid(t *testing.T) {
	got, err := NewAssembler().Assemble("Anything?", nil)
	require.NoError(t, err)
	assert.Contains(t, got, "<context>\n\n</context>")
	assert.Contains(t, got, "<question>\nAnything?\n</question>")
	assert.Contains(t, got, InsufficientInformation)
}

func TestNewAssemblerWithTemplate(t *testing.T) {
	a, err := NewAssemblerWithTemplate("C={{.Context}} Q={{.Question}} S={{.Sentinel}}")
	require.NoError(t, err)
	got, err := a.Assemble("why", results("x", "y"))
	require.NoError(t, err)
	assert.Equal(t, "C=x\ny Q=why S="+InsufficientInformation, got)

	_, err = NewAssemblerWithTemplate("{{.Broken")
	assert.Error(t, err)
}

func TestNewAssemblerWithTemplate_RequiresEveryField(t *testing.T) {
	cases := map[string]string{
		"Context":  "Q={{.Question}} S={{.Sentinel}}",
		"Question": "C={{.Context}} S={{.Sentinel}}",
		"Sentinel": "C={{.Context}} Q={{.Question}}",
	}
	for field, text := range cases {
		t.Run(field, func(t *testing.T) {
			_, err := NewAssemblerWithTemplate(text)
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrInvalidConfiguration)
			assert.Contains(t, err.Error(), "{{."+field+"}}")
		})
	}

	_, err := NewAssemblerWithTemplate("{{if false}}{{.Context}}{{end}} {{.Question}} {{.Sentinel}}")
	assert.ErrorIs(t, err, domain.ErrInvalidConfiguration)

	_, err = NewAssemblerWithTemplate(DefaultTemplate)
	assert.NoError(t, err)
}
