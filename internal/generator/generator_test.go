package generator

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docqa/internal/domain"
)

type fakeLLM struct {
	reply   string
	err     error
	prompts []string
}

func (f *fakeLLM) Complete(ctx context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.reply, f.err
}

func TestGenerate_ReturnsRawResponse(t *testing.T) {
	llm := &fakeLLM{reply: "  Cats.\n"}
	got, err := New(llm).Generate(context.Background(), "prompt text")
	require.NoError(t, err)
	assert.Equal(t, "  Cats.\n", got)
	assert.Equal(t, []string{"prompt text"}, llm.prompts)
}

func TestGenerate_FailureIsNotRetried(t *testing.T) {
	cause := errors.New("401 unauthorized")
	llm := &fakeLLM{err: cause}
	_, err := New(llm).Generate(context.Background(), "p")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrGenerationUnavailable)
	assert.ErrorIs(t, err, cause)
	assert.Len(t, llm.prompts, 1)
}
