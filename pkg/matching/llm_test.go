package matching

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Ramsey-B/aster/pkg/models"
)

// fakeCompleter returns canned completions in order.
type fakeCompleter struct {
	completions []string
	err         error
	calls       int
	prompts     []string
}

func (f *fakeCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	idx := f.calls - 1
	if idx >= len(f.completions) {
		idx = len(f.completions) - 1
	}
	return f.completions[idx], nil
}

func TestParseVerdict(t *testing.T) {
	tests := []struct {
		name       string
		completion string
		want       *models.LLMVerdict
	}{
		{
			"clean json",
			`{"is_match": true, "confidence": 0.9, "reasoning": "same handle"}`,
			&models.LLMVerdict{IsMatch: true, Confidence: 0.9, Reasoning: "same handle"},
		},
		{
			"json wrapped in prose",
			"Sure! Here is my answer:\n{\"is_match\": true, \"confidence\": 0.75, \"reasoning\": \"close\"}\nHope that helps.",
			&models.LLMVerdict{IsMatch: true, Confidence: 0.75, Reasoning: "close"},
		},
		{
			"confidence as string",
			`{"is_match": true, "confidence": "0.8", "reasoning": "ok"}`,
			&models.LLMVerdict{IsMatch: true, Confidence: 0.8, Reasoning: "ok"},
		},
		{
			"missing keys default",
			`{"irrelevant": 1}`,
			&models.LLMVerdict{},
		},
		{
			"no json at all",
			"I cannot answer that.",
			nil,
		},
		{
			"malformed json",
			`{"is_match": true,`,
			nil,
		},
		{
			"braces out of order",
			"} nothing {",
			nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseVerdict(tt.completion)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLLMMatcherMatch(t *testing.T) {
	a := models.IdentityDescriptor{Platform: "email", Identifier: "sara.j@xyz.com", DisplayName: "Sara Johnson"}
	b := models.IdentityDescriptor{Platform: "instagram", Identifier: "sara_j", DisplayName: "Sara J"}

	t.Run("parses verdict", func(t *testing.T) {
		client := &fakeCompleter{completions: []string{`{"is_match": true, "confidence": 0.9, "reasoning": "matching names"}`}}
		m := NewLLMMatcher(client, zap.NewNop())

		verdict, err := m.Match(context.Background(), a, b)
		require.NoError(t, err)
		assert.True(t, verdict.IsMatch)
		assert.Equal(t, 0.9, verdict.Confidence)
	})

	t.Run("prompt carries both identities", func(t *testing.T) {
		client := &fakeCompleter{completions: []string{`{}`}}
		m := NewLLMMatcher(client, zap.NewNop())

		_, err := m.Match(context.Background(), a, b)
		require.NoError(t, err)
		require.Len(t, client.prompts, 1)
		assert.Contains(t, client.prompts[0], "sara.j@xyz.com")
		assert.Contains(t, client.prompts[0], "sara_j")
	})

	t.Run("empty fields rendered as N/A", func(t *testing.T) {
		client := &fakeCompleter{completions: []string{`{}`}}
		m := NewLLMMatcher(client, zap.NewNop())

		_, err := m.Match(context.Background(), models.IdentityDescriptor{Platform: "email", Identifier: "x@y.com"}, b)
		require.NoError(t, err)
		assert.Contains(t, client.prompts[0], "N/A")
	})

	t.Run("unparseable completion degrades to non-match", func(t *testing.T) {
		client := &fakeCompleter{completions: []string{"no json here"}}
		m := NewLLMMatcher(client, zap.NewNop())

		verdict, err := m.Match(context.Background(), a, b)
		require.NoError(t, err)
		assert.False(t, verdict.IsMatch)
		assert.Equal(t, 0.0, verdict.Confidence)
	})

	t.Run("transport failure is an error", func(t *testing.T) {
		client := &fakeCompleter{err: errors.New("connection refused")}
		m := NewLLMMatcher(client, zap.NewNop())

		_, err := m.Match(context.Background(), a, b)
		assert.Error(t, err)
	})
}
