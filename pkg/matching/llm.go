package matching

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/Ramsey-B/aster/pkg/llm"
	"github.com/Ramsey-B/aster/pkg/models"
	"github.com/Ramsey-B/aster/pkg/tracing"
)

// LLMMatcher asks a language model whether two identities belong to the
// same person and parses its JSON verdict.
type LLMMatcher struct {
	client llm.Completer
	logger *zap.Logger
}

// NewLLMMatcher creates the semantic-match stage
func NewLLMMatcher(client llm.Completer, logger *zap.Logger) *LLMMatcher {
	return &LLMMatcher{
		client: client,
		logger: logger,
	}
}

const verdictPrompt = `Determine if these two identities represent the same person.

Identity 1:
- Platform: %s
- Identifier: %s
- Name: %s

Identity 2:
- Platform: %s
- Identifier: %s
- Name: %s

Respond ONLY with a JSON containing keys:
{
  "is_match": true or false,
  "confidence": float between 0.0 and 1.0,
  "reasoning": "detailed explanation"
}`

// Match compares two identities. A transport failure is an error; a
// malformed completion degrades to a non-match verdict.
func (m *LLMMatcher) Match(ctx context.Context, a, b models.IdentityDescriptor) (*models.LLMVerdict, error) {
	ctx, span := tracing.StartSpan(ctx, "matching.LLMMatcher.Match")
	defer span.End()

	prompt := fmt.Sprintf(verdictPrompt,
		orNA(a.Platform), orNA(a.Identifier), orNA(a.DisplayName),
		orNA(b.Platform), orNA(b.Identifier), orNA(b.DisplayName),
	)

	completion, err := m.client.Complete(ctx, prompt)
	if err != nil {
		return nil, err
	}

	verdict := parseVerdict(completion)
	if verdict == nil {
		m.logger.Warn("llm returned unparseable verdict",
			zap.String("completion", completion),
		)
		verdict = &models.LLMVerdict{}
	}

	return verdict, nil
}

// parseVerdict extracts the JSON object between the first '{' and the
// last '}' of the completion. Missing keys take zero values; confidence
// may arrive as a number or a numeric string. Returns nil when no JSON
// object can be decoded.
func parseVerdict(completion string) *models.LLMVerdict {
	start := strings.Index(completion, "{")
	end := strings.LastIndex(completion, "}")
	if start == -1 || end == -1 || end < start {
		return nil
	}

	var raw map[string]any
	if err := json.Unmarshal([]byte(completion[start:end+1]), &raw); err != nil {
		return nil
	}

	verdict := &models.LLMVerdict{}
	if v, ok := raw["is_match"].(bool); ok {
		verdict.IsMatch = v
	}
	switch v := raw["confidence"].(type) {
	case float64:
		verdict.Confidence = v
	case string:
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			verdict.Confidence = f
		}
	}
	if v, ok := raw["reasoning"].(string); ok {
		verdict.Reasoning = v
	}

	return verdict
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
