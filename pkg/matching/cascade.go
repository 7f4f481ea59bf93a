package matching

import (
	"context"

	"go.uber.org/zap"

	"github.com/Ramsey-B/aster/pkg/models"
	"github.com/Ramsey-B/aster/pkg/normalizers"
	"github.com/Ramsey-B/aster/pkg/tracing"
)

// CascadeConfig holds the stage thresholds
type CascadeConfig struct {
	// FuzzyThreshold is the minimum fuzzy confidence kept as a match
	FuzzyThreshold float64 `env:"FUZZY_THRESHOLD" env-default:"0.65"`
	// LLMFloor is the minimum LLM confidence accepted as a match
	LLMFloor float64 `env:"LLM_FLOOR" env-default:"0.65"`
}

// Cascade runs the three matching stages in order, stopping at the
// first stage that produces any matches. An empty result from every
// stage is a successful "no match", not an error.
type Cascade struct {
	deterministic *Deterministic
	fuzzy         *Fuzzy
	llm           *LLMMatcher
	store         Store
	logger        *zap.Logger
	config        CascadeConfig
	phoneRegion   string
}

// NewCascade creates the match orchestrator
func NewCascade(deterministic *Deterministic, fuzzy *Fuzzy, llm *LLMMatcher, store Store, logger *zap.Logger, config CascadeConfig, phoneRegion string) *Cascade {
	return &Cascade{
		deterministic: deterministic,
		fuzzy:         fuzzy,
		llm:           llm,
		store:         store,
		logger:        logger,
		config:        config,
		phoneRegion:   phoneRegion,
	}
}

// Resolve runs the cascade for a set of platform identifiers plus an
// optional display name. Stage failures degrade: a failed stage logs
// and falls through, and when every stage's collaborator fails the
// caller gets an empty match list rather than an error.
func (c *Cascade) Resolve(ctx context.Context, identifiers map[models.Platform]string, displayName string) ([]models.Match, error) {
	ctx, span := tracing.StartSpan(ctx, "matching.Cascade.Resolve")
	defer span.End()

	matches := c.deterministic.FindCrossPlatformMatches(ctx, identifiers)
	if len(matches) > 0 {
		c.logger.Debug("cascade resolved deterministically", zap.Int("matches", len(matches)))
		return matches, nil
	}

	probePlatform, probeIdentifier, ok := c.probe(identifiers)
	if !ok {
		return []models.Match{}, nil
	}

	matches, err := c.fuzzy.FindMatches(ctx, probePlatform, probeIdentifier, displayName, c.config.FuzzyThreshold)
	if err != nil {
		c.logger.Warn("fuzzy stage failed, falling through to llm", zap.Error(err))
	} else if len(matches) > 0 {
		c.logger.Debug("cascade resolved fuzzily", zap.Int("matches", len(matches)))
		return matches, nil
	}

	return c.llmStage(ctx, probePlatform, probeIdentifier, displayName), nil
}

// probe picks the first usable identifier in canonical platform order.
func (c *Cascade) probe(identifiers map[models.Platform]string) (models.Platform, string, bool) {
	for _, platform := range orderedPlatforms(identifiers) {
		if identifier := identifiers[platform]; identifier != "" {
			return platform, identifier, true
		}
	}
	return "", "", false
}

func (c *Cascade) llmStage(ctx context.Context, platform models.Platform, identifier, displayName string) []models.Match {
	ctx, span := tracing.StartSpan(ctx, "matching.Cascade.llmStage")
	defer span.End()

	candidates, err := c.store.ListCandidates(ctx)
	if err != nil {
		c.logger.Warn("llm stage failed to load candidate pool", zap.Error(err))
		return []models.Match{}
	}

	source := models.IdentityDescriptor{
		Platform:    string(platform),
		Identifier:  identifier,
		DisplayName: displayName,
	}

	matches := make([]models.Match, 0)
	for i := range candidates {
		candidate := &candidates[i]
		target := models.IdentityDescriptor{
			Platform:    string(candidate.Platform),
			Identifier:  candidate.Identifier,
			DisplayName: candidate.BestName(),
		}

		verdict, err := c.llm.Match(ctx, source, target)
		if err != nil {
			c.logger.Warn("llm comparison failed",
				zap.String("candidate_id", candidate.ID),
				zap.Error(err),
			)
			continue
		}
		if !verdict.IsMatch || verdict.Confidence < c.config.LLMFloor {
			continue
		}

		matches = append(matches, models.Match{
			ProfileID:       candidate.ProfileID,
			ProfileName:     candidate.ProfileName,
			MatchedIdentity: candidate,
			Confidence:      round2(verdict.Confidence),
			MatchType:       models.MatchTypeLLM,
			Reasoning:       verdict.Reasoning,
		})
	}

	c.logger.Debug("llm stage completed",
		zap.Int("candidates", len(candidates)),
		zap.Int("matches", len(matches)),
	)

	return matches
}

// NormalizeIdentifier exposes per-platform normalization for the API's
// normalize endpoint.
func (c *Cascade) NormalizeIdentifier(platform models.Platform, raw string) (string, bool) {
	return normalizers.ForPlatform(platform, raw, c.phoneRegion)
}
