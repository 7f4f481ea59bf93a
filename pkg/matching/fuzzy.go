package matching

import (
	"context"
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/Ramsey-B/aster/pkg/models"
	"github.com/Ramsey-B/aster/pkg/normalizers"
	"github.com/Ramsey-B/aster/pkg/tracing"
)

// Signal weights for fuzzy confidence. Absent signals renormalize the
// remainder, so an identifier-only comparison still spans [0, 1].
const (
	identifierWeight = 0.6
	nameWeight       = 0.3
	phoneticWeight   = 0.1
)

// Fuzzy scores the incoming identity against every known identity and
// keeps candidates at or above the threshold.
type Fuzzy struct {
	store       Store
	scorer      *Scorer
	logger      *zap.Logger
	phoneRegion string
}

// NewFuzzy creates the fuzzy-match stage
func NewFuzzy(store Store, scorer *Scorer, logger *zap.Logger, phoneRegion string) *Fuzzy {
	return &Fuzzy{
		store:       store,
		scorer:      scorer,
		logger:      logger,
		phoneRegion: phoneRegion,
	}
}

// FindMatches compares the given identifier and display name against the
// full candidate pool. The threshold applies to the raw confidence; only
// the confidence attached to a kept match is rounded to two decimals.
// Results are sorted by confidence descending, ties keeping candidate
// order.
func (m *Fuzzy) FindMatches(ctx context.Context, platform models.Platform, identifier, displayName string, threshold float64) ([]models.Match, error) {
	ctx, span := tracing.StartSpan(ctx, "matching.Fuzzy.FindMatches")
	defer span.End()

	normalized, hasIdentifier := normalizers.ForPlatform(platform, identifier, m.phoneRegion)
	normalizedName, hasName := normalizers.Name(displayName)
	if !hasIdentifier && !hasName {
		return []models.Match{}, nil
	}

	candidates, err := m.store.ListCandidates(ctx)
	if err != nil {
		return nil, err
	}

	matches := make([]models.Match, 0)
	for i := range candidates {
		candidate := &candidates[i]
		confidence := m.score(normalized, hasIdentifier, normalizedName, hasName, candidate)
		if confidence < threshold {
			continue
		}
		matches = append(matches, models.Match{
			ProfileID:       candidate.ProfileID,
			ProfileName:     candidate.ProfileName,
			MatchedIdentity: candidate,
			Confidence:      round2(confidence),
			MatchType:       models.MatchTypeFuzzy,
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Confidence > matches[j].Confidence
	})

	m.logger.Debug("fuzzy matching completed",
		zap.String("platform", string(platform)),
		zap.Int("candidates", len(candidates)),
		zap.Int("matches", len(matches)),
	)

	return matches, nil
}

func (m *Fuzzy) score(identifier string, hasIdentifier bool, name string, hasName bool, candidate *models.CandidateIdentity) float64 {
	identifierSignal := Signal{Weight: identifierWeight}
	if hasIdentifier && candidate.Identifier != "" {
		identifierSignal.Present = true
		identifierSignal.Value = m.scorer.Blend(identifier, candidate.Identifier)
	}

	candidateName, hasCandidateName := normalizers.Name(candidate.BestName())
	namesPresent := hasName && hasCandidateName

	nameSignal := Signal{Weight: nameWeight}
	phoneticSignal := Signal{Weight: phoneticWeight}
	if namesPresent {
		nameSignal.Present = true
		nameSignal.Value = m.scorer.Blend(name, candidateName)
		phoneticSignal.Present = true
		phoneticSignal.Value = m.scorer.PhoneticMatch(name, candidateName)
	}

	return Combine(identifierSignal, nameSignal, phoneticSignal)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
