package matching

import (
	"context"

	"go.uber.org/zap"

	"github.com/Ramsey-B/aster/pkg/models"
	"github.com/Ramsey-B/aster/pkg/normalizers"
	"github.com/Ramsey-B/aster/pkg/tracing"
)

// Deterministic performs exact matching on normalized identifiers.
// Confidence is fixed at 1.0.
type Deterministic struct {
	store       Store
	logger      *zap.Logger
	phoneRegion string
}

// NewDeterministic creates the exact-match stage
func NewDeterministic(store Store, logger *zap.Logger, phoneRegion string) *Deterministic {
	return &Deterministic{
		store:       store,
		logger:      logger,
		phoneRegion: phoneRegion,
	}
}

// FindExactMatch looks up an identity with the same platform and
// normalized identifier. A store failure is returned to the caller; the
// cascade treats it as "no result for this stage".
func (m *Deterministic) FindExactMatch(ctx context.Context, platform models.Platform, identifier string) (*models.Match, error) {
	ctx, span := tracing.StartSpan(ctx, "matching.Deterministic.FindExactMatch")
	defer span.End()

	normalized, ok := normalizers.ForPlatform(platform, identifier, m.phoneRegion)
	if !ok {
		return nil, nil
	}

	identity, err := m.store.GetByPlatformIdentifier(ctx, platform, normalized)
	if err != nil {
		return nil, err
	}
	if identity == nil {
		return nil, nil
	}

	m.logger.Debug("exact match found",
		zap.String("platform", string(platform)),
		zap.String("identifier", normalized),
	)

	return &models.Match{
		ProfileID:       identity.ProfileID,
		ProfileName:     identity.ProfileName,
		MatchedIdentity: identity,
		Confidence:      1.0,
		MatchType:       models.MatchTypeDeterministic,
	}, nil
}

// FindCrossPlatformMatches runs the exact lookup for each supplied
// identifier, deduplicating by resolved profile so each profile appears
// once. Platforms are visited in canonical order so the result is
// stable. Per-identifier failures degrade to a skip.
func (m *Deterministic) FindCrossPlatformMatches(ctx context.Context, identifiers map[models.Platform]string) []models.Match {
	ctx, span := tracing.StartSpan(ctx, "matching.Deterministic.FindCrossPlatformMatches")
	defer span.End()

	matches := make([]models.Match, 0)
	seen := make(map[string]bool)

	for _, platform := range orderedPlatforms(identifiers) {
		identifier := identifiers[platform]
		match, err := m.FindExactMatch(ctx, platform, identifier)
		if err != nil {
			m.logger.Warn("exact match lookup failed",
				zap.String("platform", string(platform)),
				zap.Error(err),
			)
			continue
		}
		if match == nil || match.ProfileID == nil {
			continue
		}
		if seen[*match.ProfileID] {
			continue
		}
		seen[*match.ProfileID] = true
		matches = append(matches, *match)
	}

	return matches
}

// orderedPlatforms returns the request's platforms in canonical order,
// then any unknown platforms sorted lexically after them.
func orderedPlatforms(identifiers map[models.Platform]string) []models.Platform {
	ordered := make([]models.Platform, 0, len(identifiers))
	for _, p := range models.Platforms {
		if _, ok := identifiers[p]; ok {
			ordered = append(ordered, p)
		}
	}
	extras := make([]models.Platform, 0)
	for p := range identifiers {
		if !models.IsValidPlatform(p) {
			extras = append(extras, p)
		}
	}
	sortPlatforms(extras)
	return append(ordered, extras...)
}

func sortPlatforms(platforms []models.Platform) {
	for i := 1; i < len(platforms); i++ {
		for j := i; j > 0 && platforms[j] < platforms[j-1]; j-- {
			platforms[j], platforms[j-1] = platforms[j-1], platforms[j]
		}
	}
}
