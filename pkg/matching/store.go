package matching

import (
	"context"

	"github.com/Ramsey-B/aster/pkg/models"
)

// Store is the narrow persistence surface the matchers depend on. The
// concrete implementation lives in internal/repositories; matchers take
// it by constructor injection so stages can be exercised with fakes.
type Store interface {
	// GetByPlatformIdentifier returns the identity with the given
	// normalized identifier, or nil when none exists.
	GetByPlatformIdentifier(ctx context.Context, platform models.Platform, identifier string) (*models.CandidateIdentity, error)

	// ListCandidates returns every known identity enriched with its
	// profile's canonical name.
	ListCandidates(ctx context.Context) ([]models.CandidateIdentity, error)
}
