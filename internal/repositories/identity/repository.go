// Package identity persists platform identities and serves the
// candidate pool consumed by the matching stages.
package identity

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/google/uuid"
	"github.com/huandu/go-sqlbuilder"
	"go.uber.org/zap"

	"github.com/Ramsey-B/aster/pkg/database"
	"github.com/Ramsey-B/aster/pkg/models"
	"github.com/Ramsey-B/aster/pkg/tracing"
)

// Repository handles platform identity persistence
type Repository struct {
	db     database.DB
	logger *zap.Logger
}

// NewRepository creates a new identity repository
func NewRepository(db database.DB, logger *zap.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new platform identity. Identifier must already be
// normalized.
func (r *Repository) Create(ctx context.Context, identity *models.PlatformIdentity) (*models.PlatformIdentity, error) {
	ctx, span := tracing.StartSpan(ctx, "identity.Repository.Create")
	defer span.End()

	if identity.ID == "" {
		identity.ID = uuid.New().String()
	}
	identity.CreatedAt = time.Now().UTC()
	identity.UpdatedAt = identity.CreatedAt

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto("platform_identities")
	sb.Cols("id", "profile_id", "platform", "identifier", "display_name", "confidence_score", "verified", "created_at", "updated_at")
	sb.Values(identity.ID, identity.ProfileID, identity.Platform, identity.Identifier, identity.DisplayName, identity.ConfidenceScore, identity.Verified, identity.CreatedAt, identity.UpdatedAt)

	query, args := sb.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.Error("failed to create identity", zap.Error(err), zap.String("identity_id", identity.ID))
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to create identity")
	}

	return identity, nil
}

// Get retrieves an identity by ID
func (r *Repository) Get(ctx context.Context, id string) (*models.PlatformIdentity, error) {
	ctx, span := tracing.StartSpan(ctx, "identity.Repository.Get")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "profile_id", "platform", "identifier", "display_name", "confidence_score", "verified", "created_at", "updated_at")
	sb.From("platform_identities")
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	var identity models.PlatformIdentity
	if err := r.db.GetContext(ctx, &identity, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("identity %s not found", id))
		}
		r.logger.Error("failed to get identity", zap.Error(err), zap.String("identity_id", id))
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get identity")
	}

	return &identity, nil
}

// GetByPlatformIdentifier retrieves the identity with the given
// normalized identifier, enriched with its profile name. Returns
// nil, nil when no such identity exists.
func (r *Repository) GetByPlatformIdentifier(ctx context.Context, platform models.Platform, identifier string) (*models.CandidateIdentity, error) {
	ctx, span := tracing.StartSpan(ctx, "identity.Repository.GetByPlatformIdentifier")
	defer span.End()

	query := `
		SELECT pi.id, pi.profile_id, pi.platform, pi.identifier, pi.display_name, pi.confidence_score, pi.verified, pi.created_at, pi.updated_at, up.canonical_name AS profile_name
		FROM platform_identities pi
		LEFT JOIN unified_profiles up ON up.id = pi.profile_id
		WHERE pi.platform = $1 AND pi.identifier = $2
		LIMIT 1
	`

	var identity models.CandidateIdentity
	if err := r.db.GetContext(ctx, &identity, query, platform, identifier); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, nil
		}
		r.logger.Error("failed to get identity by identifier", zap.Error(err), zap.String("platform", string(platform)))
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get identity")
	}

	return &identity, nil
}

// ListCandidates returns every identity enriched with its profile's
// canonical name. This is the pool the fuzzy and LLM stages scan.
func (r *Repository) ListCandidates(ctx context.Context) ([]models.CandidateIdentity, error) {
	ctx, span := tracing.StartSpan(ctx, "identity.Repository.ListCandidates")
	defer span.End()

	query := `
		SELECT pi.id, pi.profile_id, pi.platform, pi.identifier, pi.display_name, pi.confidence_score, pi.verified, pi.created_at, pi.updated_at, up.canonical_name AS profile_name
		FROM platform_identities pi
		LEFT JOIN unified_profiles up ON up.id = pi.profile_id
		ORDER BY pi.created_at ASC
	`

	candidates := make([]models.CandidateIdentity, 0)
	if err := r.db.SelectContext(ctx, &candidates, query); err != nil {
		r.logger.Error("failed to list candidate identities", zap.Error(err))
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list identities")
	}

	return candidates, nil
}

// ListByProfile retrieves all identities linked to a profile
func (r *Repository) ListByProfile(ctx context.Context, profileID string) ([]models.PlatformIdentity, error) {
	ctx, span := tracing.StartSpan(ctx, "identity.Repository.ListByProfile")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "profile_id", "platform", "identifier", "display_name", "confidence_score", "verified", "created_at", "updated_at")
	sb.From("platform_identities")
	sb.Where(sb.Equal("profile_id", profileID))
	sb.OrderBy("created_at ASC")

	query, args := sb.Build()
	identities := make([]models.PlatformIdentity, 0)
	if err := r.db.SelectContext(ctx, &identities, query, args...); err != nil {
		r.logger.Error("failed to list identities by profile", zap.Error(err), zap.String("profile_id", profileID))
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list identities")
	}

	return identities, nil
}

// LinkToProfile attaches an orphan identity to a profile with the given
// confidence.
func (r *Repository) LinkToProfile(ctx context.Context, identityID, profileID string, confidence float64, verified bool) error {
	ctx, span := tracing.StartSpan(ctx, "identity.Repository.LinkToProfile")
	defer span.End()

	now := time.Now().UTC()
	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update("platform_identities")
	sb.Set(
		sb.Assign("profile_id", profileID),
		sb.Assign("confidence_score", confidence),
		sb.Assign("verified", verified),
		sb.Assign("updated_at", now),
	)
	sb.Where(sb.Equal("id", identityID))

	query, args := sb.Build()
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("failed to link identity to profile", zap.Error(err), zap.String("identity_id", identityID))
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to link identity")
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("identity %s not found", identityID))
	}

	return nil
}

// Count returns the total number of identities
func (r *Repository) Count(ctx context.Context) (int, error) {
	ctx, span := tracing.StartSpan(ctx, "identity.Repository.Count")
	defer span.End()

	var count int
	if err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM platform_identities"); err != nil {
		r.logger.Error("failed to count identities", zap.Error(err))
		return 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to count identities")
	}

	return count, nil
}
