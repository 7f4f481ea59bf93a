// Package profile persists unified profiles.
package profile

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

// Repository handles unified profile persistence
type Repository struct {
	db     database.DB
	logger *zap.Logger
}

// NewRepository creates a new profile repository
func NewRepository(db database.DB, logger *zap.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new unified profile
func (r *Repository) Create(ctx context.Context, canonicalName string) (*models.UnifiedProfile, error) {
	ctx, span := tracing.StartSpan(ctx, "profile.Repository.Create")
	defer span.End()

	profile := &models.UnifiedProfile{
		ID:            uuid.New().String(),
		CanonicalName: canonicalName,
		Status:        models.ProfileStatusActive,
		CreatedAt:     time.Now().UTC(),
	}
	profile.UpdatedAt = profile.CreatedAt

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto("unified_profiles")
	sb.Cols("id", "canonical_name", "status", "created_at", "updated_at")
	sb.Values(profile.ID, profile.CanonicalName, profile.Status, profile.CreatedAt, profile.UpdatedAt)

	query, args := sb.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.Error("failed to create profile", zap.Error(err), zap.String("profile_id", profile.ID))
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to create profile")
	}

	return profile, nil
}

// Get retrieves a profile by ID
func (r *Repository) Get(ctx context.Context, id string) (*models.UnifiedProfile, error) {
	ctx, span := tracing.StartSpan(ctx, "profile.Repository.Get")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "canonical_name", "status", "created_at", "updated_at")
	sb.From("unified_profiles")
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	var profile models.UnifiedProfile
	if err := r.db.GetContext(ctx, &profile, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("profile %s not found", id))
		}
		r.logger.Error("failed to get profile", zap.Error(err), zap.String("profile_id", id))
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get profile")
	}

	return &profile, nil
}

// ListActive retrieves all active profiles, newest first
func (r *Repository) ListActive(ctx context.Context) ([]models.UnifiedProfile, error) {
	ctx, span := tracing.StartSpan(ctx, "profile.Repository.ListActive")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "canonical_name", "status", "created_at", "updated_at")
	sb.From("unified_profiles")
	sb.Where(sb.Equal("status", models.ProfileStatusActive))
	sb.OrderBy("created_at DESC")

	query, args := sb.Build()
	profiles := make([]models.UnifiedProfile, 0)
	if err := r.db.SelectContext(ctx, &profiles, query, args...); err != nil {
		r.logger.Error("failed to list profiles", zap.Error(err))
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list profiles")
	}

	return profiles, nil
}

// CountActive returns the number of active profiles
func (r *Repository) CountActive(ctx context.Context) (int, error) {
	ctx, span := tracing.StartSpan(ctx, "profile.Repository.CountActive")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("COUNT(*)")
	sb.From("unified_profiles")
	sb.Where(sb.Equal("status", models.ProfileStatusActive))

	query, args := sb.Build()
	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		r.logger.Error("failed to count profiles", zap.Error(err))
		return 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to count profiles")
	}

	return count, nil
}
