// Package candidate persists match candidates and their review
// transitions.
package candidate

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

const columns = "id, source_identity_id, target_profile_id, match_type, confidence_score, match_details, status, reviewed_by, reviewed_at, created_at, updated_at"

// Repository handles match candidate persistence
type Repository struct {
	db     database.DB
	logger *zap.Logger
}

// NewRepository creates a new match candidate repository
func NewRepository(db database.DB, logger *zap.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a pending candidate. A duplicate of an existing
// identity/profile pair is skipped and the existing candidate returned
// instead.
func (r *Repository) Create(ctx context.Context, candidate *models.MatchCandidate) (*models.MatchCandidate, error) {
	ctx, span := tracing.StartSpan(ctx, "candidate.Repository.Create")
	defer span.End()

	if candidate.ID == "" {
		candidate.ID = uuid.New().String()
	}
	candidate.CreatedAt = time.Now().UTC()
	candidate.UpdatedAt = candidate.CreatedAt
	candidate.Status = models.MatchCandidateStatusPending

	sb := database.NewInsertBuilder()
	ib := sb.InsertInto("match_candidates").
		Cols("id", "source_identity_id", "target_profile_id", "match_type", "confidence_score", "match_details", "status", "created_at", "updated_at").
		Values(candidate.ID, candidate.SourceIdentityID, candidate.TargetProfileID, candidate.MatchType, candidate.ConfidenceScore, candidate.MatchDetails, candidate.Status, candidate.CreatedAt, candidate.UpdatedAt).
		OnConflictDoNothing("source_identity_id", "target_profile_id")

	query, args := ib.Build()
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("failed to create match candidate", zap.Error(err), zap.String("candidate_id", candidate.ID))
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to create match candidate")
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		existing, err := r.getByPair(ctx, candidate.SourceIdentityID, candidate.TargetProfileID)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return existing, nil
		}
	}

	return candidate, nil
}

func (r *Repository) getByPair(ctx context.Context, sourceIdentityID, targetProfileID string) (*models.MatchCandidate, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM match_candidates
		WHERE source_identity_id = $1 AND target_profile_id = $2
		LIMIT 1
	`, columns)

	var candidate models.MatchCandidate
	if err := r.db.GetContext(ctx, &candidate, query, sourceIdentityID, targetProfileID); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, nil
		}
		r.logger.Error("failed to get match candidate by pair", zap.Error(err))
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get match candidate")
	}

	return &candidate, nil
}

// Get retrieves a match candidate by ID
func (r *Repository) Get(ctx context.Context, id string) (*models.MatchCandidate, error) {
	ctx, span := tracing.StartSpan(ctx, "candidate.Repository.Get")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns)
	sb.From("match_candidates")
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	var candidate models.MatchCandidate
	if err := r.db.GetContext(ctx, &candidate, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("match candidate %s not found", id))
		}
		r.logger.Error("failed to get match candidate", zap.Error(err), zap.String("candidate_id", id))
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get match candidate")
	}

	return &candidate, nil
}

// ListByStatus retrieves candidates in a given status, newest first
func (r *Repository) ListByStatus(ctx context.Context, status string) ([]models.MatchCandidate, error) {
	ctx, span := tracing.StartSpan(ctx, "candidate.Repository.ListByStatus")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns)
	sb.From("match_candidates")
	sb.Where(sb.Equal("status", status))
	sb.OrderBy("created_at DESC")

	query, args := sb.Build()
	candidates := make([]models.MatchCandidate, 0)
	if err := r.db.SelectContext(ctx, &candidates, query, args...); err != nil {
		r.logger.Error("failed to list match candidates", zap.Error(err), zap.String("status", status))
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list match candidates")
	}

	return candidates, nil
}

// Resolve moves a pending candidate to approved or rejected. A candidate
// that is not pending yields 409; a missing candidate yields 404.
func (r *Repository) Resolve(ctx context.Context, id, status, reviewedBy string) (*models.MatchCandidate, error) {
	ctx, span := tracing.StartSpan(ctx, "candidate.Repository.Resolve")
	defer span.End()

	now := time.Now().UTC()
	query := `
		UPDATE match_candidates
		SET status = $1, reviewed_by = $2, reviewed_at = $3, updated_at = $3
		WHERE id = $4 AND status = $5
	`

	result, err := r.db.ExecContext(ctx, query, status, reviewedBy, now, id, models.MatchCandidateStatusPending)
	if err != nil {
		r.logger.Error("failed to resolve match candidate", zap.Error(err), zap.String("candidate_id", id))
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to resolve match candidate")
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		// Distinguish an already-reviewed candidate from a missing one
		existing, err := r.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		return nil, httperror.NewHTTPError(http.StatusConflict, fmt.Sprintf("match candidate %s already %s", id, existing.Status))
	}

	return r.Get(ctx, id)
}

// CountPending returns the number of candidates awaiting review
func (r *Repository) CountPending(ctx context.Context) (int, error) {
	ctx, span := tracing.StartSpan(ctx, "candidate.Repository.CountPending")
	defer span.End()

	var count int
	query := "SELECT COUNT(*) FROM match_candidates WHERE status = $1"
	if err := r.db.GetContext(ctx, &count, query, models.MatchCandidateStatusPending); err != nil {
		r.logger.Error("failed to count pending candidates", zap.Error(err))
		return 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to count pending candidates")
	}

	return count, nil
}
