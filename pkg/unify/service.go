// Package unify implements the identity unification workflows: identity
// ingestion with automatic matching, profile management, and candidate
// review.
package unify

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"go.uber.org/zap"

	"github.com/Ramsey-B/aster/pkg/database"
	"github.com/Ramsey-B/aster/pkg/matching"
	"github.com/Ramsey-B/aster/pkg/models"
	"github.com/Ramsey-B/aster/pkg/normalizers"
	"github.com/Ramsey-B/aster/pkg/tracing"
)

// Config holds the decision thresholds for automatic matching
type Config struct {
	// AutoAcceptThreshold links the identity without review
	AutoAcceptThreshold float64 `env:"AUTO_ACCEPT_THRESHOLD" env-default:"0.85"`
	// ReviewThreshold queues a candidate for human review
	ReviewThreshold float64 `env:"REVIEW_THRESHOLD" env-default:"0.65"`
	// PhoneRegion is the default region for phone parsing
	PhoneRegion string `env:"PHONE_REGION" env-default:"IN"`
}

// ProfileStore is the profile persistence surface the service needs
type ProfileStore interface {
	Create(ctx context.Context, canonicalName string) (*models.UnifiedProfile, error)
	Get(ctx context.Context, id string) (*models.UnifiedProfile, error)
	ListActive(ctx context.Context) ([]models.UnifiedProfile, error)
	CountActive(ctx context.Context) (int, error)
}

// IdentityStore is the identity persistence surface the service needs
type IdentityStore interface {
	Create(ctx context.Context, identity *models.PlatformIdentity) (*models.PlatformIdentity, error)
	Get(ctx context.Context, id string) (*models.PlatformIdentity, error)
	GetByPlatformIdentifier(ctx context.Context, platform models.Platform, identifier string) (*models.CandidateIdentity, error)
	ListCandidates(ctx context.Context) ([]models.CandidateIdentity, error)
	ListByProfile(ctx context.Context, profileID string) ([]models.PlatformIdentity, error)
	LinkToProfile(ctx context.Context, identityID, profileID string, confidence float64, verified bool) error
	Count(ctx context.Context) (int, error)
}

// CandidateStore is the review-queue persistence surface the service needs
type CandidateStore interface {
	Create(ctx context.Context, candidate *models.MatchCandidate) (*models.MatchCandidate, error)
	Get(ctx context.Context, id string) (*models.MatchCandidate, error)
	ListByStatus(ctx context.Context, status string) ([]models.MatchCandidate, error)
	Resolve(ctx context.Context, id, status, reviewedBy string) (*models.MatchCandidate, error)
	CountPending(ctx context.Context) (int, error)
}

// Service orchestrates identity unification
type Service struct {
	profiles   ProfileStore
	identities IdentityStore
	candidates CandidateStore
	cascade    *matching.Cascade
	logger     *zap.Logger
	config     Config
}

// NewService creates the unification service
func NewService(profiles ProfileStore, identities IdentityStore, candidates CandidateStore, cascade *matching.Cascade, logger *zap.Logger, config Config) *Service {
	return &Service{
		profiles:   profiles,
		identities: identities,
		candidates: candidates,
		cascade:    cascade,
		logger:     logger,
		config:     config,
	}
}

// CreateIdentity ingests a new platform identity. With auto-matching
// enabled the cascade decides whether the identity links to an existing
// profile, queues a review candidate, or seeds a new profile.
func (s *Service) CreateIdentity(ctx context.Context, req *models.CreateIdentityRequest) (*models.CreateIdentityResult, error) {
	ctx, span := tracing.StartSpan(ctx, "unify.Service.CreateIdentity")
	defer span.End()

	if !models.IsValidPlatform(req.Platform) {
		return nil, httperror.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("unsupported platform %q", req.Platform))
	}

	normalized, ok := normalizers.ForPlatform(req.Platform, req.Identifier, s.config.PhoneRegion)
	if !ok {
		return nil, httperror.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("invalid %s identifier", req.Platform))
	}

	existing, err := s.identities.GetByPlatformIdentifier(ctx, req.Platform, normalized)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, httperror.NewHTTPErrorf(http.StatusConflict, "identity already exists as %s", existing.ID)
	}

	result := &models.CreateIdentityResult{}
	identity := &models.PlatformIdentity{
		Platform:   req.Platform,
		Identifier: normalized,
	}
	if req.DisplayName != "" {
		name := req.DisplayName
		identity.DisplayName = &name
	}

	var match *models.Match
	if req.WantsAutoMatch() {
		matches, err := s.cascade.Resolve(ctx, map[models.Platform]string{req.Platform: req.Identifier}, req.DisplayName)
		if err != nil {
			s.logger.Warn("cascade failed during identity creation", zap.Error(err))
		} else if len(matches) > 0 {
			match = &matches[0]
		}
	}

	switch {
	// A deterministic hit here means the pair was inserted between the
	// duplicate check above and the cascade lookup. The exact hit still
	// links verified.
	case match != nil && match.ProfileID != nil && match.MatchType == models.MatchTypeDeterministic:
		identity.ProfileID = match.ProfileID
		identity.ConfidenceScore = 1.0
		identity.Verified = true
		result.Match = match

	case match != nil && match.ProfileID != nil && match.Confidence >= s.config.AutoAcceptThreshold:
		identity.ProfileID = match.ProfileID
		identity.ConfidenceScore = match.Confidence
		identity.Verified = false
		result.Match = match
	}

	created, err := s.identities.Create(ctx, identity)
	if err != nil {
		return nil, err
	}
	result.Identity = created

	// Mid-confidence matches queue a candidate instead of linking
	if identity.ProfileID == nil && match != nil && match.ProfileID != nil && match.Confidence >= s.config.ReviewThreshold {
		candidate, err := s.candidates.Create(ctx, &models.MatchCandidate{
			SourceIdentityID: created.ID,
			TargetProfileID:  *match.ProfileID,
			MatchType:        match.MatchType,
			ConfidenceScore:  match.Confidence,
			MatchDetails: database.JSONB[models.MatchDetails]{Data: models.MatchDetails{
				Confidence: match.Confidence,
				MatchType:  match.MatchType,
				Identifier: normalized,
				Reasoning:  match.Reasoning,
			}},
		})
		if err != nil {
			s.logger.Warn("failed to queue match candidate", zap.Error(err), zap.String("identity_id", created.ID))
		} else {
			result.CandidateID = candidate.ID
			result.Match = match
		}
		return result, nil
	}

	// No usable match: seed a fresh profile when we have a name for it
	if identity.ProfileID == nil && req.DisplayName != "" {
		canonicalName, ok := normalizers.Name(req.DisplayName)
		if !ok {
			canonicalName = req.DisplayName
		}
		profile, err := s.profiles.Create(ctx, canonicalName)
		if err != nil {
			return nil, err
		}
		if err := s.identities.LinkToProfile(ctx, created.ID, profile.ID, 1.0, true); err != nil {
			return nil, err
		}
		profileID := profile.ID
		created.ProfileID = &profileID
		created.ConfidenceScore = 1.0
		created.Verified = true
		result.NewProfileCreated = true
	}

	return result, nil
}

// Resolve runs the full match cascade for a set of identifiers.
func (s *Service) Resolve(ctx context.Context, req *models.ResolveRequest) (*models.ResolveResponse, error) {
	ctx, span := tracing.StartSpan(ctx, "unify.Service.Resolve")
	defer span.End()

	if len(req.Identifiers) == 0 {
		return nil, httperror.NewHTTPError(http.StatusBadRequest, "identifiers object is required")
	}

	matches, err := s.cascade.Resolve(ctx, req.Identifiers, req.DisplayName)
	if err != nil {
		return nil, err
	}

	return &models.ResolveResponse{
		Matches:    matches,
		MatchCount: len(matches),
	}, nil
}

// Normalize canonicalizes a single identifier.
func (s *Service) Normalize(req *models.NormalizeRequest) *models.NormalizeResponse {
	normalized, ok := normalizers.ForPlatform(req.Platform, req.Value, s.config.PhoneRegion)
	resp := &models.NormalizeResponse{
		Platform: req.Platform,
		Valid:    ok,
	}
	if ok {
		resp.Normalized = normalized
	}
	return resp
}

// CreateProfile creates a unified profile with a normalized canonical name.
func (s *Service) CreateProfile(ctx context.Context, req *models.CreateProfileRequest) (*models.UnifiedProfile, error) {
	ctx, span := tracing.StartSpan(ctx, "unify.Service.CreateProfile")
	defer span.End()

	canonicalName, ok := normalizers.Name(req.CanonicalName)
	if !ok {
		return nil, httperror.NewHTTPError(http.StatusBadRequest, "canonical_name is required")
	}

	return s.profiles.Create(ctx, canonicalName)
}

// GetProfile returns a profile with its linked identities.
func (s *Service) GetProfile(ctx context.Context, id string) (*models.ProfileWithIdentities, error) {
	ctx, span := tracing.StartSpan(ctx, "unify.Service.GetProfile")
	defer span.End()

	profile, err := s.profiles.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	identities, err := s.identities.ListByProfile(ctx, id)
	if err != nil {
		return nil, err
	}

	return &models.ProfileWithIdentities{
		UnifiedProfile: *profile,
		Identities:     identities,
	}, nil
}

// ListProfiles returns all active profiles with their identities.
func (s *Service) ListProfiles(ctx context.Context) ([]models.ProfileWithIdentities, error) {
	ctx, span := tracing.StartSpan(ctx, "unify.Service.ListProfiles")
	defer span.End()

	profiles, err := s.profiles.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]models.ProfileWithIdentities, 0, len(profiles))
	for _, p := range profiles {
		identities, err := s.identities.ListByProfile(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, models.ProfileWithIdentities{
			UnifiedProfile: p,
			Identities:     identities,
		})
	}

	return out, nil
}

// ListIdentities returns every identity with its profile's canonical
// name.
func (s *Service) ListIdentities(ctx context.Context) ([]models.CandidateIdentity, error) {
	ctx, span := tracing.StartSpan(ctx, "unify.Service.ListIdentities")
	defer span.End()

	return s.identities.ListCandidates(ctx)
}

// ListCandidates returns review candidates in the given status,
// defaulting to pending.
func (s *Service) ListCandidates(ctx context.Context, status string) ([]models.MatchCandidate, error) {
	ctx, span := tracing.StartSpan(ctx, "unify.Service.ListCandidates")
	defer span.End()

	if status == "" {
		status = models.MatchCandidateStatusPending
	}
	if status != models.MatchCandidateStatusPending &&
		status != models.MatchCandidateStatusApproved &&
		status != models.MatchCandidateStatusRejected {
		return nil, httperror.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("unknown candidate status %q", status))
	}

	return s.candidates.ListByStatus(ctx, status)
}

// ApproveCandidate approves a pending candidate and links its source
// identity to the target profile.
func (s *Service) ApproveCandidate(ctx context.Context, id, reviewedBy string) (*models.MatchCandidate, error) {
	ctx, span := tracing.StartSpan(ctx, "unify.Service.ApproveCandidate")
	defer span.End()

	if reviewedBy == "" {
		reviewedBy = "admin"
	}

	candidate, err := s.candidates.Resolve(ctx, id, models.MatchCandidateStatusApproved, reviewedBy)
	if err != nil {
		return nil, err
	}

	if err := s.identities.LinkToProfile(ctx, candidate.SourceIdentityID, candidate.TargetProfileID, candidate.ConfidenceScore, true); err != nil {
		return nil, err
	}

	s.logger.Info("approved match candidate",
		zap.String("candidate_id", candidate.ID),
		zap.String("reviewed_by", reviewedBy),
	)

	return candidate, nil
}

// RejectCandidate rejects a pending candidate. The source identity
// stays unlinked.
func (s *Service) RejectCandidate(ctx context.Context, id, reviewedBy string) (*models.MatchCandidate, error) {
	ctx, span := tracing.StartSpan(ctx, "unify.Service.RejectCandidate")
	defer span.End()

	if reviewedBy == "" {
		reviewedBy = "admin"
	}

	candidate, err := s.candidates.Resolve(ctx, id, models.MatchCandidateStatusRejected, reviewedBy)
	if err != nil {
		return nil, err
	}

	s.logger.Info("rejected match candidate",
		zap.String("candidate_id", candidate.ID),
		zap.String("reviewed_by", reviewedBy),
	)

	return candidate, nil
}

// Stats summarizes profile, identity, and review-queue counts.
func (s *Service) Stats(ctx context.Context) (*models.Stats, error) {
	ctx, span := tracing.StartSpan(ctx, "unify.Service.Stats")
	defer span.End()

	profiles, err := s.profiles.CountActive(ctx)
	if err != nil {
		return nil, err
	}
	identities, err := s.identities.Count(ctx)
	if err != nil {
		return nil, err
	}
	pending, err := s.candidates.CountPending(ctx)
	if err != nil {
		return nil, err
	}

	return &models.Stats{
		TotalProfiles:   profiles,
		TotalIdentities: identities,
		PendingReviews:  pending,
	}, nil
}
