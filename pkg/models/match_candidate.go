package models

import (
	"time"

	"github.com/Ramsey-B/aster/pkg/database"
)

// MatchCandidateStatus constants. Pending is the only state a candidate
// can transition out of; approved and rejected are terminal.
const (
	MatchCandidateStatusPending  = "pending"
	MatchCandidateStatusApproved = "approved"
	MatchCandidateStatusRejected = "rejected"
)

// MatchCandidate is an unresolved match proposal awaiting human review
type MatchCandidate struct {
	ID               string                       `json:"id" db:"id"`
	SourceIdentityID string                       `json:"source_identity_id" db:"source_identity_id"`
	TargetProfileID  string                       `json:"target_profile_id" db:"target_profile_id"`
	MatchType        MatchType                    `json:"match_type" db:"match_type"`
	ConfidenceScore  float64                      `json:"confidence_score" db:"confidence_score"`
	MatchDetails     database.JSONB[MatchDetails] `json:"match_details" db:"match_details"`
	Status           string                       `json:"status" db:"status"`
	ReviewedBy       *string                      `json:"reviewed_by,omitempty" db:"reviewed_by"`
	ReviewedAt       *time.Time                   `json:"reviewed_at,omitempty" db:"reviewed_at"`
	CreatedAt        time.Time                    `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time                    `json:"updated_at" db:"updated_at"`
}

// MatchDetails is the evidence payload stored alongside a candidate
type MatchDetails struct {
	Confidence float64   `json:"confidence"`
	MatchType  MatchType `json:"match_type"`
	Identifier string    `json:"identifier,omitempty"`
	Reasoning  string    `json:"reasoning,omitempty"`
}

// ReviewRequest carries the reviewer identity for an approve/reject transition
type ReviewRequest struct {
	ReviewedBy string `json:"reviewed_by"`
}
