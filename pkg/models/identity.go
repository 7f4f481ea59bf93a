package models

import "time"

// Platform identifies the source system an identifier was observed on
type Platform string

const (
	PlatformEmail     Platform = "email"
	PlatformWhatsApp  Platform = "whatsapp"
	PlatformDashboard Platform = "dashboard"
	PlatformInstagram Platform = "instagram"
)

// Platforms lists the supported platforms in canonical order. The order
// matters: cross-platform matching and probe selection iterate it so
// results are deterministic regardless of request map ordering.
var Platforms = []Platform{PlatformEmail, PlatformWhatsApp, PlatformDashboard, PlatformInstagram}

// IsValidPlatform reports whether p is a supported platform
func IsValidPlatform(p Platform) bool {
	for _, known := range Platforms {
		if p == known {
			return true
		}
	}
	return false
}

// PlatformIdentity is one observed identifier on one platform. ProfileID
// is nil while the identity is an unmatched orphan.
type PlatformIdentity struct {
	ID              string     `json:"id" db:"id"`
	ProfileID       *string    `json:"profile_id,omitempty" db:"profile_id"`
	Platform        Platform   `json:"platform" db:"platform"`
	Identifier      string     `json:"identifier" db:"identifier"`
	DisplayName     *string    `json:"display_name,omitempty" db:"display_name"`
	ConfidenceScore float64    `json:"confidence_score" db:"confidence_score"`
	Verified        bool       `json:"verified" db:"verified"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at" db:"updated_at"`
}

// CandidateIdentity is a platform identity enriched with the canonical
// name of its linked profile, as returned by the candidate pool query.
type CandidateIdentity struct {
	PlatformIdentity
	ProfileName *string `json:"profile_name,omitempty" db:"profile_name"`
}

// BestName returns the display name if present, falling back to the
// linked profile's canonical name. Empty string when neither exists.
func (c *CandidateIdentity) BestName() string {
	if c.DisplayName != nil && *c.DisplayName != "" {
		return *c.DisplayName
	}
	if c.ProfileName != nil {
		return *c.ProfileName
	}
	return ""
}

// CreateIdentityRequest is the request to ingest a new platform identity
type CreateIdentityRequest struct {
	Platform    Platform `json:"platform" validate:"required"`
	Identifier  string   `json:"identifier" validate:"required"`
	DisplayName string   `json:"display_name,omitempty"`
	AutoMatch   *bool    `json:"auto_match,omitempty"` // defaults to true
}

// WantsAutoMatch reports whether the request opted into automatic matching
func (r *CreateIdentityRequest) WantsAutoMatch() bool {
	return r.AutoMatch == nil || *r.AutoMatch
}

// CreateIdentityResult describes the outcome of the identity-creation flow
type CreateIdentityResult struct {
	Identity          *PlatformIdentity `json:"identity"`
	Match             *Match            `json:"match_result,omitempty"`
	NewProfileCreated bool              `json:"new_profile_created"`
	CandidateID       string            `json:"candidate_id,omitempty"`
}

// NormalizeRequest is the request to normalize a raw identifier
type NormalizeRequest struct {
	Platform Platform `json:"platform" validate:"required"`
	Value    string   `json:"value" validate:"required"`
}

// NormalizeResponse carries the canonical form of an identifier, or
// valid=false when the input could not be normalized.
type NormalizeResponse struct {
	Platform   Platform `json:"platform"`
	Normalized string   `json:"normalized,omitempty"`
	Valid      bool     `json:"valid"`
}
