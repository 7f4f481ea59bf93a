package models

import "time"

// ProfileStatus is the lifecycle state of a unified profile
type ProfileStatus string

const (
	ProfileStatusActive   ProfileStatus = "active"
	ProfileStatusInactive ProfileStatus = "inactive"
	ProfileStatusMerged   ProfileStatus = "merged" // reserved for a future merge workflow
)

// UnifiedProfile is the canonical record for one real-world person
type UnifiedProfile struct {
	ID            string        `json:"id" db:"id"`
	CanonicalName string        `json:"canonical_name" db:"canonical_name"`
	Status        ProfileStatus `json:"status" db:"status"`
	CreatedAt     time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at" db:"updated_at"`
}

// ProfileWithIdentities is a profile together with its linked platform identities
type ProfileWithIdentities struct {
	UnifiedProfile
	Identities []PlatformIdentity `json:"identities"`
}

// CreateProfileRequest is the request to create a unified profile
type CreateProfileRequest struct {
	CanonicalName string `json:"canonical_name" validate:"required"`
}

// Stats summarizes the state of the unification store
type Stats struct {
	TotalProfiles   int `json:"total_profiles"`
	TotalIdentities int `json:"total_identities"`
	PendingReviews  int `json:"pending_reviews"`
}
