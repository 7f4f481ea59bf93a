package models

// MatchType identifies which cascade stage produced a match
type MatchType string

const (
	MatchTypeDeterministic MatchType = "deterministic"
	MatchTypeFuzzy         MatchType = "fuzzy"
	MatchTypeLLM           MatchType = "llm"
)

// Match is a confidence-scored link between an incoming identifier and a
// known profile.
type Match struct {
	ProfileID       *string            `json:"profile_id"`
	ProfileName     *string            `json:"profile_name,omitempty"`
	MatchedIdentity *CandidateIdentity `json:"matched_identity"`
	Confidence      float64            `json:"confidence"`
	MatchType       MatchType          `json:"match_type"`
	Reasoning       string             `json:"reasoning,omitempty"`
}

// LLMVerdict is the structured judgement parsed from a model completion
type LLMVerdict struct {
	IsMatch    bool    `json:"is_match"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

// IdentityDescriptor is the minimal identity view handed to the LLM stage
type IdentityDescriptor struct {
	Platform    string `json:"platform"`
	Identifier  string `json:"identifier"`
	DisplayName string `json:"display_name"`
}

// ResolveRequest is the request for the full match cascade
type ResolveRequest struct {
	Identifiers map[Platform]string `json:"identifiers" validate:"required,min=1"`
	DisplayName string              `json:"display_name,omitempty"`
}

// ResolveResponse is the cascade result envelope
type ResolveResponse struct {
	Matches    []Match `json:"matches"`
	MatchCount int     `json:"match_count"`
}
