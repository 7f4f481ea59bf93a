package kafka

import (
	"encoding/json"
	"time"

	"github.com/Ramsey-B/aster/pkg/models"
)

// IncomingMessage wraps a raw Kafka message with parsed headers
type IncomingMessage struct {
	Key       string
	Value     []byte
	Headers   map[string]string
	Partition int
	Offset    int64
	Timestamp time.Time
	Topic     string

	// Trace context extracted from Kafka headers
	TraceParent string

	// Parsed content
	Observation *IdentityObservation
}

// IdentityObservation is an identity sighting published by an upstream
// platform connector. It feeds the same creation flow as the HTTP route.
type IdentityObservation struct {
	Platform    models.Platform `json:"platform"`
	Identifier  string          `json:"identifier"`
	DisplayName string          `json:"display_name,omitempty"`
	AutoMatch   *bool           `json:"auto_match,omitempty"`
	ObservedAt  *time.Time      `json:"observed_at,omitempty"`
}

// ParseObservation parses the message value as an identity observation
func (m *IncomingMessage) ParseObservation() error {
	var obs IdentityObservation
	if err := json.Unmarshal(m.Value, &obs); err != nil {
		return err
	}
	m.Observation = &obs
	return nil
}

// CreateRequest converts the observation into a creation request
func (o *IdentityObservation) CreateRequest() *models.CreateIdentityRequest {
	return &models.CreateIdentityRequest{
		Platform:    o.Platform,
		Identifier:  o.Identifier,
		DisplayName: o.DisplayName,
		AutoMatch:   o.AutoMatch,
	}
}
