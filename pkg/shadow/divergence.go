package shadow

import (
	"time"

	"github.com/google/uuid"
)

// OutcomeField is the Field of the divergence reported when exactly one of
// the two adapters failed.
const OutcomeField = "outcome"

// Divergence is one field whose legacy and new values differ.
type Divergence struct {
	ID          uuid.UUID `json:"id" yaml:"id"`
	EntityKey   string    `json:"entity_key" yaml:"entity_key"`
	EntityID    string    `json:"entity_id" yaml:"entity_id"`
	Field       string    `json:"field" yaml:"field"`
	LegacyValue any       `json:"legacy_value" yaml:"legacy_value"`
	NewValue    any       `json:"new_value" yaml:"new_value"`
	Timestamp   time.Time `json:"timestamp" yaml:"timestamp"`
}

// Payload renders the divergence as a telemetry payload.
func (d Divergence) Payload() map[string]any {
	return map[string]any{
		"divergence_id": d.ID.String(),
		"field":         d.Field,
		"legacy":        d.LegacyValue,
		"new":           d.NewValue,
	}
}
