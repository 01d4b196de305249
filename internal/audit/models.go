package audit

import (
	"time"

	"github.com/google/uuid"
)

// Event is emitted from domain logic to capture key scoring actions. Keep
// it transport-agnostic so sinks can fan out.
type Event struct {
	ID        string         `json:"id"`
	Timestamp time.Time      `json:"timestamp"`
	Action    string         `json:"action"`
	Subject   string         `json:"subject"`
	Actor     string         `json:"actor,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
}

// Actions recorded by the scoring pipeline.
const (
	ActionBatchPrepared  = "batch.prepared"
	ActionEntityScored   = "entity.scored"
	ActionEntityNotFound = "entity.not_found"
)

// NewEvent stamps id and timestamp so callers only fill the business
// fields.
func NewEvent(action, subject string, details map[string]any) Event {
	return Event{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Action:    action,
		Subject:   subject,
		Details:   details,
	}
}
