package entities

import "time"

// Audit actions.
const (
	ActionVariableDefined   = "variable.defined"
	ActionVariableSet       = "variable.set"
	ActionPointRegistered   = "point.registered"
	ActionPointVerified     = "point.verified"
	ActionPointReclassified = "point.reclassified"
	ActionPointDeactivated  = "point.deactivated"
	ActionStagedActivated   = "staged.activated"
)

// AuditEntry represents a logged change to a variable or point.
type AuditEntry struct {
	ID        int64          `json:"id"`
	Action    string         `json:"action"`
	SubjectID string         `json:"subject_id,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}
