// Package domain contains the pure values and computations of the arena:
// models, battles, recorded outcomes, and the Elo rating engine.
// Nothing in this package performs I/O; persistence and transport live
// behind the interfaces in internal/ports.
package domain

import "time"

// ModelStatus represents the lifecycle state of a competing model.
type ModelStatus string

const (
	// ModelStatusActive marks a model as eligible for new battles.
	ModelStatusActive ModelStatus = "active"
	// ModelStatusDisabled removes a model from the battle pool without
	// deleting its history. Models referenced by past battles are never
	// hard-deleted.
	ModelStatusDisabled ModelStatus = "disabled"
)

// Model identifies one competing language model. BackendModelID is the
// opaque identifier the backend registry routes on (for example
// "claude-3-5-sonnet-20241022" or "openai/gpt-5-mini"); Name is what
// voters eventually see.
type Model struct {
	ID             string      `json:"id"`
	Name           string      `json:"name"`
	Provider       string      `json:"provider"`
	BackendModelID string      `json:"backend_model_id"`
	Status         ModelStatus `json:"status"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

// Active reports whether the model may be selected for new battles.
func (m Model) Active() bool { return m.Status == ModelStatusActive }

// AuditEntry records one administrative mutation for later review.
type AuditEntry struct {
	ID         uint      `json:"id"`
	AdminID    string    `json:"admin_id"`
	Action     string    `json:"action"`
	TargetType string    `json:"target_type"`
	TargetID   string    `json:"target_id"`
	Details    string    `json:"details"`
	CreatedAt  time.Time `json:"created_at"`
}
