package application

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/promptarena/arena/internal/domain"
	"github.com/promptarena/arena/internal/ports"
)

// Admin manages the model roster. Every mutation is recorded in the
// audit log; failures to audit are logged but never fail the mutation.
type Admin struct {
	models ports.ModelStore
	audit  ports.AuditStore
	logger zerolog.Logger
}

// NewAdmin wires the admin service.
func NewAdmin(models ports.ModelStore, audit ports.AuditStore, logger zerolog.Logger) *Admin {
	return &Admin{
		models: models,
		audit:  audit,
		logger: logger.With().Str("component", "admin").Logger(),
	}
}

// AddModelParams describes a new roster entry.
type AddModelParams struct {
	Name           string `json:"name" validate:"required,min=1,max=255"`
	Provider       string `json:"provider" validate:"required"`
	BackendModelID string `json:"backend_model_id" validate:"required"`
}

// AddModel registers a new competing model in active status.
func (a *Admin) AddModel(ctx context.Context, adminID string, p AddModelParams) (domain.Model, error) {
	m := domain.Model{
		ID:             uuid.NewString(),
		Name:           p.Name,
		Provider:       p.Provider,
		BackendModelID: p.BackendModelID,
		Status:         domain.ModelStatusActive,
	}
	if err := a.models.Create(ctx, &m); err != nil {
		return domain.Model{}, fmt.Errorf("add model: %w", err)
	}
	a.record(ctx, adminID, "model.add", m.ID, fmt.Sprintf("name=%s provider=%s backend=%s", p.Name, p.Provider, p.BackendModelID))
	return m, nil
}

// UpdateModelParams describes a roster edit. Empty fields are unchanged.
type UpdateModelParams struct {
	Name           string `json:"name"`
	Provider       string `json:"provider"`
	BackendModelID string `json:"backend_model_id"`
}

// UpdateModel edits a roster entry, leaving empty fields untouched.
func (a *Admin) UpdateModel(ctx context.Context, adminID, id string, p UpdateModelParams) (domain.Model, error) {
	m, err := a.models.Get(ctx, id)
	if err != nil {
		return domain.Model{}, err
	}
	if p.Name != "" {
		m.Name = p.Name
	}
	if p.Provider != "" {
		m.Provider = p.Provider
	}
	if p.BackendModelID != "" {
		m.BackendModelID = p.BackendModelID
	}
	if err := a.models.Update(ctx, &m); err != nil {
		return domain.Model{}, err
	}
	a.record(ctx, adminID, "model.update", id, fmt.Sprintf("name=%s provider=%s backend=%s", m.Name, m.Provider, m.BackendModelID))
	return m, nil
}

// SetModelStatus flips a model between active and disabled. Disabling
// removes it from the battle pool without touching its history.
func (a *Admin) SetModelStatus(ctx context.Context, adminID, id string, status domain.ModelStatus) (domain.Model, error) {
	if status != domain.ModelStatusActive && status != domain.ModelStatusDisabled {
		return domain.Model{}, fmt.Errorf("invalid status %q", status)
	}
	m, err := a.models.Get(ctx, id)
	if err != nil {
		return domain.Model{}, err
	}
	m.Status = status
	if err := a.models.Update(ctx, &m); err != nil {
		return domain.Model{}, err
	}
	a.record(ctx, adminID, "model.status", id, string(status))
	return m, nil
}

// ListModels returns the full roster, disabled entries included.
func (a *Admin) ListModels(ctx context.Context) ([]domain.Model, error) {
	return a.models.List(ctx)
}

// Logs returns the most recent audit entries, newest first.
func (a *Admin) Logs(ctx context.Context, limit int) ([]domain.AuditEntry, error) {
	return a.audit.List(ctx, limit)
}

func (a *Admin) record(ctx context.Context, adminID, action, targetID, details string) {
	entry := domain.AuditEntry{
		AdminID:    adminID,
		Action:     action,
		TargetType: "model",
		TargetID:   targetID,
		Details:    details,
	}
	if err := a.audit.Append(ctx, &entry); err != nil {
		a.logger.Error().Err(err).Str("action", action).Msg("failed to append audit entry")
	}
}
