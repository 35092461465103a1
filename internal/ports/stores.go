package ports

import (
	"context"

	"github.com/promptarena/arena/internal/domain"
)

// ModelStore persists the model catalog.
type ModelStore interface {
	// ListActive returns all models eligible for new battles.
	ListActive(ctx context.Context) ([]domain.Model, error)
	// List returns every model regardless of status.
	List(ctx context.Context) ([]domain.Model, error)
	// Get returns one model or domain.ErrModelNotFound.
	Get(ctx context.Context, id string) (domain.Model, error)
	Create(ctx context.Context, m *domain.Model) error
	Update(ctx context.Context, m *domain.Model) error
}

// BattleStore persists battles. Battles are append-mostly: the response
// fields are filled exactly once after generation completes.
type BattleStore interface {
	Create(ctx context.Context, b *domain.Battle) error
	// Get returns one battle or domain.ErrBattleNotFound.
	Get(ctx context.Context, id string) (domain.Battle, error)
	// SetResponses fills both response slots of a battle. Responses are
	// written exactly once; a second write returns
	// domain.ErrResponsesAlreadySet.
	SetResponses(ctx context.Context, id, left, right string) error
	Count(ctx context.Context) (int64, error)
}

// VoteStore persists recorded outcomes. The storage layer enforces the
// at-most-one-outcome-per-(battle, session) invariant with a unique index
// and reports violations as domain.ErrDuplicateVote.
type VoteStore interface {
	Create(ctx context.Context, v *domain.Vote) error
	Exists(ctx context.Context, battleID, sessionID string) (bool, error)
	// ListOutcomes returns the full outcome log, ties included, ordered by
	// creation time. This is the replay input.
	ListOutcomes(ctx context.Context) ([]domain.Outcome, error)
	Count(ctx context.Context) (int64, error)
}

// RatingStore persists per-model rating aggregates.
type RatingStore interface {
	// Get returns the state and whether one exists yet for the model.
	Get(ctx context.Context, modelID string) (domain.RatingState, bool, error)
	Upsert(ctx context.Context, s domain.RatingState) error
	// UpsertPair writes both sides of one outcome atomically so a failure
	// can never leave a torn rating pair.
	UpsertPair(ctx context.Context, left, right domain.RatingState) error
	// List returns all states ordered by rating, highest first.
	List(ctx context.Context) ([]domain.RatingState, error)
}

// AuditStore records administrative mutations.
type AuditStore interface {
	Append(ctx context.Context, e *domain.AuditEntry) error
	List(ctx context.Context, limit int) ([]domain.AuditEntry, error)
}
