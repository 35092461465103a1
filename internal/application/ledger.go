package application

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/promptarena/arena/internal/domain"
	"github.com/promptarena/arena/internal/ports"
)

// VotedModel is one side's post-vote public state.
type VotedModel struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	NewRating int    `json:"new_rating"`
}

// VoteResult reveals both model identities and their updated ratings.
// Identities stay hidden until this point so votes cannot be biased.
type VoteResult struct {
	ModelLeft  VotedModel `json:"model_a"`
	ModelRight VotedModel `json:"model_b"`
}

// Ledger records votes and applies the incremental rating update. The
// gate serializes every rating read-modify-write in the process; the
// recompute boundary takes the same gate so a replay never interleaves
// with live updates.
type Ledger struct {
	battles ports.BattleStore
	votes   ports.VoteStore
	ratings ports.RatingStore
	models  ports.ModelStore
	engine  domain.EloEngine
	metrics ports.MetricsCollector

	gate *sync.Mutex
	now  func() time.Time

	logger zerolog.Logger
}

// NewLedger wires a ledger. The gate must be shared with the recompute
// boundary. A nil metrics collector disables metric recording.
func NewLedger(
	battles ports.BattleStore,
	votes ports.VoteStore,
	ratings ports.RatingStore,
	models ports.ModelStore,
	engine domain.EloEngine,
	metrics ports.MetricsCollector,
	gate *sync.Mutex,
	logger zerolog.Logger,
) *Ledger {
	return &Ledger{
		battles: battles,
		votes:   votes,
		ratings: ratings,
		models:  models,
		engine:  engine,
		metrics: metrics,
		gate:    gate,
		now:     func() time.Time { return time.Now().UTC() },
		logger:  logger.With().Str("component", "ledger").Logger(),
	}
}

// CastVote records one outcome for a battle and applies the Elo update to
// both models atomically with respect to every other rating writer.
// It returns domain.ErrBattleNotFound for unknown battles,
// domain.ErrInvalidSide for outcomes outside {left, right, tie}, and
// domain.ErrDuplicateVote when the session already voted on the battle.
func (l *Ledger) CastVote(ctx context.Context, battleID string, side domain.Side, sessionID string) (VoteResult, error) {
	if !side.Valid() {
		return VoteResult{}, domain.ErrInvalidSide
	}

	battle, err := l.battles.Get(ctx, battleID)
	if err != nil {
		return VoteResult{}, err
	}

	exists, err := l.votes.Exists(ctx, battleID, sessionID)
	if err != nil {
		return VoteResult{}, fmt.Errorf("check existing vote: %w", err)
	}
	if exists {
		return VoteResult{}, domain.ErrDuplicateVote
	}

	l.gate.Lock()
	defer l.gate.Unlock()

	now := l.now()
	vote := domain.Vote{
		ID:        uuid.NewString(),
		BattleID:  battleID,
		Side:      side,
		SessionID: sessionID,
		CreatedAt: now,
	}
	// The unique (battle, session) index is the authoritative duplicate
	// check; the Exists probe above only keeps the common case cheap.
	if err := l.votes.Create(ctx, &vote); err != nil {
		return VoteResult{}, err
	}

	left, err := l.loadRating(ctx, battle.ModelLeftID)
	if err != nil {
		return VoteResult{}, err
	}
	right, err := l.loadRating(ctx, battle.ModelRightID)
	if err != nil {
		return VoteResult{}, err
	}

	left, right = l.engine.ApplyOutcome(left, right, side, now)

	if err := l.ratings.UpsertPair(ctx, left, right); err != nil {
		return VoteResult{}, fmt.Errorf("persist ratings: %w", err)
	}

	if l.metrics != nil {
		l.metrics.RecordCounter("votes_total", 1, map[string]string{"status": string(side)})
		l.metrics.RecordGauge("model_rating", float64(left.Rating), map[string]string{"model": left.ModelID})
		l.metrics.RecordGauge("model_rating", float64(right.Rating), map[string]string{"model": right.ModelID})
	}

	l.logger.Info().
		Str("battle_id", battleID).
		Str("side", string(side)).
		Int("rating_left", left.Rating).
		Int("rating_right", right.Rating).
		Msg("vote recorded")

	return VoteResult{
		ModelLeft:  l.votedModel(ctx, left),
		ModelRight: l.votedModel(ctx, right),
	}, nil
}

// loadRating returns the stored state or the default for a model that has
// not competed yet.
func (l *Ledger) loadRating(ctx context.Context, modelID string) (domain.RatingState, error) {
	state, ok, err := l.ratings.Get(ctx, modelID)
	if err != nil {
		return domain.RatingState{}, fmt.Errorf("load rating %s: %w", modelID, err)
	}
	if !ok {
		return domain.NewRatingState(modelID), nil
	}
	return state, nil
}

// votedModel resolves the display name for the reveal. A missing catalog
// entry degrades to the raw id rather than failing the vote.
func (l *Ledger) votedModel(ctx context.Context, state domain.RatingState) VotedModel {
	name := state.ModelID
	if m, err := l.models.Get(ctx, state.ModelID); err == nil {
		name = m.Name
	}
	return VotedModel{ID: state.ModelID, Name: name, NewRating: state.Rating}
}
