package application

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/promptarena/arena/internal/domain"
	"github.com/promptarena/arena/internal/ports"
)

// RatingSnapshot is one model's state after a recomputation.
type RatingSnapshot struct {
	ModelID      string `json:"model_id"`
	Rating       int    `json:"rating"`
	Wins         int    `json:"wins"`
	Losses       int    `json:"losses"`
	Ties         int    `json:"ties"`
	TotalBattles int    `json:"total_battles"`
}

// RecomputeResult summarizes a full replay.
type RecomputeResult struct {
	ModelsUpdated  int              `json:"models_updated"`
	VotesProcessed int              `json:"votes_processed"`
	Ratings        []RatingSnapshot `json:"ratings"`
}

// Recomputer rebuilds every rating from the chronological vote log. It
// exists to repair drift after manual data surgery or to retune the
// K-factor; the replay applies the same update rule as the live path, so
// an undisturbed log reproduces the stored ratings exactly.
type Recomputer struct {
	models  ports.ModelStore
	votes   ports.VoteStore
	ratings ports.RatingStore
	engine  domain.EloEngine
	metrics ports.MetricsCollector

	gate *sync.Mutex
	now  func() time.Time

	logger zerolog.Logger
}

// NewRecomputer wires a recomputer. The gate must be the same mutex the
// vote ledger holds during rating updates. A nil metrics collector
// disables metric recording.
func NewRecomputer(
	models ports.ModelStore,
	votes ports.VoteStore,
	ratings ports.RatingStore,
	engine domain.EloEngine,
	metrics ports.MetricsCollector,
	gate *sync.Mutex,
	logger zerolog.Logger,
) *Recomputer {
	return &Recomputer{
		models:  models,
		votes:   votes,
		ratings: ratings,
		engine:  engine,
		metrics: metrics,
		gate:    gate,
		now:     func() time.Time { return time.Now().UTC() },
		logger:  logger.With().Str("component", "recompute").Logger(),
	}
}

// Run replays the full outcome log and overwrites every stored rating.
// Per-model persistence failures are logged and skipped so one bad row
// cannot abort the rest of the rebuild.
func (r *Recomputer) Run(ctx context.Context) (RecomputeResult, error) {
	r.gate.Lock()
	defer r.gate.Unlock()

	models, err := r.models.List(ctx)
	if err != nil {
		return RecomputeResult{}, fmt.Errorf("list models: %w", err)
	}
	ids := make([]string, 0, len(models))
	for _, m := range models {
		ids = append(ids, m.ID)
	}

	log, err := r.votes.ListOutcomes(ctx)
	if err != nil {
		return RecomputeResult{}, fmt.Errorf("list outcomes: %w", err)
	}

	states := r.engine.Replay(ids, log, r.now())

	result := RecomputeResult{VotesProcessed: len(log)}
	for _, state := range states {
		if err := r.ratings.Upsert(ctx, state); err != nil {
			r.logger.Error().
				Err(err).
				Str("model", state.ModelID).
				Msg("failed to persist recomputed rating")
			continue
		}
		result.ModelsUpdated++
		if r.metrics != nil {
			r.metrics.RecordGauge("model_rating", float64(state.Rating), map[string]string{"model": state.ModelID})
		}
	}
	if r.metrics != nil {
		r.metrics.RecordCounter("rating_recomputes_total", 1, map[string]string{"status": "success"})
	}

	// Snapshot from the store so the response reflects exactly what was
	// persisted, in leaderboard order.
	stored, err := r.ratings.List(ctx)
	if err != nil {
		return RecomputeResult{}, fmt.Errorf("list ratings: %w", err)
	}
	for _, s := range stored {
		result.Ratings = append(result.Ratings, RatingSnapshot{
			ModelID:      s.ModelID,
			Rating:       s.Rating,
			Wins:         s.Wins,
			Losses:       s.Losses,
			Ties:         s.Ties,
			TotalBattles: s.TotalBattles,
		})
	}

	r.logger.Info().
		Int("models_updated", result.ModelsUpdated).
		Int("votes_processed", result.VotesProcessed).
		Msg("ratings recomputed")

	return result, nil
}
