package domain

import (
	"math"
	"time"
)

// Elo configuration defaults. K stays a named parameter rather than a
// runtime-learned value so that a full replay with a different K is the
// supported way to retune the algorithm.
const (
	// DefaultKFactor controls how much a single outcome moves a rating.
	DefaultKFactor = 32.0
	// InitialRating is the rating every model starts from.
	InitialRating = 1200
	// WinScore, LossScore, and TieScore are the actual-score values fed
	// into the Elo update for each outcome.
	WinScore  = 1.0
	LossScore = 0.0
	TieScore  = 0.5
)

// RatingState is a model's current skill estimate plus its cumulative
// record. Ratings are stored and displayed as integers; rounding happens
// after every update so that incremental application and full replay
// produce identical values.
type RatingState struct {
	ModelID      string
	Rating       int
	Wins         int
	Losses       int
	Ties         int
	TotalBattles int
	UpdatedAt    time.Time
}

// NewRatingState returns the default state for a model that has not yet
// competed.
func NewRatingState(modelID string) RatingState {
	return RatingState{ModelID: modelID, Rating: InitialRating}
}

// EloEngine computes rating updates from pairwise outcomes. It is a pure
// value: the same inputs always produce the same outputs, which is what
// makes the incremental path and the full replay interchangeable.
type EloEngine struct {
	// K is the rating-change sensitivity constant.
	K float64
}

// NewEloEngine returns an engine with the given K-factor, falling back to
// DefaultKFactor when k is not positive.
func NewEloEngine(k float64) EloEngine {
	if k <= 0 {
		k = DefaultKFactor
	}
	return EloEngine{K: k}
}

// ExpectedScore returns the probability that a player rated ratingA beats
// a player rated ratingB: 1 / (1 + 10^((rb-ra)/400)).
func (e EloEngine) ExpectedScore(ratingA, ratingB int) float64 {
	return 1.0 / (1.0 + math.Pow(10.0, float64(ratingB-ratingA)/400.0))
}

// NextRating returns round(current + K * (actual - expected)).
func (e EloEngine) NextRating(current int, expected, actual float64) int {
	return int(math.Round(float64(current) + e.K*(actual-expected)))
}

// scores maps an outcome to the (left, right) actual-score pair.
func scores(side Side) (left, right float64) {
	switch side {
	case SideLeft:
		return WinScore, LossScore
	case SideRight:
		return LossScore, WinScore
	default:
		return TieScore, TieScore
	}
}

// ApplyOutcome produces the post-outcome state for both sides of a single
// battle. It must be applied exactly once per recorded outcome.
func (e EloEngine) ApplyOutcome(left, right RatingState, side Side, at time.Time) (RatingState, RatingState) {
	expectedLeft := e.ExpectedScore(left.Rating, right.Rating)
	expectedRight := e.ExpectedScore(right.Rating, left.Rating)
	actualLeft, actualRight := scores(side)

	left.Rating = e.NextRating(left.Rating, expectedLeft, actualLeft)
	right.Rating = e.NextRating(right.Rating, expectedRight, actualRight)

	switch side {
	case SideLeft:
		left.Wins++
		right.Losses++
	case SideRight:
		left.Losses++
		right.Wins++
	default:
		left.Ties++
		right.Ties++
	}

	left.TotalBattles++
	right.TotalBattles++
	left.UpdatedAt = at
	right.UpdatedAt = at
	return left, right
}

// Replay reconstructs every rating from zero by applying the chronological
// outcome log with the incremental update. Known model ids are seeded with
// the default state first; models that appear only inside the log are
// initialized on first reference. Replaying the same log twice yields
// identical states for every model.
func (e EloEngine) Replay(modelIDs []string, log []Outcome, at time.Time) map[string]RatingState {
	states := make(map[string]RatingState, len(modelIDs))
	for _, id := range modelIDs {
		s := NewRatingState(id)
		s.UpdatedAt = at
		states[id] = s
	}

	ensure := func(id string) RatingState {
		if s, ok := states[id]; ok {
			return s
		}
		s := NewRatingState(id)
		s.UpdatedAt = at
		states[id] = s
		return s
	}

	for _, o := range log {
		left := ensure(o.ModelLeftID)
		right := ensure(o.ModelRightID)
		left, right = e.ApplyOutcome(left, right, o.Side, at)
		states[o.ModelLeftID] = left
		states[o.ModelRightID] = right
	}

	return states
}
