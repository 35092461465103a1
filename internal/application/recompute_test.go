package application

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promptarena/arena/internal/domain"
)

func newTestRecomputer(stores *memStores, gate *sync.Mutex) *Recomputer {
	return NewRecomputer(
		stores,
		voteStore{stores},
		ratingStore{stores},
		domain.NewEloEngine(32),
		nil,
		gate,
		zerolog.Nop(),
	)
}

func TestRecompute_ReproducesIncrementalRatings(t *testing.T) {
	stores := newMemStores()
	seedBattle(stores, "battle-1")
	gate := &sync.Mutex{}
	ledger := NewLedger(battleStore{stores}, voteStore{stores}, ratingStore{stores},
		stores, domain.NewEloEngine(32), nil, gate, zerolog.Nop())

	// Two battles, three votes through the live path.
	resp := "r"
	stores.battles["battle-2"] = domain.Battle{
		ID: "battle-2", ModelLeftID: "b", ModelRightID: "a",
		ResponseLeft: &resp, ResponseRight: &resp,
		CreatedAt: time.Now(),
	}
	_, err := ledger.CastVote(context.Background(), "battle-1", domain.SideLeft, "v1")
	require.NoError(t, err)
	_, err = ledger.CastVote(context.Background(), "battle-1", domain.SideTie, "v2")
	require.NoError(t, err)
	_, err = ledger.CastVote(context.Background(), "battle-2", domain.SideRight, "v3")
	require.NoError(t, err)

	liveA := stores.ratings["a"]
	liveB := stores.ratings["b"]

	result, err := newTestRecomputer(stores, gate).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, result.VotesProcessed)
	assert.Equal(t, 2, result.ModelsUpdated)
	assert.Equal(t, liveA.Rating, stores.ratings["a"].Rating,
		"replay of an undisturbed log must reproduce the live ratings")
	assert.Equal(t, liveB.Rating, stores.ratings["b"].Rating)
	assert.Equal(t, liveA.Wins, stores.ratings["a"].Wins)
	assert.Equal(t, liveA.Ties, stores.ratings["a"].Ties)
}

func TestRecompute_RepairsDrift(t *testing.T) {
	stores := newMemStores()
	seedBattle(stores, "battle-1")
	gate := &sync.Mutex{}
	ledger := NewLedger(battleStore{stores}, voteStore{stores}, ratingStore{stores},
		stores, domain.NewEloEngine(32), nil, gate, zerolog.Nop())

	_, err := ledger.CastVote(context.Background(), "battle-1", domain.SideLeft, "v1")
	require.NoError(t, err)

	// Simulate manual surgery on the stored state.
	corrupted := stores.ratings["a"]
	corrupted.Rating = 9999
	corrupted.Wins = 50
	stores.ratings["a"] = corrupted

	_, err = newTestRecomputer(stores, gate).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1216, stores.ratings["a"].Rating)
	assert.Equal(t, 1, stores.ratings["a"].Wins)
}

func TestRecompute_EmptyLogResetsToDefaults(t *testing.T) {
	stores := newMemStores()
	stores.addModel(activeModel("a"))
	stores.addModel(activeModel("b"))
	stores.ratings["a"] = domain.RatingState{ModelID: "a", Rating: 1500, Wins: 3}

	gate := &sync.Mutex{}
	result, err := newTestRecomputer(stores, gate).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, result.VotesProcessed)
	assert.Equal(t, 2, result.ModelsUpdated)
	assert.Equal(t, domain.InitialRating, stores.ratings["a"].Rating)
	assert.Zero(t, stores.ratings["a"].Wins)
}

func TestRecompute_SnapshotInLeaderboardOrder(t *testing.T) {
	stores := newMemStores()
	seedBattle(stores, "battle-1")
	gate := &sync.Mutex{}
	ledger := NewLedger(battleStore{stores}, voteStore{stores}, ratingStore{stores},
		stores, domain.NewEloEngine(32), nil, gate, zerolog.Nop())

	_, err := ledger.CastVote(context.Background(), "battle-1", domain.SideLeft, "v1")
	require.NoError(t, err)

	result, err := newTestRecomputer(stores, gate).Run(context.Background())
	require.NoError(t, err)

	require.Len(t, result.Ratings, 2)
	assert.Equal(t, "a", result.Ratings[0].ModelID)
	assert.Equal(t, 1216, result.Ratings[0].Rating)
	assert.Equal(t, "b", result.Ratings[1].ModelID)
	assert.Equal(t, 1184, result.Ratings[1].Rating)
}

func TestRecompute_RecordsMetrics(t *testing.T) {
	stores := newMemStores()
	seedBattle(stores, "battle-1")
	gate := &sync.Mutex{}
	ledger := NewLedger(battleStore{stores}, voteStore{stores}, ratingStore{stores},
		stores, domain.NewEloEngine(32), nil, gate, zerolog.Nop())

	_, err := ledger.CastVote(context.Background(), "battle-1", domain.SideLeft, "v1")
	require.NoError(t, err)

	collector := newFakeCollector()
	recomputer := NewRecomputer(stores, voteStore{stores}, ratingStore{stores},
		domain.NewEloEngine(32), collector, gate, zerolog.Nop())

	_, err = recomputer.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1216.0, collector.gauges["model_rating/a"])
	assert.Equal(t, 1184.0, collector.gauges["model_rating/b"])
	assert.Equal(t, 1.0, collector.counters["rating_recomputes_total/success"])
}

func TestRecompute_CoversDisabledModelsInLog(t *testing.T) {
	stores := newMemStores()
	seedBattle(stores, "battle-1")
	gate := &sync.Mutex{}
	ledger := NewLedger(battleStore{stores}, voteStore{stores}, ratingStore{stores},
		stores, domain.NewEloEngine(32), nil, gate, zerolog.Nop())

	_, err := ledger.CastVote(context.Background(), "battle-1", domain.SideRight, "v1")
	require.NoError(t, err)

	// Disable one side after the fact; its history must still replay.
	disabled := stores.models["a"]
	disabled.Status = domain.ModelStatusDisabled
	stores.models["a"] = disabled

	_, err = newTestRecomputer(stores, gate).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1184, stores.ratings["a"].Rating)
	assert.Equal(t, 1, stores.ratings["a"].Losses)
}
