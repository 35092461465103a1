package application

import (
	"context"
	"fmt"

	"github.com/promptarena/arena/internal/ports"
)

// LeaderboardEntry is one row of the public standings.
type LeaderboardEntry struct {
	Rank         int    `json:"rank"`
	ModelID      string `json:"model_id"`
	Name         string `json:"name"`
	Provider     string `json:"provider"`
	Rating       int    `json:"rating"`
	Wins         int    `json:"wins"`
	Losses       int    `json:"losses"`
	Ties         int    `json:"ties"`
	TotalBattles int    `json:"total_battles"`
}

// ArenaStats is the public activity summary.
type ArenaStats struct {
	TotalBattles int64 `json:"total_battles"`
	TotalVotes   int64 `json:"total_votes"`
	ActiveModels int   `json:"active_models"`
}

// Leaderboard assembles the public read views: standings and stats.
type Leaderboard struct {
	models  ports.ModelStore
	battles ports.BattleStore
	votes   ports.VoteStore
	ratings ports.RatingStore
}

// NewLeaderboard wires the read-side service.
func NewLeaderboard(models ports.ModelStore, battles ports.BattleStore, votes ports.VoteStore, ratings ports.RatingStore) *Leaderboard {
	return &Leaderboard{models: models, battles: battles, votes: votes, ratings: ratings}
}

// Standings returns every rated model ordered by rating, highest first,
// joined with its catalog identity. Models without a stored rating yet do
// not appear.
func (l *Leaderboard) Standings(ctx context.Context) ([]LeaderboardEntry, error) {
	states, err := l.ratings.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list ratings: %w", err)
	}

	catalog, err := l.models.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list models: %w", err)
	}
	byID := make(map[string]int, len(catalog))
	for i, m := range catalog {
		byID[m.ID] = i
	}

	entries := make([]LeaderboardEntry, 0, len(states))
	for i, s := range states {
		entry := LeaderboardEntry{
			Rank:         i + 1,
			ModelID:      s.ModelID,
			Name:         s.ModelID,
			Rating:       s.Rating,
			Wins:         s.Wins,
			Losses:       s.Losses,
			Ties:         s.Ties,
			TotalBattles: s.TotalBattles,
		}
		if idx, ok := byID[s.ModelID]; ok {
			entry.Name = catalog[idx].Name
			entry.Provider = catalog[idx].Provider
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Stats returns the arena activity summary.
func (l *Leaderboard) Stats(ctx context.Context) (ArenaStats, error) {
	battles, err := l.battles.Count(ctx)
	if err != nil {
		return ArenaStats{}, fmt.Errorf("count battles: %w", err)
	}
	votes, err := l.votes.Count(ctx)
	if err != nil {
		return ArenaStats{}, fmt.Errorf("count votes: %w", err)
	}
	active, err := l.models.ListActive(ctx)
	if err != nil {
		return ArenaStats{}, fmt.Errorf("list active models: %w", err)
	}
	return ArenaStats{
		TotalBattles: battles,
		TotalVotes:   votes,
		ActiveModels: len(active),
	}, nil
}
