package domain

import "time"

// Side identifies the outcome of a battle from the voter's perspective.
// Ties are first-class members of the outcome domain so that the vote log
// alone is sufficient to reconstruct every rating (see Replay).
type Side string

const (
	SideLeft  Side = "left"
	SideRight Side = "right"
	SideTie   Side = "tie"
)

// Valid reports whether s is one of the three recordable outcomes.
func (s Side) Valid() bool {
	switch s {
	case SideLeft, SideRight, SideTie:
		return true
	}
	return false
}

// Battle is one paired comparison: an immutable prompt answered by two
// distinct models. Response fields are nil until generation completes and
// are filled exactly once; a completed battle always carries two non-nil
// responses, even when one or both hold an inline error placeholder.
type Battle struct {
	ID            string
	ModelLeftID   string
	ModelRightID  string
	Prompt        string
	ResponseLeft  *string
	ResponseRight *string
	SessionID     string
	CreatedAt     time.Time
}

// Completed reports whether both response slots have been filled.
func (b Battle) Completed() bool {
	return b.ResponseLeft != nil && b.ResponseRight != nil
}

// Vote is a single voter's recorded judgment on a battle. At most one vote
// exists per (battle, session) pair.
type Vote struct {
	ID        string
	BattleID  string
	Side      Side
	SessionID string
	CreatedAt time.Time
}

// Outcome is the replay-oriented view of a vote: the judgment joined with
// the two model identities it applies to. The full chronological outcome
// log is the single source of truth for every RatingState.
type Outcome struct {
	BattleID     string
	ModelLeftID  string
	ModelRightID string
	Side         Side
	CreatedAt    time.Time
}
