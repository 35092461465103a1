package storage

import (
	"time"

	"github.com/promptarena/arena/internal/domain"
)

// modelRow persists one competing model.
type modelRow struct {
	ID             string    `gorm:"primaryKey"`
	Name           string    `gorm:"not null"`
	Provider       string    `gorm:"not null"`
	BackendModelID string    `gorm:"column:backend_model_id;not null"`
	Status         string    `gorm:"not null;default:'active';index"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (modelRow) TableName() string { return "models" }

// battleRow persists one paired comparison. Response columns stay NULL
// until generation completes and are written exactly once.
type battleRow struct {
	ID            string    `gorm:"primaryKey"`
	ModelLeftID   string    `gorm:"column:model_left_id;not null;index"`
	ModelRightID  string    `gorm:"column:model_right_id;not null;index"`
	Prompt        string    `gorm:"type:text;not null"`
	ResponseLeft  *string   `gorm:"type:text"`
	ResponseRight *string   `gorm:"type:text"`
	SessionID     string    `gorm:"column:session_id;not null;index"`
	CreatedAt     time.Time `gorm:"index"`
}

func (battleRow) TableName() string { return "battles" }

// voteRow persists one recorded outcome. The composite unique index on
// (battle_id, session_id) is the storage-level guarantee behind the
// at-most-one-outcome invariant; ties are first-class side values so the
// vote log alone supports full replay.
type voteRow struct {
	ID        string    `gorm:"primaryKey"`
	BattleID  string    `gorm:"column:battle_id;not null;uniqueIndex:idx_votes_battle_session"`
	SessionID string    `gorm:"column:session_id;not null;uniqueIndex:idx_votes_battle_session"`
	Side      string    `gorm:"not null"`
	CreatedAt time.Time `gorm:"index"`
}

func (voteRow) TableName() string { return "votes" }

// ratingRow persists the per-model rating aggregate.
type ratingRow struct {
	ModelID      string `gorm:"column:model_id;primaryKey"`
	Rating       int    `gorm:"not null;default:1200"`
	Wins         int    `gorm:"not null;default:0"`
	Losses       int    `gorm:"not null;default:0"`
	Ties         int    `gorm:"not null;default:0"`
	TotalBattles int    `gorm:"column:total_battles;not null;default:0"`
	UpdatedAt    time.Time
}

func (ratingRow) TableName() string { return "model_stats" }

// auditRow persists one administrative action.
type auditRow struct {
	ID         uint   `gorm:"primaryKey"`
	AdminID    string `gorm:"column:admin_id;not null"`
	Action     string `gorm:"not null"`
	TargetType string `gorm:"column:target_type"`
	TargetID   string `gorm:"column:target_id"`
	Details    string `gorm:"type:text"`
	CreatedAt  time.Time
}

func (auditRow) TableName() string { return "admin_logs" }

func (r modelRow) toDomain() domain.Model {
	return domain.Model{
		ID:             r.ID,
		Name:           r.Name,
		Provider:       r.Provider,
		BackendModelID: r.BackendModelID,
		Status:         domain.ModelStatus(r.Status),
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

func modelToRow(m domain.Model) modelRow {
	return modelRow{
		ID:             m.ID,
		Name:           m.Name,
		Provider:       m.Provider,
		BackendModelID: m.BackendModelID,
		Status:         string(m.Status),
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

func (r battleRow) toDomain() domain.Battle {
	return domain.Battle{
		ID:            r.ID,
		ModelLeftID:   r.ModelLeftID,
		ModelRightID:  r.ModelRightID,
		Prompt:        r.Prompt,
		ResponseLeft:  r.ResponseLeft,
		ResponseRight: r.ResponseRight,
		SessionID:     r.SessionID,
		CreatedAt:     r.CreatedAt,
	}
}

func (r ratingRow) toDomain() domain.RatingState {
	return domain.RatingState{
		ModelID:      r.ModelID,
		Rating:       r.Rating,
		Wins:         r.Wins,
		Losses:       r.Losses,
		Ties:         r.Ties,
		TotalBattles: r.TotalBattles,
		UpdatedAt:    r.UpdatedAt,
	}
}
