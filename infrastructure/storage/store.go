// Package storage implements the persistence ports on SQLite through
// GORM. Schema invariants the core relies on — the unique
// (battle_id, session_id) index, the vote side domain, default rating
// values — live here.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/promptarena/arena/internal/domain"
	"github.com/promptarena/arena/internal/ports"
)

// Store bundles one GORM handle with an implementation of every
// persistence port.
type Store struct {
	db *gorm.DB

	Models  *ModelStore
	Battles *BattleStore
	Votes   *VoteStore
	Ratings *RatingStore
	Audit   *AuditStore
}

// Open connects to the SQLite database at path and migrates the schema.
// Use ":memory:" for tests.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.AutoMigrate(&modelRow{}, &battleRow{}, &voteRow{}, &ratingRow{}, &auditRow{}); err != nil {
		return nil, fmt.Errorf("migrate schema: %w", err)
	}

	return &Store{
		db:      db,
		Models:  &ModelStore{db: db},
		Battles: &BattleStore{db: db},
		Votes:   &VoteStore{db: db},
		Ratings: &RatingStore{db: db},
		Audit:   &AuditStore{db: db},
	}, nil
}

// isUniqueViolation recognizes SQLite unique-index rejections.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// ModelStore persists the model catalog.
type ModelStore struct {
	db *gorm.DB
}

func (s *ModelStore) ListActive(ctx context.Context) ([]domain.Model, error) {
	var rows []modelRow
	if err := s.db.WithContext(ctx).
		Where("status = ?", string(domain.ModelStatusActive)).
		Order("created_at").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list active models: %w", err)
	}
	return modelsToDomain(rows), nil
}

func (s *ModelStore) List(ctx context.Context) ([]domain.Model, error) {
	var rows []modelRow
	if err := s.db.WithContext(ctx).Order("created_at").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list models: %w", err)
	}
	return modelsToDomain(rows), nil
}

func (s *ModelStore) Get(ctx context.Context, id string) (domain.Model, error) {
	var row modelRow
	err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Model{}, domain.ErrModelNotFound
	}
	if err != nil {
		return domain.Model{}, fmt.Errorf("get model %s: %w", id, err)
	}
	return row.toDomain(), nil
}

func (s *ModelStore) Create(ctx context.Context, m *domain.Model) error {
	row := modelToRow(*m)
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("create model: %w", err)
	}
	m.CreatedAt = row.CreatedAt
	m.UpdatedAt = row.UpdatedAt
	return nil
}

func (s *ModelStore) Update(ctx context.Context, m *domain.Model) error {
	row := modelToRow(*m)
	res := s.db.WithContext(ctx).Model(&modelRow{}).Where("id = ?", m.ID).Updates(map[string]any{
		"name":             row.Name,
		"provider":         row.Provider,
		"backend_model_id": row.BackendModelID,
		"status":           row.Status,
	})
	if res.Error != nil {
		return fmt.Errorf("update model %s: %w", m.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrModelNotFound
	}
	return nil
}

func modelsToDomain(rows []modelRow) []domain.Model {
	out := make([]domain.Model, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out
}

// BattleStore persists battles.
type BattleStore struct {
	db *gorm.DB
}

func (s *BattleStore) Create(ctx context.Context, b *domain.Battle) error {
	row := battleRow{
		ID:           b.ID,
		ModelLeftID:  b.ModelLeftID,
		ModelRightID: b.ModelRightID,
		Prompt:       b.Prompt,
		SessionID:    b.SessionID,
		CreatedAt:    b.CreatedAt,
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("create battle: %w", err)
	}
	b.CreatedAt = row.CreatedAt
	return nil
}

func (s *BattleStore) Get(ctx context.Context, id string) (domain.Battle, error) {
	var row battleRow
	err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Battle{}, domain.ErrBattleNotFound
	}
	if err != nil {
		return domain.Battle{}, fmt.Errorf("get battle %s: %w", id, err)
	}
	return row.toDomain(), nil
}

func (s *BattleStore) SetResponses(ctx context.Context, id, left, right string) error {
	// The NULL guard makes the write first-wins: responses are filled
	// exactly once.
	res := s.db.WithContext(ctx).Model(&battleRow{}).
		Where("id = ? AND response_left IS NULL AND response_right IS NULL", id).
		Updates(map[string]any{
			"response_left":  left,
			"response_right": right,
		})
	if res.Error != nil {
		return fmt.Errorf("set battle responses %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		var n int64
		if err := s.db.WithContext(ctx).Model(&battleRow{}).Where("id = ?", id).Count(&n).Error; err != nil {
			return fmt.Errorf("set battle responses %s: %w", id, err)
		}
		if n == 0 {
			return domain.ErrBattleNotFound
		}
		return domain.ErrResponsesAlreadySet
	}
	return nil
}

func (s *BattleStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&battleRow{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count battles: %w", err)
	}
	return n, nil
}

// VoteStore persists recorded outcomes. The unique index on
// (battle_id, session_id) surfaces as domain.ErrDuplicateVote.
type VoteStore struct {
	db *gorm.DB
}

func (s *VoteStore) Create(ctx context.Context, v *domain.Vote) error {
	row := voteRow{
		ID:        v.ID,
		BattleID:  v.BattleID,
		SessionID: v.SessionID,
		Side:      string(v.Side),
		CreatedAt: v.CreatedAt,
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateVote
		}
		return fmt.Errorf("create vote: %w", err)
	}
	v.CreatedAt = row.CreatedAt
	return nil
}

func (s *VoteStore) Exists(ctx context.Context, battleID, sessionID string) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&voteRow{}).
		Where("battle_id = ? AND session_id = ?", battleID, sessionID).
		Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("check vote: %w", err)
	}
	return n > 0, nil
}

// outcomeRow is the join shape for replay.
type outcomeRow struct {
	BattleID     string
	ModelLeftID  string
	ModelRightID string
	Side         string
	CreatedAt    time.Time
}

// ListOutcomes returns the complete outcome log joined with battle model
// identities, ordered by vote creation time with the vote id as the
// deterministic tiebreaker.
func (s *VoteStore) ListOutcomes(ctx context.Context) ([]domain.Outcome, error) {
	var rows []outcomeRow
	err := s.db.WithContext(ctx).
		Table("votes").
		Select("votes.battle_id, battles.model_left_id, battles.model_right_id, votes.side, votes.created_at").
		Joins("JOIN battles ON battles.id = votes.battle_id").
		Order("votes.created_at, votes.id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list outcomes: %w", err)
	}

	out := make([]domain.Outcome, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.Outcome{
			BattleID:     r.BattleID,
			ModelLeftID:  r.ModelLeftID,
			ModelRightID: r.ModelRightID,
			Side:         domain.Side(r.Side),
			CreatedAt:    r.CreatedAt,
		})
	}
	return out, nil
}

func (s *VoteStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&voteRow{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count votes: %w", err)
	}
	return n, nil
}

// RatingStore persists per-model rating aggregates.
type RatingStore struct {
	db *gorm.DB
}

func (s *RatingStore) Get(ctx context.Context, modelID string) (domain.RatingState, bool, error) {
	var row ratingRow
	err := s.db.WithContext(ctx).First(&row, "model_id = ?", modelID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.RatingState{}, false, nil
	}
	if err != nil {
		return domain.RatingState{}, false, fmt.Errorf("get rating %s: %w", modelID, err)
	}
	return row.toDomain(), true, nil
}

func (s *RatingStore) Upsert(ctx context.Context, st domain.RatingState) error {
	if err := upsertRating(s.db.WithContext(ctx), st); err != nil {
		return err
	}
	return nil
}

// UpsertPair writes both sides of one outcome in a single transaction so
// a mid-write failure can never persist a torn rating pair.
func (s *RatingStore) UpsertPair(ctx context.Context, left, right domain.RatingState) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := upsertRating(tx, left); err != nil {
			return err
		}
		return upsertRating(tx, right)
	})
}

func upsertRating(db *gorm.DB, st domain.RatingState) error {
	row := ratingRow{
		ModelID:      st.ModelID,
		Rating:       st.Rating,
		Wins:         st.Wins,
		Losses:       st.Losses,
		Ties:         st.Ties,
		TotalBattles: st.TotalBattles,
		UpdatedAt:    st.UpdatedAt,
	}
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "model_id"}},
		UpdateAll: true,
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("upsert rating %s: %w", st.ModelID, err)
	}
	return nil
}

func (s *RatingStore) List(ctx context.Context) ([]domain.RatingState, error) {
	var rows []ratingRow
	if err := s.db.WithContext(ctx).Order("rating DESC, model_id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list ratings: %w", err)
	}
	out := make([]domain.RatingState, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

// AuditStore records administrative mutations.
type AuditStore struct {
	db *gorm.DB
}

func (s *AuditStore) Append(ctx context.Context, e *domain.AuditEntry) error {
	row := auditRow{
		AdminID:    e.AdminID,
		Action:     e.Action,
		TargetType: e.TargetType,
		TargetID:   e.TargetID,
		Details:    e.Details,
		CreatedAt:  e.CreatedAt,
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}
	e.ID = row.ID
	e.CreatedAt = row.CreatedAt
	return nil
}

func (s *AuditStore) List(ctx context.Context, limit int) ([]domain.AuditEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []auditRow
	if err := s.db.WithContext(ctx).Order("id DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	out := make([]domain.AuditEntry, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.AuditEntry{
			ID:         r.ID,
			AdminID:    r.AdminID,
			Action:     r.Action,
			TargetType: r.TargetType,
			TargetID:   r.TargetID,
			Details:    r.Details,
			CreatedAt:  r.CreatedAt,
		})
	}
	return out, nil
}

// Compile-time port checks.
var (
	_ ports.ModelStore  = (*ModelStore)(nil)
	_ ports.BattleStore = (*BattleStore)(nil)
	_ ports.VoteStore   = (*VoteStore)(nil)
	_ ports.RatingStore = (*RatingStore)(nil)
	_ ports.AuditStore  = (*AuditStore)(nil)
)
