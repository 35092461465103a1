package application

import (
	"context"
	"sort"
	"sync"

	"github.com/promptarena/arena/internal/domain"
	"github.com/promptarena/arena/internal/ports"
)

// memStores is an in-memory implementation of every persistence port,
// mirroring the storage layer's semantics closely enough for use-case
// tests: duplicate detection, not-found mapping, chronological outcomes.
type memStores struct {
	mu      sync.Mutex
	models  map[string]domain.Model
	order   []string
	battles map[string]domain.Battle
	votes   []domain.Vote
	ratings map[string]domain.RatingState
	audit   []domain.AuditEntry
}

func newMemStores() *memStores {
	return &memStores{
		models:  make(map[string]domain.Model),
		battles: make(map[string]domain.Battle),
		ratings: make(map[string]domain.RatingState),
	}
}

func (m *memStores) addModel(model domain.Model) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.models[model.ID] = model
	m.order = append(m.order, model.ID)
}

// --- ports.ModelStore ---

func (m *memStores) ListActive(context.Context) ([]domain.Model, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Model
	for _, id := range m.order {
		if m.models[id].Active() {
			out = append(out, m.models[id])
		}
	}
	return out, nil
}

func (m *memStores) List(context.Context) ([]domain.Model, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Model, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.models[id])
	}
	return out, nil
}

func (m *memStores) Get(_ context.Context, id string) (domain.Model, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	model, ok := m.models[id]
	if !ok {
		return domain.Model{}, domain.ErrModelNotFound
	}
	return model, nil
}

func (m *memStores) Create(_ context.Context, model *domain.Model) error {
	m.addModel(*model)
	return nil
}

func (m *memStores) Update(_ context.Context, model *domain.Model) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.models[model.ID]; !ok {
		return domain.ErrModelNotFound
	}
	m.models[model.ID] = *model
	return nil
}

// battleStore adapts memStores to ports.BattleStore.
type battleStore struct{ *memStores }

func (b battleStore) Create(_ context.Context, battle *domain.Battle) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.battles[battle.ID] = *battle
	return nil
}

func (b battleStore) Get(_ context.Context, id string) (domain.Battle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	battle, ok := b.battles[id]
	if !ok {
		return domain.Battle{}, domain.ErrBattleNotFound
	}
	return battle, nil
}

func (b battleStore) SetResponses(_ context.Context, id, left, right string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	battle, ok := b.battles[id]
	if !ok {
		return domain.ErrBattleNotFound
	}
	if battle.Completed() {
		return domain.ErrResponsesAlreadySet
	}
	battle.ResponseLeft = &left
	battle.ResponseRight = &right
	b.battles[id] = battle
	return nil
}

func (b battleStore) Count(context.Context) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return int64(len(b.battles)), nil
}

// voteStore adapts memStores to ports.VoteStore.
type voteStore struct{ *memStores }

func (v voteStore) Create(_ context.Context, vote *domain.Vote) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, existing := range v.votes {
		if existing.BattleID == vote.BattleID && existing.SessionID == vote.SessionID {
			return domain.ErrDuplicateVote
		}
	}
	v.votes = append(v.votes, *vote)
	return nil
}

func (v voteStore) Exists(_ context.Context, battleID, sessionID string) (bool, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, existing := range v.votes {
		if existing.BattleID == battleID && existing.SessionID == sessionID {
			return true, nil
		}
	}
	return false, nil
}

func (v voteStore) ListOutcomes(context.Context) ([]domain.Outcome, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]domain.Outcome, 0, len(v.votes))
	for _, vote := range v.votes {
		battle := v.battles[vote.BattleID]
		out = append(out, domain.Outcome{
			BattleID:     vote.BattleID,
			ModelLeftID:  battle.ModelLeftID,
			ModelRightID: battle.ModelRightID,
			Side:         vote.Side,
			CreatedAt:    vote.CreatedAt,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (v voteStore) Count(context.Context) (int64, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return int64(len(v.votes)), nil
}

// ratingStore adapts memStores to ports.RatingStore.
type ratingStore struct{ *memStores }

func (r ratingStore) Get(_ context.Context, modelID string) (domain.RatingState, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.ratings[modelID]
	return s, ok, nil
}

func (r ratingStore) Upsert(_ context.Context, s domain.RatingState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ratings[s.ModelID] = s
	return nil
}

func (r ratingStore) UpsertPair(_ context.Context, left, right domain.RatingState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ratings[left.ModelID] = left
	r.ratings[right.ModelID] = right
	return nil
}

func (r ratingStore) List(context.Context) ([]domain.RatingState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.RatingState, 0, len(r.ratings))
	for _, s := range r.ratings {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Rating != out[j].Rating {
			return out[i].Rating > out[j].Rating
		}
		return out[i].ModelID < out[j].ModelID
	})
	return out, nil
}

// auditStore adapts memStores to ports.AuditStore.
type auditStore struct{ *memStores }

func (a auditStore) Append(_ context.Context, e *domain.AuditEntry) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	e.ID = uint(len(a.audit) + 1)
	a.audit = append(a.audit, *e)
	return nil
}

func (a auditStore) List(_ context.Context, limit int) ([]domain.AuditEntry, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]domain.AuditEntry, 0, len(a.audit))
	for i := len(a.audit) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, a.audit[i])
	}
	return out, nil
}

// fakeCollector records metric calls keyed by name and the most useful
// label so tests can assert on what was emitted.
type fakeCollector struct {
	mu       sync.Mutex
	counters map[string]float64
	gauges   map[string]float64
}

func newFakeCollector() *fakeCollector {
	return &fakeCollector{
		counters: make(map[string]float64),
		gauges:   make(map[string]float64),
	}
}

func (f *fakeCollector) RecordCounter(name string, value float64, labels map[string]string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counters[name+"/"+labels["status"]] += value
}

func (f *fakeCollector) RecordGauge(name string, value float64, labels map[string]string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gauges[name+"/"+labels["model"]] = value
}

func (f *fakeCollector) RecordHistogram(string, float64, map[string]string) {}

// generatorFunc adapts a function to ports.Generator.
type generatorFunc func(ctx context.Context, req ports.GenerateRequest) (ports.GenerateResponse, error)

func (f generatorFunc) Generate(ctx context.Context, req ports.GenerateRequest) (ports.GenerateResponse, error) {
	return f(ctx, req)
}
