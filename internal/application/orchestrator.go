package application

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/promptarena/arena/internal/domain"
	"github.com/promptarena/arena/internal/ports"
)

// BattleResult is what a prompt submission gets back: the battle handle
// and both responses, with no hint of which model produced which side.
type BattleResult struct {
	BattleID      string `json:"battle_id"`
	ResponseLeft  string `json:"response_a"`
	ResponseRight string `json:"response_b"`
}

// Orchestrator runs battles: it pairs two random active models, fans the
// prompt out to both backends concurrently, and persists the completed
// battle. A backend failure on one side never aborts the battle; the
// failing side gets an inline placeholder instead.
type Orchestrator struct {
	models    ports.ModelStore
	battles   ports.BattleStore
	generator ports.Generator

	systemPrompt string
	maxTokens    int
	temperature  float64
	timeout      time.Duration

	logger zerolog.Logger
}

// NewOrchestrator wires an orchestrator from its dependencies and the
// arena tunables.
func NewOrchestrator(
	models ports.ModelStore,
	battles ports.BattleStore,
	generator ports.Generator,
	cfg ArenaConfig,
	logger zerolog.Logger,
) *Orchestrator {
	return &Orchestrator{
		models:       models,
		battles:      battles,
		generator:    generator,
		systemPrompt: cfg.SystemPrompt,
		maxTokens:    cfg.MaxTokens,
		temperature:  cfg.Temperature,
		timeout:      cfg.GenerationTimeout(),
		logger:       logger.With().Str("component", "orchestrator").Logger(),
	}
}

// pickPair selects two distinct indices from [0, n) uniformly at random.
// Requires n >= 2.
func pickPair(n int) (int, int) {
	i := rand.IntN(n)
	j := rand.IntN(n - 1)
	if j >= i {
		j++
	}
	return i, j
}

// StartBattle pairs two random distinct active models, generates both
// responses concurrently, and returns the completed battle. When fewer
// than two active models exist it returns domain.ErrInsufficientModels
// and persists nothing.
func (o *Orchestrator) StartBattle(ctx context.Context, prompt, sessionID string) (BattleResult, error) {
	active, err := o.models.ListActive(ctx)
	if err != nil {
		return BattleResult{}, fmt.Errorf("list active models: %w", err)
	}
	if len(active) < 2 {
		return BattleResult{}, domain.ErrInsufficientModels
	}

	li, ri := pickPair(len(active))
	left, right := active[li], active[ri]

	battle := domain.Battle{
		ID:           uuid.NewString(),
		ModelLeftID:  left.ID,
		ModelRightID: right.ID,
		Prompt:       prompt,
		SessionID:    sessionID,
		CreatedAt:    time.Now().UTC(),
	}
	if err := o.battles.Create(ctx, &battle); err != nil {
		return BattleResult{}, fmt.Errorf("persist battle: %w", err)
	}

	o.logger.Info().
		Str("battle_id", battle.ID).
		Str("model_left", left.ID).
		Str("model_right", right.ID).
		Msg("battle started")

	var responseLeft, responseRight string
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		responseLeft = o.generateSide(gctx, battle.ID, left, prompt)
		return nil
	})
	g.Go(func() error {
		responseRight = o.generateSide(gctx, battle.ID, right, prompt)
		return nil
	})
	// Goroutines report failures as placeholder text, never as errors, so
	// one slow or broken backend cannot cancel its sibling.
	_ = g.Wait()

	if err := o.battles.SetResponses(ctx, battle.ID, responseLeft, responseRight); err != nil {
		return BattleResult{}, fmt.Errorf("persist responses: %w", err)
	}

	return BattleResult{
		BattleID:      battle.ID,
		ResponseLeft:  responseLeft,
		ResponseRight: responseRight,
	}, nil
}

// generateSide runs one side's backend call and converts any failure into
// the inline placeholder voters see in place of a response.
func (o *Orchestrator) generateSide(ctx context.Context, battleID string, model domain.Model, prompt string) string {
	req := ports.GenerateRequest{
		Messages: []ports.ChatMessage{
			{Role: ports.RoleSystem, Content: o.systemPrompt},
			{Role: ports.RoleUser, Content: prompt},
		},
		Model:       model.BackendModelID,
		MaxTokens:   o.maxTokens,
		Temperature: &o.temperature,
		Timeout:     o.timeout,
	}

	resp, err := o.generator.Generate(ctx, req)
	if err != nil {
		msg := err.Error()
		// Backend errors carry a short human-readable message meant for the
		// placeholder; fall back to the full error text otherwise.
		var carrier interface{ UserMessage() string }
		if errors.As(err, &carrier) {
			msg = carrier.UserMessage()
		}
		o.logger.Warn().
			Err(err).
			Str("battle_id", battleID).
			Str("model", model.ID).
			Msg("generation failed, recording placeholder")
		return fmt.Sprintf("[Error generating response: %s]", msg)
	}

	o.logger.Debug().
		Str("battle_id", battleID).
		Str("model", model.ID).
		Int64("latency_ms", resp.LatencyMs).
		Msg("side generated")
	return resp.Content
}
