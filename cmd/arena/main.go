// Command arena runs the model comparison service: anonymous prompt
// battles between randomly paired backends, session votes, and an
// Elo leaderboard.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/promptarena/arena/infrastructure/llm"
	"github.com/promptarena/arena/infrastructure/middleware"
	"github.com/promptarena/arena/infrastructure/storage"
	"github.com/promptarena/arena/internal/application"
	"github.com/promptarena/arena/internal/domain"
	"github.com/promptarena/arena/internal/server"
)

func main() {
	configPath := flag.String("config", "", "path to YAML configuration file")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()
	if *debug {
		logger = logger.Level(zerolog.DebugLevel)
	} else {
		logger = logger.Level(zerolog.InfoLevel)
	}

	if err := run(*configPath, logger); err != nil {
		logger.Fatal().Err(err).Msg("arena exited")
	}
}

func run(configPath string, logger zerolog.Logger) error {
	cfg, err := application.LoadConfig(configPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := storage.Open(cfg.Database.Path)
	if err != nil {
		return err
	}

	metrics := middleware.NewPrometheusMetrics()
	registry, err := buildRegistry(ctx, cfg, metrics, logger)
	if err != nil {
		return err
	}

	engine := domain.NewEloEngine(cfg.Arena.KFactor)
	// One gate serializes every rating read-modify-write: live votes and
	// full recomputations never interleave.
	gate := &sync.Mutex{}

	orchestrator := application.NewOrchestrator(store.Models, store.Battles, registry, cfg.Arena, logger)
	ledger := application.NewLedger(store.Battles, store.Votes, store.Ratings, store.Models, engine, metrics, gate, logger)
	recomputer := application.NewRecomputer(store.Models, store.Votes, store.Ratings, engine, metrics, gate, logger)
	leaderboard := application.NewLeaderboard(store.Models, store.Battles, store.Votes, store.Ratings)
	admin := application.NewAdmin(store.Models, store.Audit, logger)

	srv := server.New(orchestrator, ledger, recomputer, leaderboard, admin, cfg.Admin.Token, logger)

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.Server.Addr).Msg("listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

// buildRegistry constructs every enabled backend adapter, wraps it in the
// shared middleware chain, and registers it.
func buildRegistry(ctx context.Context, cfg application.Config, metrics *middleware.PrometheusMetrics, logger zerolog.Logger) (*llm.Registry, error) {
	chain := []llm.Middleware{
		llm.TimeoutMiddleware(cfg.Arena.GenerationTimeout()),
		llm.RateLimitMiddleware(rate.Limit(10), 20),
		llm.MetricsMiddleware(metrics),
		llm.TracingMiddleware("arena"),
	}

	registry := llm.NewRegistry()
	register := func(name string, p llm.Provider, err error) error {
		if err != nil {
			return err
		}
		registry.Register(llm.Chain(p, chain...))
		logger.Info().Str("provider", name).Msg("backend registered")
		return nil
	}

	base := func(p application.ProviderConfig) llm.Config {
		return llm.Config{
			APIKey:    p.APIKey,
			BaseURL:   p.BaseURL,
			Timeout:   cfg.Arena.GenerationTimeout(),
			MaxTokens: cfg.Arena.MaxTokens,
		}
	}

	if cfg.Providers.Anthropic.Active() {
		p, err := llm.NewAnthropicProvider(base(cfg.Providers.Anthropic))
		if err := register("anthropic", p, err); err != nil {
			return nil, err
		}
	}
	if cfg.Providers.Gateway.Active() {
		p, err := llm.NewGatewayProvider(base(cfg.Providers.Gateway))
		if err := register("gateway", p, err); err != nil {
			return nil, err
		}
	}
	if cfg.Providers.Google.Active() {
		p, err := llm.NewGoogleProvider(ctx, base(cfg.Providers.Google))
		if err := register("google", p, err); err != nil {
			return nil, err
		}
	}
	if cfg.Providers.Ollama.Active() {
		p, err := llm.NewOllamaProvider(base(cfg.Providers.Ollama))
		if err := register("ollama", p, err); err != nil {
			return nil, err
		}
	}

	if len(registry.Providers()) == 0 {
		logger.Warn().Msg("no backends configured; battles will fail until a provider is enabled")
	}
	return registry, nil
}
