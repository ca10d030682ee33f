package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/viper"

	"github.com/Veraticus/arcwise/internal/agents"
	"github.com/Veraticus/arcwise/internal/config"
	"github.com/Veraticus/arcwise/internal/llm"
	"github.com/Veraticus/arcwise/internal/pipeline"
	"github.com/Veraticus/arcwise/internal/storage"
)

// app holds what a command needs to run requests. store is nil when the
// journal is disabled.
type app struct {
	cfg      *config.Config
	pipeline *pipeline.Pipeline
	store    *storage.SQLiteStorage
}

func (a *app) Close() error {
	if a.store == nil {
		return nil
	}
	return a.store.Close()
}

// newApp loads the configuration and wires the pipeline from it.
func newApp(ctx context.Context, v *viper.Viper) (*app, error) {
	cfg, err := config.Load(v)
	if err != nil {
		return nil, err
	}

	client, err := llm.NewClient(llm.Config{
		Provider:    cfg.LLM.Provider,
		APIKey:      cfg.LLM.APIKey,
		Model:       cfg.LLM.Model,
		BaseURL:     cfg.LLM.BaseURL,
		Timeout:     cfg.LLM.Timeout,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	policy, err := safetyPolicy(cfg.Policy)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg}
	opts := []pipeline.Option{pipeline.WithLogger(slog.Default())}

	if !cfg.Database.Disabled {
		store, err := initStorage(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize storage: %w", err)
		}
		a.store = store
		opts = append(opts, pipeline.WithJournal(store))
	}

	a.pipeline = pipeline.New(
		agents.NewClassifier(client, policy),
		agents.NewDecider(client),
		agents.NewValidator(agents.NewLLMRiskScorer(client), cfg.Policy.RiskThreshold),
		agents.NewExecutor(nil),
		opts...,
	)

	slog.Debug("Pipeline ready",
		"provider", cfg.LLM.Provider,
		"model", cfg.LLM.Model,
		"journal", !cfg.Database.Disabled,
		"risk_threshold", cfg.Policy.RiskThreshold)

	return a, nil
}

func safetyPolicy(cfg config.PolicyConfig) (agents.SafetyPolicy, error) {
	policy := agents.DefaultSafetyPolicy()
	policy.AmountLimit = cfg.AmountLimit

	if len(cfg.SuspiciousRecipients) > 0 {
		check, err := agents.PatternSuspicionCheck(cfg.SuspiciousRecipients)
		if err != nil {
			return agents.SafetyPolicy{}, err
		}
		policy.Suspicious = check
	}
	return policy, nil
}

// initStorage opens the journal and brings its schema up to date.
func initStorage(ctx context.Context, db config.DatabaseConfig) (*storage.SQLiteStorage, error) {
	store, err := storage.NewSQLiteStorage(db.Path)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}
