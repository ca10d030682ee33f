// Package testutil provides shared test fixtures: a migrated in-memory run
// journal and a pipeline wired to the offline provider.
package testutil

import (
	"context"
	"testing"

	"github.com/Veraticus/arcwise/internal/agents"
	"github.com/Veraticus/arcwise/internal/llm"
	"github.com/Veraticus/arcwise/internal/pipeline"
	"github.com/Veraticus/arcwise/internal/storage"
)

// NewStorage creates an in-memory journal with migrations applied. It is
// closed when the test ends.
func NewStorage(t testing.TB) *storage.SQLiteStorage {
	t.Helper()

	store, err := storage.NewSQLiteStorage(storage.MemoryPath)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() {
		_ = store.Close()
	})

	return store
}

// OfflinePipeline wires every stage to a fresh offline client with the
// default safety policy and risk threshold.
func OfflinePipeline(opts ...pipeline.Option) *pipeline.Pipeline {
	client := llm.NewOfflineClient()
	return pipeline.New(
		agents.NewClassifier(client, agents.DefaultSafetyPolicy()),
		agents.NewDecider(client),
		agents.NewValidator(agents.NewLLMRiskScorer(client), agents.RiskThreshold),
		agents.NewExecutor(nil),
		opts...,
	)
}
