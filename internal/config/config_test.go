package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/arcwise/internal/common"
)

func clearEnv(t *testing.T) {
	t.Helper()
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("MODEL_NAME", "")
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := Load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, ProviderOpenAI, cfg.LLM.Provider)
	assert.Equal(t, "sk-test", cfg.LLM.APIKey)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
	assert.InDelta(t, 0.0, cfg.LLM.Temperature, 1e-9)
	assert.Equal(t, 60*time.Second, cfg.LLM.Timeout)

	assert.True(t, cfg.Policy.AmountLimit.Equal(decimal.NewFromInt(10000)))
	assert.InDelta(t, 0.4, cfg.Policy.RiskThreshold, 1e-9)
	assert.Empty(t, cfg.Policy.SuspiciousRecipients)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.False(t, cfg.Server.TLS)
	assert.Equal(t, "certs", filepath.Base(cfg.Server.CertDir))
	assert.Equal(t, 4, cfg.Batch.Workers)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.True(t, filepath.IsAbs(cfg.Database.Path))
	assert.Equal(t, "arcwise.db", filepath.Base(cfg.Database.Path))
	assert.False(t, cfg.Database.Disabled)
}

func TestLoad_ModelNameEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("MODEL_NAME", "gpt-4o")

	cfg, err := Load(viper.New())
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o", cfg.LLM.Model)
}

func TestLoad_MissingCredential(t *testing.T) {
	clearEnv(t)

	for _, provider := range []string{ProviderOpenAI, ProviderAnthropic} {
		t.Run(provider, func(t *testing.T) {
			v := viper.New()
			v.Set("llm.provider", provider)

			_, err := Load(v)
			require.Error(t, err)
			assert.ErrorIs(t, err, common.ErrMissingConfig)
		})
	}
}

func TestLoad_Offline(t *testing.T) {
	clearEnv(t)

	v := viper.New()
	v.Set("llm.provider", "Offline")
	v.Set("database.path", ":memory:")

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, ProviderOffline, cfg.LLM.Provider)
	assert.Empty(t, cfg.LLM.APIKey)
	assert.Equal(t, ":memory:", cfg.Database.Path)
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("ARCWISE_LLM_PROVIDER", "offline")
	t.Setenv("ARCWISE_POLICY_RISK_THRESHOLD", "0.25")
	t.Setenv("ARCWISE_DATABASE_PATH", ":memory:")
	t.Setenv("ARCWISE_BATCH_WORKERS", "9")

	v := viper.New()
	BindEnv(v)

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, ProviderOffline, cfg.LLM.Provider)
	assert.InDelta(t, 0.25, cfg.Policy.RiskThreshold, 1e-9)
	assert.Equal(t, ":memory:", cfg.Database.Path)
	assert.Equal(t, 9, cfg.Batch.Workers)
}

func TestLoad_Anthropic(t *testing.T) {
	clearEnv(t)

	v := viper.New()
	v.Set("llm.provider", ProviderAnthropic)
	v.Set("llm.anthropic_api_key", "ak-test")

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "ak-test", cfg.LLM.APIKey)
	assert.Equal(t, "claude-3-5-haiku-latest", cfg.LLM.Model)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		values map[string]any
		name   string
	}{
		{name: "unknown provider", values: map[string]any{"llm.provider": "bard"}},
		{name: "temperature", values: map[string]any{"llm.temperature": 3.0}},
		{name: "amount limit not a number", values: map[string]any{"policy.amount_limit": "lots"}},
		{name: "amount limit negative", values: map[string]any{"policy.amount_limit": "-5"}},
		{name: "threshold zero", values: map[string]any{"policy.risk_threshold": 0.0}},
		{name: "threshold above one", values: map[string]any{"policy.risk_threshold": 1.5}},
		{name: "bad pattern", values: map[string]any{"policy.suspicious_recipients": []string{"("}}},
		{name: "log level", values: map[string]any{"logging.level": "loud"}},
		{name: "log format", values: map[string]any{"logging.format": "xml"}},
		{name: "workers", values: map[string]any{"batch.workers": 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			v := viper.New()
			v.Set("llm.provider", ProviderOffline)
			for k, val := range tt.values {
				v.Set(k, val)
			}

			_, err := Load(v)
			require.Error(t, err)
			assert.ErrorIs(t, err, common.ErrInvalidConfig)
		})
	}
}

func TestLoad_DatabaseDisabled(t *testing.T) {
	clearEnv(t)
	v := viper.New()
	v.Set("llm.provider", ProviderOffline)
	v.Set("database.disabled", true)

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.True(t, cfg.Database.Disabled)
}

func TestLoadDatabase_WithoutCredentials(t *testing.T) {
	clearEnv(t)
	v := viper.New()
	v.Set("database.path", "/tmp/arcwise/../arcwise/runs.db")

	db := LoadDatabase(v)
	assert.Equal(t, "/tmp/arcwise/runs.db", db.Path)
	assert.False(t, db.Disabled)

	v.Set("database.path", "")
	assert.True(t, LoadDatabase(v).Disabled)
}

func TestLoadLogging(t *testing.T) {
	v := viper.New()
	opts, err := LoadLogging(v)
	require.NoError(t, err)
	assert.Equal(t, "info", opts.Level)
	assert.Equal(t, "console", opts.Format)

	v.Set("logging.format", "xml")
	_, err = LoadLogging(v)
	assert.ErrorIs(t, err, common.ErrInvalidConfig)
}

func TestExpandPath(t *testing.T) {
	t.Setenv("HOME", "/home/tester")
	t.Setenv("ARCWISE_DATA", "/srv/arcwise")

	tests := []struct {
		in   string
		want string
	}{
		{in: "", want: ""},
		{in: "~", want: "/home/tester"},
		{in: "~/data/arcwise.db", want: "/home/tester/data/arcwise.db"},
		{in: "$ARCWISE_DATA/arcwise.db", want: "/srv/arcwise/arcwise.db"},
		{in: "/abs/path.db", want: "/abs/path.db"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ExpandPath(tt.in))
		})
	}
}
