// Package config loads the process configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/Veraticus/arcwise/internal/common"
)

// Provider names accepted in llm.provider.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderOffline   = "offline"
)

// Config is the process configuration, loaded once at startup and passed
// explicitly to every component.
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Logging  common.LogOptions
	LLM      LLMConfig
	Policy   PolicyConfig
	Batch    BatchConfig
}

// LLMConfig selects and configures the inference provider.
type LLMConfig struct {
	Provider    string
	APIKey      string
	Model       string
	BaseURL     string
	Timeout     time.Duration
	Temperature float64
	MaxTokens   int
}

// PolicyConfig holds the safety and compliance policy knobs.
type PolicyConfig struct {
	AmountLimit decimal.Decimal
	// SuspiciousRecipients are regular expressions; empty means the
	// built-in patterns.
	SuspiciousRecipients []string
	RiskThreshold        float64
}

// DatabaseConfig locates the run journal.
type DatabaseConfig struct {
	Path     string
	Disabled bool
}

// ServerConfig configures the HTTP API. With TLS set, a self-signed
// certificate is kept in CertDir.
type ServerConfig struct {
	Addr            string
	CertDir         string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	TLS             bool
}

// BatchConfig configures batch processing.
type BatchConfig struct {
	Workers int
}

// EnvPrefix prefixes environment overrides: llm.provider is read from
// ARCWISE_LLM_PROVIDER.
const EnvPrefix = "ARCWISE"

// BindEnv makes every key on v overridable from the environment.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("llm.provider", ProviderOpenAI)
	v.SetDefault("llm.temperature", 0.0)
	v.SetDefault("llm.max_tokens", 1024)
	v.SetDefault("llm.timeout", 60*time.Second)
	v.SetDefault("policy.amount_limit", "10000")
	v.SetDefault("policy.risk_threshold", 0.4)
	v.SetDefault("database.path", "~/.local/share/arcwise/arcwise.db")
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 120*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.cert_dir", "~/.local/share/arcwise/certs")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("batch.workers", 4)
}

// Load builds a Config from v. A networked provider without a credential is
// ErrMissingConfig; malformed values are ErrInvalidConfig.
func Load(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	llmCfg, err := loadLLM(v)
	if err != nil {
		return nil, err
	}

	policy, err := loadPolicy(v)
	if err != nil {
		return nil, err
	}

	logging, err := LoadLogging(v)
	if err != nil {
		return nil, err
	}

	workers := v.GetInt("batch.workers")
	if workers < 1 {
		return nil, fmt.Errorf("%w: batch.workers must be at least 1, got %d", common.ErrInvalidConfig, workers)
	}

	return &Config{
		LLM:      llmCfg,
		Policy:   policy,
		Database: LoadDatabase(v),
		Server: ServerConfig{
			Addr:            v.GetString("server.addr"),
			ReadTimeout:     v.GetDuration("server.read_timeout"),
			WriteTimeout:    v.GetDuration("server.write_timeout"),
			ShutdownTimeout: v.GetDuration("server.shutdown_timeout"),
			TLS:             v.GetBool("server.tls"),
			CertDir:         ExpandPath(v.GetString("server.cert_dir")),
		},
		Logging: logging,
		Batch:   BatchConfig{Workers: workers},
	}, nil
}

// LoadLogging reads and validates the logging section. It needs no
// credentials, so it can run before the rest of the configuration.
func LoadLogging(v *viper.Viper) (common.LogOptions, error) {
	SetDefaults(v)

	logging := common.LogOptions{
		Level:  v.GetString("logging.level"),
		Format: v.GetString("logging.format"),
		File:   ExpandPath(v.GetString("logging.file")),
	}
	if _, err := common.ParseLevel(logging.Level); err != nil {
		return common.LogOptions{}, err
	}
	switch logging.Format {
	case "console", "json":
	default:
		return common.LogOptions{}, fmt.Errorf("%w: invalid log format: %s", common.ErrInvalidConfig, logging.Format)
	}
	return logging, nil
}

// LoadDatabase reads the journal location. Commands that only touch the
// journal use it instead of Load.
func LoadDatabase(v *viper.Viper) DatabaseConfig {
	SetDefaults(v)

	dbPath := ExpandPath(v.GetString("database.path"))
	if dbPath != "" && dbPath != ":memory:" {
		dbPath = filepath.Clean(dbPath)
	}
	return DatabaseConfig{
		Path:     dbPath,
		Disabled: v.GetBool("database.disabled") || dbPath == "",
	}
}

func loadLLM(v *viper.Viper) (LLMConfig, error) {
	cfg := LLMConfig{
		Provider:    strings.ToLower(strings.TrimSpace(v.GetString("llm.provider"))),
		Model:       v.GetString("llm.model"),
		BaseURL:     v.GetString("llm.base_url"),
		Timeout:     v.GetDuration("llm.timeout"),
		Temperature: v.GetFloat64("llm.temperature"),
		MaxTokens:   v.GetInt("llm.max_tokens"),
	}

	// MODEL_NAME is honored for compatibility with existing deployments.
	if cfg.Model == "" {
		cfg.Model = os.Getenv("MODEL_NAME")
	}

	switch cfg.Provider {
	case ProviderOpenAI:
		cfg.APIKey = firstNonEmpty(v.GetString("llm.api_key"), v.GetString("llm.openai_api_key"), os.Getenv("OPENAI_API_KEY"))
		if cfg.APIKey == "" {
			return LLMConfig{}, fmt.Errorf("%w: OpenAI API key not found in config or OPENAI_API_KEY environment variable", common.ErrMissingConfig)
		}
		if cfg.Model == "" {
			cfg.Model = "gpt-4o-mini"
		}
	case ProviderAnthropic:
		cfg.APIKey = firstNonEmpty(v.GetString("llm.api_key"), v.GetString("llm.anthropic_api_key"), os.Getenv("ANTHROPIC_API_KEY"))
		if cfg.APIKey == "" {
			return LLMConfig{}, fmt.Errorf("%w: anthropic API key not found in config or ANTHROPIC_API_KEY environment variable", common.ErrMissingConfig)
		}
		if cfg.Model == "" {
			cfg.Model = "claude-3-5-haiku-latest"
		}
	case ProviderOffline:
		if cfg.Model == "" {
			cfg.Model = ProviderOffline
		}
	default:
		return LLMConfig{}, fmt.Errorf("%w: unsupported LLM provider: %q", common.ErrInvalidConfig, cfg.Provider)
	}

	if cfg.Temperature < 0 || cfg.Temperature > 2 {
		return LLMConfig{}, fmt.Errorf("%w: llm.temperature must be between 0 and 2, got %v", common.ErrInvalidConfig, cfg.Temperature)
	}

	return cfg, nil
}

func loadPolicy(v *viper.Viper) (PolicyConfig, error) {
	limit, err := decimal.NewFromString(strings.TrimSpace(v.GetString("policy.amount_limit")))
	if err != nil {
		return PolicyConfig{}, fmt.Errorf("%w: policy.amount_limit: %w", common.ErrInvalidConfig, err)
	}
	if !limit.IsPositive() {
		return PolicyConfig{}, fmt.Errorf("%w: policy.amount_limit must be positive, got %s", common.ErrInvalidConfig, limit)
	}

	threshold := v.GetFloat64("policy.risk_threshold")
	if threshold <= 0 || threshold > 1 {
		return PolicyConfig{}, fmt.Errorf("%w: policy.risk_threshold must be in (0, 1], got %v", common.ErrInvalidConfig, threshold)
	}

	patterns := v.GetStringSlice("policy.suspicious_recipients")
	if _, err := common.CompilePatterns(patterns); err != nil {
		return PolicyConfig{}, err
	}

	return PolicyConfig{
		AmountLimit:          limit,
		RiskThreshold:        threshold,
		SuspiciousRecipients: patterns,
	}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// ExpandPath resolves a leading ~ to the home directory and expands $VAR
// references.
func ExpandPath(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = home + strings.TrimPrefix(path, "~")
		}
	}
	return os.ExpandEnv(path)
}
