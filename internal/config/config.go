// Package config loads orchestratord's YAML configuration, grounded on
// the teacher's internal/config: environment-variable expansion over the
// raw file, strict YAML decoding, per-section defaulting, then validation.
package config

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is orchestratord's top-level configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Storage    StorageConfig    `yaml:"storage"`
	LLM        LLMConfig        `yaml:"llm"`
	Calendar   CalendarConfig   `yaml:"calendar"`
	Scheduling SchedulingConfig `yaml:"scheduling"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// ServerConfig configures the orchestratord HTTP listener.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StorageConfig selects and configures the repository backend.
type StorageConfig struct {
	// Backend is "memory" or "postgres".
	Backend  string         `yaml:"backend"`
	Postgres PostgresConfig `yaml:"postgres"`
}

// PostgresConfig configures the Postgres-backed repository implementation.
type PostgresConfig struct {
	DSN             string        `yaml:"dsn"`
	MaxConnections  int           `yaml:"max_connections"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// LLMConfig configures the conversational model and the planning model
// (§4.1, §4.4); both may point at the same provider and model.
type LLMConfig struct {
	Provider    string        `yaml:"provider"` // "anthropic" is the only provider wired today
	Model       string        `yaml:"model"`
	APIKeyEnv   string        `yaml:"api_key_env"` // name of the env var holding the API key
	MaxTokens   int           `yaml:"max_tokens"`
	Temperature float64       `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"`
}

// CalendarConfig configures the external calendar integration (§2).
// Provider is optional: a zero-value CalendarConfig disables the
// sync_calendar/list_calendar_events tools' upstream connection, leaving
// only their injected-nil-safe fallbacks.
type CalendarConfig struct {
	Provider     string        `yaml:"provider"` // "google" is the only provider wired today
	ClientID     string        `yaml:"client_id"`
	ClientSecret string        `yaml:"client_secret"`
	TokenFile    string        `yaml:"token_file"`
	SyncHorizon  time.Duration `yaml:"sync_horizon"`
}

// SchedulingConfig configures C3's planner selection and the orchestrator
// loop's bounds (§4.1, §4.3, §4.4).
type SchedulingConfig struct {
	// PlannerStrategy is "heuristic" or "llm"; generate_schedule/
	// optimize_schedule use it unless a call explicitly overrides it via
	// use_llm_planner.
	PlannerStrategy    string        `yaml:"planner_strategy"`
	DefaultHorizonDays int           `yaml:"default_horizon_days"`
	TurnDeadline       time.Duration `yaml:"turn_deadline"`
	MaxAssistantTurns  int           `yaml:"max_assistant_turns"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads path, expands ${VAR} references against the process
// environment, strictly decodes YAML into a Config, applies defaults, and
// validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	decoder := yaml.NewDecoder(strings.NewReader(expanded))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := decoder.Decode(new(struct{})); err != io.EOF {
		return nil, fmt.Errorf("parse config: expected a single YAML document")
	}

	applyDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}

	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = "memory"
	}
	if cfg.Storage.Postgres.MaxConnections == 0 {
		cfg.Storage.Postgres.MaxConnections = 10
	}
	if cfg.Storage.Postgres.ConnMaxLifetime == 0 {
		cfg.Storage.Postgres.ConnMaxLifetime = 5 * time.Minute
	}

	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = "anthropic"
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = "claude-sonnet-4-5"
	}
	if cfg.LLM.APIKeyEnv == "" {
		cfg.LLM.APIKeyEnv = "ANTHROPIC_API_KEY"
	}
	if cfg.LLM.MaxTokens == 0 {
		cfg.LLM.MaxTokens = 4096
	}
	if cfg.LLM.Timeout == 0 {
		cfg.LLM.Timeout = 30 * time.Second
	}

	if cfg.Calendar.Provider == "" {
		cfg.Calendar.Provider = "none"
	}
	if cfg.Calendar.SyncHorizon == 0 {
		cfg.Calendar.SyncHorizon = 14 * 24 * time.Hour
	}

	if cfg.Scheduling.PlannerStrategy == "" {
		cfg.Scheduling.PlannerStrategy = "heuristic"
	}
	if cfg.Scheduling.DefaultHorizonDays == 0 {
		cfg.Scheduling.DefaultHorizonDays = 7
	}
	if cfg.Scheduling.TurnDeadline == 0 {
		cfg.Scheduling.TurnDeadline = 45 * time.Second
	}
	if cfg.Scheduling.MaxAssistantTurns == 0 {
		cfg.Scheduling.MaxAssistantTurns = 5
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

func validate(cfg *Config) error {
	var issues []string

	if cfg.Storage.Backend != "memory" && cfg.Storage.Backend != "postgres" {
		issues = append(issues, `storage.backend must be "memory" or "postgres"`)
	}
	if cfg.Storage.Backend == "postgres" && strings.TrimSpace(cfg.Storage.Postgres.DSN) == "" {
		issues = append(issues, "storage.postgres.dsn is required when storage.backend is \"postgres\"")
	}

	if cfg.LLM.Provider != "anthropic" {
		issues = append(issues, `llm.provider must be "anthropic"`)
	}
	if cfg.LLM.Temperature < 0 || cfg.LLM.Temperature > 1 {
		issues = append(issues, "llm.temperature must be between 0 and 1")
	}

	if cfg.Calendar.Provider != "none" && cfg.Calendar.Provider != "google" {
		issues = append(issues, `calendar.provider must be "none" or "google"`)
	}
	if cfg.Calendar.Provider == "google" {
		if strings.TrimSpace(cfg.Calendar.ClientID) == "" || strings.TrimSpace(cfg.Calendar.ClientSecret) == "" {
			issues = append(issues, "calendar.client_id and calendar.client_secret are required when calendar.provider is \"google\"")
		}
	}

	if cfg.Scheduling.PlannerStrategy != "heuristic" && cfg.Scheduling.PlannerStrategy != "llm" {
		issues = append(issues, `scheduling.planner_strategy must be "heuristic" or "llm"`)
	}
	if cfg.Scheduling.MaxAssistantTurns < 1 {
		issues = append(issues, "scheduling.max_assistant_turns must be >= 1")
	}

	if !validLogLevel(cfg.Logging.Level) {
		issues = append(issues, `logging.level must be one of "debug", "info", "warn", "error"`)
	}

	if len(issues) > 0 {
		return fmt.Errorf("invalid config:\n  - %s", strings.Join(issues, "\n  - "))
	}
	return nil
}

func validLogLevel(level string) bool {
	switch level {
	case "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}
