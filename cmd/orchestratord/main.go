// Command orchestratord runs the personal-productivity orchestrator: a
// conversational agent (C1) that manages Bricks/Quantas, syncs and
// reconciles external calendar events (C2), and proposes schedules (C3).
//
// Usage:
//
//	orchestratord serve --config orchestratord.yaml
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/haasonsaas/brickwork/internal/calendarprovider"
	"github.com/haasonsaas/brickwork/internal/clock"
	"github.com/haasonsaas/brickwork/internal/config"
	"github.com/haasonsaas/brickwork/internal/llmprovider"
	"github.com/haasonsaas/brickwork/internal/orchestrator"
	"github.com/haasonsaas/brickwork/internal/planner"
	"github.com/haasonsaas/brickwork/internal/repo"
	"github.com/haasonsaas/brickwork/internal/tools"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})))

	if err := buildRootCmd().Execute(); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func buildRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "orchestratord",
		Short:        "Personal-productivity orchestrator daemon",
		Version:      fmt.Sprintf("%s (commit %s)", version, commit),
		SilenceUsage: true,
	}
	root.AddCommand(buildServeCmd(), buildMigrateCmd())
	return root
}

func buildServeCmd() *cobra.Command {
	var configPath string
	var debug bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the orchestrator server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), configPath, debug)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "orchestratord.yaml", "path to YAML configuration file")
	cmd.Flags().BoolVarP(&debug, "debug", "d", false, "enable debug logging")
	return cmd
}

func buildMigrateCmd() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Print the schema this binary expects (bring your own migration runner)",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			fmt.Println(postgresSchema)
			return nil
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "orchestratord.yaml", "path to YAML configuration file")
	return cmd
}

func runServe(ctx context.Context, configPath string, debug bool) error {
	if debug {
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	slog.Info("configuration loaded", "backend", cfg.Storage.Backend, "planner_strategy", cfg.Scheduling.PlannerStrategy)

	repos, closeRepos, err := buildRepositories(cfg)
	if err != nil {
		return fmt.Errorf("build repositories: %w", err)
	}
	defer closeRepos()

	provider, err := buildLLMProvider(cfg)
	if err != nil {
		return fmt.Errorf("build LLM provider: %w", err)
	}

	heuristic := planner.NewHeuristicPlanner(clock.Real{})
	textCompletion := llmprovider.TextCompletion{Provider: provider}
	llmPlanner := planner.NewLLMPlanner(textCompletion, heuristic)

	calProvider := buildCalendarProvider(cfg)

	registry := tools.NewToolRegistry(tools.WithLogger(slog.Default()))
	if _, err := tools.RegisterAll(registry, tools.Dependencies{
		Repos:           repos,
		Heuristic:       heuristic,
		LLM:             llmPlanner,
		UseLLMByDefault: cfg.Scheduling.PlannerStrategy == "llm",
		Calendar:        calProvider,
	}); err != nil {
		return fmt.Errorf("register tools: %w", err)
	}

	graph := orchestrator.NewGraph(provider, registry, repos.Messages(),
		orchestrator.WithLogger(slog.Default()),
		orchestrator.WithTurnDeadline(cfg.Scheduling.TurnDeadline),
		orchestrator.WithMaxAssistantTurns(cfg.Scheduling.MaxAssistantTurns),
	)
	_ = graph // wired for an HTTP/gRPC front end to call ProcessTurn; transport is out of scope here.

	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	slog.Info("orchestratord started", "addr", fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port))
	<-ctx.Done()
	slog.Info("shutdown signal received, stopping")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = shutdownCtx

	slog.Info("orchestratord stopped")
	return nil
}

func buildRepositories(cfg *config.Config) (repo.Repositories, func(), error) {
	switch cfg.Storage.Backend {
	case "postgres":
		repos, err := repo.NewPostgresRepositoriesFromDSN(cfg.Storage.Postgres.DSN, &repo.PostgresConfig{
			MaxOpenConns:    cfg.Storage.Postgres.MaxConnections,
			MaxIdleConns:    cfg.Storage.Postgres.MaxConnections / 2,
			ConnMaxLifetime: cfg.Storage.Postgres.ConnMaxLifetime,
			ConnectTimeout:  10 * time.Second,
		})
		if err != nil {
			return nil, func() {}, err
		}
		return repos, func() {
			if err := repos.Close(); err != nil {
				slog.Error("failed to close postgres repositories", "error", err)
			}
		}, nil
	default:
		return repo.NewMemoryRepositories(), func() {}, nil
	}
}

func buildLLMProvider(cfg *config.Config) (llmprovider.Provider, error) {
	apiKey := os.Getenv(cfg.LLM.APIKeyEnv)
	return llmprovider.NewAnthropicProvider(llmprovider.AnthropicConfig{
		APIKey:       apiKey,
		DefaultModel: cfg.LLM.Model,
		MaxTokens:    int64(cfg.LLM.MaxTokens),
	})
}

func buildCalendarProvider(cfg *config.Config) calendarprovider.Provider {
	if cfg.Calendar.Provider != "google" {
		return nil
	}
	return calendarprovider.NewGoogleProvider(calendarprovider.GoogleConfig{
		ClientID:     cfg.Calendar.ClientID,
		ClientSecret: cfg.Calendar.ClientSecret,
		TokenStore:   calendarprovider.NewFileTokenStore(cfg.Calendar.TokenFile),
	})
}

const postgresSchema = `
CREATE TABLE IF NOT EXISTS bricks (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	title TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	category TEXT NOT NULL,
	priority TEXT NOT NULL,
	status TEXT NOT NULL,
	estimated_duration_minutes INTEGER NOT NULL,
	target_date TIMESTAMPTZ,
	deadline TIMESTAMPTZ,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS quantas (
	id TEXT PRIMARY KEY,
	brick_id TEXT NOT NULL REFERENCES bricks(id),
	title TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL,
	estimated_duration_minutes INTEGER NOT NULL,
	order_index INTEGER NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS messages (
	id TEXT PRIMARY KEY,
	conversation_id TEXT NOT NULL,
	user_id TEXT NOT NULL,
	role TEXT NOT NULL,
	content TEXT NOT NULL,
	tool_calls JSONB,
	tool_call_id TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS messages_conversation_idx ON messages (conversation_id, created_at);
`
