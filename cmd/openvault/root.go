package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/openvault/openvault/internal/audit"
	"github.com/openvault/openvault/internal/config"
	"github.com/openvault/openvault/internal/constitutional"
	"github.com/openvault/openvault/internal/llm"
	"github.com/openvault/openvault/internal/llm/providers"
	"github.com/openvault/openvault/internal/observability"
	"github.com/openvault/openvault/internal/orchestrator"
	"github.com/openvault/openvault/internal/policy"
	"github.com/openvault/openvault/internal/policy/store"
	"github.com/openvault/openvault/internal/safety"
)

var (
	configPath string
	verbose    bool

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "openvault",
	Short: "OpenVault - safety gating for LLM completions",
	Long: `OpenVault gates text flowing to and from a completion provider:
every prompt and every generated response passes through a content-safety
check, an optional organization policy, and - when violations are found -
a principle-guided revision step before it reaches the caller.`,
	PersistentPreRunE: loadConfig,
	SilenceUsage:      true,
	SilenceErrors:     true,
}

// Execute runs the root command with signal handling
func Execute(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return rootCmd.ExecuteContext(ctx)
}

// loadConfig runs before every command to load configuration and set up
// the process logger.
func loadConfig(cmd *cobra.Command, args []string) error {
	path := configPath
	if path == "" {
		path = os.Getenv("OPENVAULT_CONFIG")
	}
	if path == "" {
		path = "openvault.yaml"
	}

	loaded, err := config.NewLoader(config.NewValidator()).LoadWithDefaults(path)
	if err != nil {
		return err
	}
	cfg = loaded

	level := cfg.Logging.Level
	if verbose {
		level = "debug"
	}
	slog.SetDefault(observability.NewLogger(os.Stderr, level, cfg.Logging.Format))
	return nil
}

// buildPipeline assembles the gating pipeline from the loaded configuration
func buildPipeline(ctx context.Context) (*orchestrator.Orchestrator, func(), error) {
	logger := slog.Default()

	shutdownTracing, err := observability.InitTracing(ctx, cfg.Tracing.ToTracingConfig())
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() { _ = shutdownTracing(context.Background()) }

	registry, provider, err := buildRegistry()
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	logger.Debug("provider registered", "providers", registry.List())

	var policies store.Store
	if cfg.Policy.DatabasePath != "" {
		sqliteStore, err := store.OpenSQLite(cfg.Policy.DatabasePath)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		policies = sqliteStore
		prev := cleanup
		cleanup = func() {
			sqliteStore.Close()
			prev()
		}
	} else {
		policies = store.NewMemoryStore()
	}

	var sink audit.Sink = audit.NopSink{}
	switch cfg.Audit.Backend {
	case "log":
		sink = audit.NewLogSink(logger)
	case "sqlite":
		sqliteSink, err := audit.OpenSQLite(cfg.Audit.DatabasePath, logger)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		prev := cleanup
		cleanup = func() {
			sqliteSink.Close()
			prev()
		}
		sink = sqliteSink
	}

	critic := buildCritic(provider)

	orch := orchestrator.New(
		safety.NewAnalyzer().WithLogger(logger).WithTracer(observability.Tracer("safety")),
		policy.NewEngine().WithLogger(logger).WithTracer(observability.Tracer("policy")),
		policies,
		provider,
		constitutional.NewReviser(critic).WithLogger(logger).WithTracer(observability.Tracer("constitutional")),
	).
		WithLogger(logger).
		WithAuditSink(sink).
		WithTracer(observability.Tracer("orchestrator")).
		WithMaxRevisions(cfg.Safety.MaxRevisions)

	return orch, cleanup, nil
}

// buildRegistry constructs the configured provider and registers it. The
// provider is resolved back through the registry so every caller goes
// through the same lookup path.
func buildRegistry() (*llm.Registry, llm.Provider, error) {
	provider, err := providers.NewProvider(cfg.Provider.ToProviderConfig())
	if err != nil {
		return nil, nil, err
	}

	registry := llm.NewRegistry()
	if err := registry.Register(provider); err != nil {
		return nil, nil, err
	}

	provider, err = registry.Get(provider.Name())
	if err != nil {
		return nil, nil, err
	}
	return registry, provider, nil
}

// buildCritic picks the revision critic: model-backed when a real provider
// is configured, pattern-based otherwise.
func buildCritic(provider llm.Provider) constitutional.Critic {
	if cfg.Provider.Type == "mock" {
		return constitutional.NewRuleCritic()
	}
	return constitutional.NewLLMCritic(provider, cfg.Provider.DefaultModel)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(reviseCmd)
	rootCmd.AddCommand(completeCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(modelsCmd)
	rootCmd.AddCommand(versionCmd)
}
