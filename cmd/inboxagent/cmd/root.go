package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nhle/inbox-agent/internal/credential"
	"github.com/nhle/inbox-agent/internal/insight"
	"github.com/nhle/inbox-agent/internal/llm"
	"github.com/nhle/inbox-agent/internal/logging"
	"github.com/nhle/inbox-agent/internal/metrics"
	"github.com/nhle/inbox-agent/internal/model"
	"github.com/nhle/inbox-agent/internal/store"
	"github.com/nhle/inbox-agent/internal/triage"
)

var (
	cfgFile  string
	dbPath   string
	logLevel string

	cfg    *model.AppConfig
	logger = zap.NewNop()

	// Replaced in tests.
	openSecrets = func() (*credential.Store, error) {
		return credential.Open(model.ConfigDir())
	}
	connector = connect
)

var rootCmd = &cobra.Command{
	Use:   "inboxagent",
	Short: "Triage an email inbox with a language model",
	Long: `inboxagent categorizes emails, extracts action items, drafts replies and
plans the week from a local SQLite inbox.

Run without a subcommand to open the terminal UI.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = model.LoadConfig(cfgFile)
		if err != nil {
			return err
		}
		if dbPath != "" {
			cfg.Database = dbPath
		}
		if logLevel != "" {
			cfg.Log.Level = logLevel
		}

		logger, err = logging.New(logging.Config{Level: cfg.Log.Level, File: cfg.Log.File})
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
	RunE: runTUI,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", model.DefaultConfigPath(), "config file")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "database path (overrides config)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
}

// startMetrics serves /metrics in the background when addr is set. The
// returned func shuts the server down.
func startMetrics(addr string) func() {
	if addr == "" {
		return func() {}
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server stopped", zap.Error(err))
		}
	}()
	logger.Info("serving metrics", zap.String("addr", addr))

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}

func openStore() (*store.SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.Database), 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}
	s, err := store.NewSQLiteStore(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("opening database %s: %w", cfg.Database, err)
	}
	return s, nil
}

// secrets opens the keyring. A missing keyring is not fatal since keys
// can still come from the environment.
func secrets() *credential.Store {
	s, err := openSecrets()
	if err != nil {
		logger.Warn("keyring unavailable", zap.Error(err))
		return nil
	}
	return s
}

// connect builds a retrying client for provider with apiKey.
func connect(provider, apiKey string) (insight.Invoker, error) {
	c, err := llm.New(llm.Config{
		Provider:  provider,
		Endpoint:  endpointFor(provider),
		APIKey:    apiKey,
		Model:     modelFor(provider),
		Retries:   cfg.AI.Retries,
		BaseDelay: cfg.AI.BaseDelay,
		Timeout:   cfg.AI.Timeout,
	}, llm.WithLogger(logger.Named("llm")))
	if err != nil {
		return nil, err
	}
	return c, nil
}

// The configured model and endpoint only apply to the configured provider.
func modelFor(provider string) string {
	if provider == cfg.AI.Provider {
		return cfg.AI.Model
	}
	return ""
}

func endpointFor(provider string) string {
	if provider == cfg.AI.Provider {
		return cfg.AI.Endpoint
	}
	return ""
}

// newClient resolves the configured provider's key and connects.
func newClient(s *credential.Store) (insight.Invoker, error) {
	key, err := credential.APIKey(cfg.AI.Provider, os.Getenv, s)
	if err != nil {
		return nil, err
	}
	return connector(cfg.AI.Provider, key)
}

func newService(st store.Store, inv insight.Invoker) *triage.Service {
	return triage.New(st, inv,
		triage.WithLogger(logger.Named("triage")),
		triage.WithConcurrency(cfg.Triage.Concurrency),
	)
}

// withService runs fn against a connected service backed by the
// configured database.
func withService(ctx context.Context, fn func(ctx context.Context, svc *triage.Service) error) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	inv, err := newClient(secrets())
	if err != nil {
		return err
	}
	return fn(ctx, newService(st, inv))
}

// withStore runs fn against the configured database without a model.
func withStore(fn func(st *store.SQLiteStore) error) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()
	return fn(st)
}
