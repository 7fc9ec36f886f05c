// Package cli wires configuration, storage and the ledger into cobra
// commands. The HTTP server is one command among the admin commands.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/warp/egg-ledger/config"
	"github.com/warp/egg-ledger/ledger"
	"github.com/warp/egg-ledger/ledger/store"
	"github.com/warp/egg-ledger/logging"
	"github.com/warp/egg-ledger/metrics"
	"github.com/warp/egg-ledger/store/sqlite"
)

var rootCmd = &cobra.Command{
	Use:   "eggs",
	Short: "Egg cooperative ledger",
	Long: `Tracks what each member of an egg cooperative owes or holds in credit.
Each day's cost is split across contributors in proportion to the eggs
they brought in. Run "eggs serve" for the HTTP API, or use the admin
commands directly against the database.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to a TOML config file")
	rootCmd.PersistentFlags().String("db", "", "SQLite database path (overrides config)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringP("output", "o", "table", "Output format: table or json")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

// =============================================================================
// SHARED SETUP
// =============================================================================

// loadConfig applies flag overrides on top of config.Load and validates.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if db, _ := cmd.Flags().GetString("db"); db != "" {
		cfg.DBPath = db
		cfg.Backend = config.BackendSQLite
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.LogLevel = level
	}
	if cmd.Flags().Lookup("port") != nil && cmd.Flags().Changed("port") {
		cfg.Port, _ = cmd.Flags().GetInt("port")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	logger := logging.New(logging.ParseLevel(cfg.LogLevel), w)
	slog.SetDefault(logger)
	return logger
}

// openStore opens the configured backend. The returned close func is
// always safe to call.
func openStore(cfg *config.Config) (ledger.TxStore, func(), error) {
	if cfg.Backend == config.BackendMemory {
		return store.NewMemory(), func() {}, nil
	}

	s, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open database %s: %w", cfg.DBPath, err)
	}
	return s, func() { s.Close() }, nil
}

// setup is the common prologue of every ledger command.
func setup(cmd *cobra.Command) (*ledger.Ledger, *config.Config, *slog.Logger, func(), error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	logger := newLogger(cfg, cmd.ErrOrStderr())

	txStore, closeFn, err := openStore(cfg)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	opts := []ledger.Option{ledger.WithLogger(logger)}
	if cfg.Metrics {
		opts = append(opts, ledger.WithObserver(metrics.Collector{}))
	}
	return ledger.New(txStore, opts...), cfg, logger, closeFn, nil
}
