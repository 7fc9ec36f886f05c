package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/warp/egg-ledger/config"
	"github.com/warp/egg-ledger/store/sqlite"
)

func init() {
	rootCmd.AddCommand(migrateCmd)
}

var migrateCmd = &cobra.Command{
	Use:   "migrate [up|down|version]",
	Short: "Manage the SQLite schema",
	Long: `Applies or reverts the embedded schema migrations.
Opening the database already applies pending migrations, so "up" is
mostly useful to create a fresh file. "down" drops every ledger table.`,
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"up", "down", "version"},
	RunE:      runMigrate,
}

func runMigrate(cmd *cobra.Command, args []string) error {
	action := "up"
	if len(args) == 1 {
		action = args[0]
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.Backend != config.BackendSQLite {
		return fmt.Errorf("migrate needs the sqlite backend, configured backend is %q", cfg.Backend)
	}
	logger := newLogger(cfg, cmd.ErrOrStderr())

	s, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return err
	}
	defer s.Close()

	out := cmd.OutOrStdout()
	switch action {
	case "up":
		if err := s.MigrateUp(); err != nil {
			return err
		}
		logger.Info("migrations applied", "db", cfg.DBPath)
	case "down":
		if err := s.MigrateDown(); err != nil {
			return err
		}
		logger.Warn("migrations reverted", "db", cfg.DBPath)
	case "version":
	default:
		return fmt.Errorf("unknown migrate action %q (use up, down or version)", action)
	}

	version, dirty, ok, err := s.SchemaVersion()
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(out, "schema version: none")
		return nil
	}
	fmt.Fprintf(out, "schema version: %d", version)
	if dirty {
		fmt.Fprint(out, " (dirty)")
	}
	fmt.Fprintln(out)
	return nil
}
