package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// run executes the command tree with fresh flag values and returns stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func TestCLI_RecordDuesUndo(t *testing.T) {
	t.Setenv("EGGS_METRICS", "false")
	db := filepath.Join(t.TempDir(), "eggs.db")

	_, err := run(t, "--db", db, "people", "add", "Alice")
	require.NoError(t, err)
	_, err = run(t, "--db", db, "people", "add", "Bob")
	require.NoError(t, err)

	out, err := run(t, "--db", db, "record", "--date", "2025-03-10", "--price", "10", "1=3", "2=7")
	require.NoError(t, err)
	assert.Contains(t, out, "Recorded 2025-03-10: 10 eggs, total 100.00")

	out, err = run(t, "--db", db, "-o", "json", "dues")
	require.NoError(t, err)
	var dues map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &dues))
	assert.Equal(t, map[string]string{"Alice": "30", "Bob": "70"}, dues)

	out, err = run(t, "--db", db, "summary")
	require.NoError(t, err)
	assert.Contains(t, out, "Total due:    100.00")

	out, err = run(t, "--db", db, "undo")
	require.NoError(t, err)
	assert.Contains(t, out, "Undid 2025-03-10")

	_, err = run(t, "--db", db, "undo")
	assert.Error(t, err, "nothing left to undo")
}

func TestCLI_RechargeAndSplit(t *testing.T) {
	t.Setenv("EGGS_METRICS", "false")
	db := filepath.Join(t.TempDir(), "eggs.db")

	_, err := run(t, "--db", db, "people", "add", "Alice")
	require.NoError(t, err)

	out, err := run(t, "--db", db, "people", "recharge", "1", "50")
	require.NoError(t, err)
	assert.Contains(t, out, "New balance: 50.00")

	_, err = run(t, "--db", db, "record", "--price", "10", "1=3")
	require.NoError(t, err)

	out, err = run(t, "--db", db, "people")
	require.NoError(t, err)
	assert.Contains(t, out, "Alice")
	assert.Contains(t, out, "20.00")

	out, err = run(t, "--db", db, "split", "40")
	require.NoError(t, err)
	assert.Contains(t, out, "40.00")
}

func TestCLI_BadArguments(t *testing.T) {
	t.Setenv("EGGS_METRICS", "false")
	db := filepath.Join(t.TempDir(), "eggs.db")

	_, err := run(t, "--db", db, "record", "--price", "10", "1:3")
	assert.ErrorContains(t, err, "expected ID=EGGS")

	_, err = run(t, "--db", db, "record", "--price", "ten", "1=3")
	assert.ErrorContains(t, err, "invalid price")

	_, err = run(t, "--db", db, "people", "recharge", "x", "5")
	assert.ErrorContains(t, err, "invalid person id")

	_, err = run(t, "--db", db, "migrate", "sideways")
	assert.ErrorContains(t, err, "unknown migrate action")
}

func TestCLI_MigrateVersion(t *testing.T) {
	t.Setenv("EGGS_METRICS", "false")
	db := filepath.Join(t.TempDir(), "eggs.db")

	out, err := run(t, "--db", db, "migrate", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "schema version: 1")
}
