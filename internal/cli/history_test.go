package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/perftcheck/internal/harness"
	"github.com/roach88/perftcheck/internal/store"
)

// seedHistory creates a database with one finished run containing a failure.
func seedHistory(t *testing.T) string {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "runs.db")

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()

	ctx := context.Background()
	require.NoError(t, st.CreateRun(ctx, "run-000001", "standard.epd", "./kaik perft",
		time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)))
	require.NoError(t, st.RecordOutcome(ctx, "run-000001", harness.Outcome{
		Position: "startpos", Depth: 1, Expected: 20, Actual: 20, Status: harness.StatusPass,
	}))
	require.NoError(t, st.RecordOutcome(ctx, "run-000001", harness.Outcome{
		Position: "startpos", Depth: 2, Expected: 400, Actual: 401, Status: harness.StatusFail,
	}))
	require.NoError(t, st.FinishRun(ctx, "run-000001", harness.Tally{Passed: 1, Failed: 1, Nodes: 421}))

	return dbPath
}

func TestHistoryCommand_ListsRuns(t *testing.T) {
	dbPath := seedHistory(t)

	var out bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"history", "--db", dbPath})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "run-000001")
	assert.Contains(t, out.String(), "corpus=standard.epd")
	assert.Contains(t, out.String(), "passed=1 failed=1 skipped=0")
}

func TestHistoryCommand_ShowsRunResults(t *testing.T) {
	dbPath := seedHistory(t)

	var out bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"history", "--db", dbPath, "--run", "run-000001", "--status", "FAIL"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "FAIL: startpos D2 expected=400 actual=401")
	assert.NotContains(t, out.String(), "PASS: startpos D1")
}

func TestHistoryCommand_UnknownRun(t *testing.T) {
	dbPath := seedHistory(t)

	cmd := NewRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"history", "--db", dbPath, "--run", "missing"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestHistoryCommand_EmptyDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "fresh.db")

	var out bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"history", "--db", dbPath})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "no recorded runs")
}

func TestHistoryCommand_RequiresDatabaseFlag(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"history"})

	err := cmd.Execute()
	require.Error(t, err)
}
