package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/perftcheck/internal/engine"
	"github.com/roach88/perftcheck/internal/harness"
	"github.com/roach88/perftcheck/internal/testutil"
)

// writeSuite lays out a suite file and its corpora in one temp dir.
func writeSuite(t *testing.T, suiteYAML string, corpora map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range corpora {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	path := filepath.Join(dir, "suite.yaml")
	require.NoError(t, os.WriteFile(path, []byte(suiteYAML), 0o644))
	return path
}

func TestSuiteCommand_RunsEntriesInOrder(t *testing.T) {
	suitePath := writeSuite(t, `name: verification
entries:
  - name: first
    corpus: a.epd
    engine: sh
    args: ["-c", "echo \"$1\"", "engine"]
  - name: second
    corpus: b.epd
    engine: sh
    args: ["-c", "echo \"$1\"", "engine"]
`, map[string]string{
		"a.epd": "posA;D1 1\n",
		"b.epd": "posB;D2 2\n",
	})

	var out bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"suite", suitePath})

	require.NoError(t, cmd.Execute())

	report := out.String()
	first := bytes.Index(out.Bytes(), []byte("=== verification: first"))
	second := bytes.Index(out.Bytes(), []byte("=== verification: second"))
	require.GreaterOrEqual(t, first, 0)
	require.Greater(t, second, first)
	assert.Contains(t, report, "PASS: posA D1 expected=1 actual=1")
	assert.Contains(t, report, "PASS: posB D2 expected=2 actual=2")
	assert.Contains(t, report, "=== verification: combined: 2 passed, 0 failed, 0 skipped")
}

func TestSuiteCommand_FailureSetsExitCode(t *testing.T) {
	suitePath := writeSuite(t, `name: verification
entries:
  - corpus: a.epd
    engine: sh
    args: ["-c", "echo \"$1\"", "engine"]
`, map[string]string{
		"a.epd": "posA;D1 99\n",
	})

	cmd := NewRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"suite", suitePath})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestSuiteCommand_BadSuiteFileIsCommandError(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"suite", "/nonexistent/suite.yaml"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRunSuite_InvokerInjection(t *testing.T) {
	suitePath := writeSuite(t, `name: stubbed
entries:
  - corpus: a.epd
    engine: ignored
    max_depth: 1
`, map[string]string{
		"a.epd": "posA;D1 7;D2 100\n",
	})

	inv := testutil.NewScriptedInvoker().Script("posA", 1, 7)
	opts := &SuiteOptions{
		RootOptions: &RootOptions{Format: "text"},
		NewInvoker: func(harness.SuiteEntry) engine.Invoker {
			return inv
		},
	}
	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)

	require.NoError(t, runSuite(opts, suitePath, cmd))
	// max_depth filtered the D2 expectation.
	assert.Len(t, inv.Calls, 1)
	assert.Contains(t, out.String(), "combined: 1 passed, 0 failed, 0 skipped")
}
