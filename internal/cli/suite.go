package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/perftcheck/internal/engine"
	"github.com/roach88/perftcheck/internal/harness"
)

// SuiteOptions holds flags for the suite command.
type SuiteOptions struct {
	*RootOptions

	// NewInvoker overrides invoker construction (for testing).
	NewInvoker func(entry harness.SuiteEntry) engine.Invoker
}

// NewSuiteCommand creates the suite command.
func NewSuiteCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SuiteOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "suite <suite.yaml>",
		Short: "Run a YAML-defined suite of corpora",
		Long: `Run every entry of a suite file sequentially and print per-entry and
combined tallies. Corpus paths in the file are resolved relative to the
file's directory.

Suite file format:

  name: standard-verification
  entries:
    - name: ethereal
      corpus: standard.epd
      engine: ./kaik
      args: [perft]
      timeout: 60s
      max_depth: 5`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSuite(opts, args[0], cmd)
		},
	}

	return cmd
}

func runSuite(opts *SuiteOptions, suitePath string, cmd *cobra.Command) error {
	configureLogging(opts.RootOptions)

	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	suite, err := harness.LoadSuite(suitePath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load suite", err)
	}

	ctx, stop := signalContext(cmd)
	defer stop()

	out := formatter.ReportWriter()
	newInvoker := opts.NewInvoker
	if newInvoker == nil {
		newInvoker = func(entry harness.SuiteEntry) engine.Invoker {
			inv := engine.NewExecInvoker(entry.Engine, entry.Args...)
			inv.Timeout = time.Duration(entry.Timeout)
			return inv
		}
	}

	var combined harness.Tally
	entryTallies := make([]EntryTally, 0, len(suite.Entries))
	for _, entry := range suite.Entries {
		fmt.Fprintf(out, "=== %s: %s\n", suite.Name, entry.Name)

		h := harness.New(harness.Config{
			Invoker:  newInvoker(entry),
			Out:      out,
			MaxDepth: entry.MaxDepth,
		})
		tally, err := h.RunFile(ctx, entry.Corpus)
		if err != nil {
			if ctx.Err() != nil {
				return WrapExitError(ExitCommandError, "suite interrupted", err)
			}
			return WrapExitError(ExitCommandError, fmt.Sprintf("entry %q: corpus unreadable", entry.Name), err)
		}

		combined.Merge(tally)
		entryTallies = append(entryTallies, EntryTally{Entry: entry.Name, Tally: tally})
		fmt.Fprintln(out)
	}

	fmt.Fprintf(out, "=== %s: combined: %d passed, %d failed, %d skipped\n",
		suite.Name, combined.Passed, combined.Failed, combined.Skipped)

	if opts.Format == "json" {
		if err := formatter.Success(SuiteSummary{Suite: suite.Name, Entries: entryTallies, Combined: combined}); err != nil {
			return err
		}
	}

	if combined.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d expectation(s) failed", combined.Failed))
	}
	return nil
}

// EntryTally pairs a suite entry name with its tally, for JSON output.
type EntryTally struct {
	Entry string        `json:"entry"`
	Tally harness.Tally `json:"tally"`
}

// SuiteSummary is the JSON payload of a suite run.
type SuiteSummary struct {
	Suite    string        `json:"suite"`
	Entries  []EntryTally  `json:"entries"`
	Combined harness.Tally `json:"combined"`
}
