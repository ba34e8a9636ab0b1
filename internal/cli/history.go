package cli

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/perftcheck/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database string
	RunID    string
	Status   string
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded runs",
		Long: `List runs recorded with "run --db", most recent first, or show one
run's results with --run.

Example:
  perftcheck history --db runs.db
  perftcheck history --db runs.db --run 01924d3e-... --status FAIL`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to history database (required)")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "show results for this run instead of listing runs")
	cmd.Flags().StringVar(&opts.Status, "status", "", "with --run, filter results by status (PASS|FAIL|SKIP)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open history database", err)
	}
	defer st.Close()

	if opts.RunID != "" {
		return showRun(opts, st, formatter, cmd)
	}
	return listRuns(opts, st, formatter, cmd)
}

func listRuns(opts *HistoryOptions, st *store.Store, formatter *OutputFormatter, cmd *cobra.Command) error {
	runs, err := st.ListRuns(cmd.Context())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list runs", err)
	}

	if opts.Format == "json" {
		return formatter.Success(runs)
	}

	out := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(out, "no recorded runs")
		return nil
	}
	for _, run := range runs {
		fmt.Fprintf(out, "%s  %s  corpus=%s engine=%q passed=%d failed=%d skipped=%d\n",
			run.ID, run.StartedAt.Format(time.RFC3339), run.Corpus, run.Engine,
			run.Passed, run.Failed, run.Skipped)
	}
	return nil
}

func showRun(opts *HistoryOptions, st *store.Store, formatter *OutputFormatter, cmd *cobra.Command) error {
	run, err := st.GetRun(cmd.Context(), opts.RunID)
	if errors.Is(err, sql.ErrNoRows) {
		return NewExitError(ExitCommandError, fmt.Sprintf("no run with id %q", opts.RunID))
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read run", err)
	}

	results, err := st.ResultsForRun(cmd.Context(), opts.RunID, opts.Status)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read results", err)
	}

	if opts.Format == "json" {
		return formatter.Success(struct {
			Run     store.Run      `json:"run"`
			Results []store.Result `json:"results"`
		}{run, results})
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "run %s  corpus=%s engine=%q\n", run.ID, run.Corpus, run.Engine)
	for _, r := range results {
		if r.Actual != nil {
			fmt.Fprintf(out, "%s: %s D%d expected=%d actual=%d\n", r.Status, r.Position, r.Depth, r.Expected, *r.Actual)
		} else {
			fmt.Fprintf(out, "%s: %s D%d (%s)\n", r.Status, r.Position, r.Depth, r.Diagnostic)
		}
	}
	fmt.Fprintf(out, "passed=%d failed=%d skipped=%d\n", run.Passed, run.Failed, run.Skipped)
	return nil
}
