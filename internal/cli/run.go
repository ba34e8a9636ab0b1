package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/perftcheck/internal/corpus"
	"github.com/roach88/perftcheck/internal/engine"
	"github.com/roach88/perftcheck/internal/harness"
	"github.com/roach88/perftcheck/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Engine     string
	EngineArgs []string
	Timeout    time.Duration
	Marker     string
	MaxDepth   int
	Database   string

	// Invoker overrides the engine subprocess (for testing).
	// If nil, an ExecInvoker is built from Engine/EngineArgs/Timeout.
	Invoker engine.Invoker

	// RunIDs overrides the run-ID generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	RunIDs harness.RunIDGenerator
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <corpus>",
		Short: "Run a corpus against an engine",
		Long: `Run every test vector in a corpus against the engine and report
PASS/FAIL per expectation plus a final tally.

The engine is invoked as:

  <engine> [engine-arg...] <depth> <position>

and must print exactly one integer to stdout and exit 0. Failed
invocations are skipped, counted separately, and never abort the run.

Example:
  perftcheck run --engine ./kaik --engine-arg perft standard.epd
  perftcheck run --engine ./kaik --timeout 60s --max-depth 5 --db runs.db standard.epd`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCorpus(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Engine, "engine", "", "engine binary to invoke (required)")
	cmd.Flags().StringArrayVar(&opts.EngineArgs, "engine-arg", nil, "fixed argument placed before depth and position (repeatable)")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 0, "per-invocation timeout (0 = none)")
	cmd.Flags().StringVar(&opts.Marker, "marker", string(corpus.DefaultMarker), "depth-prefix character in the corpus")
	cmd.Flags().IntVar(&opts.MaxDepth, "max-depth", 0, "skip expectations deeper than this (0 = no limit)")
	cmd.Flags().StringVar(&opts.Database, "db", "", "record the run in this SQLite history database")
	_ = cmd.MarkFlagRequired("engine")

	return cmd
}

func runCorpus(opts *RunOptions, corpusPath string, cmd *cobra.Command) error {
	configureLogging(opts.RootOptions)

	if len(opts.Marker) != 1 {
		return NewExitError(ExitCommandError, fmt.Sprintf("marker %q must be a single character", opts.Marker))
	}

	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	invoker := opts.Invoker
	engineDesc := "(stub)"
	if invoker == nil {
		exec := engine.NewExecInvoker(opts.Engine, opts.EngineArgs...)
		exec.Timeout = opts.Timeout
		invoker = exec
		engineDesc = strings.Join(append([]string{opts.Engine}, opts.EngineArgs...), " ")
	}

	cfg := harness.Config{
		Invoker:  invoker,
		Out:      formatter.ReportWriter(),
		Marker:   opts.Marker[0],
		MaxDepth: opts.MaxDepth,
	}

	ctx, stop := signalContext(cmd)
	defer stop()

	var finalTally harness.Tally

	// Optional run history
	if opts.Database != "" {
		slog.Info("opening history database", "path", opts.Database)
		st, err := store.Open(opts.Database)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open history database", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				slog.Error("error closing history database", "error", closeErr)
			}
		}()

		runIDs := opts.RunIDs
		if runIDs == nil {
			runIDs = harness.UUIDv7Generator{}
		}
		cfg.RunID = runIDs.NewRunID()
		cfg.Recorder = st

		if err := st.CreateRun(ctx, cfg.RunID, corpusPath, engineDesc, time.Now().UTC()); err != nil {
			return WrapExitError(ExitCommandError, "failed to record run", err)
		}
		defer func() {
			// Persist whatever tally we reached, even on interrupt.
			if err := st.FinishRun(context.Background(), cfg.RunID, finalTally); err != nil {
				slog.Error("failed to finish run record", "run_id", cfg.RunID, "error", err)
			}
		}()
		slog.Info("recording run", "run_id", cfg.RunID)
	}

	slog.Info("starting verification", "corpus", corpusPath, "engine", engineDesc)
	h := harness.New(cfg)
	tally, err := h.RunFile(ctx, corpusPath)
	finalTally = tally
	if err != nil {
		if ctx.Err() != nil {
			return WrapExitError(ExitCommandError, "run interrupted", err)
		}
		return WrapExitError(ExitCommandError, "corpus unreadable", err)
	}

	if opts.Format == "json" {
		if err := formatter.Success(tally); err != nil {
			return err
		}
	}

	if tally.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d expectation(s) failed", tally.Failed))
	}
	return nil
}

// configureLogging sets the process-wide slog handler from the verbose flag.
func configureLogging(opts *RootOptions) {
	logLevel := slog.LevelWarn
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))
}

// signalContext derives a context cancelled by SIGINT/SIGTERM.
// Uses the command's context if available (for testing).
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	return signal.NotifyContext(parentCtx, os.Interrupt, syscall.SIGTERM)
}
