package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/roach88/perftcheck/internal/corpus"
	"github.com/roach88/perftcheck/internal/engine"
)

// Config configures a Harness.
type Config struct {
	// Invoker is the engine boundary. Required.
	Invoker engine.Invoker

	// Out receives the report. Defaults to os.Stdout.
	Out io.Writer

	// Logger receives diagnostics. Defaults to slog.Default().
	Logger *slog.Logger

	// Marker is the depth-prefix character in the corpus.
	// Defaults to corpus.DefaultMarker.
	Marker byte

	// MaxDepth, when positive, silently skips expectations deeper than it.
	// Deep perft entries take minutes; this replaces hand-editing corpora.
	MaxDepth int

	// Recorder, when set, persists every outcome under RunID.
	Recorder Recorder

	// RunID identifies this run to the Recorder.
	RunID string
}

// Harness runs a corpus of test vectors against an engine.
type Harness struct {
	cfg     Config
	printer *message.Printer
}

// New creates a Harness. Panics if cfg.Invoker is nil, since a harness
// without an engine boundary cannot evaluate anything.
func New(cfg Config) *Harness {
	if cfg.Invoker == nil {
		panic("harness: Config.Invoker is required")
	}
	if cfg.Out == nil {
		cfg.Out = os.Stdout
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Marker == 0 {
		cfg.Marker = corpus.DefaultMarker
	}
	return &Harness{
		cfg:     cfg,
		printer: message.NewPrinter(language.English),
	}
}

// RunFile opens a corpus file and runs it.
//
// Failure to open is the one fatal condition: it aborts before any
// invocation or tallying.
func (h *Harness) RunFile(ctx context.Context, path string) (Tally, error) {
	f, err := os.Open(path)
	if err != nil {
		return Tally{}, fmt.Errorf("open corpus: %w", err)
	}
	defer f.Close()
	return h.Run(ctx, f)
}

// Run evaluates every expectation in the corpus stream, in order, and
// returns the tally.
//
// Malformed lines and failed invocations are reported and skipped; the loop
// only stops early on context cancellation or a corpus read error, in which
// case the partial tally is returned alongside the error.
func (h *Harness) Run(ctx context.Context, src io.Reader) (Tally, error) {
	var tally Tally
	reader := corpus.NewReaderMarker(src, h.cfg.Marker)

	for {
		vec, err := reader.Next()
		if err == io.EOF {
			break
		}
		var perr *corpus.ParseError
		if errors.As(err, &perr) {
			h.cfg.Logger.Warn("skipping malformed corpus line", "line", perr.LineNum, "reason", perr.Reason)
			fmt.Fprintf(h.cfg.Out, "parse error: %v\n", perr)
			continue
		}
		if err != nil {
			return tally, err
		}

		for _, exp := range vec.Expectations {
			if err := ctx.Err(); err != nil {
				return tally, err
			}
			if h.cfg.MaxDepth > 0 && exp.Depth > h.cfg.MaxDepth {
				continue
			}
			h.evaluate(ctx, vec.Position, exp, &tally)
		}
	}

	h.writeSummary(tally)
	return tally, nil
}

// evaluate runs one expectation through the invoker, reports the outcome,
// and updates the tally. Exactly one bucket is incremented per call.
func (h *Harness) evaluate(ctx context.Context, position string, exp corpus.Expectation, tally *Tally) {
	outcome := Outcome{
		Position: position,
		Depth:    exp.Depth,
		Expected: exp.Nodes,
	}

	actual, err := h.cfg.Invoker.Perft(ctx, exp.Depth, position)
	switch {
	case err != nil:
		outcome.Status = StatusSkip
		outcome.Diagnostic = err.Error()
		tally.Skipped++
		h.cfg.Logger.Warn("engine invocation failed",
			"position", position, "depth", exp.Depth, "error", err)
		fmt.Fprintf(h.cfg.Out, "SKIP: %s D%d (%s)\n", position, exp.Depth, outcome.Diagnostic)
	case actual == exp.Nodes:
		outcome.Status = StatusPass
		outcome.Actual = actual
		tally.Passed++
		tally.Nodes += actual
		fmt.Fprintf(h.cfg.Out, "PASS: %s D%d expected=%d actual=%d\n", position, exp.Depth, exp.Nodes, actual)
	default:
		outcome.Status = StatusFail
		outcome.Actual = actual
		tally.Failed++
		tally.Nodes += actual
		fmt.Fprintf(h.cfg.Out, "FAIL: %s D%d expected=%d actual=%d\n", position, exp.Depth, exp.Nodes, actual)
	}

	if h.cfg.Recorder != nil {
		if err := h.cfg.Recorder.RecordOutcome(ctx, h.cfg.RunID, outcome); err != nil {
			h.cfg.Logger.Error("failed to record outcome", "run_id", h.cfg.RunID, "error", err)
		}
	}
}

func (h *Harness) writeSummary(tally Tally) {
	fmt.Fprintf(h.cfg.Out, "\nTotal: %d passed, %d failed, %d skipped (%s nodes verified)\n",
		tally.Passed, tally.Failed, tally.Skipped,
		h.printer.Sprintf("%d", tally.Nodes))
}
