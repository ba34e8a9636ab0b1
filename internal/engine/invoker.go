package engine

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// Invoker computes a perft node count through the engine boundary.
//
// Implementations block until the engine answers (or the context expires)
// and return either the node count or an *InvocationError. One invocation
// per call, no retries.
type Invoker interface {
	Perft(ctx context.Context, depth int, position string) (uint64, error)
}

// ExecInvoker runs an external engine binary as a subprocess.
//
// Each call executes:
//
//	<Command> <Args...> <depth> <position>
//
// The position is passed as a single argv element, verbatim. Stdout and
// stderr are captured separately; stderr is only surfaced on failure.
type ExecInvoker struct {
	// Command is the engine binary path or name (resolved via PATH).
	Command string

	// Args are fixed arguments placed before the depth and position
	// (e.g. a "perft" subcommand).
	Args []string

	// Timeout bounds a single invocation. Zero means no timeout; a hung
	// engine then blocks the harness indefinitely.
	Timeout time.Duration

	logger *slog.Logger
}

// NewExecInvoker creates an ExecInvoker for the given command template.
func NewExecInvoker(command string, args ...string) *ExecInvoker {
	return &ExecInvoker{
		Command: command,
		Args:    args,
		logger:  slog.Default(),
	}
}

// Perft invokes the engine once for (depth, position).
//
// Success requires exit status zero and stdout that, after trimming
// surrounding whitespace, is exactly one base-10 integer. Every other
// outcome is an *InvocationError; a context deadline (from Timeout or the
// caller) maps to ErrCodeDeadlineExceeded.
func (e *ExecInvoker) Perft(ctx context.Context, depth int, position string) (uint64, error) {
	logger := e.logger
	if logger == nil {
		logger = slog.Default()
	}

	if e.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	argv := make([]string, 0, len(e.Args)+2)
	argv = append(argv, e.Args...)
	argv = append(argv, strconv.Itoa(depth), position)

	cmd := exec.CommandContext(ctx, e.Command, argv...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	logger.Debug("invoking engine", "command", e.Command, "depth", depth, "position", position)
	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)

	diagnostic := strings.TrimSpace(stderr.String())

	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			logger.Warn("engine invocation timed out", "depth", depth, "position", position, "elapsed", elapsed)
			return 0, NewDeadlineError(depth, position, diagnostic)
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return 0, NewExitError(depth, position, exitErr.ExitCode(), diagnostic)
		}
		return 0, NewStartError(depth, position, err)
	}

	out := strings.TrimSpace(stdout.String())
	nodes, err := strconv.ParseUint(out, 10, 64)
	if err != nil {
		return 0, NewBadOutputError(depth, position, out)
	}

	logger.Debug("engine answered", "depth", depth, "nodes", nodes, "elapsed", elapsed)
	return nodes, nil
}
