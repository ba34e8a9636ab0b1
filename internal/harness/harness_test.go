package harness

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/perftcheck/internal/engine"
	"github.com/roach88/perftcheck/internal/testutil"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestHarness(inv engine.Invoker, out io.Writer) *Harness {
	return New(Config{Invoker: inv, Out: out, Logger: quietLogger()})
}

func TestRun_AllPass(t *testing.T) {
	inv := &testutil.SequenceInvoker{Results: []testutil.SequenceResult{
		{Nodes: 20},
		{Nodes: 400},
	}}
	var out bytes.Buffer

	tally, err := newTestHarness(inv, &out).Run(context.Background(), strings.NewReader("startpos;D1 20;D2 400\n"))
	require.NoError(t, err)

	assert.Equal(t, Tally{Passed: 2, Failed: 0, Skipped: 0, Nodes: 420}, tally)
	assert.Contains(t, out.String(), "PASS: startpos D1 expected=20 actual=20\n")
	assert.Contains(t, out.String(), "PASS: startpos D2 expected=400 actual=400\n")
	assert.Contains(t, out.String(), "Total: 2 passed, 0 failed, 0 skipped")
}

func TestRun_MismatchFails(t *testing.T) {
	inv := &testutil.SequenceInvoker{Results: []testutil.SequenceResult{
		{Nodes: 20},
		{Nodes: 400}, // corpus expects 399
	}}
	var out bytes.Buffer

	tally, err := newTestHarness(inv, &out).Run(context.Background(), strings.NewReader("startpos;D1 20;D2 399\n"))
	require.NoError(t, err)

	assert.Equal(t, 1, tally.Passed)
	assert.Equal(t, 1, tally.Failed)
	assert.Equal(t, 0, tally.Skipped)
	assert.Contains(t, out.String(), "FAIL: startpos D2 expected=399 actual=400\n")
}

func TestRun_MalformedLineLeavesTallyUntouched(t *testing.T) {
	inv := &testutil.SequenceInvoker{}
	var out bytes.Buffer

	tally, err := newTestHarness(inv, &out).Run(context.Background(), strings.NewReader("garbage\n"))
	require.NoError(t, err)

	assert.Equal(t, Tally{}, tally)
	assert.Empty(t, inv.Calls, "malformed line must not reach the engine")
	assert.Contains(t, out.String(), `parse error: line 1: no expectations: "garbage"`)
}

func TestRun_InvocationFailureSkips(t *testing.T) {
	// Pins the skip semantics: a failed invocation counts as skipped, not
	// passed or failed, and later expectations are still processed.
	inv := &testutil.SequenceInvoker{Results: []testutil.SequenceResult{
		{Err: engine.NewExitError(1, "startpos", 2, "bad position")},
		{Nodes: 400},
	}}
	var out bytes.Buffer

	tally, err := newTestHarness(inv, &out).Run(context.Background(), strings.NewReader("startpos;D1 20;D2 400\n"))
	require.NoError(t, err)

	assert.Equal(t, Tally{Passed: 1, Failed: 0, Skipped: 1, Nodes: 400}, tally)
	assert.Len(t, inv.Calls, 2)
	assert.Contains(t, out.String(), "SKIP: startpos D1 (EXIT_STATUS: engine exited with status 2: bad position)\n")
	assert.Contains(t, out.String(), "Total: 1 passed, 0 failed, 1 skipped")
}

func TestRun_ExactlyOneBucketPerOutcome(t *testing.T) {
	inv := &testutil.SequenceInvoker{Results: []testutil.SequenceResult{
		{Nodes: 20},
		{Nodes: 999},
		{Err: engine.NewBadOutputError(3, "startpos", "?")},
	}}

	tally, err := newTestHarness(inv, io.Discard).Run(context.Background(),
		strings.NewReader("startpos;D1 20;D2 400;D3 8902\n"))
	require.NoError(t, err)

	assert.Equal(t, 3, tally.Passed+tally.Failed+tally.Skipped)
	assert.Equal(t, 2, tally.Evaluated())
}

func TestRun_VisitsExpectationsInCorpusOrder(t *testing.T) {
	inv := scriptedForOrder()

	_, err := newTestHarness(inv, io.Discard).Run(context.Background(),
		strings.NewReader("a;D2 1;D1 2\nb;D3 3\n"))
	require.NoError(t, err)

	assert.Equal(t, []testutil.Call{
		{Depth: 2, Position: "a"},
		{Depth: 1, Position: "a"},
		{Depth: 3, Position: "b"},
	}, inv.Calls)
}

// scriptedForOrder scripts every expectation used by the ordering test.
func scriptedForOrder() *testutil.ScriptedInvoker {
	return testutil.NewScriptedInvoker().
		Script("a", 2, 1).
		Script("a", 1, 2).
		Script("b", 3, 3)
}

func TestRun_ContinuesPastBadLine(t *testing.T) {
	inv := testutil.NewScriptedInvoker().Script("a", 1, 1).Script("b", 1, 2)
	var out bytes.Buffer

	tally, err := newTestHarness(inv, &out).Run(context.Background(),
		strings.NewReader("a;D1 1\npos;Dx 9\nb;D1 2\n"))
	require.NoError(t, err)

	assert.Equal(t, 2, tally.Passed)
	assert.Contains(t, out.String(), "parse error: line 2")
}

func TestRun_MaxDepthFilter(t *testing.T) {
	inv := testutil.NewScriptedInvoker().Script("startpos", 1, 20).Script("startpos", 2, 400)
	h := New(Config{Invoker: inv, Out: io.Discard, Logger: quietLogger(), MaxDepth: 2})

	tally, err := h.Run(context.Background(), strings.NewReader("startpos;D1 20;D2 400;D6 119060324\n"))
	require.NoError(t, err)

	// The D6 expectation is filtered: never invoked, never tallied.
	assert.Equal(t, Tally{Passed: 2, Nodes: 420}, tally)
	assert.Len(t, inv.Calls, 2)
}

func TestRun_CancelledContextStopsEarly(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	inv := &testutil.SequenceInvoker{}
	_, err := newTestHarness(inv, io.Discard).Run(ctx, strings.NewReader("startpos;D1 20\n"))

	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, inv.Calls)
}

func TestRunFile_MissingCorpusIsFatal(t *testing.T) {
	h := newTestHarness(&testutil.SequenceInvoker{}, io.Discard)

	_, err := h.RunFile(context.Background(), "testdata/does-not-exist.epd")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open corpus")
}

type recordingSink struct {
	runID    string
	outcomes []Outcome
}

func (r *recordingSink) RecordOutcome(_ context.Context, runID string, o Outcome) error {
	r.runID = runID
	r.outcomes = append(r.outcomes, o)
	return nil
}

func TestRun_RecorderReceivesEveryOutcome(t *testing.T) {
	sink := &recordingSink{}
	inv := &testutil.SequenceInvoker{Results: []testutil.SequenceResult{
		{Nodes: 20},
		{Err: engine.NewExitError(2, "startpos", 1, "")},
	}}
	h := New(Config{
		Invoker:  inv,
		Out:      io.Discard,
		Logger:   quietLogger(),
		Recorder: sink,
		RunID:    "run-000001",
	})

	_, err := h.Run(context.Background(), strings.NewReader("startpos;D1 20;D2 400\n"))
	require.NoError(t, err)

	assert.Equal(t, "run-000001", sink.runID)
	require.Len(t, sink.outcomes, 2)
	assert.Equal(t, StatusPass, sink.outcomes[0].Status)
	assert.Equal(t, uint64(20), sink.outcomes[0].Actual)
	assert.Equal(t, StatusSkip, sink.outcomes[1].Status)
	assert.NotEmpty(t, sink.outcomes[1].Diagnostic)
}

func TestRun_SummaryGroupsNodeCount(t *testing.T) {
	inv := testutil.NewScriptedInvoker().Script("startpos", 6, 119060324)
	var out bytes.Buffer

	_, err := newTestHarness(inv, &out).Run(context.Background(), strings.NewReader("startpos;D6 119060324\n"))
	require.NoError(t, err)

	assert.Contains(t, out.String(), "(119,060,324 nodes verified)")
}

func TestUUIDv7Generator_UniqueAndOrdered(t *testing.T) {
	g := UUIDv7Generator{}
	a, b := g.NewRunID(), g.NewRunID()

	assert.NotEqual(t, a, b)
	assert.Len(t, a, 36)
}
