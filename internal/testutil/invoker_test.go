package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/perftcheck/internal/engine"
)

func TestScriptedInvoker_ReturnsScriptedCount(t *testing.T) {
	inv := NewScriptedInvoker().Script("startpos", 2, 400)

	nodes, err := inv.Perft(context.Background(), 2, "startpos")
	require.NoError(t, err)
	assert.Equal(t, uint64(400), nodes)
}

func TestScriptedInvoker_UnknownKeyIsInvocationError(t *testing.T) {
	inv := NewScriptedInvoker()

	_, err := inv.Perft(context.Background(), 3, "startpos")
	assert.True(t, engine.IsInvocationError(err))
}

func TestScriptedInvoker_RecordsCallsInOrder(t *testing.T) {
	inv := NewScriptedInvoker().Script("a", 1, 1).Script("a", 2, 2)

	_, _ = inv.Perft(context.Background(), 1, "a")
	_, _ = inv.Perft(context.Background(), 2, "a")

	assert.Equal(t, []Call{{Depth: 1, Position: "a"}, {Depth: 2, Position: "a"}}, inv.Calls)
}

func TestSequenceInvoker_ReplaysInOrder(t *testing.T) {
	inv := &SequenceInvoker{Results: []SequenceResult{
		{Nodes: 20},
		{Err: engine.NewExitError(2, "startpos", 1, "boom")},
	}}

	nodes, err := inv.Perft(context.Background(), 1, "startpos")
	require.NoError(t, err)
	assert.Equal(t, uint64(20), nodes)

	_, err = inv.Perft(context.Background(), 2, "startpos")
	assert.True(t, engine.IsInvocationError(err))

	// Exhausted sequence fails loudly.
	_, err = inv.Perft(context.Background(), 3, "startpos")
	require.Error(t, err)
}

func TestFixedRunIDGenerator_Deterministic(t *testing.T) {
	g := &FixedRunIDGenerator{}
	assert.Equal(t, "run-000001", g.NewRunID())
	assert.Equal(t, "run-000002", g.NewRunID())
}
