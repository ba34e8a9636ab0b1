// Package testutil provides deterministic substitutes for the harness's
// nondeterministic collaborators: the engine subprocess and the run-ID
// generator. Tests drive the comparator with canned node counts instead of
// shelling out to a real engine binary.
package testutil

import (
	"context"
	"fmt"

	"github.com/roach88/perftcheck/internal/engine"
)

// Call records one invocation received by a stub invoker.
type Call struct {
	Depth    int
	Position string
}

// ScriptedInvoker returns canned node counts keyed by (position, depth).
//
// Unknown keys produce an *engine.InvocationError, which lets tests exercise
// the skip path without a failing subprocess.
type ScriptedInvoker struct {
	counts map[string]uint64

	// Calls records every invocation in order, for asserting that the
	// harness visits expectations in corpus order.
	Calls []Call
}

// NewScriptedInvoker creates an empty ScriptedInvoker.
func NewScriptedInvoker() *ScriptedInvoker {
	return &ScriptedInvoker{counts: make(map[string]uint64)}
}

// Script registers the node count to return for (position, depth).
func (s *ScriptedInvoker) Script(position string, depth int, nodes uint64) *ScriptedInvoker {
	s.counts[scriptKey(position, depth)] = nodes
	return s
}

// Perft implements engine.Invoker.
func (s *ScriptedInvoker) Perft(_ context.Context, depth int, position string) (uint64, error) {
	s.Calls = append(s.Calls, Call{Depth: depth, Position: position})
	nodes, ok := s.counts[scriptKey(position, depth)]
	if !ok {
		return 0, &engine.InvocationError{
			Code:     engine.ErrCodeStartFailed,
			Message:  fmt.Sprintf("no scripted result for position %q depth %d", position, depth),
			Depth:    depth,
			Position: position,
		}
	}
	return nodes, nil
}

func scriptKey(position string, depth int) string {
	return fmt.Sprintf("%s\x00%d", position, depth)
}

// SequenceResult is one canned answer for a SequenceInvoker.
type SequenceResult struct {
	Nodes uint64
	Err   error
}

// SequenceInvoker returns canned results in call order, ignoring arguments.
//
// Calls past the end of the sequence return an invocation error, so a test
// that under-scripts fails loudly instead of passing by accident.
type SequenceInvoker struct {
	Results []SequenceResult
	Calls   []Call
}

// Perft implements engine.Invoker.
func (s *SequenceInvoker) Perft(_ context.Context, depth int, position string) (uint64, error) {
	s.Calls = append(s.Calls, Call{Depth: depth, Position: position})
	if len(s.Calls) > len(s.Results) {
		return 0, &engine.InvocationError{
			Code:     engine.ErrCodeStartFailed,
			Message:  fmt.Sprintf("sequence exhausted after %d results", len(s.Results)),
			Depth:    depth,
			Position: position,
		}
	}
	r := s.Results[len(s.Calls)-1]
	return r.Nodes, r.Err
}

// FixedRunIDGenerator yields "run-000001", "run-000002", ... so stored runs
// and golden files stay byte-identical across test executions.
type FixedRunIDGenerator struct {
	n int
}

// NewRunID implements harness.RunIDGenerator.
func (g *FixedRunIDGenerator) NewRunID() string {
	g.n++
	return fmt.Sprintf("run-%06d", g.n)
}
