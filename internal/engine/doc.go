// Package engine defines the process-invocation boundary to the chess engine
// under test.
//
// The engine is a black box: the harness never interprets positions or
// computes perft itself. All contact happens through the Invoker interface,
// one subprocess per (depth, position) pair, with a narrow contract:
//
//   - the engine is invoked with the depth (decimal string) and the position
//     (verbatim) appended to a fixed argument vector
//   - on success it prints exactly one decimal integer to stdout and exits 0
//   - anything else (non-zero exit, unparseable output, timeout) is an
//     InvocationError
//
// ExecInvoker is the production implementation. Tests substitute scripted
// invokers from internal/testutil so the comparator can be exercised without
// an engine binary.
package engine
