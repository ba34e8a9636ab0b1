// Package harness drives a perft corpus against an engine and reports the
// results.
//
// The harness is a single-pass, strictly sequential loop: one corpus line,
// one expectation, one engine invocation at a time. Report lines are emitted
// in exact corpus order, which keeps output diffable across runs — given a
// deterministic engine, re-running an unchanged corpus produces
// byte-identical output.
//
// Failure handling is deliberately lopsided: only failure to open the corpus
// aborts a run. Malformed lines and failed invocations are logged, reported,
// and skipped; a mismatch is a test failure, not an error. The returned
// Tally separates all three buckets (passed, failed, skipped) so invocation
// failures cannot silently shrink the sample.
package harness
