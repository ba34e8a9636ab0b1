// Package store provides SQLite-backed run history for the harness.
//
// Recording is optional: the harness runs fine without a store, and the base
// workflow (one-shot verification of a corpus) persists nothing. With a
// database attached, each run is stored with its identity (corpus, engine
// command, start time) and final tally, plus one result row per evaluated
// expectation. That makes pass rates comparable across engine commits, and
// lets a later session list exactly which positions regressed.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - foreign_keys=ON: results always belong to a run
package store
