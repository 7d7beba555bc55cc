// Package store provides SQLite-backed storage for validation runs.
//
// The store is an append-only log with:
//   - Runs: one row per harness invocation with its settings
//   - Results: one row per test case and run, holding the outcome, both
//     outputs and the content hash of the bound tree
//
// # Ordering
//
// Runs and results carry a seq INTEGER assigned by the writer. All queries
// order by seq then id so reads are identical across machines; wall-clock
// timestamps are stored for display only.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Run settings are stored as RFC 8785 canonical JSON produced by the dump
// package.
package store
