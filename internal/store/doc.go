// Package store provides SQLite-backed run history for the harness.
//
// Two kinds of records are kept:
//
//   - Harness runs: one row per run plus one row per (fixture, mode)
//     outcome, so regressions can be traced across runs.
//   - Generation timings: per-fixture phase durations and block counts
//     recorded by fixture generation, the durable replacement for the old
//     time_results.txt append log.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: tolerate lock contention
//   - Single connection: SQLite supports one writer at a time
package store
