// Package runner executes a fixture suite against the two external SpMV
// kernels and compares their output with pre-recorded expected results.
//
// The loop is strictly sequential and fail-soft: per fixture the block
// kernel runs, its scratch file is compared, then the naive kernel runs and
// its scratch file is compared. Nothing a kernel does (nonzero exit,
// missing output, timeout) stops the loop; every outcome is captured in a
// structured per-fixture result and the next fixture is attempted.
//
// Progress (fixture names) and diff hunks go to the runner's output writer
// as they happen, so a long suite stays observable. The aggregated Result
// is what callers render or persist afterwards.
package runner
