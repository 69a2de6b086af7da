package runner

import (
	"time"

	"github.com/neelspatel/blockbench/internal/diff"
)

// Mode distinguishes the two kernels exercised per fixture.
type Mode string

const (
	ModeBlock Mode = "block"
	ModeNaive Mode = "naive"
)

// Invocation captures one external kernel execution. Failures are values
// here, never control flow: the runner records them and moves on.
type Invocation struct {
	// Cmd and Args are the executable and its three positional
	// arguments (reference, vector, scratch output).
	Cmd  string   `json:"cmd"`
	Args []string `json:"args"`

	// ExitCode is the kernel's exit code; -1 when it did not start or
	// did not exit normally.
	ExitCode int `json:"exit_code"`

	// Err is the invocation error, if any (start failure, nonzero exit,
	// timeout). Empty on success.
	Err string `json:"err,omitempty"`

	// TimedOut reports that the invocation hit the configured timeout.
	TimedOut bool `json:"timed_out,omitempty"`

	// Stderr holds the kernel's captured standard error, truncated.
	Stderr string `json:"stderr,omitempty"`

	// Duration is the wall time of the invocation.
	Duration time.Duration `json:"duration_ns"`
}

// ModeResult is the outcome of one kernel mode on one fixture: the
// invocation record plus the comparison of scratch output against the
// expected result.
type ModeResult struct {
	Mode       Mode            `json:"mode"`
	Invocation Invocation      `json:"invocation"`
	Comparison diff.Comparison `json:"comparison"`
}

// Pass reports whether the kernel ran cleanly and reproduced the expected
// result exactly.
func (m *ModeResult) Pass() bool {
	return m.Invocation.Err == "" && m.Comparison.Match
}

// FixtureResult aggregates both modes of one fixture.
type FixtureResult struct {
	Fixture string     `json:"fixture"`
	Block   ModeResult `json:"block"`
	Naive   ModeResult `json:"naive"`
}

// Pass reports whether both modes passed.
func (f *FixtureResult) Pass() bool {
	return f.Block.Pass() && f.Naive.Pass()
}

// Modes returns both mode results in execution order.
func (f *FixtureResult) Modes() []*ModeResult {
	return []*ModeResult{&f.Block, &f.Naive}
}

// Result is one complete harness run.
type Result struct {
	// RunID is a UUIDv7 identifying this run in the history store.
	RunID string `json:"run_id"`

	// Suite is the suite name from the manifest.
	Suite string `json:"suite"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	// Fixtures holds per-fixture results in execution order.
	Fixtures []FixtureResult `json:"fixtures"`

	Passed int `json:"passed"`
	Failed int `json:"failed"`
}

// Pass reports whether every fixture passed both modes.
func (r *Result) Pass() bool {
	return r.Failed == 0
}
