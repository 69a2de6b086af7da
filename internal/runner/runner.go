package runner

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/neelspatel/blockbench/internal/diff"
	"github.com/neelspatel/blockbench/internal/fixture"
)

// stderrLimit caps how much kernel stderr is kept per invocation.
const stderrLimit = 8 * 1024

// Runner executes fixtures sequentially against a suite's kernels.
type Runner struct {
	suite   *fixture.Suite
	out     io.Writer
	logger  *slog.Logger
	timeout time.Duration
}

// Options configures a Runner.
type Options struct {
	// Out receives progress lines and diff hunks. Defaults to io.Discard.
	Out io.Writer

	// Logger receives debug-level invocation records. Defaults to a
	// discarding logger.
	Logger *slog.Logger

	// Timeout overrides the suite's per-invocation timeout when nonzero.
	Timeout time.Duration
}

// New creates a Runner for the suite.
func New(suite *fixture.Suite, opts Options) *Runner {
	out := opts.Out
	if out == nil {
		out = io.Discard
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = suite.TimeoutDuration()
	}
	return &Runner{
		suite:   suite,
		out:     out,
		logger:  logger,
		timeout: timeout,
	}
}

// Run executes the fixtures in order and returns the aggregated result.
//
// Kernel failures and comparison mismatches never abort the loop; only ctx
// cancellation stops it early (the partial result is still returned, with
// ctx.Err() alongside).
func (r *Runner) Run(ctx context.Context, fixtures []fixture.Fixture) (*Result, error) {
	result := &Result{
		RunID:     uuid.Must(uuid.NewV7()).String(),
		Suite:     r.suite.Name,
		StartedAt: time.Now(),
		Fixtures:  make([]FixtureResult, 0, len(fixtures)),
	}

	for _, f := range fixtures {
		if err := ctx.Err(); err != nil {
			result.FinishedAt = time.Now()
			return result, err
		}

		// Progress line first, as the original harness did.
		fmt.Fprintln(r.out, f.Name)

		fr := FixtureResult{Fixture: f.Name}
		fr.Block = r.runMode(ctx, ModeBlock, r.suite.BlockCmd,
			f.ReferencePath(), f.VectorPath(), f.CalculatedPath(), f.ExpectedPath())
		fr.Naive = r.runMode(ctx, ModeNaive, r.suite.NaiveCmd,
			f.NaiveReferencePath(), f.VectorPath(), f.NaiveCalculatedPath(), f.ExpectedPath())

		if fr.Pass() {
			result.Passed++
		} else {
			result.Failed++
		}
		result.Fixtures = append(result.Fixtures, fr)
	}

	result.FinishedAt = time.Now()
	return result, nil
}

// runMode invokes one kernel and compares its scratch output. Every
// failure class lands in the returned record.
func (r *Runner) runMode(ctx context.Context, mode Mode, cmd, reference, vector, scratch, expected string) ModeResult {
	mr := ModeResult{Mode: mode}
	mr.Invocation = r.invoke(ctx, cmd, reference, vector, scratch)

	// Compare regardless of how the invocation went; a crashed kernel
	// surfaces as a missing or partial scratch file.
	mr.Comparison = diff.Files(scratch, expected)

	if mr.Invocation.Err != "" {
		fmt.Fprintf(r.out, "%s: %s\n", mode, mr.Invocation.Err)
	}
	if mr.Comparison.Unified != "" {
		fmt.Fprint(r.out, mr.Comparison.Unified)
	} else if mr.Comparison.Err != "" {
		fmt.Fprintf(r.out, "%s: comparison failed: %s\n", mode, mr.Comparison.Err)
	}

	return mr
}

// invoke runs one kernel: <cmd> <reference> <vector> <scratch>.
func (r *Runner) invoke(ctx context.Context, cmd, reference, vector, scratch string) Invocation {
	inv := Invocation{
		Cmd:      cmd,
		Args:     []string{reference, vector, scratch},
		ExitCode: -1,
	}

	cctx := ctx
	if r.timeout > 0 {
		var cancel context.CancelFunc
		cctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	var stderr bytes.Buffer
	command := exec.CommandContext(cctx, cmd, inv.Args...)
	command.Stdin = strings.NewReader("")
	command.Stderr = &stderr

	start := time.Now()
	runErr := command.Run()
	inv.Duration = time.Since(start)

	if command.ProcessState != nil {
		inv.ExitCode = command.ProcessState.ExitCode()
	}
	inv.Stderr = truncate(stderr.String(), stderrLimit)

	if cctx.Err() == context.DeadlineExceeded {
		inv.TimedOut = true
		inv.Err = fmt.Sprintf("timed out after %s", r.timeout)
	} else if runErr != nil {
		inv.Err = runErr.Error()
	}

	r.logger.Debug("kernel invocation",
		"cmd", cmd,
		"args", inv.Args,
		"exit_code", inv.ExitCode,
		"duration", inv.Duration,
		"err", inv.Err,
	)

	return inv
}

// truncate limits s to n bytes.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
