package store

import (
	"context"
	"fmt"
	"time"

	"github.com/neelspatel/blockbench/internal/runner"
)

// WriteRun persists a complete harness run: the run row plus one
// fixture_results row per (fixture, mode), all in one transaction.
//
// Duplicate run IDs are rejected; a run is written exactly once.
func (s *Store) WriteRun(ctx context.Context, result *runner.Result, manifestPath string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, suite, manifest_path, started_at, finished_at, passed, failed)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		result.RunID,
		result.Suite,
		manifestPath,
		result.StartedAt.UTC().Format(time.RFC3339Nano),
		result.FinishedAt.UTC().Format(time.RFC3339Nano),
		result.Passed,
		result.Failed,
	)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}

	for i := range result.Fixtures {
		fr := &result.Fixtures[i]
		for _, mr := range fr.Modes() {
			_, err = tx.ExecContext(ctx, `
				INSERT INTO fixture_results
				(run_id, fixture, mode, exit_code, error, matched, diff_lines, duration_ms, actual_digest, expected_digest)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			`,
				result.RunID,
				fr.Fixture,
				string(mr.Mode),
				mr.Invocation.ExitCode,
				invocationError(mr),
				mr.Comparison.Match,
				mr.Comparison.Lines,
				mr.Invocation.Duration.Milliseconds(),
				mr.Comparison.ActualDigest,
				mr.Comparison.ExpectedDigest,
			)
			if err != nil {
				return fmt.Errorf("write fixture result %s/%s: %w", fr.Fixture, mr.Mode, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write run: %w", err)
	}
	return nil
}

// invocationError folds the invocation and comparison errors into one
// stored string.
func invocationError(mr *runner.ModeResult) string {
	switch {
	case mr.Invocation.Err != "" && mr.Comparison.Err != "":
		return mr.Invocation.Err + "; " + mr.Comparison.Err
	case mr.Invocation.Err != "":
		return mr.Invocation.Err
	default:
		return mr.Comparison.Err
	}
}

// GenTiming is one fixture-generation record.
type GenTiming struct {
	Fixture     string    `json:"fixture"`
	GeneratedAt time.Time `json:"generated_at"`
	Seed        int64     `json:"seed"`

	Blocking      time.Duration `json:"blocking"`
	Superblocking time.Duration `json:"superblocking"`
	Expected      time.Duration `json:"expected"`
	Naive         time.Duration `json:"naive"`

	AdaptiveBlocks int `json:"adaptive_blocks"`
	NaiveBlocks    int `json:"naive_blocks"`
	AdaptiveArea   int `json:"adaptive_area"`
	NaiveArea      int `json:"naive_area"`
}

// WriteGenTiming appends one generation record.
func (s *Store) WriteGenTiming(ctx context.Context, t GenTiming) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO gen_timings
		(fixture, generated_at, seed, blocking_ms, superblocking_ms, expected_ms, naive_ms,
		 adaptive_blocks, naive_blocks, adaptive_area, naive_area)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		t.Fixture,
		t.GeneratedAt.UTC().Format(time.RFC3339Nano),
		t.Seed,
		t.Blocking.Milliseconds(),
		t.Superblocking.Milliseconds(),
		t.Expected.Milliseconds(),
		t.Naive.Milliseconds(),
		t.AdaptiveBlocks,
		t.NaiveBlocks,
		t.AdaptiveArea,
		t.NaiveArea,
	)
	if err != nil {
		return fmt.Errorf("write gen timing %s: %w", t.Fixture, err)
	}
	return nil
}
