package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// RunSummary is one row of the runs table.
type RunSummary struct {
	ID           string    `json:"id"`
	Suite        string    `json:"suite"`
	ManifestPath string    `json:"manifest_path"`
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at"`
	Passed       int       `json:"passed"`
	Failed       int       `json:"failed"`
}

// FixtureRecord is one (fixture, mode) outcome of a recorded run.
type FixtureRecord struct {
	Fixture        string `json:"fixture"`
	Mode           string `json:"mode"`
	ExitCode       int    `json:"exit_code"`
	Error          string `json:"error,omitempty"`
	Matched        bool   `json:"matched"`
	DiffLines      int    `json:"diff_lines,omitempty"`
	DurationMS     int64  `json:"duration_ms"`
	ActualDigest   string `json:"actual_digest,omitempty"`
	ExpectedDigest string `json:"expected_digest,omitempty"`
}

// ListRuns returns the most recent runs, newest first. UUIDv7 ids order by
// creation time, so the id is the tiebreaker.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, suite, manifest_path, started_at, finished_at, passed, failed
		FROM runs
		ORDER BY started_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var r RunSummary
		var started, finished string
		if err := rows.Scan(&r.ID, &r.Suite, &r.ManifestPath, &started, &finished, &r.Passed, &r.Failed); err != nil {
			return nil, fmt.Errorf("list runs: %w", err)
		}
		if r.StartedAt, err = time.Parse(time.RFC3339Nano, started); err != nil {
			return nil, fmt.Errorf("list runs: invalid started_at %q: %w", started, err)
		}
		if r.FinishedAt, err = time.Parse(time.RFC3339Nano, finished); err != nil {
			return nil, fmt.Errorf("list runs: invalid finished_at %q: %w", finished, err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// GetRun returns one run by id.
func (s *Store) GetRun(ctx context.Context, id string) (*RunSummary, error) {
	var r RunSummary
	var started, finished string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, suite, manifest_path, started_at, finished_at, passed, failed
		FROM runs WHERE id = ?
	`, id).Scan(&r.ID, &r.Suite, &r.ManifestPath, &started, &finished, &r.Passed, &r.Failed)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	if r.StartedAt, err = time.Parse(time.RFC3339Nano, started); err != nil {
		return nil, fmt.Errorf("get run: invalid started_at %q: %w", started, err)
	}
	if r.FinishedAt, err = time.Parse(time.RFC3339Nano, finished); err != nil {
		return nil, fmt.Errorf("get run: invalid finished_at %q: %w", finished, err)
	}
	return &r, nil
}

// FixtureResults returns a run's per-fixture outcomes in insertion order,
// which is execution order.
func (s *Store) FixtureResults(ctx context.Context, runID string) ([]FixtureRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT fixture, mode, exit_code, error, matched, diff_lines, duration_ms, actual_digest, expected_digest
		FROM fixture_results
		WHERE run_id = ?
		ORDER BY rowid ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("fixture results: %w", err)
	}
	defer rows.Close()

	var records []FixtureRecord
	for rows.Next() {
		var rec FixtureRecord
		if err := rows.Scan(&rec.Fixture, &rec.Mode, &rec.ExitCode, &rec.Error, &rec.Matched,
			&rec.DiffLines, &rec.DurationMS, &rec.ActualDigest, &rec.ExpectedDigest); err != nil {
			return nil, fmt.Errorf("fixture results: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// ListGenTimings returns generation records, newest first, optionally
// restricted to one fixture (empty means all).
func (s *Store) ListGenTimings(ctx context.Context, fixtureName string, limit int) ([]GenTiming, error) {
	query := `
		SELECT fixture, generated_at, seed, blocking_ms, superblocking_ms, expected_ms, naive_ms,
		       adaptive_blocks, naive_blocks, adaptive_area, naive_area
		FROM gen_timings
	`
	args := []any{}
	if fixtureName != "" {
		query += " WHERE fixture = ?"
		args = append(args, fixtureName)
	}
	query += " ORDER BY id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list gen timings: %w", err)
	}
	defer rows.Close()

	var timings []GenTiming
	for rows.Next() {
		var t GenTiming
		var generatedAt string
		var blocking, superblocking, expected, naive int64
		if err := rows.Scan(&t.Fixture, &generatedAt, &t.Seed, &blocking, &superblocking, &expected, &naive,
			&t.AdaptiveBlocks, &t.NaiveBlocks, &t.AdaptiveArea, &t.NaiveArea); err != nil {
			return nil, fmt.Errorf("list gen timings: %w", err)
		}
		if t.GeneratedAt, err = time.Parse(time.RFC3339Nano, generatedAt); err != nil {
			return nil, fmt.Errorf("list gen timings: invalid generated_at %q: %w", generatedAt, err)
		}
		t.Blocking = time.Duration(blocking) * time.Millisecond
		t.Superblocking = time.Duration(superblocking) * time.Millisecond
		t.Expected = time.Duration(expected) * time.Millisecond
		t.Naive = time.Duration(naive) * time.Millisecond
		timings = append(timings, t)
	}
	return timings, rows.Err()
}
