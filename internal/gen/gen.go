// Package gen produces fixture files from MatrixMarket sources: the
// blocked and naive-blocked kernel inputs, the all-ones vector, and the
// expected SpMV result used as ground truth by the harness.
package gen

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/neelspatel/blockbench/internal/blocking"
	"github.com/neelspatel/blockbench/internal/fixture"
	"github.com/neelspatel/blockbench/internal/matrix"
	"github.com/neelspatel/blockbench/internal/store"
)

// Options configures fixture generation.
type Options struct {
	// Seed feeds the blocking sampler. Zero means blocking.DefaultSeed.
	Seed int64

	// Logger receives per-phase progress. Defaults to a discarding
	// logger.
	Logger *slog.Logger

	// Store, when non-nil, records per-fixture timings.
	Store *store.Store
}

// Report summarizes one generated fixture.
type Report struct {
	Fixture string

	// Rows, Cols and Nonzeros describe the source matrix.
	Rows     int
	Cols     int
	Nonzeros int

	// Stats describes the adaptive blocking written to the reference
	// file.
	Stats blocking.Stats

	// NaiveBlocks is the block count of the naive representation.
	NaiveBlocks int

	// Timing holds the per-phase durations.
	Timing store.GenTiming
}

// Generate builds all derived files for one fixture from its MatrixMarket
// source. Existing files are overwritten.
func Generate(ctx context.Context, f fixture.Fixture, opts Options) (*Report, error) {
	seed := opts.Seed
	if seed == 0 {
		seed = blocking.DefaultSeed
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	m, err := matrix.ReadMatrixMarketFile(f.MatrixPath())
	if err != nil {
		return nil, err
	}
	logger.Info("matrix loaded", "fixture", f.Name, "rows", m.Rows, "cols", m.Cols, "nnz", m.NNZ())

	report := &Report{
		Fixture:  f.Name,
		Rows:     m.Rows,
		Cols:     m.Cols,
		Nonzeros: m.NNZ(),
	}
	report.Timing.Fixture = f.Name
	report.Timing.GeneratedAt = time.Now()
	report.Timing.Seed = seed

	if err := matrix.WriteOnesVector(f.VectorPath(), m.Cols); err != nil {
		return nil, err
	}

	start := time.Now()
	blocked, err := blocking.NewBlocker(seed).Run(m)
	if err != nil {
		return nil, fmt.Errorf("blocking %s: %w", f.Name, err)
	}
	report.Timing.Blocking = time.Since(start)
	logger.Info("finished blocking", "fixture", f.Name, "blocks", blocked.NumBlocks())

	start = time.Now()
	report.Stats, err = writeBlocked(f.ReferencePath(), blocked)
	if err != nil {
		return nil, err
	}
	report.Timing.Superblocking = time.Since(start)
	logger.Info("finished superblocking", "fixture", f.Name, "superblocks", report.Stats.Superblocks)

	start = time.Now()
	if err := matrix.WriteResult(f.ExpectedPath(), m.MulOnes()); err != nil {
		return nil, err
	}
	report.Timing.Expected = time.Since(start)

	start = time.Now()
	report.NaiveBlocks, err = writeNaive(f.NaiveReferencePath(), m)
	if err != nil {
		return nil, err
	}
	report.Timing.Naive = time.Since(start)
	logger.Info("finished naive blocking", "fixture", f.Name, "blocks", report.NaiveBlocks)

	report.Timing.AdaptiveBlocks = report.Stats.Blocks
	report.Timing.AdaptiveArea = report.Stats.Area
	report.Timing.NaiveBlocks = report.NaiveBlocks
	report.Timing.NaiveArea = report.NaiveBlocks * blocking.NaiveBlockSide * blocking.NaiveBlockSide

	if opts.Store != nil {
		if err := opts.Store.WriteGenTiming(ctx, report.Timing); err != nil {
			return nil, err
		}
	}

	return report, nil
}

// writeBlocked writes the adaptive blocking to path.
func writeBlocked(path string, blocked *blocking.Blocked) (blocking.Stats, error) {
	file, err := os.Create(path)
	if err != nil {
		return blocking.Stats{}, fmt.Errorf("failed to create blocked output: %w", err)
	}
	defer file.Close()

	stats, err := blocked.Write(file)
	if err != nil {
		return blocking.Stats{}, err
	}
	return stats, file.Close()
}

// writeNaive writes the naive blocking to path.
func writeNaive(path string, m *matrix.COO) (int, error) {
	file, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("failed to create naive output: %w", err)
	}
	defer file.Close()

	created, err := blocking.WriteNaive(file, m)
	if err != nil {
		return 0, err
	}
	return created, file.Close()
}
