package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/neelspatel/blockbench/internal/blocking"
	"github.com/neelspatel/blockbench/internal/fixture"
	"github.com/neelspatel/blockbench/internal/gen"
	"github.com/neelspatel/blockbench/internal/store"
)

// GenOptions holds flags for the gen command.
type GenOptions struct {
	*RootOptions
	Filter   string
	Seed     int64
	Database string
}

// GenFixtureResult holds the outcome of generating one fixture.
type GenFixtureResult struct {
	Name        string `json:"name"`
	Ok          bool   `json:"ok"`
	Error       string `json:"error,omitempty"`
	Nonzeros    int    `json:"nonzeros,omitempty"`
	Blocks      int    `json:"blocks,omitempty"`
	Superblocks int    `json:"superblocks,omitempty"`
	NaiveBlocks int    `json:"naive_blocks,omitempty"`
}

// GenResult holds the overall generation result.
type GenResult struct {
	Fixtures  []GenFixtureResult `json:"fixtures"`
	Generated int                `json:"generated"`
	Failed    int                `json:"failed"`
}

// NewGenCommand creates the gen command.
func NewGenCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GenOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "gen <suite.yaml>",
		Short: "Generate fixture files from MatrixMarket sources",
		Long: `Generate the derived fixture files for every fixture in the suite:
the cache-blocked representation, the naive 4x4 representation, the
all-ones input vector, and the expected multiplication result.

Each fixture needs a <name>.mtx MatrixMarket file in the suite directory.
A fixture that fails to generate is reported and skipped; the rest of the
suite is still generated.

Exit codes:
  0 - All selected fixtures generated
  1 - One or more fixtures failed to generate
  2 - Command error (unreadable manifest, invalid filter, etc.)

Examples:
  blockbench gen ./suite.yaml
  blockbench gen ./suite.yaml --filter "bcsstk*" --seed 7
  blockbench gen ./suite.yaml --db ./runs.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGen(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter fixtures by glob pattern")
	cmd.Flags().Int64Var(&opts.Seed, "seed", blocking.DefaultSeed, "seed for the blocking sampler")
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database for generation timings (optional)")

	return cmd
}

func runGen(opts *GenOptions, manifestPath string, cmd *cobra.Command) error {
	logLevel := slog.LevelInfo
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	suite, err := fixture.LoadSuite(manifestPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load suite manifest", err)
	}

	fixtures, err := suite.Select(opts.Filter)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid fixture filter", err)
	}

	var st *store.Store
	if opts.Database != "" {
		st, err = store.Open(opts.Database)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				slog.Error("error closing database", "error", closeErr)
			}
		}()
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	w := cmd.OutOrStdout()
	result := GenResult{Fixtures: make([]GenFixtureResult, 0, len(fixtures))}

	for _, f := range fixtures {
		if err := ctx.Err(); err != nil {
			return WrapExitError(ExitFailure, "generation interrupted", err)
		}

		report, err := gen.Generate(ctx, f, gen.Options{
			Seed:   opts.Seed,
			Logger: logger,
			Store:  st,
		})
		if err != nil {
			result.Failed++
			result.Fixtures = append(result.Fixtures, GenFixtureResult{
				Name:  f.Name,
				Error: err.Error(),
			})
			if opts.Format != "json" {
				fmt.Fprintf(w, "✗ %s\n", f.Name)
				fmt.Fprintf(w, "  %v\n", err)
			}
			continue
		}

		result.Generated++
		result.Fixtures = append(result.Fixtures, GenFixtureResult{
			Name:        f.Name,
			Ok:          true,
			Nonzeros:    report.Nonzeros,
			Blocks:      report.Stats.Blocks,
			Superblocks: report.Stats.Superblocks,
			NaiveBlocks: report.NaiveBlocks,
		})
		if opts.Format != "json" {
			fmt.Fprintf(w, "✓ %s (%d nonzeros, %d blocks, %d superblocks)\n",
				f.Name, report.Nonzeros, report.Stats.Blocks, report.Stats.Superblocks)
		}
	}

	if opts.Format == "json" {
		return outputGenJSON(cmd, result)
	}
	return outputGenText(cmd, result)
}

// outputGenJSON outputs the generation result as JSON.
func outputGenJSON(cmd *cobra.Command, result GenResult) error {
	status := "ok"
	if result.Failed > 0 {
		status = "error"
	}

	response := CLIResponse{
		Status: status,
		Data:   result,
	}
	if result.Failed > 0 {
		response.Error = &CLIError{
			Code:    "E_GEN_FAILED",
			Message: fmt.Sprintf("%d fixture(s) failed to generate", result.Failed),
		}
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(response); err != nil {
		return err
	}

	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d fixture(s) failed to generate", result.Failed))
	}
	return nil
}

// outputGenText outputs the generation result as text.
func outputGenText(cmd *cobra.Command, result GenResult) error {
	w := cmd.OutOrStdout()

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Gen Summary: %d generated, %d failed, %d total\n",
		result.Generated, result.Failed, len(result.Fixtures))

	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d fixture(s) failed to generate", result.Failed))
	}
	return nil
}
