package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/neelspatel/blockbench/internal/store"
)

// ReportOptions holds flags for the report command.
type ReportOptions struct {
	*RootOptions
	Database string
	Limit    int
	Timings  bool
	Fixture  string
}

// NewReportCommand creates the report command.
func NewReportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "report [run-id]",
		Short: "Query recorded run history",
		Long: `Query the run-history database written by run --db and gen --db.

Without arguments, lists the most recent runs. With a run id, shows the
per-fixture outcomes of that run. With --timings, lists fixture
generation timings instead.

Examples:
  blockbench report --db ./runs.db
  blockbench report --db ./runs.db 0191e9b0-5a31-7c2e-8f00-3d8a1c2b4d5e
  blockbench report --db ./runs.db --timings --fixture ibm32`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			runID := ""
			if len(args) == 1 {
				runID = args[0]
			}
			return runReport(opts, runID, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite run-history database (required)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 10, "maximum number of entries to list")
	cmd.Flags().BoolVar(&opts.Timings, "timings", false, "list fixture generation timings")
	cmd.Flags().StringVar(&opts.Fixture, "fixture", "", "restrict --timings to one fixture")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runReport(opts *ReportOptions, runID string, cmd *cobra.Command) error {
	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	switch {
	case opts.Timings:
		return reportTimings(ctx, st, opts, cmd)
	case runID != "":
		return reportRun(ctx, st, opts, runID, cmd)
	default:
		return reportRuns(ctx, st, opts, cmd)
	}
}

// reportRuns lists the most recent runs.
func reportRuns(ctx context.Context, st *store.Store, opts *ReportOptions, cmd *cobra.Command) error {
	runs, err := st.ListRuns(ctx, opts.Limit)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list runs", err)
	}

	if opts.Format == "json" {
		return encodeReport(cmd, map[string]interface{}{"runs": runs})
	}

	w := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(w, "No recorded runs.")
		return nil
	}
	for _, r := range runs {
		status := "✓"
		if r.Failed > 0 {
			status = "✗"
		}
		fmt.Fprintf(w, "%s %s  %s  %s  %d passed, %d failed\n",
			status, r.ID, r.Suite, r.StartedAt.Local().Format(time.RFC3339), r.Passed, r.Failed)
	}
	return nil
}

// reportRun shows per-fixture outcomes of one run.
func reportRun(ctx context.Context, st *store.Store, opts *ReportOptions, runID string, cmd *cobra.Command) error {
	run, err := st.GetRun(ctx, runID)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load run", err)
	}
	records, err := st.FixtureResults(ctx, runID)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load fixture results", err)
	}

	if opts.Format == "json" {
		return encodeReport(cmd, map[string]interface{}{
			"run":      run,
			"fixtures": records,
		})
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Run %s (%s), started %s: %d passed, %d failed\n",
		run.ID, run.Suite, run.StartedAt.Local().Format(time.RFC3339), run.Passed, run.Failed)
	fmt.Fprintln(w)
	for _, rec := range records {
		if rec.Matched && rec.Error == "" {
			fmt.Fprintf(w, "✓ %s %s (%dms)\n", rec.Fixture, rec.Mode, rec.DurationMS)
			continue
		}
		fmt.Fprintf(w, "✗ %s %s exit=%d", rec.Fixture, rec.Mode, rec.ExitCode)
		if rec.DiffLines > 0 {
			fmt.Fprintf(w, " diff_lines=%d", rec.DiffLines)
		}
		if rec.Error != "" {
			fmt.Fprintf(w, " error=%s", rec.Error)
		}
		fmt.Fprintln(w)
	}
	return nil
}

// reportTimings lists recorded generation timings.
func reportTimings(ctx context.Context, st *store.Store, opts *ReportOptions, cmd *cobra.Command) error {
	timings, err := st.ListGenTimings(ctx, opts.Fixture, opts.Limit)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list generation timings", err)
	}

	if opts.Format == "json" {
		return encodeReport(cmd, map[string]interface{}{"timings": timings})
	}

	w := cmd.OutOrStdout()
	if len(timings) == 0 {
		fmt.Fprintln(w, "No recorded timings.")
		return nil
	}
	for _, t := range timings {
		fmt.Fprintf(w, "%s  %s  seed=%d  blocking=%s superblocking=%s  blocks=%d/%d area=%d/%d\n",
			t.GeneratedAt.Local().Format(time.RFC3339), t.Fixture, t.Seed,
			t.Blocking, t.Superblocking,
			t.AdaptiveBlocks, t.NaiveBlocks, t.AdaptiveArea, t.NaiveArea)
	}
	return nil
}

// encodeReport writes a report payload in the standard JSON envelope.
func encodeReport(cmd *cobra.Command, data interface{}) error {
	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(CLIResponse{Status: "ok", Data: data})
}
