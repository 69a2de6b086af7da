package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/neelspatel/blockbench/internal/fixture"
	"github.com/neelspatel/blockbench/internal/runner"
	"github.com/neelspatel/blockbench/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Filter   string
	Timeout  time.Duration
	Database string
	Strict   bool
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <suite.yaml>",
		Short: "Run a fixture suite against both kernels",
		Long: `Run every fixture in the suite: invoke the block kernel on the blocked
representation, compare its output against the expected result, then do the
same with the naive kernel on the naive representation.

Kernel crashes, timeouts and mismatches are recorded per fixture and never
abort the run.

Exit codes:
  0 - Suite executed (mismatches alone keep this code)
  1 - One or more fixtures failed and --strict was given
  2 - Command error (unreadable manifest, invalid filter, etc.)

Examples:
  blockbench run ./suite.yaml
  blockbench run ./suite.yaml --filter "ibm*"
  blockbench run ./suite.yaml --timeout 30s --db ./runs.db --strict`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSuite(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter fixtures by glob pattern")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 0, "per-invocation timeout (overrides the manifest)")
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite run-history database (optional)")
	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "exit 1 when any fixture fails")

	return cmd
}

func runSuite(opts *RunOptions, manifestPath string, cmd *cobra.Command) error {
	// Configure logging based on verbose flag
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
	if len(fixtures) == 0 {
		if opts.Format == "json" {
			return outputRunJSON(cmd, opts, &runner.Result{Suite: suite.Name, Fixtures: []runner.FixtureResult{}})
		}
		fmt.Fprintln(cmd.OutOrStdout(), "No fixtures selected.")
		return nil
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

	// Setup signal handling for graceful shutdown
	// Use command's context if available (for testing), otherwise create one
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan) // Prevent signal handler leak

	go func() {
		select {
		case sig := <-sigChan:
			slog.Info("received signal, stopping", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	// In JSON mode the progress lines and diff hunks go to stderr so that
	// stdout stays a single valid JSON document.
	var progress io.Writer = cmd.OutOrStdout()
	if opts.Format == "json" {
		progress = cmd.ErrOrStderr()
	}

	slog.Info("suite loaded", "suite", suite.Name, "fixtures", len(fixtures))
	r := runner.New(suite, runner.Options{
		Out:     progress,
		Logger:  logger,
		Timeout: opts.Timeout,
	})

	result, runErr := r.Run(ctx, fixtures)

	// Record even interrupted runs; the partial result is still useful.
	if st != nil {
		if err := st.WriteRun(context.Background(), result, manifestPath); err != nil {
			return WrapExitError(ExitCommandError, "failed to record run", err)
		}
		slog.Info("run recorded", "run_id", result.RunID, "db", opts.Database)
	}

	if runErr != nil {
		return WrapExitError(ExitFailure, "run interrupted", runErr)
	}

	if opts.Format == "json" {
		return outputRunJSON(cmd, opts, result)
	}
	return outputRunText(cmd, opts, result)
}

// outputRunJSON outputs the run result as JSON.
func outputRunJSON(cmd *cobra.Command, opts *RunOptions, result *runner.Result) error {
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
			Code:    "E_RUN_FAILED",
			Message: fmt.Sprintf("%d fixture(s) failed", result.Failed),
		}
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(response); err != nil {
		return err
	}

	return strictExit(opts, result)
}

// outputRunText outputs the run result as text.
func outputRunText(cmd *cobra.Command, opts *RunOptions, result *runner.Result) error {
	w := cmd.OutOrStdout()

	fmt.Fprintln(w)
	for _, fr := range result.Fixtures {
		if fr.Pass() {
			fmt.Fprintf(w, "✓ %s\n", fr.Fixture)
			continue
		}
		fmt.Fprintf(w, "✗ %s\n", fr.Fixture)
		for _, mr := range fr.Modes() {
			if mr.Pass() {
				continue
			}
			switch {
			case mr.Invocation.Err != "":
				fmt.Fprintf(w, "  %s: %s\n", mr.Mode, mr.Invocation.Err)
			case mr.Comparison.Err != "":
				fmt.Fprintf(w, "  %s: %s\n", mr.Mode, mr.Comparison.Err)
			default:
				fmt.Fprintf(w, "  %s: %d line(s) differ\n", mr.Mode, mr.Comparison.Lines)
			}
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Run Summary: %d passed, %d failed, %d total\n", result.Passed, result.Failed, len(result.Fixtures))
	if result.Failed == 0 {
		fmt.Fprintln(w, "✓ All fixtures matched")
	}

	return strictExit(opts, result)
}

// strictExit maps fixture failures to exit code 1 when --strict is set.
// Without --strict a completed run always exits 0, matching the original
// fail-soft harness.
func strictExit(opts *RunOptions, result *runner.Result) error {
	if opts.Strict && result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d fixture(s) failed", result.Failed))
	}
	return nil
}
