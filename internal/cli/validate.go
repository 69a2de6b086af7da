package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/neelspatel/blockbench/internal/fixture"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid    bool     `json:"valid"`
	Suite    string   `json:"suite,omitempty"`
	Fixtures int      `json:"fixtures,omitempty"`
	Errors   []string `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <suite.yaml>",
		Short: "Validate a suite manifest without running it",
		Long: `Validate a suite manifest: schema check, strict field parsing, duplicate
fixture detection, and a check that every fixture has its MatrixMarket
source file.

Exit codes:
  0 - Manifest valid
  1 - Manifest loaded but fixtures are invalid (missing sources)
  2 - Command error (unreadable manifest, schema violation)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, manifestPath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}

	suite, err := fixture.LoadSuite(manifestPath)
	if err != nil {
		_ = formatter.Error("E_MANIFEST", err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid suite manifest", err)
	}

	formatter.VerboseLog("Suite %q: %d fixture(s) under %s", suite.Name, len(suite.Fixtures), suite.Dir)

	fixtures, err := suite.Select("")
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to enumerate fixtures", err)
	}

	var errs []string
	for _, f := range fixtures {
		formatter.VerboseLog("Checking fixture: %s", f.Name)
		if _, statErr := os.Stat(f.MatrixPath()); statErr != nil {
			errs = append(errs, fmt.Sprintf("fixture %q: missing source %s", f.Name, f.MatrixPath()))
		}
	}

	result := ValidationResult{
		Valid:    len(errs) == 0,
		Suite:    suite.Name,
		Fixtures: len(fixtures),
		Errors:   errs,
	}

	if len(errs) > 0 {
		return outputValidationErrors(formatter, result)
	}
	return outputValidateSuccess(formatter, result)
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, result ValidationResult) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "✓ Suite %q valid (%d fixtures)\n", result.Suite, result.Fixtures)
	return nil
}

// outputValidationErrors outputs validation errors.
func outputValidationErrors(formatter *OutputFormatter, result ValidationResult) error {
	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Data:   result,
			Error: &CLIError{
				Code:    "E_VALIDATION",
				Message: fmt.Sprintf("%d fixture(s) invalid", len(result.Errors)),
			},
		}

		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}

		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(result.Errors)))
	}

	// Text format
	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)
	for _, e := range result.Errors {
		fmt.Fprintf(formatter.Writer, "  %s\n", e)
	}

	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(result.Errors)))
}
