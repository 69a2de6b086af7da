package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neelspatel/blockbench/internal/fixture"
)

func writeValidateSuite(t *testing.T, withSources bool, names ...string) string {
	t.Helper()
	dir := t.TempDir()

	manifest := "name: check_suite\ndir: .\nblock_cmd: ./block.sh\nnaive_cmd: ./naive.sh\nfixtures:\n"
	for _, name := range names {
		manifest += "  - " + name + "\n"
		if withSources {
			f := fixture.New(dir, name)
			require.NoError(t, os.WriteFile(f.MatrixPath(), []byte("%%MatrixMarket matrix coordinate integer general\n1 1 1\n1 1 1\n"), 0644))
		}
	}

	path := filepath.Join(dir, "suite.yaml")
	require.NoError(t, os.WriteFile(path, []byte(manifest), 0644))
	return path
}

func executeValidate(t *testing.T, format string, args ...string) (string, string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	errBuf := &bytes.Buffer{}
	cmd := NewValidateCommand(&RootOptions{Format: format})
	cmd.SetOut(out)
	cmd.SetErr(errBuf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errBuf.String(), err
}

func TestValidateCommandValid(t *testing.T) {
	manifest := writeValidateSuite(t, true, "ibm32", "bcsstk01")

	out, _, err := executeValidate(t, "text", manifest)
	require.NoError(t, err)
	assert.Contains(t, out, `✓ Suite "check_suite" valid (2 fixtures)`)
}

func TestValidateCommandMissingSource(t *testing.T) {
	manifest := writeValidateSuite(t, false, "ibm32")

	out, _, err := executeValidate(t, "text", manifest)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ Validation failed")
	assert.Contains(t, out, `fixture "ibm32": missing source`)
}

func TestValidateCommandMissingManifest(t *testing.T) {
	out, _, err := executeValidate(t, "text", filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E_MANIFEST]")
}

func TestValidateCommandSchemaViolation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "suite.yaml")
	// block_cmd is required by the schema.
	require.NoError(t, os.WriteFile(path, []byte("name: bad\ndir: .\nnaive_cmd: ./n.sh\nfixtures:\n  - a\n"), 0644))

	_, _, err := executeValidate(t, "text", path)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestValidateCommandJSON(t *testing.T) {
	manifest := writeValidateSuite(t, false, "ibm32")

	out, _, err := executeValidate(t, "json", manifest)
	require.Error(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E_VALIDATION", resp.Error.Code)
}

func TestValidateCommandVerboseLogsToStderr(t *testing.T) {
	manifest := writeValidateSuite(t, true, "ibm32")

	out := &bytes.Buffer{}
	errBuf := &bytes.Buffer{}
	cmd := NewValidateCommand(&RootOptions{Format: "json", Verbose: true})
	cmd.SetOut(out)
	cmd.SetErr(errBuf)
	cmd.SetArgs([]string{manifest})
	require.NoError(t, cmd.Execute())

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(out.Bytes(), &resp), "stdout must stay valid JSON")
	assert.Contains(t, errBuf.String(), "Checking fixture: ibm32")
}
