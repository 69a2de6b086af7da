package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neelspatel/blockbench/internal/fixture"
	"github.com/neelspatel/blockbench/internal/store"
)

// suiteDir is one on-disk suite: fixture files, stub kernels, and a
// manifest pointing at them.
type suiteDir struct {
	dir      string
	manifest string
}

// newSuiteDir creates fixture files and a manifest for the given names.
func newSuiteDir(t *testing.T, blockBody, naiveBody string, names ...string) *suiteDir {
	t.Helper()
	s := &suiteDir{dir: t.TempDir()}

	for _, name := range names {
		f := fixture.New(s.dir, name)
		require.NoError(t, os.WriteFile(f.ReferencePath(), []byte("ref "+name), 0644))
		require.NoError(t, os.WriteFile(f.NaiveReferencePath(), []byte("naive-ref "+name), 0644))
		require.NoError(t, os.WriteFile(f.VectorPath(), []byte("3 1 1 1 "), 0644))
		require.NoError(t, os.WriteFile(f.ExpectedPath(), []byte("expected "+name), 0644))
	}

	block := s.kernel(t, "block.sh", blockBody)
	naive := s.kernel(t, "naive.sh", naiveBody)

	manifest := fmt.Sprintf("name: cli_suite\ndir: .\nblock_cmd: %s\nnaive_cmd: %s\nfixtures:\n", block, naive)
	for _, name := range names {
		manifest += "  - " + name + "\n"
	}
	s.manifest = filepath.Join(s.dir, "suite.yaml")
	require.NoError(t, os.WriteFile(s.manifest, []byte(manifest), 0644))
	return s
}

// kernel writes an executable shell script into the suite dir.
func (s *suiteDir) kernel(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(s.dir, name)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0755))
	return path
}

// copyExpected is a kernel body that reproduces the expected result exactly.
const copyExpected = `case "$3" in
  *_naive_calculated.txt) exp="${3%_naive_calculated.txt}_expected_result.txt" ;;
  *) exp="${3%_calculated.txt}_expected_result.txt" ;;
esac
cp "$exp" "$3"`

// wrongOutput is a kernel body that always produces a mismatch.
const wrongOutput = `printf 'wrong output' > "$3"`

func executeRun(t *testing.T, format string, args ...string) (string, string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	errBuf := &bytes.Buffer{}
	cmd := NewRunCommand(&RootOptions{Format: format})
	cmd.SetOut(out)
	cmd.SetErr(errBuf)
	cmd.SetContext(context.Background())
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errBuf.String(), err
}

func TestRunCommandMissingArgs(t *testing.T) {
	_, _, err := executeRun(t, "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}

func TestRunCommandBadManifest(t *testing.T) {
	_, _, err := executeRun(t, "text", filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRunCommandAllPass(t *testing.T) {
	s := newSuiteDir(t, copyExpected, copyExpected, "ibm32", "bcsstk01")

	out, _, err := executeRun(t, "text", s.manifest)
	require.NoError(t, err)

	assert.Contains(t, out, "ibm32")
	assert.Contains(t, out, "bcsstk01")
	assert.Contains(t, out, "Run Summary: 2 passed, 0 failed, 2 total")
	assert.Contains(t, out, "✓ All fixtures matched")
}

func TestRunCommandMismatchKeepsExitZero(t *testing.T) {
	s := newSuiteDir(t, wrongOutput, copyExpected, "ibm32")

	out, _, err := executeRun(t, "text", s.manifest)
	require.NoError(t, err, "mismatches alone must not change the exit code")

	assert.Contains(t, out, "✗ ibm32")
	assert.Contains(t, out, "Run Summary: 0 passed, 1 failed, 1 total")
	// The unified diff is printed as part of the progress output.
	assert.Contains(t, out, "-wrong output")
	assert.Contains(t, out, "+expected ibm32")
}

func TestRunCommandStrict(t *testing.T) {
	s := newSuiteDir(t, wrongOutput, copyExpected, "ibm32")

	_, _, err := executeRun(t, "text", s.manifest, "--strict")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "1 fixture(s) failed")
}

func TestRunCommandFilter(t *testing.T) {
	s := newSuiteDir(t, copyExpected, copyExpected, "ibm32", "bcsstk01")

	out, _, err := executeRun(t, "text", s.manifest, "--filter", "ibm*")
	require.NoError(t, err)
	assert.Contains(t, out, "Run Summary: 1 passed, 0 failed, 1 total")
	assert.NotContains(t, out, "bcsstk01")
}

func TestRunCommandNoFixturesSelected(t *testing.T) {
	s := newSuiteDir(t, copyExpected, copyExpected, "ibm32")

	out, _, err := executeRun(t, "text", s.manifest, "--filter", "zzz*")
	require.NoError(t, err)
	assert.Contains(t, out, "No fixtures selected.")
}

func TestRunCommandJSON(t *testing.T) {
	s := newSuiteDir(t, wrongOutput, copyExpected, "ibm32")

	out, errOut, err := executeRun(t, "json", s.manifest)
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp), "stdout must be a single JSON document")
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E_RUN_FAILED", resp.Error.Code)

	// Progress lines and diff hunks went to stderr.
	assert.Contains(t, errOut, "ibm32")
	assert.Contains(t, errOut, "-wrong output")
}

func TestRunCommandRecordsRun(t *testing.T) {
	s := newSuiteDir(t, copyExpected, copyExpected, "ibm32")
	dbPath := filepath.Join(t.TempDir(), "runs.db")

	_, _, err := executeRun(t, "text", s.manifest, "--db", dbPath)
	require.NoError(t, err)

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()

	runs, err := st.ListRuns(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "cli_suite", runs[0].Suite)
	assert.Equal(t, 1, runs[0].Passed)
	assert.Equal(t, 0, runs[0].Failed)

	records, err := st.FixtureResults(context.Background(), runs[0].ID)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "block", records[0].Mode)
	assert.Equal(t, "naive", records[1].Mode)
}
