package fixture

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeManifest writes a manifest file into a temp dir and returns its path.
func writeManifest(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "suite.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

const validManifest = `
name: block_20
description: "20-block test matrices"
dir: 20_block_test_matrices
block_cmd: ./run
naive_cmd: ./naive
fixtures:
  - rail516
  - shar_te2-b3
  - lp_pds_02
`

func TestLoadSuite_ValidManifest(t *testing.T) {
	path := writeManifest(t, validManifest)

	suite, err := LoadSuite(path)
	require.NoError(t, err)

	assert.Equal(t, "block_20", suite.Name)
	assert.Equal(t, "./run", suite.BlockCmd)
	assert.Equal(t, "./naive", suite.NaiveCmd)
	assert.Equal(t, []string{"rail516", "shar_te2-b3", "lp_pds_02"}, suite.Fixtures)

	// Relative dir resolves against the manifest location.
	assert.Equal(t, filepath.Join(filepath.Dir(path), "20_block_test_matrices"), suite.Dir)
}

func TestLoadSuite_MissingFile(t *testing.T) {
	_, err := LoadSuite("/nonexistent/suite.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read suite manifest")
}

func TestLoadSuite_MissingRequiredField(t *testing.T) {
	path := writeManifest(t, `
name: block_20
dir: matrices
naive_cmd: ./naive
fixtures:
  - rail516
`)
	_, err := LoadSuite(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "block_cmd")
}

func TestLoadSuite_UnknownField(t *testing.T) {
	path := writeManifest(t, validManifest+`
fixture_dir: typo
`)
	_, err := LoadSuite(path)
	require.Error(t, err)
}

func TestLoadSuite_EmptyFixtures(t *testing.T) {
	path := writeManifest(t, `
name: block_20
dir: matrices
block_cmd: ./run
naive_cmd: ./naive
fixtures: []
`)
	_, err := LoadSuite(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "non-empty")
}

func TestLoadSuite_DuplicateFixture(t *testing.T) {
	path := writeManifest(t, `
name: block_20
dir: matrices
block_cmd: ./run
naive_cmd: ./naive
fixtures:
  - rail516
  - rail516
`)
	_, err := LoadSuite(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate fixture")
}

func TestLoadSuite_BadTimeout(t *testing.T) {
	path := writeManifest(t, `
name: block_20
dir: matrices
block_cmd: ./run
naive_cmd: ./naive
timeout: fast
fixtures:
  - rail516
`)
	_, err := LoadSuite(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timeout")
}

func TestTimeoutDuration(t *testing.T) {
	s := &Suite{Timeout: "30s"}
	assert.Equal(t, 30*time.Second, s.TimeoutDuration())

	unbounded := &Suite{}
	assert.Equal(t, time.Duration(0), unbounded.TimeoutDuration())
}

func TestSelect_PreservesDeclaredOrder(t *testing.T) {
	s := &Suite{
		Dir:      "m",
		Fixtures: []string{"rail516", "shar_te2-b3", "lp_pds_02"},
	}

	fixtures, err := s.Select("")
	require.NoError(t, err)
	require.Len(t, fixtures, 3)
	assert.Equal(t, "rail516", fixtures[0].Name)
	assert.Equal(t, "shar_te2-b3", fixtures[1].Name)
	assert.Equal(t, "lp_pds_02", fixtures[2].Name)
}

func TestSelect_GlobFilter(t *testing.T) {
	s := &Suite{
		Dir:      "m",
		Fixtures: []string{"rail516", "shar_te2-b3", "lp_pds_02", "lp_pds_10"},
	}

	fixtures, err := s.Select("lp_*")
	require.NoError(t, err)
	require.Len(t, fixtures, 2)
	assert.Equal(t, "lp_pds_02", fixtures[0].Name)
	assert.Equal(t, "lp_pds_10", fixtures[1].Name)
}

func TestSelect_InvalidPattern(t *testing.T) {
	s := &Suite{Dir: "m", Fixtures: []string{"rail516"}}

	_, err := s.Select("[")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid filter pattern")
}
