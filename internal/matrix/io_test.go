package matrix

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteOnesVector(t *testing.T) {
	path := filepath.Join(t.TempDir(), "v.txt")
	require.NoError(t, WriteOnesVector(path, 4))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "4 1 1 1 1 ", string(data))

	vals, err := ReadVector(path)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 1, 1, 1}, vals)
}

func TestWriteResult(t *testing.T) {
	path := filepath.Join(t.TempDir(), "r.txt")
	require.NoError(t, WriteResult(path, []int64{3, 0, -4}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "3 0 -4 ", string(data))

	vals, err := ReadResult(path)
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 0, -4}, vals)
}

func TestReadVector_LengthMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "v.txt")
	require.NoError(t, os.WriteFile(path, []byte("3 1 1 "), 0644))

	_, err := ReadVector(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "declared 3 values, found 2")
}
