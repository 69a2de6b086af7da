package blocking

import (
	"bytes"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neelspatel/blockbench/internal/matrix"
)

func TestWriteNaive_Small(t *testing.T) {
	m := testMatrix(5, 5,
		matrix.Entry{Row: 0, Col: 0, Val: 1},
		matrix.Entry{Row: 1, Col: 1, Val: 2},
		matrix.Entry{Row: 4, Col: 4, Val: 3},
	)

	var buf bytes.Buffer
	created, err := WriteNaive(&buf, m)
	require.NoError(t, err)

	// (0,0) and (1,1) share the 4x4 block at (0,0); (4,4) gets its own.
	assert.Equal(t, 2, created)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "naive_small", buf.Bytes())
}

func TestWriteNaive_RegionGrouping(t *testing.T) {
	// (0,0) lands in region (0,0); (25,25) in region (1,1).
	m := testMatrix(40, 40,
		matrix.Entry{Row: 0, Col: 0, Val: 1},
		matrix.Entry{Row: 25, Col: 25, Val: 2},
	)

	var buf bytes.Buffer
	created, err := WriteNaive(&buf, m)
	require.NoError(t, err)
	assert.Equal(t, 2, created)

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "40 40 2", lines[0])

	// One block per region: cost = 1*18 + 1.
	assert.True(t, strings.HasPrefix(lines[1], "19 1 0 0 "))
	assert.True(t, strings.HasPrefix(lines[2], "19 1 24 24 "))
}

func TestWriteNaive_Empty(t *testing.T) {
	m := testMatrix(3, 3)

	var buf bytes.Buffer
	created, err := WriteNaive(&buf, m)
	require.NoError(t, err)
	assert.Equal(t, 0, created)
	assert.Equal(t, "3 3 0\n", buf.String())
}
