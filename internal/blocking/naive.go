package blocking

import (
	"bufio"
	"fmt"
	"io"

	"github.com/neelspatel/blockbench/internal/matrix"
)

// NaiveBlockSide is the fixed block side of the naive scheme.
const NaiveBlockSide = 4

// WriteNaive emits the naive fixed-grid blocking of m:
//
//	rows cols numRegions
//	cost numBlocks {row col v*16}*     (one line per nonempty region)
//
// Every nonzero is snapped to a 4x4 grid; each nonempty grid block carries
// its anchor and all sixteen row-major values. Blocks are grouped by cache
// region, regions emitted in row-major order, blocks within a region in
// first-touch order. The region cost is numBlocks*18 + 1 ints.
//
// Returns the number of blocks created.
func WriteNaive(w io.Writer, m *matrix.COO) (int, error) {
	locations := m.Locations()

	type regionKey = cell
	blocks := make(map[cell]bool)
	regions := make(map[regionKey][][]int64)
	created := 0

	for _, e := range m.Entries {
		anchor := cell{
			Row: e.Row / NaiveBlockSide * NaiveBlockSide,
			Col: e.Col / NaiveBlockSide * NaiveBlockSide,
		}
		if blocks[anchor] {
			continue
		}

		vals := make([]int64, 2+NaiveBlockSide*NaiveBlockSide)
		vals[0] = int64(anchor.Row)
		vals[1] = int64(anchor.Col)

		haveNonzero := false
		for r := 0; r < NaiveBlockSide; r++ {
			for c := 0; c < NaiveBlockSide; c++ {
				if v, ok := locations[[2]int{anchor.Row + r, anchor.Col + c}]; ok {
					vals[2+r*NaiveBlockSide+c] = v
					haveNonzero = true
				}
			}
		}
		if !haveNonzero {
			continue
		}

		blocks[anchor] = true
		key := regionKey{e.Row / RegionSide, e.Col / RegionSide}
		regions[key] = append(regions[key], vals)
		created++
	}

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%d %d %d\n", m.Rows, m.Cols, len(regions))

	for i := 0; i < m.Rows/RegionSide+1; i++ {
		for j := 0; j < m.Cols/RegionSide+1; j++ {
			regionBlocks, ok := regions[cell{i, j}]
			if !ok {
				continue
			}

			cost := len(regionBlocks)*len(regionBlocks[0]) + 1
			fmt.Fprintf(bw, "%d %d ", cost, len(regionBlocks))
			for _, vals := range regionBlocks {
				for _, v := range vals {
					fmt.Fprintf(bw, "%d ", v)
				}
			}
			fmt.Fprintln(bw)
		}
	}

	if err := bw.Flush(); err != nil {
		return 0, fmt.Errorf("failed to write naive output: %w", err)
	}
	return created, nil
}
