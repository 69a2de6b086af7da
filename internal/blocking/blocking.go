package blocking

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/neelspatel/blockbench/internal/matrix"
)

// Cache geometry. Entries of A, x and y are 4-byte integers.
const (
	CacheLineBytes = 64
	DataSize       = 4

	// CacheLineEntries is how many matrix entries fit in one cache line.
	// It also bounds the nearest-neighbor walk when ordering superblocks.
	CacheLineEntries = CacheLineBytes / DataSize

	// BlockOverhead is the three header ints (size, row, col) stored per
	// block.
	BlockOverhead = 3

	// PageSize bounds one cache region; a region spans RegionSide entries
	// in each dimension.
	PageSize   = 80
	RegionSide = PageSize / DataSize

	// MaxBlockSide is the largest square block the format supports.
	MaxBlockSide = 4
)

// Sampling parameters for adaptive block growth.
const (
	// DefaultSamplingRate is the fraction of a probe window that gets
	// sampled.
	DefaultSamplingRate = 0.2

	// probeSide is the side of the square window probed around a nonzero.
	probeSide = 7

	// quadrantThreshold is the density above which a window quadrant is
	// blocked whole.
	quadrantThreshold = 0.5
)

// DefaultSeed makes generation reproducible when no seed is given.
const DefaultSeed = 1

// cell addresses one matrix entry.
type cell struct {
	Row int
	Col int
}

// Block is one square block: Side*Side values in row-major order anchored
// at (Row, Col).
type Block struct {
	Side int
	Row  int
	Col  int
	Vals []int64
}

// bytes returns the storage cost of the block in the output format.
func (b *Block) bytes() int {
	return BlockOverhead + b.Side*b.Side
}

// regionInfo accumulates the blocks anchored inside one cache region.
type regionInfo struct {
	bytes   int
	anchors []cell // anchor coords in creation order
}

// Blocked is the adaptive blocking of one matrix.
type Blocked struct {
	Rows int
	Cols int

	blocks  map[cell]*Block
	regions map[cell]*regionInfo
}

// Blocker runs adaptive cache blocking with a seeded sampler.
type Blocker struct {
	rng  *rand.Rand
	rate float64

	locations map[cell]int64
	blocked   map[cell]bool
}

// NewBlocker creates a blocker with the default sampling rate.
func NewBlocker(seed int64) *Blocker {
	return &Blocker{
		rng:  rand.New(rand.NewSource(seed)),
		rate: DefaultSamplingRate,
	}
}

// Run blocks the matrix. Nonzeros are visited in entry order; every nonzero
// ends up covered by exactly one block (a 1x1 fallback catches entries a
// clipped block slid away from).
func (b *Blocker) Run(m *matrix.COO) (*Blocked, error) {
	b.locations = make(map[cell]int64, m.NNZ())
	b.blocked = make(map[cell]bool, m.NNZ())
	for _, e := range m.Entries {
		b.locations[cell{e.Row, e.Col}] = e.Val
	}

	out := &Blocked{
		Rows:    m.Rows,
		Cols:    m.Cols,
		blocks:  make(map[cell]*Block),
		regions: make(map[cell]*regionInfo),
	}

	for _, e := range m.Entries {
		c := cell{e.Row, e.Col}
		if b.blocked[c] {
			continue
		}

		box := b.growBlock(c)
		box, err := clipBlock(box, m.Rows, m.Cols, out.blocks)
		if err != nil {
			return nil, err
		}

		blk := b.fillBlock(box)
		out.addBlock(blk)
		b.markBlocked(box)
	}

	// Fallback pass: clipping can slide a block off the nonzero that
	// seeded it. Cover every remaining nonzero with a 1x1 block.
	for _, e := range m.Entries {
		c := cell{e.Row, e.Col}
		if b.blocked[c] {
			continue
		}
		if _, exists := out.blocks[c]; exists {
			return nil, fmt.Errorf("block already anchored at (%d, %d)", c.Row, c.Col)
		}
		out.addBlock(&Block{Side: 1, Row: c.Row, Col: c.Col, Vals: []int64{e.Val}})
		b.blocked[c] = true
	}

	return out, nil
}

// bounds is an inclusive rectangle of matrix cells.
type bounds struct {
	rowStart, rowEnd int
	colStart, colEnd int
}

func (r bounds) height() int { return r.rowEnd - r.rowStart + 1 }
func (r bounds) width() int  { return r.colEnd - r.colStart + 1 }

// sample is one probed cell and whether it held an uncovered nonzero.
type sample struct {
	cell    cell
	nonzero bool
}

// growBlock picks the bounds of a new block around an uncovered nonzero.
//
// Strategy, in order:
//  1. Probe the 7x7 window; if a fuzzy quadrant is dense enough (confirmed
//     by a deeper sample) block that whole quadrant.
//  2. Probe the 3x3 ring; three or more uncovered nonzeros block the whole
//     3x3.
//  3. Otherwise take the bounding box of ring nonzeros, widened so blocks
//     stay square.
func (b *Blocker) growBlock(center cell) bounds {
	window := bounds{
		rowStart: center.Row - probeSide/2,
		rowEnd:   center.Row + probeSide/2,
		colStart: center.Col - probeSide/2,
		colEnd:   center.Col + probeSide/2,
	}

	samples, _ := b.runSample(window, center)
	densities := quadrantDensities(samples, window)

	// Quadrant order: descending density, index breaking ties.
	order := []int{0, 1, 2, 3}
	sort.SliceStable(order, func(i, j int) bool {
		return densities[order[i]] > densities[order[j]]
	})

	for _, q := range order {
		if densities[q] <= quadrantThreshold {
			continue
		}
		qb := quadrantBounds(q, window, center)

		// Deeper sample confirms the density before committing a
		// 4x4 block.
		_, deeper := b.runSample(qb, center)
		if deeper > quadrantThreshold {
			return qb
		}
	}

	return b.ringBlock(center)
}

// runSample probes a bounded window at the sampling rate, skipping center,
// and reports which probed cells held uncovered nonzeros plus the overall
// density.
func (b *Blocker) runSample(win bounds, center cell) ([]sample, float64) {
	rangeSize := win.height() * win.width()
	numSamples := int(float64(rangeSize) * b.rate)
	if numSamples == 0 {
		return nil, 0
	}

	samples := make([]sample, 0, numSamples)
	nonzeros := 0
	for _, i := range b.rng.Perm(rangeSize)[:numSamples] {
		row := i/win.height() + win.rowStart
		col := i%win.height() + win.colStart

		if row == center.Row && col == center.Col {
			col++
		}

		c := cell{row, col}
		_, present := b.locations[c]
		hit := present && !b.blocked[c]
		if hit {
			nonzeros++
		}
		samples = append(samples, sample{cell: c, nonzero: hit})
	}

	return samples, float64(nonzeros) / float64(numSamples)
}

// quadrantDensities counts sampled nonzeros per fuzzy quadrant. Quadrants
// overlap each other by one row and column, so boundary cells count toward
// both neighbors.
func quadrantDensities(samples []sample, win bounds) [4]float64 {
	var hits, counts [4]float64

	topBound := win.rowStart + probeSide/2 + 1
	bottomBound := win.rowStart + probeSide/2 - 1
	leftBound := win.colStart + probeSide/2 + 1
	rightBound := win.colStart + probeSide/2 - 1

	for _, s := range samples {
		row, col := s.cell.Row, s.cell.Col
		in := [4]bool{
			row < topBound && col > rightBound,    // upper right
			row < topBound && col < leftBound,     // upper left
			row > bottomBound && col < leftBound,  // lower left
			row > bottomBound && col > rightBound, // lower right
		}
		for q := 0; q < 4; q++ {
			if !in[q] {
				continue
			}
			counts[q]++
			if s.nonzero {
				hits[q]++
			}
		}
	}

	var densities [4]float64
	for q := 0; q < 4; q++ {
		if counts[q] != 0 {
			densities[q] = hits[q] / counts[q]
		}
	}
	return densities
}

// quadrantBounds returns the 4x4 rectangle of quadrant q in the window,
// split at the center cell.
func quadrantBounds(q int, win bounds, center cell) bounds {
	switch q {
	case 0:
		return bounds{win.rowStart, center.Row, center.Col, win.colEnd}
	case 1:
		return bounds{win.rowStart, center.Row, win.colStart, center.Col}
	case 2:
		return bounds{center.Row, win.rowEnd, win.colStart, center.Col}
	default:
		return bounds{center.Row, win.rowEnd, center.Col, win.colEnd}
	}
}

// ringBlock inspects the eight neighbors of center and picks a small block.
func (b *Blocker) ringBlock(center cell) bounds {
	i, j := center.Row, center.Col
	ring := []cell{
		{i - 1, j - 1}, {i - 1, j}, {i - 1, j + 1},
		{i, j - 1}, {i, j + 1},
		{i + 1, j - 1}, {i + 1, j}, {i + 1, j + 1},
	}

	var hits []cell
	for _, c := range ring {
		if _, present := b.locations[c]; present && !b.blocked[c] {
			hits = append(hits, c)
		}
		// Three neighbors is enough for the full 3x3.
		if len(hits) > 2 {
			return bounds{i - 1, i + 1, j - 1, j + 1}
		}
	}

	if len(hits) == 0 {
		return bounds{i, i, j, j}
	}

	// Bounding box of center plus ring nonzeros.
	box := bounds{i, i, j, j}
	for _, c := range hits {
		if c.Row < box.rowStart {
			box.rowStart = c.Row
		}
		if c.Row > box.rowEnd {
			box.rowEnd = c.Row
		}
		if c.Col < box.colStart {
			box.colStart = c.Col
		}
		if c.Col > box.colEnd {
			box.colEnd = c.Col
		}
	}

	// Keep blocks square: 2x3 boxes grow to the full 3x3, 1x2 boxes grow
	// to 2x2, and any remaining rectangle widens its short side.
	switch box.height() + box.width() {
	case 5:
		if box.height() != box.width() {
			return bounds{i - 1, i + 1, j - 1, j + 1}
		}
	case 3:
		if box.height() == 1 {
			box.rowEnd++
		} else {
			box.colEnd++
		}
	default:
		for box.height() < box.width() {
			box.rowEnd++
		}
		for box.width() < box.height() {
			box.colEnd++
		}
	}

	return box
}

// clipBlock slides a block fully inside the matrix, then shrinks it
// diagonally while its anchor is already owned by an earlier block.
func clipBlock(r bounds, rows, cols int, existing map[cell]*Block) (bounds, error) {
	if r.rowEnd > rows-1 {
		offset := r.rowEnd - (rows - 1)
		r.rowStart -= offset
		r.rowEnd -= offset
	} else if r.rowStart < 0 {
		r.rowEnd -= r.rowStart
		r.rowStart = 0
	}

	if r.colEnd > cols-1 {
		offset := r.colEnd - (cols - 1)
		r.colStart -= offset
		r.colEnd -= offset
	} else if r.colStart < 0 {
		r.colEnd -= r.colStart
		r.colStart = 0
	}

	canShrink := true
	for canShrink {
		if _, owned := existing[cell{r.rowStart, r.colStart}]; !owned {
			break
		}
		r.rowStart++
		r.colStart++
		if r.rowEnd-r.rowStart == 1 || r.colEnd-r.colStart == 1 {
			canShrink = false
		}
	}

	if _, owned := existing[cell{r.rowStart, r.colStart}]; owned {
		return bounds{}, fmt.Errorf("cannot place block: anchor (%d, %d) already owned", r.rowStart, r.colStart)
	}

	return r, nil
}

// fillBlock materializes a block, capturing values of uncovered nonzeros
// inside the bounds. Cells owned by earlier blocks stay zero so no value is
// stored twice.
func (b *Blocker) fillBlock(r bounds) *Block {
	side := r.height()
	blk := &Block{
		Side: side,
		Row:  r.rowStart,
		Col:  r.colStart,
		Vals: make([]int64, side*side),
	}

	for idx := range blk.Vals {
		c := cell{
			Row: idx/side + r.rowStart,
			Col: idx%side + r.colStart,
		}
		if v, present := b.locations[c]; present && !b.blocked[c] {
			blk.Vals[idx] = v
		}
	}

	return blk
}

// markBlocked marks every cell of the bounds as covered.
func (b *Blocker) markBlocked(r bounds) {
	for row := r.rowStart; row <= r.rowEnd; row++ {
		for col := r.colStart; col <= r.colEnd; col++ {
			b.blocked[cell{row, col}] = true
		}
	}
}

// addBlock registers a block and accounts it to its cache region.
func (bl *Blocked) addBlock(blk *Block) {
	anchor := cell{blk.Row, blk.Col}
	bl.blocks[anchor] = blk

	key := cell{blk.Row / RegionSide, blk.Col / RegionSide}
	region := bl.regions[key]
	if region == nil {
		region = &regionInfo{}
		bl.regions[key] = region
	}
	region.bytes += blk.bytes()
	region.anchors = append(region.anchors, anchor)
}

// NumBlocks returns the total block count.
func (bl *Blocked) NumBlocks() int {
	return len(bl.blocks)
}
