package blocking

import (
	"bufio"
	"fmt"
	"io"
	"sort"
)

// Superblock is the ordered list of blocks inside one cache region, walked
// so that consecutive blocks stay within a cache line of each other where
// possible.
type Superblock struct {
	// Bytes is the storage cost of all member blocks.
	Bytes int

	// Blocks are the member blocks in visit order.
	Blocks []*Block
}

// Stats summarizes a written blocked representation.
type Stats struct {
	// Superblocks is the number of emitted superblocks.
	Superblocks int

	// Blocks is the total number of blocks.
	Blocks int

	// Area is the total number of stored values, zeros included.
	Area int

	// Nonzeros is the number of stored nonzero values.
	Nonzeros int
}

// Superblocks orders every region's blocks into superblocks. Regions are
// visited in row-major order, so output is deterministic.
func (bl *Blocked) Superblocks() []Superblock {
	var out []Superblock
	for i := 0; i < bl.Rows/RegionSide+1; i++ {
		for j := 0; j < bl.Cols/RegionSide+1; j++ {
			region, ok := bl.regions[cell{i, j}]
			if !ok {
				continue
			}
			out = append(out, Superblock{
				Bytes:  region.bytes,
				Blocks: bl.orderRegion(region.anchors),
			})
		}
	}
	return out
}

// orderRegion walks a region's blocks nearest-neighbor under Chebyshev
// distance, bounded by the cache-line entry count. When no block is within
// reach the walk restarts at the smallest remaining anchor.
func (bl *Blocked) orderRegion(anchors []cell) []*Block {
	if len(anchors) == 0 {
		return nil
	}

	remaining := make(map[cell]bool, len(anchors))
	for _, a := range anchors {
		remaining[a] = true
	}

	cur := smallestAnchor(remaining)
	delete(remaining, cur)
	ordered := []*Block{bl.blocks[cur]}

	for len(remaining) > 0 {
		next, ok := nearestWithin(cur, remaining, CacheLineEntries)
		if !ok {
			next = smallestAnchor(remaining)
		}
		delete(remaining, next)
		ordered = append(ordered, bl.blocks[next])
		cur = next
	}

	return ordered
}

// smallestAnchor returns the lexicographically smallest (row, col) anchor.
func smallestAnchor(set map[cell]bool) cell {
	var best cell
	first := true
	for c := range set {
		if first || c.Row < best.Row || (c.Row == best.Row && c.Col < best.Col) {
			best = c
			first = false
		}
	}
	return best
}

// nearestWithin returns a remaining anchor within Chebyshev distance bound
// of cur. Among the (at most twenty) closest candidates the farthest is
// taken, extending the walk toward the edge of the reachable neighborhood.
func nearestWithin(cur cell, remaining map[cell]bool, bound int) (cell, bool) {
	type candidate struct {
		c    cell
		dist int
	}

	var candidates []candidate
	for c := range remaining {
		d := chebyshev(cur, c)
		if d <= bound {
			candidates = append(candidates, candidate{c: c, dist: d})
		}
	}
	if len(candidates) == 0 {
		return cell{}, false
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].dist != candidates[j].dist {
			return candidates[i].dist < candidates[j].dist
		}
		if candidates[i].c.Row != candidates[j].c.Row {
			return candidates[i].c.Row < candidates[j].c.Row
		}
		return candidates[i].c.Col < candidates[j].c.Col
	})

	if len(candidates) > 20 {
		candidates = candidates[:20]
	}
	return candidates[len(candidates)-1].c, true
}

// chebyshev is the L-infinity distance between two cells.
func chebyshev(a, b cell) int {
	dr := a.Row - b.Row
	if dr < 0 {
		dr = -dr
	}
	dc := a.Col - b.Col
	if dc < 0 {
		dc = -dc
	}
	if dr > dc {
		return dr
	}
	return dc
}

// Write emits the blocked representation:
//
//	rows cols numSuperblocks
//	bytes numBlocks {side row col v...}*     (one line per superblock)
func (bl *Blocked) Write(w io.Writer) (Stats, error) {
	superblocks := bl.Superblocks()
	stats := Stats{Superblocks: len(superblocks)}

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%d %d %d\n", bl.Rows, bl.Cols, len(superblocks))

	for _, sb := range superblocks {
		fmt.Fprintf(bw, "%d %d ", sb.Bytes, len(sb.Blocks))
		for _, blk := range sb.Blocks {
			stats.Blocks++
			fmt.Fprintf(bw, "%d %d %d ", blk.Side, blk.Row, blk.Col)
			for _, v := range blk.Vals {
				stats.Area++
				if v != 0 {
					stats.Nonzeros++
				}
				fmt.Fprintf(bw, "%d ", v)
			}
		}
		fmt.Fprintln(bw)
	}

	if err := bw.Flush(); err != nil {
		return Stats{}, fmt.Errorf("failed to write blocked output: %w", err)
	}
	return stats, nil
}
