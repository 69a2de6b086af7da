package matrix

// Entry is one nonzero of a sparse matrix. Row and Col are zero-based.
type Entry struct {
	Row int
	Col int
	Val int64
}

// COO is a sparse matrix in coordinate-list form.
//
// Entries keep the order they were read in; fixture generation depends on
// that order being stable from one run to the next.
type COO struct {
	Rows    int
	Cols    int
	Entries []Entry
}

// NNZ returns the number of stored entries.
func (m *COO) NNZ() int {
	return len(m.Entries)
}

// MulOnes returns y = A·1, the product with the all-ones vector.
// This is the ground truth the expected-result files are built from.
func (m *COO) MulOnes() []int64 {
	y := make([]int64, m.Rows)
	for _, e := range m.Entries {
		y[e.Row] += e.Val
	}
	return y
}

// Mul returns y = A·x. The vector length must equal the column count.
func (m *COO) Mul(x []int64) []int64 {
	y := make([]int64, m.Rows)
	for _, e := range m.Entries {
		y[e.Row] += e.Val * x[e.Col]
	}
	return y
}

// Locations returns a lookup from (row, col) to value for every nonzero.
func (m *COO) Locations() map[[2]int]int64 {
	locs := make(map[[2]int]int64, len(m.Entries))
	for _, e := range m.Entries {
		locs[[2]int{e.Row, e.Col}] = e.Val
	}
	return locs
}
