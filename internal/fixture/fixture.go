package fixture

import (
	"path/filepath"

	"golang.org/x/text/unicode/norm"
)

// Fixture is one named test case: a set of files under Dir derived from Name.
//
// The name is NFC-normalized at construction so that path derivation is
// stable regardless of how the manifest encoded the name.
type Fixture struct {
	Name string
	Dir  string
}

// New creates a fixture rooted at dir.
func New(dir, name string) Fixture {
	return Fixture{
		Name: norm.NFC.String(name),
		Dir:  dir,
	}
}

// path joins the fixture directory with a name-derived file name.
func (f Fixture) path(suffix string) string {
	return filepath.Join(f.Dir, f.Name+suffix)
}

// MatrixPath is the MatrixMarket source file consumed by fixture generation.
func (f Fixture) MatrixPath() string { return f.path(".mtx") }

// ReferencePath is the blocked representation passed to the block kernel.
//
// The historical file name says "output" but the file is an input to the
// kernel; its contents are opaque to the runner.
func (f Fixture) ReferencePath() string { return f.path("_output.txt") }

// VectorPath is the input vector shared by both kernels.
func (f Fixture) VectorPath() string { return f.path("_vector.txt") }

// CalculatedPath is the scratch file the block kernel must produce.
func (f Fixture) CalculatedPath() string { return f.path("_calculated.txt") }

// ExpectedPath is the ground-truth result both kernels are compared against.
func (f Fixture) ExpectedPath() string { return f.path("_expected_result.txt") }

// NaiveReferencePath is the naive-blocked representation passed to the
// naive kernel.
func (f Fixture) NaiveReferencePath() string { return f.path("_naive_output.txt") }

// NaiveCalculatedPath is the scratch file the naive kernel must produce.
func (f Fixture) NaiveCalculatedPath() string { return f.path("_naive_calculated.txt") }
