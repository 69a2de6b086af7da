// Package matrix provides the sparse-matrix plumbing for fixture
// generation: a COO (coordinate list) matrix type, a MatrixMarket
// coordinate-format reader, and the whitespace-separated integer file
// formats shared with the external kernels.
//
// Values are integral throughout. MatrixMarket "real" entries are truncated
// toward zero on read, matching the integer formatting the fixture files
// have always used.
package matrix
