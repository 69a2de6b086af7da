// Package blocking builds the blocked sparse-matrix representations the
// external SpMV kernels consume.
//
// Two schemes are implemented:
//
//   - Adaptive cache blocking: square blocks of side 1..4 are grown around
//     each uncovered nonzero by density sampling, then grouped into
//     cache-sized regions and ordered into superblocks by a
//     nearest-neighbor walk. This is what the block kernel reads.
//
//   - Naive blocking: every nonzero is snapped to a fixed 4x4 grid and each
//     nonempty 4x4 block is emitted, grouped by the same cache regions.
//     This is what the naive kernel reads.
//
// The sizing constants mirror a 64-byte cache line holding sixteen 4-byte
// entries, with one 80-byte page bounding a 20x20-entry cache region.
//
// Sampling is randomized but seeded, so a given (matrix, seed) pair always
// produces byte-identical output files.
package blocking
