// Package fixture defines test fixtures and the suite manifests that
// declare them.
//
// A fixture is a named set of files under one base directory, all derived
// from the fixture name by a fixed convention:
//
//	<name>_output.txt           blocked reference input (consumed by the block kernel)
//	<name>_vector.txt           input vector
//	<name>_calculated.txt       scratch output produced by the block kernel
//	<name>_expected_result.txt  ground truth for comparison
//	<name>_naive_output.txt     naive reference input
//	<name>_naive_calculated.txt scratch output produced by the naive kernel
//
// # Suite Manifests
//
// Suites are defined in YAML files with the following structure:
//
//	name: block_20
//	description: "20-block test matrices"
//	dir: 20_block_test_matrices
//	block_cmd: ./run
//	naive_cmd: ./naive
//	fixtures:
//	  - rail516
//	  - shar_te2-b3
//	  - lp_pds_02
//
// Manifests are validated twice: against an embedded CUE schema (shape and
// required fields), then decoded strictly with yaml.v3 so typos in field
// names are rejected rather than ignored.
//
// Fixture order in the manifest is execution order. Fixtures are independent
// of each other; order never changes an individual fixture's outcome.
package fixture
