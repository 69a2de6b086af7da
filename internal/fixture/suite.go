package fixture

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	cueyaml "cuelang.org/go/encoding/yaml"
	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var schemaSource string

// Suite is an immutable description of one harness run: the fixture
// directory, the two kernels under test, and the ordered fixture list.
type Suite struct {
	// Name identifies the suite.
	Name string `yaml:"name"`

	// Description explains what the suite covers.
	Description string `yaml:"description,omitempty"`

	// Dir is the base directory of all fixture files.
	// After loading it is resolved relative to the manifest location.
	Dir string `yaml:"dir"`

	// BlockCmd is the block kernel executable.
	BlockCmd string `yaml:"block_cmd"`

	// NaiveCmd is the naive kernel executable.
	NaiveCmd string `yaml:"naive_cmd"`

	// Timeout bounds one kernel invocation. Empty means unbounded,
	// preserving the original harness behavior of waiting forever.
	Timeout string `yaml:"timeout,omitempty"`

	// Fixtures is the ordered list of fixture names.
	Fixtures []string `yaml:"fixtures"`
}

// LoadSuite reads, schema-checks, and parses a suite manifest.
//
// The manifest is first unified with the embedded CUE schema, then decoded
// with strict field validation (catches typos like "fixture:" vs
// "fixtures:"). Dir is resolved relative to the manifest's directory.
func LoadSuite(path string) (*Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read suite manifest: %w", err)
	}

	if err := validateSchema(path, data); err != nil {
		return nil, fmt.Errorf("invalid suite manifest: %w", err)
	}

	var suite Suite
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&suite); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateSuite(&suite); err != nil {
		return nil, fmt.Errorf("invalid suite manifest: %w", err)
	}

	if !filepath.IsAbs(suite.Dir) {
		suite.Dir = filepath.Join(filepath.Dir(path), suite.Dir)
	}

	return &suite, nil
}

// validateSchema unifies the raw manifest with the embedded CUE schema.
func validateSchema(path string, data []byte) error {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaSource).LookupPath(cue.ParsePath("#Suite"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("internal schema error: %w", err)
	}

	file, err := cueyaml.Extract(path, data)
	if err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}

	value := ctx.BuildFile(file)
	if err := value.Err(); err != nil {
		return fmt.Errorf("failed to build manifest value: %w", err)
	}

	unified := schema.Unify(value)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("schema violation:\n%s", cueerrors.Details(err, nil))
	}

	return nil
}

// validateSuite checks constraints the schema cannot express.
func validateSuite(s *Suite) error {
	if len(s.Fixtures) == 0 {
		return fmt.Errorf("fixtures list is required and must be non-empty")
	}

	seen := make(map[string]int, len(s.Fixtures))
	for i, name := range s.Fixtures {
		if prev, ok := seen[name]; ok {
			return fmt.Errorf("fixtures[%d]: duplicate fixture %q (first declared at fixtures[%d])", i, name, prev)
		}
		seen[name] = i
	}

	if s.Timeout != "" {
		if _, err := time.ParseDuration(s.Timeout); err != nil {
			return fmt.Errorf("timeout: %w", err)
		}
	}

	return nil
}

// TimeoutDuration returns the parsed invocation timeout, or zero when the
// suite does not bound invocations. LoadSuite has already validated the
// syntax.
func (s *Suite) TimeoutDuration() time.Duration {
	if s.Timeout == "" {
		return 0
	}
	d, err := time.ParseDuration(s.Timeout)
	if err != nil {
		return 0
	}
	return d
}

// Select returns the suite's fixtures in declared order, optionally filtered
// by a doublestar glob over fixture names. An empty pattern selects all.
func (s *Suite) Select(pattern string) ([]Fixture, error) {
	if pattern != "" && !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid filter pattern %q", pattern)
	}

	fixtures := make([]Fixture, 0, len(s.Fixtures))
	for _, name := range s.Fixtures {
		if pattern != "" {
			matched, err := doublestar.Match(pattern, name)
			if err != nil {
				return nil, fmt.Errorf("invalid filter pattern: %w", err)
			}
			if !matched {
				continue
			}
		}
		fixtures = append(fixtures, New(s.Dir, name))
	}
	return fixtures, nil
}
