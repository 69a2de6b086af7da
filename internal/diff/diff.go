// Package diff compares a produced scratch file against its expected-result
// file.
//
// Equality is decided on raw bytes via blake3 digests; only when the
// digests differ is a line-level unified diff computed for reporting. A
// missing or unreadable file is captured in the comparison rather than
// aborting the caller, preserving the harness's fail-soft posture.
package diff

import (
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/zeebo/blake3"
)

// Comparison is the outcome of comparing one produced file against its
// expected result.
type Comparison struct {
	// Match is true when the files are byte-identical.
	Match bool `json:"match"`

	// ActualDigest and ExpectedDigest are blake3-256 hex digests of the
	// file contents. Empty when the corresponding file was unreadable.
	ActualDigest   string `json:"actual_digest,omitempty"`
	ExpectedDigest string `json:"expected_digest,omitempty"`

	// Unified holds the unified diff when the files differ. Empty on
	// match or when a file was unreadable.
	Unified string `json:"unified,omitempty"`

	// Lines is the number of added/removed lines in the unified diff.
	Lines int `json:"lines,omitempty"`

	// Err describes a read failure (missing scratch file, unreadable
	// expected result). Empty when both files were read.
	Err string `json:"err,omitempty"`
}

// Files compares the file at actualPath against the one at expectedPath.
//
// Read failures never return an error; they are recorded in the comparison
// so one broken fixture cannot stop the harness loop.
func Files(actualPath, expectedPath string) Comparison {
	actual, actualErr := os.ReadFile(actualPath)
	expected, expectedErr := os.ReadFile(expectedPath)

	var c Comparison
	if actualErr == nil {
		c.ActualDigest = digest(actual)
	}
	if expectedErr == nil {
		c.ExpectedDigest = digest(expected)
	}

	switch {
	case actualErr != nil && expectedErr != nil:
		c.Err = fmt.Sprintf("%v; %v", actualErr, expectedErr)
		return c
	case actualErr != nil:
		c.Err = actualErr.Error()
		return c
	case expectedErr != nil:
		c.Err = expectedErr.Error()
		return c
	}

	if c.ActualDigest == c.ExpectedDigest {
		c.Match = true
		return c
	}

	unified, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(actual)),
		B:        difflib.SplitLines(string(expected)),
		FromFile: actualPath,
		ToFile:   expectedPath,
		Context:  3,
	})
	if err != nil {
		c.Err = fmt.Sprintf("diff failed: %v", err)
		return c
	}

	c.Unified = unified
	c.Lines = countChangedLines(unified)
	return c
}

// digest returns the blake3-256 hex digest of data.
func digest(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// countChangedLines counts added and removed lines, excluding the
// "---"/"+++" file headers.
func countChangedLines(unified string) int {
	n := 0
	for _, line := range strings.Split(unified, "\n") {
		if strings.HasPrefix(line, "---") || strings.HasPrefix(line, "+++") {
			continue
		}
		if strings.HasPrefix(line, "+") || strings.HasPrefix(line, "-") {
			n++
		}
	}
	return n
}
