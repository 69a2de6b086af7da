package matrix

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// The vector and result files are whitespace-separated integers with a
// trailing space, exactly as the external kernels expect them. The vector
// file leads with its own length; the result file is bare values.

// WriteOnesVector writes an all-ones vector of length n to path.
func WriteOnesVector(path string, n int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create vector file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	fmt.Fprintf(w, "%d ", n)
	for i := 0; i < n; i++ {
		fmt.Fprint(w, "1 ")
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to write vector file: %w", err)
	}
	return f.Close()
}

// WriteResult writes a result vector to path.
func WriteResult(path string, y []int64) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create result file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, v := range y {
		fmt.Fprintf(w, "%d ", v)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to write result file: %w", err)
	}
	return f.Close()
}

// ReadVector parses a vector file: a length followed by that many values.
func ReadVector(path string) ([]int64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read vector file: %w", err)
	}

	fields := strings.Fields(string(data))
	if len(fields) == 0 {
		return nil, fmt.Errorf("%s: empty vector file", path)
	}

	n, err := strconv.Atoi(fields[0])
	if err != nil || n < 0 {
		return nil, fmt.Errorf("%s: invalid vector length %q", path, fields[0])
	}
	if len(fields)-1 != n {
		return nil, fmt.Errorf("%s: declared %d values, found %d", path, n, len(fields)-1)
	}

	vals := make([]int64, n)
	for i, field := range fields[1:] {
		v, err := strconv.ParseInt(field, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%s: invalid value %q at index %d", path, field, i)
		}
		vals[i] = v
	}
	return vals, nil
}

// ReadResult parses a result file of bare whitespace-separated values.
func ReadResult(path string) ([]int64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read result file: %w", err)
	}

	fields := strings.Fields(string(data))
	vals := make([]int64, len(fields))
	for i, field := range fields {
		v, err := strconv.ParseInt(field, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%s: invalid value %q at index %d", path, field, i)
		}
		vals[i] = v
	}
	return vals, nil
}
