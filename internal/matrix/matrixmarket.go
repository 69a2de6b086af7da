package matrix

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// MatrixMarket banner fields accepted by ReadMatrixMarket.
const (
	mmObjectMatrix    = "matrix"
	mmFormatCoord     = "coordinate"
	mmFieldReal       = "real"
	mmFieldInteger    = "integer"
	mmFieldPattern    = "pattern"
	mmSymmetryGeneral = "general"
	mmSymmetrySymm    = "symmetric"
)

// ReadMatrixMarketFile reads a MatrixMarket coordinate file from disk.
func ReadMatrixMarketFile(path string) (*COO, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open matrix file: %w", err)
	}
	defer f.Close()

	m, err := ReadMatrixMarket(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// ReadMatrixMarket parses a MatrixMarket coordinate-format stream into a COO
// matrix.
//
// Supported banners: object "matrix", format "coordinate", fields real,
// integer and pattern, symmetries general and symmetric. Symmetric matrices
// are expanded: every off-diagonal entry (i,j) also yields (j,i).
func ReadMatrixMarket(r io.Reader) (*COO, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	if !scanner.Scan() {
		return nil, fmt.Errorf("empty input")
	}
	field, symmetry, err := parseBanner(scanner.Text())
	if err != nil {
		return nil, err
	}

	// Skip comments, find the size line.
	var rows, cols, nnz int
	for {
		if !scanner.Scan() {
			return nil, fmt.Errorf("missing size line")
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "%") {
			continue
		}
		if _, err := fmt.Sscan(line, &rows, &cols, &nnz); err != nil {
			return nil, fmt.Errorf("invalid size line %q: %w", line, err)
		}
		break
	}
	if rows <= 0 || cols <= 0 || nnz < 0 {
		return nil, fmt.Errorf("invalid dimensions %dx%d nnz=%d", rows, cols, nnz)
	}

	m := &COO{
		Rows:    rows,
		Cols:    cols,
		Entries: make([]Entry, 0, nnz),
	}

	read := 0
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "%") {
			continue
		}
		if read >= nnz {
			return nil, fmt.Errorf("more than %d entries", nnz)
		}

		fields := strings.Fields(line)
		entry, err := parseEntry(fields, field, rows, cols)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", read+1, err)
		}
		m.Entries = append(m.Entries, entry)

		if symmetry == mmSymmetrySymm && entry.Row != entry.Col {
			m.Entries = append(m.Entries, Entry{Row: entry.Col, Col: entry.Row, Val: entry.Val})
		}
		read++
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read error: %w", err)
	}
	if read != nnz {
		return nil, fmt.Errorf("expected %d entries, got %d", nnz, read)
	}

	return m, nil
}

// parseBanner validates the %%MatrixMarket header line.
func parseBanner(line string) (field, symmetry string, err error) {
	fields := strings.Fields(line)
	if len(fields) != 5 || !strings.EqualFold(fields[0], "%%MatrixMarket") {
		return "", "", fmt.Errorf("invalid MatrixMarket banner %q", line)
	}

	object := strings.ToLower(fields[1])
	format := strings.ToLower(fields[2])
	field = strings.ToLower(fields[3])
	symmetry = strings.ToLower(fields[4])

	if object != mmObjectMatrix {
		return "", "", fmt.Errorf("unsupported object %q", object)
	}
	if format != mmFormatCoord {
		return "", "", fmt.Errorf("unsupported format %q (only coordinate is supported)", format)
	}
	switch field {
	case mmFieldReal, mmFieldInteger, mmFieldPattern:
	default:
		return "", "", fmt.Errorf("unsupported field %q", field)
	}
	switch symmetry {
	case mmSymmetryGeneral, mmSymmetrySymm:
	default:
		return "", "", fmt.Errorf("unsupported symmetry %q", symmetry)
	}

	return field, symmetry, nil
}

// parseEntry parses one data line. Indices in the file are one-based.
func parseEntry(fields []string, field string, rows, cols int) (Entry, error) {
	want := 3
	if field == mmFieldPattern {
		want = 2
	}
	if len(fields) != want {
		return Entry{}, fmt.Errorf("expected %d fields, got %d", want, len(fields))
	}

	row, err := strconv.Atoi(fields[0])
	if err != nil {
		return Entry{}, fmt.Errorf("invalid row index %q", fields[0])
	}
	col, err := strconv.Atoi(fields[1])
	if err != nil {
		return Entry{}, fmt.Errorf("invalid column index %q", fields[1])
	}
	if row < 1 || row > rows || col < 1 || col > cols {
		return Entry{}, fmt.Errorf("index (%d, %d) out of bounds for %dx%d matrix", row, col, rows, cols)
	}

	val := int64(1)
	if field != mmFieldPattern {
		// Real entries truncate toward zero; the fixture files have
		// always carried integral data.
		parsed, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			return Entry{}, fmt.Errorf("invalid value %q", fields[2])
		}
		val = int64(parsed)
	}

	return Entry{Row: row - 1, Col: col - 1, Val: val}, nil
}
