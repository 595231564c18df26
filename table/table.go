// ABOUTME: In-memory representation of a member table read from CSV or XLSX
// ABOUTME: Dispatches on file extension and normalizes header/row layout
package table

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrUnsupportedFormat is returned for file extensions with no reader.
	ErrUnsupportedFormat = errors.New("unsupported table format")
	// ErrEmpty is returned when a file has no header row.
	ErrEmpty = errors.New("table has no header row")
	// ErrNotFound is returned by Discover when no candidate file exists.
	ErrNotFound = errors.New("member table not found")
)

// Table is a header row plus data rows. Cells are kept verbatim.
type Table struct {
	Source  string
	Headers []string
	Rows    []Row
}

// Row is one data row. Line is the 1-based line (or spreadsheet row) it came from.
type Row struct {
	Line  int
	Cells []string
}

// Cell returns the cell at col, or "" when the row is shorter.
func (r Row) Cell(col int) string {
	if col < 0 || col >= len(r.Cells) {
		return ""
	}
	return r.Cells[col]
}

// ReadFile reads a member table, picking the reader by extension.
func ReadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open member table: %w", err)
	}
	defer func() { _ = f.Close() }()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".txt":
		return ReadCSV(f, path)
	case ".xlsx", ".xlsm":
		return ReadXLSX(f, path, "")
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// fromRecords takes the first non-blank record as the header and keeps
// every following non-blank record as a row.
func fromRecords(source string, records [][]string, lines []int) (*Table, error) {
	t := &Table{Source: source}
	headerFound := false

	for i, rec := range records {
		if isBlank(rec) {
			continue
		}
		if !headerFound {
			t.Headers = trimAll(rec)
			headerFound = true
			continue
		}
		line := i + 1
		if i < len(lines) {
			line = lines[i]
		}
		t.Rows = append(t.Rows, Row{Line: line, Cells: rec})
	}

	if !headerFound {
		return nil, fmt.Errorf("%w: %s", ErrEmpty, source)
	}
	return t, nil
}

func isBlank(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func trimAll(rec []string) []string {
	out := make([]string, len(rec))
	for i, c := range rec {
		out[i] = strings.TrimSpace(c)
	}
	return out
}
