// ABOUTME: Spreadsheet (XLSX) reader for member tables
// ABOUTME: Reads formatted cell text, rendering date-formatted cells as ISO dates
package table

import (
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ReadXLSX reads the named worksheet, or the first one when sheet is "".
//
// Cells holding real dates are written as 2006-01-02 instead of the
// workbook's display format, which for built-in formats is US month-first.
func ReadXLSX(r io.Reader, source, sheet string) (*Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", source, err)
	}
	defer func() { _ = f.Close() }()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("%w: %s", ErrEmpty, source)
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read worksheet %q of %s: %w", sheet, source, err)
	}
	raw, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read worksheet %q of %s: %w", sheet, source, err)
	}

	dates := newDateCells(f, sheet)
	for i, row := range rows {
		if i >= len(raw) {
			break
		}
		for j := range row {
			if j >= len(raw[i]) || raw[i][j] == row[j] {
				continue
			}
			if iso, ok := dates.render(i+1, j+1, raw[i][j]); ok {
				row[j] = iso
			}
		}
	}

	lines := make([]int, len(rows))
	for i := range rows {
		lines[i] = i + 1
	}

	return fromRecords(source, rows, lines)
}

// dateCells decides whether a numeric cell is a date by its number format.
type dateCells struct {
	f        *excelize.File
	sheet    string
	date1904 bool
	byStyle  map[int]bool
}

func newDateCells(f *excelize.File, sheet string) *dateCells {
	d := &dateCells{f: f, sheet: sheet, byStyle: make(map[int]bool)}
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		d.date1904 = *props.Date1904
	}
	return d
}

// render returns the ISO date for a date-formatted serial at row, col (1-based).
func (d *dateCells) render(row, col int, rawValue string) (string, bool) {
	serial, err := strconv.ParseFloat(strings.TrimSpace(rawValue), 64)
	if err != nil {
		return "", false
	}
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return "", false
	}
	styleID, err := d.f.GetCellStyle(d.sheet, cell)
	if err != nil {
		return "", false
	}

	isDate, seen := d.byStyle[styleID]
	if !seen {
		isDate = d.styleIsDate(styleID)
		d.byStyle[styleID] = isDate
	}
	if !isDate {
		return "", false
	}

	t, err := excelize.ExcelDateToTime(serial, d.date1904)
	if err != nil {
		return "", false
	}
	return t.Format("2006-01-02"), true
}

func (d *dateCells) styleIsDate(styleID int) bool {
	style, err := d.f.GetStyle(styleID)
	if err != nil || style == nil {
		return false
	}
	if builtinDateFormats[style.NumFmt] {
		return true
	}
	return style.CustomNumFmt != nil && isDateFormatCode(*style.CustomNumFmt)
}

// Built-in number formats that show a calendar day. Time-only formats
// (18-21, 45-47) are left as text.
var builtinDateFormats = map[int]bool{
	14: true, 15: true, 16: true, 17: true, 22: true,
	27: true, 28: true, 29: true, 30: true, 31: true, 32: true, 33: true, 34: true, 35: true, 36: true,
	50: true, 51: true, 52: true, 53: true, 54: true, 55: true, 56: true, 57: true, 58: true,
}

var formatLiterals = regexp.MustCompile(`"[^"]*"|\[[^\]]*\]|\\.`)

// isDateFormatCode reports whether a custom format code shows a day or year.
func isDateFormatCode(code string) bool {
	code = strings.ToLower(formatLiterals.ReplaceAllString(code, ""))
	return strings.ContainsAny(code, "dy")
}
