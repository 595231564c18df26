// ABOUTME: Narrow interface to the remote spreadsheet service
// ABOUTME: Open a document with its worksheets, read/write a row, append a row
package sheets

import (
	"context"
	"fmt"
	"strings"
)

// Worksheet is one tab of a document. ID is the tab's gid.
type Worksheet struct {
	DocumentID string `json:"document_id"`
	ID         int64  `json:"id"`
	Title      string `json:"title"`
	Index      int    `json:"index"`
}

// Document is an opened spreadsheet and its worksheets in tab order.
type Document struct {
	ID         string
	Title      string
	Worksheets []Worksheet
}

// Service is the remote spreadsheet as this program uses it. Rows are
// 1-based. Implementations must make AppendRow all-or-nothing.
type Service interface {
	OpenDocument(ctx context.Context, documentID string) (*Document, error)
	ReadRow(ctx context.Context, ws Worksheet, row int) ([]string, error)
	WriteRow(ctx context.Context, ws Worksheet, row int, values []string) error
	AppendRow(ctx context.Context, ws Worksheet, values []string) error
}

// quoteTitle quotes a worksheet title for A1 notation.
func quoteTitle(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}

func rowRange(ws Worksheet, row int) string {
	return fmt.Sprintf("%s!%d:%d", quoteTitle(ws.Title), row, row)
}

func isBlankRow(values []string) bool {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
