// ABOUTME: In-memory Service used for dry runs and tests
// ABOUTME: Holds documents and rows locally and supports injected failures per operation
package sheets

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Op names a Service operation for failure injection and call counting.
type Op string

const (
	OpOpen   Op = "open"
	OpRead   Op = "read"
	OpWrite  Op = "write"
	OpAppend Op = "append"
)

type memSheet struct {
	ws   Worksheet
	rows [][]string
}

type memDocument struct {
	title  string
	sheets []*memSheet
}

// MemoryService is a Service backed by process memory.
type MemoryService struct {
	mu    sync.Mutex
	docs  map[string]*memDocument
	fail  map[Op]error
	calls map[Op]int
}

// NewMemoryService creates an empty MemoryService.
func NewMemoryService() *MemoryService {
	return &MemoryService{
		docs:  make(map[string]*memDocument),
		fail:  make(map[Op]error),
		calls: make(map[Op]int),
	}
}

// AddDocument registers a document. Worksheet DocumentID fields are filled in.
func (m *MemoryService) AddDocument(id, title string, worksheets ...Worksheet) {
	m.mu.Lock()
	defer m.mu.Unlock()

	doc := &memDocument{title: title}
	for _, ws := range worksheets {
		ws.DocumentID = id
		doc.sheets = append(doc.sheets, &memSheet{ws: ws})
	}
	m.docs[id] = doc
}

// Fail makes every call of op return err until Fail(op, nil) is called.
func (m *MemoryService) Fail(op Op, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err == nil {
		delete(m.fail, op)
		return
	}
	m.fail[op] = err
}

// Calls returns how many times op was invoked, failed calls included.
func (m *MemoryService) Calls(op Op) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[op]
}

// Rows returns a copy of the rows stored in a worksheet.
func (m *MemoryService) Rows(documentID string, worksheetID int64) [][]string {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.sheet(Worksheet{DocumentID: documentID, ID: worksheetID})
	if err != nil {
		return nil
	}
	out := make([][]string, len(s.rows))
	for i, r := range s.rows {
		out[i] = append([]string(nil), r...)
	}
	return out
}

func (m *MemoryService) enter(ctx context.Context, op Op) error {
	m.calls[op]++
	if err := ctx.Err(); err != nil {
		return err
	}
	return m.fail[op]
}

func (m *MemoryService) sheet(ws Worksheet) (*memSheet, error) {
	doc, ok := m.docs[ws.DocumentID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrDocumentNotFound, ws.DocumentID)
	}
	for _, s := range doc.sheets {
		if s.ws.ID == ws.ID {
			return s, nil
		}
	}
	return nil, fmt.Errorf("worksheet %d not found in %s", ws.ID, ws.DocumentID)
}

// OpenDocument returns the document with worksheets sorted by Index.
func (m *MemoryService) OpenDocument(ctx context.Context, documentID string) (*Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.enter(ctx, OpOpen); err != nil {
		return nil, err
	}

	doc, ok := m.docs[documentID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrDocumentNotFound, documentID)
	}

	out := &Document{ID: documentID, Title: doc.title}
	for _, s := range doc.sheets {
		out.Worksheets = append(out.Worksheets, s.ws)
	}
	sort.SliceStable(out.Worksheets, func(i, j int) bool {
		return out.Worksheets[i].Index < out.Worksheets[j].Index
	})
	return out, nil
}

// ReadRow returns a copy of one row, or nil past the last row.
func (m *MemoryService) ReadRow(ctx context.Context, ws Worksheet, row int) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.enter(ctx, OpRead); err != nil {
		return nil, err
	}
	s, err := m.sheet(ws)
	if err != nil {
		return nil, err
	}
	if row < 1 || row > len(s.rows) {
		return nil, nil
	}
	return append([]string(nil), s.rows[row-1]...), nil
}

// WriteRow replaces one row, growing the worksheet with blank rows if needed.
func (m *MemoryService) WriteRow(ctx context.Context, ws Worksheet, row int, values []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.enter(ctx, OpWrite); err != nil {
		return err
	}
	if row < 1 {
		return fmt.Errorf("invalid row %d", row)
	}
	s, err := m.sheet(ws)
	if err != nil {
		return err
	}
	for len(s.rows) < row {
		s.rows = append(s.rows, nil)
	}
	s.rows[row-1] = append([]string(nil), values...)
	return nil
}

// AppendRow adds a row at the end of the worksheet.
func (m *MemoryService) AppendRow(ctx context.Context, ws Worksheet, values []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.enter(ctx, OpAppend); err != nil {
		return err
	}
	s, err := m.sheet(ws)
	if err != nil {
		return err
	}
	s.rows = append(s.rows, append([]string(nil), values...))
	return nil
}
