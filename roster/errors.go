package roster

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrSchema matches any *SchemaResolutionError.
	ErrSchema = errors.New("schema resolution failed")
	// ErrInvalidDate is returned by ParseDate.
	ErrInvalidDate = errors.New("invalid date")
)

// SchemaResolutionError reports required fields with no matching header.
type SchemaResolutionError struct {
	Source  string
	Missing []Field
	Headers []string
}

func (e *SchemaResolutionError) Error() string {
	labels := make([]string, len(e.Missing))
	for i, f := range e.Missing {
		labels[i] = f.Label()
	}
	msg := fmt.Sprintf("required columns not found: %s (headers seen: %s)",
		strings.Join(labels, ", "), strings.Join(e.Headers, ", "))
	if e.Source != "" {
		msg = e.Source + ": " + msg
	}
	return msg
}

// Is implements errors.Is support.
func (e *SchemaResolutionError) Is(target error) bool {
	return target == ErrSchema
}

// DateNormalizationWarning reports, in aggregate, rows left out of the
// index because their birth date could not be parsed.
type DateNormalizationWarning struct {
	Column  string
	Skipped int
	Total   int
}

func (w *DateNormalizationWarning) Error() string {
	return fmt.Sprintf("%d of %d rows skipped: invalid date in column %q", w.Skipped, w.Total, w.Column)
}

// Notice is the message shown to form users.
func (w *DateNormalizationWarning) Notice() string {
	return fmt.Sprintf("%d de %d linhas da planilha foram ignoradas por data de nascimento inválida na coluna %q.", w.Skipped, w.Total, w.Column)
}
