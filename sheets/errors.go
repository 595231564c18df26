package sheets

import (
	"errors"
	"fmt"
)

var (
	// ErrSheetResolution matches any *SheetResolutionError.
	ErrSheetResolution = errors.New("sheet resolution failed")
	// ErrSubmission matches any *SubmissionError.
	ErrSubmission = errors.New("submission failed")
	// ErrMalformedURL is returned when no document id can be extracted.
	ErrMalformedURL = errors.New("malformed spreadsheet URL")
	// ErrNoWorksheets is returned for a document without worksheets.
	ErrNoWorksheets = errors.New("document has no worksheets")
	// ErrNoCredentials is returned when no service account JSON was found.
	ErrNoCredentials = errors.New("google service account credentials not configured")
	// ErrDocumentNotFound is returned by MemoryService for unknown documents.
	ErrDocumentNotFound = errors.New("document not found")
)

// SheetResolutionError reports why a destination worksheet could not be
// resolved. Callers must not append after receiving one.
type SheetResolutionError struct {
	URL        string
	DocumentID string
	Err        error
}

func (e *SheetResolutionError) Error() string {
	if e.DocumentID != "" {
		return fmt.Sprintf("failed to open spreadsheet %s: %v", e.DocumentID, e.Err)
	}
	return fmt.Sprintf("failed to resolve spreadsheet from %q: %v", e.URL, e.Err)
}

func (e *SheetResolutionError) Unwrap() error { return e.Err }

// Is implements errors.Is support.
func (e *SheetResolutionError) Is(target error) bool {
	return target == ErrSheetResolution
}

// Stage names the step of a submission that failed.
type Stage string

const (
	StageValidate    Stage = "validate"
	StageHeaderCheck Stage = "header-check"
	StageHeaderWrite Stage = "header-write"
	StageAppend      Stage = "append"
)

// SubmissionError reports a failed submission. Nothing was appended when
// one is returned.
type SubmissionError struct {
	Stage     Stage
	Worksheet string
	Err       error
}

func (e *SubmissionError) Error() string {
	if e.Worksheet != "" {
		return fmt.Sprintf("submission failed at %s on worksheet %q: %v", e.Stage, e.Worksheet, e.Err)
	}
	return fmt.Sprintf("submission failed at %s: %v", e.Stage, e.Err)
}

func (e *SubmissionError) Unwrap() error { return e.Err }

// Is implements errors.Is support.
func (e *SubmissionError) Is(target error) bool {
	return target == ErrSubmission
}
