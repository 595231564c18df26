// ABOUTME: Resolves a spreadsheet URL to the worksheet that receives submissions
// ABOUTME: Falls back to the first worksheet when the gid is absent or unknown, caching the result
package sheets

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/harperreed/contatos/logging"
)

// Fallback records why the first worksheet was chosen instead of the gid.
type Fallback int

const (
	FallbackNone Fallback = iota
	FallbackNoGID
	FallbackGIDNotFound
)

func (f Fallback) String() string {
	switch f {
	case FallbackNoGID:
		return "no-gid"
	case FallbackGIDNotFound:
		return "gid-not-found"
	default:
		return "none"
	}
}

// Target is a resolved destination worksheet.
type Target struct {
	URL           string
	Locator       Locator
	DocumentTitle string
	Worksheet     Worksheet
	Fallback      Fallback
}

// Notice is a user-facing explanation of a fallback, or "" when the
// worksheet was matched by gid.
func (t *Target) Notice() string {
	switch t.Fallback {
	case FallbackNoGID:
		return fmt.Sprintf("URL has no gid; using first worksheet %q", t.Worksheet.Title)
	case FallbackGIDNotFound:
		return fmt.Sprintf("gid %s not found in %q; using first worksheet %q",
			t.Locator.RawGID, t.DocumentTitle, t.Worksheet.Title)
	default:
		return ""
	}
}

// TargetResolver resolves URLs and remembers the last target.
type TargetResolver struct {
	svc Service

	mu     sync.Mutex
	cached *Target
}

// NewTargetResolver creates a resolver using svc.
func NewTargetResolver(svc Service) *TargetResolver {
	return &TargetResolver{svc: svc}
}

// Resolve returns the target for rawURL. The same URL as the previous
// successful call returns the cached target without a remote call.
func (r *TargetResolver) Resolve(ctx context.Context, rawURL string) (*Target, error) {
	rawURL = strings.TrimSpace(rawURL)

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cached != nil && r.cached.URL == rawURL {
		t := *r.cached
		return &t, nil
	}

	loc, err := ParseURL(rawURL)
	if err != nil {
		return nil, &SheetResolutionError{URL: rawURL, Err: err}
	}

	doc, err := r.svc.OpenDocument(ctx, loc.DocumentID)
	if err != nil {
		return nil, &SheetResolutionError{URL: rawURL, DocumentID: loc.DocumentID, Err: err}
	}
	if len(doc.Worksheets) == 0 {
		return nil, &SheetResolutionError{URL: rawURL, DocumentID: loc.DocumentID, Err: ErrNoWorksheets}
	}

	target := &Target{URL: rawURL, Locator: loc, DocumentTitle: doc.Title}
	if ws, ok := findWorksheet(doc.Worksheets, loc); ok {
		target.Worksheet = ws
	} else {
		target.Worksheet = firstWorksheet(doc.Worksheets)
		target.Fallback = FallbackNoGID
		if loc.HasGID {
			target.Fallback = FallbackGIDNotFound
		}
		logging.FromContext(ctx).Warn().
			Str("document", doc.Title).
			Str("gid", loc.RawGID).
			Str("worksheet", target.Worksheet.Title).
			Msg(target.Notice())
	}

	r.cached = target
	t := *target
	return &t, nil
}

// Invalidate drops the cached target.
func (r *TargetResolver) Invalidate() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cached = nil
}

func findWorksheet(worksheets []Worksheet, loc Locator) (Worksheet, bool) {
	if !loc.HasGID {
		return Worksheet{}, false
	}
	for _, ws := range worksheets {
		if ws.ID == loc.GID {
			return ws, true
		}
	}
	return Worksheet{}, false
}

func firstWorksheet(worksheets []Worksheet) Worksheet {
	first := worksheets[0]
	for _, ws := range worksheets[1:] {
		if ws.Index < first.Index {
			first = ws
		}
	}
	return first
}
