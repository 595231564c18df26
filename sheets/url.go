package sheets

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

var documentIDPattern = regexp.MustCompile(`/spreadsheets/d/([a-zA-Z0-9_-]+)`)

// Locator is what a spreadsheet URL identifies: a document and, optionally,
// one of its worksheets.
type Locator struct {
	DocumentID string
	// RawGID is the gid text as found in the URL, numeric or not.
	RawGID string
	GID    int64
	HasGID bool
}

// ParseURL extracts the document id from the path segment following
// /spreadsheets/d/ and a numeric gid from the query or the fragment.
// A non-numeric gid is kept in RawGID but treated as absent.
func ParseURL(raw string) (Locator, error) {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil {
		return Locator{}, fmt.Errorf("%w: %v", ErrMalformedURL, err)
	}

	m := documentIDPattern.FindStringSubmatch(u.Path)
	if m == nil {
		return Locator{}, fmt.Errorf("%w: no document id in %q", ErrMalformedURL, raw)
	}

	loc := Locator{DocumentID: m[1]}

	gid := u.Query().Get("gid")
	if gid == "" && u.Fragment != "" {
		if fq, err := url.ParseQuery(u.Fragment); err == nil {
			gid = fq.Get("gid")
		}
	}
	if gid != "" {
		loc.RawGID = gid
		if n, err := strconv.ParseInt(gid, 10, 64); err == nil {
			loc.GID = n
			loc.HasGID = true
		}
	}

	return loc, nil
}
