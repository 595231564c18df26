// ABOUTME: Column resolver mapping human-authored headers to canonical fields
// ABOUTME: First alias in priority order with a normalized header match wins
package roster

import (
	"strings"

	"github.com/harperreed/contatos/table"
)

// Column is the header chosen for a field.
type Column struct {
	Index  int
	Header string
	Alias  string
}

// Resolution is the outcome of matching a header row against aliases.
type Resolution struct {
	Columns         map[Field]Column
	MissingOptional []Field
	Headers         []string
}

// Column returns the resolved column for f.
func (r *Resolution) Column(f Field) (Column, bool) {
	c, ok := r.Columns[f]
	return c, ok
}

// Value returns row's trimmed value for f, or "" when f is unresolved.
func (r *Resolution) Value(row table.Row, f Field) string {
	c, ok := r.Columns[f]
	if !ok {
		return ""
	}
	return strings.TrimSpace(row.Cell(c.Index))
}

// Resolve maps headers to canonical fields. Fields are resolved in the
// order of Fields; a header claimed by one field is not reused by a later
// one. Missing required fields yield a *SchemaResolutionError.
func Resolve(headers []string, aliases Aliases) (*Resolution, error) {
	if aliases == nil {
		aliases = DefaultAliases()
	}

	keys := make([]string, len(headers))
	for i, h := range headers {
		keys[i] = headerKey(h)
	}

	res := &Resolution{
		Columns: make(map[Field]Column, len(Fields)),
		Headers: append([]string(nil), headers...),
	}
	claimed := make(map[int]bool)
	var missing []Field

	for _, field := range Fields {
		col, ok := matchField(aliases[field], headers, keys, claimed)
		if !ok {
			if field.Required() {
				missing = append(missing, field)
			} else {
				res.MissingOptional = append(res.MissingOptional, field)
			}
			continue
		}
		claimed[col.Index] = true
		res.Columns[field] = col
	}

	if len(missing) > 0 {
		return nil, &SchemaResolutionError{Missing: missing, Headers: res.Headers}
	}
	return res, nil
}

func matchField(candidates, headers, keys []string, claimed map[int]bool) (Column, bool) {
	for _, alias := range candidates {
		want := headerKey(alias)
		if want == "" {
			continue
		}
		for i, key := range keys {
			if key == want && !claimed[i] {
				return Column{Index: i, Header: headers[i], Alias: alias}, true
			}
		}
	}
	return Column{}, false
}
