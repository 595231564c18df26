package roster

import (
	"time"

	"github.com/harperreed/contatos/table"
)

// Loaded is one loaded member table with its resolution and index.
type Loaded struct {
	Table      *table.Table
	Resolution *Resolution
	Index      *Index
	Report     BuildReport
	LoadedAt   time.Time
}

// Load reads the file at path, resolves its columns and builds the index.
func Load(path string, aliases Aliases) (*Loaded, error) {
	tbl, err := table.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromTable(tbl, aliases)
}

// FromTable resolves and indexes an already-read table.
func FromTable(tbl *table.Table, aliases Aliases) (*Loaded, error) {
	res, err := Resolve(tbl.Headers, aliases)
	if err != nil {
		if se, ok := err.(*SchemaResolutionError); ok {
			se.Source = tbl.Source
		}
		return nil, err
	}

	ix, report := Build(tbl, res)
	return &Loaded{
		Table:      tbl,
		Resolution: res,
		Index:      ix,
		Report:     report,
		LoadedAt:   time.Now(),
	}, nil
}
