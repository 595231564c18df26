// ABOUTME: Record index keyed by normalized birth date
// ABOUTME: Built once per loaded table; rows with invalid dates are excluded and counted
package roster

import (
	"sort"

	"github.com/harperreed/contatos/models"
	"github.com/harperreed/contatos/table"
)

// Index looks members up by birth date. It is never mutated after Build.
type Index struct {
	byDate map[models.Date][]models.Member
	size   int
}

// BuildReport summarizes an index build.
type BuildReport struct {
	Rows         int
	Indexed      int
	InvalidDates int
	DateColumn   string
}

// Warning returns the aggregate date warning, or nil when no row was skipped.
func (r BuildReport) Warning() *DateNormalizationWarning {
	if r.InvalidDates == 0 {
		return nil
	}
	return &DateNormalizationWarning{Column: r.DateColumn, Skipped: r.InvalidDates, Total: r.Rows}
}

// Build indexes every row of tbl whose birth date parses. Same-date members
// keep the table's row order.
func Build(tbl *table.Table, res *Resolution) (*Index, BuildReport) {
	ix := &Index{byDate: make(map[models.Date][]models.Member)}
	report := BuildReport{Rows: len(tbl.Rows)}
	if col, ok := res.Column(FieldBirthDate); ok {
		report.DateColumn = col.Header
	}

	for _, row := range tbl.Rows {
		date, err := ParseDate(res.Value(row, FieldBirthDate))
		if err != nil {
			report.InvalidDates++
			continue
		}

		member := models.Member{
			BirthDate: date,
			FullName:  res.Value(row, FieldFullName),
			Email:     res.Value(row, FieldEmail),
			Phone:     res.Value(row, FieldPhone),
			Line:      row.Line,
		}
		ix.byDate[date] = append(ix.byDate[date], member)
		ix.size++
	}

	report.Indexed = ix.size
	return ix, report
}

// Find returns the members born on date, in table order. The returned slice
// is a copy.
func (ix *Index) Find(date models.Date) []models.Member {
	if ix == nil {
		return nil
	}
	found := ix.byDate[date]
	if len(found) == 0 {
		return nil
	}
	out := make([]models.Member, len(found))
	copy(out, found)
	return out
}

// FindText parses text as a date and finds its members.
func (ix *Index) FindText(text string) ([]models.Member, error) {
	date, err := ParseDate(text)
	if err != nil {
		return nil, err
	}
	return ix.Find(date), nil
}

// Len is the number of indexed members.
func (ix *Index) Len() int {
	if ix == nil {
		return 0
	}
	return ix.size
}

// Dates returns the distinct indexed dates in ascending order.
func (ix *Index) Dates() []models.Date {
	if ix == nil {
		return nil
	}
	dates := make([]models.Date, 0, len(ix.byDate))
	for d := range ix.byDate {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}

// MatchName picks the first member whose name equals name ignoring case,
// accents and extra whitespace.
func MatchName(members []models.Member, name string) (models.Member, bool) {
	want := nameKey(name)
	for _, m := range members {
		if nameKey(m.FullName) == want {
			return m, true
		}
	}
	return models.Member{}, false
}
