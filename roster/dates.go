package roster

import (
	"fmt"
	"strings"
	"time"

	"github.com/harperreed/contatos/models"
)

// dateLayouts are tried in order. Slash, dash and dot forms are day-first.
// Single-digit layout elements also accept two digits.
var dateLayouts = []string{
	"2/1/2006",
	"2006-1-2",
	"2-1-2006",
	"2/1/06",
	"2.1.2006",
	"2006/1/2",
	"20060102",
}

var timeSuffixes = []string{
	"",
	" 15:04",
	" 15:04:05",
	"T15:04:05",
	"T15:04:05Z07:00",
	" 15:04:05Z07:00",
}

// ParseDate reduces a birth date text to a calendar day.
func ParseDate(text string) (models.Date, error) {
	s := strings.TrimSpace(text)
	if s == "" {
		return models.Date{}, fmt.Errorf("%w: empty", ErrInvalidDate)
	}

	for _, suffix := range timeSuffixes {
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout+suffix, s); err == nil {
				return models.DateOf(t), nil
			}
		}
	}

	return models.Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, text)
}
