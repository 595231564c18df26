// ABOUTME: Data models for member lookup and contact correction submissions
// ABOUTME: Defines Date, Member, CorrectionRequest and SubmissionRow
package models

import (
	"fmt"
	"strings"
	"time"
)

// Date is a calendar day with no time component. It is comparable and is
// used directly as a map key by the record index.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf truncates t to its calendar day in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// IsZero reports whether d is the zero Date.
func (d Date) IsZero() bool {
	return d.Year == 0 && d.Month == 0 && d.Day == 0
}

// Time returns midnight UTC of the day.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// String renders the day as YYYY-MM-DD.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// Display renders the day as DD/MM/YYYY, the format used on the sheet.
func (d Date) Display() string {
	return fmt.Sprintf("%02d/%02d/%04d", d.Day, int(d.Month), d.Year)
}

// Before reports whether d is earlier than other.
func (d Date) Before(other Date) bool {
	if d.Year != other.Year {
		return d.Year < other.Year
	}
	if d.Month != other.Month {
		return d.Month < other.Month
	}
	return d.Day < other.Day
}

// Member is a canonical record built from one row of the member table.
type Member struct {
	BirthDate Date   `json:"birth_date"`
	FullName  string `json:"full_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	// Line is the 1-based line of the source row, kept for diagnostics.
	Line int `json:"line"`
}

// DisplayName returns the name or a placeholder for blank names.
func (m Member) DisplayName() string {
	if strings.TrimSpace(m.FullName) == "" {
		return "(sem nome)"
	}
	return m.FullName
}

// CorrectionRequest is what the user asks to change for one member.
type CorrectionRequest struct {
	CorrectPhone bool   `json:"correct_phone"`
	NewPhone     string `json:"new_phone,omitempty"`
	CorrectEmail bool   `json:"correct_email"`
	NewEmail     string `json:"new_email,omitempty"`
	Setorial     string `json:"setorial"`
}

// Validate performs presence checks only; formats are not validated.
func (r CorrectionRequest) Validate() error {
	var problems []string
	if r.CorrectPhone && strings.TrimSpace(r.NewPhone) == "" {
		problems = append(problems, "new phone is required when correcting the phone")
	}
	if r.CorrectEmail && strings.TrimSpace(r.NewEmail) == "" {
		problems = append(problems, "new email is required when correcting the email")
	}
	if strings.TrimSpace(r.Setorial) == "" {
		problems = append(problems, "setorial is required")
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid correction request: %s", strings.Join(problems, "; "))
	}
	return nil
}

// Submission row column positions.
const (
	ColTimestamp = iota
	ColBirthDate
	ColFullName
	ColCurrentEmail
	ColCurrentPhone
	ColCorrectPhone
	ColNewPhone
	ColCorrectEmail
	ColNewEmail
	ColSetorial

	SubmissionColumns
)

// SubmissionRow is the fixed-order tuple appended to the destination sheet.
type SubmissionRow [SubmissionColumns]string

// Values returns the row as a slice.
func (r SubmissionRow) Values() []string {
	out := make([]string, len(r))
	copy(out, r[:])
	return out
}
