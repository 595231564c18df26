// ABOUTME: Database operations for the submission journal
// ABOUTME: Records every submission attempt so failed rows can be retried without re-entry
package db

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/contatos/models"
)

// Submission statuses. A pending submission is being sent, or its outcome
// was never recorded; only failed ones are safe to re-send.
const (
	StatusPending = "pending"
	StatusSent    = "sent"
	StatusFailed  = "failed"
)

// Submission is one journaled correction request and its built row.
type Submission struct {
	ID             uuid.UUID
	SheetURL       string
	DocumentID     string
	WorksheetID    int64
	WorksheetTitle string
	MemberName     string
	Row            models.SubmissionRow
	Status         string
	ErrorMessage   *string
	Attempts       int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// CreateSubmission journals a submission as pending before its first
// attempt is sent.
func CreateSubmission(db *sql.DB, sub *Submission) error {
	sub.ID = uuid.New()
	sub.Status = StatusPending
	sub.Attempts = 1
	now := time.Now()
	sub.CreatedAt = now
	sub.UpdatedAt = now

	rowJSON, err := json.Marshal(sub.Row)
	if err != nil {
		return fmt.Errorf("failed to encode submission row: %w", err)
	}

	_, err = db.Exec(`
		INSERT INTO submissions (id, sheet_url, document_id, worksheet_id, worksheet_title, member_name, row_json, status, attempts, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, sub.ID.String(), sub.SheetURL, sub.DocumentID, sub.WorksheetID, sub.WorksheetTitle, sub.MemberName,
		string(rowJSON), sub.Status, sub.Attempts, sub.CreatedAt, sub.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create submission: %w", err)
	}

	return nil
}

// MarkSubmissionSent records a successful append.
func MarkSubmissionSent(db *sql.DB, id uuid.UUID) error {
	return updateSubmissionStatus(db, id, StatusSent, sql.NullString{})
}

// MarkSubmissionFailed records a failed attempt and its cause.
func MarkSubmissionFailed(db *sql.DB, id uuid.UUID, errMsg string) error {
	return updateSubmissionStatus(db, id, StatusFailed, sql.NullString{String: errMsg, Valid: true})
}

// ClaimSubmission moves sub back to pending for another attempt. It only
// succeeds while the row still has the status and attempt count sub was
// read with, so concurrent callers cannot both re-send it; false means
// another caller got there first.
func ClaimSubmission(db *sql.DB, sub *Submission) (bool, error) {
	now := time.Now()
	res, err := db.Exec(`
		UPDATE submissions
		SET status = ?, attempts = attempts + 1, updated_at = ?
		WHERE id = ? AND status = ? AND attempts = ?
	`, StatusPending, now, sub.ID.String(), sub.Status, sub.Attempts)
	if err != nil {
		return false, fmt.Errorf("failed to claim submission: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to claim submission: %w", err)
	}
	if n == 0 {
		return false, nil
	}

	sub.Status = StatusPending
	sub.Attempts++
	sub.UpdatedAt = now
	return true, nil
}

func updateSubmissionStatus(db *sql.DB, id uuid.UUID, status string, errMsg sql.NullString) error {
	res, err := db.Exec(`
		UPDATE submissions
		SET status = ?, error_message = ?, updated_at = ?
		WHERE id = ?
	`, status, errMsg, time.Now(), id.String())
	if err != nil {
		return fmt.Errorf("failed to update submission: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update submission: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("submission not found: %s", id)
	}

	return nil
}

// GetSubmission returns nil, nil when no submission has the id.
func GetSubmission(db *sql.DB, id uuid.UUID) (*Submission, error) {
	row := db.QueryRow(`
		SELECT id, sheet_url, document_id, worksheet_id, worksheet_title, member_name, row_json, status, error_message, attempts, created_at, updated_at
		FROM submissions WHERE id = ?
	`, id.String())

	sub, err := scanSubmission(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}
	return sub, nil
}

// ListSubmissions returns the newest submissions first. An empty status
// lists all of them.
func ListSubmissions(db *sql.DB, status string, limit int) ([]Submission, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, sheet_url, document_id, worksheet_id, worksheet_title, member_name, row_json, status, error_message, attempts, created_at, updated_at
		FROM submissions`
	args := []interface{}{}
	if status != "" {
		query += " WHERE status = ?"
		args = append(args, status)
	}
	query += " ORDER BY created_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var subs []Submission
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan submission: %w", err)
		}
		subs = append(subs, *sub)
	}

	return subs, rows.Err()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanSubmission(s scanner) (*Submission, error) {
	var sub Submission
	var rowJSON string
	var errMsg sql.NullString

	err := s.Scan(
		&sub.ID,
		&sub.SheetURL,
		&sub.DocumentID,
		&sub.WorksheetID,
		&sub.WorksheetTitle,
		&sub.MemberName,
		&rowJSON,
		&sub.Status,
		&errMsg,
		&sub.Attempts,
		&sub.CreatedAt,
		&sub.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(rowJSON), &sub.Row); err != nil {
		return nil, fmt.Errorf("failed to decode submission row: %w", err)
	}
	if errMsg.Valid {
		sub.ErrorMessage = &errMsg.String
	}

	return &sub, nil
}
