// ABOUTME: Database operations for the roster_loads table
// ABOUTME: Tracks each member table load with its row counts or failure
package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RosterLoad is one attempt to load the member table.
type RosterLoad struct {
	ID           uuid.UUID
	Source       string
	RowCount     int
	IndexedCount int
	InvalidDates int
	Status       string
	ErrorMessage *string
	LoadedAt     time.Time
}

// RecordRosterLoad stores a load. Status is "ok" unless ErrorMessage is set.
func RecordRosterLoad(db *sql.DB, load *RosterLoad) error {
	load.ID = uuid.New()
	if load.LoadedAt.IsZero() {
		load.LoadedAt = time.Now()
	}
	load.Status = "ok"
	var errMsg sql.NullString
	if load.ErrorMessage != nil {
		load.Status = "error"
		errMsg = sql.NullString{String: *load.ErrorMessage, Valid: true}
	}

	_, err := db.Exec(`
		INSERT INTO roster_loads (id, source, row_count, indexed_count, invalid_dates, status, error_message, loaded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, load.ID.String(), load.Source, load.RowCount, load.IndexedCount, load.InvalidDates, load.Status, errMsg, load.LoadedAt)
	if err != nil {
		return fmt.Errorf("failed to record roster load: %w", err)
	}

	return nil
}

// LastRosterLoad returns nil, nil when nothing was ever loaded.
func LastRosterLoad(db *sql.DB) (*RosterLoad, error) {
	var load RosterLoad
	var errMsg sql.NullString

	err := db.QueryRow(`
		SELECT id, source, row_count, indexed_count, invalid_dates, status, error_message, loaded_at
		FROM roster_loads
		ORDER BY loaded_at DESC
		LIMIT 1
	`).Scan(
		&load.ID,
		&load.Source,
		&load.RowCount,
		&load.IndexedCount,
		&load.InvalidDates,
		&load.Status,
		&errMsg,
		&load.LoadedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get last roster load: %w", err)
	}

	if errMsg.Valid {
		load.ErrorMessage = &errMsg.String
	}
	return &load, nil
}
