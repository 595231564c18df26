// ABOUTME: Journal maintenance operations
// ABOUTME: Backs up, counts and removes sent submissions and old roster load records
package db

import (
	"database/sql"
	"fmt"
	"os"
	"time"
)

// JournalStats counts journal rows by kind.
type JournalStats struct {
	Pending     int
	Sent        int
	Failed      int
	RosterLoads int
}

func GetJournalStats(db *sql.DB) (JournalStats, error) {
	var stats JournalStats

	rows, err := db.Query(`SELECT status, COUNT(*) FROM submissions GROUP BY status`)
	if err != nil {
		return stats, fmt.Errorf("failed to count submissions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return stats, fmt.Errorf("failed to scan submission count: %w", err)
		}
		switch status {
		case StatusPending:
			stats.Pending = n
		case StatusSent:
			stats.Sent = n
		case StatusFailed:
			stats.Failed = n
		}
	}
	if err := rows.Err(); err != nil {
		return stats, err
	}

	if err := db.QueryRow(`SELECT COUNT(*) FROM roster_loads`).Scan(&stats.RosterLoads); err != nil {
		return stats, fmt.Errorf("failed to count roster loads: %w", err)
	}
	return stats, nil
}

// PruneSentSubmissions deletes sent submissions last updated before cutoff.
// Pending and failed submissions are never removed.
func PruneSentSubmissions(db *sql.DB, cutoff time.Time) (int64, error) {
	result, err := db.Exec(`DELETE FROM submissions WHERE status = ? AND updated_at < ?`, StatusSent, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune submissions: %w", err)
	}
	return result.RowsAffected()
}

// PruneRosterLoads keeps the newest keep roster load records.
func PruneRosterLoads(db *sql.DB, keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}
	result, err := db.Exec(`
		DELETE FROM roster_loads WHERE id NOT IN (
			SELECT id FROM roster_loads ORDER BY loaded_at DESC LIMIT ?
		)
	`, keep)
	if err != nil {
		return 0, fmt.Errorf("failed to prune roster loads: %w", err)
	}
	return result.RowsAffected()
}

// Backup writes a consistent copy of the open database to path, including
// pages still in the WAL. path must not exist.
func Backup(db *sql.DB, path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("backup file already exists: %s", path)
	}
	if _, err := db.Exec(`VACUUM INTO ?`, path); err != nil {
		return fmt.Errorf("failed to back up database: %w", err)
	}
	if err := os.Chmod(path, 0600); err != nil {
		return fmt.Errorf("failed to restrict backup permissions: %w", err)
	}
	return nil
}
