// ABOUTME: Database schema definitions
// ABOUTME: Submission journal and roster load log tables
package db

import (
	"database/sql"
)

const schema = `
CREATE TABLE IF NOT EXISTS submissions (
	id TEXT PRIMARY KEY,
	sheet_url TEXT NOT NULL,
	document_id TEXT NOT NULL,
	worksheet_id INTEGER NOT NULL,
	worksheet_title TEXT NOT NULL,
	member_name TEXT NOT NULL,
	row_json TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'pending' CHECK(status IN ('pending', 'sent', 'failed')),
	error_message TEXT,
	attempts INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_submissions_status ON submissions(status);
CREATE INDEX IF NOT EXISTS idx_submissions_created_at ON submissions(created_at DESC);

CREATE TABLE IF NOT EXISTS roster_loads (
	id TEXT PRIMARY KEY,
	source TEXT NOT NULL,
	row_count INTEGER NOT NULL DEFAULT 0,
	indexed_count INTEGER NOT NULL DEFAULT 0,
	invalid_dates INTEGER NOT NULL DEFAULT 0,
	status TEXT NOT NULL CHECK(status IN ('ok', 'error')),
	error_message TEXT,
	loaded_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_roster_loads_loaded_at ON roster_loads(loaded_at DESC);
`

func InitSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
