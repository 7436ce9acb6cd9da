package store

import (
	"database/sql"
)

// NewTestDB wraps an open database, typically ":memory:", and runs the
// migrations. This is only intended for use in tests.
func NewTestDB(sqlDB *sql.DB) (*DB, error) {
	// every connection to ":memory:" is a separate database
	sqlDB.SetMaxOpenConns(1)
	return setup(sqlDB)
}
