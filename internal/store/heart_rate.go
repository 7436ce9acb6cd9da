package store

import "fmt"

// SaveHeartRateSessions saves the heart rate summaries of a run
func (db *DB) SaveHeartRateSessions(runID string, sessions []HeartRateSession) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO heart_rate_sessions (
			run_id, file, discipline, average_hr, max_hr,
			duration_seconds, trimp, banister_trimp
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, s := range sessions {
		_, err := stmt.Exec(
			runID, s.File, s.Discipline, s.AverageHR, s.MaxHR,
			s.DurationSeconds, s.TRIMP, s.BanisterTRIMP,
		)
		if err != nil {
			return fmt.Errorf("inserting session %s: %w", s.File, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

// GetHeartRateSessions retrieves the heart rate summaries of a run
func (db *DB) GetHeartRateSessions(runID string) ([]HeartRateSession, error) {
	rows, err := db.Query(`
		SELECT run_id, file, discipline, average_hr, max_hr,
			duration_seconds, trimp, banister_trimp
		FROM heart_rate_sessions
		WHERE run_id = ?
		ORDER BY file
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []HeartRateSession
	for rows.Next() {
		var s HeartRateSession
		err := rows.Scan(
			&s.RunID, &s.File, &s.Discipline, &s.AverageHR, &s.MaxHR,
			&s.DurationSeconds, &s.TRIMP, &s.BanisterTRIMP,
		)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}

	return sessions, rows.Err()
}
