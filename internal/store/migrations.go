package store

import "database/sql"

// migrate runs all database migrations
func migrate(db *sql.DB) error {
	migrations := []string{
		// Runs (one per metrics or heart rate invocation)
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			participant TEXT NOT NULL,
			mass_kg REAL NOT NULL,
			keypoint TEXT NOT NULL,
			rows_to_skip INTEGER NOT NULL,
			kinematics_folder TEXT NOT NULL,
			points_file TEXT,
			started_at TEXT NOT NULL,
			finished_at TEXT,
			points_total INTEGER DEFAULT 0,
			points_skipped INTEGER DEFAULT 0,
			error_count INTEGER DEFAULT 0
		)`,

		`CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at)`,

		// Point metrics (one row per trial, point and metric)
		`CREATE TABLE IF NOT EXISTS point_metrics (
			run_id TEXT NOT NULL,
			trial TEXT NOT NULL,
			point INTEGER NOT NULL,
			metric TEXT NOT NULL,
			value REAL,
			negative_work REAL,
			positive_work REAL,
			no_data INTEGER NOT NULL DEFAULT 0,
			frame_range TEXT,
			PRIMARY KEY (run_id, trial, point, metric),
			FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
		)`,

		`CREATE INDEX IF NOT EXISTS idx_point_metrics_run ON point_metrics(run_id)`,

		// Heart rate sessions
		`CREATE TABLE IF NOT EXISTS heart_rate_sessions (
			run_id TEXT NOT NULL,
			file TEXT NOT NULL,
			discipline TEXT NOT NULL,
			average_hr REAL NOT NULL,
			max_hr REAL NOT NULL,
			duration_seconds INTEGER NOT NULL,
			trimp REAL NOT NULL,
			banister_trimp REAL NOT NULL,
			PRIMARY KEY (run_id, file),
			FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
		)`,
	}

	for _, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return err
		}
	}

	return nil
}
