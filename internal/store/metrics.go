package store

import (
	"database/sql"
	"errors"
	"fmt"
)

// SavePointMetrics saves the point metrics of a run.
// Rows already stored for the same run, trial, point and metric are replaced.
func (db *DB) SavePointMetrics(runID string, metrics []PointMetric) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO point_metrics (
			run_id, trial, point, metric, value,
			negative_work, positive_work, no_data, frame_range
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, trial, point, metric) DO UPDATE SET
			value = excluded.value,
			negative_work = excluded.negative_work,
			positive_work = excluded.positive_work,
			no_data = excluded.no_data,
			frame_range = excluded.frame_range
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, m := range metrics {
		_, err := stmt.Exec(
			runID, m.Trial, m.Point, m.Metric, m.Value,
			m.NegativeWork, m.PositiveWork, boolToInt(m.NoData), m.FrameRange,
		)
		if err != nil {
			return fmt.Errorf("inserting %s for trial %s point %d: %w", m.Metric, m.Trial, m.Point, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

// GetPointMetrics retrieves every point metric of a run, ordered by trial,
// point and metric
func (db *DB) GetPointMetrics(runID string) ([]PointMetric, error) {
	rows, err := db.Query(`
		SELECT run_id, trial, point, metric, value,
			negative_work, positive_work, no_data, frame_range
		FROM point_metrics
		WHERE run_id = ?
		ORDER BY trial, point, metric
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var metrics []PointMetric
	for rows.Next() {
		m, err := scanPointMetric(rows)
		if err != nil {
			return nil, err
		}
		metrics = append(metrics, *m)
	}

	return metrics, rows.Err()
}

// GetPointMetric retrieves one metric of a point
func (db *DB) GetPointMetric(runID, trial string, point int, metric string) (*PointMetric, error) {
	row := db.QueryRow(`
		SELECT run_id, trial, point, metric, value,
			negative_work, positive_work, no_data, frame_range
		FROM point_metrics
		WHERE run_id = ? AND trial = ? AND point = ? AND metric = ?
	`, runID, trial, point, metric)

	m, err := scanPointMetric(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPointNotFound
	}
	return m, err
}

// CountPointMetrics returns the number of metric rows stored for a run
func (db *DB) CountPointMetrics(runID string) (int, error) {
	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM point_metrics WHERE run_id = ?", runID).Scan(&count)
	return count, err
}

func scanPointMetric(s scanner) (*PointMetric, error) {
	var (
		m          PointMetric
		noData     int
		frameRange sql.NullString
	)
	err := s.Scan(
		&m.RunID, &m.Trial, &m.Point, &m.Metric, &m.Value,
		&m.NegativeWork, &m.PositiveWork, &noData, &frameRange,
	)
	if err != nil {
		return nil, err
	}
	m.NoData = noData != 0
	m.FrameRange = frameRange.String
	return &m, nil
}
