package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// timeLayout has a fixed width so timestamps sort lexically
const timeLayout = "2006-01-02T15:04:05.000000Z07:00"

// CreateRun inserts a new run. An empty ID is replaced by a fresh uuid and
// a zero StartedAt by the current time.
func (db *DB) CreateRun(r *Run) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.StartedAt.IsZero() {
		r.StartedAt = time.Now().UTC()
	}

	_, err := db.Exec(`
		INSERT INTO runs (
			id, participant, mass_kg, keypoint, rows_to_skip,
			kinematics_folder, points_file, started_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		r.ID, r.Participant, r.MassKG, r.Keypoint, r.RowsToSkip,
		r.KinematicsFolder, r.PointsFile, r.StartedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("inserting run: %w", err)
	}
	return nil
}

// FinishRun records the totals of a completed run
func (db *DB) FinishRun(id string, total, skipped, errorCount int) error {
	result, err := db.Exec(`
		UPDATE runs SET
			finished_at = ?,
			points_total = ?,
			points_skipped = ?,
			error_count = ?
		WHERE id = ?
	`, time.Now().UTC().Format(timeLayout), total, skipped, errorCount, id)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrRunNotFound
	}
	return nil
}

// GetRun retrieves a run by ID
func (db *DB) GetRun(id string) (*Run, error) {
	row := db.QueryRow(`
		SELECT id, participant, mass_kg, keypoint, rows_to_skip, kinematics_folder,
			points_file, started_at, finished_at, points_total, points_skipped, error_count
		FROM runs
		WHERE id = ?
	`, id)
	return scanRun(row)
}

// LatestRun returns the most recently started run
func (db *DB) LatestRun() (*Run, error) {
	row := db.QueryRow(`
		SELECT id, participant, mass_kg, keypoint, rows_to_skip, kinematics_folder,
			points_file, started_at, finished_at, points_total, points_skipped, error_count
		FROM runs
		ORDER BY started_at DESC
		LIMIT 1
	`)
	return scanRun(row)
}

// ListRuns returns runs ordered by start time descending
func (db *DB) ListRuns(limit int) ([]Run, error) {
	rows, err := db.Query(`
		SELECT id, participant, mass_kg, keypoint, rows_to_skip, kinematics_folder,
			points_file, started_at, finished_at, points_total, points_skipped, error_count
		FROM runs
		ORDER BY started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, rows.Err()
}

// CountRuns returns the number of stored runs
func (db *DB) CountRuns() (int, error) {
	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM runs").Scan(&count)
	return count, err
}

// DeleteRun removes a run and, by cascade, its metrics and sessions
func (db *DB) DeleteRun(id string) error {
	_, err := db.Exec("DELETE FROM runs WHERE id = ?", id)
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*Run, error) {
	var (
		r          Run
		pointsFile sql.NullString
		startedAt  string
		finishedAt sql.NullString
	)
	err := s.Scan(
		&r.ID, &r.Participant, &r.MassKG, &r.Keypoint, &r.RowsToSkip, &r.KinematicsFolder,
		&pointsFile, &startedAt, &finishedAt, &r.PointsTotal, &r.PointsSkipped, &r.ErrorCount,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, err
	}

	r.PointsFile = pointsFile.String
	r.StartedAt, err = time.Parse(timeLayout, startedAt)
	if err != nil {
		return nil, fmt.Errorf("parsing started_at: %w", err)
	}
	if finishedAt.Valid {
		t, err := time.Parse(timeLayout, finishedAt.String)
		if err != nil {
			return nil, fmt.Errorf("parsing finished_at: %w", err)
		}
		r.FinishedAt = &t
	}
	return &r, nil
}
