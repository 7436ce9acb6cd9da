package store

import "time"

// Run represents one batch invocation
type Run struct {
	ID               string     `db:"id"`
	Participant      string     `db:"participant"`
	MassKG           float64    `db:"mass_kg"`
	Keypoint         string     `db:"keypoint"`
	RowsToSkip       int        `db:"rows_to_skip"`
	KinematicsFolder string     `db:"kinematics_folder"`
	PointsFile       string     `db:"points_file"`
	StartedAt        time.Time  `db:"started_at"`
	FinishedAt       *time.Time `db:"finished_at"` // nullable until the run completes
	PointsTotal      int        `db:"points_total"`
	PointsSkipped    int        `db:"points_skipped"`
	ErrorCount       int        `db:"error_count"`
}

// PointMetric is one metric value for a point of a trial
type PointMetric struct {
	RunID        string   `db:"run_id"`
	Trial        string   `db:"trial"`
	Point        int      `db:"point"`
	Metric       string   `db:"metric"`
	Value        *float64 `db:"value"`         // distance (m) or player load (AU)
	NegativeWork *float64 `db:"negative_work"` // J
	PositiveWork *float64 `db:"positive_work"` // J
	NoData       bool     `db:"no_data"`
	FrameRange   string   `db:"frame_range"`
}

// HeartRateSession is the summary of one heart rate file
type HeartRateSession struct {
	RunID           string  `db:"run_id"`
	File            string  `db:"file"`
	Discipline      string  `db:"discipline"`
	AverageHR       float64 `db:"average_hr"`
	MaxHR           float64 `db:"max_hr"`
	DurationSeconds int     `db:"duration_seconds"`
	TRIMP           float64 `db:"trimp"`
	BanisterTRIMP   float64 `db:"banister_trimp"`
}
