package kinematics

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"court-kinetics/internal/config"
)

// Source produces the kinematic record of a trial
type Source interface {
	Record(trial string) (*Record, error)
}

// Loader reads records straight from the kinematics folder on every call
type Loader struct {
	cfg config.KinematicsConfig
}

// NewLoader creates a loader for the configured folder and keypoint
func NewLoader(cfg config.KinematicsConfig) *Loader {
	return &Loader{cfg: cfg}
}

// Keypoint returns the keypoint this loader extracts
func (l *Loader) Keypoint() string {
	return l.cfg.Keypoint
}

// Record builds the kinematic record of the configured keypoint for trial.
// It returns an error wrapping ErrNoTrialData when no file names the trial.
func (l *Loader) Record(trial string) (*Record, error) {
	posPath, velPath, err := l.findFiles(trial)
	if err != nil {
		return nil, err
	}

	rec := &Record{
		Trial:    trial,
		Keypoint: l.cfg.Keypoint,
	}
	copy(rec.Planes[:], l.cfg.Planes)

	var posTable, velTable *table
	if posPath != "" {
		if posTable, err = readTable(posPath, l.cfg.RowsToSkip); err != nil {
			return nil, err
		}
	}
	if velPath != "" {
		if velTable, err = readTable(velPath, l.cfg.RowsToSkip); err != nil {
			return nil, err
		}
	}

	n := alignedLength(posTable, velTable)
	timeSource := posTable
	if timeSource == nil {
		timeSource = velTable
	}
	timeCol, _ := timeSource.column(headerToken)
	rec.Time = timeCol[:n]

	for axis, plane := range rec.Planes {
		name := rec.ColumnName(plane)

		if col, ok := lookup(posTable, name); ok {
			rec.Position[axis] = col[:n]
		} else {
			rec.Missing = append(rec.Missing, name+" (m)")
		}

		if col, ok := lookup(velTable, name); ok {
			rec.Velocity[axis] = col[:n]
			rec.Acceleration[axis] = differentiate(rec.Velocity[axis], rec.Time)
		} else {
			rec.Missing = append(rec.Missing, name+" (m/s)", name+" (m/s^2)")
		}
	}

	return rec, nil
}

// findFiles selects the position and velocity exports whose names contain the trial id
func (l *Loader) findFiles(trial string) (posPath, velPath string, err error) {
	entries, err := os.ReadDir(l.cfg.Folder)
	if err != nil {
		return "", "", fmt.Errorf("reading kinematics folder: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.Contains(e.Name(), trial) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	for _, name := range names {
		switch {
		case posPath == "" && strings.Contains(name, l.cfg.PositionMarker):
			posPath = filepath.Join(l.cfg.Folder, name)
		case velPath == "" && strings.Contains(name, l.cfg.VelocityMarker):
			velPath = filepath.Join(l.cfg.Folder, name)
		}
	}

	if posPath == "" && velPath == "" {
		return "", "", fmt.Errorf("trial %s: %w", trial, ErrNoTrialData)
	}
	return posPath, velPath, nil
}

// alignedLength is the number of frames present in every loaded table
func alignedLength(tables ...*table) int {
	n := -1
	for _, t := range tables {
		if t == nil {
			continue
		}
		if n < 0 || t.rows() < n {
			n = t.rows()
		}
	}
	if n < 0 {
		return 0
	}
	return n
}

func lookup(t *table, label string) ([]float64, bool) {
	if t == nil {
		return nil, false
	}
	return t.column(label)
}
