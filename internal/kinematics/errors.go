package kinematics

import (
	"errors"
	"fmt"
)

// ErrNoTrialData is returned when no kinematic files match a trial.
// Not every trial number exists, so callers treat this as a skip.
var ErrNoTrialData = errors.New("no kinematic data for trial")

// ErrMalformedFile is returned when a kinematics file cannot be parsed
var ErrMalformedFile = errors.New("malformed kinematics file")

// ErrMissingColumn is returned when a raw or derived channel is absent
var ErrMissingColumn = errors.New("missing column")

// FileError records a parse failure in a specific file
type FileError struct {
	Path string
	Line int // 1-based, 0 when not tied to a line
	Msg  string
}

func (e *FileError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %s", e.Path, e.Line, e.Msg)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Msg)
}

func (e *FileError) Unwrap() error { return ErrMalformedFile }

// ColumnError names a channel that is required but absent
type ColumnError struct {
	Column string
}

func (e *ColumnError) Error() string {
	return fmt.Sprintf("column %s not found", e.Column)
}

func (e *ColumnError) Unwrap() error { return ErrMissingColumn }
