// Package kinematics builds per-keypoint kinematic records from motion-capture
// exports and derives acceleration and mechanical energy from them.
package kinematics

import (
	"math"
	"slices"
)

// Record is the kinematic time series of one keypoint in one trial.
// Axis slices are indexed by frame. A nil axis means the channel was absent
// from the export; its column name is listed in Missing.
// Records are shared between callers and must not be modified.
type Record struct {
	Trial    string
	Keypoint string
	Planes   [3]string

	Time         []float64
	Position     [3][]float64 // m
	Velocity     [3][]float64 // m/s
	Acceleration [3][]float64 // m/s^2, NaN where undefined

	Missing []string
}

// Len returns the number of frames
func (r *Record) Len() int {
	return len(r.Time)
}

// Axis returns the index of plane in the record, or -1
func (r *Record) Axis(plane string) int {
	return slices.Index(r.Planes[:], plane)
}

// HasPosition reports whether every position axis is present
func (r *Record) HasPosition() bool {
	return r.Position[0] != nil && r.Position[1] != nil && r.Position[2] != nil
}

// HasVelocity reports whether every velocity axis is present
func (r *Record) HasVelocity() bool {
	return r.Velocity[0] != nil && r.Velocity[1] != nil && r.Velocity[2] != nil
}

// HasAcceleration reports whether every acceleration axis is present
func (r *Record) HasAcceleration() bool {
	return r.Acceleration[0] != nil && r.Acceleration[1] != nil && r.Acceleration[2] != nil
}

// ColumnName returns the export channel name for a plane, e.g. center_of_mass_Y
func (r *Record) ColumnName(plane string) string {
	return r.Keypoint + "_" + plane
}

// RequirePosition returns a ColumnError naming the first absent position channel
func (r *Record) RequirePosition() error {
	for i, p := range r.Position {
		if p == nil {
			return &ColumnError{Column: r.ColumnName(r.Planes[i]) + " (m)"}
		}
	}
	return nil
}

// RequireVelocity returns a ColumnError naming the first absent velocity channel
func (r *Record) RequireVelocity() error {
	for i, v := range r.Velocity {
		if v == nil {
			return &ColumnError{Column: r.ColumnName(r.Planes[i]) + " (m/s)"}
		}
	}
	return nil
}

// RequireAcceleration returns a ColumnError naming the first absent acceleration channel
func (r *Record) RequireAcceleration() error {
	for i, a := range r.Acceleration {
		if a == nil {
			return &ColumnError{Column: r.ColumnName(r.Planes[i]) + " (m/s^2)"}
		}
	}
	return nil
}

// differentiate returns d(values)/d(time) by backward difference.
// The first frame, and any frame with a zero time step, is NaN.
func differentiate(values, time []float64) []float64 {
	out := make([]float64, len(values))
	if len(out) == 0 {
		return out
	}
	out[0] = math.NaN()
	for i := 1; i < len(values); i++ {
		dt := time[i] - time[i-1]
		if dt == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = (values[i] - values[i-1]) / dt
	}
	return out
}
