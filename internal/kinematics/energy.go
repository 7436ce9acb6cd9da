package kinematics

import (
	"math"
)

// Gravity is the gravitational acceleration used for potential energy, m/s^2
const Gravity = 9.81

// EnergyRecord extends a Record with the mechanical energy of the keypoint.
// Potential is nil when the vertical position channel is absent, in which
// case Total carries kinetic energy only.
type EnergyRecord struct {
	*Record

	MassKG            float64
	ResultantVelocity []float64 // m/s
	Potential         []float64 // J
	Kinetic           []float64 // J
	Total             []float64 // J
	DeltaTotal        []float64 // J, NaN at frame 0
}

// DeriveEnergy computes potential, kinetic and total energy of rec for a body of massKG.
//
// A missing vertical position channel degrades the result instead of failing
// it: the returned EnergyRecord is usable and the error wraps ErrMissingColumn.
// Missing velocity channels fail outright.
func DeriveEnergy(rec *Record, massKG float64, verticalAxis string) (*EnergyRecord, error) {
	if err := rec.RequireVelocity(); err != nil {
		return nil, err
	}

	n := rec.Len()
	er := &EnergyRecord{
		Record:            rec,
		MassKG:            massKG,
		ResultantVelocity: make([]float64, n),
		Kinetic:           make([]float64, n),
		Total:             make([]float64, n),
		DeltaTotal:        make([]float64, n),
	}

	vx, vy, vz := rec.Velocity[0], rec.Velocity[1], rec.Velocity[2]
	for i := 0; i < n; i++ {
		v := math.Sqrt(vx[i]*vx[i] + vy[i]*vy[i] + vz[i]*vz[i])
		er.ResultantVelocity[i] = v
		er.Kinetic[i] = 0.5 * massKG * v * v
	}

	var missing error
	axis := rec.Axis(verticalAxis)
	if axis < 0 || rec.Position[axis] == nil {
		missing = &ColumnError{Column: rec.ColumnName(verticalAxis) + " (m)"}
		copy(er.Total, er.Kinetic)
	} else {
		height := rec.Position[axis]
		er.Potential = make([]float64, n)
		for i := 0; i < n; i++ {
			er.Potential[i] = massKG * Gravity * height[i]
			er.Total[i] = er.Potential[i] + er.Kinetic[i]
		}
	}

	if n > 0 {
		er.DeltaTotal[0] = math.NaN()
	}
	for i := 1; i < n; i++ {
		er.DeltaTotal[i] = er.Total[i] - er.Total[i-1]
	}

	return er, missing
}
