// Package analysis computes point metrics over kinematic records and heart-rate sessions.
package analysis

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"court-kinetics/internal/frames"
	"court-kinetics/internal/kinematics"
)

// DistanceCovered returns the path length of the keypoint over r, in metres.
//
// Each sub-range is differenced on its own, so the step into its first frame
// is not counted. For a Split the step across the gap contributes nothing.
func DistanceCovered(rec *kinematics.Record, r frames.Range) (float64, error) {
	if err := rec.RequirePosition(); err != nil {
		return 0, err
	}
	bounded, err := frames.Bound(r, rec.Len())
	if err != nil {
		return 0, err
	}

	switch b := bounded.(type) {
	case frames.Single:
		return pathLength(rec.Position, b.Start, b.End), nil
	case frames.Split:
		first, second := b.First(), b.Second()
		return pathLength(rec.Position, first.Start, first.End) +
			pathLength(rec.Position, second.Start, second.End), nil
	}
	return 0, nil
}

// pathLength sums |p[i] - p[i-1]| for i in (start, end)
func pathLength(pos [3][]float64, start, end int) float64 {
	if end-start < 2 {
		return 0
	}
	steps := make([]float64, 0, end-start-1)
	x, y, z := pos[0], pos[1], pos[2]
	for i := start + 1; i < end; i++ {
		dx := x[i] - x[i-1]
		dy := y[i] - y[i-1]
		dz := z[i] - z[i-1]
		steps = append(steps, math.Sqrt(dx*dx+dy*dy+dz*dz))
	}
	return floats.Sum(finite(steps))
}

// finite drops NaN values in place
func finite(xs []float64) []float64 {
	out := xs[:0]
	for _, v := range xs {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}
