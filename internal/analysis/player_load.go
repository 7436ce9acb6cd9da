package analysis

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"court-kinetics/internal/frames"
	"court-kinetics/internal/kinematics"
)

// PlayerLoad returns the accelerometry load over r in arbitrary units:
// the sum of sqrt(|a[i] - a[i+1]|^2 / 100), differencing forward.
//
// A Single covers i in [Start, End-1). A Split covers [Start, GapStart-1)
// and then [GapEnd, End-2): the sub-range after the gap stops one frame
// earlier than the one before it. Frames with undefined acceleration are
// skipped.
func PlayerLoad(rec *kinematics.Record, r frames.Range) (float64, error) {
	if err := rec.RequireAcceleration(); err != nil {
		return 0, err
	}
	bounded, err := frames.Bound(r, rec.Len())
	if err != nil {
		return 0, err
	}

	switch b := bounded.(type) {
	case frames.Single:
		return loadSum(rec.Acceleration, b.Start, b.End-1), nil
	case frames.Split:
		// TODO: confirm with the lab whether the extra frame dropped after the gap is intended.
		return loadSum(rec.Acceleration, b.Start, b.GapStart-1) +
			loadSum(rec.Acceleration, b.GapEnd, b.End-2), nil
	}
	return 0, nil
}

// loadSum adds sqrt((dx²+dy²+dz²)/100) with d = a[i] - a[i+1] for i in [from, to)
func loadSum(acc [3][]float64, from, to int) float64 {
	if to <= from {
		return 0
	}
	terms := make([]float64, 0, to-from)
	x, y, z := acc[0], acc[1], acc[2]
	for i := from; i < to; i++ {
		dx := x[i] - x[i+1]
		dy := y[i] - y[i+1]
		dz := z[i] - z[i+1]
		terms = append(terms, math.Sqrt((dx*dx+dy*dy+dz*dz)/100))
	}
	return floats.Sum(finite(terms))
}
