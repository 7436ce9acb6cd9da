package analysis

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"court-kinetics/internal/frames"
	"court-kinetics/internal/kinematics"
)

// ExternalWork returns the negative and positive external mechanical work
// over r, in joules: the sums of the falling and rising frame-to-frame
// changes in total energy. Changes are taken against the previous frame of
// the whole record, so the change into a sub-range's first frame counts.
func ExternalWork(er *kinematics.EnergyRecord, r frames.Range) (negative, positive float64, err error) {
	bounded, err := frames.Bound(r, er.Len())
	if err != nil {
		return 0, 0, err
	}

	switch b := bounded.(type) {
	case frames.Single:
		negative, positive = signedSums(er.DeltaTotal[b.Start:b.End])
	case frames.Split:
		first, second := b.First(), b.Second()
		n1, p1 := signedSums(er.DeltaTotal[first.Start:first.End])
		n2, p2 := signedSums(er.DeltaTotal[second.Start:second.End])
		negative, positive = n1+n2, p1+p2
	}
	return negative, positive, nil
}

// signedSums adds the negative and positive values of deltas separately; NaN is skipped
func signedSums(deltas []float64) (negative, positive float64) {
	var neg, pos []float64
	for _, d := range deltas {
		switch {
		case math.IsNaN(d):
		case d < 0:
			neg = append(neg, d)
		case d > 0:
			pos = append(pos, d)
		}
	}
	return floats.Sum(neg), floats.Sum(pos)
}
