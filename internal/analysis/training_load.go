package analysis

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// HRZones represents a participant's heart rate zones
type HRZones struct {
	RestingHR float64
	MaxHR     float64
}

// ZonesForAge derives zones from the age-predicted maximum, 220 - age
func ZonesForAge(age int, restingHR float64) HRZones {
	return HRZones{
		RestingHR: restingHR,
		MaxHR:     float64(220 - age),
	}
}

// Zone is one heart rate band; Index runs from 1 (easiest) to 5
type Zone struct {
	Index int
	Lower float64
	Upper float64
}

// zoneFractions are the band edges as fractions of max HR
var zoneFractions = []float64{0.5, 0.6, 0.7, 0.8, 0.9, 1.0}

// Bands returns the five zones at 50-60/60-70/70-80/80-90/90-100% of max HR
func (z HRZones) Bands() []Zone {
	bands := make([]Zone, 0, len(zoneFractions)-1)
	for i := 0; i+1 < len(zoneFractions); i++ {
		bands = append(bands, Zone{
			Index: i + 1,
			Lower: zoneFractions[i] * z.MaxHR,
			Upper: zoneFractions[i+1] * z.MaxHR,
		})
	}
	return bands
}

// ZoneOf returns the zone index of hr, or 0 when hr is outside every zone.
// Bands are half-open except the top band, which includes max HR.
func (z HRZones) ZoneOf(hr float64) int {
	bands := z.Bands()
	for i, b := range bands {
		last := i == len(bands)-1
		if hr >= b.Lower && (hr < b.Upper || (last && hr == b.Upper)) {
			return b.Index
		}
	}
	return 0
}

// ZoneLoad is the outcome of a zone-weighted TRIMP calculation
type ZoneLoad struct {
	TRIMP         float64
	SecondsInZone [5]float64
}

// ZoneTRIMP computes the zone-weighted training impulse of evenly spaced
// heart rate samples: the sum over zones of zone index times minutes in zone.
// NaN samples are ignored.
func ZoneTRIMP(heartRates []float64, sampleSeconds float64, zones HRZones) ZoneLoad {
	var load ZoneLoad
	for _, hr := range heartRates {
		if math.IsNaN(hr) {
			continue
		}
		if idx := zones.ZoneOf(hr); idx > 0 {
			load.SecondsInZone[idx-1] += sampleSeconds
		}
	}

	weights := []float64{1, 2, 3, 4, 5}
	load.TRIMP = floats.Dot(weights, load.SecondsInZone[:]) / 60
	return load
}

// BanisterTRIMP calculates Training Impulse (Banister model)
// TRIMP = duration (min) * ΔHR ratio * e^(b * ΔHR ratio)
// where b = 1.92 for men, 1.67 for women (using male default)
func BanisterTRIMP(heartRates []float64, durationMin float64, zones HRZones) float64 {
	valid := make([]float64, 0, len(heartRates))
	for _, hr := range heartRates {
		if !math.IsNaN(hr) && hr > 0 {
			valid = append(valid, hr)
		}
	}
	if len(valid) == 0 {
		return 0
	}
	avgHR := stat.Mean(valid, nil)

	// Heart rate reserve ratio
	hrReserve := zones.MaxHR - zones.RestingHR
	if hrReserve <= 0 {
		return 0
	}

	hrRatio := (avgHR - zones.RestingHR) / hrReserve
	if hrRatio < 0 {
		hrRatio = 0
	}
	if hrRatio > 1 {
		hrRatio = 1
	}

	// Gender coefficient (using male default)
	b := 1.92

	return durationMin * hrRatio * math.Exp(b*hrRatio)
}
