package service

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/stat"
)

// Downsample averages values into at most width buckets, ignoring NaN.
// Buckets with no finite value are dropped.
func Downsample(values []float64, width int) []float64 {
	if width <= 0 || len(values) == 0 {
		return nil
	}
	if len(values) <= width {
		return finiteOnly(values)
	}

	out := make([]float64, 0, width)
	for b := 0; b < width; b++ {
		lo := b * len(values) / width
		hi := (b + 1) * len(values) / width
		bucket := finiteOnly(values[lo:hi])
		if len(bucket) == 0 {
			continue
		}
		out = append(out, stat.Mean(bucket, nil))
	}
	return out
}

func finiteOnly(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out = append(out, v)
		}
	}
	return out
}

func deref(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}

// FormatDuration formats a duration as "H:MM:SS" or "M:SS"
func FormatDuration(d time.Duration) string {
	seconds := int(d.Round(time.Second).Seconds())
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60

	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
