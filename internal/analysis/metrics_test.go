package analysis

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"testing"

	"court-kinetics/internal/config"
	"court-kinetics/internal/frames"
	"court-kinetics/internal/kinematics"
)

const tolerance = 1e-9

// lineRecord moves one metre along X per frame
func lineRecord(n int) *kinematics.Record {
	rec := &kinematics.Record{
		Trial:    "01",
		Keypoint: "center_of_mass",
		Planes:   [3]string{"X", "Y", "Z"},
		Time:     make([]float64, n),
	}
	for axis := range rec.Position {
		rec.Position[axis] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		rec.Time[i] = float64(i) * 0.01
		rec.Position[0][i] = float64(i)
	}
	return rec
}

// alternatingRecord has X acceleration flipping between 0 and 10 every frame
func alternatingRecord(n int) *kinematics.Record {
	rec := lineRecord(n)
	for axis := range rec.Acceleration {
		rec.Acceleration[axis] = make([]float64, n)
		rec.Acceleration[axis][0] = math.NaN()
	}
	for i := 1; i < n; i++ {
		if i%2 == 0 {
			rec.Acceleration[0][i] = 10
		}
	}
	return rec
}

// randomRecord is a plausible noisy trajectory with every channel populated
func randomRecord(n int, seed int64) *kinematics.Record {
	rng := rand.New(rand.NewSource(seed))
	rec := &kinematics.Record{
		Trial:    "01",
		Keypoint: "center_of_mass",
		Planes:   [3]string{"X", "Y", "Z"},
		Time:     make([]float64, n),
	}
	for axis := 0; axis < 3; axis++ {
		rec.Position[axis] = make([]float64, n)
		rec.Velocity[axis] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		rec.Time[i] = float64(i) / 100
		t := rec.Time[i]
		rec.Position[0][i] = math.Sin(t) + rng.NormFloat64()*0.01
		rec.Position[1][i] = 1 + 0.1*math.Sin(3*t) + rng.NormFloat64()*0.01
		rec.Position[2][i] = math.Cos(t) + rng.NormFloat64()*0.01
		rec.Velocity[0][i] = math.Cos(t) + rng.NormFloat64()*0.05
		rec.Velocity[1][i] = 0.3*math.Cos(3*t) + rng.NormFloat64()*0.05
		rec.Velocity[2][i] = -math.Sin(t) + rng.NormFloat64()*0.05
	}
	for axis := 0; axis < 3; axis++ {
		acc := make([]float64, n)
		acc[0] = math.NaN()
		for i := 1; i < n; i++ {
			acc[i] = (rec.Velocity[axis][i] - rec.Velocity[axis][i-1]) / (rec.Time[i] - rec.Time[i-1])
		}
		rec.Acceleration[axis] = acc
	}
	return rec
}

func energyOf(deltas ...float64) *kinematics.EnergyRecord {
	rec := lineRecord(len(deltas))
	return &kinematics.EnergyRecord{Record: rec, DeltaTotal: deltas}
}

func TestDistanceCovered(t *testing.T) {
	rec := lineRecord(10)

	tests := []struct {
		name string
		r    frames.Range
		want float64
	}{
		{"whole record", frames.Whole{}, 9},
		{"single drops its leading step", frames.Single{Start: 1, End: 10}, 8},
		{"short single", frames.Single{Start: 3, End: 5}, 1},
		{"one frame", frames.Single{Start: 4, End: 5}, 0},
		{"empty", frames.Single{Start: 4, End: 4}, 0},
		{"end clamped to record", frames.Single{Start: 1, End: 1000}, 8},
		{"split sums both parts", frames.Split{Start: 1, End: 10, GapStart: 4, GapEnd: 6}, 2 + 3},
		{"split with empty first part", frames.Split{Start: 1, End: 10, GapStart: 1, GapEnd: 3}, 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DistanceCovered(rec, tt.r)
			if err != nil {
				t.Fatalf("DistanceCovered() error = %v", err)
			}
			if math.Abs(got-tt.want) > tolerance {
				t.Errorf("DistanceCovered(%v) = %v, want %v", tt.r, got, tt.want)
			}
		})
	}
}

func TestDistanceSeamExcluded(t *testing.T) {
	rec := randomRecord(200, 7)
	start, mid, end := 10, 90, 180

	whole, _ := DistanceCovered(rec, frames.Single{Start: start, End: end})
	left, _ := DistanceCovered(rec, frames.Single{Start: start, End: mid})
	right, _ := DistanceCovered(rec, frames.Single{Start: mid, End: end})

	// The step from mid-1 to mid belongs to neither half
	dx := rec.Position[0][mid] - rec.Position[0][mid-1]
	dy := rec.Position[1][mid] - rec.Position[1][mid-1]
	dz := rec.Position[2][mid] - rec.Position[2][mid-1]
	seam := math.Sqrt(dx*dx + dy*dy + dz*dz)

	if math.Abs(whole-(left+right+seam)) > tolerance {
		t.Errorf("whole %v != left %v + right %v + seam %v", whole, left, right, seam)
	}
	if seam > 0 && math.Abs(whole-(left+right)) < tolerance {
		t.Error("halves should not add up to the whole; the seam step is excluded")
	}
}

func TestDistanceMissingPosition(t *testing.T) {
	rec := lineRecord(5)
	rec.Position[2] = nil
	if _, err := DistanceCovered(rec, frames.Whole{}); !errors.Is(err, kinematics.ErrMissingColumn) {
		t.Errorf("error = %v, want ErrMissingColumn", err)
	}
}

func TestDistanceRangeError(t *testing.T) {
	rec := lineRecord(5)
	if _, err := DistanceCovered(rec, frames.Single{Start: 4, End: 2}); !errors.Is(err, frames.ErrRange) {
		t.Errorf("error = %v, want ErrRange", err)
	}
}

func TestExternalWork(t *testing.T) {
	nan := math.NaN()
	er := energyOf(nan, 1, -2, 3, 0, -1)

	tests := []struct {
		name    string
		r       frames.Range
		wantNeg float64
		wantPos float64
	}{
		{"whole record skips undefined first delta", frames.Whole{}, -3, 4},
		{"single", frames.Single{Start: 2, End: 5}, -2, 3},
		{"single includes change into first frame", frames.Single{Start: 1, End: 2}, 0, 1},
		{"split", frames.Split{Start: 1, End: 6, GapStart: 3, GapEnd: 4}, -3, 1},
		{"end clamped", frames.Single{Start: 1, End: 60}, -3, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			neg, pos, err := ExternalWork(er, tt.r)
			if err != nil {
				t.Fatalf("ExternalWork() error = %v", err)
			}
			if math.Abs(neg-tt.wantNeg) > tolerance || math.Abs(pos-tt.wantPos) > tolerance {
				t.Errorf("ExternalWork(%v) = (%v, %v), want (%v, %v)", tt.r, neg, pos, tt.wantNeg, tt.wantPos)
			}
		})
	}
}

func TestExternalWorkSigns(t *testing.T) {
	rec := randomRecord(400, 11)
	er, err := kinematics.DeriveEnergy(rec, 82.2, "Y")
	if err != nil {
		t.Fatal(err)
	}

	neg, pos, err := ExternalWork(er, frames.Whole{})
	if err != nil {
		t.Fatal(err)
	}
	if neg > 0 {
		t.Errorf("negative work = %v, want <= 0", neg)
	}
	if pos < 0 {
		t.Errorf("positive work = %v, want >= 0", pos)
	}

	var sum float64
	for _, d := range er.DeltaTotal {
		if !math.IsNaN(d) && d != 0 {
			sum += d
		}
	}
	if math.Abs((neg+pos)-sum) > 1e-6 {
		t.Errorf("neg + pos = %v, want sum of deltas %v", neg+pos, sum)
	}
}

func TestPlayerLoad(t *testing.T) {
	rec := alternatingRecord(8)

	tests := []struct {
		name string
		r    frames.Range
		want float64
	}{
		// every defined term is |10|/10 = 1
		{"whole record skips undefined frame 0", frames.Whole{}, 6},
		{"single covers [start, end-1)", frames.Single{Start: 1, End: 8}, 6},
		{"single short", frames.Single{Start: 2, End: 4}, 1},
		{"single too short", frames.Single{Start: 2, End: 3}, 0},
		{"end clamped to record", frames.Single{Start: 1, End: 100}, 6},
		// [1, 2) before the gap and [5, 6) after it
		{"split after-gap part stops one frame earlier", frames.Split{Start: 1, End: 8, GapStart: 3, GapEnd: 5}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PlayerLoad(rec, tt.r)
			if err != nil {
				t.Fatalf("PlayerLoad() error = %v", err)
			}
			if math.Abs(got-tt.want) > tolerance {
				t.Errorf("PlayerLoad(%v) = %v, want %v", tt.r, got, tt.want)
			}
		})
	}
}

// The two sides of a split gap use different window arithmetic. This pins
// the existing behaviour so a change to it is deliberate.
func TestPlayerLoadSplitAsymmetry(t *testing.T) {
	rec := randomRecord(300, 3)
	split := frames.Split{Start: 10, End: 250, GapStart: 100, GapEnd: 140}

	got, err := PlayerLoad(rec, split)
	if err != nil {
		t.Fatal(err)
	}

	before, _ := PlayerLoad(rec, frames.Single{Start: 10, End: 100})
	afterAsSplit, _ := PlayerLoad(rec, frames.Single{Start: 140, End: 249})
	afterAsSingle, _ := PlayerLoad(rec, frames.Single{Start: 140, End: 250})

	if math.Abs(got-(before+afterAsSplit)) > tolerance {
		t.Errorf("split = %v, want %v", got, before+afterAsSplit)
	}
	if math.Abs(got-(before+afterAsSingle)) < tolerance {
		t.Error("split should not equal the symmetric sum; the frame before End-1 is dropped after the gap")
	}
}

func TestPlayerLoadMissingAcceleration(t *testing.T) {
	rec := lineRecord(5)
	if _, err := PlayerLoad(rec, frames.Whole{}); !errors.Is(err, kinematics.ErrMissingColumn) {
		t.Errorf("error = %v, want ErrMissingColumn", err)
	}
}

func TestMetricsNonNegativeAndIdempotent(t *testing.T) {
	for seed := int64(1); seed <= 5; seed++ {
		t.Run(fmt.Sprintf("seed %d", seed), func(t *testing.T) {
			rec := randomRecord(300, seed)
			r := frames.Split{Start: 5, End: 290, GapStart: 120, GapEnd: 160}

			load1, _ := PlayerLoad(rec, r)
			load2, _ := PlayerLoad(rec, r)
			if load1 < 0 {
				t.Errorf("player load = %v, want >= 0", load1)
			}
			if load1 != load2 {
				t.Errorf("player load not reproducible: %v vs %v", load1, load2)
			}

			d1, _ := DistanceCovered(rec, r)
			d2, _ := DistanceCovered(rec, r)
			if d1 < 0 || d1 != d2 {
				t.Errorf("distance %v / %v, want equal and >= 0", d1, d2)
			}

			er, err := kinematics.DeriveEnergy(rec, 70, "Y")
			if err != nil {
				t.Fatal(err)
			}
			n1, p1, _ := ExternalWork(er, r)
			n2, p2, _ := ExternalWork(er, r)
			if n1 != n2 || p1 != p2 {
				t.Errorf("work not reproducible: (%v, %v) vs (%v, %v)", n1, p1, n2, p2)
			}
		})
	}
}

type stubSource map[string]*kinematics.Record

func (s stubSource) Record(trial string) (*kinematics.Record, error) {
	rec, ok := s[trial]
	if !ok {
		return nil, fmt.Errorf("trial %s: %w", trial, kinematics.ErrNoTrialData)
	}
	return rec, nil
}

func scenarioEngine(t *testing.T) (*Engine, *kinematics.Record) {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Participant.MassKG = 82.2
	cfg.Kinematics.RowsToSkip = 35
	rec := randomRecord(600, 42)
	return NewEngine(stubSource{"02": rec}, cfg), rec
}

func TestEngineScenario(t *testing.T) {
	engine, _ := scenarioEngine(t)
	raw := frames.Single{Start: 0, End: 500}

	for _, m := range AllMetrics {
		t.Run(m.String(), func(t *testing.T) {
			res, err := engine.Compute("02", m, raw)
			if err != nil {
				t.Fatalf("Compute() error = %v", err)
			}
			if res.Metric != m {
				t.Errorf("Metric = %v, want %v", res.Metric, m)
			}
			values := []float64{res.Value, res.NegativeWork, res.PositiveWork}
			for _, v := range values {
				if math.IsNaN(v) || math.IsInf(v, 0) {
					t.Errorf("result %+v is not finite", res)
				}
			}
			switch m {
			case MetricWork:
				if res.NegativeWork > 0 || res.PositiveWork < 0 {
					t.Errorf("work = %+v, want negative <= 0 <= positive", res)
				}
			default:
				if res.Value <= 0 {
					t.Errorf("value = %v, want > 0", res.Value)
				}
			}
		})
	}
}

func TestEngineMissingTrial(t *testing.T) {
	engine, _ := scenarioEngine(t)

	for _, m := range AllMetrics {
		res, err := engine.Compute("99", m, frames.Single{Start: 0, End: 500})
		if !errors.Is(err, kinematics.ErrNoTrialData) {
			t.Fatalf("%v: error = %v, want ErrNoTrialData", m, err)
		}
		if res != (Result{Metric: m}) {
			t.Errorf("%v: result = %+v, want zero", m, res)
		}
	}
}

func TestEngineSplitScenario(t *testing.T) {
	engine, rec := scenarioEngine(t)
	raw := frames.Split{Start: 0, End: 500, GapStart: 0, GapEnd: 60}
	// With 35 rows skipped this resolves to [1, 465) without [1, 25)

	t.Run("distance", func(t *testing.T) {
		got, err := engine.Compute("02", MetricDistance, raw)
		if err != nil {
			t.Fatal(err)
		}
		first, _ := DistanceCovered(rec, frames.Single{Start: 1, End: 1})
		second, _ := DistanceCovered(rec, frames.Single{Start: 25, End: 465})
		if math.Abs(got.Value-(first+second)) > tolerance {
			t.Errorf("distance = %v, want %v", got.Value, first+second)
		}
		single, _ := engine.Compute("02", MetricDistance, frames.Single{Start: 0, End: 500})
		if math.Abs(got.Value-single.Value) < tolerance {
			t.Error("split distance should differ from the single-range distance")
		}
	})

	t.Run("work", func(t *testing.T) {
		got, err := engine.Compute("02", MetricWork, raw)
		if err != nil {
			t.Fatal(err)
		}
		er, _ := kinematics.DeriveEnergy(rec, 82.2, "Y")
		n1, p1, _ := ExternalWork(er, frames.Single{Start: 1, End: 1})
		n2, p2, _ := ExternalWork(er, frames.Single{Start: 25, End: 465})
		if math.Abs(got.NegativeWork-(n1+n2)) > tolerance || math.Abs(got.PositiveWork-(p1+p2)) > tolerance {
			t.Errorf("work = %+v, want (%v, %v)", got, n1+n2, p1+p2)
		}
	})

	t.Run("player load", func(t *testing.T) {
		got, err := engine.Compute("02", MetricPlayerLoad, raw)
		if err != nil {
			t.Fatal(err)
		}
		first, _ := PlayerLoad(rec, frames.Single{Start: 1, End: 1})
		// after the gap the window ends one frame early
		second, _ := PlayerLoad(rec, frames.Single{Start: 25, End: 464})
		if math.Abs(got.Value-(first+second)) > tolerance {
			t.Errorf("player load = %v, want %v", got.Value, first+second)
		}
	})
}

func TestEngineWorkWithoutVerticalChannel(t *testing.T) {
	engine, rec := scenarioEngine(t)
	flat := *rec
	flat.Position[1] = nil
	engine.src = stubSource{"02": &flat}

	res, err := engine.Compute("02", MetricWork, frames.Single{Start: 0, End: 500})
	if err != nil {
		t.Fatalf("Compute() error = %v, want kinetic-only work", err)
	}
	if res.PositiveWork <= 0 {
		t.Errorf("positive work = %v, want > 0 from kinetic energy", res.PositiveWork)
	}
}

func TestParseMetric(t *testing.T) {
	tests := []struct {
		in      string
		want    Metric
		wantErr bool
	}{
		{"work", MetricWork, false},
		{"Work Done", MetricWork, false},
		{"distance", MetricDistance, false},
		{"Distance Covered", MetricDistance, false},
		{"player-load", MetricPlayerLoad, false},
		{"Player Load", MetricPlayerLoad, false},
		{"player_load", MetricPlayerLoad, false},
		{"speed", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMetric(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseMetric(%q) error = %v", tt.in, err)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseMetric(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
