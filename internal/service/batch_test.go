package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"court-kinetics/internal/analysis"
	"court-kinetics/internal/config"
	"court-kinetics/internal/frames"
	"court-kinetics/internal/kinematics"
	"court-kinetics/internal/points"
)

// stubSource serves in-memory records; unknown trials have no data
type stubSource map[string]*kinematics.Record

func (s stubSource) Record(trial string) (*kinematics.Record, error) {
	rec, ok := s[trial]
	if !ok {
		return nil, fmt.Errorf("trial %s: %w", trial, kinematics.ErrNoTrialData)
	}
	return rec, nil
}

// walkingRecord moves 0.01 m along X per frame at 100 Hz
func walkingRecord(trial string, n int) *kinematics.Record {
	rec := &kinematics.Record{
		Trial:    trial,
		Keypoint: "center_of_mass",
		Planes:   [3]string{"X", "Y", "Z"},
		Time:     make([]float64, n),
	}
	for axis := 0; axis < 3; axis++ {
		rec.Position[axis] = make([]float64, n)
		rec.Velocity[axis] = make([]float64, n)
		rec.Acceleration[axis] = make([]float64, n)
		rec.Acceleration[axis][0] = math.NaN()
	}
	for i := 0; i < n; i++ {
		rec.Time[i] = float64(i) * 0.01
		rec.Position[0][i] = float64(i) * 0.01
		rec.Position[1][i] = 1
		rec.Velocity[0][i] = 1
	}
	return rec
}

func testConfig() config.Config {
	cfg := config.DefaultConfig()
	cfg.Participant.MassKG = 82.2
	cfg.Kinematics.RowsToSkip = 0
	return cfg
}

func newTestRunner(src kinematics.Source, workers int) *BatchRunner {
	cfg := testConfig()
	cfg.Batch.Workers = workers
	engine := analysis.NewEngine(kinematics.NewCache(src), cfg)
	return NewBatchRunner(engine, cfg.Batch)
}

func TestBatchRunnerRun(t *testing.T) {
	src := stubSource{"01": walkingRecord("01", 200)}
	pm := points.Map{
		"01": {
			1: frames.Single{Start: 40, End: 60},
			2: frames.Single{Start: 100, End: 50}, // inverted
			3: frames.Single{Start: 150, End: 400},
		},
		"02": {
			1: frames.Single{Start: 0, End: 10},
		},
	}

	runner := newTestRunner(src, 4)
	result, err := runner.Run(context.Background(), pm, analysis.MetricDistance, nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if result.Skipped != 1 || len(result.Errors) != 1 {
		t.Fatalf("Skipped = %d, Errors = %v; want one skipped point", result.Skipped, result.Errors)
	}
	if !errors.Is(result.Errors[0], frames.ErrRange) {
		t.Errorf("error = %v, want ErrRange", result.Errors[0])
	}

	rows := result.Rows()
	if len(rows) != 3 {
		t.Fatalf("len(Rows()) = %d, want 3", len(rows))
	}

	want := []struct {
		key    PointKey
		value  float64
		noData bool
	}{
		{PointKey{"01", 1}, 19 * 0.01, false},
		{PointKey{"01", 3}, 49 * 0.01, false}, // end clamped to 200
		{PointKey{"02", 1}, 0, true},
	}
	for i, w := range want {
		if rows[i].PointKey != w.key {
			t.Errorf("rows[%d] = %v, want %v", i, rows[i].PointKey, w.key)
			continue
		}
		if math.Abs(rows[i].Result.Value-w.value) > 1e-9 {
			t.Errorf("rows[%d].Value = %v, want %v", i, rows[i].Result.Value, w.value)
		}
		if rows[i].NoData != w.noData {
			t.Errorf("rows[%d].NoData = %v, want %v", i, rows[i].NoData, w.noData)
		}
		if rows[i].Range == nil {
			t.Errorf("rows[%d].Range not carried from the point map", i)
		}
	}
}

func TestBatchRunnerDeterministic(t *testing.T) {
	src := stubSource{}
	pm := points.Map{}
	for trial := 1; trial <= 12; trial++ {
		id := points.TrialID(trial)
		src[id] = walkingRecord(id, 100+trial*10)
		pm[id] = map[int]frames.Range{
			1: frames.Single{Start: 0, End: 50},
			2: frames.Split{Start: 10, End: 90, GapStart: 30, GapEnd: 40},
		}
	}

	for _, m := range analysis.AllMetrics {
		sequential, err := newTestRunner(src, 1).Run(context.Background(), pm, m, nil)
		if err != nil {
			t.Fatal(err)
		}
		parallel, err := newTestRunner(src, 8).Run(context.Background(), pm, m, nil)
		if err != nil {
			t.Fatal(err)
		}

		if len(sequential.Results) != 24 || len(parallel.Results) != 24 {
			t.Fatalf("%s: results %d / %d, want 24", m, len(sequential.Results), len(parallel.Results))
		}
		for k, r := range sequential.Results {
			if parallel.Results[k] != r {
				t.Errorf("%s %v: parallel %+v != sequential %+v", m, k, parallel.Results[k], r)
			}
		}
	}
}

func TestBatchRunnerProgress(t *testing.T) {
	src := stubSource{"01": walkingRecord("01", 100), "02": walkingRecord("02", 100)}
	pm := points.Map{
		"01": {1: frames.Whole{}},
		"02": {1: frames.Whole{}},
		"03": {1: frames.Whole{}},
	}

	progress := make(chan BatchProgress)
	var updates []BatchProgress
	done := make(chan struct{})
	go func() {
		for p := range progress {
			updates = append(updates, p)
		}
		close(done)
	}()

	if _, err := newTestRunner(src, 2).Run(context.Background(), pm, analysis.MetricPlayerLoad, progress); err != nil {
		t.Fatal(err)
	}
	<-done

	if len(updates) != 3 {
		t.Fatalf("got %d progress updates, want 3", len(updates))
	}
	last := updates[len(updates)-1]
	if last.Completed != 3 || last.Total != 3 {
		t.Errorf("last update = %+v, want 3/3", last)
	}
}

func TestBatchRunnerCancelled(t *testing.T) {
	src := stubSource{"01": walkingRecord("01", 100)}
	pm := points.Map{"01": {1: frames.Whole{}}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestRunner(src, 2).Run(ctx, pm, analysis.MetricDistance, nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
}

func TestNewBatchRunnerWorkers(t *testing.T) {
	r := NewBatchRunner(nil, config.BatchConfig{Workers: 0})
	if r.workers != 1 {
		t.Errorf("workers = %d, want 1 for an unset worker count", r.workers)
	}
}

func TestDownsample(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		width  int
		want   []float64
	}{
		{"empty", nil, 10, nil},
		{"shorter than width", []float64{1, math.NaN(), 3}, 10, []float64{1, 3}},
		{"buckets averaged", []float64{1, 3, 5, 7}, 2, []float64{2, 6}},
		{"nan bucket dropped", []float64{math.NaN(), math.NaN(), 5, 7}, 2, []float64{6}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Downsample(tt.values, tt.width)
			if len(got) != len(tt.want) {
				t.Fatalf("Downsample() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if math.Abs(got[i]-tt.want[i]) > 1e-9 {
					t.Errorf("Downsample()[%d] = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "0:00"},
		{59 * time.Second, "0:59"},
		{119 * time.Second, "1:59"},
		{time.Hour + 2*time.Minute + 3*time.Second, "1:02:03"},
		{1500 * time.Millisecond, "0:02"},
	}
	for _, tt := range tests {
		if got := FormatDuration(tt.d); got != tt.want {
			t.Errorf("FormatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}
