package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	_ "modernc.org/sqlite"

	"court-kinetics/internal/analysis"
	"court-kinetics/internal/config"
	"court-kinetics/internal/export"
	"court-kinetics/internal/frames"
	"court-kinetics/internal/plots"
	"court-kinetics/internal/points"
	"court-kinetics/internal/store"
)

func setupTestDB(t *testing.T) *store.DB {
	t.Helper()

	sqlDB, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	db, err := store.NewTestDB(sqlDB)
	if err != nil {
		t.Fatalf("Failed to set up test database: %v", err)
	}
	t.Cleanup(func() {
		db.Close()
	})
	return db
}

// writeKinematics writes position and velocity exports for trial with n
// frames. The keypoint moves 0.01 m along X per frame and bobs vertically.
func writeKinematics(t *testing.T, dir, trial string, n int) {
	t.Helper()

	header := "BodyKinematics\nversion=1\nendheader\ntime\tcenter_of_mass_X\tcenter_of_mass_Y\tcenter_of_mass_Z\n"
	var pos, vel strings.Builder
	pos.WriteString(header)
	vel.WriteString(header)
	for i := 0; i < n; i++ {
		tm := float64(i) * 0.01
		y := 1 + 0.05*math.Sin(float64(i)/8)
		vy := 0.05 / 8 / 0.01 * math.Cos(float64(i)/8)
		fmt.Fprintf(&pos, "%g\t%g\t%g\t%g\n", tm, float64(i)*0.01, y, 0.0)
		fmt.Fprintf(&vel, "%g\t%g\t%g\t%g\n", tm, 1.0, vy, 0.0)
	}

	files := map[string]string{
		"trial_" + trial + "_BodyKinematics_pos_global.sto": pos.String(),
		"trial_" + trial + "_BodyKinematics_vel_global.sto": vel.String(),
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
}

func pipelineConfig(t *testing.T) config.Config {
	t.Helper()
	root := t.TempDir()

	cfg := config.DefaultConfig()
	cfg.Participant = config.ParticipantConfig{ID: "P05", MassKG: 82.2, Age: 20, RestingHR: 60}
	cfg.Kinematics.Folder = filepath.Join(root, "kinematics")
	cfg.Output.DataPath = filepath.Join(root, "out")
	cfg.Output.PlotPath = filepath.Join(root, "plots")
	cfg.HeartRate.Folder = filepath.Join(root, "hr")
	cfg.HeartRate.Discipline = "Men's Doubles"
	cfg.HeartRate.StartRow = 0
	cfg.HeartRate.EndRow = 0

	if err := os.MkdirAll(cfg.Kinematics.Folder, 0755); err != nil {
		t.Fatal(err)
	}
	return cfg
}

func TestPipelineMetrics(t *testing.T) {
	cfg := pipelineConfig(t)
	// 600 exported frames, 35 discarded by the loader
	writeKinematics(t, cfg.Kinematics.Folder, "01", 600)

	pm := points.Map{
		"01": {
			1: frames.Single{Start: 0, End: 300},
			2: frames.Single{Start: 320, End: 600},
		},
		"04": {
			1: frames.Single{Start: 0, End: 100}, // no files
		},
	}

	db := setupTestDB(t)
	p := NewPipeline(cfg, db)

	result, err := p.Metrics(context.Background(), pm, analysis.AllMetrics, nil)
	if err != nil {
		t.Fatalf("Metrics() error = %v", err)
	}
	if len(result.Errors) != 0 {
		t.Errorf("unexpected errors: %v", result.Errors)
	}
	if len(result.Files) != 3 {
		t.Fatalf("wrote %d files, want 3", len(result.Files))
	}
	for _, m := range analysis.AllMetrics {
		if _, err := os.Stat(filepath.Join(cfg.Output.DataPath, export.FileName(m))); err != nil {
			t.Errorf("%s not written: %v", export.FileName(m), err)
		}
	}

	// point 1 resolves to [1, 265): 263 steps of 0.01 m along X plus vertical motion
	dist, err := os.ReadFile(filepath.Join(cfg.Output.DataPath, export.DistanceFile))
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(dist)), "\n")
	if len(lines) != 4 {
		t.Fatalf("distance_covered.csv has %d lines, want header + 3", len(lines))
	}
	if !strings.HasPrefix(lines[3], "04,1,0") {
		t.Errorf("missing trial row = %q, want zero distance", lines[3])
	}

	count, err := db.CountPointMetrics(result.RunID)
	if err != nil {
		t.Fatal(err)
	}
	if count != 9 {
		t.Errorf("stored %d point metrics, want 9", count)
	}

	run, err := db.GetRun(result.RunID)
	if err != nil {
		t.Fatal(err)
	}
	if run.FinishedAt == nil || run.PointsTotal != 3 || run.Participant != "P05" {
		t.Errorf("run = %+v", run)
	}

	q := NewQueryService(db, p.Engine(), pm)
	view, err := q.LatestRun()
	if err != nil {
		t.Fatalf("LatestRun() error = %v", err)
	}
	if view.Totals.Points != 3 || view.Totals.NoData != 1 {
		t.Errorf("totals = %+v, want 3 points with 1 without data", view.Totals)
	}
	if view.Totals.Distance < 2.63 {
		t.Errorf("total distance = %v, want at least the horizontal travel", view.Totals.Distance)
	}
	if view.Totals.NegativeWork > 0 || view.Totals.PositiveWork < 0 {
		t.Errorf("work signs wrong: %+v", view.Totals)
	}

	first := view.Points[0]
	if first.Trial != "01" || first.Point != 1 || first.Distance == nil || first.PlayerLoad == nil || first.PositiveWork == nil {
		t.Errorf("first point = %+v", first)
	}

	trace, err := q.EnergyTrace("01", 1)
	if err != nil {
		t.Fatalf("EnergyTrace() error = %v", err)
	}
	if len(trace) == 0 || len(trace) > TraceWidth {
		t.Errorf("len(trace) = %d, want 1..%d", len(trace), TraceWidth)
	}
	if _, err := q.EnergyTrace("04", 1); err == nil {
		t.Error("EnergyTrace() expected error for a trial without data")
	}
}

func TestPipelineMetricsProgress(t *testing.T) {
	cfg := pipelineConfig(t)
	writeKinematics(t, cfg.Kinematics.Folder, "01", 100)
	pm := points.Map{"01": {1: frames.Whole{}}}

	progress := make(chan Progress)
	phases := make(map[string]int)
	done := make(chan struct{})
	go func() {
		for pr := range progress {
			phases[pr.Phase]++
		}
		close(done)
	}()

	if _, err := NewPipeline(cfg, nil).Metrics(context.Background(), pm, analysis.AllMetrics, progress); err != nil {
		t.Fatal(err)
	}
	<-done

	for _, m := range analysis.AllMetrics {
		if phases[m.String()] != 1 {
			t.Errorf("phase %s got %d updates, want 1", m, phases[m.String()])
		}
	}
}

func TestPipelinePlots(t *testing.T) {
	cfg := pipelineConfig(t)
	writeKinematics(t, cfg.Kinematics.Folder, "02", 300)
	pm := points.Map{
		"02": {
			1: frames.Single{Start: 0, End: 150},
			2: frames.Single{Start: 200, End: 100}, // inverted
		},
		"03": {1: frames.Single{Start: 0, End: 100}},
	}

	result, err := NewPipeline(cfg, nil).Plots(context.Background(), pm, plots.Energy, nil)
	if err != nil {
		t.Fatalf("Plots() error = %v", err)
	}
	if len(result.Files) != 1 {
		t.Fatalf("wrote %v, want one plot", result.Files)
	}
	want := filepath.Join(cfg.Output.PlotPath, "Energy", "trial_02_point1_Energy.png")
	if result.Files[0] != want {
		t.Errorf("plot = %s, want %s", result.Files[0], want)
	}
	if len(result.Errors) != 1 || !errors.Is(result.Errors[0], frames.ErrRange) {
		t.Errorf("errors = %v, want one range error", result.Errors)
	}
}

func TestPipelineHeartRate(t *testing.T) {
	cfg := pipelineConfig(t)
	dir := filepath.Join(cfg.HeartRate.Folder, cfg.HeartRate.Discipline)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}

	var b strings.Builder
	b.WriteString("Name,P05\nDate,01-03-2024\nSample rate,Time,HR (bpm)\n")
	for i := 0; i < 120; i++ {
		// one minute in zone 3 (140-160 for age 20) then one in zone 5
		hr := 150
		if i >= 60 {
			hr = 190
		}
		fmt.Fprintf(&b, "%d,00:%02d:%02d,%d\n", i+1, i/60, i%60, hr)
	}
	if err := os.WriteFile(filepath.Join(dir, "p05.csv"), []byte(b.String()), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "broken.csv"), []byte("only\n"), 0644); err != nil {
		t.Fatal(err)
	}

	db := setupTestDB(t)
	result, err := NewPipeline(cfg, db).HeartRate(context.Background())
	if err != nil {
		t.Fatalf("HeartRate() error = %v", err)
	}
	if len(result.Sessions) != 1 || len(result.Errors) != 1 {
		t.Fatalf("sessions = %d, errors = %v", len(result.Sessions), result.Errors)
	}

	s := result.Sessions[0]
	if math.Abs(s.Load.TRIMP-(3+5)) > 1e-9 {
		t.Errorf("TRIMP = %v, want 8", s.Load.TRIMP)
	}
	if s.Summary.Average != 170 || s.Summary.Max != 190 {
		t.Errorf("summary = %+v", s.Summary)
	}
	if s.Banister <= 0 {
		t.Errorf("Banister TRIMP = %v, want positive", s.Banister)
	}

	if _, err := os.Stat(result.File); err != nil {
		t.Errorf("heart_rate.csv not written: %v", err)
	}
	if len(result.Plots) != 1 {
		t.Errorf("plots = %v, want one", result.Plots)
	}

	sessions, err := db.GetHeartRateSessions(result.RunID)
	if err != nil || len(sessions) != 1 {
		t.Fatalf("stored sessions = %v, %v", sessions, err)
	}
	if sessions[0].DurationSeconds != 119 {
		t.Errorf("DurationSeconds = %d, want 119", sessions[0].DurationSeconds)
	}
}

func TestSummarizePoints(t *testing.T) {
	v := func(f float64) *float64 { return &f }
	metrics := []store.PointMetric{
		{Trial: "01", Point: 1, Metric: "distance", Value: v(10)},
		{Trial: "01", Point: 1, Metric: "player-load", Value: v(3)},
		{Trial: "01", Point: 1, Metric: "work", NegativeWork: v(-5), PositiveWork: v(6)},
		{Trial: "01", Point: 2, Metric: "distance", Value: v(0), NoData: true},
	}

	got := SummarizePoints(metrics)
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if *got[0].Distance != 10 || *got[0].PlayerLoad != 3 || *got[0].NegativeWork != -5 || *got[0].PositiveWork != 6 {
		t.Errorf("point 1 = %+v", got[0])
	}
	if !got[1].NoData || got[1].PlayerLoad != nil {
		t.Errorf("point 2 = %+v", got[1])
	}

	tot := totals(got)
	if tot.Distance != 10 || tot.NoData != 1 || tot.Points != 2 {
		t.Errorf("totals = %+v", tot)
	}
}
