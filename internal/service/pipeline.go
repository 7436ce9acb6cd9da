package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	"court-kinetics/internal/analysis"
	"court-kinetics/internal/config"
	"court-kinetics/internal/export"
	"court-kinetics/internal/frames"
	"court-kinetics/internal/kinematics"
	"court-kinetics/internal/plots"
	"court-kinetics/internal/points"
	"court-kinetics/internal/store"
)

// Pipeline orchestrates metric extraction, export, plotting and persistence
type Pipeline struct {
	cfg    config.Config
	cache  *kinematics.Cache
	engine *analysis.Engine
	runner *BatchRunner
	hr     *HeartRateService
	db     *store.DB
}

// NewPipeline wires the loader, record cache, engine and batch runner for cfg.
// db may be nil, in which case results are only written as CSV.
func NewPipeline(cfg config.Config, db *store.DB) *Pipeline {
	return NewPipelineWithSource(cfg, kinematics.NewLoader(cfg.Kinematics), db)
}

// NewPipelineWithSource is NewPipeline reading records from src
func NewPipelineWithSource(cfg config.Config, src kinematics.Source, db *store.DB) *Pipeline {
	cache := kinematics.NewCache(src)
	engine := analysis.NewEngine(cache, cfg)
	return &Pipeline{
		cfg:    cfg,
		cache:  cache,
		engine: engine,
		runner: NewBatchRunner(engine, cfg.Batch),
		hr:     NewHeartRateService(cfg),
		db:     db,
	}
}

// Engine returns the pipeline's metric engine
func (p *Pipeline) Engine() *analysis.Engine {
	return p.engine
}

// Progress reports progress during a pipeline phase
type Progress struct {
	Phase     string // metric name, "plots" or "heart_rate"
	Total     int
	Completed int
	Current   string
}

// MetricsResult contains the results of a metrics run
type MetricsResult struct {
	RunID   string
	Batches []*BatchResult
	Files   []string
	Points  int
	Skipped int
	Errors  []error
	Elapsed time.Duration
}

// Metrics computes each metric for every point of pm, writes one CSV per
// metric to the data path and stores the results as a new run.
func (p *Pipeline) Metrics(ctx context.Context, pm points.Map, metrics []analysis.Metric, progress chan<- Progress) (*MetricsResult, error) {
	if progress != nil {
		defer close(progress)
	}

	start := time.Now()
	result := &MetricsResult{Points: pm.Len()}

	if p.db != nil {
		run := p.newRun()
		if err := p.db.CreateRun(run); err != nil {
			return result, fmt.Errorf("creating run: %w", err)
		}
		result.RunID = run.ID
	}

	for _, m := range metrics {
		batch, err := p.runMetric(ctx, pm, m, progress)
		if err != nil {
			return result, fmt.Errorf("computing %s: %w", m, err)
		}
		result.Batches = append(result.Batches, batch)
		result.Skipped += batch.Skipped
		result.Errors = append(result.Errors, batch.Errors...)

		rows := batch.Rows()
		path, err := export.WriteMetricFile(p.cfg.Output.DataPath, m, exportRows(rows))
		if err != nil {
			return result, fmt.Errorf("exporting %s: %w", m, err)
		}
		result.Files = append(result.Files, path)

		if p.db != nil {
			if err := p.db.SavePointMetrics(result.RunID, storeRows(rows, m)); err != nil {
				return result, fmt.Errorf("storing %s: %w", m, err)
			}
		}
	}

	if p.db != nil {
		if err := p.db.FinishRun(result.RunID, result.Points, result.Skipped, len(result.Errors)); err != nil {
			return result, fmt.Errorf("finishing run: %w", err)
		}
	}

	result.Elapsed = time.Since(start)
	return result, nil
}

func (p *Pipeline) runMetric(ctx context.Context, pm points.Map, m analysis.Metric, progress chan<- Progress) (*BatchResult, error) {
	if progress == nil {
		return p.runner.Run(ctx, pm, m, nil)
	}

	inner := make(chan BatchProgress)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for bp := range inner {
			progress <- Progress{
				Phase:     m.String(),
				Total:     bp.Total,
				Completed: bp.Completed,
				Current:   "trial " + bp.Trial,
			}
		}
	}()

	batch, err := p.runner.Run(ctx, pm, m, inner)
	<-done
	return batch, err
}

func (p *Pipeline) newRun() *store.Run {
	return &store.Run{
		Participant:      p.cfg.Participant.ID,
		MassKG:           p.cfg.Participant.MassKG,
		Keypoint:         p.cfg.Kinematics.Keypoint,
		RowsToSkip:       p.cfg.Kinematics.RowsToSkip,
		KinematicsFolder: p.cfg.Kinematics.Folder,
		PointsFile:       p.cfg.Points.File,
	}
}

func exportRows(rows []Row) []export.MetricRow {
	out := make([]export.MetricRow, len(rows))
	for i, r := range rows {
		out[i] = export.MetricRow{Trial: r.Trial, Point: r.Point, Result: r.Result}
	}
	return out
}

func storeRows(rows []Row, m analysis.Metric) []store.PointMetric {
	out := make([]store.PointMetric, len(rows))
	for i, r := range rows {
		pm := store.PointMetric{
			Trial:  r.Trial,
			Point:  r.Point,
			Metric: m.String(),
			NoData: r.NoData,
		}
		if r.Range != nil {
			pm.FrameRange = r.Range.String()
		}
		if m == analysis.MetricWork {
			neg, pos := r.Result.NegativeWork, r.Result.PositiveWork
			pm.NegativeWork, pm.PositiveWork = &neg, &pos
		} else {
			v := r.Result.Value
			pm.Value = &v
		}
		out[i] = pm
	}
	return out
}

// PlotResult contains the figures written by a plots run
type PlotResult struct {
	Files  []string
	Errors []error
}

// Plots renders a figure of data type dt for every point of pm under
// <plot_path>/<dt>/. Trials without kinematic data are skipped.
func (p *Pipeline) Plots(ctx context.Context, pm points.Map, dt plots.DataType, progress chan<- Progress) (*PlotResult, error) {
	if progress != nil {
		defer close(progress)
	}

	dir := filepath.Join(p.cfg.Output.PlotPath, string(dt))
	result := &PlotResult{}
	trials := pm.Trials()

	for i, trial := range trials {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		if progress != nil {
			progress <- Progress{Phase: "plots", Total: len(trials), Completed: i, Current: "trial " + trial}
		}

		rec, err := p.cache.Record(trial)
		if errors.Is(err, kinematics.ErrNoTrialData) {
			log.Printf("no data for trial %s, skipping plots", trial)
			continue
		}
		if err != nil {
			result.Errors = append(result.Errors, err)
			continue
		}

		var er *kinematics.EnergyRecord
		if dt == plots.Energy {
			er, err = p.engine.Energy(rec)
			if err != nil {
				result.Errors = append(result.Errors, fmt.Errorf("trial %s: %w", trial, err))
				continue
			}
		}

		for _, pt := range pm.Points(trial) {
			r := frames.Resolve(pm[trial][pt], p.engine.RowsToSkip())
			fig, err := plots.PointFigure(rec, er, trial, pt, r, dt)
			if err != nil {
				log.Printf("trial %s point %d: skipping plot: %v", trial, pt, err)
				result.Errors = append(result.Errors, fmt.Errorf("trial %s point %d: %w", trial, pt, err))
				continue
			}
			path := filepath.Join(dir, plots.PointFileName(trial, pt, dt))
			if err := plots.Save(fig, path); err != nil {
				result.Errors = append(result.Errors, err)
				continue
			}
			result.Files = append(result.Files, path)
		}
	}

	if progress != nil {
		progress <- Progress{Phase: "plots", Total: len(trials), Completed: len(trials)}
	}
	return result, nil
}

// HeartRateRunResult contains the results of a heart rate run
type HeartRateRunResult struct {
	RunID    string
	Sessions []SessionResult
	File     string
	Plots    []string
	Errors   []error
}

// HeartRate scores the configured discipline, writes heart_rate.csv, plots
// each session window when a plot path is set and stores the sessions.
func (p *Pipeline) HeartRate(ctx context.Context) (*HeartRateRunResult, error) {
	hr, err := p.hr.Process(ctx)
	if err != nil {
		return nil, fmt.Errorf("processing heart rate files: %w", err)
	}
	result := &HeartRateRunResult{Sessions: hr.Sessions, Errors: hr.Errors}

	rows := make([]export.HeartRateRow, len(hr.Sessions))
	for i, s := range hr.Sessions {
		rows[i] = s.ExportRow()
	}
	result.File, err = export.WriteHeartRateFile(p.cfg.Output.DataPath, rows)
	if err != nil {
		return result, fmt.Errorf("exporting heart rate: %w", err)
	}

	if p.cfg.Output.PlotPath != "" {
		dir := filepath.Join(p.cfg.Output.PlotPath, "HeartRate")
		for _, s := range hr.Sessions {
			name := strings.TrimSuffix(s.File, filepath.Ext(s.File)) + ".png"
			path := filepath.Join(dir, name)
			if err := plots.Save(plots.HeartRateFigure(s.File, s.Window), path); err != nil {
				result.Errors = append(result.Errors, err)
				continue
			}
			result.Plots = append(result.Plots, path)
		}
	}

	if p.db != nil {
		run := p.newRun()
		if err := p.db.CreateRun(run); err != nil {
			return result, fmt.Errorf("creating run: %w", err)
		}
		result.RunID = run.ID

		sessions := make([]store.HeartRateSession, len(hr.Sessions))
		for i, s := range hr.Sessions {
			sessions[i] = s.StoreSession()
		}
		if err := p.db.SaveHeartRateSessions(run.ID, sessions); err != nil {
			return result, fmt.Errorf("storing heart rate sessions: %w", err)
		}
		if err := p.db.FinishRun(run.ID, 0, 0, len(result.Errors)); err != nil {
			return result, fmt.Errorf("finishing run: %w", err)
		}
	}

	return result, nil
}
