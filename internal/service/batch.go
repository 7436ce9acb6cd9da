package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"court-kinetics/internal/analysis"
	"court-kinetics/internal/config"
	"court-kinetics/internal/frames"
	"court-kinetics/internal/kinematics"
	"court-kinetics/internal/points"
)

// PointKey identifies a point within a trial
type PointKey struct {
	Trial string
	Point int
}

// Row is one computed point of a batch
type Row struct {
	PointKey
	Range  frames.Range // raw, as listed in the point table
	Result analysis.Result
	NoData bool
}

// BatchProgress reports progress while a batch runs
type BatchProgress struct {
	Metric    analysis.Metric
	Trial     string
	Total     int // trials
	Completed int
}

// BatchResult contains the results of one metric over a point map
type BatchResult struct {
	Metric  analysis.Metric
	Results map[PointKey]analysis.Result
	NoData  map[PointKey]bool
	Skipped int
	Errors  []error

	ranges points.Map
}

// Rows returns the computed points ordered by trial then point
func (b *BatchResult) Rows() []Row {
	rows := make([]Row, 0, len(b.Results))
	for k, res := range b.Results {
		rows = append(rows, Row{
			PointKey: k,
			Range:    b.ranges[k.Trial][k.Point],
			Result:   res,
			NoData:   b.NoData[k],
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Trial != rows[j].Trial {
			return rows[i].Trial < rows[j].Trial
		}
		return rows[i].Point < rows[j].Point
	})
	return rows
}

// BatchRunner computes a metric for every point of a point map
type BatchRunner struct {
	engine  *analysis.Engine
	workers int
}

// NewBatchRunner creates a runner processing up to cfg.Workers trials at once
func NewBatchRunner(engine *analysis.Engine, cfg config.BatchConfig) *BatchRunner {
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	return &BatchRunner{engine: engine, workers: workers}
}

// Run computes metric m for every point of pm. Trials are processed
// concurrently; the points of one trial run in order.
//
// A trial without kinematic data yields zero results for its points. Any
// other per-point failure skips that point and is collected in Errors. Run
// itself only fails when ctx is cancelled.
func (r *BatchRunner) Run(ctx context.Context, pm points.Map, m analysis.Metric, progress chan<- BatchProgress) (*BatchResult, error) {
	if progress != nil {
		defer close(progress)
	}

	result := &BatchResult{
		Metric:  m,
		Results: make(map[PointKey]analysis.Result),
		NoData:  make(map[PointKey]bool),
		ranges:  pm,
	}

	var (
		mu        sync.Mutex
		completed int
	)
	trials := pm.Trials()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)

	for _, trial := range trials {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			results, noData, errs := r.runTrial(trial, pm[trial], m)

			mu.Lock()
			defer mu.Unlock()
			for k, res := range results {
				result.Results[k] = res
			}
			for k := range noData {
				result.NoData[k] = true
			}
			result.Skipped += len(errs)
			result.Errors = append(result.Errors, errs...)
			completed++
			if progress != nil {
				progress <- BatchProgress{Metric: m, Trial: trial, Total: len(trials), Completed: completed}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return result, err
	}
	// cancellation before any worker noticed it
	if err := ctx.Err(); err != nil {
		return result, err
	}
	return result, nil
}

func (r *BatchRunner) runTrial(trial string, pts map[int]frames.Range, m analysis.Metric) (map[PointKey]analysis.Result, map[PointKey]bool, []error) {
	results := make(map[PointKey]analysis.Result, len(pts))
	noData := make(map[PointKey]bool)
	var errs []error

	numbers := make([]int, 0, len(pts))
	for p := range pts {
		numbers = append(numbers, p)
	}
	sort.Ints(numbers)

	for _, p := range numbers {
		key := PointKey{Trial: trial, Point: p}
		res, err := r.engine.Compute(trial, m, pts[p])
		switch {
		case err == nil:
			results[key] = res
		case errors.Is(err, kinematics.ErrNoTrialData):
			log.Printf("trial %s point %d: no kinematic data, using zero %s", trial, p, m)
			results[key] = analysis.Result{Metric: m}
			noData[key] = true
		default:
			log.Printf("trial %s point %d: skipping %s: %v", trial, p, m, err)
			errs = append(errs, fmt.Errorf("trial %s point %d: %w", trial, p, err))
		}
	}
	return results, noData, errs
}
