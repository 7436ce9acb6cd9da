package service

import (
	"errors"
	"fmt"

	"court-kinetics/internal/analysis"
	"court-kinetics/internal/frames"
	"court-kinetics/internal/points"
	"court-kinetics/internal/store"
)

// ErrNoTrace is returned when a point's energy trace cannot be rebuilt
var ErrNoTrace = errors.New("energy trace unavailable")

// QueryService provides data access for the results viewer
type QueryService struct {
	db     *store.DB
	engine *analysis.Engine // optional, for energy traces
	points points.Map       // optional, for energy traces
}

// NewQueryService creates a query service. engine and pm may be nil, in
// which case EnergyTrace returns ErrNoTrace.
func NewQueryService(db *store.DB, engine *analysis.Engine, pm points.Map) *QueryService {
	return &QueryService{db: db, engine: engine, points: pm}
}

// PointSummary gathers every metric stored for one point
type PointSummary struct {
	Trial        string
	Point        int
	FrameRange   string
	Distance     *float64
	PlayerLoad   *float64
	NegativeWork *float64
	PositiveWork *float64
	NoData       bool
}

// Totals sums the metrics of a run over its points
type Totals struct {
	Points       int
	NoData       int
	Distance     float64
	PlayerLoad   float64
	NegativeWork float64
	PositiveWork float64
}

// RunView is everything the viewer shows for one run
type RunView struct {
	Run      store.Run
	Points   []PointSummary
	Sessions []store.HeartRateSession
	Totals   Totals
}

// LatestRun returns the view of the most recent run
func (q *QueryService) LatestRun() (*RunView, error) {
	run, err := q.db.LatestRun()
	if err != nil {
		return nil, err
	}
	return q.view(run)
}

// GetRun returns the view of a run
func (q *QueryService) GetRun(id string) (*RunView, error) {
	run, err := q.db.GetRun(id)
	if err != nil {
		return nil, err
	}
	return q.view(run)
}

// RecentRuns lists the most recent runs
func (q *QueryService) RecentRuns() ([]store.Run, error) {
	return q.db.ListRuns(RecentRunsLimit)
}

func (q *QueryService) view(run *store.Run) (*RunView, error) {
	metrics, err := q.db.GetPointMetrics(run.ID)
	if err != nil {
		return nil, fmt.Errorf("getting point metrics: %w", err)
	}
	sessions, err := q.db.GetHeartRateSessions(run.ID)
	if err != nil {
		return nil, fmt.Errorf("getting heart rate sessions: %w", err)
	}

	v := &RunView{Run: *run, Sessions: sessions}
	v.Points = SummarizePoints(metrics)
	v.Totals = totals(v.Points)
	return v, nil
}

// SummarizePoints pivots per-metric rows into one summary per point,
// keeping the trial then point order of metrics
func SummarizePoints(metrics []store.PointMetric) []PointSummary {
	var out []PointSummary
	index := make(map[PointKey]int)

	for _, m := range metrics {
		key := PointKey{Trial: m.Trial, Point: m.Point}
		i, ok := index[key]
		if !ok {
			i = len(out)
			index[key] = i
			out = append(out, PointSummary{Trial: m.Trial, Point: m.Point, FrameRange: m.FrameRange})
		}
		ps := &out[i]
		ps.NoData = ps.NoData || m.NoData

		switch m.Metric {
		case analysis.MetricDistance.String():
			ps.Distance = m.Value
		case analysis.MetricPlayerLoad.String():
			ps.PlayerLoad = m.Value
		case analysis.MetricWork.String():
			ps.NegativeWork = m.NegativeWork
			ps.PositiveWork = m.PositiveWork
		}
	}
	return out
}

func totals(pts []PointSummary) Totals {
	t := Totals{Points: len(pts)}
	for _, p := range pts {
		if p.NoData {
			t.NoData++
		}
		t.Distance += deref(p.Distance)
		t.PlayerLoad += deref(p.PlayerLoad)
		t.NegativeWork += deref(p.NegativeWork)
		t.PositiveWork += deref(p.PositiveWork)
	}
	return t
}

// EnergyTrace rebuilds the total energy of a point, downsampled to at most
// TraceWidth samples
func (q *QueryService) EnergyTrace(trial string, point int) ([]float64, error) {
	if q.engine == nil || q.points == nil {
		return nil, ErrNoTrace
	}
	raw, ok := q.points[trial][point]
	if !ok {
		return nil, fmt.Errorf("trial %s point %d: %w", trial, point, ErrNoTrace)
	}

	rec, err := q.engine.Record(trial)
	if err != nil {
		return nil, err
	}
	er, err := q.engine.Energy(rec)
	if err != nil {
		return nil, err
	}

	bounded, err := frames.Bound(frames.Resolve(raw, q.engine.RowsToSkip()), rec.Len())
	if err != nil {
		return nil, err
	}
	var start, end int
	switch b := bounded.(type) {
	case frames.Single:
		start, end = b.Start, b.End
	case frames.Split:
		start, end = b.Start, b.End
	}
	return Downsample(er.Total[start:end], TraceWidth), nil
}
