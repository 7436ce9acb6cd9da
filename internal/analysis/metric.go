package analysis

import (
	"fmt"
	"strings"
)

// Metric selects one of the point metrics
type Metric int

const (
	MetricWork       Metric = iota // negative and positive external mechanical work
	MetricDistance                 // distance covered by the keypoint
	MetricPlayerLoad               // accelerometry load (Boyd et al., 2011)
)

// AllMetrics lists every metric in export order
var AllMetrics = []Metric{MetricDistance, MetricPlayerLoad, MetricWork}

// String returns the command-line name of the metric
func (m Metric) String() string {
	switch m {
	case MetricWork:
		return "work"
	case MetricDistance:
		return "distance"
	case MetricPlayerLoad:
		return "player-load"
	default:
		return fmt.Sprintf("metric(%d)", int(m))
	}
}

// Label returns the human-readable name of the metric
func (m Metric) Label() string {
	switch m {
	case MetricWork:
		return "Work Done"
	case MetricDistance:
		return "Distance Covered"
	case MetricPlayerLoad:
		return "Player Load"
	default:
		return m.String()
	}
}

// ParseMetric accepts either the command-line name or the label
func ParseMetric(s string) (Metric, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for _, m := range AllMetrics {
		if key == m.String() || key == strings.ToLower(m.Label()) {
			return m, nil
		}
	}
	switch key {
	case "player_load", "playerload", "load":
		return MetricPlayerLoad, nil
	case "work_done", "emw":
		return MetricWork, nil
	}
	return 0, fmt.Errorf("unknown metric %q: options are work, distance, player-load", s)
}

// Result is the outcome of one metric over one point.
// Value carries distance or player load; work fills NegativeWork and PositiveWork.
type Result struct {
	Metric       Metric
	Value        float64
	NegativeWork float64
	PositiveWork float64
}

// Add returns the element-wise sum of two results of the same metric
func (r Result) Add(o Result) Result {
	return Result{
		Metric:       r.Metric,
		Value:        r.Value + o.Value,
		NegativeWork: r.NegativeWork + o.NegativeWork,
		PositiveWork: r.PositiveWork + o.PositiveWork,
	}
}
