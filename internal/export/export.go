// Package export writes per-point metric tables and heart rate summaries as
// CSV files.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"court-kinetics/internal/analysis"
)

// Output file names
const (
	WorkFile       = "point_works.csv"
	DistanceFile   = "distance_covered.csv"
	PlayerLoadFile = "player_load.csv"
	HeartRateFile  = "heart_rate.csv"
)

// MetricRow is one point's result
type MetricRow struct {
	Trial  string
	Point  int
	Result analysis.Result
}

// HeartRateRow is one heart rate file's summary
type HeartRateRow struct {
	File          string
	Discipline    string
	Average       float64
	Max           float64
	TRIMP         float64
	BanisterTRIMP float64
}

// FileName returns the output file of metric m
func FileName(m analysis.Metric) string {
	switch m {
	case analysis.MetricWork:
		return WorkFile
	case analysis.MetricDistance:
		return DistanceFile
	case analysis.MetricPlayerLoad:
		return PlayerLoadFile
	}
	return m.String() + ".csv"
}

// Header returns the CSV header of metric m
func Header(m analysis.Metric) []string {
	switch m {
	case analysis.MetricWork:
		return []string{"Trial", "Point", "Negative Work (J)", "Positive Work (J)"}
	case analysis.MetricDistance:
		return []string{"Trial", "Point", "Distance Covered (m)"}
	case analysis.MetricPlayerLoad:
		return []string{"Trial", "Point", "Player Load (AU)"}
	}
	return []string{"Trial", "Point", m.Label()}
}

// WriteMetric writes rows of metric m as CSV
func WriteMetric(w io.Writer, m analysis.Metric, rows []MetricRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header(m)); err != nil {
		return err
	}
	for _, r := range rows {
		record := []string{r.Trial, strconv.Itoa(r.Point)}
		if m == analysis.MetricWork {
			record = append(record, formatFloat(r.Result.NegativeWork), formatFloat(r.Result.PositiveWork))
		} else {
			record = append(record, formatFloat(r.Result.Value))
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteMetricFile writes rows to the metric's file in dir, creating dir if
// needed, and returns the file's path
func WriteMetricFile(dir string, m analysis.Metric, rows []MetricRow) (string, error) {
	path := filepath.Join(dir, FileName(m))
	err := writeFile(path, func(w io.Writer) error {
		return WriteMetric(w, m, rows)
	})
	return path, err
}

// WriteHeartRate writes heart rate summaries as CSV
func WriteHeartRate(w io.Writer, rows []HeartRateRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"File", "Discipline", "Average", "Max", "TRIMP", "Banister TRIMP"}); err != nil {
		return err
	}
	for _, r := range rows {
		err := cw.Write([]string{
			r.File,
			r.Discipline,
			formatFloat(r.Average),
			formatFloat(r.Max),
			formatFloat(r.TRIMP),
			formatFloat(r.BanisterTRIMP),
		})
		if err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteHeartRateFile writes heart rate summaries to dir and returns the
// file's path
func WriteHeartRateFile(dir string, rows []HeartRateRow) (string, error) {
	path := filepath.Join(dir, HeartRateFile)
	err := writeFile(path, func(w io.Writer) error {
		return WriteHeartRate(w, rows)
	})
	return path, err
}

func writeFile(path string, write func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
