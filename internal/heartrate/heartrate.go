// Package heartrate reads chest-strap heart rate exports and summarises the
// session window used for TRIMP scoring.
package heartrate

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Column labels of the export header
const (
	TimeColumn = "Time"
	HRColumn   = "HR (bpm)"
)

// preambleLines precede the header in every export
const preambleLines = 2

var (
	ErrMissingHeader = errors.New("heart rate header not found")
	ErrEmptySession  = errors.New("no heart rate samples in session window")
)

// Sample is one heart rate reading
type Sample struct {
	Elapsed time.Duration // time of day as logged by the strap
	HR      float64
}

// Session is the samples of one export file
type Session struct {
	File    string
	Samples []Sample
}

// Summary holds the descriptive statistics of a session window
type Summary struct {
	Average  float64
	Max      float64
	Duration time.Duration
}

// ReadFile parses one heart rate export
func ReadFile(path string) (*Session, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	samples, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &Session{File: filepath.Base(path), Samples: samples}, nil
}

// Parse reads the samples of an export. Rows with an empty or non-numeric
// heart rate are kept as NaN so row positions match the file.
func Parse(r io.Reader) ([]Sample, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	for i := 0; i < preambleLines; i++ {
		if _, err := reader.Read(); err != nil {
			if err == io.EOF {
				return nil, ErrMissingHeader
			}
			return nil, err
		}
	}

	header, err := reader.Read()
	if err == io.EOF {
		return nil, ErrMissingHeader
	}
	if err != nil {
		return nil, err
	}
	timeIdx, hrIdx := -1, -1
	for i, h := range header {
		switch strings.TrimSpace(h) {
		case TimeColumn:
			timeIdx = i
		case HRColumn:
			hrIdx = i
		}
	}
	if timeIdx < 0 || hrIdx < 0 {
		return nil, fmt.Errorf("%w: need %q and %q", ErrMissingHeader, TimeColumn, HRColumn)
	}

	var samples []Sample
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(row) <= timeIdx || len(row) <= hrIdx {
			continue
		}
		elapsed, err := ParseClock(row[timeIdx])
		if err != nil {
			line, _ := reader.FieldPos(timeIdx)
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		hr, err := strconv.ParseFloat(strings.TrimSpace(row[hrIdx]), 64)
		if err != nil {
			hr = math.NaN()
		}
		samples = append(samples, Sample{Elapsed: elapsed, HR: hr})
	}
	return samples, nil
}

// ParseClock converts an hh:mm:ss timestamp to a duration
func ParseClock(s string) (time.Duration, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("invalid time %q", s)
	}
	var fields [3]int
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil {
			return 0, fmt.Errorf("invalid time %q", s)
		}
		fields[i] = v
	}
	return time.Duration(fields[0])*time.Hour +
		time.Duration(fields[1])*time.Minute +
		time.Duration(fields[2])*time.Second, nil
}

// Window returns the samples in rows [start, end), clamped to the session
func (s *Session) Window(start, end int) []Sample {
	if start < 0 {
		start = 0
	}
	if end > len(s.Samples) {
		end = len(s.Samples)
	}
	if start >= end {
		return nil
	}
	return s.Samples[start:end]
}

// HeartRates extracts the readings of samples
func HeartRates(samples []Sample) []float64 {
	out := make([]float64, len(samples))
	for i, s := range samples {
		out[i] = s.HR
	}
	return out
}

// Summarize computes average and maximum heart rate, ignoring missing readings
func Summarize(samples []Sample) (Summary, error) {
	valid := make([]float64, 0, len(samples))
	for _, s := range samples {
		if !math.IsNaN(s.HR) {
			valid = append(valid, s.HR)
		}
	}
	if len(valid) == 0 {
		return Summary{}, ErrEmptySession
	}

	sum := Summary{
		Average: stat.Mean(valid, nil),
		Max:     floats.Max(valid),
	}
	if n := len(samples); n > 1 {
		sum.Duration = samples[n-1].Elapsed - samples[0].Elapsed
	}
	return sum, nil
}

// ListFiles returns the regular files of a discipline folder, sorted by name
func ListFiles(folder, discipline string) ([]string, error) {
	dir := filepath.Join(folder, discipline)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", dir, err)
	}
	var files []string
	for _, e := range entries {
		if e.Type().IsRegular() {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}
