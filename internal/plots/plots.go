// Package plots renders diagnostic PNG figures of point kinematics, energies
// and heart rate sessions.
package plots

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"court-kinetics/internal/frames"
	"court-kinetics/internal/heartrate"
	"court-kinetics/internal/kinematics"
)

// DataType selects the series drawn for a point
type DataType string

const (
	Position     DataType = "Position"
	Velocity     DataType = "Velocity"
	Acceleration DataType = "Acceleration"
	Energy       DataType = "Energy"
)

// DataTypes lists every plottable data type
var DataTypes = []DataType{Position, Velocity, Acceleration, Energy}

var ErrEmptyFigure = errors.New("nothing to plot")

// ParseDataType matches s case-insensitively against DataTypes
func ParseDataType(s string) (DataType, error) {
	for _, dt := range DataTypes {
		if strings.EqualFold(s, string(dt)) {
			return dt, nil
		}
	}
	return "", fmt.Errorf("unknown plot data type %q (options: Position, Velocity, Acceleration, Energy)", s)
}

// Line is one series of a figure
type Line struct {
	Label  string
	Values []float64
	Dashes []vg.Length
}

// Figure is a set of lines sharing a time axis
type Figure struct {
	Title  string
	XLabel string
	YLabel string
	Time   []float64
	Lines  []Line
}

// Figure size
var (
	Width  = 8 * vg.Inch
	Height = 5 * vg.Inch
)

var (
	dashed = []vg.Length{vg.Points(6), vg.Points(3)}
	dotted = []vg.Length{vg.Points(1), vg.Points(2)}
)

// PointFileName names the figure of one point
func PointFileName(trial string, point int, dt DataType) string {
	return fmt.Sprintf("trial_%s_point%d_%s.png", trial, point, dt)
}

// PointFigure builds the dt figure of a point. r is in record indices; it is
// bounded against the record and drawn from its start to its end with time
// re-zeroed at the start. er is only consulted for Energy.
func PointFigure(rec *kinematics.Record, er *kinematics.EnergyRecord, trial string, point int, r frames.Range, dt DataType) (Figure, error) {
	bounded, err := frames.Bound(r, rec.Len())
	if err != nil {
		return Figure{}, err
	}
	start, end := span(bounded)
	if end-start < 2 {
		return Figure{}, fmt.Errorf("trial %s point %d: %w", trial, point, ErrEmptyFigure)
	}

	fig := Figure{
		Title:  fmt.Sprintf("trial_%s point%d - %s vs Time", trial, point, dt),
		XLabel: "Time (s)",
		Time:   rezero(rec.Time[start:end]),
	}

	switch dt {
	case Position:
		if err := rec.RequirePosition(); err != nil {
			return Figure{}, err
		}
		fig.YLabel = "Position (m)"
		fig.Lines = axisLines(rec.Planes, rec.Position, start, end, "Position")
	case Velocity:
		if err := rec.RequireVelocity(); err != nil {
			return Figure{}, err
		}
		fig.YLabel = "Velocity (m/s)"
		fig.Lines = axisLines(rec.Planes, rec.Velocity, start, end, "Velocity")
	case Acceleration:
		if err := rec.RequireAcceleration(); err != nil {
			return Figure{}, err
		}
		fig.YLabel = "Acceleration (m/s^2)"
		fig.Lines = axisLines(rec.Planes, rec.Acceleration, start, end, "Acceleration")
	case Energy:
		if er == nil {
			return Figure{}, fmt.Errorf("trial %s point %d: energy record required", trial, point)
		}
		fig.YLabel = "Energy (J)"
		if er.Potential != nil {
			fig.Lines = append(fig.Lines, Line{Label: "Potential Energy", Values: er.Potential[start:end], Dashes: dashed})
		}
		fig.Lines = append(fig.Lines,
			Line{Label: "Kinetic Energy", Values: er.Kinetic[start:end], Dashes: dotted},
			Line{Label: "Total Energy", Values: er.Total[start:end]},
		)
	default:
		return Figure{}, fmt.Errorf("unknown plot data type %q", dt)
	}
	return fig, nil
}

// HeartRateFigure builds the figure of a heart rate session window
func HeartRateFigure(file string, samples []heartrate.Sample) Figure {
	t := make([]float64, len(samples))
	for i, s := range samples {
		t[i] = s.Elapsed.Seconds()
	}
	return Figure{
		Title:  file,
		XLabel: "Time (s)",
		YLabel: "HR (bpm)",
		Time:   t,
		Lines:  []Line{{Label: "Heart Rate", Values: heartrate.HeartRates(samples)}},
	}
}

// Save renders fig as a PNG at path, creating parent directories
func Save(fig Figure, path string) error {
	p := plot.New()
	p.Title.Text = fig.Title
	p.X.Label.Text = fig.XLabel
	p.Y.Label.Text = fig.YLabel

	drawn := 0
	for _, l := range fig.Lines {
		pts := make(plotter.XYs, 0, len(l.Values))
		for i, v := range l.Values {
			if i >= len(fig.Time) {
				break
			}
			// undefined samples leave a gap in the point set
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			pts = append(pts, plotter.XY{X: fig.Time[i], Y: v})
		}
		if len(pts) == 0 {
			continue
		}

		line, err := plotter.NewLine(pts)
		if err != nil {
			return err
		}
		line.Color = color.Black
		line.Width = vg.Points(1)
		line.Dashes = l.Dashes
		p.Add(line)
		p.Legend.Add(l.Label, line)
		drawn++
	}
	if drawn == 0 {
		return fmt.Errorf("%s: %w", fig.Title, ErrEmptyFigure)
	}

	// Configure legend
	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating plot directory: %w", err)
	}
	if err := p.Save(Width, Height, path); err != nil {
		return fmt.Errorf("saving %s: %w", path, err)
	}
	return nil
}

func axisLines(planes [3]string, series [3][]float64, start, end int, quantity string) []Line {
	styles := [3][]vg.Length{dashed, dotted, nil}
	lines := make([]Line, 0, 3)
	for i, plane := range planes {
		lines = append(lines, Line{
			Label:  fmt.Sprintf("%s %s", plane, quantity),
			Values: series[i][start:end],
			Dashes: styles[i],
		})
	}
	return lines
}

func span(r frames.Range) (int, int) {
	switch b := r.(type) {
	case frames.Single:
		return b.Start, b.End
	case frames.Split:
		return b.Start, b.End
	}
	return 0, 0
}

func rezero(t []float64) []float64 {
	out := make([]float64, len(t))
	if len(t) == 0 {
		return out
	}
	for i, v := range t {
		out[i] = v - t[0]
	}
	return out
}
