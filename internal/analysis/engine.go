package analysis

import (
	"errors"
	"fmt"
	"log"

	"court-kinetics/internal/config"
	"court-kinetics/internal/frames"
	"court-kinetics/internal/kinematics"
)

// Engine computes metrics for trials read from a kinematics source
type Engine struct {
	src          kinematics.Source
	massKG       float64
	verticalAxis string
	rowsToSkip   int
}

// NewEngine creates an engine using the participant and kinematics settings of cfg
func NewEngine(src kinematics.Source, cfg config.Config) *Engine {
	return &Engine{
		src:          src,
		massKG:       cfg.Participant.MassKG,
		verticalAxis: cfg.Kinematics.VerticalAxis,
		rowsToSkip:   cfg.Kinematics.RowsToSkip,
	}
}

// RowsToSkip returns the number of leading rows discarded from every export
func (e *Engine) RowsToSkip() int {
	return e.rowsToSkip
}

// Compute evaluates metric m for trial over raw, a range in file-absolute
// frame numbers. When the trial has no data it returns a zero Result of
// metric m together with an error wrapping kinematics.ErrNoTrialData.
func (e *Engine) Compute(trial string, m Metric, raw frames.Range) (Result, error) {
	res := Result{Metric: m}

	rec, err := e.src.Record(trial)
	if err != nil {
		return res, err
	}

	r := frames.Resolve(raw, e.rowsToSkip)

	switch m {
	case MetricDistance:
		res.Value, err = DistanceCovered(rec, r)
	case MetricPlayerLoad:
		res.Value, err = PlayerLoad(rec, r)
	case MetricWork:
		var er *kinematics.EnergyRecord
		er, err = e.Energy(rec)
		if err != nil {
			return res, err
		}
		res.NegativeWork, res.PositiveWork, err = ExternalWork(er, r)
	default:
		err = fmt.Errorf("unknown metric %v", m)
	}
	if err != nil {
		return Result{Metric: m}, err
	}
	return res, nil
}

// Energy derives the energy record of rec. A missing vertical channel is
// logged and the kinetic-only energy record is returned.
func (e *Engine) Energy(rec *kinematics.Record) (*kinematics.EnergyRecord, error) {
	er, err := kinematics.DeriveEnergy(rec, e.massKG, e.verticalAxis)
	if err != nil && er != nil && errors.Is(err, kinematics.ErrMissingColumn) {
		log.Printf("trial %s: %v, potential energy omitted", rec.Trial, err)
		return er, nil
	}
	return er, err
}

// Record returns the kinematic record of trial from the engine's source
func (e *Engine) Record(trial string) (*kinematics.Record, error) {
	return e.src.Record(trial)
}
