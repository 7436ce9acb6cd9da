package service

import (
	"context"
	"fmt"
	"log"
	"math"

	"court-kinetics/internal/analysis"
	"court-kinetics/internal/config"
	"court-kinetics/internal/export"
	"court-kinetics/internal/heartrate"
	"court-kinetics/internal/store"
)

// HeartRateService scores the heart rate files of one discipline
type HeartRateService struct {
	cfg   config.HeartRateConfig
	zones analysis.HRZones
}

// NewHeartRateService creates a service using the participant's age-predicted zones
func NewHeartRateService(cfg config.Config) *HeartRateService {
	return &HeartRateService{
		cfg:   cfg.HeartRate,
		zones: analysis.ZonesForAge(cfg.Participant.Age, cfg.Participant.RestingHR),
	}
}

// Zones returns the zones sessions are scored with
func (s *HeartRateService) Zones() analysis.HRZones {
	return s.zones
}

// SessionResult is the scored window of one file
type SessionResult struct {
	File       string
	Discipline string
	Window     []heartrate.Sample
	Summary    heartrate.Summary
	Load       analysis.ZoneLoad
	Banister   float64
}

// ExportRow converts the result to its CSV row
func (r SessionResult) ExportRow() export.HeartRateRow {
	return export.HeartRateRow{
		File:          r.File,
		Discipline:    r.Discipline,
		Average:       r.Summary.Average,
		Max:           r.Summary.Max,
		TRIMP:         r.Load.TRIMP,
		BanisterTRIMP: r.Banister,
	}
}

// StoreSession converts the result to its database row
func (r SessionResult) StoreSession() store.HeartRateSession {
	return store.HeartRateSession{
		File:            r.File,
		Discipline:      r.Discipline,
		AverageHR:       r.Summary.Average,
		MaxHR:           r.Summary.Max,
		DurationSeconds: int(r.Summary.Duration.Seconds()),
		TRIMP:           r.Load.TRIMP,
		BanisterTRIMP:   r.Banister,
	}
}

// HeartRateResult contains the results of scoring a discipline folder
type HeartRateResult struct {
	Sessions []SessionResult
	Errors   []error
}

// Process scores every file of the configured discipline. Files that cannot
// be read or have no valid readings in the window are logged and collected
// in Errors.
func (s *HeartRateService) Process(ctx context.Context) (*HeartRateResult, error) {
	files, err := heartrate.ListFiles(s.cfg.Folder, s.cfg.Discipline)
	if err != nil {
		return nil, err
	}

	result := &HeartRateResult{}
	for _, path := range files {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		sess, err := heartrate.ReadFile(path)
		if err != nil {
			log.Printf("heart rate: %v", err)
			result.Errors = append(result.Errors, err)
			continue
		}

		sr, err := s.Score(sess)
		if err != nil {
			log.Printf("heart rate %s: %v", sess.File, err)
			result.Errors = append(result.Errors, fmt.Errorf("%s: %w", sess.File, err))
			continue
		}
		result.Sessions = append(result.Sessions, sr)
	}
	return result, nil
}

// Score computes the summary and training impulse of a session's window
func (s *HeartRateService) Score(sess *heartrate.Session) (SessionResult, error) {
	window := cleanWindow(sess.Window(s.cfg.StartRow, s.endRow(len(sess.Samples))))

	summary, err := heartrate.Summarize(window)
	if err != nil {
		return SessionResult{}, err
	}

	hrs := heartrate.HeartRates(window)
	minutes := float64(len(window)) * HeartRateSampleSeconds / SecondsPerMinute

	return SessionResult{
		File:       sess.File,
		Discipline: s.cfg.Discipline,
		Window:     window,
		Summary:    summary,
		Load:       analysis.ZoneTRIMP(hrs, HeartRateSampleSeconds, s.zones),
		Banister:   analysis.BanisterTRIMP(hrs, minutes, s.zones),
	}, nil
}

// endRow treats an unset end row as the end of the file
func (s *HeartRateService) endRow(n int) int {
	if s.cfg.EndRow <= 0 {
		return n
	}
	return s.cfg.EndRow
}

// cleanWindow replaces implausible readings with NaN
func cleanWindow(samples []heartrate.Sample) []heartrate.Sample {
	out := make([]heartrate.Sample, len(samples))
	for i, smp := range samples {
		if smp.HR <= MinValidHeartrate || smp.HR >= MaxValidHeartrate {
			smp.HR = math.NaN()
		}
		out[i] = smp
	}
	return out
}
