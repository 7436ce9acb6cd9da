// Package points loads the notational analysis table that maps each trial's
// points to their start and end frames.
package points

import (
	"encoding/csv"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"court-kinetics/internal/frames"
)

// Column headers, matched case-insensitively
const (
	ColTrial      = "Trial"
	ColPoint      = "Point"
	ColStartFrame = "Point Start Frame"
	ColEndFrame   = "Point End Frame"
	ColGapStart   = "Gap Start Frame"
	ColGapEnd     = "Gap End Frame"
)

var (
	ErrMissingHeader = errors.New("point table is missing a required column")
	ErrNoSheet       = errors.New("workbook has no sheets")
)

// Map holds, per two-digit trial id, the raw frame range of every point
type Map map[string]map[int]frames.Range

// Trials returns the trial ids in ascending order
func (m Map) Trials() []string {
	trials := make([]string, 0, len(m))
	for t := range m {
		trials = append(trials, t)
	}
	sort.Strings(trials)
	return trials
}

// Points returns the point numbers of trial in ascending order
func (m Map) Points(trial string) []int {
	pts := make([]int, 0, len(m[trial]))
	for p := range m[trial] {
		pts = append(pts, p)
	}
	sort.Ints(pts)
	return pts
}

// Len returns the total number of points across trials
func (m Map) Len() int {
	n := 0
	for _, pts := range m {
		n += len(pts)
	}
	return n
}

// TrialID formats a trial number as used in kinematic file names
func TrialID(n int) string {
	return fmt.Sprintf("%02d", n)
}

// Load reads a point table. Workbooks (.xlsx) are read from sheet, or the
// first sheet when sheet is empty; any other file is read as CSV.
func Load(path, sheet string) (Map, error) {
	var (
		rows [][]string
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		rows, err = readWorkbook(path, sheet)
	default:
		rows, err = readCSV(path)
	}
	if err != nil {
		return nil, err
	}

	m, err := Parse(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

func readWorkbook(path, sheet string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening workbook %s: %w", path, err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, ErrNoSheet
		}
		sheet = sheets[0]
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", sheet, err)
	}
	return rows, nil
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return rows, nil
}

// columns holds header positions; optional columns are -1 when absent
type columns struct {
	trial, point, start, end int
	gapStart, gapEnd         int
}

func findColumns(header []string) (columns, error) {
	c := columns{-1, -1, -1, -1, -1, -1}
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case strings.ToLower(ColTrial):
			c.trial = i
		case strings.ToLower(ColPoint):
			c.point = i
		case strings.ToLower(ColStartFrame):
			c.start = i
		case strings.ToLower(ColEndFrame):
			c.end = i
		case strings.ToLower(ColGapStart):
			c.gapStart = i
		case strings.ToLower(ColGapEnd):
			c.gapEnd = i
		}
	}

	var missing []string
	for _, req := range []struct {
		idx  int
		name string
	}{
		{c.trial, ColTrial}, {c.point, ColPoint},
		{c.start, ColStartFrame}, {c.end, ColEndFrame},
	} {
		if req.idx < 0 {
			missing = append(missing, req.name)
		}
	}
	if len(missing) > 0 {
		return c, fmt.Errorf("%w: %s", ErrMissingHeader, strings.Join(missing, ", "))
	}
	return c, nil
}

// Parse builds a Map from table rows, the first row being the header.
//
// Blank Trial cells take the previous row's trial. Repeated header rows are
// skipped and the table ends at the first Trial cell that is not a number.
// Rows with no point and no frames are ignored.
func Parse(rows [][]string) (Map, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: empty table", ErrMissingHeader)
	}
	cols, err := findColumns(rows[0])
	if err != nil {
		return nil, err
	}

	m := make(Map)
	lastTrial := ""
	for i, row := range rows[1:] {
		line := i + 2

		trialCell := cell(row, cols.trial)
		if strings.EqualFold(trialCell, ColTrial) {
			continue
		}
		if trialCell == "" {
			trialCell = lastTrial
		}

		pointCell := cell(row, cols.point)
		startCell, endCell := cell(row, cols.start), cell(row, cols.end)
		if pointCell == "" && startCell == "" && endCell == "" {
			continue
		}
		if trialCell == "" {
			return nil, fmt.Errorf("row %d: point without a trial", line)
		}

		trialNum, ok := wholeNumber(trialCell)
		if !ok {
			break
		}
		lastTrial = trialCell

		point, ok := wholeNumber(pointCell)
		if !ok {
			return nil, fmt.Errorf("row %d: invalid point %q", line, pointCell)
		}
		r, err := rowRange(row, cols)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", line, err)
		}

		trial := TrialID(trialNum)
		if m[trial] == nil {
			m[trial] = make(map[int]frames.Range)
		}
		m[trial][point] = r
	}
	return m, nil
}

func rowRange(row []string, cols columns) (frames.Range, error) {
	start, err := frame(row, cols.start, ColStartFrame)
	if err != nil {
		return nil, err
	}
	end, err := frame(row, cols.end, ColEndFrame)
	if err != nil {
		return nil, err
	}

	gs, ge := cell(row, cols.gapStart), cell(row, cols.gapEnd)
	if gs == "" && ge == "" {
		return frames.Single{Start: start, End: end}, nil
	}
	gapStart, err := frame(row, cols.gapStart, ColGapStart)
	if err != nil {
		return nil, err
	}
	gapEnd, err := frame(row, cols.gapEnd, ColGapEnd)
	if err != nil {
		return nil, err
	}
	return frames.Split{Start: start, End: end, GapStart: gapStart, GapEnd: gapEnd}, nil
}

func frame(row []string, idx int, name string) (int, error) {
	v := cell(row, idx)
	n, ok := wholeNumber(v)
	if !ok {
		return 0, fmt.Errorf("invalid %s %q", name, v)
	}
	return n, nil
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// wholeNumber accepts "12" as well as spreadsheet floats such as "12.0"
func wholeNumber(s string) (int, bool) {
	if n, err := strconv.Atoi(s); err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}
