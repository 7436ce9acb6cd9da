package kinematics

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

const headerToken = "time"

// table holds the columns of one tab-separated export, keyed by label
type table struct {
	labels  []string
	columns map[string][]float64
}

func (t *table) column(label string) ([]float64, bool) {
	c, ok := t.columns[label]
	return c, ok
}

func (t *table) rows() int {
	return len(t.columns[headerToken])
}

// readTable parses a tab-separated kinematics export. Lines before the one
// starting with "time" are preamble. The first skipRows data rows after the
// header are discarded.
func readTable(path string, skipRows int) (*table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	t, err := parseTable(f, path, skipRows)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func parseTable(r io.Reader, path string, skipRows int) (*table, error) {
	scanner := bufio.NewScanner(r)
	// Full-body exports carry several hundred channels per line
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)

	lineNo := 0
	var labels []string
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.HasPrefix(line, headerToken) {
			labels = strings.Split(strings.TrimSpace(line), "\t")
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if labels == nil {
		return nil, &FileError{Path: path, Msg: fmt.Sprintf("labels starting with %q not found", headerToken)}
	}

	t := &table{
		labels:  labels,
		columns: make(map[string][]float64, len(labels)),
	}
	data := make([][]float64, len(labels))

	dataRow := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		dataRow++
		if dataRow <= skipRows {
			continue
		}

		fields := strings.Split(line, "\t")
		if len(fields) != len(labels) {
			return nil, &FileError{
				Path: path,
				Line: lineNo,
				Msg:  fmt.Sprintf("expected %d fields, got %d", len(labels), len(fields)),
			}
		}
		for i, field := range fields {
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return nil, &FileError{
					Path: path,
					Line: lineNo,
					Msg:  fmt.Sprintf("column %s: invalid number %q", labels[i], field),
				}
			}
			data[i] = append(data[i], v)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	for i, label := range labels {
		col := data[i]
		if col == nil {
			col = []float64{}
		}
		t.columns[label] = col
	}
	return t, nil
}
