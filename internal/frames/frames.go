// Package frames describes the frame ranges metrics are computed over and
// converts file-absolute frame numbers into record indices.
package frames

import (
	"errors"
	"fmt"
)

// ErrRange is returned when a range cannot be applied to a record
var ErrRange = errors.New("frame range out of bounds")

// Range is one of Whole, Single or Split
type Range interface {
	isRange()
	String() string
}

// Whole covers every frame of the record
type Whole struct{}

// Single is the contiguous range [Start, End)
type Single struct {
	Start int
	End   int
}

// Split is [Start, End) with the frames [GapStart, GapEnd) excluded,
// leaving the sub-ranges [Start, GapStart) and [GapEnd, End).
type Split struct {
	Start    int
	End      int
	GapStart int
	GapEnd   int
}

func (Whole) isRange()  {}
func (Single) isRange() {}
func (Split) isRange()  {}

func (Whole) String() string    { return "whole" }
func (r Single) String() string { return fmt.Sprintf("[%d, %d)", r.Start, r.End) }
func (r Split) String() string {
	return fmt.Sprintf("[%d, %d) without [%d, %d)", r.Start, r.End, r.GapStart, r.GapEnd)
}

// First returns the sub-range before the gap
func (r Split) First() Single { return Single{Start: r.Start, End: r.GapStart} }

// Second returns the sub-range after the gap
func (r Split) Second() Single { return Single{Start: r.GapEnd, End: r.End} }

// RangeError reports a range that does not fit a record of Len frames
type RangeError struct {
	Range  Range
	Len    int
	Reason string
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("range %s on %d frames: %s", e.Range, e.Len, e.Reason)
}

func (e *RangeError) Unwrap() error { return ErrRange }

// Resolve converts file-absolute frame numbers to indices into a record
// whose first rowsSkipped rows were discarded. Every boundary moves back by
// rowsSkipped; a start that would land on or before frame 0 becomes 1
// because differenced series are undefined at frame 0. End is not clamped.
func Resolve(r Range, rowsSkipped int) Range {
	switch r := r.(type) {
	case Single:
		return Single{
			Start: resolveStart(r.Start, rowsSkipped),
			End:   r.End - rowsSkipped,
		}
	case Split:
		return Split{
			Start:    resolveStart(r.Start, rowsSkipped),
			End:      r.End - rowsSkipped,
			GapStart: r.GapStart - rowsSkipped,
			GapEnd:   r.GapEnd - rowsSkipped,
		}
	default:
		return r
	}
}

func resolveStart(start, rowsSkipped int) int {
	if start-rowsSkipped <= 0 {
		return 1
	}
	return start - rowsSkipped
}

// Bound fits a resolved range to a record of n frames. Whole becomes
// Single{0, n}. An end past the record is clamped to n, and gap boundaries
// are clamped into [Start, End]. Inverted ranges are rejected.
func Bound(r Range, n int) (Range, error) {
	switch r := r.(type) {
	case Whole:
		return Single{Start: 0, End: n}, nil
	case Single:
		out := Single{Start: r.Start, End: min(r.End, n)}
		if out.Start < 0 || out.Start > out.End {
			return nil, &RangeError{Range: r, Len: n, Reason: "start after end"}
		}
		return out, nil
	case Split:
		if r.GapStart > r.GapEnd {
			return nil, &RangeError{Range: r, Len: n, Reason: "gap start after gap end"}
		}
		out := Split{Start: r.Start, End: min(r.End, n)}
		if out.Start < 0 || out.Start > out.End {
			return nil, &RangeError{Range: r, Len: n, Reason: "start after end"}
		}
		out.GapStart = clamp(r.GapStart, out.Start, out.End)
		out.GapEnd = clamp(r.GapEnd, out.GapStart, out.End)
		return out, nil
	default:
		return nil, &RangeError{Range: r, Len: n, Reason: "unknown range"}
	}
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
