// Package daterange matches timestamps against an inclusive range of
// calendar days.
package daterange

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Layout is the yyyy-MM-dd form used for input and persistence.
const Layout = "2006-01-02"

var (
	ErrEmptyRange    = errors.New("date range has neither start nor end")
	ErrInvertedRange = errors.New("start date is after end date")
)

// InvalidDateError reports a bound that could not be parsed or that makes
// the range empty. Field is "start" or "end".
type InvalidDateError struct {
	Field string
	Value string
	Err   error
}

func (e *InvalidDateError) Error() string {
	return fmt.Sprintf("invalid %s date %q: %v", e.Field, e.Value, e.Err)
}

func (e *InvalidDateError) Unwrap() error { return e.Err }

// Matcher holds at least one bound. Bounds are midnight in loc.
type Matcher struct {
	start    time.Time
	end      time.Time
	hasStart bool
	hasEnd   bool
	loc      *time.Location
}

// New builds a range from optional bounds; nil loc means time.Local.
func New(start, end *time.Time, loc *time.Location) (*Matcher, error) {
	if start == nil && end == nil {
		return nil, ErrEmptyRange
	}
	if loc == nil {
		loc = time.Local
	}
	m := &Matcher{loc: loc}
	if start != nil {
		m.start, m.hasStart = day(*start, loc), true
	}
	if end != nil {
		m.end, m.hasEnd = day(*end, loc), true
	}
	if m.hasStart && m.hasEnd && m.start.After(m.end) {
		return nil, &InvalidDateError{Field: "end", Value: m.end.Format(Layout), Err: ErrInvertedRange}
	}
	return m, nil
}

// Parse builds a range from two yyyy-MM-dd strings. An empty string leaves
// that side unbounded; two empty strings yield a nil Matcher and no error.
func Parse(start, end string, loc *time.Location) (*Matcher, error) {
	start, end = strings.TrimSpace(start), strings.TrimSpace(end)
	if start == "" && end == "" {
		return nil, nil
	}
	if loc == nil {
		loc = time.Local
	}
	var startPtr, endPtr *time.Time
	if start != "" {
		t, err := time.ParseInLocation(Layout, start, loc)
		if err != nil {
			return nil, &InvalidDateError{Field: "start", Value: start, Err: err}
		}
		startPtr = &t
	}
	if end != "" {
		t, err := time.ParseInLocation(Layout, end, loc)
		if err != nil {
			return nil, &InvalidDateError{Field: "end", Value: end, Err: err}
		}
		endPtr = &t
	}
	return New(startPtr, endPtr, loc)
}

// Matches truncates t to its calendar day in the range's location and
// compares it against both inclusive bounds.
func (m *Matcher) Matches(t time.Time) bool {
	d := day(t, m.loc)
	if m.hasStart && d.Before(m.start) {
		return false
	}
	if m.hasEnd && d.After(m.end) {
		return false
	}
	return true
}

func (m *Matcher) Start() (time.Time, bool) { return m.start, m.hasStart }

func (m *Matcher) End() (time.Time, bool) { return m.end, m.hasEnd }

// StartString returns the start bound as yyyy-MM-dd, or "" when unbounded.
func (m *Matcher) StartString() string {
	if !m.hasStart {
		return ""
	}
	return m.start.Format(Layout)
}

// EndString returns the end bound as yyyy-MM-dd, or "" when unbounded.
func (m *Matcher) EndString() string {
	if !m.hasEnd {
		return ""
	}
	return m.end.Format(Layout)
}

func (m *Matcher) String() string {
	from, to := m.StartString(), m.EndString()
	if from == "" {
		from = "*"
	}
	if to == "" {
		to = "*"
	}
	return "[" + from + ", " + to + "]"
}

func day(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	y, mo, d := t.Date()
	return time.Date(y, mo, d, 0, 0, 0, 0, loc)
}
