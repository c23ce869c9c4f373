// Package filter decides which filesystem entries are displayed.
//
// A Filter combines an optional name pattern, an optional date range, a
// hidden-file policy and an inclusion/exclusion mode. Filters are immutable
// once built and may be shared between goroutines.
//
// Decision order:
//  1. Hidden entries are rejected outright unless hidden files are shown.
//     The mode never applies to this step.
//  2. The content match is the AND of the configured sub-filters; with no
//     sub-filters it is vacuously true.
//  3. Exclusion mode inverts the content match.
package filter

import (
	"io/fs"
	"time"

	"github.com/nethoundsh/localfilter/pkg/daterange"
	"github.com/nethoundsh/localfilter/pkg/pattern"
)

// Entry is what an enumerator hands to the filter for each candidate.
type Entry struct {
	Name    string
	ModTime time.Time
	Hidden  bool
}

// Reason explains a decision.
type Reason int

const (
	Accepted Reason = iota
	RejectedHidden
	RejectedContent
)

func (r Reason) String() string {
	switch r {
	case Accepted:
		return "accepted"
	case RejectedHidden:
		return "hidden"
	case RejectedContent:
		return "filtered"
	default:
		return "unknown"
	}
}

type Filter struct {
	name       *pattern.Matcher
	date       *daterange.Matcher
	showHidden bool
	mode       Mode
}

// New assembles a filter from already-validated parts. A nil matcher means
// that sub-filter is not configured.
func New(name *pattern.Matcher, date *daterange.Matcher, showHidden bool, mode Mode) *Filter {
	return &Filter{
		name:       name,
		date:       date,
		showHidden: showHidden,
		mode:       mode,
	}
}

// Accepts reports whether e should be kept.
func (f *Filter) Accepts(e Entry) bool {
	return f.Decide(e) == Accepted
}

// Decide is Accepts with the reason for a rejection.
func (f *Filter) Decide(e Entry) Reason {
	if e.Hidden && !f.showHidden {
		return RejectedHidden
	}
	keep := f.contentMatch(e)
	if f.mode == Exclusion {
		keep = !keep
	}
	if !keep {
		return RejectedContent
	}
	return Accepted
}

func (f *Filter) contentMatch(e Entry) bool {
	if f.name != nil && !f.name.Matches(e.Name) {
		return false
	}
	if f.date != nil && !f.date.Matches(e.ModTime) {
		return false
	}
	return true
}

// AcceptsFileInfo adapts an fs.FileInfo; hidden is supplied by the caller
// because hidden-ness is platform specific.
func (f *Filter) AcceptsFileInfo(fi fs.FileInfo, hidden bool) bool {
	return f.Accepts(Entry{Name: fi.Name(), ModTime: fi.ModTime(), Hidden: hidden})
}

func (f *Filter) NameFilter() *pattern.Matcher { return f.name }

func (f *Filter) DateFilter() *daterange.Matcher { return f.date }

func (f *Filter) ShowHidden() bool { return f.showHidden }

func (f *Filter) Mode() Mode { return f.mode }

// IsEmpty reports whether neither sub-filter is configured.
func (f *Filter) IsEmpty() bool {
	return f.name == nil && f.date == nil
}
