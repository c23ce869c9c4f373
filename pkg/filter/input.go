package filter

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nethoundsh/localfilter/pkg/daterange"
	"github.com/nethoundsh/localfilter/pkg/pattern"
)

// Mode selects whether matching entries are kept or dropped.
type Mode int

const (
	Inclusion Mode = iota
	Exclusion
)

func (m Mode) String() string {
	if m == Exclusion {
		return "exclusion"
	}
	return "inclusion"
}

// Input is the editable and persisted form of a Filter. Empty strings mean
// the corresponding sub-filter is absent.
type Input struct {
	Pattern       string `json:"pattern,omitempty" yaml:"pattern,omitempty"`
	CaseSensitive bool   `json:"case_sensitive" yaml:"case_sensitive"`
	Syntax        string `json:"syntax,omitempty" yaml:"syntax,omitempty"`
	// MatchTimeout bounds one extended-syntax match, e.g. "250ms". Empty
	// means pattern.DefaultMatchTimeout.
	MatchTimeout string `json:"match_timeout,omitempty" yaml:"match_timeout,omitempty"`
	StartDate     string `json:"start_date,omitempty" yaml:"start_date,omitempty"`
	EndDate       string `json:"end_date,omitempty" yaml:"end_date,omitempty"`
	ShowHidden    bool   `json:"show_hidden" yaml:"show_hidden"`
	Exclude       bool   `json:"exclude" yaml:"exclude"`
}

// DefaultInput is the state of a freshly opened editor: hidden files shown,
// inclusion mode, no sub-filters.
func DefaultInput() Input {
	return Input{ShowHidden: true}
}

// Field names reported in FieldError.
const (
	FieldSyntax       = "syntax"
	FieldMatchTimeout = "match timeout"
	FieldPattern      = "pattern"
	FieldStart        = "start"
	FieldEnd          = "end"
)

// FieldError identifies the input field that failed validation.
type FieldError struct {
	Field   string
	Message string
	Err     error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func (e *FieldError) Unwrap() error { return e.Err }

// Build validates in and returns a filter, or the first *FieldError found.
// Fields are checked in the order syntax, match timeout, pattern, start,
// end. Nothing is returned on failure.
func Build(in Input, loc *time.Location) (*Filter, error) {
	syntax, err := pattern.ParseSyntax(in.Syntax)
	if err != nil {
		return nil, &FieldError{Field: FieldSyntax, Message: err.Error(), Err: err}
	}

	opts := []pattern.Option{pattern.WithSyntax(syntax)}
	if v := strings.TrimSpace(in.MatchTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err == nil && d <= 0 {
			err = fmt.Errorf("must be positive, got %s", v)
		}
		if err != nil {
			return nil, &FieldError{Field: FieldMatchTimeout, Message: err.Error(), Err: err}
		}
		opts = append(opts, pattern.WithMatchTimeout(d))
	}

	var name *pattern.Matcher
	if src := strings.TrimSpace(in.Pattern); src != "" {
		name, err = pattern.New(src, in.CaseSensitive, opts...)
		if err != nil {
			var perr *pattern.InvalidPatternError
			msg := err.Error()
			if errors.As(err, &perr) {
				msg = perr.Err.Error()
			}
			return nil, &FieldError{Field: FieldPattern, Message: msg, Err: err}
		}
	}

	date, err := daterange.Parse(in.StartDate, in.EndDate, loc)
	if err != nil {
		field, msg := FieldStart, err.Error()
		var derr *daterange.InvalidDateError
		if errors.As(err, &derr) {
			field = derr.Field
			msg = derr.Err.Error()
		}
		return nil, &FieldError{Field: field, Message: msg, Err: err}
	}

	mode := Inclusion
	if in.Exclude {
		mode = Exclusion
	}
	return New(name, date, in.ShowHidden, mode), nil
}

// Input reproduces the fields the filter was built from.
func (f *Filter) Input() Input {
	in := Input{
		ShowHidden: f.showHidden,
		Exclude:    f.mode == Exclusion,
	}
	if f.name != nil {
		in.Pattern = f.name.Source()
		in.CaseSensitive = f.name.CaseSensitive()
		if f.name.Syntax() != pattern.SyntaxRE2 {
			in.Syntax = string(f.name.Syntax())
		}
		if d := f.name.MatchTimeout(); d != 0 && d != pattern.DefaultMatchTimeout {
			in.MatchTimeout = d.String()
		}
	}
	if f.date != nil {
		in.StartDate = f.date.StartString()
		in.EndDate = f.date.EndString()
	}
	return in
}

func (f *Filter) String() string {
	var parts []string
	parts = append(parts, f.mode.String())
	if f.name != nil {
		parts = append(parts, "name "+f.name.String())
	}
	if f.date != nil {
		parts = append(parts, "modified "+f.date.String())
	}
	if f.showHidden {
		parts = append(parts, "hidden shown")
	} else {
		parts = append(parts, "hidden suppressed")
	}
	return strings.Join(parts, ", ")
}
