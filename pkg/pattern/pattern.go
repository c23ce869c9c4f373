// Package pattern matches file base names against a user-supplied regular
// expression.
package pattern

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"regexp/syntax"
	"time"

	"github.com/dlclark/regexp2"
)

// Syntax selects the regular expression engine.
type Syntax string

const (
	// SyntaxRE2 uses Go's regexp package (linear time, no backreferences).
	SyntaxRE2 Syntax = "re2"
	// SyntaxExtended uses a backtracking engine with lookaround and
	// backreference support.
	SyntaxExtended Syntax = "extended"
)

// DefaultMatchTimeout bounds a single extended-syntax match.
const DefaultMatchTimeout = 100 * time.Millisecond

var ErrEmptyPattern = errors.New("pattern is empty")

// ParseSyntax maps a flag or persisted value to a Syntax. The empty string
// selects SyntaxRE2.
func ParseSyntax(s string) (Syntax, error) {
	switch Syntax(s) {
	case "", SyntaxRE2:
		return SyntaxRE2, nil
	case SyntaxExtended:
		return SyntaxExtended, nil
	default:
		return "", fmt.Errorf("unknown pattern syntax %q; must be %q or %q", s, SyntaxRE2, SyntaxExtended)
	}
}

// InvalidPatternError reports a pattern that could not be compiled.
type InvalidPatternError struct {
	Source string
	Err    error
}

func (e *InvalidPatternError) Error() string {
	return fmt.Sprintf("invalid pattern %q: %v", e.Source, e.Err)
}

func (e *InvalidPatternError) Unwrap() error { return e.Err }

type Option func(*options)

type options struct {
	syntax  Syntax
	timeout time.Duration
}

func WithSyntax(s Syntax) Option {
	return func(o *options) {
		o.syntax = s
	}
}

// WithMatchTimeout only applies to SyntaxExtended.
func WithMatchTimeout(d time.Duration) Option {
	return func(o *options) {
		o.timeout = d
	}
}

// Matcher is immutable and safe for concurrent use.
type Matcher struct {
	source          string
	caseInsensitive bool
	syntax          Syntax
	timeout         time.Duration
	re              *regexp.Regexp
	re2             *regexp2.Regexp
}

// compileRE2 anchors the parsed expression rather than the source text, so
// sources that quote to the end of input (\Q...) keep their meaning.
func compileRE2(source string, foldCase bool) (*regexp.Regexp, error) {
	flags := syntax.Perl
	if foldCase {
		flags |= syntax.FoldCase
	}
	parsed, err := syntax.Parse(source, flags)
	if err != nil {
		return nil, err
	}
	anchored := &syntax.Regexp{
		Op:    syntax.OpConcat,
		Flags: flags,
		Sub: []*syntax.Regexp{
			{Op: syntax.OpBeginText, Flags: flags},
			parsed,
			{Op: syntax.OpEndText, Flags: flags},
		},
	}
	return regexp.Compile(anchored.String())
}

// compileExtended wraps the source in a full-match group. The group is
// closed after "(?x)" and a newline: that ends a trailing "#" comment when
// the source enables free-spacing, and is ignored whitespace otherwise.
func compileExtended(source string, ignoreCase bool) (*regexp2.Regexp, error) {
	flags := regexp2.None
	if ignoreCase {
		flags |= regexp2.IgnoreCase
	}
	// Diagnostics refer to the user's text, not the wrapper.
	if _, err := regexp2.Compile(source, flags); err != nil {
		return nil, err
	}
	return regexp2.Compile(`\A(?:`+source+"(?x)\n)\\z", flags)
}

// New compiles source so that it must match a whole base name.
func New(source string, caseSensitive bool, opts ...Option) (*Matcher, error) {
	o := options{syntax: SyntaxRE2, timeout: DefaultMatchTimeout}
	for _, opt := range opts {
		opt(&o)
	}
	if source == "" {
		return nil, &InvalidPatternError{Source: source, Err: ErrEmptyPattern}
	}
	m := &Matcher{
		source:          source,
		caseInsensitive: !caseSensitive,
		syntax:          o.syntax,
	}
	switch o.syntax {
	case SyntaxRE2:
		re, err := compileRE2(source, m.caseInsensitive)
		if err != nil {
			return nil, &InvalidPatternError{Source: source, Err: err}
		}
		m.re = re
	case SyntaxExtended:
		re, err := compileExtended(source, m.caseInsensitive)
		if err != nil {
			return nil, &InvalidPatternError{Source: source, Err: err}
		}
		re.MatchTimeout = o.timeout
		m.re2 = re
		m.timeout = o.timeout
	default:
		return nil, &InvalidPatternError{Source: source, Err: fmt.Errorf("unknown syntax %q", o.syntax)}
	}
	return m, nil
}

// Matches reports whether the base name of name matches the whole pattern.
func (m *Matcher) Matches(name string) bool {
	base := filepath.Base(name)
	if m.re != nil {
		return m.re.MatchString(base)
	}
	// A timed-out match is a non-match.
	ok, err := m.re2.MatchString(base)
	return err == nil && ok
}

func (m *Matcher) Source() string { return m.source }

func (m *Matcher) CaseSensitive() bool { return !m.caseInsensitive }

func (m *Matcher) Syntax() Syntax { return m.syntax }

// MatchTimeout is zero for SyntaxRE2, which needs none.
func (m *Matcher) MatchTimeout() time.Duration { return m.timeout }

func (m *Matcher) String() string {
	mode := "case-sensitive"
	if m.caseInsensitive {
		mode = "case-insensitive"
	}
	return fmt.Sprintf("/%s/ (%s, %s)", m.source, mode, m.syntax)
}
