package daterange

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d, h, mi int) time.Time {
	return time.Date(y, m, d, h, mi, 0, 0, time.UTC)
}

func TestParse_BothEmpty(t *testing.T) {
	m, err := Parse("", "  ", time.UTC)
	require.NoError(t, err)
	assert.Nil(t, m)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name      string
		start     string
		end       string
		wantField string
	}{
		{name: "month 13", start: "2024-13-01", wantField: "start"},
		{name: "day 30 in february", start: "2024-02-30", wantField: "start"},
		{name: "wrong separator", end: "2024/01/01", wantField: "end"},
		{name: "not a date", end: "yesterday", wantField: "end"},
		{name: "start checked before end", start: "bad", end: "worse", wantField: "start"},
		{name: "short month", start: "2024-1-05", wantField: "start"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := Parse(tt.start, tt.end, time.UTC)
			assert.Nil(t, m)
			var derr *InvalidDateError
			require.True(t, errors.As(err, &derr), "want *InvalidDateError, got %v", err)
			assert.Equal(t, tt.wantField, derr.Field)
			assert.NotEmpty(t, derr.Err.Error())
		})
	}
}

func TestParse_InvertedRangeRejected(t *testing.T) {
	m, err := Parse("2024-06-02", "2024-06-01", time.UTC)
	assert.Nil(t, m)
	assert.ErrorIs(t, err, ErrInvertedRange)
	var derr *InvalidDateError
	require.True(t, errors.As(err, &derr))
	assert.Equal(t, "end", derr.Field)
}

func TestNew_EmptyRange(t *testing.T) {
	_, err := New(nil, nil, time.UTC)
	assert.ErrorIs(t, err, ErrEmptyRange)
}

func TestMatcher_Matches(t *testing.T) {
	tests := []struct {
		name  string
		start string
		end   string
		at    time.Time
		want  bool
	}{
		{name: "before open start", start: "2024-01-01", at: date(2023, 12, 31, 23, 59), want: false},
		{name: "on start day", start: "2024-01-01", at: date(2024, 1, 1, 0, 0), want: true},
		{name: "after open start", start: "2024-01-01", at: date(2024, 6, 1, 12, 0), want: true},
		{name: "late on end day is inclusive", end: "2024-01-31", at: date(2024, 1, 31, 23, 59), want: true},
		{name: "after end day", end: "2024-01-31", at: date(2024, 2, 1, 0, 0), want: false},
		{name: "inside closed range", start: "2024-01-01", end: "2024-01-31", at: date(2024, 1, 15, 8, 0), want: true},
		{name: "single day range", start: "2024-03-10", end: "2024-03-10", at: date(2024, 3, 10, 18, 30), want: true},
		{name: "single day range next day", start: "2024-03-10", end: "2024-03-10", at: date(2024, 3, 11, 0, 0), want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := Parse(tt.start, tt.end, time.UTC)
			require.NoError(t, err)
			require.NotNil(t, m)
			assert.Equal(t, tt.want, m.Matches(tt.at))
		})
	}
}

func TestMatcher_UsesRangeLocation(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*60*60)
	m, err := Parse("2024-01-02", "", tokyo)
	require.NoError(t, err)
	// 2024-01-01 20:00 UTC is already 2024-01-02 in Tokyo.
	assert.True(t, m.Matches(date(2024, 1, 1, 20, 0)))
	assert.False(t, m.Matches(date(2024, 1, 1, 10, 0)))
}

func TestNew_TruncatesBounds(t *testing.T) {
	start := date(2024, 5, 5, 17, 45)
	m, err := New(&start, nil, time.UTC)
	require.NoError(t, err)
	got, ok := m.Start()
	assert.True(t, ok)
	assert.Equal(t, date(2024, 5, 5, 0, 0), got)
	_, ok = m.End()
	assert.False(t, ok)
	assert.True(t, m.Matches(date(2024, 5, 5, 1, 0)))
}

func TestMatcher_Strings(t *testing.T) {
	m, err := Parse(" 2024-01-01 ", "", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-01", m.StartString())
	assert.Equal(t, "", m.EndString())
	assert.Equal(t, "[2024-01-01, *]", m.String())

	m, err = Parse("", "2024-12-31", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, "", m.StartString())
	assert.Equal(t, "2024-12-31", m.EndString())
}
