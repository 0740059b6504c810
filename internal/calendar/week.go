// Package calendar is the single place where task date strings are parsed
// and mapped onto weeks, weekdays and calendar days.
package calendar

import (
	"fmt"
	"strings"
	"time"

	"task-tracker/internal/model"
)

// Day is a plain calendar day without time or zone.
type Day struct {
	Year  int
	Month time.Month
	Day   int
}

// ParseDay reads a YYYY-MM-DD string.
func ParseDay(raw string) (Day, error) {
	t, err := time.Parse(time.DateOnly, strings.TrimSpace(raw))
	if err != nil {
		return Day{}, fmt.Errorf("invalid day %q, expected YYYY-MM-DD", raw)
	}
	return Day{Year: t.Year(), Month: t.Month(), Day: t.Day()}, nil
}

// Timestamp renders d as an RFC 3339 time at noon in loc, the form task dates
// are sent in. Noon keeps the day intact when the server stores it in UTC.
func (d Day) Timestamp(loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(d.Year, d.Month, d.Day, 12, 0, 0, 0, loc).Format(time.RFC3339)
}

// IsZero reports whether no day is set.
func (d Day) IsZero() bool {
	return d == Day{}
}

func (d Day) String() string {
	if d.IsZero() {
		return ""
	}
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// Layouts without a zone are read in the indexer's location.
var zonedLayouts = []string{
	time.RFC3339,
	time.RFC1123,
	time.RFC1123Z,
	"Mon Jan 02 2006 15:04:05 GMT-0700",
}

var localLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	time.DateTime,
	time.DateOnly,
}

// Indexer maps task date strings to week keys, weekday labels and days.
type Indexer struct {
	loc *time.Location
}

// NewIndexer returns an Indexer that buckets in loc. A nil loc means UTC.
func NewIndexer(loc *time.Location) *Indexer {
	if loc == nil {
		loc = time.UTC
	}
	return &Indexer{loc: loc}
}

// Location returns the zone dates are bucketed in.
func (ix *Indexer) Location() *time.Location {
	return ix.loc
}

// Parse reads raw in any supported layout. ok is false for anything it cannot read.
func (ix *Indexer) Parse(raw string) (t time.Time, ok bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	// Date.toString() appends the zone name in parentheses.
	if i := strings.Index(raw, " ("); i > 0 && strings.HasSuffix(raw, ")") {
		raw = raw[:i]
	}

	for _, layout := range zonedLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed.In(ix.loc), true
		}
	}
	for _, layout := range localLayouts {
		if parsed, err := time.ParseInLocation(layout, raw, ix.loc); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}

// WeekKey returns the ISO 8601 week number of t.
func (ix *Indexer) WeekKey(t time.Time) int {
	_, week := t.In(ix.loc).ISOWeek()
	return week
}

// WeekdayIndex returns 0 for Sunday through 6 for Saturday.
func (ix *Indexer) WeekdayIndex(t time.Time) int {
	return int(t.In(ix.loc).Weekday())
}

// WeekdayName returns one of model.WeekdayLabels.
func (ix *Indexer) WeekdayName(t time.Time) string {
	return model.WeekdayLabels[ix.WeekdayIndex(t)]
}

// DayOf normalizes t to its calendar day.
func (ix *Indexer) DayOf(t time.Time) Day {
	y, m, d := t.In(ix.loc).Date()
	return Day{Year: y, Month: m, Day: d}
}

// Index parses raw and returns its week key and weekday column.
func (ix *Indexer) Index(raw string) (week, weekday int, ok bool) {
	t, ok := ix.Parse(raw)
	if !ok {
		return 0, 0, false
	}
	return ix.WeekKey(t), ix.WeekdayIndex(t), true
}

// Today returns the current calendar day in the indexer's location.
func (ix *Indexer) Today(now time.Time) Day {
	return ix.DayOf(now)
}
