// Package daterange turns dashboard period presets into concrete time ranges.
package daterange

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	Today       = "today"
	Yesterday   = "yesterday"
	Last7Days   = "last7days"
	Last30Days  = "last30days"
	Last90Days  = "last90days"
	ThisWeek    = "thisWeek"
	ThisMonth   = "thisMonth"
	LastMonth   = "lastMonth"
	ThisQuarter = "thisQuarter"
	ThisYear    = "thisYear"
	LastYear    = "lastYear"
	AllTime     = "allTime"
	Custom      = "custom"

	// DefaultPreset applies when a request names neither a preset nor dates.
	DefaultPreset = Last30Days

	dateLayout = "2006-01-02"
)

// Presets lists the accepted preset names.
var Presets = []string{Today, Yesterday, Last7Days, Last30Days, Last90Days, ThisWeek, ThisMonth, LastMonth, ThisQuarter, ThisYear, LastYear, AllTime, Custom}

var (
	ErrInvalidRange  = errors.New("start date must not be after end date")
	ErrUnknownPreset = errors.New("unknown date range preset")
)

// Range is the half-open interval [Start, End). A zero Start is unbounded.
type Range struct {
	Preset string    `json:"preset"`
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
}

// Contains reports whether t falls inside the range.
func (r Range) Contains(t time.Time) bool {
	if !r.Start.IsZero() && t.Before(r.Start) {
		return false
	}
	if !r.End.IsZero() && !t.Before(r.End) {
		return false
	}
	return true
}

// StartLabel is the first day as YYYY-MM-DD, or "all" for an unbounded start.
func (r Range) StartLabel() string {
	if r.Start.IsZero() {
		return "all"
	}
	return r.Start.Format(dateLayout)
}

// EndLabel is the last day included in the range as YYYY-MM-DD.
func (r Range) EndLabel() string {
	if r.End.IsZero() {
		return "now"
	}
	return r.End.Add(-time.Nanosecond).Format(dateLayout)
}

// CacheKey identifies the range in cache keys.
func (r Range) CacheKey() string {
	return fmt.Sprintf("%s:%d:%d", r.Preset, unixOrZero(r.Start), unixOrZero(r.End))
}

func unixOrZero(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// Resolve computes the range for preset relative to now in loc. Custom needs Parse.
func Resolve(preset string, now time.Time, loc *time.Location) (Range, error) {
	if loc == nil {
		loc = time.Local
	}
	today := startOfDay(now, loc)
	tomorrow := today.AddDate(0, 0, 1)
	y, m, _ := today.Date()

	r := Range{Preset: preset}
	switch preset {
	case Today:
		r.Start, r.End = today, tomorrow
	case Yesterday:
		r.Start, r.End = today.AddDate(0, 0, -1), today
	case Last7Days:
		r.Start, r.End = today.AddDate(0, 0, -6), tomorrow
	case Last30Days:
		r.Start, r.End = today.AddDate(0, 0, -29), tomorrow
	case Last90Days:
		r.Start, r.End = today.AddDate(0, 0, -89), tomorrow
	case ThisWeek:
		// weeks start on Monday
		offset := (int(today.Weekday()) + 6) % 7
		r.Start = today.AddDate(0, 0, -offset)
		r.End = r.Start.AddDate(0, 0, 7)
	case ThisMonth:
		r.Start = time.Date(y, m, 1, 0, 0, 0, 0, loc)
		r.End = r.Start.AddDate(0, 1, 0)
	case LastMonth:
		r.End = time.Date(y, m, 1, 0, 0, 0, 0, loc)
		r.Start = r.End.AddDate(0, -1, 0)
	case ThisQuarter:
		qm := time.Month((int(m)-1)/3*3 + 1)
		r.Start = time.Date(y, qm, 1, 0, 0, 0, 0, loc)
		r.End = r.Start.AddDate(0, 3, 0)
	case ThisYear:
		r.Start = time.Date(y, time.January, 1, 0, 0, 0, 0, loc)
		r.End = r.Start.AddDate(1, 0, 0)
	case LastYear:
		r.End = time.Date(y, time.January, 1, 0, 0, 0, 0, loc)
		r.Start = r.End.AddDate(-1, 0, 0)
	case AllTime:
		r.End = tomorrow
	case Custom:
		return Range{}, fmt.Errorf("%w: custom ranges need start and end dates", ErrInvalidRange)
	default:
		return Range{}, fmt.Errorf("%w: %q", ErrUnknownPreset, preset)
	}
	return r, nil
}

// Parse builds a range from request values. Dates are YYYY-MM-DD and the end
// date is inclusive. Dates without a preset imply custom.
func Parse(preset, startStr, endStr string, now time.Time, loc *time.Location) (Range, error) {
	if loc == nil {
		loc = time.Local
	}
	preset = strings.TrimSpace(preset)
	startStr, endStr = strings.TrimSpace(startStr), strings.TrimSpace(endStr)

	if preset == "" {
		if startStr == "" && endStr == "" {
			preset = DefaultPreset
		} else {
			preset = Custom
		}
	}
	if preset != Custom {
		return Resolve(preset, now, loc)
	}

	r := Range{Preset: Custom}
	if startStr != "" {
		start, err := time.ParseInLocation(dateLayout, startStr, loc)
		if err != nil {
			return Range{}, fmt.Errorf("%w: bad start date %q", ErrInvalidRange, startStr)
		}
		r.Start = start
	}
	endDate := startOfDay(now, loc)
	if endStr != "" {
		end, err := time.ParseInLocation(dateLayout, endStr, loc)
		if err != nil {
			return Range{}, fmt.Errorf("%w: bad end date %q", ErrInvalidRange, endStr)
		}
		endDate = end
	}
	if !r.Start.IsZero() && r.Start.After(endDate) {
		return Range{}, fmt.Errorf("%w: start %s is after end %s", ErrInvalidRange, startStr, endDate.Format(dateLayout))
	}
	r.End = endDate.AddDate(0, 0, 1)
	if err := r.Validate(); err != nil {
		return Range{}, err
	}
	return r, nil
}

// Validate checks a resolved range. End is exclusive, so a bounded range
// must have Start strictly before End.
func (r Range) Validate() error {
	if !r.Start.IsZero() && !r.End.IsZero() && !r.Start.Before(r.End) {
		return ErrInvalidRange
	}
	return nil
}
