package daterange

import (
	"errors"
	"testing"
	"time"
)

// Wednesday
var now = time.Date(2024, time.May, 15, 14, 30, 0, 0, time.UTC)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestResolvePresets(t *testing.T) {
	tests := []struct {
		preset     string
		start, end time.Time
	}{
		{Today, day(2024, 5, 15), day(2024, 5, 16)},
		{Yesterday, day(2024, 5, 14), day(2024, 5, 15)},
		{Last7Days, day(2024, 5, 9), day(2024, 5, 16)},
		{Last30Days, day(2024, 4, 16), day(2024, 5, 16)},
		{Last90Days, day(2024, 2, 16), day(2024, 5, 16)},
		{ThisWeek, day(2024, 5, 13), day(2024, 5, 20)},
		{ThisMonth, day(2024, 5, 1), day(2024, 6, 1)},
		{LastMonth, day(2024, 4, 1), day(2024, 5, 1)},
		{ThisQuarter, day(2024, 4, 1), day(2024, 7, 1)},
		{ThisYear, day(2024, 1, 1), day(2025, 1, 1)},
		{LastYear, day(2023, 1, 1), day(2024, 1, 1)},
		{AllTime, time.Time{}, day(2024, 5, 16)},
	}
	for _, tc := range tests {
		t.Run(tc.preset, func(t *testing.T) {
			r, err := Resolve(tc.preset, now, time.UTC)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !r.Start.Equal(tc.start) || !r.End.Equal(tc.end) {
				t.Fatalf("got [%s, %s), want [%s, %s)", r.Start, r.End, tc.start, tc.end)
			}
		})
	}
}

func TestThisWeekOnSundayStartsPreviousMonday(t *testing.T) {
	sunday := time.Date(2024, time.May, 19, 23, 0, 0, 0, time.UTC)
	r, err := Resolve(ThisWeek, sunday, time.UTC)
	if err != nil {
		t.Fatal(err)
	}
	if !r.Start.Equal(day(2024, 5, 13)) {
		t.Fatalf("week start = %s", r.Start)
	}
}

func TestLastMonthAcrossYearBoundary(t *testing.T) {
	jan := time.Date(2024, time.January, 10, 0, 0, 0, 0, time.UTC)
	r, _ := Resolve(LastMonth, jan, time.UTC)
	if !r.Start.Equal(day(2023, 12, 1)) || !r.End.Equal(day(2024, 1, 1)) {
		t.Fatalf("got [%s, %s)", r.Start, r.End)
	}
}

func TestResolveUsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*3600)
	// 22:00 UTC on the 15th is already the 16th at UTC+3
	r, _ := Resolve(Today, time.Date(2024, 5, 15, 22, 0, 0, 0, time.UTC), loc)
	if r.Start.Day() != 16 || r.Start.Location() != loc {
		t.Fatalf("today should be the 16th in %s, got %s", loc, r.Start)
	}
}

func TestResolveErrors(t *testing.T) {
	if _, err := Resolve("fortnight", now, time.UTC); !errors.Is(err, ErrUnknownPreset) {
		t.Fatalf("expected ErrUnknownPreset, got %v", err)
	}
	if _, err := Resolve(Custom, now, time.UTC); !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange for bare custom, got %v", err)
	}
}

func TestParseCustom(t *testing.T) {
	r, err := Parse("", "2024-05-01", "2024-05-10", now, time.UTC)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Preset != Custom || !r.Start.Equal(day(2024, 5, 1)) || !r.End.Equal(day(2024, 5, 11)) {
		t.Fatalf("unexpected range %+v", r)
	}
	if !r.Contains(time.Date(2024, 5, 10, 23, 59, 0, 0, time.UTC)) {
		t.Fatal("end date should be inclusive")
	}
	if r.Contains(day(2024, 5, 11)) {
		t.Fatal("range must be half-open")
	}
	if r.StartLabel() != "2024-05-01" || r.EndLabel() != "2024-05-10" {
		t.Fatalf("labels = %s %s", r.StartLabel(), r.EndLabel())
	}

	same, err := Parse(Custom, "2024-05-01", "2024-05-01", now, time.UTC)
	if err != nil || !same.Contains(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)) {
		t.Fatalf("single-day range should be valid, err=%v", err)
	}
}

func TestParseRejectsInvertedAndMalformed(t *testing.T) {
	if _, err := Parse(Custom, "2024-05-10", "2024-05-01", now, time.UTC); !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange, got %v", err)
	}
	if r, err := Parse(Custom, "2024-05-02", "2024-05-01", now, time.UTC); !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("start one day after end should be rejected, got %v (%s..%s)", err, r.Start, r.End)
	}
	future := now.AddDate(0, 0, 3).Format("2006-01-02")
	if _, err := Parse(Custom, future, "", now, time.UTC); !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("start after today with open end should be rejected, got %v", err)
	}
	if r, err := Parse(Custom, "2024-05-01", "2024-05-01", now, time.UTC); err != nil || !r.End.Equal(r.Start.AddDate(0, 0, 1)) {
		t.Fatalf("single-day range: %v %s..%s", err, r.Start, r.End)
	}
	if err := (Range{Start: now, End: now}).Validate(); !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("empty half-open range should not validate, got %v", err)
	}
	if _, err := Parse(Custom, "05/01/2024", "", now, time.UTC); !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange for bad date, got %v", err)
	}
}

func TestParseDefaultsAndPresets(t *testing.T) {
	r, err := Parse("", "", "", now, time.UTC)
	if err != nil || r.Preset != DefaultPreset {
		t.Fatalf("expected default preset, got %+v err=%v", r, err)
	}
	r, err = Parse(Today, "2020-01-01", "", now, time.UTC)
	if err != nil || r.Preset != Today {
		t.Fatalf("named preset should ignore dates, got %+v err=%v", r, err)
	}
	open, err := Parse(Custom, "2024-05-01", "", now, time.UTC)
	if err != nil || !open.End.Equal(day(2024, 5, 16)) {
		t.Fatalf("open-ended custom range should end after today, got %+v err=%v", open, err)
	}
}

func TestAllTimeContainsOldDates(t *testing.T) {
	r, _ := Resolve(AllTime, now, time.UTC)
	if !r.Contains(day(1999, 1, 1)) || r.StartLabel() != "all" {
		t.Fatalf("all time should be unbounded at the start")
	}
}
