package ics_test

import (
	"strings"
	"testing"
	"time"

	"stagedoor/internal/ics"
	"stagedoor/internal/model"
	"stagedoor/internal/occurrence"
)

func TestBuildCalendarOneEventPerOccurrence(t *testing.T) {
	event := &model.Event{
		ID:              7,
		Name:            "Open Mic Night",
		Description:     "Weekly open mic",
		DurationMinutes: 120,
	}
	occs := []occurrence.Resolved{
		{EventID: 7, DateKey: "2026-01-07", Name: "Open Mic Night", StartTime: "19:30"},
		{EventID: 7, DateKey: "2026-01-14", Name: "Open Mic Night (holiday edition)", StartTime: "20:00"},
	}

	out := ics.BuildCalendar(event, "The Basement", occs, time.UTC)

	if !strings.Contains(out, "BEGIN:VCALENDAR") || !strings.Contains(out, "END:VCALENDAR") {
		t.Fatal("output is not a calendar")
	}
	if got := strings.Count(out, "BEGIN:VEVENT"); got != 2 {
		t.Fatalf("VEVENT count = %d, want 2", got)
	}
	if !strings.Contains(out, "UID:event-7-2026-01-07@stagedoor") {
		t.Fatal("missing stable per-occurrence UID")
	}
	if !strings.Contains(out, "SUMMARY:Open Mic Night (holiday edition)") {
		t.Fatal("overridden occurrence name not exported")
	}
	if !strings.Contains(out, "LOCATION:The Basement") {
		t.Fatal("venue name not exported as location")
	}
	if !strings.Contains(out, "T193000") {
		t.Fatal("occurrence start time not exported")
	}
}

func TestBuildCalendarSkipsBadDateKeys(t *testing.T) {
	event := &model.Event{ID: 1, Name: "Trivia"}
	occs := []occurrence.Resolved{
		{EventID: 1, DateKey: "not-a-date", Name: "Trivia"},
		{EventID: 1, DateKey: "2026-02-03", Name: "Trivia"},
	}

	out := ics.BuildCalendar(event, "", occs, time.UTC)
	if got := strings.Count(out, "BEGIN:VEVENT"); got != 1 {
		t.Fatalf("VEVENT count = %d, want 1", got)
	}
}

func TestBuildCalendarDefaultsStartAndDuration(t *testing.T) {
	event := &model.Event{ID: 2, Name: "Jam Session"}
	occs := []occurrence.Resolved{
		{EventID: 2, DateKey: "2026-03-01", Name: "Jam Session", StartTime: ""},
	}

	out := ics.BuildCalendar(event, "", occs, time.UTC)
	if !strings.Contains(out, "T190000") {
		t.Fatal("missing default evening start time")
	}
	if !strings.Contains(out, "T210000") {
		t.Fatal("missing default two hour end time")
	}
}
