// Package ics renders an event's resolved occurrences as an iCalendar feed
// so members can subscribe from their own calendar apps.
package ics

import (
	"fmt"
	"time"

	ical "github.com/arran4/golang-ical"

	"stagedoor/internal/model"
	"stagedoor/internal/occurrence"
	"stagedoor/internal/recurrence"
)

const defaultStartHour = 19

// BuildCalendar serializes one VEVENT per resolved occurrence. Each VEVENT
// carries the occurrence's own start time (overrides already applied by the
// caller), so moved dates export correctly without any RRULE in the feed.
func BuildCalendar(event *model.Event, venueName string, occurrences []occurrence.Resolved, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId("-//stagedoor//event feed//EN")

	now := time.Now()
	for _, occ := range occurrences {
		start, ok := occurrenceStart(occ, loc)
		if !ok {
			continue
		}

		dur := time.Duration(event.DurationMinutes) * time.Minute
		if dur <= 0 {
			dur = 2 * time.Hour
		}

		uid := fmt.Sprintf("event-%d-%s@stagedoor", event.ID, occ.DateKey)
		ve := cal.AddEvent(uid)
		ve.SetDtStampTime(now)
		ve.SetStartAt(start)
		ve.SetEndAt(start.Add(dur))
		ve.SetSummary(occ.Name)
		if venueName != "" {
			ve.SetLocation(venueName)
		}
		if occ.Notes != "" {
			ve.SetDescription(occ.Notes)
		} else if event.Description != "" {
			ve.SetDescription(event.Description)
		}
	}

	return cal.Serialize()
}

// occurrenceStart combines the date key with the occurrence's wall-clock
// start time in the display location. Unparseable start times fall back to
// a default evening hour rather than dropping the date.
func occurrenceStart(occ occurrence.Resolved, loc *time.Location) (time.Time, bool) {
	day, ok := recurrence.ParseDateKey(occ.DateKey)
	if !ok {
		return time.Time{}, false
	}

	hour, minute := defaultStartHour, 0
	if t, err := time.Parse("15:04", occ.StartTime); err == nil {
		hour, minute = t.Hour(), t.Minute()
	}

	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, loc), true
}
