package recurrence

import (
	"strings"
	"time"

	"github.com/teambition/rrule-go"
)

// DateKeyLayout is the wire format for occurrence date keys.
const DateKeyLayout = "2006-01-02"

type Frequency string

const (
	FreqNone     Frequency = "none"
	FreqWeekly   Frequency = "weekly"
	FreqBiweekly Frequency = "biweekly"
	FreqMonthly  Frequency = "monthly"
)

// Descriptor is the normalized interpretation of an event's recurrence rule.
// IsConfident reports whether the rule mapped unambiguously to a known
// frequency; callers must treat unconfident descriptors as a single
// occurrence on the anchor date.
type Descriptor struct {
	IsRecurring bool
	Frequency   Frequency
	IsConfident bool
}

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// Interpret maps a free-form recurrence rule to a Descriptor. It never
// fails: anything it cannot understand degrades to a non-recurring,
// unconfident descriptor rather than breaking the caller's render.
func Interpret(rule string) Descriptor {
	norm := strings.ToLower(strings.TrimSpace(rule))
	if norm == "" {
		return Descriptor{IsRecurring: false, Frequency: FreqNone, IsConfident: true}
	}

	if isRRule(norm) {
		return interpretRRule(rule)
	}

	switch {
	case strings.Contains(norm, "biweekly"),
		strings.Contains(norm, "bi-weekly"),
		strings.Contains(norm, "fortnight"),
		strings.Contains(norm, "every other week"),
		strings.Contains(norm, "every 2 weeks"),
		strings.Contains(norm, "every two weeks"):
		return Descriptor{IsRecurring: true, Frequency: FreqBiweekly, IsConfident: true}
	case strings.Contains(norm, "weekly"), strings.Contains(norm, "every week"):
		return Descriptor{IsRecurring: true, Frequency: FreqWeekly, IsConfident: true}
	case strings.Contains(norm, "monthly"), strings.Contains(norm, "every month"):
		return Descriptor{IsRecurring: true, Frequency: FreqMonthly, IsConfident: true}
	}

	// Phrases like "1st and 3rd Tuesday" or "whenever we feel like it" are
	// recurring in spirit but cannot be expanded safely.
	return Descriptor{IsRecurring: false, Frequency: FreqNone, IsConfident: false}
}

func isRRule(norm string) bool {
	return strings.HasPrefix(norm, "rrule:") || strings.Contains(norm, "freq=")
}

func interpretRRule(rule string) Descriptor {
	opt, err := rrule.StrToROption(strings.TrimPrefix(strings.TrimSpace(rule), "RRULE:"))
	if err != nil {
		return Descriptor{IsRecurring: false, Frequency: FreqNone, IsConfident: false}
	}

	interval := opt.Interval
	if interval == 0 {
		interval = 1
	}

	switch {
	case opt.Freq == rrule.WEEKLY && interval == 1:
		return Descriptor{IsRecurring: true, Frequency: FreqWeekly, IsConfident: true}
	case opt.Freq == rrule.WEEKLY && interval == 2:
		return Descriptor{IsRecurring: true, Frequency: FreqBiweekly, IsConfident: true}
	case opt.Freq == rrule.MONTHLY && interval == 1:
		return Descriptor{IsRecurring: true, Frequency: FreqMonthly, IsConfident: true}
	}

	// Parseable but outside the supported frequencies (DAILY, YEARLY,
	// exotic intervals): recurring, but not safe to expand.
	return Descriptor{IsRecurring: true, Frequency: FreqNone, IsConfident: false}
}

// ParseWeekday resolves a weekday name, case-insensitively. The bool is
// false for empty or unrecognized names.
func ParseWeekday(name string) (time.Weekday, bool) {
	wd, ok := weekdayNames[strings.ToLower(strings.TrimSpace(name))]
	return wd, ok
}

// ParseDateKey parses a YYYY-MM-DD date key into a UTC midnight time.
func ParseDateKey(key string) (time.Time, bool) {
	t, err := time.Parse(DateKeyLayout, strings.TrimSpace(key))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
