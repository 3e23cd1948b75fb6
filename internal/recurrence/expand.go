package recurrence

import (
	"strings"
	"time"

	"github.com/teambition/rrule-go"
)

// maxOccurrences caps a single expansion so a malformed rule can never
// produce an unbounded sequence.
const maxOccurrences = 366

// DefaultWindowDays is the horizon used when a caller does not supply an
// explicit window.
const DefaultWindowDays = 90

// Input is the raw scheduling shape of an event as stored.
type Input struct {
	AnchorDate string
	Weekday    string
	Rule       string
}

// Window is an inclusive [Start, End] date-key range.
type Window struct {
	Start string
	End   string
}

// Occurrence is one concrete calendar date an event occurs on.
type Occurrence struct {
	DateKey     string
	IsConfident bool
}

// DefaultWindow returns the standard "today through +DefaultWindowDays"
// window in the given location.
func DefaultWindow(now time.Time, loc *time.Location) Window {
	if loc == nil {
		loc = time.UTC
	}
	today := now.In(loc)
	return Window{
		Start: today.Format(DateKeyLayout),
		End:   today.AddDate(0, 0, DefaultWindowDays).Format(DateKeyLayout),
	}
}

// Expand produces the ordered, deduplicated occurrence dates of in within
// the window. A zero-length result is a valid "no upcoming dates" answer,
// never an error. Unconfident or non-recurring inputs yield the anchor date
// alone, and only when it falls inside the window.
func Expand(in Input, win Window) []Occurrence {
	anchor, ok := ParseDateKey(in.AnchorDate)
	if !ok {
		return nil
	}
	if win.End < win.Start {
		return nil
	}

	desc := Interpret(in.Rule)
	base := alignToWeekday(anchor, in.Weekday)

	if !desc.IsRecurring || !desc.IsConfident {
		key := base.Format(DateKeyLayout)
		if key >= win.Start && key <= win.End {
			return []Occurrence{{DateKey: key, IsConfident: desc.IsConfident}}
		}
		return nil
	}

	if isRRule(strings.ToLower(in.Rule)) {
		return expandRRule(in.Rule, base, win, desc)
	}
	return expandStepped(base, win, desc)
}

// SingleOccurrence emits the anchor date unconditionally, with no window
// applied. Call sites that want windowed behavior must use Expand.
func SingleOccurrence(in Input) []Occurrence {
	anchor, ok := ParseDateKey(in.AnchorDate)
	if !ok {
		return nil
	}
	desc := Interpret(in.Rule)
	base := alignToWeekday(anchor, in.Weekday)
	return []Occurrence{{DateKey: base.Format(DateKeyLayout), IsConfident: desc.IsConfident}}
}

// alignToWeekday advances the anchor to the first date on or after it that
// falls on the named weekday. An empty or unknown name leaves the anchor
// untouched.
func alignToWeekday(anchor time.Time, weekday string) time.Time {
	wd, ok := ParseWeekday(weekday)
	if !ok {
		return anchor
	}
	d := anchor
	for d.Weekday() != wd {
		d = d.AddDate(0, 0, 1)
	}
	return d
}

func expandStepped(base time.Time, win Window, desc Descriptor) []Occurrence {
	switch desc.Frequency {
	case FreqWeekly:
		return expandByDays(base, win, 7)
	case FreqBiweekly:
		return expandByDays(base, win, 14)
	case FreqMonthly:
		return expandMonthly(base, win)
	default:
		return nil
	}
}

func expandByDays(base time.Time, win Window, step int) []Occurrence {
	// First on-or-after-window occurrence. A base already past the window
	// start is itself the first occurrence.
	cur := base
	for cur.Format(DateKeyLayout) < win.Start {
		cur = cur.AddDate(0, 0, step)
	}

	out := make([]Occurrence, 0)
	for len(out) < maxOccurrences {
		key := cur.Format(DateKeyLayout)
		if key > win.End {
			break
		}
		out = append(out, Occurrence{DateKey: key, IsConfident: true})
		cur = cur.AddDate(0, 0, step)
	}
	return out
}

// expandMonthly recomputes every occurrence from the anchor's day of month,
// clamping to the last day of shorter months. Stepping the previous result
// with AddDate would let Go normalize Jan 31 + 1 month into March and the
// whole series would drift.
func expandMonthly(base time.Time, win Window) []Occurrence {
	out := make([]Occurrence, 0)
	for n := 0; len(out) < maxOccurrences; n++ {
		key := monthlyOccurrence(base, n).Format(DateKeyLayout)
		if key > win.End {
			break
		}
		if key < win.Start {
			continue
		}
		out = append(out, Occurrence{DateKey: key, IsConfident: true})
	}
	return out
}

func monthlyOccurrence(base time.Time, n int) time.Time {
	first := time.Date(base.Year(), base.Month(), 1, 0, 0, 0, 0, base.Location()).AddDate(0, n, 0)
	day := base.Day()
	if last := first.AddDate(0, 1, -1).Day(); day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, base.Location())
}

func expandRRule(rule string, base time.Time, win Window, desc Descriptor) []Occurrence {
	opt, err := rrule.StrToROption(strings.TrimPrefix(strings.TrimSpace(rule), "RRULE:"))
	if err != nil {
		return nil
	}
	opt.Dtstart = base
	r, err := rrule.NewRRule(*opt)
	if err != nil {
		return nil
	}

	start, _ := ParseDateKey(win.Start)
	end, _ := ParseDateKey(win.End)
	// End of day so the last in-window date is inclusive.
	end = end.Add(24*time.Hour - time.Second)

	times := r.Between(start, end, true)
	if len(times) > maxOccurrences {
		times = times[:maxOccurrences]
	}

	out := make([]Occurrence, 0, len(times))
	seen := make(map[string]struct{}, len(times))
	for _, t := range times {
		key := t.Format(DateKeyLayout)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, Occurrence{DateKey: key, IsConfident: desc.IsConfident})
	}
	return out
}
