package recurrence_test

import (
	"testing"
	"time"

	"stagedoor/internal/recurrence"
)

func TestInterpretKnownRules(t *testing.T) {
	cases := []struct {
		rule      string
		recurring bool
		freq      recurrence.Frequency
		confident bool
	}{
		{"", false, recurrence.FreqNone, true},
		{"weekly", true, recurrence.FreqWeekly, true},
		{"Weekly", true, recurrence.FreqWeekly, true},
		{"every week", true, recurrence.FreqWeekly, true},
		{"biweekly", true, recurrence.FreqBiweekly, true},
		{"every other week", true, recurrence.FreqBiweekly, true},
		{"monthly", true, recurrence.FreqMonthly, true},
		{"RRULE:FREQ=WEEKLY", true, recurrence.FreqWeekly, true},
		{"FREQ=WEEKLY;INTERVAL=2", true, recurrence.FreqBiweekly, true},
		{"RRULE:FREQ=MONTHLY", true, recurrence.FreqMonthly, true},
		{"RRULE:FREQ=DAILY", true, recurrence.FreqNone, false},
		{"1st and 3rd Tuesday", false, recurrence.FreqNone, false},
		{"whenever", false, recurrence.FreqNone, false},
	}

	for _, tc := range cases {
		d := recurrence.Interpret(tc.rule)
		if d.IsRecurring != tc.recurring || d.Frequency != tc.freq || d.IsConfident != tc.confident {
			t.Fatalf("Interpret(%q) = %+v, want recurring=%v freq=%v confident=%v",
				tc.rule, d, tc.recurring, tc.freq, tc.confident)
		}
	}
}

func TestExpandNonRecurringInWindow(t *testing.T) {
	occ := recurrence.Expand(
		recurrence.Input{AnchorDate: "2026-01-20"},
		recurrence.Window{Start: "2026-01-05", End: "2026-02-04"},
	)
	if len(occ) != 1 {
		t.Fatalf("expected exactly one occurrence, got %d", len(occ))
	}
	if occ[0].DateKey != "2026-01-20" {
		t.Fatalf("expected anchor date, got %s", occ[0].DateKey)
	}
	if !occ[0].IsConfident {
		t.Fatal("empty rule should be a confident one-off")
	}
}

func TestExpandNonRecurringOutsideWindow(t *testing.T) {
	occ := recurrence.Expand(
		recurrence.Input{AnchorDate: "2026-03-01"},
		recurrence.Window{Start: "2026-01-05", End: "2026-02-04"},
	)
	if len(occ) != 0 {
		t.Fatalf("expected no occurrences, got %v", occ)
	}
}

func TestExpandWeeklyWednesdayScenario(t *testing.T) {
	// Anchored on a Wednesday well before the window; the first in-window
	// occurrence must be the Wednesday inside it, then strict 7-day steps.
	occ := recurrence.Expand(
		recurrence.Input{AnchorDate: "2025-11-05", Weekday: "Wednesday", Rule: "weekly"},
		recurrence.Window{Start: "2026-01-05", End: "2026-02-04"},
	)
	want := []string{"2026-01-07", "2026-01-14", "2026-01-21", "2026-01-28", "2026-02-04"}
	if len(occ) != len(want) {
		t.Fatalf("expected %d occurrences, got %d: %v", len(want), len(occ), occ)
	}
	for i, w := range want {
		if occ[i].DateKey != w {
			t.Fatalf("occurrence %d: got %s want %s", i, occ[i].DateKey, w)
		}
		if !occ[i].IsConfident {
			t.Fatalf("occurrence %d should be confident", i)
		}
	}
}

func TestExpandWeeklySevenDayAlignment(t *testing.T) {
	occ := recurrence.Expand(
		recurrence.Input{AnchorDate: "2025-06-02", Rule: "weekly"},
		recurrence.Window{Start: "2026-01-01", End: "2026-03-31"},
	)
	if len(occ) < 2 {
		t.Fatalf("expected several occurrences, got %d", len(occ))
	}
	first, _ := recurrence.ParseDateKey(occ[0].DateKey)
	for i, o := range occ {
		d, ok := recurrence.ParseDateKey(o.DateKey)
		if !ok {
			t.Fatalf("bad date key %q", o.DateKey)
		}
		days := int(d.Sub(first).Hours() / 24)
		if days != i*7 {
			t.Fatalf("occurrence %d is %d days after first, want %d", i, days, i*7)
		}
	}
}

func TestExpandFutureAnchorIsFirstOccurrence(t *testing.T) {
	occ := recurrence.Expand(
		recurrence.Input{AnchorDate: "2026-01-20", Rule: "weekly"},
		recurrence.Window{Start: "2026-01-05", End: "2026-02-04"},
	)
	if len(occ) == 0 || occ[0].DateKey != "2026-01-20" {
		t.Fatalf("expected first occurrence to be the anchor itself, got %v", occ)
	}
}

func TestExpandBiweekly(t *testing.T) {
	occ := recurrence.Expand(
		recurrence.Input{AnchorDate: "2026-01-06", Rule: "biweekly"},
		recurrence.Window{Start: "2026-01-05", End: "2026-02-04"},
	)
	want := []string{"2026-01-06", "2026-01-20", "2026-02-03"}
	if len(occ) != len(want) {
		t.Fatalf("expected %v, got %v", want, occ)
	}
	for i, w := range want {
		if occ[i].DateKey != w {
			t.Fatalf("occurrence %d: got %s want %s", i, occ[i].DateKey, w)
		}
	}
}

func TestExpandMonthly(t *testing.T) {
	occ := recurrence.Expand(
		recurrence.Input{AnchorDate: "2025-10-15", Rule: "monthly"},
		recurrence.Window{Start: "2026-01-01", End: "2026-03-31"},
	)
	want := []string{"2026-01-15", "2026-02-15", "2026-03-15"}
	if len(occ) != len(want) {
		t.Fatalf("expected %v, got %v", want, occ)
	}
	for i, w := range want {
		if occ[i].DateKey != w {
			t.Fatalf("occurrence %d: got %s want %s", i, occ[i].DateKey, w)
		}
	}
}

func TestExpandMonthlyClampsShortMonths(t *testing.T) {
	// A series anchored on the 31st must visit February on its last day and
	// come back to the 31st afterwards, not slide onto the 3rd for good.
	occ := recurrence.Expand(
		recurrence.Input{AnchorDate: "2026-01-31", Rule: "monthly"},
		recurrence.Window{Start: "2026-01-01", End: "2026-06-30"},
	)
	want := []string{"2026-01-31", "2026-02-28", "2026-03-31", "2026-04-30", "2026-05-31", "2026-06-30"}
	if len(occ) != len(want) {
		t.Fatalf("expected %v, got %v", want, occ)
	}
	for i, w := range want {
		if occ[i].DateKey != w {
			t.Fatalf("occurrence %d: got %s want %s", i, occ[i].DateKey, w)
		}
	}
}

func TestExpandMonthlyLeapFebruary(t *testing.T) {
	occ := recurrence.Expand(
		recurrence.Input{AnchorDate: "2028-01-31", Rule: "monthly"},
		recurrence.Window{Start: "2028-02-01", End: "2028-03-31"},
	)
	want := []string{"2028-02-29", "2028-03-31"}
	if len(occ) != len(want) {
		t.Fatalf("expected %v, got %v", want, occ)
	}
	for i, w := range want {
		if occ[i].DateKey != w {
			t.Fatalf("occurrence %d: got %s want %s", i, occ[i].DateKey, w)
		}
	}
}

func TestExpandWeekdayAlignsAnchor(t *testing.T) {
	// 2026-01-05 is a Monday; the weekday hint pushes the series to Wednesday.
	occ := recurrence.Expand(
		recurrence.Input{AnchorDate: "2026-01-05", Weekday: "wednesday", Rule: "weekly"},
		recurrence.Window{Start: "2026-01-05", End: "2026-01-31"},
	)
	if len(occ) == 0 || occ[0].DateKey != "2026-01-07" {
		t.Fatalf("expected series to start 2026-01-07, got %v", occ)
	}
}

func TestExpandRRuleWeekly(t *testing.T) {
	occ := recurrence.Expand(
		recurrence.Input{AnchorDate: "2026-01-07", Rule: "RRULE:FREQ=WEEKLY"},
		recurrence.Window{Start: "2026-01-05", End: "2026-02-04"},
	)
	want := []string{"2026-01-07", "2026-01-14", "2026-01-21", "2026-01-28", "2026-02-04"}
	if len(occ) != len(want) {
		t.Fatalf("expected %v, got %v", want, occ)
	}
	for i, w := range want {
		if occ[i].DateKey != w {
			t.Fatalf("occurrence %d: got %s want %s", i, occ[i].DateKey, w)
		}
	}
}

func TestExpandUnconfidentRuleFallsBackToAnchor(t *testing.T) {
	occ := recurrence.Expand(
		recurrence.Input{AnchorDate: "2026-01-10", Rule: "1st and 3rd Saturday"},
		recurrence.Window{Start: "2026-01-05", End: "2026-02-04"},
	)
	if len(occ) != 1 || occ[0].DateKey != "2026-01-10" {
		t.Fatalf("expected anchor-only fallback, got %v", occ)
	}
	if occ[0].IsConfident {
		t.Fatal("fallback occurrence must not be confident")
	}
}

func TestExpandBadAnchorOrWindow(t *testing.T) {
	if occ := recurrence.Expand(recurrence.Input{AnchorDate: "not-a-date", Rule: "weekly"},
		recurrence.Window{Start: "2026-01-05", End: "2026-02-04"}); len(occ) != 0 {
		t.Fatalf("bad anchor should expand to nothing, got %v", occ)
	}
	if occ := recurrence.Expand(recurrence.Input{AnchorDate: "2026-01-10"},
		recurrence.Window{Start: "2026-02-04", End: "2026-01-05"}); len(occ) != 0 {
		t.Fatalf("inverted window should expand to nothing, got %v", occ)
	}
}

func TestSingleOccurrenceIgnoresWindow(t *testing.T) {
	occ := recurrence.SingleOccurrence(recurrence.Input{AnchorDate: "2020-05-01"})
	if len(occ) != 1 || occ[0].DateKey != "2020-05-01" {
		t.Fatalf("expected unconditional anchor emission, got %v", occ)
	}
}

func TestDefaultWindow(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	now := time.Date(2026, 1, 5, 23, 30, 0, 0, time.UTC)
	win := recurrence.DefaultWindow(now, loc)
	if win.Start != "2026-01-05" {
		t.Fatalf("unexpected window start %s", win.Start)
	}
	if win.End != "2026-04-05" {
		t.Fatalf("unexpected window end %s", win.End)
	}
}
