package occurrence_test

import (
	"encoding/json"
	"testing"

	"stagedoor/internal/model"
	"stagedoor/internal/occurrence"
)

func strptr(s string) *string { return &s }

func TestResolveNoOverridePassesBaseThrough(t *testing.T) {
	ev := &model.Event{ID: 7, Name: "Open Mic", StartTime: "19:30", CoverImage: "base.jpg"}
	res := occurrence.Resolve(ev, nil, "2026-01-14")
	if res.HasOverride {
		t.Fatal("expected no override")
	}
	if res.StartTime != "19:30" || res.CoverImage != "base.jpg" || res.Name != "Open Mic" {
		t.Fatalf("base values altered: %+v", res)
	}
	if res.Cancelled {
		t.Fatal("absent override must not cancel the occurrence")
	}
}

// All eight presence combinations of (patch key, legacy column, base value)
// for the start-time field. Patch always wins when present, then the legacy
// column, then the base.
func TestResolveMergePrecedence(t *testing.T) {
	cases := []struct {
		name   string
		patch  string
		legacy *string
		base   string
		want   string
	}{
		{"patch+legacy+base", `{"start_time":"21:00"}`, strptr("20:00"), "19:00", "21:00"},
		{"patch+legacy", `{"start_time":"21:00"}`, strptr("20:00"), "", "21:00"},
		{"patch+base", `{"start_time":"21:00"}`, nil, "19:00", "21:00"},
		{"patch only", `{"start_time":"21:00"}`, nil, "", "21:00"},
		{"legacy+base", "", strptr("20:00"), "19:00", "20:00"},
		{"legacy only", "", strptr("20:00"), "", "20:00"},
		{"base only", "", nil, "19:00", "19:00"},
		{"all absent", "", nil, "", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ev := &model.Event{ID: 1, StartTime: tc.base}
			ov := &model.OccurrenceOverride{EventID: 1, DateKey: "2026-01-14", StartTime: tc.legacy}
			if tc.patch != "" {
				ov.Patch = json.RawMessage(tc.patch)
			}
			res := occurrence.Resolve(ev, ov, "2026-01-14")
			if res.StartTime != tc.want {
				t.Fatalf("resolved start time %q, want %q", res.StartTime, tc.want)
			}
		})
	}
}

func TestResolvePatchKeyAbsentFallsThrough(t *testing.T) {
	// Patch present but without the cover key: the legacy column applies.
	ev := &model.Event{ID: 1, CoverImage: "base.jpg"}
	ov := &model.OccurrenceOverride{
		CoverImage: strptr("special.jpg"),
		Patch:      json.RawMessage(`{"start_time":"22:00"}`),
	}
	res := occurrence.Resolve(ev, ov, "2026-01-14")
	if res.CoverImage != "special.jpg" {
		t.Fatalf("expected legacy cover, got %q", res.CoverImage)
	}
}

func TestResolveCancelledOccurrenceIsIsolated(t *testing.T) {
	ev := &model.Event{ID: 3, Name: "Trivia Night", StartTime: "19:00"}
	ov := &model.OccurrenceOverride{EventID: 3, DateKey: "2026-01-14", Status: model.OccurrenceStatusCancelled}

	cancelled := occurrence.Resolve(ev, ov, "2026-01-14")
	if !cancelled.Cancelled {
		t.Fatal("override status=cancelled must cancel the occurrence")
	}
	if cancelled.EventCancelled {
		t.Fatal("event-level flag must stay untouched")
	}

	adjacent := occurrence.Resolve(ev, nil, "2026-01-21")
	if adjacent.Cancelled {
		t.Fatal("adjacent dates must remain active")
	}
}

func TestResolvePatchStatusBeatsLegacyStatus(t *testing.T) {
	ev := &model.Event{ID: 4}
	ov := &model.OccurrenceOverride{
		Status: model.OccurrenceStatusCancelled,
		Patch:  json.RawMessage(`{"status":"active"}`),
	}
	res := occurrence.Resolve(ev, ov, "2026-01-14")
	if res.Cancelled {
		t.Fatal("patch status=active must win over legacy cancelled column")
	}
}

func TestResolveCorruptPatchDegradesToColumns(t *testing.T) {
	ev := &model.Event{ID: 5, StartTime: "19:00"}
	ov := &model.OccurrenceOverride{
		StartTime: strptr("20:30"),
		Patch:     json.RawMessage(`{not json`),
	}
	res := occurrence.Resolve(ev, ov, "2026-01-14")
	if res.StartTime != "20:30" {
		t.Fatalf("corrupt patch should fall through to legacy column, got %q", res.StartTime)
	}
}
