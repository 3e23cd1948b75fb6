package service

import (
	"strings"
	"testing"

	"stagedoor/internal/model"
)

func TestChooseDate(t *testing.T) {
	dates := []string{"2026-01-07", "2026-01-14", "2026-01-21"}

	tests := []struct {
		name         string
		dates        []string
		requested    string
		tvMode       bool
		wantDate     string
		wantFallback bool
	}{
		{
			name:     "no request picks nearest upcoming",
			dates:    dates,
			wantDate: "2026-01-07",
		},
		{
			name:      "requested matching date wins",
			dates:     dates,
			requested: "2026-01-14",
			wantDate:  "2026-01-14",
		},
		{
			name:         "requested non-occurrence falls back",
			dates:        dates,
			requested:    "2026-01-08",
			wantDate:     "2026-01-07",
			wantFallback: true,
		},
		{
			name:         "malformed date falls back",
			dates:        dates,
			requested:    "january 7th",
			wantDate:     "2026-01-07",
			wantFallback: true,
		},
		{
			name:      "tv mode accepts any well-formed date",
			dates:     dates,
			requested: "2025-12-31",
			tvMode:    true,
			wantDate:  "2025-12-31",
		},
		{
			name:         "tv mode still rejects malformed dates",
			dates:        dates,
			requested:    "tonight",
			tvMode:       true,
			wantDate:     "2026-01-07",
			wantFallback: true,
		},
		{
			name:         "no occurrences at all",
			dates:        nil,
			requested:    "2026-01-07",
			wantDate:     "",
			wantFallback: true,
		},
		{
			name:     "no occurrences and no request",
			dates:    nil,
			wantDate: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, fallback := chooseDate(tt.dates, tt.requested, tt.tvMode)
			if got != tt.wantDate {
				t.Fatalf("chooseDate() date = %q, want %q", got, tt.wantDate)
			}
			if fallback != tt.wantFallback {
				t.Fatalf("chooseDate() fallback = %v, want %v", fallback, tt.wantFallback)
			}
		})
	}
}

func TestDecideEventControl(t *testing.T) {
	admin := &model.Profile{ID: 1, Role: model.RoleAdmin}
	member := &model.Profile{ID: 2, Role: model.RoleMember}

	tests := []struct {
		name     string
		profile  *model.Profile
		hostRole string
		want     accessDecision
	}{
		{"anonymous is unauthenticated", nil, "", accessUnauthenticated},
		{"admin without host role allowed", admin, "", accessAllowed},
		{"host allowed", member, model.HostRoleHost, accessAllowed},
		{"co-host allowed", member, model.HostRoleCoHost, accessAllowed},
		{"plain member forbidden", member, "", accessForbidden},
		{"unknown role forbidden", member, "stagehand", accessForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := decideEventControl(tt.profile, tt.hostRole); got != tt.want {
				t.Fatalf("decideEventControl() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Tuesday Open Mic", "tuesday-open-mic"},
		{"  The  Cellar!  ", "the-cellar"},
		{"Jazz & Blues Night", "jazz-blues-night"},
		{"Comedy 101", "comedy-101"},
		{"???", ""},
		{"", ""},
	}

	for _, tt := range tests {
		if got := slugify(tt.in); got != tt.want {
			t.Fatalf("slugify(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNewSlugNeverEmptyAndNeverRepeats(t *testing.T) {
	// Two events with identical names must not land on the same slug, or the
	// second insert trips the unique index.
	a := newSlug("Tuesday Open Mic")
	b := newSlug("Tuesday Open Mic")
	if a == "" || b == "" {
		t.Fatalf("generated slugs must be non-empty, got %q and %q", a, b)
	}
	if a == b {
		t.Fatalf("generated slugs must differ, both were %q", a)
	}
	if !strings.HasPrefix(a, "tuesday-open-mic-") {
		t.Fatalf("slug %q should start with the slugified name", a)
	}

	if got := newSlug("???"); got == "" {
		t.Fatal("unnameable input should still produce a slug")
	}
}

func TestParseDateParam(t *testing.T) {
	if _, ok := parseDateParam("2026-01-07"); !ok {
		t.Fatal("well-formed date rejected")
	}
	for _, bad := range []string{"", "2026-1-7", "07-01-2026", "2026-13-01", "garbage"} {
		if _, ok := parseDateParam(bad); ok {
			t.Fatalf("parseDateParam(%q) accepted, want rejection", bad)
		}
	}
}
