// Package occurrence resolves a concrete event occurrence by layering a
// per-date override record over the base event definition. The merge
// precedence is patch field > dedicated override column > base event value,
// and it lives here and only here so every consumer resolves identically.
package occurrence

import (
	"encoding/json"

	"stagedoor/internal/model"
)

// Patch keys recognized inside an override's generic patch map.
const (
	PatchKeyStatus     = "status"
	PatchKeyStartTime  = "start_time"
	PatchKeyCoverImage = "cover_image"
	PatchKeyNotes      = "notes"
	PatchKeyName       = "name"
)

// Resolved is the effective shape of one occurrence after override merge.
// Cancelled is the occurrence's own flag; the event-level flag is carried
// separately because a single date can be cancelled while the series runs on.
type Resolved struct {
	EventID        int64  `json:"event_id"`
	DateKey        string `json:"date_key"`
	Name           string `json:"name"`
	StartTime      string `json:"start_time"`
	CoverImage     string `json:"cover_image,omitempty"`
	Notes          string `json:"notes,omitempty"`
	Cancelled      bool   `json:"cancelled"`
	EventCancelled bool   `json:"event_cancelled"`
	HasOverride    bool   `json:"has_override"`
}

// Resolve merges ov over ev for the given date key. A nil override means
// the base event values pass through unchanged.
func Resolve(ev *model.Event, ov *model.OccurrenceOverride, dateKey string) Resolved {
	res := Resolved{
		EventID:        ev.ID,
		DateKey:        dateKey,
		Name:           ev.Name,
		StartTime:      ev.StartTime,
		CoverImage:     ev.CoverImage,
		EventCancelled: ev.Cancelled,
	}
	if ov == nil {
		return res
	}
	res.HasOverride = true

	patch := decodePatch(ov.Patch)

	res.Name = mergeField(patch, PatchKeyName, nil, ev.Name)
	res.StartTime = mergeField(patch, PatchKeyStartTime, ov.StartTime, ev.StartTime)
	res.CoverImage = mergeField(patch, PatchKeyCoverImage, ov.CoverImage, ev.CoverImage)

	legacyNotes := optional(ov.Notes)
	res.Notes = mergeField(patch, PatchKeyNotes, legacyNotes, "")

	status := mergeField(patch, PatchKeyStatus, optional(ov.Status), model.OccurrenceStatusActive)
	res.Cancelled = status == model.OccurrenceStatusCancelled

	return res
}

func decodePatch(raw json.RawMessage) map[string]any {
	if len(raw) == 0 {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		// A corrupt patch must not take the page down; the dedicated
		// columns still apply.
		return nil
	}
	return m
}

// mergeField applies the three-tier precedence for a single string field:
// a present patch key wins, then a non-nil legacy column, then the base.
func mergeField(patch map[string]any, key string, legacy *string, base string) string {
	if patch != nil {
		if v, ok := patch[key]; ok {
			if s, ok := v.(string); ok {
				return s
			}
		}
	}
	if legacy != nil {
		return *legacy
	}
	return base
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
