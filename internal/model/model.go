package model

import (
	"encoding/json"
	"time"
)

const (
	ClaimStatusConfirmed  = "confirmed"
	ClaimStatusWaitlisted = "waitlisted"
	ClaimStatusPerformed  = "performed"
	ClaimStatusNoShow     = "no_show"
	ClaimStatusCancelled  = "cancelled"

	OccurrenceStatusActive    = "active"
	OccurrenceStatusCancelled = "cancelled"

	OwnershipClaimPending  = "pending"
	OwnershipClaimApproved = "approved"
	OwnershipClaimRejected = "rejected"

	RSVPStatusGoing  = "going"
	RSVPStatusCantGo = "cant_go"

	SubjectVenue = "venue"
	SubjectEvent = "event"

	RoleAdmin  = "admin"
	RoleMember = "member"

	HostRoleHost   = "host"
	HostRoleCoHost = "co_host"
)

type Venue struct {
	ID             int64     `db:"id" json:"id"`
	Slug           string    `db:"slug" json:"slug"`
	Name           string    `db:"name" json:"name"`
	Address        string    `db:"address,omitempty" json:"address,omitempty"`
	Description    string    `db:"description,omitempty" json:"description,omitempty"`
	OwnerProfileID *int64    `db:"owner_profile_id" json:"owner_profile_id,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

type Profile struct {
	ID          int64     `db:"id" json:"id"`
	DisplayName string    `db:"display_name" json:"display_name"`
	Email       string    `db:"email" json:"email"`
	Role        string    `db:"role" json:"role"`
	APIToken    string    `db:"api_token" json:"-"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

type Event struct {
	ID               int64     `db:"id" json:"id"`
	Slug             string    `db:"slug" json:"slug"`
	VenueID          *int64    `db:"venue_id" json:"venue_id,omitempty"`
	Name             string    `db:"name" json:"name"`
	Description      string    `db:"description,omitempty" json:"description,omitempty"`
	AnchorDate       string    `db:"anchor_date" json:"anchor_date"`
	Weekday          string    `db:"weekday,omitempty" json:"weekday,omitempty"`
	RecurrenceRule   string    `db:"recurrence_rule,omitempty" json:"recurrence_rule,omitempty"`
	StartTime        string    `db:"start_time" json:"start_time"`
	DurationMinutes  int       `db:"duration_minutes" json:"duration_minutes"`
	CoverImage       string    `db:"cover_image,omitempty" json:"cover_image,omitempty"`
	Published        bool      `db:"published" json:"published"`
	Cancelled        bool      `db:"cancelled" json:"cancelled"`
	Capacity         int       `db:"capacity" json:"capacity"`
	TimeslotsEnabled bool      `db:"timeslots_enabled" json:"timeslots_enabled"`
	SlotCount        int       `db:"slot_count" json:"slot_count"`
	SlotMinutes      int       `db:"slot_minutes" json:"slot_minutes"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// OccurrenceOverride is the per-date exception record for a recurring event.
// Patch carries arbitrary field overrides and wins over the dedicated columns.
type OccurrenceOverride struct {
	ID         int64           `db:"id" json:"id"`
	EventID    int64           `db:"event_id" json:"event_id"`
	DateKey    string          `db:"date_key" json:"date_key"`
	Status     string          `db:"status" json:"status"`
	StartTime  *string         `db:"start_time" json:"start_time,omitempty"`
	CoverImage *string         `db:"cover_image" json:"cover_image,omitempty"`
	Notes      string          `db:"notes,omitempty" json:"notes,omitempty"`
	Patch      json.RawMessage `db:"patch" json:"patch,omitempty"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time       `db:"updated_at" json:"updated_at"`
}

type Timeslot struct {
	ID            int64     `db:"id" json:"id"`
	EventID       int64     `db:"event_id" json:"event_id"`
	DateKey       string    `db:"date_key" json:"date_key"`
	SlotIndex     int       `db:"slot_index" json:"slot_index"`
	OffsetMinutes int       `db:"offset_minutes" json:"offset_minutes"`
	DurationMin   int       `db:"duration_minutes" json:"duration_minutes"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

type TimeslotClaim struct {
	ID            int64     `db:"id" json:"id"`
	TimeslotID    int64     `db:"timeslot_id" json:"timeslot_id"`
	ProfileID     *int64    `db:"profile_id" json:"profile_id,omitempty"`
	PerformerName string    `db:"performer_name" json:"performer_name"`
	GuestEmail    string    `db:"guest_email,omitempty" json:"guest_email,omitempty"`
	GuestToken    string    `db:"guest_token,omitempty" json:"-"`
	Status        string    `db:"status" json:"status"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

type LineupState struct {
	EventID              int64     `db:"event_id" json:"event_id"`
	DateKey              string    `db:"date_key" json:"date_key"`
	NowPlayingTimeslotID *int64    `db:"now_playing_timeslot_id" json:"now_playing_timeslot_id"`
	UpdatedAt            time.Time `db:"updated_at" json:"updated_at"`
}

type RSVP struct {
	ID        int64     `db:"id" json:"id"`
	EventID   int64     `db:"event_id" json:"event_id"`
	DateKey   string    `db:"date_key" json:"date_key"`
	ProfileID *int64    `db:"profile_id" json:"profile_id,omitempty"`
	Name      string    `db:"name" json:"name"`
	Email     string    `db:"email" json:"email"`
	Status    string    `db:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

type OwnershipClaim struct {
	ID          int64      `db:"id" json:"id"`
	SubjectType string     `db:"subject_type" json:"subject_type"`
	SubjectID   int64      `db:"subject_id" json:"subject_id"`
	ProfileID   int64      `db:"profile_id" json:"profile_id"`
	Note        string     `db:"note,omitempty" json:"note,omitempty"`
	Status      string     `db:"status" json:"status"`
	DecidedBy   *int64     `db:"decided_by" json:"decided_by,omitempty"`
	DecidedAt   *time.Time `db:"decided_at" json:"decided_at,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
}

type EventHost struct {
	EventID   int64     `db:"event_id" json:"event_id"`
	ProfileID int64     `db:"profile_id" json:"profile_id"`
	Role      string    `db:"role" json:"role"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
