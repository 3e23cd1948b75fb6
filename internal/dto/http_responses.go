package dto

import (
	"encoding/json"
	"time"

	"github.com/wb-go/wbf/ginext"

	"stagedoor/internal/occurrence"
)

const (
	FieldBadFormat     = "FIELD_BADFORMAT"
	FieldIncorrect     = "FIELD_INCORRECT"
	ServiceUnavailable = "SERVICE_UNAVAILABLE"
	InternalError      = "Service is currently unavailable. Please try again later."

	EventNotFound    = "EVENT_NOT_FOUND"
	VenueNotFound    = "VENUE_NOT_FOUND"
	TimeslotNotFound = "TIMESLOT_NOT_FOUND"
	ClaimNotFound    = "CLAIM_NOT_FOUND"
	RSVPDuplicate    = "RSVP_DUPLICATE"
	EventFull        = "EVENT_FULL"
	Unauthorized     = "UNAUTHORIZED"
	Forbidden        = "FORBIDDEN"
	WrongOccurrence  = "WRONG_OCCURRENCE"
	AlreadyDecided   = "CLAIM_ALREADY_DECIDED"
)

type Response struct {
	Status string `json:"status"`
	Error  *Error `json:"error,omitempty"`
	Data   any    `json:"data,omitempty"`
}

type Error struct {
	Code string `json:"code"`
	Desc string `json:"desc"`
}

type CreateEventRequest struct {
	Slug             string `json:"slug"`
	VenueID          *int64 `json:"venue_id"`
	Name             string `json:"name" validate:"required,min=3,max=255"`
	Description      string `json:"description"`
	AnchorDate       string `json:"anchor_date" validate:"required,datekey"`
	Weekday          string `json:"weekday"`
	RecurrenceRule   string `json:"recurrence_rule"`
	StartTime        string `json:"start_time" validate:"required"`
	DurationMinutes  int    `json:"duration_minutes" validate:"gte=0"`
	CoverImage       string `json:"cover_image"`
	Capacity         int    `json:"capacity" validate:"gte=0"`
	TimeslotsEnabled bool   `json:"timeslots_enabled"`
	SlotCount        int    `json:"slot_count" validate:"gte=0,lte=100"`
	SlotMinutes      int    `json:"slot_minutes" validate:"gte=0"`
}

type UpdateEventRequest struct {
	Slug             *string `json:"slug"`
	VenueID          *int64  `json:"venue_id"`
	Name             *string `json:"name"`
	Description      *string `json:"description"`
	AnchorDate       *string `json:"anchor_date"`
	Weekday          *string `json:"weekday"`
	RecurrenceRule   *string `json:"recurrence_rule"`
	StartTime        *string `json:"start_time"`
	DurationMinutes  *int    `json:"duration_minutes"`
	CoverImage       *string `json:"cover_image"`
	Cancelled        *bool   `json:"cancelled"`
	Capacity         *int    `json:"capacity"`
	TimeslotsEnabled *bool   `json:"timeslots_enabled"`
	SlotCount        *int    `json:"slot_count"`
	SlotMinutes      *int    `json:"slot_minutes"`
}

type UpsertOverrideRequest struct {
	Status     string          `json:"status" validate:"omitempty,oneof=active cancelled"`
	StartTime  *string         `json:"start_time"`
	CoverImage *string         `json:"cover_image"`
	Notes      string          `json:"notes" validate:"max=2000"`
	Patch      json.RawMessage `json:"patch"`
}

type CreateRSVPRequest struct {
	DateKey string `json:"date_key" validate:"required,datekey"`
	Name    string `json:"name" validate:"required,min=2,max=255"`
	Email   string `json:"email" validate:"required,email"`
	Status  string `json:"status" validate:"omitempty,oneof=going cant_go"`
}

type ClaimTimeslotRequest struct {
	PerformerName string `json:"performer_name" validate:"required,min=2,max=255"`
	GuestEmail    string `json:"guest_email" validate:"omitempty,email"`
}

type ClaimStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=confirmed performed no_show"`
}

type SetNowPlayingRequest struct {
	TimeslotID *int64 `json:"timeslot_id"`
}

type CreateOwnershipClaimRequest struct {
	SubjectType string `json:"subject_type" validate:"required,oneof=venue event"`
	SubjectID   int64  `json:"subject_id" validate:"required,gt=0"`
	Note        string `json:"note" validate:"max=2000"`
}

type CreateVenueRequest struct {
	Slug        string `json:"slug"`
	Name        string `json:"name" validate:"required,min=2,max=255"`
	Address     string `json:"address"`
	Description string `json:"description"`
}

type UpdateVenueRequest struct {
	Slug        *string `json:"slug"`
	Name        *string `json:"name"`
	Address     *string `json:"address"`
	Description *string `json:"description"`
}

// EventDetailResponse is the event page payload for one selected occurrence.
// DateFallback is set when the requested date was invalid or out of window
// and the nearest upcoming occurrence was substituted.
type EventDetailResponse struct {
	Event        any                 `json:"event"`
	Occurrence   occurrence.Resolved `json:"occurrence"`
	Dates        []string            `json:"dates"`
	DateFallback bool                `json:"date_fallback,omitempty"`
	RSVPCount    int                 `json:"rsvp_count"`
}

type OccurrenceListResponse struct {
	EventID     int64    `json:"event_id"`
	Dates       []string `json:"dates"`
	Cancelled   []string `json:"cancelled,omitempty"`
	Overridden  []string `json:"overridden,omitempty"`
	IsConfident bool     `json:"is_confident"`
}

type TimeslotEntry struct {
	ID            int64  `json:"id"`
	SlotIndex     int    `json:"slot_index"`
	OffsetMinutes int    `json:"offset_minutes"`
	DurationMin   int    `json:"duration_minutes"`
	PerformerName string `json:"performer_name,omitempty"`
	ClaimStatus   string `json:"claim_status,omitempty"`
	NowPlaying    bool   `json:"now_playing"`
}

type LineupResponse struct {
	EventID              int64           `json:"event_id"`
	EventName            string          `json:"event_name"`
	DateKey              string          `json:"date_key"`
	Cancelled            bool            `json:"cancelled"`
	NowPlayingTimeslotID *int64          `json:"now_playing_timeslot_id"`
	UpdatedAt            time.Time       `json:"updated_at"`
	Slots                []TimeslotEntry `json:"slots"`
}

type ClaimResponse struct {
	ID            int64     `json:"id"`
	TimeslotID    int64     `json:"timeslot_id"`
	PerformerName string    `json:"performer_name"`
	Status        string    `json:"status"`
	GuestToken    string    `json:"guest_token,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

type GenerateTimeslotsResponse struct {
	EventID int64  `json:"event_id"`
	DateKey string `json:"date_key"`
	Created int    `json:"created"`
	Total   int    `json:"total"`
}

func BadResponseError(c *ginext.Context, code, desc string) {
	c.JSON(400, Response{
		Status: "error",
		Error: &Error{
			Code: code,
			Desc: desc,
		},
	})
}

func NotFoundError(c *ginext.Context, code, desc string) {
	c.JSON(404, Response{
		Status: "error",
		Error: &Error{
			Code: code,
			Desc: desc,
		},
	})
}

func InternalServerError(c *ginext.Context) {
	c.JSON(500, Response{
		Status: "error",
		Error: &Error{
			Code: ServiceUnavailable,
			Desc: InternalError,
		},
	})
}

func UnauthorizedError(c *ginext.Context) {
	c.JSON(401, Response{
		Status: "error",
		Error: &Error{
			Code: Unauthorized,
			Desc: "Authentication required",
		},
	})
}

func ForbiddenError(c *ginext.Context) {
	c.JSON(403, Response{
		Status: "error",
		Error: &Error{
			Code: Forbidden,
			Desc: "You do not have access to this resource",
		},
	})
}

func EventNotFoundError(c *ginext.Context) {
	NotFoundError(c, EventNotFound, "Event not found")
}

func VenueNotFoundError(c *ginext.Context) {
	NotFoundError(c, VenueNotFound, "Venue not found")
}

func TimeslotNotFoundError(c *ginext.Context) {
	NotFoundError(c, TimeslotNotFound, "Timeslot not found")
}

func ClaimNotFoundError(c *ginext.Context) {
	NotFoundError(c, ClaimNotFound, "Claim not found")
}

func RSVPDuplicateError(c *ginext.Context) {
	BadResponseError(c, RSVPDuplicate, "You have already RSVPed for this date")
}

func EventFullError(c *ginext.Context) {
	BadResponseError(c, EventFull, "This occurrence is at capacity")
}

func SuccessResponse(c *ginext.Context, data any) {
	c.JSON(200, Response{
		Status: "ok",
		Data:   data,
	})
}

func SuccessCreatedResponse(c *ginext.Context, data any) {
	c.JSON(201, Response{
		Status: "ok",
		Data:   data,
	})
}
