package dto

import "time"

const (
	NotifyKindRSVPReminder  = "rsvp_reminder"
	NotifyKindClaimHold     = "claim_hold"
	NotifyKindClaimPromoted = "claim_promoted"
)

// NotifyMessage is the single payload shape published to the delayed
// exchange. Kind selects which of the id fields is meaningful.
type NotifyMessage struct {
	Kind     string    `json:"kind"`
	RSVPID   int64     `json:"rsvp_id,omitempty"`
	ClaimID  int64     `json:"claim_id,omitempty"`
	EventID  int64     `json:"event_id"`
	DateKey  string    `json:"date_key,omitempty"`
	ExpireAt time.Time `json:"expire_at,omitempty"`
}
