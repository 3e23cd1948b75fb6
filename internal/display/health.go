package display

import "time"

type Status string

const (
	StatusConnected    Status = "connected"
	StatusDisconnected Status = "disconnected"
)

const (
	defaultFailureThreshold = 3
	defaultOutageAfter      = 5 * time.Minute
	defaultBannerFor        = 5 * time.Second
)

// Health is the connection-health state machine behind a display's
// "connected / disconnected / connection restored" messaging. It is not
// safe for concurrent use; the Poller serializes access to it.
type Health struct {
	failureThreshold int
	outageAfter      time.Duration
	bannerFor        time.Duration

	status         Status
	failures       int
	disconnectedAt time.Time
	bannerUntil    time.Time
}

// HealthState is a point-in-time view of the machine, safe to hand to a
// renderer.
type HealthState struct {
	Status              Status
	ConsecutiveFailures int
	ExtendedOutage      bool
	ShowRestoredBanner  bool
}

func NewHealth(failureThreshold int, outageAfter, bannerFor time.Duration) *Health {
	if failureThreshold <= 0 {
		failureThreshold = defaultFailureThreshold
	}
	if outageAfter <= 0 {
		outageAfter = defaultOutageAfter
	}
	if bannerFor <= 0 {
		bannerFor = defaultBannerFor
	}
	return &Health{
		failureThreshold: failureThreshold,
		outageAfter:      outageAfter,
		bannerFor:        bannerFor,
		status:           StatusConnected,
	}
}

// RecordFailure counts one failed fetch. Crossing the threshold flips the
// status to disconnected and starts the extended-outage clock.
func (h *Health) RecordFailure(now time.Time) {
	h.failures++
	if h.failures >= h.failureThreshold && h.status == StatusConnected {
		h.status = StatusDisconnected
		h.disconnectedAt = now
	}
}

// RecordSuccess resets the failure count. Recovering from a disconnect arms
// the transient "connection restored" banner.
func (h *Health) RecordSuccess(now time.Time) {
	if h.status == StatusDisconnected {
		h.status = StatusConnected
		h.bannerUntil = now.Add(h.bannerFor)
	}
	h.failures = 0
}

// State reports the machine as of now. The restored banner and the extended
// outage hint are both time-derived, so the same machine answers differently
// as the clock advances.
func (h *Health) State(now time.Time) HealthState {
	return HealthState{
		Status:              h.status,
		ConsecutiveFailures: h.failures,
		ExtendedOutage:      h.status == StatusDisconnected && now.Sub(h.disconnectedAt) >= h.outageAfter,
		ShowRestoredBanner:  now.Before(h.bannerUntil),
	}
}
