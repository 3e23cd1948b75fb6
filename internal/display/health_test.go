package display_test

import (
	"testing"
	"time"

	"stagedoor/internal/display"
)

func TestHealthDisconnectsAfterThreeFailures(t *testing.T) {
	now := time.Date(2026, 1, 7, 20, 0, 0, 0, time.UTC)
	h := display.NewHealth(3, 5*time.Minute, 5*time.Second)

	h.RecordFailure(now)
	h.RecordFailure(now.Add(7 * time.Second))
	if got := h.State(now.Add(7 * time.Second)); got.Status != display.StatusConnected {
		t.Fatalf("status after 2 failures = %q, want connected", got.Status)
	}

	h.RecordFailure(now.Add(14 * time.Second))
	got := h.State(now.Add(14 * time.Second))
	if got.Status != display.StatusDisconnected {
		t.Fatalf("status after 3 failures = %q, want disconnected", got.Status)
	}
	if got.ExtendedOutage {
		t.Fatal("extended outage hint should not show immediately after disconnect")
	}
}

func TestHealthExtendedOutageAfterFiveMinutes(t *testing.T) {
	now := time.Date(2026, 1, 7, 20, 0, 0, 0, time.UTC)
	h := display.NewHealth(3, 5*time.Minute, 5*time.Second)

	for i := 0; i < 3; i++ {
		h.RecordFailure(now)
	}

	if got := h.State(now.Add(4 * time.Minute)); got.ExtendedOutage {
		t.Fatal("extended outage hint showed before 5 minutes elapsed")
	}
	if got := h.State(now.Add(5 * time.Minute)); !got.ExtendedOutage {
		t.Fatal("extended outage hint missing after 5 minutes disconnected")
	}
}

func TestHealthRecoveryShowsBannerThenHidesIt(t *testing.T) {
	now := time.Date(2026, 1, 7, 20, 0, 0, 0, time.UTC)
	h := display.NewHealth(3, 5*time.Minute, 5*time.Second)

	for i := 0; i < 3; i++ {
		h.RecordFailure(now)
	}
	h.RecordSuccess(now.Add(time.Minute))

	got := h.State(now.Add(time.Minute))
	if got.Status != display.StatusConnected {
		t.Fatalf("status after recovery = %q, want connected", got.Status)
	}
	if !got.ShowRestoredBanner {
		t.Fatal("restored banner should show right after recovery")
	}
	if got.ConsecutiveFailures != 0 {
		t.Fatalf("failures after recovery = %d, want 0", got.ConsecutiveFailures)
	}

	if got := h.State(now.Add(time.Minute).Add(6 * time.Second)); got.ShowRestoredBanner {
		t.Fatal("restored banner should auto-hide after 5 seconds")
	}
}

func TestHealthSuccessWithoutOutageShowsNoBanner(t *testing.T) {
	now := time.Date(2026, 1, 7, 20, 0, 0, 0, time.UTC)
	h := display.NewHealth(3, 5*time.Minute, 5*time.Second)

	h.RecordFailure(now)
	h.RecordSuccess(now.Add(7 * time.Second))

	if got := h.State(now.Add(7 * time.Second)); got.ShowRestoredBanner {
		t.Fatal("banner should only appear after a real disconnect")
	}
}

func TestHealthFailuresBelowThresholdResetOnSuccess(t *testing.T) {
	now := time.Date(2026, 1, 7, 20, 0, 0, 0, time.UTC)
	h := display.NewHealth(3, 5*time.Minute, 5*time.Second)

	h.RecordFailure(now)
	h.RecordFailure(now)
	h.RecordSuccess(now)
	h.RecordFailure(now)
	h.RecordFailure(now)

	if got := h.State(now); got.Status != display.StatusConnected {
		t.Fatalf("status = %q, want connected: failure streaks should not accumulate across successes", got.Status)
	}
}
