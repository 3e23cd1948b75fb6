package display_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"stagedoor/internal/display"
	"stagedoor/internal/dto"
)

type fetchScript struct {
	mu    sync.Mutex
	calls int
	fail  bool
}

func (f *fetchScript) fetch(_ context.Context) (*dto.LineupResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.fail {
		return nil, errors.New("connection refused")
	}
	return &dto.LineupResponse{EventID: 1, DateKey: "2026-01-07"}, nil
}

func (f *fetchScript) setFail(v bool) {
	f.mu.Lock()
	f.fail = v
	f.mu.Unlock()
}

func (f *fetchScript) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestPollerFetchesOnInterval(t *testing.T) {
	script := &fetchScript{}
	p := display.NewPoller(script.fetch, display.Config{
		Interval: 20 * time.Millisecond,
		Debounce: 5 * time.Millisecond,
	}, nil, nil)

	p.Start(context.Background())
	time.Sleep(70 * time.Millisecond)
	p.Stop()

	if got := script.count(); got < 3 {
		t.Fatalf("fetch calls = %d, want at least 3 (initial plus ticks)", got)
	}

	st := p.State()
	if st.Health.Status != display.StatusConnected {
		t.Fatalf("status = %q, want connected", st.Health.Status)
	}
	if st.Lineup == nil || st.Lineup.EventID != 1 {
		t.Fatalf("lineup not retained: %+v", st.Lineup)
	}
}

func TestPollerKeepsLastLineupThroughOutage(t *testing.T) {
	script := &fetchScript{}
	p := display.NewPoller(script.fetch, display.Config{
		Interval:         10 * time.Millisecond,
		Debounce:         time.Millisecond,
		FailureThreshold: 3,
	}, nil, nil)

	p.Start(context.Background())
	time.Sleep(25 * time.Millisecond)
	script.setFail(true)
	time.Sleep(60 * time.Millisecond)
	p.Stop()

	st := p.State()
	if st.Health.Status != display.StatusDisconnected {
		t.Fatalf("status = %q, want disconnected after repeated failures", st.Health.Status)
	}
	if st.Lineup == nil {
		t.Fatal("last good lineup should survive an outage")
	}
}

func TestPollerRefreshDebounce(t *testing.T) {
	script := &fetchScript{}
	p := display.NewPoller(script.fetch, display.Config{
		Interval: time.Hour,
		Debounce: 200 * time.Millisecond,
	}, nil, nil)

	p.Start(context.Background())
	time.Sleep(20 * time.Millisecond)
	before := script.count()

	// Inside the debounce window of the initial fetch these are all dropped.
	for i := 0; i < 5; i++ {
		p.Refresh()
	}
	time.Sleep(20 * time.Millisecond)
	p.Stop()

	if got := script.count(); got != before {
		t.Fatalf("fetch calls = %d, want %d: refreshes inside the debounce window must not fetch", got, before)
	}
}

func TestPollerRefreshOutsideDebounceFetches(t *testing.T) {
	script := &fetchScript{}
	p := display.NewPoller(script.fetch, display.Config{
		Interval: time.Hour,
		Debounce: time.Millisecond,
	}, nil, nil)

	p.Start(context.Background())
	time.Sleep(20 * time.Millisecond)
	before := script.count()

	p.Refresh()
	time.Sleep(20 * time.Millisecond)
	p.Stop()

	if got := script.count(); got != before+1 {
		t.Fatalf("fetch calls = %d, want %d", got, before+1)
	}
}

func TestPollerOnUpdateDeliversSnapshots(t *testing.T) {
	script := &fetchScript{}
	var mu sync.Mutex
	var updates []display.Update

	p := display.NewPoller(script.fetch, display.Config{
		Interval: 10 * time.Millisecond,
		Debounce: time.Millisecond,
	}, nil, func(u display.Update) {
		mu.Lock()
		updates = append(updates, u)
		mu.Unlock()
	})

	p.Start(context.Background())
	time.Sleep(35 * time.Millisecond)
	p.Stop()

	mu.Lock()
	defer mu.Unlock()
	if len(updates) == 0 {
		t.Fatal("expected at least one update callback")
	}
	last := updates[len(updates)-1]
	if last.Lineup == nil || last.Lineup.DateKey != "2026-01-07" {
		t.Fatalf("update carries wrong lineup: %+v", last.Lineup)
	}
}

func TestPollerStopIsIdempotentAndHalts(t *testing.T) {
	script := &fetchScript{}
	p := display.NewPoller(script.fetch, display.Config{
		Interval: 10 * time.Millisecond,
		Debounce: time.Millisecond,
	}, nil, nil)

	p.Start(context.Background())
	time.Sleep(15 * time.Millisecond)
	p.Stop()
	p.Stop()

	after := script.count()
	time.Sleep(30 * time.Millisecond)
	if got := script.count(); got != after {
		t.Fatalf("fetch calls grew from %d to %d after Stop", after, got)
	}
}
