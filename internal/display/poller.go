// Package display drives a venue screen: it polls the lineup endpoint on a
// fixed interval, tracks connection health, and hands fresh state to a
// renderer.
package display

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"stagedoor/internal/dto"
)

const (
	defaultInterval = 7 * time.Second
	defaultDebounce = 50 * time.Millisecond
)

// FetchFunc loads the current lineup from the server.
type FetchFunc func(ctx context.Context) (*dto.LineupResponse, error)

// Config tunes the polling loop. Zero values fall back to defaults.
type Config struct {
	Interval         time.Duration
	Debounce         time.Duration
	FailureThreshold int
	OutageAfter      time.Duration
	BannerFor        time.Duration
}

// Update is what a renderer sees after every fetch attempt. Lineup keeps the
// last successful payload through outages so the screen never goes blank.
type Update struct {
	Lineup *dto.LineupResponse
	Health HealthState
}

// Poller owns the fetch loop for one screen.
type Poller struct {
	fetch    FetchFunc
	cfg      Config
	log      *zerolog.Logger
	onUpdate func(Update)

	mu        sync.Mutex
	health    *Health
	lineup    *dto.LineupResponse
	lastFetch time.Time

	refreshCh chan struct{}
	stopOnce  sync.Once
	stopCh    chan struct{}
	done      chan struct{}
}

func NewPoller(fetch FetchFunc, cfg Config, log *zerolog.Logger, onUpdate func(Update)) *Poller {
	if cfg.Interval <= 0 {
		cfg.Interval = defaultInterval
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = defaultDebounce
	}
	return &Poller{
		fetch:     fetch,
		cfg:       cfg,
		log:       log,
		onUpdate:  onUpdate,
		health:    NewHealth(cfg.FailureThreshold, cfg.OutageAfter, cfg.BannerFor),
		refreshCh: make(chan struct{}, 1),
		stopCh:    make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Start runs the loop until Stop is called or ctx is cancelled. The first
// fetch happens immediately.
func (p *Poller) Start(ctx context.Context) {
	go p.run(ctx)
}

func (p *Poller) run(ctx context.Context) {
	defer close(p.done)

	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	p.doFetch(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.stopCh:
			return
		case <-ticker.C:
			p.doFetch(ctx)
		case <-p.refreshCh:
			p.doFetch(ctx)
		}
	}
}

// Refresh asks for an out-of-band fetch, for example when the operator
// switches the screen back on. Requests landing within the debounce window
// of the previous fetch are dropped.
func (p *Poller) Refresh() {
	p.mu.Lock()
	recent := time.Since(p.lastFetch) < p.cfg.Debounce
	p.mu.Unlock()
	if recent {
		return
	}
	select {
	case p.refreshCh <- struct{}{}:
	default:
	}
}

// Stop shuts the loop down and waits for it to exit.
func (p *Poller) Stop() {
	p.stopOnce.Do(func() { close(p.stopCh) })
	<-p.done
}

// State returns the latest snapshot without waiting for the next fetch.
func (p *Poller) State() Update {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Update{Lineup: p.lineup, Health: p.health.State(time.Now())}
}

func (p *Poller) doFetch(ctx context.Context) {
	now := time.Now()
	lineup, err := p.fetch(ctx)

	p.mu.Lock()
	p.lastFetch = now
	if err != nil {
		p.health.RecordFailure(now)
		if p.log != nil {
			p.log.Warn().Err(err).Int("failures", p.health.failures).Msg("lineup fetch failed")
		}
	} else {
		p.health.RecordSuccess(now)
		p.lineup = lineup
	}
	upd := Update{Lineup: p.lineup, Health: p.health.State(now)}
	p.mu.Unlock()

	if p.onUpdate != nil {
		p.onUpdate(upd)
	}
}
