package live

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Phainsworth/tradegauge-site/internal/datasource"
)

// Poll cadence and the backoff after a provider rate-limits us.
const (
	DefaultPollInterval = 10 * time.Second
	DefaultCooldown     = 60 * time.Second
)

// FetchFunc pulls one fresh quote. A datasource.ErrRateLimited return
// triggers the cooldown.
type FetchFunc func(ctx context.Context) error

// SpotPoller refreshes the spot quote on a fixed cadence, but only while
// someone is watching, and backs off for a full cooldown after a 429
// instead of hammering the provider.
type SpotPoller struct {
	interval time.Duration
	cooldown time.Duration
	fetch    FetchFunc
	log      zerolog.Logger
	now      func() time.Time

	mu            sync.Mutex
	foreground    bool
	cooldownUntil time.Time
}

// NewSpotPoller builds a poller. Zero durations fall back to the defaults.
func NewSpotPoller(fetch FetchFunc, interval, cooldown time.Duration, log zerolog.Logger) *SpotPoller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	return &SpotPoller{
		interval: interval,
		cooldown: cooldown,
		fetch:    fetch,
		log:      log,
		now:      time.Now,
	}
}

// SetForeground flips visibility. A backgrounded poller skips ticks
// entirely; no fetches, no retries.
func (p *SpotPoller) SetForeground(v bool) {
	p.mu.Lock()
	p.foreground = v
	p.mu.Unlock()
}

// Run fetches once immediately and then on every tick until ctx ends.
func (p *SpotPoller) Run(ctx context.Context) {
	p.Tick(ctx)
	t := time.NewTicker(p.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			p.Tick(ctx)
		}
	}
}

// Tick runs one poll cycle. Skips silently while backgrounded or cooling
// down. Reports whether a fetch was attempted.
func (p *SpotPoller) Tick(ctx context.Context) bool {
	p.mu.Lock()
	if !p.foreground || p.now().Before(p.cooldownUntil) {
		p.mu.Unlock()
		return false
	}
	p.mu.Unlock()

	err := p.fetch(ctx)
	if err == nil {
		return true
	}
	if errors.Is(err, datasource.ErrRateLimited) {
		p.mu.Lock()
		p.cooldownUntil = p.now().Add(p.cooldown)
		p.mu.Unlock()
		p.log.Warn().Dur("cooldown", p.cooldown).Msg("spot poll rate limited, backing off")
		return true
	}
	// transient errors just wait for the next tick
	p.log.Debug().Err(err).Msg("spot poll failed")
	return true
}

// CoolingDown reports whether the poller is inside a rate-limit backoff.
func (p *SpotPoller) CoolingDown() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.now().Before(p.cooldownUntil)
}
