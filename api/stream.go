package api

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Phainsworth/tradegauge-site/internal/config"
	"github.com/Phainsworth/tradegauge-site/internal/live"
	"github.com/Phainsworth/tradegauge-site/pkg/models"
)

// spotFetchFunc pulls the current spot quote for a ticker.
type spotFetchFunc func(ctx context.Context, ticker string) (*models.SpotQuote, error)

// spotStreams runs one spot poller per ticker with active WebSocket
// subscribers. A poller starts when the first client subscribes and
// stops when the last one leaves.
type spotStreams struct {
	hub      *WSHub
	fetch    spotFetchFunc
	interval time.Duration
	cooldown time.Duration
	log      zerolog.Logger

	mu      sync.Mutex
	running map[string]context.CancelFunc
}

func newSpotStreams(hub *WSHub, fetch spotFetchFunc, sync config.SyncConfig, log zerolog.Logger) *spotStreams {
	return &spotStreams{
		hub:      hub,
		fetch:    fetch,
		interval: time.Duration(sync.PollIntervalSec) * time.Second,
		cooldown: time.Duration(sync.CooldownSec) * time.Second,
		log:      log,
		running:  make(map[string]context.CancelFunc),
	}
}

// Start begins polling a ticker. No-op if a poller is already running.
func (s *spotStreams) Start(ticker string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.running[ticker]; ok {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.running[ticker] = cancel

	poller := live.NewSpotPoller(func(ctx context.Context) error {
		quote, err := s.fetch(ctx, ticker)
		if err != nil {
			return err
		}
		s.hub.BroadcastTicker(ticker, WSMessage{Type: "spot", Data: quote})
		return nil
	}, s.interval, s.cooldown, s.log.With().Str("ticker", ticker).Logger())
	poller.SetForeground(true)

	go poller.Run(ctx)
	s.log.Debug().Str("ticker", ticker).Msg("spot stream started")
}

// Stop halts the poller for a ticker.
func (s *spotStreams) Stop(ticker string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cancel, ok := s.running[ticker]; ok {
		cancel()
		delete(s.running, ticker)
		s.log.Debug().Str("ticker", ticker).Msg("spot stream stopped")
	}
}

// StopAll halts every running poller.
func (s *spotStreams) StopAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for ticker, cancel := range s.running {
		cancel()
		delete(s.running, ticker)
	}
}

// Active returns the tickers with a running poller.
func (s *spotStreams) Active() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	tickers := make([]string, 0, len(s.running))
	for ticker := range s.running {
		tickers = append(tickers, ticker)
	}
	return tickers
}
