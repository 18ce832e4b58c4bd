package datasource

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/Phainsworth/tradegauge-site/pkg/models"
)

// Aggregator fetches and merges data from all configured sources
// concurrently. Tradier carries the freshest contract quotes, Polygon
// carries the reference universe and greeks, Finnhub carries spots and
// earnings, FRED and the Fed calendar carry macro events.
type Aggregator struct {
	finnhub *FinnhubSource
	polygon *PolygonSource
	tradier *TradierSource
	fred    *FredSource
	fomc    *FOMCSource
	news    *NewsSource
}

// Config holds the provider credentials the aggregator needs. Sources
// with an empty credential are left out of the fan-out.
type Config struct {
	FinnhubAPIKey string
	PolygonAPIKey string
	TradierToken  string
	FredAPIKey    string
}

// NewAggregator wires up every source that has credentials. The FOMC
// calendar and news feed need none and are always available.
func NewAggregator(cfg Config) *Aggregator {
	a := &Aggregator{
		fomc: NewFOMCSource(),
		news: NewNewsSource(),
	}
	if cfg.FinnhubAPIKey != "" {
		a.finnhub = NewFinnhubSource(cfg.FinnhubAPIKey)
	}
	if cfg.PolygonAPIKey != "" {
		a.polygon = NewPolygonSource(cfg.PolygonAPIKey)
	}
	if cfg.TradierToken != "" {
		a.tradier = NewTradierSource(cfg.TradierToken, TradierBaseURL)
	}
	if cfg.FredAPIKey != "" {
		a.fred = NewFredSource(cfg.FredAPIKey)
	}
	return a
}

// ProviderStatus reports which providers are configured, keyed by name.
func (a *Aggregator) ProviderStatus() map[string]bool {
	return map[string]bool{
		"finnhub": a.finnhub != nil,
		"polygon": a.polygon != nil,
		"tradier": a.tradier != nil,
		"fred":    a.fred != nil,
		"fomc":    true,
		"news":    true,
	}
}

// Spot returns the underlying quote, Finnhub first with Tradier as
// fallback.
func (a *Aggregator) Spot(ctx context.Context, ticker string) (*models.SpotQuote, error) {
	var errs []error
	if a.finnhub != nil {
		q, err := a.finnhub.GetSpot(ctx, ticker)
		if err == nil {
			return q, nil
		}
		if errors.Is(err, ErrTickerNotFound) || errors.Is(err, ErrRateLimited) {
			return nil, err
		}
		errs = append(errs, fmt.Errorf("finnhub: %w", err))
	}
	if a.tradier != nil {
		q, err := a.tradier.GetSpot(ctx, ticker)
		if err == nil {
			return q, nil
		}
		errs = append(errs, fmt.Errorf("tradier: %w", err))
	}
	if len(errs) == 0 {
		return nil, fmt.Errorf("spot %s: %w", ticker, ErrNotSupported)
	}
	return nil, fmt.Errorf("spot %s: %w", ticker, errors.Join(errs...))
}

// OptionSnapshot fetches the contract from Tradier and Polygon in
// parallel and merges them, Tradier quote first, Polygon filling the
// gaps. One failed leg is fine; both failing is an error.
func (a *Aggregator) OptionSnapshot(ctx context.Context, c models.Contract) (*models.MarketSnapshot, error) {
	var (
		mu       sync.Mutex
		primary  *models.MarketSnapshot
		fallback *models.MarketSnapshot
		errs     []error
	)

	g, gctx := errgroup.WithContext(ctx)
	if a.tradier != nil {
		g.Go(func() error {
			snap, err := a.tradier.GetOptionSnapshot(gctx, c)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, fmt.Errorf("tradier: %w", err))
				return nil
			}
			primary = snap
			return nil
		})
	}
	if a.polygon != nil {
		g.Go(func() error {
			snap, err := a.polygon.GetOptionSnapshot(gctx, c)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, fmt.Errorf("polygon: %w", err))
				return nil
			}
			fallback = snap
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := MergeSnapshot(primary, fallback)
	if merged == nil {
		if len(errs) == 0 {
			return nil, fmt.Errorf("option snapshot: %w", ErrNotSupported)
		}
		return nil, fmt.Errorf("option snapshot %s: %w", c.Ticker, errors.Join(errs...))
	}
	merged.DeriveMark()
	return merged, nil
}

// Expirations returns available expiry dates for a ticker.
func (a *Aggregator) Expirations(ctx context.Context, ticker string) ([]string, error) {
	if a.polygon == nil {
		return nil, fmt.Errorf("expirations: %w", ErrNotSupported)
	}
	return a.polygon.GetExpirations(ctx, ticker)
}

// StrikeUniverse returns every listed strike for a ticker, expiry and side.
func (a *Aggregator) StrikeUniverse(ctx context.Context, ticker, expiry string, kind models.OptionKind) ([]float64, error) {
	if a.polygon == nil {
		return nil, fmt.Errorf("strikes: %w", ErrNotSupported)
	}
	return a.polygon.GetStrikes(ctx, ticker, expiry, kind)
}

// Search resolves a partial ticker or company name.
func (a *Aggregator) Search(ctx context.Context, query string) ([]models.Symbol, error) {
	if a.polygon == nil {
		return nil, fmt.Errorf("search: %w", ErrNotSupported)
	}
	return a.polygon.SearchSymbols(ctx, query)
}

// Events fetches earnings and macro events concurrently. Calendar
// failures are soft: a contract can still be scored without them, so
// partial context comes back with a nil error.
func (a *Aggregator) Events(ctx context.Context, ticker string, horizonDays int) (*models.EventContext, error) {
	evctx := &models.EventContext{}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)

	if a.finnhub != nil {
		g.Go(func() error {
			ev, err := a.finnhub.GetEarnings(gctx, ticker)
			if err != nil || ev == nil {
				return nil
			}
			mu.Lock()
			evctx.Earnings = ev
			mu.Unlock()
			return nil
		})
	}
	if a.fred != nil {
		g.Go(func() error {
			macro, err := a.fred.GetMacroEvents(gctx, horizonDays)
			if err != nil {
				return nil
			}
			mu.Lock()
			evctx.Macro = append(evctx.Macro, macro...)
			mu.Unlock()
			return nil
		})
	}
	g.Go(func() error {
		macro, err := a.fomc.GetMacroEvents(gctx, horizonDays)
		if err != nil {
			return nil
		}
		mu.Lock()
		evctx.Macro = append(evctx.Macro, macro...)
		mu.Unlock()
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	evctx.Macro = uniqueMacro(evctx.Macro)
	return evctx, nil
}

// Headlines returns recent ticker headlines for advisory context.
func (a *Aggregator) Headlines(ctx context.Context, ticker string, limit int) ([]models.Headline, error) {
	return a.news.GetHeadlines(ctx, ticker, limit)
}

// uniqueMacro dedupes on title+date and sorts by date then title.
func uniqueMacro(events []models.MacroEvent) []models.MacroEvent {
	if len(events) == 0 {
		return events
	}
	seen := make(map[string]bool, len(events))
	out := events[:0]
	for _, e := range events {
		k := e.Title + "|" + e.Date
		if !seen[k] {
			seen[k] = true
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].Title < out[j].Title
	})
	return out
}
