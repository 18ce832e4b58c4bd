package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Phainsworth/tradegauge-site/pkg/models"
	"github.com/Phainsworth/tradegauge-site/pkg/utils"
)

// PolygonBaseURL is the Polygon.io REST API root.
const PolygonBaseURL = "https://api.polygon.io"

// PolygonSource serves the contract reference data (expirations, strike
// universes, symbol search) and per-contract greeks snapshots.
// https://polygon.io/docs
type PolygonSource struct {
	apiKey  string
	baseURL string
	cache   *Cache
	limiter *RateLimiter
}

// NewPolygonSource creates a Polygon source. Reference data barely moves
// intraday so it caches for five minutes.
func NewPolygonSource(apiKey string) *PolygonSource {
	return &PolygonSource{
		apiKey:  apiKey,
		baseURL: PolygonBaseURL,
		cache:   NewCache(5 * time.Minute),
		limiter: NewRateLimiter(5, time.Minute),
	}
}

func (p *PolygonSource) Name() string { return "Polygon" }

func (p *PolygonSource) get(ctx context.Context, path string, out any) error {
	if err := p.limiter.Wait(ctx); err != nil {
		return err
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	body, _, err := doGet(ctx, p.baseURL+path+sep+"apiKey="+p.apiKey, nil)
	if err != nil {
		return err
	}
	defer body.Close()
	return json.NewDecoder(body).Decode(out)
}

type polygonContractsResp struct {
	Results []polygonContractRef `json:"results"`
	NextURL string               `json:"next_url"`
}

type polygonContractRef struct {
	Ticker         string  `json:"ticker"`
	ContractType   string  `json:"contract_type"` // "call" or "put"
	ExpirationDate string  `json:"expiration_date"`
	StrikePrice    float64 `json:"strike_price"`
}

// GetExpirations lists the distinct expiry dates with active contracts,
// sorted ascending.
func (p *PolygonSource) GetExpirations(ctx context.Context, ticker string) ([]string, error) {
	tkr := strings.ToUpper(strings.TrimSpace(ticker))
	key := "expirations:" + tkr
	if v, ok := p.cache.Get(key); ok {
		return v.([]string), nil
	}

	path := fmt.Sprintf("/v3/reference/options/contracts?underlying_ticker=%s&active=true&limit=1000&sort=expiration_date&order=asc",
		url.QueryEscape(tkr))
	var resp polygonContractsResp
	if err := p.get(ctx, path, &resp); err != nil {
		return nil, fmt.Errorf("polygon expirations %s: %w", tkr, err)
	}

	seen := make(map[string]bool)
	var out []string
	for _, c := range resp.Results {
		d := utils.NormalizeExpiry(c.ExpirationDate)
		if d != "" && !seen[d] {
			seen[d] = true
			out = append(out, d)
		}
	}
	sort.Strings(out)
	p.cache.Set(key, out)
	return out, nil
}

// GetStrikes returns the strike universe for one expiry and side. The
// contract list is filtered client-side so a missing contract_type field
// never drops the whole chain.
func (p *PolygonSource) GetStrikes(ctx context.Context, ticker, expiry string, kind models.OptionKind) ([]float64, error) {
	tkr := strings.ToUpper(strings.TrimSpace(ticker))
	key := fmt.Sprintf("strikes:%s:%s:%s", tkr, expiry, kind)
	if v, ok := p.cache.Get(key); ok {
		return v.([]float64), nil
	}

	path := fmt.Sprintf("/v3/reference/options/contracts?underlying_ticker=%s&expiration_date=%s&active=true&limit=1000",
		url.QueryEscape(tkr), url.QueryEscape(expiry))
	var resp polygonContractsResp
	if err := p.get(ctx, path, &resp); err != nil {
		return nil, fmt.Errorf("polygon strikes %s %s: %w", tkr, expiry, err)
	}

	want := "put"
	if kind.IsCall() {
		want = "call"
	}
	seen := make(map[float64]bool)
	var out []float64
	for _, c := range resp.Results {
		if c.ContractType != "" && !strings.EqualFold(c.ContractType, want) {
			continue
		}
		if c.StrikePrice > 0 && !seen[c.StrikePrice] {
			seen[c.StrikePrice] = true
			out = append(out, c.StrikePrice)
		}
	}
	sort.Float64s(out)
	p.cache.Set(key, out)
	return out, nil
}

type polygonSnapshotResp struct {
	Results *struct {
		Greeks *struct {
			Delta float64 `json:"delta"`
			Gamma float64 `json:"gamma"`
			Theta float64 `json:"theta"`
			Vega  float64 `json:"vega"`
		} `json:"greeks"`
		ImpliedVolatility *float64 `json:"implied_volatility"`
		OpenInterest      *float64 `json:"open_interest"`
		Day               *struct {
			Close float64 `json:"close"`
		} `json:"day"`
		UnderlyingAsset *struct {
			Price float64 `json:"price"`
		} `json:"underlying_asset"`
	} `json:"results"`
}

// GetOptionSnapshot fetches greeks, IV and open interest for one contract.
// Quote fields stay nil here; Tradier is the quote source of record.
func (p *PolygonSource) GetOptionSnapshot(ctx context.Context, c models.Contract) (*models.MarketSnapshot, error) {
	occ, err := OCCSymbol(c)
	if err != nil {
		return nil, err
	}
	path := fmt.Sprintf("/v3/snapshot/options/%s/%s",
		url.PathEscape(strings.ToUpper(c.Ticker)), url.PathEscape("O:"+occ))
	var resp polygonSnapshotResp
	if err := p.get(ctx, path, &resp); err != nil {
		return nil, fmt.Errorf("polygon snapshot %s: %w", occ, err)
	}
	if resp.Results == nil {
		return nil, ErrTickerNotFound
	}

	snap := &models.MarketSnapshot{Source: "polygon", FetchedAt: time.Now()}
	r := resp.Results
	if g := r.Greeks; g != nil {
		snap.Greeks.Delta = models.Float(g.Delta)
		snap.Greeks.Gamma = models.Float(g.Gamma)
		snap.Greeks.Theta = models.Float(g.Theta)
		snap.Greeks.Vega = models.Float(g.Vega)
	}
	if r.ImpliedVolatility != nil && *r.ImpliedVolatility > 0 {
		snap.Greeks.IV = r.ImpliedVolatility
	}
	if r.OpenInterest != nil {
		snap.Greeks.OpenInterest = models.Int64(int64(*r.OpenInterest))
	}
	if r.UnderlyingAsset != nil && r.UnderlyingAsset.Price > 0 {
		snap.Spot = models.Float(r.UnderlyingAsset.Price)
	}
	return snap, nil
}

type polygonTickersResp struct {
	Results []struct {
		Ticker string `json:"ticker"`
		Name   string `json:"name"`
	} `json:"results"`
}

// SearchSymbols runs the exact, prefix-range and fuzzy lookups in parallel
// and merges the results. The fuzzy path only fires from two characters.
func (p *PolygonSource) SearchSymbols(ctx context.Context, query string) ([]models.Symbol, error) {
	q := strings.ToUpper(strings.TrimSpace(query))
	if q == "" {
		return nil, nil
	}

	paths := []string{
		fmt.Sprintf("/v3/reference/tickers?ticker=%s&market=stocks&active=true&limit=1", url.QueryEscape(q)),
		fmt.Sprintf("/v3/reference/tickers?market=stocks&active=true&ticker.gte=%s&ticker.lte=%s&sort=ticker&order=asc&limit=100",
			url.QueryEscape(q), url.QueryEscape(q+"ZZZZZZ")),
	}
	if len(q) >= 2 {
		paths = append(paths,
			fmt.Sprintf("/v3/reference/tickers?market=stocks&active=true&search=%s&limit=50", url.QueryEscape(q)))
	}

	results := make([]polygonTickersResp, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			// partial results are fine; a failed leg just contributes nothing
			_ = p.get(gctx, path, &results[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var out []models.Symbol
	for _, r := range results {
		for _, t := range r.Results {
			tk := strings.ToUpper(t.Ticker)
			if tk == "" || seen[tk] {
				continue
			}
			seen[tk] = true
			out = append(out, models.Symbol{Ticker: tk, Name: t.Name})
		}
	}
	return out, nil
}

// GetSpot: Polygon's delayed aggregates are not worth racing Finnhub for.
func (p *PolygonSource) GetSpot(ctx context.Context, ticker string) (*models.SpotQuote, error) {
	return nil, ErrNotSupported
}
