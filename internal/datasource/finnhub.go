package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/Phainsworth/tradegauge-site/pkg/models"
)

// FinnhubBaseURL is the Finnhub REST API root.
const FinnhubBaseURL = "https://finnhub.io/api/v1"

// earningsLookaheadDays bounds the earnings calendar query.
const earningsLookaheadDays = 210

// FinnhubSource serves spot quotes and the earnings calendar.
// https://finnhub.io/docs/api
type FinnhubSource struct {
	apiKey  string
	baseURL string
	limiter *RateLimiter
}

// NewFinnhubSource creates a Finnhub source. The free tier allows 60
// requests per minute.
func NewFinnhubSource(apiKey string) *FinnhubSource {
	return &FinnhubSource{
		apiKey:  apiKey,
		baseURL: FinnhubBaseURL,
		limiter: NewRateLimiter(60, time.Minute),
	}
}

func (f *FinnhubSource) Name() string { return "Finnhub" }

type finnhubQuote struct {
	Current  float64 `json:"c"`
	Open     float64 `json:"o"`
	High     float64 `json:"h"`
	Low      float64 `json:"l"`
	PrevC    float64 `json:"pc"`
	DayPct   float64 `json:"dp"`
	TimeUnix int64   `json:"t"`
}

// GetSpot fetches the real-time underlying quote.
func (f *FinnhubSource) GetSpot(ctx context.Context, ticker string) (*models.SpotQuote, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	u := fmt.Sprintf("%s/quote?symbol=%s&token=%s", f.baseURL, url.QueryEscape(strings.ToUpper(ticker)), f.apiKey)
	body, _, err := doGet(ctx, u, nil)
	if err != nil {
		return nil, fmt.Errorf("finnhub quote %s: %w", ticker, err)
	}
	defer body.Close()

	var q finnhubQuote
	if err := json.NewDecoder(body).Decode(&q); err != nil {
		return nil, fmt.Errorf("finnhub quote %s: decode: %w", ticker, err)
	}
	// Finnhub answers 200 with zeros for unknown tickers
	if q.Current == 0 && q.Open == 0 && q.PrevC == 0 {
		return nil, ErrTickerNotFound
	}

	out := &models.SpotQuote{Ticker: strings.ToUpper(ticker), FetchedAt: time.Now()}
	if q.Current > 0 {
		out.Price = models.Float(q.Current)
	}
	if q.Open > 0 {
		out.Open = models.Float(q.Open)
	}
	return out, nil
}

type finnhubEarningsResp struct {
	EarningsCalendar []finnhubEarningsRow `json:"earningsCalendar"`
}

type finnhubEarningsRow struct {
	Date          string `json:"date"`
	Symbol        string `json:"symbol"`
	Hour          string `json:"hour"`
	ConfirmStatus string `json:"confirmStatus"`
}

func (r finnhubEarningsRow) confirmed() bool {
	return strings.EqualFold(r.ConfirmStatus, "confirmed")
}

// GetEarnings returns the next scheduled earnings date for a ticker,
// scanning about seven months ahead. Finnhub marks the session as
// bmo/amc/dmh; those map to readable labels.
func (f *FinnhubSource) GetEarnings(ctx context.Context, ticker string) (*models.EarningsEvent, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	tkr := strings.ToUpper(strings.TrimSpace(ticker))
	if tkr == "" {
		return nil, ErrTickerNotFound
	}

	now := time.Now().UTC()
	from := now.Format("2006-01-02")
	to := now.AddDate(0, 0, earningsLookaheadDays).Format("2006-01-02")
	u := fmt.Sprintf("%s/calendar/earnings?from=%s&to=%s&symbol=%s&token=%s",
		f.baseURL, from, to, url.QueryEscape(tkr), f.apiKey)
	body, _, err := doGet(ctx, u, nil)
	if err != nil {
		return nil, fmt.Errorf("finnhub earnings %s: %w", tkr, err)
	}
	defer body.Close()

	var resp finnhubEarningsResp
	if err := json.NewDecoder(body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("finnhub earnings %s: decode: %w", tkr, err)
	}

	var rows []finnhubEarningsRow
	for _, r := range resp.EarningsCalendar {
		if !sameTicker(r.Symbol, tkr) || len(r.Date) < 10 || r.Date[:10] < from {
			continue
		}
		r.Date = r.Date[:10]
		rows = append(rows, r)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Date < rows[j].Date })

	// on a same-day tie, a confirmed report wins
	next := rows[0]
	for _, r := range rows {
		if r.Date != next.Date {
			break
		}
		if r.confirmed() {
			next = r
			break
		}
	}

	return &models.EarningsEvent{
		Date:      next.Date,
		When:      sessionLabel(next.Hour),
		Confirmed: next.confirmed(),
	}, nil
}

// GetMacroEvents is not available on Finnhub's free tier.
func (f *FinnhubSource) GetMacroEvents(ctx context.Context, horizonDays int) ([]models.MacroEvent, error) {
	return nil, ErrNotSupported
}

// Option chain data comes from Polygon and Tradier, not Finnhub.

func (f *FinnhubSource) GetOptionSnapshot(ctx context.Context, c models.Contract) (*models.MarketSnapshot, error) {
	return nil, ErrNotSupported
}

func (f *FinnhubSource) GetExpirations(ctx context.Context, ticker string) ([]string, error) {
	return nil, ErrNotSupported
}

func (f *FinnhubSource) GetStrikes(ctx context.Context, ticker, expiry string, kind models.OptionKind) ([]float64, error) {
	return nil, ErrNotSupported
}

func (f *FinnhubSource) SearchSymbols(ctx context.Context, query string) ([]models.Symbol, error) {
	return nil, ErrNotSupported
}

// sameTicker accepts the symbol spellings Finnhub uses across plans.
func sameTicker(sym, tkr string) bool {
	s := strings.ToUpper(strings.TrimSpace(sym))
	return s == tkr ||
		s == tkr+".US" ||
		s == "US:"+tkr ||
		strings.HasSuffix(s, ":"+tkr) ||
		s == tkr+"-USD"
}

func sessionLabel(hour string) string {
	switch strings.ToLower(strings.TrimSpace(hour)) {
	case "bmo", "am", "pre-market":
		return "Before Open"
	case "amc", "pm", "post-market":
		return "After Close"
	case "dmh":
		return "During Market"
	default:
		return hour
	}
}
