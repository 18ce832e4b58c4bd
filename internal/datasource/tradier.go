package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Phainsworth/tradegauge-site/pkg/models"
)

// TradierBaseURL is the Tradier production API root. Sandbox accounts
// point the source at sandbox.tradier.com instead.
const TradierBaseURL = "https://api.tradier.com/v1"

// TradierSource is the quote source of record for single contracts: bid,
// ask, last and greeks in one call.
// https://documentation.tradier.com/brokerage-api
type TradierSource struct {
	token   string
	baseURL string
}

// NewTradierSource creates a Tradier source. baseURL may be empty for
// production.
func NewTradierSource(token, baseURL string) *TradierSource {
	if baseURL == "" {
		baseURL = TradierBaseURL
	}
	return &TradierSource{token: token, baseURL: strings.TrimRight(baseURL, "/")}
}

func (t *TradierSource) Name() string { return "Tradier" }

// Tradier nests a single quote as an object and multiple as an array.
type tradierQuotesResp struct {
	Quotes struct {
		Quote json.RawMessage `json:"quote"`
	} `json:"quotes"`
}

type tradierQuote struct {
	Bid          *float64 `json:"bid"`
	Ask          *float64 `json:"ask"`
	Last         *float64 `json:"last"`
	OpenInterest *float64 `json:"open_interest"`
	Greeks       *struct {
		Delta  *float64 `json:"delta"`
		Gamma  *float64 `json:"gamma"`
		Theta  *float64 `json:"theta"`
		Vega   *float64 `json:"vega"`
		MidIV  *float64 `json:"mid_iv"`
		SmvVol *float64 `json:"smv_vol"`
	} `json:"greeks"`
}

// GetOptionSnapshot fetches the live quote and greeks for one contract.
func (t *TradierSource) GetOptionSnapshot(ctx context.Context, c models.Contract) (*models.MarketSnapshot, error) {
	occ, err := OCCSymbol(c)
	if err != nil {
		return nil, err
	}
	u := fmt.Sprintf("%s/markets/quotes?symbols=%s&greeks=true", t.baseURL, url.QueryEscape(occ))
	body, _, err := doGet(ctx, u, map[string]string{
		"Authorization": "Bearer " + t.token,
		"Accept":        "application/json",
	})
	if err != nil {
		return nil, fmt.Errorf("tradier quote %s: %w", occ, err)
	}
	defer body.Close()

	var resp tradierQuotesResp
	if err := json.NewDecoder(body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("tradier quote %s: decode: %w", occ, err)
	}

	q, err := unwrapTradierQuote(resp.Quotes.Quote)
	if err != nil {
		return nil, ErrTickerNotFound
	}

	snap := &models.MarketSnapshot{
		Bid:       q.Bid,
		Ask:       q.Ask,
		Last:      q.Last,
		Source:    "tradier",
		FetchedAt: time.Now(),
	}
	if q.OpenInterest != nil {
		snap.Greeks.OpenInterest = models.Int64(int64(*q.OpenInterest))
	}
	if g := q.Greeks; g != nil {
		snap.Greeks.Delta = g.Delta
		snap.Greeks.Gamma = g.Gamma
		snap.Greeks.Theta = g.Theta
		snap.Greeks.Vega = g.Vega
		// prefer the mid IV, fall back to the surface vol
		if g.MidIV != nil && *g.MidIV > 0 {
			snap.Greeks.IV = g.MidIV
		} else if g.SmvVol != nil && *g.SmvVol > 0 {
			snap.Greeks.IV = g.SmvVol
		}
	}
	snap.DeriveMark()
	return snap, nil
}

func unwrapTradierQuote(raw json.RawMessage) (*tradierQuote, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, fmt.Errorf("empty quote")
	}
	var one tradierQuote
	if err := json.Unmarshal(raw, &one); err == nil {
		return &one, nil
	}
	var many []tradierQuote
	if err := json.Unmarshal(raw, &many); err != nil || len(many) == 0 {
		return nil, fmt.Errorf("unrecognized quote payload")
	}
	return &many[0], nil
}

// GetSpot returns the underlying quote. Useful as a fallback when the
// primary spot source is cooling down.
func (t *TradierSource) GetSpot(ctx context.Context, ticker string) (*models.SpotQuote, error) {
	tkr := strings.ToUpper(strings.TrimSpace(ticker))
	u := fmt.Sprintf("%s/markets/quotes?symbols=%s", t.baseURL, url.QueryEscape(tkr))
	body, status, err := doGet(ctx, u, map[string]string{
		"Authorization": "Bearer " + t.token,
		"Accept":        "application/json",
	})
	if err != nil {
		if status == http.StatusUnauthorized {
			return nil, fmt.Errorf("tradier spot %s: check token: %w", tkr, err)
		}
		return nil, fmt.Errorf("tradier spot %s: %w", tkr, err)
	}
	defer body.Close()

	var resp tradierQuotesResp
	if err := json.NewDecoder(body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("tradier spot %s: decode: %w", tkr, err)
	}
	q, err := unwrapTradierQuote(resp.Quotes.Quote)
	if err != nil {
		return nil, ErrTickerNotFound
	}

	out := &models.SpotQuote{Ticker: tkr, FetchedAt: time.Now()}
	if q.Last != nil && *q.Last > 0 {
		out.Price = q.Last
	}
	return out, nil
}

func (t *TradierSource) GetExpirations(ctx context.Context, ticker string) ([]string, error) {
	return nil, ErrNotSupported
}

func (t *TradierSource) GetStrikes(ctx context.Context, ticker, expiry string, kind models.OptionKind) ([]float64, error) {
	return nil, ErrNotSupported
}

func (t *TradierSource) SearchSymbols(ctx context.Context, query string) ([]models.Symbol, error) {
	return nil, ErrNotSupported
}
