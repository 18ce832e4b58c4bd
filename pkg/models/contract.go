package models

import "time"

// OptionKind identifies which side of the chain a contract belongs to.
type OptionKind string

const (
	Call OptionKind = "CALL"
	Put  OptionKind = "PUT"
)

// IsCall reports whether the kind is the call side.
func (k OptionKind) IsCall() bool { return k == Call }

// Contract identifies a single listed option contract.
type Contract struct {
	Ticker string     `json:"ticker"`
	Kind   OptionKind `json:"kind"`
	Strike float64    `json:"strike"`
	Expiry string     `json:"expiry"` // YYYY-MM-DD
	DTE    int        `json:"dte"`    // calendar days to expiry, UTC midnight, floored at 0
}

// Greeks holds per-share greeks for a contract. Fields are pointers so a
// value a provider never returned stays nil instead of collapsing to zero.
type Greeks struct {
	Delta        *float64 `json:"delta,omitempty"`
	Gamma        *float64 `json:"gamma,omitempty"`
	Theta        *float64 `json:"theta,omitempty"` // per day, usually negative for longs
	Vega         *float64 `json:"vega,omitempty"`
	IV           *float64 `json:"iv,omitempty"` // fraction, e.g. 0.42
	OpenInterest *int64   `json:"open_interest,omitempty"`
}

// IVPct returns implied volatility in percent points, or nil when unknown.
func (g Greeks) IVPct() *float64 {
	if g.IV == nil {
		return nil
	}
	v := *g.IV * 100
	return &v
}

// MarketSnapshot is a point-in-time market view of one contract.
type MarketSnapshot struct {
	Spot      *float64  `json:"spot,omitempty"` // underlying price
	Bid       *float64  `json:"bid,omitempty"`
	Ask       *float64  `json:"ask,omitempty"`
	Last      *float64  `json:"last,omitempty"`
	Mark      *float64  `json:"mark,omitempty"`
	Greeks    Greeks    `json:"greeks"`
	Source    string    `json:"source,omitempty"`
	FetchedAt time.Time `json:"fetched_at"`
}

// DeriveMark fills Mark from the quote when possible: the bid/ask midpoint
// when both sides are quoted with a positive ask, otherwise the last trade.
// A mark already present is kept as a fallback.
func (s *MarketSnapshot) DeriveMark() *float64 {
	if s.Bid != nil && s.Ask != nil && *s.Ask > 0 {
		m := (*s.Bid + *s.Ask) / 2
		s.Mark = &m
		return s.Mark
	}
	if s.Last != nil && *s.Last > 0 {
		s.Mark = s.Last
		return s.Mark
	}
	return s.Mark
}

// SpreadWide reports whether the bid/ask spread exceeds 15% of the ask.
// Returns nil when either side of the quote is missing.
func (s *MarketSnapshot) SpreadWide() *bool {
	if s.Bid == nil || s.Ask == nil || *s.Ask <= 0 {
		return nil
	}
	wide := (*s.Ask-*s.Bid)/(*s.Ask) > 0.15
	return &wide
}

// SpotQuote is a bare underlying quote.
type SpotQuote struct {
	Ticker    string    `json:"ticker"`
	Price     *float64  `json:"price,omitempty"`
	Open      *float64  `json:"open,omitempty"`
	FetchedAt time.Time `json:"fetched_at"`
}

// Symbol is one entry in a ticker search result.
type Symbol struct {
	Ticker string `json:"ticker"`
	Name   string `json:"name,omitempty"`
}

// Float returns a pointer to v. Convenient for the pointer-typed fields above.
func Float(v float64) *float64 { return &v }

// Int64 returns a pointer to v.
func Int64(v int64) *int64 { return &v }

// Bool returns a pointer to v.
func Bool(v bool) *bool { return &v }
