package models

// DerivedMetrics are the per-contract numbers computed locally from a
// snapshot. Every field except DTE is a pointer: a metric whose inputs are
// missing stays nil rather than pretending to be zero.
type DerivedMetrics struct {
	DTE             int      `json:"dte"`
	Moneyness       *float64 `json:"moneyness,omitempty"`         // spot/strike for calls, strike/spot for puts
	DistanceOTMPct  *float64 `json:"distance_otm_pct,omitempty"`  // signed; negative means ITM
	ThetaPerDay     *float64 `json:"theta_per_day,omitempty"`     // dollars per contract per day, signed
	VegaPerPoint    *float64 `json:"vega_per_point,omitempty"`    // dollars per contract per IV point
	Breakeven       *float64 `json:"breakeven,omitempty"`
	BreakevenGapPct *float64 `json:"breakeven_gap_pct,omitempty"` // signed move needed to reach breakeven
	Intrinsic       *float64 `json:"intrinsic,omitempty"`         // per share
	Extrinsic       *float64 `json:"extrinsic,omitempty"`         // per share
	ExtrinsicPct    *float64 `json:"extrinsic_pct,omitempty"`     // share of premium that is time value
}

// ScoreResult is the final blended risk verdict for a contract.
type ScoreResult struct {
	Score   float64  `json:"score"`  // 0..10, one decimal
	Bucket  string   `json:"bucket"` // Low, Moderate, High, Very High
	Drivers []string `json:"drivers"`
}

// RiskBucket maps a 0-10 score to its display bucket.
func RiskBucket(score float64) string {
	switch {
	case score <= 3:
		return "Low"
	case score <= 6:
		return "Moderate"
	case score <= 8:
		return "High"
	default:
		return "Very High"
	}
}

// ExpiryScenario is one row of the what-if-at-expiry table: the contract's
// value if the underlying moves MovePct by expiry.
type ExpiryScenario struct {
	MovePct    float64  `json:"move_pct"`
	Underlying float64  `json:"underlying"`
	Value      float64  `json:"value"` // per contract, intrinsic only
	PnL        *float64 `json:"pnl,omitempty"`
	ROIPct     *float64 `json:"roi_pct,omitempty"`
}

// TradeState is the shareable snapshot of a selected trade. It carries only
// inputs, never computed results, so a restored trade is re-analyzed fresh.
type TradeState struct {
	Ticker    string     `json:"t"`
	Kind      OptionKind `json:"k"`
	Strike    float64    `json:"s"`
	Expiry    string     `json:"e"`
	PricePaid string     `json:"p,omitempty"`
	Owns      bool       `json:"o,omitempty"`
}
