package contract

import (
	"math"
	"testing"

	"github.com/Phainsworth/tradegauge-site/pkg/models"
)

func sampleCall() (models.Contract, *models.MarketSnapshot) {
	c := models.Contract{
		Ticker: "AAPL",
		Kind:   models.Call,
		Strike: 110,
		Expiry: "2025-07-18",
		DTE:    30,
	}
	snap := &models.MarketSnapshot{
		Spot: fp(100),
		Bid:  fp(1.20),
		Ask:  fp(1.30),
		Greeks: models.Greeks{
			Delta: fp(0.32),
			Theta: fp(-0.045),
			Vega:  fp(0.11),
			IV:    fp(0.35),
		},
	}
	return c, snap
}

func almostEq(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestBuildDerivedCall(t *testing.T) {
	c, snap := sampleCall()
	d := BuildDerived(c, snap, fp(2.50))

	if d.Moneyness == nil || !almostEq(*d.Moneyness, 100.0/110.0) {
		t.Errorf("moneyness = %v, want %v", d.Moneyness, 100.0/110.0)
	}
	if d.DistanceOTMPct == nil || !almostEq(*d.DistanceOTMPct, 10) {
		t.Errorf("distance = %v, want 10", d.DistanceOTMPct)
	}
	if d.ThetaPerDay == nil || !almostEq(*d.ThetaPerDay, -4.5) {
		t.Errorf("theta/day = %v, want -4.5", d.ThetaPerDay)
	}
	if d.VegaPerPoint == nil || !almostEq(*d.VegaPerPoint, 11) {
		t.Errorf("vega/pt = %v, want 11", d.VegaPerPoint)
	}
	if d.Breakeven == nil || !almostEq(*d.Breakeven, 112.50) {
		t.Errorf("breakeven = %v, want 112.50", d.Breakeven)
	}
	if d.BreakevenGapPct == nil || !almostEq(*d.BreakevenGapPct, 12.5) {
		t.Errorf("gap = %v, want 12.5", d.BreakevenGapPct)
	}
	if d.Intrinsic == nil || *d.Intrinsic != 0 {
		t.Errorf("intrinsic = %v, want 0", d.Intrinsic)
	}
	if d.Extrinsic == nil || !almostEq(*d.Extrinsic, 2.50) {
		t.Errorf("extrinsic = %v, want 2.50", d.Extrinsic)
	}
	if d.ExtrinsicPct == nil || !almostEq(*d.ExtrinsicPct, 100) {
		t.Errorf("extrinsic pct = %v, want 100", d.ExtrinsicPct)
	}
}

func TestBuildDerivedPut(t *testing.T) {
	c := models.Contract{Ticker: "AAPL", Kind: models.Put, Strike: 90, DTE: 14}
	snap := &models.MarketSnapshot{Spot: fp(100)}
	d := BuildDerived(c, snap, fp(1.00))

	if d.Moneyness == nil || !almostEq(*d.Moneyness, 0.9) {
		t.Errorf("moneyness = %v, want 0.9", d.Moneyness)
	}
	if d.DistanceOTMPct == nil || !almostEq(*d.DistanceOTMPct, 10) {
		t.Errorf("distance = %v, want 10", d.DistanceOTMPct)
	}
	if d.Breakeven == nil || !almostEq(*d.Breakeven, 89) {
		t.Errorf("breakeven = %v, want 89", d.Breakeven)
	}
	if d.Intrinsic == nil || *d.Intrinsic != 0 {
		t.Errorf("intrinsic = %v, want 0", d.Intrinsic)
	}
}

func TestBuildDerivedITMCall(t *testing.T) {
	c := models.Contract{Kind: models.Call, Strike: 90, DTE: 7}
	snap := &models.MarketSnapshot{Spot: fp(100)}
	d := BuildDerived(c, snap, fp(12.00))

	if d.DistanceOTMPct == nil || !almostEq(*d.DistanceOTMPct, -10) {
		t.Errorf("ITM distance should be negative, got %v", d.DistanceOTMPct)
	}
	if d.Intrinsic == nil || !almostEq(*d.Intrinsic, 10) {
		t.Errorf("intrinsic = %v, want 10", d.Intrinsic)
	}
	if d.Extrinsic == nil || !almostEq(*d.Extrinsic, 2) {
		t.Errorf("extrinsic = %v, want 2", d.Extrinsic)
	}
}

func TestBuildDerivedMissingInputsStayNil(t *testing.T) {
	c := models.Contract{Kind: models.Call, Strike: 110, DTE: 30}
	d := BuildDerived(c, nil, nil)

	if d.Moneyness != nil || d.DistanceOTMPct != nil || d.Breakeven != nil ||
		d.BreakevenGapPct != nil || d.Intrinsic != nil || d.Extrinsic != nil ||
		d.ExtrinsicPct != nil || d.ThetaPerDay != nil || d.VegaPerPoint != nil {
		t.Errorf("all metrics should be nil without inputs: %+v", d)
	}
	if d.DTE != 30 {
		t.Errorf("DTE should carry through, got %d", d.DTE)
	}
}

func TestBuildExpiryScenarios(t *testing.T) {
	c := models.Contract{Kind: models.Call, Strike: 100}
	rows := BuildExpiryScenarios(100, c, fp(2.00), 10, 20)
	if len(rows) != 5 {
		t.Fatalf("expected 5 rows for -20..20 step 10, got %d", len(rows))
	}
	if rows[0].MovePct != -20 || rows[4].MovePct != 20 {
		t.Errorf("unexpected range: first %v last %v", rows[0].MovePct, rows[4].MovePct)
	}

	// +20% move: spot 120, intrinsic 20/share, 2000/contract
	last := rows[4]
	if last.Value != 2000 {
		t.Errorf("value = %v, want 2000", last.Value)
	}
	if last.PnL == nil || *last.PnL != 1800 {
		t.Errorf("pnl = %v, want 1800", last.PnL)
	}
	if last.ROIPct == nil || *last.ROIPct != 900 {
		t.Errorf("roi = %v, want 900", last.ROIPct)
	}

	// flat and down moves are worthless for this call
	if rows[2].Value != 0 || rows[0].Value != 0 {
		t.Errorf("OTM rows should be worthless: %+v", rows)
	}

	if got := BuildExpiryScenarios(0, c, nil, 0, 0); got != nil {
		t.Errorf("zero spot should give nil, got %v", got)
	}
}
