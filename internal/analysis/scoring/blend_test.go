package scoring

import (
	"math"
	"testing"
)

func TestPnLPct(t *testing.T) {
	got := PnLPct(fp(2.00), fp(3.00))
	if got == nil || *got != 50 {
		t.Errorf("expected 50, got %v", got)
	}
	got = PnLPct(fp(2.00), fp(1.00))
	if got == nil || *got != -50 {
		t.Errorf("expected -50, got %v", got)
	}
	if got := PnLPct(nil, fp(1.00)); got != nil {
		t.Errorf("expected nil without paid, got %v", *got)
	}
	if got := PnLPct(fp(0), fp(1.00)); got != nil {
		t.Errorf("expected nil for zero paid, got %v", *got)
	}
}

func TestCushionSign(t *testing.T) {
	// losses always push risk up, gains always pull it down
	losses := []float64{-70, -45, -25}
	for _, p := range losses {
		if c := Cushion(fp(p), 60); c <= 0 {
			t.Errorf("pnl %v should raise risk, cushion = %v", p, c)
		}
	}
	gains := []float64{85, 45, 25}
	for _, p := range gains {
		if c := Cushion(fp(p), 60); c >= 0 {
			t.Errorf("pnl %v should lower risk, cushion = %v", p, c)
		}
	}
}

func TestCushionLadder(t *testing.T) {
	tests := []struct {
		pnl  float64
		dte  int
		want float64
	}{
		{-70, 60, 1.8},
		{-45, 60, 0.9},
		{-25, 60, 0.5},
		{85, 60, -1.0},
		{45, 60, -0.7},
		{25, 60, -0.4},
		{-25, 8, 0.8},  // short dte and red stacks +0.3
		{25, 4, -0.3},  // very short and green gets +0.1 back
		{5, 60, 0},
	}
	for _, tt := range tests {
		got := Cushion(fp(tt.pnl), tt.dte)
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("Cushion(%v, %d) = %v, want %v", tt.pnl, tt.dte, got, tt.want)
		}
	}
	if got := Cushion(nil, 5); got != 0 {
		t.Errorf("no position should mean no cushion, got %v", got)
	}
}

func TestBlendRecentersBaseOnly(t *testing.T) {
	c := DefaultCalibration
	// base 6 recenters to 6*0.85-1.2 = 3.9; nudge and cushion add raw
	got := Blend(fp(6), 2.0, 0.5, 0.5, c)
	if got != 4.9 {
		t.Errorf("expected 4.9, got %v", got)
	}
}

func TestBlendFallsBackToRuleScore(t *testing.T) {
	c := DefaultCalibration
	got := Blend(nil, 6.0, 0, 0, c)
	if got != 3.9 {
		t.Errorf("expected rule-only 3.9, got %v", got)
	}

	nan := math.NaN()
	if got := Blend(&nan, 6.0, 0, 0, c); got != 3.9 {
		t.Errorf("NaN advisory should fall back, got %v", got)
	}
}

func TestBlendClampsAdvisory(t *testing.T) {
	c := DefaultCalibration
	// advisory 15 clamps to 10 before recentering: 10*0.85-1.2 = 7.3
	if got := Blend(fp(15), 2.0, 0, 0, c); got != 7.3 {
		t.Errorf("expected 7.3, got %v", got)
	}
	// advisory -3 clamps to 0, recenters to -1.2, floors at 0
	if got := Blend(fp(-3), 2.0, 0, 0, c); got != 0 {
		t.Errorf("expected 0, got %v", got)
	}
}

func TestBlendBounds(t *testing.T) {
	c := DefaultCalibration
	if got := Blend(fp(10), 0, 0.5, 1.8, c); got > 10 {
		t.Errorf("blend exceeded 10: %v", got)
	}
	if got := Blend(fp(0), 0, -0.5, -1.0, c); got < 0 {
		t.Errorf("blend below 0: %v", got)
	}
}

func TestBlendIdempotent(t *testing.T) {
	c := DefaultCalibration
	in := sampleInputs()
	rule := RuleScore(in, DefaultRuleWeights())
	n := Nudge(in)
	cu := Cushion(fp(-30), in.DTE)
	a := Blend(fp(7.2), rule, n, cu, c)
	b := Blend(fp(7.2), rule, n, cu, c)
	if a != b {
		t.Errorf("same inputs must blend identically: %v vs %v", a, b)
	}
}
