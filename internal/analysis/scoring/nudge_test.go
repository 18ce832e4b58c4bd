package scoring

import (
	"math"
	"testing"
)

func TestNudgeClamped(t *testing.T) {
	worst := Inputs{
		DTE:             2,
		IVPct:           fp(75),
		DistanceOTMPct:  fp(30),
		OpenInterest:    ip(50),
		BreakevenGapPct: fp(15),
	}
	if got := Nudge(worst); got != NudgeLimit {
		t.Errorf("expected clamp at %v, got %v", NudgeLimit, got)
	}

	best := Inputs{
		DTE:             120,
		IVPct:           fp(15),
		DistanceOTMPct:  fp(1),
		OpenInterest:    ip(20000),
		BreakevenGapPct: fp(-8),
	}
	if got := Nudge(best); got != -NudgeLimit {
		t.Errorf("expected clamp at %v, got %v", -NudgeLimit, got)
	}
}

func TestNudgeComponents(t *testing.T) {
	tests := []struct {
		name string
		in   Inputs
		want float64
	}{
		{"very short dte", Inputs{DTE: 3}, 0.25},
		{"short dte", Inputs{DTE: 8}, 0.10},
		{"long dte credit", Inputs{DTE: 120}, -0.10},
		{"dead iv", Inputs{DTE: 30, IVPct: fp(16)}, -0.30},
		{"low iv", Inputs{DTE: 30, IVPct: fp(22)}, -0.15},
		{"hot iv", Inputs{DTE: 30, IVPct: fp(70)}, 0.15},
		{"pinned atm", Inputs{DTE: 30, DistanceOTMPct: fp(-1)}, -0.20},
		{"near atm", Inputs{DTE: 30, DistanceOTMPct: fp(2.5)}, -0.10},
		{"far otm", Inputs{DTE: 30, DistanceOTMPct: fp(28)}, 0.30},
		{"deep otm", Inputs{DTE: 30, DistanceOTMPct: fp(18)}, 0.20},
		{"ghost chain", Inputs{DTE: 30, OpenInterest: ip(60)}, 0.30},
		{"thin chain", Inputs{DTE: 30, OpenInterest: ip(400)}, 0.15},
		{"huge book", Inputs{DTE: 30, OpenInterest: ip(15000)}, -0.25},
		{"deep book", Inputs{DTE: 30, OpenInterest: ip(6000)}, -0.15},
		{"breakeven far", Inputs{DTE: 30, BreakevenGapPct: fp(12)}, 0.25},
		{"breakeven stretch", Inputs{DTE: 30, BreakevenGapPct: fp(7)}, 0.10},
		{"inside breakeven", Inputs{DTE: 30, BreakevenGapPct: fp(-8)}, -0.25},
		{"hugging breakeven", Inputs{DTE: 30, BreakevenGapPct: fp(1)}, -0.10},
		{"nothing known", Inputs{DTE: 30}, 0},
	}
	for _, tt := range tests {
		got := Nudge(tt.in)
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("%s: nudge = %v, want %v", tt.name, got, tt.want)
		}
	}
}
