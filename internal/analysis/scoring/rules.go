package scoring

import "math"

// Inputs bundles everything the rule scorer, nudge and driver builder read.
// Pointer fields mean "unknown"; an unknown input never moves the score.
type Inputs struct {
	DTE             int
	IVPct           *float64
	DistanceOTMPct  *float64 // signed; magnitude is what matters here
	Delta           *float64
	Theta           *float64 // per share per day
	Vega            *float64
	OpenInterest    *int64
	BreakevenGapPct *float64
	EarningsText    string // "none" when no earnings in sight
	EarningsToday   bool
	EarningsSoon    bool
	MacroSoon       []string
}

// RuleScore computes the deterministic 0-10 risk score from threshold
// ladders. Starts from a safe-ish baseline and works through time, vol,
// distance, liquidity, breakeven and calendar risk in that order.
func RuleScore(in Inputs, w RuleWeights) float64 {
	s := w.Baseline

	d := in.DTE
	switch {
	case d <= 1:
		s += w.DTE1
	case d <= 2:
		s += w.DTE2
	case d <= 5:
		s += w.DTE5
	case d <= 10:
		s += w.DTE10
	case d >= 180:
		s += w.DTE180
	case d >= 90:
		s += w.DTE90
	}

	if iv := in.IVPct; iv != nil {
		switch {
		case *iv >= 80:
			s += w.IV80
		case *iv >= 60:
			s += w.IV60
		case *iv <= 25:
			s += w.IV25
		}
	}

	if in.DistanceOTMPct != nil {
		dist := math.Abs(*in.DistanceOTMPct)
		switch {
		case dist >= 20:
			s += w.Dist20
		case dist >= 10:
			s += w.Dist10
		case dist <= 2:
			// ATM gamma/whipsaw risk
			s += w.DistATM
		}
	}

	if oi := in.OpenInterest; oi != nil {
		switch {
		case *oi < 100:
			s += w.OIUnder100
		case *oi < 500:
			s += w.OIUnder500
		case *oi > 5000:
			s += w.OIOver5000
		}
	}

	if g := in.BreakevenGapPct; g != nil {
		switch {
		case *g > 15:
			s += w.Gap15
		case *g > 10:
			s += w.Gap10
		case *g < -5:
			// already inside breakeven
			s += w.GapInside
		}
	}

	if in.EarningsToday {
		s += w.EarningsToday
	} else if in.EarningsSoon {
		s += w.EarningsSoon
	}
	if len(in.MacroSoon) > 0 {
		s += w.MacroSoon
	}

	return clamp01x10(round1(s))
}

func clamp01x10(v float64) float64 {
	return math.Max(0, math.Min(10, v))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
