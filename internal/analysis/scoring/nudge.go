package scoring

import "math"

// NudgeLimit bounds the total decimal nudge.
const NudgeLimit = 0.5

// Nudge refines the integer-ish base score with small decimal adjustments.
// Same inputs as the rule ladder but finer thresholds, clamped to
// ±NudgeLimit so it can never flip a bucket on its own.
func Nudge(in Inputs) float64 {
	var n float64

	// time left: small penalty short, small credit long
	switch {
	case in.DTE <= 5:
		n += 0.25
	case in.DTE <= 10:
		n += 0.10
	case in.DTE >= 90:
		n -= 0.10
	}

	// reward truly low IV more, soften the high-IV penalty
	if iv := in.IVPct; iv != nil {
		switch {
		case *iv <= 18:
			n -= 0.30
		case *iv <= 25:
			n -= 0.15
		case *iv >= 60:
			n += 0.15
		}
	}

	if in.DistanceOTMPct != nil {
		d := math.Abs(*in.DistanceOTMPct)
		switch {
		case d <= 1.5:
			n -= 0.20
		case d <= 3:
			n -= 0.10
		case d >= 25:
			n += 0.30
		case d >= 15:
			n += 0.20
		}
	}

	// reward very deep books, still punish thin chains
	if oi := in.OpenInterest; oi != nil {
		switch {
		case *oi < 100:
			n += 0.30
		case *oi < 500:
			n += 0.15
		case *oi >= 10000:
			n -= 0.25
		case *oi >= 5000:
			n -= 0.15
		}
	}

	if g := in.BreakevenGapPct; g != nil {
		switch {
		case *g > 10:
			n += 0.25
		case *g > 5:
			n += 0.10
		case *g < -5:
			n -= 0.25
		case math.Abs(*g) <= 2:
			n -= 0.10
		}
	}

	return math.Max(-NudgeLimit, math.Min(NudgeLimit, n))
}
