package scoring

import "math"

// PnLPct returns the percent gain or loss on the premium, or nil when
// either side is unknown.
func PnLPct(paid, mark *float64) *float64 {
	if paid == nil || mark == nil || *paid <= 0 {
		return nil
	}
	v := (*mark - *paid) / *paid * 100
	return &v
}

// Cushion adjusts risk for an open position. Deep red positions are
// riskier to hold than the greeks alone suggest; a fat profit cushions the
// downside. Returns 0 when there is no position.
func Cushion(pnlPct *float64, dte int) float64 {
	if pnlPct == nil {
		return 0
	}
	p := *pnlPct
	var c float64
	switch {
	case p <= -60:
		c += 1.8
	case p <= -40:
		c += 0.9
	case p <= -20:
		c += 0.5
	case p >= 80:
		c -= 1.0
	case p >= 40:
		c -= 0.7
	case p >= 20:
		c -= 0.4
	}
	if dte <= 10 && p < 0 {
		c += 0.3
	}
	if dte <= 5 && p > 0 {
		c += 0.1
	}
	return c
}

// Blend folds the advisory score, rule score, nudge and cushion into the
// final verdict. The advisory score, when usable, replaces the rule score
// as the base; recentering applies to the base only, never to the nudges.
func Blend(advisory *float64, ruleScore, nudge, cushion float64, c Calibration) float64 {
	base := ruleScore
	if advisory != nil && !math.IsNaN(*advisory) && !math.IsInf(*advisory, 0) {
		base = clamp01x10(*advisory)
	}
	recentered := base*c.Scale + c.Bias
	return round1(clamp01x10(recentered + nudge + cushion))
}
