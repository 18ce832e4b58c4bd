package scoring

import (
	"fmt"
	"math"
	"regexp"
)

// BuildDrivers produces the ranked plain-language reasons behind a score,
// highest-impact first, capped at max entries.
func BuildDrivers(in Inputs, max int) []string {
	if max <= 0 {
		max = MaxDrivers
	}
	var drivers []string

	if in.EarningsText != "" && in.EarningsText != "none" {
		drivers = append(drivers, fmt.Sprintf("Earnings %s → event risk/IV swing", in.EarningsText))
	}
	if len(in.MacroSoon) > 0 {
		drivers = append(drivers, fmt.Sprintf("%s → macro volatility risk", in.MacroSoon[0]))
	}
	if in.DTE <= 10 {
		drivers = append(drivers, fmt.Sprintf("Short DTE (%d) → faster theta decay", in.DTE))
	}
	if iv := in.IVPct; iv != nil {
		if *iv >= 60 {
			drivers = append(drivers, fmt.Sprintf("Elevated IV (%.0f%%) → IV crush risk", *iv))
		} else if *iv <= 25 {
			drivers = append(drivers, fmt.Sprintf("Low IV (%.0f%%) → cheaper premium, move matters", *iv))
		}
	}
	if in.DistanceOTMPct != nil {
		d := math.Abs(*in.DistanceOTMPct)
		if d >= 15 {
			drivers = append(drivers, fmt.Sprintf("Deep OTM (~%.0f%%) → low hit probability", d))
		} else if d <= 2 {
			drivers = append(drivers, fmt.Sprintf("Near ATM (~%.1f%%) → higher gamma", d))
		}
	}
	if dl := in.Delta; dl != nil {
		a := math.Abs(*dl)
		if a >= 0.7 {
			drivers = append(drivers, fmt.Sprintf("High delta (%.2f) → stock-like; assignment risk if ITM near expiry", *dl))
		} else if a <= 0.25 {
			drivers = append(drivers, fmt.Sprintf("Low delta (%.2f) → needs outsized move", *dl))
		}
	}
	if th := in.Theta; th != nil && math.Abs(*th) >= 0.1 {
		drivers = append(drivers, fmt.Sprintf("Large theta (~$%.0f/day)", math.Abs(*th)*100))
	}
	if vg := in.Vega; vg != nil && math.Abs(*vg) >= 0.15 {
		drivers = append(drivers, fmt.Sprintf("High vega (%.2f) → sensitive to IV", *vg))
	}
	if oi := in.OpenInterest; oi != nil && *oi < 500 {
		drivers = append(drivers, fmt.Sprintf("Thin liquidity (OI %d) → wider spreads", *oi))
	}
	if g := in.BreakevenGapPct; g != nil {
		if *g > 10 {
			drivers = append(drivers, fmt.Sprintf("Breakeven far (+%.1f%%)", *g))
		} else if *g < -5 {
			drivers = append(drivers, fmt.Sprintf("Breakeven inside (-%.1f%%)", math.Abs(*g)))
		}
	}

	if len(drivers) > max {
		drivers = drivers[:max]
	}
	return drivers
}

// explainers that just restate a greek's value add nothing on top of the
// local drivers, which already surface the notable greeks with context
var greekRestatementRe = regexp.MustCompile(`(?i)^(delta|theta|vega|gamma)\b.*\bis\b`)

// FilterExternal drops advisory explainers that merely restate a greek's
// number, keeping the interpretive ones.
func FilterExternal(explainers []string) []string {
	var out []string
	for _, e := range explainers {
		if !greekRestatementRe.MatchString(e) {
			out = append(out, e)
		}
	}
	return out
}

// CombineDrivers appends filtered external explainers to the local drivers,
// dropping duplicates, capped at max.
func CombineDrivers(local, external []string, max int) []string {
	if max <= 0 {
		max = MaxDrivers
	}
	seen := make(map[string]bool, len(local))
	out := make([]string, 0, len(local)+len(external))
	for _, d := range local {
		if !seen[d] {
			seen[d] = true
			out = append(out, d)
		}
	}
	for _, e := range FilterExternal(external) {
		if !seen[e] {
			seen[e] = true
			out = append(out, e)
		}
	}
	if len(out) > max {
		out = out[:max]
	}
	return out
}
