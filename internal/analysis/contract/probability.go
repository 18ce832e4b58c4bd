// Package contract computes per-contract analytics: derived pricing
// metrics, probability of finishing in the money, and expiry scenarios.
// Everything here is a pure function over snapshot data.
package contract

import (
	"math"

	"github.com/Phainsworth/tradegauge-site/pkg/models"
)

// normCDF is the Abramowitz & Stegun 26.2.17 rational approximation of the
// standard normal CDF. Accurate to ~7.5e-8, which is far tighter than the
// inputs deserve.
func normCDF(x float64) float64 {
	t := 1 / (1 + 0.2316419*math.Abs(x))
	d := 0.3989423 * math.Exp(-x*x/2)
	p := d * t * (0.3193815 + t*(-0.3565638+t*(1.781478+t*(-1.821256+t*1.330274))))
	if x > 0 {
		return 1 - p
	}
	return p
}

// ProbITM estimates the probability, in whole percent, that the contract
// finishes in the money, using the risk-neutral d2 term with zero rates.
// Returns nil when spot, strike, IV or DTE are unusable.
func ProbITM(spot, strike float64, kind models.OptionKind, ivPct *float64, dte int) *int {
	if !isFinite(spot) || !isFinite(strike) || spot <= 0 || strike <= 0 {
		return nil
	}
	if ivPct == nil || *ivPct <= 0 || dte <= 0 {
		return nil
	}
	sigma := *ivPct / 100
	t := math.Max(1e-6, float64(dte)/365)
	denom := sigma * math.Sqrt(t)
	d2 := (math.Log(spot/strike) - 0.5*sigma*sigma*t) / denom
	var p float64
	if kind.IsCall() {
		p = normCDF(d2)
	} else {
		p = normCDF(-d2)
	}
	if !isFinite(p) {
		return nil
	}
	pct := int(math.Round(p * 100))
	return &pct
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
