package contract

import (
	"math"

	"github.com/Phainsworth/tradegauge-site/pkg/models"
)

// BuildDerived computes the local metrics for a contract from whatever
// inputs are available. A metric whose inputs are missing comes back nil;
// nothing is ever coerced to zero.
func BuildDerived(c models.Contract, snap *models.MarketSnapshot, paid *float64) models.DerivedMetrics {
	d := models.DerivedMetrics{DTE: c.DTE}
	if snap == nil {
		snap = &models.MarketSnapshot{}
	}
	spot := snap.Spot
	k := c.Strike

	if spot != nil && *spot > 0 && k > 0 {
		var m float64
		if c.Kind.IsCall() {
			m = *spot / k
		} else {
			m = k / *spot
		}
		d.Moneyness = &m

		// signed: positive means OTM, negative ITM
		var dist float64
		if c.Kind.IsCall() {
			dist = (k - *spot) / *spot * 100
		} else {
			dist = (*spot - k) / *spot * 100
		}
		d.DistanceOTMPct = &dist
	}

	if th := snap.Greeks.Theta; th != nil {
		v := *th * 100
		d.ThetaPerDay = &v
	}
	if vg := snap.Greeks.Vega; vg != nil {
		v := *vg * 100
		d.VegaPerPoint = &v
	}

	if paid != nil && *paid > 0 && k > 0 {
		var be float64
		if c.Kind.IsCall() {
			be = k + *paid
		} else {
			be = k - *paid
		}
		d.Breakeven = &be
		if spot != nil && *spot > 0 {
			// same sign convention for both kinds: positive means the
			// underlying sits below breakeven
			gap := (be - *spot) / *spot * 100
			d.BreakevenGapPct = &gap
		}
	}

	if spot != nil && *spot > 0 && k > 0 {
		var intr float64
		if c.Kind.IsCall() {
			intr = math.Max(0, *spot-k)
		} else {
			intr = math.Max(0, k-*spot)
		}
		d.Intrinsic = &intr

		if paid != nil && *paid > 0 {
			ext := math.Max(0, *paid-intr)
			d.Extrinsic = &ext
			pct := ext / *paid * 100
			d.ExtrinsicPct = &pct
		}
	}

	return d
}
