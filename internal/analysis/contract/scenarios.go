package contract

import (
	"math"

	"github.com/Phainsworth/tradegauge-site/pkg/models"
)

// Scenario table defaults: underlying moves of -20%..+20% in 2% steps.
const (
	DefaultScenarioStepPct  = 2.0
	DefaultScenarioRangePct = 20.0
)

// BuildExpiryScenarios tabulates the contract's intrinsic value at expiry
// across a range of underlying moves. Value is per contract (x100). PnL and
// ROI fill in only when the price paid is known.
func BuildExpiryScenarios(spot float64, c models.Contract, paid *float64, stepPct, rangePct float64) []models.ExpiryScenario {
	if spot <= 0 || c.Strike <= 0 {
		return nil
	}
	if stepPct <= 0 {
		stepPct = DefaultScenarioStepPct
	}
	if rangePct <= 0 {
		rangePct = DefaultScenarioRangePct
	}

	var rows []models.ExpiryScenario
	for p := -rangePct; p <= rangePct+1e-9; p += stepPct {
		s := round2(spot * (1 + p/100))
		var intr float64
		if c.Kind.IsCall() {
			intr = math.Max(0, s-c.Strike)
		} else {
			intr = math.Max(0, c.Strike-s)
		}
		row := models.ExpiryScenario{
			MovePct:    p,
			Underlying: s,
			Value:      round2(intr * 100),
		}
		if paid != nil && *paid > 0 {
			paidContract := *paid * 100
			pnl := round2(row.Value - paidContract)
			roi := math.Round((row.Value - paidContract) / paidContract * 100)
			row.PnL = &pnl
			row.ROIPct = &roi
		}
		rows = append(rows, row)
	}
	return rows
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
