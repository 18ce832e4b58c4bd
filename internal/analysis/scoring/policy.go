// Package scoring blends the rule-based risk score, the decimal nudge, the
// position cushion and an optional advisory score into the final 0-10
// verdict with its ranked drivers.
package scoring

// Calibration recenters the base score before nudges apply. The raw rule
// and advisory scores both run hot, so the default squeezes and shifts
// them down.
type Calibration struct {
	Scale float64
	Bias  float64
}

// DefaultCalibration is tuned against observed score distributions.
var DefaultCalibration = Calibration{Scale: 0.85, Bias: -1.2}

// RuleWeights holds every threshold and increment the rule scorer uses.
// Values are signed adds; credits carry their minus sign.
type RuleWeights struct {
	Baseline float64

	// time risk
	DTE1, DTE2, DTE5, DTE10 float64
	DTE180, DTE90           float64

	// vol premium and crush risk
	IV80, IV60, IV25 float64

	// distance from ATM
	Dist20, Dist10, DistATM float64

	// liquidity
	OIUnder100, OIUnder500, OIOver5000 float64

	// breakeven distance
	Gap15, Gap10, GapInside float64

	// calendar
	EarningsToday, EarningsSoon, MacroSoon float64
}

// DefaultRuleWeights returns the production weight set.
func DefaultRuleWeights() RuleWeights {
	return RuleWeights{
		Baseline: 2.0,

		DTE1:   7,
		DTE2:   6,
		DTE5:   4,
		DTE10:  2.5,
		DTE180: -0.8,
		DTE90:  -0.4,

		IV80: 1.5,
		IV60: 1.0,
		IV25: -0.4,

		Dist20:  1.5,
		Dist10:  1.0,
		DistATM: 0.3,

		OIUnder100: 1.0,
		OIUnder500: 0.5,
		OIOver5000: -0.2,

		Gap15:     1.5,
		Gap10:     1.0,
		GapInside: -0.5,

		EarningsToday: 1.5,
		EarningsSoon:  0.8,
		MacroSoon:     0.5,
	}
}

// MaxDrivers caps the ranked driver list shown with a score.
const MaxDrivers = 6
