package advisor

import (
	"encoding/json"
	"strings"
)

const maxPlanBullets = 6

// Plan is the middle-risk game plan: things the setup has going for it,
// things to watch, and one conditional plan of action.
type Plan struct {
	Likes     []string `json:"likes"`
	Watchouts []string `json:"watchouts"`
	Plan      string   `json:"plan"`
}

// ParsePlan decodes the plan payload. Returns nil when the shape is
// wrong so the caller can substitute the fallback.
func ParsePlan(rawTxt string) *Plan {
	txt := strings.TrimSpace(rawTxt)
	var p Plan
	if err := json.Unmarshal([]byte(txt), &p); err != nil {
		sliced := ExtractJSON(txt)
		if sliced == "" || json.Unmarshal([]byte(sliced), &p) != nil {
			return nil
		}
	}
	if p.Likes == nil || p.Watchouts == nil || strings.TrimSpace(p.Plan) == "" {
		return nil
	}
	p.Likes = capList(p.Likes, maxPlanBullets)
	p.Watchouts = capList(p.Watchouts, maxPlanBullets)
	p.Plan = strings.TrimSpace(p.Plan)
	return &p
}

// FallbackPlan builds a sane conditional plan from local signals when
// the model call fails or returns garbage.
func FallbackPlan(dte int, ivPct *float64, spreadWide *bool) *Plan {
	var likes, watchouts []string

	if ivPct != nil && *ivPct < 50 {
		likes = append(likes, "IV is reasonable, not nosebleed.")
	}
	likes = append(likes,
		"Near the money so delta actually moves with the stock.",
		"Trend is constructive; buyers showed up on dips recently.")

	if dte <= 7 {
		watchouts = append(watchouts, "Theta speeds up inside ~7 DTE, time matters.")
	}
	if spreadWide != nil && *spreadWide {
		watchouts = append(watchouts, "Spread is wide; execution penalty is real.")
	}
	watchouts = append(watchouts, "Breakeven needs a decent push, chop bleeds premium.")

	return &Plan{
		Likes:     likes,
		Watchouts: watchouts,
		Plan: "Wait for a pullback to prior support plus a higher low, then take a small starter only after reclaiming " +
			"yesterday's high with volume. Guardrails: skip if the spread widens > ~8%; invalid if it closes back inside " +
			"yesterday's range; time stop after 2 sessions if momentum never shows.",
	}
}
