package advisor

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/Phainsworth/tradegauge-site/pkg/models"
)

// PriceGuidance toggles whether route suggestions may name exact dollar
// limits. Generic-only keeps suggestions condition-based.
const PriceGuidance = true

// ContractContext carries everything the prompt builders need about the
// contract under review.
type ContractContext struct {
	Contract models.Contract
	Spot     *float64
	Paid     *float64
	Greeks   models.Greeks
	Derived  models.DerivedMetrics

	Earnings    *models.EarningsEvent
	MacroEvents []models.MacroEvent

	EarningsText string
	MacroSoon    []string

	OwnsPosition bool
}

// QuoteContext carries the live quote fields the routes prompt needs.
type QuoteContext struct {
	Bid        *float64
	Ask        *float64
	Last       *float64
	Mark       *float64
	PnLPct     *float64
	SpreadWide *bool
}

// OpinionSystemPrompt frames the conversational second-opinion call.
func OpinionSystemPrompt() string {
	return strings.TrimSpace(`
You are a seasoned options friend who talks like a human: smart, concise, a little witty.
Tone: casual, confident, empathetic. Use 0-2 emojis total (only if they genuinely help).
Voice: write like a cool trading buddy, not a professor; avoid corporate speak.

Do:
- Pick the 1-2 biggest drivers (e.g., extreme IV, heavy theta, deep OTM, near-ITM squeeze).
- Describe how the contract is likely to behave from here (decay pace, IV crush risk, delta sensitivity, lotto odds).
- If the user is up big, nod to it; if they're down, be kind but direct.

Avoid:
- Listing every stat, generic platitudes, or calls to action. This section is perspective only.

STRICT JSON OUTPUT:
{
  "score": number,
  "headline": "short punchy one-liner (may include 1 emoji)",
  "narrative": "3-5 short sentences, conversational and specific to THIS contract.",
  "advice": string[],
  "explainers": string[],
  "risks": string[],
  "watchlist": string[],
  "strategy_notes": string[],
  "confidence": number
}
Output raw JSON only, no markdown, no backticks.`)
}

// OpinionUserPrompt renders the contract facts the model scores from.
// Hints carry extra steering like the profit-protection nudge.
func OpinionUserPrompt(c ContractContext, hints []string) string {
	ivPct := c.Greeks.IVPct()
	distAbs := absPtr(c.Derived.DistanceOTMPct)

	priorityHints := map[string]any{
		"earnings_window": c.EarningsText,
		"macro_soon":      c.MacroSoon,
		"iv_pct":          roundPtr(ivPct),
		"deep_otm_pct":    distAbs,
		"dte":             c.Contract.DTE,
	}
	hintsJSON, _ := json.Marshal(priorityHints)

	var macroLine string
	for i, e := range c.MacroEvents {
		if i >= 6 {
			break
		}
		if macroLine != "" {
			macroLine += " | "
		}
		macroLine += e.Title + " on " + e.Date
		if e.Time != "" {
			macroLine += " " + e.Time
		}
	}
	if macroLine == "" {
		macroLine = "none"
	}

	earningsLine := "none in range"
	if c.Earnings != nil && c.Earnings.Date != "" {
		earningsLine = c.Earnings.Date
		if c.Earnings.When != "" {
			earningsLine += " (" + c.Earnings.When + ")"
		}
		if c.Earnings.Confirmed {
			earningsLine += ", confirmed"
		} else {
			earningsLine += ", estimated"
		}
	}

	stance := "User DOES NOT OWN this yet (prospecting). Tailor advice to ENTRY timing, limit price, risk budget, and conditions to skip. Avoid 'take profits/trim' language."
	if c.OwnsPosition {
		stance = "User ALREADY OWNS the contract. Tailor advice to managing/adjusting/closing."
	}

	var extra string
	for _, h := range hints {
		if h != "" {
			extra += "\n" + h
		}
	}

	return strings.TrimSpace(fmt.Sprintf(`Analyze this options trade:

Trade:
- Ticker: %s
- Type: %s
- Strike: %s
- Expiry: %s
- Spot: %s
- DTE: %d

Greeks:
- Delta: %s
- Gamma: %s
- Theta: %s
- Vega: %s
- IV (%%): %s
- Open Interest: %s

Derived:
- Moneyness ratio: %s
- Distance OTM %%: %s
- Breakeven: %s
- Breakeven gap %%: %s
- Theta per $100: %s
- Vega per $100 per 1 vol-pt: %s

Context:
- Earnings: %s
- Macro (next 6): %s

Priority hints (steer the analysis):
%s
%s%s

Remember: Explain *drivers*, not definitions. Score can be decimal.`,
		strings.ToUpper(c.Contract.Ticker),
		c.Contract.Kind,
		fmtNum(&c.Contract.Strike),
		c.Contract.Expiry,
		orNA(c.Spot),
		c.Contract.DTE,
		orNA(c.Greeks.Delta),
		orNA(c.Greeks.Gamma),
		orNA(c.Greeks.Theta),
		orNA(c.Greeks.Vega),
		orNA(roundPtr(ivPct)),
		orNAInt(c.Greeks.OpenInterest),
		orNA(c.Derived.Moneyness),
		orNAPct(c.Derived.DistanceOTMPct),
		orNA(c.Derived.Breakeven),
		orNAPct(c.Derived.BreakevenGapPct),
		orNA(c.Derived.ThetaPerDay),
		orNA(c.Derived.VegaPerPoint),
		earningsLine,
		macroLine,
		string(hintsJSON),
		stance,
		extra,
	))
}

// PlanSystemPrompt frames the middle-risk plan call.
func PlanSystemPrompt() string {
	return strings.TrimSpace(`
You are a seasoned options friend. Middle-of-the-road risk stance by default.
Tone: casual, concise, human; 0-2 emojis total only if they help. No hard $ prices.

Return STRICT JSON ONLY:
{
  "likes": ["short bullet", "..."],
  "watchouts": ["short bullet", "..."],
  "plan": "one clear middle-risk plan: when to act (conditions), why, and guardrails (invalidation, spread %, time stop). No exact dollar amounts."
}
Output raw JSON only, no markdown.`)
}

// PlanUserPrompt renders the condensed contract facts for the plan call.
func PlanUserPrompt(c ContractContext, q QuoteContext, earningsDays *int, macroSoon string) string {
	ivStr := dashOr(roundPtr(c.Greeks.IVPct()), "%")
	pnlStr := "—"
	if q.PnLPct != nil {
		pnlStr = fmt.Sprintf("%d%%", int(math.Round(*q.PnLPct)))
	}
	distStr := "—"
	if c.Derived.DistanceOTMPct != nil {
		distStr = fmt.Sprintf("%d%%", int(math.Round(*c.Derived.DistanceOTMPct)))
	}
	spreadStr := "unknown"
	if q.SpreadWide != nil {
		if *q.SpreadWide {
			spreadStr = "wide"
		} else {
			spreadStr = "normal"
		}
	}
	oiStr := "—"
	if c.Greeks.OpenInterest != nil {
		oiStr = fmt.Sprintf("%d", *c.Greeks.OpenInterest)
	}
	earnStr := "none"
	if earningsDays != nil {
		switch d := *earningsDays; {
		case d <= 0:
			earnStr = "today"
		case d <= 7:
			earnStr = fmt.Sprintf("in %d day(s)", d)
		default:
			earnStr = fmt.Sprintf("in ~%d day(s)", d)
		}
	}
	macroStr := macroSoon
	if macroStr == "" {
		macroStr = "none"
	}

	return strings.TrimSpace(fmt.Sprintf(`
Contract: %s %s %s exp %s
DTE: %d
IV: %s
PnL%% (if any): %s
Distance OTM%%: %s
Spread: %s
Open Interest: %s
Earnings: %s
Macro (7d): %s

Write PROS / WATCH-OUTS / WHAT I'D DO for THIS contract.
- Middle-of-the-road risk tone (not aggressive, not passive).
- Condition-based only. NO exact dollar amounts.
- Use 0-2 emojis max, only if they truly help.
- Keep bullets short and specific; plan includes invalidation, spread condition, and time stop.

Return STRICT JSON ONLY:
{
  "likes": ["short bullet", "..."],
  "watchouts": ["short bullet", "..."],
  "plan": "one clear middle-risk plan with conditions + guardrails. No hard prices."
}`,
		strings.ToUpper(c.Contract.Ticker), c.Contract.Kind, fmtNum(&c.Contract.Strike), c.Contract.Expiry,
		c.Contract.DTE, ivStr, pnlStr, distStr, spreadStr, oiStr, earnStr, macroStr,
	))
}

// RoutesSystemPrompt frames the three-route decision call.
func RoutesSystemPrompt() string {
	return strings.TrimSpace(`
You are a blunt-but-supportive trading buddy. Produce THREE routes for THIS exact contract, then one pick ("If it was me").

Tone & style:
- Conversational, crisp, a little swagger. Use active voice. 0-2 emojis TOTAL across the whole output.
- Keep each route tight: label, action, 1-2 sentences of rationale, and ONE guardrail.

Rules:
- Allowed actions only: Exit/Close, Take profits/Trim, Hold with conditions, Let it ride small, Wait for pullback, Probe small at limit.
- If recommending "Trim", ALWAYS use conditional phrasing:
  - "If you have more than one contract, trim X%."
  - "If this is your only contract, either exit OR keep a tiny lotto (say which)."
- Aggressive should rarely be "Exit" unless DTE is almost zero AND there's no catalyst.
- ONE guardrail per route (tight stop, invalidation level, time stop, or "skip if spread > X%").
- Respect liquidity: if spread is wide or OI is thin, say so and prefer ranges over exact prices.

Price guidance mode (the user prompt will include one of these):
- "price-specific": include a single concrete limit or tight zone when reasonable (e.g., "$5.30" or "$5.10-$5.30").
- "generic-only": DO NOT include dollar amounts; use conditions/levels instead (e.g., "on pullback to prior support").

STRICT JSON OUTPUT:
{
  "routes": {
    "aggressive": {"label": "Aggressive Approach", "action": "...", "rationale": "...", "guardrail": "..." | null},
    "middle": {"label": "Middle of the Road", "action": "...", "rationale": "...", "guardrail": "..." | null},
    "conservative": {"label": "Conservative Approach", "action": "...", "rationale": "...", "guardrail": "..." | null}
  },
  "pick": {"route": "aggressive|middle|conservative", "reason": "short human reason (may include 1 emoji)"}
}
Output raw JSON only, no markdown, no backticks.`)
}

// RoutesUserPrompt renders the decision context for the routes call.
func RoutesUserPrompt(c ContractContext, q QuoteContext, finalScore float64, earningsDays *int, macroSoon string) string {
	guidance := "generic-only"
	if PriceGuidance {
		guidance = "price-specific"
	}

	owns := "NO (prospecting)"
	if c.OwnsPosition {
		owns = "YES"
	}

	instructions := `Provide 3 routes for ENTRY decision (user does NOT own it):
- Aggressive Entry: "Probe small at limit $X / breakout entry" + ONE guardrail
- Measured Entry: "Wait for pullback / tighter limit / require signal X"
- Conservative Route: "Skip", with rationale why skipping is wise

Then output ONE pick ("If it was me"): route + reason. Avoid 'take profit/trim' since user isn't in.`
	if c.OwnsPosition {
		instructions = `Provide 3 routes for managing an existing position:
- Aggressive Approach: e.g., "Let it ride small / add / tight stop" plus ONE guardrail
- Middle of the Road: "Hold with conditions / partial trim / roll if X"
- Conservative Approach: "Take profits / close / reduce risk"

Then output ONE pick ("If it was me"): route + reason.`
	}

	macroStr := macroSoon
	if macroStr == "" {
		macroStr = "none"
	}

	return strings.TrimSpace(fmt.Sprintf(`
We are deciding ONLY about this specific option contract (no switching tickers, no hedges).

User context:
- Owns position: %s
- Score (0-10): %.1f
- Type/Strike/Spot: %s / %s / %s
- DTE: %d
- IV%%: %s | Theta/day (per contract $): %s | Delta: %s | Gamma: %s
- Bid/Ask/Last/Mark: %s / %s / %s / %s
- Price paid: %s | PnL%%: %s
- Breakeven gap %%: %s
- Earnings in days: %s | Macro soon: %s
- OI (liquidity): %s | Spread wide: %s
- Price guidance: %s

Instructions:
%s

Output strictly JSON:
{
  "routes": {
    "aggressive": {"label": "...", "action": "...", "rationale": "...", "guardrail": "..." | null},
    "middle": {"label": "...", "action": "...", "rationale": "...", "guardrail": "..." | null},
    "conservative": {"label": "...", "action": "...", "rationale": "...", "guardrail": "..." | null}
  },
  "pick": {"route": "aggressive|middle|conservative", "reason": "string"}
}`,
		owns, finalScore,
		c.Contract.Kind, fmtNum(&c.Contract.Strike), orNA(c.Spot),
		c.Contract.DTE,
		orNA(roundPtr(c.Greeks.IVPct())), orNA(c.Greeks.Theta), orNA(c.Greeks.Delta), orNA(c.Greeks.Gamma),
		dashOr(q.Bid, ""), dashOr(q.Ask, ""), dashOr(q.Last, ""), dashOr(q.Mark, ""),
		orNA(c.Paid), orNA(q.PnLPct),
		orNA(c.Derived.BreakevenGapPct),
		orNAIntPtr(earningsDays), macroStr,
		orNAInt(c.Greeks.OpenInterest), orNABool(q.SpreadWide),
		guidance,
		instructions,
	))
}

// --- formatting helpers ---

func fmtNum(v *float64) string {
	if v == nil {
		return "N/A"
	}
	s := fmt.Sprintf("%g", *v)
	return s
}

func orNA(v *float64) string {
	if v == nil || !isFinite(*v) {
		return "N/A"
	}
	return fmt.Sprintf("%g", *v)
}

func orNAPct(v *float64) string {
	if v == nil || !isFinite(*v) {
		return "N/A"
	}
	return fmt.Sprintf("%.2f%%", *v)
}

func orNAInt(v *int64) string {
	if v == nil {
		return "N/A"
	}
	return fmt.Sprintf("%d", *v)
}

func orNAIntPtr(v *int) string {
	if v == nil {
		return "N/A"
	}
	return fmt.Sprintf("%d", *v)
}

func orNABool(v *bool) string {
	if v == nil {
		return "N/A"
	}
	return fmt.Sprintf("%t", *v)
}

func dashOr(v *float64, suffix string) string {
	if v == nil || !isFinite(*v) {
		return "—"
	}
	return fmt.Sprintf("%g%s", *v, suffix)
}

func roundPtr(v *float64) *float64 {
	if v == nil || !isFinite(*v) {
		return nil
	}
	r := math.Round(*v)
	return &r
}

func absPtr(v *float64) *float64 {
	if v == nil || !isFinite(*v) {
		return nil
	}
	a := math.Abs(*v)
	return &a
}
