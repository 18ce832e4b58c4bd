package engine

import (
	"context"
	"sync"

	"github.com/Phainsworth/tradegauge-site/internal/advisor"
	"github.com/Phainsworth/tradegauge-site/internal/analysis/events"
	"github.com/Phainsworth/tradegauge-site/internal/analysis/scoring"
	"github.com/Phainsworth/tradegauge-site/pkg/models"
)

// advisoryResult bundles the three model outputs. score is nil whenever
// the opinion call failed or returned garbage; the blend then uses the
// rule score as its base.
type advisoryResult struct {
	score   *float64
	opinion *advisor.Opinion
	plan    *advisor.Plan
	routes  *advisor.Routes
}

// consult runs the opinion call first (its score and explainers feed
// everything downstream), then the plan and routes calls in parallel.
// Every failure degrades to a deterministic fallback; consult never
// sinks the review.
func (e *Engine) consult(
	ctx context.Context,
	c models.Contract,
	snap *models.MarketSnapshot,
	derived models.DerivedMetrics,
	paid, pnl *float64,
	evctx *models.EventContext,
	prox events.Proximity,
	owns bool,
	rule, nudge, cushion float64,
) advisoryResult {
	spreadWide := snap.SpreadWide()
	if e.advisor == nil {
		return advisoryResult{
			plan:   advisor.FallbackPlan(c.DTE, snap.Greeks.IVPct(), spreadWide),
			routes: advisor.FallbackRoutes("Advisory model not configured."),
		}
	}

	cc := advisor.ContractContext{
		Contract:     c,
		Spot:         snap.Spot,
		Paid:         paid,
		Greeks:       snap.Greeks,
		Derived:      derived,
		Earnings:     evctx.Earnings,
		MacroEvents:  evctx.Macro,
		EarningsText: prox.EarningsText,
		MacroSoon:    prox.MacroSoon,
		OwnsPosition: owns,
	}
	qc := advisor.QuoteContext{
		Bid:        snap.Bid,
		Ask:        snap.Ask,
		Last:       snap.Last,
		Mark:       snap.Mark,
		PnLPct:     pnl,
		SpreadWide: spreadWide,
	}

	out := advisoryResult{}

	var hints []string
	if h := advisor.ProfitHint(pnl); h != "" {
		hints = append(hints, h)
	}
	rawOpinion, err := advisor.ChatJSON(ctx, e.advisor, advisor.Request{
		Temperature: advisor.OpinionTemperature,
		MaxTokens:   advisor.OpinionMaxTokens,
		Messages: []advisor.Message{
			{Role: "system", Content: advisor.OpinionSystemPrompt()},
			{Role: "user", Content: advisor.OpinionUserPrompt(cc, hints)},
		},
	})
	if err != nil {
		e.log.Warn().Err(err).Msg("opinion call failed")
	} else {
		op := advisor.ParseOpinion(rawOpinion)
		out.opinion = &op
		out.score = op.Score
	}

	// preliminary blend so the routes prompt shows the score the user
	// will actually see
	finalScore := scoring.Blend(out.score, rule, nudge, cushion, e.opts.Calibration)

	macroSoonTitle := ""
	if len(prox.MacroSoon) > 0 {
		macroSoonTitle = prox.MacroSoon[0]
	}

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		raw, err := advisor.ChatJSON(ctx, e.advisor, advisor.Request{
			Temperature: advisor.PlanTemperature,
			Messages: []advisor.Message{
				{Role: "system", Content: advisor.PlanSystemPrompt()},
				{Role: "user", Content: advisor.PlanUserPrompt(cc, qc, prox.EarningsDays, macroSoonTitle)},
			},
		})
		if err == nil {
			out.plan = advisor.ParsePlan(raw)
		}
		if out.plan == nil {
			out.plan = advisor.FallbackPlan(c.DTE, snap.Greeks.IVPct(), spreadWide)
		}
	}()

	go func() {
		defer wg.Done()
		raw, err := advisor.ChatJSON(ctx, e.advisor, advisor.Request{
			Temperature: advisor.RoutesTemperature,
			Messages: []advisor.Message{
				{Role: "system", Content: advisor.RoutesSystemPrompt()},
				{Role: "user", Content: advisor.RoutesUserPrompt(cc, qc, finalScore, prox.EarningsDays, macroSoonTitle)},
			},
		})
		if err != nil {
			out.routes = advisor.FallbackRoutes("Model unavailable.")
			return
		}
		if r := advisor.ParseRoutes(raw); r != nil {
			out.routes = advisor.NormalizeRoutes(r, c.DTE, snap.Bid)
		} else {
			out.routes = advisor.FallbackRoutes("Could not parse model output.")
		}
	}()

	wg.Wait()
	return out
}
