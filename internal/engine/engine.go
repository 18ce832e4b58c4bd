// Package engine orchestrates a full contract review: quote and calendar
// fetch, derived metrics, rule scoring, the advisory calls and the final
// blended report.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/Phainsworth/tradegauge-site/internal/advisor"
	"github.com/Phainsworth/tradegauge-site/internal/analysis/contract"
	"github.com/Phainsworth/tradegauge-site/internal/analysis/events"
	"github.com/Phainsworth/tradegauge-site/internal/analysis/scoring"
	"github.com/Phainsworth/tradegauge-site/internal/analysis/sentiment"
	"github.com/Phainsworth/tradegauge-site/internal/analysis/strikes"
	"github.com/Phainsworth/tradegauge-site/internal/live"
	"github.com/Phainsworth/tradegauge-site/pkg/models"
	"github.com/Phainsworth/tradegauge-site/pkg/utils"
)

// ErrSuperseded reports that a newer lookup started before this one could
// deliver its result.
var ErrSuperseded = errors.New("superseded by a newer request")

// MarketData is the data surface the engine depends on. The datasource
// aggregator satisfies it; tests use fakes.
type MarketData interface {
	Spot(ctx context.Context, ticker string) (*models.SpotQuote, error)
	OptionSnapshot(ctx context.Context, c models.Contract) (*models.MarketSnapshot, error)
	Expirations(ctx context.Context, ticker string) ([]string, error)
	StrikeUniverse(ctx context.Context, ticker, expiry string, kind models.OptionKind) ([]float64, error)
	Search(ctx context.Context, query string) ([]models.Symbol, error)
	Events(ctx context.Context, ticker string, horizonDays int) (*models.EventContext, error)
	Headlines(ctx context.Context, ticker string, limit int) ([]models.Headline, error)
}

// Options tunes the scoring and fetch behavior.
type Options struct {
	Weights          scoring.RuleWeights
	Calibration      scoring.Calibration
	MaxDrivers       int
	EventHorizonDays int
	HeadlineLimit    int
	ScenarioStepPct  float64
	ScenarioRangePct float64
	Strikes          strikes.Options
	PriceNorm        utils.PriceNorm
}

// DefaultOptions returns the stock tuning.
func DefaultOptions() Options {
	return Options{
		Weights:          scoring.DefaultRuleWeights(),
		Calibration:      scoring.DefaultCalibration,
		MaxDrivers:       scoring.MaxDrivers,
		EventHorizonDays: events.DefaultHorizonDays,
		HeadlineLimit:    8,
		ScenarioStepPct:  2,
		ScenarioRangePct: 20,
		Strikes:          strikes.DefaultOptions(),
		PriceNorm:        utils.DefaultPriceNorm,
	}
}

// Engine runs contract reviews. Overlapping calls race latest-wins: a
// new Analyze or Search cancels the in-flight one, and only the newest
// may write the session.
type Engine struct {
	data    MarketData
	advisor advisor.Provider
	opts    Options
	log     zerolog.Logger
	now     func() time.Time

	analyzeSeq live.Sequencer
	searchSeq  live.Sequencer

	mu      sync.Mutex
	session *Session
}

// New creates an engine. advisorProvider may be nil; reviews then carry
// the rule score alone with deterministic fallbacks for plan and routes.
func New(data MarketData, advisorProvider advisor.Provider, opts Options, log zerolog.Logger) *Engine {
	return &Engine{
		data:    data,
		advisor: advisorProvider,
		opts:    opts,
		log:     log,
		now:     time.Now,
	}
}

// AnalyzeRequest identifies the contract under review. PricePaid is the
// raw user input and goes through price normalization. SpotOverride
// wins over any fetched spot.
type AnalyzeRequest struct {
	Ticker       string            `json:"ticker"`
	Kind         models.OptionKind `json:"kind"`
	Strike       float64           `json:"strike"`
	Expiry       string            `json:"expiry,omitempty"`
	PricePaid    string            `json:"price_paid,omitempty"`
	SpotOverride *float64          `json:"spot_override,omitempty"`
	OwnsPosition bool              `json:"owns,omitempty"`
}

// Report is the complete output of one review.
type Report struct {
	Contract models.Contract        `json:"contract"`
	Snapshot *models.MarketSnapshot `json:"snapshot"`
	Paid     *float64               `json:"paid,omitempty"`
	PnLPct   *float64               `json:"pnl_pct,omitempty"`
	Derived  models.DerivedMetrics  `json:"derived"`
	ProbITM  *int                   `json:"prob_itm,omitempty"`

	RuleScore float64            `json:"rule_score"`
	Score     models.ScoreResult `json:"score"`

	Opinion *advisor.Opinion `json:"opinion,omitempty"`
	Plan    *advisor.Plan    `json:"plan,omitempty"`
	Routes  *advisor.Routes  `json:"routes,omitempty"`

	Scenarios     []models.ExpiryScenario `json:"scenarios,omitempty"`
	Events        *models.EventContext    `json:"events,omitempty"`
	DangerWindows []models.DangerWindow   `json:"danger_windows,omitempty"`
	Headlines     []models.Headline       `json:"headlines,omitempty"`
	NewsPulse     *models.NewsPulse       `json:"news_pulse,omitempty"`

	GeneratedAt time.Time `json:"generated_at"`
}

// Analyze runs the full review pipeline for one contract. Starting a new
// analysis cancels any in-flight one; a superseded analysis still returns
// its report to its caller but never becomes the session.
func (e *Engine) Analyze(ctx context.Context, req AnalyzeRequest) (*Report, error) {
	ctx, id := e.analyzeSeq.Begin(ctx)
	report, err := e.analyze(ctx, req)
	if err != nil {
		return nil, err
	}
	e.analyzeSeq.Apply(id, func() {
		e.mu.Lock()
		e.session = &Session{Request: req, Report: report, CompletedAt: report.GeneratedAt}
		e.mu.Unlock()
	})
	return report, nil
}

func (e *Engine) analyze(ctx context.Context, req AnalyzeRequest) (*Report, error) {
	c, err := e.resolveContract(ctx, req)
	if err != nil {
		return nil, err
	}
	now := e.now()

	var (
		snap      *models.MarketSnapshot
		evctx     *models.EventContext
		headlines []models.Headline
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s, err := e.data.OptionSnapshot(gctx, c)
		if err != nil {
			return fmt.Errorf("snapshot %s: %w", c.Ticker, err)
		}
		snap = s
		return nil
	})
	g.Go(func() error {
		ev, err := e.data.Events(gctx, c.Ticker, e.opts.EventHorizonDays)
		if err != nil {
			e.log.Warn().Err(err).Str("ticker", c.Ticker).Msg("event fetch failed")
			return nil
		}
		evctx = ev
		return nil
	})
	g.Go(func() error {
		hs, err := e.data.Headlines(gctx, c.Ticker, e.opts.HeadlineLimit)
		if err != nil {
			e.log.Debug().Err(err).Str("ticker", c.Ticker).Msg("headline fetch failed")
			return nil
		}
		headlines = sentiment.Tag(hs)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if req.SpotOverride != nil {
		snap.Spot = req.SpotOverride
	} else if snap.Spot == nil {
		if q, err := e.data.Spot(ctx, c.Ticker); err == nil && q != nil {
			snap.Spot = q.Price
		}
	}
	snap.DeriveMark()

	paid := utils.NormalizePaidWith(req.PricePaid, snap.Mark, e.opts.PriceNorm)
	derived := contract.BuildDerived(c, snap, paid)

	if evctx == nil {
		evctx = &models.EventContext{}
	}
	prox := events.Classify(*evctx, now)

	var probITM *int
	if snap.Spot != nil {
		probITM = contract.ProbITM(*snap.Spot, c.Strike, c.Kind, snap.Greeks.IVPct(), c.DTE)
	}

	in := scoring.Inputs{
		DTE:             c.DTE,
		IVPct:           snap.Greeks.IVPct(),
		DistanceOTMPct:  derived.DistanceOTMPct,
		Delta:           snap.Greeks.Delta,
		Theta:           snap.Greeks.Theta,
		Vega:            snap.Greeks.Vega,
		OpenInterest:    snap.Greeks.OpenInterest,
		BreakevenGapPct: derived.BreakevenGapPct,
		EarningsText:    prox.EarningsText,
		EarningsToday:   prox.EarningsToday,
		EarningsSoon:    prox.EarningsSoon,
		MacroSoon:       prox.MacroSoon,
	}
	rule := scoring.RuleScore(in, e.opts.Weights)
	nudge := scoring.Nudge(in)
	pnl := scoring.PnLPct(paid, snap.Mark)
	cushion := scoring.Cushion(pnl, c.DTE)

	report := &Report{
		Contract:    c,
		Snapshot:    snap,
		Paid:        paid,
		PnLPct:      pnl,
		Derived:     derived,
		ProbITM:     probITM,
		RuleScore:   rule,
		Events:      evctx,
		Headlines:   headlines,
		NewsPulse:   sentiment.Pulse(headlines, now),
		GeneratedAt: now,
	}

	adv := e.consult(ctx, c, snap, derived, paid, pnl, evctx, prox, req.OwnsPosition, rule, nudge, cushion)
	report.Opinion = adv.opinion
	report.Plan = adv.plan
	report.Routes = adv.routes

	final := scoring.Blend(adv.score, rule, nudge, cushion, e.opts.Calibration)
	local := scoring.BuildDrivers(in, e.opts.MaxDrivers)
	var external []string
	if adv.opinion != nil {
		external = adv.opinion.Explainers
	}
	report.Score = models.ScoreResult{
		Score:   final,
		Bucket:  models.RiskBucket(final),
		Drivers: scoring.CombineDrivers(local, external, e.opts.MaxDrivers),
	}

	if snap.Spot != nil && *snap.Spot > 0 {
		report.Scenarios = contract.BuildExpiryScenarios(*snap.Spot, c, paid, e.opts.ScenarioStepPct, e.opts.ScenarioRangePct)
	}

	windowEvents := append([]models.MacroEvent{}, evctx.Macro...)
	if ev := events.EarningsWindowEvent(evctx.Earnings); ev != nil {
		windowEvents = append(windowEvents, *ev)
	}
	report.DangerWindows = events.DangerWindows(windowEvents, e.opts.EventHorizonDays, now)

	e.log.Info().
		Str("ticker", c.Ticker).
		Str("kind", string(c.Kind)).
		Float64("strike", c.Strike).
		Str("expiry", c.Expiry).
		Float64("score", report.Score.Score).
		Str("bucket", report.Score.Bucket).
		Msg("contract analyzed")

	return report, nil
}

// resolveContract normalizes the request and fills DTE. An empty expiry
// auto-picks the nearest listed one.
func (e *Engine) resolveContract(ctx context.Context, req AnalyzeRequest) (models.Contract, error) {
	c := models.Contract{
		Ticker: strings.ToUpper(strings.TrimSpace(req.Ticker)),
		Kind:   req.Kind,
		Strike: req.Strike,
	}
	if c.Ticker == "" {
		return c, fmt.Errorf("ticker required")
	}
	if c.Strike <= 0 {
		return c, fmt.Errorf("strike must be positive")
	}

	c.Expiry = utils.NormalizeExpiry(req.Expiry)
	if c.Expiry == "" {
		exps, err := e.data.Expirations(ctx, c.Ticker)
		if err != nil || len(exps) == 0 {
			return c, fmt.Errorf("expiry required and none could be listed for %s", c.Ticker)
		}
		c.Expiry = utils.NearestExpiry(exps, e.now())
	}
	c.DTE = utils.DaysToExpiry(c.Expiry, e.now())
	return c, nil
}

// StrikeView returns a display window of strikes around the spot for a
// ticker, expiry and side. current, when set, is always included.
func (e *Engine) StrikeView(ctx context.Context, ticker, expiry string, kind models.OptionKind, spot, current *float64) ([]float64, error) {
	universe, err := e.data.StrikeUniverse(ctx, strings.ToUpper(strings.TrimSpace(ticker)), utils.NormalizeExpiry(expiry), kind)
	if err != nil {
		return nil, err
	}
	if spot == nil {
		if q, err := e.data.Spot(ctx, ticker); err == nil && q != nil && q.Price != nil && *q.Price > 0 {
			spot = q.Price
		}
	}
	return strikes.Select(universe, spot, current, e.opts.Strikes), nil
}

// Expirations lists the expiry dates for a ticker.
func (e *Engine) Expirations(ctx context.Context, ticker string) ([]string, error) {
	return e.data.Expirations(ctx, strings.ToUpper(strings.TrimSpace(ticker)))
}

// Search resolves a partial ticker or name and ranks the matches.
// Overlapping searches race latest-wins: a newer query cancels this one,
// and a result that arrives late is refused with ErrSuperseded rather
// than shown against the wrong query.
func (e *Engine) Search(ctx context.Context, query string) ([]models.Symbol, error) {
	ctx, id := e.searchSeq.Begin(ctx)
	list, err := e.data.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	if !e.searchSeq.Current(id) {
		return nil, ErrSuperseded
	}
	return utils.RankSymbols(list, query), nil
}

// EventOutlook returns the calendar context plus danger windows for a
// ticker without running a full analysis.
func (e *Engine) EventOutlook(ctx context.Context, ticker string) (*models.EventContext, []models.DangerWindow, error) {
	evctx, err := e.data.Events(ctx, strings.ToUpper(strings.TrimSpace(ticker)), e.opts.EventHorizonDays)
	if err != nil {
		return nil, nil, err
	}
	windowEvents := append([]models.MacroEvent{}, evctx.Macro...)
	if ev := events.EarningsWindowEvent(evctx.Earnings); ev != nil {
		windowEvents = append(windowEvents, *ev)
	}
	return evctx, events.DangerWindows(windowEvents, e.opts.EventHorizonDays, e.now()), nil
}

// Spot returns the underlying quote.
func (e *Engine) Spot(ctx context.Context, ticker string) (*models.SpotQuote, error) {
	return e.data.Spot(ctx, strings.ToUpper(strings.TrimSpace(ticker)))
}
