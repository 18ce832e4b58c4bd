package engine

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/Phainsworth/tradegauge-site/internal/advisor"
	"github.com/Phainsworth/tradegauge-site/pkg/models"
)

type fakeData struct {
	snapshot     *models.MarketSnapshot
	snapshotErr  error
	spot         *models.SpotQuote
	expirations  []string
	strikes      []float64
	symbols      []models.Symbol
	events       *models.EventContext
	headlines    []models.Headline
	snapshotHook func()
	searchHook   func()
}

func (f *fakeData) Spot(ctx context.Context, ticker string) (*models.SpotQuote, error) {
	if f.spot == nil {
		return nil, errors.New("no spot")
	}
	return f.spot, nil
}

func (f *fakeData) OptionSnapshot(ctx context.Context, c models.Contract) (*models.MarketSnapshot, error) {
	if f.snapshotHook != nil {
		f.snapshotHook()
	}
	if f.snapshotErr != nil {
		return nil, f.snapshotErr
	}
	snap := *f.snapshot
	return &snap, nil
}

func (f *fakeData) Expirations(ctx context.Context, ticker string) ([]string, error) {
	return f.expirations, nil
}

func (f *fakeData) StrikeUniverse(ctx context.Context, ticker, expiry string, kind models.OptionKind) ([]float64, error) {
	return f.strikes, nil
}

func (f *fakeData) Search(ctx context.Context, query string) ([]models.Symbol, error) {
	if f.searchHook != nil {
		f.searchHook()
	}
	return f.symbols, nil
}

func (f *fakeData) Events(ctx context.Context, ticker string, horizonDays int) (*models.EventContext, error) {
	if f.events == nil {
		return &models.EventContext{}, nil
	}
	return f.events, nil
}

func (f *fakeData) Headlines(ctx context.Context, ticker string, limit int) ([]models.Headline, error) {
	return f.headlines, nil
}

// fakeAdvisor answers each prompt family with canned JSON.
type fakeAdvisor struct {
	opinionJSON string
	planJSON    string
	routesJSON  string
	err         error
}

func (f *fakeAdvisor) Chat(ctx context.Context, req advisor.Request) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	system := req.Messages[0].Content
	switch {
	case strings.Contains(system, "blunt-but-supportive"):
		return f.routesJSON, nil
	case strings.Contains(system, "Middle-of-the-road risk stance"):
		return f.planJSON, nil
	default:
		return f.opinionJSON, nil
	}
}

func quietSnapshot() *models.MarketSnapshot {
	return &models.MarketSnapshot{
		Spot: models.Float(100),
		Bid:  models.Float(2.0),
		Ask:  models.Float(2.2),
		Last: models.Float(2.1),
		Greeks: models.Greeks{
			Delta:        models.Float(0.5),
			Gamma:        models.Float(0.03),
			Theta:        models.Float(-0.05),
			Vega:         models.Float(0.10),
			IV:           models.Float(0.40),
			OpenInterest: models.Int64(1000),
		},
		Source: "fake",
	}
}

func testEngine(data *fakeData, adv advisor.Provider) *Engine {
	e := New(data, adv, DefaultOptions(), zerolog.Nop())
	e.now = func() time.Time {
		return time.Date(2026, 3, 2, 15, 0, 0, 0, time.UTC)
	}
	return e
}

func quietRequest() AnalyzeRequest {
	return AnalyzeRequest{
		Ticker:    "aapl",
		Kind:      models.Call,
		Strike:    105,
		Expiry:    "2026-04-16",
		PricePaid: "2.10",
	}
}

func TestAnalyzeRuleOnly(t *testing.T) {
	data := &fakeData{snapshot: quietSnapshot(), headlines: []models.Headline{{Title: "h"}}}
	e := testEngine(data, nil)

	rep, err := e.Analyze(context.Background(), quietRequest())
	if err != nil {
		t.Fatal(err)
	}

	if rep.Contract.Ticker != "AAPL" || rep.Contract.DTE != 45 {
		t.Fatalf("contract = %+v", rep.Contract)
	}
	// baseline 2.0 only: mid DTE, mid IV, 5% distance, healthy OI
	if rep.RuleScore != 2.0 {
		t.Errorf("rule score = %v, want 2.0", rep.RuleScore)
	}
	// recenter(2.0) = 0.5, breakeven gap 7.1% gives +0.10 nudge
	if rep.Score.Score != 0.6 {
		t.Errorf("final score = %v, want 0.6", rep.Score.Score)
	}
	if rep.Score.Bucket != "Low" {
		t.Errorf("bucket = %q", rep.Score.Bucket)
	}
	if rep.Opinion != nil {
		t.Error("no advisor configured but opinion present")
	}
	if rep.Plan == nil {
		t.Error("fallback plan missing")
	}
	if rep.Routes == nil || rep.Routes.Routes.Middle.Action != "—" {
		t.Errorf("fallback routes = %+v", rep.Routes)
	}
	if rep.ProbITM == nil || *rep.ProbITM <= 0 || *rep.ProbITM >= 100 {
		t.Errorf("prob ITM = %v", rep.ProbITM)
	}
	if len(rep.Scenarios) == 0 {
		t.Error("scenarios missing despite spot")
	}
	if len(rep.Headlines) != 1 {
		t.Errorf("headlines = %v", rep.Headlines)
	}
}

func TestAnalyzeWithAdvisor(t *testing.T) {
	adv := &fakeAdvisor{
		opinionJSON: `{
			"score": 6,
			"headline": "Playable but pricey",
			"narrative": "Decent setup. Watch the clock.",
			"explainers": ["Delta is 0.5 right now", "Crowded strike so squeeze risk"],
			"confidence": 0.8
		}`,
		planJSON:   `{"likes":["l"],"watchouts":["w"],"plan":"wait for confirmation"}`,
		routesJSON: `{"routes":{"aggressive":{"label":"Aggressive Approach","action":"Exit now","rationale":"r","guardrail":null},"middle":{"label":"Middle of the Road","action":"Hold with conditions","rationale":"r","guardrail":null},"conservative":{"label":"Conservative Approach","action":"Take profits","rationale":"r","guardrail":null}},"pick":{"route":"middle","reason":"balanced"}}`,
	}
	data := &fakeData{snapshot: quietSnapshot()}
	e := testEngine(data, adv)

	rep, err := e.Analyze(context.Background(), quietRequest())
	if err != nil {
		t.Fatal(err)
	}

	// advisory 6 recenters to 3.9, nudge +0.10
	if rep.Score.Score != 4.0 {
		t.Errorf("final score = %v, want 4.0", rep.Score.Score)
	}
	if rep.Score.Bucket != "Moderate" {
		t.Errorf("bucket = %q", rep.Score.Bucket)
	}
	if rep.Opinion == nil || rep.Opinion.Headline != "Playable but pricey" {
		t.Fatalf("opinion = %+v", rep.Opinion)
	}
	// greek-recital explainer is filtered, the other survives
	if len(rep.Score.Drivers) != 1 || !strings.Contains(rep.Score.Drivers[0], "Crowded strike") {
		t.Errorf("drivers = %v", rep.Score.Drivers)
	}
	if rep.Plan == nil || rep.Plan.Plan != "wait for confirmation" {
		t.Errorf("plan = %+v", rep.Plan)
	}
	// aggressive "Exit now" at 45 DTE with a live bid gets rewritten
	if rep.Routes == nil || rep.Routes.Routes.Aggressive.Action != "Let it ride small" {
		t.Errorf("routes = %+v", rep.Routes)
	}
}

func TestAnalyzeAdvisorDown(t *testing.T) {
	adv := &fakeAdvisor{err: errors.New("model offline")}
	data := &fakeData{snapshot: quietSnapshot()}
	e := testEngine(data, adv)

	rep, err := e.Analyze(context.Background(), quietRequest())
	if err != nil {
		t.Fatal(err)
	}
	// falls back to the rule score path
	if rep.Score.Score != 0.6 {
		t.Errorf("final score = %v, want 0.6", rep.Score.Score)
	}
	if rep.Plan == nil {
		t.Error("fallback plan missing")
	}
	if rep.Routes == nil || rep.Routes.Routes.Middle.Action != "—" {
		t.Errorf("fallback routes = %+v", rep.Routes)
	}
}

func TestAnalyzeSnapshotError(t *testing.T) {
	data := &fakeData{snapshotErr: errors.New("provider down")}
	e := testEngine(data, nil)
	if _, err := e.Analyze(context.Background(), quietRequest()); err == nil {
		t.Fatal("expected error when the snapshot fails")
	}
}

func TestAnalyzeAutoPicksExpiry(t *testing.T) {
	data := &fakeData{
		snapshot:    quietSnapshot(),
		expirations: []string{"2026-02-20", "2026-03-20", "2026-04-17"},
	}
	e := testEngine(data, nil)

	req := quietRequest()
	req.Expiry = ""
	rep, err := e.Analyze(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if rep.Contract.Expiry != "2026-03-20" {
		t.Errorf("auto-picked expiry = %q, want nearest future 2026-03-20", rep.Contract.Expiry)
	}
}

func TestAnalyzeValidation(t *testing.T) {
	e := testEngine(&fakeData{snapshot: quietSnapshot()}, nil)
	for _, req := range []AnalyzeRequest{
		{Kind: models.Call, Strike: 100, Expiry: "2026-04-16"},
		{Ticker: "AAPL", Kind: models.Call, Strike: 0, Expiry: "2026-04-16"},
	} {
		if _, err := e.Analyze(context.Background(), req); err == nil {
			t.Errorf("expected validation error for %+v", req)
		}
	}
}

func TestStrikeView(t *testing.T) {
	universe := []float64{90, 95, 100, 105, 110, 115, 120, 125, 130, 135, 140, 145, 150}
	data := &fakeData{strikes: universe}
	e := testEngine(data, nil)
	e.opts.Strikes.EachSide = 2

	got, err := e.StrikeView(context.Background(), "AAPL", "2026-04-16", models.Call, models.Float(120), nil)
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{110, 115, 120, 125, 130}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestSearchRanks(t *testing.T) {
	data := &fakeData{symbols: []models.Symbol{
		{Ticker: "AAPLW", Name: "Apple warrants"},
		{Ticker: "AAPL", Name: "Apple Inc"},
	}}
	e := testEngine(data, nil)
	got, err := e.Search(context.Background(), "AAPL")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) == 0 || got[0].Ticker != "AAPL" {
		t.Errorf("exact match should rank first: %v", got)
	}
}

func TestAnalyzeUpdatesSession(t *testing.T) {
	data := &fakeData{snapshot: quietSnapshot()}
	e := testEngine(data, nil)

	if e.Session() != nil {
		t.Fatal("session should be empty before the first review")
	}
	if _, err := e.ShareToken(); err == nil {
		t.Fatal("share token should fail before the first review")
	}

	rep, err := e.Analyze(context.Background(), quietRequest())
	if err != nil {
		t.Fatal(err)
	}

	s := e.Session()
	if s == nil || s.Report != rep {
		t.Fatalf("session = %+v", s)
	}
	token, err := e.ShareToken()
	if err != nil {
		t.Fatal(err)
	}
	state, err := DecodeTradeState(token)
	if err != nil {
		t.Fatal(err)
	}
	if state.Ticker != "AAPL" || state.Strike != 105 || state.PricePaid != "2.10" {
		t.Errorf("share state = %+v", state)
	}
}

func TestAnalyzeLatestWinsSession(t *testing.T) {
	data := &fakeData{snapshot: quietSnapshot()}
	e := testEngine(data, nil)

	started := make(chan struct{})
	release := make(chan struct{})
	var calls int32
	data.snapshotHook = func() {
		if atomic.AddInt32(&calls, 1) == 1 {
			close(started)
			<-release // first review stalls until the newer one lands
		}
	}

	staleDone := make(chan struct{})
	go func() {
		defer close(staleDone)
		req := quietRequest()
		req.Strike = 100
		_, _ = e.Analyze(context.Background(), req)
	}()
	<-started

	req := quietRequest()
	req.Strike = 110
	if _, err := e.Analyze(context.Background(), req); err != nil {
		t.Fatal(err)
	}
	close(release)
	<-staleDone

	s := e.Session()
	if s == nil || s.Report.Contract.Strike != 110 {
		t.Fatalf("stale review overwrote the session: %+v", s)
	}
}

func TestSearchSuperseded(t *testing.T) {
	data := &fakeData{symbols: []models.Symbol{{Ticker: "AAPL", Name: "Apple Inc"}}}
	e := testEngine(data, nil)

	var nested bool
	data.searchHook = func() {
		if nested {
			return
		}
		nested = true
		if _, err := e.Search(context.Background(), "MSFT"); err != nil {
			t.Errorf("newer search failed: %v", err)
		}
	}

	if _, err := e.Search(context.Background(), "AAPL"); !errors.Is(err, ErrSuperseded) {
		t.Fatalf("stale search error = %v, want ErrSuperseded", err)
	}
}

func TestTradeStateRoundTrip(t *testing.T) {
	s := models.TradeState{
		Ticker:    "AAPL",
		Kind:      models.Call,
		Strike:    105,
		Expiry:    "2026-04-16",
		PricePaid: "2.10",
		Owns:      true,
	}
	token, err := EncodeTradeState(s)
	if err != nil {
		t.Fatal(err)
	}
	got, err := DecodeTradeState(token)
	if err != nil {
		t.Fatal(err)
	}
	if *got != s {
		t.Errorf("round trip: got %+v, want %+v", *got, s)
	}
}

func TestDecodeTradeStateInvalid(t *testing.T) {
	for _, token := range []string{"", "!!!", "bm90IGpzb24="} {
		if _, err := DecodeTradeState(token); err == nil {
			t.Errorf("expected error for %q", token)
		}
	}
	// structurally valid JSON but incomplete trade
	token, _ := EncodeTradeState(models.TradeState{Ticker: "AAPL", Strike: 1, Expiry: "2026-01-01"})
	s, err := DecodeTradeState(token)
	if err != nil || s.Ticker != "AAPL" {
		t.Errorf("minimal valid state rejected: %v %v", s, err)
	}
}
