package datasource

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/Phainsworth/tradegauge-site/pkg/models"
)

func TestOCCSymbol(t *testing.T) {
	tests := []struct {
		c    models.Contract
		want string
	}{
		{models.Contract{Ticker: "AAPL", Kind: models.Call, Strike: 110, Expiry: "2025-07-18"}, "AAPL250718C00110000"},
		{models.Contract{Ticker: "spy", Kind: models.Put, Strike: 447.5, Expiry: "2026-01-16"}, "SPY260116P00447500"},
		{models.Contract{Ticker: "TSLA", Kind: models.Call, Strike: 1000, Expiry: "2025-12-19"}, "TSLA251219C01000000"},
	}
	for _, tt := range tests {
		got, err := OCCSymbol(tt.c)
		if err != nil {
			t.Fatalf("OCCSymbol(%v): %v", tt.c, err)
		}
		if got != tt.want {
			t.Errorf("OCCSymbol(%v) = %q, want %q", tt.c, got, tt.want)
		}
	}
}

func TestOCCSymbolBadExpiry(t *testing.T) {
	_, err := OCCSymbol(models.Contract{Ticker: "AAPL", Expiry: "18 Jul 2025"})
	if err == nil {
		t.Fatal("expected error for unparsable expiry")
	}
}

func TestMergeSnapshotFillsMissing(t *testing.T) {
	dst := &models.MarketSnapshot{
		Bid:    models.Float(1.20),
		Ask:    models.Float(1.30),
		Source: "tradier",
	}
	src := &models.MarketSnapshot{
		Bid:    models.Float(9.99),
		Spot:   models.Float(110.5),
		Source: "polygon",
		Greeks: models.Greeks{
			Delta: models.Float(0.42),
			IV:    models.Float(0.55),
		},
	}

	got := MergeSnapshot(dst, src)
	if got != dst {
		t.Fatal("merge should return dst when both are set")
	}
	if *got.Bid != 1.20 {
		t.Errorf("bid overwritten: got %v", *got.Bid)
	}
	if got.Spot == nil || *got.Spot != 110.5 {
		t.Errorf("spot not filled from src: %v", got.Spot)
	}
	if got.Greeks.Delta == nil || *got.Greeks.Delta != 0.42 {
		t.Errorf("delta not filled: %v", got.Greeks.Delta)
	}
	if got.Source != "tradier+polygon" {
		t.Errorf("source = %q, want tradier+polygon", got.Source)
	}
}

func TestMergeSnapshotNil(t *testing.T) {
	src := &models.MarketSnapshot{Source: "polygon"}
	if got := MergeSnapshot(nil, src); got != src {
		t.Error("nil dst should return src")
	}
	if got := MergeSnapshot(src, nil); got != src {
		t.Error("nil src should return dst")
	}
	if got := MergeSnapshot(nil, nil); got != nil {
		t.Error("both nil should return nil")
	}
}

func TestSameTicker(t *testing.T) {
	tests := []struct {
		sym, tkr string
		want     bool
	}{
		{"AAPL", "AAPL", true},
		{"aapl", "AAPL", true},
		{"AAPL.US", "AAPL", true},
		{"US:AAPL", "AAPL", true},
		{"BRK.A", "AAPL", false},
		{"MSFT", "AAPL", false},
		{"AAPL-USD", "AAPL", true},
	}
	for _, tt := range tests {
		if got := sameTicker(tt.sym, tt.tkr); got != tt.want {
			t.Errorf("sameTicker(%q, %q) = %v, want %v", tt.sym, tt.tkr, got, tt.want)
		}
	}
}

func TestSessionLabel(t *testing.T) {
	tests := []struct {
		hour, want string
	}{
		{"bmo", "Before Open"},
		{"am", "Before Open"},
		{"pre-market", "Before Open"},
		{"amc", "After Close"},
		{"pm", "After Close"},
		{"post-market", "After Close"},
		{"dmh", "During Market"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := sessionLabel(tt.hour); got != tt.want {
			t.Errorf("sessionLabel(%q) = %q, want %q", tt.hour, got, tt.want)
		}
	}
}

func TestUnwrapTradierQuoteObject(t *testing.T) {
	raw := json.RawMessage(`{"bid": 1.2, "ask": 1.3, "last": 1.25}`)
	q, err := unwrapTradierQuote(raw)
	if err != nil {
		t.Fatalf("unwrap object: %v", err)
	}
	if q.Bid == nil || *q.Bid != 1.2 {
		t.Errorf("bid = %v, want 1.2", q.Bid)
	}
}

func TestUnwrapTradierQuoteArray(t *testing.T) {
	raw := json.RawMessage(`[{"last": 2.5}, {"last": 9.9}]`)
	q, err := unwrapTradierQuote(raw)
	if err != nil {
		t.Fatalf("unwrap array: %v", err)
	}
	if q.Last == nil || *q.Last != 2.5 {
		t.Errorf("last = %v, want first element 2.5", q.Last)
	}
}

func TestUnwrapTradierQuoteEmpty(t *testing.T) {
	for _, raw := range []json.RawMessage{nil, json.RawMessage("null"), json.RawMessage("[]")} {
		if _, err := unwrapTradierQuote(raw); err == nil {
			t.Errorf("expected error for %q", string(raw))
		}
	}
}

func TestMajorReleaseMatching(t *testing.T) {
	tests := []struct {
		name  string
		title string
		risk  string
	}{
		{"Consumer Price Index", "CPI", "HIGH"},
		{"Personal Income and Outlays", "PCE", "MED"},
		{"Employment Situation", "Jobs Report", "HIGH"},
		{"Gross Domestic Product", "GDP", "HIGH"},
		{"Producer Price Index", "PPI", "MED"},
		{"Advance Monthly Sales for Retail and Food Services", "Retail Sales", "MED"},
		{"Unemployment Insurance Weekly Claims", "Jobless Claims", "LOW"},
		{"FOMC Press Release", "FOMC", "HIGH"},
		{"ISM Report on Business", "ISM", "MED"},
	}
	for _, tt := range tests {
		var matched *majorRelease
		for i := range majorReleases {
			if majorReleases[i].pattern.MatchString(tt.name) {
				matched = &majorReleases[i]
				break
			}
		}
		if matched == nil {
			t.Errorf("%q did not match any major release", tt.name)
			continue
		}
		if matched.title != tt.title || matched.risk != tt.risk {
			t.Errorf("%q matched %s/%s, want %s/%s", tt.name, matched.title, matched.risk, tt.title, tt.risk)
		}
	}

	if majorReleases[0].pattern.MatchString("Housing Starts") {
		t.Error("Housing Starts should not match CPI")
	}
}

func TestFomcRangeRegex(t *testing.T) {
	text := `Meeting of September 16-17, 2025 and another on January 27–28, 2026.`
	matches := fomcRangeRe.FindAllStringSubmatch(text, -1)
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(matches))
	}
	if matches[0][1] != "September" || matches[0][3] != "17" || matches[0][4] != "2025" {
		t.Errorf("first match parsed as %v", matches[0][1:])
	}
	// en dash variant
	if matches[1][1] != "January" || matches[1][3] != "28" || matches[1][4] != "2026" {
		t.Errorf("second match parsed as %v", matches[1][1:])
	}
}

func TestUniqueMacro(t *testing.T) {
	events := []models.MacroEvent{
		{Title: "CPI", Date: "2026-09-10", Risk: "HIGH"},
		{Title: "FOMC Statement", Date: "2026-09-16", Risk: "HIGH"},
		{Title: "CPI", Date: "2026-09-10", Risk: "HIGH"},
		{Title: "PPI", Date: "2026-09-09", Risk: "MED"},
	}
	got := uniqueMacro(events)
	if len(got) != 3 {
		t.Fatalf("expected 3 unique events, got %d", len(got))
	}
	if got[0].Title != "PPI" || got[1].Title != "CPI" || got[2].Title != "FOMC Statement" {
		t.Errorf("wrong order: %v", got)
	}
}

func TestErrHTTPRateLimited(t *testing.T) {
	err := &ErrHTTP{StatusCode: http.StatusTooManyRequests, Status: "429 Too Many Requests"}
	if !errors.Is(err, ErrRateLimited) {
		t.Error("429 should match ErrRateLimited")
	}
	err = &ErrHTTP{StatusCode: http.StatusNotFound, Status: "404 Not Found"}
	if errors.Is(err, ErrRateLimited) {
		t.Error("404 should not match ErrRateLimited")
	}
}

func TestAggregatorProviderStatus(t *testing.T) {
	a := NewAggregator(Config{FinnhubAPIKey: "k"})
	st := a.ProviderStatus()
	if !st["finnhub"] {
		t.Error("finnhub should be configured")
	}
	if st["polygon"] || st["tradier"] || st["fred"] {
		t.Error("unconfigured providers reported as available")
	}
	if !st["fomc"] || !st["news"] {
		t.Error("credential-free sources should always be available")
	}
}
