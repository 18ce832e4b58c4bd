package advisor

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNewClientRequiresKey(t *testing.T) {
	if _, err := NewClient(""); err != ErrNoAPIKey {
		t.Fatalf("expected ErrNoAPIKey, got %v", err)
	}
}

func TestClientChat(t *testing.T) {
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("unexpected auth header %q", auth)
		}
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": `{"score": 5}`}},
			},
		})
	}))
	defer server.Close()

	c, err := NewClient("test-key", WithBaseURL(server.URL))
	if err != nil {
		t.Fatal(err)
	}
	out, err := c.Chat(context.Background(), Request{
		Temperature: 0.4,
		MaxTokens:   900,
		Messages:    []Message{{Role: "user", Content: "hi"}},
		StrictJSON:  true,
	})
	if err != nil {
		t.Fatal(err)
	}
	if out != `{"score": 5}` {
		t.Errorf("content = %q", out)
	}
	if gotBody["model"] != DefaultModel {
		t.Errorf("model = %v, want %s", gotBody["model"], DefaultModel)
	}
	rf, ok := gotBody["response_format"].(map[string]any)
	if !ok || rf["type"] != "json_object" {
		t.Errorf("response_format = %v", gotBody["response_format"])
	}
}

func TestChatJSONRetriesWithoutStrict(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		if _, strict := body["response_format"]; strict {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]any{
				"error": map[string]any{"message": "response_format not supported"},
			})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": "{}"}},
			},
		})
	}))
	defer server.Close()

	c, _ := NewClient("k", WithBaseURL(server.URL))
	out, err := ChatJSON(context.Background(), c, Request{Messages: []Message{{Role: "user", Content: "x"}}})
	if err != nil {
		t.Fatal(err)
	}
	if out != "{}" {
		t.Errorf("content = %q", out)
	}
	if calls != 2 {
		t.Errorf("expected strict then plain call, got %d calls", calls)
	}
}

func TestChatRateLimitedNoRetry(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "slow down"},
		})
	}))
	defer server.Close()

	c, _ := NewClient("k", WithBaseURL(server.URL))
	_, err := ChatJSON(context.Background(), c, Request{Messages: []Message{{Role: "user", Content: "x"}}})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("rate limit should not retry, got %d calls", calls)
	}
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{`{"a":1}`, `{"a":1}`},
		{"Here you go:\n```json\n{\"a\":1}\n```", `{"a":1}`},
		{"no json here", ""},
		{`prefix {"a":{"b":2}} suffix`, `{"a":{"b":2}}`},
	}
	for _, tt := range tests {
		if got := ExtractJSON(tt.in); got != tt.want {
			t.Errorf("ExtractJSON(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseOpinion(t *testing.T) {
	raw := `{
		"score": 6.5,
		"headline": "Spicy but playable",
		"narrative": "IV is rich. Delta is 0.45 here. Theta drag picks up next week.",
		"advice": ["a","b","c","d","e","f","g"],
		"risks": ["r1","r2","r3","r4","r5","r6"],
		"watchlist": ["w1","w2","w3","w4","w5"],
		"strategy_notes": ["s1","s2","s3","s4"],
		"confidence": 1.4
	}`
	op := ParseOpinion(raw)
	if op.Score == nil || *op.Score != 6.5 {
		t.Fatalf("score = %v", op.Score)
	}
	if len(op.Advice) != 6 || len(op.Risks) != 5 || len(op.Watchlist) != 4 || len(op.StrategyNotes) != 3 {
		t.Errorf("caps not applied: %d %d %d %d", len(op.Advice), len(op.Risks), len(op.Watchlist), len(op.StrategyNotes))
	}
	if op.Confidence == nil || *op.Confidence != 1 {
		t.Errorf("confidence = %v, want clamp to 1", op.Confidence)
	}
	// the greek-recital sentence should be dropped
	if strings.Contains(op.Narrative, "Delta is") {
		t.Errorf("narrative kept greek recital: %q", op.Narrative)
	}
	if !strings.Contains(op.Narrative, "IV is rich.") {
		t.Errorf("narrative lost a good sentence: %q", op.Narrative)
	}
}

func TestParseOpinionBraceSlice(t *testing.T) {
	raw := "Sure! Here's the analysis:\n{\"score\": 4, \"headline\": \"ok\"}\nHope that helps."
	op := ParseOpinion(raw)
	if op.Score == nil || *op.Score != 4 {
		t.Fatalf("brace-slice rescue failed: %+v", op)
	}
}

func TestParseOpinionGarbage(t *testing.T) {
	op := ParseOpinion("total nonsense")
	if op.Score != nil {
		t.Error("garbage input should yield nil score")
	}
}

func TestSanitizeNarrative(t *testing.T) {
	in := "This one has juice. We lack the open interest data. Unknown catalysts ahead! Keep size small."
	got := SanitizeNarrative(in)
	if strings.Contains(got, "lack") || strings.Contains(got, "Unknown") {
		t.Errorf("hedge sentences kept: %q", got)
	}
	if !strings.Contains(got, "This one has juice.") || !strings.Contains(got, "Keep size small.") {
		t.Errorf("good sentences lost: %q", got)
	}
}

func TestProfitHint(t *testing.T) {
	if ProfitHint(nil) != "" {
		t.Error("nil pnl should give no hint")
	}
	low := 30.0
	if ProfitHint(&low) != "" {
		t.Error("30% should give no hint")
	}
	high := 65.0
	if ProfitHint(&high) == "" {
		t.Error("65% should give a hint")
	}
}

func TestParsePlan(t *testing.T) {
	raw := `{"likes":["l1"],"watchouts":["w1","w2"],"plan":"wait for a pullback"}`
	p := ParsePlan(raw)
	if p == nil {
		t.Fatal("valid plan rejected")
	}
	if len(p.Likes) != 1 || len(p.Watchouts) != 2 || p.Plan != "wait for a pullback" {
		t.Errorf("plan = %+v", p)
	}
}

func TestParsePlanInvalid(t *testing.T) {
	for _, raw := range []string{
		`{"likes":["l"],"watchouts":["w"]}`,
		`{"plan":"only a plan"}`,
		"not json",
	} {
		if ParsePlan(raw) != nil {
			t.Errorf("invalid plan accepted: %q", raw)
		}
	}
}

func TestFallbackPlan(t *testing.T) {
	iv := 35.0
	wide := true
	p := FallbackPlan(5, &iv, &wide)
	if len(p.Likes) != 3 {
		t.Errorf("likes = %v", p.Likes)
	}
	found := false
	for _, w := range p.Watchouts {
		if strings.Contains(w, "Spread is wide") {
			found = true
		}
	}
	if !found {
		t.Error("wide spread watchout missing")
	}
	if p.Plan == "" {
		t.Error("empty fallback plan")
	}
}

func sampleRoutes() *Routes {
	g := "tight stop"
	return &Routes{
		Routes: RouteSet{
			Aggressive:   Route{Label: "Aggressive Approach", Action: "Let it ride small", Rationale: "r", Guardrail: &g},
			Middle:       Route{Label: "Middle of the Road", Action: "Hold with conditions", Rationale: "r"},
			Conservative: Route{Label: "Conservative Approach", Action: "Take profits", Rationale: "r"},
		},
		Pick: Pick{Route: RouteMiddle, Reason: "balanced"},
	}
}

func TestParseRoutes(t *testing.T) {
	data, _ := json.Marshal(sampleRoutes())
	r := ParseRoutes(string(data))
	if r == nil {
		t.Fatal("valid routes rejected")
	}
	if r.Pick.Route != RouteMiddle {
		t.Errorf("pick = %q", r.Pick.Route)
	}
}

func TestParseRoutesInvalidPick(t *testing.T) {
	rt := sampleRoutes()
	rt.Pick.Route = "yolo"
	data, _ := json.Marshal(rt)
	if ParseRoutes(string(data)) != nil {
		t.Error("bad pick route accepted")
	}
}

func TestNormalizeRoutesAggressiveExit(t *testing.T) {
	rt := sampleRoutes()
	rt.Routes.Aggressive.Action = "Exit the position now"
	rt.Routes.Aggressive.Guardrail = nil

	bid := 1.50
	got := NormalizeRoutes(rt, 30, &bid)
	if got.Routes.Aggressive.Action != "Let it ride small" {
		t.Errorf("aggressive exit not rewritten: %q", got.Routes.Aggressive.Action)
	}
	if got.Routes.Aggressive.Guardrail == nil {
		t.Error("guardrail not added")
	}

	// expiring today: exit is allowed to stand
	rt2 := sampleRoutes()
	rt2.Routes.Aggressive.Action = "Exit the position now"
	got2 := NormalizeRoutes(rt2, 1, &bid)
	if got2.Routes.Aggressive.Action != "Exit the position now" {
		t.Errorf("imminent expiry exit rewritten: %q", got2.Routes.Aggressive.Action)
	}

	// dead bid: exit stands too
	rt3 := sampleRoutes()
	rt3.Routes.Aggressive.Action = "Close it"
	zero := 0.0
	got3 := NormalizeRoutes(rt3, 30, &zero)
	if got3.Routes.Aggressive.Action != "Close it" {
		t.Errorf("dead-bid exit rewritten: %q", got3.Routes.Aggressive.Action)
	}
}

func TestNormalizeRoutesTrim(t *testing.T) {
	rt := sampleRoutes()
	rt.Routes.Middle.Action = "Trim half here."
	got := NormalizeRoutes(rt, 30, nil)
	action := got.Routes.Middle.Action
	if !strings.HasPrefix(action, "If you have more than one contract, ") {
		t.Errorf("trim not conditionalized: %q", action)
	}
	if got.Routes.Middle.Guardrail == nil {
		t.Error("trim guardrail not added")
	}
}

func TestFallbackRoutes(t *testing.T) {
	r := FallbackRoutes("model unavailable")
	if r.Pick.Route != RouteMiddle {
		t.Errorf("fallback pick = %q", r.Pick.Route)
	}
	if r.Routes.Aggressive.Rationale != "model unavailable" {
		t.Errorf("rationale = %q", r.Routes.Aggressive.Rationale)
	}
}
