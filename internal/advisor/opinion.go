package advisor

import (
	"encoding/json"
	"math"
	"regexp"
	"strings"
)

// Output caps keep a rambling model from flooding the UI.
const (
	maxHeadlineLen    = 140
	maxNarrativeLen   = 1200
	maxAdviceItems    = 6
	maxRiskItems      = 5
	maxWatchlistItems = 4
	maxStrategyNotes  = 3
)

// Opinion is the model's parsed read on a contract. Score is nil when
// the model returned something unusable; the caller falls back to the
// rule score.
type Opinion struct {
	Score         *float64 `json:"score,omitempty"`
	Headline      string   `json:"headline"`
	Narrative     string   `json:"narrative"`
	Advice        []string `json:"advice"`
	Explainers    []string `json:"explainers"`
	Risks         []string `json:"risks"`
	Watchlist     []string `json:"watchlist"`
	StrategyNotes []string `json:"strategy_notes"`
	Confidence    *float64 `json:"confidence,omitempty"`
}

type rawOpinion struct {
	Score         json.Number `json:"score"`
	Headline      string      `json:"headline"`
	Narrative     string      `json:"narrative"`
	Advice        []string    `json:"advice"`
	Explainers    []string    `json:"explainers"`
	Risks         []string    `json:"risks"`
	Watchlist     []string    `json:"watchlist"`
	StrategyNotes []string    `json:"strategy_notes"`
	Confidence    json.Number `json:"confidence"`
}

// ExtractJSON recovers a JSON object from model output that may be
// wrapped in prose or markdown fences: it slices from the first "{" to
// the last "}".
func ExtractJSON(raw string) string {
	s := strings.TrimSpace(raw)
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end < start {
		return ""
	}
	return s[start : end+1]
}

// ParseOpinion decodes and caps the model's opinion payload. It never
// fails hard: unusable output yields an empty Opinion with a nil score.
func ParseOpinion(rawTxt string) Opinion {
	var raw rawOpinion
	txt := strings.TrimSpace(rawTxt)
	if err := json.Unmarshal([]byte(txt), &raw); err != nil {
		sliced := ExtractJSON(txt)
		if sliced == "" || json.Unmarshal([]byte(sliced), &raw) != nil {
			return Opinion{}
		}
	}

	op := Opinion{
		Headline:      truncate(raw.Headline, maxHeadlineLen),
		Narrative:     truncate(SanitizeNarrative(raw.Narrative), maxNarrativeLen),
		Advice:        capList(raw.Advice, maxAdviceItems),
		Explainers:    raw.Explainers,
		Risks:         capList(raw.Risks, maxRiskItems),
		Watchlist:     capList(raw.Watchlist, maxWatchlistItems),
		StrategyNotes: capList(raw.StrategyNotes, maxStrategyNotes),
	}
	if v, err := raw.Score.Float64(); err == nil && isFinite(v) {
		op.Score = &v
	}
	if v, err := raw.Confidence.Float64(); err == nil && isFinite(v) {
		c := math.Max(0, math.Min(1, v))
		op.Confidence = &c
	}
	return op
}

// Sentences the model writes when it has nothing useful to say, plus
// bare greek definitions the local drivers already cover.
var narrativeBadPhrases = []*regexp.Regexp{
	regexp.MustCompile(`(?i)we\s+(lack|don'?t have)`),
	regexp.MustCompile(`(?i)\bunknown\b`),
	regexp.MustCompile(`(?i)not\s+provided`),
	regexp.MustCompile(`(?i)can('?|no) ?t\s+assess`),
	regexp.MustCompile(`(?i)hard\s+to\s+gauge`),
	regexp.MustCompile(`(?i)missing\s+(data|numbers|metrics)`),
	regexp.MustCompile(`(?i)\bdelta\b.*\bis\b`),
	regexp.MustCompile(`(?i)\btheta\b.*\bis\b`),
	regexp.MustCompile(`(?i)\bvega\b.*\bis\b`),
}

// SanitizeNarrative drops sentences that hedge about missing data or
// recite greek values instead of interpreting them.
func SanitizeNarrative(s string) string {
	if s == "" {
		return s
	}
	sentences := splitSentences(s)
	kept := sentences[:0]
	for _, sent := range sentences {
		bad := false
		for _, re := range narrativeBadPhrases {
			if re.MatchString(sent) {
				bad = true
				break
			}
		}
		if !bad {
			kept = append(kept, sent)
		}
	}
	return strings.TrimSpace(strings.Join(kept, " "))
}

// splitSentences breaks on sentence-ending punctuation followed by
// whitespace, keeping the punctuation with the sentence.
func splitSentences(s string) []string {
	var out []string
	start := 0
	runes := []rune(s)
	for i := 0; i < len(runes); i++ {
		switch runes[i] {
		case '.', '!', '?':
			j := i + 1
			for j < len(runes) && (runes[j] == '.' || runes[j] == '!' || runes[j] == '?') {
				j++
			}
			if j >= len(runes) || runes[j] == ' ' || runes[j] == '\n' || runes[j] == '\t' {
				out = append(out, strings.TrimSpace(string(runes[start:j])))
				for j < len(runes) && (runes[j] == ' ' || runes[j] == '\n' || runes[j] == '\t') {
					j++
				}
				start = j
				i = j - 1
			}
		}
	}
	if start < len(runes) {
		tail := strings.TrimSpace(string(runes[start:]))
		if tail != "" {
			out = append(out, tail)
		}
	}
	return out
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func capList(items []string, n int) []string {
	if len(items) > n {
		return items[:n]
	}
	return items
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// ProfitHint returns extra prompt guidance when the position is up big,
// or empty when it does not apply.
func ProfitHint(pnlPct *float64) string {
	if pnlPct == nil || *pnlPct < 50 {
		return ""
	}
	return "User is up >=50% on this contract. Emphasize paying yourself and not letting it round-trip to red. " +
		"Suggest partial take-profit (e.g., 1/3-1/2), trail stop above breakeven (breakeven + slippage), and a time stop " +
		"(e.g., 1 week before expiry or ahead of high-impact macro). Avoid adding risk."
}
