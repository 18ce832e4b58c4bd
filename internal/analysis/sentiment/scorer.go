package sentiment

import (
	"math"
	"strings"
	"time"

	"github.com/Phainsworth/tradegauge-site/pkg/models"
)

// ------------------------------------------------------------------
// Keyword-based headline tone scorer (offline, no LLM needed).
// The advisory layer reads the full context; this gives every
// headline a deterministic tag regardless of provider availability.
// ------------------------------------------------------------------

// bullish / bearish keyword dictionaries (lowercase).
var bullishWords = map[string]float64{
	"bullish": 0.7, "rally": 0.6, "surge": 0.7, "soar": 0.7,
	"upbeat": 0.5, "upgrade": 0.6, "outperform": 0.6, "buy": 0.5,
	"strong": 0.4, "breakout": 0.6, "record high": 0.7,
	"all-time high": 0.7, "beat": 0.5, "beats estimate": 0.6,
	"tops estimate": 0.6, "raises guidance": 0.7, "growth": 0.4,
	"profit": 0.3, "dividend": 0.4, "buyback": 0.5, "recovery": 0.5,
}

var bearishWords = map[string]float64{
	"bearish": 0.7, "crash": 0.8, "plunge": 0.7, "slump": 0.6,
	"tumble": 0.6, "downgrade": 0.6, "underperform": 0.6, "sell": 0.5,
	"weak": 0.4, "decline": 0.5, "loss": 0.4, "selloff": 0.7,
	"sell-off": 0.7, "correction": 0.5, "lawsuit": 0.5, "probe": 0.5,
	"investigation": 0.5, "fraud": 0.8, "recall": 0.6, "miss": 0.5,
	"misses estimate": 0.6, "cuts guidance": 0.7, "warning": 0.5,
	"concern": 0.3, "layoff": 0.5, "bankruptcy": 0.9,
}

// ScoreHeadline returns a tone score for a single headline.
// Score ranges from -1.0 (very bearish) to +1.0 (very bullish).
func ScoreHeadline(headline string) (score float64, confidence float64) {
	lower := strings.ToLower(headline)

	bullScore := 0.0
	bearScore := 0.0
	matches := 0

	for word, weight := range bullishWords {
		if strings.Contains(lower, word) {
			bullScore += weight
			matches++
		}
	}

	for word, weight := range bearishWords {
		if strings.Contains(lower, word) {
			bearScore += weight
			matches++
		}
	}

	if matches == 0 {
		return 0, 0.1 // no signal
	}

	total := bullScore + bearScore
	if total == 0 {
		return 0, 0.1
	}

	// Net score normalized to -1..+1.
	score = (bullScore - bearScore) / total

	// Confidence based on number of keyword matches.
	confidence = math.Min(float64(matches)*0.15+0.2, 0.85)

	return score, confidence
}

// ToneLabel buckets a score into a display label.
func ToneLabel(score float64) string {
	switch {
	case score > 0.3:
		return "Bullish"
	case score > 0.1:
		return "Slightly Bullish"
	case score < -0.3:
		return "Bearish"
	case score < -0.1:
		return "Slightly Bearish"
	default:
		return "Neutral"
	}
}

// Tag fills the Tone field on each headline in place and returns the slice.
func Tag(headlines []models.Headline) []models.Headline {
	for i := range headlines {
		score, _ := ScoreHeadline(headlines[i].Title)
		headlines[i].Tone = ToneLabel(score)
	}
	return headlines
}

// Pulse computes a time-weighted aggregate tone across headlines.
// Fresh headlines count more; weight halves every 24 hours. Returns
// nil when there is nothing to aggregate.
func Pulse(headlines []models.Headline, now time.Time) *models.NewsPulse {
	if len(headlines) == 0 {
		return nil
	}

	weightedSum := 0.0
	totalWeight := 0.0

	for _, h := range headlines {
		score, conf := ScoreHeadline(h.Title)

		timeWeight := 1.0
		if ts, err := time.Parse(time.RFC3339, h.Published); err == nil {
			age := now.Sub(ts).Hours()
			if age < 0 {
				age = 0
			}
			timeWeight = math.Exp(-0.693 * age / 24) // half-life 24h
		}

		w := timeWeight * conf
		weightedSum += score * w
		totalWeight += w
	}

	avg := 0.0
	if totalWeight > 0 {
		avg = weightedSum / totalWeight
	}

	return &models.NewsPulse{
		Score: avg,
		Label: ToneLabel(avg),
		Count: len(headlines),
	}
}
