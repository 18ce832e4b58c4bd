package models

// EarningsEvent is the next scheduled earnings report for a ticker.
type EarningsEvent struct {
	Date      string `json:"date"` // YYYY-MM-DD
	When      string `json:"when,omitempty"` // "Before Open", "After Close", "During Market"
	Confirmed bool   `json:"confirmed"`
}

// MacroEvent is a scheduled market-wide event (CPI print, FOMC decision, ...).
type MacroEvent struct {
	Title string `json:"title"`
	Date  string `json:"date"` // YYYY-MM-DD
	Time  string `json:"time,omitempty"` // HH:MM ET when known
	Risk  string `json:"risk,omitempty"` // HIGH, MED, LOW
}

// EventContext bundles everything the scorer needs to know about the calendar.
type EventContext struct {
	Earnings *EarningsEvent `json:"earnings,omitempty"`
	Macro    []MacroEvent   `json:"macro,omitempty"`
}

// DangerWindow is an inclusive range of day offsets from today during which
// a scheduled event elevates contract risk. Start and End may both be 0
// for same-day events.
type DangerWindow struct {
	Start int    `json:"start"`
	End   int    `json:"end"`
	Label string `json:"label,omitempty"`
}

// Headline is a single news item for a ticker. Tone is filled by the
// keyword scorer after fetch.
type Headline struct {
	Title     string `json:"title"`
	URL       string `json:"url,omitempty"`
	Published string `json:"published,omitempty"`
	Tone      string `json:"tone,omitempty"` // Bullish, Bearish, Neutral
}

// NewsPulse is the aggregate tone across a ticker's recent headlines.
type NewsPulse struct {
	Score float64 `json:"score"` // -1 (bearish) to +1 (bullish)
	Label string  `json:"label"`
	Count int     `json:"count"`
}
