package events

import (
	"fmt"
	"time"

	"github.com/Phainsworth/tradegauge-site/pkg/models"
	"github.com/Phainsworth/tradegauge-site/pkg/utils"
)

// Proximity summarizes how close the calendar is pressing on a contract.
type Proximity struct {
	// EarningsText reads "today (After Close)", "in 3 day(s)",
	// "in ~12 day(s)" or "none".
	EarningsText  string
	EarningsDays  *int
	EarningsToday bool
	// EarningsSoon covers the full 30-day text horizon, so the scorer's
	// earnings-soon bump applies well beyond the 7-day "in N day(s)" form.
	EarningsSoon bool

	// MacroSoon lists events landing in the next 7 days,
	// e.g. "CPI on 2025-06-12 08:30".
	MacroSoon []string
}

// Classify reduces an event context to the proximity flags the scorer and
// prompts consume.
func Classify(ctx models.EventContext, now time.Time) Proximity {
	p := Proximity{EarningsText: "none"}

	if e := ctx.Earnings; e != nil && e.Date != "" {
		if days, err := utils.DaysUntil(e.Date, now); err == nil {
			p.EarningsDays = &days
			switch {
			case days <= 0:
				p.EarningsToday = true
				p.EarningsSoon = true
				p.EarningsText = withWhen("today", e.When)
			case days <= 7:
				p.EarningsSoon = true
				p.EarningsText = withWhen(fmt.Sprintf("in %d day(s)", days), e.When)
			case days <= 30:
				p.EarningsSoon = true
				p.EarningsText = fmt.Sprintf("in ~%d day(s)", days)
			}
		}
	}

	for _, ev := range ctx.Macro {
		if ev.Date == "" {
			continue
		}
		days, err := utils.DaysUntil(ev.Date, now)
		if err != nil || days < 0 || days > 7 {
			continue
		}
		s := fmt.Sprintf("%s on %s", ev.Title, ev.Date)
		if ev.Time != "" {
			s += " " + ev.Time
		}
		p.MacroSoon = append(p.MacroSoon, s)
	}

	return p
}

func withWhen(base, when string) string {
	if when == "" {
		return base
	}
	return base + " (" + when + ")"
}

// EarningsWindowEvent converts an earnings date into a macro-style event so
// danger windows can account for it alongside the economic calendar.
func EarningsWindowEvent(e *models.EarningsEvent) *models.MacroEvent {
	if e == nil || e.Date == "" {
		return nil
	}
	return &models.MacroEvent{Title: "Earnings", Date: e.Date, Risk: "HIGH"}
}
