// Package report renders a contract review as shareable Markdown or
// plain text, with SVG charts for the risk gauge and expiry payoff.
package report

import (
	"fmt"
	"strings"

	"github.com/Phainsworth/tradegauge-site/internal/advisor"
	"github.com/Phainsworth/tradegauge-site/internal/engine"
)

// Format specifies the output format.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatText     Format = "text"
)

// Render produces a shareable summary of a review.
func Render(r *engine.Report, format Format) string {
	switch format {
	case FormatText:
		return renderText(r)
	default:
		return renderMarkdown(r)
	}
}

func renderMarkdown(r *engine.Report) string {
	var sb strings.Builder
	c := r.Contract

	fmt.Fprintf(&sb, "# %s %s $%.2f — %s (%dd)\n\n", c.Ticker, c.Kind, c.Strike, c.Expiry, c.DTE)
	fmt.Fprintf(&sb, "**Risk Score: %.1f / 10 (%s)**\n\n", r.Score.Score, r.Score.Bucket)

	sb.WriteString("## Metrics\n\n")
	sb.WriteString("| Metric | Value |\n|---|---|\n")
	if r.Snapshot != nil && r.Snapshot.Spot != nil {
		fmt.Fprintf(&sb, "| Spot | $%.2f |\n", *r.Snapshot.Spot)
	}
	if r.Snapshot != nil && r.Snapshot.Mark != nil {
		fmt.Fprintf(&sb, "| Mark | $%.2f |\n", *r.Snapshot.Mark)
	}
	if r.Paid != nil {
		fmt.Fprintf(&sb, "| Paid | $%.2f |\n", *r.Paid)
	}
	if r.PnLPct != nil {
		fmt.Fprintf(&sb, "| Open P/L | %+.1f%% |\n", *r.PnLPct)
	}
	if r.Derived.Breakeven != nil {
		fmt.Fprintf(&sb, "| Breakeven | $%.2f |\n", *r.Derived.Breakeven)
	}
	if r.Derived.BreakevenGapPct != nil {
		fmt.Fprintf(&sb, "| Breakeven Gap | %+.1f%% |\n", *r.Derived.BreakevenGapPct)
	}
	if r.Derived.DistanceOTMPct != nil {
		fmt.Fprintf(&sb, "| Distance OTM | %+.1f%% |\n", *r.Derived.DistanceOTMPct)
	}
	if r.ProbITM != nil {
		fmt.Fprintf(&sb, "| Prob ITM | %d%% |\n", *r.ProbITM)
	}
	if r.Derived.ThetaPerDay != nil {
		fmt.Fprintf(&sb, "| Theta/day | $%.2f |\n", *r.Derived.ThetaPerDay)
	}
	sb.WriteString("\n")

	if len(r.Score.Drivers) > 0 {
		sb.WriteString("## Drivers\n\n")
		for _, d := range r.Score.Drivers {
			fmt.Fprintf(&sb, "- %s\n", d)
		}
		sb.WriteString("\n")
	}

	if r.Opinion != nil && r.Opinion.Headline != "" {
		sb.WriteString("## Advisory\n\n")
		fmt.Fprintf(&sb, "**%s**\n\n", r.Opinion.Headline)
		if r.Opinion.Narrative != "" {
			fmt.Fprintf(&sb, "%s\n\n", r.Opinion.Narrative)
		}
		for _, a := range r.Opinion.Advice {
			fmt.Fprintf(&sb, "- %s\n", a)
		}
		sb.WriteString("\n")
	}

	if r.Plan != nil && r.Plan.Plan != "" {
		sb.WriteString("## Plan\n\n")
		for _, l := range r.Plan.Likes {
			fmt.Fprintf(&sb, "- 👍 %s\n", l)
		}
		for _, w := range r.Plan.Watchouts {
			fmt.Fprintf(&sb, "- ⚠️ %s\n", w)
		}
		fmt.Fprintf(&sb, "\n%s\n\n", r.Plan.Plan)
	}

	if r.Routes != nil {
		sb.WriteString("## Routes\n\n")
		writeRouteMD(&sb, "Aggressive", r.Routes.Routes.Aggressive)
		writeRouteMD(&sb, "Middle", r.Routes.Routes.Middle)
		writeRouteMD(&sb, "Conservative", r.Routes.Routes.Conservative)
		fmt.Fprintf(&sb, "\n**Pick:** %s — %s\n\n", r.Routes.Pick.Route, r.Routes.Pick.Reason)
	}

	if len(r.Scenarios) > 0 {
		sb.WriteString("## At Expiry\n\n")
		sb.WriteString("| Move | Underlying | Value | P/L |\n|---|---|---|---|\n")
		for _, s := range r.Scenarios {
			pnl := "—"
			if s.PnL != nil {
				pnl = fmt.Sprintf("%+.0f", *s.PnL)
			}
			fmt.Fprintf(&sb, "| %+.0f%% | $%.2f | $%.0f | %s |\n", s.MovePct, s.Underlying, s.Value, pnl)
		}
		sb.WriteString("\n")
	}

	if len(r.DangerWindows) > 0 {
		sb.WriteString("## Danger Windows\n\n")
		for _, w := range r.DangerWindows {
			fmt.Fprintf(&sb, "- day %+d to %+d: %s\n", w.Start, w.End, w.Label)
		}
		sb.WriteString("\n")
	}

	if len(r.Headlines) > 0 {
		sb.WriteString("## Headlines\n\n")
		if r.NewsPulse != nil {
			fmt.Fprintf(&sb, "Overall tone: %s (%d headlines)\n\n", r.NewsPulse.Label, r.NewsPulse.Count)
		}
		for _, h := range r.Headlines {
			tone := ""
			if h.Tone != "" && h.Tone != "Neutral" {
				tone = fmt.Sprintf(" *(%s)*", h.Tone)
			}
			if h.URL != "" {
				fmt.Fprintf(&sb, "- [%s](%s)%s\n", h.Title, h.URL, tone)
			} else {
				fmt.Fprintf(&sb, "- %s%s\n", h.Title, tone)
			}
		}
		sb.WriteString("\n")
	}

	fmt.Fprintf(&sb, "_Generated %s_\n", r.GeneratedAt.UTC().Format("2006-01-02 15:04 UTC"))
	return sb.String()
}

func writeRouteMD(sb *strings.Builder, name string, rt advisor.Route) {
	fmt.Fprintf(sb, "- **%s:** %s", name, rt.Action)
	if rt.Rationale != "" {
		fmt.Fprintf(sb, " — %s", rt.Rationale)
	}
	if rt.Guardrail != nil && *rt.Guardrail != "" {
		fmt.Fprintf(sb, " _(guardrail: %s)_", *rt.Guardrail)
	}
	sb.WriteString("\n")
}

func renderText(r *engine.Report) string {
	var sb strings.Builder
	c := r.Contract

	fmt.Fprintf(&sb, "%s %s $%.2f exp %s (%dd)\n", c.Ticker, c.Kind, c.Strike, c.Expiry, c.DTE)
	fmt.Fprintf(&sb, "Risk Score: %.1f / 10 (%s)\n", r.Score.Score, r.Score.Bucket)
	if r.ProbITM != nil {
		fmt.Fprintf(&sb, "Prob ITM: %d%%\n", *r.ProbITM)
	}
	if r.Derived.Breakeven != nil {
		fmt.Fprintf(&sb, "Breakeven: $%.2f\n", *r.Derived.Breakeven)
	}
	if r.PnLPct != nil {
		fmt.Fprintf(&sb, "Open P/L: %+.1f%%\n", *r.PnLPct)
	}

	if len(r.Score.Drivers) > 0 {
		sb.WriteString("Drivers:\n")
		for _, d := range r.Score.Drivers {
			fmt.Fprintf(&sb, "  - %s\n", d)
		}
	}
	if r.Opinion != nil && r.Opinion.Headline != "" {
		fmt.Fprintf(&sb, "Advisory: %s\n", r.Opinion.Headline)
	}
	if r.Plan != nil && r.Plan.Plan != "" {
		fmt.Fprintf(&sb, "Plan: %s\n", r.Plan.Plan)
	}
	return sb.String()
}
