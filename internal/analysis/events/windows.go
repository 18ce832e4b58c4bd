// Package events turns the raw calendar (earnings, macro prints) into the
// inputs the scorer consumes: danger windows over the next two weeks and
// proximity flags for upcoming events.
package events

import (
	"sort"
	"strings"
	"time"

	"github.com/Phainsworth/tradegauge-site/pkg/models"
	"github.com/Phainsworth/tradegauge-site/pkg/utils"
)

// DefaultHorizonDays bounds the danger-window view.
const DefaultHorizonDays = 14

// OffsetWindow returns the pre/post day spread around an event during
// which a contract is exposed to it. Markets front-run inflation prints
// and digest FOMC decisions for days.
func OffsetWindow(title string) (pre, post int) {
	k := strings.ToLower(title)
	switch {
	case strings.Contains(k, "cpi"):
		return -1, 1
	case strings.Contains(k, "ppi"):
		return -1, 1
	case strings.Contains(k, "retail"):
		return -1, 0
	case strings.Contains(k, "fomc"):
		return -2, 2
	case strings.Contains(k, "powell"):
		return 0, 0
	case strings.Contains(k, "jobs"):
		return 0, 0
	case strings.Contains(k, "earnings"):
		return -2, 1
	default:
		return 0, 0
	}
}

// DangerWindows maps dated events to merged, horizon-clipped windows of
// day offsets from today. Windows that touch or overlap collapse into one;
// the result is sorted by start.
func DangerWindows(evs []models.MacroEvent, horizonDays int, now time.Time) []models.DangerWindow {
	if horizonDays <= 0 {
		horizonDays = DefaultHorizonDays
	}

	var raw []models.DangerWindow
	for _, ev := range evs {
		if ev.Date == "" {
			continue
		}
		d, err := utils.DaysUntil(ev.Date, now)
		if err != nil {
			continue
		}
		pre, post := OffsetWindow(ev.Title)
		w := models.DangerWindow{Start: d + pre, End: d + post}
		if w.Start < 0 {
			w.Start = 0
		}
		if w.End > horizonDays {
			w.End = horizonDays
		}
		if w.Start > w.End {
			continue
		}
		raw = append(raw, w)
	}
	if len(raw) == 0 {
		return nil
	}

	sort.Slice(raw, func(i, j int) bool { return raw[i].Start < raw[j].Start })

	merged := []models.DangerWindow{raw[0]}
	for _, w := range raw[1:] {
		last := &merged[len(merged)-1]
		if w.Start > last.End+1 {
			merged = append(merged, w)
			continue
		}
		if w.End > last.End {
			last.End = w.End
		}
	}
	return merged
}
