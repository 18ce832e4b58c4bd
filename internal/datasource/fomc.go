package datasource

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/Phainsworth/tradegauge-site/pkg/models"
)

// FOMCCalendarURL is the Federal Reserve's public meeting calendar page.
const FOMCCalendarURL = "https://www.federalreserve.gov/monetarypolicy/fomccalendars.htm"

// Meeting ranges render like "September 16-17, 2025" or with an en dash.
var fomcRangeRe = regexp.MustCompile(`(January|February|March|April|May|June|July|August|September|October|November|December)\s+(\d{1,2})\s*(?:\x{2013}|-)\s*(\d{1,2}),\s*(\d{4})`)

var monthNumbers = map[string]time.Month{
	"January": time.January, "February": time.February, "March": time.March,
	"April": time.April, "May": time.May, "June": time.June,
	"July": time.July, "August": time.August, "September": time.September,
	"October": time.October, "November": time.November, "December": time.December,
}

// FOMCSource scrapes the Fed's meeting calendar for the next rate
// decision. FRED carries FOMC release dates too, but the Fed's own page
// has the full forward schedule and the press conference timing.
type FOMCSource struct {
	baseURL string
	cache   *Cache
}

func NewFOMCSource() *FOMCSource {
	return &FOMCSource{
		baseURL: FOMCCalendarURL,
		cache:   NewCache(6 * time.Hour),
	}
}

func (f *FOMCSource) Name() string { return "FOMC" }

// GetMacroEvents returns the decision-day events for the next FOMC
// meeting, filtered to the horizon. The decision lands on the second
// day of each two-day meeting: statement and target range at 14:00 ET,
// press conference at 14:30, and economic projections in the quarterly
// months.
func (f *FOMCSource) GetMacroEvents(ctx context.Context, horizonDays int) ([]models.MacroEvent, error) {
	meetings, err := f.meetingDates(ctx)
	if err != nil {
		return nil, err
	}
	if len(meetings) == 0 {
		return nil, nil
	}

	today := time.Now().UTC().Truncate(24 * time.Hour)
	decision := meetings[len(meetings)-1]
	for _, m := range meetings {
		if !m.Before(today) {
			decision = m
			break
		}
	}

	if horizonDays < minMacroHorizonDays {
		horizonDays = DefaultMacroHorizonDays
	}
	end := today.AddDate(0, 0, horizonDays)
	if decision.Before(today) || decision.After(end) {
		return nil, nil
	}

	date := decision.Format("2006-01-02")
	events := []models.MacroEvent{
		{Title: "FOMC Statement", Date: date, Time: "14:00", Risk: "HIGH"},
		{Title: "Federal Funds Rate (Target Range)", Date: date, Time: "14:00", Risk: "HIGH"},
	}
	switch decision.Month() {
	case time.March, time.June, time.September, time.December:
		events = append(events, models.MacroEvent{Title: "FOMC Economic Projections", Date: date, Time: "14:00", Risk: "HIGH"})
	}
	events = append(events, models.MacroEvent{Title: "FOMC Press Conference", Date: date, Time: "14:30", Risk: "HIGH"})
	return events, nil
}

// meetingDates scrapes every two-day meeting range on the calendar page
// and returns the decision dates sorted ascending.
func (f *FOMCSource) meetingDates(ctx context.Context) ([]time.Time, error) {
	if v, ok := f.cache.Get("meetings"); ok {
		return v.([]time.Time), nil
	}

	body, _, err := doGet(ctx, f.baseURL, nil)
	if err != nil {
		return nil, fmt.Errorf("fomc calendar: %w", err)
	}
	defer body.Close()

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, fmt.Errorf("fomc calendar: parse: %w", err)
	}

	matches := fomcRangeRe.FindAllStringSubmatch(doc.Text(), -1)
	var meetings []time.Time
	seen := make(map[string]bool)
	for _, m := range matches {
		month, ok := monthNumbers[m[1]]
		if !ok {
			continue
		}
		day, err1 := strconv.Atoi(m[3]) // decision is the later day
		year, err2 := strconv.Atoi(m[4])
		if err1 != nil || err2 != nil {
			continue
		}
		d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
		k := d.Format("2006-01-02")
		if !seen[k] {
			seen[k] = true
			meetings = append(meetings, d)
		}
	}
	sort.Slice(meetings, func(i, j int) bool { return meetings[i].Before(meetings[j]) })

	f.cache.Set("meetings", meetings)
	return meetings, nil
}

func (f *FOMCSource) GetEarnings(ctx context.Context, ticker string) (*models.EarningsEvent, error) {
	return nil, ErrNotSupported
}
