package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"time"

	"github.com/Phainsworth/tradegauge-site/pkg/models"
)

// FredBaseURL is the St. Louis Fed FRED API root.
const FredBaseURL = "https://api.stlouisfed.org"

// Horizon clamps for the macro calendar query.
const (
	DefaultMacroHorizonDays = 14
	minMacroHorizonDays     = 1
	maxMacroHorizonDays     = 120
)

// majorRelease maps a FRED release name pattern to the short label and
// risk tier shown to users.
type majorRelease struct {
	pattern *regexp.Regexp
	title   string
	risk    string
}

// The releases that actually move option premiums. Everything else in
// FRED's thousand-release catalog is noise for this purpose.
var majorReleases = []majorRelease{
	{regexp.MustCompile(`(?i)Consumer Price Index`), "CPI", "HIGH"},
	{regexp.MustCompile(`(?i)Personal Income and Outlays`), "PCE", "MED"},
	{regexp.MustCompile(`(?i)Employment Situation`), "Jobs Report", "HIGH"},
	{regexp.MustCompile(`(?i)Gross Domestic Product`), "GDP", "HIGH"},
	{regexp.MustCompile(`(?i)Producer Price Index`), "PPI", "MED"},
	{regexp.MustCompile(`(?i)Advance Monthly Sales for Retail and Food Services`), "Retail Sales", "MED"},
	{regexp.MustCompile(`(?i)Unemployment Insurance Weekly Claims`), "Jobless Claims", "LOW"},
	{regexp.MustCompile(`(?i)FOMC`), "FOMC", "HIGH"},
	{regexp.MustCompile(`(?i)ISM`), "ISM", "MED"},
}

// FredSource serves the scheduled macro release calendar. FRED publishes
// future release dates, which is exactly what the danger windows need.
// https://fred.stlouisfed.org/docs/api/fred/
type FredSource struct {
	apiKey  string
	baseURL string
	cache   *Cache
}

// NewFredSource creates a FRED source. The release schedule changes at
// most daily, so results cache for an hour.
func NewFredSource(apiKey string) *FredSource {
	return &FredSource{
		apiKey:  apiKey,
		baseURL: FredBaseURL,
		cache:   NewCache(time.Hour),
	}
}

func (f *FredSource) Name() string { return "FRED" }

type fredReleasesResp struct {
	Releases []struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	} `json:"releases"`
}

type fredReleaseDatesResp struct {
	ReleaseDates []struct {
		Date string `json:"date"`
	} `json:"release_dates"`
}

// GetMacroEvents returns major scheduled releases inside the horizon,
// deduplicated on title+date and sorted by date. The horizon clamps to
// 1..120 days.
func (f *FredSource) GetMacroEvents(ctx context.Context, horizonDays int) ([]models.MacroEvent, error) {
	if horizonDays < minMacroHorizonDays {
		horizonDays = DefaultMacroHorizonDays
	}
	if horizonDays > maxMacroHorizonDays {
		horizonDays = maxMacroHorizonDays
	}

	key := fmt.Sprintf("macro:%d", horizonDays)
	if v, ok := f.cache.Get(key); ok {
		return v.([]models.MacroEvent), nil
	}

	picked, err := f.pickMajorReleases(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	start := now.Format("2006-01-02")
	end := now.AddDate(0, 0, horizonDays).Format("2006-01-02")

	var all []models.MacroEvent
	for _, p := range picked {
		dates, err := f.releaseDates(ctx, p.id)
		if err != nil {
			// one noisy release never sinks the calendar
			continue
		}
		for _, d := range dates {
			if d >= start && d <= end {
				all = append(all, models.MacroEvent{Title: p.title, Date: d, Risk: p.risk})
			}
		}
	}

	sort.Slice(all, func(i, j int) bool {
		if all[i].Date != all[j].Date {
			return all[i].Date < all[j].Date
		}
		return all[i].Title < all[j].Title
	})

	seen := make(map[string]bool)
	var out []models.MacroEvent
	for _, e := range all {
		k := e.Title + "|" + e.Date
		if !seen[k] {
			seen[k] = true
			out = append(out, e)
		}
	}

	f.cache.Set(key, out)
	return out, nil
}

type pickedRelease struct {
	id    int
	title string
	risk  string
}

func (f *FredSource) pickMajorReleases(ctx context.Context) ([]pickedRelease, error) {
	if v, ok := f.cache.Get("releases"); ok {
		return v.([]pickedRelease), nil
	}

	u := fmt.Sprintf("%s/fred/releases?api_key=%s&file_type=json&limit=1000", f.baseURL, url.QueryEscape(f.apiKey))
	body, _, err := doGet(ctx, u, nil)
	if err != nil {
		return nil, fmt.Errorf("fred releases: %w", err)
	}
	defer body.Close()

	var resp fredReleasesResp
	if err := json.NewDecoder(body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("fred releases: decode: %w", err)
	}

	var picked []pickedRelease
	for _, r := range resp.Releases {
		for _, m := range majorReleases {
			if m.pattern.MatchString(r.Name) {
				picked = append(picked, pickedRelease{id: r.ID, title: m.title, risk: m.risk})
				break
			}
		}
	}
	f.cache.SetWithTTL("releases", picked, 24*time.Hour)
	return picked, nil
}

func (f *FredSource) releaseDates(ctx context.Context, releaseID int) ([]string, error) {
	u := fmt.Sprintf("%s/fred/release/dates?api_key=%s&file_type=json&release_id=%d&include_release_dates_with_no_data=true&sort_order=desc&limit=200",
		f.baseURL, url.QueryEscape(f.apiKey), releaseID)
	body, _, err := doGet(ctx, u, nil)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	var resp fredReleaseDatesResp
	if err := json.NewDecoder(body).Decode(&resp); err != nil {
		return nil, err
	}
	out := make([]string, 0, len(resp.ReleaseDates))
	for _, rd := range resp.ReleaseDates {
		if rd.Date != "" {
			out = append(out, rd.Date)
		}
	}
	return out, nil
}

// GetEarnings: FRED has no per-ticker data.
func (f *FredSource) GetEarnings(ctx context.Context, ticker string) (*models.EarningsEvent, error) {
	return nil, ErrNotSupported
}
