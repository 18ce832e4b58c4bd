package datasource

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/Phainsworth/tradegauge-site/pkg/models"
)

// YahooFinanceRSSURL is the per-ticker headline feed template.
const YahooFinanceRSSURL = "https://feeds.finance.yahoo.com/rss/2.0/headline"

// DefaultHeadlineLimit caps how many headlines feed into a contract review.
const DefaultHeadlineLimit = 8

// NewsSource pulls recent ticker headlines from Yahoo Finance RSS.
// Headlines are advisory context only, never a scoring input.
type NewsSource struct {
	feedURL string
	cache   *Cache
	limiter *RateLimiter
	parser  *gofeed.Parser
}

func NewNewsSource() *NewsSource {
	return &NewsSource{
		feedURL: YahooFinanceRSSURL,
		cache:   NewCache(10 * time.Minute),
		limiter: NewRateLimiter(2, time.Second),
		parser:  gofeed.NewParser(),
	}
}

func (n *NewsSource) Name() string { return "Yahoo Finance RSS" }

// GetHeadlines returns the newest headlines for a ticker, most recent
// first. A missing or empty feed is not an error: plenty of tickers
// simply have no recent coverage.
func (n *NewsSource) GetHeadlines(ctx context.Context, ticker string, limit int) ([]models.Headline, error) {
	symbol := strings.ToUpper(strings.TrimSpace(ticker))
	if symbol == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = DefaultHeadlineLimit
	}

	cacheKey := fmt.Sprintf("news:%s:%d", symbol, limit)
	if cached, ok := n.cache.Get(cacheKey); ok {
		return cached.([]models.Headline), nil
	}

	if err := n.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	feedURL := fmt.Sprintf("%s?s=%s&region=US&lang=en-US", n.feedURL, url.QueryEscape(symbol))
	feed, err := n.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse RSS %s: %w", symbol, err)
	}

	type dated struct {
		h  models.Headline
		at time.Time
	}
	items := make([]dated, 0, len(feed.Items))
	for _, item := range feed.Items {
		title := strings.TrimSpace(item.Title)
		if title == "" {
			continue
		}
		d := dated{h: models.Headline{Title: title, URL: item.Link}}
		if item.PublishedParsed != nil {
			d.at = item.PublishedParsed.UTC()
			d.h.Published = d.at.Format(time.RFC3339)
		}
		items = append(items, d)
	}

	// Newest first; undated items sink to the bottom.
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].at.After(items[j].at)
	})

	if len(items) > limit {
		items = items[:limit]
	}
	headlines := make([]models.Headline, 0, len(items))
	for _, d := range items {
		headlines = append(headlines, d.h)
	}

	n.cache.Set(cacheKey, headlines)
	return headlines, nil
}
