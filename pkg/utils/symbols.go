package utils

import (
	"sort"
	"strings"

	"github.com/Phainsworth/tradegauge-site/pkg/models"
)

// MaxSymbolResults caps how many matches a symbol search returns.
const MaxSymbolResults = 20

// RankSymbols filters and orders raw search results for a query. Prefix
// matches come first with exact matches on top, then shorter tickers, then
// alphabetical. Dotted share classes and unit/warrant suffixes are hidden
// unless the query itself contains the separator. When a longer query has
// no prefix match at all, a soft contains match on ticker and name kicks in.
func RankSymbols(list []models.Symbol, query string) []models.Symbol {
	q := strings.ToUpper(strings.TrimSpace(query))
	if q == "" {
		return nil
	}

	seen := make(map[string]bool)
	var out []models.Symbol
	for _, s := range list {
		tk := strings.ToUpper(strings.TrimSpace(s.Ticker))
		if tk == "" || seen[tk] {
			continue
		}
		if !strings.HasPrefix(tk, q) {
			continue
		}
		if hiddenClass(tk, q) {
			continue
		}
		seen[tk] = true
		out = append(out, models.Symbol{Ticker: tk, Name: s.Name})
	}

	if len(out) == 0 && len(q) >= 4 {
		for _, s := range list {
			tk := strings.ToUpper(strings.TrimSpace(s.Ticker))
			if tk == "" || seen[tk] || hiddenClass(tk, q) {
				continue
			}
			if strings.Contains(tk, q) || strings.Contains(strings.ToUpper(s.Name), q) {
				seen[tk] = true
				out = append(out, models.Symbol{Ticker: tk, Name: s.Name})
			}
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].Ticker, out[j].Ticker
		if (a == q) != (b == q) {
			return a == q
		}
		if len(a) != len(b) {
			return len(a) < len(b)
		}
		return a < b
	})

	if len(out) > MaxSymbolResults {
		out = out[:MaxSymbolResults]
	}
	return out
}

// hiddenClass reports whether a ticker looks like a share class, unit or
// warrant variant the user didn't explicitly ask for.
func hiddenClass(ticker, query string) bool {
	for _, sep := range []string{".", "-", "/"} {
		if strings.Contains(ticker, sep) && !strings.Contains(query, sep) {
			return true
		}
	}
	if strings.Contains(query, "W") {
		return false
	}
	for _, suffix := range []string{"WS", "WT"} {
		if len(ticker) > len(suffix)+1 && strings.HasSuffix(ticker, suffix) {
			return true
		}
	}
	return false
}
