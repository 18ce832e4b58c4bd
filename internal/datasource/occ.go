package datasource

import (
	"fmt"
	"strings"
	"time"

	"github.com/Phainsworth/tradegauge-site/pkg/models"
)

// OCCSymbol renders a contract in OCC notation, e.g. AAPL250718C00110000.
// Both Tradier and Polygon address contracts this way (Polygon prefixes
// "O:"). Returns an error when the expiry doesn't parse.
func OCCSymbol(c models.Contract) (string, error) {
	t, err := time.Parse("2006-01-02", c.Expiry)
	if err != nil {
		return "", fmt.Errorf("occ symbol: bad expiry %q: %w", c.Expiry, err)
	}
	side := "P"
	if c.Kind.IsCall() {
		side = "C"
	}
	// strike in thousandths, zero-padded to 8 digits
	milli := int64(c.Strike*1000 + 0.5)
	return fmt.Sprintf("%s%s%s%08d", strings.ToUpper(c.Ticker), t.Format("060102"), side, milli), nil
}

// MergeSnapshot overlays src onto dst, filling only the fields dst is
// missing. Used when one provider has the quote and another has the greeks.
func MergeSnapshot(dst, src *models.MarketSnapshot) *models.MarketSnapshot {
	if dst == nil {
		return src
	}
	if src == nil {
		return dst
	}
	if dst.Spot == nil {
		dst.Spot = src.Spot
	}
	if dst.Bid == nil {
		dst.Bid = src.Bid
	}
	if dst.Ask == nil {
		dst.Ask = src.Ask
	}
	if dst.Last == nil {
		dst.Last = src.Last
	}
	if dst.Mark == nil {
		dst.Mark = src.Mark
	}
	g := &dst.Greeks
	if g.Delta == nil {
		g.Delta = src.Greeks.Delta
	}
	if g.Gamma == nil {
		g.Gamma = src.Greeks.Gamma
	}
	if g.Theta == nil {
		g.Theta = src.Greeks.Theta
	}
	if g.Vega == nil {
		g.Vega = src.Greeks.Vega
	}
	if g.IV == nil {
		g.IV = src.Greeks.IV
	}
	if g.OpenInterest == nil {
		g.OpenInterest = src.Greeks.OpenInterest
	}
	if dst.Source != "" && src.Source != "" {
		dst.Source = dst.Source + "+" + src.Source
	} else if dst.Source == "" {
		dst.Source = src.Source
	}
	return dst
}
