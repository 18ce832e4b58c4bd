package utils

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// PriceNorm tunes the dollars-vs-cents guess in NormalizePaid.
type PriceNorm struct {
	// RefMultiple: an integer entry larger than RefMultiple times the
	// reference mark is assumed to be in cents.
	RefMultiple float64
	// CentsFloor: with no reference mark, integers at or above this are
	// assumed to be in cents.
	CentsFloor float64
}

// DefaultPriceNorm matches how people actually type option premiums.
var DefaultPriceNorm = PriceNorm{RefMultiple: 3, CentsFloor: 100}

var leadingDotRe = regexp.MustCompile(`^\.\d+$`)

// NormalizePaid converts free-form premium input ("28", "2800", "$28.00",
// ".50", "50c") into a per-share dollar amount rounded to two decimals.
// refMark, when known, anchors the guess for bare integers. Returns nil
// when the input is empty, unparsable, or not positive.
func NormalizePaid(raw string, refMark *float64) *float64 {
	return NormalizePaidWith(raw, refMark, DefaultPriceNorm)
}

// NormalizePaidWith is NormalizePaid with explicit thresholds.
func NormalizePaidWith(raw string, refMark *float64, norm PriceNorm) *float64 {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}

	// ".50" style is always a literal dollar amount
	if leadingDotRe.MatchString(s) {
		n, err := strconv.ParseFloat(s, 64)
		if err != nil || n <= 0 {
			return nil
		}
		return round2p(n)
	}

	s = strings.ToLower(s)
	s = strings.NewReplacer("$", "", ",", "", " ", "").Replace(s)

	cents := false
	for _, suffix := range []string{"c", "¢"} {
		if strings.HasSuffix(s, suffix) {
			s = strings.TrimSuffix(s, suffix)
			cents = true
		}
	}
	if s == "" {
		return nil
	}

	n, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) || n <= 0 {
		return nil
	}

	switch {
	case strings.Contains(s, "."):
		// explicit decimals are taken at face value
	case cents:
		n /= 100
	case refMark != nil && *refMark > 0:
		if n > *refMark*norm.RefMultiple {
			n /= 100
		}
	case n >= norm.CentsFloor:
		n /= 100
	}
	return round2p(n)
}

func round2p(n float64) *float64 {
	v := math.Round(n*100) / 100
	return &v
}
