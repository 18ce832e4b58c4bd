package utils

import (
	"strconv"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// MidnightUTC truncates t to midnight UTC. All day-count math in this
// package runs on UTC midnights so a contract's DTE doesn't flicker with
// the local clock.
func MidnightUTC(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// DaysUntil returns the whole number of days from now until the given
// YYYY-MM-DD date, floored. Past dates come back negative.
func DaysUntil(date string, now time.Time) (int, error) {
	d, err := time.ParseInLocation(dateLayout, date, time.UTC)
	if err != nil {
		return 0, err
	}
	diff := d.Sub(MidnightUTC(now))
	days := int(diff.Hours() / 24)
	if diff < 0 && diff%(24*time.Hour) != 0 {
		days--
	}
	return days, nil
}

// DaysToExpiry returns calendar days until expiry, clamped at zero.
// Unparsable dates count as zero days.
func DaysToExpiry(expiry string, now time.Time) int {
	d, err := DaysUntil(expiry, now)
	if err != nil || d < 0 {
		return 0
	}
	return d
}

// NormalizeExpiry coerces the expiry formats providers hand back into
// YYYY-MM-DD: already-normalized dates, compact YYYYMMDD, and epoch
// seconds or milliseconds. Returns "" when nothing fits.
func NormalizeExpiry(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	if len(s) == 10 && s[4] == '-' && s[7] == '-' {
		if _, err := time.Parse(dateLayout, s); err == nil {
			return s
		}
	}
	if len(s) == 8 {
		if t, err := time.Parse("20060102", s); err == nil {
			return t.Format(dateLayout)
		}
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil && n > 0 {
		// epoch millis vs seconds
		if n > 1e12 {
			n /= 1000
		}
		return time.Unix(n, 0).UTC().Format(dateLayout)
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC().Format(dateLayout)
	}
	return ""
}

// NearestExpiry picks the earliest expiry on or after today. When every
// date is already in the past it falls back to the first entry.
func NearestExpiry(expiries []string, now time.Time) string {
	if len(expiries) == 0 {
		return ""
	}
	today := MidnightUTC(now)
	best := ""
	for _, e := range expiries {
		norm := NormalizeExpiry(e)
		if norm == "" {
			continue
		}
		d, err := time.ParseInLocation(dateLayout, norm, time.UTC)
		if err != nil || d.Before(today) {
			continue
		}
		if best == "" || norm < best {
			best = norm
		}
	}
	if best == "" {
		return NormalizeExpiry(expiries[0])
	}
	return best
}

// FormatDateMDY renders YYYY-MM-DD as M/D/YYYY for display. Invalid input
// passes through unchanged.
func FormatDateMDY(date string) string {
	t, err := time.Parse(dateLayout, date)
	if err != nil {
		return date
	}
	return strconv.Itoa(int(t.Month())) + "/" + strconv.Itoa(t.Day()) + "/" + strconv.Itoa(t.Year())
}
