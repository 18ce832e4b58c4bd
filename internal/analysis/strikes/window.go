// Package strikes trims a full strike universe down to the window a user
// actually wants to scan: a fixed count around the money, with a legacy
// percent-window fallback.
package strikes

import (
	"math"
	"sort"
)

// Options controls window selection. EachSide is the preferred count-based
// mode; PctWindow and MinCount drive the legacy percent fallback used when
// EachSide is negative.
type Options struct {
	EachSide  int
	PctWindow float64
	MinCount  int
}

// DefaultOptions mirrors the production picker.
func DefaultOptions() Options {
	return Options{EachSide: 30, PctWindow: 0.25, MinCount: 30}
}

// Select returns the visible strike window. The center is the strike
// closest to spot, falling back to the currently selected strike, falling
// back to the middle of the universe. The slice is edge-balanced so a
// center near either end still yields about 2*EachSide+1 strikes, and the
// current selection is always included. Output is sorted and deduplicated.
func Select(universe []float64, spot, current *float64, opts Options) []float64 {
	nums := sanitize(universe)
	if len(nums) == 0 {
		return nil
	}

	if opts.EachSide >= 0 {
		return countWindow(nums, spot, current, opts.EachSide)
	}
	return pctWindow(nums, spot, current, opts.PctWindow, opts.MinCount)
}

func countWindow(nums []float64, spot, current *float64, eachSide int) []float64 {
	var idx int
	switch {
	case spot != nil && *spot > 0:
		idx = closestIdx(nums, *spot)
	case current != nil && *current > 0:
		idx = closestIdx(nums, *current)
	default:
		idx = min(len(nums)-1, len(nums)/2)
	}

	desired := eachSide*2 + 1
	lo := idx - eachSide
	hi := idx + eachSide
	if lo < 0 {
		hi = min(len(nums)-1, hi-lo)
		lo = 0
	}
	if hi > len(nums)-1 {
		over := hi - (len(nums) - 1)
		lo = max(0, lo-over)
		hi = len(nums) - 1
	}
	if hi-lo+1 < desired {
		need := desired - (hi - lo + 1)
		addLo := min(lo, need/2)
		addHi := min(len(nums)-1-hi, need-addLo)
		lo -= addLo
		hi += addHi
	}

	view := append([]float64(nil), nums[lo:hi+1]...)
	return withCurrent(view, current)
}

func pctWindow(nums []float64, spot, current *float64, window float64, minCount int) []float64 {
	if window <= 0 {
		window = 0.25
	}
	if minCount < 1 {
		minCount = 30
	}

	if spot == nil || *spot <= 0 {
		head := append([]float64(nil), nums[:min(len(nums), minCount)]...)
		return withCurrent(head, current)
	}

	s := *spot
	w := math.Max(0.01, window)
	view := within(nums, s*(1-w), s*(1+w))
	for len(view) < minCount && w < 1.0 {
		w *= 1.25
		view = within(nums, s*(1-w), s*(1+w))
	}
	return withCurrent(view, current)
}

// Closest returns the strike nearest to target, for auto-selecting a
// strike when a chain first loads. Returns 0 on an empty universe.
func Closest(universe []float64, target float64) float64 {
	nums := sanitize(universe)
	if len(nums) == 0 {
		return 0
	}
	return nums[closestIdx(nums, target)]
}

// --- helpers ---

func sanitize(in []float64) []float64 {
	var out []float64
	seen := make(map[float64]bool, len(in))
	for _, v := range in {
		if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	sort.Float64s(out)
	return out
}

func closestIdx(nums []float64, target float64) int {
	idx, best := 0, math.Inf(1)
	for i, v := range nums {
		if d := math.Abs(v - target); d < best {
			best = d
			idx = i
		}
	}
	return idx
}

func within(nums []float64, lo, hi float64) []float64 {
	var out []float64
	for _, v := range nums {
		if v >= lo && v <= hi {
			out = append(out, v)
		}
	}
	return out
}

func withCurrent(view []float64, current *float64) []float64 {
	if current != nil && *current > 0 && !contains(view, *current) {
		view = append(view, *current)
	}
	sort.Float64s(view)
	return view
}

func contains(nums []float64, v float64) bool {
	for _, n := range nums {
		if n == v {
			return true
		}
	}
	return false
}
