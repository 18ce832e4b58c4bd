package strikes

import (
	"reflect"
	"testing"
)

func fp(v float64) *float64 { return &v }

func ladder(lo, hi, step float64) []float64 {
	var out []float64
	for v := lo; v <= hi; v += step {
		out = append(out, v)
	}
	return out
}

func TestSelectCenteredOnSpot(t *testing.T) {
	universe := ladder(90, 150, 5)
	got := Select(universe, fp(120), nil, Options{EachSide: 2})
	want := []float64{110, 115, 120, 125, 130}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestSelectEdgeBalanced(t *testing.T) {
	universe := ladder(90, 150, 5)

	// center at the bottom edge still yields 2N+1 strikes
	got := Select(universe, fp(90), nil, Options{EachSide: 2})
	want := []float64{90, 95, 100, 105, 110}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("low edge: got %v, want %v", got, want)
	}

	got = Select(universe, fp(150), nil, Options{EachSide: 2})
	want = []float64{130, 135, 140, 145, 150}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("high edge: got %v, want %v", got, want)
	}
}

func TestSelectFallsBackToCurrent(t *testing.T) {
	universe := ladder(90, 150, 5)
	got := Select(universe, nil, fp(100), Options{EachSide: 1})
	want := []float64{95, 100, 105}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestSelectMiddleWhenNothingKnown(t *testing.T) {
	universe := []float64{10, 20, 30, 40, 50}
	got := Select(universe, nil, nil, Options{EachSide: 1})
	want := []float64{20, 30, 40}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestSelectAlwaysIncludesCurrent(t *testing.T) {
	universe := ladder(90, 150, 5)
	got := Select(universe, fp(120), fp(150), Options{EachSide: 1})
	want := []float64{115, 120, 125, 150}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestSelectSanitizes(t *testing.T) {
	universe := []float64{0, -5, 100, 100, 105, 110}
	got := Select(universe, fp(105), nil, Options{EachSide: 5})
	want := []float64{100, 105, 110}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
	if got := Select(nil, fp(100), nil, Options{EachSide: 2}); got != nil {
		t.Errorf("empty universe should give nil, got %v", got)
	}
}

func TestLegacyPctWindow(t *testing.T) {
	universe := ladder(10, 400, 5)
	opts := Options{EachSide: -1, PctWindow: 0.25, MinCount: 5}
	got := Select(universe, fp(100), nil, opts)
	if len(got) < 5 {
		t.Fatalf("expected at least 5 strikes, got %v", got)
	}
	for _, v := range got {
		if v < 75 || v > 125 {
			t.Errorf("strike %v outside the 25%% window", v)
		}
	}
}

func TestLegacyPctWindowGrows(t *testing.T) {
	// sparse ladder: a 25% band around 100 holds only 3 strikes, so it grows
	universe := []float64{40, 80, 100, 120, 160, 200}
	opts := Options{EachSide: -1, PctWindow: 0.25, MinCount: 5}
	got := Select(universe, fp(100), nil, opts)
	if len(got) < 5 {
		t.Errorf("window should grow until min count: got %v", got)
	}
}

func TestLegacyNoSpotTakesHead(t *testing.T) {
	universe := ladder(10, 100, 5)
	opts := Options{EachSide: -1, MinCount: 4}
	got := Select(universe, nil, fp(90), opts)
	want := []float64{10, 15, 20, 25, 90}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestClosest(t *testing.T) {
	universe := []float64{90, 95, 100, 105}
	if got := Closest(universe, 101); got != 100 {
		t.Errorf("got %v, want 100", got)
	}
	if got := Closest(nil, 100); got != 0 {
		t.Errorf("empty universe should give 0, got %v", got)
	}
}
