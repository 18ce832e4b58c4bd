package contract

import (
	"testing"

	"github.com/Phainsworth/tradegauge-site/pkg/models"
)

func fp(v float64) *float64 { return &v }

func TestProbITMAtTheMoney(t *testing.T) {
	// ATM with modest IV and time should land near a coin flip
	got := ProbITM(100, 100, models.Call, fp(30), 30)
	if got == nil {
		t.Fatal("expected a probability, got nil")
	}
	if *got < 48 || *got > 52 {
		t.Errorf("ATM call POP = %d, want within 50±2", *got)
	}

	put := ProbITM(100, 100, models.Put, fp(30), 30)
	if put == nil {
		t.Fatal("expected a probability, got nil")
	}
	if *got+*put < 99 || *got+*put > 101 {
		t.Errorf("call %d + put %d should sum to ~100", *got, *put)
	}
}

func TestProbITMMonotonicInStrike(t *testing.T) {
	// a call further OTM is less likely to finish ITM
	near := ProbITM(100, 105, models.Call, fp(40), 30)
	far := ProbITM(100, 130, models.Call, fp(40), 30)
	if near == nil || far == nil {
		t.Fatal("expected probabilities")
	}
	if *far >= *near {
		t.Errorf("POP should fall with strike: near=%d far=%d", *near, *far)
	}
}

func TestProbITMDeepITM(t *testing.T) {
	got := ProbITM(200, 100, models.Call, fp(20), 5)
	if got == nil || *got < 99 {
		t.Errorf("deep ITM short-dated call should be ~100, got %v", got)
	}
}

func TestProbITMUnusableInputs(t *testing.T) {
	if got := ProbITM(100, 100, models.Call, nil, 30); got != nil {
		t.Errorf("nil IV should give nil, got %d", *got)
	}
	if got := ProbITM(100, 100, models.Call, fp(0), 30); got != nil {
		t.Errorf("zero IV should give nil, got %d", *got)
	}
	if got := ProbITM(100, 100, models.Call, fp(30), 0); got != nil {
		t.Errorf("zero DTE should give nil, got %d", *got)
	}
	if got := ProbITM(0, 100, models.Call, fp(30), 30); got != nil {
		t.Errorf("zero spot should give nil, got %d", *got)
	}
}

func TestNormCDFReference(t *testing.T) {
	tests := []struct {
		x    float64
		want float64
	}{
		{0, 0.5},
		{1.96, 0.975},
		{-1.96, 0.025},
	}
	for _, tt := range tests {
		got := normCDF(tt.x)
		if diff := got - tt.want; diff > 0.001 || diff < -0.001 {
			t.Errorf("normCDF(%v) = %v, want ~%v", tt.x, got, tt.want)
		}
	}
}
