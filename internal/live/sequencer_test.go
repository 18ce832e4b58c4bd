package live

import (
	"context"
	"testing"
)

func TestSequencerLatestWins(t *testing.T) {
	var s Sequencer
	ctx := context.Background()

	ctx1, id1 := s.Begin(ctx)
	_, id2 := s.Begin(ctx)

	// the first lookup's context is cancelled by the second
	select {
	case <-ctx1.Done():
	default:
		t.Error("starting a new lookup should cancel the previous context")
	}

	if s.Current(id1) {
		t.Error("stale id should not be current")
	}
	if !s.Current(id2) {
		t.Error("latest id should be current")
	}
}

func TestSequencerApplyRefusesStale(t *testing.T) {
	var s Sequencer
	ctx := context.Background()

	_, id1 := s.Begin(ctx)
	_, id2 := s.Begin(ctx)

	applied := false
	if ok := s.Apply(id1, func() { applied = true }); ok || applied {
		t.Error("stale result must never apply")
	}
	if ok := s.Apply(id2, func() { applied = true }); !ok || !applied {
		t.Error("latest result should apply")
	}
}

func TestSequencerStaleResultAfterLatestApplied(t *testing.T) {
	// a slow early fetch finishing after a fast later one must not override it
	var s Sequencer
	ctx := context.Background()

	_, slow := s.Begin(ctx)
	_, fast := s.Begin(ctx)

	var value string
	s.Apply(fast, func() { value = "fast" })
	s.Apply(slow, func() { value = "slow" })

	if value != "fast" {
		t.Errorf("stale lookup overrode the latest: %q", value)
	}
}
