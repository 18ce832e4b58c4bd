// Package live keeps on-screen data in sync with the market: latest-wins
// request sequencing for chain loads and a polite spot poller.
package live

import (
	"context"
	"sync"
)

// Sequencer serializes overlapping lookups so only the most recent one may
// apply its result. Begin cancels the previous in-flight context; a caller
// holding a stale id gets refused at apply time even if its fetch already
// finished.
type Sequencer struct {
	mu     sync.Mutex
	seq    uint64
	cancel context.CancelFunc
}

// Begin registers a new lookup, cancelling any previous one. The returned
// context is cancelled when a newer lookup begins.
func (s *Sequencer) Begin(ctx context.Context) (context.Context, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
	s.seq++
	cctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	return cctx, s.seq
}

// Current reports whether id is still the latest lookup.
func (s *Sequencer) Current(id uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return id == s.seq
}

// Apply runs fn only if id is still the latest lookup, holding the
// sequence stable while fn runs. Reports whether fn ran.
func (s *Sequencer) Apply(id uint64, fn func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id != s.seq {
		return false
	}
	fn()
	return true
}
