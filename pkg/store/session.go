package store

import (
	"sync"
	"sync/atomic"
)

// Pipeline stages for one advisor session. Transitions only move forward;
// the single way back to StageIdle is an explicit restart.
const (
	StageIdle                = "IDLE"
	StageExtractingOutcomes  = "EXTRACTING_OUTCOMES"
	StageResolvingIndicators = "RESOLVING_INDICATORS"
	StageResolvingMethods    = "RESOLVING_METHODS"
	StageAwaitingPreferences = "AWAITING_PREFERENCES"
	StageRecommending        = "RECOMMENDING"
	StageDone                = "DONE"
)

// Session is the live advisor session state held in memory.
//
// A session is touched by more than one goroutine: the request goroutine
// handling a turn, a pipeline run started by an earlier document upload, and
// a restart arriving on its own request. Mutable fields are guarded by the
// session's lock; the epoch is read and bumped atomically so a pipeline run
// can check staleness without holding the lock its caller may own.
type Session struct {
	ID string

	Stage        string
	DocumentName string

	// Epoch counts restarts. Pipeline results tagged with an older epoch are
	// discarded instead of being applied. Read with CurrentEpoch and advance
	// with BumpEpoch; direct access is only safe before the session is shared.
	Epoch int64

	// Plan built by the pipeline for the current epoch, nil before extraction.
	Plan *Plan

	// PendingIndicators holds normalized indicator names that still need a
	// recommendation, in plan order.
	PendingIndicators []string

	// AskedIndicators tracks indicators whose clarifying question has already
	// been emitted, so the question is asked at most once per indicator.
	AskedIndicators map[string]bool

	// Priorities is the user's last explicit priority statement, empty until
	// one has been detected in the conversation.
	Priorities string

	mu sync.Mutex
}

// Lock takes the session's state lock. Turn handlers hold it for the whole
// turn; helpers called while it is held must not take it again.
func (s *Session) Lock() { s.mu.Lock() }

// Unlock releases the session's state lock.
func (s *Session) Unlock() { s.mu.Unlock() }

// Update runs fn while holding the session's state lock.
func (s *Session) Update(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn()
}

// UpdateIfEpoch runs fn under the state lock only when the session's epoch
// still equals epoch, reporting whether fn ran. A pipeline run applies its
// stage transitions and results through this, so a restart that lands mid-run
// wins no matter how the two interleave.
func (s *Session) UpdateIfEpoch(epoch int64, fn func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.CurrentEpoch() != epoch {
		return false
	}
	fn()
	return true
}

// CurrentEpoch returns the session's epoch. Safe without the state lock.
func (s *Session) CurrentEpoch() int64 {
	return atomic.LoadInt64(&s.Epoch)
}

// BumpEpoch advances the epoch by one and returns the new value.
func (s *Session) BumpEpoch() int64 {
	return atomic.AddInt64(&s.Epoch, 1)
}
