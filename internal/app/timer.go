package app

import (
	"sync"
	"time"

	"github.com/faru128/social-deduction-game/internal/domain"
)

// phaseTimer drives one phase's countdown. The session owns at most one
// live timer and stops it explicitly on every transition; the tick loop
// additionally guards against a stale phase so a fire racing a quorum
// advancement can never act twice.
type phaseTimer struct {
	phase     domain.Phase
	remaining int // guarded by the owning session's mutex
	stop      chan struct{}
	stopOnce  sync.Once
}

func newPhaseTimer(phase domain.Phase, seconds int) *phaseTimer {
	return &phaseTimer{
		phase:     phase,
		remaining: seconds,
		stop:      make(chan struct{}),
	}
}

// Stop cancels the timer. Safe to call more than once.
func (t *phaseTimer) Stop() {
	t.stopOnce.Do(func() {
		close(t.stop)
	})
}

// startTimer replaces any live timer with a fresh countdown for the given
// phase. Caller must hold the session lock.
func (s *Session) startTimer(phase domain.Phase, seconds int) {
	s.stopTimerLocked()
	t := newPhaseTimer(phase, seconds)
	s.timer = t
	go s.runTimer(t)
}

// stopTimerLocked cancels the live timer, if any. Caller must hold the
// session lock.
func (s *Session) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// runTimer ticks once per second until the countdown expires or the timer
// is stopped
func (s *Session) runTimer(t *phaseTimer) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-t.stop:
			return
		case <-ticker.C:
			if !s.tick(t) {
				return
			}
		}
	}
}

// tick broadcasts the remaining time and, past zero, fires the phase's
// expiry action. Returns false once the timer is done. The stale checks
// make the expiry action fire at most once per phase instance even when a
// tick races a quorum transition.
func (s *Session) tick(t *phaseTimer) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.timer != t || s.lobby.Phase != t.phase {
		return false
	}

	s.broadcastLocked(domain.NewTimerUpdateEvent(t.phase, t.remaining))
	t.remaining--
	if t.remaining < 0 {
		s.timer = nil
		s.expireLocked(t.phase)
		return false
	}
	return true
}

// expireLocked runs the expiry action for the phase whose countdown ran
// out. Caller must hold the session lock.
func (s *Session) expireLocked(phase domain.Phase) {
	switch phase {
	case domain.PhaseClue:
		s.endCluePhaseLocked()
	case domain.PhaseDiscussion:
		s.startVotingLocked()
	case domain.PhaseVoting:
		s.endVotingLocked()
	}
}

// timeLeftLocked returns the live countdown value for resynchronization,
// falling back to the configured duration when no timer is running. Caller
// must hold the session lock.
func (s *Session) timeLeftLocked(fallback int) int {
	if s.timer != nil {
		return s.timer.remaining
	}
	return fallback
}
