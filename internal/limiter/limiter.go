// Package limiter defines interfaces and implementations for login lockout.
package limiter

import (
	"time"
)

// State is the lockout bookkeeping of one session.
type State struct {
	FailedAttempts int
	LockoutUntil   time.Time // zero when not locked
}

// Limiter controls login attempts and temporary lockouts.
type Limiter interface {
	// Allow reports whether login is currently allowed and, if not, the retry-after.
	Allow(st *State) (bool, time.Duration)
	// Success resets counters after a successful login.
	Success(st *State)
	// Failure records a failed attempt; may place a temporary block.
	Failure(st *State) (bool, time.Duration)
	// AttemptsLeft reports how many failures remain before a block.
	AttemptsLeft(st *State) int
}

// Policy locks a session for blockFor after maxFails consecutive failures.
type Policy struct {
	maxFails int
	blockFor time.Duration
	now      func() time.Time
}

var _ Limiter = (*Policy)(nil)

// New constructs a Policy. A nil now uses time.Now.
func New(maxFails int, blockFor time.Duration, now func() time.Time) *Policy {
	if now == nil {
		now = time.Now
	}
	return &Policy{maxFails: maxFails, blockFor: blockFor, now: now}
}

// Allow reports whether an attempt may proceed. An expired block is cleared
// and the counter starts over.
func (p *Policy) Allow(st *State) (bool, time.Duration) {
	if st.LockoutUntil.IsZero() {
		return true, 0
	}
	now := p.now()
	if now.Before(st.LockoutUntil) {
		return false, st.LockoutUntil.Sub(now)
	}
	*st = State{}
	return true, 0
}

// Success resets counters.
func (p *Policy) Success(st *State) {
	*st = State{}
}

// Failure records a failed attempt and blocks once maxFails is reached.
func (p *Policy) Failure(st *State) (bool, time.Duration) {
	st.FailedAttempts++
	if st.FailedAttempts >= p.maxFails {
		st.LockoutUntil = p.now().Add(p.blockFor)
		return true, p.blockFor
	}
	return false, 0
}

// AttemptsLeft reports remaining failures before a block.
func (p *Policy) AttemptsLeft(st *State) int {
	if left := p.maxFails - st.FailedAttempts; left > 0 {
		return left
	}
	return 0
}
