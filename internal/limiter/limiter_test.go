package limiter

import (
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newPolicy(maxFails int, blockFor time.Duration) (*Policy, *fakeClock) {
	clk := &fakeClock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	return New(maxFails, blockFor, clk.now), clk
}

func TestAllow_FreshState_Allows(t *testing.T) {
	t.Parallel()
	l, _ := newPolicy(3, time.Minute)

	ok, dur := l.Allow(&State{})
	if !ok || dur != 0 {
		t.Fatalf("Allow fresh: ok=%v dur=%v", ok, dur)
	}
}

func TestFailure_Increments_NoBlock(t *testing.T) {
	t.Parallel()
	l, _ := newPolicy(3, time.Minute)
	st := &State{}

	for i := 1; i <= 2; i++ {
		blocked, dur := l.Failure(st)
		if blocked || dur != 0 {
			t.Fatalf("Failure %d: blocked=%v dur=%v", i, blocked, dur)
		}
		if st.FailedAttempts != i {
			t.Fatalf("FailedAttempts=%d, want %d", st.FailedAttempts, i)
		}
	}
	if left := l.AttemptsLeft(st); left != 1 {
		t.Fatalf("AttemptsLeft=%d, want 1", left)
	}
}

func TestFailure_BlocksAtThreshold(t *testing.T) {
	t.Parallel()
	l, clk := newPolicy(3, time.Minute)
	st := &State{FailedAttempts: 2}

	blocked, dur := l.Failure(st)
	if !blocked || dur != time.Minute {
		t.Fatalf("Failure block: blocked=%v dur=%v", blocked, dur)
	}
	if !st.LockoutUntil.Equal(clk.t.Add(time.Minute)) {
		t.Fatalf("LockoutUntil=%v", st.LockoutUntil)
	}
	if l.AttemptsLeft(st) != 0 {
		t.Fatalf("AttemptsLeft must be 0 while blocked")
	}
}

func TestAllow_BlockedUntilFuture(t *testing.T) {
	t.Parallel()
	l, clk := newPolicy(3, time.Minute)
	st := &State{FailedAttempts: 3, LockoutUntil: clk.t.Add(time.Minute)}

	clk.advance(10 * time.Second)
	ok, dur := l.Allow(st)
	if ok || dur != 50*time.Second {
		t.Fatalf("Allow blocked: ok=%v dur=%v", ok, dur)
	}
	if st.FailedAttempts != 3 {
		t.Fatalf("Allow must not touch the counter while blocked")
	}
}

func TestAllow_ExpiredBlock_ResetsAndAllows(t *testing.T) {
	t.Parallel()
	l, clk := newPolicy(3, time.Minute)
	st := &State{FailedAttempts: 3, LockoutUntil: clk.t.Add(time.Minute)}

	clk.advance(time.Minute)
	ok, dur := l.Allow(st)
	if !ok || dur != 0 {
		t.Fatalf("Allow at deadline: ok=%v dur=%v", ok, dur)
	}
	if st.FailedAttempts != 0 || !st.LockoutUntil.IsZero() {
		t.Fatalf("expired block must reset state, got %+v", st)
	}
}

func TestSuccess_Resets(t *testing.T) {
	t.Parallel()
	l, _ := newPolicy(3, time.Minute)
	st := &State{FailedAttempts: 2}

	l.Success(st)
	if st.FailedAttempts != 0 || !st.LockoutUntil.IsZero() {
		t.Fatalf("Success must reset, got %+v", st)
	}
	if l.AttemptsLeft(st) != 3 {
		t.Fatalf("AttemptsLeft after success=%d", l.AttemptsLeft(st))
	}
}

func TestNew_NilClockUsesWallTime(t *testing.T) {
	t.Parallel()
	l := New(1, time.Hour, nil)
	st := &State{}
	l.Failure(st)
	if time.Until(st.LockoutUntil) <= 0 {
		t.Fatalf("lockout should be in the future, got %v", st.LockoutUntil)
	}
}
