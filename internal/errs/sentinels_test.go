package errs

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"
	"time"
)

func TestLockedOutError(t *testing.T) {
	t.Parallel()
	cases := []struct {
		remaining time.Duration
		want      int
	}{
		{60 * time.Second, 60},
		{59*time.Second + time.Millisecond, 60},
		{500 * time.Millisecond, 1},
		{0, 0},
		{-time.Second, 0},
	}
	for _, tc := range cases {
		e := &LockedOutError{Remaining: tc.remaining}
		if got := e.Seconds(); got != tc.want {
			t.Fatalf("Seconds(%v)=%d, want %d", tc.remaining, got, tc.want)
		}
	}

	var err error = fmt.Errorf("login: %w", &LockedOutError{Remaining: 42 * time.Second})
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("LockedOutError must match ErrRateLimited")
	}
	var lo *LockedOutError
	if !errors.As(err, &lo) || lo.Seconds() != 42 {
		t.Fatalf("errors.As failed: %v", err)
	}
	if want := "too many failed attempts: try again in 42 seconds"; lo.Error() != want {
		t.Fatalf("Error()=%q, want %q", lo.Error(), want)
	}
}

func TestPersistence(t *testing.T) {
	t.Parallel()
	if Persistence("op", nil) != nil {
		t.Fatalf("nil must stay nil")
	}

	err := Persistence("save", fs.ErrPermission)
	if !errors.Is(err, ErrPersistence) || !errors.Is(err, fs.ErrPermission) {
		t.Fatalf("want both sentinel and cause, got %v", err)
	}

	again := Persistence("outer", err)
	if again != err {
		t.Fatalf("already-marked errors pass through unchanged, got %v", again)
	}
}
