package service

import (
	"context"
	"errors"
	"testing"

	"github.com/and161185/secure-vault/internal/errs"
)

func loggedIn(t *testing.T, v *Vault, user, pass string) *Session {
	t.Helper()
	ctx := context.Background()
	if err := v.Register(ctx, user, pass, pass); err != nil {
		t.Fatalf("Register: %v", err)
	}
	sess := newSession(t)
	if err := v.Login(ctx, sess, user, pass); err != nil {
		t.Fatalf("Login: %v", err)
	}
	return sess
}

func TestVault_Register_Validation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	v, store, _ := newTestVault(t)

	cases := []struct {
		name, user, pass, confirm string
	}{
		{"empty user", "", "pw", "pw"},
		{"empty password", "alice", "", ""},
		{"mismatch", "alice", "pw", "px"},
	}
	for _, tc := range cases {
		if err := v.Register(ctx, tc.user, tc.pass, tc.confirm); !errors.Is(err, errs.ErrInvalidInput) {
			t.Fatalf("%s: want ErrInvalidInput, got %v", tc.name, err)
		}
	}
	if _, updates := store.calls(); updates != 0 {
		t.Fatalf("invalid input must not touch storage, got %d updates", updates)
	}

	if err := v.Register(ctx, "alice", "pw", "pw"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := v.Register(ctx, "alice", "pw", "pw"); !errors.Is(err, errs.ErrAlreadyExists) {
		t.Fatalf("want ErrAlreadyExists, got %v", err)
	}
	// Confirmation is checked before the duplicate lookup.
	if err := v.Register(ctx, "alice", "pw", "other"); !errors.Is(err, errs.ErrInvalidInput) {
		t.Fatalf("want ErrInvalidInput, got %v", err)
	}
}

func TestVault_RegisterThenLogin(t *testing.T) {
	t.Parallel()
	v, _, _ := newTestVault(t)
	sess := loggedIn(t, v, "carol", "Secret1!")
	if sess.AuthenticatedUser != "carol" {
		t.Fatalf("identity=%q", sess.AuthenticatedUser)
	}
}

func TestVault_StoreListDecryptScenario(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	v, _, _ := newTestVault(t)
	sess := loggedIn(t, v, "alice", "Secret1!")

	if err := v.Store(ctx, sess, "pk1", "hello world"); err != nil {
		t.Fatalf("Store: %v", err)
	}
	recs, err := v.List(ctx, sess)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("List len=%d, want 1", len(recs))
	}
	if string(recs[0]) == "hello world" {
		t.Fatalf("record stored in plaintext")
	}

	pt, err := v.DecryptItem(ctx, sess, 0, "pk1")
	if err != nil || pt != "hello world" {
		t.Fatalf("DecryptItem: pt=%q err=%v", pt, err)
	}
	if _, err := v.DecryptItem(ctx, sess, 0, "wrongkey"); !errors.Is(err, errs.ErrDecrypt) {
		t.Fatalf("wrong key: want ErrDecrypt, got %v", err)
	}
}

func TestVault_RequiresAuthentication(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	v, _, _ := newTestVault(t)
	sess := newSession(t)

	if err := v.Store(ctx, sess, "p", "x"); !errors.Is(err, errs.ErrNotAuthenticated) {
		t.Fatalf("Store: %v", err)
	}
	if _, err := v.List(ctx, sess); !errors.Is(err, errs.ErrNotAuthenticated) {
		t.Fatalf("List: %v", err)
	}
	if _, err := v.DecryptItem(ctx, sess, 0, "p"); !errors.Is(err, errs.ErrNotAuthenticated) {
		t.Fatalf("DecryptItem: %v", err)
	}
	if err := v.DeleteItem(ctx, sess, 0); !errors.Is(err, errs.ErrNotAuthenticated) {
		t.Fatalf("DeleteItem: %v", err)
	}
	if _, err := v.List(ctx, nil); !errors.Is(err, errs.ErrNotAuthenticated) {
		t.Fatalf("List(nil): %v", err)
	}
}

func TestVault_InputValidation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	v, _, _ := newTestVault(t)
	sess := loggedIn(t, v, "alice", "pw")

	if err := v.Store(ctx, sess, "", "x"); !errors.Is(err, errs.ErrInvalidInput) {
		t.Fatalf("empty passphrase: %v", err)
	}
	if err := v.Store(ctx, sess, "p", ""); !errors.Is(err, errs.ErrInvalidInput) {
		t.Fatalf("empty plaintext: %v", err)
	}
	if _, err := v.DecryptItem(ctx, sess, 0, ""); !errors.Is(err, errs.ErrInvalidInput) {
		t.Fatalf("empty passphrase on decrypt: %v", err)
	}
	if _, err := v.DecryptItem(ctx, sess, 0, "p"); !errors.Is(err, errs.ErrIndexOutOfRange) {
		t.Fatalf("decrypt on empty list: %v", err)
	}
	if err := v.DeleteItem(ctx, sess, 0); !errors.Is(err, errs.ErrIndexOutOfRange) {
		t.Fatalf("delete on empty list: %v", err)
	}
}

func TestVault_DeleteItemShiftsIndices(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	v, _, _ := newTestVault(t)
	sess := loggedIn(t, v, "alice", "pw")

	for _, s := range []string{"one", "two", "three"} {
		if err := v.Store(ctx, sess, "k", s); err != nil {
			t.Fatalf("Store %s: %v", s, err)
		}
	}
	if err := v.DeleteItem(ctx, sess, 0); err != nil {
		t.Fatalf("DeleteItem: %v", err)
	}
	pt, err := v.DecryptItem(ctx, sess, 0, "k")
	if err != nil || pt != "two" {
		t.Fatalf("after delete, item 0 = %q (%v), want two", pt, err)
	}
	if _, err := v.DecryptItem(ctx, sess, 2, "k"); !errors.Is(err, errs.ErrIndexOutOfRange) {
		t.Fatalf("want ErrIndexOutOfRange, got %v", err)
	}
}

func TestVault_RecordsArePerUser(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	v, _, _ := newTestVault(t)
	alice := loggedIn(t, v, "alice", "a")
	bob := loggedIn(t, v, "bob", "b")

	if err := v.Store(ctx, alice, "k", "alice secret"); err != nil {
		t.Fatalf("Store: %v", err)
	}
	recs, err := v.List(ctx, bob)
	if err != nil || len(recs) != 0 {
		t.Fatalf("bob sees %d records (%v)", len(recs), err)
	}
}

func TestVault_SamePlaintextDistinctCiphertexts(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	v, _, _ := newTestVault(t)
	sess := loggedIn(t, v, "alice", "a")

	_ = v.Store(ctx, sess, "k", "same")
	_ = v.Store(ctx, sess, "k", "same")
	recs, _ := v.List(ctx, sess)
	if len(recs) != 2 || recs[0] == recs[1] {
		t.Fatalf("records must use fresh nonces: %v", recs)
	}
}
