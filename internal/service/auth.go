package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	pkgcrypto "github.com/and161185/secure-vault/internal/crypto"
	"github.com/and161185/secure-vault/internal/errs"
	"github.com/and161185/secure-vault/internal/limiter"
	"github.com/and161185/secure-vault/internal/model"
)

// LoginFailure is returned for rejected credentials that did not trip the
// lockout. It matches errs.ErrUnauthorized.
type LoginFailure struct {
	Remaining int // attempts left before lockout
}

func (e *LoginFailure) Error() string {
	return fmt.Sprintf("%s: %d attempts remaining", errs.ErrUnauthorized, e.Remaining)
}

func (e *LoginFailure) Unwrap() error { return errs.ErrUnauthorized }

// accountLookup is the read side of AccountService used by authentication.
type accountLookup interface {
	Lookup(ctx context.Context, username string) (*model.Account, error)
}

// AuthService runs the login state machine of a Session.
type AuthService struct {
	accounts accountLookup
	kdf      *pkgcrypto.KDF
	lim      limiter.Limiter
	log      *zap.Logger
}

// NewAuthService constructs AuthService with required dependencies.
func NewAuthService(accounts accountLookup, kdf *pkgcrypto.KDF, lim limiter.Limiter, log *zap.Logger) *AuthService {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthService{accounts: accounts, kdf: kdf, lim: lim, log: log}
}

// Login authenticates username on sess.
//
// While the session is locked out it returns *errs.LockedOutError without
// reading the registry. Wrong password and unknown user both yield
// *LoginFailure, or *errs.LockedOutError when the failure trips the lockout.
// Storage errors are returned as is and do not count as failures.
func (s *AuthService) Login(ctx context.Context, sess *Session, username, password string) error {
	if sess == nil {
		return errs.ErrInvalidInput
	}
	log := s.log.With(zap.Stringer("session", sess.ID), zap.String("user", username))

	if ok, wait := s.lim.Allow(&sess.State); !ok {
		log.Info("login rejected: locked out", zap.Duration("remaining", wait))
		return &errs.LockedOutError{Remaining: wait}
	}

	acct, err := s.accounts.Lookup(ctx, username)
	if err != nil && !errors.Is(err, errs.ErrNotFound) {
		log.Error("account lookup failed", zap.Error(err))
		return err
	}

	var ok bool
	if acct != nil {
		ok = s.kdf.VerifyPassword(password, pkgcrypto.Verifier(acct.PasswordHash))
	} else {
		// Same cost as a real check so timing does not reveal unknown users.
		_ = s.kdf.DeriveVerifier(password)
	}

	if !ok {
		if blocked, wait := s.lim.Failure(&sess.State); blocked {
			log.Warn("login failed: lockout started", zap.Duration("duration", wait))
			return &errs.LockedOutError{Remaining: wait}
		}
		left := s.lim.AttemptsLeft(&sess.State)
		log.Info("login failed", zap.Int("attempts_left", left))
		return &LoginFailure{Remaining: left}
	}

	s.lim.Success(&sess.State)
	sess.AuthenticatedUser = acct.Username
	log.Info("login succeeded")
	return nil
}

// Logout clears the identity and the failure counters. An unauthenticated
// session is left untouched, so logout cannot lift a lockout.
func (s *AuthService) Logout(sess *Session) error {
	if !sess.Authenticated() {
		return errs.ErrNotAuthenticated
	}
	s.log.Info("logout", zap.Stringer("session", sess.ID), zap.String("user", sess.AuthenticatedUser))
	sess.AuthenticatedUser = ""
	sess.State = limiter.State{}
	return nil
}
