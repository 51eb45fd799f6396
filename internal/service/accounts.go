// Package service contains application services for accounts, authentication and records.
package service

import (
	"context"

	"go.uber.org/zap"

	pkgcrypto "github.com/and161185/secure-vault/internal/crypto"
	"github.com/and161185/secure-vault/internal/errs"
	"github.com/and161185/secure-vault/internal/model"
	"github.com/and161185/secure-vault/internal/repository"
)

// AccountService owns the registry invariants: unique usernames and ordered,
// index-addressable records. Every mutation is a single store.Update.
type AccountService struct {
	store repository.RegistryStore
	kdf   *pkgcrypto.KDF
	log   *zap.Logger
}

// NewAccountService constructs AccountService with required dependencies.
func NewAccountService(store repository.RegistryStore, kdf *pkgcrypto.KDF, log *zap.Logger) *AccountService {
	if log == nil {
		log = zap.NewNop()
	}
	return &AccountService{store: store, kdf: kdf, log: log}
}

// Register creates an account holding the verifier of password and no records.
func (s *AccountService) Register(ctx context.Context, username, password string) error {
	if username == "" || password == "" {
		return errs.ErrInvalidInput
	}
	// Derive outside the lock; it is the slow part.
	hash := s.kdf.DeriveVerifier(password)

	err := s.store.Update(ctx, func(reg *model.Registry) error {
		if reg.Get(username) != nil {
			return errs.ErrAlreadyExists
		}
		reg.Put(&model.Account{Username: username, PasswordHash: string(hash), Records: []model.Ciphertext{}})
		return nil
	})
	if err != nil {
		return err
	}
	s.log.Info("account registered", zap.String("user", username))
	return nil
}

// AppendRecord adds ct to the end of the account's records.
func (s *AccountService) AppendRecord(ctx context.Context, username string, ct model.Ciphertext) error {
	var idx int
	err := s.store.Update(ctx, func(reg *model.Registry) error {
		a := reg.Get(username)
		if a == nil {
			return errs.ErrNotFound
		}
		a.Records = append(a.Records, ct)
		idx = len(a.Records) - 1
		return nil
	})
	if err != nil {
		return err
	}
	s.log.Info("record stored", zap.String("user", username), zap.Int("index", idx))
	return nil
}

// ListRecords returns the account's records in insertion order. An unknown
// account has no records.
func (s *AccountService) ListRecords(ctx context.Context, username string) ([]model.Ciphertext, error) {
	reg, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	a := reg.Get(username)
	if a == nil {
		return []model.Ciphertext{}, nil
	}
	return append([]model.Ciphertext{}, a.Records...), nil
}

// DeleteRecord removes the record at index; later records shift down by one.
// An index is only meaningful against the list it was read from.
func (s *AccountService) DeleteRecord(ctx context.Context, username string, index int) error {
	err := s.store.Update(ctx, func(reg *model.Registry) error {
		a := reg.Get(username)
		if a == nil || index < 0 || index >= len(a.Records) {
			return errs.ErrIndexOutOfRange
		}
		a.Records = append(a.Records[:index], a.Records[index+1:]...)
		return nil
	})
	if err != nil {
		return err
	}
	s.log.Info("record deleted", zap.String("user", username), zap.Int("index", index))
	return nil
}

// Lookup returns a copy of the account, or errs.ErrNotFound.
func (s *AccountService) Lookup(ctx context.Context, username string) (*model.Account, error) {
	reg, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	a := reg.Get(username)
	if a == nil {
		return nil, errs.ErrNotFound
	}
	return a.Clone(), nil
}
