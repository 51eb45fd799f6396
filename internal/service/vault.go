package service

import (
	"context"

	"go.uber.org/zap"

	pkgcrypto "github.com/and161185/secure-vault/internal/crypto"
	"github.com/and161185/secure-vault/internal/crypto/recordcrypto"
	"github.com/and161185/secure-vault/internal/errs"
	"github.com/and161185/secure-vault/internal/limiter"
	"github.com/and161185/secure-vault/internal/model"
	"github.com/and161185/secure-vault/internal/repository"
)

// Vault is the caller-facing API. Every operation returns a payload or an
// error matching one of the errs sentinels.
type Vault struct {
	accounts *AccountService
	auth     *AuthService
	cipher   *recordcrypto.Cipher
	kdf      *pkgcrypto.KDF
	log      *zap.Logger
}

// NewVault wires the account, auth and cipher services over store.
func NewVault(store repository.RegistryStore, kdf *pkgcrypto.KDF, lim limiter.Limiter, log *zap.Logger) *Vault {
	if log == nil {
		log = zap.NewNop()
	}
	accounts := NewAccountService(store, kdf, log)
	return &Vault{
		accounts: accounts,
		auth:     NewAuthService(accounts, kdf, lim, log),
		cipher:   recordcrypto.New(kdf),
		kdf:      kdf,
		log:      log,
	}
}

// Register creates an account. confirm must equal password.
func (v *Vault) Register(ctx context.Context, username, password, confirm string) error {
	if username == "" || password == "" || password != confirm {
		return errs.ErrInvalidInput
	}
	return v.accounts.Register(ctx, username, password)
}

// Login authenticates sess; see AuthService.Login for the error contract.
// A successful login on an authenticated session replaces its identity.
func (v *Vault) Login(ctx context.Context, sess *Session, username, password string) error {
	return v.auth.Login(ctx, sess, username, password)
}

// Logout ends the authenticated identity of sess.
func (v *Vault) Logout(sess *Session) error {
	return v.auth.Logout(sess)
}

// Store encrypts plaintext under a key derived from passphrase and appends it
// to the session user's records. The passphrase is not kept anywhere.
func (v *Vault) Store(ctx context.Context, sess *Session, passphrase, plaintext string) error {
	if !sess.Authenticated() {
		return errs.ErrNotAuthenticated
	}
	if passphrase == "" || plaintext == "" {
		return errs.ErrInvalidInput
	}
	ct, err := v.cipher.Encrypt(plaintext, v.kdf.DeriveKey(passphrase))
	if err != nil {
		v.log.Error("encrypt failed", zap.Stringer("session", sess.ID), zap.Error(err))
		return err
	}
	return v.accounts.AppendRecord(ctx, sess.AuthenticatedUser, ct)
}

// List returns the session user's ciphertexts in insertion order.
func (v *Vault) List(ctx context.Context, sess *Session) ([]model.Ciphertext, error) {
	if !sess.Authenticated() {
		return nil, errs.ErrNotAuthenticated
	}
	return v.accounts.ListRecords(ctx, sess.AuthenticatedUser)
}

// DecryptItem decrypts the record at the zero-based index with passphrase.
// Wrong passphrase and damaged ciphertext both yield errs.ErrDecrypt.
func (v *Vault) DecryptItem(ctx context.Context, sess *Session, index int, passphrase string) (string, error) {
	if !sess.Authenticated() {
		return "", errs.ErrNotAuthenticated
	}
	if passphrase == "" {
		return "", errs.ErrInvalidInput
	}
	recs, err := v.accounts.ListRecords(ctx, sess.AuthenticatedUser)
	if err != nil {
		return "", err
	}
	if index < 0 || index >= len(recs) {
		return "", errs.ErrIndexOutOfRange
	}
	pt, err := v.cipher.Decrypt(recs[index], passphrase)
	if err != nil {
		v.log.Info("decrypt failed", zap.Stringer("session", sess.ID), zap.Int("index", index))
		return "", err
	}
	return pt, nil
}

// DeleteItem removes the record at the zero-based index. Indices are valid only
// against the most recent List; later records shift down by one.
func (v *Vault) DeleteItem(ctx context.Context, sess *Session, index int) error {
	if !sess.Authenticated() {
		return errs.ErrNotAuthenticated
	}
	return v.accounts.DeleteRecord(ctx, sess.AuthenticatedUser, index)
}
