// Package recordcrypto seals vault records into printable authenticated tokens.
//
// A token is the URL-safe base64 encoding of a version byte followed by the
// payload:
//
//	0x01  nonce(24) || XChaCha20-Poly1305(plaintext, aad=0x01)
//	0x80  Fernet: ts(8) || iv(16) || AES-128-CBC(plaintext) || HMAC-SHA256(32)
//
// New records are always sealed as 0x01. Fernet tokens are opened so that
// registries written by the earlier Fernet-based release keep working.
package recordcrypto

import (
	"encoding/base64"
	"errors"

	"golang.org/x/crypto/chacha20poly1305"

	pkgcrypto "github.com/and161185/secure-vault/internal/crypto"
	"github.com/and161185/secure-vault/internal/errs"
	"github.com/and161185/secure-vault/internal/model"
)

// Token versions.
const (
	VersionXChaCha byte = 0x01
	VersionFernet  byte = 0x80
)

var errMalformed = errors.New("malformed token")

// Cipher encrypts with a caller-derived key and decrypts from a raw passphrase.
type Cipher struct {
	kdf *pkgcrypto.KDF
}

// New returns a Cipher deriving keys with kdf.
func New(kdf *pkgcrypto.KDF) *Cipher {
	return &Cipher{kdf: kdf}
}

// Encrypt seals plaintext under key.
func (c *Cipher) Encrypt(plaintext string, key pkgcrypto.Key) (model.Ciphertext, error) {
	k, err := key.Bytes()
	if err != nil {
		return "", err
	}
	aead, err := chacha20poly1305.NewX(k)
	if err != nil {
		return "", err
	}
	nonce, err := pkgcrypto.RandBytes(chacha20poly1305.NonceSizeX)
	if err != nil {
		return "", err
	}
	aad := []byte{VersionXChaCha}
	out := make([]byte, 0, 1+len(nonce)+len(plaintext)+aead.Overhead())
	out = append(out, VersionXChaCha)
	out = append(out, nonce...)
	out = aead.Seal(out, nonce, []byte(plaintext), aad)
	return model.Ciphertext(base64.URLEncoding.EncodeToString(out)), nil
}

// Decrypt re-derives the key from passphrase and opens ct. Every failure,
// whatever its cause, is reported as errs.ErrDecrypt.
func (c *Cipher) Decrypt(ct model.Ciphertext, passphrase string) (string, error) {
	pt, err := Open(ct, c.kdf.DeriveKey(passphrase))
	if err != nil {
		return "", errs.ErrDecrypt
	}
	return pt, nil
}

// Open opens ct with an already derived key. Errors are not uniform; callers
// facing users should go through Decrypt.
func Open(ct model.Ciphertext, key pkgcrypto.Key) (string, error) {
	k, err := key.Bytes()
	if err != nil {
		return "", err
	}
	raw, err := base64.URLEncoding.DecodeString(string(ct))
	if err != nil {
		return "", err
	}
	if len(raw) == 0 {
		return "", errMalformed
	}
	var pt []byte
	switch raw[0] {
	case VersionXChaCha:
		pt, err = openXChaCha(k, raw)
	case VersionFernet:
		pt, err = openFernet(k, raw)
	default:
		err = errMalformed
	}
	if err != nil {
		return "", err
	}
	return string(pt), nil
}

func openXChaCha(key, raw []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	if len(raw) < 1+chacha20poly1305.NonceSizeX+aead.Overhead() {
		return nil, errMalformed
	}
	nonce := raw[1 : 1+chacha20poly1305.NonceSizeX]
	sealed := raw[1+chacha20poly1305.NonceSizeX:]
	return aead.Open(nil, nonce, sealed, raw[:1])
}
