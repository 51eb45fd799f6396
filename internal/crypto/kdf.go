// Package crypto implements passphrase key derivation and password verification.
//
// Record keys and password verifiers come out of the same PBKDF2-HMAC-SHA256
// derivation (same salt, same iteration count); only the secret fed in
// differs. Registries written by earlier releases depend on this, so it is a
// compatibility contract. It also means a leaked verifier for a password that
// was reused as a record passphrase yields that record's key.
package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"

	"golang.org/x/crypto/pbkdf2"
)

// PBKDF2 defaults.
const (
	DefaultSalt       = "secure_salt_Value"
	DefaultIterations = 100_000
	KeyLen            = 32
)

// Key is URL-safe base64 encoded key material of KeyLen bytes.
type Key string

// Bytes decodes the key material.
func (k Key) Bytes() ([]byte, error) {
	b, err := base64.URLEncoding.DecodeString(string(k))
	if err != nil {
		return nil, err
	}
	if len(b) != KeyLen {
		return nil, errors.New("key: bad length")
	}
	return b, nil
}

// KDF derives record keys and password verifiers with a fixed application salt.
type KDF struct {
	salt       []byte
	iterations int
}

// NewKDF validates the tunables and returns a KDF.
func NewKDF(salt []byte, iterations int) (*KDF, error) {
	if len(salt) == 0 {
		return nil, errors.New("kdf: empty salt")
	}
	if iterations < 1 {
		return nil, errors.New("kdf: iterations must be positive")
	}
	return &KDF{salt: append([]byte(nil), salt...), iterations: iterations}, nil
}

// Default returns the KDF with DefaultSalt and DefaultIterations.
func Default() *KDF {
	return &KDF{salt: []byte(DefaultSalt), iterations: DefaultIterations}
}

// Iterations reports the configured PBKDF2 iteration count.
func (k *KDF) Iterations() int { return k.iterations }

func (k *KDF) derive(secret string) []byte {
	return pbkdf2.Key([]byte(secret), k.salt, k.iterations, KeyLen, sha256.New)
}

// DeriveKey turns a passphrase into record key material.
func (k *KDF) DeriveKey(passphrase string) Key {
	return Key(base64.URLEncoding.EncodeToString(k.derive(passphrase)))
}

// RandBytes returns n cryptographically secure random bytes.
func RandBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	_, err := rand.Read(b)
	return b, err
}
