package crypto

import (
	"crypto/subtle"
	"encoding/hex"
)

// Verifier is the lowercase hex PBKDF2 digest stored in place of a password.
type Verifier string

// DeriveVerifier returns the verifier for password.
func (k *KDF) DeriveVerifier(password string) Verifier {
	return Verifier(hex.EncodeToString(k.derive(password)))
}

// VerifyPassword verifies password against the expected verifier in constant time.
func (k *KDF) VerifyPassword(password string, expected Verifier) bool {
	want, err := hex.DecodeString(string(expected))
	if err != nil || len(want) != KeyLen {
		return false
	}
	return subtle.ConstantTimeCompare(k.derive(password), want) == 1
}
