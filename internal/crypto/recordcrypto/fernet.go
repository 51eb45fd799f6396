package recordcrypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
)

const (
	fernetTSLen  = 8
	fernetIVLen  = aes.BlockSize
	fernetMACLen = sha256.Size
	fernetHdrLen = 1 + fernetTSLen + fernetIVLen
)

// openFernet verifies and decrypts a Fernet token. The 32-byte key splits
// into a signing half and an encryption half. Token age is not checked.
func openFernet(key, raw []byte) ([]byte, error) {
	if len(raw) < fernetHdrLen+aes.BlockSize+fernetMACLen {
		return nil, errMalformed
	}
	body := raw[:len(raw)-fernetMACLen]
	if (len(body)-fernetHdrLen)%aes.BlockSize != 0 {
		return nil, errMalformed
	}
	signKey, encKey := key[:16], key[16:]

	mac := hmac.New(sha256.New, signKey)
	mac.Write(body)
	if !hmac.Equal(mac.Sum(nil), raw[len(body):]) {
		return nil, errMalformed
	}

	block, err := aes.NewCipher(encKey)
	if err != nil {
		return nil, err
	}
	iv := body[1+fernetTSLen : fernetHdrLen]
	ct := body[fernetHdrLen:]
	pt := make([]byte, len(ct))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(pt, ct)
	return unpad(pt)
}

// unpad strips PKCS#7 padding.
func unpad(b []byte) ([]byte, error) {
	if len(b) == 0 {
		return nil, errMalformed
	}
	n := int(b[len(b)-1])
	if n == 0 || n > aes.BlockSize || n > len(b) {
		return nil, errMalformed
	}
	pad := b[len(b)-n:]
	want := make([]byte, n)
	for i := range want {
		want[i] = byte(n)
	}
	if subtle.ConstantTimeCompare(pad, want) != 1 {
		return nil, errMalformed
	}
	return b[:len(b)-n], nil
}
