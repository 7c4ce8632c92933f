package security

import (
	"crypto/sha256"
	"io"

	"golang.org/x/crypto/hkdf"
)

// Key purposes. Each derives an independent key from SECRET_KEY.
const (
	PurposeSession = "flashforge session v1"
	PurposeCSRF    = "flashforge csrf v1"
)

// DeriveKey expands secret into a 32-byte key bound to purpose.
func DeriveKey(secret, purpose string) []byte {
	r := hkdf.New(sha256.New, []byte(secret), nil, []byte(purpose))
	key := make([]byte, 32)
	if _, err := io.ReadFull(r, key); err != nil {
		// hkdf only fails after 255*HashLen bytes.
		panic(err)
	}
	return key
}
