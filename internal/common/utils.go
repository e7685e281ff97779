package common

import (
	"crypto/rand"
	"encoding/hex"
)

// MakeRandHexString generates a random hexadecimal string of the given size.
// The size parameter is the number of random bytes, so the resulting string
// is twice as long. Used for opaque refresh tokens.
func MakeRandHexString(size int) (string, error) {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// GenerateRandByteArray returns size cryptographically random bytes.
// It panics if the system random source fails.
func GenerateRandByteArray(size int) []byte {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return b
}

// WipeByteArray overwrites the contents of b with zeros. Nil is a no-op.
func WipeByteArray(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
