package common

import (
	"crypto/rand"
	"encoding/hex"
)

// MakeRandHexString returns n random bytes encoded as lowercase hex
// (the resulting string is 2n characters long).
func MakeRandHexString(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
