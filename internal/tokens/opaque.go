package tokens

import (
	"crypto/rand"
	"encoding/hex"
)

// NewOpaqueToken returns a 64-char hex string from 32 random bytes. Used as
// the lookup key for email-verification and password-reset tokens.
func NewOpaqueToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
