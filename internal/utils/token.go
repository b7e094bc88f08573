package utils

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// NewConfirmationToken returns a URL-safe random token. 32 random bytes keeps
// it unguessable; RawURLEncoding avoids padding, slash and plus characters.
func NewConfirmationToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
