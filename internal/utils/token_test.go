package utils

import (
	"strings"
	"testing"
)

func TestNewConfirmationToken(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		tok, err := NewConfirmationToken()
		if err != nil {
			t.Fatalf("token: %v", err)
		}
		if len(tok) != 43 { // 32 bytes, base64 raw url encoded
			t.Fatalf("token length = %d", len(tok))
		}
		if strings.ContainsAny(tok, "+/=") {
			t.Fatalf("token is not url-safe: %q", tok)
		}
		if seen[tok] {
			t.Fatalf("duplicate token generated")
		}
		seen[tok] = true
	}
}
