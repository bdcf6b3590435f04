package utils

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"
)

// RandomHex returns n random bytes hex-encoded.
func RandomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// RandomID returns n random bytes as unpadded base64url, suitable for cookies.
func RandomID(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// MaskSecret hides all but the first and last three characters.
func MaskSecret(secret string) string {
	if secret == "" {
		return "(empty)"
	}
	n := len(secret)
	if n <= 8 {
		return strings.Repeat("*", n)
	}
	return secret[:3] + strings.Repeat("*", n-6) + secret[n-3:]
}

// IsTruthy reports whether a query or env flag is switched on.
func IsTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
