package signer

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"www.github.com/Wanderer0074348/LinkedInAuth/src/models"
)

// Signer produces and checks `base64url(json) "." hex(hmac-sha256)` tokens.
// Expiry is left to callers.
type Signer struct {
	key []byte
}

func New(key string) *Signer {
	return &Signer{key: []byte(strings.TrimSpace(key))}
}

func (s *Signer) Configured() bool {
	return len(s.key) > 0
}

func (s *Signer) Sign(payload any) (string, error) {
	if !s.Configured() {
		return "", fmt.Errorf("signing key not set: %w", models.ErrConfiguration)
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal payload: %w", err)
	}

	encoded := base64.RawURLEncoding.EncodeToString(data)
	return encoded + "." + s.mac(encoded), nil
}

// Verify checks the token's signature and returns the decoded JSON object.
func (s *Signer) Verify(token string) (json.RawMessage, error) {
	encoded, sig, ok := strings.Cut(token, ".")
	if !ok {
		return nil, fmt.Errorf("token has no signature: %w", models.ErrMalformedPayload)
	}
	if !s.Configured() {
		return nil, fmt.Errorf("signing key not set: %w", models.ErrConfiguration)
	}

	if !hmac.Equal([]byte(s.mac(encoded)), []byte(sig)) {
		return nil, models.ErrInvalidSignature
	}

	data, err := DecodeSegment(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode payload: %w", models.ErrMalformedPayload)
	}

	var object map[string]json.RawMessage
	if err := json.Unmarshal(data, &object); err != nil || object == nil {
		return nil, fmt.Errorf("payload is not a JSON object: %w", models.ErrMalformedPayload)
	}

	return json.RawMessage(data), nil
}

// Open verifies token and unmarshals its payload into v.
func (s *Signer) Open(token string, v any) error {
	data, err := s.Verify(token)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", models.ErrMalformedPayload)
	}
	return nil
}

func (s *Signer) mac(encoded string) string {
	h := hmac.New(sha256.New, s.key)
	h.Write([]byte(encoded))
	return hex.EncodeToString(h.Sum(nil))
}

// DecodeSegment accepts padded or unpadded base64, url-safe or standard alphabet.
func DecodeSegment(segment string) ([]byte, error) {
	segment = strings.TrimSpace(segment)
	segment = strings.NewReplacer("+", "-", "/", "_").Replace(segment)
	segment = strings.TrimRight(segment, "=")
	return base64.RawURLEncoding.DecodeString(segment)
}
