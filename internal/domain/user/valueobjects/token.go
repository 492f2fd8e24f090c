package valueobjects

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Token is a one-shot opaque token (password reset, email verification,
// refresh). Only the SHA-256 hash is ever persisted; the plain value is
// handed to the caller exactly once.
type Token struct {
	value string
	hash  string
}

func GenerateToken() (*Token, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return nil, fmt.Errorf("failed to generate random token: %w", err)
	}

	value := hex.EncodeToString(bytes)
	return &Token{
		value: value,
		hash:  HashToken(value),
	}, nil
}

func NewTokenFromValue(value string) (*Token, error) {
	if err := validateToken(value); err != nil {
		return nil, err
	}

	return &Token{
		value: value,
		hash:  HashToken(value),
	}, nil
}

func (t *Token) Value() string {
	return t.value
}

func (t *Token) Hash() string {
	return t.hash
}

func (t *Token) Verify(plainToken string) bool {
	return HashToken(plainToken) == t.hash
}

// HashToken returns the hex SHA-256 digest used for token storage and lookup.
func HashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}

func validateToken(token string) error {
	if token == "" {
		return fmt.Errorf("token cannot be empty")
	}

	if len(token) < 32 {
		return fmt.Errorf("token must be at least 32 characters long")
	}

	if !isHexString(token) {
		return fmt.Errorf("token must be a valid hexadecimal string")
	}

	return nil
}

func isHexString(s string) bool {
	for _, c := range s {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') && (c < 'A' || c > 'F') {
			return false
		}
	}
	return true
}
