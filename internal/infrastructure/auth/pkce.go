package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

// pkceVerifierBytes is the entropy of the code verifier before encoding.
// RFC 7636 allows 32..96 bytes; 32 yields a 43-character verifier.
const pkceVerifierBytes = 32

// generatePKCEParams returns a fresh code_verifier and its S256
// code_challenge. The verifier stays server-side until the callback; only
// the challenge travels in the authorization URL.
func generatePKCEParams() (codeVerifier, codeChallenge string, err error) {
	raw := make([]byte, pkceVerifierBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", "", fmt.Errorf("failed to generate code verifier: %w", err)
	}

	codeVerifier = base64.RawURLEncoding.EncodeToString(raw)
	sum := sha256.Sum256([]byte(codeVerifier))
	codeChallenge = base64.RawURLEncoding.EncodeToString(sum[:])

	return codeVerifier, codeChallenge, nil
}
