package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	argonSaltLength = 16
	argonKeyLength  = 32

	minMemoryKiB   = 8 * 1024
	minIterations  = 1
	minParallelism = 1
)

// Argon2idHasher hashes passwords with Argon2id. The output is a PHC-style
// string embedding algorithm and cost parameters, so verification keeps
// working for hashes produced under older parameters.
type Argon2idHasher struct {
	memoryKiB   uint32
	iterations  uint32
	parallelism uint8
}

// NewArgon2idHasher creates a hasher with the given cost parameters.
// Out-of-range values fall back to the defaults (64 MiB, t=3, p=4).
func NewArgon2idHasher(memoryKiB, iterations uint32, parallelism uint8) *Argon2idHasher {
	if memoryKiB < minMemoryKiB {
		memoryKiB = 64 * 1024
	}
	if iterations < minIterations {
		iterations = 3
	}
	if parallelism < minParallelism {
		parallelism = 4
	}
	return &Argon2idHasher{
		memoryKiB:   memoryKiB,
		iterations:  iterations,
		parallelism: parallelism,
	}
}

func (h *Argon2idHasher) Hash(password string) (string, error) {
	salt := make([]byte, argonSaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	key := argon2.IDKey([]byte(password), salt, h.iterations, h.memoryKiB, h.parallelism, argonKeyLength)

	hash := fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		h.memoryKiB,
		h.iterations,
		h.parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	)
	return hash, nil
}

// Verify checks the password against a stored hash. Parameters are decoded
// from the hash itself, not from the hasher's current configuration. A
// generic error is returned regardless of the actual cause so callers cannot
// distinguish a mismatch from a malformed hash.
func (h *Argon2idHasher) Verify(password, hash string) error {
	memoryKiB, iterations, parallelism, salt, key, err := decodeArgon2idHash(hash)
	if err != nil {
		return fmt.Errorf("password verification failed")
	}

	computed := argon2.IDKey([]byte(password), salt, iterations, memoryKiB, parallelism, uint32(len(key)))
	if subtle.ConstantTimeCompare(computed, key) != 1 {
		return fmt.Errorf("password verification failed")
	}
	return nil
}

func decodeArgon2idHash(hash string) (memoryKiB, iterations uint32, parallelism uint8, salt, key []byte, err error) {
	parts := strings.Split(hash, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return 0, 0, 0, nil, nil, fmt.Errorf("unsupported hash format")
	}

	var version int
	if _, err = fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return 0, 0, 0, nil, nil, fmt.Errorf("malformed version: %w", err)
	}
	if version != argon2.Version {
		return 0, 0, 0, nil, nil, fmt.Errorf("incompatible argon2 version %d", version)
	}

	if _, err = fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memoryKiB, &iterations, &parallelism); err != nil {
		return 0, 0, 0, nil, nil, fmt.Errorf("malformed parameters: %w", err)
	}

	salt, err = base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return 0, 0, 0, nil, nil, fmt.Errorf("malformed salt: %w", err)
	}

	key, err = base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return 0, 0, 0, nil, nil, fmt.Errorf("malformed key: %w", err)
	}

	return memoryKiB, iterations, parallelism, salt, key, nil
}
