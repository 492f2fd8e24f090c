package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// low-cost parameters keep the test fast without changing code paths
func testHasher() *Argon2idHasher {
	return NewArgon2idHasher(8*1024, 1, 1)
}

func TestArgon2idHashAndVerify(t *testing.T) {
	hasher := testHasher()

	hash, err := hasher.Hash("correct horse 1")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(hash, "$argon2id$"))
	assert.NoError(t, hasher.Verify("correct horse 1", hash))
	assert.Error(t, hasher.Verify("wrong password", hash))
	assert.Error(t, hasher.Verify("", hash))
}

func TestArgon2idHashIsSalted(t *testing.T) {
	hasher := testHasher()

	first, err := hasher.Hash("password1")
	require.NoError(t, err)
	second, err := hasher.Hash("password1")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.NoError(t, hasher.Verify("password1", first))
	assert.NoError(t, hasher.Verify("password1", second))
}

func TestArgon2idVerifyAcrossParameters(t *testing.T) {
	// hashes produced under old cost parameters must keep verifying after
	// the configured parameters change
	old := NewArgon2idHasher(8*1024, 1, 1)
	hash, err := old.Hash("password1")
	require.NoError(t, err)

	current := NewArgon2idHasher(16*1024, 2, 2)
	assert.NoError(t, current.Verify("password1", hash))
	assert.Error(t, current.Verify("password2", hash))
}

func TestArgon2idVerifyMalformedHash(t *testing.T) {
	hasher := testHasher()

	tests := []struct {
		name string
		hash string
	}{
		{"empty", ""},
		{"not a hash", "plaintext"},
		{"wrong algorithm", "$bcrypt$v=19$m=8192,t=1,p=1$c2FsdA$a2V5"},
		{"truncated", "$argon2id$v=19$m=8192,t=1,p=1$c2FsdA"},
		{"bad salt encoding", "$argon2id$v=19$m=8192,t=1,p=1$!!!$a2V5"},
		{"bad version", "$argon2id$v=7$m=8192,t=1,p=1$c2FsdA$a2V5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, hasher.Verify("password1", tt.hash))
		})
	}
}

func TestNewArgon2idHasherDefaults(t *testing.T) {
	hasher := NewArgon2idHasher(0, 0, 0)

	assert.Equal(t, uint32(64*1024), hasher.memoryKiB)
	assert.Equal(t, uint32(3), hasher.iterations)
	assert.Equal(t, uint8(4), hasher.parallelism)
}
