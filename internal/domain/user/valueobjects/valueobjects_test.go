package valueobjects

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEmail(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"simple address", "alice@example.com", "alice@example.com", false},
		{"normalizes case and whitespace", "  Alice@Example.COM ", "alice@example.com", false},
		{"plus addressing", "alice+tag@example.com", "alice+tag@example.com", false},
		{"empty", "", "", true},
		{"missing domain", "alice@", "", true},
		{"missing local part", "@example.com", "", true},
		{"no tld", "alice@localhost", "", true},
		{"too long", strings.Repeat("a", 250) + "@example.com", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			email, err := NewEmail(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, email.String())
		})
	}
}

func TestEmailParts(t *testing.T) {
	email, err := NewEmail("alice@example.com")
	require.NoError(t, err)

	assert.Equal(t, "alice", email.LocalPart())
	assert.Equal(t, "example.com", email.Domain())
}

func TestEmailEquals(t *testing.T) {
	a, err := NewEmail("alice@example.com")
	require.NoError(t, err)
	b, err := NewEmail("ALICE@example.com")
	require.NoError(t, err)
	c, err := NewEmail("bob@example.com")
	require.NoError(t, err)

	assert.True(t, a.Equals(b))
	assert.False(t, a.Equals(c))
	assert.False(t, a.Equals(nil))
}

func TestNewName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"plain name", "Alice", "Alice", false},
		{"collapses whitespace", "  Alice   Smith ", "Alice Smith", false},
		{"empty", "", "", true},
		{"only whitespace", "   ", "", true},
		{"too long", strings.Repeat("a", 101), "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := NewName(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, n.String())
		})
	}
}

func TestNewNameFromEmail(t *testing.T) {
	email, err := NewEmail("alice.smith@example.com")
	require.NoError(t, err)

	n, err := NewNameFromEmail(email)
	require.NoError(t, err)
	assert.Equal(t, "alice.smith", n.String())

	_, err = NewNameFromEmail(nil)
	assert.Error(t, err)
}

func TestNameInitials(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Alice", "A"},
		{"Alice Smith", "AS"},
		{"alice middle smith", "AS"},
	}

	for _, tt := range tests {
		n, err := NewName(tt.input)
		require.NoError(t, err)
		assert.Equal(t, tt.want, n.Initials())
	}
}

func TestNewPassword(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid", "password1", false},
		{"valid with symbols", "p@ssw0rd!xyz", false},
		{"too short", "pass1", true},
		{"no number", "passwordonly", true},
		{"no letter", "12345678", true},
		{"too long", strings.Repeat("a1", 65), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewPassword(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.input, p.String())
		})
	}
}

func TestGenerateToken(t *testing.T) {
	token, err := GenerateToken()
	require.NoError(t, err)

	assert.Len(t, token.Value(), 64)
	assert.Len(t, token.Hash(), 64)
	assert.NotEqual(t, token.Value(), token.Hash())
	assert.Equal(t, HashToken(token.Value()), token.Hash())
	assert.True(t, token.Verify(token.Value()))
	assert.False(t, token.Verify("deadbeef"))

	other, err := GenerateToken()
	require.NoError(t, err)
	assert.NotEqual(t, token.Value(), other.Value())
}

func TestNewTokenFromValue(t *testing.T) {
	original, err := GenerateToken()
	require.NoError(t, err)

	restored, err := NewTokenFromValue(original.Value())
	require.NoError(t, err)
	assert.Equal(t, original.Hash(), restored.Hash())

	_, err = NewTokenFromValue("")
	assert.Error(t, err)

	_, err = NewTokenFromValue("short")
	assert.Error(t, err)

	_, err = NewTokenFromValue(strings.Repeat("z", 64))
	assert.Error(t, err)
}
