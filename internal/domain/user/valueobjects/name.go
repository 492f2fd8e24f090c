package valueobjects

import (
	"fmt"
	"strings"
)

// Name represents a user's display name value object
type Name struct {
	value string
}

// NewName creates a new Name value object with validation
func NewName(value string) (*Name, error) {
	normalized := strings.Join(strings.Fields(value), " ")

	if normalized == "" {
		return nil, fmt.Errorf("name cannot be empty")
	}

	if len(normalized) > 100 {
		return nil, fmt.Errorf("name cannot exceed 100 characters")
	}

	return &Name{value: normalized}, nil
}

// NewNameFromEmail derives a display name from the local part of an email
// address, used when sign-up supplies no explicit name.
func NewNameFromEmail(email *Email) (*Name, error) {
	if email == nil {
		return nil, fmt.Errorf("email is required")
	}
	local := email.LocalPart()
	if local == "" {
		return nil, fmt.Errorf("email has no local part")
	}
	return NewName(local)
}

// String returns the string representation of the name
func (n *Name) String() string {
	return n.value
}

// Equals checks if two name objects are equal
func (n *Name) Equals(other *Name) bool {
	if n == nil || other == nil {
		return n == other
	}
	return strings.EqualFold(n.value, other.value)
}

// Initials returns the uppercase initials of up to two name parts.
func (n *Name) Initials() string {
	parts := strings.Fields(n.value)
	if len(parts) == 0 {
		return ""
	}
	initials := strings.ToUpper(parts[0][:1])
	if len(parts) > 1 {
		initials += strings.ToUpper(parts[len(parts)-1][:1])
	}
	return initials
}
