package user

import (
	"fmt"
	"time"

	"atrium/internal/shared/biztime"
	"atrium/internal/shared/id"

	vo "atrium/internal/domain/user/valueobjects"
)

// User is the identity-agnostic aggregate root. It carries no knowledge of
// which provider authenticated it; provider-specific state lives in
// LocalCredential, OAuthAccount or the managed-platform mirror fields.
type User struct {
	id            uint
	sid           string
	email         *vo.Email
	name          *vo.Name
	avatarURL     *string
	emailVerified bool
	banned        bool
	externalID    *string // managed-platform user id, set only for mirrored users
	createdAt     time.Time
	updatedAt     time.Time
	version       int
}

// NewUser creates a new user aggregate with a fresh SID.
func NewUser(email *vo.Email, name *vo.Name) (*User, error) {
	if email == nil {
		return nil, fmt.Errorf("email is required")
	}
	if name == nil {
		name, _ = vo.NewNameFromEmail(email)
		if name == nil {
			return nil, fmt.Errorf("name is required")
		}
	}

	sid, err := id.NewUserID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate user SID: %w", err)
	}

	now := biztime.NowUTC()
	return &User{
		sid:       sid,
		email:     email,
		name:      name,
		createdAt: now,
		updatedAt: now,
		version:   1,
	}, nil
}

// UserState carries the mutable non-identity fields used when reconstructing
// a user from persistence.
type UserState struct {
	AvatarURL     *string
	EmailVerified bool
	Banned        bool
	ExternalID    *string
}

// ReconstructUser reconstructs a user from persistence.
func ReconstructUser(userID uint, sid string, email *vo.Email, name *vo.Name, state UserState, createdAt, updatedAt time.Time, version int) (*User, error) {
	if userID == 0 {
		return nil, fmt.Errorf("user ID cannot be zero")
	}
	if email == nil {
		return nil, fmt.Errorf("email is required")
	}
	if name == nil {
		return nil, fmt.Errorf("name is required")
	}

	return &User{
		id:            userID,
		sid:           sid,
		email:         email,
		name:          name,
		avatarURL:     state.AvatarURL,
		emailVerified: state.EmailVerified,
		banned:        state.Banned,
		externalID:    state.ExternalID,
		createdAt:     createdAt,
		updatedAt:     updatedAt,
		version:       version,
	}, nil
}

func (u *User) ID() uint             { return u.id }
func (u *User) SID() string          { return u.sid }
func (u *User) Email() *vo.Email     { return u.email }
func (u *User) Name() *vo.Name       { return u.name }
func (u *User) AvatarURL() *string   { return u.avatarURL }
func (u *User) IsEmailVerified() bool { return u.emailVerified }
func (u *User) IsBanned() bool       { return u.banned }
func (u *User) ExternalID() *string  { return u.externalID }
func (u *User) CreatedAt() time.Time { return u.createdAt }
func (u *User) UpdatedAt() time.Time { return u.updatedAt }
func (u *User) Version() int         { return u.version }

// SetID sets the user ID (only for persistence layer use)
func (u *User) SetID(userID uint) error {
	if u.id != 0 {
		return fmt.Errorf("user ID is already set")
	}
	if userID == 0 {
		return fmt.Errorf("user ID cannot be zero")
	}
	u.id = userID
	return nil
}

// UpdateEmail updates the user's email address and resets verification.
func (u *User) UpdateEmail(newEmail *vo.Email) error {
	if newEmail == nil {
		return fmt.Errorf("email cannot be nil")
	}

	if u.email.Equals(newEmail) {
		return nil
	}

	u.email = newEmail
	u.emailVerified = false
	u.touch()
	return nil
}

// UpdateName updates the user's display name.
func (u *User) UpdateName(newName *vo.Name) error {
	if newName == nil {
		return fmt.Errorf("name cannot be nil")
	}

	if u.name.Equals(newName) {
		return nil
	}

	u.name = newName
	u.touch()
	return nil
}

// UpdateAvatarURL replaces the avatar URL. An empty string clears it.
func (u *User) UpdateAvatarURL(url string) {
	if url == "" {
		u.avatarURL = nil
	} else {
		u.avatarURL = &url
	}
	u.touch()
}

// MarkEmailVerified flags the email address as verified.
func (u *User) MarkEmailVerified() {
	if u.emailVerified {
		return
	}
	u.emailVerified = true
	u.touch()
}

// Ban disables the account. Banned users are rejected by every provider
// regardless of credential correctness.
func (u *User) Ban() {
	if u.banned {
		return
	}
	u.banned = true
	u.touch()
}

// Unban reinstates a banned account.
func (u *User) Unban() {
	if !u.banned {
		return
	}
	u.banned = false
	u.touch()
}

// BindExternalID records the managed-platform user id for mirrored users.
func (u *User) BindExternalID(externalID string) error {
	if externalID == "" {
		return fmt.Errorf("external ID cannot be empty")
	}
	if u.externalID != nil && *u.externalID != externalID {
		return fmt.Errorf("user is already bound to a different external identity")
	}
	u.externalID = &externalID
	u.touch()
	return nil
}

func (u *User) touch() {
	u.updatedAt = biztime.NowUTC()
	u.version++
}
