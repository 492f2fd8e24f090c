package user

import (
	"fmt"
	"time"

	"atrium/internal/shared/biztime"
	"atrium/internal/shared/constants"
)

// OAuthAccount links a user to one federated identity provider.
type OAuthAccount struct {
	ID                uint
	UserID            uint
	Provider          constants.Provider
	ProviderUserID    string
	ProviderEmail     string
	ProviderAvatarURL string
	RawUserInfo       *string
	LastLoginAt       *time.Time
	LoginCount        uint
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func NewOAuthAccount(userID uint, provider constants.Provider, providerUserID, providerEmail string) (*OAuthAccount, error) {
	if userID == 0 {
		return nil, fmt.Errorf("user ID is required")
	}
	if !provider.IsOAuth() {
		return nil, fmt.Errorf("provider %q is not an OAuth provider", provider)
	}
	if providerUserID == "" {
		return nil, fmt.Errorf("provider user ID is required")
	}

	now := biztime.NowUTC()
	return &OAuthAccount{
		UserID:         userID,
		Provider:       provider,
		ProviderUserID: providerUserID,
		ProviderEmail:  providerEmail,
		LoginCount:     1,
		LastLoginAt:    &now,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

func (o *OAuthAccount) RecordLogin() {
	o.LoginCount++
	now := biztime.NowUTC()
	o.LastLoginAt = &now
	o.UpdatedAt = now
}
