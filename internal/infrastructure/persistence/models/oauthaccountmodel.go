package models

import (
	"time"

	"gorm.io/datatypes"

	"atrium/internal/shared/constants"
)

// OAuthAccountModel links a user to a federated identity. RawUserInfo keeps
// the provider's last userinfo payload as JSON for debugging and support.
type OAuthAccountModel struct {
	ID                uint   `gorm:"primarykey"`
	UserID            uint   `gorm:"index;not null"`
	Provider          string `gorm:"not null;size:20;uniqueIndex:idx_provider_user"`
	ProviderUserID    string `gorm:"not null;size:255;uniqueIndex:idx_provider_user"`
	ProviderEmail     string `gorm:"size:255"`
	ProviderAvatarURL string `gorm:"size:500"`
	RawUserInfo       datatypes.JSON
	LastLoginAt       *time.Time
	LoginCount        uint `gorm:"default:1"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (OAuthAccountModel) TableName() string {
	return constants.TableOAuthAccounts
}
