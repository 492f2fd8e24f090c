package models

import (
	"time"

	"atrium/internal/shared/constants"
)

// LocalCredentialModel is the 1:1 password companion row of a user.
type LocalCredentialModel struct {
	ID                   uint   `gorm:"primarykey"`
	UserID               uint   `gorm:"uniqueIndex;not null"`
	PasswordHash         string `gorm:"not null;size:255"`
	FailedLoginAttempts  int    `gorm:"default:0"`
	LockedUntil          *time.Time
	LastPasswordChangeAt *time.Time
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

func (LocalCredentialModel) TableName() string {
	return constants.TableLocalCredentials
}
