package models

import (
	"time"

	"atrium/internal/shared/constants"
)

// PasswordResetTokenModel holds one-shot password reset tokens (hash only).
type PasswordResetTokenModel struct {
	ID        uint   `gorm:"primarykey"`
	UserID    uint   `gorm:"index;not null"`
	TokenHash string `gorm:"uniqueIndex;not null;size:64"`
	ExpiresAt time.Time
	CreatedAt time.Time
}

func (PasswordResetTokenModel) TableName() string {
	return constants.TablePasswordResets
}

// EmailVerificationTokenModel holds one-shot email verification tokens.
type EmailVerificationTokenModel struct {
	ID        uint   `gorm:"primarykey"`
	UserID    uint   `gorm:"index;not null"`
	TokenHash string `gorm:"uniqueIndex;not null;size:64"`
	ExpiresAt time.Time
	CreatedAt time.Time
}

func (EmailVerificationTokenModel) TableName() string {
	return constants.TableEmailVerifications
}
