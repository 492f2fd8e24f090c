package models

import (
	"time"

	"atrium/internal/shared/constants"
)

// SessionModel stores one refresh-token session per row. The refresh token
// itself is never persisted; only its SHA-256 hash is.
type SessionModel struct {
	ID               string `gorm:"primarykey;size:32"`
	UserID           uint   `gorm:"index;not null"`
	RefreshTokenHash string `gorm:"uniqueIndex;not null;size:64"`
	Active           bool   `gorm:"default:true;index"`
	IssuedAt         time.Time
	ExpiresAt        time.Time `gorm:"index"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (SessionModel) TableName() string {
	return constants.TableSessions
}
