package models

import (
	"time"

	"gorm.io/gorm"

	"atrium/internal/shared/constants"
)

// UserModel represents the database persistence model for users
// This is the anti-corruption layer between domain and database
//
// No soft delete: the unique email and external id columns must free up
// when an account is removed.
type UserModel struct {
	ID            uint    `gorm:"primarykey"`
	SID           string  `gorm:"uniqueIndex;not null;size:32"`
	Email         string  `gorm:"uniqueIndex;not null;size:255"`
	Name          string  `gorm:"not null;size:100"`
	AvatarURL     *string `gorm:"size:500"`
	EmailVerified bool    `gorm:"default:false;index:idx_email_verified"`
	Banned        bool    `gorm:"default:false"`
	ExternalID    *string `gorm:"uniqueIndex;size:64"`
	Version       int     `gorm:"not null;default:1"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (UserModel) TableName() string {
	return constants.TableUsers
}

func (u *UserModel) BeforeCreate(tx *gorm.DB) error {
	if u.Version == 0 {
		u.Version = 1
	}
	return nil
}

// BeforeUpdate increments the version for optimistic locking
func (u *UserModel) BeforeUpdate(tx *gorm.DB) error {
	tx.Statement.SetColumn("version", u.Version+1)
	return nil
}
