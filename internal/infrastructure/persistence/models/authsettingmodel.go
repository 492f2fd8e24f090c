package models

import (
	"time"

	"atrium/internal/shared/constants"
)

// AuthSettingModel is the single persisted provider-selection row.
type AuthSettingModel struct {
	ID                       uint   `gorm:"primarykey"`
	ActiveProvider           string `gorm:"not null;size:20"`
	GoogleEnabled            bool   `gorm:"default:false"`
	GitHubEnabled            bool   `gorm:"default:false"`
	DiscordEnabled           bool   `gorm:"default:false"`
	AppleEnabled             bool   `gorm:"default:false"`
	RequireEmailVerification bool   `gorm:"default:true"`
	LockoutThreshold         int    `gorm:"default:5"`
	LockoutDurationMinutes   int    `gorm:"default:15"`
	SessionDurationHours     int    `gorm:"default:168"`
	CreatedAt                time.Time
	UpdatedAt                time.Time
}

func (AuthSettingModel) TableName() string {
	return constants.TableAuthSettings
}
