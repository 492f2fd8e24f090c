package migration

import (
	"atrium/internal/infrastructure/persistence/models"
)

func AutoMigrateModels() []interface{} {
	return []interface{}{
		&models.UserModel{},
		&models.LocalCredentialModel{},
		&models.SessionModel{},
		&models.PasswordResetTokenModel{},
		&models.EmailVerificationTokenModel{},
		&models.OAuthAccountModel{},
		&models.AuthSettingModel{},
	}
}
