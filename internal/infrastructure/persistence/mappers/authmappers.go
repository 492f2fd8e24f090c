package mappers

import (
	"gorm.io/datatypes"

	"atrium/internal/domain/user"
	"atrium/internal/infrastructure/persistence/models"
	"atrium/internal/shared/constants"
)

// CredentialToEntity converts a credential row to its domain form.
func CredentialToEntity(model *models.LocalCredentialModel) *user.LocalCredential {
	if model == nil {
		return nil
	}
	return &user.LocalCredential{
		UserID:               model.UserID,
		PasswordHash:         model.PasswordHash,
		FailedLoginAttempts:  model.FailedLoginAttempts,
		LockedUntil:          model.LockedUntil,
		LastPasswordChangeAt: model.LastPasswordChangeAt,
		CreatedAt:            model.CreatedAt,
		UpdatedAt:            model.UpdatedAt,
	}
}

// CredentialToModel converts a domain credential to its row form.
func CredentialToModel(entity *user.LocalCredential) *models.LocalCredentialModel {
	if entity == nil {
		return nil
	}
	return &models.LocalCredentialModel{
		UserID:               entity.UserID,
		PasswordHash:         entity.PasswordHash,
		FailedLoginAttempts:  entity.FailedLoginAttempts,
		LockedUntil:          entity.LockedUntil,
		LastPasswordChangeAt: entity.LastPasswordChangeAt,
		CreatedAt:            entity.CreatedAt,
		UpdatedAt:            entity.UpdatedAt,
	}
}

func SessionToEntity(model *models.SessionModel) *user.Session {
	if model == nil {
		return nil
	}
	return &user.Session{
		ID:               model.ID,
		UserID:           model.UserID,
		RefreshTokenHash: model.RefreshTokenHash,
		Active:           model.Active,
		IssuedAt:         model.IssuedAt,
		ExpiresAt:        model.ExpiresAt,
		CreatedAt:        model.CreatedAt,
		UpdatedAt:        model.UpdatedAt,
	}
}

func SessionToModel(entity *user.Session) *models.SessionModel {
	if entity == nil {
		return nil
	}
	return &models.SessionModel{
		ID:               entity.ID,
		UserID:           entity.UserID,
		RefreshTokenHash: entity.RefreshTokenHash,
		Active:           entity.Active,
		IssuedAt:         entity.IssuedAt,
		ExpiresAt:        entity.ExpiresAt,
		CreatedAt:        entity.CreatedAt,
		UpdatedAt:        entity.UpdatedAt,
	}
}

func OAuthAccountToEntity(model *models.OAuthAccountModel) *user.OAuthAccount {
	if model == nil {
		return nil
	}

	var raw *string
	if len(model.RawUserInfo) > 0 {
		s := string(model.RawUserInfo)
		raw = &s
	}

	return &user.OAuthAccount{
		ID:                model.ID,
		UserID:            model.UserID,
		Provider:          constants.Provider(model.Provider),
		ProviderUserID:    model.ProviderUserID,
		ProviderEmail:     model.ProviderEmail,
		ProviderAvatarURL: model.ProviderAvatarURL,
		RawUserInfo:       raw,
		LastLoginAt:       model.LastLoginAt,
		LoginCount:        model.LoginCount,
		CreatedAt:         model.CreatedAt,
		UpdatedAt:         model.UpdatedAt,
	}
}

func OAuthAccountToModel(entity *user.OAuthAccount) *models.OAuthAccountModel {
	if entity == nil {
		return nil
	}

	var raw datatypes.JSON
	if entity.RawUserInfo != nil {
		raw = datatypes.JSON(*entity.RawUserInfo)
	}

	return &models.OAuthAccountModel{
		ID:                entity.ID,
		UserID:            entity.UserID,
		Provider:          string(entity.Provider),
		ProviderUserID:    entity.ProviderUserID,
		ProviderEmail:     entity.ProviderEmail,
		ProviderAvatarURL: entity.ProviderAvatarURL,
		RawUserInfo:       raw,
		LastLoginAt:       entity.LastLoginAt,
		LoginCount:        entity.LoginCount,
		CreatedAt:         entity.CreatedAt,
		UpdatedAt:         entity.UpdatedAt,
	}
}
