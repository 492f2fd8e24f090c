package mappers

import (
	"atrium/internal/domain/setting"
	"atrium/internal/infrastructure/persistence/models"
	"atrium/internal/shared/constants"
)

func AuthSettingToEntity(model *models.AuthSettingModel) *setting.AuthSetting {
	if model == nil {
		return nil
	}
	return &setting.AuthSetting{
		ID:                       model.ID,
		ActiveProvider:           constants.Provider(model.ActiveProvider),
		GoogleEnabled:            model.GoogleEnabled,
		GitHubEnabled:            model.GitHubEnabled,
		DiscordEnabled:           model.DiscordEnabled,
		AppleEnabled:             model.AppleEnabled,
		RequireEmailVerification: model.RequireEmailVerification,
		LockoutThreshold:         model.LockoutThreshold,
		LockoutDurationMinutes:   model.LockoutDurationMinutes,
		SessionDurationHours:     model.SessionDurationHours,
		CreatedAt:                model.CreatedAt,
		UpdatedAt:                model.UpdatedAt,
	}
}

func AuthSettingToModel(entity *setting.AuthSetting) *models.AuthSettingModel {
	if entity == nil {
		return nil
	}
	return &models.AuthSettingModel{
		ID:                       entity.ID,
		ActiveProvider:           string(entity.ActiveProvider),
		GoogleEnabled:            entity.GoogleEnabled,
		GitHubEnabled:            entity.GitHubEnabled,
		DiscordEnabled:           entity.DiscordEnabled,
		AppleEnabled:             entity.AppleEnabled,
		RequireEmailVerification: entity.RequireEmailVerification,
		LockoutThreshold:         entity.LockoutThreshold,
		LockoutDurationMinutes:   entity.LockoutDurationMinutes,
		SessionDurationHours:     entity.SessionDurationHours,
		CreatedAt:                entity.CreatedAt,
		UpdatedAt:                entity.UpdatedAt,
	}
}
