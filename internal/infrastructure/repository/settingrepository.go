package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"atrium/internal/domain/setting"
	"atrium/internal/infrastructure/persistence/mappers"
	"atrium/internal/infrastructure/persistence/models"
	"atrium/internal/shared/db"
	"atrium/internal/shared/logger"
)

// AuthSettingRepository persists the single provider-selection row.
type AuthSettingRepository struct {
	db     *gorm.DB
	logger logger.Interface
}

func NewAuthSettingRepository(gdb *gorm.DB, log logger.Interface) setting.Repository {
	return &AuthSettingRepository{db: gdb, logger: log}
}

func (r *AuthSettingRepository) Get(ctx context.Context) (*setting.AuthSetting, error) {
	var model models.AuthSettingModel

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Order("id").First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get auth settings: %w", err)
	}

	return mappers.AuthSettingToEntity(&model), nil
}

func (r *AuthSettingRepository) Save(ctx context.Context, authSetting *setting.AuthSetting) error {
	if err := authSetting.Validate(); err != nil {
		return fmt.Errorf("invalid auth settings: %w", err)
	}

	model := mappers.AuthSettingToModel(authSetting)

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Save(model).Error; err != nil {
		r.logger.Errorw("failed to save auth settings", "error", err)
		return fmt.Errorf("failed to save auth settings: %w", err)
	}
	authSetting.ID = model.ID

	r.logger.Infow("auth settings saved", "active_provider", authSetting.ActiveProvider)
	return nil
}
