package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"atrium/internal/domain/user"
	"atrium/internal/infrastructure/persistence/mappers"
	"atrium/internal/infrastructure/persistence/models"
	"atrium/internal/shared/constants"
	"atrium/internal/shared/db"
	"atrium/internal/shared/logger"
)

// OAuthAccountRepository implements the federated identity link repository
type OAuthAccountRepository struct {
	db     *gorm.DB
	logger logger.Interface
}

func NewOAuthAccountRepository(gdb *gorm.DB, log logger.Interface) user.OAuthAccountRepository {
	return &OAuthAccountRepository{db: gdb, logger: log}
}

func (r *OAuthAccountRepository) Create(ctx context.Context, account *user.OAuthAccount) error {
	model := mappers.OAuthAccountToModel(account)
	model.ID = 0

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Create(model).Error; err != nil {
		r.logger.Errorw("failed to create oauth account",
			"error", err, "provider", account.Provider, "user_id", account.UserID)
		return fmt.Errorf("failed to create oauth account: %w", err)
	}
	account.ID = model.ID
	return nil
}

func (r *OAuthAccountRepository) GetByProviderAndUserID(ctx context.Context, provider constants.Provider, providerUserID string) (*user.OAuthAccount, error) {
	var model models.OAuthAccountModel

	tx := db.GetTxFromContext(ctx, r.db)
	err := tx.Where("provider = ? AND provider_user_id = ?", string(provider), providerUserID).
		First(&model).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get oauth account: %w", err)
	}

	return mappers.OAuthAccountToEntity(&model), nil
}

func (r *OAuthAccountRepository) GetByUserID(ctx context.Context, userID uint) ([]*user.OAuthAccount, error) {
	var accountModels []*models.OAuthAccountModel

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Where("user_id = ?", userID).Find(&accountModels).Error; err != nil {
		return nil, fmt.Errorf("failed to list oauth accounts: %w", err)
	}

	accounts := make([]*user.OAuthAccount, 0, len(accountModels))
	for _, m := range accountModels {
		accounts = append(accounts, mappers.OAuthAccountToEntity(m))
	}
	return accounts, nil
}

func (r *OAuthAccountRepository) Update(ctx context.Context, account *user.OAuthAccount) error {
	model := mappers.OAuthAccountToModel(account)

	tx := db.GetTxFromContext(ctx, r.db)
	result := tx.Model(&models.OAuthAccountModel{}).
		Where("id = ?", model.ID).
		Updates(map[string]interface{}{
			"provider_email":      model.ProviderEmail,
			"provider_avatar_url": model.ProviderAvatarURL,
			"raw_user_info":       model.RawUserInfo,
			"last_login_at":       model.LastLoginAt,
			"login_count":         model.LoginCount,
			"updated_at":          model.UpdatedAt,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update oauth account: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("oauth account %d not found", model.ID)
	}
	return nil
}

func (r *OAuthAccountRepository) DeleteByUserID(ctx context.Context, userID uint) error {
	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Where("user_id = ?", userID).Delete(&models.OAuthAccountModel{}).Error; err != nil {
		return fmt.Errorf("failed to delete oauth accounts: %w", err)
	}
	return nil
}
