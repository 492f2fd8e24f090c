package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"atrium/internal/domain/user"
	"atrium/internal/infrastructure/persistence/models"
	"atrium/internal/shared/db"
	"atrium/internal/shared/logger"
)

// OneShotTokenRepository persists reset and verification tokens in their
// purpose-specific tables.
type OneShotTokenRepository struct {
	db     *gorm.DB
	logger logger.Interface
}

func NewOneShotTokenRepository(gdb *gorm.DB, log logger.Interface) user.OneShotTokenRepository {
	return &OneShotTokenRepository{db: gdb, logger: log}
}

func (r *OneShotTokenRepository) Create(ctx context.Context, token *user.OneShotToken) error {
	tx := db.GetTxFromContext(ctx, r.db)

	switch token.Purpose {
	case user.TokenPurposeReset:
		model := models.PasswordResetTokenModel{
			UserID:    token.UserID,
			TokenHash: token.TokenHash,
			ExpiresAt: token.ExpiresAt,
			CreatedAt: token.CreatedAt,
		}
		if err := tx.Create(&model).Error; err != nil {
			return fmt.Errorf("failed to create reset token: %w", err)
		}
		token.ID = model.ID
	case user.TokenPurposeVerify:
		model := models.EmailVerificationTokenModel{
			UserID:    token.UserID,
			TokenHash: token.TokenHash,
			ExpiresAt: token.ExpiresAt,
			CreatedAt: token.CreatedAt,
		}
		if err := tx.Create(&model).Error; err != nil {
			return fmt.Errorf("failed to create verification token: %w", err)
		}
		token.ID = model.ID
	default:
		return fmt.Errorf("unknown token purpose: %s", token.Purpose)
	}

	return nil
}

// Consume fetches the token row by hash and deletes it in the same
// transaction. The delete's affected-row count is the consumption guard:
// zero rows means another request already consumed it.
func (r *OneShotTokenRepository) Consume(ctx context.Context, purpose user.TokenPurpose, tokenHash string) (*user.OneShotToken, error) {
	tx := db.GetTxFromContext(ctx, r.db)

	switch purpose {
	case user.TokenPurposeReset:
		var model models.PasswordResetTokenModel
		if err := tx.Where("token_hash = ?", tokenHash).First(&model).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil, nil
			}
			return nil, fmt.Errorf("failed to look up reset token: %w", err)
		}

		result := tx.Where("id = ?", model.ID).Delete(&models.PasswordResetTokenModel{})
		if result.Error != nil {
			return nil, fmt.Errorf("failed to consume reset token: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return nil, nil
		}

		return &user.OneShotToken{
			ID:        model.ID,
			UserID:    model.UserID,
			Purpose:   purpose,
			TokenHash: model.TokenHash,
			ExpiresAt: model.ExpiresAt,
			CreatedAt: model.CreatedAt,
		}, nil

	case user.TokenPurposeVerify:
		var model models.EmailVerificationTokenModel
		if err := tx.Where("token_hash = ?", tokenHash).First(&model).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil, nil
			}
			return nil, fmt.Errorf("failed to look up verification token: %w", err)
		}

		result := tx.Where("id = ?", model.ID).Delete(&models.EmailVerificationTokenModel{})
		if result.Error != nil {
			return nil, fmt.Errorf("failed to consume verification token: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return nil, nil
		}

		return &user.OneShotToken{
			ID:        model.ID,
			UserID:    model.UserID,
			Purpose:   purpose,
			TokenHash: model.TokenHash,
			ExpiresAt: model.ExpiresAt,
			CreatedAt: model.CreatedAt,
		}, nil

	default:
		return nil, fmt.Errorf("unknown token purpose: %s", purpose)
	}
}

func (r *OneShotTokenRepository) DeleteByUserID(ctx context.Context, purpose user.TokenPurpose, userID uint) error {
	tx := db.GetTxFromContext(ctx, r.db)

	switch purpose {
	case user.TokenPurposeReset:
		if err := tx.Where("user_id = ?", userID).Delete(&models.PasswordResetTokenModel{}).Error; err != nil {
			return fmt.Errorf("failed to delete reset tokens: %w", err)
		}
	case user.TokenPurposeVerify:
		if err := tx.Where("user_id = ?", userID).Delete(&models.EmailVerificationTokenModel{}).Error; err != nil {
			return fmt.Errorf("failed to delete verification tokens: %w", err)
		}
	default:
		return fmt.Errorf("unknown token purpose: %s", purpose)
	}
	return nil
}
