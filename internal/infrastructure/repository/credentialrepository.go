package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"atrium/internal/domain/user"
	"atrium/internal/infrastructure/persistence/mappers"
	"atrium/internal/infrastructure/persistence/models"
	"atrium/internal/shared/biztime"
	"atrium/internal/shared/db"
	"atrium/internal/shared/logger"
)

// CredentialRepository implements the local credential repository interface
type CredentialRepository struct {
	db     *gorm.DB
	logger logger.Interface
}

func NewCredentialRepository(gdb *gorm.DB, log logger.Interface) user.CredentialRepository {
	return &CredentialRepository{db: gdb, logger: log}
}

func (r *CredentialRepository) Create(ctx context.Context, credential *user.LocalCredential) error {
	model := mappers.CredentialToModel(credential)

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Create(model).Error; err != nil {
		r.logger.Errorw("failed to create credential", "error", err, "user_id", credential.UserID)
		return fmt.Errorf("failed to create credential: %w", err)
	}
	return nil
}

func (r *CredentialRepository) GetByUserID(ctx context.Context, userID uint) (*user.LocalCredential, error) {
	var model models.LocalCredentialModel

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Where("user_id = ?", userID).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get credential: %w", err)
	}

	return mappers.CredentialToEntity(&model), nil
}

func (r *CredentialRepository) Update(ctx context.Context, credential *user.LocalCredential) error {
	tx := db.GetTxFromContext(ctx, r.db)
	result := tx.Model(&models.LocalCredentialModel{}).
		Where("user_id = ?", credential.UserID).
		Updates(map[string]interface{}{
			"password_hash":           credential.PasswordHash,
			"failed_login_attempts":   credential.FailedLoginAttempts,
			"locked_until":            credential.LockedUntil,
			"last_password_change_at": credential.LastPasswordChangeAt,
			"updated_at":              credential.UpdatedAt,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update credential: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("credential for user %d not found", credential.UserID)
	}
	return nil
}

func (r *CredentialRepository) Delete(ctx context.Context, userID uint) error {
	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Where("user_id = ?", userID).Delete(&models.LocalCredentialModel{}).Error; err != nil {
		return fmt.Errorf("failed to delete credential: %w", err)
	}
	return nil
}

// RecordFailedLogin applies the counter increment and conditional lockout in
// a single UPDATE so concurrent bad-password attempts never lose counts.
func (r *CredentialRepository) RecordFailedLogin(ctx context.Context, userID uint, policy *user.SecurityPolicy) error {
	lockedUntil := biztime.NowUTC().Add(policy.LockoutDuration())

	tx := db.GetTxFromContext(ctx, r.db)
	result := tx.Model(&models.LocalCredentialModel{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{
			"failed_login_attempts": gorm.Expr("failed_login_attempts + 1"),
			"locked_until": gorm.Expr(
				"CASE WHEN failed_login_attempts + 1 >= ? THEN ? ELSE locked_until END",
				policy.LockoutThreshold, lockedUntil,
			),
			"updated_at": biztime.NowUTC(),
		})
	if result.Error != nil {
		r.logger.Errorw("failed to record failed login", "error", result.Error, "user_id", userID)
		return fmt.Errorf("failed to record failed login: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("credential for user %d not found", userID)
	}
	return nil
}
