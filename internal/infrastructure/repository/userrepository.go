package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"atrium/internal/domain/user"
	"atrium/internal/infrastructure/persistence/mappers"
	"atrium/internal/infrastructure/persistence/models"
	"atrium/internal/shared/db"
	"atrium/internal/shared/logger"
)

// UserRepository implements the user repository interface
type UserRepository struct {
	db     *gorm.DB
	mapper mappers.UserMapper
	logger logger.Interface
}

func NewUserRepository(gdb *gorm.DB, log logger.Interface) user.Repository {
	return &UserRepository{
		db:     gdb,
		mapper: mappers.NewUserMapper(),
		logger: log,
	}
}

func (r *UserRepository) Create(ctx context.Context, userEntity *user.User) error {
	model, err := r.mapper.ToModel(userEntity)
	if err != nil {
		return fmt.Errorf("failed to map user entity: %w", err)
	}
	model.ID = 0

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Create(model).Error; err != nil {
		r.logger.Errorw("failed to create user in database", "error", err)
		return fmt.Errorf("failed to create user: %w", err)
	}

	if err := userEntity.SetID(model.ID); err != nil {
		return fmt.Errorf("failed to set user ID: %w", err)
	}

	r.logger.Infow("user created", "id", model.ID, "sid", model.SID)
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id uint) (*user.User, error) {
	var model models.UserModel

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.First(&model, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user by ID: %w", err)
	}

	return r.mapper.ToEntity(&model)
}

func (r *UserRepository) GetBySID(ctx context.Context, sid string) (*user.User, error) {
	var model models.UserModel

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Where("sid = ?", sid).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user by SID: %w", err)
	}

	return r.mapper.ToEntity(&model)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	var model models.UserModel

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Where("email = ?", email).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return r.mapper.ToEntity(&model)
}

func (r *UserRepository) GetByExternalID(ctx context.Context, externalID string) (*user.User, error) {
	var model models.UserModel

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Where("external_id = ?", externalID).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user by external ID: %w", err)
	}

	return r.mapper.ToEntity(&model)
}

func (r *UserRepository) Update(ctx context.Context, userEntity *user.User) error {
	model, err := r.mapper.ToModel(userEntity)
	if err != nil {
		return fmt.Errorf("failed to map user entity: %w", err)
	}

	tx := db.GetTxFromContext(ctx, r.db)
	result := tx.Model(&models.UserModel{}).
		Where("id = ? AND version = ?", model.ID, model.Version).
		Updates(map[string]interface{}{
			"email":          model.Email,
			"name":           model.Name,
			"avatar_url":     model.AvatarURL,
			"email_verified": model.EmailVerified,
			"banned":         model.Banned,
			"external_id":    model.ExternalID,
			"version":        model.Version + 1,
			"updated_at":     model.UpdatedAt,
		})
	if result.Error != nil {
		r.logger.Errorw("failed to update user", "error", result.Error, "id", model.ID)
		return fmt.Errorf("failed to update user: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("user %d was modified concurrently", model.ID)
	}

	return nil
}

func (r *UserRepository) Delete(ctx context.Context, id uint) error {
	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Delete(&models.UserModel{}, id).Error; err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int64

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Model(&models.UserModel{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check user existence: %w", err)
	}
	return count > 0, nil
}
