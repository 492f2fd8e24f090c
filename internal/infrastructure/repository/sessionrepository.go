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

// SessionRepository implements the session repository interface
type SessionRepository struct {
	db     *gorm.DB
	logger logger.Interface
}

func NewSessionRepository(gdb *gorm.DB, log logger.Interface) user.SessionRepository {
	return &SessionRepository{db: gdb, logger: log}
}

func (r *SessionRepository) Create(ctx context.Context, session *user.Session) error {
	model := mappers.SessionToModel(session)

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Create(model).Error; err != nil {
		r.logger.Errorw("failed to create session", "error", err, "user_id", session.UserID)
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

func (r *SessionRepository) GetByID(ctx context.Context, sessionID string) (*user.Session, error) {
	var model models.SessionModel

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Where("id = ?", sessionID).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	return mappers.SessionToEntity(&model), nil
}

func (r *SessionRepository) GetByRefreshTokenHash(ctx context.Context, refreshTokenHash string) (*user.Session, error) {
	var model models.SessionModel

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Where("refresh_token_hash = ?", refreshTokenHash).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get session by refresh token: %w", err)
	}

	return mappers.SessionToEntity(&model), nil
}

func (r *SessionRepository) GetActiveByUserID(ctx context.Context, userID uint) ([]*user.Session, error) {
	var sessionModels []*models.SessionModel

	tx := db.GetTxFromContext(ctx, r.db)
	err := tx.Where("user_id = ? AND active = ? AND expires_at > ?", userID, true, biztime.NowUTC()).
		Find(&sessionModels).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list active sessions: %w", err)
	}

	sessions := make([]*user.Session, 0, len(sessionModels))
	for _, m := range sessionModels {
		sessions = append(sessions, mappers.SessionToEntity(m))
	}
	return sessions, nil
}

// Retire deactivates the session with a guard on the prior active state, so
// two refreshes holding the same stale row cannot both rotate it.
func (r *SessionRepository) Retire(ctx context.Context, sessionID string) (bool, error) {
	tx := db.GetTxFromContext(ctx, r.db)
	result := tx.Model(&models.SessionModel{}).
		Where("id = ? AND active = ?", sessionID, true).
		Updates(map[string]interface{}{
			"active":     false,
			"updated_at": biztime.NowUTC(),
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to retire session: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (r *SessionRepository) DeactivateByUserID(ctx context.Context, userID uint) error {
	tx := db.GetTxFromContext(ctx, r.db)
	err := tx.Model(&models.SessionModel{}).
		Where("user_id = ? AND active = ?", userID, true).
		Updates(map[string]interface{}{
			"active":     false,
			"updated_at": biztime.NowUTC(),
		}).Error
	if err != nil {
		return fmt.Errorf("failed to deactivate sessions: %w", err)
	}
	return nil
}

func (r *SessionRepository) DeleteByUserID(ctx context.Context, userID uint) error {
	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Where("user_id = ?", userID).Delete(&models.SessionModel{}).Error; err != nil {
		return fmt.Errorf("failed to delete sessions: %w", err)
	}
	return nil
}

func (r *SessionRepository) DeleteExpired(ctx context.Context) error {
	tx := db.GetTxFromContext(ctx, r.db)
	result := tx.Where("expires_at < ?", biztime.NowUTC()).Delete(&models.SessionModel{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete expired sessions: %w", result.Error)
	}
	if result.RowsAffected > 0 {
		r.logger.Infow("expired sessions purged", "count", result.RowsAffected)
	}
	return nil
}
