package mappers

import (
	"fmt"

	"atrium/internal/domain/user"
	vo "atrium/internal/domain/user/valueobjects"
	"atrium/internal/infrastructure/persistence/models"
)

// UserMapper handles the conversion between domain entities and persistence models
type UserMapper interface {
	ToEntity(model *models.UserModel) (*user.User, error)
	ToModel(entity *user.User) (*models.UserModel, error)
	ToEntities(models []*models.UserModel) ([]*user.User, error)
}

type UserMapperImpl struct{}

func NewUserMapper() UserMapper {
	return &UserMapperImpl{}
}

func (m *UserMapperImpl) ToEntity(model *models.UserModel) (*user.User, error) {
	if model == nil {
		return nil, nil
	}

	email, err := vo.NewEmail(model.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to create email value object: %w", err)
	}

	name, err := vo.NewName(model.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to create name value object: %w", err)
	}

	state := user.UserState{
		AvatarURL:     model.AvatarURL,
		EmailVerified: model.EmailVerified,
		Banned:        model.Banned,
		ExternalID:    model.ExternalID,
	}

	entity, err := user.ReconstructUser(
		model.ID,
		model.SID,
		email,
		name,
		state,
		model.CreatedAt,
		model.UpdatedAt,
		model.Version,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct user entity: %w", err)
	}

	return entity, nil
}

func (m *UserMapperImpl) ToModel(entity *user.User) (*models.UserModel, error) {
	if entity == nil {
		return nil, nil
	}

	return &models.UserModel{
		ID:            entity.ID(),
		SID:           entity.SID(),
		Email:         entity.Email().String(),
		Name:          entity.Name().String(),
		AvatarURL:     entity.AvatarURL(),
		EmailVerified: entity.IsEmailVerified(),
		Banned:        entity.IsBanned(),
		ExternalID:    entity.ExternalID(),
		Version:       entity.Version(),
		CreatedAt:     entity.CreatedAt(),
		UpdatedAt:     entity.UpdatedAt(),
	}, nil
}

func (m *UserMapperImpl) ToEntities(userModels []*models.UserModel) ([]*user.User, error) {
	entities := make([]*user.User, 0, len(userModels))
	for _, model := range userModels {
		entity, err := m.ToEntity(model)
		if err != nil {
			return nil, err
		}
		entities = append(entities, entity)
	}
	return entities, nil
}
