package usecase

import (
	"context"

	"lumisync/internal/domain/entity"
	"lumisync/internal/domain/repository"
)

// ProfileUseCase reads display identities straight from the user store.
type ProfileUseCase struct {
	userRepo repository.UserRepository
}

func NewProfileUseCase(userRepo repository.UserRepository) *ProfileUseCase {
	return &ProfileUseCase{userRepo: userRepo}
}

func (uc *ProfileUseCase) Lookup(ctx context.Context, userID string) (entity.Profile, error) {
	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return entity.Profile{}, err
	}
	return user.Profile(), nil
}
