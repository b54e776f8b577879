package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"lumisync/internal/domain/entity"
	"lumisync/internal/domain/repository"
	"lumisync/internal/infrastructure/ratelimit"
	"lumisync/pkg/errors"
	"lumisync/pkg/logger"
)

// ContactUseCase writes the custom part of the contact directory. Renters
// only read it.
type ContactUseCase struct {
	contactRepo repository.ContactRepository
	resolver    *RoleResolver
	rateLimiter *ratelimit.RateLimiter
	now         func() time.Time
}

func NewContactUseCase(
	contactRepo repository.ContactRepository,
	resolver *RoleResolver,
	rateLimiter *ratelimit.RateLimiter,
) *ContactUseCase {
	return &ContactUseCase{
		contactRepo: contactRepo,
		resolver:    resolver,
		rateLimiter: rateLimiter,
		now:         time.Now,
	}
}

type AddContactInput struct {
	Name         string
	Phone        string
	Email        string
	PropertyName string
}

func (uc *ContactUseCase) Add(ctx context.Context, userID string, input AddContactInput) (*entity.Contact, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, errors.BadRequest("contact name is required", nil)
	}

	scope := uc.resolver.Resolve(ctx, userID)
	if !scope.IsManager() {
		return nil, errors.Forbidden("only property managers can add contacts", nil)
	}

	if uc.rateLimiter != nil {
		if ok, wait := uc.rateLimiter.Allow(userID, ratelimit.ActionAddContact); !ok {
			logger.Info("AddContact rate limited: user %s must wait %v", userID, wait)
			return nil, errors.TooManyRequests(fmt.Sprintf("too many contacts added, retry in %s", wait.Round(time.Second)))
		}
	}

	contact := &entity.Contact{
		Name:         name,
		Phone:        strings.TrimSpace(input.Phone),
		Email:        strings.TrimSpace(input.Email),
		PropertyName: strings.TrimSpace(input.PropertyName),
		CreatedByID:  userID,
		CreatedAt:    uc.now(),
	}
	if err := uc.contactRepo.Create(ctx, contact); err != nil {
		return nil, err
	}

	logger.Info("Contact %s added by %s", contact.ID, userID)
	return contact, nil
}
