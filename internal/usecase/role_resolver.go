package usecase

import (
	"context"

	"lumisync/internal/domain/entity"
	"lumisync/internal/domain/repository"
	"lumisync/pkg/errors"
	"lumisync/pkg/logger"
)

// RoleResolver reads a user's role and property scope. Every call goes to
// the store; scopes change when a manager switches property and must not be
// served stale.
type RoleResolver struct {
	userRepo repository.UserRepository
}

func NewRoleResolver(userRepo repository.UserRepository) *RoleResolver {
	return &RoleResolver{
		userRepo: userRepo,
	}
}

// Resolve never fails. An unreadable user or an unknown role yields the
// restricted scope: renter with no properties.
func (r *RoleResolver) Resolve(ctx context.Context, userID string) entity.Scope {
	user, err := r.userRepo.GetByID(ctx, userID)
	if err != nil {
		logger.Warn("Using restricted scope: %v", errors.ScopeResolution(userID, err))
		return entity.RestrictedScope(userID)
	}

	switch user.Role {
	case entity.RoleManager:
		return r.managerScope(user)
	case entity.RoleRenter:
		return r.renterScope(ctx, user)
	}

	logger.Info("User %s has no role, using restricted scope", userID)
	return entity.RestrictedScope(userID)
}

func (r *RoleResolver) managerScope(user *entity.User) entity.Scope {
	scope := entity.Scope{
		UserID:      user.ID,
		Role:        entity.RoleManager,
		PropertyIDs: entity.OrderedSet(user.ManagerOf),
	}
	if user.ActivePropertyID != "" {
		if scope.Includes(user.ActivePropertyID) {
			scope.ActivePropertyID = user.ActivePropertyID
		} else {
			logger.Warn("Manager %s has active property %s outside managerOf, ignoring it",
				user.ID, user.ActivePropertyID)
		}
	}
	return scope
}

// renterScope prefers renters/{uid} and falls back to the tenancy mirrored
// on the user document.
func (r *RoleResolver) renterScope(ctx context.Context, user *entity.User) entity.Scope {
	scope := entity.Scope{
		UserID:     user.ID,
		Role:       entity.RoleRenter,
		RoomNumber: user.RoomNumber,
	}
	propertyID := user.PropertyID

	tenancy, err := r.userRepo.GetTenancy(ctx, user.ID)
	switch {
	case err == nil:
		if tenancy.PropertyID != "" {
			propertyID = tenancy.PropertyID
		}
		if tenancy.RoomNumber != "" {
			scope.RoomNumber = tenancy.RoomNumber
		}
	case errors.Is(err, errors.CodeNotFound):
	default:
		logger.Warn("Tenancy for %s unreadable, using user document: %v", user.ID, errors.ScopeResolution(user.ID, err))
	}

	scope.PropertyIDs = entity.OrderedSet([]string{propertyID})
	return scope
}
