package usecase

import (
	"context"
	"fmt"
	"time"

	"lumisync/internal/domain/entity"
	"lumisync/internal/domain/repository"
	"lumisync/internal/domain/service"
	"lumisync/internal/infrastructure/ratelimit"
	"lumisync/pkg/errors"
	"lumisync/pkg/logger"
)

type TicketUseCase struct {
	ticketRepo   repository.TicketRepository
	userRepo     repository.UserRepository
	propertyRepo repository.PropertyRepository
	resolver     *RoleResolver
	blobs        service.BlobStore
	rateLimiter  *ratelimit.RateLimiter
	now          func() time.Time
}

func NewTicketUseCase(
	ticketRepo repository.TicketRepository,
	userRepo repository.UserRepository,
	propertyRepo repository.PropertyRepository,
	resolver *RoleResolver,
	blobs service.BlobStore,
	rateLimiter *ratelimit.RateLimiter,
) *TicketUseCase {
	return &TicketUseCase{
		ticketRepo:   ticketRepo,
		userRepo:     userRepo,
		propertyRepo: propertyRepo,
		resolver:     resolver,
		blobs:        blobs,
		rateLimiter:  rateLimiter,
		now:          time.Now,
	}
}

type CreateTicketInput struct {
	Description      string
	Image            []byte
	ImageContentType string
}

// Create files a ticket against the author's property. A renter files
// against their tenancy, a manager against the active property. The image,
// if any, is uploaded first and a failed upload writes nothing.
func (uc *TicketUseCase) Create(ctx context.Context, kind entity.TicketKind, authorID string, input CreateTicketInput) (*entity.Ticket, error) {
	if input.Description == "" {
		return nil, errors.BadRequest("description is required", nil)
	}
	if uc.rateLimiter != nil {
		if ok, wait := uc.rateLimiter.Allow(authorID, ratelimit.ActionCreateTicket); !ok {
			return nil, errors.TooManyRequests(fmt.Sprintf("too many tickets, retry in %s", wait.Round(time.Second)))
		}
	}

	scope := uc.resolver.Resolve(ctx, authorID)
	author, err := uc.userRepo.GetByID(ctx, authorID)
	if err != nil {
		return nil, errors.NotFound("User", err)
	}

	var propertyID, room string
	switch scope.Role {
	case entity.RoleManager:
		propertyID = scope.ActivePropertyID
		if propertyID == "" && len(scope.PropertyIDs) == 1 {
			propertyID = scope.PropertyIDs[0]
		}
		room = entity.ManagerRoomLabel
	default:
		if len(scope.PropertyIDs) > 0 {
			propertyID = scope.PropertyIDs[0]
		}
		room = scope.RoomNumber
	}
	if propertyID == "" {
		return nil, errors.BadRequest("no property selected for this account", nil)
	}

	address := ""
	property, err := uc.propertyRepo.GetByID(ctx, propertyID)
	if err != nil {
		logger.Warn("Property %s unreadable while filing ticket: %v", propertyID, err)
	} else {
		address = property.DisplayText()
	}

	now := uc.now()
	ticket := &entity.Ticket{
		Kind:            kind,
		AuthorID:        authorID,
		AuthorName:      author.DisplayName(),
		AuthorRole:      scope.Role,
		PropertyID:      propertyID,
		PropertyAddress: address,
		RoomNumber:      room,
		Status:          entity.StatusOpen,
		CreatedAt:       now,
		CreatedDate:     now.Format(entity.CreatedDateLayout),
		Description:     input.Description,
	}

	if len(input.Image) > 0 {
		contentType := input.ImageContentType
		if contentType == "" {
			contentType = "image/jpeg"
		}
		path := fmt.Sprintf("%s/%s_%d.jpg", kind.ImageFolder(), authorID, now.UnixMilli())
		url, err := uc.blobs.Upload(ctx, path, input.Image, contentType)
		if err != nil {
			return nil, errors.WriteFailed("upload", path, err)
		}
		ticket.ImageURL = url
	}

	if err := uc.ticketRepo.Create(ctx, ticket); err != nil {
		return nil, err
	}

	logger.Info("Ticket %s/%s filed by %s for property %s", kind, ticket.ID, authorID, propertyID)
	return ticket, nil
}

// Get returns the ticket if the caller may see it. A ticket outside the
// caller's scope is reported as not found.
func (uc *TicketUseCase) Get(ctx context.Context, kind entity.TicketKind, userID, id string) (*entity.Ticket, error) {
	ticket, err := uc.ticketRepo.GetByID(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	if !ticket.VisibleTo(uc.resolver.Resolve(ctx, userID)) {
		return nil, errors.NotFound("Ticket", nil)
	}
	return ticket, nil
}

// UpdateStatus lets a manager whose scope holds the ticket's property set
// any status.
func (uc *TicketUseCase) UpdateStatus(ctx context.Context, kind entity.TicketKind, userID, id string, status entity.TicketStatus) (*entity.Ticket, error) {
	ticket, err := uc.ticketRepo.GetByID(ctx, kind, id)
	if err != nil {
		return nil, err
	}

	scope := uc.resolver.Resolve(ctx, userID)
	if !ticket.StatusChangeableBy(scope) {
		if ticket.VisibleTo(scope) {
			return nil, errors.Forbidden("only the property's manager can change the status", nil)
		}
		return nil, errors.NotFound("Ticket", nil)
	}

	if err := uc.ticketRepo.UpdateStatus(ctx, kind, id, status); err != nil {
		return nil, err
	}
	ticket.Status = status
	return ticket, nil
}

func (uc *TicketUseCase) Delete(ctx context.Context, kind entity.TicketKind, userID, id string) error {
	ticket, err := uc.ticketRepo.GetByID(ctx, kind, id)
	if err != nil {
		return err
	}
	if !ticket.DeletableBy(uc.resolver.Resolve(ctx, userID)) {
		return errors.NotFound("Ticket", nil)
	}
	return uc.ticketRepo.Delete(ctx, kind, id)
}
