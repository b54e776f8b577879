package repository

import (
	"context"

	"lumisync/internal/domain/entity"
)

type ContactRepository interface {
	Create(ctx context.Context, contact *entity.Contact) error
}
