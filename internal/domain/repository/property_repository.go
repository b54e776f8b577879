package repository

import (
	"context"

	"lumisync/internal/domain/entity"
)

type PropertyRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Property, error)
}
