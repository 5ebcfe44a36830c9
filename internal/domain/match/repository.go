package match

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("match record not found")

type Repository interface {
	Create(ctx context.Context, r Record) error
	GetByID(ctx context.Context, id uuid.UUID) (Record, error)
	LatestByOwner(ctx context.Context, ownerID uuid.UUID) (Record, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]Record, error)
}
