package room

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, r *Room) error
	GetByID(ctx context.Context, clinicID, id uuid.UUID) (*Room, error)
	Update(ctx context.Context, r *Room) error
	List(ctx context.Context, clinicID uuid.UUID) ([]*Room, error)
}
