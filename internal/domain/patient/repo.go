package patient

import (
	"context"

	"github.com/google/uuid"
)

type ListFilter struct {
	Name          string
	IDCard        string
	InsuranceType string
	Status        *int
	Keyword       string
}

type Repository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	GetByIDCard(ctx context.Context, idCard string) (*Patient, error)
	Update(ctx context.Context, p *Patient) error
	List(ctx context.Context, filter ListFilter, limit, offset int) ([]*Patient, int, error)
	SetStatus(ctx context.Context, id uuid.UUID, status int, updateBy string) error
}
