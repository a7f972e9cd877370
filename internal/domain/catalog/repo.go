package catalog

import (
	"context"

	"github.com/google/uuid"
)

// ListFilter applies to all three catalogs; Keyword searches code and name.
type ListFilter struct {
	Keyword string
	Status  *int
}

type DrugRepository interface {
	Create(ctx context.Context, d *Drug) error
	GetByID(ctx context.Context, id uuid.UUID) (*Drug, error)
	GetByCode(ctx context.Context, code string) (*Drug, error)
	Update(ctx context.Context, d *Drug) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter ListFilter, limit, offset int) ([]*Drug, int, error)
	SetStatus(ctx context.Context, id uuid.UUID, status int) error
}

type EquipmentRepository interface {
	Create(ctx context.Context, e *Equipment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Equipment, error)
	GetByCode(ctx context.Context, code string) (*Equipment, error)
	Update(ctx context.Context, e *Equipment) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter ListFilter, limit, offset int) ([]*Equipment, int, error)
	SetStatus(ctx context.Context, id uuid.UUID, status int) error
}

type ServiceRepository interface {
	Create(ctx context.Context, s *MedicalService) error
	GetByID(ctx context.Context, id uuid.UUID) (*MedicalService, error)
	GetByCode(ctx context.Context, code string) (*MedicalService, error)
	Update(ctx context.Context, s *MedicalService) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter ListFilter, limit, offset int) ([]*MedicalService, int, error)
	SetStatus(ctx context.Context, id uuid.UUID, status int) error
}
