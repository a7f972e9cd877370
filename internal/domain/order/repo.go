package order

import (
	"context"

	"github.com/google/uuid"
)

// ListFilter narrows List results. Zero values mean "any".
type ListFilter struct {
	OrderNo   string
	PatientID uuid.UUID
	Status    *int
	Keyword   string // matches patient_name or hospital_name
}

type Repository interface {
	Create(ctx context.Context, o *MedicalOrder) error
	GetByID(ctx context.Context, id uuid.UUID) (*MedicalOrder, error)
	GetByOrderNo(ctx context.Context, orderNo string) (*MedicalOrder, error)
	Update(ctx context.Context, o *MedicalOrder) error
	List(ctx context.Context, filter ListFilter, limit, offset int) ([]*MedicalOrder, int, error)
	ReplaceItems(ctx context.Context, orderID uuid.UUID, items []*OrderItem) error
	ListItems(ctx context.Context, orderID uuid.UUID) ([]*OrderItem, error)
}
