package payment

import (
	"context"

	"github.com/google/uuid"
)

type ListFilter struct {
	SettlementID uuid.UUID
	OrderID      uuid.UUID
	Status       string
}

// Repository persists payment records. The table is append-only; there is
// deliberately no Update or Delete.
type Repository interface {
	Create(ctx context.Context, r *Record) error
	GetByID(ctx context.Context, id uuid.UUID) (*Record, error)
	GetByPaymentNo(ctx context.Context, paymentNo string) (*Record, error)
	List(ctx context.Context, filter ListFilter, limit, offset int) ([]*Record, int, error)
	ListBySettlement(ctx context.Context, settlementID uuid.UUID) ([]*Record, error)
}
