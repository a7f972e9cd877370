package settlement

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ListFilter narrows List results. Zero values mean "any".
type ListFilter struct {
	SettlementNo string
	OrderID      uuid.UUID
	PatientID    uuid.UUID
	Status       *int
	From         *time.Time
	To           *time.Time
}

type Repository interface {
	Create(ctx context.Context, s *Settlement) error
	GetByID(ctx context.Context, id uuid.UUID) (*Settlement, error)
	// GetCurrentByOrder returns the non-superseded settlement of an order.
	GetCurrentByOrder(ctx context.Context, orderID uuid.UUID) (*Settlement, error)
	// Supersede marks every settlement of the order as replaced.
	Supersede(ctx context.Context, orderID uuid.UUID) error
	SetStatus(ctx context.Context, id uuid.UUID, status int) error
	List(ctx context.Context, filter ListFilter, limit, offset int) ([]*Settlement, int, error)
	Stats(ctx context.Context, from, to time.Time) (*Statistics, error)

	AppendAudit(ctx context.Context, e *AuditEntry) error
	ListAudit(ctx context.Context, orderID uuid.UUID) ([]*AuditEntry, error)
}
