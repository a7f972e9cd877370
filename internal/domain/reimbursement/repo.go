package reimbursement

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ListFilter narrows List results. Zero values mean "any".
type ListFilter struct {
	InsuranceType string
	HospitalLevel string
	Status        *int
	Keyword       string // matches level_code or level_name
}

type LevelRepository interface {
	Create(ctx context.Context, l *Level) error
	GetByID(ctx context.Context, id uuid.UUID) (*Level, error)
	GetByCode(ctx context.Context, code string) (*Level, error)
	Update(ctx context.Context, l *Level) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter ListFilter, limit, offset int) ([]*Level, int, error)
	// ListEffective returns enabled levels whose window contains asOf.
	ListEffective(ctx context.Context, asOf time.Time) ([]*Level, error)
	SetStatus(ctx context.Context, id uuid.UUID, status int, updateBy string) error
}
