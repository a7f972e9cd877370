package patient

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var validGenders = map[string]bool{"男": true, "女": true}

type Service struct {
	patients Repository
	now      func() time.Time
}

func NewService(patients Repository) *Service {
	return &Service{patients: patients, now: time.Now}
}

// SetClock overrides the service clock; used by tests.
func (s *Service) SetClock(now func() time.Time) { s.now = now }

func validatePatient(p *Patient) error {
	if p.Name == "" {
		return fmt.Errorf("name is required")
	}
	if p.IDCard == "" {
		return fmt.Errorf("id_card is required")
	}
	if len(p.IDCard) != 18 {
		return fmt.Errorf("id_card must be 18 characters, got %d", len(p.IDCard))
	}
	if p.InsuranceType == "" {
		return fmt.Errorf("insurance_type is required")
	}
	if p.Gender != nil && !validGenders[*p.Gender] {
		return fmt.Errorf("invalid gender: %s", *p.Gender)
	}
	if p.Status != StatusActive && p.Status != StatusDeregistered {
		return fmt.Errorf("invalid patient status: %d", p.Status)
	}
	return nil
}

func (s *Service) Register(ctx context.Context, p *Patient) error {
	p.Status = StatusActive
	if err := validatePatient(p); err != nil {
		return err
	}
	if existing, err := s.patients.GetByIDCard(ctx, p.IDCard); err == nil && existing != nil {
		return fmt.Errorf("patient with id card already registered: %s", existing.PatientNo)
	}
	p.PatientNo = NewPatientNo(s.now())
	return s.patients.Create(ctx, p)
}

func (s *Service) GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.patients.GetByID(ctx, id)
}

func (s *Service) GetByIDCard(ctx context.Context, idCard string) (*Patient, error) {
	return s.patients.GetByIDCard(ctx, idCard)
}

func (s *Service) UpdatePatient(ctx context.Context, p *Patient) error {
	existing, err := s.patients.GetByID(ctx, p.ID)
	if err != nil {
		return fmt.Errorf("patient not found: %w", err)
	}
	p.PatientNo = existing.PatientNo
	p.Status = existing.Status
	if err := validatePatient(p); err != nil {
		return err
	}
	if p.IDCard != existing.IDCard {
		if other, err := s.patients.GetByIDCard(ctx, p.IDCard); err == nil && other != nil && other.ID != p.ID {
			return fmt.Errorf("patient with id card already registered: %s", other.PatientNo)
		}
	}
	return s.patients.Update(ctx, p)
}

func (s *Service) ListPatients(ctx context.Context, filter ListFilter, limit, offset int) ([]*Patient, int, error) {
	return s.patients.List(ctx, filter, limit, offset)
}

// SetPatientStatus toggles registration; status 0 is the soft delete.
func (s *Service) SetPatientStatus(ctx context.Context, id uuid.UUID, status int, updateBy string) error {
	if status != StatusActive && status != StatusDeregistered {
		return fmt.Errorf("invalid patient status: %d", status)
	}
	if _, err := s.patients.GetByID(ctx, id); err != nil {
		return fmt.Errorf("patient not found: %w", err)
	}
	return s.patients.SetStatus(ctx, id, status, updateBy)
}

// Snapshot resolves denormalized order-intake fields. It refuses
// deregistered patients so new orders cannot reference them.
func (s *Service) Snapshot(ctx context.Context, id uuid.UUID) (name, idCard, insuranceType string, err error) {
	p, err := s.patients.GetByID(ctx, id)
	if err != nil {
		return "", "", "", err
	}
	if p.Status != StatusActive {
		return "", "", "", fmt.Errorf("patient %s is deregistered", p.PatientNo)
	}
	return p.Name, p.IDCard, p.InsuranceType, nil
}
