package catalog

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var one = decimal.NewFromInt(1)

var validDrugTypes = map[string]bool{
	DrugTypeA: true,
	DrugTypeB: true,
	DrugTypeC: true,
}

// Service covers all three catalogs; they share validation and status rules.
type Service struct {
	drugs     DrugRepository
	equipment EquipmentRepository
	services  ServiceRepository
}

func NewService(drugs DrugRepository, equipment EquipmentRepository, services ServiceRepository) *Service {
	return &Service{drugs: drugs, equipment: equipment, services: services}
}

func validStatus(status int) bool {
	return status == StatusEnabled || status == StatusDisabled
}

func validateDrug(d *Drug) error {
	if d.DrugCode == "" {
		return fmt.Errorf("drug_code is required")
	}
	if d.DrugName == "" {
		return fmt.Errorf("drug_name is required")
	}
	if !validDrugTypes[d.DrugType] {
		return fmt.Errorf("drug_type must be 甲, 乙 or 丙, got %q", d.DrugType)
	}
	if d.SelfPayRatio.IsNegative() || d.SelfPayRatio.GreaterThan(one) {
		return fmt.Errorf("self_pay_ratio must be a fraction in [0,1], got %s", d.SelfPayRatio)
	}
	if d.Price.IsNegative() {
		return fmt.Errorf("price must not be negative")
	}
	if !validStatus(d.Status) {
		return fmt.Errorf("invalid drug status: %d", d.Status)
	}
	return nil
}

func (s *Service) CreateDrug(ctx context.Context, d *Drug) error {
	if err := validateDrug(d); err != nil {
		return err
	}
	if existing, err := s.drugs.GetByCode(ctx, d.DrugCode); err == nil && existing != nil {
		return fmt.Errorf("drug code already exists: %s", d.DrugCode)
	}
	return s.drugs.Create(ctx, d)
}

func (s *Service) GetDrug(ctx context.Context, id uuid.UUID) (*Drug, error) {
	return s.drugs.GetByID(ctx, id)
}

func (s *Service) UpdateDrug(ctx context.Context, d *Drug) error {
	if err := validateDrug(d); err != nil {
		return err
	}
	if existing, err := s.drugs.GetByCode(ctx, d.DrugCode); err == nil && existing != nil && existing.ID != d.ID {
		return fmt.Errorf("drug code already exists: %s", d.DrugCode)
	}
	return s.drugs.Update(ctx, d)
}

func (s *Service) DeleteDrug(ctx context.Context, id uuid.UUID) error {
	return s.drugs.Delete(ctx, id)
}

func (s *Service) ListDrugs(ctx context.Context, filter ListFilter, limit, offset int) ([]*Drug, int, error) {
	return s.drugs.List(ctx, filter, limit, offset)
}

func (s *Service) SetDrugStatus(ctx context.Context, id uuid.UUID, status int) error {
	if !validStatus(status) {
		return fmt.Errorf("invalid drug status: %d", status)
	}
	return s.drugs.SetStatus(ctx, id, status)
}

func validateEquipment(e *Equipment) error {
	if e.EquipmentCode == "" {
		return fmt.Errorf("equipment_code is required")
	}
	if e.EquipmentName == "" {
		return fmt.Errorf("equipment_name is required")
	}
	if e.Price.IsNegative() {
		return fmt.Errorf("price must not be negative")
	}
	if !validStatus(e.Status) {
		return fmt.Errorf("invalid equipment status: %d", e.Status)
	}
	return nil
}

func (s *Service) CreateEquipment(ctx context.Context, e *Equipment) error {
	if err := validateEquipment(e); err != nil {
		return err
	}
	if existing, err := s.equipment.GetByCode(ctx, e.EquipmentCode); err == nil && existing != nil {
		return fmt.Errorf("equipment code already exists: %s", e.EquipmentCode)
	}
	return s.equipment.Create(ctx, e)
}

func (s *Service) GetEquipment(ctx context.Context, id uuid.UUID) (*Equipment, error) {
	return s.equipment.GetByID(ctx, id)
}

func (s *Service) UpdateEquipment(ctx context.Context, e *Equipment) error {
	if err := validateEquipment(e); err != nil {
		return err
	}
	if existing, err := s.equipment.GetByCode(ctx, e.EquipmentCode); err == nil && existing != nil && existing.ID != e.ID {
		return fmt.Errorf("equipment code already exists: %s", e.EquipmentCode)
	}
	return s.equipment.Update(ctx, e)
}

func (s *Service) DeleteEquipment(ctx context.Context, id uuid.UUID) error {
	return s.equipment.Delete(ctx, id)
}

func (s *Service) ListEquipment(ctx context.Context, filter ListFilter, limit, offset int) ([]*Equipment, int, error) {
	return s.equipment.List(ctx, filter, limit, offset)
}

func (s *Service) SetEquipmentStatus(ctx context.Context, id uuid.UUID, status int) error {
	if !validStatus(status) {
		return fmt.Errorf("invalid equipment status: %d", status)
	}
	return s.equipment.SetStatus(ctx, id, status)
}

func validateService(m *MedicalService) error {
	if m.ServiceCode == "" {
		return fmt.Errorf("service_code is required")
	}
	if m.ServiceName == "" {
		return fmt.Errorf("service_name is required")
	}
	if m.Price.IsNegative() {
		return fmt.Errorf("price must not be negative")
	}
	if !validStatus(m.Status) {
		return fmt.Errorf("invalid service status: %d", m.Status)
	}
	return nil
}

func (s *Service) CreateService(ctx context.Context, m *MedicalService) error {
	if err := validateService(m); err != nil {
		return err
	}
	if existing, err := s.services.GetByCode(ctx, m.ServiceCode); err == nil && existing != nil {
		return fmt.Errorf("service code already exists: %s", m.ServiceCode)
	}
	return s.services.Create(ctx, m)
}

func (s *Service) GetService(ctx context.Context, id uuid.UUID) (*MedicalService, error) {
	return s.services.GetByID(ctx, id)
}

func (s *Service) UpdateService(ctx context.Context, m *MedicalService) error {
	if err := validateService(m); err != nil {
		return err
	}
	if existing, err := s.services.GetByCode(ctx, m.ServiceCode); err == nil && existing != nil && existing.ID != m.ID {
		return fmt.Errorf("service code already exists: %s", m.ServiceCode)
	}
	return s.services.Update(ctx, m)
}

func (s *Service) DeleteService(ctx context.Context, id uuid.UUID) error {
	return s.services.Delete(ctx, id)
}

func (s *Service) ListServices(ctx context.Context, filter ListFilter, limit, offset int) ([]*MedicalService, int, error) {
	return s.services.List(ctx, filter, limit, offset)
}

func (s *Service) SetServiceStatus(ctx context.Context, id uuid.UUID, status int) error {
	if !validStatus(status) {
		return fmt.Errorf("invalid service status: %d", status)
	}
	return s.services.SetStatus(ctx, id, status)
}
