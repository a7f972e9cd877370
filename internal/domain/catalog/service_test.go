package catalog

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

type mockDrugRepo struct {
	drugs map[uuid.UUID]*Drug
}

func newMockDrugRepo() *mockDrugRepo { return &mockDrugRepo{drugs: make(map[uuid.UUID]*Drug)} }

func (m *mockDrugRepo) Create(_ context.Context, d *Drug) error {
	d.ID = uuid.New()
	cp := *d
	m.drugs[d.ID] = &cp
	return nil
}

func (m *mockDrugRepo) GetByID(_ context.Context, id uuid.UUID) (*Drug, error) {
	d, ok := m.drugs[id]
	if !ok {
		return nil, fmt.Errorf("drug %s not found", id)
	}
	cp := *d
	return &cp, nil
}

func (m *mockDrugRepo) GetByCode(_ context.Context, code string) (*Drug, error) {
	for _, d := range m.drugs {
		if d.DrugCode == code {
			cp := *d
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("drug %s not found", code)
}

func (m *mockDrugRepo) Update(_ context.Context, d *Drug) error {
	if _, ok := m.drugs[d.ID]; !ok {
		return fmt.Errorf("drug %s not found", d.ID)
	}
	cp := *d
	m.drugs[d.ID] = &cp
	return nil
}

func (m *mockDrugRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.drugs, id)
	return nil
}

func (m *mockDrugRepo) List(_ context.Context, _ ListFilter, _, _ int) ([]*Drug, int, error) {
	var out []*Drug
	for _, d := range m.drugs {
		out = append(out, d)
	}
	return out, len(out), nil
}

func (m *mockDrugRepo) SetStatus(_ context.Context, id uuid.UUID, status int) error {
	d, ok := m.drugs[id]
	if !ok {
		return fmt.Errorf("drug %s not found", id)
	}
	d.Status = status
	return nil
}

type mockEquipmentRepo struct {
	items map[uuid.UUID]*Equipment
}

func newMockEquipmentRepo() *mockEquipmentRepo {
	return &mockEquipmentRepo{items: make(map[uuid.UUID]*Equipment)}
}

func (m *mockEquipmentRepo) Create(_ context.Context, e *Equipment) error {
	e.ID = uuid.New()
	cp := *e
	m.items[e.ID] = &cp
	return nil
}

func (m *mockEquipmentRepo) GetByID(_ context.Context, id uuid.UUID) (*Equipment, error) {
	e, ok := m.items[id]
	if !ok {
		return nil, fmt.Errorf("equipment %s not found", id)
	}
	cp := *e
	return &cp, nil
}

func (m *mockEquipmentRepo) GetByCode(_ context.Context, code string) (*Equipment, error) {
	for _, e := range m.items {
		if e.EquipmentCode == code {
			cp := *e
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("equipment %s not found", code)
}

func (m *mockEquipmentRepo) Update(_ context.Context, e *Equipment) error {
	if _, ok := m.items[e.ID]; !ok {
		return fmt.Errorf("equipment %s not found", e.ID)
	}
	cp := *e
	m.items[e.ID] = &cp
	return nil
}

func (m *mockEquipmentRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.items, id)
	return nil
}

func (m *mockEquipmentRepo) List(_ context.Context, _ ListFilter, _, _ int) ([]*Equipment, int, error) {
	var out []*Equipment
	for _, e := range m.items {
		out = append(out, e)
	}
	return out, len(out), nil
}

func (m *mockEquipmentRepo) SetStatus(_ context.Context, id uuid.UUID, status int) error {
	e, ok := m.items[id]
	if !ok {
		return fmt.Errorf("equipment %s not found", id)
	}
	e.Status = status
	return nil
}

type mockServiceRepo struct {
	items map[uuid.UUID]*MedicalService
}

func newMockServiceRepo() *mockServiceRepo {
	return &mockServiceRepo{items: make(map[uuid.UUID]*MedicalService)}
}

func (m *mockServiceRepo) Create(_ context.Context, s *MedicalService) error {
	s.ID = uuid.New()
	cp := *s
	m.items[s.ID] = &cp
	return nil
}

func (m *mockServiceRepo) GetByID(_ context.Context, id uuid.UUID) (*MedicalService, error) {
	s, ok := m.items[id]
	if !ok {
		return nil, fmt.Errorf("service %s not found", id)
	}
	cp := *s
	return &cp, nil
}

func (m *mockServiceRepo) GetByCode(_ context.Context, code string) (*MedicalService, error) {
	for _, s := range m.items {
		if s.ServiceCode == code {
			cp := *s
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("service %s not found", code)
}

func (m *mockServiceRepo) Update(_ context.Context, s *MedicalService) error {
	if _, ok := m.items[s.ID]; !ok {
		return fmt.Errorf("service %s not found", s.ID)
	}
	cp := *s
	m.items[s.ID] = &cp
	return nil
}

func (m *mockServiceRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.items, id)
	return nil
}

func (m *mockServiceRepo) List(_ context.Context, _ ListFilter, _, _ int) ([]*MedicalService, int, error) {
	var out []*MedicalService
	for _, s := range m.items {
		out = append(out, s)
	}
	return out, len(out), nil
}

func (m *mockServiceRepo) SetStatus(_ context.Context, id uuid.UUID, status int) error {
	s, ok := m.items[id]
	if !ok {
		return fmt.Errorf("service %s not found", id)
	}
	s.Status = status
	return nil
}

func newTestService() *Service {
	return NewService(newMockDrugRepo(), newMockEquipmentRepo(), newMockServiceRepo())
}

func validDrug() *Drug {
	return &Drug{
		DrugCode:     "D-0001",
		DrugName:     "阿莫西林胶囊",
		DrugType:     DrugTypeA,
		SelfPayRatio: dec("0"),
		Price:        dec("12.50"),
		Status:       StatusEnabled,
	}
}

func TestCreateDrugValidation(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Drug)
	}{
		{"missing code", func(d *Drug) { d.DrugCode = "" }},
		{"missing name", func(d *Drug) { d.DrugName = "" }},
		{"bad type", func(d *Drug) { d.DrugType = "丁" }},
		{"ratio above one", func(d *Drug) { d.SelfPayRatio = dec("1.5") }},
		{"negative price", func(d *Drug) { d.Price = dec("-1") }},
		{"bad status", func(d *Drug) { d.Status = 9 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := newTestService()
			d := validDrug()
			tc.mutate(d)
			if err := svc.CreateDrug(context.Background(), d); err == nil {
				t.Error("CreateDrug succeeded, want validation error")
			}
		})
	}
}

func TestCreateDrugRejectsDuplicateCode(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	if err := svc.CreateDrug(ctx, validDrug()); err != nil {
		t.Fatalf("CreateDrug: %v", err)
	}
	dup := validDrug()
	dup.DrugName = "氨苄西林胶囊"
	if err := svc.CreateDrug(ctx, dup); err == nil {
		t.Error("duplicate drug code accepted")
	}
}

func TestUpdateDrugAllowsOwnCode(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	d := validDrug()
	if err := svc.CreateDrug(ctx, d); err != nil {
		t.Fatalf("CreateDrug: %v", err)
	}
	d.Price = dec("13.00")
	if err := svc.UpdateDrug(ctx, d); err != nil {
		t.Fatalf("UpdateDrug with unchanged code: %v", err)
	}
}

func TestSetDrugStatusToggles(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	d := validDrug()
	if err := svc.CreateDrug(ctx, d); err != nil {
		t.Fatalf("CreateDrug: %v", err)
	}
	if err := svc.SetDrugStatus(ctx, d.ID, StatusDisabled); err != nil {
		t.Fatalf("SetDrugStatus: %v", err)
	}
	got, _ := svc.GetDrug(ctx, d.ID)
	if got.Status != StatusDisabled {
		t.Errorf("status = %d, want disabled", got.Status)
	}
	if err := svc.SetDrugStatus(ctx, d.ID, 5); err == nil {
		t.Error("status 5 accepted")
	}
}

func TestCreateEquipmentAndService(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	e := &Equipment{EquipmentCode: "E-0001", EquipmentName: "轮椅", Price: dec("350"), Status: StatusEnabled}
	if err := svc.CreateEquipment(ctx, e); err != nil {
		t.Fatalf("CreateEquipment: %v", err)
	}
	if err := svc.CreateEquipment(ctx, &Equipment{EquipmentCode: "E-0001", EquipmentName: "担架", Price: dec("100"), Status: StatusEnabled}); err == nil {
		t.Error("duplicate equipment code accepted")
	}

	m := &MedicalService{ServiceCode: "S-0001", ServiceName: "静脉输液", Price: dec("8"), Status: StatusEnabled}
	if err := svc.CreateService(ctx, m); err != nil {
		t.Fatalf("CreateService: %v", err)
	}
	if err := svc.CreateService(ctx, &MedicalService{ServiceCode: "S-0001", ServiceName: "肌肉注射", Price: dec("5"), Status: StatusEnabled}); err == nil {
		t.Error("duplicate service code accepted")
	}
	if err := svc.CreateService(ctx, &MedicalService{ServiceCode: "S-0002", ServiceName: "彩超", Price: dec("-80"), Status: StatusEnabled}); err == nil {
		t.Error("negative service price accepted")
	}
}

func TestDeleteEquipmentIsHardDelete(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	e := &Equipment{EquipmentCode: "E-0002", EquipmentName: "血压计", Price: dec("99"), Status: StatusEnabled}
	if err := svc.CreateEquipment(ctx, e); err != nil {
		t.Fatalf("CreateEquipment: %v", err)
	}
	if err := svc.DeleteEquipment(ctx, e.ID); err != nil {
		t.Fatalf("DeleteEquipment: %v", err)
	}
	if _, err := svc.GetEquipment(ctx, e.ID); err == nil {
		t.Error("equipment still retrievable after delete")
	}
}
