package reimbursement

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// -- Mock Repository --

type mockLevelRepo struct {
	items map[uuid.UUID]*Level
}

func newMockLevelRepo() *mockLevelRepo {
	return &mockLevelRepo{items: make(map[uuid.UUID]*Level)}
}

func (m *mockLevelRepo) Create(_ context.Context, l *Level) error {
	l.ID = uuid.New()
	l.CreatedAt = time.Now()
	l.UpdatedAt = time.Now()
	m.items[l.ID] = l
	return nil
}

func (m *mockLevelRepo) GetByID(_ context.Context, id uuid.UUID) (*Level, error) {
	l, ok := m.items[id]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	return l, nil
}

func (m *mockLevelRepo) GetByCode(_ context.Context, code string) (*Level, error) {
	for _, l := range m.items {
		if l.LevelCode == code {
			return l, nil
		}
	}
	return nil, fmt.Errorf("not found")
}

func (m *mockLevelRepo) Update(_ context.Context, l *Level) error {
	m.items[l.ID] = l
	return nil
}

func (m *mockLevelRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.items, id)
	return nil
}

func (m *mockLevelRepo) List(_ context.Context, f ListFilter, limit, offset int) ([]*Level, int, error) {
	var result []*Level
	for _, l := range m.items {
		if f.InsuranceType != "" && l.InsuranceType != f.InsuranceType {
			continue
		}
		if f.Status != nil && l.Status != *f.Status {
			continue
		}
		result = append(result, l)
	}
	return result, len(result), nil
}

func (m *mockLevelRepo) ListEffective(_ context.Context, asOf time.Time) ([]*Level, error) {
	var result []*Level
	for _, l := range m.items {
		if l.IsEffective(asOf) {
			result = append(result, l)
		}
	}
	return result, nil
}

func (m *mockLevelRepo) SetStatus(_ context.Context, id uuid.UUID, status int, updateBy string) error {
	l, ok := m.items[id]
	if !ok {
		return fmt.Errorf("not found")
	}
	l.Status = status
	l.UpdateBy = &updateBy
	return nil
}

func validTestLevel(code string) *Level {
	return &Level{
		LevelCode:        code,
		LevelName:        "employee tier-3 " + code,
		InsuranceType:    "城镇职工",
		HospitalLevel:    "三级",
		Deductible:       decimal.NewFromInt(100),
		MaxReimbursement: decimal.NewFromInt(2000),
		CategoryARate:    decimal.RequireFromString("0.9"),
		CategoryBRate:    decimal.RequireFromString("0.7"),
		CategoryCRate:    decimal.Zero,
		TreatmentRate:    decimal.RequireFromString("0.7"),
		ServiceRate:      decimal.RequireFromString("0.5"),
		Status:           StatusEnabled,
		EffectiveTime:    baseTime.AddDate(-1, 0, 0),
		ExpireTime:       baseTime.AddDate(4, 0, 0),
	}
}

func newTestService(repo LevelRepository) *Service {
	svc := NewService(repo)
	svc.SetClock(func() time.Time { return baseTime })
	return svc
}

func TestCreateLevel_Valid(t *testing.T) {
	repo := newMockLevelRepo()
	svc := newTestService(repo)

	l := validTestLevel("LV001")
	if err := svc.CreateLevel(context.Background(), l); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if l.ID == uuid.Nil {
		t.Error("expected id assigned")
	}
}

func TestCreateLevel_Validation(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Level)
	}{
		{"missing code", func(l *Level) { l.LevelCode = "" }},
		{"missing insurance type", func(l *Level) { l.InsuranceType = "" }},
		{"negative deductible", func(l *Level) { l.Deductible = decimal.NewFromInt(-1) }},
		{"rate above one", func(l *Level) { l.CategoryARate = decimal.RequireFromString("1.2") }},
		{"negative rate", func(l *Level) { l.TreatmentRate = decimal.RequireFromString("-0.1") }},
		{"window inverted", func(l *Level) { l.ExpireTime = l.EffectiveTime.AddDate(-2, 0, 0) }},
		{"bad status", func(l *Level) { l.Status = 7 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMockLevelRepo()
			svc := newTestService(repo)
			l := validTestLevel("LV001")
			tt.modify(l)
			if err := svc.CreateLevel(context.Background(), l); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestCreateLevel_DuplicateCode(t *testing.T) {
	repo := newMockLevelRepo()
	svc := newTestService(repo)

	if err := svc.CreateLevel(context.Background(), validTestLevel("LV001")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := svc.CreateLevel(context.Background(), validTestLevel("LV001"))
	if err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Errorf("expected duplicate code error, got %v", err)
	}
}

func TestCopyLevel(t *testing.T) {
	repo := newMockLevelRepo()
	svc := newTestService(repo)

	original := validTestLevel("LV001")
	if err := svc.CreateLevel(context.Background(), original); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	dup, err := svc.CopyLevel(context.Background(), original.ID, "tester")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dup.LevelCode != "LV001_COPY" {
		t.Errorf("expected LV001_COPY, got %s", dup.LevelCode)
	}
	if dup.Status != StatusDisabled {
		t.Errorf("copy should start disabled, got status %d", dup.Status)
	}
	if dup.ID == original.ID {
		t.Error("copy must get its own id")
	}
	if !dup.Deductible.Equal(original.Deductible) {
		t.Errorf("copy should carry rates, deductible %s != %s", dup.Deductible, original.Deductible)
	}

	// A second copy collides on the _COPY code.
	if _, err := svc.CopyLevel(context.Background(), original.ID, "tester"); err == nil {
		t.Error("expected duplicate code error on second copy")
	}
}

func TestSetLevelStatus(t *testing.T) {
	repo := newMockLevelRepo()
	svc := newTestService(repo)

	l := validTestLevel("LV001")
	if err := svc.CreateLevel(context.Background(), l); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := svc.SetLevelStatus(context.Background(), l.ID, StatusDisabled, "tester"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, _ := repo.GetByID(context.Background(), l.ID)
	if got.Status != StatusDisabled {
		t.Errorf("expected disabled, got %d", got.Status)
	}

	if err := svc.SetLevelStatus(context.Background(), l.ID, 9, "tester"); err == nil {
		t.Error("expected error for invalid status value")
	}
}

func TestMatchEffective(t *testing.T) {
	repo := newMockLevelRepo()
	svc := newTestService(repo)

	older := validTestLevel("LV-OLD")
	older.EffectiveTime = baseTime.AddDate(-2, 0, 0)
	newer := validTestLevel("LV-NEW")
	if err := svc.CreateLevel(context.Background(), older); err != nil {
		t.Fatal(err)
	}
	if err := svc.CreateLevel(context.Background(), newer); err != nil {
		t.Fatal(err)
	}

	got, err := svc.MatchEffective(context.Background(), "城镇职工", "三级")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.LevelCode != "LV-NEW" {
		t.Errorf("expected LV-NEW, got %s", got.LevelCode)
	}
}

func TestListEffective_ExcludesDisabled(t *testing.T) {
	repo := newMockLevelRepo()
	svc := newTestService(repo)

	enabled := validTestLevel("LV-ON")
	disabled := validTestLevel("LV-OFF")
	disabled.Status = StatusDisabled
	if err := svc.CreateLevel(context.Background(), enabled); err != nil {
		t.Fatal(err)
	}
	if err := svc.CreateLevel(context.Background(), disabled); err != nil {
		t.Fatal(err)
	}

	levels, err := svc.ListEffective(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(levels) != 1 || levels[0].LevelCode != "LV-ON" {
		t.Errorf("expected only LV-ON, got %d levels", len(levels))
	}
}
