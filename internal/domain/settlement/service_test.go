package settlement

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/medinsure/medinsure/internal/domain/order"
	"github.com/medinsure/medinsure/internal/domain/reimbursement"
)

type mockRepo struct {
	settlements []*Settlement
	audits      []*AuditEntry
}

func (m *mockRepo) Create(_ context.Context, s *Settlement) error {
	s.ID = uuid.New()
	m.settlements = append(m.settlements, s)
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Settlement, error) {
	for _, s := range m.settlements {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, fmt.Errorf("settlement %s not found", id)
}

func (m *mockRepo) GetCurrentByOrder(_ context.Context, orderID uuid.UUID) (*Settlement, error) {
	for i := len(m.settlements) - 1; i >= 0; i-- {
		s := m.settlements[i]
		if s.OrderID == orderID && !s.Superseded {
			return s, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *mockRepo) Supersede(_ context.Context, orderID uuid.UUID) error {
	for _, s := range m.settlements {
		if s.OrderID == orderID {
			s.Superseded = true
		}
	}
	return nil
}

func (m *mockRepo) SetStatus(_ context.Context, id uuid.UUID, status int) error {
	for _, s := range m.settlements {
		if s.ID == id {
			s.Status = status
			return nil
		}
	}
	return fmt.Errorf("settlement %s not found", id)
}

func (m *mockRepo) List(_ context.Context, _ ListFilter, _, _ int) ([]*Settlement, int, error) {
	return m.settlements, len(m.settlements), nil
}

func (m *mockRepo) Stats(_ context.Context, _, _ time.Time) (*Statistics, error) {
	return &Statistics{Count: len(m.settlements)}, nil
}

func (m *mockRepo) AppendAudit(_ context.Context, e *AuditEntry) error {
	e.ID = uuid.New()
	m.audits = append(m.audits, e)
	return nil
}

func (m *mockRepo) ListAudit(_ context.Context, orderID uuid.UUID) ([]*AuditEntry, error) {
	var out []*AuditEntry
	for _, e := range m.audits {
		if e.OrderID == orderID {
			out = append(out, e)
		}
	}
	return out, nil
}

type mockOrderStore struct {
	orders map[uuid.UUID]*order.MedicalOrder
}

func (m *mockOrderStore) GetByID(_ context.Context, id uuid.UUID) (*order.MedicalOrder, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, fmt.Errorf("order %s not found", id)
	}
	cp := *o
	return &cp, nil
}

type mockMatcher struct {
	level *reimbursement.Level
	err   error
}

func (m *mockMatcher) MatchEffective(_ context.Context, _, _ string) (*reimbursement.Level, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.level, nil
}

func submittedOrder() *order.MedicalOrder {
	settlementNo := "ST202406011200004321"
	o := outpatientOrder()
	o.ID = uuid.New()
	o.PatientID = uuid.New()
	o.InsuranceType = "城镇职工"
	o.HospitalLevel = "三级"
	o.SettlementNo = &settlementNo
	o.Status = order.StatusPendingReview
	return o
}

func newTestService(o *order.MedicalOrder) (*Service, *mockRepo) {
	repo := &mockRepo{}
	orders := &mockOrderStore{orders: map[uuid.UUID]*order.MedicalOrder{o.ID: o}}
	level := standardLevel()
	level.ID = uuid.New()
	svc := NewService(repo, orders, &mockMatcher{level: level})
	svc.SetClock(func() time.Time {
		return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	})
	return svc, repo
}

func TestCalculateForOrderPersistsSnapshot(t *testing.T) {
	o := submittedOrder()
	svc, repo := newTestService(o)

	rec, err := svc.CalculateForOrder(context.Background(), o.ID, "clerk-1")
	if err != nil {
		t.Fatalf("CalculateForOrder: %v", err)
	}
	if rec.SettlementNo != *o.SettlementNo {
		t.Errorf("settlement no = %q, want %q", rec.SettlementNo, *o.SettlementNo)
	}
	if rec.Status != StatusSettled {
		t.Errorf("status = %d, want settled", rec.Status)
	}
	if !rec.ActualReimbursement.Equal(dec("940")) {
		t.Errorf("actual = %s, want 940", rec.ActualReimbursement)
	}
	if !rec.SelfPayAmount.Equal(dec("260")) {
		t.Errorf("self pay = %s, want 260", rec.SelfPayAmount)
	}
	if rec.LevelCode != "LV-STD" {
		t.Errorf("level code = %q, want LV-STD", rec.LevelCode)
	}
	if rec.CreateBy == nil || *rec.CreateBy != "clerk-1" {
		t.Errorf("create_by not recorded")
	}
	if len(repo.settlements) != 1 {
		t.Fatalf("persisted %d settlements, want 1", len(repo.settlements))
	}
}

func TestCalculateForOrderRequiresSubmission(t *testing.T) {
	o := submittedOrder()
	o.Status = order.StatusPending
	svc, _ := newTestService(o)

	_, err := svc.CalculateForOrder(context.Background(), o.ID, "clerk-1")
	var stateErr *order.InvalidStateError
	if !errors.As(err, &stateErr) {
		t.Fatalf("err = %v, want InvalidStateError", err)
	}
	if stateErr.Action != "calculate" {
		t.Errorf("action = %q, want calculate", stateErr.Action)
	}
}

func TestCalculateForOrderSupersedesPrevious(t *testing.T) {
	o := submittedOrder()
	svc, repo := newTestService(o)
	ctx := context.Background()

	first, err := svc.CalculateForOrder(ctx, o.ID, "clerk-1")
	if err != nil {
		t.Fatalf("first calculation: %v", err)
	}
	second, err := svc.CalculateForOrder(ctx, o.ID, "clerk-1")
	if err != nil {
		t.Fatalf("second calculation: %v", err)
	}
	if len(repo.settlements) != 2 {
		t.Fatalf("persisted %d settlements, want 2 (append-only)", len(repo.settlements))
	}
	if !repo.settlements[0].Superseded {
		t.Error("first settlement was not superseded")
	}
	current, err := repo.GetCurrentByOrder(ctx, o.ID)
	if err != nil {
		t.Fatalf("GetCurrentByOrder: %v", err)
	}
	if current.ID != second.ID || current.ID == first.ID {
		t.Error("second calculation did not become current")
	}
}

func TestCalculateForOrderNoMatchingLevel(t *testing.T) {
	o := submittedOrder()
	svc, _ := newTestService(o)
	svc.matcher = &mockMatcher{err: &reimbursement.NoMatchingLevelError{
		InsuranceType: o.InsuranceType,
		HospitalLevel: o.HospitalLevel,
	}}

	_, err := svc.CalculateForOrder(context.Background(), o.ID, "clerk-1")
	var noMatch *reimbursement.NoMatchingLevelError
	if !errors.As(err, &noMatch) {
		t.Fatalf("err = %v, want NoMatchingLevelError", err)
	}
}

func TestRecalculateAppliesOverridesAndAudits(t *testing.T) {
	o := submittedOrder()
	svc, repo := newTestService(o)
	ctx := context.Background()

	if _, err := svc.CalculateForOrder(ctx, o.ID, "clerk-1"); err != nil {
		t.Fatalf("CalculateForOrder: %v", err)
	}

	newDeductible := dec("200")
	rec, err := svc.Recalculate(ctx, o.ID, Overrides{Deductible: &newDeductible}, "reviewer-1")
	if err != nil {
		t.Fatalf("Recalculate: %v", err)
	}
	// 1040 billable minus the overridden 200 deductible.
	if !rec.ActualReimbursement.Equal(dec("840")) {
		t.Errorf("actual = %s, want 840", rec.ActualReimbursement)
	}
	if !rec.SelfPayAmount.Equal(dec("360")) {
		t.Errorf("self pay = %s, want 360", rec.SelfPayAmount)
	}

	audits, err := repo.ListAudit(ctx, o.ID)
	if err != nil || len(audits) != 1 {
		t.Fatalf("audits = %v (err %v), want one entry", audits, err)
	}
	entry := audits[0]
	if entry.Actor != "reviewer-1" || entry.Action != "recalculate" {
		t.Errorf("entry actor/action = %q/%q", entry.Actor, entry.Action)
	}
	if !entry.BeforeActual.Equal(dec("940")) || !entry.AfterActual.Equal(dec("840")) {
		t.Errorf("before/after actual = %s/%s, want 940/840", entry.BeforeActual, entry.AfterActual)
	}
	if !strings.Contains(entry.Overrides, "deductible") {
		t.Errorf("overrides JSON %q missing deductible", entry.Overrides)
	}
}

func TestRecalculateRefusesPaidSettlement(t *testing.T) {
	o := submittedOrder()
	svc, _ := newTestService(o)
	ctx := context.Background()

	rec, err := svc.CalculateForOrder(ctx, o.ID, "clerk-1")
	if err != nil {
		t.Fatalf("CalculateForOrder: %v", err)
	}
	if err := svc.MarkPaid(ctx, rec.ID); err != nil {
		t.Fatalf("MarkPaid: %v", err)
	}

	d := dec("200")
	if _, err := svc.Recalculate(ctx, o.ID, Overrides{Deductible: &d}, "reviewer-1"); !errors.Is(err, ErrPaidImmutable) {
		t.Fatalf("err = %v, want ErrPaidImmutable", err)
	}
	if _, err := svc.CalculateForOrder(ctx, o.ID, "clerk-1"); !errors.Is(err, ErrPaidImmutable) {
		t.Fatalf("recalculation of paid order: err = %v, want ErrPaidImmutable", err)
	}
}

func TestMarkPaidTransitions(t *testing.T) {
	o := submittedOrder()
	svc, _ := newTestService(o)
	ctx := context.Background()

	rec, err := svc.CalculateForOrder(ctx, o.ID, "clerk-1")
	if err != nil {
		t.Fatalf("CalculateForOrder: %v", err)
	}
	if err := svc.MarkPaid(ctx, rec.ID); err != nil {
		t.Fatalf("MarkPaid: %v", err)
	}
	got, _ := svc.GetSettlement(ctx, rec.ID)
	if got.Status != StatusPaid {
		t.Errorf("status = %d, want paid", got.Status)
	}
	if err := svc.MarkPaid(ctx, rec.ID); !errors.Is(err, ErrPaidImmutable) {
		t.Errorf("second MarkPaid: err = %v, want ErrPaidImmutable", err)
	}
}

func TestMarkCancelledRefusesPaid(t *testing.T) {
	o := submittedOrder()
	svc, _ := newTestService(o)
	ctx := context.Background()

	rec, err := svc.CalculateForOrder(ctx, o.ID, "clerk-1")
	if err != nil {
		t.Fatalf("CalculateForOrder: %v", err)
	}
	if err := svc.MarkCancelled(ctx, rec.ID); err != nil {
		t.Fatalf("MarkCancelled: %v", err)
	}
	got, _ := svc.GetSettlement(ctx, rec.ID)
	if got.Status != StatusCancelled {
		t.Errorf("status = %d, want cancelled", got.Status)
	}
}

func TestVoidByOrderCancelsCurrent(t *testing.T) {
	o := submittedOrder()
	svc, _ := newTestService(o)
	ctx := context.Background()

	rec, err := svc.CalculateForOrder(ctx, o.ID, "clerk-1")
	if err != nil {
		t.Fatalf("CalculateForOrder: %v", err)
	}
	if err := svc.VoidByOrder(ctx, o.ID); err != nil {
		t.Fatalf("VoidByOrder: %v", err)
	}
	got, _ := svc.GetSettlement(ctx, rec.ID)
	if got.Status != StatusCancelled {
		t.Errorf("status = %d, want cancelled", got.Status)
	}
}

func TestVoidByOrderWithoutSettlementIsNoop(t *testing.T) {
	o := submittedOrder()
	svc, _ := newTestService(o)

	if err := svc.VoidByOrder(context.Background(), o.ID); err != nil {
		t.Errorf("VoidByOrder on order without settlement: %v", err)
	}
}

func TestVoidByOrderRefusesPaid(t *testing.T) {
	o := submittedOrder()
	svc, _ := newTestService(o)
	ctx := context.Background()

	rec, err := svc.CalculateForOrder(ctx, o.ID, "clerk-1")
	if err != nil {
		t.Fatalf("CalculateForOrder: %v", err)
	}
	if err := svc.MarkPaid(ctx, rec.ID); err != nil {
		t.Fatalf("MarkPaid: %v", err)
	}
	if err := svc.VoidByOrder(ctx, o.ID); !errors.Is(err, ErrPaidImmutable) {
		t.Errorf("err = %v, want ErrPaidImmutable", err)
	}
}
