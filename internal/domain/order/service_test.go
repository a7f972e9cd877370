package order

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
)

// -- Mock Repository --

type mockRepo struct {
	orders map[uuid.UUID]*MedicalOrder
	items  map[uuid.UUID][]*OrderItem
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		orders: make(map[uuid.UUID]*MedicalOrder),
		items:  make(map[uuid.UUID][]*OrderItem),
	}
}

func (m *mockRepo) Create(_ context.Context, o *MedicalOrder) error {
	o.ID = uuid.New()
	o.CreatedAt = time.Now()
	o.UpdatedAt = time.Now()
	m.orders[o.ID] = o
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*MedicalOrder, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	cp := *o
	return &cp, nil
}

func (m *mockRepo) GetByOrderNo(_ context.Context, orderNo string) (*MedicalOrder, error) {
	for _, o := range m.orders {
		if o.OrderNo == orderNo {
			cp := *o
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("not found")
}

func (m *mockRepo) Update(_ context.Context, o *MedicalOrder) error {
	if _, ok := m.orders[o.ID]; !ok {
		return fmt.Errorf("not found")
	}
	m.orders[o.ID] = o
	return nil
}

func (m *mockRepo) List(_ context.Context, f ListFilter, limit, offset int) ([]*MedicalOrder, int, error) {
	var result []*MedicalOrder
	for _, o := range m.orders {
		if f.Status != nil && o.Status != *f.Status {
			continue
		}
		result = append(result, o)
	}
	return result, len(result), nil
}

func (m *mockRepo) ReplaceItems(_ context.Context, orderID uuid.UUID, items []*OrderItem) error {
	m.items[orderID] = items
	return nil
}

func (m *mockRepo) ListItems(_ context.Context, orderID uuid.UUID) ([]*OrderItem, error) {
	return m.items[orderID], nil
}

type mockDirectory struct{}

func (mockDirectory) Snapshot(_ context.Context, id uuid.UUID) (string, string, string, error) {
	return "李四", "110101199001011234", "城乡居民", nil
}

func newTestService(repo Repository) *Service {
	svc := NewService(repo)
	svc.SetClock(func() time.Time { return testTime })
	return svc
}

func TestCreateOrder_AssignsNumberAndTotal(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)

	o := pendingOrder()
	o.ID = uuid.Nil
	o.OrderNo = ""
	o.Status = 99 // client-supplied status is ignored

	if err := svc.CreateOrder(context.Background(), o); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if o.OrderNo == "" {
		t.Error("expected order number assigned")
	}
	if o.Status != StatusPending {
		t.Errorf("expected pending, got %d", o.Status)
	}
	if !o.TotalAmount.Equal(o.DrugAmount.Add(o.TreatmentAmount).Add(o.ServiceAmount).Add(o.OtherAmount)) {
		t.Error("expected total recomputed from buckets")
	}
}

func TestCreateOrder_SnapshotsPatient(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)
	svc.SetPatientDirectory(mockDirectory{})

	o := pendingOrder()
	o.PatientName = ""
	o.InsuranceType = ""
	if err := svc.CreateOrder(context.Background(), o); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if o.PatientName != "李四" {
		t.Errorf("expected name from registry, got %s", o.PatientName)
	}
	if o.InsuranceType != "城乡居民" {
		t.Errorf("expected insurance type from registry, got %s", o.InsuranceType)
	}
}

func TestCreateOrder_RejectsUnknownType(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)

	o := pendingOrder()
	o.OrderType = "体检"
	var vErr *ValidationError
	if err := svc.CreateOrder(context.Background(), o); !errors.As(err, &vErr) {
		t.Errorf("expected ValidationError, got %v", err)
	}
}

func TestSubmit_AssignsSettlementNo(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)

	o := pendingOrder()
	if err := svc.CreateOrder(context.Background(), o); err != nil {
		t.Fatal(err)
	}

	got, err := svc.Submit(context.Background(), o.ID, "clerk-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != StatusPendingReview {
		t.Errorf("expected pending review, got %d", got.Status)
	}
	if got.SettlementNo == nil || (*got.SettlementNo)[:2] != "ST" {
		t.Error("expected ST settlement number")
	}

	// Re-submission of an already submitted order fails.
	_, err = svc.Submit(context.Background(), o.ID, "clerk-1")
	var sErr *InvalidStateError
	if !errors.As(err, &sErr) {
		t.Errorf("expected InvalidStateError on resubmit, got %v", err)
	}
}

func TestLifecycle_FullFlow(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)

	o := pendingOrder()
	if err := svc.CreateOrder(context.Background(), o); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Submit(context.Background(), o.ID, "clerk-1"); err != nil {
		t.Fatal(err)
	}
	got, err := svc.Approve(context.Background(), o.ID, "approved", "standard case", "reviewer-1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != StatusSettled {
		t.Fatalf("expected settled, got %d", got.Status)
	}
	got, err = svc.Complete(context.Background(), o.ID, "cashier-1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != StatusPaid {
		t.Fatalf("expected paid, got %d", got.Status)
	}
	if got.UpdateBy == nil || *got.UpdateBy != "cashier-1" {
		t.Error("expected actor recorded on update")
	}

	// Paid orders are frozen.
	if _, err := svc.Cancel(context.Background(), o.ID, "refund", "admin"); err == nil {
		t.Error("expected cancel on paid order to fail")
	}
}

func TestCancel_Idempotent(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)

	o := pendingOrder()
	if err := svc.CreateOrder(context.Background(), o); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Cancel(context.Background(), o.ID, "duplicate intake", "clerk-1"); err != nil {
		t.Fatal(err)
	}
	got, err := svc.Cancel(context.Background(), o.ID, "again", "clerk-1")
	if err != nil {
		t.Fatalf("expected idempotent cancel, got %v", err)
	}
	if got.Status != StatusCancelled {
		t.Errorf("expected cancelled, got %d", got.Status)
	}
}

func TestUpdateOrder_OnlyWhilePending(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)

	o := pendingOrder()
	if err := svc.CreateOrder(context.Background(), o); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Submit(context.Background(), o.ID, "clerk-1"); err != nil {
		t.Fatal(err)
	}

	edit := *o
	var sErr *InvalidStateError
	if err := svc.UpdateOrder(context.Background(), &edit); !errors.As(err, &sErr) {
		t.Errorf("expected InvalidStateError, got %v", err)
	}
}

type mockVoider struct {
	voided []uuid.UUID
	err    error
}

func (m *mockVoider) VoidByOrder(_ context.Context, orderID uuid.UUID) error {
	if m.err != nil {
		return m.err
	}
	m.voided = append(m.voided, orderID)
	return nil
}

func TestCancel_VoidsSettlement(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)
	voider := &mockVoider{}
	svc.SetSettlementVoider(voider)

	o := pendingOrder()
	if err := svc.CreateOrder(context.Background(), o); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Submit(context.Background(), o.ID, "clerk-1"); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Approve(context.Background(), o.ID, "approved", "standard case", "reviewer-1"); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Cancel(context.Background(), o.ID, "billing dispute", "admin"); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if len(voider.voided) != 1 || voider.voided[0] != o.ID {
		t.Errorf("expected settlement voided for order %s, got %v", o.ID, voider.voided)
	}

	// Other transitions never touch the settlement.
	o2 := pendingOrder()
	if err := svc.CreateOrder(context.Background(), o2); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Submit(context.Background(), o2.ID, "clerk-1"); err != nil {
		t.Fatal(err)
	}
	if len(voider.voided) != 1 {
		t.Errorf("expected no additional voids, got %v", voider.voided)
	}
}

func TestCancel_VoidFailureSurfaces(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)
	voider := &mockVoider{err: errors.New("settlement store down")}
	svc.SetSettlementVoider(voider)

	o := pendingOrder()
	if err := svc.CreateOrder(context.Background(), o); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Cancel(context.Background(), o.ID, "duplicate intake", "clerk-1"); err == nil {
		t.Error("expected void failure to surface")
	}
}

func TestTransition_EmptyActorLeavesUpdateByUnset(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)

	o := pendingOrder()
	if err := svc.CreateOrder(context.Background(), o); err != nil {
		t.Fatal(err)
	}
	got, err := svc.Submit(context.Background(), o.ID, "")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if got.UpdateBy != nil {
		t.Errorf("expected nil UpdateBy without actor, got %q", *got.UpdateBy)
	}
}
