package order

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// PatientDirectory resolves patient snapshot fields at order intake. The
// patient package provides the implementation; orders carry a denormalized
// copy so historical records survive registry edits.
type PatientDirectory interface {
	Snapshot(ctx context.Context, id uuid.UUID) (name, idCard, insuranceType string, err error)
}

// SettlementVoider cancels the current settlement of an order. The settlement
// package provides the implementation; without it a cancelled order would keep
// a live settlement on the books.
type SettlementVoider interface {
	VoidByOrder(ctx context.Context, orderID uuid.UUID) error
}

var validOrderTypes = map[string]bool{
	TypeOutpatient: true,
	TypeInpatient:  true,
	TypeEmergency:  true,
}

type Service struct {
	orders      Repository
	patients    PatientDirectory
	settlements SettlementVoider
	now         func() time.Time
}

func NewService(orders Repository) *Service {
	return &Service{orders: orders, now: time.Now}
}

// SetPatientDirectory attaches the patient registry for intake snapshots.
func (s *Service) SetPatientDirectory(d PatientDirectory) { s.patients = d }

// SetSettlementVoider attaches the settlement service so cancelling an order
// voids its current settlement.
func (s *Service) SetSettlementVoider(v SettlementVoider) { s.settlements = v }

// SetClock overrides the service clock; used by tests.
func (s *Service) SetClock(now func() time.Time) { s.now = now }

func (s *Service) CreateOrder(ctx context.Context, o *MedicalOrder) error {
	if o.PatientID == uuid.Nil {
		return &ValidationError{Field: "patient_id", Reason: "required"}
	}
	if !validOrderTypes[o.OrderType] {
		return &ValidationError{Field: "order_type", Reason: fmt.Sprintf("unknown type %q", o.OrderType)}
	}
	if o.VisitTime.IsZero() {
		o.VisitTime = s.now()
	}

	if s.patients != nil {
		name, idCard, insuranceType, err := s.patients.Snapshot(ctx, o.PatientID)
		if err != nil {
			return fmt.Errorf("resolving patient %s: %w", o.PatientID, err)
		}
		o.PatientName = name
		o.PatientIDCard = &idCard
		o.InsuranceType = insuranceType
	}
	if o.PatientName == "" {
		return &ValidationError{Field: "patient_name", Reason: "required"}
	}

	o.RecomputeTotal()
	o.OrderNo = NewOrderNo(s.now())
	o.Status = StatusPending

	if err := s.orders.Create(ctx, o); err != nil {
		return err
	}
	if len(o.Items) > 0 {
		if err := s.orders.ReplaceItems(ctx, o.ID, o.Items); err != nil {
			return fmt.Errorf("persisting order items: %w", err)
		}
	}
	return nil
}

func (s *Service) GetOrder(ctx context.Context, id uuid.UUID) (*MedicalOrder, error) {
	o, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	items, err := s.orders.ListItems(ctx, id)
	if err != nil {
		return nil, err
	}
	o.Items = items
	return o, nil
}

func (s *Service) GetOrderByNo(ctx context.Context, orderNo string) (*MedicalOrder, error) {
	o, err := s.orders.GetByOrderNo(ctx, orderNo)
	if err != nil {
		return nil, err
	}
	items, err := s.orders.ListItems(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	o.Items = items
	return o, nil
}

// UpdateOrder edits intake fields. Only pending orders are editable; once an
// order enters the settlement flow its figures are frozen.
func (s *Service) UpdateOrder(ctx context.Context, o *MedicalOrder) error {
	current, err := s.orders.GetByID(ctx, o.ID)
	if err != nil {
		return err
	}
	if current.Status != StatusPending {
		return &InvalidStateError{OrderNo: current.OrderNo, Status: current.Status, Action: "update"}
	}
	if o.OrderType != "" && !validOrderTypes[o.OrderType] {
		return &ValidationError{Field: "order_type", Reason: fmt.Sprintf("unknown type %q", o.OrderType)}
	}

	o.OrderNo = current.OrderNo
	o.Status = current.Status
	o.RecomputeTotal()
	if err := s.orders.Update(ctx, o); err != nil {
		return err
	}
	if o.Items != nil {
		if err := s.orders.ReplaceItems(ctx, o.ID, o.Items); err != nil {
			return fmt.Errorf("persisting order items: %w", err)
		}
	}
	return nil
}

func (s *Service) ListOrders(ctx context.Context, filter ListFilter, limit, offset int) ([]*MedicalOrder, int, error) {
	return s.orders.List(ctx, filter, limit, offset)
}

// Submit moves a pending order into review and assigns its settlement number.
func (s *Service) Submit(ctx context.Context, id uuid.UUID, actor string) (*MedicalOrder, error) {
	return s.transition(ctx, id, actor, ActionSubmit, Payload{
		SettlementNo:   NewSettlementNo(s.now()),
		SettlementTime: s.now(),
	})
}

func (s *Service) Approve(ctx context.Context, id uuid.UUID, result, remark, actor string) (*MedicalOrder, error) {
	return s.transition(ctx, id, actor, ActionApprove, Payload{
		ApprovalResult: result,
		ApprovalRemark: remark,
	})
}

func (s *Service) Reject(ctx context.Context, id uuid.UUID, reason, actor string) (*MedicalOrder, error) {
	return s.transition(ctx, id, actor, ActionReject, Payload{Reason: reason})
}

func (s *Service) Complete(ctx context.Context, id uuid.UUID, actor string) (*MedicalOrder, error) {
	return s.transition(ctx, id, actor, ActionComplete, Payload{})
}

func (s *Service) Cancel(ctx context.Context, id uuid.UUID, reason, actor string) (*MedicalOrder, error) {
	return s.transition(ctx, id, actor, ActionCancel, Payload{Reason: reason})
}

func (s *Service) transition(ctx context.Context, id uuid.UUID, actor string, action Action, p Payload) (*MedicalOrder, error) {
	o, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	next, err := Transition(o, action, p)
	if err != nil {
		return nil, err
	}
	if next.Status == o.Status && action == ActionCancel {
		// Idempotent cancel, nothing to persist.
		return next, nil
	}
	if actor != "" {
		next.UpdateBy = &actor
	}
	if err := s.orders.Update(ctx, next); err != nil {
		return nil, err
	}
	if action == ActionCancel && s.settlements != nil {
		if err := s.settlements.VoidByOrder(ctx, next.ID); err != nil {
			return nil, fmt.Errorf("voiding settlement for order %s: %w", next.OrderNo, err)
		}
	}
	return next, nil
}
