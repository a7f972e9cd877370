package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/medinsure/medinsure/internal/domain/order"
	"github.com/medinsure/medinsure/internal/domain/settlement"
)

var (
	// ErrAlreadyReversed is returned when a payment already has a reversal row.
	ErrAlreadyReversed = errors.New("payment already reversed")
	// ErrNotReversible is returned for records that are themselves reversals.
	ErrNotReversible = errors.New("reversal records cannot be reversed")
)

// SettlementStore is the slice of the settlement service the simulator needs.
type SettlementStore interface {
	GetCurrentByOrder(ctx context.Context, orderID uuid.UUID) (*settlement.Settlement, error)
	MarkPaid(ctx context.Context, id uuid.UUID) error
}

// OrderCompleter drives the settled-to-paid order transition.
type OrderCompleter interface {
	Complete(ctx context.Context, id uuid.UUID, actor string) (*order.MedicalOrder, error)
}

var validTypes = map[string]bool{
	TypeBankTransfer: true,
	TypeMedicareFund: true,
}

type Service struct {
	payments    Repository
	settlements SettlementStore
	orders      OrderCompleter
	now         func() time.Time
}

func NewService(payments Repository, settlements SettlementStore, orders OrderCompleter) *Service {
	return &Service{payments: payments, settlements: settlements, orders: orders, now: time.Now}
}

// SetClock overrides the service clock; used by tests.
func (s *Service) SetClock(now func() time.Time) { s.now = now }

// SimulateRequest carries the caller's inputs for a simulated payment. The
// amount is never taken from the caller: it is always the settlement's actual
// reimbursement.
type SimulateRequest struct {
	OrderID     uuid.UUID `json:"order_id"`
	PaymentType string    `json:"payment_type"`
	BankAccount string    `json:"bank_account"`
	Remarks     string    `json:"remarks"`
}

// Simulate pays out the current settlement of a settled order. It records a
// SUCCESS payment for the actual reimbursement, completes the order, and
// marks the settlement paid.
func (s *Service) Simulate(ctx context.Context, req SimulateRequest, actor string) (*Record, error) {
	if req.PaymentType == "" {
		req.PaymentType = TypeBankTransfer
	}
	if !validTypes[req.PaymentType] {
		return nil, &order.ValidationError{Field: "payment_type", Reason: fmt.Sprintf("unknown payment type %q", req.PaymentType)}
	}

	stl, err := s.settlements.GetCurrentByOrder(ctx, req.OrderID)
	if err != nil {
		return nil, fmt.Errorf("no settlement on record for order %s: %w", req.OrderID, err)
	}
	if stl.Status != settlement.StatusSettled {
		return nil, &order.InvalidStateError{OrderNo: stl.OrderNo, Status: stl.Status, Action: "pay"}
	}

	// The order transition is the state guard: Complete fails unless the
	// order is settled.
	if _, err := s.orders.Complete(ctx, req.OrderID, actor); err != nil {
		return nil, err
	}
	if err := s.settlements.MarkPaid(ctx, stl.ID); err != nil {
		return nil, err
	}

	now := s.now()
	rec := &Record{
		PaymentNo:     NewPaymentNo(now),
		SettlementID:  stl.ID,
		SettlementNo:  stl.SettlementNo,
		OrderID:       stl.OrderID,
		PaymentType:   req.PaymentType,
		Amount:        stl.ActualReimbursement,
		PaymentTime:   now,
		Status:        StatusSuccess,
		TransactionID: NewTransactionID(now),
	}
	if req.BankAccount != "" {
		rec.BankAccount = &req.BankAccount
	}
	if req.Remarks != "" {
		rec.Remarks = &req.Remarks
	}
	if actor != "" {
		rec.CreateBy = &actor
	}
	if err := s.payments.Create(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Reverse appends a cancellation row for a successful payment. The original
// record is never mutated and order/settlement statuses stay untouched; the
// reversal is pure bookkeeping.
func (s *Service) Reverse(ctx context.Context, paymentID uuid.UUID, reason, actor string) (*Record, error) {
	original, err := s.payments.GetByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if original.Status != StatusSuccess {
		return nil, ErrNotReversible
	}
	siblings, err := s.payments.ListBySettlement(ctx, original.SettlementID)
	if err != nil {
		return nil, err
	}
	for _, sib := range siblings {
		if sib.ReversalOf != nil && *sib.ReversalOf == original.ID {
			return nil, ErrAlreadyReversed
		}
	}

	now := s.now()
	rec := &Record{
		PaymentNo:     NewPaymentNo(now),
		SettlementID:  original.SettlementID,
		SettlementNo:  original.SettlementNo,
		OrderID:       original.OrderID,
		PaymentType:   original.PaymentType,
		Amount:        original.Amount.Neg(),
		PaymentTime:   now,
		Status:        StatusCancelled,
		BankAccount:   original.BankAccount,
		TransactionID: NewTransactionID(now),
		ReversalOf:    &original.ID,
	}
	if reason != "" {
		rec.Remarks = &reason
	}
	if actor != "" {
		rec.CreateBy = &actor
	}
	if err := s.payments.Create(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *Service) GetPayment(ctx context.Context, id uuid.UUID) (*Record, error) {
	return s.payments.GetByID(ctx, id)
}

func (s *Service) ListPayments(ctx context.Context, filter ListFilter, limit, offset int) ([]*Record, int, error) {
	return s.payments.List(ctx, filter, limit, offset)
}

func (s *Service) ListBySettlement(ctx context.Context, settlementID uuid.UUID) ([]*Record, error) {
	return s.payments.ListBySettlement(ctx, settlementID)
}
