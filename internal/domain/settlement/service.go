package settlement

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/medinsure/medinsure/internal/domain/order"
	"github.com/medinsure/medinsure/internal/domain/reimbursement"
)

// ErrPaidImmutable is returned when a mutation targets a paid settlement.
var ErrPaidImmutable = errors.New("settlement is paid and immutable")

// OrderStore is the slice of the order repository the calculator needs.
type OrderStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*order.MedicalOrder, error)
}

// LevelMatcher resolves the effective reimbursement level for an order.
// The reimbursement service provides the implementation.
type LevelMatcher interface {
	MatchEffective(ctx context.Context, insuranceType, hospitalLevel string) (*reimbursement.Level, error)
}

type Service struct {
	settlements Repository
	orders      OrderStore
	matcher     LevelMatcher
	now         func() time.Time
}

func NewService(settlements Repository, orders OrderStore, matcher LevelMatcher) *Service {
	return &Service{settlements: settlements, orders: orders, matcher: matcher, now: time.Now}
}

// SetClock overrides the service clock; used by tests.
func (s *Service) SetClock(now func() time.Time) { s.now = now }

// CalculateForOrder matches the order's effective reimbursement level, runs
// the calculator, and persists the result as the order's current settlement.
// Any previous settlement rows for the order are superseded, never mutated.
func (s *Service) CalculateForOrder(ctx context.Context, orderID uuid.UUID, actor string) (*Settlement, error) {
	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("loading order %s: %w", orderID, err)
	}
	if o.Status != order.StatusPendingReview && o.Status != order.StatusSettled {
		return nil, &order.InvalidStateError{OrderNo: o.OrderNo, Status: o.Status, Action: "calculate"}
	}
	if o.SettlementNo == nil || *o.SettlementNo == "" {
		return nil, &order.ValidationError{Field: "settlement_no", Reason: "order was never submitted"}
	}

	level, err := s.matcher.MatchEffective(ctx, o.InsuranceType, o.HospitalLevel)
	if err != nil {
		return nil, err
	}

	result, err := Calculate(o, level)
	if err != nil {
		return nil, err
	}

	if current, err := s.settlements.GetCurrentByOrder(ctx, orderID); err == nil && current != nil {
		if current.Status == StatusPaid {
			return nil, ErrPaidImmutable
		}
		if err := s.settlements.Supersede(ctx, orderID); err != nil {
			return nil, err
		}
	}

	record := s.buildRecord(o, level, result, actor)
	if err := s.settlements.Create(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

// Recalculate reruns the calculator with manual overrides of the deductible
// or category amounts. It is the single sanctioned mutation of settlement
// figures; every call appends a before/after entry to the audit trail.
func (s *Service) Recalculate(ctx context.Context, orderID uuid.UUID, ov Overrides, actor string) (*Settlement, error) {
	current, err := s.settlements.GetCurrentByOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("no settlement on record for order %s: %w", orderID, err)
	}
	if current.Status == StatusPaid {
		return nil, ErrPaidImmutable
	}

	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("loading order %s: %w", orderID, err)
	}
	level, err := s.matcher.MatchEffective(ctx, o.InsuranceType, o.HospitalLevel)
	if err != nil {
		return nil, err
	}

	adjustedOrder := *o
	adjustedLevel := *level
	if ov.Deductible != nil {
		adjustedLevel.Deductible = *ov.Deductible
	}
	if ov.CategoryAAmount != nil {
		adjustedOrder.CategoryAAmount = *ov.CategoryAAmount
	}
	if ov.CategoryBAmount != nil {
		adjustedOrder.CategoryBAmount = *ov.CategoryBAmount
	}
	if ov.CategoryCAmount != nil {
		adjustedOrder.CategoryCAmount = *ov.CategoryCAmount
	}
	if ov.TreatmentAmount != nil {
		adjustedOrder.TreatmentAmount = *ov.TreatmentAmount
	}
	if ov.ServiceAmount != nil {
		adjustedOrder.ServiceAmount = *ov.ServiceAmount
	}

	result, err := Calculate(&adjustedOrder, &adjustedLevel)
	if err != nil {
		return nil, err
	}

	if err := s.settlements.Supersede(ctx, orderID); err != nil {
		return nil, err
	}
	record := s.buildRecord(&adjustedOrder, &adjustedLevel, result, actor)
	if err := s.settlements.Create(ctx, record); err != nil {
		return nil, err
	}

	ovJSON, err := json.Marshal(ov)
	if err != nil {
		return nil, fmt.Errorf("encoding overrides: %w", err)
	}
	audit := &AuditEntry{
		SettlementNo: record.SettlementNo,
		OrderID:      orderID,
		Actor:        actor,
		Action:       "recalculate",
		BeforeActual: current.ActualReimbursement,
		AfterActual:  record.ActualReimbursement,
		BeforeSelf:   current.SelfPayAmount,
		AfterSelf:    record.SelfPayAmount,
		Overrides:    string(ovJSON),
	}
	if err := s.settlements.AppendAudit(ctx, audit); err != nil {
		return nil, fmt.Errorf("recording settlement audit: %w", err)
	}
	return record, nil
}

func (s *Service) buildRecord(o *order.MedicalOrder, level *reimbursement.Level, result *Result, actor string) *Settlement {
	rec := &Settlement{
		SettlementNo:        *o.SettlementNo,
		OrderID:             o.ID,
		OrderNo:             o.OrderNo,
		PatientID:           o.PatientID,
		LevelID:             level.ID,
		LevelCode:           level.LevelCode,
		TotalAmount:         o.TotalAmount,
		CategoryAAmount:     o.CategoryAAmount,
		CategoryBAmount:     o.CategoryBAmount,
		CategoryCAmount:     o.CategoryCAmount,
		TreatmentAmount:     o.TreatmentAmount,
		ServiceAmount:       o.ServiceAmount,
		Deductible:          result.Deductible,
		BillableAmount:      result.BillableAmount,
		ReimbursableAmount:  result.ReimbursableAmount,
		ActualReimbursement: result.ActualReimbursement,
		SelfPayAmount:       result.SelfPayAmount,
		Status:              StatusSettled,
		SettlementTime:      s.now(),
	}
	if actor != "" {
		rec.CreateBy = &actor
	}
	return rec
}

func (s *Service) GetSettlement(ctx context.Context, id uuid.UUID) (*Settlement, error) {
	return s.settlements.GetByID(ctx, id)
}

func (s *Service) GetCurrentByOrder(ctx context.Context, orderID uuid.UUID) (*Settlement, error) {
	return s.settlements.GetCurrentByOrder(ctx, orderID)
}

func (s *Service) ListSettlements(ctx context.Context, filter ListFilter, limit, offset int) ([]*Settlement, int, error) {
	return s.settlements.List(ctx, filter, limit, offset)
}

func (s *Service) ListAudit(ctx context.Context, orderID uuid.UUID) ([]*AuditEntry, error) {
	return s.settlements.ListAudit(ctx, orderID)
}

func (s *Service) Stats(ctx context.Context, from, to time.Time) (*Statistics, error) {
	return s.settlements.Stats(ctx, from, to)
}

// MarkPaid freezes a settlement after a successful payment.
func (s *Service) MarkPaid(ctx context.Context, id uuid.UUID) error {
	current, err := s.settlements.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if current.Status == StatusPaid {
		return ErrPaidImmutable
	}
	if current.Status != StatusSettled {
		return fmt.Errorf("settlement %s is not payable (status %d)", current.SettlementNo, current.Status)
	}
	return s.settlements.SetStatus(ctx, id, StatusPaid)
}

// MarkCancelled voids a settlement when its order is cancelled.
func (s *Service) MarkCancelled(ctx context.Context, id uuid.UUID) error {
	current, err := s.settlements.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if current.Status == StatusPaid {
		return ErrPaidImmutable
	}
	return s.settlements.SetStatus(ctx, id, StatusCancelled)
}

// VoidByOrder cancels the current settlement of an order, if one exists.
// Orders cancelled before submission have no settlement; that is not an error.
func (s *Service) VoidByOrder(ctx context.Context, orderID uuid.UUID) error {
	current, err := s.settlements.GetCurrentByOrder(ctx, orderID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil
	}
	if err != nil {
		return err
	}
	return s.MarkCancelled(ctx, current.ID)
}
