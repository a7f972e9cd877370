package order

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
)

// Action names the lifecycle operations.
type Action string

const (
	ActionSubmit   Action = "submit"
	ActionApprove  Action = "approve"
	ActionReject   Action = "reject"
	ActionComplete Action = "complete"
	ActionCancel   Action = "cancel"
)

// InvalidStateError reports an illegal lifecycle transition.
type InvalidStateError struct {
	OrderNo string
	Status  int
	Action  Action
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("order %s: cannot %s while %s", e.OrderNo, e.Action, StatusDescription(e.Status))
}

// ValidationError reports a missing or malformed order field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid order field %s: %s", e.Field, e.Reason)
}

// Payload carries the per-action inputs of a transition.
type Payload struct {
	SettlementNo   string
	SettlementTime time.Time
	ApprovalResult string
	ApprovalRemark string
	Reason         string
}

// Transition applies a lifecycle action to an order and returns the updated
// copy. It is a pure function over (order, action, payload): the input order
// is never mutated, no clock or storage is consulted, and the same inputs
// always produce the same result.
//
// Legal transitions:
//
//	submit    1 -> 4   requires settlement number in the payload
//	approve   4 -> 2
//	reject    4 -> 5   terminal except cancel
//	complete  2 -> 3   requires a persisted settlement number; terminal
//	cancel    1,2,4,5 -> 0   idempotent at 0; paid orders cannot be cancelled
func Transition(o *MedicalOrder, action Action, p Payload) (*MedicalOrder, error) {
	next := *o

	switch action {
	case ActionSubmit:
		if o.Status != StatusPending {
			return nil, &InvalidStateError{OrderNo: o.OrderNo, Status: o.Status, Action: action}
		}
		if err := validateForSubmission(o); err != nil {
			return nil, err
		}
		if p.SettlementNo == "" {
			return nil, &ValidationError{Field: "settlement_no", Reason: "required for submission"}
		}
		next.Status = StatusPendingReview
		next.SettlementNo = &p.SettlementNo
		st := p.SettlementTime
		next.SettlementTime = &st

	case ActionApprove:
		if o.Status != StatusPendingReview {
			return nil, &InvalidStateError{OrderNo: o.OrderNo, Status: o.Status, Action: action}
		}
		next.Status = StatusSettled
		result := p.ApprovalResult
		if result == "" {
			result = "approved"
		}
		next.ApprovalResult = &result
		if p.ApprovalRemark != "" {
			remark := p.ApprovalRemark
			next.ApprovalRemark = &remark
		}

	case ActionReject:
		if o.Status != StatusPendingReview {
			return nil, &InvalidStateError{OrderNo: o.OrderNo, Status: o.Status, Action: action}
		}
		if p.Reason == "" {
			return nil, &ValidationError{Field: "reject_reason", Reason: "required"}
		}
		next.Status = StatusRejected
		reason := p.Reason
		next.RejectReason = &reason

	case ActionComplete:
		if o.Status != StatusSettled {
			return nil, &InvalidStateError{OrderNo: o.OrderNo, Status: o.Status, Action: action}
		}
		if o.SettlementNo == nil || *o.SettlementNo == "" {
			return nil, &ValidationError{Field: "settlement_no", Reason: "order has no persisted settlement"}
		}
		next.Status = StatusPaid

	case ActionCancel:
		switch o.Status {
		case StatusCancelled:
			// Idempotent: cancelling a cancelled order is a no-op.
			return &next, nil
		case StatusPaid:
			return nil, &InvalidStateError{OrderNo: o.OrderNo, Status: o.Status, Action: action}
		}
		next.Status = StatusCancelled
		if p.Reason != "" {
			reason := p.Reason
			next.CancelReason = &reason
		}

	default:
		return nil, fmt.Errorf("unknown lifecycle action: %s", action)
	}

	return &next, nil
}

func validateForSubmission(o *MedicalOrder) error {
	if o.PatientID == uuid.Nil {
		return &ValidationError{Field: "patient_id", Reason: "required"}
	}
	if o.InsuranceType == "" {
		return &ValidationError{Field: "insurance_type", Reason: "required"}
	}
	if o.HospitalLevel == "" {
		return &ValidationError{Field: "hospital_level", Reason: "required"}
	}
	amounts := map[string]bool{
		"total_amount":      o.TotalAmount.IsNegative(),
		"drug_amount":       o.DrugAmount.IsNegative(),
		"treatment_amount":  o.TreatmentAmount.IsNegative(),
		"service_amount":    o.ServiceAmount.IsNegative(),
		"other_amount":      o.OtherAmount.IsNegative(),
		"category_a_amount": o.CategoryAAmount.IsNegative(),
		"category_b_amount": o.CategoryBAmount.IsNegative(),
		"category_c_amount": o.CategoryCAmount.IsNegative(),
	}
	for field, negative := range amounts {
		if negative {
			return &ValidationError{Field: field, Reason: "must not be negative"}
		}
	}
	catSum := o.CategoryAAmount.Add(o.CategoryBAmount).Add(o.CategoryCAmount)
	if catSum.GreaterThan(o.DrugAmount) {
		return &ValidationError{Field: "category_amounts", Reason: "A/B/C split exceeds drug_amount"}
	}
	return nil
}

const numberTimeFormat = "20060102150405"

// NewOrderNo generates an order number: MO + timestamp + 4 random digits.
func NewOrderNo(now time.Time) string {
	return fmt.Sprintf("MO%s%04d", now.Format(numberTimeFormat), rand.Intn(10000))
}

// NewSettlementNo generates a settlement number: ST + timestamp + 4 random digits.
func NewSettlementNo(now time.Time) string {
	return fmt.Sprintf("ST%s%04d", now.Format(numberTimeFormat), rand.Intn(10000))
}
