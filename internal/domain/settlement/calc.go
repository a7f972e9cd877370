package settlement

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/medinsure/medinsure/internal/domain/order"
	"github.com/medinsure/medinsure/internal/domain/reimbursement"
)

// CalculationError reports inputs the calculator refuses: negative amounts
// or rates outside [0,1].
type CalculationError struct {
	Field  string
	Reason string
}

func (e *CalculationError) Error() string {
	return fmt.Sprintf("settlement calculation: %s %s", e.Field, e.Reason)
}

// Result holds the computed settlement figures, rounded to 2 decimals.
type Result struct {
	BillableAmount      decimal.Decimal `json:"billable_amount"`
	ReimbursableAmount  decimal.Decimal `json:"reimbursable_amount"`
	ActualReimbursement decimal.Decimal `json:"actual_reimbursement"`
	SelfPayAmount       decimal.Decimal `json:"self_pay_amount"`
	Deductible          decimal.Decimal `json:"deductible"`
}

var one = decimal.NewFromInt(1)

// Calculate computes the settlement of one order against one reimbursement
// level. It is a pure function: same inputs, same outputs, no clock, no
// storage.
//
//	billable     = aAmt*rateA + bAmt*rateB + cAmt*rateC
//	             + treatAmt*treatmentRate + servAmt*serviceRate
//	reimbursable = max(0, billable - deductible), capped at maxReimbursement
//	actual       = reimbursable
//	selfPay      = max(0, total - actual)
//
// Monetary rounding to 2 decimals happens once, at the end, never on
// intermediates, so the category terms cannot accumulate drift. selfPay is
// derived from the rounded actual, which keeps the reconciliation invariant
// selfPay + actual == total exact for 2-decimal totals.
//
// The A/B/C split must stay within the drug bucket and billable within the
// order total; rates never exceed 1, so the payout is bounded by what was
// actually spent.
func Calculate(o *order.MedicalOrder, level *reimbursement.Level) (*Result, error) {
	if err := checkAmounts(o); err != nil {
		return nil, err
	}
	if err := checkLevel(level); err != nil {
		return nil, err
	}

	billable := o.CategoryAAmount.Mul(level.CategoryARate).
		Add(o.CategoryBAmount.Mul(level.CategoryBRate)).
		Add(o.CategoryCAmount.Mul(level.CategoryCRate)).
		Add(o.TreatmentAmount.Mul(level.TreatmentRate)).
		Add(o.ServiceAmount.Mul(level.ServiceRate))

	if billable.GreaterThan(o.TotalAmount) {
		return nil, &CalculationError{Field: "billable_amount", Reason: "exceeds order total"}
	}

	reimbursable := billable.Sub(level.Deductible)
	if reimbursable.IsNegative() {
		reimbursable = decimal.Zero
	}
	if reimbursable.GreaterThan(level.MaxReimbursement) {
		reimbursable = level.MaxReimbursement
	}

	actual := reimbursable.Round(2)

	selfPay := o.TotalAmount.Sub(actual)
	if selfPay.IsNegative() {
		selfPay = decimal.Zero
	}

	return &Result{
		BillableAmount:      billable.Round(2),
		ReimbursableAmount:  reimbursable.Round(2),
		ActualReimbursement: actual,
		SelfPayAmount:       selfPay.Round(2),
		Deductible:          level.Deductible.Round(2),
	}, nil
}

func checkAmounts(o *order.MedicalOrder) error {
	amounts := []struct {
		name string
		v    decimal.Decimal
	}{
		{"total_amount", o.TotalAmount},
		{"drug_amount", o.DrugAmount},
		{"category_a_amount", o.CategoryAAmount},
		{"category_b_amount", o.CategoryBAmount},
		{"category_c_amount", o.CategoryCAmount},
		{"treatment_amount", o.TreatmentAmount},
		{"service_amount", o.ServiceAmount},
	}
	for _, a := range amounts {
		if a.v.IsNegative() {
			return &CalculationError{Field: a.name, Reason: "must not be negative"}
		}
	}
	catSum := o.CategoryAAmount.Add(o.CategoryBAmount).Add(o.CategoryCAmount)
	if catSum.GreaterThan(o.DrugAmount) {
		return &CalculationError{Field: "category_amounts", Reason: "A/B/C split exceeds drug_amount"}
	}
	return nil
}

func checkLevel(level *reimbursement.Level) error {
	if level.Deductible.IsNegative() {
		return &CalculationError{Field: "deductible", Reason: "must not be negative"}
	}
	if level.MaxReimbursement.IsNegative() {
		return &CalculationError{Field: "max_reimbursement", Reason: "must not be negative"}
	}
	rates := []struct {
		name string
		v    decimal.Decimal
	}{
		{"category_a_rate", level.CategoryARate},
		{"category_b_rate", level.CategoryBRate},
		{"category_c_rate", level.CategoryCRate},
		{"treatment_rate", level.TreatmentRate},
		{"service_rate", level.ServiceRate},
	}
	for _, r := range rates {
		if r.v.IsNegative() || r.v.GreaterThan(one) {
			return &CalculationError{Field: r.name, Reason: "must be a fraction in [0,1]"}
		}
	}
	return nil
}
