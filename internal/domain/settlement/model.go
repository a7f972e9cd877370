package settlement

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Settlement statuses.
const (
	StatusCancelled = 0
	StatusSettled   = 1
	StatusPaid      = 2
)

// Settlement maps to the settlement table: the derived, append-only snapshot
// of one order computed against one reimbursement level. A recalculation
// appends a new row and supersedes the old one; rows are immutable once the
// order is paid.
type Settlement struct {
	ID           uuid.UUID `db:"id" json:"id"`
	SettlementNo string    `db:"settlement_no" json:"settlement_no"`
	OrderID      uuid.UUID `db:"order_id" json:"order_id"`
	OrderNo      string    `db:"order_no" json:"order_no"`
	PatientID    uuid.UUID `db:"patient_id" json:"patient_id"`
	LevelID      uuid.UUID `db:"level_id" json:"level_id"`
	LevelCode    string    `db:"level_code" json:"level_code"`

	TotalAmount     decimal.Decimal `db:"total_amount" json:"total_amount"`
	CategoryAAmount decimal.Decimal `db:"category_a_amount" json:"category_a_amount"`
	CategoryBAmount decimal.Decimal `db:"category_b_amount" json:"category_b_amount"`
	CategoryCAmount decimal.Decimal `db:"category_c_amount" json:"category_c_amount"`
	TreatmentAmount decimal.Decimal `db:"treatment_amount" json:"treatment_amount"`
	ServiceAmount   decimal.Decimal `db:"service_amount" json:"service_amount"`

	Deductible          decimal.Decimal `db:"deductible" json:"deductible"`
	BillableAmount      decimal.Decimal `db:"billable_amount" json:"billable_amount"`
	ReimbursableAmount  decimal.Decimal `db:"reimbursable_amount" json:"reimbursable_amount"`
	ActualReimbursement decimal.Decimal `db:"actual_reimbursement" json:"actual_reimbursement"`
	SelfPayAmount       decimal.Decimal `db:"self_pay_amount" json:"self_pay_amount"`

	Status         int       `db:"status" json:"status"`
	Superseded     bool      `db:"superseded" json:"superseded"`
	SettlementTime time.Time `db:"settlement_time" json:"settlement_time"`
	CreateBy       *string   `db:"create_by" json:"create_by,omitempty"`
	Remark         *string   `db:"remark" json:"remark,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// AuditEntry maps to the settlement_audit table: one row per recalculation,
// recording who overrode what and the before/after figures.
type AuditEntry struct {
	ID           uuid.UUID `db:"id" json:"id"`
	SettlementNo string    `db:"settlement_no" json:"settlement_no"`
	OrderID      uuid.UUID `db:"order_id" json:"order_id"`
	Actor        string    `db:"actor" json:"actor"`
	Action       string    `db:"action" json:"action"`

	BeforeActual decimal.Decimal `db:"before_actual" json:"before_actual"`
	AfterActual  decimal.Decimal `db:"after_actual" json:"after_actual"`
	BeforeSelf   decimal.Decimal `db:"before_self" json:"before_self"`
	AfterSelf    decimal.Decimal `db:"after_self" json:"after_self"`
	Overrides    string          `db:"overrides" json:"overrides"` // JSON description of the manual inputs

	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Overrides carries the manual inputs of a recalculation. Nil fields keep
// the stored value.
type Overrides struct {
	Deductible      *decimal.Decimal `json:"deductible,omitempty"`
	CategoryAAmount *decimal.Decimal `json:"category_a_amount,omitempty"`
	CategoryBAmount *decimal.Decimal `json:"category_b_amount,omitempty"`
	CategoryCAmount *decimal.Decimal `json:"category_c_amount,omitempty"`
	TreatmentAmount *decimal.Decimal `json:"treatment_amount,omitempty"`
	ServiceAmount   *decimal.Decimal `json:"service_amount,omitempty"`
}

// Statistics aggregates settlements over a date range.
type Statistics struct {
	Count       int             `json:"count"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	TotalActual decimal.Decimal `json:"total_actual"`
	TotalSelf   decimal.Decimal `json:"total_self"`
	ByStatus    map[int]int     `json:"by_status"`
}
