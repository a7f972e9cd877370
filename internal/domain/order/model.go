package order

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Order statuses. The numeric codes are part of the wire contract.
const (
	StatusCancelled     = 0 // 已取消
	StatusPending       = 1 // 待结算
	StatusSettled       = 2 // 已结算
	StatusPaid          = 3 // 已支付
	StatusPendingReview = 4 // 待审批
	StatusRejected      = 5 // 已拒绝
)

// Order types.
const (
	TypeOutpatient = "门诊"
	TypeInpatient  = "住院"
	TypeEmergency  = "急诊"
)

// StatusDescription returns the human-readable label for a status code.
func StatusDescription(status int) string {
	switch status {
	case StatusPending:
		return "pending settlement"
	case StatusSettled:
		return "settled"
	case StatusPaid:
		return "paid"
	case StatusCancelled:
		return "cancelled"
	case StatusPendingReview:
		return "pending review"
	case StatusRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// MedicalOrder maps to the medical_order table: one patient encounter with
// itemized cost buckets and settlement linkage. Orders are never physically
// deleted; cancellation is the soft delete.
type MedicalOrder struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	OrderNo        string     `db:"order_no" json:"order_no"`
	PatientID      uuid.UUID  `db:"patient_id" json:"patient_id"`
	PatientName    string     `db:"patient_name" json:"patient_name"`
	PatientIDCard  *string    `db:"patient_id_card" json:"patient_id_card,omitempty"`
	InsuranceType  string     `db:"insurance_type" json:"insurance_type"`
	HospitalName   string     `db:"hospital_name" json:"hospital_name"`
	HospitalLevel  string     `db:"hospital_level" json:"hospital_level"`
	DoctorName     *string    `db:"doctor_name" json:"doctor_name,omitempty"`
	DepartmentName *string    `db:"department_name" json:"department_name,omitempty"`
	Diagnosis      *string    `db:"diagnosis" json:"diagnosis,omitempty"`
	OrderType      string     `db:"order_type" json:"order_type"`
	VisitTime      time.Time  `db:"visit_time" json:"visit_time"`
	DischargeTime  *time.Time `db:"discharge_time" json:"discharge_time,omitempty"`
	StayDays       *int       `db:"stay_days" json:"stay_days,omitempty"`

	// Cost buckets. TotalAmount is recomputed server-side from the four
	// top-level buckets; the category A/B/C split subdivides DrugAmount
	// for rate application.
	TotalAmount     decimal.Decimal `db:"total_amount" json:"total_amount"`
	DrugAmount      decimal.Decimal `db:"drug_amount" json:"drug_amount"`
	TreatmentAmount decimal.Decimal `db:"treatment_amount" json:"treatment_amount"`
	ServiceAmount   decimal.Decimal `db:"service_amount" json:"service_amount"`
	OtherAmount     decimal.Decimal `db:"other_amount" json:"other_amount"`
	CategoryAAmount decimal.Decimal `db:"category_a_amount" json:"category_a_amount"`
	CategoryBAmount decimal.Decimal `db:"category_b_amount" json:"category_b_amount"`
	CategoryCAmount decimal.Decimal `db:"category_c_amount" json:"category_c_amount"`

	// Settlement linkage, populated by the lifecycle.
	SettlementNo   *string    `db:"settlement_no" json:"settlement_no,omitempty"`
	SettlementTime *time.Time `db:"settlement_time" json:"settlement_time,omitempty"`
	ApprovalResult *string    `db:"approval_result" json:"approval_result,omitempty"`
	ApprovalRemark *string    `db:"approval_remark" json:"approval_remark,omitempty"`
	RejectReason   *string    `db:"reject_reason" json:"reject_reason,omitempty"`
	CancelReason   *string    `db:"cancel_reason" json:"cancel_reason,omitempty"`

	Status    int       `db:"status" json:"status"`
	CreateBy  *string   `db:"create_by" json:"create_by,omitempty"`
	UpdateBy  *string   `db:"update_by" json:"update_by,omitempty"`
	Remark    *string   `db:"remark" json:"remark,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`

	Items []*OrderItem `db:"-" json:"items,omitempty"`
}

// RecomputeTotal sets TotalAmount from the itemized buckets. The client's
// value is never trusted.
func (o *MedicalOrder) RecomputeTotal() {
	o.TotalAmount = o.DrugAmount.
		Add(o.TreatmentAmount).
		Add(o.ServiceAmount).
		Add(o.OtherAmount)
}

// OrderItem maps to the medical_order_item table: one expense line.
type OrderItem struct {
	ID          uuid.UUID       `db:"id" json:"id"`
	OrderID     uuid.UUID       `db:"order_id" json:"order_id"`
	ItemType    string          `db:"item_type" json:"item_type"` // drug / service / equipment
	ItemCode    string          `db:"item_code" json:"item_code"`
	ItemName    string          `db:"item_name" json:"item_name"`
	Category    *string         `db:"category" json:"category,omitempty"` // 甲类/乙类/丙类
	Spec        *string         `db:"spec" json:"spec,omitempty"`
	Unit        *string         `db:"unit" json:"unit,omitempty"`
	Quantity    decimal.Decimal `db:"quantity" json:"quantity"`
	UnitPrice   decimal.Decimal `db:"unit_price" json:"unit_price"`
	TotalAmount decimal.Decimal `db:"total_amount" json:"total_amount"`
	ServiceTime *time.Time      `db:"service_time" json:"service_time,omitempty"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
}
