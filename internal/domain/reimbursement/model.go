package reimbursement

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Level statuses.
const (
	StatusDisabled = 0
	StatusEnabled  = 1
)

// Level maps to the reimbursement_level table. It is the rate table keyed by
// (insurance type, hospital level): a deductible, a reimbursement cap, and
// per-category rates, valid inside [EffectiveTime, ExpireTime].
//
// Rates are fractions in [0,1]. Category A/B/C are the tiered drug-cost
// classes; treatment and service cover non-drug expense buckets.
type Level struct {
	ID               uuid.UUID       `db:"id" json:"id"`
	LevelCode        string          `db:"level_code" json:"level_code"`
	LevelName        string          `db:"level_name" json:"level_name"`
	InsuranceType    string          `db:"insurance_type" json:"insurance_type"`
	HospitalLevel    string          `db:"hospital_level" json:"hospital_level"`
	Deductible       decimal.Decimal `db:"deductible" json:"deductible"`
	MaxReimbursement decimal.Decimal `db:"max_reimbursement" json:"max_reimbursement"`
	CategoryARate    decimal.Decimal `db:"category_a_rate" json:"category_a_rate"`
	CategoryBRate    decimal.Decimal `db:"category_b_rate" json:"category_b_rate"`
	CategoryCRate    decimal.Decimal `db:"category_c_rate" json:"category_c_rate"`
	TreatmentRate    decimal.Decimal `db:"treatment_rate" json:"treatment_rate"`
	ServiceRate      decimal.Decimal `db:"service_rate" json:"service_rate"`
	Status           int             `db:"status" json:"status"`
	EffectiveTime    time.Time       `db:"effective_time" json:"effective_time"`
	ExpireTime       time.Time       `db:"expire_time" json:"expire_time"`
	CreateBy         *string         `db:"create_by" json:"create_by,omitempty"`
	UpdateBy         *string         `db:"update_by" json:"update_by,omitempty"`
	Remark           *string         `db:"remark" json:"remark,omitempty"`
	CreatedAt        time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time       `db:"updated_at" json:"updated_at"`
}

// IsEffective reports whether the level is enabled and asOf falls inside
// its validity window (inclusive on both ends).
func (l *Level) IsEffective(asOf time.Time) bool {
	if l.Status != StatusEnabled {
		return false
	}
	if asOf.Before(l.EffectiveTime) {
		return false
	}
	if asOf.After(l.ExpireTime) {
		return false
	}
	return true
}
