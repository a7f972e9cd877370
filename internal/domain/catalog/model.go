package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Catalog entry statuses, shared by all three catalogs.
const (
	StatusDisabled = 0
	StatusEnabled  = 1
)

// Drug reimbursement categories: 甲 fully covered, 乙 partially covered
// (self-pay ratio applies), 丙 self-paid.
const (
	DrugTypeA = "甲"
	DrugTypeB = "乙"
	DrugTypeC = "丙"
)

type Drug struct {
	ID            uuid.UUID       `db:"id" json:"id"`
	DrugCode      string          `db:"drug_code" json:"drug_code"`
	DrugName      string          `db:"drug_name" json:"drug_name"`
	TradeName     *string         `db:"trade_name" json:"trade_name,omitempty"`
	DrugType      string          `db:"drug_type" json:"drug_type"`
	SelfPayRatio  decimal.Decimal `db:"self_pay_ratio" json:"self_pay_ratio"`
	Specification *string         `db:"specification" json:"specification,omitempty"`
	Unit          *string         `db:"unit" json:"unit,omitempty"`
	Price         decimal.Decimal `db:"price" json:"price"`
	Manufacturer  *string         `db:"manufacturer" json:"manufacturer,omitempty"`
	Status        int             `db:"status" json:"status"`
	Remark        *string         `db:"remark" json:"remark,omitempty"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at" json:"updated_at"`
}

type Equipment struct {
	ID               uuid.UUID       `db:"id" json:"id"`
	FinanceCategory  *string         `db:"finance_category" json:"finance_category,omitempty"`
	EquipmentCode    string          `db:"equipment_code" json:"equipment_code"`
	NationalCode     *string         `db:"national_code" json:"national_code,omitempty"`
	EquipmentName    string          `db:"equipment_name" json:"equipment_name"`
	EquipmentContent *string         `db:"equipment_content" json:"equipment_content,omitempty"`
	ExcludeContent   *string         `db:"exclude_content" json:"exclude_content,omitempty"`
	UnitType         *string         `db:"unit_type" json:"unit_type,omitempty"`
	Price            decimal.Decimal `db:"price" json:"price"`
	Status           int             `db:"status" json:"status"`
	CreatedAt        time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time       `db:"updated_at" json:"updated_at"`
}

type MedicalService struct {
	ID           uuid.UUID       `db:"id" json:"id"`
	ServiceCode  string          `db:"service_code" json:"service_code"`
	NationalCode *string         `db:"national_code" json:"national_code,omitempty"`
	ServiceName  string          `db:"service_name" json:"service_name"`
	ServiceType  *string         `db:"service_type" json:"service_type,omitempty"`
	UnitType     *string         `db:"unit_type" json:"unit_type,omitempty"`
	Price        decimal.Decimal `db:"price" json:"price"`
	Status       int             `db:"status" json:"status"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updated_at"`
}
