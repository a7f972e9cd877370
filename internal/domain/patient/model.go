package patient

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
)

// Registry statuses. Patients are soft-deleted only: deregistration flips
// the status, the row stays.
const (
	StatusDeregistered = 0
	StatusActive       = 1
)

type Patient struct {
	ID              uuid.UUID  `db:"id" json:"id"`
	PatientNo       string     `db:"patient_no" json:"patient_no"`
	Name            string     `db:"name" json:"name"`
	IDCard          string     `db:"id_card" json:"id_card"`
	Gender          *string    `db:"gender" json:"gender,omitempty"`
	BirthDate       *time.Time `db:"birth_date" json:"birth_date,omitempty"`
	Phone           *string    `db:"phone" json:"phone,omitempty"`
	Address         *string    `db:"address" json:"address,omitempty"`
	InsuranceType   string     `db:"insurance_type" json:"insurance_type"`
	InsuranceNumber *string    `db:"insurance_number" json:"insurance_number,omitempty"`
	Status          int        `db:"status" json:"status"`
	Remark          *string    `db:"remark" json:"remark,omitempty"`
	CreateBy        *string    `db:"create_by" json:"create_by,omitempty"`
	UpdateBy        *string    `db:"update_by" json:"update_by,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
}

const numberTimeFormat = "20060102150405"

// NewPatientNo generates a registry number like PT202406011200301234.
func NewPatientNo(t time.Time) string {
	return fmt.Sprintf("PT%s%04d", t.Format(numberTimeFormat), rand.Intn(10000))
}
