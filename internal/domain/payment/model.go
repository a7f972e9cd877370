package payment

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Payment record statuses. Records are append-only: a cancellation adds a
// reversal row pointing at the original instead of mutating it.
const (
	StatusSuccess   = "SUCCESS"
	StatusCancelled = "CANCELLED"
)

// Payment channels accepted by the simulator.
const (
	TypeBankTransfer = "bank_transfer"
	TypeMedicareFund = "medicare_fund"
)

type Record struct {
	ID            uuid.UUID       `db:"id" json:"id"`
	PaymentNo     string          `db:"payment_no" json:"payment_no"`
	SettlementID  uuid.UUID       `db:"settlement_id" json:"settlement_id"`
	SettlementNo  string          `db:"settlement_no" json:"settlement_no"`
	OrderID       uuid.UUID       `db:"order_id" json:"order_id"`
	PaymentType   string          `db:"payment_type" json:"payment_type"`
	Amount        decimal.Decimal `db:"amount" json:"amount"`
	PaymentTime   time.Time       `db:"payment_time" json:"payment_time"`
	Status        string          `db:"status" json:"status"`
	BankAccount   *string         `db:"bank_account" json:"bank_account,omitempty"`
	TransactionID string          `db:"transaction_id" json:"transaction_id"`
	ReversalOf    *uuid.UUID      `db:"reversal_of" json:"reversal_of,omitempty"`
	Remarks       *string         `db:"remarks" json:"remarks,omitempty"`
	CreateBy      *string         `db:"create_by" json:"create_by,omitempty"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
}

// NewPaymentNo generates a payment number like PAY1717243200123.
func NewPaymentNo(t time.Time) string {
	return fmt.Sprintf("PAY%d", t.UnixMilli())
}

// NewTransactionID generates a simulated bank transaction reference.
func NewTransactionID(t time.Time) string {
	return fmt.Sprintf("TXN%d%04d", t.UnixMilli(), rand.Intn(10000))
}
