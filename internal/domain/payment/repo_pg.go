package payment

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medinsure/medinsure/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const recordCols = `id, payment_no, settlement_id, settlement_no, order_id, payment_type,
	amount, payment_time, status, bank_account, transaction_id, reversal_of, remarks, create_by, created_at`

func (r *repoPG) scanRecord(row pgx.Row) (*Record, error) {
	var rec Record
	err := row.Scan(&rec.ID, &rec.PaymentNo, &rec.SettlementID, &rec.SettlementNo, &rec.OrderID, &rec.PaymentType,
		&rec.Amount, &rec.PaymentTime, &rec.Status, &rec.BankAccount, &rec.TransactionID, &rec.ReversalOf,
		&rec.Remarks, &rec.CreateBy, &rec.CreatedAt)
	return &rec, err
}

func (r *repoPG) Create(ctx context.Context, rec *Record) error {
	rec.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO payment_record (id, payment_no, settlement_id, settlement_no, order_id, payment_type,
			amount, payment_time, status, bank_account, transaction_id, reversal_of, remarks, create_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`,
		rec.ID, rec.PaymentNo, rec.SettlementID, rec.SettlementNo, rec.OrderID, rec.PaymentType,
		rec.Amount, rec.PaymentTime, rec.Status, rec.BankAccount, rec.TransactionID, rec.ReversalOf,
		rec.Remarks, rec.CreateBy)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Record, error) {
	return r.scanRecord(r.conn(ctx).QueryRow(ctx, `SELECT `+recordCols+` FROM payment_record WHERE id = $1`, id))
}

func (r *repoPG) GetByPaymentNo(ctx context.Context, paymentNo string) (*Record, error) {
	return r.scanRecord(r.conn(ctx).QueryRow(ctx, `SELECT `+recordCols+` FROM payment_record WHERE payment_no = $1`, paymentNo))
}

func (r *repoPG) List(ctx context.Context, f ListFilter, limit, offset int) ([]*Record, int, error) {
	where := ` WHERE 1=1`
	args := []interface{}{}
	n := 0
	if f.SettlementID != uuid.Nil {
		n++
		where += fmt.Sprintf(` AND settlement_id = $%d`, n)
		args = append(args, f.SettlementID)
	}
	if f.OrderID != uuid.Nil {
		n++
		where += fmt.Sprintf(` AND order_id = $%d`, n)
		args = append(args, f.OrderID)
	}
	if f.Status != "" {
		n++
		where += fmt.Sprintf(` AND status = $%d`, n)
		args = append(args, f.Status)
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM payment_record`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + recordCols + ` FROM payment_record` + where +
		fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, n+1, n+2)
	rows, err := r.conn(ctx).Query(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Record
	for rows.Next() {
		rec, err := r.scanRecord(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, rec)
	}
	return items, total, nil
}

func (r *repoPG) ListBySettlement(ctx context.Context, settlementID uuid.UUID) ([]*Record, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+recordCols+` FROM payment_record WHERE settlement_id = $1 ORDER BY created_at`, settlementID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Record
	for rows.Next() {
		rec, err := r.scanRecord(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, rec)
	}
	return items, nil
}
