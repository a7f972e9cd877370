package settlement

import (
	"context"
	"fmt"
	"time"

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

const settlementCols = `id, settlement_no, order_id, order_no, patient_id, level_id, level_code,
	total_amount, category_a_amount, category_b_amount, category_c_amount, treatment_amount, service_amount,
	deductible, billable_amount, reimbursable_amount, actual_reimbursement, self_pay_amount,
	status, superseded, settlement_time, create_by, remark, created_at`

func (r *repoPG) scanSettlement(row pgx.Row) (*Settlement, error) {
	var s Settlement
	err := row.Scan(&s.ID, &s.SettlementNo, &s.OrderID, &s.OrderNo, &s.PatientID, &s.LevelID, &s.LevelCode,
		&s.TotalAmount, &s.CategoryAAmount, &s.CategoryBAmount, &s.CategoryCAmount, &s.TreatmentAmount, &s.ServiceAmount,
		&s.Deductible, &s.BillableAmount, &s.ReimbursableAmount, &s.ActualReimbursement, &s.SelfPayAmount,
		&s.Status, &s.Superseded, &s.SettlementTime, &s.CreateBy, &s.Remark, &s.CreatedAt)
	return &s, err
}

func (r *repoPG) Create(ctx context.Context, s *Settlement) error {
	s.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO settlement (id, settlement_no, order_id, order_no, patient_id, level_id, level_code,
			total_amount, category_a_amount, category_b_amount, category_c_amount, treatment_amount, service_amount,
			deductible, billable_amount, reimbursable_amount, actual_reimbursement, self_pay_amount,
			status, superseded, settlement_time, create_by, remark)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23)`,
		s.ID, s.SettlementNo, s.OrderID, s.OrderNo, s.PatientID, s.LevelID, s.LevelCode,
		s.TotalAmount, s.CategoryAAmount, s.CategoryBAmount, s.CategoryCAmount, s.TreatmentAmount, s.ServiceAmount,
		s.Deductible, s.BillableAmount, s.ReimbursableAmount, s.ActualReimbursement, s.SelfPayAmount,
		s.Status, s.Superseded, s.SettlementTime, s.CreateBy, s.Remark)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Settlement, error) {
	return r.scanSettlement(r.conn(ctx).QueryRow(ctx, `SELECT `+settlementCols+` FROM settlement WHERE id = $1`, id))
}

func (r *repoPG) GetCurrentByOrder(ctx context.Context, orderID uuid.UUID) (*Settlement, error) {
	return r.scanSettlement(r.conn(ctx).QueryRow(ctx, `
		SELECT `+settlementCols+` FROM settlement
		WHERE order_id = $1 AND superseded = FALSE
		ORDER BY created_at DESC LIMIT 1`, orderID))
}

func (r *repoPG) Supersede(ctx context.Context, orderID uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `UPDATE settlement SET superseded = TRUE WHERE order_id = $1`, orderID)
	return err
}

func (r *repoPG) SetStatus(ctx context.Context, id uuid.UUID, status int) error {
	_, err := r.conn(ctx).Exec(ctx, `UPDATE settlement SET status = $2 WHERE id = $1`, id, status)
	return err
}

func (r *repoPG) List(ctx context.Context, f ListFilter, limit, offset int) ([]*Settlement, int, error) {
	where := ` WHERE 1=1`
	args := []interface{}{}
	n := 0
	if f.SettlementNo != "" {
		n++
		where += fmt.Sprintf(` AND settlement_no = $%d`, n)
		args = append(args, f.SettlementNo)
	}
	if f.OrderID != uuid.Nil {
		n++
		where += fmt.Sprintf(` AND order_id = $%d`, n)
		args = append(args, f.OrderID)
	}
	if f.PatientID != uuid.Nil {
		n++
		where += fmt.Sprintf(` AND patient_id = $%d`, n)
		args = append(args, f.PatientID)
	}
	if f.Status != nil {
		n++
		where += fmt.Sprintf(` AND status = $%d`, n)
		args = append(args, *f.Status)
	}
	if f.From != nil {
		n++
		where += fmt.Sprintf(` AND settlement_time >= $%d`, n)
		args = append(args, *f.From)
	}
	if f.To != nil {
		n++
		where += fmt.Sprintf(` AND settlement_time <= $%d`, n)
		args = append(args, *f.To)
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM settlement`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + settlementCols + ` FROM settlement` + where +
		fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, n+1, n+2)
	rows, err := r.conn(ctx).Query(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Settlement
	for rows.Next() {
		s, err := r.scanSettlement(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, s)
	}
	return items, total, nil
}

func (r *repoPG) Stats(ctx context.Context, from, to time.Time) (*Statistics, error) {
	stats := &Statistics{ByStatus: make(map[int]int)}
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT COUNT(*),
			COALESCE(SUM(total_amount), 0),
			COALESCE(SUM(actual_reimbursement), 0),
			COALESCE(SUM(self_pay_amount), 0)
		FROM settlement
		WHERE superseded = FALSE AND settlement_time >= $1 AND settlement_time <= $2`,
		from, to).Scan(&stats.Count, &stats.TotalAmount, &stats.TotalActual, &stats.TotalSelf)
	if err != nil {
		return nil, err
	}

	rows, err := r.conn(ctx).Query(ctx, `
		SELECT status, COUNT(*) FROM settlement
		WHERE superseded = FALSE AND settlement_time >= $1 AND settlement_time <= $2
		GROUP BY status`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var status, count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats.ByStatus[status] = count
	}
	return stats, nil
}

func (r *repoPG) AppendAudit(ctx context.Context, e *AuditEntry) error {
	e.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO settlement_audit (id, settlement_no, order_id, actor, action,
			before_actual, after_actual, before_self, after_self, overrides)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		e.ID, e.SettlementNo, e.OrderID, e.Actor, e.Action,
		e.BeforeActual, e.AfterActual, e.BeforeSelf, e.AfterSelf, e.Overrides)
	return err
}

func (r *repoPG) ListAudit(ctx context.Context, orderID uuid.UUID) ([]*AuditEntry, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, settlement_no, order_id, actor, action,
			before_actual, after_actual, before_self, after_self, overrides, created_at
		FROM settlement_audit WHERE order_id = $1 ORDER BY created_at`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*AuditEntry
	for rows.Next() {
		var e AuditEntry
		if err := rows.Scan(&e.ID, &e.SettlementNo, &e.OrderID, &e.Actor, &e.Action,
			&e.BeforeActual, &e.AfterActual, &e.BeforeSelf, &e.AfterSelf, &e.Overrides, &e.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, &e)
	}
	return items, nil
}
