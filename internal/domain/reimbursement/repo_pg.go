package reimbursement

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

type levelRepoPG struct{ pool *pgxpool.Pool }

func NewLevelRepoPG(pool *pgxpool.Pool) LevelRepository { return &levelRepoPG{pool: pool} }

func (r *levelRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const levelCols = `id, level_code, level_name, insurance_type, hospital_level,
	deductible, max_reimbursement,
	category_a_rate, category_b_rate, category_c_rate, treatment_rate, service_rate,
	status, effective_time, expire_time,
	create_by, update_by, remark, created_at, updated_at`

func (r *levelRepoPG) scanLevel(row pgx.Row) (*Level, error) {
	var l Level
	err := row.Scan(&l.ID, &l.LevelCode, &l.LevelName, &l.InsuranceType, &l.HospitalLevel,
		&l.Deductible, &l.MaxReimbursement,
		&l.CategoryARate, &l.CategoryBRate, &l.CategoryCRate, &l.TreatmentRate, &l.ServiceRate,
		&l.Status, &l.EffectiveTime, &l.ExpireTime,
		&l.CreateBy, &l.UpdateBy, &l.Remark, &l.CreatedAt, &l.UpdatedAt)
	return &l, err
}

func (r *levelRepoPG) Create(ctx context.Context, l *Level) error {
	l.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO reimbursement_level (id, level_code, level_name, insurance_type, hospital_level,
			deductible, max_reimbursement,
			category_a_rate, category_b_rate, category_c_rate, treatment_rate, service_rate,
			status, effective_time, expire_time, create_by, update_by, remark)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)`,
		l.ID, l.LevelCode, l.LevelName, l.InsuranceType, l.HospitalLevel,
		l.Deductible, l.MaxReimbursement,
		l.CategoryARate, l.CategoryBRate, l.CategoryCRate, l.TreatmentRate, l.ServiceRate,
		l.Status, l.EffectiveTime, l.ExpireTime, l.CreateBy, l.UpdateBy, l.Remark)
	return err
}

func (r *levelRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Level, error) {
	return r.scanLevel(r.conn(ctx).QueryRow(ctx, `SELECT `+levelCols+` FROM reimbursement_level WHERE id = $1`, id))
}

func (r *levelRepoPG) GetByCode(ctx context.Context, code string) (*Level, error) {
	return r.scanLevel(r.conn(ctx).QueryRow(ctx, `SELECT `+levelCols+` FROM reimbursement_level WHERE level_code = $1`, code))
}

func (r *levelRepoPG) Update(ctx context.Context, l *Level) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE reimbursement_level SET level_name=$2, insurance_type=$3, hospital_level=$4,
			deductible=$5, max_reimbursement=$6,
			category_a_rate=$7, category_b_rate=$8, category_c_rate=$9, treatment_rate=$10, service_rate=$11,
			status=$12, effective_time=$13, expire_time=$14, update_by=$15, remark=$16, updated_at=NOW()
		WHERE id = $1`,
		l.ID, l.LevelName, l.InsuranceType, l.HospitalLevel,
		l.Deductible, l.MaxReimbursement,
		l.CategoryARate, l.CategoryBRate, l.CategoryCRate, l.TreatmentRate, l.ServiceRate,
		l.Status, l.EffectiveTime, l.ExpireTime, l.UpdateBy, l.Remark)
	return err
}

func (r *levelRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM reimbursement_level WHERE id = $1`, id)
	return err
}

func (r *levelRepoPG) List(ctx context.Context, f ListFilter, limit, offset int) ([]*Level, int, error) {
	where := ` WHERE 1=1`
	args := []interface{}{}
	n := 0
	if f.InsuranceType != "" {
		n++
		where += fmt.Sprintf(` AND insurance_type = $%d`, n)
		args = append(args, f.InsuranceType)
	}
	if f.HospitalLevel != "" {
		n++
		where += fmt.Sprintf(` AND hospital_level = $%d`, n)
		args = append(args, f.HospitalLevel)
	}
	if f.Status != nil {
		n++
		where += fmt.Sprintf(` AND status = $%d`, n)
		args = append(args, *f.Status)
	}
	if f.Keyword != "" {
		n++
		where += fmt.Sprintf(` AND (level_code ILIKE $%d OR level_name ILIKE $%d)`, n, n)
		args = append(args, "%"+f.Keyword+"%")
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM reimbursement_level`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + levelCols + ` FROM reimbursement_level` + where +
		fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, n+1, n+2)
	rows, err := r.conn(ctx).Query(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Level
	for rows.Next() {
		l, err := r.scanLevel(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, l)
	}
	return items, total, nil
}

func (r *levelRepoPG) ListEffective(ctx context.Context, asOf time.Time) ([]*Level, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+levelCols+` FROM reimbursement_level
		WHERE status = $1 AND effective_time <= $2 AND expire_time >= $2
		ORDER BY effective_time DESC`, StatusEnabled, asOf)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Level
	for rows.Next() {
		l, err := r.scanLevel(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, l)
	}
	return items, nil
}

func (r *levelRepoPG) SetStatus(ctx context.Context, id uuid.UUID, status int, updateBy string) error {
	_, err := r.conn(ctx).Exec(ctx,
		`UPDATE reimbursement_level SET status=$2, update_by=$3, updated_at=NOW() WHERE id = $1`,
		id, status, updateBy)
	return err
}
