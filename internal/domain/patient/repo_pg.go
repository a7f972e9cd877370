package patient

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

const patientCols = `id, patient_no, name, id_card, gender, birth_date, phone, address,
	insurance_type, insurance_number, status, remark, create_by, update_by, created_at, updated_at`

func (r *repoPG) scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.PatientNo, &p.Name, &p.IDCard, &p.Gender, &p.BirthDate, &p.Phone, &p.Address,
		&p.InsuranceType, &p.InsuranceNumber, &p.Status, &p.Remark, &p.CreateBy, &p.UpdateBy, &p.CreatedAt, &p.UpdatedAt)
	return &p, err
}

func (r *repoPG) Create(ctx context.Context, p *Patient) error {
	p.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO patient (id, patient_no, name, id_card, gender, birth_date, phone, address,
			insurance_type, insurance_number, status, remark, create_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
		p.ID, p.PatientNo, p.Name, p.IDCard, p.Gender, p.BirthDate, p.Phone, p.Address,
		p.InsuranceType, p.InsuranceNumber, p.Status, p.Remark, p.CreateBy)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return r.scanPatient(r.conn(ctx).QueryRow(ctx, `SELECT `+patientCols+` FROM patient WHERE id = $1`, id))
}

func (r *repoPG) GetByIDCard(ctx context.Context, idCard string) (*Patient, error) {
	return r.scanPatient(r.conn(ctx).QueryRow(ctx, `SELECT `+patientCols+` FROM patient WHERE id_card = $1`, idCard))
}

func (r *repoPG) Update(ctx context.Context, p *Patient) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE patient SET name = $2, id_card = $3, gender = $4, birth_date = $5, phone = $6, address = $7,
			insurance_type = $8, insurance_number = $9, status = $10, remark = $11, update_by = $12,
			updated_at = NOW()
		WHERE id = $1`,
		p.ID, p.Name, p.IDCard, p.Gender, p.BirthDate, p.Phone, p.Address,
		p.InsuranceType, p.InsuranceNumber, p.Status, p.Remark, p.UpdateBy)
	return err
}

func (r *repoPG) List(ctx context.Context, f ListFilter, limit, offset int) ([]*Patient, int, error) {
	where := ` WHERE 1=1`
	args := []interface{}{}
	n := 0
	if f.Name != "" {
		n++
		where += fmt.Sprintf(` AND name ILIKE $%d`, n)
		args = append(args, "%"+f.Name+"%")
	}
	if f.IDCard != "" {
		n++
		where += fmt.Sprintf(` AND id_card = $%d`, n)
		args = append(args, f.IDCard)
	}
	if f.InsuranceType != "" {
		n++
		where += fmt.Sprintf(` AND insurance_type = $%d`, n)
		args = append(args, f.InsuranceType)
	}
	if f.Status != nil {
		n++
		where += fmt.Sprintf(` AND status = $%d`, n)
		args = append(args, *f.Status)
	}
	if f.Keyword != "" {
		n++
		where += fmt.Sprintf(` AND (name ILIKE $%d OR id_card ILIKE $%d OR patient_no ILIKE $%d)`, n, n, n)
		args = append(args, "%"+f.Keyword+"%")
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM patient`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + patientCols + ` FROM patient` + where +
		fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, n+1, n+2)
	rows, err := r.conn(ctx).Query(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Patient
	for rows.Next() {
		p, err := r.scanPatient(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, nil
}

func (r *repoPG) SetStatus(ctx context.Context, id uuid.UUID, status int, updateBy string) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE patient SET status = $2, update_by = $3, updated_at = NOW() WHERE id = $1`,
		id, status, updateBy)
	return err
}
