package catalog

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

type pgBase struct{ pool *pgxpool.Pool }

func (b pgBase) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return b.pool
}

// catalogWhere builds the shared keyword/status filter for a catalog table.
func catalogWhere(f ListFilter, codeCol, nameCol string) (string, []interface{}, int) {
	where := ` WHERE 1=1`
	args := []interface{}{}
	n := 0
	if f.Keyword != "" {
		n++
		where += fmt.Sprintf(` AND (%s ILIKE $%d OR %s ILIKE $%d)`, codeCol, n, nameCol, n)
		args = append(args, "%"+f.Keyword+"%")
	}
	if f.Status != nil {
		n++
		where += fmt.Sprintf(` AND status = $%d`, n)
		args = append(args, *f.Status)
	}
	return where, args, n
}

type drugRepoPG struct{ pgBase }

func NewDrugRepoPG(pool *pgxpool.Pool) DrugRepository { return &drugRepoPG{pgBase{pool: pool}} }

const drugCols = `id, drug_code, drug_name, trade_name, drug_type, self_pay_ratio,
	specification, unit, price, manufacturer, status, remark, created_at, updated_at`

func scanDrug(row pgx.Row) (*Drug, error) {
	var d Drug
	err := row.Scan(&d.ID, &d.DrugCode, &d.DrugName, &d.TradeName, &d.DrugType, &d.SelfPayRatio,
		&d.Specification, &d.Unit, &d.Price, &d.Manufacturer, &d.Status, &d.Remark, &d.CreatedAt, &d.UpdatedAt)
	return &d, err
}

func (r *drugRepoPG) Create(ctx context.Context, d *Drug) error {
	d.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO drug (id, drug_code, drug_name, trade_name, drug_type, self_pay_ratio,
			specification, unit, price, manufacturer, status, remark)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		d.ID, d.DrugCode, d.DrugName, d.TradeName, d.DrugType, d.SelfPayRatio,
		d.Specification, d.Unit, d.Price, d.Manufacturer, d.Status, d.Remark)
	return err
}

func (r *drugRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Drug, error) {
	return scanDrug(r.conn(ctx).QueryRow(ctx, `SELECT `+drugCols+` FROM drug WHERE id = $1`, id))
}

func (r *drugRepoPG) GetByCode(ctx context.Context, code string) (*Drug, error) {
	return scanDrug(r.conn(ctx).QueryRow(ctx, `SELECT `+drugCols+` FROM drug WHERE drug_code = $1`, code))
}

func (r *drugRepoPG) Update(ctx context.Context, d *Drug) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE drug SET drug_code = $2, drug_name = $3, trade_name = $4, drug_type = $5, self_pay_ratio = $6,
			specification = $7, unit = $8, price = $9, manufacturer = $10, status = $11, remark = $12,
			updated_at = NOW()
		WHERE id = $1`,
		d.ID, d.DrugCode, d.DrugName, d.TradeName, d.DrugType, d.SelfPayRatio,
		d.Specification, d.Unit, d.Price, d.Manufacturer, d.Status, d.Remark)
	return err
}

func (r *drugRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM drug WHERE id = $1`, id)
	return err
}

func (r *drugRepoPG) List(ctx context.Context, f ListFilter, limit, offset int) ([]*Drug, int, error) {
	where, args, n := catalogWhere(f, "drug_code", "drug_name")
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM drug`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	query := `SELECT ` + drugCols + ` FROM drug` + where +
		fmt.Sprintf(` ORDER BY drug_code LIMIT $%d OFFSET $%d`, n+1, n+2)
	rows, err := r.conn(ctx).Query(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Drug
	for rows.Next() {
		d, err := scanDrug(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, d)
	}
	return items, total, nil
}

func (r *drugRepoPG) SetStatus(ctx context.Context, id uuid.UUID, status int) error {
	_, err := r.conn(ctx).Exec(ctx, `UPDATE drug SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	return err
}

type equipmentRepoPG struct{ pgBase }

func NewEquipmentRepoPG(pool *pgxpool.Pool) EquipmentRepository {
	return &equipmentRepoPG{pgBase{pool: pool}}
}

const equipmentCols = `id, finance_category, equipment_code, national_code, equipment_name,
	equipment_content, exclude_content, unit_type, price, status, created_at, updated_at`

func scanEquipment(row pgx.Row) (*Equipment, error) {
	var e Equipment
	err := row.Scan(&e.ID, &e.FinanceCategory, &e.EquipmentCode, &e.NationalCode, &e.EquipmentName,
		&e.EquipmentContent, &e.ExcludeContent, &e.UnitType, &e.Price, &e.Status, &e.CreatedAt, &e.UpdatedAt)
	return &e, err
}

func (r *equipmentRepoPG) Create(ctx context.Context, e *Equipment) error {
	e.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO medical_equipment (id, finance_category, equipment_code, national_code, equipment_name,
			equipment_content, exclude_content, unit_type, price, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		e.ID, e.FinanceCategory, e.EquipmentCode, e.NationalCode, e.EquipmentName,
		e.EquipmentContent, e.ExcludeContent, e.UnitType, e.Price, e.Status)
	return err
}

func (r *equipmentRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Equipment, error) {
	return scanEquipment(r.conn(ctx).QueryRow(ctx, `SELECT `+equipmentCols+` FROM medical_equipment WHERE id = $1`, id))
}

func (r *equipmentRepoPG) GetByCode(ctx context.Context, code string) (*Equipment, error) {
	return scanEquipment(r.conn(ctx).QueryRow(ctx, `SELECT `+equipmentCols+` FROM medical_equipment WHERE equipment_code = $1`, code))
}

func (r *equipmentRepoPG) Update(ctx context.Context, e *Equipment) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE medical_equipment SET finance_category = $2, equipment_code = $3, national_code = $4,
			equipment_name = $5, equipment_content = $6, exclude_content = $7, unit_type = $8,
			price = $9, status = $10, updated_at = NOW()
		WHERE id = $1`,
		e.ID, e.FinanceCategory, e.EquipmentCode, e.NationalCode, e.EquipmentName,
		e.EquipmentContent, e.ExcludeContent, e.UnitType, e.Price, e.Status)
	return err
}

func (r *equipmentRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM medical_equipment WHERE id = $1`, id)
	return err
}

func (r *equipmentRepoPG) List(ctx context.Context, f ListFilter, limit, offset int) ([]*Equipment, int, error) {
	where, args, n := catalogWhere(f, "equipment_code", "equipment_name")
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM medical_equipment`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	query := `SELECT ` + equipmentCols + ` FROM medical_equipment` + where +
		fmt.Sprintf(` ORDER BY equipment_code LIMIT $%d OFFSET $%d`, n+1, n+2)
	rows, err := r.conn(ctx).Query(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Equipment
	for rows.Next() {
		e, err := scanEquipment(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, e)
	}
	return items, total, nil
}

func (r *equipmentRepoPG) SetStatus(ctx context.Context, id uuid.UUID, status int) error {
	_, err := r.conn(ctx).Exec(ctx, `UPDATE medical_equipment SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	return err
}

type serviceRepoPG struct{ pgBase }

func NewServiceRepoPG(pool *pgxpool.Pool) ServiceRepository {
	return &serviceRepoPG{pgBase{pool: pool}}
}

const serviceCols = `id, service_code, national_code, service_name, service_type,
	unit_type, price, status, created_at, updated_at`

func scanService(row pgx.Row) (*MedicalService, error) {
	var s MedicalService
	err := row.Scan(&s.ID, &s.ServiceCode, &s.NationalCode, &s.ServiceName, &s.ServiceType,
		&s.UnitType, &s.Price, &s.Status, &s.CreatedAt, &s.UpdatedAt)
	return &s, err
}

func (r *serviceRepoPG) Create(ctx context.Context, s *MedicalService) error {
	s.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO medical_service (id, service_code, national_code, service_name, service_type,
			unit_type, price, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		s.ID, s.ServiceCode, s.NationalCode, s.ServiceName, s.ServiceType, s.UnitType, s.Price, s.Status)
	return err
}

func (r *serviceRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*MedicalService, error) {
	return scanService(r.conn(ctx).QueryRow(ctx, `SELECT `+serviceCols+` FROM medical_service WHERE id = $1`, id))
}

func (r *serviceRepoPG) GetByCode(ctx context.Context, code string) (*MedicalService, error) {
	return scanService(r.conn(ctx).QueryRow(ctx, `SELECT `+serviceCols+` FROM medical_service WHERE service_code = $1`, code))
}

func (r *serviceRepoPG) Update(ctx context.Context, s *MedicalService) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE medical_service SET service_code = $2, national_code = $3, service_name = $4,
			service_type = $5, unit_type = $6, price = $7, status = $8, updated_at = NOW()
		WHERE id = $1`,
		s.ID, s.ServiceCode, s.NationalCode, s.ServiceName, s.ServiceType, s.UnitType, s.Price, s.Status)
	return err
}

func (r *serviceRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM medical_service WHERE id = $1`, id)
	return err
}

func (r *serviceRepoPG) List(ctx context.Context, f ListFilter, limit, offset int) ([]*MedicalService, int, error) {
	where, args, n := catalogWhere(f, "service_code", "service_name")
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM medical_service`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	query := `SELECT ` + serviceCols + ` FROM medical_service` + where +
		fmt.Sprintf(` ORDER BY service_code LIMIT $%d OFFSET $%d`, n+1, n+2)
	rows, err := r.conn(ctx).Query(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*MedicalService
	for rows.Next() {
		s, err := scanService(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, s)
	}
	return items, total, nil
}

func (r *serviceRepoPG) SetStatus(ctx context.Context, id uuid.UUID, status int) error {
	_, err := r.conn(ctx).Exec(ctx, `UPDATE medical_service SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	return err
}
