package order

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

const orderCols = `id, order_no, patient_id, patient_name, patient_id_card, insurance_type,
	hospital_name, hospital_level, doctor_name, department_name, diagnosis,
	order_type, visit_time, discharge_time, stay_days,
	total_amount, drug_amount, treatment_amount, service_amount, other_amount,
	category_a_amount, category_b_amount, category_c_amount,
	settlement_no, settlement_time, approval_result, approval_remark, reject_reason, cancel_reason,
	status, create_by, update_by, remark, created_at, updated_at`

func (r *repoPG) scanOrder(row pgx.Row) (*MedicalOrder, error) {
	var o MedicalOrder
	err := row.Scan(&o.ID, &o.OrderNo, &o.PatientID, &o.PatientName, &o.PatientIDCard, &o.InsuranceType,
		&o.HospitalName, &o.HospitalLevel, &o.DoctorName, &o.DepartmentName, &o.Diagnosis,
		&o.OrderType, &o.VisitTime, &o.DischargeTime, &o.StayDays,
		&o.TotalAmount, &o.DrugAmount, &o.TreatmentAmount, &o.ServiceAmount, &o.OtherAmount,
		&o.CategoryAAmount, &o.CategoryBAmount, &o.CategoryCAmount,
		&o.SettlementNo, &o.SettlementTime, &o.ApprovalResult, &o.ApprovalRemark, &o.RejectReason, &o.CancelReason,
		&o.Status, &o.CreateBy, &o.UpdateBy, &o.Remark, &o.CreatedAt, &o.UpdatedAt)
	return &o, err
}

func (r *repoPG) Create(ctx context.Context, o *MedicalOrder) error {
	o.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO medical_order (id, order_no, patient_id, patient_name, patient_id_card, insurance_type,
			hospital_name, hospital_level, doctor_name, department_name, diagnosis,
			order_type, visit_time, discharge_time, stay_days,
			total_amount, drug_amount, treatment_amount, service_amount, other_amount,
			category_a_amount, category_b_amount, category_c_amount,
			status, create_by, update_by, remark)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24,$25,$26,$27)`,
		o.ID, o.OrderNo, o.PatientID, o.PatientName, o.PatientIDCard, o.InsuranceType,
		o.HospitalName, o.HospitalLevel, o.DoctorName, o.DepartmentName, o.Diagnosis,
		o.OrderType, o.VisitTime, o.DischargeTime, o.StayDays,
		o.TotalAmount, o.DrugAmount, o.TreatmentAmount, o.ServiceAmount, o.OtherAmount,
		o.CategoryAAmount, o.CategoryBAmount, o.CategoryCAmount,
		o.Status, o.CreateBy, o.UpdateBy, o.Remark)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*MedicalOrder, error) {
	return r.scanOrder(r.conn(ctx).QueryRow(ctx, `SELECT `+orderCols+` FROM medical_order WHERE id = $1`, id))
}

func (r *repoPG) GetByOrderNo(ctx context.Context, orderNo string) (*MedicalOrder, error) {
	return r.scanOrder(r.conn(ctx).QueryRow(ctx, `SELECT `+orderCols+` FROM medical_order WHERE order_no = $1`, orderNo))
}

func (r *repoPG) Update(ctx context.Context, o *MedicalOrder) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE medical_order SET patient_name=$2, patient_id_card=$3, insurance_type=$4,
			hospital_name=$5, hospital_level=$6, doctor_name=$7, department_name=$8, diagnosis=$9,
			order_type=$10, visit_time=$11, discharge_time=$12, stay_days=$13,
			total_amount=$14, drug_amount=$15, treatment_amount=$16, service_amount=$17, other_amount=$18,
			category_a_amount=$19, category_b_amount=$20, category_c_amount=$21,
			settlement_no=$22, settlement_time=$23, approval_result=$24, approval_remark=$25,
			reject_reason=$26, cancel_reason=$27, status=$28, update_by=$29, remark=$30, updated_at=NOW()
		WHERE id = $1`,
		o.ID, o.PatientName, o.PatientIDCard, o.InsuranceType,
		o.HospitalName, o.HospitalLevel, o.DoctorName, o.DepartmentName, o.Diagnosis,
		o.OrderType, o.VisitTime, o.DischargeTime, o.StayDays,
		o.TotalAmount, o.DrugAmount, o.TreatmentAmount, o.ServiceAmount, o.OtherAmount,
		o.CategoryAAmount, o.CategoryBAmount, o.CategoryCAmount,
		o.SettlementNo, o.SettlementTime, o.ApprovalResult, o.ApprovalRemark,
		o.RejectReason, o.CancelReason, o.Status, o.UpdateBy, o.Remark)
	return err
}

func (r *repoPG) List(ctx context.Context, f ListFilter, limit, offset int) ([]*MedicalOrder, int, error) {
	where := ` WHERE 1=1`
	args := []interface{}{}
	n := 0
	if f.OrderNo != "" {
		n++
		where += fmt.Sprintf(` AND order_no = $%d`, n)
		args = append(args, f.OrderNo)
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
	if f.Keyword != "" {
		n++
		where += fmt.Sprintf(` AND (patient_name ILIKE $%d OR hospital_name ILIKE $%d)`, n, n)
		args = append(args, "%"+f.Keyword+"%")
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM medical_order`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + orderCols + ` FROM medical_order` + where +
		fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, n+1, n+2)
	rows, err := r.conn(ctx).Query(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*MedicalOrder
	for rows.Next() {
		o, err := r.scanOrder(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, o)
	}
	return items, total, nil
}

const itemCols = `id, order_id, item_type, item_code, item_name, category, spec, unit,
	quantity, unit_price, total_amount, service_time, created_at`

func (r *repoPG) ReplaceItems(ctx context.Context, orderID uuid.UUID, items []*OrderItem) error {
	if _, err := r.conn(ctx).Exec(ctx, `DELETE FROM medical_order_item WHERE order_id = $1`, orderID); err != nil {
		return err
	}
	for _, it := range items {
		it.ID = uuid.New()
		it.OrderID = orderID
		if _, err := r.conn(ctx).Exec(ctx, `
			INSERT INTO medical_order_item (id, order_id, item_type, item_code, item_name,
				category, spec, unit, quantity, unit_price, total_amount, service_time)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
			it.ID, it.OrderID, it.ItemType, it.ItemCode, it.ItemName,
			it.Category, it.Spec, it.Unit, it.Quantity, it.UnitPrice, it.TotalAmount, it.ServiceTime); err != nil {
			return err
		}
	}
	return nil
}

func (r *repoPG) ListItems(ctx context.Context, orderID uuid.UUID) ([]*OrderItem, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+itemCols+` FROM medical_order_item WHERE order_id = $1 ORDER BY created_at`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*OrderItem
	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ItemType, &it.ItemCode, &it.ItemName,
			&it.Category, &it.Spec, &it.Unit, &it.Quantity, &it.UnitPrice, &it.TotalAmount,
			&it.ServiceTime, &it.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, &it)
	}
	return items, nil
}
