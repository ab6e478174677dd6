package repository

import (
	"github.com/biharilibrary/library-manager/backend/internal/billing"
	"github.com/biharilibrary/library-manager/backend/internal/domain"
)

// CreatePayment 在同一事务中写入发票并更新学生的缴费信息
func (r *Repository) CreatePayment(student *domain.Student, invoice *domain.Invoice, update billing.StudentUpdate) error {
	ctx, cancel := r.transactionContext()
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `
		UPDATE students
		SET
			last_payment = $1,
			next_payment = $2,
			payment_due = $3,
			status = $4,
			updated_at = now(),
			version = version + 1
		WHERE sid = $5 AND version = $6 AND NOT is_deleted
		RETURNING updated_at, version
	`

	args := []any{update.LastPayment, update.NextPayment, update.PaymentDue, update.Status, student.SID, student.Version}
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&student.UpdatedAt, &student.Version); err != nil {
		return err
	}

	query = `
		INSERT INTO invoices (sid, payment_date, cycle_start, cycle_end, amount_paid, extra_amount_paid, remaining_due)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at, version
	`

	args = []any{invoice.SID, invoice.PaymentDate, invoice.CycleStart, invoice.CycleEnd, invoice.AmountPaid, invoice.ExtraAmountPaid, invoice.RemainingDue}
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&invoice.ID, &invoice.CreatedAt, &invoice.UpdatedAt, &invoice.Version); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	lastPayment := update.LastPayment
	student.LastPayment = &lastPayment
	student.NextPayment = update.NextPayment
	student.PaymentDue = update.PaymentDue
	student.Status = update.Status

	return nil
}

// GetInvoices 返回发票列表，sid 为 0 时返回全部
func (r *Repository) GetInvoices(sid int64) ([]*domain.Invoice, error) {
	query := `
		SELECT id, sid, payment_date, cycle_start, cycle_end, amount_paid, extra_amount_paid, remaining_due, created_at, updated_at, version
		FROM invoices
		WHERE $1 = 0 OR sid = $1
		ORDER BY payment_date DESC, id DESC
	`

	ctx, cancel := r.queryContext()
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, sid)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	invoices := make([]*domain.Invoice, 0)
	for rows.Next() {
		invoice := &domain.Invoice{}
		dst := []any{
			&invoice.ID, &invoice.SID, &invoice.PaymentDate, &invoice.CycleStart, &invoice.CycleEnd,
			&invoice.AmountPaid, &invoice.ExtraAmountPaid, &invoice.RemainingDue,
			&invoice.CreatedAt, &invoice.UpdatedAt, &invoice.Version,
		}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		invoices = append(invoices, invoice)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return invoices, nil
}
