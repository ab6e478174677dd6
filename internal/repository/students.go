package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/biharilibrary/library-manager/backend/internal/domain"
	"github.com/biharilibrary/library-manager/backend/internal/pricing"
	"github.com/biharilibrary/library-manager/backend/internal/seating"
)

const studentColumns = `
	sid, name, email, mobile, father, guardian, gender, admission_date,
	shift, time, payment_amount, address, image, COALESCE(seat_number, ''), seat_shift,
	instagram, facebook, youtube, last_payment, next_payment, payment_due,
	status, is_deleted, deleted_at, created_at, updated_at, version, last_reminded_at
`

func studentDst(s *domain.Student) []any {
	return []any{
		&s.SID, &s.Name, &s.Email, &s.Mobile, &s.Father, &s.Guardian, &s.Gender, &s.AdmissionDate,
		&s.Shift, &s.Time, &s.PaymentAmount, &s.Address, &s.Image, &s.SeatNumber, &s.SeatShift,
		&s.Instagram, &s.Facebook, &s.Youtube, &s.LastPayment, &s.NextPayment, &s.PaymentDue,
		&s.Status, &s.IsDeleted, &s.DeletedAt, &s.CreatedAt, &s.UpdatedAt, &s.Version, &s.LastRemindedAt,
	}
}

func nullableSeat(seatNumber string) sql.NullString {
	return sql.NullString{String: seatNumber, Valid: seatNumber != ""}
}

// StudentFilter 是学生列表的查询条件，零值表示不过滤
type StudentFilter struct {
	Status  domain.StudentStatus
	Query   string // 匹配学号子串或者姓名子串（不区分大小写）
	Deleted bool
}

// checkSeat 在事务中锁住座位，并检查除 excludeSID 以外的占用者是否与 want 冲突
func checkSeat(ctx context.Context, tx *sql.Tx, seatNumber string, want pricing.SeatShift, excludeSID int64) error {
	query := `SELECT seat_number FROM seats WHERE seat_number = $1 FOR UPDATE`

	var locked string
	if err := tx.QueryRowContext(ctx, query, seatNumber).Scan(&locked); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrSeatNotFound
		}
		return fmt.Errorf("锁定座位 %s 失败: %w", seatNumber, err)
	}

	query = `
		SELECT seat_number, seat_shift, sid FROM students
		WHERE seat_number = $1 AND NOT is_deleted AND status <> 'Inactive'
	`

	rows, err := tx.QueryContext(ctx, query, seatNumber)
	if err != nil {
		return fmt.Errorf("查询座位 %s 的占用情况失败: %w", seatNumber, err)
	}
	defer rows.Close()

	holders := make([]*domain.SeatOccupancy, 0)
	for rows.Next() {
		var o domain.SeatOccupancy
		if err := rows.Scan(&o.SeatNumber, &o.SeatShift, &o.SID); err != nil {
			return err
		}
		holders = append(holders, &o)
	}

	if err := rows.Err(); err != nil {
		return err
	}

	if !SeatAllows(holders, want, excludeSID) {
		return ErrSeatOccupied
	}

	return nil
}

// SeatAllows 判断座位的现有占用者（excludeSID 自己除外）是否允许再占用 want 时段
func SeatAllows(holders []*domain.SeatOccupancy, want pricing.SeatShift, excludeSID int64) bool {
	occupied := make([]pricing.SeatShift, 0, len(holders))
	for _, o := range holders {
		if excludeSID != 0 && o.SID == excludeSID {
			continue
		}
		occupied = append(occupied, o.SeatShift)
	}

	return seating.Available(occupied, want)
}

func (r *Repository) CreateStudent(student *domain.Student) error {
	ctx, cancel := r.transactionContext()
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if student.HoldsSeat() {
		if err := checkSeat(ctx, tx, student.SeatNumber, student.SeatShift, 0); err != nil {
			return err
		}
	}

	query := `
		INSERT INTO students (
			name, email, mobile, father, guardian, gender, admission_date,
			shift, time, payment_amount, address, image, seat_number, seat_shift,
			instagram, facebook, youtube, last_payment, next_payment, payment_due, status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
		RETURNING sid, is_deleted, created_at, updated_at, version
	`

	args := []any{
		student.Name, student.Email, student.Mobile, student.Father, student.Guardian, student.Gender, student.AdmissionDate,
		student.Shift, student.Time, student.PaymentAmount, student.Address, student.Image, nullableSeat(student.SeatNumber), student.SeatShift,
		student.Instagram, student.Facebook, student.Youtube, student.LastPayment, student.NextPayment, student.PaymentDue, student.Status,
	}
	dst := []any{&student.SID, &student.IsDeleted, &student.CreatedAt, &student.UpdatedAt, &student.Version}
	if err := tx.QueryRowContext(ctx, query, args...).Scan(dst...); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	return nil
}

func (r *Repository) GetStudentBySID(sid int64) (*domain.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students WHERE sid = $1`

	ctx, cancel := r.queryContext()
	defer cancel()

	student := &domain.Student{}
	if err := r.dbpool.QueryRowContext(ctx, query, sid).Scan(studentDst(student)...); err != nil {
		return nil, err
	}

	return student, nil
}

func (r *Repository) GetStudents(filter StudentFilter) ([]*domain.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students
		WHERE is_deleted = $1
			AND ($2::text = '' OR status = $2::text)
			AND (
				$3::text = ''
				OR CAST(sid AS TEXT) LIKE '%' || $3::text || '%'
				OR LOWER(name) LIKE '%' || LOWER($3::text) || '%'
			)
		ORDER BY sid DESC
	`

	return r.queryStudents(query, filter.Deleted, string(filter.Status), filter.Query)
}

// GetOverdueStudents 返回到 now 为止应缴费但尚未缴费的学生
func (r *Repository) GetOverdueStudents(now time.Time) ([]*domain.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students
		WHERE NOT is_deleted AND status <> 'Inactive' AND next_payment <= $1
		ORDER BY next_payment
	`

	return r.queryStudents(query, now)
}

func (r *Repository) queryStudents(query string, args ...any) ([]*domain.Student, error) {
	ctx, cancel := r.queryContext()
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	students := make([]*domain.Student, 0)
	for rows.Next() {
		student := &domain.Student{}
		if err := rows.Scan(studentDst(student)...); err != nil {
			return nil, err
		}
		students = append(students, student)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return students, nil
}

// UpdateStudent 更新学生信息，如果学生占用座位则在同一事务中重新检查座位
func (r *Repository) UpdateStudent(student *domain.Student) error {
	ctx, cancel := r.transactionContext()
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if student.HoldsSeat() {
		if err := checkSeat(ctx, tx, student.SeatNumber, student.SeatShift, student.SID); err != nil {
			return err
		}
	}

	query := `
		UPDATE students
		SET
			name = $1,
			email = $2,
			mobile = $3,
			father = $4,
			guardian = $5,
			gender = $6,
			admission_date = $7,
			shift = $8,
			time = $9,
			payment_amount = $10,
			address = $11,
			image = $12,
			seat_number = $13,
			seat_shift = $14,
			instagram = $15,
			facebook = $16,
			youtube = $17,
			status = $18,
			updated_at = now(),
			version = version + 1
		WHERE sid = $19 AND version = $20 AND NOT is_deleted
		RETURNING updated_at, version
	`

	args := []any{
		student.Name, student.Email, student.Mobile, student.Father, student.Guardian, student.Gender, student.AdmissionDate,
		student.Shift, student.Time, student.PaymentAmount, student.Address, student.Image, nullableSeat(student.SeatNumber), student.SeatShift,
		student.Instagram, student.Facebook, student.Youtube, student.Status,
		student.SID, student.Version,
	}
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&student.UpdatedAt, &student.Version); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	return nil
}

// SetStudentStatus 只修改学生状态，用于欠费提醒
func (r *Repository) SetStudentStatus(sid int64, version int32, status domain.StudentStatus) (int32, error) {
	query := `
		UPDATE students
		SET status = $1, updated_at = now(), version = version + 1
		WHERE sid = $2 AND version = $3
		RETURNING version
	`

	ctx, cancel := r.queryContext()
	defer cancel()

	var newVersion int32
	if err := r.dbpool.QueryRowContext(ctx, query, status, sid, version).Scan(&newVersion); err != nil {
		return 0, err
	}

	return newVersion, nil
}

// MarkStudentReminded 记录催缴邮件的发送时间，不改变 version
func (r *Repository) MarkStudentReminded(sid int64, at time.Time) error {
	query := `UPDATE students SET last_reminded_at = $1 WHERE sid = $2`

	ctx, cancel := r.queryContext()
	defer cancel()

	_, err := r.dbpool.ExecContext(ctx, query, at, sid)
	return err
}

// TrashStudent 将学生移入回收站，座位随之释放
func (r *Repository) TrashStudent(sid int64) error {
	query := `
		UPDATE students
		SET is_deleted = TRUE, deleted_at = now(), updated_at = now(), version = version + 1
		WHERE sid = $1 AND NOT is_deleted
		RETURNING version
	`

	ctx, cancel := r.queryContext()
	defer cancel()

	var version int32
	if err := r.dbpool.QueryRowContext(ctx, query, sid).Scan(&version); err != nil {
		return err
	}

	return nil
}

// RestoreStudent 从回收站恢复学生，原座位在此期间可能已经被其他人占用，此时可以通过 seatNumber 换一个座位
func (r *Repository) RestoreStudent(sid int64, seatNumber string) (*domain.Student, error) {
	ctx, cancel := r.transactionContext()
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `SELECT ` + studentColumns + ` FROM students WHERE sid = $1 AND is_deleted FOR UPDATE`

	student := &domain.Student{}
	if err := tx.QueryRowContext(ctx, query, sid).Scan(studentDst(student)...); err != nil {
		return nil, err
	}

	student.IsDeleted = false
	student.DeletedAt = nil
	if seatNumber != "" {
		student.SeatNumber = seatNumber
	}
	if student.HoldsSeat() {
		if err := checkSeat(ctx, tx, student.SeatNumber, student.SeatShift, student.SID); err != nil {
			return nil, err
		}
	}

	query = `
		UPDATE students
		SET is_deleted = FALSE, deleted_at = NULL, seat_number = $2, updated_at = now(), version = version + 1
		WHERE sid = $1
		RETURNING updated_at, version
	`

	if err := tx.QueryRowContext(ctx, query, sid, nullableSeat(student.SeatNumber)).Scan(&student.UpdatedAt, &student.Version); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return student, nil
}

// DeleteStudentPermanently 只能删除回收站中的学生，其发票随之级联删除
func (r *Repository) DeleteStudentPermanently(sid int64) error {
	query := `DELETE FROM students WHERE sid = $1 AND is_deleted`

	ctx, cancel := r.queryContext()
	defer cancel()

	result, err := r.dbpool.ExecContext(ctx, query, sid)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}

	return nil
}
