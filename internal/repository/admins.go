package repository

import (
	"github.com/biharilibrary/library-manager/backend/internal/domain"
)

func (r *Repository) GetAdminByID(id int64) (*domain.Admin, error) {
	query := `
		SELECT email, password_hash, full_name, role, is_active, created_at, version
		FROM admins WHERE id = $1
	`

	ctx, cancel := r.queryContext()
	defer cancel()

	admin := &domain.Admin{
		ID: id,
	}

	dst := []any{&admin.Email, &admin.PasswordHash, &admin.FullName, &admin.Role, &admin.IsActive, &admin.CreatedAt, &admin.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, id).Scan(dst...); err != nil {
		return nil, err
	}

	return admin, nil
}

func (r *Repository) GetAdminByEmail(email string) (*domain.Admin, error) {
	query := `
		SELECT id, email, password_hash, full_name, role, is_active, created_at, version
		FROM admins WHERE LOWER(email) = LOWER($1)
	`

	ctx, cancel := r.queryContext()
	defer cancel()

	admin := &domain.Admin{}

	dst := []any{&admin.ID, &admin.Email, &admin.PasswordHash, &admin.FullName, &admin.Role, &admin.IsActive, &admin.CreatedAt, &admin.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, email).Scan(dst...); err != nil {
		return nil, err
	}

	return admin, nil
}

func (r *Repository) UpdateAdmin(admin *domain.Admin) error {
	query := `
		UPDATE admins
		SET
			password_hash = $1,
			full_name = $2,
			role = $3,
			is_active = $4,
			version = version + 1
		WHERE id = $5 AND version = $6
		RETURNING email, created_at, version
	`

	ctx, cancel := r.queryContext()
	defer cancel()

	args := []any{admin.PasswordHash, admin.FullName, admin.Role, admin.IsActive, admin.ID, admin.Version}
	dst := []any{&admin.Email, &admin.CreatedAt, &admin.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(dst...); err != nil {
		return err
	}

	return nil
}

func (r *Repository) GetAllAdmins() ([]*domain.Admin, error) {
	query := `
		SELECT id, email, password_hash, full_name, role, is_active, created_at, version FROM admins ORDER BY id
	`

	ctx, cancel := r.queryContext()
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	admins := make([]*domain.Admin, 0)
	for rows.Next() {
		admin := &domain.Admin{}
		dst := []any{&admin.ID, &admin.Email, &admin.PasswordHash, &admin.FullName, &admin.Role, &admin.IsActive, &admin.CreatedAt, &admin.Version}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		admins = append(admins, admin)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return admins, nil
}

func (r *Repository) DeleteAdmin(id int64) error {
	query := `
		DELETE FROM admins WHERE id = $1
	`

	ctx, cancel := r.queryContext()
	defer cancel()

	_, err := r.dbpool.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	return nil
}

func (r *Repository) CreateAdmin(admin *domain.Admin) error {
	ctx, cancel := r.queryContext()
	defer cancel()

	query := `
		INSERT INTO admins (email, password_hash, full_name, role)
		VALUES ($1, $2, $3, $4)
		RETURNING id, is_active, created_at, version
	`

	args := []any{admin.Email, admin.PasswordHash, admin.FullName, admin.Role}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&admin.ID, &admin.IsActive, &admin.CreatedAt, &admin.Version); err != nil {
		return err
	}

	return nil
}
