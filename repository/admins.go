package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"storefront/models"
)

const adminColumns = `id, email, password_hash, first_name, last_name, role, is_active, last_login_at, created_at`

func FindAdminByEmail(ctx context.Context, q sqlx.ExtContext, email string) (*models.Admin, error) {
	var a models.Admin
	if err := get(ctx, q, &a, `SELECT `+adminColumns+` FROM admins WHERE email = ?`, email); err != nil {
		return nil, err
	}
	return &a, nil
}

func FindAdminByID(ctx context.Context, q sqlx.ExtContext, id int64) (*models.Admin, error) {
	var a models.Admin
	if err := get(ctx, q, &a, `SELECT `+adminColumns+` FROM admins WHERE id = ?`, id); err != nil {
		return nil, err
	}
	return &a, nil
}

func InsertAdmin(ctx context.Context, q sqlx.ExtContext, a *models.Admin) error {
	id, err := insertID(ctx, q, `INSERT INTO admins (email, password_hash, first_name, last_name, role, is_active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`, a.Email, a.PasswordHash, a.FirstName, a.LastName, a.Role, a.IsActive, a.CreatedAt)
	if err != nil {
		return err
	}
	a.ID = id
	return nil
}

func TouchAdminLogin(ctx context.Context, q sqlx.ExtContext, id int64, at time.Time) error {
	return execOne(ctx, q, `UPDATE admins SET last_login_at = ? WHERE id = ?`, at, id)
}
