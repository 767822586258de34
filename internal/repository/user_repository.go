package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/meeting-room-reservation/internal/model"
	"github.com/iliyamo/meeting-room-reservation/internal/utils"
)

type UserRepo struct{ db *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{db: db} }

const userColumns = `id, employee_id, name, email, department, password_hash, role, is_active, created_at, updated_at`

func scanUser(s rowScanner) (model.User, error) {
	var (
		u     model.User
		email sql.NullString
	)
	err := s.Scan(&u.ID, &u.EmployeeID, &u.Name, &email, &u.Department, &u.PasswordHash, &u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	u.Email = stringPtr(email)
	return u, err
}

// Create hashes the sign-in secret for u and inserts the row.  u.ID is set
// on success; a taken employee number yields ErrDuplicate.
func (r *UserRepo) Create(ctx context.Context, u *model.User, cost int) error {
	u.Name = strings.TrimSpace(u.Name)
	hash, err := utils.HashPassword(utils.EmployeeSecret(u.EmployeeID, u.Name), cost)
	if err != nil {
		return err
	}
	if u.Role == "" {
		u.Role = model.RoleEmployee
	}
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO users (employee_id, name, email, department, password_hash, role) VALUES (?,?,?,?,?,?)",
		u.EmployeeID, u.Name, nullString(u.Email), u.Department, hash, u.Role)
	if err != nil {
		if isDuplicate(err) {
			return ErrDuplicate
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	u.ID = uint64(id)
	u.PasswordHash = hash
	u.IsActive = true
	return nil
}

// GetByEmployeeID fetches a user by employee number.
func (r *UserRepo) GetByEmployeeID(ctx context.Context, employeeID string) (model.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE employee_id=? LIMIT 1", strings.TrimSpace(employeeID)))
	return u, notFound(err, ErrUserNotFound)
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
	return u, notFound(err, ErrUserNotFound)
}

// List returns every user ordered by name.
func (r *UserRepo) List(ctx context.Context) ([]model.User, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+userColumns+" FROM users ORDER BY name, id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// Delete removes a user together with their reservations in one
// transaction and returns how many reservations went with them.  Refresh
// tokens cascade in the schema.
func (r *UserRepo) Delete(ctx context.Context, id uint64) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, "DELETE FROM reservations WHERE user_id=?", id)
	if err != nil {
		return 0, err
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	res, err = tx.ExecContext(ctx, "DELETE FROM users WHERE id=?", id)
	if err != nil {
		return 0, err
	}
	if n, err := res.RowsAffected(); err != nil {
		return 0, err
	} else if n == 0 {
		return 0, ErrUserNotFound
	}
	return removed, tx.Commit()
}
