package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/hostelhq/hostel-management/internal/model"
	"github.com/hostelhq/hostel-management/internal/utils"
)

// UserRepo provides access to the users table.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userCols = "id,email,password_hash,full_name,role,hostel_id,is_active,created_at,updated_at"

func scanUser(row *sql.Row) (model.User, error) {
	var u model.User
	var hostelID sql.NullInt64
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FullName, &u.Role, &hostelID, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return u, err
	}
	if hostelID.Valid {
		hid := uint64(hostelID.Int64)
		u.HostelID = &hid
	}
	return u, nil
}

// Create inserts a user and returns its ID.  The password is hashed
// with bcrypt at the given cost before storage.
func (r *UserRepo) Create(ctx context.Context, email, password, fullName, role string, hostelID *uint64, cost int) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (email, password_hash, full_name, role, hostel_id) VALUES (?,?,?,?,?)",
		email, hash, fullName, role, hostelID)
	if err != nil {
		// MySQL duplicate-key error code
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userCols+" FROM users WHERE email=? LIMIT 1", email))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userCols+" FROM users WHERE id=? LIMIT 1", id))
}

// SetHostel attaches a user to a hostel, used when an admin onboards
// their property or registers staff and students under it.
func (r *UserRepo) SetHostel(ctx context.Context, userID, hostelID uint64) error {
	_, err := r.DB.ExecContext(ctx, "UPDATE users SET hostel_id=? WHERE id=?", hostelID, userID)
	return err
}

// ListByRoles returns active users of the hostel holding any of the
// given roles.
func (r *UserRepo) ListByRoles(ctx context.Context, hostelID uint64, roles ...string) ([]model.User, error) {
	if len(roles) == 0 {
		return []model.User{}, nil
	}
	query := "SELECT " + userCols + " FROM users WHERE hostel_id=? AND is_active=1 AND role IN (?" +
		strings.Repeat(",?", len(roles)-1) + ") ORDER BY id"
	args := make([]interface{}, 0, len(roles)+1)
	args = append(args, hostelID)
	for _, role := range roles {
		args = append(args, role)
	}
	return r.queryUsers(ctx, query, args...)
}

// ListSuperAdmins returns every active super admin on the platform.
func (r *UserRepo) ListSuperAdmins(ctx context.Context) ([]model.User, error) {
	return r.queryUsers(ctx,
		"SELECT "+userCols+" FROM users WHERE role=? AND is_active=1 ORDER BY id", model.RoleSuperAdmin)
}

func (r *UserRepo) queryUsers(ctx context.Context, query string, args ...interface{}) ([]model.User, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	users := make([]model.User, 0)
	for rows.Next() {
		var u model.User
		var hostelID sql.NullInt64
		if err := rows.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FullName, &u.Role, &hostelID, &u.IsActive, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		if hostelID.Valid {
			hid := uint64(hostelID.Int64)
			u.HostelID = &hid
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
