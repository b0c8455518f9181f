package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hostelhq/hostel-management/internal/model"
)

// GlobalSemesterRepo provides access to the global_semesters table,
// the super-admin-owned naming templates hostels may reference.
type GlobalSemesterRepo struct{ DB *sql.DB }

func NewGlobalSemesterRepo(db *sql.DB) *GlobalSemesterRepo { return &GlobalSemesterRepo{DB: db} }

const globalSemesterCols = "id,name,description,is_active,created_at,updated_at"

// Create inserts a template and returns its ID.
func (r *GlobalSemesterRepo) Create(ctx context.Context, name, description string) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO global_semesters (name, description) VALUES (?,?)", name, description)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByID fetches a template by id.
func (r *GlobalSemesterRepo) GetByID(ctx context.Context, id uint64) (model.GlobalSemester, error) {
	var g model.GlobalSemester
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+globalSemesterCols+" FROM global_semesters WHERE id=? LIMIT 1", id).
		Scan(&g.ID, &g.Name, &g.Description, &g.IsActive, &g.CreatedAt, &g.UpdatedAt)
	return g, err
}

// List returns every template, active first.
func (r *GlobalSemesterRepo) List(ctx context.Context) ([]model.GlobalSemester, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+globalSemesterCols+" FROM global_semesters ORDER BY is_active DESC, name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.GlobalSemester, 0)
	for rows.Next() {
		var g model.GlobalSemester
		if err := rows.Scan(&g.ID, &g.Name, &g.Description, &g.IsActive, &g.CreatedAt, &g.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// Update edits name, description and the active flag.
func (r *GlobalSemesterRepo) Update(ctx context.Context, id uint64, name, description string, isActive bool) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE global_semesters SET name=?, description=?, is_active=? WHERE id=?",
		name, description, isActive, id)
	return err
}

// Delete removes a template, but only while no hostel semester
// references it; otherwise ErrConflict is returned and the caller
// should retire the template with Update instead.
func (r *GlobalSemesterRepo) Delete(ctx context.Context, id uint64) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var refs int
	if err := tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM semesters WHERE global_semester_id=?", id).Scan(&refs); err != nil {
		return err
	}
	if refs > 0 {
		return fmt.Errorf("%w: template referenced by %d semester(s)", ErrConflict, refs)
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM global_semesters WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// Exists reports whether an active template with the id exists; used
// to validate the optional reference on semester creation.
func (r *GlobalSemesterRepo) Exists(ctx context.Context, id uint64) (bool, error) {
	var one int
	err := r.DB.QueryRowContext(ctx,
		"SELECT 1 FROM global_semesters WHERE id=? AND is_active=1 LIMIT 1", id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
