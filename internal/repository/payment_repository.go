package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/hostelhq/hostel-management/internal/model"
)

// PaymentRepo provides access to the payments and expenses tables.
type PaymentRepo struct{ DB *sql.DB }

func NewPaymentRepo(db *sql.DB) *PaymentRepo { return &PaymentRepo{DB: db} }

const paymentCols = "id,hostel_id,user_id,semester_id,amount_cents,method,reference,paid_at,created_at"

// InsertTx records a payment inside a transaction, used by the
// student registration flow so the payment commits or rolls back with
// the enrollment it pays for.
func (r *PaymentRepo) InsertTx(ctx context.Context, tx *sql.Tx, p *model.Payment) error {
	res, err := tx.ExecContext(ctx,
		"INSERT INTO payments (hostel_id, user_id, semester_id, amount_cents, method, reference, paid_at) VALUES (?,?,?,?,?,?,?)",
		p.HostelID, p.UserID, p.SemesterID, p.AmountCents, p.Method, p.Reference, p.PaidAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	return nil
}

// Insert records a standalone payment (e.g. a mid-term top-up).
func (r *PaymentRepo) Insert(ctx context.Context, p *model.Payment) error {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO payments (hostel_id, user_id, semester_id, amount_cents, method, reference, paid_at) VALUES (?,?,?,?,?,?,?)",
		p.HostelID, p.UserID, p.SemesterID, p.AmountCents, p.Method, p.Reference, p.PaidAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	return nil
}

// ListByHostel returns the hostel's payments, newest first.
func (r *PaymentRepo) ListByHostel(ctx context.Context, hostelID uint64) ([]model.Payment, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+paymentCols+" FROM payments WHERE hostel_id=? ORDER BY id DESC", hostelID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Payment, 0)
	for rows.Next() {
		var p model.Payment
		var semesterID sql.NullInt64
		var reference sql.NullString
		if err := rows.Scan(&p.ID, &p.HostelID, &p.UserID, &semesterID, &p.AmountCents, &p.Method, &reference, &p.PaidAt, &p.CreatedAt); err != nil {
			return nil, err
		}
		if semesterID.Valid {
			sid := uint64(semesterID.Int64)
			p.SemesterID = &sid
		}
		if reference.Valid {
			ref := reference.String
			p.Reference = &ref
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// SumBySemester totals payments received for a semester, in cents.
func (r *PaymentRepo) SumBySemester(ctx context.Context, semesterID uint64) (uint64, error) {
	var total uint64
	err := r.DB.QueryRowContext(ctx,
		"SELECT COALESCE(SUM(amount_cents),0) FROM payments WHERE semester_id=?", semesterID).Scan(&total)
	return total, err
}

// InsertExpense records an expense.
func (r *PaymentRepo) InsertExpense(ctx context.Context, e *model.Expense) error {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO expenses (hostel_id, category, title, amount_cents, spent_on, notes) VALUES (?,?,?,?,?,?)",
		e.HostelID, e.Category, e.Title, e.AmountCents, e.SpentOn, e.Notes)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	e.ID = uint64(id)
	return nil
}

// ListExpenses returns the hostel's expenses within [from, to].
func (r *PaymentRepo) ListExpenses(ctx context.Context, hostelID uint64, from, to time.Time) ([]model.Expense, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id,hostel_id,category,title,amount_cents,spent_on,notes,created_at FROM expenses WHERE hostel_id=? AND spent_on>=? AND spent_on<=? ORDER BY spent_on DESC",
		hostelID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Expense, 0)
	for rows.Next() {
		var e model.Expense
		var notes sql.NullString
		if err := rows.Scan(&e.ID, &e.HostelID, &e.Category, &e.Title, &e.AmountCents, &e.SpentOn, &notes, &e.CreatedAt); err != nil {
			return nil, err
		}
		if notes.Valid {
			n := notes.String
			e.Notes = &n
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
