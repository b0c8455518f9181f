package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/hostelhq/hostel-management/internal/model"
)

// HostelRepo provides access to the hostels table.
type HostelRepo struct{ DB *sql.DB }

func NewHostelRepo(db *sql.DB) *HostelRepo { return &HostelRepo{DB: db} }

const hostelCols = "id,owner_id,name,address,phone,current_subscription_id,is_active,created_at,updated_at"

func scanHostel(scan func(dest ...interface{}) error) (model.Hostel, error) {
	var h model.Hostel
	var phone sql.NullString
	var subID sql.NullInt64
	err := scan(&h.ID, &h.OwnerID, &h.Name, &h.Address, &phone, &subID, &h.IsActive, &h.CreatedAt, &h.UpdatedAt)
	if err != nil {
		return h, err
	}
	if phone.Valid {
		p := phone.String
		h.Phone = &p
	}
	if subID.Valid {
		sid := uint64(subID.Int64)
		h.CurrentSubscriptionID = &sid
	}
	return h, nil
}

// Create inserts a hostel owned by the given admin and returns its ID.
func (r *HostelRepo) Create(ctx context.Context, name, address, phone string, ownerID uint64) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO hostels (name, address, phone, owner_id) VALUES (?,?,?,?)",
		name, address, phone, ownerID)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByID fetches a hostel by id; returns ErrHostelNotFound when absent.
func (r *HostelRepo) GetByID(ctx context.Context, id uint64) (model.Hostel, error) {
	h, err := scanHostel(r.DB.QueryRowContext(ctx,
		"SELECT "+hostelCols+" FROM hostels WHERE id=? LIMIT 1", id).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return h, ErrHostelNotFound
	}
	return h, err
}

// GetByOwner fetches the hostel owned by the admin.
func (r *HostelRepo) GetByOwner(ctx context.Context, ownerID uint64) (model.Hostel, error) {
	h, err := scanHostel(r.DB.QueryRowContext(ctx,
		"SELECT "+hostelCols+" FROM hostels WHERE owner_id=? LIMIT 1", ownerID).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return h, ErrHostelNotFound
	}
	return h, err
}

// List returns every hostel, newest first.  Used by the super admin
// overview and the public browse endpoints.
func (r *HostelRepo) List(ctx context.Context) ([]model.Hostel, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+hostelCols+" FROM hostels ORDER BY id DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	hostels := make([]model.Hostel, 0)
	for rows.Next() {
		h, err := scanHostel(rows.Scan)
		if err != nil {
			return nil, err
		}
		hostels = append(hostels, h)
	}
	return hostels, rows.Err()
}

// Update edits the hostel's contact fields.  Ownership is checked by
// the caller via GetByID before calling.
func (r *HostelRepo) Update(ctx context.Context, id uint64, name, address, phone string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE hostels SET name=?, address=?, phone=? WHERE id=?",
		name, address, phone, id)
	return err
}

// GetTx fetches a hostel inside a transaction.
func (r *HostelRepo) GetTx(ctx context.Context, tx *sql.Tx, id uint64) (model.Hostel, error) {
	h, err := scanHostel(tx.QueryRowContext(ctx,
		"SELECT "+hostelCols+" FROM hostels WHERE id=? LIMIT 1", id).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return h, ErrHostelNotFound
	}
	return h, err
}

// SetCurrentSubscriptionTx repoints the hostel at its newest
// subscription row inside the subscribing transaction.
func (r *HostelRepo) SetCurrentSubscriptionTx(ctx context.Context, tx *sql.Tx, hostelID, subscriptionID uint64) error {
	_, err := tx.ExecContext(ctx,
		"UPDATE hostels SET current_subscription_id=? WHERE id=?",
		subscriptionID, hostelID)
	return err
}
