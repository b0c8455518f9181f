package model

import "time"

// Hostel represents a managed property.  Every other entity in the
// system hangs off a hostel via foreign keys; nothing is shared
// between hostels.
//
// Fields:
//  ID                    – primary key identifier.
//  OwnerID               – user ID of the hostel admin who owns it.
//  Name                  – display name, unique per owner.
//  Address               – postal address.
//  Phone                 – contact number (nullable).
//  CurrentSubscriptionID – the authoritative subscription row used for
//                          login gating; repointed on renewal, never
//                          rewound to an old row.
//  IsActive              – whether the hostel is operating.
//  CreatedAt             – creation timestamp.
//  UpdatedAt             – last update timestamp.
type Hostel struct {
	ID                    uint64    `json:"id"`                      // hostels.id
	OwnerID               uint64    `json:"owner_id"`                // hostels.owner_id
	Name                  string    `json:"name"`                    // hostels.name
	Address               string    `json:"address"`                 // hostels.address
	Phone                 *string   `json:"phone"`                   // hostels.phone (nullable)
	CurrentSubscriptionID *uint64   `json:"current_subscription_id"` // hostels.current_subscription_id (nullable)
	IsActive              bool      `json:"is_active"`               // hostels.is_active
	CreatedAt             time.Time `json:"created_at"`              // hostels.created_at
	UpdatedAt             time.Time `json:"updated_at"`              // hostels.updated_at
}
