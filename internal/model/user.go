package model

import "time"

// Role names stored in users.role.  SUPER_ADMIN manages the platform,
// HOSTEL_ADMIN owns a hostel, CUSTODIAN is hostel staff with day-to-day
// access and STUDENT is a resident.
const (
	RoleSuperAdmin  = "SUPER_ADMIN"
	RoleHostelAdmin = "HOSTEL_ADMIN"
	RoleCustodian   = "CUSTODIAN"
	RoleStudent     = "STUDENT"
)

// User represents an application user record as stored in the
// `users` table.  The password hash never serializes.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Email        – unique email address.
//  PasswordHash – bcrypt hashed password.
//  FullName     – display name.
//  Role         – one of the role constants above.
//  HostelID     – hostel the user belongs to; nil for super admins and
//                 for hostel admins before onboarding.
//  IsActive     – whether the account is active.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
	ID           uint64    `json:"id"`         // users.id
	Email        string    `json:"email"`      // users.email
	PasswordHash string    `json:"-"`          // users.password_hash
	FullName     string    `json:"full_name"`  // users.full_name
	Role         string    `json:"role"`       // users.role
	HostelID     *uint64   `json:"hostel_id"`  // users.hostel_id (nullable)
	IsActive     bool      `json:"is_active"`  // users.is_active
	CreatedAt    time.Time `json:"created_at"` // users.created_at
	UpdatedAt    time.Time `json:"updated_at"` // users.updated_at
}

// RefreshToken models an entry in the `refresh_tokens` table.  Each
// refresh token belongs to a user and contains metadata for expiry
// and revocation.  The plain token is not stored; only its
// SHA-256 hash.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – owner of the token.
//  TokenHash – SHA-256 hex digest of the token value.
//  ExpiresAt – expiration timestamp of the token.
//  RevokedAt – when the token was revoked (null if still active).
//  CreatedAt – timestamp of creation.
type RefreshToken struct {
	ID        uint64     `json:"id"`         // refresh_tokens.id
	UserID    uint64     `json:"user_id"`    // refresh_tokens.user_id
	TokenHash string     `json:"-"`          // refresh_tokens.token_hash
	ExpiresAt time.Time  `json:"expires_at"` // refresh_tokens.expires_at
	RevokedAt *time.Time `json:"revoked_at"` // refresh_tokens.revoked_at (nullable)
	CreatedAt time.Time  `json:"created_at"` // refresh_tokens.created_at
}
