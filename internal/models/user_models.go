package models

import "time"

// User roles. Role is mutable only through the admin promotion flow.
const (
	RoleMember = "MEMBER"
	RoleAdmin  = "ADMIN"
)

// User represents a portal login. A MEMBER user has exactly one Member record.
type User struct {
	ID                int64     `json:"id" db:"id"`
	Email             string    `json:"email" db:"email"`
	PasswordHash      string    `json:"-" db:"password_hash"`
	Role              string    `json:"role" db:"role"`
	IsEmailVerified   bool      `json:"is_email_verified" db:"is_email_verified"`
	WantsGoogleWallet bool      `json:"wants_google_wallet" db:"wants_google_wallet"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time `json:"updated_at" db:"updated_at"`

	Member *Member `json:"member,omitempty"`
}
