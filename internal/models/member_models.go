package models

import "time"

// Member status values. PENDING until the email is verified; ACTIVE and
// BLOCKED are toggled by admins.
const (
	MemberStatusPending = "PENDING"
	MemberStatusActive  = "ACTIVE"
	MemberStatusBlocked = "BLOCKED"
)

// Member is the gym-facing profile attached one-to-one to a User.
// Points is a denormalized running total of the points ledger.
type Member struct {
	ID                    int64      `json:"id" db:"id"`
	UserID                int64      `json:"user_id" db:"user_id"`
	MembershipID          string     `json:"membership_id" db:"membership_id"`
	FirstName             string     `json:"first_name" db:"first_name"`
	LastName              string     `json:"last_name" db:"last_name"`
	Email                 string     `json:"email" db:"email"`
	Points                int        `json:"points" db:"points"`
	Status                string     `json:"status" db:"status"`
	AppleWalletLink       *string    `json:"apple_wallet_link,omitempty" db:"apple_wallet_link"`
	AppleWalletCreatedAt  *time.Time `json:"apple_wallet_created_at,omitempty" db:"apple_wallet_created_at"`
	GoogleWalletLink      *string    `json:"google_wallet_link,omitempty" db:"google_wallet_link"`
	GoogleWalletCreatedAt *time.Time `json:"google_wallet_created_at,omitempty" db:"google_wallet_created_at"`
	CreatedAt             time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at" db:"updated_at"`
}

// FullName returns the member's display name.
func (m *Member) FullName() string {
	return m.FirstName + " " + m.LastName
}

// MemberFilters narrows admin member listings.
type MemberFilters struct {
	Query    *string
	Status   *string
	Page     int
	PageSize int
}
