package models

import "time"

// Wallet platforms.
const (
	WalletTypeApple  = "apple"
	WalletTypeGoogle = "google"
)

// WalletCard is an issued digital membership card. At most one active card
// per member (unique partial index).
type WalletCard struct {
	ID             int64      `json:"id" db:"id"`
	MemberID       int64      `json:"member_id" db:"member_id"`
	CardDesignID   *int64     `json:"card_design_id,omitempty" db:"card_design_id"`
	CardURL        string     `json:"card_url" db:"card_url"`
	Points         int        `json:"points" db:"points"`
	IsActive       bool       `json:"is_active" db:"is_active"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	LastAccessedAt *time.Time `json:"last_accessed_at,omitempty" db:"last_accessed_at"`

	Member     *Member     `json:"member,omitempty"`
	CardDesign *CardDesign `json:"card_design,omitempty"`
}

// WalletCardStats summarizes the card fleet for the admin dashboard.
type WalletCardStats struct {
	TotalCards    int `json:"total_cards"`
	ActiveCards   int `json:"active_cards"`
	InactiveCards int `json:"inactive_cards"`
	TotalPoints   int `json:"total_points"`
	RecentCards   int `json:"recent_cards"`
}
