package models

import "time"

// ReasonCheckin marks ledger rows written by the check-in flow. The cooldown
// window is computed from the newest row carrying this reason.
const ReasonCheckin = "checkin"

// PointsTransaction is one row of the append-only points ledger. The sum of
// all deltas for a member must equal Member.Points.
type PointsTransaction struct {
	ID        int64     `json:"id" db:"id"`
	MemberID  int64     `json:"member_id" db:"member_id"`
	Delta     int       `json:"delta" db:"delta"`
	Reason    string    `json:"reason" db:"reason"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// CheckinSession records a studio visit. CheckoutAt is nil while the member
// is still in the studio.
type CheckinSession struct {
	ID         int64      `json:"id" db:"id"`
	MemberID   int64      `json:"member_id" db:"member_id"`
	CheckinAt  time.Time  `json:"checkin_at" db:"checkin_at"`
	CheckoutAt *time.Time `json:"checkout_at,omitempty" db:"checkout_at"`
	IsActive   bool       `json:"is_active" db:"is_active"`

	Member *Member `json:"member,omitempty"`
}
