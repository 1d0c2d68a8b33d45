package models

import "time"

// Support ticket lifecycle.
const (
	TicketStatusOpen       = "OPEN"
	TicketStatusInProgress = "IN_PROGRESS"
	TicketStatusResolved   = "RESOLVED"
	TicketStatusClosed     = "CLOSED"
)

// Support ticket priorities.
const (
	TicketPriorityLow    = "LOW"
	TicketPriorityNormal = "NORMAL"
	TicketPriorityHigh   = "HIGH"
	TicketPriorityUrgent = "URGENT"
)

// SupportTicket groups an ordered conversation between a member and the
// studio staff.
type SupportTicket struct {
	ID           int64     `json:"id" db:"id"`
	TicketNumber string    `json:"ticket_number" db:"ticket_number"`
	Subject      string    `json:"subject" db:"subject"`
	Category     string    `json:"category" db:"category"`
	Status       string    `json:"status" db:"status"`
	Priority     string    `json:"priority" db:"priority"`
	CreatedBy    int64     `json:"created_by" db:"created_by"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`

	Messages []SupportMessage `json:"messages,omitempty"`
}

// SupportMessage is one entry of a ticket conversation. Internal messages are
// visible to admins only.
type SupportMessage struct {
	ID         int64     `json:"id" db:"id"`
	TicketID   int64     `json:"ticket_id" db:"ticket_id"`
	SenderID   int64     `json:"sender_id" db:"sender_id"`
	SenderRole string    `json:"sender_role" db:"sender_role"`
	Message    string    `json:"message" db:"message"`
	IsInternal bool      `json:"is_internal" db:"is_internal"`
	IsRead     bool      `json:"is_read" db:"is_read"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// SupportStats summarizes the ticket queue for the admin dashboard.
type SupportStats struct {
	TotalTickets  int            `json:"total_tickets"`
	OpenTickets   int            `json:"open_tickets"`
	ByStatus      map[string]int `json:"by_status"`
	ByPriority    map[string]int `json:"by_priority"`
	UnreadReplies int            `json:"unread_replies"`
}
