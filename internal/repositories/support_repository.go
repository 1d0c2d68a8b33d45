package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"fitness_portal_backend/internal/models"

	"github.com/lib/pq"
)

// SupportRepository defines the interface for support tickets and messages.
type SupportRepository interface {
	CreateTicket(executor SQLExecutor, ticket *models.SupportTicket) (int64, error)
	CreateMessage(executor SQLExecutor, message *models.SupportMessage) (int64, error)
	GetTicketByID(id int64, includeInternal bool) (*models.SupportTicket, error)
	GetTicketsByCreator(userID int64) ([]models.SupportTicket, error)
	GetTickets(status *string) ([]models.SupportTicket, error)
	UpdateTicket(executor SQLExecutor, id int64, status, priority *string) (*models.SupportTicket, error)
	CountUnreadForUser(userID int64) (int, error)
	MarkMessagesRead(ticketID, readerID int64) error
	GetStats() (*models.SupportStats, error)
}

type supportRepository struct {
	db *sql.DB
}

// NewSupportRepository creates a new instance of SupportRepository.
func NewSupportRepository(db *sql.DB) SupportRepository {
	return &supportRepository{db: db}
}

const ticketColumns = `id, ticket_number, subject, category, status, priority, created_by, created_at, updated_at`

func scanTicket(row interface{ Scan(...interface{}) error }) (*models.SupportTicket, error) {
	ticket := &models.SupportTicket{}
	err := row.Scan(
		&ticket.ID, &ticket.TicketNumber, &ticket.Subject, &ticket.Category,
		&ticket.Status, &ticket.Priority, &ticket.CreatedBy, &ticket.CreatedAt, &ticket.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return ticket, nil
}

// CreateTicket inserts a ticket row.
func (r *supportRepository) CreateTicket(executor SQLExecutor, ticket *models.SupportTicket) (int64, error) {
	query := `INSERT INTO support_tickets (ticket_number, subject, category, status, priority, created_by, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	          RETURNING id`

	now := time.Now()
	err := executor.QueryRow(query,
		ticket.TicketNumber, ticket.Subject, ticket.Category, ticket.Status,
		ticket.Priority, ticket.CreatedBy, now, now,
	).Scan(&ticket.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return 0, fmt.Errorf("%w: %s (constraint: %s)", ErrDuplicateKey, pqErr.Message, pqErr.Constraint)
		}
		return 0, fmt.Errorf("%w: creating support ticket: %v", ErrDatabaseError, err)
	}
	ticket.CreatedAt = now
	ticket.UpdatedAt = now
	return ticket.ID, nil
}

// CreateMessage appends a message to a ticket and bumps the ticket timestamp.
func (r *supportRepository) CreateMessage(executor SQLExecutor, message *models.SupportMessage) (int64, error) {
	query := `INSERT INTO support_messages (ticket_id, sender_id, sender_role, message, is_internal, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          RETURNING id`

	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now()
	}
	err := executor.QueryRow(query,
		message.TicketID, message.SenderID, message.SenderRole,
		message.Message, message.IsInternal, message.CreatedAt,
	).Scan(&message.ID)
	if err != nil {
		return 0, fmt.Errorf("%w: creating support message: %v", ErrDatabaseError, err)
	}

	if _, err := executor.Exec(`UPDATE support_tickets SET updated_at = $1 WHERE id = $2`, message.CreatedAt, message.TicketID); err != nil {
		return 0, fmt.Errorf("%w: bumping ticket %d: %v", ErrDatabaseError, message.TicketID, err)
	}
	return message.ID, nil
}

func (r *supportRepository) loadMessages(ticketID int64, includeInternal bool) ([]models.SupportMessage, error) {
	query := `SELECT id, ticket_id, sender_id, sender_role, message, is_internal, is_read, created_at
	          FROM support_messages WHERE ticket_id = $1`
	if !includeInternal {
		query += ` AND NOT is_internal`
	}
	query += ` ORDER BY created_at ASC`

	rows, err := r.db.Query(query, ticketID)
	if err != nil {
		return nil, fmt.Errorf("%w: querying messages for ticket %d: %v", ErrDatabaseError, ticketID, err)
	}
	defer rows.Close()

	messages := []models.SupportMessage{}
	for rows.Next() {
		var m models.SupportMessage
		if err := rows.Scan(&m.ID, &m.TicketID, &m.SenderID, &m.SenderRole,
			&m.Message, &m.IsInternal, &m.IsRead, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: scanning support message: %v", ErrDatabaseError, err)
		}
		messages = append(messages, m)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating support message rows: %v", ErrDatabaseError, err)
	}
	return messages, nil
}

// GetTicketByID retrieves one ticket with its conversation. Internal notes are
// excluded unless includeInternal is set.
func (r *supportRepository) GetTicketByID(id int64, includeInternal bool) (*models.SupportTicket, error) {
	query := `SELECT ` + ticketColumns + ` FROM support_tickets WHERE id = $1`
	ticket, err := scanTicket(r.db.QueryRow(query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting support ticket by ID %d: %v", ErrDatabaseError, id, err)
	}

	messages, err := r.loadMessages(id, includeInternal)
	if err != nil {
		return nil, err
	}
	ticket.Messages = messages
	return ticket, nil
}

func (r *supportRepository) queryTickets(query string, args ...interface{}) ([]models.SupportTicket, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: querying support tickets: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	tickets := []models.SupportTicket{}
	for rows.Next() {
		var t models.SupportTicket
		if err := rows.Scan(&t.ID, &t.TicketNumber, &t.Subject, &t.Category,
			&t.Status, &t.Priority, &t.CreatedBy, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("%w: scanning support ticket: %v", ErrDatabaseError, err)
		}
		tickets = append(tickets, t)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating support ticket rows: %v", ErrDatabaseError, err)
	}
	return tickets, nil
}

// GetTicketsByCreator returns a user's own tickets, newest first.
func (r *supportRepository) GetTicketsByCreator(userID int64) ([]models.SupportTicket, error) {
	query := `SELECT ` + ticketColumns + ` FROM support_tickets WHERE created_by = $1 ORDER BY created_at DESC`
	return r.queryTickets(query, userID)
}

// GetTickets returns all tickets, optionally filtered by status.
func (r *supportRepository) GetTickets(status *string) ([]models.SupportTicket, error) {
	if status != nil && *status != "" {
		query := `SELECT ` + ticketColumns + ` FROM support_tickets WHERE status = $1 ORDER BY created_at DESC`
		return r.queryTickets(query, *status)
	}
	query := `SELECT ` + ticketColumns + ` FROM support_tickets ORDER BY created_at DESC`
	return r.queryTickets(query)
}

// UpdateTicket patches status and/or priority and returns the updated ticket.
func (r *supportRepository) UpdateTicket(executor SQLExecutor, id int64, status, priority *string) (*models.SupportTicket, error) {
	query := `UPDATE support_tickets SET
	            status = COALESCE($1, status),
	            priority = COALESCE($2, priority),
	            updated_at = $3
	          WHERE id = $4
	          RETURNING ` + ticketColumns
	ticket, err := scanTicket(executor.QueryRow(query, status, priority, time.Now(), id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: updating support ticket ID %d: %v", ErrDatabaseError, id, err)
	}
	return ticket, nil
}

// CountUnreadForUser counts unread non-internal replies on the user's tickets
// sent by someone else.
func (r *supportRepository) CountUnreadForUser(userID int64) (int, error) {
	var count int
	query := `SELECT COUNT(*)
	          FROM support_messages sm
	          JOIN support_tickets st ON st.id = sm.ticket_id
	          WHERE st.created_by = $1 AND sm.sender_id <> $1 AND NOT sm.is_internal AND NOT sm.is_read`
	if err := r.db.QueryRow(query, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: counting unread messages for user ID %d: %v", ErrDatabaseError, userID, err)
	}
	return count, nil
}

// MarkMessagesRead marks messages on a ticket as read for the given reader.
func (r *supportRepository) MarkMessagesRead(ticketID, readerID int64) error {
	query := `UPDATE support_messages SET is_read = TRUE
	          WHERE ticket_id = $1 AND sender_id <> $2 AND NOT is_read`
	if _, err := r.db.Exec(query, ticketID, readerID); err != nil {
		return fmt.Errorf("%w: marking messages read for ticket %d: %v", ErrDatabaseError, ticketID, err)
	}
	return nil
}

// GetStats aggregates the ticket queue by status and priority.
func (r *supportRepository) GetStats() (*models.SupportStats, error) {
	stats := &models.SupportStats{
		ByStatus:   map[string]int{},
		ByPriority: map[string]int{},
	}

	rows, err := r.db.Query(`SELECT status, priority, COUNT(*) FROM support_tickets GROUP BY status, priority`)
	if err != nil {
		return nil, fmt.Errorf("%w: aggregating support stats: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var status, priority string
		var count int
		if err := rows.Scan(&status, &priority, &count); err != nil {
			return nil, fmt.Errorf("%w: scanning support stats row: %v", ErrDatabaseError, err)
		}
		stats.TotalTickets += count
		stats.ByStatus[status] += count
		stats.ByPriority[priority] += count
		if status == models.TicketStatusOpen || status == models.TicketStatusInProgress {
			stats.OpenTickets += count
		}
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating support stats rows: %v", ErrDatabaseError, err)
	}
	return stats, nil
}
