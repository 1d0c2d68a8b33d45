package services

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"fitness_portal_backend/internal/models"
	"fitness_portal_backend/internal/repositories"
	"fitness_portal_backend/pkg/utils"
)

var (
	ErrTicketNotFound   = errors.New("support ticket not found")
	ErrTicketForbidden  = errors.New("support ticket belongs to another user")
	ErrTicketValidation = errors.New("support ticket validation error")
)

type CreateTicketRequest struct {
	Subject  string `json:"subject" binding:"required"`
	Category string `json:"category"`
	Priority string `json:"priority"`
	Message  string `json:"message" binding:"required"`
}

type ReplyRequest struct {
	Message    string `json:"message" binding:"required"`
	IsInternal bool   `json:"is_internal"`
}

type UpdateTicketRequest struct {
	Status   *string `json:"status"`
	Priority *string `json:"priority"`
}

// SupportService runs the support desk for members and admins.
type SupportService interface {
	CreateTicket(userID int64, req CreateTicketRequest) (*models.SupportTicket, error)
	GetOwnTickets(userID int64) ([]models.SupportTicket, error)
	GetTicket(ticketID, userID int64, isAdmin bool) (*models.SupportTicket, error)
	Reply(ticketID, userID int64, role string, req ReplyRequest) (*models.SupportMessage, error)
	CountUnread(userID int64) (int, error)
	MarkRead(ticketID, userID int64) error

	GetAllTickets(status *string) ([]models.SupportTicket, error)
	UpdateTicket(ticketID int64, req UpdateTicketRequest) (*models.SupportTicket, error)
	GetStats() (*models.SupportStats, error)
}

type supportService struct {
	supportRepo repositories.SupportRepository
	emails      EmailService
	db          *sql.DB
	adminEmail  string
}

// NewSupportService creates a new instance of SupportService. adminEmail is
// the inbox notified about new tickets; empty disables the notification.
func NewSupportService(supportRepo repositories.SupportRepository, emails EmailService, db *sql.DB, adminEmail string) SupportService {
	return &supportService{
		supportRepo: supportRepo,
		emails:      emails,
		db:          db,
		adminEmail:  adminEmail,
	}
}

func validTicketStatus(status string) bool {
	switch status {
	case models.TicketStatusOpen, models.TicketStatusInProgress, models.TicketStatusResolved, models.TicketStatusClosed:
		return true
	}
	return false
}

func validTicketPriority(priority string) bool {
	switch priority {
	case models.TicketPriorityLow, models.TicketPriorityNormal, models.TicketPriorityHigh, models.TicketPriorityUrgent:
		return true
	}
	return false
}

// CreateTicket opens a ticket with its first message in one transaction and
// notifies the studio inbox best-effort.
func (s *supportService) CreateTicket(userID int64, req CreateTicketRequest) (*models.SupportTicket, error) {
	subject := strings.TrimSpace(req.Subject)
	message := strings.TrimSpace(req.Message)
	if subject == "" || message == "" {
		return nil, fmt.Errorf("%w: subject and message are required", ErrTicketValidation)
	}
	category := strings.TrimSpace(req.Category)
	if category == "" {
		category = "general"
	}
	priority := req.Priority
	if priority == "" {
		priority = models.TicketPriorityNormal
	}
	if !validTicketPriority(priority) {
		return nil, fmt.Errorf("%w: unknown priority %q", ErrTicketValidation, priority)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	ticket := &models.SupportTicket{
		TicketNumber: utils.NewTicketNumber(),
		Subject:      subject,
		Category:     category,
		Status:       models.TicketStatusOpen,
		Priority:     priority,
		CreatedBy:    userID,
	}
	if _, err := s.supportRepo.CreateTicket(tx, ticket); err != nil {
		return nil, fmt.Errorf("failed to create ticket: %w", err)
	}

	first := &models.SupportMessage{
		TicketID:   ticket.ID,
		SenderID:   userID,
		SenderRole: models.RoleMember,
		Message:    message,
	}
	if _, err := s.supportRepo.CreateMessage(tx, first); err != nil {
		return nil, fmt.Errorf("failed to create first message: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit ticket transaction: %w", err)
	}
	ticket.Messages = []models.SupportMessage{*first}

	if s.adminEmail != "" {
		if err := s.emails.SendTicketNotification(s.adminEmail, ticket.TicketNumber, ticket.Subject); err != nil {
			utils.LogError(err, "Failed to notify admin inbox about new ticket")
		}
	}
	return ticket, nil
}

// GetOwnTickets lists the caller's tickets.
func (s *supportService) GetOwnTickets(userID int64) ([]models.SupportTicket, error) {
	tickets, err := s.supportRepo.GetTicketsByCreator(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tickets: %w", err)
	}
	return tickets, nil
}

// GetTicket loads one ticket. Members only see their own tickets and never
// internal notes.
func (s *supportService) GetTicket(ticketID, userID int64, isAdmin bool) (*models.SupportTicket, error) {
	ticket, err := s.supportRepo.GetTicketByID(ticketID, isAdmin)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrTicketNotFound
		}
		return nil, fmt.Errorf("failed to load ticket: %w", err)
	}
	if !isAdmin && ticket.CreatedBy != userID {
		return nil, ErrTicketForbidden
	}
	return ticket, nil
}

// Reply appends a message. Only admins may write internal notes, and members
// may only reply to their own tickets. A member reply reopens a resolved
// ticket.
func (s *supportService) Reply(ticketID, userID int64, role string, req ReplyRequest) (*models.SupportMessage, error) {
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return nil, fmt.Errorf("%w: message is required", ErrTicketValidation)
	}
	isAdmin := role == models.RoleAdmin
	if req.IsInternal && !isAdmin {
		return nil, ErrTicketForbidden
	}

	ticket, err := s.supportRepo.GetTicketByID(ticketID, isAdmin)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrTicketNotFound
		}
		return nil, fmt.Errorf("failed to load ticket: %w", err)
	}
	if !isAdmin && ticket.CreatedBy != userID {
		return nil, ErrTicketForbidden
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	reply := &models.SupportMessage{
		TicketID:   ticketID,
		SenderID:   userID,
		SenderRole: role,
		Message:    message,
		IsInternal: req.IsInternal,
	}
	if _, err := s.supportRepo.CreateMessage(tx, reply); err != nil {
		return nil, fmt.Errorf("failed to create reply: %w", err)
	}

	if !isAdmin && ticket.Status == models.TicketStatusResolved {
		status := models.TicketStatusOpen
		if _, err := s.supportRepo.UpdateTicket(tx, ticketID, &status, nil); err != nil {
			return nil, fmt.Errorf("failed to reopen ticket: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit reply transaction: %w", err)
	}
	return reply, nil
}

// CountUnread counts unseen staff replies for the member's badge.
func (s *supportService) CountUnread(userID int64) (int, error) {
	count, err := s.supportRepo.CountUnreadForUser(userID)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread messages: %w", err)
	}
	return count, nil
}

// MarkRead clears the unread flag on a ticket the caller owns.
func (s *supportService) MarkRead(ticketID, userID int64) error {
	ticket, err := s.supportRepo.GetTicketByID(ticketID, false)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrTicketNotFound
		}
		return fmt.Errorf("failed to load ticket: %w", err)
	}
	if ticket.CreatedBy != userID {
		return ErrTicketForbidden
	}
	return s.supportRepo.MarkMessagesRead(ticketID, userID)
}

// GetAllTickets lists the whole queue, optionally filtered by status.
func (s *supportService) GetAllTickets(status *string) ([]models.SupportTicket, error) {
	if status != nil && *status != "" && !validTicketStatus(*status) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrTicketValidation, *status)
	}
	tickets, err := s.supportRepo.GetTickets(status)
	if err != nil {
		return nil, fmt.Errorf("failed to list tickets: %w", err)
	}
	return tickets, nil
}

// UpdateTicket patches status and priority from the back-office.
func (s *supportService) UpdateTicket(ticketID int64, req UpdateTicketRequest) (*models.SupportTicket, error) {
	if req.Status == nil && req.Priority == nil {
		return nil, fmt.Errorf("%w: nothing to update", ErrTicketValidation)
	}
	if req.Status != nil && !validTicketStatus(*req.Status) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrTicketValidation, *req.Status)
	}
	if req.Priority != nil && !validTicketPriority(*req.Priority) {
		return nil, fmt.Errorf("%w: unknown priority %q", ErrTicketValidation, *req.Priority)
	}

	ticket, err := s.supportRepo.UpdateTicket(s.db, ticketID, req.Status, req.Priority)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrTicketNotFound
		}
		return nil, fmt.Errorf("failed to update ticket: %w", err)
	}
	return ticket, nil
}

// GetStats aggregates the queue for the dashboard.
func (s *supportService) GetStats() (*models.SupportStats, error) {
	stats, err := s.supportRepo.GetStats()
	if err != nil {
		return nil, fmt.Errorf("failed to load support stats: %w", err)
	}
	return stats, nil
}
