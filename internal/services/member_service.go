package services

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"fitness_portal_backend/internal/models"
	"fitness_portal_backend/internal/repositories"
)

var ErrInvalidMemberStatus = errors.New("invalid member status")

// MemberExport is the GDPR data bundle returned by the privacy export.
type MemberExport struct {
	ExportedAt   time.Time                  `json:"exported_at"`
	User         *models.User               `json:"user"`
	Member       *models.Member             `json:"member"`
	Transactions []models.PointsTransaction `json:"points_transactions"`
	Tickets      []models.SupportTicket     `json:"support_tickets"`
}

// MemberService covers member listings, status management and the privacy
// flows.
type MemberService interface {
	GetMemberForUser(userID int64) (*models.Member, error)
	GetMemberByID(id int64) (*models.Member, error)
	GetMembers(filters models.MemberFilters) ([]models.Member, int, error)
	UpdateStatus(memberID int64, status string) (*models.Member, error)
	ExportData(userID int64) (*MemberExport, error)
	DeleteAccount(userID int64) error
}

type memberService struct {
	memberRepo  repositories.MemberRepository
	userRepo    repositories.UserRepository
	pointsRepo  repositories.PointsRepository
	checkinRepo repositories.CheckinRepository
	cardRepo    repositories.WalletCardRepository
	supportRepo repositories.SupportRepository
	db          *sql.DB
}

// NewMemberService creates a new instance of MemberService.
func NewMemberService(memberRepo repositories.MemberRepository, userRepo repositories.UserRepository, pointsRepo repositories.PointsRepository, checkinRepo repositories.CheckinRepository, cardRepo repositories.WalletCardRepository, supportRepo repositories.SupportRepository, db *sql.DB) MemberService {
	return &memberService{
		memberRepo:  memberRepo,
		userRepo:    userRepo,
		pointsRepo:  pointsRepo,
		checkinRepo: checkinRepo,
		cardRepo:    cardRepo,
		supportRepo: supportRepo,
		db:          db,
	}
}

// GetMemberForUser resolves the member profile behind a login.
func (s *memberService) GetMemberForUser(userID int64) (*models.Member, error) {
	member, err := s.memberRepo.GetMemberByUserID(userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, fmt.Errorf("failed to load member: %w", err)
	}
	return member, nil
}

// GetMemberByID loads one member.
func (s *memberService) GetMemberByID(id int64) (*models.Member, error) {
	member, err := s.memberRepo.GetMemberByID(nil, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, fmt.Errorf("failed to load member: %w", err)
	}
	return member, nil
}

// GetMembers lists members with search, status filter and pagination.
func (s *memberService) GetMembers(filters models.MemberFilters) ([]models.Member, int, error) {
	if filters.Page < 1 {
		filters.Page = 1
	}
	if filters.PageSize < 1 || filters.PageSize > 100 {
		filters.PageSize = 20
	}
	if filters.Status != nil {
		if err := validateStatus(*filters.Status); err != nil {
			return nil, 0, err
		}
	}
	members, total, err := s.memberRepo.GetMembers(filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list members: %w", err)
	}
	return members, total, nil
}

func validateStatus(status string) error {
	switch status {
	case models.MemberStatusPending, models.MemberStatusActive, models.MemberStatusBlocked:
		return nil
	}
	return fmt.Errorf("%w: %q", ErrInvalidMemberStatus, status)
}

// UpdateStatus switches a member between ACTIVE, BLOCKED and PENDING.
func (s *memberService) UpdateStatus(memberID int64, status string) (*models.Member, error) {
	if err := validateStatus(status); err != nil {
		return nil, err
	}
	member, err := s.memberRepo.UpdateStatus(s.db, memberID, status)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, fmt.Errorf("failed to update member status: %w", err)
	}
	return member, nil
}

// ExportData bundles everything stored about the calling user.
func (s *memberService) ExportData(userID int64) (*MemberExport, error) {
	user, err := s.userRepo.FindUserByID(userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	user.PasswordHash = ""

	export := &MemberExport{ExportedAt: time.Now(), User: user}

	member, err := s.memberRepo.GetMemberByUserID(userID)
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("failed to load member: %w", err)
	}
	export.Member = member

	if member != nil {
		transactions, err := s.pointsRepo.GetTransactionsByMember(member.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load ledger: %w", err)
		}
		export.Transactions = transactions
	}

	tickets, err := s.supportRepo.GetTicketsByCreator(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load tickets: %w", err)
	}
	export.Tickets = tickets

	return export, nil
}

// DeleteAccount erases the user and all dependent records in one transaction.
func (s *memberService) DeleteAccount(userID int64) error {
	member, err := s.memberRepo.GetMemberByUserID(userID)
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return fmt.Errorf("failed to load member: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if member != nil {
		if err := s.cardRepo.DeleteByMember(tx, member.ID); err != nil {
			return fmt.Errorf("failed to erase wallet cards: %w", err)
		}
		if err := s.checkinRepo.DeleteByMember(tx, member.ID); err != nil {
			return fmt.Errorf("failed to erase sessions: %w", err)
		}
		if err := s.pointsRepo.DeleteByMember(tx, member.ID); err != nil {
			return fmt.Errorf("failed to erase ledger: %w", err)
		}
		if err := s.memberRepo.DeleteMember(tx, member.ID); err != nil {
			return fmt.Errorf("failed to erase member: %w", err)
		}
	}
	if err := s.userRepo.DeleteUser(tx, userID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to erase user: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit erasure transaction: %w", err)
	}
	return nil
}
