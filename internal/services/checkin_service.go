package services

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"fitness_portal_backend/internal/models"
	"fitness_portal_backend/internal/repositories"
	"fitness_portal_backend/pkg/utils"
)

var (
	ErrMemberNotFound   = errors.New("member not found")
	ErrMemberNotActive  = errors.New("member is not active")
	ErrPointsValidation = errors.New("points data validation error")
)

// CheckinCooldown is the minimum distance between two point-awarding
// check-ins, measured from the newest check-in ledger row.
const CheckinCooldown = 20 * time.Minute

// DefaultCheckinPoints is awarded per successful check-in unless overridden.
const DefaultCheckinPoints = 1

// CheckinResult is the outcome of a scan at the front desk.
type CheckinResult struct {
	Action         string        `json:"action"`
	Member         *models.Member `json:"member"`
	PointsAwarded  int           `json:"points_awarded"`
	CooldownActive bool          `json:"cooldown_active"`
	NextEligibleAt *time.Time    `json:"next_eligible_at,omitempty"`
}

// Scan actions.
const (
	CheckinActionCheckin  = "checkin"
	CheckinActionCheckout = "checkout"
	CheckinActionCooldown = "cooldown"
)

// CheckinService is the points engine behind the front-desk scanner and the
// admin point adjustments.
type CheckinService interface {
	Scan(membershipID string) (*CheckinResult, error)
	ScanByID(memberID int64) (*CheckinResult, error)
	AdjustPoints(memberID int64, delta int, reason string) (*models.Member, error)
	GetLedger(memberID int64) (*LedgerReport, error)
}

// LedgerReport is a member's point history plus a reconciliation of the
// denormalized balance against the ledger sum.
type LedgerReport struct {
	Transactions []models.PointsTransaction `json:"transactions"`
	LedgerSum    int                        `json:"ledger_sum"`
	Balance      int                        `json:"balance"`
	Consistent   bool                       `json:"consistent"`
}

type checkinService struct {
	memberRepo  repositories.MemberRepository
	pointsRepo  repositories.PointsRepository
	checkinRepo repositories.CheckinRepository
	db          *sql.DB

	checkinPoints int
	now           func() time.Time
}

// NewCheckinService creates a new instance of CheckinService. checkinPoints
// falls back to DefaultCheckinPoints when non-positive.
func NewCheckinService(memberRepo repositories.MemberRepository, pointsRepo repositories.PointsRepository, checkinRepo repositories.CheckinRepository, db *sql.DB, checkinPoints int) CheckinService {
	if checkinPoints <= 0 {
		checkinPoints = DefaultCheckinPoints
	}
	return &checkinService{
		memberRepo:    memberRepo,
		pointsRepo:    pointsRepo,
		checkinRepo:   checkinRepo,
		db:            db,
		checkinPoints: checkinPoints,
		now:           time.Now,
	}
}

// Scan processes one card scan. The member row is locked and the cooldown
// window is evaluated against the newest check-in ledger row first: a scan
// inside the window never mutates anything and reports the wait instead of
// failing. Outside the window an open session is closed (checkout, no
// points); otherwise the balance update, the ledger row and the session open
// commit atomically.
func (s *checkinService) Scan(membershipID string) (*CheckinResult, error) {
	member, err := s.memberRepo.GetMemberByMembershipID(nil, membershipID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, fmt.Errorf("failed to look up member: %w", err)
	}
	return s.scan(member)
}

// ScanByID is Scan with the internal row ID instead of the public membership ID.
func (s *checkinService) ScanByID(memberID int64) (*CheckinResult, error) {
	member, err := s.memberRepo.GetMemberByID(nil, memberID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, fmt.Errorf("failed to look up member: %w", err)
	}
	return s.scan(member)
}

func (s *checkinService) scan(member *models.Member) (*CheckinResult, error) {
	if member.Status != models.MemberStatusActive {
		return nil, ErrMemberNotActive
	}

	now := s.now()

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Row lock serializes concurrent scans for the same member.
	member, err = s.memberRepo.GetMemberForUpdate(tx, member.ID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, fmt.Errorf("failed to lock member row: %w", err)
	}

	latest, err := s.pointsRepo.GetLatestByReason(tx, member.ID, models.ReasonCheckin)
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("failed to load latest check-in: %w", err)
	}
	if latest != nil {
		nextEligible := latest.CreatedAt.Add(CheckinCooldown)
		if now.Before(nextEligible) {
			if err := tx.Commit(); err != nil {
				return nil, fmt.Errorf("failed to commit cooldown transaction: %w", err)
			}
			return &CheckinResult{
				Action:         CheckinActionCooldown,
				Member:         member,
				CooldownActive: true,
				NextEligibleAt: &nextEligible,
			}, nil
		}
	}

	closed, err := s.checkinRepo.CloseOpenSessions(tx, member.ID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to close open sessions: %w", err)
	}
	if closed > 0 {
		if err := tx.Commit(); err != nil {
			return nil, fmt.Errorf("failed to commit checkout transaction: %w", err)
		}
		return &CheckinResult{Action: CheckinActionCheckout, Member: member}, nil
	}

	member, err = s.memberRepo.AddPoints(tx, member.ID, s.checkinPoints)
	if err != nil {
		return nil, fmt.Errorf("failed to add points: %w", err)
	}
	ledgerRow := &models.PointsTransaction{
		MemberID:  member.ID,
		Delta:     s.checkinPoints,
		Reason:    models.ReasonCheckin,
		CreatedAt: now,
	}
	if _, err := s.pointsRepo.CreateTransaction(tx, ledgerRow); err != nil {
		return nil, fmt.Errorf("failed to append ledger row: %w", err)
	}
	if _, err := s.checkinRepo.OpenSession(tx, member.ID, now); err != nil {
		return nil, fmt.Errorf("failed to open session: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit check-in transaction: %w", err)
	}

	return &CheckinResult{
		Action:        CheckinActionCheckin,
		Member:        member,
		PointsAwarded: s.checkinPoints,
	}, nil
}

// AdjustPoints applies an admin point correction. The balance update and the
// ledger row commit atomically under the member row lock. Negative balances
// are allowed.
func (s *checkinService) AdjustPoints(memberID int64, delta int, reason string) (*models.Member, error) {
	if delta == 0 {
		return nil, fmt.Errorf("%w: delta must be non-zero", ErrPointsValidation)
	}
	if reason == "" {
		reason = "adjustment"
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	member, err := s.memberRepo.GetMemberForUpdate(tx, memberID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, fmt.Errorf("failed to lock member row: %w", err)
	}

	member, err = s.memberRepo.AddPoints(tx, member.ID, delta)
	if err != nil {
		return nil, fmt.Errorf("failed to add points: %w", err)
	}
	ledgerRow := &models.PointsTransaction{
		MemberID:  member.ID,
		Delta:     delta,
		Reason:    reason,
		CreatedAt: s.now(),
	}
	if _, err := s.pointsRepo.CreateTransaction(tx, ledgerRow); err != nil {
		return nil, fmt.Errorf("failed to append ledger row: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit adjustment transaction: %w", err)
	}
	return member, nil
}

// GetLedger returns a member's point history, newest first, and audits the
// stored balance against the ledger sum. A mismatch is logged but still
// returned so the back-office can see the drift.
func (s *checkinService) GetLedger(memberID int64) (*LedgerReport, error) {
	member, err := s.memberRepo.GetMemberByID(nil, memberID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, fmt.Errorf("failed to look up member: %w", err)
	}
	transactions, err := s.pointsRepo.GetTransactionsByMember(memberID)
	if err != nil {
		return nil, fmt.Errorf("failed to load ledger: %w", err)
	}
	sum, err := s.pointsRepo.SumDeltas(memberID)
	if err != nil {
		return nil, fmt.Errorf("failed to sum ledger: %w", err)
	}
	if sum != member.Points {
		utils.LogWarn("Ledger sum disagrees with member balance", map[string]interface{}{
			"member_id":  memberID,
			"balance":    member.Points,
			"ledger_sum": sum,
		})
	}
	return &LedgerReport{
		Transactions: transactions,
		LedgerSum:    sum,
		Balance:      member.Points,
		Consistent:   sum == member.Points,
	}, nil
}
