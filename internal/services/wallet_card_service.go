package services

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"fitness_portal_backend/internal/models"
	"fitness_portal_backend/internal/repositories"
	"fitness_portal_backend/pkg/utils"
)

var (
	ErrCardNotFound      = errors.New("wallet card not found")
	ErrActiveCardExists  = errors.New("member already has an active wallet card")
	ErrNoActiveDesign    = errors.New("no active card design")
	ErrCardForbidden     = errors.New("wallet card belongs to another member")
	ErrWalletValidation  = errors.New("wallet request validation error")
)

// WalletCardService manages issued cards and glues member data, designs and
// the pass issuer together.
type WalletCardService interface {
	// Member self-service
	GetMemberCard(userID int64) (*models.WalletCard, error)
	RequestWalletCard(userID int64) (*models.WalletCard, error)
	TouchCardAccess(cardID, userID int64) error

	// Pass issuing
	GeneratePassForEmail(email, walletType string, designID *int64) (*WalletPassResult, error)
	GetApplePass(memberID int64) ([]byte, string, error)
	GetGoogleSave(memberID int64) (jwtToken string, saveURL string, err error)

	// Admin back-office
	GetCards() ([]models.WalletCard, error)
	CreateCardForMember(memberID int64, designID *int64) (*models.WalletCard, error)
	UpdateCardPoints(cardID int64, points int) (*models.WalletCard, error)
	SetCardActive(cardID int64, isActive bool) (*models.WalletCard, error)
	ResendCardEmail(cardID int64) error
	GetCardStats() (*models.WalletCardStats, error)
}

type walletCardService struct {
	cardRepo   repositories.WalletCardRepository
	memberRepo repositories.MemberRepository
	pointsRepo repositories.PointsRepository
	designRepo repositories.CardDesignRepository
	userRepo   repositories.UserRepository
	wallet     WalletService
	emails     EmailService
	db         *sql.DB
}

// NewWalletCardService creates a new instance of WalletCardService.
func NewWalletCardService(cardRepo repositories.WalletCardRepository, memberRepo repositories.MemberRepository, pointsRepo repositories.PointsRepository, designRepo repositories.CardDesignRepository, userRepo repositories.UserRepository, wallet WalletService, emails EmailService, db *sql.DB) WalletCardService {
	return &walletCardService{
		cardRepo:   cardRepo,
		memberRepo: memberRepo,
		pointsRepo: pointsRepo,
		designRepo: designRepo,
		userRepo:   userRepo,
		wallet:     wallet,
		emails:     emails,
		db:         db,
	}
}

func (s *walletCardService) payloadFor(member *models.Member, design models.DesignData) WalletPassPayload {
	return WalletPassPayload{
		MemberID:     member.ID,
		MembershipID: member.MembershipID,
		FullName:     member.FullName(),
		Email:        member.Email,
		Points:       member.Points,
		Design:       design,
	}
}

func (s *walletCardService) designDataFor(designID *int64) (models.DesignData, *int64, error) {
	if designID != nil {
		design, err := s.designRepo.GetDesignByID(nil, *designID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return models.DesignData{}, nil, ErrDesignNotFound
			}
			return models.DesignData{}, nil, fmt.Errorf("failed to load design: %w", err)
		}
		var data models.DesignData
		if err := json.Unmarshal([]byte(design.DesignData), &data); err != nil {
			return models.DesignData{}, nil, fmt.Errorf("stored design data is corrupt: %w", err)
		}
		return data, &design.ID, nil
	}

	design, err := s.designRepo.GetActiveDesign()
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.DefaultDesignData(), nil, nil
		}
		return models.DesignData{}, nil, fmt.Errorf("failed to load active design: %w", err)
	}
	var data models.DesignData
	if err := json.Unmarshal([]byte(design.DesignData), &data); err != nil {
		return models.DesignData{}, nil, fmt.Errorf("stored design data is corrupt: %w", err)
	}
	return data, &design.ID, nil
}

// GetMemberCard returns the caller's active card with its design.
func (s *walletCardService) GetMemberCard(userID int64) (*models.WalletCard, error) {
	member, err := s.memberRepo.GetMemberByUserID(userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, fmt.Errorf("failed to load member: %w", err)
	}

	card, err := s.cardRepo.GetActiveCardByMemberID(member.ID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrCardNotFound
		}
		return nil, fmt.Errorf("failed to load wallet card: %w", err)
	}
	card.Member = member

	if card.CardDesignID != nil {
		design, err := s.designRepo.GetDesignByID(nil, *card.CardDesignID)
		if err == nil {
			card.CardDesign = design
		} else if !errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("failed to load card design: %w", err)
		}
	}
	return card, nil
}

func (s *walletCardService) issueCard(member *models.Member) (*models.WalletCard, error) {
	activeDesign, err := s.designRepo.GetActiveDesign()
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrNoActiveDesign
		}
		return nil, fmt.Errorf("failed to load active design: %w", err)
	}
	var designData models.DesignData
	if err := json.Unmarshal([]byte(activeDesign.DesignData), &designData); err != nil {
		return nil, fmt.Errorf("stored design data is corrupt: %w", err)
	}

	cardURL := fmt.Sprintf("/api/v1/wallet/google/%d", member.ID)
	if _, saveURL, err := s.wallet.BuildGoogleSaveURL(s.payloadFor(member, designData)); err == nil {
		cardURL = saveURL
	} else if !errors.Is(err, ErrWalletNotConfigured) {
		return nil, fmt.Errorf("failed to build wallet pass: %w", err)
	}

	card := &models.WalletCard{
		MemberID:     member.ID,
		CardDesignID: &activeDesign.ID,
		CardURL:      cardURL,
		Points:       member.Points,
		IsActive:     true,
	}
	if _, err := s.cardRepo.CreateCard(s.db, card); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, ErrActiveCardExists
		}
		return nil, fmt.Errorf("failed to persist wallet card: %w", err)
	}
	card.Member = member
	card.CardDesign = activeDesign
	return card, nil
}

// RequestWalletCard issues a card for the calling member. The member must be
// ACTIVE, hold no active card, and an active design must exist.
func (s *walletCardService) RequestWalletCard(userID int64) (*models.WalletCard, error) {
	member, err := s.memberRepo.GetMemberByUserID(userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, fmt.Errorf("failed to load member: %w", err)
	}
	if member.Status != models.MemberStatusActive {
		return nil, ErrMemberNotActive
	}
	if _, err := s.cardRepo.GetActiveCardByMemberID(member.ID); err == nil {
		return nil, ErrActiveCardExists
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("failed to check existing card: %w", err)
	}

	card, err := s.issueCard(member)
	if err != nil {
		return nil, err
	}

	if err := s.emails.SendWelcomeEmail(member.Email, member.FirstName, member.MembershipID); err != nil {
		utils.LogError(err, "Failed to send wallet card email")
	}
	return card, nil
}

// TouchCardAccess records that the member opened their card.
func (s *walletCardService) TouchCardAccess(cardID, userID int64) error {
	member, err := s.memberRepo.GetMemberByUserID(userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrMemberNotFound
		}
		return fmt.Errorf("failed to load member: %w", err)
	}

	card, err := s.cardRepo.GetCardByID(cardID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrCardNotFound
		}
		return fmt.Errorf("failed to load wallet card: %w", err)
	}
	if card.MemberID != member.ID {
		return ErrCardForbidden
	}
	return s.cardRepo.TouchAccessed(cardID, time.Now())
}

// GeneratePassForEmail issues a pass for the member behind the given email.
// The account must have a verified email. On success the member row records
// the platform link.
func (s *walletCardService) GeneratePassForEmail(email, walletType string, designID *int64) (*WalletPassResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !utils.IsValidEmail(email) {
		return nil, fmt.Errorf("%w: email format is invalid", ErrWalletValidation)
	}
	walletType = strings.ToLower(walletType)
	if walletType != models.WalletTypeApple && walletType != models.WalletTypeGoogle {
		return nil, fmt.Errorf("%w: wallet type must be apple or google", ErrWalletValidation)
	}

	member, err := s.memberRepo.GetMemberByEmail(email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, fmt.Errorf("failed to load member: %w", err)
	}
	user, err := s.userRepo.FindUserByID(member.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if !user.IsEmailVerified {
		return nil, ErrEmailNotVerified
	}

	designData, _, err := s.designDataFor(designID)
	if err != nil {
		return nil, err
	}

	result := s.wallet.GeneratePass(s.payloadFor(member, designData), walletType)
	if result.Success {
		if err := s.memberRepo.UpdateWalletLink(s.db, member.ID, walletType, result.PassURL, time.Now()); err != nil {
			utils.LogError(err, "Failed to record wallet link")
		}
	}
	return result, nil
}

// GetApplePass renders the member's .pkpass archive. The returned string is
// the suggested download filename.
func (s *walletCardService) GetApplePass(memberID int64) ([]byte, string, error) {
	member, err := s.memberRepo.GetMemberByID(nil, memberID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, "", ErrMemberNotFound
		}
		return nil, "", fmt.Errorf("failed to load member: %w", err)
	}
	designData, _, err := s.designDataFor(nil)
	if err != nil {
		return nil, "", err
	}
	pass, err := s.wallet.BuildApplePass(s.payloadFor(member, designData))
	if err != nil {
		return nil, "", err
	}
	return pass, fmt.Sprintf("%s.pkpass", member.MembershipID), nil
}

// GetGoogleSave returns the signed save-to-wallet JWT and link for a member.
func (s *walletCardService) GetGoogleSave(memberID int64) (string, string, error) {
	member, err := s.memberRepo.GetMemberByID(nil, memberID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return "", "", ErrMemberNotFound
		}
		return "", "", fmt.Errorf("failed to load member: %w", err)
	}
	designData, _, err := s.designDataFor(nil)
	if err != nil {
		return "", "", err
	}
	return s.wallet.BuildGoogleSaveURL(s.payloadFor(member, designData))
}

// GetCards lists all issued cards for the back-office.
func (s *walletCardService) GetCards() ([]models.WalletCard, error) {
	cards, err := s.cardRepo.GetCards()
	if err != nil {
		return nil, fmt.Errorf("failed to list wallet cards: %w", err)
	}
	return cards, nil
}

// CreateCardForMember issues a card on behalf of a member from the admin
// back-office.
func (s *walletCardService) CreateCardForMember(memberID int64, designID *int64) (*models.WalletCard, error) {
	member, err := s.memberRepo.GetMemberByID(nil, memberID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, fmt.Errorf("failed to load member: %w", err)
	}
	if _, err := s.cardRepo.GetActiveCardByMemberID(member.ID); err == nil {
		return nil, ErrActiveCardExists
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("failed to check existing card: %w", err)
	}
	if designID != nil {
		if _, err := s.designRepo.GetDesignByID(nil, *designID); err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return nil, ErrDesignNotFound
			}
			return nil, fmt.Errorf("failed to load design: %w", err)
		}
	}
	return s.issueCard(member)
}

// UpdateCardPoints sets the card's point snapshot by writing the difference
// through the points ledger, so the member balance and the ledger stay
// consistent with what the card displays.
func (s *walletCardService) UpdateCardPoints(cardID int64, points int) (*models.WalletCard, error) {
	card, err := s.cardRepo.GetCardByID(cardID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrCardNotFound
		}
		return nil, fmt.Errorf("failed to load wallet card: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	member, err := s.memberRepo.GetMemberForUpdate(tx, card.MemberID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, fmt.Errorf("failed to lock member row: %w", err)
	}

	if delta := points - member.Points; delta != 0 {
		if _, err := s.memberRepo.AddPoints(tx, member.ID, delta); err != nil {
			return nil, fmt.Errorf("failed to add points: %w", err)
		}
		ledgerRow := &models.PointsTransaction{
			MemberID: member.ID,
			Delta:    delta,
			Reason:   "wallet_card_adjustment",
		}
		if _, err := s.pointsRepo.CreateTransaction(tx, ledgerRow); err != nil {
			return nil, fmt.Errorf("failed to append ledger row: %w", err)
		}
	}

	card, err = s.cardRepo.UpdatePoints(tx, cardID, points)
	if err != nil {
		return nil, fmt.Errorf("failed to update card points: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit card points transaction: %w", err)
	}
	return card, nil
}

// SetCardActive toggles a card. Reactivating while the member holds another
// active card trips the partial unique index.
func (s *walletCardService) SetCardActive(cardID int64, isActive bool) (*models.WalletCard, error) {
	card, err := s.cardRepo.SetActive(s.db, cardID, isActive)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrCardNotFound
		}
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, ErrActiveCardExists
		}
		return nil, fmt.Errorf("failed to toggle wallet card: %w", err)
	}
	return card, nil
}

// ResendCardEmail re-delivers the wallet link mail for a card.
func (s *walletCardService) ResendCardEmail(cardID int64) error {
	card, err := s.cardRepo.GetCardByID(cardID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrCardNotFound
		}
		return fmt.Errorf("failed to load wallet card: %w", err)
	}
	if card.Member == nil {
		return fmt.Errorf("wallet card %d has no member attached", cardID)
	}
	return s.emails.SendWelcomeEmail(card.Member.Email, card.Member.FirstName, card.Member.MembershipID)
}

// GetCardStats aggregates the card fleet for the dashboard.
func (s *walletCardService) GetCardStats() (*models.WalletCardStats, error) {
	stats, err := s.cardRepo.GetStats()
	if err != nil {
		return nil, fmt.Errorf("failed to load wallet card stats: %w", err)
	}
	return stats, nil
}
