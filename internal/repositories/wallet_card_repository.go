package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"fitness_portal_backend/internal/models"

	"github.com/lib/pq"
)

// WalletCardRepository defines the interface for issued wallet cards.
type WalletCardRepository interface {
	CreateCard(executor SQLExecutor, card *models.WalletCard) (int64, error)
	GetCardByID(id int64) (*models.WalletCard, error)
	GetActiveCardByMemberID(memberID int64) (*models.WalletCard, error)
	GetCards() ([]models.WalletCard, error)
	UpdatePoints(executor SQLExecutor, id int64, points int) (*models.WalletCard, error)
	SetActive(executor SQLExecutor, id int64, isActive bool) (*models.WalletCard, error)
	TouchAccessed(id int64, at time.Time) error
	GetStats() (*models.WalletCardStats, error)
	DeleteByMember(executor SQLExecutor, memberID int64) error
}

type walletCardRepository struct {
	db *sql.DB
}

// NewWalletCardRepository creates a new instance of WalletCardRepository.
func NewWalletCardRepository(db *sql.DB) WalletCardRepository {
	return &walletCardRepository{db: db}
}

const cardColumns = `id, member_id, card_design_id, card_url, points, is_active, created_at, last_accessed_at`

func scanCard(row interface{ Scan(...interface{}) error }) (*models.WalletCard, error) {
	card := &models.WalletCard{}
	var designID sql.NullInt64
	var accessedAt sql.NullTime
	err := row.Scan(
		&card.ID, &card.MemberID, &designID, &card.CardURL,
		&card.Points, &card.IsActive, &card.CreatedAt, &accessedAt,
	)
	if err != nil {
		return nil, err
	}
	if designID.Valid {
		card.CardDesignID = &designID.Int64
	}
	if accessedAt.Valid {
		card.LastAccessedAt = &accessedAt.Time
	}
	return card, nil
}

// CreateCard inserts an issued card. The unique partial index rejects a second
// active card for the same member.
func (r *walletCardRepository) CreateCard(executor SQLExecutor, card *models.WalletCard) (int64, error) {
	query := `INSERT INTO wallet_cards (member_id, card_design_id, card_url, points, is_active, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          RETURNING id`

	if card.CreatedAt.IsZero() {
		card.CreatedAt = time.Now()
	}
	err := executor.QueryRow(query,
		card.MemberID, card.CardDesignID, card.CardURL, card.Points, card.IsActive, card.CreatedAt,
	).Scan(&card.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			if pqErr.Code.Name() == "unique_violation" {
				return 0, fmt.Errorf("%w: %s (constraint: %s)", ErrDuplicateKey, pqErr.Message, pqErr.Constraint)
			}
		}
		return 0, fmt.Errorf("%w: creating wallet card: %v", ErrDatabaseError, err)
	}
	return card.ID, nil
}

// GetCardByID retrieves a card joined with its member.
func (r *walletCardRepository) GetCardByID(id int64) (*models.WalletCard, error) {
	query := `SELECT w.id, w.member_id, w.card_design_id, w.card_url, w.points, w.is_active, w.created_at, w.last_accessed_at,
	          ` + memberColumnsPrefixed("m") + `
	          FROM wallet_cards w
	          JOIN members m ON m.id = w.member_id
	          WHERE w.id = $1`

	card, member, err := scanCardWithMember(r.db.QueryRow(query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting wallet card by ID %d: %v", ErrDatabaseError, id, err)
	}
	card.Member = member
	return card, nil
}

// GetActiveCardByMemberID returns the member's active card, or ErrNotFound.
func (r *walletCardRepository) GetActiveCardByMemberID(memberID int64) (*models.WalletCard, error) {
	query := `SELECT ` + cardColumns + ` FROM wallet_cards WHERE member_id = $1 AND is_active
	          ORDER BY created_at DESC LIMIT 1`
	card, err := scanCard(r.db.QueryRow(query, memberID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting active wallet card for member ID %d: %v", ErrDatabaseError, memberID, err)
	}
	return card, nil
}

func memberColumnsPrefixed(alias string) string {
	return alias + `.id, ` + alias + `.membership_id, ` + alias + `.first_name, ` + alias + `.last_name, ` +
		alias + `.email, ` + alias + `.points, ` + alias + `.status`
}

func scanCardWithMember(row interface{ Scan(...interface{}) error }) (*models.WalletCard, *models.Member, error) {
	card := &models.WalletCard{}
	member := &models.Member{}
	var designID sql.NullInt64
	var accessedAt sql.NullTime
	err := row.Scan(
		&card.ID, &card.MemberID, &designID, &card.CardURL,
		&card.Points, &card.IsActive, &card.CreatedAt, &accessedAt,
		&member.ID, &member.MembershipID, &member.FirstName, &member.LastName,
		&member.Email, &member.Points, &member.Status,
	)
	if err != nil {
		return nil, nil, err
	}
	if designID.Valid {
		card.CardDesignID = &designID.Int64
	}
	if accessedAt.Valid {
		card.LastAccessedAt = &accessedAt.Time
	}
	return card, member, nil
}

// GetCards returns all cards joined with member and design summaries, newest first.
func (r *walletCardRepository) GetCards() ([]models.WalletCard, error) {
	query := `SELECT w.id, w.member_id, w.card_design_id, w.card_url, w.points, w.is_active, w.created_at, w.last_accessed_at,
	          ` + memberColumnsPrefixed("m") + `, d.id, d.name
	          FROM wallet_cards w
	          JOIN members m ON m.id = w.member_id
	          LEFT JOIN card_designs d ON d.id = w.card_design_id
	          ORDER BY w.created_at DESC`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("%w: querying wallet cards: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	cards := []models.WalletCard{}
	for rows.Next() {
		card := models.WalletCard{}
		member := models.Member{}
		var designID, joinedDesignID sql.NullInt64
		var accessedAt sql.NullTime
		var designName sql.NullString
		if err := rows.Scan(
			&card.ID, &card.MemberID, &designID, &card.CardURL,
			&card.Points, &card.IsActive, &card.CreatedAt, &accessedAt,
			&member.ID, &member.MembershipID, &member.FirstName, &member.LastName,
			&member.Email, &member.Points, &member.Status,
			&joinedDesignID, &designName,
		); err != nil {
			return nil, fmt.Errorf("%w: scanning wallet card: %v", ErrDatabaseError, err)
		}
		if designID.Valid {
			card.CardDesignID = &designID.Int64
		}
		if accessedAt.Valid {
			card.LastAccessedAt = &accessedAt.Time
		}
		card.Member = &member
		if joinedDesignID.Valid {
			card.CardDesign = &models.CardDesign{ID: joinedDesignID.Int64, Name: designName.String}
		}
		cards = append(cards, card)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating wallet card rows: %v", ErrDatabaseError, err)
	}
	return cards, nil
}

// UpdatePoints sets the card's points snapshot.
func (r *walletCardRepository) UpdatePoints(executor SQLExecutor, id int64, points int) (*models.WalletCard, error) {
	query := `UPDATE wallet_cards SET points = $1 WHERE id = $2 RETURNING ` + cardColumns
	card, err := scanCard(executor.QueryRow(query, points, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: updating points for wallet card ID %d: %v", ErrDatabaseError, id, err)
	}
	return card, nil
}

// SetActive toggles the card's active flag.
func (r *walletCardRepository) SetActive(executor SQLExecutor, id int64, isActive bool) (*models.WalletCard, error) {
	query := `UPDATE wallet_cards SET is_active = $1 WHERE id = $2 RETURNING ` + cardColumns
	card, err := scanCard(executor.QueryRow(query, isActive, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return nil, fmt.Errorf("%w: %s (constraint: %s)", ErrDuplicateKey, pqErr.Message, pqErr.Constraint)
		}
		return nil, fmt.Errorf("%w: setting active=%v for wallet card ID %d: %v", ErrDatabaseError, isActive, id, err)
	}
	return card, nil
}

// TouchAccessed updates the card's last access timestamp.
func (r *walletCardRepository) TouchAccessed(id int64, at time.Time) error {
	result, err := r.db.Exec(`UPDATE wallet_cards SET last_accessed_at = $1 WHERE id = $2`, at, id)
	if err != nil {
		return fmt.Errorf("%w: touching wallet card ID %d: %v", ErrDatabaseError, id, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: getting rows affected for touching wallet card ID %d: %v", ErrDatabaseError, id, err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// GetStats aggregates the card fleet.
func (r *walletCardRepository) GetStats() (*models.WalletCardStats, error) {
	stats := &models.WalletCardStats{}
	query := `SELECT COUNT(*),
	          COUNT(*) FILTER (WHERE is_active),
	          COALESCE(SUM(points), 0),
	          COUNT(*) FILTER (WHERE created_at >= $1)
	          FROM wallet_cards`
	weekAgo := time.Now().Add(-7 * 24 * time.Hour)
	err := r.db.QueryRow(query, weekAgo).Scan(
		&stats.TotalCards, &stats.ActiveCards, &stats.TotalPoints, &stats.RecentCards,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: aggregating wallet card stats: %v", ErrDatabaseError, err)
	}
	stats.InactiveCards = stats.TotalCards - stats.ActiveCards
	return stats, nil
}

// DeleteByMember erases a member's cards. Used by the privacy erasure flow.
func (r *walletCardRepository) DeleteByMember(executor SQLExecutor, memberID int64) error {
	if _, err := executor.Exec(`DELETE FROM wallet_cards WHERE member_id = $1`, memberID); err != nil {
		return fmt.Errorf("%w: deleting wallet cards for member ID %d: %v", ErrDatabaseError, memberID, err)
	}
	return nil
}
