package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"fitness_portal_backend/internal/models"

	"github.com/lib/pq"
)

// MemberRepository defines the interface for member-related database operations.
type MemberRepository interface {
	CreateMember(executor SQLExecutor, member *models.Member) (int64, error)
	GetMemberByID(executor SQLExecutor, id int64) (*models.Member, error)
	GetMemberByMembershipID(executor SQLExecutor, membershipID string) (*models.Member, error)
	GetMemberByUserID(userID int64) (*models.Member, error)
	GetMemberByEmail(email string) (*models.Member, error)
	GetMemberForUpdate(executor SQLExecutor, id int64) (*models.Member, error)
	GetMembers(filters models.MemberFilters) ([]models.Member, int, error)
	AddPoints(executor SQLExecutor, id int64, delta int) (*models.Member, error)
	UpdateStatus(executor SQLExecutor, id int64, status string) (*models.Member, error)
	UpdateWalletLink(executor SQLExecutor, id int64, walletType, url string, createdAt time.Time) error
	DeleteMember(executor SQLExecutor, id int64) error
}

type memberRepository struct {
	db *sql.DB
}

// NewMemberRepository creates a new instance of MemberRepository.
func NewMemberRepository(db *sql.DB) MemberRepository {
	return &memberRepository{db: db}
}

const memberColumns = `id, user_id, membership_id, first_name, last_name, email, points, status,
	apple_wallet_link, apple_wallet_created_at, google_wallet_link, google_wallet_created_at,
	created_at, updated_at`

func scanMember(row interface{ Scan(...interface{}) error }) (*models.Member, error) {
	member := &models.Member{}
	var appleLink, googleLink sql.NullString
	var appleAt, googleAt sql.NullTime
	err := row.Scan(
		&member.ID, &member.UserID, &member.MembershipID, &member.FirstName, &member.LastName,
		&member.Email, &member.Points, &member.Status,
		&appleLink, &appleAt, &googleLink, &googleAt,
		&member.CreatedAt, &member.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if appleLink.Valid {
		member.AppleWalletLink = &appleLink.String
	}
	if appleAt.Valid {
		member.AppleWalletCreatedAt = &appleAt.Time
	}
	if googleLink.Valid {
		member.GoogleWalletLink = &googleLink.String
	}
	if googleAt.Valid {
		member.GoogleWalletCreatedAt = &googleAt.Time
	}
	return member, nil
}

// CreateMember inserts a new member row.
func (r *memberRepository) CreateMember(executor SQLExecutor, member *models.Member) (int64, error) {
	query := `INSERT INTO members (user_id, membership_id, first_name, last_name, email, points, status, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	          RETURNING id`

	now := time.Now()
	err := executor.QueryRow(query,
		member.UserID, member.MembershipID, member.FirstName, member.LastName,
		member.Email, member.Points, member.Status, now, now,
	).Scan(&member.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			if pqErr.Code.Name() == "unique_violation" {
				return 0, fmt.Errorf("%w: %s (constraint: %s)", ErrDuplicateKey, pqErr.Message, pqErr.Constraint)
			}
		}
		return 0, fmt.Errorf("%w: creating member: %v", ErrDatabaseError, err)
	}
	member.CreatedAt = now
	member.UpdatedAt = now
	return member.ID, nil
}

// GetMemberByID retrieves a member by internal row ID.
func (r *memberRepository) GetMemberByID(executor SQLExecutor, id int64) (*models.Member, error) {
	if executor == nil {
		executor = r.db
	}
	query := `SELECT ` + memberColumns + ` FROM members WHERE id = $1`
	member, err := scanMember(executor.QueryRow(query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting member by ID %d: %v", ErrDatabaseError, id, err)
	}
	return member, nil
}

// GetMemberByMembershipID retrieves a member by public membership identifier.
func (r *memberRepository) GetMemberByMembershipID(executor SQLExecutor, membershipID string) (*models.Member, error) {
	if executor == nil {
		executor = r.db
	}
	query := `SELECT ` + memberColumns + ` FROM members WHERE membership_id = $1`
	member, err := scanMember(executor.QueryRow(query, membershipID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting member by membership ID %s: %v", ErrDatabaseError, membershipID, err)
	}
	return member, nil
}

// GetMemberByUserID retrieves the member attached to a user account.
func (r *memberRepository) GetMemberByUserID(userID int64) (*models.Member, error) {
	query := `SELECT ` + memberColumns + ` FROM members WHERE user_id = $1`
	member, err := scanMember(r.db.QueryRow(query, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting member by user ID %d: %v", ErrDatabaseError, userID, err)
	}
	return member, nil
}

// GetMemberByEmail retrieves a member by email address.
func (r *memberRepository) GetMemberByEmail(email string) (*models.Member, error) {
	query := `SELECT ` + memberColumns + ` FROM members WHERE email = $1`
	member, err := scanMember(r.db.QueryRow(query, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting member by email %s: %v", ErrDatabaseError, email, err)
	}
	return member, nil
}

// GetMemberForUpdate locks the member row for the lifetime of the enclosing
// transaction. Concurrent check-ins and point adjustments for the same member
// serialize on this lock.
func (r *memberRepository) GetMemberForUpdate(executor SQLExecutor, id int64) (*models.Member, error) {
	query := `SELECT ` + memberColumns + ` FROM members WHERE id = $1 FOR UPDATE`
	member, err := scanMember(executor.QueryRow(query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: locking member ID %d: %v", ErrDatabaseError, id, err)
	}
	return member, nil
}

// GetMembers retrieves a paginated member listing with optional search and
// status filtering.
func (r *memberRepository) GetMembers(filters models.MemberFilters) ([]models.Member, int, error) {
	members := []models.Member{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + memberColumns + `, COUNT(*) OVER() AS total_count FROM members`)

	var conditions []string
	var args []interface{}
	argCount := 1

	if filters.Query != nil && *filters.Query != "" {
		pattern := "%" + strings.ToLower(*filters.Query) + "%"
		conditions = append(conditions, fmt.Sprintf(
			"(LOWER(first_name) LIKE $%d OR LOWER(last_name) LIKE $%d OR LOWER(email) LIKE $%d OR LOWER(membership_id) LIKE $%d)",
			argCount, argCount, argCount, argCount))
		args = append(args, pattern)
		argCount++
	}
	if filters.Status != nil && *filters.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argCount))
		args = append(args, *filters.Status)
		argCount++
	}

	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}
	queryBuilder.WriteString(" ORDER BY created_at DESC")

	if filters.PageSize > 0 {
		queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d", argCount))
		args = append(args, filters.PageSize)
		argCount++
		if filters.Page > 0 {
			offset := (filters.Page - 1) * filters.PageSize
			queryBuilder.WriteString(fmt.Sprintf(" OFFSET $%d", argCount))
			args = append(args, offset)
		}
	}

	rows, err := r.db.Query(queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: querying members: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var member models.Member
		var appleLink, googleLink sql.NullString
		var appleAt, googleAt sql.NullTime
		if err := rows.Scan(
			&member.ID, &member.UserID, &member.MembershipID, &member.FirstName, &member.LastName,
			&member.Email, &member.Points, &member.Status,
			&appleLink, &appleAt, &googleLink, &googleAt,
			&member.CreatedAt, &member.UpdatedAt, &totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning member: %v", ErrDatabaseError, err)
		}
		if appleLink.Valid {
			member.AppleWalletLink = &appleLink.String
		}
		if appleAt.Valid {
			member.AppleWalletCreatedAt = &appleAt.Time
		}
		if googleLink.Valid {
			member.GoogleWalletLink = &googleLink.String
		}
		if googleAt.Valid {
			member.GoogleWalletCreatedAt = &googleAt.Time
		}
		members = append(members, member)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating member rows: %v", ErrDatabaseError, err)
	}

	return members, totalCount, nil
}

// AddPoints applies a signed delta to the denormalized points total and
// returns the updated member. Callers pair this with a ledger append inside
// one transaction.
func (r *memberRepository) AddPoints(executor SQLExecutor, id int64, delta int) (*models.Member, error) {
	query := `UPDATE members SET points = points + $1, updated_at = $2 WHERE id = $3
	          RETURNING ` + memberColumns
	member, err := scanMember(executor.QueryRow(query, delta, time.Now(), id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: adding %d points to member ID %d: %v", ErrDatabaseError, delta, id, err)
	}
	return member, nil
}

// UpdateStatus sets a member's status and returns the updated row.
func (r *memberRepository) UpdateStatus(executor SQLExecutor, id int64, status string) (*models.Member, error) {
	query := `UPDATE members SET status = $1, updated_at = $2 WHERE id = $3
	          RETURNING ` + memberColumns
	member, err := scanMember(executor.QueryRow(query, status, time.Now(), id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: updating status for member ID %d: %v", ErrDatabaseError, id, err)
	}
	return member, nil
}

// UpdateWalletLink stores the issued pass URL and timestamp for one platform.
func (r *memberRepository) UpdateWalletLink(executor SQLExecutor, id int64, walletType, url string, createdAt time.Time) error {
	var query string
	switch walletType {
	case models.WalletTypeApple:
		query = `UPDATE members SET apple_wallet_link = $1, apple_wallet_created_at = $2, updated_at = $3 WHERE id = $4`
	case models.WalletTypeGoogle:
		query = `UPDATE members SET google_wallet_link = $1, google_wallet_created_at = $2, updated_at = $3 WHERE id = $4`
	default:
		return fmt.Errorf("%w: unknown wallet type %q", ErrDatabaseError, walletType)
	}

	result, err := executor.Exec(query, url, createdAt, time.Now(), id)
	if err != nil {
		return fmt.Errorf("%w: updating wallet link for member ID %d: %v", ErrDatabaseError, id, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: getting rows affected for wallet link update on member ID %d: %v", ErrDatabaseError, id, err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteMember removes a member row. Ledger rows and sessions cascade.
func (r *memberRepository) DeleteMember(executor SQLExecutor, id int64) error {
	result, err := executor.Exec(`DELETE FROM members WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%w: deleting member ID %d: %v", ErrDatabaseError, id, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: getting rows affected for deleting member ID %d: %v", ErrDatabaseError, id, err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
