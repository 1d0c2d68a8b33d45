package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"fitness_portal_backend/internal/models"
)

// PointsRepository defines the interface for the append-only points ledger.
type PointsRepository interface {
	CreateTransaction(executor SQLExecutor, tx *models.PointsTransaction) (int64, error)
	GetLatestByReason(executor SQLExecutor, memberID int64, reason string) (*models.PointsTransaction, error)
	GetTransactionsByMember(memberID int64) ([]models.PointsTransaction, error)
	SumDeltas(memberID int64) (int, error)
	DeleteByMember(executor SQLExecutor, memberID int64) error
}

type pointsRepository struct {
	db *sql.DB
}

// NewPointsRepository creates a new instance of PointsRepository.
func NewPointsRepository(db *sql.DB) PointsRepository {
	return &pointsRepository{db: db}
}

// CreateTransaction appends one ledger row.
func (r *pointsRepository) CreateTransaction(executor SQLExecutor, tx *models.PointsTransaction) (int64, error) {
	query := `INSERT INTO points_transactions (member_id, delta, reason, created_at)
	          VALUES ($1, $2, $3, $4)
	          RETURNING id`

	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now()
	}
	err := executor.QueryRow(query, tx.MemberID, tx.Delta, tx.Reason, tx.CreatedAt).Scan(&tx.ID)
	if err != nil {
		return 0, fmt.Errorf("%w: creating points transaction: %v", ErrDatabaseError, err)
	}
	return tx.ID, nil
}

// GetLatestByReason returns the newest ledger row for a member with the given
// reason, or ErrNotFound when none exists. The check-in cooldown is computed
// from this row.
func (r *pointsRepository) GetLatestByReason(executor SQLExecutor, memberID int64, reason string) (*models.PointsTransaction, error) {
	if executor == nil {
		executor = r.db
	}
	tx := &models.PointsTransaction{}
	query := `SELECT id, member_id, delta, reason, created_at
	          FROM points_transactions
	          WHERE member_id = $1 AND reason = $2
	          ORDER BY created_at DESC
	          LIMIT 1`

	err := executor.QueryRow(query, memberID, reason).Scan(
		&tx.ID, &tx.MemberID, &tx.Delta, &tx.Reason, &tx.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting latest %q transaction for member ID %d: %v", ErrDatabaseError, reason, memberID, err)
	}
	return tx, nil
}

// GetTransactionsByMember returns a member's full ledger, newest first.
func (r *pointsRepository) GetTransactionsByMember(memberID int64) ([]models.PointsTransaction, error) {
	query := `SELECT id, member_id, delta, reason, created_at
	          FROM points_transactions
	          WHERE member_id = $1
	          ORDER BY created_at DESC`

	rows, err := r.db.Query(query, memberID)
	if err != nil {
		return nil, fmt.Errorf("%w: querying transactions for member ID %d: %v", ErrDatabaseError, memberID, err)
	}
	defer rows.Close()

	transactions := []models.PointsTransaction{}
	for rows.Next() {
		var tx models.PointsTransaction
		if err := rows.Scan(&tx.ID, &tx.MemberID, &tx.Delta, &tx.Reason, &tx.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: scanning points transaction: %v", ErrDatabaseError, err)
		}
		transactions = append(transactions, tx)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating transaction rows: %v", ErrDatabaseError, err)
	}
	return transactions, nil
}

// SumDeltas returns the ledger sum for a member. Used to audit the
// denormalized points total.
func (r *pointsRepository) SumDeltas(memberID int64) (int, error) {
	var sum int
	query := `SELECT COALESCE(SUM(delta), 0) FROM points_transactions WHERE member_id = $1`
	if err := r.db.QueryRow(query, memberID).Scan(&sum); err != nil {
		return 0, fmt.Errorf("%w: summing deltas for member ID %d: %v", ErrDatabaseError, memberID, err)
	}
	return sum, nil
}

// DeleteByMember erases a member's ledger. Used by the privacy erasure flow.
func (r *pointsRepository) DeleteByMember(executor SQLExecutor, memberID int64) error {
	if _, err := executor.Exec(`DELETE FROM points_transactions WHERE member_id = $1`, memberID); err != nil {
		return fmt.Errorf("%w: deleting transactions for member ID %d: %v", ErrDatabaseError, memberID, err)
	}
	return nil
}
