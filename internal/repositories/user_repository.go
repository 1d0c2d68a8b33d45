package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"fitness_portal_backend/internal/models"

	"github.com/lib/pq"
)

// UserRepository defines the interface for user-related database operations.
type UserRepository interface {
	CreateUser(executor SQLExecutor, user *models.User, passwordHash string) (int64, error)
	FindUserByID(id int64) (*models.User, error)
	FindUserByEmail(email string) (*models.User, error)
	SetEmailVerified(executor SQLExecutor, userID int64) error
	UpdateRoleByEmail(executor SQLExecutor, email, role string) (*models.User, error)
	DeleteUser(executor SQLExecutor, id int64) error
}

type userRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{db: db}
}

const userColumns = `id, email, password_hash, role, is_email_verified, wants_google_wallet, created_at, updated_at`

func scanUser(row interface{ Scan(...interface{}) error }) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.Role,
		&user.IsEmailVerified, &user.WantsGoogleWallet, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// CreateUser inserts a new user row. The caller supplies the bcrypt hash.
func (r *userRepository) CreateUser(executor SQLExecutor, user *models.User, passwordHash string) (int64, error) {
	query := `INSERT INTO users (email, password_hash, role, is_email_verified, wants_google_wallet, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)
	          RETURNING id`

	now := time.Now()
	err := executor.QueryRow(query,
		user.Email, passwordHash, user.Role, user.IsEmailVerified, user.WantsGoogleWallet, now, now,
	).Scan(&user.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			if pqErr.Code.Name() == "unique_violation" {
				return 0, fmt.Errorf("%w: %s (constraint: %s)", ErrDuplicateKey, pqErr.Message, pqErr.Constraint)
			}
		}
		return 0, fmt.Errorf("%w: creating user: %v", ErrDatabaseError, err)
	}
	user.CreatedAt = now
	user.UpdatedAt = now
	return user.ID, nil
}

// FindUserByID retrieves a user by ID.
func (r *userRepository) FindUserByID(id int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	user, err := scanUser(r.db.QueryRow(query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting user by ID %d: %v", ErrDatabaseError, id, err)
	}
	return user, nil
}

// FindUserByEmail retrieves a user by email. The password hash is populated
// for credential checks; services must clear it before returning the user.
func (r *userRepository) FindUserByEmail(email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	user, err := scanUser(r.db.QueryRow(query, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting user by email %s: %v", ErrDatabaseError, email, err)
	}
	return user, nil
}

// SetEmailVerified marks a user's email as verified.
func (r *userRepository) SetEmailVerified(executor SQLExecutor, userID int64) error {
	query := `UPDATE users SET is_email_verified = TRUE, updated_at = $1 WHERE id = $2`
	result, err := executor.Exec(query, time.Now(), userID)
	if err != nil {
		return fmt.Errorf("%w: verifying user ID %d: %v", ErrDatabaseError, userID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: getting rows affected for verifying user ID %d: %v", ErrDatabaseError, userID, err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateRoleByEmail sets a user's role and returns the updated row.
func (r *userRepository) UpdateRoleByEmail(executor SQLExecutor, email, role string) (*models.User, error) {
	query := `UPDATE users SET role = $1, updated_at = $2 WHERE email = $3
	          RETURNING ` + userColumns
	user, err := scanUser(executor.QueryRow(query, role, time.Now(), email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: updating role for %s: %v", ErrDatabaseError, email, err)
	}
	return user, nil
}

// DeleteUser removes a user row. Member data cascades at the schema level.
func (r *userRepository) DeleteUser(executor SQLExecutor, id int64) error {
	result, err := executor.Exec(`DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%w: deleting user ID %d: %v", ErrDatabaseError, id, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: getting rows affected for deleting user ID %d: %v", ErrDatabaseError, id, err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
