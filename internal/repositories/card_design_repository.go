package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"fitness_portal_backend/internal/models"
)

// CardDesignRepository defines the interface for card design storage.
type CardDesignRepository interface {
	CreateDesign(executor SQLExecutor, design *models.CardDesign) (int64, error)
	GetDesignByID(executor SQLExecutor, id int64) (*models.CardDesign, error)
	GetDesigns() ([]models.CardDesign, error)
	GetActiveDesign() (*models.CardDesign, error)
	UpdateDesign(executor SQLExecutor, design *models.CardDesign) error
	DeactivateAll(executor SQLExecutor) error
	ActivateDesign(executor SQLExecutor, id int64) (*models.CardDesign, error)
	DeleteDesign(executor SQLExecutor, id int64) error
}

type cardDesignRepository struct {
	db *sql.DB
}

// NewCardDesignRepository creates a new instance of CardDesignRepository.
func NewCardDesignRepository(db *sql.DB) CardDesignRepository {
	return &cardDesignRepository{db: db}
}

const designColumns = `id, name, description, design_data, is_active, created_by, created_at, updated_at`

func scanDesign(row interface{ Scan(...interface{}) error }) (*models.CardDesign, error) {
	design := &models.CardDesign{}
	var description sql.NullString
	var createdBy sql.NullInt64
	err := row.Scan(
		&design.ID, &design.Name, &description, &design.DesignData,
		&design.IsActive, &createdBy, &design.CreatedAt, &design.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if description.Valid {
		design.Description = &description.String
	}
	if createdBy.Valid {
		design.CreatedBy = &createdBy.Int64
	}
	return design, nil
}

// CreateDesign inserts a new design row (inactive by default).
func (r *cardDesignRepository) CreateDesign(executor SQLExecutor, design *models.CardDesign) (int64, error) {
	query := `INSERT INTO card_designs (name, description, design_data, is_active, created_by, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)
	          RETURNING id`

	now := time.Now()
	err := executor.QueryRow(query,
		design.Name, design.Description, design.DesignData, design.IsActive, design.CreatedBy, now, now,
	).Scan(&design.ID)
	if err != nil {
		return 0, fmt.Errorf("%w: creating card design: %v", ErrDatabaseError, err)
	}
	design.CreatedAt = now
	design.UpdatedAt = now
	return design.ID, nil
}

// GetDesignByID retrieves one design.
func (r *cardDesignRepository) GetDesignByID(executor SQLExecutor, id int64) (*models.CardDesign, error) {
	if executor == nil {
		executor = r.db
	}
	query := `SELECT ` + designColumns + ` FROM card_designs WHERE id = $1`
	design, err := scanDesign(executor.QueryRow(query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting card design by ID %d: %v", ErrDatabaseError, id, err)
	}
	return design, nil
}

// GetDesigns returns all designs, newest first.
func (r *cardDesignRepository) GetDesigns() ([]models.CardDesign, error) {
	query := `SELECT ` + designColumns + ` FROM card_designs ORDER BY created_at DESC`
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("%w: querying card designs: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	designs := []models.CardDesign{}
	for rows.Next() {
		var design models.CardDesign
		var description sql.NullString
		var createdBy sql.NullInt64
		if err := rows.Scan(
			&design.ID, &design.Name, &description, &design.DesignData,
			&design.IsActive, &createdBy, &design.CreatedAt, &design.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("%w: scanning card design: %v", ErrDatabaseError, err)
		}
		if description.Valid {
			design.Description = &description.String
		}
		if createdBy.Valid {
			design.CreatedBy = &createdBy.Int64
		}
		designs = append(designs, design)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating card design rows: %v", ErrDatabaseError, err)
	}
	return designs, nil
}

// GetActiveDesign returns the single active design, or ErrNotFound.
func (r *cardDesignRepository) GetActiveDesign() (*models.CardDesign, error) {
	query := `SELECT ` + designColumns + ` FROM card_designs WHERE is_active LIMIT 1`
	design, err := scanDesign(r.db.QueryRow(query))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting active card design: %v", ErrDatabaseError, err)
	}
	return design, nil
}

// UpdateDesign updates name, description and design data.
func (r *cardDesignRepository) UpdateDesign(executor SQLExecutor, design *models.CardDesign) error {
	query := `UPDATE card_designs SET name = $1, description = $2, design_data = $3, updated_at = $4 WHERE id = $5`
	design.UpdatedAt = time.Now()
	result, err := executor.Exec(query, design.Name, design.Description, design.DesignData, design.UpdatedAt, design.ID)
	if err != nil {
		return fmt.Errorf("%w: updating card design ID %d: %v", ErrDatabaseError, design.ID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: getting rows affected for updating card design ID %d: %v", ErrDatabaseError, design.ID, err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeactivateAll clears the active flag on every design. Run inside the same
// transaction as ActivateDesign so readers never observe zero active designs.
func (r *cardDesignRepository) DeactivateAll(executor SQLExecutor) error {
	if _, err := executor.Exec(`UPDATE card_designs SET is_active = FALSE, updated_at = $1 WHERE is_active`, time.Now()); err != nil {
		return fmt.Errorf("%w: deactivating card designs: %v", ErrDatabaseError, err)
	}
	return nil
}

// ActivateDesign sets the active flag on one design and returns it.
func (r *cardDesignRepository) ActivateDesign(executor SQLExecutor, id int64) (*models.CardDesign, error) {
	query := `UPDATE card_designs SET is_active = TRUE, updated_at = $1 WHERE id = $2
	          RETURNING ` + designColumns
	design, err := scanDesign(executor.QueryRow(query, time.Now(), id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: activating card design ID %d: %v", ErrDatabaseError, id, err)
	}
	return design, nil
}

// DeleteDesign removes a design.
func (r *cardDesignRepository) DeleteDesign(executor SQLExecutor, id int64) error {
	result, err := executor.Exec(`DELETE FROM card_designs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%w: deleting card design ID %d: %v", ErrDatabaseError, id, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: getting rows affected for deleting card design ID %d: %v", ErrDatabaseError, id, err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
