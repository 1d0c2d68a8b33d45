package repositories

import (
	"database/sql"
	"fmt"
)

// StatsRepository aggregates member-level dashboard figures. Session-level
// figures live on CheckinRepository.
type StatsRepository interface {
	CountMembers() (int, error)
	CountMembersByStatus(status string) (int, error)
	TotalPoints() (int, error)
}

type statsRepository struct {
	db *sql.DB
}

// NewStatsRepository creates a new instance of StatsRepository.
func NewStatsRepository(db *sql.DB) StatsRepository {
	return &statsRepository{db: db}
}

func (r *statsRepository) CountMembers() (int, error) {
	var count int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM members`).Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: counting members: %v", ErrDatabaseError, err)
	}
	return count, nil
}

func (r *statsRepository) CountMembersByStatus(status string) (int, error) {
	var count int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM members WHERE status = $1`, status).Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: counting members with status %s: %v", ErrDatabaseError, status, err)
	}
	return count, nil
}

func (r *statsRepository) TotalPoints() (int, error) {
	var total int
	if err := r.db.QueryRow(`SELECT COALESCE(SUM(points), 0) FROM members`).Scan(&total); err != nil {
		return 0, fmt.Errorf("%w: summing member points: %v", ErrDatabaseError, err)
	}
	return total, nil
}
