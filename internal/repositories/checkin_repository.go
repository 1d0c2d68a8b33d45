package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"fitness_portal_backend/internal/models"
)

// CheckinRepository defines the interface for studio visit sessions.
type CheckinRepository interface {
	OpenSession(executor SQLExecutor, memberID int64, at time.Time) (int64, error)
	CloseOpenSessions(executor SQLExecutor, memberID int64, at time.Time) (int64, error)
	CountSessionsSince(since time.Time) (int, error)
	CountSessionsBetween(from, to time.Time) (int, error)
	CountOpenSessions() (int, error)
	GetOpenSessionMembers() ([]models.LiveMember, error)
	GetRecentSessionMembers(limit int) ([]models.LiveMember, error)
	AverageSessionMinutesSince(since time.Time) (int, bool, error)
	DeleteByMember(executor SQLExecutor, memberID int64) error
}

type checkinRepository struct {
	db *sql.DB
}

// NewCheckinRepository creates a new instance of CheckinRepository.
func NewCheckinRepository(db *sql.DB) CheckinRepository {
	return &checkinRepository{db: db}
}

// OpenSession starts a new active session for the member.
func (r *checkinRepository) OpenSession(executor SQLExecutor, memberID int64, at time.Time) (int64, error) {
	var id int64
	query := `INSERT INTO checkin_sessions (member_id, checkin_at, is_active)
	          VALUES ($1, $2, TRUE)
	          RETURNING id`
	if err := executor.QueryRow(query, memberID, at).Scan(&id); err != nil {
		return 0, fmt.Errorf("%w: opening session for member ID %d: %v", ErrDatabaseError, memberID, err)
	}
	return id, nil
}

// CloseOpenSessions checks out every session still open for the member and
// returns how many were closed.
func (r *checkinRepository) CloseOpenSessions(executor SQLExecutor, memberID int64, at time.Time) (int64, error) {
	query := `UPDATE checkin_sessions SET checkout_at = $1, is_active = FALSE
	          WHERE member_id = $2 AND is_active`
	result, err := executor.Exec(query, at, memberID)
	if err != nil {
		return 0, fmt.Errorf("%w: closing sessions for member ID %d: %v", ErrDatabaseError, memberID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: getting rows affected for closing sessions of member ID %d: %v", ErrDatabaseError, memberID, err)
	}
	return rowsAffected, nil
}

// CountSessionsSince counts check-ins on or after the given time.
func (r *checkinRepository) CountSessionsSince(since time.Time) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM checkin_sessions WHERE checkin_at >= $1`
	if err := r.db.QueryRow(query, since).Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: counting sessions since %s: %v", ErrDatabaseError, since, err)
	}
	return count, nil
}

// CountSessionsBetween counts check-ins in [from, to).
func (r *checkinRepository) CountSessionsBetween(from, to time.Time) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM checkin_sessions WHERE checkin_at >= $1 AND checkin_at < $2`
	if err := r.db.QueryRow(query, from, to).Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: counting sessions between %s and %s: %v", ErrDatabaseError, from, to, err)
	}
	return count, nil
}

// CountOpenSessions counts members currently checked in.
func (r *checkinRepository) CountOpenSessions() (int, error) {
	var count int
	query := `SELECT COUNT(DISTINCT member_id) FROM checkin_sessions WHERE is_active AND checkout_at IS NULL`
	if err := r.db.QueryRow(query).Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: counting open sessions: %v", ErrDatabaseError, err)
	}
	return count, nil
}

const liveMemberSelect = `SELECT m.id, m.membership_id, m.first_name, m.last_name, m.points, m.status, s.checkin_at,
	(s.is_active AND s.checkout_at IS NULL) AS in_studio
	FROM checkin_sessions s
	JOIN members m ON m.id = s.member_id`

func scanLiveMembers(rows *sql.Rows) ([]models.LiveMember, error) {
	members := []models.LiveMember{}
	for rows.Next() {
		var lm models.LiveMember
		var checkinAt sql.NullTime
		if err := rows.Scan(&lm.ID, &lm.MembershipID, &lm.FirstName, &lm.LastName,
			&lm.Points, &lm.Status, &checkinAt, &lm.IsCurrentlyInStudio); err != nil {
			return nil, fmt.Errorf("%w: scanning live member: %v", ErrDatabaseError, err)
		}
		if checkinAt.Valid {
			lm.LastCheckin = &checkinAt.Time
		}
		members = append(members, lm)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating live member rows: %v", ErrDatabaseError, err)
	}
	return members, nil
}

// GetOpenSessionMembers returns members currently in the studio.
func (r *checkinRepository) GetOpenSessionMembers() ([]models.LiveMember, error) {
	query := liveMemberSelect + ` WHERE s.is_active AND s.checkout_at IS NULL ORDER BY s.checkin_at DESC`
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("%w: querying open session members: %v", ErrDatabaseError, err)
	}
	defer rows.Close()
	return scanLiveMembers(rows)
}

// GetRecentSessionMembers returns the most recent check-ins with presence.
func (r *checkinRepository) GetRecentSessionMembers(limit int) ([]models.LiveMember, error) {
	query := liveMemberSelect + ` ORDER BY s.checkin_at DESC LIMIT $1`
	rows, err := r.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: querying recent session members: %v", ErrDatabaseError, err)
	}
	defer rows.Close()
	return scanLiveMembers(rows)
}

// AverageSessionMinutesSince averages the duration of closed sessions started
// after the given time. The boolean reports whether any closed session existed.
func (r *checkinRepository) AverageSessionMinutesSince(since time.Time) (int, bool, error) {
	var avgMinutes sql.NullFloat64
	query := `SELECT AVG(EXTRACT(EPOCH FROM (checkout_at - checkin_at)) / 60)
	          FROM checkin_sessions
	          WHERE checkin_at >= $1 AND checkout_at IS NOT NULL`
	if err := r.db.QueryRow(query, since).Scan(&avgMinutes); err != nil {
		return 0, false, fmt.Errorf("%w: averaging session minutes since %s: %v", ErrDatabaseError, since, err)
	}
	if !avgMinutes.Valid {
		return 0, false, nil
	}
	return int(avgMinutes.Float64 + 0.5), true, nil
}

// DeleteByMember erases a member's sessions. Used by the privacy erasure flow.
func (r *checkinRepository) DeleteByMember(executor SQLExecutor, memberID int64) error {
	if _, err := executor.Exec(`DELETE FROM checkin_sessions WHERE member_id = $1`, memberID); err != nil {
		return fmt.Errorf("%w: deleting sessions for member ID %d: %v", ErrDatabaseError, memberID, err)
	}
	return nil
}
