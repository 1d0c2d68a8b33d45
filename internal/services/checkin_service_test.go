package services

import (
	"testing"
	"time"

	"fitness_portal_backend/internal/models"
	"fitness_portal_backend/internal/repositories"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var memberCols = []string{
	"id", "user_id", "membership_id", "first_name", "last_name", "email", "points", "status",
	"apple_wallet_link", "apple_wallet_created_at", "google_wallet_link", "google_wallet_created_at",
	"created_at", "updated_at",
}

func memberRow(points int, status string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(memberCols).AddRow(
		int64(1), int64(7), "MEMABCDEF123456", "Lena", "Koch", "lena@example.com", points, status,
		nil, nil, nil, nil, now, now,
	)
}

func newCheckinServiceForTest(t *testing.T, now time.Time) (CheckinService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	svc := &checkinService{
		memberRepo:    repositories.NewMemberRepository(db),
		pointsRepo:    repositories.NewPointsRepository(db),
		checkinRepo:   repositories.NewCheckinRepository(db),
		db:            db,
		checkinPoints: DefaultCheckinPoints,
		now:           func() time.Time { return now },
	}
	return svc, mock
}

func TestScanAwardsPointsWhenEligible(t *testing.T) {
	now := time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC)
	svc, mock := newCheckinServiceForTest(t, now)

	mock.ExpectQuery(`SELECT (.+) FROM members WHERE membership_id = \$1`).
		WithArgs("MEMABCDEF123456").
		WillReturnRows(memberRow(50, models.MemberStatusActive))

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM members WHERE id = \$1 FOR UPDATE`).
		WithArgs(int64(1)).
		WillReturnRows(memberRow(50, models.MemberStatusActive))

	lastCheckin := now.Add(-CheckinCooldown)
	mock.ExpectQuery(`SELECT (.+) FROM points_transactions`).
		WithArgs(int64(1), models.ReasonCheckin).
		WillReturnRows(sqlmock.NewRows([]string{"id", "member_id", "delta", "reason", "created_at"}).
			AddRow(int64(9), int64(1), 1, models.ReasonCheckin, lastCheckin))
	mock.ExpectExec(`UPDATE checkin_sessions SET checkout_at`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	mock.ExpectQuery(`UPDATE members SET points = points \+ \$1`).
		WithArgs(DefaultCheckinPoints, sqlmock.AnyArg(), int64(1)).
		WillReturnRows(memberRow(51, models.MemberStatusActive))
	mock.ExpectQuery(`INSERT INTO points_transactions`).
		WithArgs(int64(1), DefaultCheckinPoints, models.ReasonCheckin, now).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(10)))
	mock.ExpectQuery(`INSERT INTO checkin_sessions`).
		WithArgs(int64(1), now).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(4)))
	mock.ExpectCommit()

	result, err := svc.Scan("MEMABCDEF123456")
	require.NoError(t, err)
	assert.Equal(t, CheckinActionCheckin, result.Action)
	assert.Equal(t, DefaultCheckinPoints, result.PointsAwarded)
	assert.Equal(t, 51, result.Member.Points)
	assert.False(t, result.CooldownActive)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// A second scan inside the cooldown window must report the wait. The first
// check-in left a session open; the scan must not touch it, so no session
// update is expected before the commit.
func TestScanReportsCooldownInsteadOfFailing(t *testing.T) {
	now := time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC)
	svc, mock := newCheckinServiceForTest(t, now)

	mock.ExpectQuery(`SELECT (.+) FROM members WHERE membership_id = \$1`).
		WillReturnRows(memberRow(50, models.MemberStatusActive))
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM members WHERE id = \$1 FOR UPDATE`).
		WillReturnRows(memberRow(50, models.MemberStatusActive))

	lastCheckin := now.Add(-5 * time.Minute)
	mock.ExpectQuery(`SELECT (.+) FROM points_transactions`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "member_id", "delta", "reason", "created_at"}).
			AddRow(int64(9), int64(1), 1, models.ReasonCheckin, lastCheckin))
	mock.ExpectCommit()

	result, err := svc.Scan("MEMABCDEF123456")
	require.NoError(t, err)
	assert.Equal(t, CheckinActionCooldown, result.Action)
	assert.True(t, result.CooldownActive)
	assert.Equal(t, 0, result.PointsAwarded)
	require.NotNil(t, result.NextEligibleAt)
	assert.Equal(t, lastCheckin.Add(CheckinCooldown), *result.NextEligibleAt)
	assert.True(t, result.NextEligibleAt.After(now))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// Outside the cooldown window a scan with a session still open is a checkout.
func TestScanClosesOpenSession(t *testing.T) {
	now := time.Date(2026, 3, 14, 19, 30, 0, 0, time.UTC)
	svc, mock := newCheckinServiceForTest(t, now)

	mock.ExpectQuery(`SELECT (.+) FROM members WHERE membership_id = \$1`).
		WillReturnRows(memberRow(60, models.MemberStatusActive))
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM members WHERE id = \$1 FOR UPDATE`).
		WillReturnRows(memberRow(60, models.MemberStatusActive))

	lastCheckin := now.Add(-90 * time.Minute)
	mock.ExpectQuery(`SELECT (.+) FROM points_transactions`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "member_id", "delta", "reason", "created_at"}).
			AddRow(int64(9), int64(1), 1, models.ReasonCheckin, lastCheckin))
	mock.ExpectExec(`UPDATE checkin_sessions SET checkout_at`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	result, err := svc.Scan("MEMABCDEF123456")
	require.NoError(t, err)
	assert.Equal(t, CheckinActionCheckout, result.Action)
	assert.Equal(t, 0, result.PointsAwarded)
	assert.False(t, result.CooldownActive)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScanRejectsInactiveMember(t *testing.T) {
	now := time.Now()
	svc, mock := newCheckinServiceForTest(t, now)

	mock.ExpectQuery(`SELECT (.+) FROM members WHERE membership_id = \$1`).
		WillReturnRows(memberRow(0, models.MemberStatusBlocked))

	_, err := svc.Scan("MEMABCDEF123456")
	assert.ErrorIs(t, err, ErrMemberNotActive)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScanByIDRejectsInactiveMember(t *testing.T) {
	svc, mock := newCheckinServiceForTest(t, time.Now())

	mock.ExpectQuery(`SELECT (.+) FROM members WHERE id = \$1`).
		WithArgs(int64(1)).
		WillReturnRows(memberRow(0, models.MemberStatusPending))

	_, err := svc.ScanByID(1)
	assert.ErrorIs(t, err, ErrMemberNotActive)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScanUnknownMember(t *testing.T) {
	svc, mock := newCheckinServiceForTest(t, time.Now())

	mock.ExpectQuery(`SELECT (.+) FROM members WHERE membership_id = \$1`).
		WillReturnRows(sqlmock.NewRows(memberCols))

	_, err := svc.Scan("MEMDOESNOTEXIST")
	assert.ErrorIs(t, err, ErrMemberNotFound)
}

func TestAdjustPointsAllowsNegativeBalance(t *testing.T) {
	now := time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC)
	svc, mock := newCheckinServiceForTest(t, now)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM members WHERE id = \$1 FOR UPDATE`).
		WithArgs(int64(1)).
		WillReturnRows(memberRow(10, models.MemberStatusActive))
	mock.ExpectQuery(`UPDATE members SET points = points \+ \$1`).
		WithArgs(-25, sqlmock.AnyArg(), int64(1)).
		WillReturnRows(memberRow(-15, models.MemberStatusActive))
	mock.ExpectQuery(`INSERT INTO points_transactions`).
		WithArgs(int64(1), -25, "correction", now).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(11)))
	mock.ExpectCommit()

	member, err := svc.AdjustPoints(1, -25, "correction")
	require.NoError(t, err)
	assert.Equal(t, -15, member.Points)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetLedgerReconcilesBalance(t *testing.T) {
	svc, mock := newCheckinServiceForTest(t, time.Now())

	mock.ExpectQuery(`SELECT (.+) FROM members WHERE id = \$1`).
		WithArgs(int64(1)).
		WillReturnRows(memberRow(50, models.MemberStatusActive))
	mock.ExpectQuery(`SELECT (.+) FROM points_transactions WHERE member_id = \$1 ORDER BY`).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "member_id", "delta", "reason", "created_at"}).
			AddRow(int64(2), int64(1), 49, "adjustment", time.Now()).
			AddRow(int64(1), int64(1), 1, models.ReasonCheckin, time.Now()))
	mock.ExpectQuery(`SELECT COALESCE\(SUM\(delta\), 0\) FROM points_transactions`).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(50))

	report, err := svc.GetLedger(1)
	require.NoError(t, err)
	assert.Len(t, report.Transactions, 2)
	assert.Equal(t, 50, report.LedgerSum)
	assert.Equal(t, 50, report.Balance)
	assert.True(t, report.Consistent)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetLedgerFlagsDrift(t *testing.T) {
	svc, mock := newCheckinServiceForTest(t, time.Now())

	mock.ExpectQuery(`SELECT (.+) FROM members WHERE id = \$1`).
		WillReturnRows(memberRow(50, models.MemberStatusActive))
	mock.ExpectQuery(`SELECT (.+) FROM points_transactions WHERE member_id = \$1 ORDER BY`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "member_id", "delta", "reason", "created_at"}).
			AddRow(int64(1), int64(1), 45, "adjustment", time.Now()))
	mock.ExpectQuery(`SELECT COALESCE\(SUM\(delta\), 0\) FROM points_transactions`).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(45))

	report, err := svc.GetLedger(1)
	require.NoError(t, err)
	assert.Equal(t, 45, report.LedgerSum)
	assert.Equal(t, 50, report.Balance)
	assert.False(t, report.Consistent)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdjustPointsRejectsZeroDelta(t *testing.T) {
	svc, _ := newCheckinServiceForTest(t, time.Now())

	_, err := svc.AdjustPoints(1, 0, "noop")
	assert.ErrorIs(t, err, ErrPointsValidation)
}
