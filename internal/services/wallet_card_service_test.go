package services

import (
	"testing"
	"time"

	"fitness_portal_backend/internal/models"
	"fitness_portal_backend/internal/repositories"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var cardCols = []string{"id", "member_id", "card_design_id", "card_url", "points", "is_active", "created_at", "last_accessed_at"}

var cardWithMemberCols = append(append([]string{}, cardCols...),
	"m_id", "m_membership_id", "m_first_name", "m_last_name", "m_email", "m_points", "m_status")

func cardRow(id, memberID int64, points int) *sqlmock.Rows {
	return sqlmock.NewRows(cardCols).AddRow(
		id, memberID, int64(3), "https://pay.google.com/gp/v/save/abc", points, true, time.Now(), nil,
	)
}

func cardWithMemberRow(id, memberID int64, cardPoints, memberPoints int) *sqlmock.Rows {
	return sqlmock.NewRows(cardWithMemberCols).AddRow(
		id, memberID, int64(3), "https://pay.google.com/gp/v/save/abc", cardPoints, true, time.Now(), nil,
		memberID, "MEMABCDEF123456", "Lena", "Koch", "lena@example.com", memberPoints, models.MemberStatusActive,
	)
}

func newWalletCardServiceForTest(t *testing.T) (WalletCardService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	svc := NewWalletCardService(
		repositories.NewWalletCardRepository(db),
		repositories.NewMemberRepository(db),
		repositories.NewPointsRepository(db),
		repositories.NewCardDesignRepository(db),
		repositories.NewUserRepository(db),
		NewWalletService(WalletConfig{}),
		NewEmailService(EmailConfig{}),
		db,
	)
	return svc, mock
}

func TestRequestWalletCardRejectsDuplicateActiveCard(t *testing.T) {
	svc, mock := newWalletCardServiceForTest(t)

	mock.ExpectQuery(`SELECT (.+) FROM members WHERE user_id = \$1`).
		WithArgs(int64(7)).
		WillReturnRows(memberRow(50, models.MemberStatusActive))
	mock.ExpectQuery(`SELECT (.+) FROM wallet_cards WHERE member_id = \$1 AND is_active`).
		WithArgs(int64(1)).
		WillReturnRows(cardRow(4, 1, 50))

	_, err := svc.RequestWalletCard(7)
	assert.ErrorIs(t, err, ErrActiveCardExists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateCardForMemberRejectsDuplicateActiveCard(t *testing.T) {
	svc, mock := newWalletCardServiceForTest(t)

	mock.ExpectQuery(`SELECT (.+) FROM members WHERE id = \$1`).
		WithArgs(int64(1)).
		WillReturnRows(memberRow(50, models.MemberStatusActive))
	mock.ExpectQuery(`SELECT (.+) FROM wallet_cards WHERE member_id = \$1 AND is_active`).
		WithArgs(int64(1)).
		WillReturnRows(cardRow(4, 1, 50))

	_, err := svc.CreateCardForMember(1, nil)
	assert.ErrorIs(t, err, ErrActiveCardExists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// Two concurrent issues can both pass the active-card read; the partial
// unique index catches the loser on insert.
func TestCreateCardForMemberMapsUniqueViolation(t *testing.T) {
	svc, mock := newWalletCardServiceForTest(t)

	mock.ExpectQuery(`SELECT (.+) FROM members WHERE id = \$1`).
		WillReturnRows(memberRow(50, models.MemberStatusActive))
	mock.ExpectQuery(`SELECT (.+) FROM wallet_cards WHERE member_id = \$1 AND is_active`).
		WillReturnRows(sqlmock.NewRows(cardCols))
	mock.ExpectQuery(`SELECT (.+) FROM card_designs WHERE is_active`).
		WillReturnRows(designRow(3, "Summer", true))
	mock.ExpectQuery(`INSERT INTO wallet_cards`).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "wallet_cards_one_active_per_member"})

	_, err := svc.CreateCardForMember(1, nil)
	assert.ErrorIs(t, err, ErrActiveCardExists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRequestWalletCardRequiresActiveDesign(t *testing.T) {
	svc, mock := newWalletCardServiceForTest(t)

	mock.ExpectQuery(`SELECT (.+) FROM members WHERE user_id = \$1`).
		WillReturnRows(memberRow(50, models.MemberStatusActive))
	mock.ExpectQuery(`SELECT (.+) FROM wallet_cards WHERE member_id = \$1 AND is_active`).
		WillReturnRows(sqlmock.NewRows(cardCols))
	mock.ExpectQuery(`SELECT (.+) FROM card_designs WHERE is_active`).
		WillReturnRows(sqlmock.NewRows(designCols))

	_, err := svc.RequestWalletCard(7)
	assert.ErrorIs(t, err, ErrNoActiveDesign)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateCardPointsRoutesDeltaThroughLedger(t *testing.T) {
	svc, mock := newWalletCardServiceForTest(t)

	mock.ExpectQuery(`SELECT (.+) FROM wallet_cards w`).
		WithArgs(int64(4)).
		WillReturnRows(cardWithMemberRow(4, 1, 50, 50))

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM members WHERE id = \$1 FOR UPDATE`).
		WithArgs(int64(1)).
		WillReturnRows(memberRow(50, models.MemberStatusActive))
	// 80 on the card, 50 on the member: the difference goes through the ledger.
	mock.ExpectQuery(`UPDATE members SET points = points \+ \$1`).
		WithArgs(30, sqlmock.AnyArg(), int64(1)).
		WillReturnRows(memberRow(80, models.MemberStatusActive))
	mock.ExpectQuery(`INSERT INTO points_transactions`).
		WithArgs(int64(1), 30, "wallet_card_adjustment", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(12)))
	mock.ExpectQuery(`UPDATE wallet_cards SET points = \$1`).
		WithArgs(80, int64(4)).
		WillReturnRows(cardRow(4, 1, 80))
	mock.ExpectCommit()

	card, err := svc.UpdateCardPoints(4, 80)
	require.NoError(t, err)
	assert.Equal(t, 80, card.Points)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateCardPointsSkipsLedgerWhenUnchanged(t *testing.T) {
	svc, mock := newWalletCardServiceForTest(t)

	mock.ExpectQuery(`SELECT (.+) FROM wallet_cards w`).
		WithArgs(int64(4)).
		WillReturnRows(cardWithMemberRow(4, 1, 40, 50))

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM members WHERE id = \$1 FOR UPDATE`).
		WithArgs(int64(1)).
		WillReturnRows(memberRow(50, models.MemberStatusActive))
	mock.ExpectQuery(`UPDATE wallet_cards SET points = \$1`).
		WithArgs(50, int64(4)).
		WillReturnRows(cardRow(4, 1, 50))
	mock.ExpectCommit()

	card, err := svc.UpdateCardPoints(4, 50)
	require.NoError(t, err)
	assert.Equal(t, 50, card.Points)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateCardPointsUnknownCard(t *testing.T) {
	svc, mock := newWalletCardServiceForTest(t)

	mock.ExpectQuery(`SELECT (.+) FROM wallet_cards w`).
		WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows(cardWithMemberCols))

	_, err := svc.UpdateCardPoints(99, 10)
	assert.ErrorIs(t, err, ErrCardNotFound)
}
