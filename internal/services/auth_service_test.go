package services

import (
	"testing"
	"time"

	"fitness_portal_backend/internal/models"
	"fitness_portal_backend/internal/repositories"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var userCols = []string{"id", "email", "password_hash", "role", "is_email_verified", "wants_google_wallet", "created_at", "updated_at"}

func newAuthServiceForTest(t *testing.T, cfg AuthConfig) (AuthService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	svc := NewAuthService(
		repositories.NewUserRepository(db),
		repositories.NewMemberRepository(db),
		NewEmailService(EmailConfig{}),
		db,
		cfg,
	)
	return svc, mock
}

func userRow(t *testing.T, password string, verified bool) *sqlmock.Rows {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	now := time.Now()
	return sqlmock.NewRows(userCols).
		AddRow(int64(7), "lena@example.com", string(hash), models.RoleMember, verified, false, now, now)
}

func TestLoginSuccess(t *testing.T) {
	svc, mock := newAuthServiceForTest(t, AuthConfig{})

	mock.ExpectQuery(`SELECT (.+) FROM users WHERE email = \$1`).
		WithArgs("lena@example.com").
		WillReturnRows(userRow(t, "correct-horse-battery", true))
	mock.ExpectQuery(`SELECT (.+) FROM members WHERE user_id = \$1`).
		WithArgs(int64(7)).
		WillReturnRows(memberRow(50, models.MemberStatusActive))

	resp, err := svc.Login(LoginRequest{Email: "Lena@Example.com ", Password: "correct-horse-battery"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Empty(t, resp.User.PasswordHash)
	require.NotNil(t, resp.User.Member)
	assert.Equal(t, "MEMABCDEF123456", resp.User.Member.MembershipID)
}

func TestLoginWrongPassword(t *testing.T) {
	svc, mock := newAuthServiceForTest(t, AuthConfig{})

	mock.ExpectQuery(`SELECT (.+) FROM users WHERE email = \$1`).
		WillReturnRows(userRow(t, "correct-horse-battery", true))

	_, err := svc.Login(LoginRequest{Email: "lena@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginUnknownEmailIsIndistinguishable(t *testing.T) {
	svc, mock := newAuthServiceForTest(t, AuthConfig{})

	mock.ExpectQuery(`SELECT (.+) FROM users WHERE email = \$1`).
		WillReturnRows(sqlmock.NewRows(userCols))

	_, err := svc.Login(LoginRequest{Email: "nobody@example.com", Password: "whatever"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginRejectsUnverifiedEmail(t *testing.T) {
	svc, mock := newAuthServiceForTest(t, AuthConfig{})

	mock.ExpectQuery(`SELECT (.+) FROM users WHERE email = \$1`).
		WillReturnRows(userRow(t, "correct-horse-battery", false))

	_, err := svc.Login(LoginRequest{Email: "lena@example.com", Password: "correct-horse-battery"})
	assert.ErrorIs(t, err, ErrEmailNotVerified)
}

func TestLoginRejectsBlockedMember(t *testing.T) {
	svc, mock := newAuthServiceForTest(t, AuthConfig{})

	mock.ExpectQuery(`SELECT (.+) FROM users WHERE email = \$1`).
		WillReturnRows(userRow(t, "correct-horse-battery", true))
	mock.ExpectQuery(`SELECT (.+) FROM members WHERE user_id = \$1`).
		WillReturnRows(memberRow(50, models.MemberStatusBlocked))

	_, err := svc.Login(LoginRequest{Email: "lena@example.com", Password: "correct-horse-battery"})
	assert.ErrorIs(t, err, ErrAccountBlocked)
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newAuthServiceForTest(t, AuthConfig{})

	cases := []struct {
		name string
		req  RegisterRequest
	}{
		{"bad email", RegisterRequest{Email: "not-an-email", Password: "longenough", FirstName: "A", LastName: "B"}},
		{"short password", RegisterRequest{Email: "a@example.com", Password: "short", FirstName: "A", LastName: "B"}},
		{"missing name", RegisterRequest{Email: "a@example.com", Password: "longenough", FirstName: " ", LastName: "B"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Register(tc.req)
			assert.ErrorIs(t, err, ErrAuthValidation)
		})
	}
}

func TestRegisterCreatesUserAndPendingMember(t *testing.T) {
	svc, mock := newAuthServiceForTest(t, AuthConfig{BackendBaseURL: "http://localhost:8080"})

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO users`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))
	mock.ExpectQuery(`INSERT INTO members`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))
	mock.ExpectCommit()

	resp, err := svc.Register(RegisterRequest{
		Email:     "lena@example.com",
		Password:  "correct-horse-battery",
		FirstName: "Lena",
		LastName:  "Koch",
	})
	require.NoError(t, err)
	require.NotNil(t, resp.User.Member)
	assert.Equal(t, models.MemberStatusPending, resp.User.Member.Status)
	assert.Regexp(t, `^MEM[0-9A-F]{12}$`, resp.User.Member.MembershipID)
	assert.Empty(t, resp.Token)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPromoteToAdminRequiresConfiguredToken(t *testing.T) {
	svc, _ := newAuthServiceForTest(t, AuthConfig{})

	_, err := svc.PromoteToAdmin("lena@example.com", "anything")
	assert.ErrorIs(t, err, ErrSetupTokenUnset)
}

func TestPromoteToAdminRejectsWrongToken(t *testing.T) {
	svc, _ := newAuthServiceForTest(t, AuthConfig{AdminSetupToken: "secret-setup"})

	_, err := svc.PromoteToAdmin("lena@example.com", "guess")
	assert.ErrorIs(t, err, ErrInvalidSetupToken)
}

func TestPromoteToAdminUpdatesRole(t *testing.T) {
	svc, mock := newAuthServiceForTest(t, AuthConfig{AdminSetupToken: "secret-setup"})

	rows := userRow(t, "pw", true)
	mock.ExpectQuery(`UPDATE users SET role = \$1`).
		WithArgs(models.RoleAdmin, sqlmock.AnyArg(), "lena@example.com").
		WillReturnRows(rows)

	user, err := svc.PromoteToAdmin("Lena@example.com", "secret-setup")
	require.NoError(t, err)
	assert.Equal(t, "lena@example.com", user.Email)
}
