package services

import (
	"encoding/json"
	"testing"
	"time"

	"fitness_portal_backend/internal/models"
	"fitness_portal_backend/internal/repositories"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var designCols = []string{"id", "name", "description", "design_data", "is_active", "created_by", "created_at", "updated_at"}

func designRow(id int64, name string, isActive bool) *sqlmock.Rows {
	now := time.Now()
	data, _ := json.Marshal(models.DefaultDesignData())
	return sqlmock.NewRows(designCols).AddRow(id, name, nil, string(data), isActive, nil, now, now)
}

func newDesignServiceForTest(t *testing.T) (CardDesignService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewCardDesignService(repositories.NewCardDesignRepository(db), db), mock
}

func TestActivateDesignRunsInOneTransaction(t *testing.T) {
	svc, mock := newDesignServiceForTest(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM card_designs WHERE id = \$1`).
		WithArgs(int64(3)).
		WillReturnRows(designRow(3, "Summer", false))
	mock.ExpectExec(`UPDATE card_designs SET is_active = FALSE`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`UPDATE card_designs SET is_active = TRUE`).
		WithArgs(sqlmock.AnyArg(), int64(3)).
		WillReturnRows(designRow(3, "Summer", true))
	mock.ExpectCommit()

	design, err := svc.ActivateDesign(3)
	require.NoError(t, err)
	assert.True(t, design.IsActive)
	assert.Equal(t, "Summer", design.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestActivateDesignRollsBackOnMissingTarget(t *testing.T) {
	svc, mock := newDesignServiceForTest(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM card_designs WHERE id = \$1`).
		WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows(designCols))
	mock.ExpectRollback()

	_, err := svc.ActivateDesign(99)
	assert.ErrorIs(t, err, ErrDesignNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetActiveDesignDataFallsBackToDefault(t *testing.T) {
	svc, mock := newDesignServiceForTest(t)

	mock.ExpectQuery(`SELECT (.+) FROM card_designs WHERE is_active`).
		WillReturnRows(sqlmock.NewRows(designCols))

	data, err := svc.GetActiveDesignData()
	require.NoError(t, err)
	assert.Equal(t, models.DefaultDesignData(), data)
}

func TestCreateDesignRejectsInvalidJSON(t *testing.T) {
	svc, _ := newDesignServiceForTest(t)

	_, err := svc.CreateDesign(CreateDesignRequest{
		Name:       "Broken",
		DesignData: json.RawMessage(`{not-json`),
	}, 1)
	assert.ErrorIs(t, err, ErrDesignValidation)
}

func TestCreateDesignStoresInactive(t *testing.T) {
	svc, mock := newDesignServiceForTest(t)

	data, _ := json.Marshal(models.DefaultDesignData())
	mock.ExpectQuery(`INSERT INTO card_designs`).
		WithArgs("Winter", nil, string(data), false, int64(5), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(8)))

	design, err := svc.CreateDesign(CreateDesignRequest{
		Name:       "Winter",
		DesignData: data,
	}, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(8), design.ID)
	assert.False(t, design.IsActive)
	assert.NoError(t, mock.ExpectationsWereMet())
}
