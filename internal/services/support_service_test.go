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

var ticketCols = []string{"id", "ticket_number", "subject", "category", "status", "priority", "created_by", "created_at", "updated_at"}

func newSupportServiceForTest(t *testing.T) (SupportService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewSupportService(repositories.NewSupportRepository(db), NewEmailService(EmailConfig{}), db, ""), mock
}

func TestCreateTicketWritesTicketAndFirstMessage(t *testing.T) {
	svc, mock := newSupportServiceForTest(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO support_tickets`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(21)))
	mock.ExpectQuery(`INSERT INTO support_messages`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(31)))
	mock.ExpectExec(`UPDATE support_tickets SET updated_at`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	ticket, err := svc.CreateTicket(7, CreateTicketRequest{
		Subject: "Karte funktioniert nicht",
		Message: "Der QR-Code wird nicht erkannt.",
	})
	require.NoError(t, err)
	assert.Equal(t, models.TicketStatusOpen, ticket.Status)
	assert.Equal(t, models.TicketPriorityNormal, ticket.Priority)
	assert.Regexp(t, `^XKYS-[0-9A-F]{8}$`, ticket.TicketNumber)
	require.Len(t, ticket.Messages, 1)
	assert.Equal(t, "Der QR-Code wird nicht erkannt.", ticket.Messages[0].Message)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateTicketRejectsEmptySubject(t *testing.T) {
	svc, _ := newSupportServiceForTest(t)

	_, err := svc.CreateTicket(7, CreateTicketRequest{Subject: "  ", Message: "x"})
	assert.ErrorIs(t, err, ErrTicketValidation)
}

func ticketRowFor(createdBy int64, status string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(ticketCols).
		AddRow(int64(21), "XKYS-AB12CD34", "Subject", "general", status, models.TicketPriorityNormal, createdBy, now, now)
}

func TestGetTicketHidesForeignTicketsFromMembers(t *testing.T) {
	svc, mock := newSupportServiceForTest(t)

	mock.ExpectQuery(`SELECT (.+) FROM support_tickets WHERE id = \$1`).
		WithArgs(int64(21)).
		WillReturnRows(ticketRowFor(99, models.TicketStatusOpen))
	mock.ExpectQuery(`SELECT (.+) FROM support_messages WHERE ticket_id = \$1 AND NOT is_internal`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "ticket_id", "sender_id", "sender_role", "message", "is_internal", "is_read", "created_at"}))

	_, err := svc.GetTicket(21, 7, false)
	assert.ErrorIs(t, err, ErrTicketForbidden)
}

func TestReplyRejectsInternalNoteFromMember(t *testing.T) {
	svc, _ := newSupportServiceForTest(t)

	_, err := svc.Reply(21, 7, models.RoleMember, ReplyRequest{Message: "hi", IsInternal: true})
	assert.ErrorIs(t, err, ErrTicketForbidden)
}

func TestMemberReplyReopensResolvedTicket(t *testing.T) {
	svc, mock := newSupportServiceForTest(t)

	mock.ExpectQuery(`SELECT (.+) FROM support_tickets WHERE id = \$1`).
		WillReturnRows(ticketRowFor(7, models.TicketStatusResolved))
	mock.ExpectQuery(`SELECT (.+) FROM support_messages WHERE ticket_id = \$1 AND NOT is_internal`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "ticket_id", "sender_id", "sender_role", "message", "is_internal", "is_read", "created_at"}))
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO support_messages`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(32)))
	mock.ExpectExec(`UPDATE support_tickets SET updated_at`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`UPDATE support_tickets SET`).
		WillReturnRows(ticketRowFor(7, models.TicketStatusOpen))
	mock.ExpectCommit()

	message, err := svc.Reply(21, 7, models.RoleMember, ReplyRequest{Message: "Problem besteht weiterhin"})
	require.NoError(t, err)
	assert.False(t, message.IsInternal)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateTicketRejectsUnknownStatus(t *testing.T) {
	svc, _ := newSupportServiceForTest(t)

	bad := "ARCHIVED"
	_, err := svc.UpdateTicket(21, UpdateTicketRequest{Status: &bad})
	assert.ErrorIs(t, err, ErrTicketValidation)
}
