package reminders

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (*Store, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewStore(mock), mock
}

func TestPurgeNonTerminal(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("DELETE FROM reminder_drafts").
		WillReturnResult(pgxmock.NewResult("DELETE", 4))

	n, err := store.PurgeNonTerminal(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertDraftDefaults(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("INSERT INTO reminder_drafts").
		WithArgs(pgxmock.AnyArg(), (*uuid.UUID)(nil), "A1", "Jan Kowalski", "+48600100200",
			pgxmock.AnyArg(), "Maćków-Huras", "Konsultacja", "treść", "draft",
			pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	d := &Draft{
		SourceAppointmentID: "A1",
		PatientName:         "Jan Kowalski",
		Phone:               "+48600100200",
		AppointmentDate:     time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC),
		DoctorName:          "Maćków-Huras",
		AppointmentType:     "Konsultacja",
		Message:             "treść",
	}
	require.NoError(t, store.InsertDraft(context.Background(), d))
	assert.NotEqual(t, uuid.Nil, d.ID)
	assert.Equal(t, StatusDraft, d.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestHasSentDraft(t *testing.T) {
	store, mock := newMockStore(t)
	date := time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT 1 FROM reminder_drafts").
		WithArgs("A1", date).
		WillReturnRows(pgxmock.NewRows([]string{"?column?"}).AddRow(1))
	sent, err := store.HasSentDraft(context.Background(), "A1", date)
	require.NoError(t, err)
	assert.True(t, sent)

	mock.ExpectQuery("SELECT 1 FROM reminder_drafts").
		WithArgs("A2", date).
		WillReturnRows(pgxmock.NewRows([]string{"?column?"}))
	sent, err = store.HasSentDraft(context.Background(), "A2", date)
	require.NoError(t, err)
	assert.False(t, sent)
}

func TestUpsertActionKeepsExistingID(t *testing.T) {
	store, mock := newMockStore(t)
	existing := uuid.New()
	createdAt := time.Now().Add(-24 * time.Hour).UTC()

	mock.ExpectQuery("INSERT INTO appointment_actions").
		WithArgs(
			pgxmock.AnyArg(), (*uuid.UUID)(nil), "A1",
			time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC),
			time.Date(2025, 1, 10, 9, 30, 0, 0, time.UTC),
			"Jan Kowalski", "", "", "", ActionStatusPending, pgxmock.AnyArg(),
		).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow(existing, createdAt))

	a := &Action{
		SourceAppointmentID: "A1",
		AppointmentDate:     time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC),
		AppointmentEndDate:  time.Date(2025, 1, 10, 9, 30, 0, 0, time.UTC),
		PatientName:         "Jan Kowalski",
	}
	require.NoError(t, store.UpsertAction(context.Background(), a))
	// On conflict the original row id wins, so link FKs stay stable.
	assert.Equal(t, existing, a.ID)
	assert.Equal(t, createdAt, a.CreatedAt)
	assert.Equal(t, ActionStatusPending, a.Status)
}

func TestAppendLinkToMessage(t *testing.T) {
	store, mock := newMockStore(t)
	id := uuid.New()

	mock.ExpectExec("UPDATE reminder_drafts").
		WithArgs(id, "https://clinic.example/r/ab12CD34", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	require.NoError(t, store.AppendLinkToMessage(context.Background(), id, "https://clinic.example/r/ab12CD34"))

	mock.ExpectExec("UPDATE reminder_drafts").
		WithArgs(id, "https://clinic.example/r/zz", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	err := store.AppendLinkToMessage(context.Background(), id, "https://clinic.example/r/zz")
	assert.Error(t, err)
}

func TestListDraftsByStatus(t *testing.T) {
	store, mock := newMockStore(t)
	status := StatusDraft
	now := time.Now().UTC()

	mock.ExpectQuery("SELECT id, patient_id, source_appointment_id").
		WithArgs("draft", 10).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "patient_id", "source_appointment_id", "patient_name", "phone",
			"appointment_date", "doctor_name", "appointment_type", "message",
			"status", "created_at", "updated_at",
		}).AddRow(uuid.New(), (*uuid.UUID)(nil), "A1", "Jan Kowalski", "+48600100200",
			now, "Maćków-Huras", "Konsultacja", "treść", "draft", now, now))

	drafts, err := store.ListDrafts(context.Background(), &status, 10)
	require.NoError(t, err)
	require.Len(t, drafts, 1)
	assert.Equal(t, StatusDraft, drafts[0].Status)
	assert.Equal(t, "A1", drafts[0].SourceAppointmentID)
}

func TestUpdateDraftStatus(t *testing.T) {
	store, mock := newMockStore(t)
	id := uuid.New()

	mock.ExpectExec("UPDATE reminder_drafts").
		WithArgs(id, "sent", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	require.NoError(t, store.UpdateDraftStatus(context.Background(), id, StatusSent))

	// Already transitioned elsewhere.
	mock.ExpectExec("UPDATE reminder_drafts").
		WithArgs(id, "cancelled", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	err := store.UpdateDraftStatus(context.Background(), id, StatusCancelled)
	assert.True(t, errors.Is(err, ErrDraftNotPending))

	// Draft is not a valid transition target.
	err = store.UpdateDraftStatus(context.Background(), id, StatusDraft)
	assert.True(t, errors.Is(err, ErrInvalidTransition))
}
