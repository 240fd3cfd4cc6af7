package reminders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrDraftNotPending is returned when a status transition targets a draft
// that is not in the draft state anymore.
var ErrDraftNotPending = errors.New("reminders: draft is not pending review")

// ErrInvalidTransition is returned for a status a draft can never move to.
var ErrInvalidTransition = errors.New("reminders: invalid draft status transition")

// DB abstracts the pgx query interface for testing.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store is the reconciliation layer over reminder drafts and appointment
// actions.
type Store struct {
	db DB
}

// NewStore creates a reminder store.
func NewStore(db DB) *Store {
	return &Store{db: db}
}

// PurgeNonTerminal deletes every draft whose status is draft, cancelled or
// failed. Drafts are fully derived state; each run recomputes them from
// scratch so template edits and schedule shifts propagate. Sent drafts are
// the durable notification history and are never touched.
func (s *Store) PurgeNonTerminal(ctx context.Context) (int64, error) {
	tag, err := s.db.Exec(ctx, `
		DELETE FROM reminder_drafts WHERE status IN ('draft', 'cancelled', 'failed')`)
	if err != nil {
		return 0, fmt.Errorf("reminders: purge non-terminal drafts: %w", err)
	}
	return tag.RowsAffected(), nil
}

// InsertDraft writes a new draft. Plain insert: the purge step guarantees no
// collision with prior non-terminal drafts, and the already-sent guard keeps
// sent occurrences out of the run entirely.
func (s *Store) InsertDraft(ctx context.Context, d *Draft) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	now := time.Now().UTC()
	d.CreatedAt = now
	d.UpdatedAt = now
	if d.Status == "" {
		d.Status = StatusDraft
	}

	_, err := s.db.Exec(ctx, `
		INSERT INTO reminder_drafts (id, patient_id, source_appointment_id, patient_name, phone, appointment_date, doctor_name, appointment_type, message, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		d.ID, d.PatientID, d.SourceAppointmentID, d.PatientName, d.Phone,
		d.AppointmentDate, d.DoctorName, d.AppointmentType, d.Message,
		string(d.Status), d.CreatedAt, d.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("reminders: insert draft: %w", err)
	}
	return nil
}

// HasSentDraft reports whether a sent draft exists for the occurrence. This
// is the sole re-notification guard.
func (s *Store) HasSentDraft(ctx context.Context, sourceAppointmentID string, appointmentDate time.Time) (bool, error) {
	row := s.db.QueryRow(ctx, `
		SELECT 1 FROM reminder_drafts
		WHERE source_appointment_id = $1 AND appointment_date = $2 AND status = 'sent'
		LIMIT 1`, sourceAppointmentID, appointmentDate)

	var one int
	if err := row.Scan(&one); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("reminders: has sent draft: %w", err)
	}
	return true, nil
}

// UpsertAction inserts or updates the action for an appointment occurrence,
// keyed on (source_appointment_id, appointment_date). On conflict the
// mutable fields are overwritten and updated_at bumps; id and created_at
// stay with the original row so link FKs remain stable.
func (s *Store) UpsertAction(ctx context.Context, a *Action) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	now := time.Now().UTC()
	if a.Status == "" {
		a.Status = ActionStatusPending
	}

	row := s.db.QueryRow(ctx, `
		INSERT INTO appointment_actions (id, patient_id, source_appointment_id, appointment_date, appointment_end_date, patient_name, patient_phone, doctor_name, appointment_type, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)
		ON CONFLICT (source_appointment_id, appointment_date) DO UPDATE SET
			patient_id = EXCLUDED.patient_id,
			appointment_end_date = EXCLUDED.appointment_end_date,
			patient_name = EXCLUDED.patient_name,
			patient_phone = EXCLUDED.patient_phone,
			doctor_name = EXCLUDED.doctor_name,
			appointment_type = EXCLUDED.appointment_type,
			updated_at = EXCLUDED.updated_at
		RETURNING id, created_at`,
		a.ID, a.PatientID, a.SourceAppointmentID, a.AppointmentDate,
		a.AppointmentEndDate, a.PatientName, a.PatientPhone, a.DoctorName,
		a.AppointmentType, a.Status, now,
	)
	if err := row.Scan(&a.ID, &a.CreatedAt); err != nil {
		return fmt.Errorf("reminders: upsert action: %w", err)
	}
	a.UpdatedAt = now
	return nil
}

// AppendLinkToMessage appends the tracking link on a new line to an already
// persisted draft message.
func (s *Store) AppendLinkToMessage(ctx context.Context, draftID uuid.UUID, shortURL string) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE reminder_drafts
		SET message = message || E'\n' || $2, updated_at = $3
		WHERE id = $1`, draftID, shortURL, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("reminders: append link: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("reminders: append link: no draft with id %s", draftID)
	}
	return nil
}

// ListDrafts returns drafts for the review surface, newest appointment first,
// optionally filtered by status.
func (s *Store) ListDrafts(ctx context.Context, status *DraftStatus, limit int) ([]Draft, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows pgx.Rows
	var err error
	if status != nil {
		rows, err = s.db.Query(ctx, `
			SELECT id, patient_id, source_appointment_id, patient_name, phone, appointment_date, doctor_name, appointment_type, message, status, created_at, updated_at
			FROM reminder_drafts
			WHERE status = $1
			ORDER BY appointment_date ASC LIMIT $2`, string(*status), limit)
	} else {
		rows, err = s.db.Query(ctx, `
			SELECT id, patient_id, source_appointment_id, patient_name, phone, appointment_date, doctor_name, appointment_type, message, status, created_at, updated_at
			FROM reminder_drafts
			ORDER BY appointment_date ASC LIMIT $1`, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("reminders: list drafts: %w", err)
	}
	defer rows.Close()
	return scanDrafts(rows)
}

// UpdateDraftStatus transitions a pending draft to sent, cancelled or
// failed. Only the downstream review stage calls this; drafts that already
// left the pending state are not touched.
func (s *Store) UpdateDraftStatus(ctx context.Context, id uuid.UUID, to DraftStatus) error {
	switch to {
	case StatusSent, StatusCancelled, StatusFailed:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidTransition, to)
	}

	tag, err := s.db.Exec(ctx, `
		UPDATE reminder_drafts SET status = $2, updated_at = $3
		WHERE id = $1 AND status = 'draft'`, id, string(to), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("reminders: update draft status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrDraftNotPending
	}
	return nil
}

func scanDrafts(rows pgx.Rows) ([]Draft, error) {
	var result []Draft
	for rows.Next() {
		var d Draft
		var status string
		err := rows.Scan(
			&d.ID, &d.PatientID, &d.SourceAppointmentID, &d.PatientName,
			&d.Phone, &d.AppointmentDate, &d.DoctorName, &d.AppointmentType,
			&d.Message, &status, &d.CreatedAt, &d.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("reminders: scan draft: %w", err)
		}
		d.Status = DraftStatus(status)
		result = append(result, d)
	}
	return result, rows.Err()
}
