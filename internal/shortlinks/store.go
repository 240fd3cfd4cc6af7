package shortlinks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrCodeTaken is returned when a generated short code collides with an
// existing row.
var ErrCodeTaken = errors.New("shortlinks: code already taken")

// DB abstracts the pgx query interface for testing.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store provides persistence for short links.
type Store struct {
	db DB
}

// NewStore creates a short-link store.
func NewStore(db DB) *Store {
	return &Store{db: db}
}

// Insert persists a new link. A unique-violation on short_code maps to
// ErrCodeTaken so the issuer can retry with a fresh code.
func (s *Store) Insert(ctx context.Context, l *Link) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	l.CreatedAt = time.Now().UTC()

	_, err := s.db.Exec(ctx, `
		INSERT INTO short_links (id, short_code, destination_url, appointment_id, patient_id, appointment_type_slug, expires_at, click_count, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 0, $8)`,
		l.ID, l.ShortCode, l.DestinationURL, l.AppointmentID, l.PatientID,
		l.AppointmentTypeSlug, l.ExpiresAt, l.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrCodeTaken
		}
		return fmt.Errorf("shortlinks: insert: %w", err)
	}
	return nil
}

// FindActive returns the link for a code when it has not expired yet.
// Unknown or expired codes return (nil, nil).
func (s *Store) FindActive(ctx context.Context, code string, now time.Time) (*Link, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, short_code, destination_url, appointment_id, patient_id, appointment_type_slug, expires_at, click_count, created_at
		FROM short_links
		WHERE short_code = $1 AND expires_at > $2`, code, now)

	var l Link
	err := row.Scan(&l.ID, &l.ShortCode, &l.DestinationURL, &l.AppointmentID,
		&l.PatientID, &l.AppointmentTypeSlug, &l.ExpiresAt, &l.ClickCount, &l.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("shortlinks: find active: %w", err)
	}
	return &l, nil
}

// RecordClick bumps the click counter for a resolved link.
func (s *Store) RecordClick(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.Exec(ctx, `
		UPDATE short_links SET click_count = click_count + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("shortlinks: record click: %w", err)
	}
	return nil
}
