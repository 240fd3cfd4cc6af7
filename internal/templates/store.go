package templates

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrNotFound is returned when no template matches a (doctor, type) pair.
var ErrNotFound = errors.New("templates: template not found")

// DB abstracts the pgx query interface for testing.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store reads admin-editable SMS templates. A row with doctor_name or
// appointment_type set to '*' acts as a wildcard; lookup prefers the most
// specific match.
type Store struct {
	db DB
}

// NewStore creates a template store.
func NewStore(db DB) *Store {
	return &Store{db: db}
}

// Lookup returns the template body for a doctor and appointment type,
// falling back through (doctor, *), (*, type) and (*, *).
func (s *Store) Lookup(ctx context.Context, doctorName, appointmentType string) (string, error) {
	row := s.db.QueryRow(ctx, `
		SELECT body FROM sms_templates
		WHERE (doctor_name = $1 OR doctor_name = '*')
		  AND (appointment_type = $2 OR appointment_type = '*')
		ORDER BY (doctor_name = $1) DESC, (appointment_type = $2) DESC
		LIMIT 1`, doctorName, appointmentType)

	var body string
	if err := row.Scan(&body); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", fmt.Errorf("%w: doctor %q type %q", ErrNotFound, doctorName, appointmentType)
		}
		return "", fmt.Errorf("templates: lookup: %w", err)
	}
	return body, nil
}
