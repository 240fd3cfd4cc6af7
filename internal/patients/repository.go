// Package patients resolves owned patient records from source-system
// identifiers. The reminder pipeline only reads this table.
package patients

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB abstracts the pgx query interface for testing.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository reads patient rows.
type Repository struct {
	db DB
}

// NewRepository creates a patient repository.
func NewRepository(db DB) *Repository {
	return &Repository{db: db}
}

// ResolveBySourceID returns the owned patient UUID for a source-system
// patient id. An unknown id is not an error; the caller keeps a nil FK.
func (r *Repository) ResolveBySourceID(ctx context.Context, sourceID string) (*uuid.UUID, error) {
	if sourceID == "" {
		return nil, nil
	}
	row := r.db.QueryRow(ctx, `
		SELECT id FROM patients WHERE source_patient_id = $1`, sourceID)

	var id uuid.UUID
	if err := row.Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("patients: resolve by source id: %w", err)
	}
	return &id, nil
}
