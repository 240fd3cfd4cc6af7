// Package shortlinks issues and resolves expiring tracking links embedded in
// reminder messages.
package shortlinks

import (
	"time"

	"github.com/google/uuid"
)

// Link is a time-limited redirect token bound to one appointment occurrence.
// Links are immutable once created; only the click counter advances.
type Link struct {
	ID                  uuid.UUID  `json:"id"`
	ShortCode           string     `json:"short_code"`
	DestinationURL      string     `json:"destination_url"`
	AppointmentID       uuid.UUID  `json:"appointment_id"`
	PatientID           *uuid.UUID `json:"patient_id,omitempty"`
	AppointmentTypeSlug string     `json:"appointment_type_slug"`
	ExpiresAt           time.Time  `json:"expires_at"`
	ClickCount          int64      `json:"click_count"`
	CreatedAt           time.Time  `json:"created_at"`
}
