// Package reminders generates the daily set of pending SMS reminder drafts
// from the clinic-management system's appointment list.
package reminders

import (
	"time"

	"github.com/google/uuid"
)

// DraftStatus tracks the lifecycle of a reminder draft. Only the downstream
// human-review stage moves a draft past "draft".
type DraftStatus string

const (
	StatusDraft     DraftStatus = "draft"
	StatusSent      DraftStatus = "sent"
	StatusCancelled DraftStatus = "cancelled"
	StatusFailed    DraftStatus = "failed"
)

// Draft is a generated-but-unsent SMS reminder awaiting human review.
// Non-sent drafts are disposable derived state: every run purges and
// recreates them so template or schedule changes propagate.
type Draft struct {
	ID                  uuid.UUID   `json:"id"`
	PatientID           *uuid.UUID  `json:"patient_id,omitempty"`
	SourceAppointmentID string      `json:"source_appointment_id"`
	PatientName         string      `json:"patient_name"`
	Phone               string      `json:"phone"`
	AppointmentDate     time.Time   `json:"appointment_date"`
	DoctorName          string      `json:"doctor_name"`
	AppointmentType     string      `json:"appointment_type"`
	Message             string      `json:"message"`
	Status              DraftStatus `json:"status"`
	CreatedAt           time.Time   `json:"created_at"`
	UpdatedAt           time.Time   `json:"updated_at"`
}

// ActionStatusPending is the initial status of an appointment action.
const ActionStatusPending = "pending"

// Action is a durable record of one appointment occurrence, independent of
// the reminder lifecycle. Actions accumulate across runs and are upserted on
// the natural key (source_appointment_id, appointment_date), never purged.
type Action struct {
	ID                  uuid.UUID  `json:"id"`
	PatientID           *uuid.UUID `json:"patient_id,omitempty"`
	SourceAppointmentID string     `json:"source_appointment_id"`
	AppointmentDate     time.Time  `json:"appointment_date"`
	AppointmentEndDate  time.Time  `json:"appointment_end_date"`
	PatientName         string     `json:"patient_name"`
	PatientPhone        string     `json:"patient_phone"`
	DoctorName          string     `json:"doctor_name"`
	AppointmentType     string     `json:"appointment_type"`
	Status              string     `json:"status"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}
