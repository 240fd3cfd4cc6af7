package reminders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/brightcare/clinic-platform/internal/names"
	"github.com/brightcare/clinic-platform/internal/source"
)

// Reason enumerates why an appointment was excluded. Reasons are fixed
// identifiers so per-run counts can be aggregated.
type Reason string

const (
	ReasonNonWorkingHour       Reason = "non_working_hour"
	ReasonOutsideBusinessHours Reason = "outside_business_hours"
	ReasonMissingPhone         Reason = "missing_phone"
	ReasonDoctorNotInList      Reason = "doctor_not_in_list"
	ReasonAlreadySent          Reason = "already_sent"
)

// Decision is the outcome of evaluating one appointment.
type Decision struct {
	Include bool
	Reason  Reason
}

var include = Decision{Include: true}

func excluded(r Reason) Decision { return Decision{Reason: r} }

// SentChecker looks up whether a sent draft already exists for an
// appointment occurrence.
type SentChecker interface {
	HasSentDraft(ctx context.Context, sourceAppointmentID string, appointmentDate time.Time) (bool, error)
}

// FilterPipeline decides whether an appointment gets a reminder draft.
// Stages run in a fixed order and short-circuit on the first exclusion. The
// allowlist is injected at construction so tests and deployments can swap it
// freely.
type FilterPipeline struct {
	allowlist []string
	hourStart int
	hourEnd   int
	sent      SentChecker
}

// NewFilterPipeline creates a pipeline. Zero hour bounds fall back to the
// clinic's [8, 20) business window.
func NewFilterPipeline(allowlist []string, hourStart, hourEnd int, sent SentChecker) *FilterPipeline {
	if hourStart <= 0 && hourEnd <= 0 {
		hourStart, hourEnd = 8, 20
	}
	return &FilterPipeline{
		allowlist: allowlist,
		hourStart: hourStart,
		hourEnd:   hourEnd,
		sent:      sent,
	}
}

// Evaluate applies the filter stages to one appointment:
//
//  1. Working-hour flag — the calendar color-coding is the authoritative
//     signal that a slot is real patient time.
//  2. Business-hours window over the naive wall-clock hour, because the
//     source emits informational entries at odd hours that still carry the
//     working-hour flag.
//  3. Phone presence.
//  4. Doctor allowlist via fuzzy name matching.
//  5. Already-notified guard against prior sent drafts.
//
// A sent-lookup failure is returned as an error and is a per-item failure
// for the caller, not an exclusion.
func (p *FilterPipeline) Evaluate(ctx context.Context, appt source.Appointment) (Decision, error) {
	if !appt.IsWorkingHour {
		return excluded(ReasonNonWorkingHour), nil
	}

	// The printed hour is the clinic-local hour; no timezone conversion.
	hour := appt.Date.Hour()
	if hour < p.hourStart || hour >= p.hourEnd {
		return excluded(ReasonOutsideBusinessHours), nil
	}

	if strings.TrimSpace(appt.PatientPhone) == "" {
		return excluded(ReasonMissingPhone), nil
	}

	if !names.Matches(appt.Doctor.Name, p.allowlist) {
		return excluded(ReasonDoctorNotInList), nil
	}

	alreadySent, err := p.sent.HasSentDraft(ctx, appt.ID, appt.Date.Time)
	if err != nil {
		return Decision{}, fmt.Errorf("reminders: sent-draft lookup: %w", err)
	}
	if alreadySent {
		return excluded(ReasonAlreadySent), nil
	}

	return include, nil
}
