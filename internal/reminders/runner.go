package reminders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/brightcare/clinic-platform/internal/observability/metrics"
	"github.com/brightcare/clinic-platform/internal/shortlinks"
	"github.com/brightcare/clinic-platform/internal/source"
	"github.com/brightcare/clinic-platform/pkg/logging"
)

// SourceClient fetches appointment data from the clinic-management system.
type SourceClient interface {
	AppointmentsByDate(ctx context.Context, date time.Time) ([]source.Appointment, error)
	FreeSlots(ctx context.Context, date time.Time, durationMins int) ([]source.Slot, error)
}

// DraftStore is the persistence surface the runner mutates.
type DraftStore interface {
	PurgeNonTerminal(ctx context.Context) (int64, error)
	InsertDraft(ctx context.Context, d *Draft) error
	UpsertAction(ctx context.Context, a *Action) error
	AppendLinkToMessage(ctx context.Context, draftID uuid.UUID, shortURL string) error
}

// MessageComposer builds the reminder message for one appointment.
type MessageComposer interface {
	Compose(ctx context.Context, appt source.Appointment) (string, error)
}

// LinkIssuer creates tracking links. Issuance failure degrades the draft
// (no trailing link) instead of failing the appointment.
type LinkIssuer interface {
	Issue(ctx context.Context, in shortlinks.IssueInput) (*shortlinks.Link, error)
}

// PatientResolver maps source-system patient ids to owned patient rows.
type PatientResolver interface {
	ResolveBySourceID(ctx context.Context, sourceID string) (*uuid.UUID, error)
}

// RunLock serializes runs; Acquire returns ErrHeld-style errors when a run
// is already in progress.
type RunLock interface {
	Acquire(ctx context.Context) (func(), error)
}

// ItemError records one appointment the run could not fully process.
type ItemError struct {
	AppointmentID string `json:"appointmentId"`
	PatientName   string `json:"patientName,omitempty"`
	Message       string `json:"message"`
}

// Summary aggregates one run's results.
type Summary struct {
	Processed       int            `json:"processed"`
	DraftsCreated   int            `json:"draftsCreated"`
	Skipped         int            `json:"skipped"`
	Failed          int            `json:"failed"`
	SkippedByReason map[Reason]int `json:"skippedByReason,omitempty"`
	Errors          []ItemError    `json:"errors,omitempty"`
	Duration        time.Duration  `json:"-"`
}

// RunnerConfig wires a Runner.
type RunnerConfig struct {
	Source   SourceClient
	Filter   *FilterPipeline
	Composer MessageComposer
	Store    DraftStore
	Patients PatientResolver          // optional
	Links    LinkIssuer               // optional; drafts stay linkless without it
	Lock     RunLock                  // optional
	Metrics  *metrics.ReminderMetrics // optional
	Logger   *logging.Logger

	// PublicBaseURL hosts the short-link redirect; DestinationBaseURL is
	// where resolved links land (the clinic site's visit page).
	PublicBaseURL      string
	DestinationBaseURL string

	AppointmentDuration time.Duration
	Now                 func() time.Time
}

// Runner orchestrates one reminder generation run: fetch, purge, then a
// strictly sequential pass over the appointment list with per-item failure
// isolation.
type Runner struct {
	source   SourceClient
	filter   *FilterPipeline
	composer MessageComposer
	store    DraftStore
	patients PatientResolver
	links    LinkIssuer
	lock     RunLock
	metrics  *metrics.ReminderMetrics
	logger   *logging.Logger

	publicBaseURL      string
	destinationBaseURL string
	apptDuration       time.Duration
	now                func() time.Time
}

// NewRunner creates a runner.
func NewRunner(cfg RunnerConfig) *Runner {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	apptDuration := cfg.AppointmentDuration
	if apptDuration <= 0 {
		apptDuration = 30 * time.Minute
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Runner{
		source:             cfg.Source,
		filter:             cfg.Filter,
		composer:           cfg.Composer,
		store:              cfg.Store,
		patients:           cfg.Patients,
		links:              cfg.Links,
		lock:               cfg.Lock,
		metrics:            cfg.Metrics,
		logger:             logger,
		publicBaseURL:      cfg.PublicBaseURL,
		destinationBaseURL: cfg.DestinationBaseURL,
		apptDuration:       apptDuration,
		now:                now,
	}
}

// Run executes one reminder generation pass for tomorrow's appointments.
// The only fatal failure is the appointment-list fetch; it aborts before
// anything is purged. Every other failure is isolated to its appointment.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	start := r.now()
	targetDate := start.AddDate(0, 0, 1)

	if r.lock != nil {
		release, err := r.lock.Acquire(ctx)
		if err != nil {
			return nil, fmt.Errorf("reminders: run lock: %w", err)
		}
		defer release()
	}

	appts, err := r.source.AppointmentsByDate(ctx, targetDate)
	if err != nil {
		r.metrics.ObserveRun("fatal", r.now().Sub(start).Seconds())
		return nil, fmt.Errorf("reminders: fetch appointments: %w", err)
	}
	r.logger.Info("reminders: fetched appointment list",
		"date", targetDate.Format(time.DateOnly),
		"count", len(appts),
	)

	// The slot hint is fetched for the same date as the appointment list, so
	// the log shows who is in on the day these reminders are about.
	r.logWorkingDoctors(ctx, targetDate)

	purged, err := r.store.PurgeNonTerminal(ctx)
	if err != nil {
		r.metrics.ObserveRun("fatal", r.now().Sub(start).Seconds())
		return nil, fmt.Errorf("reminders: purge stale drafts: %w", err)
	}
	r.logger.Info("reminders: purged non-terminal drafts", "count", purged)

	summary := &Summary{SkippedByReason: map[Reason]int{}}
	for i := range appts {
		r.processOne(ctx, appts[i], summary)
	}

	summary.Duration = r.now().Sub(start)
	r.metrics.ObserveRun("success", summary.Duration.Seconds())
	r.metrics.AddDrafts(summary.DraftsCreated)

	r.logger.Info("reminders: run complete",
		"processed", summary.Processed,
		"drafts_created", summary.DraftsCreated,
		"skipped", summary.Skipped,
		"failed", summary.Failed,
		"duration_ms", summary.Duration.Milliseconds(),
	)
	return summary, nil
}

// processOne handles a single appointment inside its own failure boundary.
// It mutates the summary and never propagates an error to the run.
func (r *Runner) processOne(ctx context.Context, appt source.Appointment, summary *Summary) {
	summary.Processed++

	decision, err := r.filter.Evaluate(ctx, appt)
	if err != nil {
		r.recordFailure(summary, appt, err)
		return
	}
	if !decision.Include {
		summary.Skipped++
		summary.SkippedByReason[decision.Reason]++
		r.metrics.ObserveSkipped(string(decision.Reason))
		if decision.Reason == ReasonMissingPhone {
			// Still a skip, but surfaced in the error list so the clinic
			// learns which patient records need a phone number.
			summary.Errors = append(summary.Errors, ItemError{
				AppointmentID: appt.ID,
				PatientName:   appt.PatientName,
				Message:       "patient has no phone number on file",
			})
			r.logger.Warn("reminders: appointment has no phone",
				"appointment_id", appt.ID, "patient", appt.PatientName)
		} else {
			r.logger.Debug("reminders: appointment excluded",
				"appointment_id", appt.ID, "reason", string(decision.Reason))
		}
		return
	}

	msg, err := r.composer.Compose(ctx, appt)
	if err != nil {
		r.recordFailure(summary, appt, err)
		return
	}

	var patientID *uuid.UUID
	if r.patients != nil {
		patientID, err = r.patients.ResolveBySourceID(ctx, appt.PatientID)
		if err != nil {
			// Nullable FK; losing the local linkage is not worth failing
			// the reminder.
			r.logger.Warn("reminders: patient lookup failed",
				"appointment_id", appt.ID, "error", err)
			patientID = nil
		}
	}

	draft := &Draft{
		PatientID:           patientID,
		SourceAppointmentID: appt.ID,
		PatientName:         appt.PatientName,
		Phone:               strings.TrimSpace(appt.PatientPhone),
		AppointmentDate:     appt.Date.Time,
		DoctorName:          appt.Doctor.Name,
		AppointmentType:     appt.AppointmentType.Name,
		Message:             msg,
		Status:              StatusDraft,
	}
	if err := r.store.InsertDraft(ctx, draft); err != nil {
		r.recordFailure(summary, appt, err)
		return
	}
	summary.DraftsCreated++

	action := &Action{
		PatientID:           patientID,
		SourceAppointmentID: appt.ID,
		AppointmentDate:     appt.Date.Time,
		AppointmentEndDate:  appt.Date.Add(r.apptDuration),
		PatientName:         appt.PatientName,
		PatientPhone:        draft.Phone,
		DoctorName:          appt.Doctor.Name,
		AppointmentType:     appt.AppointmentType.Name,
		Status:              ActionStatusPending,
	}
	if err := r.store.UpsertAction(ctx, action); err != nil {
		// The draft stays; without an action there is nothing to bind a
		// link to, so this appointment is done.
		r.recordFailure(summary, appt, err)
		return
	}

	if r.links == nil {
		return
	}
	slug := shortlinks.Slugify(appt.AppointmentType.Name)
	link, err := r.links.Issue(ctx, shortlinks.IssueInput{
		DestinationURL:      r.destinationURL(slug),
		AppointmentID:       action.ID,
		PatientID:           patientID,
		AppointmentTypeSlug: slug,
		AppointmentDate:     appt.Date.Time,
	})
	if err != nil {
		// Degraded, not failed: the draft goes to review without a link.
		// Surfaced in the error list so the gap is visible, but the draft
		// still counts as created.
		r.recordDegraded(summary, appt, fmt.Errorf("link issuance failed, draft kept without link: %w", err))
		return
	}
	shortURL := shortlinks.ShortURL(r.publicBaseURL, link.ShortCode)
	if err := r.store.AppendLinkToMessage(ctx, draft.ID, shortURL); err != nil {
		r.recordDegraded(summary, appt, fmt.Errorf("could not append link to draft: %w", err))
	}
}

// recordDegraded surfaces a non-fatal problem in the error list without
// counting the appointment as failed.
func (r *Runner) recordDegraded(summary *Summary, appt source.Appointment, err error) {
	summary.Errors = append(summary.Errors, ItemError{
		AppointmentID: appt.ID,
		PatientName:   appt.PatientName,
		Message:       err.Error(),
	})
	r.logger.Error("reminders: degraded appointment",
		"appointment_id", appt.ID, "error", err)
}

func (r *Runner) recordFailure(summary *Summary, appt source.Appointment, err error) {
	summary.Failed++
	summary.Errors = append(summary.Errors, ItemError{
		AppointmentID: appt.ID,
		PatientName:   appt.PatientName,
		Message:       err.Error(),
	})
	r.metrics.ObserveItemFailure()
	r.logger.Error("reminders: appointment failed",
		"appointment_id", appt.ID, "patient", appt.PatientName, "error", err)
}

// logWorkingDoctors fetches the free-slot hint set. Informational only: it
// logs which doctors appear to be in today, and its failure never affects
// filtering or counts.
func (r *Runner) logWorkingDoctors(ctx context.Context, date time.Time) {
	slots, err := r.source.FreeSlots(ctx, date, int(r.apptDuration.Minutes()))
	if err != nil {
		r.logger.Warn("reminders: free-slot enrichment unavailable", "error", err)
		return
	}
	doctors := map[string]struct{}{}
	for _, s := range slots {
		if s.DoctorName != "" {
			doctors[s.DoctorName] = struct{}{}
		}
	}
	r.logger.Info("reminders: doctors with open slots",
		"date", date.Format(time.DateOnly),
		"doctor_count", len(doctors),
	)
}

func (r *Runner) destinationURL(slug string) string {
	base := strings.TrimRight(r.destinationBaseURL, "/")
	if slug == "" {
		return base
	}
	return base + "/wizyta/" + slug
}
