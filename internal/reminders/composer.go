package reminders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/brightcare/clinic-platform/internal/names"
	"github.com/brightcare/clinic-platform/internal/source"
	"github.com/brightcare/clinic-platform/internal/templates"
)

// TemplateProvider supplies admin-editable template text keyed by doctor and
// appointment type.
type TemplateProvider interface {
	Lookup(ctx context.Context, doctorName, appointmentType string) (string, error)
}

// Composer builds the localized reminder message for one appointment.
type Composer struct {
	provider TemplateProvider
	renderer templates.Renderer
}

// NewComposer creates a message composer.
func NewComposer(provider TemplateProvider) *Composer {
	return &Composer{provider: provider}
}

type messageData struct {
	FirstName string
	Doctor    string
	Type      string
	Date      string
	Time      string
}

// Compose looks up the template for the appointment's doctor and type and
// substitutes the patient's first name, the localized long-form date, the
// zero-padded 24-hour time and the type label. A lookup or render failure
// fails only this appointment; there is no retry.
func (c *Composer) Compose(ctx context.Context, appt source.Appointment) (string, error) {
	body, err := c.provider.Lookup(ctx, appt.Doctor.Name, appt.AppointmentType.Name)
	if err != nil {
		return "", fmt.Errorf("reminders: template for %q/%q: %w", appt.Doctor.Name, appt.AppointmentType.Name, err)
	}

	data := messageData{
		FirstName: FirstName(appt.PatientName),
		Doctor:    names.Display(appt.Doctor.Name),
		Type:      appt.AppointmentType.Name,
		Date:      longDate(appt.Date.Time),
		Time:      appt.Date.Format("15:04"),
	}
	msg, err := c.renderer.Render("reminder", body, data)
	if err != nil {
		return "", fmt.Errorf("reminders: render message: %w", err)
	}
	return msg, nil
}

// FirstName returns the token before the first space of a full name, or the
// whole name when it has a single token.
func FirstName(full string) string {
	full = strings.TrimSpace(full)
	if i := strings.IndexByte(full, ' '); i > 0 {
		return full[:i]
	}
	return full
}

// Polish month names in the genitive case used for dates.
var plMonths = [...]string{
	"stycznia", "lutego", "marca", "kwietnia", "maja", "czerwca",
	"lipca", "sierpnia", "września", "października", "listopada", "grudnia",
}

func longDate(t time.Time) string {
	return fmt.Sprintf("%d %s %d", t.Day(), plMonths[t.Month()-1], t.Year())
}
