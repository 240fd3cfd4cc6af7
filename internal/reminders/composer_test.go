package reminders

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightcare/clinic-platform/internal/source"
)

type stubTemplateProvider struct {
	body string
	err  error
}

func (s *stubTemplateProvider) Lookup(_ context.Context, _, _ string) (string, error) {
	return s.body, s.err
}

func TestCompose(t *testing.T) {
	c := NewComposer(&stubTemplateProvider{
		body: "{{.FirstName}}, przypominamy o wizycie ({{.Type}}) u {{.Doctor}} dnia {{.Date}} o godz. {{.Time}}.",
	})

	appt := source.Appointment{
		PatientName:     "Jan Kowalski",
		Doctor:          source.Doctor{Name: "Maćków-Huras (I)"},
		AppointmentType: source.AppointmentType{Name: "Konsultacja"},
		Date:            source.NaiveTime{Time: time.Date(2025, 1, 10, 9, 5, 0, 0, time.UTC)},
	}
	msg, err := c.Compose(context.Background(), appt)
	require.NoError(t, err)
	assert.Equal(t, "Jan, przypominamy o wizycie (Konsultacja) u Maćków-Huras dnia 10 stycznia 2025 o godz. 09:05.", msg)
}

func TestComposeLookupFailure(t *testing.T) {
	c := NewComposer(&stubTemplateProvider{err: errors.New("template missing")})
	_, err := c.Compose(context.Background(), source.Appointment{})
	assert.Error(t, err)
}

func TestComposeRenderFailure(t *testing.T) {
	c := NewComposer(&stubTemplateProvider{body: "{{.NoSuchField}}"})
	_, err := c.Compose(context.Background(), source.Appointment{
		Date: source.NaiveTime{Time: time.Now()},
	})
	assert.Error(t, err)
}

func TestFirstName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Jan Kowalski", "Jan"},
		{"Jan", "Jan"},
		{"  Anna  Nowak ", "Anna"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FirstName(tt.in), "input %q", tt.in)
	}
}

func TestLongDateMonths(t *testing.T) {
	assert.Equal(t, "1 stycznia 2025", longDate(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "15 września 2025", longDate(time.Date(2025, 9, 15, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "31 grudnia 2024", longDate(time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)))
}
