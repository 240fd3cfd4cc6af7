package reminders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightcare/clinic-platform/internal/shortlinks"
	"github.com/brightcare/clinic-platform/internal/source"
)

type fakeSource struct {
	appts     []source.Appointment
	fetchErr  error
	slotsErr  error
	fetchDate time.Time
	slotsDate time.Time
}

func (f *fakeSource) AppointmentsByDate(_ context.Context, date time.Time) ([]source.Appointment, error) {
	f.fetchDate = date
	return f.appts, f.fetchErr
}

func (f *fakeSource) FreeSlots(_ context.Context, date time.Time, _ int) ([]source.Slot, error) {
	f.slotsDate = date
	return nil, f.slotsErr
}

// fakeStore keeps drafts and actions in memory, mimicking the purge,
// insert and upsert semantics of the SQL store.
type fakeStore struct {
	drafts     []*Draft
	actions    map[string]*Action
	purgeCalls int
	insertErr  error
	upsertErr  error
	appendErr  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{actions: map[string]*Action{}}
}

func (f *fakeStore) PurgeNonTerminal(context.Context) (int64, error) {
	f.purgeCalls++
	var kept []*Draft
	var purged int64
	for _, d := range f.drafts {
		if d.Status == StatusSent {
			kept = append(kept, d)
		} else {
			purged++
		}
	}
	f.drafts = kept
	return purged, nil
}

func (f *fakeStore) InsertDraft(_ context.Context, d *Draft) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	d.ID = uuid.New()
	if d.Status == "" {
		d.Status = StatusDraft
	}
	f.drafts = append(f.drafts, d)
	return nil
}

func (f *fakeStore) UpsertAction(_ context.Context, a *Action) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	key := a.SourceAppointmentID + "|" + a.AppointmentDate.Format(time.RFC3339)
	if existing, ok := f.actions[key]; ok {
		a.ID = existing.ID
		a.CreatedAt = existing.CreatedAt
	} else {
		a.ID = uuid.New()
		a.CreatedAt = time.Now().UTC()
	}
	f.actions[key] = a
	return nil
}

func (f *fakeStore) AppendLinkToMessage(_ context.Context, draftID uuid.UUID, shortURL string) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	for _, d := range f.drafts {
		if d.ID == draftID {
			d.Message += "\n" + shortURL
			return nil
		}
	}
	return fmt.Errorf("no draft %s", draftID)
}

func (f *fakeStore) HasSentDraft(_ context.Context, sourceAppointmentID string, appointmentDate time.Time) (bool, error) {
	for _, d := range f.drafts {
		if d.Status == StatusSent &&
			d.SourceAppointmentID == sourceAppointmentID &&
			d.AppointmentDate.Equal(appointmentDate) {
			return true, nil
		}
	}
	return false, nil
}

type fakeIssuer struct {
	err    error
	issued []shortlinks.IssueInput
	n      int
}

func (f *fakeIssuer) Issue(_ context.Context, in shortlinks.IssueInput) (*shortlinks.Link, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.issued = append(f.issued, in)
	f.n++
	return &shortlinks.Link{
		ID:        uuid.New(),
		ShortCode: fmt.Sprintf("code%04d", f.n),
		ExpiresAt: in.AppointmentDate.Add(72 * time.Hour),
	}, nil
}

func validAppointment(id string, hour, minute int) source.Appointment {
	return source.Appointment{
		ID:              id,
		PatientID:       "P-" + id,
		PatientName:     "Jan Kowalski",
		PatientPhone:    "+48600100200",
		Doctor:          source.Doctor{ID: "D1", Name: "Maćków-Huras (I)"},
		AppointmentType: source.AppointmentType{Name: "Konsultacja"},
		Date:            source.NaiveTime{Time: time.Date(2025, 1, 10, hour, minute, 0, 0, time.UTC)},
		IsWorkingHour:   true,
	}
}

func newTestRunner(src SourceClient, store *fakeStore, issuer LinkIssuer) *Runner {
	return NewRunner(RunnerConfig{
		Source:   src,
		Filter:   NewFilterPipeline([]string{"Maćków-Huras"}, 0, 0, store),
		Composer: NewComposer(&stubTemplateProvider{body: "{{.FirstName}}, wizyta ({{.Type}}) u {{.Doctor}} {{.Date}} o {{.Time}}."}),
		Store:    store,
		Links:    issuer,

		PublicBaseURL:      "https://clinic.example",
		DestinationBaseURL: "https://clinic.example",
	})
}

func TestRunEndToEnd(t *testing.T) {
	// Three appointments: one missing a phone, one with an off-list doctor,
	// one fully valid at 09:30.
	noPhone := validAppointment("A1", 10, 0)
	noPhone.PatientPhone = ""
	offList := validAppointment("A2", 11, 0)
	offList.Doctor.Name = "Piotr Wiśniewski"
	valid := validAppointment("A3", 9, 30)

	store := newFakeStore()
	issuer := &fakeIssuer{}
	runner := newTestRunner(&fakeSource{appts: []source.Appointment{noPhone, offList, valid}}, store, issuer)

	summary, err := runner.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Processed)
	assert.Equal(t, 1, summary.DraftsCreated)
	assert.Equal(t, 2, summary.Skipped)
	assert.Equal(t, 0, summary.Failed)
	assert.Equal(t, 1, summary.SkippedByReason[ReasonMissingPhone])
	assert.Equal(t, 1, summary.SkippedByReason[ReasonDoctorNotInList])

	require.Len(t, store.drafts, 1)
	msg := store.drafts[0].Message
	assert.Contains(t, msg, "Jan")
	assert.Contains(t, msg, "Maćków-Huras")
	assert.Contains(t, msg, "https://clinic.example/r/")

	// The missing phone is surfaced in the error list without failing the run.
	require.Len(t, summary.Errors, 1)
	assert.Equal(t, "A1", summary.Errors[0].AppointmentID)

	// One link per created action, bound to the action and expiring after
	// the appointment date.
	require.Len(t, issuer.issued, 1)
	assert.Equal(t, "konsultacja", issuer.issued[0].AppointmentTypeSlug)
	assert.NotEqual(t, uuid.Nil, issuer.issued[0].AppointmentID)
}

func TestRunFatalFetchPurgesNothing(t *testing.T) {
	store := newFakeStore()
	store.drafts = []*Draft{{Status: StatusDraft, SourceAppointmentID: "old"}}
	runner := newTestRunner(&fakeSource{fetchErr: errors.New("503 service unavailable")}, store, nil)

	_, err := runner.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, 0, store.purgeCalls)
	assert.Len(t, store.drafts, 1)
}

func TestRunAlreadySentGuard(t *testing.T) {
	appt := validAppointment("A1", 9, 0)
	store := newFakeStore()
	store.drafts = []*Draft{{
		Status:              StatusSent,
		SourceAppointmentID: "A1",
		AppointmentDate:     appt.Date.Time,
	}}

	runner := newTestRunner(&fakeSource{appts: []source.Appointment{appt}}, store, &fakeIssuer{})
	summary, err := runner.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, summary.DraftsCreated)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 1, summary.SkippedByReason[ReasonAlreadySent])
	// The sent draft is still the only row.
	require.Len(t, store.drafts, 1)
	assert.Equal(t, StatusSent, store.drafts[0].Status)
}

func TestRunContentIdempotent(t *testing.T) {
	appts := []source.Appointment{
		validAppointment("A1", 9, 0),
		validAppointment("A2", 14, 30),
	}
	store := newFakeStore()
	runner := newTestRunner(&fakeSource{appts: appts}, store, &fakeIssuer{})

	_, err := runner.Run(context.Background())
	require.NoError(t, err)
	firstIDs := draftIDs(store.drafts)
	firstTuples := draftTuples(store.drafts)

	summary, err := runner.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, summary.DraftsCreated)

	// Same content tuples, different row identities: full purge-and-recreate.
	assert.Equal(t, firstTuples, draftTuples(store.drafts))
	for _, id := range draftIDs(store.drafts) {
		assert.NotContains(t, firstIDs, id)
	}

	// Actions are upserted, not duplicated.
	assert.Len(t, store.actions, 2)
}

func TestRunTemplateFailureIsolated(t *testing.T) {
	appts := []source.Appointment{
		validAppointment("A1", 9, 0),
		validAppointment("A2", 10, 0),
	}
	store := newFakeStore()
	runner := NewRunner(RunnerConfig{
		Source:             &fakeSource{appts: appts},
		Filter:             NewFilterPipeline([]string{"Maćków-Huras"}, 0, 0, store),
		Composer:           &failingComposer{failID: "A1"},
		Store:              store,
		PublicBaseURL:      "https://clinic.example",
		DestinationBaseURL: "https://clinic.example",
	})

	summary, err := runner.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Processed)
	assert.Equal(t, 1, summary.DraftsCreated)
	assert.Equal(t, 1, summary.Failed)
	require.Len(t, summary.Errors, 1)
	assert.Equal(t, "A1", summary.Errors[0].AppointmentID)
}

func TestRunLinkFailureKeepsDraft(t *testing.T) {
	store := newFakeStore()
	runner := newTestRunner(
		&fakeSource{appts: []source.Appointment{validAppointment("A1", 9, 0)}},
		store,
		&fakeIssuer{err: errors.New("shortener down")},
	)

	summary, err := runner.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.DraftsCreated)
	assert.Equal(t, 0, summary.Failed)
	require.Len(t, store.drafts, 1)
	assert.False(t, strings.Contains(store.drafts[0].Message, "/r/"))
	// Degraded link issuance is visible in the error list.
	require.Len(t, summary.Errors, 1)
}

func TestRunEnrichmentFailureIgnored(t *testing.T) {
	store := newFakeStore()
	src := &fakeSource{
		appts:    []source.Appointment{validAppointment("A1", 9, 0)},
		slotsErr: errors.New("slots endpoint down"),
	}
	runner := newTestRunner(src, store, &fakeIssuer{})

	summary, err := runner.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.DraftsCreated)
	assert.Equal(t, 0, summary.Failed)
	// The slot hint covers the same day as the fetched appointment list.
	assert.Equal(t, src.fetchDate, src.slotsDate)
}

func TestRunLock(t *testing.T) {
	store := newFakeStore()
	lock := &fakeLock{}
	runner := NewRunner(RunnerConfig{
		Source:             &fakeSource{},
		Filter:             NewFilterPipeline(nil, 0, 0, store),
		Composer:           NewComposer(&stubTemplateProvider{body: "x"}),
		Store:              store,
		Lock:               lock,
		PublicBaseURL:      "https://clinic.example",
		DestinationBaseURL: "https://clinic.example",
	})

	_, err := runner.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, lock.released)

	lock.acquireErr = errors.New("run already in progress")
	_, err = runner.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, 0, store.purgeCalls-1) // no second purge
}

type failingComposer struct {
	failID string
}

func (f *failingComposer) Compose(_ context.Context, appt source.Appointment) (string, error) {
	if appt.ID == f.failID {
		return "", errors.New("template lookup failed")
	}
	return "wiadomość", nil
}

type fakeLock struct {
	acquireErr error
	released   bool
}

func (f *fakeLock) Acquire(context.Context) (func(), error) {
	if f.acquireErr != nil {
		return nil, f.acquireErr
	}
	return func() { f.released = true }, nil
}

func draftIDs(drafts []*Draft) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(drafts))
	for _, d := range drafts {
		ids = append(ids, d.ID)
	}
	return ids
}

// draftTuples projects drafts onto the content identity used by the
// idempotency check.
func draftTuples(drafts []*Draft) map[string]struct{} {
	out := map[string]struct{}{}
	for _, d := range drafts {
		out[d.DoctorName+"|"+d.AppointmentType+"|"+d.Phone] = struct{}{}
	}
	return out
}
