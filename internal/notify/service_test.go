package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	sent    []EmailMessage
	sendErr error
}

func (r *recordingSender) Send(_ context.Context, msg EmailMessage) error {
	if r.sendErr != nil {
		return r.sendErr
	}
	r.sent = append(r.sent, msg)
	return nil
}

func TestNotifyRunFailure(t *testing.T) {
	sender := &recordingSender{}
	svc := NewService(sender, []string{"ops@clinic.example", "admin@clinic.example"}, "production", nil)

	svc.NotifyRunFailure(context.Background(), errors.New("fetch appointments: status 503"))

	require.Len(t, sender.sent, 2)
	assert.Equal(t, "ops@clinic.example", sender.sent[0].To)
	assert.Contains(t, sender.sent[0].Subject, "production")
	assert.Contains(t, sender.sent[0].Body, "status 503")
}

func TestNotifyRunFailureWithoutSender(t *testing.T) {
	svc := NewService(nil, nil, "dev", nil)
	// Must not panic.
	svc.NotifyRunFailure(context.Background(), errors.New("boom"))
}

func TestNotifyRunFailureSendErrorSwallowed(t *testing.T) {
	sender := &recordingSender{sendErr: errors.New("sendgrid down")}
	svc := NewService(sender, []string{"ops@clinic.example"}, "production", nil)
	svc.NotifyRunFailure(context.Background(), errors.New("boom"))
	assert.Empty(t, sender.sent)
}
