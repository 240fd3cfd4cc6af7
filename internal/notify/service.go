package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/brightcare/clinic-platform/pkg/logging"
)

// Service emails operators when a reminder run fails outright. A failed run
// means tomorrow's patients get no reminders unless someone intervenes, so
// the alert goes out immediately.
type Service struct {
	sender     EmailSender
	recipients []string
	env        string
	logger     *logging.Logger
	now        func() time.Time
}

// NewService creates an alert service. With no sender or no recipients the
// service stays usable and every notify becomes a log line.
func NewService(sender EmailSender, recipients []string, env string, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		sender:     sender,
		recipients: recipients,
		env:        env,
		logger:     logger,
		now:        time.Now,
	}
}

// NotifyRunFailure emails every configured recipient about a fatal run
// failure. Send errors are logged per recipient, never returned; alerting
// must not add failure modes to the run path.
func (s *Service) NotifyRunFailure(ctx context.Context, runErr error) {
	if s.sender == nil || len(s.recipients) == 0 {
		s.logger.Warn("run failure alert not delivered, email not configured", "error", runErr)
		return
	}

	subject := fmt.Sprintf("[%s] Reminder run failed", s.env)
	body := fmt.Sprintf(
		"The appointment reminder run at %s failed before producing any drafts.\n\nError: %v\n\nNo reminders will be generated until the next successful run.",
		s.now().Format(time.RFC1123), runErr,
	)

	for _, to := range s.recipients {
		err := s.sender.Send(ctx, EmailMessage{To: to, Subject: subject, Body: body})
		if err != nil {
			s.logger.Error("run failure alert failed", "error", err, "to", to)
		}
	}
}
