package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/brightcare/clinic-platform/internal/reminders"
	"github.com/brightcare/clinic-platform/internal/runlock"
	"github.com/brightcare/clinic-platform/pkg/logging"
)

// RunNotifier is told about fatal run failures so operators hear about a
// morning with no reminders before patients do.
type RunNotifier interface {
	NotifyRunFailure(ctx context.Context, runErr error)
}

// RunExecutor is the part of the reminder runner the handler needs.
type RunExecutor interface {
	Run(ctx context.Context) (*reminders.Summary, error)
}

// RemindersHandler triggers reminder generation runs.
type RemindersHandler struct {
	runner   RunExecutor
	notifier RunNotifier
	logger   *logging.Logger
}

func NewRemindersHandler(runner RunExecutor, notifier RunNotifier, logger *logging.Logger) *RemindersHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &RemindersHandler{runner: runner, notifier: notifier, logger: logger}
}

type runResponse struct {
	Success         bool                     `json:"success"`
	Processed       int                      `json:"processed"`
	DraftsCreated   int                      `json:"draftsCreated"`
	Skipped         int                      `json:"skipped"`
	Failed          int                      `json:"failed"`
	SkippedByReason map[reminders.Reason]int `json:"skippedByReason,omitempty"`
	Errors          []reminders.ItemError    `json:"errors,omitempty"`
	Duration        string                   `json:"duration"`
	Error           string                   `json:"error,omitempty"`
}

// Run executes one reminder generation run synchronously.
// GET /internal/reminders/run
//
// Per-item failures still return 200 with the counts; only a run that could
// not produce a summary at all returns 500. A concurrent run returns 409.
func (h *RemindersHandler) Run(w http.ResponseWriter, r *http.Request) {
	summary, err := h.runner.Run(r.Context())
	if err != nil {
		if errors.Is(err, runlock.ErrHeld) {
			jsonError(w, "a reminder run is already in progress", http.StatusConflict)
			return
		}
		h.logger.Error("reminder run failed", "error", err)
		if h.notifier != nil {
			h.notifier.NotifyRunFailure(r.Context(), err)
		}
		writeJSON(w, http.StatusInternalServerError, runResponse{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, runResponse{
		Success:         true,
		Processed:       summary.Processed,
		DraftsCreated:   summary.DraftsCreated,
		Skipped:         summary.Skipped,
		Failed:          summary.Failed,
		SkippedByReason: summary.SkippedByReason,
		Errors:          summary.Errors,
		Duration:        summary.Duration.String(),
	})
}
