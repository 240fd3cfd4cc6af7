package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/brightcare/clinic-platform/internal/reminders"
	"github.com/brightcare/clinic-platform/pkg/logging"
)

const maxDraftPageSize = 500

// AdminDraftsHandler exposes reminder drafts to the admin UI.
type AdminDraftsHandler struct {
	store  *reminders.Store
	logger *logging.Logger
}

func NewAdminDraftsHandler(store *reminders.Store, logger *logging.Logger) *AdminDraftsHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &AdminDraftsHandler{store: store, logger: logger}
}

// List returns reminder drafts, optionally filtered by status.
// GET /admin/reminders?status=draft
func (h *AdminDraftsHandler) List(w http.ResponseWriter, r *http.Request) {
	var status *reminders.DraftStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		s := reminders.DraftStatus(raw)
		switch s {
		case reminders.StatusDraft, reminders.StatusSent, reminders.StatusCancelled, reminders.StatusFailed:
			status = &s
		default:
			jsonError(w, "unknown status "+raw, http.StatusBadRequest)
			return
		}
	}

	drafts, err := h.store.ListDrafts(r.Context(), status, maxDraftPageSize)
	if err != nil {
		h.logger.Error("list drafts failed", "error", err)
		jsonError(w, "failed to list drafts", http.StatusInternalServerError)
		return
	}
	if drafts == nil {
		drafts = []reminders.Draft{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"drafts": drafts,
		"count":  len(drafts),
	})
}

type updateDraftStatusRequest struct {
	Status reminders.DraftStatus `json:"status"`
}

// UpdateStatus moves a pending draft to sent, cancelled or failed.
// POST /admin/reminders/{draftID}/status
func (h *AdminDraftsHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	draftID, err := uuid.Parse(chi.URLParam(r, "draftID"))
	if err != nil {
		jsonError(w, "invalid draft id", http.StatusBadRequest)
		return
	}

	var req updateDraftStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	err = h.store.UpdateDraftStatus(r.Context(), draftID, req.Status)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]any{
			"id":     draftID,
			"status": req.Status,
		})
	case errors.Is(err, reminders.ErrInvalidTransition):
		jsonError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, reminders.ErrDraftNotPending):
		jsonError(w, "draft not found or no longer pending", http.StatusConflict)
	default:
		h.logger.Error("update draft status failed", "error", err, "draft_id", draftID)
		jsonError(w, "failed to update draft", http.StatusInternalServerError)
	}
}
