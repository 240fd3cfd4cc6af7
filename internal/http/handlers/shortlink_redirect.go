package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/brightcare/clinic-platform/internal/shortlinks"
	"github.com/brightcare/clinic-platform/pkg/logging"
)

// RedirectHandler resolves short tracking codes to their destination.
type RedirectHandler struct {
	store  *shortlinks.Store
	logger *logging.Logger
	now    func() time.Time
}

func NewRedirectHandler(store *shortlinks.Store, logger *logging.Logger) *RedirectHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &RedirectHandler{store: store, logger: logger, now: time.Now}
}

// Resolve redirects an active short code to its destination URL.
// GET /r/{code}
//
// Unknown and expired codes both answer 404. The click is counted after the
// lookup; a failed count never blocks the redirect.
func (h *RedirectHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if code == "" {
		http.NotFound(w, r)
		return
	}

	link, err := h.store.FindActive(r.Context(), code, h.now())
	if err != nil {
		h.logger.Error("short link lookup failed", "error", err, "code", code)
		jsonError(w, "lookup failed", http.StatusInternalServerError)
		return
	}
	if link == nil {
		http.NotFound(w, r)
		return
	}

	if err := h.store.RecordClick(context.WithoutCancel(r.Context()), link.ID); err != nil {
		h.logger.Warn("short link click not recorded", "error", err, "code", code)
	}

	http.Redirect(w, r, link.DestinationURL, http.StatusFound)
}
