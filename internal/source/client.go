package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/brightcare/clinic-platform/pkg/logging"
)

const defaultTimeout = 15 * time.Second

// Client wraps the read-only REST surface of the clinic-management system.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *logging.Logger
}

// NewClient constructs a source-system client.
func NewClient(baseURL string, timeout time.Duration, logger *logging.Logger) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		logger:     logger,
	}
}

// AppointmentsByDate fetches the full appointment list for one calendar day.
func (c *Client) AppointmentsByDate(ctx context.Context, date time.Time) ([]Appointment, error) {
	q := url.Values{}
	q.Set("date", date.Format("2006-01-02"))
	path := "/appointments/by-date?" + q.Encode()

	var wrapped struct {
		Appointments []Appointment `json:"appointments"`
	}
	if err := c.doJSON(ctx, path, &wrapped); err != nil {
		return nil, fmt.Errorf("get appointments: %w", err)
	}
	return wrapped.Appointments, nil
}

// FreeSlots fetches unfilled slots for one day. The result is informational
// only; callers must tolerate failure.
func (c *Client) FreeSlots(ctx context.Context, date time.Time, durationMins int) ([]Slot, error) {
	if durationMins <= 0 {
		durationMins = 30
	}
	q := url.Values{}
	q.Set("date", date.Format("2006-01-02"))
	q.Set("duration", strconv.Itoa(durationMins))
	path := "/slots/free?" + q.Encode()

	var slots []Slot
	if err := c.doJSON(ctx, path, &slots); err != nil {
		return nil, fmt.Errorf("get free slots: %w", err)
	}
	return slots, nil
}

func (c *Client) doJSON(ctx context.Context, path string, out interface{}) error {
	endpoint := c.baseURL + path

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Error("source API returned error status",
			"path", path,
			"status", resp.StatusCode,
		)
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
