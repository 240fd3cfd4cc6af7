package shortlinks

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/brightcare/clinic-platform/pkg/logging"
)

const (
	codeAlphabet      = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	defaultCodeLength = 8
	defaultTTL        = 72 * time.Hour
	maxIssueAttempts  = 3
)

// IssueInput contains the information needed to create a tracking link.
type IssueInput struct {
	DestinationURL      string
	AppointmentID       uuid.UUID
	PatientID           *uuid.UUID
	AppointmentTypeSlug string
	AppointmentDate     time.Time
}

// Issuer creates short tracking links bound to appointment occurrences.
type Issuer struct {
	store      *Store
	codeLength int
	ttl        time.Duration
	logger     *logging.Logger
}

// NewIssuer creates a link issuer. Zero codeLength and ttl fall back to the
// defaults (8 characters, appointment date + 3 days).
func NewIssuer(store *Store, codeLength int, ttl time.Duration, logger *logging.Logger) *Issuer {
	if codeLength <= 0 {
		codeLength = defaultCodeLength
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Issuer{store: store, codeLength: codeLength, ttl: ttl, logger: logger}
}

// Issue generates a unique short code and persists the mapping. The link
// expires a fixed interval after the appointment date, not after issuance.
func (i *Issuer) Issue(ctx context.Context, in IssueInput) (*Link, error) {
	if in.DestinationURL == "" {
		return nil, fmt.Errorf("shortlinks: destination URL required")
	}
	if in.AppointmentID == uuid.Nil {
		return nil, fmt.Errorf("shortlinks: appointment id required")
	}

	var lastErr error
	for attempt := 0; attempt < maxIssueAttempts; attempt++ {
		code, err := randomCode(i.codeLength)
		if err != nil {
			return nil, fmt.Errorf("shortlinks: generate code: %w", err)
		}
		link := &Link{
			ShortCode:           code,
			DestinationURL:      in.DestinationURL,
			AppointmentID:       in.AppointmentID,
			PatientID:           in.PatientID,
			AppointmentTypeSlug: in.AppointmentTypeSlug,
			ExpiresAt:           in.AppointmentDate.Add(i.ttl),
		}
		if err := i.store.Insert(ctx, link); err != nil {
			if errors.Is(err, ErrCodeTaken) {
				lastErr = err
				continue
			}
			return nil, err
		}
		return link, nil
	}
	return nil, fmt.Errorf("shortlinks: issue: exhausted %d attempts: %w", maxIssueAttempts, lastErr)
}

// ShortURL renders the public URL for a short code.
func ShortURL(publicBaseURL, code string) string {
	return strings.TrimRight(publicBaseURL, "/") + "/r/" + code
}

func randomCode(length int) (string, error) {
	// Bytes at or above the largest multiple of the alphabet size are
	// redrawn, otherwise the modulo would favor the alphabet's first
	// characters.
	const limit = 256 - 256%len(codeAlphabet)
	out := make([]byte, 0, length)
	buf := make([]byte, length)
	for len(out) < length {
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		for _, v := range buf {
			if int(v) >= limit {
				continue
			}
			out = append(out, codeAlphabet[int(v)%len(codeAlphabet)])
			if len(out) == length {
				break
			}
		}
	}
	return string(out), nil
}
