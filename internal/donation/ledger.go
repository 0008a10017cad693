package donation

import (
	"context"

	"github.com/frahmantamala/campaign-portal/internal"
	datamodel "github.com/frahmantamala/campaign-portal/internal/core/datamodel/donation"
)

type Attempt = datamodel.Attempt

var ErrAttemptNotFound = internal.NewNotFoundError("Donation attempt not found", "ATTEMPT_NOT_FOUND")

// Ledger keeps one row per payment session handed to a donor.
type Ledger interface {
	Record(ctx context.Context, a *Attempt) error
	UpdateStatus(ctx context.Context, intentID, status string) error
	Get(ctx context.Context, intentID string) (*Attempt, error)
}

// WebhookEvent is a verified notification from the payment processor.
// Type is one of the payment event types, or empty for events we ignore.
type WebhookEvent struct {
	Type     string
	IntentID string
	Slug     string
	Amount   int64
	Currency string
	Status   string
}

// WebhookVerifier checks the processor's signature and decodes the event.
type WebhookVerifier interface {
	Verify(payload []byte, signature string) (*WebhookEvent, error)
}
