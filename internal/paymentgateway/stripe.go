package paymentgateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/frahmantamala/campaign-portal/internal/core/events"
	"github.com/frahmantamala/campaign-portal/internal/donation"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const MetadataCampaignSlug = "campaignSlug"

type Config struct {
	SecretKey      string
	PublishableKey string
	WebhookSecret  string
	// APIURL overrides the Stripe API base URL, e.g. for stripe-mock.
	APIURL  string
	Timeout time.Duration
}

// Stripe creates payment intents for donation attempts and verifies the
// webhooks Stripe sends about them. Requests are never retried.
type Stripe struct {
	api            *client.API
	publishableKey string
	webhookSecret  string
	logger         *slog.Logger
}

func NewStripe(cfg Config, logger *slog.Logger) *Stripe {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	backendCfg := &stripe.BackendConfig{
		HTTPClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		LeveledLogger:     &leveledLogger{logger: logger},
		MaxNetworkRetries: stripe.Int64(0),
		EnableTelemetry:   stripe.Bool(false),
	}
	if cfg.APIURL != "" {
		backendCfg.URL = stripe.String(strings.TrimRight(cfg.APIURL, "/"))
	}

	backends := &stripe.Backends{
		API:     stripe.GetBackendWithConfig(stripe.APIBackend, backendCfg),
		Connect: stripe.GetBackendWithConfig(stripe.ConnectBackend, backendCfg),
		Uploads: stripe.GetBackendWithConfig(stripe.UploadsBackend, backendCfg),
	}

	return &Stripe{
		api:            client.New(cfg.SecretKey, backends),
		publishableKey: cfg.PublishableKey,
		webhookSecret:  cfg.WebhookSecret,
		logger:         logger,
	}
}

// CreateSession creates a payment intent and returns its client secret.
func (s *Stripe) CreateSession(ctx context.Context, req donation.SessionRequest) (*donation.PaymentSession, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(req.Amount),
		Currency: stripe.String(strings.ToLower(req.Currency)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	params.AddMetadata(MetadataCampaignSlug, req.Slug)
	params.AddMetadata("method", string(req.Method))
	if req.Recurring {
		params.SetupFutureUsage = stripe.String(string(stripe.PaymentIntentSetupFutureUsageOffSession))
	}

	pi, err := s.api.PaymentIntents.New(params)
	if err != nil {
		s.logger.Error("failed to create payment intent", "error", err, "slug", req.Slug, "amount", req.Amount)
		return nil, donation.ErrSessionFailed.WithCause(err)
	}

	s.logger.Info("payment intent created", "intent_id", pi.ID, "slug", req.Slug, "amount", pi.Amount)
	return &donation.PaymentSession{
		IntentID:       pi.ID,
		ClientSecret:   pi.ClientSecret,
		PublishableKey: s.publishableKey,
		Amount:         pi.Amount,
		Currency:       strings.ToUpper(string(pi.Currency)),
	}, nil
}

// Verify checks the Stripe-Signature header and decodes payment intent
// events. Other event types verify fine but come back with an empty Type.
// Events from an endpoint pinned to another API version are accepted; only
// the payment intent fields read below need to be present.
func (s *Stripe) Verify(payload []byte, signature string) (*donation.WebhookEvent, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, s.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, donation.ErrInvalidSignature.WithCause(err)
	}

	var eventType, status string
	switch event.Type {
	case stripe.EventTypePaymentIntentSucceeded:
		eventType, status = events.EventTypePaymentSucceeded, donation.StatusSucceeded
	case stripe.EventTypePaymentIntentPaymentFailed:
		eventType, status = events.EventTypePaymentFailed, donation.StatusFailed
	case stripe.EventTypePaymentIntentProcessing:
		eventType, status = events.EventTypePaymentProcessing, donation.StatusProcessing
	default:
		s.logger.Debug("ignoring webhook event", "type", event.Type, "event_id", event.ID)
		return &donation.WebhookEvent{}, nil
	}

	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		return nil, fmt.Errorf("decode payment intent: %w", err)
	}

	return &donation.WebhookEvent{
		Type:     eventType,
		IntentID: pi.ID,
		Slug:     pi.Metadata[MetadataCampaignSlug],
		Amount:   pi.Amount,
		Currency: strings.ToUpper(string(pi.Currency)),
		Status:   status,
	}, nil
}

// leveledLogger routes stripe-go's logging through slog.
type leveledLogger struct {
	logger *slog.Logger
}

func (l *leveledLogger) Debugf(format string, v ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, v...), "component", "stripe")
}

func (l *leveledLogger) Infof(format string, v ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, v...), "component", "stripe")
}

func (l *leveledLogger) Warnf(format string, v ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, v...), "component", "stripe")
}

func (l *leveledLogger) Errorf(format string, v ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, v...), "component", "stripe")
}
