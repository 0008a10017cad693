package donation

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/frahmantamala/campaign-portal/internal/core/events"
	"github.com/frahmantamala/campaign-portal/internal/metrics"
	"github.com/jonboulle/clockwork"
)

// Config carries the payment settings the donation flow needs.
type Config struct {
	Currency       string
	PublishableKey string
	Bank           BankInstructions
}

// Service drives donation flows: amount, payment method, options and the
// payment session of each attempt.
type Service struct {
	sessions SessionProvider
	webhooks WebhookVerifier
	ledger   Ledger
	bus      *events.EventBus
	flows    *FlowStore
	cfg      Config
	clock    clockwork.Clock
	logger   *slog.Logger
}

// NewService wires a donation service. ledger may be nil when no database is configured.
func NewService(sessions SessionProvider, webhooks WebhookVerifier, ledger Ledger, bus *events.EventBus, flows *FlowStore, cfg Config, clock clockwork.Clock, logger *slog.Logger) *Service {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Service{
		sessions: sessions,
		webhooks: webhooks,
		ledger:   ledger,
		bus:      bus,
		flows:    flows,
		cfg:      cfg,
		clock:    clock,
		logger:   logger,
	}
}

// Open returns the flow with id for the campaign, or starts a new one.
// created reports whether a new flow was started.
func (s *Service) Open(id, slug, currency string) (f *Flow, created bool) {
	if f, ok := s.flows.Get(id, slug); ok {
		return f, false
	}
	if currency == "" {
		currency = s.cfg.Currency
	}
	f = s.flows.New(slug, currency, s.panels)
	metrics.DonationFlows.Set(float64(s.flows.Size()))
	s.logger.Debug("donation flow started", "flow_id", f.ID, "slug", slug)
	return f, true
}

// Lookup returns an existing flow without creating one.
func (s *Service) Lookup(id, slug string) (*Flow, error) {
	f, ok := s.flows.Get(id, slug)
	if !ok {
		return nil, ErrFlowNotFound
	}
	return f, nil
}

// panels builds the panel factory of flow f. Card panels read the flow's
// current session; with no session the card option mounts nothing.
func (s *Service) panels(f *Flow) PanelFactory {
	return func(m Method) Panel {
		switch m {
		case MethodCard:
			session := f.Session()
			if session == nil {
				return nil
			}
			return NewCardPanel(session, s.bus, f.setStatus)
		case MethodBank:
			bank := s.cfg.Bank
			bank.Reason = BankReason(s.cfg.Bank.Reason, f.Slug)
			return NewBankPanel(bank)
		default:
			return nil
		}
	}
}

// BankReason is the payment reference donors put on a bank transfer.
func BankReason(prefix, slug string) string {
	if prefix == "" {
		return slug
	}
	return prefix + " " + slug
}

// ChooseAmount stores the chosen amount in minor units. A new amount starts
// a new attempt with its own payment session; the same amount keeps the
// current session. Zero clears the choice and disables card.
func (s *Service) ChooseAmount(ctx context.Context, f *Flow, amount int64, locale string) error {
	if amount < 0 {
		return ErrInvalidAmount
	}
	if amount == 0 {
		f.mu.Lock()
		f.data.AmountChosen = 0
		f.session = nil
		f.mu.Unlock()
		return f.Selector.SetAmountChosen(ctx, false)
	}

	f.mu.Lock()
	same := f.data.AmountChosen == amount && f.session != nil
	f.data.AmountChosen = amount
	f.mu.Unlock()
	if same {
		return nil
	}
	return s.startAttempt(ctx, f, locale)
}

// startAttempt requests a fresh payment session for the flow's current
// amount. It is never retried: on failure the flow keeps its amount and
// no card form is mounted until the donor submits again.
func (s *Service) startAttempt(ctx context.Context, f *Flow, locale string) error {
	data := f.Data()

	f.mu.Lock()
	f.attempt++
	f.session = nil
	f.status = ""
	attempt := f.attempt
	f.mu.Unlock()

	session, err := s.newSession(ctx, f.Slug, data, locale)
	if err != nil {
		s.logger.Warn("payment session not created", "error", err, "flow_id", f.ID, "attempt", attempt)
		if reconcileErr := f.Selector.SetAmountChosen(ctx, true); reconcileErr != nil {
			s.logger.Warn("failed to remount payment panel", "error", reconcileErr, "flow_id", f.ID)
		}
		return err
	}

	f.mu.Lock()
	f.session = session
	f.status = StatusPending
	f.mu.Unlock()

	s.logger.Info("donation attempt started", "flow_id", f.ID, "attempt", attempt, "intent_id", session.IntentID, "amount", data.AmountChosen)
	return f.Selector.SetAmountChosen(ctx, true)
}

func (s *Service) newSession(ctx context.Context, slug string, data FormData, locale string) (*PaymentSession, error) {
	session, err := s.sessions.CreateSession(ctx, SessionRequest{
		Amount:    data.AmountChosen,
		Currency:  data.Currency,
		Slug:      slug,
		Method:    data.Payment,
		Recurring: data.Recurring,
	})
	if err != nil {
		metrics.PaymentSessions.WithLabelValues("failed").Inc()
		if errors.Is(err, ErrSessionFailed) {
			return nil, err
		}
		return nil, ErrSessionFailed.WithCause(err)
	}
	metrics.PaymentSessions.WithLabelValues("created").Inc()

	session.Locale = locale
	if session.PublishableKey == "" {
		session.PublishableKey = s.cfg.PublishableKey
	}
	if session.Amount == 0 {
		session.Amount = data.AmountChosen
	}
	if session.Currency == "" {
		session.Currency = data.Currency
	}

	s.record(ctx, slug, data.Payment, session)
	if err := s.bus.Publish(ctx, events.NewPaymentIntentEvent(events.EventTypePaymentSessionCreated,
		session.IntentID, slug, session.Amount, session.Currency, StatusPending)); err != nil {
		s.logger.Warn("failed to publish session event", "error", err, "intent_id", session.IntentID)
	}
	return session, nil
}

func (s *Service) record(ctx context.Context, slug string, method Method, session *PaymentSession) {
	if s.ledger == nil {
		return
	}
	now := s.clock.Now().UTC()
	err := s.ledger.Record(ctx, &Attempt{
		IntentID:     session.IntentID,
		CampaignSlug: slug,
		Amount:       session.Amount,
		Currency:     session.Currency,
		Method:       string(method),
		Status:       StatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		s.logger.Error("failed to record donation attempt", "error", err, "intent_id", session.IntentID)
	}
}

// SelectMethod switches the flow's payment method.
func (s *Service) SelectMethod(ctx context.Context, f *Flow, raw string) error {
	m, err := ParseMethod(raw)
	if err != nil {
		return err
	}
	if err := f.Selector.Select(ctx, m); err != nil {
		return err
	}
	f.update(func(d *FormData) { d.Payment = m })
	return nil
}

// SetOptions stores the recurring and tax-deduction flags. Toggling
// recurring while a session exists starts a new attempt.
func (s *Service) SetOptions(ctx context.Context, f *Flow, recurring, taxDeduction bool, locale string) error {
	f.mu.Lock()
	changed := f.data.Recurring != recurring
	f.data.Recurring = recurring
	f.data.TaxDeduction = taxDeduction
	restart := changed && f.session != nil && f.data.AmountChosen > 0
	f.mu.Unlock()

	if !restart {
		return nil
	}
	return s.startAttempt(ctx, f, locale)
}

// MarkSignedIn records that the donor signed in from the donation form.
func (s *Service) MarkSignedIn(f *Flow, email string) {
	f.update(func(d *FormData) {
		d.LoginEmail = email
		d.IsAnonymous = false
	})
}

// SetAnonymous lets a signed-in donor hide their name.
func (s *Service) SetAnonymous(f *Flow, anonymous bool) {
	f.update(func(d *FormData) { d.IsAnonymous = anonymous })
}

// Status reports the outcome of a payment for the status page. The ledger
// wins when it knows the intent; otherwise the processor's redirect status
// is used.
func (s *Service) Status(ctx context.Context, intentID, redirectStatus string) (string, error) {
	if intentID == "" {
		return "", ErrAttemptNotFound
	}
	if s.ledger != nil {
		a, err := s.ledger.Get(ctx, intentID)
		switch {
		case err == nil && a.Status != StatusPending:
			return a.Status, nil
		case err != nil && !errors.Is(err, ErrAttemptNotFound):
			s.logger.Warn("failed to read donation attempt", "error", err, "intent_id", intentID)
		}
	}
	return StatusFromRedirect(redirectStatus), nil
}

// StatusFromRedirect maps the redirect_status the processor appends to the
// return URL onto an attempt status.
func StatusFromRedirect(v string) string {
	switch v {
	case "succeeded":
		return StatusSucceeded
	case "processing":
		return StatusProcessing
	case "":
		return StatusPending
	default:
		return StatusFailed
	}
}

// HandleWebhook verifies a processor notification, updates the ledger and
// publishes the outcome to mounted card panels.
func (s *Service) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	if s.webhooks == nil {
		return ErrInvalidSignature
	}
	event, err := s.webhooks.Verify(payload, signature)
	if err != nil {
		s.logger.Warn("webhook rejected", "error", err)
		return err
	}
	if event == nil || event.Type == "" {
		return nil
	}

	metrics.PaymentOutcomes.WithLabelValues(event.Status).Inc()
	if s.ledger != nil {
		if err := s.ledger.UpdateStatus(ctx, event.IntentID, event.Status); err != nil && !errors.Is(err, ErrAttemptNotFound) {
			s.logger.Error("failed to update donation attempt", "error", err, "intent_id", event.IntentID)
			return err
		}
	}

	s.logger.Info("payment outcome received", "intent_id", event.IntentID, "status", event.Status, "slug", event.Slug)
	return s.bus.Publish(ctx, events.NewPaymentIntentEvent(event.Type, event.IntentID, event.Slug, event.Amount, event.Currency, event.Status))
}

// CreateSession starts a standalone payment session for API clients.
func (s *Service) CreateSession(ctx context.Context, slug string, amount int64, currency, locale string) (*PaymentSession, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if currency == "" {
		currency = s.cfg.Currency
	}
	return s.newSession(ctx, slug, FormData{AmountChosen: amount, Currency: currency, Payment: MethodCard}, locale)
}

// Sweep closes expired flows every interval until ctx ends.
func (s *Service) Sweep(ctx context.Context, interval time.Duration) {
	ticker := s.clock.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			if n := s.flows.CleanExpired(); n > 0 {
				s.logger.Debug("expired donation flows closed", "count", n)
			}
			metrics.DonationFlows.Set(float64(s.flows.Size()))
		}
	}
}
