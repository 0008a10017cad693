package donation_test

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/campaign-portal/internal/core/events"
	"github.com/frahmantamala/campaign-portal/internal/donation"
)

type fakeSessions struct {
	mu       sync.Mutex
	requests []donation.SessionRequest
	err      error
	secret   string
}

func (f *fakeSessions) CreateSession(_ context.Context, req donation.SessionRequest) (*donation.PaymentSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	n := len(f.requests)
	secret := f.secret
	if secret == "" {
		secret = fmt.Sprintf("pi_%d_secret_abc", n)
	}
	return &donation.PaymentSession{
		IntentID:     fmt.Sprintf("pi_%d", n),
		ClientSecret: secret,
		Amount:       req.Amount,
		Currency:     req.Currency,
	}, nil
}

func (f *fakeSessions) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

type fakeLedger struct {
	mu       sync.Mutex
	attempts map[string]*donation.Attempt
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{attempts: map[string]*donation.Attempt{}}
}

func (l *fakeLedger) Record(_ context.Context, a *donation.Attempt) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	cp := *a
	l.attempts[a.IntentID] = &cp
	return nil
}

func (l *fakeLedger) UpdateStatus(_ context.Context, intentID, status string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	a, ok := l.attempts[intentID]
	if !ok {
		return donation.ErrAttemptNotFound
	}
	a.Status = status
	return nil
}

func (l *fakeLedger) Get(_ context.Context, intentID string) (*donation.Attempt, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	a, ok := l.attempts[intentID]
	if !ok {
		return nil, donation.ErrAttemptNotFound
	}
	cp := *a
	return &cp, nil
}

type fakeVerifier struct {
	event *donation.WebhookEvent
}

func (v *fakeVerifier) Verify(_ []byte, signature string) (*donation.WebhookEvent, error) {
	if signature != "valid" {
		return nil, donation.ErrInvalidSignature
	}
	return v.event, nil
}

var _ = Describe("DonationService", func() {
	var (
		ctx      context.Context
		clock    *clockwork.FakeClock
		bus      *events.EventBus
		sessions *fakeSessions
		ledger   *fakeLedger
		verifier *fakeVerifier
		flows    *donation.FlowStore
		svc      *donation.Service
	)

	BeforeEach(func() {
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		ctx = context.Background()
		clock = clockwork.NewFakeClock()
		bus = events.NewEventBus(logger)
		sessions = &fakeSessions{}
		ledger = newFakeLedger()
		verifier = &fakeVerifier{}
		flows = donation.NewFlowStore(10, 30*time.Minute, clock)
		svc = donation.NewService(sessions, verifier, ledger, bus, flows, donation.Config{
			Currency:       "BGN",
			PublishableKey: "pk_test_123",
			Bank:           donation.BankInstructions{Beneficiary: "Podkrepi", IBAN: "BG00TEST", Reason: "Donation"},
		}, clock, logger)
	})

	subscriptions := func() int {
		return bus.HandlerCount(events.EventTypePaymentSucceeded) +
			bus.HandlerCount(events.EventTypePaymentFailed) +
			bus.HandlerCount(events.EventTypePaymentProcessing)
	}

	It("should start flows anonymous on card with the campaign currency", func() {
		f, created := svc.Open("", "help-now", "EUR")

		Expect(created).To(BeTrue())
		Expect(f.Data().Payment).To(Equal(donation.MethodCard))
		Expect(f.Data().IsAnonymous).To(BeTrue())
		Expect(f.Data().Currency).To(Equal("EUR"))
		Expect(f.Selector.Mounted()).To(BeNil())
	})

	It("should resume a flow by id only for the same campaign", func() {
		f, _ := svc.Open("", "help-now", "")

		again, created := svc.Open(f.ID, "help-now", "")
		Expect(created).To(BeFalse())
		Expect(again).To(BeIdenticalTo(f))

		other, created := svc.Open(f.ID, "other", "")
		Expect(created).To(BeTrue())
		Expect(other.ID).NotTo(Equal(f.ID))
		Expect(other.Data().Currency).To(Equal("BGN"))
	})

	Describe("ChooseAmount", func() {
		It("should create one session per attempt and mount the card form", func() {
			// Given
			f, _ := svc.Open("", "help-now", "")

			// When
			err := svc.ChooseAmount(ctx, f, 2500, "bg")

			// Then
			Expect(err).NotTo(HaveOccurred())
			Expect(sessions.calls()).To(Equal(1))
			Expect(sessions.requests[0].Amount).To(Equal(int64(2500)))
			Expect(sessions.requests[0].Slug).To(Equal("help-now"))

			session := f.Session()
			Expect(session.ClientSecret).To(Equal("pi_1_secret_abc"))
			Expect(session.Locale).To(Equal("bg"))
			Expect(session.PublishableKey).To(Equal("pk_test_123"))
			Expect(session.Mounted()).To(BeTrue())

			panel, ok := f.Selector.Mounted().(*donation.CardPanel)
			Expect(ok).To(BeTrue())
			Expect(panel.Session()).To(BeIdenticalTo(session))
			Expect(subscriptions()).To(Equal(3))

			recorded, err := ledger.Get(ctx, "pi_1")
			Expect(err).NotTo(HaveOccurred())
			Expect(recorded.Status).To(Equal(donation.StatusPending))
			Expect(recorded.Method).To(Equal("card"))
		})

		It("should keep the session when the same amount is submitted again", func() {
			f, _ := svc.Open("", "help-now", "")
			Expect(svc.ChooseAmount(ctx, f, 2500, "bg")).To(Succeed())
			first := f.Session()

			Expect(svc.ChooseAmount(ctx, f, 2500, "bg")).To(Succeed())

			Expect(sessions.calls()).To(Equal(1))
			Expect(f.Session()).To(BeIdenticalTo(first))
			Expect(f.Attempt()).To(Equal(1))
		})

		It("should start a new attempt when the amount changes without leaking subscriptions", func() {
			f, _ := svc.Open("", "help-now", "")
			Expect(svc.ChooseAmount(ctx, f, 2500, "bg")).To(Succeed())
			first := f.Session()

			Expect(svc.ChooseAmount(ctx, f, 5000, "bg")).To(Succeed())

			Expect(sessions.calls()).To(Equal(2))
			Expect(f.Attempt()).To(Equal(2))
			Expect(first.Mounted()).To(BeFalse())
			Expect(f.Session().IntentID).To(Equal("pi_2"))
			Expect(subscriptions()).To(Equal(3))
		})

		It("should not retry a failed session and keep the amount for the next submit", func() {
			// Given
			f, _ := svc.Open("", "help-now", "")
			sessions.err = errors.New("stripe down")

			// When
			err := svc.ChooseAmount(ctx, f, 2500, "bg")

			// Then
			Expect(err).To(MatchError(donation.ErrSessionFailed))
			Expect(sessions.calls()).To(Equal(1))
			Expect(f.Data().AmountChosen).To(Equal(int64(2500)))
			Expect(f.Session()).To(BeNil())
			Expect(f.Selector.Mounted()).To(BeNil())
			Expect(subscriptions()).To(BeZero())

			// And the donor re-initiates
			sessions.err = nil
			Expect(svc.ChooseAmount(ctx, f, 2500, "bg")).To(Succeed())
			Expect(sessions.calls()).To(Equal(2))
			Expect(f.Selector.Mounted()).NotTo(BeNil())
		})

		It("should not mount the card form for a malformed client secret", func() {
			f, _ := svc.Open("", "help-now", "")
			sessions.secret = "not-a-secret"

			err := svc.ChooseAmount(ctx, f, 2500, "bg")

			Expect(err).To(MatchError(donation.ErrInvalidClientSecret))
			Expect(f.Selector.Mounted()).To(BeNil())
			Expect(subscriptions()).To(BeZero())
		})

		It("should disable card again when the amount is cleared", func() {
			f, _ := svc.Open("", "help-now", "")
			Expect(svc.ChooseAmount(ctx, f, 2500, "bg")).To(Succeed())

			Expect(svc.ChooseAmount(ctx, f, 0, "bg")).To(Succeed())

			Expect(f.Selector.Mounted()).To(BeNil())
			Expect(f.Selector.Options()[0].Disabled).To(BeTrue())
			Expect(subscriptions()).To(BeZero())
		})
	})

	Describe("SelectMethod", func() {
		It("should refuse card without an amount but allow bank", func() {
			f, _ := svc.Open("", "help-now", "")

			Expect(svc.SelectMethod(ctx, f, "card")).To(MatchError(donation.ErrMethodDisabled))
			Expect(svc.SelectMethod(ctx, f, "bank")).To(Succeed())

			bank, ok := f.Selector.Mounted().(*donation.BankPanel)
			Expect(ok).To(BeTrue())
			Expect(bank.Instructions.Reason).To(Equal("Donation help-now"))
			Expect(bank.Instructions.IBAN).To(Equal("BG00TEST"))
			Expect(f.Data().Payment).To(Equal(donation.MethodBank))
		})

		It("should release card subscriptions when switching to bank and back", func() {
			f, _ := svc.Open("", "help-now", "")
			Expect(svc.ChooseAmount(ctx, f, 2500, "bg")).To(Succeed())
			Expect(subscriptions()).To(Equal(3))

			Expect(svc.SelectMethod(ctx, f, "bank")).To(Succeed())
			Expect(subscriptions()).To(BeZero())
			Expect(f.Session().Mounted()).To(BeFalse())

			Expect(svc.SelectMethod(ctx, f, "card")).To(Succeed())
			Expect(subscriptions()).To(Equal(3))
			Expect(sessions.calls()).To(Equal(1))
		})

		It("should reject unknown methods", func() {
			f, _ := svc.Open("", "help-now", "")
			Expect(svc.SelectMethod(ctx, f, "crypto")).To(MatchError(donation.ErrUnknownMethod))
		})
	})

	Describe("SetOptions", func() {
		It("should start a new attempt when recurring changes after a session exists", func() {
			f, _ := svc.Open("", "help-now", "")
			Expect(svc.ChooseAmount(ctx, f, 2500, "bg")).To(Succeed())

			Expect(svc.SetOptions(ctx, f, true, true, "bg")).To(Succeed())

			Expect(sessions.calls()).To(Equal(2))
			Expect(sessions.requests[1].Recurring).To(BeTrue())
			Expect(f.Data().TaxDeduction).To(BeTrue())
		})

		It("should only store flags before an amount is chosen", func() {
			f, _ := svc.Open("", "help-now", "")

			Expect(svc.SetOptions(ctx, f, true, false, "bg")).To(Succeed())

			Expect(sessions.calls()).To(BeZero())
			Expect(f.Data().Recurring).To(BeTrue())
		})
	})

	It("should mark the donor as signed in", func() {
		f, _ := svc.Open("", "help-now", "")

		svc.MarkSignedIn(f, "donor@example.com")

		Expect(f.Data().IsAnonymous).To(BeFalse())
		Expect(f.Data().LoginEmail).To(Equal("donor@example.com"))
	})

	Describe("HandleWebhook", func() {
		It("should update the ledger and notify the mounted card panel", func() {
			// Given
			f, _ := svc.Open("", "help-now", "")
			Expect(svc.ChooseAmount(ctx, f, 2500, "bg")).To(Succeed())
			verifier.event = &donation.WebhookEvent{
				Type:     events.EventTypePaymentSucceeded,
				IntentID: "pi_1",
				Slug:     "help-now",
				Amount:   2500,
				Currency: "bgn",
				Status:   donation.StatusSucceeded,
			}

			// When
			err := svc.HandleWebhook(ctx, []byte(`{}`), "valid")

			// Then
			Expect(err).NotTo(HaveOccurred())
			recorded, _ := ledger.Get(ctx, "pi_1")
			Expect(recorded.Status).To(Equal(donation.StatusSucceeded))
			Eventually(f.Status).Should(Equal(donation.StatusSucceeded))
		})

		It("should reject a bad signature without touching the ledger", func() {
			f, _ := svc.Open("", "help-now", "")
			Expect(svc.ChooseAmount(ctx, f, 2500, "bg")).To(Succeed())
			verifier.event = &donation.WebhookEvent{Type: events.EventTypePaymentFailed, IntentID: "pi_1", Status: donation.StatusFailed}

			err := svc.HandleWebhook(ctx, []byte(`{}`), "forged")

			Expect(err).To(MatchError(donation.ErrInvalidSignature))
			recorded, _ := ledger.Get(ctx, "pi_1")
			Expect(recorded.Status).To(Equal(donation.StatusPending))
		})

		It("should ignore event types it does not handle", func() {
			verifier.event = &donation.WebhookEvent{}
			Expect(svc.HandleWebhook(ctx, []byte(`{}`), "valid")).To(Succeed())
		})
	})

	Describe("Status", func() {
		It("should prefer the ledger over the redirect status", func() {
			f, _ := svc.Open("", "help-now", "")
			Expect(svc.ChooseAmount(ctx, f, 2500, "bg")).To(Succeed())
			Expect(ledger.UpdateStatus(ctx, "pi_1", donation.StatusFailed)).To(Succeed())

			status, err := svc.Status(ctx, "pi_1", "succeeded")

			Expect(err).NotTo(HaveOccurred())
			Expect(status).To(Equal(donation.StatusFailed))
		})

		It("should fall back to the redirect status", func() {
			status, err := svc.Status(ctx, "pi_unknown", "requires_payment_method")
			Expect(err).NotTo(HaveOccurred())
			Expect(status).To(Equal(donation.StatusFailed))

			status, _ = svc.Status(ctx, "pi_unknown", "succeeded")
			Expect(status).To(Equal(donation.StatusSucceeded))
		})

		It("should require an intent id", func() {
			_, err := svc.Status(ctx, "", "succeeded")
			Expect(err).To(MatchError(donation.ErrAttemptNotFound))
		})
	})

	It("should create standalone sessions for API clients", func() {
		session, err := svc.CreateSession(ctx, "help-now", 1000, "", "en")

		Expect(err).NotTo(HaveOccurred())
		Expect(session.Locale).To(Equal("en"))
		Expect(session.Currency).To(Equal("BGN"))
		Expect(sessions.requests[0].Method).To(Equal(donation.MethodCard))

		_, err = svc.CreateSession(ctx, "help-now", 0, "", "en")
		Expect(err).To(MatchError(donation.ErrInvalidAmount))
	})

	It("should close expired flows and drop their subscriptions", func() {
		// Given
		f, _ := svc.Open("", "help-now", "")
		Expect(svc.ChooseAmount(ctx, f, 2500, "bg")).To(Succeed())
		Expect(subscriptions()).To(Equal(3))

		// When
		clock.Advance(31 * time.Minute)

		// Then
		Expect(flows.CleanExpired()).To(Equal(1))
		Expect(subscriptions()).To(BeZero())
		_, err := svc.Lookup(f.ID, "help-now")
		Expect(err).To(MatchError(donation.ErrFlowNotFound))
	})
})
