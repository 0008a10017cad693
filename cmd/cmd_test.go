package cmd

import (
	"log/slog"
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/campaign-portal/internal"
	"github.com/frahmantamala/campaign-portal/internal/core/events"
)

const sampleConfig = `
http_server:
  port: 8080
  base_url: http://localhost:8080
backend:
  mode: remote
  base_url: http://localhost:9000
security:
  session_secret: 0123456789abcdef0123456789abcdef
  session_duration: 12h
payment:
  stripe_secret_key: sk_test_123
  stripe_publishable_key: pk_test_123
  currency: bgn
bank:
  reason: Donation
ui:
  default_locale: bg
  breakpoint: 900
  hero:
    timeout: 3s
    frame: 50ms
    window: 5
    step: 4
`

var _ = Describe("loadConfig", func() {
	var dir string

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
	})

	write := func(body string) {
		Expect(os.WriteFile(filepath.Join(dir, "config.yml"), []byte(body), 0o600)).To(Succeed())
	}

	It("should read the file and apply defaults", func() {
		write(sampleConfig)

		cfg, err := loadConfig(dir)

		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Backend.Mode).To(Equal(internal.BackendRemote))
		Expect(cfg.Security.SessionDuration).To(Equal(12 * time.Hour))
		Expect(cfg.UI.Hero.Timeout).To(Equal(3 * time.Second))
		Expect(cfg.UI.Hero.Settle).To(Equal(400 * time.Millisecond))
		Expect(cfg.UI.NoticeTTL).To(Equal(5 * time.Second))
		Expect(cfg.Bank.Reason).To(Equal("Donation"))
	})

	It("should let the environment override file values", func() {
		write(sampleConfig)
		GinkgoT().Setenv("PORTAL_PAYMENT_CURRENCY", "eur")
		GinkgoT().Setenv("PORTAL_PAYMENT_WEBHOOK_SECRET", "whsec_env")

		cfg, err := loadConfig(dir)

		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Payment.Currency).To(Equal("eur"))
		Expect(cfg.Payment.WebhookSecret).To(Equal("whsec_env"))
	})

	It("should reject a short session secret", func() {
		write(sampleConfig)
		GinkgoT().Setenv("PORTAL_SECURITY_SESSION_SECRET", "short")

		_, err := loadConfig(dir)

		Expect(err).To(HaveOccurred())
	})

	It("should require a database for the local backend", func() {
		write(sampleConfig)
		GinkgoT().Setenv("PORTAL_BACKEND_MODE", "local")

		_, err := loadConfig(dir)

		Expect(err).To(MatchError(ContainSubstring("source is required")))
	})
})

var _ = Describe("initBackend", func() {
	It("should use the backend API in remote mode and check it for health", func() {
		cfg := &internal.Config{Backend: internal.BackendConfig{Mode: internal.BackendRemote, BaseURL: "http://backend"}}
		lg := slog.New(slog.NewTextHandler(GinkgoWriter, nil))

		be, err := initBackend(cfg, nil, lg)

		Expect(err).NotTo(HaveOccurred())
		Expect(be.campaigns).NotTo(BeNil())
		Expect(be.files).NotTo(BeNil())
		Expect(be.health).To(HaveKey("backend"))
		Expect(be.health).NotTo(HaveKey("postgres"))
	})

	It("should refuse the local backend without a database", func() {
		cfg := &internal.Config{Backend: internal.BackendConfig{Mode: internal.BackendLocal}}

		_, err := initBackend(cfg, nil, slog.New(slog.NewTextHandler(GinkgoWriter, nil)))

		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("sampleEvent", func() {
	It("should build a sample for every domain event", func() {
		for _, t := range domainEvents {
			event, err := sampleEvent(t)
			Expect(err).NotTo(HaveOccurred())
			Expect(event.EventType()).To(Equal(t))
		}
	})

	It("should reject unknown types", func() {
		_, err := sampleEvent("payment.refunded")
		Expect(err).To(HaveOccurred())
	})

	It("should carry the payment status", func() {
		event, err := sampleEvent(events.EventTypePaymentFailed)

		Expect(err).NotTo(HaveOccurred())
		Expect(event.(*events.PaymentIntentEvent).Status).To(Equal("failed"))
	})
})
