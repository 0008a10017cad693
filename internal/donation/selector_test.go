package donation_test

import (
	"context"
	"log/slog"
	"net/http/httptest"
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"pgregory.net/rapid"

	"github.com/frahmantamala/campaign-portal/internal/core/events"
	"github.com/frahmantamala/campaign-portal/internal/donation"
)

type recordingPanel struct {
	method   donation.Method
	mounts   int
	unmounts int
	failWith error
}

func (p *recordingPanel) Method() donation.Method { return p.method }

func (p *recordingPanel) Mount(context.Context) error {
	if p.failWith != nil {
		return p.failWith
	}
	p.mounts++
	return nil
}

func (p *recordingPanel) Unmount() { p.unmounts++ }

var _ = Describe("Selector", func() {
	var (
		ctx    context.Context
		built  []*recordingPanel
		sel    *donation.Selector
		cardIs error
	)

	BeforeEach(func() {
		ctx = context.Background()
		built = nil
		cardIs = nil
		sel = donation.NewSelector(func(m donation.Method) donation.Panel {
			p := &recordingPanel{method: m}
			if m == donation.MethodCard {
				p.failWith = cardIs
			}
			built = append(built, p)
			return p
		})
	})

	It("should start on card with nothing mounted", func() {
		Expect(sel.Method()).To(Equal(donation.MethodCard))
		Expect(sel.Mounted()).To(BeNil())
	})

	It("should refuse card before an amount is chosen", func() {
		Expect(sel.Select(ctx, donation.MethodCard)).To(MatchError(donation.ErrMethodDisabled))
		Expect(built).To(BeEmpty())
	})

	It("should reject unknown methods", func() {
		Expect(sel.Select(ctx, donation.Method("crypto"))).To(MatchError(donation.ErrUnknownMethod))
	})

	It("should mount the card panel once an amount is chosen", func() {
		// When
		Expect(sel.SetAmountChosen(ctx, true)).To(Succeed())

		// Then
		Expect(built).To(HaveLen(1))
		Expect(sel.Mounted().Method()).To(Equal(donation.MethodCard))
		Expect(built[0].mounts).To(Equal(1))
	})

	It("should unmount the previous panel before mounting the next", func() {
		// Given
		Expect(sel.SetAmountChosen(ctx, true)).To(Succeed())

		// When
		Expect(sel.Select(ctx, donation.MethodBank)).To(Succeed())

		// Then
		Expect(built).To(HaveLen(2))
		Expect(built[0].unmounts).To(Equal(1))
		Expect(built[1].method).To(Equal(donation.MethodBank))
		Expect(sel.Mounted()).To(BeIdenticalTo(built[1]))

		// And back
		Expect(sel.Select(ctx, donation.MethodCard)).To(Succeed())
		Expect(built[1].unmounts).To(Equal(1))
		Expect(sel.Mounted().Method()).To(Equal(donation.MethodCard))
	})

	It("should not remount when the selected method is chosen again", func() {
		Expect(sel.Select(ctx, donation.MethodBank)).To(Succeed())
		Expect(sel.Select(ctx, donation.MethodBank)).To(Succeed())
		Expect(built).To(HaveLen(1))
	})

	It("should unmount card when the amount is cleared", func() {
		Expect(sel.SetAmountChosen(ctx, true)).To(Succeed())
		Expect(sel.SetAmountChosen(ctx, false)).To(Succeed())

		Expect(built[0].unmounts).To(Equal(1))
		Expect(sel.Mounted()).To(BeNil())
	})

	It("should leave nothing mounted when the panel fails to mount", func() {
		cardIs = donation.ErrInvalidClientSecret

		err := sel.SetAmountChosen(ctx, true)

		Expect(err).To(MatchError(donation.ErrInvalidClientSecret))
		Expect(sel.Mounted()).To(BeNil())
	})

	It("should describe the options for rendering", func() {
		opts := sel.Options()
		Expect(opts).To(HaveLen(2))
		Expect(opts[0].Value).To(Equal(donation.MethodCard))
		Expect(opts[0].Disabled).To(BeTrue())
		Expect(opts[0].Selected).To(BeTrue())
		Expect(opts[0].Expanded).To(BeFalse())
		Expect(opts[0].FeeKey).To(Equal("donation-flow:payment-method.field.card-fee"))
		Expect(opts[1].LabelKey).To(Equal("donation-flow:payment-method.field.method.bank"))

		Expect(sel.SetAmountChosen(ctx, true)).To(Succeed())
		opts = sel.Options()
		Expect(opts[0].Disabled).To(BeFalse())
		Expect(opts[0].Expanded).To(BeTrue())
		Expect(opts[1].Expanded).To(BeFalse())
	})

	It("should unmount on Close", func() {
		Expect(sel.Select(ctx, donation.MethodBank)).To(Succeed())
		sel.Close()
		Expect(built[0].unmounts).To(Equal(1))
		Expect(sel.Mounted()).To(BeNil())
	})
})

var _ = Describe("CardPanel", func() {
	var (
		bus *events.EventBus
		ctx context.Context
	)

	BeforeEach(func() {
		bus = events.NewEventBus(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError})))
		ctx = context.Background()
	})

	It("should subscribe while mounted and release every subscription on unmount", func() {
		// Given
		session := &donation.PaymentSession{IntentID: "pi_1", ClientSecret: "pi_1_secret_abc"}
		var statuses []string
		panel := donation.NewCardPanel(session, bus, func(s string) { statuses = append(statuses, s) })

		// When
		Expect(panel.Mount(ctx)).To(Succeed())

		// Then
		Expect(session.Mounted()).To(BeTrue())
		Expect(bus.HandlerCount(events.EventTypePaymentSucceeded)).To(Equal(1))
		Expect(bus.HandlerCount(events.EventTypePaymentFailed)).To(Equal(1))

		Expect(bus.PublishSync(ctx, events.NewPaymentIntentEvent(events.EventTypePaymentSucceeded, "pi_other", "s", 1, "bgn", "succeeded"))).To(Succeed())
		Expect(bus.PublishSync(ctx, events.NewPaymentIntentEvent(events.EventTypePaymentSucceeded, "pi_1", "s", 1, "bgn", "succeeded"))).To(Succeed())
		Expect(statuses).To(Equal([]string{"succeeded"}))

		panel.Unmount()
		Expect(session.Mounted()).To(BeFalse())
		Expect(bus.HandlerCount(events.EventTypePaymentSucceeded)).To(BeZero())
		Expect(bus.HandlerCount(events.EventTypePaymentFailed)).To(BeZero())
		Expect(bus.HandlerCount(events.EventTypePaymentProcessing)).To(BeZero())
	})

	It("should not mount with an invalid client secret", func() {
		for _, secret := range []string{"", "secret", "pi_1_secret_", "seti_1_secret_abc"} {
			session := &donation.PaymentSession{IntentID: "pi_1", ClientSecret: secret}
			panel := donation.NewCardPanel(session, bus, nil)

			Expect(panel.Mount(ctx)).To(MatchError(donation.ErrInvalidClientSecret), secret)
			Expect(session.Mounted()).To(BeFalse())
			Expect(bus.HandlerCount(events.EventTypePaymentSucceeded)).To(BeZero())
		}
	})

	It("should treat a missing session as an invalid secret", func() {
		var session *donation.PaymentSession
		Expect(session.Mount()).To(MatchError(donation.ErrInvalidClientSecret))
		Expect(session.Mounted()).To(BeFalse())
	})
})

var _ = Describe("Amounts", func() {
	DescribeTable("ParseAmount",
		func(in string, want int64, fails bool) {
			got, err := donation.ParseAmount(in)
			if fails {
				Expect(err).To(MatchError(donation.ErrInvalidAmount))
				return
			}
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(Equal(want))
		},
		Entry("whole", "25", int64(2500), false),
		Entry("cents", "12.34", int64(1234), false),
		Entry("comma decimal", "12,5", int64(1250), false),
		Entry("trailing zero", "12.340", int64(1234), false),
		Entry("empty", "", int64(0), false),
		Entry("too precise", "1.234", int64(0), true),
		Entry("negative", "-5", int64(0), true),
		Entry("not a number", "abc", int64(0), true),
		Entry("largest int64", "92233720368547758.07", int64(9223372036854775807), false),
		Entry("one past int64", "92233720368547758.08", int64(0), true),
		Entry("past uint64", "184467440737095516.17", int64(0), true),
	)

	It("should round-trip minor units through the display format", func() {
		rapid.Check(GinkgoT(), func(t *rapid.T) {
			minor := rapid.Int64Range(0, 1<<40).Draw(t, "minor")
			got, err := donation.ParseAmount(donation.FormatAmount(minor))
			if err != nil || got != minor {
				t.Fatalf("round trip of %d gave %d (%v)", minor, got, err)
			}
		})
	})
})

var _ = Describe("Layout", func() {
	DescribeTable("ResolveLayout",
		func(width int, want donation.Layout) {
			Expect(donation.ResolveLayout(width, 900)).To(Equal(want))
		},
		Entry("unknown width", 0, donation.LayoutCards),
		Entry("narrow", 480, donation.LayoutAccordion),
		Entry("at breakpoint", 900, donation.LayoutCards),
		Entry("wide", 1440, donation.LayoutCards),
	)

	It("should read the viewport hint, then vw, then the mobile hint", func() {
		r := httptest.NewRequest("GET", "/?vw=1200", nil)
		r.Header.Set("Sec-CH-Viewport-Width", "400")
		Expect(donation.LayoutFromRequest(r, 900)).To(Equal(donation.LayoutAccordion))

		r = httptest.NewRequest("GET", "/?vw=1200", nil)
		r.Header.Set("Sec-CH-UA-Mobile", "?1")
		Expect(donation.LayoutFromRequest(r, 900)).To(Equal(donation.LayoutCards))

		r = httptest.NewRequest("GET", "/", nil)
		r.Header.Set("Sec-CH-UA-Mobile", "?1")
		Expect(donation.LayoutFromRequest(r, 900)).To(Equal(donation.LayoutAccordion))

		Expect(donation.LayoutFromRequest(httptest.NewRequest("GET", "/", nil), 900)).To(Equal(donation.LayoutCards))
	})
})
