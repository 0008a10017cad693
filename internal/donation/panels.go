package donation

import (
	"context"
	"sync"

	"github.com/frahmantamala/campaign-portal/internal/core/events"
)

// Subscriber is the part of the event bus panels listen on.
type Subscriber interface {
	Subscribe(eventType string, handler events.Handler) events.Subscription
	Unsubscribe(sub events.Subscription)
}

// CardPanel shows the card fee notice, the hosted payment form and the
// taxes checkbox. While mounted it follows the payment intent's events.
type CardPanel struct {
	session  *PaymentSession
	bus      Subscriber
	onStatus func(status string)

	mu   sync.Mutex
	subs []events.Subscription
}

func NewCardPanel(session *PaymentSession, bus Subscriber, onStatus func(status string)) *CardPanel {
	return &CardPanel{session: session, bus: bus, onStatus: onStatus}
}

func (p *CardPanel) Method() Method { return MethodCard }

func (p *CardPanel) Session() *PaymentSession { return p.session }

// Mount initializes the hosted form and subscribes to the intent's outcome.
func (p *CardPanel) Mount(context.Context) error {
	if err := p.session.Mount(); err != nil {
		return err
	}
	if p.bus == nil {
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	for _, eventType := range []string{events.EventTypePaymentSucceeded, events.EventTypePaymentFailed, events.EventTypePaymentProcessing} {
		p.subs = append(p.subs, p.bus.Subscribe(eventType, p.handle))
	}
	return nil
}

func (p *CardPanel) handle(_ context.Context, event events.Event) error {
	e, ok := event.(*events.PaymentIntentEvent)
	if !ok || e.IntentID != p.session.IntentID {
		return nil
	}
	if p.onStatus != nil {
		p.onStatus(e.Status)
	}
	return nil
}

// Unmount tears down the hosted form and drops every subscription.
func (p *CardPanel) Unmount() {
	p.session.Unmount()

	p.mu.Lock()
	defer p.mu.Unlock()
	for _, sub := range p.subs {
		p.bus.Unsubscribe(sub)
	}
	p.subs = nil
}

// BankInstructions are the details shown for a bank transfer.
type BankInstructions struct {
	Beneficiary string
	IBAN        string
	BIC         string
	BankName    string
	Reason      string
}

// BankPanel shows the bank fee notice and the transfer instructions.
type BankPanel struct {
	Instructions BankInstructions

	mu      sync.Mutex
	mounted bool
}

func NewBankPanel(instructions BankInstructions) *BankPanel {
	return &BankPanel{Instructions: instructions}
}

func (p *BankPanel) Method() Method { return MethodBank }

func (p *BankPanel) Mount(context.Context) error {
	p.mu.Lock()
	p.mounted = true
	p.mu.Unlock()
	return nil
}

func (p *BankPanel) Unmount() {
	p.mu.Lock()
	p.mounted = false
	p.mu.Unlock()
}

func (p *BankPanel) Mounted() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.mounted
}
