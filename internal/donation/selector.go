package donation

import (
	"context"
	"sync"
)

// Panel is the content shown for a selected payment method.
type Panel interface {
	Method() Method
	Mount(ctx context.Context) error
	Unmount()
}

// PanelFactory builds a fresh panel for a method each time it is mounted.
type PanelFactory func(m Method) Panel

// Option is the render data of one payment method choice.
type Option struct {
	Value    Method
	LabelKey string
	FeeKey   string
	Disabled bool
	Selected bool
	Expanded bool
}

// Selector is the payment method state machine. It starts on card and has
// no terminal state. The selected method's panel is mounted only while the
// method is enabled; switching unmounts the previous panel first.
type Selector struct {
	panels PanelFactory

	mu           sync.Mutex
	method       Method
	amountChosen bool
	mounted      Panel
}

func NewSelector(panels PanelFactory) *Selector {
	return &Selector{panels: panels, method: MethodCard}
}

func (s *Selector) Method() Method {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.method
}

// Mounted returns the mounted panel, or nil.
func (s *Selector) Mounted() Panel {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mounted
}

func (s *Selector) enabled(m Method) bool {
	return m != MethodCard || s.amountChosen
}

// SetAmountChosen enables or disables the card option and remounts the
// selected panel accordingly.
func (s *Selector) SetAmountChosen(ctx context.Context, chosen bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.amountChosen = chosen
	return s.reconcile(ctx)
}

// Select switches to method m. Card cannot be selected before an amount is chosen.
func (s *Selector) Select(ctx context.Context, m Method) error {
	if _, err := ParseMethod(string(m)); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.enabled(m) {
		return ErrMethodDisabled
	}
	if m == s.method && s.mounted != nil {
		return nil
	}
	s.method = m
	return s.reconcile(ctx)
}

// Remount replaces the mounted panel with a fresh one, e.g. after a new payment session.
func (s *Selector) Remount(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reconcile(ctx)
}

// reconcile makes the mounted panel match the selection. Caller holds mu.
func (s *Selector) reconcile(ctx context.Context) error {
	if s.mounted != nil {
		s.mounted.Unmount()
		s.mounted = nil
	}
	if !s.enabled(s.method) || s.panels == nil {
		return nil
	}
	p := s.panels(s.method)
	if p == nil {
		return nil
	}
	if err := p.Mount(ctx); err != nil {
		p.Unmount()
		return err
	}
	s.mounted = p
	return nil
}

// Options describes both choices for rendering. Only the selected, enabled
// option is expanded.
func (s *Selector) Options() []Option {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Option, 0, len(Methods))
	for _, m := range Methods {
		selected := m == s.method
		out = append(out, Option{
			Value:    m,
			LabelKey: "donation-flow:payment-method.field.method." + string(m),
			FeeKey:   "donation-flow:payment-method.field." + string(m) + "-fee",
			Disabled: !s.enabled(m),
			Selected: selected,
			Expanded: selected && s.enabled(m),
		})
	}
	return out
}

// Close unmounts whatever is mounted.
func (s *Selector) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mounted != nil {
		s.mounted.Unmount()
		s.mounted = nil
	}
}
