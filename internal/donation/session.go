package donation

import (
	"context"
	"regexp"
	"sync"
)

// SessionRequest asks the payment processor for a new payment session.
type SessionRequest struct {
	Amount    int64
	Currency  string
	Slug      string
	Method    Method
	Recurring bool
}

// SessionProvider creates hosted payment sessions.
type SessionProvider interface {
	CreateSession(ctx context.Context, req SessionRequest) (*PaymentSession, error)
}

var clientSecretPattern = regexp.MustCompile(`^pi_[A-Za-z0-9]+_secret_[A-Za-z0-9]+$`)

// PaymentSession is one hosted payment form, scoped to a client secret.
// It is never retried: a failed session is replaced by a new attempt.
type PaymentSession struct {
	IntentID       string `json:"intentId"`
	ClientSecret   string `json:"clientSecret"`
	PublishableKey string `json:"publishableKey"`
	Locale         string `json:"locale"`
	Amount         int64  `json:"amount"`
	Currency       string `json:"currency"`

	mu      sync.Mutex
	mounted bool
}

// Mount initializes the hosted form. It fails with ErrInvalidClientSecret
// when the secret is missing or malformed.
func (s *PaymentSession) Mount() error {
	if s == nil || !clientSecretPattern.MatchString(s.ClientSecret) {
		return ErrInvalidClientSecret
	}
	s.mu.Lock()
	s.mounted = true
	s.mu.Unlock()
	return nil
}

func (s *PaymentSession) Unmount() {
	if s == nil {
		return
	}
	s.mu.Lock()
	s.mounted = false
	s.mu.Unlock()
}

func (s *PaymentSession) Mounted() bool {
	if s == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mounted
}

// Appearance is the visual theme handed to the hosted payment form.
type Appearance struct {
	Theme      string `json:"theme"`
	ColorText  string `json:"colorText"`
	FontFamily string `json:"fontFamily"`
}

var DefaultAppearance = Appearance{
	Theme:      "stripe",
	ColorText:  "rgb(0, 0, 0)",
	FontFamily: "Montserrat, 'Helvetica Neue', Helvetica, Arial, sans-serif",
}
