package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypePaymentSessionCreated = "payment.session_created"
	EventTypePaymentSucceeded      = "payment.succeeded"
	EventTypePaymentFailed         = "payment.failed"
	EventTypePaymentProcessing     = "payment.processing"
)

// PaymentIntentEvent reports a change of a payment intent at the processor.
type PaymentIntentEvent struct {
	BaseEvent
	IntentID     string `json:"intent_id"`
	CampaignSlug string `json:"campaign_slug"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
	Status       string `json:"status"`
}

func NewPaymentIntentEvent(eventType, intentID, slug string, amount int64, currency, status string) *PaymentIntentEvent {
	return &PaymentIntentEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      eventType,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"intent_id":     intentID,
				"campaign_slug": slug,
				"amount":        amount,
				"currency":      currency,
				"status":        status,
			},
		},
		IntentID:     intentID,
		CampaignSlug: slug,
		Amount:       amount,
		Currency:     currency,
		Status:       status,
	}
}
