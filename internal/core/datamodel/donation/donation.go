package donation

import "time"

// Attempt is a row of the donation_attempts ledger.
type Attempt struct {
	IntentID     string    `db:"intent_id"`
	CampaignSlug string    `db:"campaign_slug"`
	Amount       int64     `db:"amount"`
	Currency     string    `db:"currency"`
	Method       string    `db:"method"`
	Status       string    `db:"status"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}
