package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	datamodel "github.com/frahmantamala/campaign-portal/internal/core/datamodel/donation"
	"github.com/frahmantamala/campaign-portal/internal/donation"
	"github.com/jmoiron/sqlx"
	"github.com/jonboulle/clockwork"
)

const attemptColumns = `intent_id, campaign_slug, amount, currency, method, status, created_at, updated_at`

type Ledger struct {
	db    *sqlx.DB
	clock clockwork.Clock
}

func NewLedger(db *sqlx.DB, clock clockwork.Clock) *Ledger {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Ledger{db: db, clock: clock}
}

// Record stores a new attempt. Recording the same intent twice keeps the first row.
func (l *Ledger) Record(ctx context.Context, a *datamodel.Attempt) error {
	query := l.db.Rebind(`INSERT INTO donation_attempts (` + attemptColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (intent_id) DO NOTHING`)
	_, err := l.db.ExecContext(ctx, query,
		a.IntentID, a.CampaignSlug, a.Amount, a.Currency, a.Method, a.Status, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert donation attempt: %w", err)
	}
	return nil
}

func (l *Ledger) UpdateStatus(ctx context.Context, intentID, status string) error {
	query := l.db.Rebind(`UPDATE donation_attempts SET status = ?, updated_at = ? WHERE intent_id = ?`)
	res, err := l.db.ExecContext(ctx, query, status, l.clock.Now().UTC(), intentID)
	if err != nil {
		return fmt.Errorf("update donation attempt: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update donation attempt: %w", err)
	}
	if n == 0 {
		return donation.ErrAttemptNotFound
	}
	return nil
}

func (l *Ledger) Get(ctx context.Context, intentID string) (*datamodel.Attempt, error) {
	var a datamodel.Attempt
	query := l.db.Rebind(`SELECT ` + attemptColumns + ` FROM donation_attempts WHERE intent_id = ?`)
	if err := l.db.GetContext(ctx, &a, query, intentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, donation.ErrAttemptNotFound
		}
		return nil, fmt.Errorf("get donation attempt: %w", err)
	}
	return &a, nil
}
