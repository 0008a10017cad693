package campaign

import (
	"context"
	"time"
)

type Campaign struct {
	ID           string    `json:"id"`
	Slug         string    `json:"slug"`
	Title        string    `json:"title"`
	State        string    `json:"state"`
	Description  string    `json:"description"`
	DefaultVault string    `json:"defaultVault"`
	TargetAmount int64     `json:"targetAmount"`
	Currency     string    `json:"currency"`
	CreatedAt    time.Time `json:"createdAt"`
}

const StateActive = "active"

// HasDefaultVault reports whether expenses can be booked against the campaign.
func (c *Campaign) HasDefaultVault() bool {
	return c != nil && c.DefaultVault != ""
}

func (c Campaign) Key() string {
	return c.ID
}

// Repository reads campaigns from wherever the backend keeps them.
type Repository interface {
	GetBySlug(ctx context.Context, slug string) (*Campaign, error)
	List(ctx context.Context) ([]Campaign, error)
}
