package apiclient

import (
	"context"
	"errors"
	"net/url"

	"github.com/frahmantamala/campaign-portal/internal"
	"github.com/frahmantamala/campaign-portal/internal/campaign"
)

// CampaignRepository implements campaign.Repository over the backend API.
type CampaignRepository struct {
	client *Client
}

func NewCampaignRepository(client *Client) *CampaignRepository {
	return &CampaignRepository{client: client}
}

func (r *CampaignRepository) GetBySlug(ctx context.Context, slug string) (*campaign.Campaign, error) {
	var c campaign.Campaign
	if err := r.client.getJSON(ctx, "/campaign/"+url.PathEscape(slug), &c); err != nil {
		if errors.Is(err, errNotFound) {
			return nil, internal.ErrCampaignNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *CampaignRepository) List(ctx context.Context) ([]campaign.Campaign, error) {
	var list []campaign.Campaign
	if err := r.client.getJSON(ctx, "/campaign/list", &list); err != nil {
		return nil, err
	}
	return list, nil
}
