package postgres

import (
	"context"
	"errors"

	"github.com/frahmantamala/campaign-portal/internal"
	"github.com/frahmantamala/campaign-portal/internal/campaign"
	campaignDatamodel "github.com/frahmantamala/campaign-portal/internal/core/datamodel/campaign"
	"gorm.io/gorm"
)

// CampaignRepository implements campaign.Repository using GORM
type CampaignRepository struct {
	db *gorm.DB
}

func NewCampaignRepository(db *gorm.DB) *CampaignRepository {
	return &CampaignRepository{db: db}
}

func (r *CampaignRepository) GetBySlug(ctx context.Context, slug string) (*campaign.Campaign, error) {
	var row campaignDatamodel.Campaign
	err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrCampaignNotFound
		}
		return nil, err
	}
	c := toDomain(row)
	return &c, nil
}

// List returns all campaigns, newest first
func (r *CampaignRepository) List(ctx context.Context) ([]campaign.Campaign, error) {
	var rows []campaignDatamodel.Campaign
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]campaign.Campaign, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDomain(row))
	}
	return out, nil
}

func toDomain(row campaignDatamodel.Campaign) campaign.Campaign {
	c := campaign.Campaign{
		ID:           row.ID,
		Slug:         row.Slug,
		Title:        row.Title,
		State:        row.State,
		Description:  row.Description,
		TargetAmount: row.TargetAmount,
		Currency:     row.Currency,
		CreatedAt:    row.CreatedAt,
	}
	if row.DefaultVault != nil {
		c.DefaultVault = *row.DefaultVault
	}
	return c
}
