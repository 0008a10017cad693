package campaign

import "time"

type Campaign struct {
	ID           string    `gorm:"primaryKey;type:uuid"`
	Slug         string    `gorm:"column:slug;uniqueIndex;not null"`
	Title        string    `gorm:"column:title;not null"`
	State        string    `gorm:"column:state;not null;default:'active'"`
	Description  string    `gorm:"column:description"`
	DefaultVault *string   `gorm:"column:default_vault;type:uuid"`
	TargetAmount int64     `gorm:"column:target_amount;not null;default:0"`
	Currency     string    `gorm:"column:currency;not null;default:'BGN'"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Campaign) TableName() string {
	return "campaigns"
}
