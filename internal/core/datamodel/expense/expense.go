package expense

import "time"

type Expense struct {
	ID           string    `gorm:"primaryKey;type:uuid"`
	CampaignSlug string    `gorm:"column:campaign_slug;index;not null"`
	Type         string    `gorm:"column:type;not null;default:'none'"`
	Status       string    `gorm:"column:status;not null;default:'pending'"`
	Currency     string    `gorm:"column:currency;not null;default:'BGN'"`
	Amount       int64     `gorm:"column:amount;not null"`
	Description  string    `gorm:"column:description"`
	VaultID      string    `gorm:"column:vault_id;type:uuid;not null"`
	DocumentID   *string   `gorm:"column:document_id;type:uuid"`
	ApprovedByID *string   `gorm:"column:approved_by_id;type:uuid"`
	SpentAt      time.Time `gorm:"column:spent_at"`
	Deleted      bool      `gorm:"column:deleted;default:false"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Expense) TableName() string {
	return "expenses"
}

// ExpenseFile is an attachment stored next to its expense.
type ExpenseFile struct {
	ID        string    `gorm:"primaryKey;type:uuid"`
	ExpenseID string    `gorm:"column:expense_id;type:uuid;index;not null"`
	Filename  string    `gorm:"column:filename;not null"`
	Mimetype  string    `gorm:"column:mimetype;not null"`
	Content   []byte    `gorm:"column:content;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (ExpenseFile) TableName() string {
	return "expense_files"
}
