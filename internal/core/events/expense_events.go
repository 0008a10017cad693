package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeExpenseSaved         = "expense.saved"
	EventTypeExpenseUploadFailed  = "expense.upload_failed"
	EventTypeExpenseFilesUploaded = "expense.files_uploaded"
)

type ExpenseEvent struct {
	BaseEvent
	ExpenseID    string `json:"expense_id"`
	CampaignSlug string `json:"campaign_slug"`
	Mode         string `json:"mode"`
	Files        int    `json:"files"`
}

func NewExpenseEvent(eventType, expenseID, slug, mode string, files int) *ExpenseEvent {
	return &ExpenseEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      eventType,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"expense_id":    expenseID,
				"campaign_slug": slug,
				"mode":          mode,
				"files":         files,
			},
		},
		ExpenseID:    expenseID,
		CampaignSlug: slug,
		Mode:         mode,
		Files:        files,
	}
}
