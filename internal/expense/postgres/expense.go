package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/frahmantamala/campaign-portal/internal"
	expenseDatamodel "github.com/frahmantamala/campaign-portal/internal/core/datamodel/expense"
	"github.com/frahmantamala/campaign-portal/internal/expense"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const spentAtLayout = "2006-01-02T15:04:05.000Z"

// ExpenseRepository implements expense.Repository and expense.FileStore using GORM
type ExpenseRepository struct {
	db *gorm.DB
}

// NewExpenseRepository creates a new expense repository
func NewExpenseRepository(db *gorm.DB) *ExpenseRepository {
	return &ExpenseRepository{db: db}
}

// GetByID retrieves an expense by its ID
func (r *ExpenseRepository) GetByID(ctx context.Context, id string) (*expense.Expense, error) {
	var row expenseDatamodel.Expense
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrExpenseNotFound
		}
		return nil, err
	}
	return toDomain(&row), nil
}

// ListByCampaign returns a campaign's expenses, newest spending first
func (r *ExpenseRepository) ListByCampaign(ctx context.Context, slug string) ([]expense.Expense, error) {
	var rows []expenseDatamodel.Expense
	err := r.db.WithContext(ctx).
		Where("campaign_slug = ?", slug).
		Order("spent_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]expense.Expense, 0, len(rows))
	for i := range rows {
		out = append(out, *toDomain(&rows[i]))
	}
	return out, nil
}

// Create saves a new expense to the database
func (r *ExpenseRepository) Create(ctx context.Context, slug string, in expense.Input) (*expense.Expense, error) {
	row, err := fromInput(in)
	if err != nil {
		return nil, err
	}
	row.ID = uuid.NewString()
	row.CampaignSlug = slug
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return toDomain(row), nil
}

// Update overwrites the editable fields of an existing expense
func (r *ExpenseRepository) Update(ctx context.Context, id string, in expense.Input) (*expense.Expense, error) {
	row, err := fromInput(in)
	if err != nil {
		return nil, err
	}

	res := r.db.WithContext(ctx).Model(&expenseDatamodel.Expense{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"type":           row.Type,
			"status":         row.Status,
			"currency":       row.Currency,
			"amount":         row.Amount,
			"description":    row.Description,
			"vault_id":       row.VaultID,
			"document_id":    row.DocumentID,
			"approved_by_id": row.ApprovedByID,
			"spent_at":       row.SpentAt,
			"deleted":        row.Deleted,
			"updated_at":     time.Now(),
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, internal.ErrExpenseNotFound
	}
	return r.GetByID(ctx, id)
}

// ListFiles returns the metadata of an expense's attachments
func (r *ExpenseRepository) ListFiles(ctx context.Context, expenseID string) ([]expense.File, error) {
	var rows []expenseDatamodel.ExpenseFile
	err := r.db.WithContext(ctx).
		Select("id", "expense_id", "filename", "mimetype", "created_at").
		Where("expense_id = ?", expenseID).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]expense.File, 0, len(rows))
	for _, f := range rows {
		out = append(out, toFile(f))
	}
	return out, nil
}

// UploadFiles stores all uploads in one transaction
func (r *ExpenseRepository) UploadFiles(ctx context.Context, expenseID string, uploads []expense.Upload) ([]expense.File, error) {
	rows := make([]expenseDatamodel.ExpenseFile, 0, len(uploads))
	for _, u := range uploads {
		rows = append(rows, expenseDatamodel.ExpenseFile{
			ID:        uuid.NewString(),
			ExpenseID: expenseID,
			Filename:  u.Filename,
			Mimetype:  u.Mimetype,
			Content:   u.Data,
		})
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&expenseDatamodel.Expense{}).Where("id = ?", expenseID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return internal.ErrExpenseNotFound
		}
		return tx.Create(&rows).Error
	})
	if err != nil {
		return nil, err
	}

	out := make([]expense.File, 0, len(rows))
	for _, f := range rows {
		out = append(out, toFile(f))
	}
	return out, nil
}

func (r *ExpenseRepository) DownloadURL(fileID string) string {
	return "/expenses/files/" + fileID
}

// Content loads a stored attachment with its bytes
func (r *ExpenseRepository) Content(ctx context.Context, fileID string) (*expense.File, []byte, error) {
	var row expenseDatamodel.ExpenseFile
	err := r.db.WithContext(ctx).Where("id = ?", fileID).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, internal.ErrFileNotFound
		}
		return nil, nil, err
	}
	f := toFile(row)
	return &f, row.Content, nil
}

func fromInput(in expense.Input) (*expenseDatamodel.Expense, error) {
	spentAt, err := time.Parse(time.RFC3339, in.SpentAt)
	if err != nil {
		return nil, fmt.Errorf("parse spentAt: %w", err)
	}
	return &expenseDatamodel.Expense{
		Type:         string(in.Type),
		Status:       string(in.Status),
		Currency:     string(in.Currency),
		Amount:       in.Amount,
		Description:  in.Description,
		VaultID:      in.VaultID,
		DocumentID:   in.DocumentID,
		ApprovedByID: in.ApprovedByID,
		SpentAt:      spentAt.UTC(),
		Deleted:      in.Deleted,
	}, nil
}

func toDomain(row *expenseDatamodel.Expense) *expense.Expense {
	return &expense.Expense{
		ID: row.ID,
		Input: expense.Input{
			Type:         expense.Type(row.Type),
			Status:       expense.Status(row.Status),
			Currency:     expense.Currency(row.Currency),
			Amount:       row.Amount,
			Description:  row.Description,
			VaultID:      row.VaultID,
			DocumentID:   row.DocumentID,
			ApprovedByID: row.ApprovedByID,
			SpentAt:      row.SpentAt.UTC().Format(spentAtLayout),
			Deleted:      row.Deleted,
		},
	}
}

func toFile(row expenseDatamodel.ExpenseFile) expense.File {
	return expense.File{
		ID:        row.ID,
		Filename:  row.Filename,
		Mimetype:  row.Mimetype,
		ExpenseID: row.ExpenseID,
	}
}
