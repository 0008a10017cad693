package apiclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"

	"github.com/frahmantamala/campaign-portal/internal"
	"github.com/frahmantamala/campaign-portal/internal/expense"
)

// ExpenseRepository implements expense.Repository and expense.FileStore over the backend API.
type ExpenseRepository struct {
	client *Client
}

func NewExpenseRepository(client *Client) *ExpenseRepository {
	return &ExpenseRepository{client: client}
}

func (r *ExpenseRepository) GetByID(ctx context.Context, id string) (*expense.Expense, error) {
	var e expense.Expense
	if err := r.client.getJSON(ctx, "/expenses/"+url.PathEscape(id), &e); err != nil {
		return nil, notFoundAs(err, internal.ErrExpenseNotFound)
	}
	return &e, nil
}

func (r *ExpenseRepository) ListByCampaign(ctx context.Context, slug string) ([]expense.Expense, error) {
	var list []expense.Expense
	if err := r.client.getJSON(ctx, "/expenses/campaign-expenses/"+url.PathEscape(slug), &list); err != nil {
		return nil, notFoundAs(err, internal.ErrCampaignNotFound)
	}
	return list, nil
}

// Create posts a new record. The backend derives the campaign from the vault.
func (r *ExpenseRepository) Create(ctx context.Context, _ string, in expense.Input) (*expense.Expense, error) {
	var e expense.Expense
	if err := r.client.sendJSON(ctx, http.MethodPost, "/expenses/create-expense", in, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *ExpenseRepository) Update(ctx context.Context, id string, in expense.Input) (*expense.Expense, error) {
	var e expense.Expense
	if err := r.client.sendJSON(ctx, http.MethodPatch, "/expenses/"+url.PathEscape(id), in, &e); err != nil {
		return nil, notFoundAs(err, internal.ErrExpenseNotFound)
	}
	return &e, nil
}

func (r *ExpenseRepository) ListFiles(ctx context.Context, expenseID string) ([]expense.File, error) {
	var files []expense.File
	if err := r.client.getJSON(ctx, "/expenses/"+url.PathEscape(expenseID)+"/files", &files); err != nil {
		return nil, notFoundAs(err, internal.ErrExpenseNotFound)
	}
	return files, nil
}

// UploadFiles sends all staged files in one multipart request, one "file" part each.
func (r *ExpenseRepository) UploadFiles(ctx context.Context, expenseID string, uploads []expense.Upload) ([]expense.File, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, u := range uploads {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, u.Filename))
		ct := u.Mimetype
		if ct == "" {
			ct = "application/octet-stream"
		}
		h.Set("Content-Type", ct)
		part, err := mw.CreatePart(h)
		if err != nil {
			return nil, fmt.Errorf("failed to create multipart part: %w", err)
		}
		if _, err := part.Write(u.Data); err != nil {
			return nil, fmt.Errorf("failed to write multipart part: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart body: %w", err)
	}

	var files []expense.File
	path := "/expenses/" + url.PathEscape(expenseID) + "/files"
	if err := r.client.do(ctx, http.MethodPost, path, &buf, mw.FormDataContentType(), &files); err != nil {
		return nil, err
	}
	return files, nil
}

func (r *ExpenseRepository) DownloadURL(fileID string) string {
	return r.client.DownloadURL(fileID)
}

func notFoundAs(err, target error) error {
	if errors.Is(err, errNotFound) {
		return target
	}
	return err
}
