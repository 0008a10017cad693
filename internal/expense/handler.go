package expense

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/frahmantamala/campaign-portal/internal"
	"github.com/frahmantamala/campaign-portal/internal/campaign"
	"github.com/frahmantamala/campaign-portal/internal/form"
	"github.com/frahmantamala/campaign-portal/internal/metrics"
	"github.com/frahmantamala/campaign-portal/internal/notice"
	"github.com/frahmantamala/campaign-portal/internal/transport"
	"github.com/frahmantamala/campaign-portal/pkg/logger"
	"github.com/go-chi/chi"
)

type ServiceAPI interface {
	Load(ctx context.Context, slug string, mode Mode, id string) (*Page, error)
	Submit(ctx context.Context, sub Submission) (*Result, error)
	ListByCampaign(ctx context.Context, slug string) ([]Expense, error)
	Files(ctx context.Context, expenseID string) ([]File, error)
	DownloadURL(fileID string) string
	Content(ctx context.Context, fileID string) (*File, []byte, error)
}

type Handler struct {
	*transport.BaseHandler
	Service   ServiceAPI
	Campaigns CampaignFinder
	Binder    *form.Binder
}

func NewHandler(service ServiceAPI, campaigns CampaignFinder, binder *form.Binder, view *transport.View) *Handler {
	return &Handler{
		BaseHandler: transport.NewBaseHandler(logger.LoggerWrapper(), view),
		Service:     service,
		Campaigns:   campaigns,
		Binder:      binder,
	}
}

type fileLink struct {
	File
	URL string
}

type formView struct {
	Mode       string
	Slug       string
	ExpenseID  string
	Action     string
	NoVault    bool
	State      *form.State
	Files      []fileLink
	Types      []Type
	Statuses   []Status
	Currencies []Currency
}

type row struct {
	Expense
	Display string
	EditURL string
}

type listView struct {
	Campaign *campaign.Campaign
	Rows     []row
	Totals   []Total
	NewURL   string
	CanEdit  bool
}

func (h *Handler) newFormView(mode Mode, slug, id string) *formView {
	action := fmt.Sprintf("/campaigns/%s/expenses", slug)
	if mode == ModeEdit {
		action = fmt.Sprintf("/campaigns/%s/expenses/%s", slug, id)
	}
	return &formView{
		Mode:       mode.String(),
		Slug:       slug,
		ExpenseID:  id,
		Action:     action,
		Types:      Types,
		Statuses:   Statuses,
		Currencies: Currencies,
	}
}

func (h *Handler) links(files []File) []fileLink {
	out := make([]fileLink, 0, len(files))
	for _, f := range files {
		out = append(out, fileLink{File: f, URL: h.Service.DownloadURL(f.ID)})
	}
	return out
}

// List renders the campaign expenses table.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	c, err := h.Campaigns.GetBySlug(r.Context(), slug)
	if err != nil {
		h.RenderError(w, r, err)
		return
	}

	expenses, err := h.Service.ListByCampaign(r.Context(), slug)
	if err != nil {
		h.Logger.Error("List: service error", "error", err, "campaign", slug)
		h.RenderError(w, r, err)
		return
	}

	p, _ := internal.PrincipalFromContext(r.Context())
	view := listView{
		Campaign: c,
		Totals:   Totals(expenses),
		NewURL:   fmt.Sprintf("/campaigns/%s/expenses/new", slug),
		CanEdit:  p.HasRole(internal.RoleAdmin),
	}
	for _, e := range expenses {
		if e.Deleted {
			continue
		}
		view.Rows = append(view.Rows, row{
			Expense: e,
			Display: FromMinor(e.Amount),
			EditURL: fmt.Sprintf("/campaigns/%s/expenses/%s", slug, e.ID),
		})
	}

	h.Render(w, r, http.StatusOK, "expense_list.html", view)
}

// New renders an empty expense form with the campaign's default vault.
func (h *Handler) New(w http.ResponseWriter, r *http.Request) {
	h.show(w, r, ModeCreate, "")
}

// Edit renders the form pre-populated from an existing record.
func (h *Handler) Edit(w http.ResponseWriter, r *http.Request) {
	h.show(w, r, ModeEdit, chi.URLParam(r, "id"))
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request, mode Mode, id string) {
	slug := chi.URLParam(r, "slug")
	view := h.newFormView(mode, slug, id)

	page, err := h.Service.Load(r.Context(), slug, mode, id)
	if err != nil {
		h.RenderError(w, r, err)
		return
	}
	if !page.Campaign.HasDefaultVault() {
		view.NoVault = true
		h.Render(w, r, http.StatusOK, "expense_form.html", view)
		return
	}

	state, err := h.Binder.Populate(page.Form)
	if err != nil {
		h.RenderError(w, r, internal.NewInternalError("failed to render form", err))
		return
	}
	view.State = state
	view.Files = h.links(page.Files)

	h.Render(w, r, http.StatusOK, "expense_form.html", view)
}

// Create handles the create-mode submission.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	h.submit(w, r, ModeCreate, "")
}

// Update handles the edit-mode submission.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	h.submit(w, r, ModeEdit, chi.URLParam(r, "id"))
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request, mode Mode, id string) {
	slug := chi.URLParam(r, "slug")
	tr := h.T(r)
	view := h.newFormView(mode, slug, id)

	successKey, errorKey := "expenses:alerts.new-row.success", "expenses:alerts.new-row.error"
	if mode == ModeEdit {
		successKey, errorKey = "expenses:alerts.edit-row.success", "expenses:alerts.edit-row.error"
	}

	c, err := h.Campaigns.GetBySlug(r.Context(), slug)
	if err != nil {
		h.RenderError(w, r, err)
		return
	}
	if !c.HasDefaultVault() {
		h.renderNoVault(w, r, mode, view)
		return
	}

	var f Form
	state, err := h.Binder.Bind(r, &f, tr)
	if err != nil {
		h.Logger.Error("submit: invalid form body", "error", err)
		h.RenderError(w, r, internal.NewValidationError("invalid form body", internal.ErrCodeValidationFailed))
		return
	}
	view.State = state

	uploads, err := readUploads(state.Files("files"))
	if err != nil {
		state.SetFieldError("files", tr.T("validation:invalid"))
	}
	if state.HasErrors() {
		h.renderInvalid(w, r, view)
		return
	}

	res, err := h.Service.Submit(r.Context(), Submission{
		Mode:         mode,
		ExpenseID:    id,
		CampaignSlug: slug,
		Form:         f,
		Uploads:      uploads,
	})
	switch {
	case err == nil:
		metrics.ExpenseSubmissions.WithLabelValues(mode.String(), "saved").Inc()
		h.Notify(r, notice.SeveritySuccess, successKey)
		h.Redirect(w, r, fmt.Sprintf("/campaigns/%s/expenses", slug))
	case errors.Is(err, internal.ErrNoDefaultVault):
		h.renderNoVault(w, r, mode, view)
	case errors.Is(err, ErrUploadFailed) && res != nil && res.Expense != nil:
		metrics.ExpenseSubmissions.WithLabelValues(mode.String(), "upload_failed").Inc()
		h.Notify(r, notice.SeverityWarning, "expenses:alerts.upload.error")
		h.Redirect(w, r, fmt.Sprintf("/campaigns/%s/expenses/%s", slug, res.Expense.ID))
	default:
		metrics.ExpenseSubmissions.WithLabelValues(mode.String(), "rejected").Inc()
		if appErr, ok := internal.IsAppError(err); ok {
			state.ApplyFieldErrors(appErr.FieldErrors(), tr)
		}
		h.Logger.Warn("submit: expense not saved", "error", err, "mode", mode.String(), "campaign", slug)
		h.Notify(r, notice.SeverityError, errorKey)
		h.renderInvalid(w, r, view)
	}
}

func (h *Handler) renderNoVault(w http.ResponseWriter, r *http.Request, mode Mode, view *formView) {
	metrics.ExpenseSubmissions.WithLabelValues(mode.String(), "rejected").Inc()
	view.NoVault = true
	view.State = nil
	h.Render(w, r, http.StatusPreconditionFailed, "expense_form.html", view)
}

func (h *Handler) renderInvalid(w http.ResponseWriter, r *http.Request, view *formView) {
	if view.ExpenseID != "" {
		if files, err := h.Service.Files(r.Context(), view.ExpenseID); err == nil {
			view.Files = h.links(files)
		}
	}
	h.Render(w, r, http.StatusUnprocessableEntity, "expense_form.html", view)
}

// Download serves a file stored by the local backend.
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	f, data, err := h.Service.Content(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.RenderError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", f.Mimetype)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", f.Filename))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		h.Logger.Error("Download: write failed", "error", err, "file_id", f.ID)
	}
}

func readUploads(headers []*multipart.FileHeader) ([]Upload, error) {
	uploads := make([]Upload, 0, len(headers))
	for _, fh := range headers {
		if fh.Size == 0 && fh.Filename == "" {
			continue
		}
		file, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", fh.Filename, err)
		}
		data, err := io.ReadAll(file)
		file.Close()
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", fh.Filename, err)
		}
		mimetype := fh.Header.Get("Content-Type")
		if mimetype == "" || mimetype == "application/octet-stream" {
			mimetype = http.DetectContentType(data)
		}
		uploads = append(uploads, Upload{Filename: fh.Filename, Mimetype: mimetype, Data: data})
	}
	return uploads, nil
}
