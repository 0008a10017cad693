package expense

import (
	"context"
	"errors"
	"log/slog"

	"github.com/frahmantamala/campaign-portal/internal"
	"github.com/frahmantamala/campaign-portal/internal/cache"
	"github.com/frahmantamala/campaign-portal/internal/campaign"
	"github.com/frahmantamala/campaign-portal/internal/core/common/validation"
	"github.com/frahmantamala/campaign-portal/internal/core/events"
	"golang.org/x/sync/errgroup"
)

// Repository stores expense records.
type Repository interface {
	GetByID(ctx context.Context, id string) (*Expense, error)
	ListByCampaign(ctx context.Context, slug string) ([]Expense, error)
	Create(ctx context.Context, slug string, in Input) (*Expense, error)
	Update(ctx context.Context, id string, in Input) (*Expense, error)
}

// FileStore keeps the documents attached to an expense.
type FileStore interface {
	ListFiles(ctx context.Context, expenseID string) ([]File, error)
	UploadFiles(ctx context.Context, expenseID string, uploads []Upload) ([]File, error)
	DownloadURL(fileID string) string
}

// ContentStore is implemented by file stores that can serve file bytes themselves.
type ContentStore interface {
	Content(ctx context.Context, fileID string) (*File, []byte, error)
}

type CampaignFinder interface {
	GetBySlug(ctx context.Context, slug string) (*campaign.Campaign, error)
}

type Publisher interface {
	Publish(ctx context.Context, event events.Event) error
}

// Page is everything the expense form needs to render.
type Page struct {
	Mode     Mode
	Campaign *campaign.Campaign
	Expense  *Expense
	Files    []File
	Form     Form
}

// Submission is one press of the save button.
type Submission struct {
	Mode         Mode
	ExpenseID    string
	CampaignSlug string
	Form         Form
	Uploads      []Upload
}

type Result struct {
	Expense *Expense
	Files   []File
}

type Service struct {
	repo      Repository
	files     FileStore
	campaigns CampaignFinder
	publisher Publisher
	lists     *cache.LRU[[]Expense]
	logger    *slog.Logger
}

func NewService(repo Repository, files FileStore, campaigns CampaignFinder, publisher Publisher, lists *cache.LRU[[]Expense], logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		files:     files,
		campaigns: campaigns,
		publisher: publisher,
		lists:     lists,
		logger:    logger,
	}
}

// Load fetches what the form page needs. The campaign is resolved first; a
// campaign without a default vault yields a page with no record or files.
// Otherwise edit mode loads the record and its files concurrently.
func (s *Service) Load(ctx context.Context, slug string, mode Mode, id string) (*Page, error) {
	c, err := s.campaigns.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	page := &Page{Mode: mode, Campaign: c}
	if !c.HasDefaultVault() {
		return page, nil
	}

	if mode == ModeCreate {
		page.Form = DefaultForm(c.DefaultVault)
		return page, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		e, err := s.repo.GetByID(gctx, id)
		page.Expense = e
		return err
	})
	g.Go(func() error {
		files, err := s.files.ListFiles(gctx, id)
		page.Files = files
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Error("failed to load expense", "error", err, "expense_id", id, "campaign", slug)
		return nil, err
	}

	page.Form = FormFromExpense(page.Expense)
	if page.Form.VaultID == "" {
		page.Form.VaultID = c.DefaultVault
	}
	return page, nil
}

// Submit saves the record, then uploads the staged files against the saved
// record's id. A campaign without a default vault fails before any expense
// or file call. When the upload fails the saved record is returned together
// with ErrUploadFailed.
func (s *Service) Submit(ctx context.Context, sub Submission) (*Result, error) {
	c, err := s.campaigns.GetBySlug(ctx, sub.CampaignSlug)
	if err != nil {
		return nil, err
	}
	if !c.HasDefaultVault() {
		s.logger.Warn("expense submit blocked: no default vault", "campaign", sub.CampaignSlug)
		return nil, internal.ErrNoDefaultVault
	}

	f := sub.Form
	if sub.Mode == ModeCreate || f.VaultID == "" {
		f.VaultID = c.DefaultVault
	}

	in, err := f.ToInput()
	if err != nil {
		return nil, internal.NewValidationFieldError("amount", err.Error(), "isNumber")
	}
	if appErr := validateInput(in); appErr != nil {
		return nil, appErr
	}

	var saved *Expense
	switch sub.Mode {
	case ModeEdit:
		saved, err = s.repo.Update(ctx, sub.ExpenseID, in)
	default:
		saved, err = s.repo.Create(ctx, sub.CampaignSlug, in)
	}
	if err != nil {
		s.logger.Error("failed to save expense", "error", err, "mode", sub.Mode.String(), "campaign", sub.CampaignSlug)
		return nil, err
	}

	s.invalidate(sub.CampaignSlug)
	s.publish(ctx, events.NewExpenseEvent(events.EventTypeExpenseSaved, saved.ID, sub.CampaignSlug, sub.Mode.String(), len(sub.Uploads)))

	res := &Result{Expense: saved}
	if len(sub.Uploads) == 0 {
		return res, nil
	}

	files, err := s.files.UploadFiles(ctx, saved.ID, sub.Uploads)
	if err != nil {
		s.logger.Error("failed to upload expense files", "error", err, "expense_id", saved.ID, "files", len(sub.Uploads))
		s.publish(ctx, events.NewExpenseEvent(events.EventTypeExpenseUploadFailed, saved.ID, sub.CampaignSlug, sub.Mode.String(), len(sub.Uploads)))
		return res, ErrUploadFailed.WithCause(err)
	}
	res.Files = files
	s.publish(ctx, events.NewExpenseEvent(events.EventTypeExpenseFilesUploaded, saved.ID, sub.CampaignSlug, sub.Mode.String(), len(files)))

	s.logger.Info("expense saved",
		"expense_id", saved.ID,
		"mode", sub.Mode.String(),
		"campaign", sub.CampaignSlug,
		"files", len(files))

	return res, nil
}

// ListByCampaign returns the campaign's expenses, served from cache while fresh.
func (s *Service) ListByCampaign(ctx context.Context, slug string) ([]Expense, error) {
	if s.lists != nil {
		if cached, ok := s.lists.Get(slug); ok {
			return cached, nil
		}
	}
	list, err := s.repo.ListByCampaign(ctx, slug)
	if err != nil {
		s.logger.Error("failed to list expenses", "error", err, "campaign", slug)
		return nil, err
	}
	if s.lists != nil {
		s.lists.Set(slug, list)
	}
	return list, nil
}

func (s *Service) Files(ctx context.Context, expenseID string) ([]File, error) {
	return s.files.ListFiles(ctx, expenseID)
}

func (s *Service) DownloadURL(fileID string) string {
	return s.files.DownloadURL(fileID)
}

// Content returns a stored file when the file store serves bytes locally.
func (s *Service) Content(ctx context.Context, fileID string) (*File, []byte, error) {
	cs, ok := s.files.(ContentStore)
	if !ok {
		return nil, nil, internal.ErrFileNotFound
	}
	return cs.Content(ctx, fileID)
}

// OnExpenseSaved drops cached lists when a record changes elsewhere.
func (s *Service) OnExpenseSaved(_ context.Context, event events.Event) error {
	e, ok := event.(*events.ExpenseEvent)
	if !ok {
		return errors.New("unexpected event payload")
	}
	s.invalidate(e.CampaignSlug)
	return nil
}

func (s *Service) invalidate(slug string) {
	if s.lists != nil {
		s.lists.Delete(slug)
	}
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish expense event", "error", err, "event_type", event.EventType())
	}
}

func validateInput(in Input) *internal.AppError {
	v := validation.NewValidator()
	v.Field("type", string(in.Type)).Required().OneOf(enumStrings(Types)...)
	v.Field("status", string(in.Status)).Required().OneOf(enumStrings(Statuses)...)
	v.Field("currency", string(in.Currency)).Required().OneOf(enumStrings(Currencies)...)
	v.Field("vaultId", in.VaultID).Required()
	v.Field("amount", in.Amount).MinInt(0)
	v.Field("description", in.Description).MaxLength(1000)
	v.Field("spentAt", in.SpentAt).Required().ISODate()
	return v.Validate()
}

func enumStrings[T ~string](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}
