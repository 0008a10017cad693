package expense_test

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"os"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"pgregory.net/rapid"

	"github.com/frahmantamala/campaign-portal/internal"
	"github.com/frahmantamala/campaign-portal/internal/cache"
	"github.com/frahmantamala/campaign-portal/internal/campaign"
	"github.com/frahmantamala/campaign-portal/internal/core/events"
	"github.com/frahmantamala/campaign-portal/internal/expense"
)

// Mock repository for testing
type mockExpenseRepository struct {
	mu          sync.Mutex
	expenses    map[string]*expense.Expense
	created     []expense.Input
	updated     map[string]expense.Input
	listCalls   int
	getCalls    int
	createError error
	nextID      int
}

func newMockExpenseRepository() *mockExpenseRepository {
	return &mockExpenseRepository{
		expenses: make(map[string]*expense.Expense),
		updated:  make(map[string]expense.Input),
	}
}

func (m *mockExpenseRepository) GetByID(_ context.Context, id string) (*expense.Expense, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getCalls++
	e, ok := m.expenses[id]
	if !ok {
		return nil, internal.ErrExpenseNotFound
	}
	return e, nil
}

func (m *mockExpenseRepository) ListByCampaign(_ context.Context, _ string) ([]expense.Expense, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listCalls++
	out := make([]expense.Expense, 0, len(m.expenses))
	for _, e := range m.expenses {
		out = append(out, *e)
	}
	return out, nil
}

func (m *mockExpenseRepository) Create(_ context.Context, _ string, in expense.Input) (*expense.Expense, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.created = append(m.created, in)
	if m.createError != nil {
		return nil, m.createError
	}
	m.nextID++
	e := &expense.Expense{ID: "exp-" + string(rune('0'+m.nextID)), Input: in}
	m.expenses[e.ID] = e
	return e, nil
}

func (m *mockExpenseRepository) Update(_ context.Context, id string, in expense.Input) (*expense.Expense, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updated[id] = in
	e := &expense.Expense{ID: id, Input: in}
	m.expenses[id] = e
	return e, nil
}

type mockFileStore struct {
	mu          sync.Mutex
	files       map[string][]expense.File
	uploadCalls []string
	listCalls   int
	uploadError error
}

func newMockFileStore() *mockFileStore {
	return &mockFileStore{files: make(map[string][]expense.File)}
}

func (m *mockFileStore) ListFiles(_ context.Context, expenseID string) ([]expense.File, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listCalls++
	return m.files[expenseID], nil
}

func (m *mockFileStore) UploadFiles(_ context.Context, expenseID string, uploads []expense.Upload) ([]expense.File, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.uploadCalls = append(m.uploadCalls, expenseID)
	if m.uploadError != nil {
		return nil, m.uploadError
	}
	for _, u := range uploads {
		m.files[expenseID] = append(m.files[expenseID], expense.File{ID: "f-" + u.Filename, Filename: u.Filename, Mimetype: u.Mimetype, ExpenseID: expenseID})
	}
	return m.files[expenseID], nil
}

func (m *mockFileStore) DownloadURL(fileID string) string {
	return "https://api.example.org/expenses/download-files/" + fileID
}

type mockCampaigns struct {
	campaigns map[string]*campaign.Campaign
}

func (m *mockCampaigns) GetBySlug(_ context.Context, slug string) (*campaign.Campaign, error) {
	c, ok := m.campaigns[slug]
	if !ok {
		return nil, internal.ErrCampaignNotFound
	}
	return c, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, e := range p.events {
		out = append(out, e.EventType())
	}
	return out
}

const vaultID = "6a1c1a38-7f6c-4f8a-9f55-2d3b1b0e9a11"

func validForm() expense.Form {
	return expense.Form{
		Type:     "medical",
		Status:   "pending",
		Currency: "BGN",
		Money:    "12.34",
		SpentAt:  "2024-01-05",
	}
}

var _ = Describe("ExpenseService", func() {
	var (
		svc       *expense.Service
		repo      *mockExpenseRepository
		files     *mockFileStore
		campaigns *mockCampaigns
		publisher *recordingPublisher
		ctx       context.Context
	)

	BeforeEach(func() {
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		repo = newMockExpenseRepository()
		files = newMockFileStore()
		campaigns = &mockCampaigns{campaigns: map[string]*campaign.Campaign{
			"help-now": {ID: "c1", Slug: "help-now", Title: "Help now", DefaultVault: vaultID},
			"no-vault": {ID: "c2", Slug: "no-vault", Title: "No vault"},
		}}
		publisher = &recordingPublisher{}
		svc = expense.NewService(repo, files, campaigns, publisher, cache.NewLRU[[]expense.Expense](8, time.Minute), logger)
		ctx = context.Background()
	})

	Describe("Submit", func() {
		It("should normalize the payload and create the record", func() {
			// Given
			f := validForm()
			f.DocumentID = ""
			f.ApprovedByID = ""

			// When
			res, err := svc.Submit(ctx, expense.Submission{Mode: expense.ModeCreate, CampaignSlug: "help-now", Form: f})

			// Then
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Expense.ID).NotTo(BeEmpty())
			Expect(repo.created).To(HaveLen(1))
			sent := repo.created[0]
			Expect(sent.Amount).To(Equal(int64(1234)))
			Expect(sent.SpentAt).To(Equal("2024-01-05T00:00:00.000Z"))
			Expect(sent.DocumentID).To(BeNil())
			Expect(sent.ApprovedByID).To(BeNil())
			Expect(sent.VaultID).To(Equal(vaultID))
			Expect(files.uploadCalls).To(BeEmpty())
			Expect(publisher.types()).To(ConsistOf(events.EventTypeExpenseSaved))
		})

		It("should update the record in edit mode", func() {
			f := validForm()
			f.VaultID = "7b2d2b49-8a7d-4b9b-8a66-3e4c2c1f0b22"

			_, err := svc.Submit(ctx, expense.Submission{Mode: expense.ModeEdit, ExpenseID: "exp-9", CampaignSlug: "help-now", Form: f})

			Expect(err).NotTo(HaveOccurred())
			Expect(repo.created).To(BeEmpty())
			Expect(repo.updated).To(HaveKey("exp-9"))
			Expect(repo.updated["exp-9"].VaultID).To(Equal("7b2d2b49-8a7d-4b9b-8a66-3e4c2c1f0b22"))
		})

		It("should upload staged files against the saved record", func() {
			res, err := svc.Submit(ctx, expense.Submission{
				Mode:         expense.ModeCreate,
				CampaignSlug: "help-now",
				Form:         validForm(),
				Uploads:      []expense.Upload{{Filename: "receipt.pdf", Mimetype: "application/pdf", Data: []byte("x")}},
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(files.uploadCalls).To(Equal([]string{res.Expense.ID}))
			Expect(res.Files).To(HaveLen(1))
			Expect(publisher.types()).To(ContainElement(events.EventTypeExpenseFilesUploaded))
		})

		It("should make no expense or file calls when the campaign has no default vault", func() {
			res, err := svc.Submit(ctx, expense.Submission{
				Mode:         expense.ModeCreate,
				CampaignSlug: "no-vault",
				Form:         validForm(),
				Uploads:      []expense.Upload{{Filename: "a.txt", Data: []byte("a")}},
			})

			Expect(res).To(BeNil())
			Expect(err).To(MatchError(internal.ErrNoDefaultVault))
			Expect(repo.created).To(BeEmpty())
			Expect(repo.updated).To(BeEmpty())
			Expect(files.uploadCalls).To(BeEmpty())
			Expect(files.listCalls).To(BeZero())
		})

		It("should keep the saved record when the upload fails", func() {
			files.uploadError = errors.New("storage down")

			res, err := svc.Submit(ctx, expense.Submission{
				Mode:         expense.ModeCreate,
				CampaignSlug: "help-now",
				Form:         validForm(),
				Uploads:      []expense.Upload{{Filename: "a.txt", Data: []byte("a")}},
			})

			Expect(err).To(MatchError(expense.ErrUploadFailed))
			Expect(res).NotTo(BeNil())
			Expect(res.Expense.ID).NotTo(BeEmpty())
			Expect(publisher.types()).To(ContainElement(events.EventTypeExpenseUploadFailed))
		})

		It("should pass server validation errors through with their constraints", func() {
			repo.createError = internal.NewValidationError("Validation failed", internal.ErrCodeValidationFailed).
				WithDetails(internal.ValidationErrors{Errors: []internal.ValidationError{{Field: "description", Code: "maxLength"}}})

			_, err := svc.Submit(ctx, expense.Submission{Mode: expense.ModeCreate, CampaignSlug: "help-now", Form: validForm()})

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.FieldErrors()).To(ConsistOf(internal.ValidationError{Field: "description", Code: "maxLength"}))
		})

		It("should reject an unknown enumeration value before calling the repository", func() {
			f := validForm()
			f.Type = "ufo"

			_, err := svc.Submit(ctx, expense.Submission{Mode: expense.ModeCreate, CampaignSlug: "help-now", Form: f})

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.FieldErrors()[0].Field).To(Equal("type"))
			Expect(repo.created).To(BeEmpty())
		})
	})

	Describe("Load", func() {
		It("should start create mode from defaults and the campaign vault", func() {
			page, err := svc.Load(ctx, "help-now", expense.ModeCreate, "")

			Expect(err).NotTo(HaveOccurred())
			Expect(page.Form.Type).To(Equal("none"))
			Expect(page.Form.Currency).To(Equal("BGN"))
			Expect(page.Form.VaultID).To(Equal(vaultID))
			Expect(files.listCalls).To(BeZero())
		})

		It("should pre-populate edit mode from the record", func() {
			// Given
			doc := "0b7f4f64-3e0d-4a51-a6a4-8c1e3a2c6b52"
			repo.expenses["exp-1"] = &expense.Expense{ID: "exp-1", Input: expense.Input{
				Type: expense.TypeBank, Status: expense.StatusApproved, Currency: expense.CurrencyEUR,
				Amount: 1234, VaultID: vaultID, DocumentID: &doc, SpentAt: "2024-01-05T00:00:00.000Z",
			}}
			files.files["exp-1"] = []expense.File{{ID: "f1", Filename: "r.pdf", ExpenseID: "exp-1"}}

			// When
			page, err := svc.Load(ctx, "help-now", expense.ModeEdit, "exp-1")

			// Then
			Expect(err).NotTo(HaveOccurred())
			Expect(page.Form.Money).To(Equal("12.34"))
			Expect(page.Form.SpentAt).To(Equal("2024-01-05"))
			Expect(page.Form.DocumentID).To(Equal(doc))
			Expect(page.Files).To(HaveLen(1))
			Expect(page.Campaign.Slug).To(Equal("help-now"))
		})

		It("should skip the record and file lookups in edit mode when the campaign has no default vault", func() {
			// Given
			repo.expenses["exp-1"] = &expense.Expense{ID: "exp-1", Input: expense.Input{Amount: 1234}}

			// When
			page, err := svc.Load(ctx, "no-vault", expense.ModeEdit, "exp-1")

			// Then
			Expect(err).NotTo(HaveOccurred())
			Expect(page.Campaign.Slug).To(Equal("no-vault"))
			Expect(page.Campaign.HasDefaultVault()).To(BeFalse())
			Expect(page.Expense).To(BeNil())
			Expect(page.Files).To(BeEmpty())
			Expect(repo.getCalls).To(BeZero())
			Expect(files.listCalls).To(BeZero())
		})

		It("should not report a missing record for a campaign without a default vault", func() {
			page, err := svc.Load(ctx, "no-vault", expense.ModeEdit, "missing")

			Expect(err).NotTo(HaveOccurred())
			Expect(page.Expense).To(BeNil())
			Expect(repo.getCalls).To(BeZero())
		})

		It("should fail when the record does not exist", func() {
			_, err := svc.Load(ctx, "help-now", expense.ModeEdit, "missing")
			Expect(err).To(MatchError(internal.ErrExpenseNotFound))
		})
	})

	Describe("ListByCampaign", func() {
		It("should serve repeated reads from cache until a save invalidates it", func() {
			_, err := svc.ListByCampaign(ctx, "help-now")
			Expect(err).NotTo(HaveOccurred())
			_, err = svc.ListByCampaign(ctx, "help-now")
			Expect(err).NotTo(HaveOccurred())
			Expect(repo.listCalls).To(Equal(1))

			Expect(svc.OnExpenseSaved(ctx, events.NewExpenseEvent(events.EventTypeExpenseSaved, "e", "help-now", "edit", 0))).To(Succeed())

			_, err = svc.ListByCampaign(ctx, "help-now")
			Expect(err).NotTo(HaveOccurred())
			Expect(repo.listCalls).To(Equal(2))
		})
	})
})

var _ = Describe("money conversion", func() {
	It("should convert decimal amounts to minor units", func() {
		Expect(expense.ToMinor("12.34")).To(Equal(int64(1234)))
		Expect(expense.ToMinor("0")).To(Equal(int64(0)))
		Expect(expense.FromMinor(1234)).To(Equal("12.34"))
		Expect(expense.FromMinor(5)).To(Equal("0.05"))
	})

	It("should reject amounts beyond the int64 range of minor units", func() {
		_, err := expense.ToMinor("184467440737095516.16")
		Expect(err).To(HaveOccurred())
		_, err = expense.ToMinor("92233720368547758.08")
		Expect(err).To(HaveOccurred())
		Expect(expense.ValidMoney("184467440737095516.16")).To(BeFalse())

		Expect(expense.ToMinor("92233720368547758.07")).To(Equal(int64(math.MaxInt64)))
		Expect(expense.ValidMoney("92233720368547758.07")).To(BeTrue())
	})

	It("should reject negative amounts", func() {
		_, err := expense.ToMinor("-1")
		Expect(err).To(HaveOccurred())
		Expect(expense.ValidMoney("-1")).To(BeFalse())
		Expect(expense.ValidMoney("1.234")).To(BeFalse())
		Expect(expense.ValidMoney("1.2")).To(BeTrue())
	})

	It("should round-trip any minor amount", func() {
		rapid.Check(GinkgoT(), func(t *rapid.T) {
			amount := rapid.Int64Range(0, 1<<40).Draw(t, "amount")
			got, err := expense.ToMinor(expense.FromMinor(amount))
			if err != nil || got != amount {
				t.Fatalf("round trip of %d gave %d (%v)", amount, got, err)
			}
		})
	})
})

var _ = Describe("form helpers", func() {
	It("should resolve the mode from the route id", func() {
		Expect(expense.ResolveMode("")).To(Equal(expense.ModeCreate))
		Expect(expense.ResolveMode("abc")).To(Equal(expense.ModeEdit))
	})

	It("should only suffix bare dates", func() {
		Expect(expense.NormalizeSpentAt("2024-01-05")).To(Equal("2024-01-05T00:00:00.000Z"))
		Expect(expense.NormalizeSpentAt("2024-01-05T10:00:00.000Z")).To(Equal("2024-01-05T10:00:00.000Z"))
	})

	It("should total non-deleted expenses per currency", func() {
		totals := expense.Totals([]expense.Expense{
			{ID: "1", Input: expense.Input{Currency: expense.CurrencyBGN, Amount: 100}},
			{ID: "2", Input: expense.Input{Currency: expense.CurrencyBGN, Amount: 250}},
			{ID: "3", Input: expense.Input{Currency: expense.CurrencyEUR, Amount: 5, Deleted: true}},
		})
		Expect(totals).To(Equal([]expense.Total{{Currency: expense.CurrencyBGN, Amount: 350}}))
		Expect(totals[0].Display()).To(Equal("3.50"))
	})
})
