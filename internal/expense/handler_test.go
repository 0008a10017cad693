package expense_test

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing/fstest"
	"time"

	"github.com/go-chi/chi"
	"github.com/jonboulle/clockwork"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/campaign-portal/internal"
	"github.com/frahmantamala/campaign-portal/internal/campaign"
	"github.com/frahmantamala/campaign-portal/internal/expense"
	"github.com/frahmantamala/campaign-portal/internal/form"
	"github.com/frahmantamala/campaign-portal/internal/i18n"
	"github.com/frahmantamala/campaign-portal/internal/notice"
	"github.com/frahmantamala/campaign-portal/internal/transport"
)

var testTemplates = fstest.MapFS{
	"templates/expense_form.html": {Data: []byte(
		`{{if .Data.NoVault}}{{.T.T "expenses:errors.no-default-vault"}}{{else}}mode={{.Data.Mode}} amount={{.Data.State.Value "amount"}}{{range $k, $v := .Data.State.Errors}} err:{{$k}}={{$v}}{{end}}{{end}}{{range .Notices}} notice:{{.Message}}{{end}}`)},
	"templates/expense_list.html": {Data: []byte(
		`{{.Data.Campaign.Title}}{{range .Data.Rows}} row:{{.Display}}{{end}}{{range .Data.Totals}} total:{{.Display}}{{end}}`)},
	"templates/error.html": {Data: []byte(`{{.T.T .Data.MessageKey}}`)},
}

func serverFieldError(field, code string) error {
	return internal.NewValidationError("Validation failed", internal.ErrCodeValidationFailed).
		WithDetails(internal.ValidationErrors{Errors: []internal.ValidationError{{Field: field, Code: code}}})
}

var _ = Describe("ExpenseHandler", func() {
	var (
		router  *chi.Mux
		repo    *mockExpenseRepository
		files   *mockFileStore
		notices *notice.Queue
	)

	BeforeEach(func() {
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		repo = newMockExpenseRepository()
		files = newMockFileStore()
		campaigns := &mockCampaigns{campaigns: map[string]*campaign.Campaign{
			"help-now": {ID: "c1", Slug: "help-now", Title: "Help now", DefaultVault: vaultID},
			"no-vault": {ID: "c2", Slug: "no-vault", Title: "No vault"},
		}}
		svc := expense.NewService(repo, files, campaigns, nil, nil, logger)

		notices = notice.NewQueue(clockwork.NewFakeClock(), 5*time.Second)
		view, err := transport.NewView(testTemplates, i18n.NewBundle("en"), notices, logger)
		Expect(err).NotTo(HaveOccurred())

		binder := form.NewBinder()
		Expect(expense.RegisterValidations(binder)).To(Succeed())

		h := expense.NewHandler(svc, campaigns, binder, view)
		router = chi.NewRouter()
		router.Get("/campaigns/{slug}/expenses", h.List)
		router.Get("/campaigns/{slug}/expenses/new", h.New)
		router.Post("/campaigns/{slug}/expenses", h.Create)
		router.Get("/campaigns/{slug}/expenses/{id}", h.Edit)
		router.Post("/campaigns/{slug}/expenses/{id}", h.Update)
	})

	post := func(path string, values url.Values) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	validValues := func() url.Values {
		return url.Values{
			"type":       {"medical"},
			"status":     {"pending"},
			"currency":   {"BGN"},
			"amount":     {"12.34"},
			"spentAt":    {"2024-01-05"},
			"documentId": {""},
		}
	}

	It("should redirect to the expense list with a success notice after creating", func() {
		// When
		rec := post("/campaigns/help-now/expenses", validValues())

		// Then
		Expect(rec.Code).To(Equal(http.StatusSeeOther))
		Expect(rec.Header().Get("Location")).To(Equal("/campaigns/help-now/expenses"))
		Expect(repo.created).To(HaveLen(1))
		Expect(repo.created[0].Amount).To(Equal(int64(1234)))

		pending := notices.Pending("")
		Expect(pending).To(HaveLen(1))
		Expect(pending[0].Severity).To(Equal(notice.SeveritySuccess))
		Expect(pending[0].Message).To(Equal("Expense created."))
	})

	It("should show inline errors without calling the backend when the form is invalid", func() {
		values := validValues()
		values.Set("type", "ufo")
		values.Set("amount", "1.234")

		rec := post("/campaigns/help-now/expenses", values)

		Expect(rec.Code).To(Equal(http.StatusUnprocessableEntity))
		Expect(rec.Body.String()).To(ContainSubstring("err:amount=Enter a number."))
		Expect(rec.Body.String()).To(ContainSubstring("err:type=Invalid option."))
		Expect(repo.created).To(BeEmpty())
	})

	It("should map server validation errors onto fields and show the error notice", func() {
		repo.createError = serverFieldError("description", "maxLength")

		rec := post("/campaigns/help-now/expenses", validValues())

		Expect(rec.Code).To(Equal(http.StatusUnprocessableEntity))
		Expect(rec.Body.String()).To(ContainSubstring("err:description=Value is too long."))
		Expect(rec.Body.String()).To(ContainSubstring("notice:Could not create the expense."))
		Expect(notices.Pending("")).To(BeEmpty())
	})

	It("should render only the no-default-vault message", func() {
		req := httptest.NewRequest(http.MethodGet, "/campaigns/no-vault/expenses/new", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(Equal("The campaign has no default vault."))
		Expect(repo.created).To(BeEmpty())
		Expect(files.listCalls).To(BeZero())
	})

	It("should render only the no-default-vault message in edit mode without loading the record", func() {
		// Given
		repo.expenses["exp-1"] = &expense.Expense{ID: "exp-1", Input: expense.Input{Amount: 1234}}

		// When
		req := httptest.NewRequest(http.MethodGet, "/campaigns/no-vault/expenses/exp-1", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		// Then
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(Equal("The campaign has no default vault."))
		Expect(repo.getCalls).To(BeZero())
		Expect(files.listCalls).To(BeZero())
	})

	It("should reject an invalid submission with the no-default-vault message instead of field errors", func() {
		// Given
		values := validValues()
		values.Set("type", "ufo")

		// When
		rec := post("/campaigns/no-vault/expenses", values)

		// Then
		Expect(rec.Code).To(Equal(http.StatusPreconditionFailed))
		Expect(rec.Body.String()).To(Equal("The campaign has no default vault."))
		Expect(rec.Body.String()).NotTo(ContainSubstring("err:"))
		Expect(repo.created).To(BeEmpty())
		Expect(files.uploadCalls).To(BeEmpty())
	})

	It("should reject an edit submission for a campaign without a default vault", func() {
		rec := post("/campaigns/no-vault/expenses/exp-1", validValues())

		Expect(rec.Code).To(Equal(http.StatusPreconditionFailed))
		Expect(rec.Body.String()).To(Equal("The campaign has no default vault."))
		Expect(repo.updated).To(BeEmpty())
		Expect(files.listCalls).To(BeZero())
	})

	It("should pre-fill the create form with a zero amount", func() {
		req := httptest.NewRequest(http.MethodGet, "/campaigns/help-now/expenses/new", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(ContainSubstring("mode=create amount=0.00"))
	})

	It("should list expenses with their major-unit totals", func() {
		_ = post("/campaigns/help-now/expenses", validValues())

		req := httptest.NewRequest(http.MethodGet, "/campaigns/help-now/expenses", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(ContainSubstring("row:12.34"))
		Expect(rec.Body.String()).To(ContainSubstring("total:12.34"))
	})
})
