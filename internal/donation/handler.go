package donation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/frahmantamala/campaign-portal/internal"
	"github.com/frahmantamala/campaign-portal/internal/auth"
	"github.com/frahmantamala/campaign-portal/internal/campaign"
	"github.com/frahmantamala/campaign-portal/internal/form"
	"github.com/frahmantamala/campaign-portal/internal/notice"
	"github.com/frahmantamala/campaign-portal/internal/transport"
	"github.com/frahmantamala/campaign-portal/pkg/logger"
	"github.com/go-chi/chi"
)

const maxWebhookBody = 64 << 10

type ServiceAPI interface {
	Open(id, slug, currency string) (*Flow, bool)
	ChooseAmount(ctx context.Context, f *Flow, amount int64, locale string) error
	SelectMethod(ctx context.Context, f *Flow, raw string) error
	SetOptions(ctx context.Context, f *Flow, recurring, taxDeduction bool, locale string) error
	MarkSignedIn(f *Flow, email string)
	SetAnonymous(f *Flow, anonymous bool)
	Status(ctx context.Context, intentID, redirectStatus string) (string, error)
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
	CreateSession(ctx context.Context, slug string, amount int64, currency, locale string) (*PaymentSession, error)
}

type CampaignFinder interface {
	GetBySlug(ctx context.Context, slug string) (*campaign.Campaign, error)
}

// SignIn is the part of the auth service the inline login step uses.
type SignIn interface {
	Login(ctx context.Context, email, password string) (*auth.Session, error)
	WriteSession(w http.ResponseWriter, sess *auth.Session)
}

type Handler struct {
	*transport.BaseHandler
	Service      ServiceAPI
	Campaigns    CampaignFinder
	Auth         SignIn
	Binder       *form.Binder
	Breakpoint   int
	SecureCookie bool
}

func NewHandler(service ServiceAPI, campaigns CampaignFinder, signIn SignIn, binder *form.Binder, breakpoint int, view *transport.View) *Handler {
	return &Handler{
		BaseHandler: transport.NewBaseHandler(logger.LoggerWrapper(), view),
		Service:     service,
		Campaigns:   campaigns,
		Auth:        signIn,
		Binder:      binder,
		Breakpoint:  breakpoint,
	}
}

type flowView struct {
	Campaign   *campaign.Campaign
	FlowID     string
	BasePath   string
	Data       FormData
	Amount     string
	Options    []Option
	Layout     Layout
	Card       *PaymentSession
	Bank       *BankInstructions
	Appearance Appearance
	Amounts    *form.State
	Login      *form.State
	SignedIn   bool
}

type statusView struct {
	Campaign   *campaign.Campaign
	Status     string
	MessageKey string
	BackURL    string
}

func basePath(slug string) string {
	return "/campaigns/donation/" + slug
}

// load finds the campaign and the visitor's flow, starting a flow when the
// cookie is missing or stale.
func (h *Handler) load(w http.ResponseWriter, r *http.Request) (*campaign.Campaign, *Flow, error) {
	c, err := h.Campaigns.GetBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		return nil, nil, err
	}

	var id string
	if cookie, err := r.Cookie(FlowCookie); err == nil {
		id = cookie.Value
	}
	f, created := h.Service.Open(id, c.Slug, c.Currency)
	if created {
		http.SetCookie(w, &http.Cookie{
			Name:     FlowCookie,
			Value:    f.ID,
			Path:     basePath(c.Slug),
			HttpOnly: true,
			Secure:   h.SecureCookie,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return c, f, nil
}

func (h *Handler) view(r *http.Request, c *campaign.Campaign, f *Flow) *flowView {
	data := f.Data()
	v := &flowView{
		Campaign:   c,
		FlowID:     f.ID,
		BasePath:   basePath(c.Slug),
		Data:       data,
		Options:    f.Selector.Options(),
		Layout:     LayoutFromRequest(r, h.Breakpoint),
		Appearance: DefaultAppearance,
		Amounts:    form.New(),
		Login:      form.New(),
	}
	if data.AmountChosen > 0 {
		v.Amount = FormatAmount(data.AmountChosen)
		v.Amounts.Set("amount", v.Amount)
	}
	v.SignedIn = signedIn(r, data)

	switch p := f.Selector.Mounted().(type) {
	case *CardPanel:
		v.Card = p.Session()
	case *BankPanel:
		bank := p.Instructions
		v.Bank = &bank
	}
	return v
}

func signedIn(r *http.Request, data FormData) bool {
	if p, ok := internal.PrincipalFromContext(r.Context()); ok && p != nil {
		return true
	}
	return data.LoginEmail != ""
}

// render writes the whole page, or only the form for HTMX requests.
func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, v *flowView) {
	name := "donation.html"
	if r.Header.Get("HX-Request") == "true" {
		name = "donation_form.html"
	}
	h.Render(w, r, status, name, v)
}

// Page renders the donation form of a campaign.
func (h *Handler) Page(w http.ResponseWriter, r *http.Request) {
	c, f, err := h.load(w, r)
	if err != nil {
		h.RenderError(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, h.view(r, c, f))
}

// Amount handles the amount step. A changed amount starts a new payment attempt.
func (h *Handler) Amount(w http.ResponseWriter, r *http.Request) {
	c, f, err := h.load(w, r)
	if err != nil {
		h.RenderError(w, r, err)
		return
	}
	tr := h.T(r)

	var dto AmountForm
	state, err := h.Binder.Bind(r, &dto, tr)
	if err != nil {
		h.RenderError(w, r, internal.NewValidationError("invalid form body", internal.ErrCodeValidationFailed))
		return
	}

	amount, parseErr := ParseAmount(dto.Amount)
	if parseErr != nil || (amount == 0 && !state.HasErrors()) {
		state.SetFieldError("amount", tr.T("validation:invalid"))
	}
	if state.HasErrors() {
		v := h.view(r, c, f)
		v.Amounts = state
		h.render(w, r, http.StatusUnprocessableEntity, v)
		return
	}

	if err := h.Service.ChooseAmount(r.Context(), f, amount, tr.Locale()); err != nil {
		if !errors.Is(err, ErrSessionFailed) && !errors.Is(err, ErrInvalidClientSecret) {
			h.RenderError(w, r, err)
			return
		}
		h.Logger.WarnContext(r.Context(), "Amount: payment session unavailable", "error", err, "flow_id", f.ID)
		h.Notify(r, notice.SeverityError, "donation-flow:alerts.session-error")
	}
	h.render(w, r, http.StatusOK, h.view(r, c, f))
}

// Method switches between card and bank transfer.
func (h *Handler) Method(w http.ResponseWriter, r *http.Request) {
	c, f, err := h.load(w, r)
	if err != nil {
		h.RenderError(w, r, err)
		return
	}
	if err := r.ParseForm(); err != nil {
		h.RenderError(w, r, internal.NewValidationError("invalid form body", internal.ErrCodeValidationFailed))
		return
	}

	err = h.Service.SelectMethod(r.Context(), f, r.PostForm.Get("payment"))
	switch {
	case err == nil:
		h.render(w, r, http.StatusOK, h.view(r, c, f))
	case errors.Is(err, ErrMethodDisabled):
		h.Notify(r, notice.SeverityWarning, "donation-flow:alerts.amount-required")
		h.render(w, r, http.StatusUnprocessableEntity, h.view(r, c, f))
	case errors.Is(err, ErrUnknownMethod):
		h.render(w, r, http.StatusUnprocessableEntity, h.view(r, c, f))
	case errors.Is(err, ErrInvalidClientSecret):
		h.Logger.WarnContext(r.Context(), "Method: card form not mounted", "error", err, "flow_id", f.ID)
		h.Notify(r, notice.SeverityError, "donation-flow:alerts.session-error")
		h.render(w, r, http.StatusOK, h.view(r, c, f))
	default:
		h.RenderError(w, r, err)
	}
}

// Options stores the recurring, tax-deduction and anonymity checkboxes.
func (h *Handler) Options(w http.ResponseWriter, r *http.Request) {
	c, f, err := h.load(w, r)
	if err != nil {
		h.RenderError(w, r, err)
		return
	}
	state, err := form.Parse(r)
	if err != nil {
		h.RenderError(w, r, internal.NewValidationError("invalid form body", internal.ErrCodeValidationFailed))
		return
	}

	err = h.Service.SetOptions(r.Context(), f, state.Checked("recurring"), state.Checked("taxDeduction"), h.T(r).Locale())
	if err != nil {
		if !errors.Is(err, ErrSessionFailed) && !errors.Is(err, ErrInvalidClientSecret) {
			h.RenderError(w, r, err)
			return
		}
		h.Notify(r, notice.SeverityError, "donation-flow:alerts.session-error")
	}
	if signedIn(r, f.Data()) {
		h.Service.SetAnonymous(f, state.Checked("isAnonymous"))
	}
	h.render(w, r, http.StatusOK, h.view(r, c, f))
}

// Login signs the donor in without leaving the form. Failures show a
// single notice and never map onto fields.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	c, f, err := h.load(w, r)
	if err != nil {
		h.RenderError(w, r, err)
		return
	}

	var dto LoginForm
	state, err := h.Binder.Bind(r, &dto, h.T(r))
	if err != nil || state.HasErrors() {
		h.loginFailed(w, r, c, f, dto.Email)
		return
	}

	sess, err := h.Auth.Login(r.Context(), dto.Email, dto.Password)
	if err != nil {
		if !errors.Is(err, auth.ErrInvalidCredentials) {
			h.Logger.WarnContext(r.Context(), "Login: sign-in failed", "error", err)
		}
		h.loginFailed(w, r, c, f, dto.Email)
		return
	}

	h.Auth.WriteSession(w, sess)
	h.Service.MarkSignedIn(f, sess.Identity.Email)
	h.Notify(r, notice.SeveritySuccess, "auth:alerts.welcome")
	h.render(w, r, http.StatusOK, h.view(r, c, f))
}

func (h *Handler) loginFailed(w http.ResponseWriter, r *http.Request, c *campaign.Campaign, f *Flow, email string) {
	h.Notify(r, notice.SeverityError, "auth:alerts.invalid-login")
	v := h.view(r, c, f)
	v.Login.Set("email", email)
	h.render(w, r, http.StatusUnauthorized, v)
}

// Status renders the page the payment processor redirects back to.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	c, err := h.Campaigns.GetBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		h.RenderError(w, r, err)
		return
	}
	q := r.URL.Query()
	status, err := h.Service.Status(r.Context(), q.Get("payment_intent"), q.Get("redirect_status"))
	if err != nil {
		h.RenderError(w, r, err)
		return
	}

	key := "donation-flow:status." + status
	if status == StatusPending {
		key = "donation-flow:status.processing"
	}
	h.Render(w, r, http.StatusOK, "status.html", statusView{
		Campaign:   c,
		Status:     status,
		MessageKey: key,
		BackURL:    fmt.Sprintf("/campaigns/%s", c.Slug),
	})
}

// CreateSession returns a payment session for API clients.
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	c, err := h.Campaigns.GetBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		h.WriteAppError(w, err)
		return
	}

	var req SessionRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Error("CreateSession: invalid request body", "error", err)
		h.WriteAppError(w, internal.NewValidationError("invalid request body", internal.ErrCodeValidationFailed))
		return
	}
	if req.Currency == "" {
		req.Currency = c.Currency
	}

	session, err := h.Service.CreateSession(r.Context(), c.Slug, req.Amount, req.Currency, h.T(r).Locale())
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, SessionResponseDTO{
		ClientSecret:   session.ClientSecret,
		Locale:         session.Locale,
		PublishableKey: session.PublishableKey,
	})
}

// Webhook receives payment outcomes from the processor.
func (h *Handler) Webhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		h.WriteAppError(w, internal.NewValidationError("invalid request body", internal.ErrCodeValidationFailed))
		return
	}
	if err := h.Service.HandleWebhook(r.Context(), payload, r.Header.Get("Stripe-Signature")); err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]bool{"received": true})
}
