package auth

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/frahmantamala/campaign-portal/internal"
	"github.com/frahmantamala/campaign-portal/internal/form"
	"github.com/frahmantamala/campaign-portal/internal/notice"
	"github.com/frahmantamala/campaign-portal/internal/transport"
	"github.com/frahmantamala/campaign-portal/pkg/logger"
)

type ServiceAPI interface {
	Login(ctx context.Context, email, password string) (*Session, error)
	LoginWithProvider(ctx context.Context, provider, idToken string) (*Session, error)
	Authenticate(token string) (*internal.Principal, error)
	WriteSession(w http.ResponseWriter, sess *Session)
	ClearSession(w http.ResponseWriter)
}

type Handler struct {
	*transport.BaseHandler
	Service      ServiceAPI
	Binder       *form.Binder
	Google       OAuthProvider
	SecureCookie bool
}

func NewHandler(svc ServiceAPI, binder *form.Binder, google OAuthProvider, view *transport.View) *Handler {
	return &Handler{
		BaseHandler: transport.NewBaseHandler(logger.LoggerWrapper(), view),
		Service:     svc,
		Binder:      binder,
		Google:      google,
	}
}

type loginView struct {
	State  *form.State
	Next   string
	Google bool
}

func (h *Handler) LoginPage(w http.ResponseWriter, r *http.Request) {
	state := form.New()
	next := SafeNext(r.URL.Query().Get("next"))
	state.Set("next", next)
	h.Render(w, r, http.StatusOK, "login.html", loginView{State: state, Next: next, Google: h.Google != nil})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var dto LoginForm
	state, err := h.Binder.Bind(r, &dto, h.T(r))
	if err != nil {
		h.RenderError(w, r, internal.NewValidationError("invalid request body", internal.ErrCodeValidationFailed))
		return
	}
	view := loginView{State: state, Next: SafeNext(dto.Next), Google: h.Google != nil}
	state.Set("password", "")
	if state.HasErrors() {
		h.Render(w, r, http.StatusUnprocessableEntity, "login.html", view)
		return
	}

	sess, err := h.Service.Login(r.Context(), dto.Email, dto.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			h.Notify(r, notice.SeverityError, "auth:alerts.invalid-login")
			h.Render(w, r, http.StatusUnauthorized, "login.html", view)
			return
		}
		h.RenderError(w, r, err)
		return
	}

	h.Service.WriteSession(w, sess)
	h.Logger.InfoContext(r.Context(), "user signed in", "user_id", sess.Identity.ID)
	h.Notify(r, notice.SeveritySuccess, "auth:alerts.welcome")
	h.Redirect(w, r, view.Next)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.Service.ClearSession(w)
	h.Redirect(w, r, "/")
}

// GoogleStart begins the authorization-code flow with a random state kept in a cookie.
func (h *Handler) GoogleStart(w http.ResponseWriter, r *http.Request) {
	if h.Google == nil {
		h.RenderError(w, r, internal.NewNotFoundError("provider not configured", internal.ErrCodeProviderUnsupported))
		return
	}
	state, err := GenerateRandomToken()
	if err != nil {
		h.RenderError(w, r, err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     StateCookie,
		Value:    state,
		Path:     "/auth/google",
		Expires:  time.Now().Add(10 * time.Minute),
		HttpOnly: true,
		Secure:   h.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, h.Google.AuthCodeURL(state), http.StatusFound)
}

func (h *Handler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	if h.Google == nil {
		h.RenderError(w, r, internal.NewNotFoundError("provider not configured", internal.ErrCodeProviderUnsupported))
		return
	}
	cookie, err := r.Cookie(StateCookie)
	http.SetCookie(w, &http.Cookie{Name: StateCookie, Path: "/auth/google", MaxAge: -1})
	if err != nil || cookie.Value == "" || cookie.Value != r.URL.Query().Get("state") {
		h.Logger.WarnContext(r.Context(), "oauth state mismatch")
		h.Notify(r, notice.SeverityError, "auth:alerts.invalid-login")
		h.Redirect(w, r, "/login")
		return
	}

	idToken, err := h.Google.Exchange(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		h.Logger.ErrorContext(r.Context(), "oauth exchange failed", "error", err)
		h.Notify(r, notice.SeverityError, "auth:alerts.invalid-login")
		h.Redirect(w, r, "/login")
		return
	}

	sess, err := h.Service.LoginWithProvider(r.Context(), ProviderGoogle, idToken)
	if err != nil {
		h.Logger.WarnContext(r.Context(), "provider login failed", "error", err)
		h.Notify(r, notice.SeverityError, "auth:alerts.invalid-login")
		h.Redirect(w, r, "/login")
		return
	}

	h.Service.WriteSession(w, sess)
	h.Notify(r, notice.SeveritySuccess, "auth:alerts.welcome")
	h.Redirect(w, r, "/")
}
