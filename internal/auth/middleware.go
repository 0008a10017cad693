package auth

import (
	"net/http"
	"net/url"

	"github.com/frahmantamala/campaign-portal/internal"
	"github.com/frahmantamala/campaign-portal/pkg/logger"
)

// Middleware loads the session cookie, or a bearer token, into the request
// context. Requests without a valid session continue anonymously.
func (h *Handler) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := ""
		if c, err := r.Cookie(SessionCookie); err == nil {
			token = c.Value
		}
		fromCookie := token != ""
		if token == "" {
			token = h.ExtractTokenFromHeader(r)
		}
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}

		principal, err := h.Service.Authenticate(token)
		if err != nil {
			h.Logger.DebugContext(r.Context(), "discarding session", "error", err)
			if fromCookie {
				h.Service.ClearSession(w)
			}
			next.ServeHTTP(w, r)
			return
		}

		ctx := internal.ContextWithPrincipal(r.Context(), principal)
		ctx = logger.With(ctx, "user_id", principal.ID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole sends anonymous users to the login page and answers 403 to
// signed-in users without the role.
func (h *Handler) RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := internal.PrincipalFromContext(r.Context())
			if !ok {
				h.Redirect(w, r, "/login?next="+url.QueryEscape(r.URL.RequestURI()))
				return
			}

			if !principal.HasRole(role) {
				h.Logger.WarnContext(r.Context(), "access denied: missing role",
					"user_id", principal.ID,
					"required_role", role,
					"user_roles", principal.Roles)
				h.RenderError(w, r, internal.ErrInsufficientRole)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
