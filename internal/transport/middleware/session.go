package middleware

import (
	"net/http"

	"github.com/frahmantamala/campaign-portal/internal"
	"github.com/frahmantamala/campaign-portal/pkg/logger"
	"github.com/google/uuid"
)

// BrowserSessionCookie identifies a browser for the notice queue. It carries
// no identity; sign-in lives in the auth session cookie.
const BrowserSessionCookie = "sid"

// BrowserSession puts the browser session id in the request context,
// issuing a new cookie when the request has none.
func BrowserSession(secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sid := ""
			if c, err := r.Cookie(BrowserSessionCookie); err == nil {
				if _, err := uuid.Parse(c.Value); err == nil {
					sid = c.Value
				}
			}
			if sid == "" {
				sid = uuid.NewString()
				http.SetCookie(w, &http.Cookie{
					Name:     BrowserSessionCookie,
					Value:    sid,
					Path:     "/",
					HttpOnly: true,
					Secure:   secure,
					SameSite: http.SameSiteLaxMode,
				})
			}

			ctx := internal.ContextWithSessionID(r.Context(), sid)
			ctx = logger.With(ctx, "session_id", sid)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
