package auth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing/fstest"
	"time"

	"github.com/go-chi/chi"
	"github.com/jonboulle/clockwork"
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"

	"github.com/frahmantamala/campaign-portal/internal"
	"github.com/frahmantamala/campaign-portal/internal/auth"
	"github.com/frahmantamala/campaign-portal/internal/form"
	"github.com/frahmantamala/campaign-portal/internal/i18n"
	"github.com/frahmantamala/campaign-portal/internal/notice"
	"github.com/frahmantamala/campaign-portal/internal/transport"
)

type fakeGoogle struct {
	idToken string
}

func (f *fakeGoogle) AuthCodeURL(state string) string {
	return "https://accounts.example/auth?state=" + state
}

func (f *fakeGoogle) Exchange(context.Context, string) (string, error) {
	return f.idToken, nil
}

var _ = ginkgo.Describe("AuthHandler", func() {
	var (
		router  *chi.Mux
		service *auth.Service
	)

	ginkgo.BeforeEach(func() {
		templates := fstest.MapFS{
			"templates/login.html": {Data: []byte(`login next={{.Data.Next}}{{range $k, $v := .Data.State.Errors}} err:{{$k}}{{end}}{{range .Notices}} notice:{{.Message}}{{end}}`)},
			"templates/error.html": {Data: []byte(`{{.T.T .Data.MessageKey}}`)},
		}
		view, err := transport.NewView(templates, i18n.NewBundle("en"), notice.NewQueue(clockwork.NewFakeClock(), 5*time.Second), testLogger())
		gomega.Expect(err).NotTo(gomega.HaveOccurred())

		service = auth.NewService(newMockAuthenticator(), auth.NewSessionManager(testSecret, time.Hour, false, nil), testLogger())
		h := auth.NewHandler(service, form.NewBinder(), &fakeGoogle{idToken: "google-id"}, view)

		router = chi.NewRouter()
		router.Use(h.Middleware)
		router.Get("/login", h.LoginPage)
		router.Post("/login", h.Login)
		router.Post("/logout", h.Logout)
		router.Get("/auth/google", h.GoogleStart)
		router.Get("/auth/google/callback", h.GoogleCallback)
		router.With(h.RequireRole(internal.RoleAdmin)).Get("/admin", func(w http.ResponseWriter, r *http.Request) {
			p, _ := internal.PrincipalFromContext(r.Context())
			_, _ = w.Write([]byte("hello " + p.Name))
		})
	})

	serve := func(req *http.Request) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	postLogin := func(values url.Values) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(values.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return serve(req)
	}

	sessionCookie := func(rec *httptest.ResponseRecorder) *http.Cookie {
		for _, c := range rec.Result().Cookies() {
			if c.Name == auth.SessionCookie {
				return c
			}
		}
		return nil
	}

	ginkgo.It("should sign in and redirect to the next page", func() {
		rec := postLogin(url.Values{"email": {"admin@example.com"}, "password": {"correct_password"}, "next": {"/admin"}})

		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusSeeOther))
		gomega.Expect(rec.Header().Get("Location")).To(gomega.Equal("/admin"))
		c := sessionCookie(rec)
		gomega.Expect(c).NotTo(gomega.BeNil())
		gomega.Expect(c.HttpOnly).To(gomega.BeTrue())

		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		req.AddCookie(c)
		rec = serve(req)
		gomega.Expect(rec.Body.String()).To(gomega.Equal("hello Admin"))
	})

	ginkgo.It("should show the invalid-login notice without field errors", func() {
		rec := postLogin(url.Values{"email": {"user@example.com"}, "password": {"nope"}})

		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusUnauthorized))
		gomega.Expect(rec.Body.String()).To(gomega.Equal("login next=/ notice:Invalid email or password."))
		gomega.Expect(sessionCookie(rec)).To(gomega.BeNil())
	})

	ginkgo.It("should report missing fields inline", func() {
		rec := postLogin(url.Values{"email": {"not-an-email"}})

		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusUnprocessableEntity))
		gomega.Expect(rec.Body.String()).To(gomega.ContainSubstring("err:email"))
		gomega.Expect(rec.Body.String()).To(gomega.ContainSubstring("err:password"))
	})

	ginkgo.It("should send anonymous users to the login page", func() {
		rec := serve(httptest.NewRequest(http.MethodGet, "/admin?x=1", nil))

		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusSeeOther))
		gomega.Expect(rec.Header().Get("Location")).To(gomega.Equal("/login?next=%2Fadmin%3Fx%3D1"))
	})

	ginkgo.It("should forbid users without the role", func() {
		login := postLogin(url.Values{"email": {"user@example.com"}, "password": {"correct_password"}})
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		req.AddCookie(sessionCookie(login))

		rec := serve(req)

		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusForbidden))
		gomega.Expect(rec.Body.String()).To(gomega.Equal("You do not have access to this page."))
	})

	ginkgo.It("should clear a broken session cookie and continue anonymously", func() {
		req := httptest.NewRequest(http.MethodGet, "/login", nil)
		req.AddCookie(&http.Cookie{Name: auth.SessionCookie, Value: "garbage"})

		rec := serve(req)

		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK))
		c := sessionCookie(rec)
		gomega.Expect(c).NotTo(gomega.BeNil())
		gomega.Expect(c.MaxAge).To(gomega.BeNumerically("<", 0))
	})

	ginkgo.It("should clear the session on logout", func() {
		rec := serve(httptest.NewRequest(http.MethodPost, "/logout", nil))

		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusSeeOther))
		gomega.Expect(sessionCookie(rec).MaxAge).To(gomega.BeNumerically("<", 0))
	})

	ginkgo.Describe("Google sign-in", func() {
		ginkgo.It("should redirect with a state stored in a cookie", func() {
			rec := serve(httptest.NewRequest(http.MethodGet, "/auth/google", nil))

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusFound))
			var state *http.Cookie
			for _, c := range rec.Result().Cookies() {
				if c.Name == auth.StateCookie {
					state = c
				}
			}
			gomega.Expect(state).NotTo(gomega.BeNil())
			gomega.Expect(rec.Header().Get("Location")).To(gomega.HaveSuffix("state=" + state.Value))
		})

		ginkgo.It("should sign in when the state matches", func() {
			req := httptest.NewRequest(http.MethodGet, "/auth/google/callback?state=abc&code=xyz", nil)
			req.AddCookie(&http.Cookie{Name: auth.StateCookie, Value: "abc"})

			rec := serve(req)

			gomega.Expect(rec.Header().Get("Location")).To(gomega.Equal("/"))
			gomega.Expect(sessionCookie(rec)).NotTo(gomega.BeNil())
		})

		ginkgo.It("should refuse a mismatched state", func() {
			req := httptest.NewRequest(http.MethodGet, "/auth/google/callback?state=abc&code=xyz", nil)
			req.AddCookie(&http.Cookie{Name: auth.StateCookie, Value: "other"})

			rec := serve(req)

			gomega.Expect(rec.Header().Get("Location")).To(gomega.Equal("/login"))
			gomega.Expect(sessionCookie(rec)).To(gomega.BeNil())
		})
	})
})
