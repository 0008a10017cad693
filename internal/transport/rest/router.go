package rest

import (
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/campaign-portal/internal"
	"github.com/frahmantamala/campaign-portal/internal/auth"
	"github.com/frahmantamala/campaign-portal/internal/campaign"
	"github.com/frahmantamala/campaign-portal/internal/donation"
	"github.com/frahmantamala/campaign-portal/internal/expense"
	"github.com/frahmantamala/campaign-portal/internal/notice"
	"github.com/frahmantamala/campaign-portal/internal/transport/middleware"
	"github.com/frahmantamala/campaign-portal/internal/transport/swagger"
	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Routes carries everything the router mounts. Nil handlers leave their
// routes out.
type Routes struct {
	Campaigns *campaign.Handler
	Expenses  *expense.Handler
	Donations *donation.Handler
	Auth      *auth.Handler
	Notices   *notice.Queue
	Health    map[string]Pinger
	Static    fs.FS
	OpenAPI   []byte
	// Validator checks /api/v1 requests against OpenAPI; nil disables it.
	Validator     *middleware.OpenAPIValidator
	Metrics       internal.MetricsConfig
	SecureCookies bool
}

func RegisterAllRoutes(router *chi.Mux, routes Routes, logger *slog.Logger) {
	healthHandler := NewHealthHandler(routes.Health)

	// Apply global middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.SecureHeaders)
	router.Use(middleware.CORS)
	if routes.Metrics.Enabled {
		router.Use(middleware.Metrics)
	}
	router.Use(middleware.LoggingMiddleware(logger))
	router.Use(middleware.BrowserSession(routes.SecureCookies))
	if routes.Auth != nil {
		router.Use(routes.Auth.Middleware)
	}

	if routes.Static != nil {
		router.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(routes.Static))))
	}
	if routes.Metrics.Enabled {
		router.Handle(routes.Metrics.Path, promhttp.Handler())
	}

	// Serve OpenAPI spec at root (outside API prefix)
	if routes.OpenAPI != nil {
		router.Get(swagger.SpecPath, swagger.SpecHandler(routes.OpenAPI))
		router.Handle("/swagger/*", swagger.Handler())
	}

	if routes.Notices != nil {
		nh := &noticeHandler{queue: routes.Notices}
		router.Delete("/ui/notices/{id}", nh.dismiss)
	}

	if h := routes.Campaigns; h != nil {
		router.Get("/", h.Index)
		router.Get("/ui/hero", h.HeroPartial)
		router.Post("/ui/hero/pause", h.PauseHero)
		router.Post("/ui/hero/resume", h.ResumeHero)
		router.Get("/campaigns/{slug}", h.Show)
	}

	if h := routes.Donations; h != nil {
		router.Route("/campaigns/donation/{slug}", func(dr chi.Router) {
			dr.Get("/", h.Page)
			dr.Post("/amount", h.Amount)
			dr.Post("/method", h.Method)
			dr.Post("/options", h.Options)
			dr.Post("/login", h.Login)
			dr.Get("/status", h.Status)
		})
	}

	if h := routes.Expenses; h != nil {
		router.Get("/campaigns/{slug}/expenses", h.List)
		router.Group(func(ar chi.Router) {
			if routes.Auth != nil {
				ar.Use(routes.Auth.RequireRole(internal.RoleAdmin))
			}
			ar.Get("/campaigns/{slug}/expenses/new", h.New)
			ar.Post("/campaigns/{slug}/expenses", h.Create)
			ar.Get("/campaigns/{slug}/expenses/{id}", h.Edit)
			ar.Post("/campaigns/{slug}/expenses/{id}", h.Update)
			ar.Get("/files/{id}", h.Download)
		})
	}

	if h := routes.Auth; h != nil {
		router.Get("/login", h.LoginPage)
		router.Post("/login", h.Login)
		router.Post("/logout", h.Logout)
		router.Get("/auth/google", h.GoogleStart)
		router.Get("/auth/google/callback", h.GoogleCallback)
	}

	// Mount API under /api/v1 to match the OpenAPI paths
	router.Route("/api/v1", func(r chi.Router) {
		if routes.Validator != nil {
			r.Use(routes.Validator.Middleware)
		}

		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		if routes.Campaigns != nil {
			r.Get("/hero", routes.Campaigns.HeroJSON)
		}
		if routes.Donations != nil {
			r.Post("/donations/{slug}/session", routes.Donations.CreateSession)
			r.Post("/payment/webhook", routes.Donations.Webhook)
		}
	})
}
