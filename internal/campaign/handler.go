package campaign

import (
	"context"
	"net/http"

	"github.com/frahmantamala/campaign-portal/internal"
	"github.com/frahmantamala/campaign-portal/internal/transport"
	"github.com/frahmantamala/campaign-portal/pkg/logger"
	"github.com/go-chi/chi"
)

type ServiceAPI interface {
	GetBySlug(ctx context.Context, slug string) (*Campaign, error)
	Active(ctx context.Context) ([]Campaign, error)
}

// HeroAPI serves the carousel as seen by one visitor session.
type HeroAPI interface {
	Snapshot(sessionID string) HeroSnapshot
	Pause(sessionID string)
	Resume(sessionID string)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
	Hero    HeroAPI
}

func NewHandler(service ServiceAPI, hero HeroAPI, view *transport.View) *Handler {
	return &Handler{
		BaseHandler: transport.NewBaseHandler(logger.LoggerWrapper(), view),
		Service:     service,
		Hero:        hero,
	}
}

type indexView struct {
	Hero      HeroSnapshot
	Campaigns []Campaign
}

type heroJSON struct {
	Featured *Campaign  `json:"featured"`
	Grid     []Campaign `json:"grid"`
	Progress float64    `json:"progress"`
	Paused   bool       `json:"paused"`
}

// Index renders the landing page with the hero carousel.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	list, err := h.Service.Active(r.Context())
	if err != nil {
		h.RenderError(w, r, err)
		return
	}
	h.Render(w, r, http.StatusOK, "index.html", indexView{Hero: h.heroSnapshot(r), Campaigns: list})
}

// HeroPartial renders the carousel fragment polled by the page.
func (h *Handler) HeroPartial(w http.ResponseWriter, r *http.Request) {
	h.Render(w, r, http.StatusOK, "hero.html", h.heroSnapshot(r))
}

// PauseHero freezes the carousel for the caller's session only.
func (h *Handler) PauseHero(w http.ResponseWriter, r *http.Request) {
	h.Hero.Pause(internal.SessionIDFromContext(r.Context()))
	h.HeroPartial(w, r)
}

func (h *Handler) ResumeHero(w http.ResponseWriter, r *http.Request) {
	h.Hero.Resume(internal.SessionIDFromContext(r.Context()))
	h.HeroPartial(w, r)
}

func (h *Handler) heroSnapshot(r *http.Request) HeroSnapshot {
	return h.Hero.Snapshot(internal.SessionIDFromContext(r.Context()))
}

// HeroJSON returns the carousel state for API clients.
func (h *Handler) HeroJSON(w http.ResponseWriter, r *http.Request) {
	snap := h.heroSnapshot(r)
	h.WriteJSON(w, http.StatusOK, heroJSON{
		Featured: snap.Featured,
		Grid:     snap.Grid,
		Progress: snap.Progress,
		Paused:   snap.Paused,
	})
}

// Show renders a campaign page.
func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	c, err := h.Service.GetBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		h.RenderError(w, r, err)
		return
	}
	h.Render(w, r, http.StatusOK, "campaign.html", c)
}
