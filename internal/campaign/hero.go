package campaign

import (
	"context"
	"log/slog"
	"time"

	"github.com/frahmantamala/campaign-portal/internal/cache"
	"github.com/frahmantamala/campaign-portal/internal/carousel"
	"github.com/frahmantamala/campaign-portal/internal/metrics"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"
)

type Lister interface {
	Active(ctx context.Context) ([]Campaign, error)
}

type HeroConfig struct {
	Timer           carousel.TimerConfig
	Window          int
	Step            int
	RefreshInterval time.Duration
}

// Paused views are kept per visitor session and dropped after pausedTTL.
const (
	maxPausedSessions = 4096
	pausedTTL         = 30 * time.Minute
)

// Hero is the landing page carousel: one featured campaign and a grid of
// the next ones, rotated each time the timer completes. The rotation is
// shared by every visitor; pausing freezes only the caller's session view.
type Hero struct {
	source   Lister
	clock    clockwork.Clock
	cfg      HeroConfig
	carousel *carousel.Carousel[Campaign]
	timer    *carousel.Timer
	paused   *cache.LRU[HeroSnapshot]
	logger   *slog.Logger
}

type HeroSnapshot struct {
	Featured *Campaign
	Grid     []Campaign
	Progress float64
	Paused   bool
}

func (s HeroSnapshot) Empty() bool {
	return s.Featured == nil
}

func NewHero(source Lister, clock clockwork.Clock, cfg HeroConfig, logger *slog.Logger) *Hero {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	h := &Hero{
		source:   source,
		clock:    clock,
		cfg:      cfg,
		carousel: carousel.New(cfg.Window, cfg.Step, Campaign.Key),
		paused:   cache.NewLRU[HeroSnapshot](maxPausedSessions, pausedTTL, cache.WithClock[HeroSnapshot](clock)),
		logger:   logger,
	}
	h.timer = carousel.NewTimer(clock, cfg.Timer, h.rotate)
	return h
}

func (h *Hero) rotate() {
	h.carousel.Rotate()
	metrics.HeroRotations.Inc()
}

// Refresh reloads the campaign list. A list with a different identity
// restarts the rotation and the timer.
func (h *Hero) Refresh(ctx context.Context) error {
	list, err := h.source.Active(ctx)
	if err != nil {
		return err
	}
	if h.carousel.Sync(list) {
		h.timer.Reset()
		h.logger.Debug("hero list changed", "campaigns", len(list))
	}
	return nil
}

// Snapshot returns what the given session sees: its frozen view while it
// is paused, the live rotation otherwise.
func (h *Hero) Snapshot(sessionID string) HeroSnapshot {
	if sessionID != "" {
		if snap, ok := h.paused.Get(sessionID); ok {
			return snap
		}
	}
	return h.live()
}

func (h *Hero) live() HeroSnapshot {
	snap := HeroSnapshot{
		Grid:     h.carousel.Grid(),
		Progress: h.timer.Progress(),
	}
	if featured, ok := h.carousel.Featured(); ok {
		snap.Featured = &featured
	}
	return snap
}

// Pause freezes the session's view at the current slide and progress. The
// shared rotation keeps running. A request without a session cannot pause.
func (h *Hero) Pause(sessionID string) {
	if sessionID == "" {
		return
	}
	if _, ok := h.paused.Get(sessionID); ok {
		return
	}
	snap := h.live()
	snap.Paused = true
	h.paused.Set(sessionID, snap)
}

// Resume drops the session's frozen view so it follows the rotation again.
func (h *Hero) Resume(sessionID string) {
	if sessionID == "" {
		return
	}
	h.paused.Delete(sessionID)
}

// Timer exposes the rotation timer, mostly to drive it frame by frame in tests.
func (h *Hero) Timer() *carousel.Timer {
	return h.timer
}

// Start runs the timer and the periodic refresh until ctx ends.
func (h *Hero) Start(ctx context.Context) error {
	if err := h.Refresh(ctx); err != nil {
		h.logger.Warn("initial hero refresh failed", "error", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return h.timer.Run(gctx)
	})
	g.Go(func() error {
		interval := h.cfg.RefreshInterval
		if interval <= 0 {
			interval = time.Minute
		}
		ticker := h.clock.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case <-ticker.Chan():
				if err := h.Refresh(gctx); err != nil {
					h.logger.Warn("hero refresh failed", "error", err)
				}
			}
		}
	})
	return g.Wait()
}
