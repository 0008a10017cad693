package campaign

import (
	"context"
	"log/slog"
	"time"

	"github.com/frahmantamala/campaign-portal/internal/cache"
	"github.com/jonboulle/clockwork"
)

const listKey = "campaigns:list"

// Service reads campaigns through a short-lived cache.
type Service struct {
	repo   Repository
	bySlug *cache.LRU[*Campaign]
	lists  *cache.LRU[[]Campaign]
	logger *slog.Logger
}

func NewService(repo Repository, size int, ttl time.Duration, clock clockwork.Clock, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		bySlug: cache.NewLRU(size, ttl, cache.WithClock[*Campaign](clock)),
		lists:  cache.NewLRU(1, ttl, cache.WithClock[[]Campaign](clock)),
		logger: logger,
	}
}

func (s *Service) GetBySlug(ctx context.Context, slug string) (*Campaign, error) {
	if c, ok := s.bySlug.Get(slug); ok {
		return c, nil
	}
	c, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		s.logger.Warn("failed to get campaign", "error", err, "slug", slug)
		return nil, err
	}
	s.bySlug.Set(slug, c)
	return c, nil
}

func (s *Service) List(ctx context.Context) ([]Campaign, error) {
	if list, ok := s.lists.Get(listKey); ok {
		return list, nil
	}
	list, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Error("failed to list campaigns", "error", err)
		return nil, err
	}
	s.lists.Set(listKey, list)
	return list, nil
}

// Active returns the campaigns that accept donations, in listing order.
func (s *Service) Active(ctx context.Context) ([]Campaign, error) {
	list, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Campaign, 0, len(list))
	for _, c := range list {
		if c.State == "" || c.State == StateActive {
			out = append(out, c)
		}
	}
	return out, nil
}

// Invalidate drops every cached campaign.
func (s *Service) Invalidate() {
	s.bySlug.Purge()
	s.lists.Purge()
}
