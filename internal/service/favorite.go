package service

import (
	"context"
	"log/slog"
	"sync"

	"spotlight/internal/domain"
	"spotlight/internal/favorite"
	"spotlight/internal/metrics"
)

// FavoriteService runs the favorite toggle protocol: persist the change,
// then bring every live entry for the same article to the new state.
// Persistence and fan-out happen under one lock so toggles never interleave.
type FavoriteService struct {
	mu        sync.Mutex
	store     FavoriteStore
	notifier  Notifier
	publisher Publisher
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

func NewFavoriteService(
	store FavoriteStore,
	notifier Notifier,
	publisher Publisher,
	m *metrics.Metrics,
	logger *slog.Logger,
) *FavoriteService {
	return &FavoriteService{
		store:     store,
		notifier:  notifier,
		publisher: publisher,
		metrics:   m,
		logger:    logger.With("component", "favorites"),
	}
}

// Toggle flips the favorite state of article. It reports the resulting state.
// On error nothing has changed anywhere.
func (s *FavoriteService) Toggle(ctx context.Context, article domain.Article) (bool, error) {
	added, err := s.toggleAndNotify(ctx, article)
	if err != nil {
		s.metrics.ObserveToggle(metrics.ToggleFailed)
		s.logger.Error("toggle favorite failed", "key", article.Key(), "error", err)
		return false, err
	}

	if added {
		s.metrics.ObserveToggle(metrics.ToggleAdded)
		s.logger.Info("added article to favorites", "key", article.Key())
	} else {
		s.metrics.ObserveToggle(metrics.ToggleRemoved)
		s.logger.Info("removed article from favorites", "key", article.Key())
	}

	if s.publisher != nil {
		if err := s.publisher.PublishFavorite(ctx, article, added); err != nil {
			s.logger.Warn("publish favorite event failed", "key", article.Key(), "error", err)
		}
	}

	return added, nil
}

func (s *FavoriteService) toggleAndNotify(ctx context.Context, article domain.Article) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	added, err := s.store.Update(ctx, article)
	if err != nil {
		return false, err
	}

	s.notifier.InvokeAll(
		func(h favorite.Handle) bool { return h.Matches(article) },
		func(h favorite.Handle) { h.ApplyFavoriteState(added) },
	)

	return added, nil
}
