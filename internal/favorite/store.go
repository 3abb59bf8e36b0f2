// Package favorite keeps favorite membership and fans favorite changes out
// to every live article entry.
package favorite

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"spotlight/internal/domain"
)

// Store is the in-process view of the favorites set. Every change is
// written through to Storage before membership changes.
type Store struct {
	mu       sync.RWMutex
	storage  Storage
	articles map[string]domain.Article
	order    []string
	logger   *slog.Logger
}

func NewStore(storage Storage, logger *slog.Logger) *Store {
	return &Store{
		storage:  storage,
		articles: make(map[string]domain.Article),
		logger:   logger.With("component", "favorite_store"),
	}
}

// Load replaces the in-memory set with the persisted favorites.
func (s *Store) Load(ctx context.Context) error {
	articles, err := s.storage.List(ctx)
	if err != nil {
		return fmt.Errorf("%w: load favorites: %w", domain.ErrPersistence, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.articles = make(map[string]domain.Article, len(articles))
	s.order = s.order[:0]
	for _, a := range articles {
		s.add(a)
	}

	s.logger.Info("favorites loaded", "count", len(s.order))
	return nil
}

// IsAlreadyPersisted reports whether an article with the same identity key is a favorite.
func (s *Store) IsAlreadyPersisted(article domain.Article) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.articles[article.Key()]
	return ok
}

// Update toggles membership of article and persists the change.
// It reports whether the article was added (true) or removed (false).
// On error membership is left unchanged and the error wraps domain.ErrPersistence.
func (s *Store) Update(ctx context.Context, article domain.Article) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	added, err := s.storage.Toggle(ctx, article)
	if err != nil {
		return false, fmt.Errorf("%w: toggle favorite %q: %w", domain.ErrPersistence, article.Key(), err)
	}

	if added {
		s.add(article)
	} else {
		s.remove(article.Key())
	}

	return added, nil
}

// All returns the favorites in the order they were added.
func (s *Store) All() []domain.Article {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Article, 0, len(s.order))
	for _, key := range s.order {
		out = append(out, s.articles[key])
	}
	return out
}

// Len returns the number of favorites.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

func (s *Store) add(article domain.Article) {
	key := article.Key()
	if _, ok := s.articles[key]; !ok {
		s.order = append(s.order, key)
	}
	s.articles[key] = article
}

func (s *Store) remove(key string) {
	if _, ok := s.articles[key]; !ok {
		return
	}
	delete(s.articles, key)
	for i, k := range s.order {
		if k == key {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}
