package screen

import (
	"log/slog"
	"sync"

	"spotlight/internal/article"
	"spotlight/internal/domain"
	"spotlight/internal/paging"
)

type FavoriteLister interface {
	All() []domain.Article
}

// Favorites lists the saved articles, oldest first. An entry leaves the
// list as soon as it stops being a favorite, on whichever goroutine ran
// the toggle.
type Favorites struct {
	store   FavoriteLister
	factory paging.EntryFactory
	logger  *slog.Logger

	mu      sync.Mutex
	entries []*article.Entry
	cancels map[*article.Entry]func()
}

func NewFavorites(store FavoriteLister, deps Deps) *Favorites {
	return &Favorites{
		store:   store,
		factory: deps.Factory,
		logger:  deps.Logger.With("component", "favorites_screen"),
		cancels: make(map[*article.Entry]func()),
	}
}

// Reload rebuilds the list from the store.
func (f *Favorites) Reload() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.release()

	f.entries = f.factory.NewAll(f.store.All())
	for _, e := range f.entries {
		f.cancels[e] = e.OnFavoriteChange(func(isFavorite bool) {
			if !isFavorite {
				f.remove(e)
			}
		})
	}

	f.logger.Debug("favorites reloaded", "count", len(f.entries))
}

func (f *Favorites) Entries() []*article.Entry {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*article.Entry(nil), f.entries...)
}

func (f *Favorites) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.entries)
}

func (f *Favorites) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.release()
}

func (f *Favorites) remove(e *article.Entry) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i, cur := range f.entries {
		if cur != e {
			continue
		}
		f.entries = append(f.entries[:i:i], f.entries[i+1:]...)
		if cancel, ok := f.cancels[e]; ok {
			cancel()
			delete(f.cancels, e)
		}
		e.Release()
		return
	}
}

// release requires f.mu.
func (f *Favorites) release() {
	for _, cancel := range f.cancels {
		cancel()
	}
	f.cancels = make(map[*article.Entry]func())
	article.ReleaseAll(f.entries)
	f.entries = nil
}
