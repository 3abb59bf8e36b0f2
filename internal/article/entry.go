// Package article wraps articles in entries with observable favorite state.
package article

import (
	"context"
	"log/slog"
	"maps"
	"runtime"
	"slices"
	"sync"
	"weak"

	"spotlight/internal/domain"
	"spotlight/internal/favorite"
)

type Toggler interface {
	Toggle(ctx context.Context, article domain.Article) (bool, error)
}

type FavoriteChecker interface {
	IsAlreadyPersisted(article domain.Article) bool
}

type Registry interface {
	Register(resolve favorite.Resolver) *favorite.Subscription
}

// Entry is one article as shown in a list. Its favorite flag follows every
// toggle made on any entry for the same article while it is registered.
type Entry struct {
	article     domain.Article
	displayDate string
	toggler     Toggler
	logger      *slog.Logger

	mu           sync.Mutex
	isFavorite   bool
	observers    map[int]func(bool)
	nextObserver int
	sub          *favorite.Subscription
}

// Factory builds entries wired to the favorite store and hub.
type Factory struct {
	checker  FavoriteChecker
	registry Registry
	toggler  Toggler
	logger   *slog.Logger
}

func NewFactory(checker FavoriteChecker, registry Registry, toggler Toggler, logger *slog.Logger) *Factory {
	return &Factory{
		checker:  checker,
		registry: registry,
		toggler:  toggler,
		logger:   logger.With("component", "article_entry"),
	}
}

// New wraps a in an entry. The favorite flag is read from the store once,
// here; later changes arrive through the hub.
func (f *Factory) New(a domain.Article) *Entry {
	e := &Entry{
		article:     a,
		displayDate: FormatDate(a.PublishedAt),
		toggler:     f.toggler,
		logger:      f.logger,
		isFavorite:  f.checker.IsAlreadyPersisted(a),
		observers:   make(map[int]func(bool)),
	}

	ref := weak.Make(e)
	e.sub = f.registry.Register(func() favorite.Handle {
		if live := ref.Value(); live != nil {
			return live
		}
		return nil
	})
	runtime.AddCleanup(e, func(sub *favorite.Subscription) { sub.Cancel() }, e.sub)

	return e
}

// NewAll wraps every article, preserving order.
func (f *Factory) NewAll(articles []domain.Article) []*Entry {
	entries := make([]*Entry, 0, len(articles))
	for _, a := range articles {
		entries = append(entries, f.New(a))
	}
	return entries
}

func (e *Entry) Article() domain.Article {
	return e.article
}

func (e *Entry) DisplayDate() string {
	return e.displayDate
}

func (e *Entry) IsFavorite() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.isFavorite
}

// Matches reports whether other is the same article as this entry.
func (e *Entry) Matches(other domain.Article) bool {
	return e.article.SameAs(other)
}

// Equal reports whether both entries wrap the same article.
func (e *Entry) Equal(other *Entry) bool {
	return other != nil && e.Matches(other.article)
}

// ToggleFavorite flips the favorite state of the article. On failure the
// entry keeps its previous state; the error is logged and returned.
func (e *Entry) ToggleFavorite(ctx context.Context) error {
	added, err := e.toggler.Toggle(ctx, e.article)
	if err != nil {
		e.logger.Warn("favorite not changed", "key", e.article.Key(), "error", err)
		return err
	}
	// registered entries already got the new state from the hub
	if !e.registered() {
		e.ApplyFavoriteState(added)
	}
	return nil
}

func (e *Entry) registered() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sub != nil
}

// ApplyFavoriteState sets the favorite flag and notifies observers when it changes.
func (e *Entry) ApplyFavoriteState(isFavorite bool) {
	e.mu.Lock()
	if e.isFavorite == isFavorite {
		e.mu.Unlock()
		return
	}
	e.isFavorite = isFavorite
	observers := make([]func(bool), 0, len(e.observers))
	for _, id := range slices.Sorted(maps.Keys(e.observers)) {
		observers = append(observers, e.observers[id])
	}
	e.mu.Unlock()

	for _, fn := range observers {
		fn(isFavorite)
	}
}

// OnFavoriteChange registers fn to be called with every new favorite state.
// The returned func removes it.
func (e *Entry) OnFavoriteChange(fn func(isFavorite bool)) (cancel func()) {
	e.mu.Lock()
	defer e.mu.Unlock()

	id := e.nextObserver
	e.nextObserver++
	e.observers[id] = fn

	return func() {
		e.mu.Lock()
		delete(e.observers, id)
		e.mu.Unlock()
	}
}

// Release detaches the entry from favorite updates and drops its observers.
// Owning lists call it when they evict the entry.
func (e *Entry) Release() {
	e.mu.Lock()
	sub := e.sub
	e.sub = nil
	e.observers = make(map[int]func(bool))
	e.mu.Unlock()

	sub.Cancel()
}

// ReleaseAll releases every entry.
func ReleaseAll(entries []*Entry) {
	for _, e := range entries {
		e.Release()
	}
}
