package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"spotlight/internal/article"
	"spotlight/internal/config"
	"spotlight/internal/dispatch"
	"spotlight/internal/domain"
	"spotlight/internal/favorite"
	"spotlight/internal/paging"
	"spotlight/internal/screen"
)

const (
	listHome      = "home"
	listHeadlines = "headlines"
	listLatest    = "latest"
	listSearch    = "search"
	listFavorites = "favorites"
)

type options struct {
	list     string
	query    string
	category string
	sortBy   string
	language string
	pages    int
	toggle   string
}

func (o options) validate() error {
	switch o.list {
	case listHome, listHeadlines, listLatest, listFavorites:
	case listSearch:
		if o.query == "" {
			return fmt.Errorf("search needs a query")
		}
	default:
		return fmt.Errorf("unknown list %q", o.list)
	}

	if o.pages < 1 {
		return fmt.Errorf("pages must be at least 1, got %d", o.pages)
	}

	if o.category != "" {
		c := domain.Category(o.category)
		if c != domain.CategoryFilter && !slices.Contains(domain.NewsCategories, c) {
			return fmt.Errorf("unknown category %q", o.category)
		}
	}

	switch domain.SortBy(o.sortBy) {
	case "", domain.SortRelevancy, domain.SortPopularity, domain.SortPublishedAt:
	default:
		return fmt.Errorf("unknown sort order %q", o.sortBy)
	}

	return nil
}

// view is a loaded screen list. Both funcs run on the loop.
type view struct {
	entries func() []*article.Entry
	close   func()
}

type reader struct {
	loop   *dispatch.Loop
	store  *favorite.Store
	feeds  config.FeedsConfig
	deps   screen.Deps
	out    io.Writer
	logger *slog.Logger
}

func (r *reader) run(ctx context.Context, opts options) error {
	var (
		v   view
		err error
	)
	switch opts.list {
	case listHome:
		v, err = r.home(ctx, opts)
	case listHeadlines:
		v, err = r.headlines(ctx)
	case listLatest:
		v, err = r.latest(ctx, opts)
	case listSearch:
		v, err = r.search(ctx, opts)
	case listFavorites:
		v, err = r.favorites(ctx)
	}
	if v.close != nil {
		defer r.closeOnLoop(opts.list, v.close)
	}
	if err != nil {
		return err
	}

	entries, err := r.entries(ctx, v)
	if err != nil {
		return err
	}

	if opts.toggle != "" {
		if err := r.toggle(ctx, entries, opts.toggle); err != nil {
			return err
		}
		if entries, err = r.entries(ctx, v); err != nil {
			return err
		}
	}

	printEntries(r.out, entries)
	return nil
}

func (r *reader) newHome() *screen.Home {
	return screen.NewHome(screen.HomeConfig{
		HeadlinesCountry: r.feeds.HeadlinesCountry,
		NewsCountry:      r.feeds.NewsCountry,
		DefaultCategory:  categoryOf(r.feeds.DefaultCategory, domain.CategoryGeneral),
	}, r.deps)
}

func (r *reader) home(ctx context.Context, opts options) (view, error) {
	var home *screen.Home
	if err := r.loop.Do(ctx, func() {
		home = r.newHome()
		if opts.category != "" {
			home.ToggleCategory(domain.Category(opts.category), true)
		}
	}); err != nil {
		return view{}, err
	}

	v := view{entries: home.News().Entries, close: home.Close}
	return v, r.loadPages(ctx, home.News(), opts.pages, home.LoadMore)
}

func (r *reader) headlines(ctx context.Context) (view, error) {
	var home *screen.Home
	if err := r.loop.Do(ctx, func() { home = r.newHome() }); err != nil {
		return view{}, err
	}

	v := view{entries: home.Headlines().Entries, close: home.Close}
	return v, r.loadPages(ctx, home.Headlines(), 1, home.LoadHeadlines)
}

// latest opens the latest news seeded with the first page of the home feed.
func (r *reader) latest(ctx context.Context, opts options) (view, error) {
	var home *screen.Home
	if err := r.loop.Do(ctx, func() { home = r.newHome() }); err != nil {
		return view{}, err
	}
	if err := r.loadPages(ctx, home.News(), 1, home.LoadMore); err != nil {
		r.closeOnLoop(listHome, home.Close)
		return view{}, err
	}

	var latest *screen.Latest
	if err := r.loop.Do(ctx, func() {
		seed := make([]domain.Article, 0, home.News().ContentRows())
		for _, e := range home.News().Entries() {
			seed = append(seed, e.Article())
		}
		latest = screen.NewLatest(r.feeds.NewsCountry, seed, r.deps)
		home.Close()
	}); err != nil {
		return view{}, err
	}

	v := view{entries: latest.News().Entries, close: latest.Close}
	return v, r.loadPages(ctx, latest.News(), opts.pages-1, latest.LoadMore)
}

func (r *reader) search(ctx context.Context, opts options) (view, error) {
	var search *screen.Search
	if err := r.loop.Do(ctx, func() { search = screen.NewSearch(opts.query, r.deps) }); err != nil {
		return view{}, err
	}

	category := categoryOf(opts.category, domain.CategoryFilter)
	first := true
	next := func(ctx context.Context) {
		if !first {
			search.Search(ctx, opts.query)
			return
		}
		first = false
		switch {
		case category != domain.CategoryFilter:
			search.SetCategory(ctx, category)
		case opts.sortBy != "" || opts.language != "":
			search.SetSortAndLanguage(ctx, domain.SortBy(opts.sortBy), opts.language)
		default:
			search.Search(ctx, opts.query)
		}
	}

	v := view{entries: search.Results().Entries, close: search.Close}
	if err := r.loadPages(ctx, search.Results(), opts.pages, next); err != nil {
		return v, err
	}

	return v, r.loop.Do(ctx, func() {
		r.logger.Info("search finished",
			"query", search.Query(),
			"category", search.Category(),
			"results", search.ResultCount(),
		)
	})
}

func (r *reader) favorites(ctx context.Context) (view, error) {
	var favs *screen.Favorites
	err := r.loop.Do(ctx, func() {
		favs = screen.NewFavorites(r.store, r.deps)
		favs.Reload()
	})
	if err != nil {
		return view{}, err
	}
	return view{entries: favs.Entries, close: favs.Close}, nil
}

// loadPages calls next up to pages times on the loop, waiting after each
// call until the page has arrived. It stops early once c is exhausted.
func (r *reader) loadPages(ctx context.Context, c *paging.Controller, pages int, next func(context.Context)) error {
	settled := make(chan paging.State, 1)
	var unsubscribe func()
	err := r.loop.Do(ctx, func() {
		unsubscribe = c.Subscribe(func(s paging.Snapshot) {
			if s.State != paging.HasData && s.State != paging.Exhausted {
				return
			}
			select {
			case settled <- s.State:
			default:
			}
		})
	})
	if err != nil {
		return err
	}
	defer r.loop.Post(unsubscribe)

	for i := 0; i < pages; i++ {
		var loading bool
		if err := r.loop.Do(ctx, func() {
			next(ctx)
			loading = c.State() == paging.Loading
		}); err != nil {
			return err
		}
		if !loading {
			return nil
		}

		select {
		case state := <-settled:
			if state == paging.Exhausted {
				return nil
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// closeOnLoop runs a list's close func on the loop. Once the loop has
// stopped it cannot run, and the list is left as is.
func (r *reader) closeOnLoop(list string, closeFn func()) {
	if err := r.loop.Do(context.Background(), closeFn); err != nil {
		r.logger.Debug("list not closed, loop stopped", "list", list, "error", err)
	}
}

func (r *reader) entries(ctx context.Context, v view) ([]*article.Entry, error) {
	var entries []*article.Entry
	err := r.loop.Do(ctx, func() { entries = v.entries() })
	return entries, err
}

func (r *reader) toggle(ctx context.Context, entries []*article.Entry, title string) error {
	for _, e := range entries {
		if e.Article().Title != title {
			continue
		}
		if err := e.ToggleFavorite(ctx); err != nil {
			return fmt.Errorf("toggle %q: %w", title, err)
		}
		r.logger.Info("favorite toggled", "title", title, "favorite", e.IsFavorite())
		return nil
	}
	return fmt.Errorf("no listed article titled %q", title)
}

func printEntries(w io.Writer, entries []*article.Entry) {
	for i, e := range entries {
		mark := " "
		if e.IsFavorite() {
			mark = "*"
		}
		a := e.Article()
		fmt.Fprintf(w, "%3d %s %-12s %s\n", i+1, mark, e.DisplayDate(), a.Title)
		if a.SourceName != "" || a.URL != "" {
			fmt.Fprintf(w, "      %s %s\n", a.SourceName, a.URL)
		}
	}
}
