package screen

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"spotlight/internal/article"
	"spotlight/internal/domain"
	"spotlight/internal/favorite"
	"spotlight/internal/paging/mocks"
	"spotlight/internal/service"
)

type queueExecutor struct {
	posted chan func()
}

func (e *queueExecutor) Post(fn func()) bool {
	e.posted <- fn
	return true
}

// memStorage keeps favorites in memory.
// stalledExecutor stands in for a loop whose queue is full.
type stalledExecutor struct {
	t *testing.T
}

func (e stalledExecutor) Post(func()) bool {
	e.t.Error("unexpected post to a stalled executor")
	return false
}

type memStorage struct {
	articles []domain.Article
}

func (m *memStorage) List(context.Context) ([]domain.Article, error) {
	return append([]domain.Article(nil), m.articles...), nil
}

func (m *memStorage) Toggle(_ context.Context, a domain.Article) (bool, error) {
	for i, cur := range m.articles {
		if cur.SameAs(a) {
			m.articles = append(m.articles[:i], m.articles[i+1:]...)
			return false, nil
		}
	}
	m.articles = append(m.articles, a)
	return true, nil
}

func articles(prefix string, n int) []domain.Article {
	out := make([]domain.Article, n)
	for i := range out {
		out[i] = domain.Article{Title: fmt.Sprintf("%s-%d", prefix, i)}
	}
	return out
}

type ScreenTestSuite struct {
	suite.Suite
	ctx      context.Context
	ctrl     *gomock.Controller
	source   *mocks.MockSource
	executor *queueExecutor
	storage  *memStorage
	store    *favorite.Store
	hub      *favorite.Hub
	factory  *article.Factory
	deps     Deps
}

func TestScreenTestSuite(t *testing.T) {
	suite.Run(t, new(ScreenTestSuite))
}

func (s *ScreenTestSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.ctx = context.Background()
	s.ctrl = gomock.NewController(s.T())
	s.source = mocks.NewMockSource(s.ctrl)
	s.executor = &queueExecutor{posted: make(chan func(), 16)}
	s.storage = &memStorage{}
	s.store = favorite.NewStore(s.storage, logger)
	s.hub = favorite.NewHub()
	svc := service.NewFavoriteService(s.store, s.hub, nil, nil, logger)
	s.factory = article.NewFactory(s.store, s.hub, svc, logger)
	s.deps = Deps{
		Source:   s.source,
		Factory:  s.factory,
		Executor: s.executor,
		Logger:   logger,
		PageSize: 20,
	}
}

func (s *ScreenTestSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *ScreenTestSuite) drain() {
	s.T().Helper()
	select {
	case fn := <-s.executor.posted:
		fn()
	case <-time.After(2 * time.Second):
		s.FailNow("nothing posted")
	}
}

func (s *ScreenTestSuite) expect(q domain.Query, page *domain.Page, err error) *gomock.Call {
	return s.source.EXPECT().FetchPage(gomock.Any(), q).Return(page, err)
}

// Home

func (s *ScreenTestSuite) TestHome_Defaults() {
	home := NewHome(HomeConfig{HeadlinesCountry: "ro", NewsCountry: "gb"}, s.deps)
	defer home.Close()

	s.True(home.IsCategorySelected(domain.CategoryGeneral))
	s.False(home.IsCategorySelected(domain.CategorySports))
	s.Equal([]domain.Category{domain.CategoryGeneral}, home.SelectedCategories())
	s.Equal(domain.NewsCategories, home.Categories())

	s.Equal(1, home.RowsInSection(HomeHeadlines))
	s.Equal(1, home.RowsInSection(HomeTags))
	s.Equal(0, home.RowsInSection(HomeNews))
	s.Equal(1, home.RowsInSection(HomeScrollLoading))
	s.Equal(0, home.RowsInSection(HomeSection(99)))
}

func (s *ScreenTestSuite) TestHome_LoadHeadlines() {
	home := NewHome(HomeConfig{HeadlinesCountry: "ro", NewsCountry: "gb"}, s.deps)

	s.expect(domain.Query{
		Endpoint: domain.EndpointTopHeadlines,
		Country:  "ro",
		Page:     1,
		PageSize: 20,
	}, &domain.Page{Articles: articles("headline", 5), TotalResults: 5}, nil)

	home.LoadHeadlines(s.ctx)
	s.drain()

	s.Equal(5, home.Headlines().ContentRows())
	s.Equal(0, home.RowsInSection(HomeNews))
}

func (s *ScreenTestSuite) TestHome_ToggleCategoryResetsNews() {
	home := NewHome(HomeConfig{HeadlinesCountry: "ro", NewsCountry: "gb"}, s.deps)

	s.expect(domain.Query{
		Endpoint:   domain.EndpointTopHeadlines,
		Categories: []domain.Category{domain.CategoryGeneral},
		Country:    "gb",
		Page:       1,
		PageSize:   20,
	}, &domain.Page{Articles: articles("general", 20), TotalResults: 60}, nil)

	home.LoadMore(s.ctx)
	s.drain()
	s.Equal(20, home.RowsInSection(HomeNews))

	home.ToggleCategory(domain.CategorySports, true)

	s.Equal(0, home.RowsInSection(HomeNews))
	s.Equal(1, home.RowsInSection(HomeScrollLoading))
	s.Equal(0, s.hub.Len())

	s.expect(domain.Query{
		Endpoint:   domain.EndpointTopHeadlines,
		Categories: []domain.Category{domain.CategoryGeneral, domain.CategorySports},
		Country:    "gb",
		Page:       1,
		PageSize:   20,
	}, &domain.Page{Articles: articles("mixed", 3), TotalResults: 3}, nil)

	home.LoadMore(s.ctx)
	s.drain()

	s.Equal(3, home.RowsInSection(HomeNews))
	s.Equal(0, home.RowsInSection(HomeScrollLoading))
}

func (s *ScreenTestSuite) TestHome_ToggleUnknownCategoryIsIgnored() {
	home := NewHome(HomeConfig{NewsCountry: "gb"}, s.deps)

	home.ToggleCategory(domain.CategoryFilter, true)

	s.False(home.IsCategorySelected(domain.CategoryFilter))
	s.Equal([]domain.Category{domain.CategoryGeneral}, home.SelectedCategories())
}

// Latest

func (s *ScreenTestSuite) TestLatest_SeededContinuesFromSecondPage() {
	latest := NewLatest("gb", articles("seed", 20), s.deps)

	s.Equal(20, latest.RowsInSection(LatestNews))
	s.Equal(1, latest.RowsInSection(LatestLoading))

	s.expect(domain.Query{
		Endpoint: domain.EndpointTopHeadlines,
		Country:  "gb",
		Page:     2,
		PageSize: 20,
	}, &domain.Page{Articles: articles("p2", 4), TotalResults: 24}, nil)

	latest.LoadMore(s.ctx)
	s.drain()

	s.Equal(24, latest.RowsInSection(LatestNews))
	s.Equal(0, latest.RowsInSection(LatestLoading))
}

func (s *ScreenTestSuite) TestLatest_UnseededStartsAtFirstPage() {
	latest := NewLatest("gb", nil, s.deps)

	s.expect(domain.Query{
		Endpoint: domain.EndpointTopHeadlines,
		Country:  "gb",
		Page:     1,
		PageSize: 20,
	}, &domain.Page{}, nil)

	latest.LoadMore(s.ctx)
	s.drain()

	s.Equal(0, latest.RowsInSection(LatestNews))
	s.Equal(0, latest.RowsInSection(LatestLoading))
}

func (s *ScreenTestSuite) TestLatest_ToggleExpanded() {
	latest := NewLatest("gb", articles("seed", 3), s.deps)

	latest.ToggleExpanded(1)
	s.True(latest.IsExpanded(1))
	s.False(latest.IsExpanded(0))

	latest.ToggleExpanded(1)
	s.False(latest.IsExpanded(1))

	latest.ToggleExpanded(2)
	latest.Close()
	s.False(latest.IsExpanded(2))
	s.Equal(0, latest.RowsInSection(LatestNews))
}

// Search

func (s *ScreenTestSuite) everything(q string, page int) domain.Query {
	return domain.Query{Endpoint: domain.EndpointEverything, Query: q, Page: page, PageSize: 20}
}

func (s *ScreenTestSuite) TestSearch_PagesThroughCurrentQuery() {
	search := NewSearch("golang", s.deps)

	gomock.InOrder(
		s.expect(s.everything("golang", 1), &domain.Page{Articles: articles("p1", 20), TotalResults: 30}, nil),
		s.expect(s.everything("golang", 2), &domain.Page{Articles: articles("p2", 10), TotalResults: 30}, nil),
	)

	search.Search(s.ctx, "")
	s.drain()
	s.True(search.ShowResultsHeader())
	s.Equal(30, search.ResultCount())

	search.Search(s.ctx, "golang")
	s.drain()

	s.Equal(1, search.RowsInSection(SearchTags))
	s.Equal(30, search.RowsInSection(SearchArticles))
	s.Equal(0, search.RowsInSection(SearchLoading))
	s.Equal(0, search.RowsInSection(SearchInfo))

	// exhausted
	search.Search(s.ctx, "golang")
}

func (s *ScreenTestSuite) TestSearch_NewQueryStartsOver() {
	search := NewSearch("golang", s.deps)

	gomock.InOrder(
		s.expect(s.everything("golang", 1), &domain.Page{Articles: articles("go", 20), TotalResults: 100}, nil),
		s.expect(s.everything("rust", 1), &domain.Page{Articles: articles("rust", 2), TotalResults: 2}, nil),
	)

	search.Search(s.ctx, "")
	s.drain()

	search.Search(s.ctx, "rust")
	s.Equal("rust", search.Query())
	s.Equal(0, search.RowsInSection(SearchArticles))
	s.drain()

	s.Equal(2, search.RowsInSection(SearchArticles))
	s.Equal("rust-0", search.Results().Entries()[0].Article().Title)
	s.Equal(2, search.ResultCount())
}

func (s *ScreenTestSuite) TestSearch_SetCategory() {
	search := NewSearch("golang", s.deps)

	// already selected
	search.SetCategory(s.ctx, domain.CategoryFilter)

	s.expect(domain.Query{
		Endpoint:   domain.EndpointTopHeadlines,
		Query:      "golang",
		Categories: []domain.Category{domain.CategoryTechnology},
		Page:       1,
		PageSize:   20,
	}, &domain.Page{Articles: articles("tech", 20), TotalResults: 40}, nil)

	search.SetCategory(s.ctx, domain.CategoryTechnology)
	s.drain()

	s.Equal(domain.CategoryTechnology, search.Category())
	s.Equal(20, search.RowsInSection(SearchArticles))
	s.Equal(1, search.RowsInSection(SearchLoading))
}

func (s *ScreenTestSuite) TestSearch_SetSortAndLanguage() {
	search := NewSearch("golang", s.deps)

	s.expect(domain.Query{
		Endpoint: domain.EndpointEverything,
		Query:    "golang",
		SortBy:   domain.SortPopularity,
		Language: "en",
		Page:     1,
		PageSize: 20,
	}, &domain.Page{Articles: articles("popular", 1), TotalResults: 1}, nil)

	search.SetSortAndLanguage(s.ctx, domain.SortPopularity, "en")
	s.drain()

	s.Equal(domain.SortPopularity, search.SortBy())
	s.Equal("en", search.Language())
	s.Equal(1, search.RowsInSection(SearchArticles))
}

func (s *ScreenTestSuite) TestSearch_FailureShowsInfoRow() {
	search := NewSearch("golang", s.deps)

	s.expect(s.everything("golang", 1), nil, fmt.Errorf("%w: %w", domain.ErrFetch, errors.New("429")))

	search.Search(s.ctx, "")
	s.drain()

	s.False(search.ShowResultsHeader())
	s.Equal(0, search.RowsInSection(SearchArticles))
	s.Equal(0, search.RowsInSection(SearchLoading))
	s.Equal(1, search.RowsInSection(SearchInfo))
}

// Favorites

func (s *ScreenTestSuite) TestFavorites_ListsStoreInOrder() {
	s.storage.articles = []domain.Article{{Title: "old"}, {Title: "new"}}
	s.Require().NoError(s.store.Load(s.ctx))

	favs := NewFavorites(s.store, s.deps)
	favs.Reload()

	s.Require().Equal(2, favs.Len())
	s.Equal("old", favs.Entries()[0].Article().Title)
	s.True(favs.Entries()[0].IsFavorite())
}

func (s *ScreenTestSuite) TestFavorites_UnfavoritedElsewhereIsRemoved() {
	s.storage.articles = []domain.Article{{Title: "A"}, {Title: "B"}}
	s.Require().NoError(s.store.Load(s.ctx))

	favs := NewFavorites(s.store, s.deps)
	favs.Reload()
	inSearch := s.factory.New(domain.Article{Title: "A"})
	s.Require().True(inSearch.IsFavorite())

	s.Require().NoError(inSearch.ToggleFavorite(s.ctx))

	s.Require().Equal(1, favs.Len())
	s.Equal("B", favs.Entries()[0].Article().Title)
	s.Equal(2, s.hub.Len()) // B in favorites, A in search
	runtime.KeepAlive(inSearch)
}

func (s *ScreenTestSuite) TestFavorites_ToggleFromListRemovesIt() {
	s.storage.articles = []domain.Article{{Title: "A"}}
	s.Require().NoError(s.store.Load(s.ctx))

	favs := NewFavorites(s.store, s.deps)
	favs.Reload()

	s.Require().NoError(favs.Entries()[0].ToggleFavorite(s.ctx))

	s.Equal(0, favs.Len())
	s.Equal(0, s.store.Len())
	s.Equal(0, s.hub.Len())
}

func (s *ScreenTestSuite) TestFavorites_ReloadReplacesEntries() {
	s.storage.articles = []domain.Article{{Title: "A"}}
	s.Require().NoError(s.store.Load(s.ctx))

	favs := NewFavorites(s.store, s.deps)
	favs.Reload()
	favs.Reload()

	s.Equal(1, favs.Len())
	s.Equal(1, s.hub.Len())

	favs.Close()
	s.Equal(0, favs.Len())
	s.Equal(0, s.hub.Len())
}

func (s *ScreenTestSuite) TestFavorites_RemovalNeedsNoExecutor() {
	s.storage.articles = []domain.Article{{Title: "A"}, {Title: "B"}, {Title: "C"}}
	s.Require().NoError(s.store.Load(s.ctx))

	deps := s.deps
	deps.Executor = stalledExecutor{t: s.T()}
	favs := NewFavorites(s.store, deps)
	favs.Reload()

	var wg sync.WaitGroup
	for _, e := range favs.Entries() {
		wg.Add(1)
		go func(e *article.Entry) {
			defer wg.Done()
			s.NoError(e.ToggleFavorite(s.ctx))
		}(e)
	}
	wg.Wait()

	s.Equal(0, favs.Len())
	s.Equal(0, s.store.Len())
	s.Equal(0, s.hub.Len())
}
