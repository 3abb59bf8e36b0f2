package screen

import (
	"context"

	"spotlight/internal/domain"
	"spotlight/internal/paging"
)

type SearchSection int

const (
	SearchTags SearchSection = iota
	SearchArticles
	SearchLoading
	SearchInfo
)

var SearchSections = []SearchSection{SearchTags, SearchArticles, SearchLoading, SearchInfo}

// Search pages through results for a free-text query. With the filter
// category selected it searches all articles, honoring sort order and
// language; any other category narrows the top headlines.
type Search struct {
	results  *paging.Controller
	query    string
	category domain.Category
	sortBy   domain.SortBy
	language string
	pageSize int
}

func NewSearch(query string, deps Deps) *Search {
	s := &Search{
		query:    query,
		category: domain.CategoryFilter,
		pageSize: deps.pageSize(),
	}
	s.results = deps.list("search", s.buildQuery())
	return s
}

func (s *Search) Results() *paging.Controller { return s.results }

func (s *Search) Query() string { return s.query }

func (s *Search) Category() domain.Category { return s.category }

func (s *Search) SortBy() domain.SortBy { return s.sortBy }

func (s *Search) Language() string { return s.language }

// ResultCount is the total number of matches the source reported.
func (s *Search) ResultCount() int { return s.results.TotalResults() }

// Search starts over when q is a new non-empty query and otherwise loads
// the next page of the current one.
func (s *Search) Search(ctx context.Context, q string) {
	if q != "" && q != s.query {
		s.query = q
		s.restart(ctx)
		return
	}
	s.results.LoadNext(ctx)
}

// SetCategory switches category and restarts the search. Selecting the
// current category does nothing.
func (s *Search) SetCategory(ctx context.Context, c domain.Category) {
	if c == s.category {
		return
	}
	s.category = c
	s.restart(ctx)
}

// SetSortAndLanguage changes the filter options and restarts the search.
// Empty values leave the choice to the source.
func (s *Search) SetSortAndLanguage(ctx context.Context, sortBy domain.SortBy, language string) {
	s.sortBy = sortBy
	s.language = language
	s.restart(ctx)
}

// ShowResultsHeader reports whether there is anything to summarize.
func (s *Search) ShowResultsHeader() bool {
	return s.results.ContentRows() > 0
}

func (s *Search) RowsInSection(sec SearchSection) int {
	switch sec {
	case SearchTags:
		return 1
	case SearchArticles:
		return s.results.ContentRows()
	case SearchLoading:
		return s.results.LoadingRows()
	case SearchInfo:
		return s.results.EmptyRows()
	default:
		return 0
	}
}

func (s *Search) Close() {
	s.results.Close()
}

func (s *Search) restart(ctx context.Context) {
	s.results.Reset(s.buildQuery())
	s.results.LoadNext(ctx)
}

func (s *Search) buildQuery() domain.Query {
	if s.category == domain.CategoryFilter {
		return domain.Query{
			Endpoint: domain.EndpointEverything,
			Query:    s.query,
			SortBy:   s.sortBy,
			Language: s.language,
			PageSize: s.pageSize,
		}
	}
	return domain.Query{
		Endpoint:   domain.EndpointTopHeadlines,
		Query:      s.query,
		Categories: []domain.Category{s.category},
		PageSize:   s.pageSize,
	}
}
