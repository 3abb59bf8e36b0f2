package screen

import (
	"context"

	"spotlight/internal/domain"
	"spotlight/internal/paging"
)

type HomeSection int

const (
	HomeHeadlines HomeSection = iota
	HomeTags
	HomeNews
	HomeScrollLoading
)

var HomeSections = []HomeSection{HomeHeadlines, HomeTags, HomeNews, HomeScrollLoading}

type HomeConfig struct {
	HeadlinesCountry string
	NewsCountry      string
	DefaultCategory  domain.Category
}

// Home is the landing screen: a headlines carousel, category tags and an
// endless news feed filtered by the selected tags.
type Home struct {
	cfg       HomeConfig
	headlines *paging.Controller
	news      *paging.Controller
	tags      map[domain.Category]bool
	pageSize  int
}

func NewHome(cfg HomeConfig, deps Deps) *Home {
	if cfg.DefaultCategory == "" {
		cfg.DefaultCategory = domain.CategoryGeneral
	}

	h := &Home{
		cfg:      cfg,
		tags:     make(map[domain.Category]bool, len(domain.NewsCategories)),
		pageSize: deps.pageSize(),
	}
	for _, c := range domain.NewsCategories {
		h.tags[c] = c == cfg.DefaultCategory
	}

	h.headlines = deps.list("headlines", h.headlinesQuery())
	h.news = deps.list("home", h.newsQuery())
	return h
}

func (h *Home) Headlines() *paging.Controller { return h.headlines }

func (h *Home) News() *paging.Controller { return h.news }

// LoadHeadlines fetches the headlines carousel, replacing what it showed.
func (h *Home) LoadHeadlines(ctx context.Context) {
	h.headlines.Reset(h.headlinesQuery())
	h.headlines.LoadNext(ctx)
}

func (h *Home) LoadMore(ctx context.Context) {
	h.news.LoadNext(ctx)
}

func (h *Home) Categories() []domain.Category {
	return append([]domain.Category(nil), domain.NewsCategories...)
}

func (h *Home) IsCategorySelected(c domain.Category) bool {
	return h.tags[c]
}

// SelectedCategories returns the selected tags in display order.
func (h *Home) SelectedCategories() []domain.Category {
	var out []domain.Category
	for _, c := range domain.NewsCategories {
		if h.tags[c] {
			out = append(out, c)
		}
	}
	return out
}

// ToggleCategory selects or deselects a tag and empties the news feed.
// The next LoadMore starts again from the first page.
func (h *Home) ToggleCategory(c domain.Category, selected bool) {
	if _, ok := h.tags[c]; !ok {
		return
	}
	h.tags[c] = selected
	h.news.Reset(h.newsQuery())
}

func (h *Home) RowsInSection(s HomeSection) int {
	switch s {
	case HomeHeadlines, HomeTags:
		return 1
	case HomeNews:
		return h.news.ContentRows()
	case HomeScrollLoading:
		return h.news.LoadingRows()
	default:
		return 0
	}
}

func (h *Home) Close() {
	h.headlines.Close()
	h.news.Close()
}

func (h *Home) headlinesQuery() domain.Query {
	return domain.Query{
		Endpoint: domain.EndpointTopHeadlines,
		Country:  h.cfg.HeadlinesCountry,
		PageSize: h.pageSize,
	}
}

func (h *Home) newsQuery() domain.Query {
	return domain.Query{
		Endpoint:   domain.EndpointTopHeadlines,
		Categories: h.SelectedCategories(),
		Country:    h.cfg.NewsCountry,
		PageSize:   h.pageSize,
	}
}
