package screen

import (
	"context"

	"spotlight/internal/domain"
	"spotlight/internal/paging"
)

type LatestSection int

const (
	LatestNews LatestSection = iota
	LatestLoading
)

var LatestSections = []LatestSection{LatestNews, LatestLoading}

// Latest lists the newest headlines for a country. It is usually opened
// with the first page the home screen already has.
type Latest struct {
	news     *paging.Controller
	expanded map[int]bool
}

func NewLatest(country string, seed []domain.Article, deps Deps) *Latest {
	l := &Latest{
		news: deps.list("latest", domain.Query{
			Endpoint: domain.EndpointTopHeadlines,
			Country:  country,
		}),
		expanded: make(map[int]bool),
	}
	l.news.Seed(seed)
	return l
}

func (l *Latest) News() *paging.Controller { return l.news }

func (l *Latest) LoadMore(ctx context.Context) {
	l.news.LoadNext(ctx)
}

// ToggleExpanded flips whether row i shows its full description.
func (l *Latest) ToggleExpanded(i int) {
	if l.expanded[i] {
		delete(l.expanded, i)
		return
	}
	l.expanded[i] = true
}

func (l *Latest) IsExpanded(i int) bool {
	return l.expanded[i]
}

func (l *Latest) RowsInSection(s LatestSection) int {
	switch s {
	case LatestNews:
		return l.news.ContentRows()
	case LatestLoading:
		return l.news.LoadingRows()
	default:
		return 0
	}
}

func (l *Latest) Close() {
	l.expanded = make(map[int]bool)
	l.news.Close()
}
