package paging

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"spotlight/internal/article"
	"spotlight/internal/domain"
)

type Source interface {
	FetchPage(ctx context.Context, q domain.Query) (*domain.Page, error)
}

// Executor runs posted functions one at a time. Post reports false when fn
// will never run.
type Executor interface {
	Post(fn func()) bool
}

type EntryFactory interface {
	NewAll(articles []domain.Article) []*article.Entry
}
