package favorite

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"spotlight/internal/domain"
)

// Storage is the durable favorites set behind Store.
type Storage interface {
	List(ctx context.Context) ([]domain.Article, error)
	Toggle(ctx context.Context, article domain.Article) (added bool, err error)
}

// Handle receives favorite state changes for the article it represents.
type Handle interface {
	Matches(article domain.Article) bool
	ApplyFavoriteState(isFavorite bool)
}
