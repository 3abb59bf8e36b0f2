package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"spotlight/internal/domain"
	"spotlight/internal/favorite"
)

type FavoriteStore interface {
	Update(ctx context.Context, article domain.Article) (added bool, err error)
}

type Notifier interface {
	InvokeAll(filter func(favorite.Handle) bool, action func(favorite.Handle))
}

type Publisher interface {
	PublishFavorite(ctx context.Context, article domain.Article, added bool) error
	Close() error
}
