package sqlstore

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"spotlight/internal/domain"
)

// FavoriteStore is the durable favorites set, keyed by article identity key.
type FavoriteStore struct {
	db  *sqlx.DB
	txm *TransactionManager
	now func() time.Time
}

func NewFavoriteStore(db *sqlx.DB) *FavoriteStore {
	return &FavoriteStore{
		db:  db,
		txm: NewTransactionManager(db),
		now: func() time.Time { return time.Now().UTC() },
	}
}

// List returns every stored favorite, oldest first.
func (s *FavoriteStore) List(ctx context.Context) ([]domain.Article, error) {
	query := `
		SELECT source_name, author, title, description, url, image_url, published_at, content
		FROM favorites
		ORDER BY created_at, article_key`

	var articles []domain.Article
	if err := s.db.SelectContext(ctx, &articles, query); err != nil {
		return nil, fmt.Errorf("select favorites: %w", err)
	}
	return articles, nil
}

// Toggle removes the article when it is stored and inserts it otherwise,
// inside one transaction. It reports whether the article was added.
func (s *FavoriteStore) Toggle(ctx context.Context, article domain.Article) (bool, error) {
	var added bool

	err := s.txm.WithTransaction(ctx, func(txCtx context.Context) error {
		exec := GetExecutor(txCtx, s.db)

		res, err := exec.ExecContext(txCtx,
			exec.Rebind("DELETE FROM favorites WHERE article_key = ?"),
			article.Key(),
		)
		if err != nil {
			return fmt.Errorf("delete favorite: %w", err)
		}

		removed, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if removed > 0 {
			added = false
			return nil
		}

		_, err = exec.ExecContext(txCtx, exec.Rebind(`
			INSERT INTO favorites (
				article_key, source_name, author, title, description,
				url, image_url, published_at, content, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
			article.Key(),
			article.SourceName,
			article.Author,
			article.Title,
			article.Description,
			article.URL,
			article.ImageURL,
			article.PublishedAt,
			article.Content,
			s.now(),
		)
		if err != nil {
			return fmt.Errorf("insert favorite: %w", err)
		}
		added = true
		return nil
	})
	if err != nil {
		return false, err
	}

	return added, nil
}
