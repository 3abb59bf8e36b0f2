// Package screen holds the list models behind each reader screen: the home
// feed, the latest news, search results and favorites.
package screen

import (
	"log/slog"

	"spotlight/internal/domain"
	"spotlight/internal/metrics"
	"spotlight/internal/paging"
)

// Deps are the collaborators shared by every screen.
type Deps struct {
	Source   paging.Source
	Factory  paging.EntryFactory
	Executor paging.Executor
	Metrics  *metrics.Metrics
	Logger   *slog.Logger
	PageSize int
}

func (d Deps) list(name string, q domain.Query) *paging.Controller {
	q.PageSize = d.pageSize()
	return paging.New(name, q, d.Source, d.Factory, d.Executor, d.Metrics, d.Logger)
}

func (d Deps) pageSize() int {
	if d.PageSize <= 0 {
		return domain.DefaultPageSize
	}
	return d.PageSize
}
