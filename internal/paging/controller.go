// Package paging loads a query page by page into an append-only list of
// article entries.
package paging

import (
	"context"
	"log/slog"

	"spotlight/internal/article"
	"spotlight/internal/domain"
	"spotlight/internal/metrics"
)

// Controller owns one paged list. Every method must be called on the
// executor it was built with; fetches run on their own goroutine and post
// their completion back to it.
type Controller struct {
	name     string
	source   Source
	factory  EntryFactory
	executor Executor
	metrics  *metrics.Metrics
	logger   *slog.Logger

	query        domain.Query
	page         int
	entries      []*article.Entry
	state        State
	totalResults int
	err          error

	// bumped by Reset, Seed and Close; completions from older generations are dropped
	generation uint64
	closed     bool

	observers    []observer
	nextObserver int
}

type observer struct {
	id int
	fn func(Snapshot)
}

func New(
	name string,
	query domain.Query,
	source Source,
	factory EntryFactory,
	executor Executor,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Controller {
	if query.PageSize <= 0 {
		query.PageSize = domain.DefaultPageSize
	}
	return &Controller{
		name:     name,
		source:   source,
		factory:  factory,
		executor: executor,
		metrics:  m,
		logger:   logger.With("component", "paging", "list", name),
		query:    query,
	}
}

func (c *Controller) Name() string { return c.name }

func (c *Controller) Query() domain.Query { return c.query }

func (c *Controller) State() State { return c.state }

func (c *Controller) Page() int { return c.page }

// Err returns the last fetch error, if the list stopped because of one.
func (c *Controller) Err() error { return c.err }

func (c *Controller) TotalResults() int { return c.totalResults }

// Entries returns the loaded entries in load order.
func (c *Controller) Entries() []*article.Entry {
	out := make([]*article.Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

func (c *Controller) ContentRows() int {
	return len(c.entries)
}

// LoadingRows is 1 while more pages may follow.
func (c *Controller) LoadingRows() int {
	if c.state == Exhausted {
		return 0
	}
	return 1
}

// EmptyRows is 1 when the list finished without any entries.
func (c *Controller) EmptyRows() int {
	if c.state == Exhausted && len(c.entries) == 0 {
		return 1
	}
	return 0
}

// Reset drops all entries and starts over with q. It does not fetch.
func (c *Controller) Reset(q domain.Query) {
	if c.closed {
		return
	}
	if q.PageSize <= 0 {
		q.PageSize = domain.DefaultPageSize
	}

	c.generation++
	c.release()
	c.query = q
	c.page = 0
	c.totalResults = 0
	c.err = nil
	c.setState(Idle)
}

// Seed primes the list with an already fetched first page.
func (c *Controller) Seed(articles []domain.Article) {
	if c.closed || len(articles) == 0 {
		return
	}

	c.generation++
	c.release()
	c.entries = c.factory.NewAll(articles)
	c.page = 1
	c.err = nil
	c.setState(HasData)
}

// LoadNext requests the next page. It is a no-op while a page is loading
// or after the list is exhausted.
func (c *Controller) LoadNext(ctx context.Context) {
	if c.closed || c.state == Loading || c.state == Exhausted {
		return
	}

	c.page++
	q := c.query.WithPage(c.page)
	gen := c.generation
	c.setState(Loading)

	c.logger.Debug("loading page", "page", q.Page, "endpoint", q.Endpoint)

	go func() {
		page, err := c.source.FetchPage(ctx, q)
		if !c.executor.Post(func() { c.complete(gen, q, page, err) }) {
			c.logger.Debug("executor stopped, page dropped", "page", q.Page)
		}
	}()
}

func (c *Controller) complete(gen uint64, q domain.Query, page *domain.Page, err error) {
	if c.closed || gen != c.generation {
		c.metrics.ObservePage(c.name, metrics.OutcomeDiscarded)
		return
	}

	if err != nil {
		c.metrics.ObservePage(c.name, metrics.OutcomeError)
		c.logger.Warn("page fetch failed", "page", q.Page, "error", err)
		c.err = err
		c.setState(Error)
		c.setState(Exhausted)
		return
	}

	var articles []domain.Article
	if page != nil {
		articles = page.Articles
		c.totalResults = page.TotalResults
	}
	c.entries = append(c.entries, c.factory.NewAll(articles)...)

	if len(articles) < q.PageSize {
		c.metrics.ObservePage(c.name, metrics.OutcomeExhausted)
		c.setState(Exhausted)
	} else {
		c.metrics.ObservePage(c.name, metrics.OutcomeData)
		c.setState(HasData)
	}

	c.logger.Debug("page loaded", "page", q.Page, "articles", len(articles), "total", len(c.entries))
}

// Subscribe registers fn for every state change. The returned func removes it.
func (c *Controller) Subscribe(fn func(Snapshot)) (cancel func()) {
	id := c.nextObserver
	c.nextObserver++
	c.observers = append(c.observers, observer{id: id, fn: fn})

	return func() {
		for i, o := range c.observers {
			if o.id == id {
				c.observers = append(c.observers[:i:i], c.observers[i+1:]...)
				return
			}
		}
	}
}

// Close releases all entries and drops any fetch still in flight.
func (c *Controller) Close() {
	if c.closed {
		return
	}
	c.closed = true
	c.generation++
	c.release()
	c.observers = nil
}

func (c *Controller) Snapshot() Snapshot {
	return Snapshot{
		State:        c.state,
		Entries:      c.Entries(),
		Page:         c.page,
		TotalResults: c.totalResults,
		Err:          c.err,
	}
}

func (c *Controller) setState(s State) {
	c.state = s
	if len(c.observers) == 0 {
		return
	}

	snap := c.Snapshot()
	observers := append([]observer(nil), c.observers...)
	for _, o := range observers {
		o.fn(snap)
	}
}

func (c *Controller) release() {
	article.ReleaseAll(c.entries)
	c.entries = nil
}
