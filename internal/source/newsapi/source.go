package newsapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"spotlight/internal/domain"
)

const (
	SourceID   = "newsapi"
	SourceName = "NewsAPI"
)

// Config holds NewsAPI source configuration.
type Config struct {
	BaseURL        string
	APIKey         string
	PageSize       int
	Timeout        time.Duration
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration

	RequestsPerSecond float64
	Burst             int

	BreakerMaxRequests      uint32
	BreakerInterval         time.Duration
	BreakerTimeout          time.Duration
	BreakerFailureThreshold float64
	BreakerMinRequests      uint32
}

// StatusError is returned for non-200 responses.
type StatusError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *StatusError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("unexpected status: %d (%s: %s)", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("unexpected status: %d", e.StatusCode)
}

func (e *StatusError) retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// Source implements paging.Source for the NewsAPI v2 HTTP API.
type Source struct {
	httpClient     *http.Client
	baseURL        string
	apiKey         string
	pageSize       int
	maxAttempts    int
	initialBackoff time.Duration
	maxBackoff     time.Duration
	limiter        *rate.Limiter
	breaker        *gobreaker.CircuitBreaker
	logger         *slog.Logger
}

// New creates a new NewsAPI source.
func New(cfg Config, logger *slog.Logger) *Source {
	logger = logger.With("source", SourceID)

	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if cfg.PageSize == 0 {
		cfg.PageSize = domain.DefaultPageSize
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}

	minRequests := cfg.BreakerMinRequests
	threshold := cfg.BreakerFailureThreshold
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        SourceID,
		MaxRequests: cfg.BreakerMaxRequests,
		Interval:    cfg.BreakerInterval,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if threshold <= 0 || counts.Requests < minRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= threshold
		},
		IsSuccessful: countsAsSuccess,
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				"circuit", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	})

	return &Source{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:         cfg.APIKey,
		pageSize:       cfg.PageSize,
		maxAttempts:    cfg.MaxAttempts,
		initialBackoff: cfg.InitialBackoff,
		maxBackoff:     cfg.MaxBackoff,
		limiter:        rate.NewLimiter(limit, burst),
		breaker:        breaker,
		logger:         logger,
	}
}

// ID returns the source identifier.
func (s *Source) ID() string {
	return SourceID
}

// Name returns human-readable name.
func (s *Source) Name() string {
	return SourceName
}

// PageSize returns the page size requested when a query does not carry one.
func (s *Source) PageSize() int {
	return s.pageSize
}

// FetchPage fetches a single page of articles for q.
// Every returned error wraps domain.ErrFetch.
func (s *Source) FetchPage(ctx context.Context, q domain.Query) (*domain.Page, error) {
	if q.PageSize == 0 {
		q.PageSize = s.pageSize
	}
	if q.Page < 1 {
		q.Page = 1
	}

	resp, err := s.fetchWithRetry(ctx, s.buildURL(q))
	if err != nil {
		return nil, fmt.Errorf("%w: page %d: %w", domain.ErrFetch, q.Page, err)
	}

	s.logger.Debug("fetched page",
		"endpoint", q.Endpoint,
		"page", q.Page,
		"articles", len(resp.Articles),
		"total", resp.TotalResults,
	)

	return &domain.Page{
		Articles:     transform(resp.Articles),
		TotalResults: resp.TotalResults,
	}, nil
}

func (s *Source) buildURL(q domain.Query) string {
	endpoint := q.Endpoint
	if endpoint == "" {
		endpoint = domain.EndpointTopHeadlines
	}

	params := url.Values{}
	params.Set("apiKey", s.apiKey)
	params.Set("page", strconv.Itoa(q.Page))
	params.Set("pageSize", strconv.Itoa(q.PageSize))
	if q.Query != "" {
		params.Set("q", q.Query)
	}

	switch endpoint {
	case domain.EndpointTopHeadlines:
		if q.Country != "" {
			params.Set("country", q.Country)
		}
		// top-headlines accepts a single category
		for _, c := range q.Categories {
			if c != "" && c != domain.CategoryFilter {
				params.Set("category", string(c))
				break
			}
		}
	case domain.EndpointEverything:
		if q.SortBy != "" {
			params.Set("sortBy", string(q.SortBy))
		}
		if q.Language != "" {
			params.Set("language", q.Language)
		}
	}

	return fmt.Sprintf("%s/%s?%s", s.baseURL, endpoint, params.Encode())
}

func (s *Source) fetchWithRetry(ctx context.Context, url string) (*APIResponse, error) {
	var resp *APIResponse
	var err error

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		if err = s.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("wait for rate limiter: %w", err)
		}

		resp, err = s.doRequestWithBreaker(ctx, url)
		if err == nil {
			return resp, nil
		}

		var statusErr *StatusError
		if errors.As(err, &statusErr) && !statusErr.retryable() {
			return nil, err
		}
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, err
		}

		if attempt == s.maxAttempts {
			break
		}

		backoff := s.calculateBackoff(attempt)
		s.logger.Warn("request failed, retrying",
			"attempt", attempt,
			"backoff", backoff,
			"error", err,
		)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}

	return nil, fmt.Errorf("after %d attempts: %w", s.maxAttempts, err)
}

// countsAsSuccess tells the breaker which outcomes leave its failure count
// alone. Client errors such as a bad query or a plan limit are answers from a
// healthy API.
func countsAsSuccess(err error) bool {
	if err == nil {
		return true
	}
	var statusErr *StatusError
	return errors.As(err, &statusErr) && !statusErr.retryable()
}

func (s *Source) doRequestWithBreaker(ctx context.Context, url string) (*APIResponse, error) {
	out, err := s.breaker.Execute(func() (interface{}, error) {
		return s.doRequest(ctx, url)
	})
	if err != nil {
		return nil, err
	}
	return out.(*APIResponse), nil
}

func (s *Source) doRequest(ctx context.Context, url string) (*APIResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "Spotlight/1.0")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	var apiResp APIResponse
	decodeErr := json.NewDecoder(resp.Body).Decode(&apiResp)

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{
			StatusCode: resp.StatusCode,
			Code:       apiResp.Code,
			Message:    apiResp.Message,
		}
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("decode response: %w", decodeErr)
	}
	if apiResp.Status != "" && apiResp.Status != "ok" {
		return nil, fmt.Errorf("api status %q: %s", apiResp.Status, apiResp.Message)
	}

	return &apiResp, nil
}

func (s *Source) calculateBackoff(attempt int) time.Duration {
	backoff := s.initialBackoff
	for i := 1; i < attempt; i++ {
		backoff *= 2
	}
	if backoff > s.maxBackoff {
		backoff = s.maxBackoff
	}
	return backoff
}

func transform(contents []Content) []domain.Article {
	articles := make([]domain.Article, 0, len(contents))

	for _, c := range contents {
		articles = append(articles, domain.Article{
			SourceName:  c.Source.Name,
			Author:      c.Author,
			Title:       c.Title,
			Description: c.Description,
			URL:         c.URL,
			ImageURL:    c.URLToImage,
			PublishedAt: c.PublishedAt,
			Content:     c.Content,
		})
	}

	return articles
}
