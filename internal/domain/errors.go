package domain

import "errors"

var (
	// ErrFetch marks any failure to fetch or decode a page from a news source.
	ErrFetch = errors.New("fetch failed")
	// ErrPersistence marks a failure to persist a favorite change.
	ErrPersistence = errors.New("persistence failed")
)
