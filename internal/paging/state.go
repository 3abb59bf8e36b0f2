package paging

import "spotlight/internal/article"

type State int

const (
	Idle State = iota
	Loading
	HasData
	Error
	Exhausted
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case HasData:
		return "has_data"
	case Error:
		return "error"
	case Exhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// Snapshot is the controller state delivered to subscribers.
type Snapshot struct {
	State        State
	Entries      []*article.Entry
	Page         int
	TotalResults int
	Err          error
}
