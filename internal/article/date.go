package article

import (
	"time"

	"github.com/araddon/dateparse"
)

// DateLayout is the layout of Entry.DisplayDate.
const DateLayout = "Jan 2, 2006"

// FormatDate renders a source timestamp for display. It returns "" when the
// timestamp is missing or cannot be parsed.
func FormatDate(publishedAt *string) string {
	if publishedAt == nil || *publishedAt == "" {
		return ""
	}
	t, err := dateparse.ParseIn(*publishedAt, time.UTC)
	if err != nil {
		return ""
	}
	return t.Format(DateLayout)
}
