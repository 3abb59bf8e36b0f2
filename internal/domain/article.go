package domain

// Article is a single news article as returned by a news source.
// Values are never mutated after decoding.
type Article struct {
	SourceName  string  `json:"source_name" db:"source_name"`
	Author      *string `json:"author,omitempty" db:"author"`
	Title       string  `json:"title" db:"title"`
	Description *string `json:"description,omitempty" db:"description"`
	URL         string  `json:"url" db:"url"`
	ImageURL    *string `json:"image_url,omitempty" db:"image_url"`
	PublishedAt *string `json:"published_at,omitempty" db:"published_at"` // source format, e.g. RFC3339
	Content     *string `json:"content,omitempty" db:"content"`
}

// Key returns the identity key used to decide whether two articles are the same.
// Articles are matched by title.
func (a Article) Key() string {
	return a.Title
}

// SameAs reports whether a and other share an identity key.
func (a Article) SameAs(other Article) bool {
	return a.Key() == other.Key()
}

// Page is one fetch worth of articles.
type Page struct {
	Articles     []Article
	TotalResults int
}
