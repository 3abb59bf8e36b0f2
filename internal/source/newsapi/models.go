package newsapi

// APIResponse represents the NewsAPI v2 response structure.
type APIResponse struct {
	Status       string    `json:"status"`
	TotalResults int       `json:"totalResults"`
	Articles     []Content `json:"articles"`
	Code         string    `json:"code,omitempty"`
	Message      string    `json:"message,omitempty"`
}

type Content struct {
	Source      ContentSource `json:"source"`
	Author      *string       `json:"author"`
	Title       string        `json:"title"`
	Description *string       `json:"description"`
	URL         string        `json:"url"`
	URLToImage  *string       `json:"urlToImage"`
	PublishedAt *string       `json:"publishedAt"`
	Content     *string       `json:"content"`
}

type ContentSource struct {
	ID   *string `json:"id"`
	Name string  `json:"name"`
}
