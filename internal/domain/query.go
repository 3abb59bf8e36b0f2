package domain

// DefaultPageSize is the number of articles requested per page.
const DefaultPageSize = 20

// Endpoint selects which listing a query is sent to.
type Endpoint string

const (
	EndpointTopHeadlines Endpoint = "top-headlines"
	EndpointEverything   Endpoint = "everything"
)

type Category string

const (
	CategoryFilter        Category = "filter" // not a news category; selects free search
	CategoryBusiness      Category = "business"
	CategoryEntertainment Category = "entertainment"
	CategoryGeneral       Category = "general"
	CategoryHealth        Category = "health"
	CategoryScience       Category = "science"
	CategorySports        Category = "sports"
	CategoryTechnology    Category = "technology"
)

// NewsCategories lists the categories accepted by the top-headlines endpoint, in display order.
var NewsCategories = []Category{
	CategoryGeneral,
	CategoryBusiness,
	CategoryEntertainment,
	CategoryHealth,
	CategoryScience,
	CategorySports,
	CategoryTechnology,
}

type SortBy string

const (
	SortRelevancy   SortBy = "relevancy"
	SortPopularity  SortBy = "popularity"
	SortPublishedAt SortBy = "publishedAt"
)

// Query holds the filter parameters of a page request.
// Page is 1-based and is set by the caller on every request.
type Query struct {
	Endpoint   Endpoint
	Query      string
	Categories []Category
	Country    string
	SortBy     SortBy
	Language   string
	Page       int
	PageSize   int
}

// WithPage returns a copy of q for the given page.
func (q Query) WithPage(page int) Query {
	q.Page = page
	if q.PageSize == 0 {
		q.PageSize = DefaultPageSize
	}
	return q
}
