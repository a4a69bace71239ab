package responses

// Snippet is one tile of a listing page. WidgetType discriminates product
// cards from unrelated UI content; Data stays a raw map because every field
// in it is optional.
type Snippet struct {
	WidgetType string         `json:"widget_type"`
	Data       map[string]any `json:"data"`
}

type Pagination struct {
	// NextURL points at the next page, relative or absolute.
	// Empty means the listing is exhausted.
	NextURL string `json:"next_url"`
}

type ListingPage struct {
	Snippets   []Snippet  `json:"snippets"`
	Pagination Pagination `json:"pagination"`
}
