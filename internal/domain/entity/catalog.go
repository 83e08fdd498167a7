package entity

type Product struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	Price       float64 `json:"price"`
	ImageURL    string  `json:"image_url"`
}

// ProductPage is one page of a cursor-paginated listing. HasNext reflects
// whether the server returned a next_page_token; an empty NextCursor with
// HasNext false terminates pagination. Only the absence of a token ends a
// feed; an empty product list on its own does not.
type ProductPage struct {
	Products   []Product
	NextCursor string
	HasNext    bool
}

type Category struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
}

type WidgetType string

const (
	WidgetTypeGroup    WidgetType = "group"
	WidgetTypeCarousel WidgetType = "carousel"
)

// Widget is a tagged union: a group bundles categories, a carousel references
// a single category whose products are loaded lazily. Consumers must switch
// on Type and skip unrecognized tags.
type Widget struct {
	Type       WidgetType
	ID         string
	Title      string
	Categories []Category // group only
	CategoryID string     // carousel only
}

// Landing is the ordered widget composition of the landing page.
type Landing struct {
	ID      string
	Widgets []Widget
}
