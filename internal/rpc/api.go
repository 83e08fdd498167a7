package rpc

import (
	"context"

	"github.com/google/uuid"

	"github.com/velmart/storefront/internal/domain/entity"
)

const (
	endpointCartsGet       = "/b2b/v1/front/carts/get"
	endpointCartsSet       = "/b2b/v1/front/carts/set"
	endpointOrdersCreate   = "/b2b/v1/front/orders/create"
	endpointMainsGet       = "/b2b/v1/front/mains/get"
	endpointProductsList   = "/b2b/v1/front/products/list"
	endpointStoresGet      = "/b2b/v1/front/stores/get"
	endpointOrdersTracking = "/b2b/v1/front/orders-tracking/get"
)

// MaxPageLimit is the largest page size the backend honors; larger requests
// are clamped client-side.
const MaxPageLimit = 100

// Backend is the full surface the storefront consumes. *Client implements it;
// tests substitute doubles.
type Backend interface {
	CartsGet(ctx context.Context, cartID string) (*CartPayload, error)
	CartsSet(ctx context.Context, req CartsSetRequest) (*CartPayload, error)
	OrdersCreate(ctx context.Context, req OrdersCreateRequest) (*OrdersCreateResponse, error)
	MainsGet(ctx context.Context, locale string) (*MainPayload, error)
	ProductsList(ctx context.Context, req ProductsListRequest) (*ProductsListResponse, error)
	StoresGet(ctx context.Context) ([]entity.Store, error)
	OrdersTrackingGet(ctx context.Context, orderID string) ([]entity.OrderInfo, error)
}

type CartItemRef struct {
	ID       string `json:"id"`
	Quantity int    `json:"quantity"`
}

type CartItemPayload struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
	ImageURL string  `json:"image_url"`
}

type CartPayload struct {
	ID      string            `json:"id"`
	Version int64             `json:"version"`
	Items   []CartItemPayload `json:"items"`
}

type cartsGetRequest struct {
	ID string `json:"id,omitempty"`
}

// CartsSetRequest creates or updates the server cart. ID and Version are
// omitted until the server has created the cart; afterwards every mutation
// must carry the last acknowledged pair.
type CartsSetRequest struct {
	Items             []CartItemRef    `json:"items"`
	FulfillmentMethod string           `json:"fulfillment_method"`
	StoreID           string           `json:"store_id,omitempty"`
	Position          *entity.Position `json:"position,omitempty"`
	ID                string           `json:"id,omitempty"`
	Version           *int64           `json:"version,omitempty"`
}

type OrdersCreateRequest struct {
	Position    entity.Position `json:"position"`
	CartID      string          `json:"cart_id"`
	CartVersion int64           `json:"cart_version"`
}

type OrdersCreateResponse struct {
	OrderID string `json:"order_id"`
}

type CategoryPayload struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
}

type WidgetPayload struct {
	Type       string            `json:"type"`
	ID         string            `json:"id"`
	Title      string            `json:"title"`
	Categories []CategoryPayload `json:"categories"`
	CategoryID string            `json:"category_id"`
}

type MainPayload struct {
	ID      string          `json:"id"`
	Widgets []WidgetPayload `json:"widgets"`
}

type mainsGetRequest struct {
	Locale string `json:"locale"`
}

type ProductPayload struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	ImageURL    string  `json:"image_url"`
}

// ProductsListRequest fetches one page. An empty PageToken requests the first
// page and is omitted from the wire entirely; the backend treats an empty
// string token as invalid.
type ProductsListRequest struct {
	Locale     string
	CategoryID string
	Limit      int
	StoreID    string
	PageToken  string
}

type productsListWireRequest struct {
	Locale     string `json:"locale"`
	CategoryID string `json:"category_id"`
	Limit      int    `json:"limit"`
	StoreID    string `json:"store_id,omitempty"`
	PageToken  string `json:"page_token,omitempty"`
}

type productsListWireResponse struct {
	Products      *[]ProductPayload `json:"products"`
	NextPageToken *string           `json:"next_page_token"`
}

type ProductsListResponse struct {
	Products      []ProductPayload
	NextPageToken *string
}

type storesGetRequest struct{}

type storesWireResponse struct {
	Stores []entity.Store `json:"stores"`
}

type ordersTrackingRequest struct {
	OrderID string `json:"order_id,omitempty"`
}

func (c *Client) CartsGet(ctx context.Context, cartID string) (*CartPayload, error) {
	var out CartPayload
	if err := c.call(ctx, endpointCartsGet, cartsGetRequest{ID: cartID}, nil, &out); err != nil {
		return nil, err
	}
	if out.ID == "" {
		return nil, &Error{Kind: KindValidation, Endpoint: endpointCartsGet, Message: "response missing cart id"}
	}
	if out.Items == nil {
		out.Items = []CartItemPayload{}
	}
	return &out, nil
}

func (c *Client) CartsSet(ctx context.Context, req CartsSetRequest) (*CartPayload, error) {
	headers := map[string]string{headerIdempotencyToken: uuid.NewString()}
	var out CartPayload
	if err := c.call(ctx, endpointCartsSet, req, headers, &out); err != nil {
		return nil, err
	}
	if out.ID == "" {
		return nil, &Error{Kind: KindValidation, Endpoint: endpointCartsSet, Message: "response missing cart id"}
	}
	if out.Items == nil {
		out.Items = []CartItemPayload{}
	}
	return &out, nil
}

func (c *Client) OrdersCreate(ctx context.Context, req OrdersCreateRequest) (*OrdersCreateResponse, error) {
	headers := map[string]string{headerIdempotencyToken: uuid.NewString()}
	var out OrdersCreateResponse
	if err := c.call(ctx, endpointOrdersCreate, req, headers, &out); err != nil {
		return nil, err
	}
	if out.OrderID == "" {
		return nil, &Error{Kind: KindValidation, Endpoint: endpointOrdersCreate, Message: "response missing order_id"}
	}
	return &out, nil
}

func (c *Client) MainsGet(ctx context.Context, locale string) (*MainPayload, error) {
	var out MainPayload
	if err := c.call(ctx, endpointMainsGet, mainsGetRequest{Locale: locale}, nil, &out); err != nil {
		return nil, err
	}
	if out.Widgets == nil {
		return nil, &Error{Kind: KindValidation, Endpoint: endpointMainsGet, Message: "response missing widgets"}
	}
	return &out, nil
}

func (c *Client) ProductsList(ctx context.Context, req ProductsListRequest) (*ProductsListResponse, error) {
	limit := req.Limit
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	wireReq := productsListWireRequest{
		Locale:     req.Locale,
		CategoryID: req.CategoryID,
		Limit:      limit,
		StoreID:    req.StoreID,
		PageToken:  req.PageToken,
	}

	var wire productsListWireResponse
	if err := c.call(ctx, endpointProductsList, wireReq, nil, &wire); err != nil {
		return nil, err
	}
	// A missing products field is a malformed response, not an empty page.
	if wire.Products == nil {
		return nil, &Error{Kind: KindValidation, Endpoint: endpointProductsList, Message: "response missing products"}
	}
	return &ProductsListResponse{
		Products:      *wire.Products,
		NextPageToken: wire.NextPageToken,
	}, nil
}

func (c *Client) StoresGet(ctx context.Context) ([]entity.Store, error) {
	var wire storesWireResponse
	if err := c.call(ctx, endpointStoresGet, storesGetRequest{}, nil, &wire); err != nil {
		return nil, err
	}
	if wire.Stores == nil {
		return nil, &Error{Kind: KindValidation, Endpoint: endpointStoresGet, Message: "response missing stores"}
	}
	return wire.Stores, nil
}

func (c *Client) OrdersTrackingGet(ctx context.Context, orderID string) ([]entity.OrderInfo, error) {
	var out []entity.OrderInfo
	if err := c.call(ctx, endpointOrdersTracking, ordersTrackingRequest{OrderID: orderID}, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
