package rpc

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/velmart/storefront/internal/platform/logger"
)

type capturedRequest struct {
	Path    string
	Headers http.Header
	Body    []byte
}

// newTestClient spins up a backend double that records every request and
// answers them with the given handler.
func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *[]capturedRequest) {
	t.Helper()
	var mu sync.Mutex
	captured := &[]capturedRequest{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		*captured = append(*captured, capturedRequest{Path: r.URL.Path, Headers: r.Header.Clone(), Body: body})
		mu.Unlock()
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	client, err := NewClient(ClientConfig{BaseURL: srv.URL, AuthToken: "secret-token"}, logger.NoOp{})
	require.NoError(t, err)
	return client, captured
}

func respondJSON(t *testing.T, body string) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}
}

func respondStatus(status int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", status)
	}
}

func TestNewClientRequiresBaseURL(t *testing.T) {
	_, err := NewClient(ClientConfig{}, logger.NoOp{})
	assert.Error(t, err)
}

func TestClientSendsAuthAndContentType(t *testing.T) {
	client, captured := newTestClient(t, respondJSON(t, `{"id":"cart-1","version":1,"items":[]}`))

	_, err := client.CartsGet(context.Background(), "cart-1")
	require.NoError(t, err)

	require.Len(t, *captured, 1)
	req := (*captured)[0]
	assert.Equal(t, "/b2b/v1/front/carts/get", req.Path)
	assert.Equal(t, "application/json", req.Headers.Get("Content-Type"))
	assert.Equal(t, "Bearer secret-token", req.Headers.Get("Authorization"))
}

func TestClientStatusClassification(t *testing.T) {
	cases := []struct {
		status int
		kind   Kind
	}{
		{http.StatusNotFound, KindNotFound},
		{http.StatusConflict, KindVersionConflict},
		{http.StatusUnauthorized, KindAuth},
		{http.StatusForbidden, KindAuth},
		{http.StatusInternalServerError, KindServerFault},
		{http.StatusBadGateway, KindServerFault},
		{http.StatusBadRequest, KindValidation},
	}
	for _, tc := range cases {
		client, _ := newTestClient(t, respondStatus(tc.status))
		_, err := client.CartsGet(context.Background(), "cart-1")
		require.Error(t, err)
		assert.Equal(t, tc.kind, KindOf(err), "status %d", tc.status)

		var rpcErr *Error
		require.ErrorAs(t, err, &rpcErr)
		assert.Equal(t, tc.status, rpcErr.StatusCode)
	}
}

func TestClientTimeoutClassifiedAsTimeout(t *testing.T) {
	block := make(chan struct{})
	defer close(block)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	t.Cleanup(srv.Close)

	client, err := NewClient(ClientConfig{BaseURL: srv.URL, Timeout: 50 * time.Millisecond}, logger.NoOp{})
	require.NoError(t, err)

	_, err = client.CartsGet(context.Background(), "cart-1")
	require.Error(t, err)
	assert.True(t, IsTimeout(err))
}

func TestClientConnectionRefusedClassifiedAsNetwork(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	client, err := NewClient(ClientConfig{BaseURL: url}, logger.NoOp{})
	require.NoError(t, err)

	_, err = client.CartsGet(context.Background(), "cart-1")
	require.Error(t, err)
	assert.Equal(t, KindNetwork, KindOf(err))
}

func TestClientMalformedBodyClassifiedAsValidation(t *testing.T) {
	client, _ := newTestClient(t, respondJSON(t, `{"id": "cart-1",`))
	_, err := client.CartsGet(context.Background(), "cart-1")
	require.Error(t, err)
	assert.True(t, IsValidation(err))
}

func TestClientHooksObserveEveryCall(t *testing.T) {
	client, _ := newTestClient(t, respondStatus(http.StatusConflict))

	var mu sync.Mutex
	var infos []CallInfo
	client.AddHook(func(info CallInfo) {
		mu.Lock()
		infos = append(infos, info)
		mu.Unlock()
	})

	_, err := client.CartsSet(context.Background(), CartsSetRequest{Items: []CartItemRef{}})
	require.Error(t, err)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, infos, 1)
	assert.Equal(t, "/b2b/v1/front/carts/set", infos[0].Endpoint)
	assert.Equal(t, http.StatusConflict, infos[0].StatusCode)
	assert.Error(t, infos[0].Err)
	assert.Greater(t, infos[0].Duration, time.Duration(0))
}

func TestCartsSetMintsFreshIdempotencyToken(t *testing.T) {
	client, captured := newTestClient(t, respondJSON(t, `{"id":"cart-1","version":1,"items":[]}`))

	ctx := context.Background()
	_, err := client.CartsSet(ctx, CartsSetRequest{Items: []CartItemRef{}})
	require.NoError(t, err)
	_, err = client.CartsSet(ctx, CartsSetRequest{Items: []CartItemRef{}})
	require.NoError(t, err)

	require.Len(t, *captured, 2)
	first := (*captured)[0].Headers.Get(headerIdempotencyToken)
	second := (*captured)[1].Headers.Get(headerIdempotencyToken)
	assert.NotEmpty(t, first)
	assert.NotEmpty(t, second)
	// Every attempt is a distinct operation, never a replay of the previous one.
	assert.NotEqual(t, first, second)
}

func TestCartsSetOmitsIDAndVersionWhenAbsent(t *testing.T) {
	client, captured := newTestClient(t, respondJSON(t, `{"id":"cart-1","version":1,"items":[]}`))

	_, err := client.CartsSet(context.Background(), CartsSetRequest{
		Items:             []CartItemRef{{ID: "p1", Quantity: 1}},
		FulfillmentMethod: "pickup",
	})
	require.NoError(t, err)

	var wire map[string]json.RawMessage
	require.NoError(t, json.Unmarshal((*captured)[0].Body, &wire))
	assert.Contains(t, wire, "items")
	assert.Contains(t, wire, "fulfillment_method")
	assert.NotContains(t, wire, "id")
	assert.NotContains(t, wire, "version")
}

func TestProductsListOmitsEmptyPageToken(t *testing.T) {
	client, captured := newTestClient(t, respondJSON(t, `{"products":[],"next_page_token":"tok"}`))

	resp, err := client.ProductsList(context.Background(), ProductsListRequest{
		Locale:     "en",
		CategoryID: "pizza",
		Limit:      10,
	})
	require.NoError(t, err)
	require.NotNil(t, resp.NextPageToken)
	assert.Equal(t, "tok", *resp.NextPageToken)

	var wire map[string]json.RawMessage
	require.NoError(t, json.Unmarshal((*captured)[0].Body, &wire))
	// A first-page request has no token at all; an empty string would be an
	// invalid token, not "start from the beginning".
	assert.NotContains(t, wire, "page_token")
}

func TestProductsListSendsCursorOnFollowUp(t *testing.T) {
	client, captured := newTestClient(t, respondJSON(t, `{"products":[],"next_page_token":null}`))

	resp, err := client.ProductsList(context.Background(), ProductsListRequest{
		Locale:     "en",
		CategoryID: "pizza",
		Limit:      10,
		PageToken:  "tok-2",
	})
	require.NoError(t, err)
	assert.Nil(t, resp.NextPageToken)

	var wire map[string]json.RawMessage
	require.NoError(t, json.Unmarshal((*captured)[0].Body, &wire))
	assert.Equal(t, `"tok-2"`, string(wire["page_token"]))
}

func TestProductsListClampsLimit(t *testing.T) {
	client, captured := newTestClient(t, respondJSON(t, `{"products":[]}`))

	_, err := client.ProductsList(context.Background(), ProductsListRequest{Limit: 500})
	require.NoError(t, err)

	var wire map[string]json.RawMessage
	require.NoError(t, json.Unmarshal((*captured)[0].Body, &wire))
	assert.Equal(t, "100", string(wire["limit"]))
}

func TestProductsListMissingProductsFieldIsValidation(t *testing.T) {
	client, _ := newTestClient(t, respondJSON(t, `{"next_page_token":"tok"}`))

	_, err := client.ProductsList(context.Background(), ProductsListRequest{Limit: 10})
	require.Error(t, err)
	assert.True(t, IsValidation(err))
}

func TestProductsListEmptyProductsIsValidPage(t *testing.T) {
	client, _ := newTestClient(t, respondJSON(t, `{"products":[],"next_page_token":"tok"}`))

	resp, err := client.ProductsList(context.Background(), ProductsListRequest{Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, resp.Products)
	require.NotNil(t, resp.NextPageToken)
}

func TestMainsGetMissingWidgetsIsValidation(t *testing.T) {
	client, _ := newTestClient(t, respondJSON(t, `{"id":"main-1"}`))

	_, err := client.MainsGet(context.Background(), "en")
	require.Error(t, err)
	assert.True(t, IsValidation(err))
}

func TestOrdersCreateRequiresOrderID(t *testing.T) {
	client, _ := newTestClient(t, respondJSON(t, `{}`))

	_, err := client.OrdersCreate(context.Background(), OrdersCreateRequest{CartID: "cart-1", CartVersion: 1})
	require.Error(t, err)
	assert.True(t, IsValidation(err))
}

func TestErrorHelpers(t *testing.T) {
	conflict := &Error{Kind: KindVersionConflict, StatusCode: 409}
	assert.True(t, IsVersionConflict(conflict))
	assert.False(t, IsNotFound(conflict))
	assert.Equal(t, KindVersionConflict, KindOf(conflict))
	assert.Equal(t, KindUnknown, KindOf(io.EOF))
	assert.Equal(t, KindUnknown, KindOf(nil))
}
