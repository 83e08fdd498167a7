package service

import (
	"context"
	"errors"

	"github.com/stretchr/testify/mock"

	"github.com/velmart/storefront/internal/domain/entity"
	"github.com/velmart/storefront/internal/rpc"
)

type MockBackend struct {
	mock.Mock
}

func (m *MockBackend) CartsGet(ctx context.Context, cartID string) (*rpc.CartPayload, error) {
	args := m.Called(ctx, cartID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*rpc.CartPayload), args.Error(1)
}

func (m *MockBackend) CartsSet(ctx context.Context, req rpc.CartsSetRequest) (*rpc.CartPayload, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*rpc.CartPayload), args.Error(1)
}

func (m *MockBackend) OrdersCreate(ctx context.Context, req rpc.OrdersCreateRequest) (*rpc.OrdersCreateResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*rpc.OrdersCreateResponse), args.Error(1)
}

func (m *MockBackend) MainsGet(ctx context.Context, locale string) (*rpc.MainPayload, error) {
	args := m.Called(ctx, locale)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*rpc.MainPayload), args.Error(1)
}

func (m *MockBackend) ProductsList(ctx context.Context, req rpc.ProductsListRequest) (*rpc.ProductsListResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*rpc.ProductsListResponse), args.Error(1)
}

func (m *MockBackend) StoresGet(ctx context.Context) ([]entity.Store, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Store), args.Error(1)
}

func (m *MockBackend) OrdersTrackingGet(ctx context.Context, orderID string) ([]entity.OrderInfo, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.OrderInfo), args.Error(1)
}

// stubBackend drives tests that need call-by-call control (blocking requests,
// request capture) where mock expectation matching gets in the way.
type stubBackend struct {
	cartsGet       func(ctx context.Context, cartID string) (*rpc.CartPayload, error)
	cartsSet       func(ctx context.Context, req rpc.CartsSetRequest) (*rpc.CartPayload, error)
	ordersCreate   func(ctx context.Context, req rpc.OrdersCreateRequest) (*rpc.OrdersCreateResponse, error)
	mainsGet       func(ctx context.Context, locale string) (*rpc.MainPayload, error)
	productsList   func(ctx context.Context, req rpc.ProductsListRequest) (*rpc.ProductsListResponse, error)
	storesGet      func(ctx context.Context) ([]entity.Store, error)
	ordersTracking func(ctx context.Context, orderID string) ([]entity.OrderInfo, error)
}

var errUnexpectedCall = errors.New("unexpected backend call")

func (s *stubBackend) CartsGet(ctx context.Context, cartID string) (*rpc.CartPayload, error) {
	if s.cartsGet == nil {
		return nil, errUnexpectedCall
	}
	return s.cartsGet(ctx, cartID)
}

func (s *stubBackend) CartsSet(ctx context.Context, req rpc.CartsSetRequest) (*rpc.CartPayload, error) {
	if s.cartsSet == nil {
		return nil, errUnexpectedCall
	}
	return s.cartsSet(ctx, req)
}

func (s *stubBackend) OrdersCreate(ctx context.Context, req rpc.OrdersCreateRequest) (*rpc.OrdersCreateResponse, error) {
	if s.ordersCreate == nil {
		return nil, errUnexpectedCall
	}
	return s.ordersCreate(ctx, req)
}

func (s *stubBackend) MainsGet(ctx context.Context, locale string) (*rpc.MainPayload, error) {
	if s.mainsGet == nil {
		return nil, errUnexpectedCall
	}
	return s.mainsGet(ctx, locale)
}

func (s *stubBackend) ProductsList(ctx context.Context, req rpc.ProductsListRequest) (*rpc.ProductsListResponse, error) {
	if s.productsList == nil {
		return nil, errUnexpectedCall
	}
	return s.productsList(ctx, req)
}

func (s *stubBackend) StoresGet(ctx context.Context) ([]entity.Store, error) {
	if s.storesGet == nil {
		return nil, errUnexpectedCall
	}
	return s.storesGet(ctx)
}

func (s *stubBackend) OrdersTrackingGet(ctx context.Context, orderID string) ([]entity.OrderInfo, error) {
	if s.ordersTracking == nil {
		return nil, errUnexpectedCall
	}
	return s.ordersTracking(ctx, orderID)
}

type MockSettingsStore struct {
	mock.Mock
}

func (m *MockSettingsStore) Get(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *MockSettingsStore) Set(ctx context.Context, key, value string) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

func (m *MockSettingsStore) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, subject string, message interface{}) error {
	args := m.Called(ctx, subject, message)
	return args.Error(0)
}
