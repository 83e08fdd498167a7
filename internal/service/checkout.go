package service

import (
	"context"
	"errors"

	"github.com/velmart/storefront/internal/adapter/nats"
	"github.com/velmart/storefront/internal/domain/entity"
	"github.com/velmart/storefront/internal/platform/logger"
	"github.com/velmart/storefront/internal/rpc"
)

const natsSubjectOrderCreated = "storefront.order.created"

// ErrCartNotReady is returned when checkout is attempted before the server
// has acknowledged the cart at least once. No network call is made.
var ErrCartNotReady = errors.New("cart has not been created on the server yet")

// CheckoutService converts the acknowledged cart, referenced by id and
// version rather than by re-sending items, into a single idempotent
// order-creation call.
type CheckoutService interface {
	SubmitOrder(ctx context.Context, position entity.Position) (string, error)
}

type OrderCreatedEvent struct {
	OrderID string `json:"order_id"`
	CartID  string `json:"cart_id"`
	StoreID string `json:"store_id,omitempty"`
}

type checkoutService struct {
	backend   rpc.Backend
	cart      CartSynchronizer
	scope     *storeScope
	publisher nats.MessagePublisher
	log       logger.Logger
}

func NewCheckoutService(backend rpc.Backend, cart CartSynchronizer, scope *storeScope, publisher nats.MessagePublisher, log logger.Logger) CheckoutService {
	return &checkoutService{
		backend:   backend,
		cart:      cart,
		scope:     scope,
		publisher: publisher,
		log:       log,
	}
}

func (s *checkoutService) SubmitOrder(ctx context.Context, position entity.Position) (string, error) {
	snapshot := s.cart.Cart()
	if !snapshot.HasServerCart() || snapshot.TotalQuantity() == 0 {
		s.log.Warnf("Rejecting checkout: cart not acknowledged by server or empty")
		return "", ErrCartNotReady
	}

	resp, err := s.backend.OrdersCreate(ctx, rpc.OrdersCreateRequest{
		Position:    position,
		CartID:      snapshot.ID,
		CartVersion: snapshot.Version,
	})
	if err != nil {
		// Cart state stays untouched; the caller decides how to present this.
		s.log.Errorf("Order submission failed for cart %s: %v", snapshot.ID, err)
		return "", err
	}

	s.log.Infof("Order %s created from cart %s", resp.OrderID, snapshot.ID)
	s.cart.Reset()

	if s.publisher != nil {
		storeID, _ := s.scope.snapshot()
		event := OrderCreatedEvent{OrderID: resp.OrderID, CartID: snapshot.ID, StoreID: storeID}
		if pubErr := s.publisher.Publish(ctx, natsSubjectOrderCreated, event); pubErr != nil {
			s.log.Warnf("Failed to publish order created event for %s: %v", resp.OrderID, pubErr)
		}
	}

	return resp.OrderID, nil
}
