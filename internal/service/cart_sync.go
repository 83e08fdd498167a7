package service

import (
	"context"
	"sync"

	"github.com/velmart/storefront/internal/domain/entity"
	"github.com/velmart/storefront/internal/platform/logger"
	"github.com/velmart/storefront/internal/rpc"
)

const defaultFulfillmentMethod = "pickup"

// CartSynchronizer keeps a local cart mirror consistent with the versioned
// server cart under optimistic edits. Mutations apply to the mirror
// synchronously and return the new snapshot; reconciliation with the server
// happens on a serialized background cycle keyed by the cart, so two
// reconciles never race each other and the server's version check is the
// final arbiter.
type CartSynchronizer interface {
	AddItem(product entity.Product) entity.Cart
	RemoveItem(productID string) entity.Cart
	SetQuantity(productID string, quantity int) entity.Cart
	LoadCart(ctx context.Context) (entity.Cart, error)
	Cart() entity.Cart
	Reset()
	// Flush blocks until no reconcile cycle is pending or in flight.
	Flush()
}

type CartSyncConfig struct {
	FulfillmentMethod string
	// OnSyncError is invoked when a background reconcile fails, after the
	// mirror has been resynchronized from the server. Optional.
	OnSyncError func(error)
}

type cartSynchronizer struct {
	mu      sync.Mutex
	cond    *sync.Cond
	cart    entity.Cart
	dirty   bool
	syncing bool

	backend     rpc.Backend
	scope       *storeScope
	log         logger.Logger
	fulfillment string
	onSyncError func(error)
}

func NewCartSynchronizer(backend rpc.Backend, scope *storeScope, log logger.Logger, cfg CartSyncConfig) CartSynchronizer {
	fulfillment := cfg.FulfillmentMethod
	if fulfillment == "" {
		fulfillment = defaultFulfillmentMethod
	}
	s := &cartSynchronizer{
		cart:        *entity.NewCart(),
		backend:     backend,
		scope:       scope,
		log:         log,
		fulfillment: fulfillment,
		onSyncError: cfg.OnSyncError,
	}
	s.cond = sync.NewCond(&s.mu)
	return s
}

func (s *cartSynchronizer) AddItem(product entity.Product) entity.Cart {
	return s.mutate(func(c *entity.Cart) {
		if err := c.AddItem(product); err != nil {
			s.log.Warnf("Ignoring invalid cart addition: %v", err)
		}
	})
}

func (s *cartSynchronizer) RemoveItem(productID string) entity.Cart {
	return s.mutate(func(c *entity.Cart) {
		if err := c.RemoveItem(productID); err != nil {
			s.log.Warnf("Ignoring removal of unknown cart item %s: %v", productID, err)
		}
	})
}

func (s *cartSynchronizer) SetQuantity(productID string, quantity int) entity.Cart {
	return s.mutate(func(c *entity.Cart) {
		if err := c.SetQuantity(productID, quantity); err != nil {
			s.log.Warnf("Ignoring quantity update for unknown cart item %s: %v", productID, err)
		}
	})
}

// mutate commits an optimistic edit under the lock, returns the resulting
// snapshot, and makes sure exactly one reconcile cycle is running.
func (s *cartSynchronizer) mutate(fn func(*entity.Cart)) entity.Cart {
	s.mu.Lock()
	fn(&s.cart)
	s.dirty = true
	snapshot := s.cart.Snapshot()
	if !s.syncing {
		s.syncing = true
		go s.reconcileLoop()
	}
	s.mu.Unlock()
	return snapshot
}

// reconcileLoop drains pending mutations one carts.set at a time. Mutations
// committed while a request is in flight are coalesced into the next cycle,
// which keeps reconciles strictly ordered for this cart.
func (s *cartSynchronizer) reconcileLoop() {
	ctx := context.Background()
	for {
		s.mu.Lock()
		if !s.dirty {
			s.syncing = false
			s.cond.Broadcast()
			s.mu.Unlock()
			return
		}
		s.dirty = false
		storeID, gen := s.scope.snapshot()
		req := s.buildSetRequest(storeID)
		s.mu.Unlock()

		resp, err := s.backend.CartsSet(ctx, req)

		if err != nil {
			if rpc.IsVersionConflict(err) {
				s.log.Warnf("Cart version conflict, resynchronizing from server: %v", err)
			} else {
				s.log.Errorf("Cart reconcile failed, resynchronizing from server: %v", err)
			}
			s.resync(ctx, gen)
			if s.onSyncError != nil {
				s.onSyncError(err)
			}
			continue
		}

		s.mu.Lock()
		if s.scope.generation() != gen {
			s.log.Debugf("Discarding cart reconcile response for superseded store generation %d", gen)
			s.mu.Unlock()
			continue
		}
		// Server is authoritative for id and version.
		s.cart.ID = resp.ID
		s.cart.Version = resp.Version
		// Adopt the server's item list verbatim unless a newer optimistic
		// edit landed while the request was in flight; that edit is ahead of
		// the acknowledged state and the next cycle reconciles it.
		if !s.dirty {
			s.cart.Items = itemsFromPayload(resp.Items)
		}
		s.mu.Unlock()
	}
}

// resync discards the rejected optimistic delta and reloads the last
// known-good server state. A missing server cart is a normal empty state.
// The loop cleared dirty when it dispatched the failed carts.set, so a dirty
// flag observed here belongs to an edit committed while the resync was in
// flight: that edit stays on the mirror and keeps dirty set, and the loop
// reconciles it on the next cycle against the refreshed id and version.
func (s *cartSynchronizer) resync(ctx context.Context, gen uint64) {
	resp, err := s.backend.CartsGet(ctx, "")

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.scope.generation() != gen {
		return
	}
	switch {
	case err == nil:
		s.cart.ID = resp.ID
		s.cart.Version = resp.Version
		if !s.dirty {
			s.cart.Items = itemsFromPayload(resp.Items)
		}
	case rpc.IsNotFound(err):
		s.cart.ID = ""
		s.cart.Version = 0
		if !s.dirty {
			s.cart.Items = make([]entity.CartItem, 0)
		}
	default:
		// Transient failure: keep the prior mirror, stale but consistent.
		s.log.Errorf("Cart resync failed, keeping prior state: %v", err)
	}
}

// LoadCart fetches the current server cart for the active store and replaces
// the mirror with it. NotFound means no cart exists yet and resets the mirror
// to the empty state; any other failure leaves the mirror untouched and is
// returned to the caller.
func (s *cartSynchronizer) LoadCart(ctx context.Context) (entity.Cart, error) {
	_, gen := s.scope.snapshot()
	resp, err := s.backend.CartsGet(ctx, "")

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.scope.generation() != gen {
		s.log.Debugf("Discarding cart load for superseded store generation %d", gen)
		return s.cart.Snapshot(), nil
	}
	if err != nil {
		if rpc.IsNotFound(err) {
			s.cart.Reset()
			return s.cart.Snapshot(), nil
		}
		return s.cart.Snapshot(), err
	}
	s.cart = entity.Cart{ID: resp.ID, Version: resp.Version, Items: itemsFromPayload(resp.Items)}
	return s.cart.Snapshot(), nil
}

func (s *cartSynchronizer) Cart() entity.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Snapshot()
}

func (s *cartSynchronizer) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cart.Reset()
	s.dirty = false
}

func (s *cartSynchronizer) Flush() {
	s.mu.Lock()
	for s.syncing || s.dirty {
		s.cond.Wait()
	}
	s.mu.Unlock()
}

// buildSetRequest snapshots the mirror into a carts.set payload. Tombstoned
// items are sent with quantity zero so the server drops them. Callers hold
// the lock.
func (s *cartSynchronizer) buildSetRequest(storeID string) rpc.CartsSetRequest {
	refs := make([]rpc.CartItemRef, 0, len(s.cart.Items))
	for _, item := range s.cart.Items {
		refs = append(refs, rpc.CartItemRef{ID: item.ID, Quantity: item.Quantity})
	}
	req := rpc.CartsSetRequest{
		Items:             refs,
		FulfillmentMethod: s.fulfillment,
		StoreID:           storeID,
	}
	if s.cart.HasServerCart() {
		version := s.cart.Version
		req.ID = s.cart.ID
		req.Version = &version
	}
	return req
}

func itemsFromPayload(payload []rpc.CartItemPayload) []entity.CartItem {
	items := make([]entity.CartItem, 0, len(payload))
	for _, p := range payload {
		items = append(items, entity.CartItem{
			ID:       p.ID,
			Title:    p.Title,
			Price:    p.Price,
			Quantity: p.Quantity,
			ImageURL: p.ImageURL,
		})
	}
	return items
}
