package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/velmart/storefront/internal/adapter/nats"
	"github.com/velmart/storefront/internal/domain/entity"
	"github.com/velmart/storefront/internal/platform/logger"
	"github.com/velmart/storefront/internal/repository"
	"github.com/velmart/storefront/internal/rpc"
)

const natsSubjectStoreChanged = "storefront.store.changed"

// ErrUnknownStore is returned when a store id is selected that is not in the
// loaded store list.
var ErrUnknownStore = errors.New("unknown store id")

type StoreChangedEvent struct {
	StoreID    string `json:"store_id"`
	StoreName  string `json:"store_name,omitempty"`
	Generation uint64 `json:"generation"`
}

type SessionConfig struct {
	Locale            string
	PageSize          int
	CarouselLimit     int
	FulfillmentMethod string
	TrackingInterval  time.Duration
	OnCartSyncError   func(error)
}

// Session owns the store-scoped data lifecycle: the cart mirror, catalog
// feeds, landing composition and order tracking all hang off the active
// store, and selecting a store synchronously invalidates every one of them
// before anything reloads.
type Session struct {
	scope     *storeScope
	backend   rpc.Backend
	settings  repository.SettingsStore
	publisher nats.MessagePublisher
	log       logger.Logger

	mu     sync.Mutex
	stores []entity.Store

	Cart     CartSynchronizer
	Catalog  Paginator
	Content  ContentOrchestrator
	Checkout CheckoutService
	Tracking TrackingService
}

func NewSession(backend rpc.Backend, settings repository.SettingsStore, publisher nats.MessagePublisher, log logger.Logger, cfg SessionConfig) *Session {
	scope := newStoreScope()

	cart := NewCartSynchronizer(backend, scope, log, CartSyncConfig{
		FulfillmentMethod: cfg.FulfillmentMethod,
		OnSyncError:       cfg.OnCartSyncError,
	})
	catalog := NewPaginator(backend, scope, log, PaginatorConfig{
		Locale:       cfg.Locale,
		PageSize:     cfg.PageSize,
		PreviewLimit: cfg.CarouselLimit,
	})
	content := NewContentOrchestrator(backend, catalog, scope, log, cfg.Locale)
	checkout := NewCheckoutService(backend, cart, scope, publisher, log)
	tracking := NewTrackingService(backend, log, cfg.TrackingInterval)

	return &Session{
		scope:     scope,
		backend:   backend,
		settings:  settings,
		publisher: publisher,
		log:       log,
		Cart:      cart,
		Catalog:   catalog,
		Content:   content,
		Checkout:  checkout,
		Tracking:  tracking,
	}
}

// LoadStores fetches the store list. Entries missing an id, a status or a
// location are dropped as malformed rather than failing the whole list.
func (s *Session) LoadStores(ctx context.Context) ([]entity.Store, error) {
	stores, err := s.backend.StoresGet(ctx)
	if err != nil {
		return nil, err
	}

	valid := make([]entity.Store, 0, len(stores))
	for _, store := range stores {
		if store.ID == "" || store.Status == "" || store.Location == nil {
			s.log.Warnf("Skipping malformed store entry (id=%q, status=%q, has_location=%t)",
				store.ID, store.Status, store.Location != nil)
			continue
		}
		valid = append(valid, store)
	}

	s.mu.Lock()
	s.stores = valid
	s.mu.Unlock()
	return valid, nil
}

func (s *Session) Stores() []entity.Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	stores := make([]entity.Store, len(s.stores))
	copy(stores, s.stores)
	return stores
}

// SelectStore makes the given store the active scope. Before anything
// reloads it synchronously clears the cart mirror, the landing composition
// and every cached product page; the store is part of the cache key for all
// downstream data. In-flight responses for the previous store are discarded
// on arrival by the generation guard.
func (s *Session) SelectStore(ctx context.Context, storeID string) error {
	s.mu.Lock()
	var selected *entity.Store
	for i := range s.stores {
		if s.stores[i].ID == storeID {
			store := s.stores[i]
			selected = &store
			break
		}
	}
	s.mu.Unlock()
	if selected == nil {
		return ErrUnknownStore
	}

	gen := s.scope.advance(selected)
	s.Cart.Reset()
	s.Catalog.ResetAll()
	s.Content.Reset()
	s.log.Infof("Store changed to %s (%s), generation %d", selected.Name, selected.ID, gen)

	if s.settings != nil {
		if err := s.settings.Set(ctx, repository.SettingSelectedStoreID, selected.ID); err != nil {
			s.log.Warnf("Failed to persist selected store: %v", err)
		}
	}

	if s.publisher != nil {
		event := StoreChangedEvent{StoreID: selected.ID, StoreName: selected.Name, Generation: gen}
		if err := s.publisher.Publish(ctx, natsSubjectStoreChanged, event); err != nil {
			s.log.Warnf("Failed to publish store changed event: %v", err)
		}
	}
	return nil
}

// RestoreSelectedStore re-selects the store persisted by a previous session,
// if it is still present in the loaded list.
func (s *Session) RestoreSelectedStore(ctx context.Context) (bool, error) {
	if s.settings == nil {
		return false, nil
	}
	storeID, err := s.settings.Get(ctx, repository.SettingSelectedStoreID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	if err := s.SelectStore(ctx, storeID); err != nil {
		if errors.Is(err, ErrUnknownStore) {
			s.log.Warnf("Persisted store %s no longer available", storeID)
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *Session) ActiveStore() (entity.Store, bool) {
	return s.scope.activeStore()
}
