package service

import (
	"sync"

	"github.com/velmart/storefront/internal/domain/entity"
)

// storeScope tracks the active store together with a generation counter
// shared by every loader in the session. Each fetch captures the generation
// at dispatch; a response arriving after the generation advanced belongs to
// a superseded store and must be discarded.
type storeScope struct {
	mu    sync.Mutex
	store *entity.Store
	gen   uint64
}

func newStoreScope() *storeScope {
	return &storeScope{}
}

func (s *storeScope) snapshot() (storeID string, gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.store != nil {
		storeID = s.store.ID
	}
	return storeID, s.gen
}

func (s *storeScope) generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

func (s *storeScope) activeStore() (entity.Store, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.store == nil {
		return entity.Store{}, false
	}
	return *s.store, true
}

// advance switches the active store and invalidates every response still in
// flight under the previous generation.
func (s *storeScope) advance(store *entity.Store) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.store = store
	s.gen++
	return s.gen
}
