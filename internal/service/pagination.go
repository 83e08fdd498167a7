package service

import (
	"context"
	"sync"

	"github.com/velmart/storefront/internal/domain/entity"
	"github.com/velmart/storefront/internal/platform/logger"
	"github.com/velmart/storefront/internal/rpc"
)

const (
	defaultPageSize      = 10
	defaultPreviewLimit  = 5
	defaultCatalogLocale = "en"
)

// CategoryFeed is the accumulated append-mode state for one category: every
// product fetched so far plus whether another page can be requested.
type CategoryFeed struct {
	Products []entity.Product
	Cursor   string
	HasMore  bool
}

// Paginator performs cursor-paginated product loading. Append mode
// accumulates pages for infinite scroll; replace mode fetches a small
// first-page preview for carousels. For any category only one request may be
// in flight across both modes: duplicate triggers are dropped, never queued.
type Paginator interface {
	// LoadNextPage fetches the next page for the category and appends it to
	// the feed. It is a no-op when a fetch for the category is already in
	// flight or the feed is exhausted; the current feed is returned either way.
	LoadNextPage(ctx context.Context, categoryID string) (CategoryFeed, error)
	Feed(categoryID string) CategoryFeed
	// LoadPreview fetches the first page with the preview limit and replaces
	// any cached preview for the category.
	LoadPreview(ctx context.Context, categoryID string) ([]entity.Product, error)
	Preview(categoryID string) ([]entity.Product, bool)
	// ResetAll drops every feed and preview; called on store change.
	ResetAll()
}

type PaginatorConfig struct {
	Locale        string
	PageSize      int
	PreviewLimit  int
}

type feedState struct {
	products  []entity.Product
	cursor    string
	exhausted bool
}

type paginator struct {
	mu           sync.Mutex
	backend      rpc.Backend
	scope        *storeScope
	log          logger.Logger
	locale       string
	pageSize     int
	previewLimit int

	feeds    map[string]*feedState
	previews map[string][]entity.Product
	inFlight map[string]bool
}

func NewPaginator(backend rpc.Backend, scope *storeScope, log logger.Logger, cfg PaginatorConfig) Paginator {
	locale := cfg.Locale
	if locale == "" {
		locale = defaultCatalogLocale
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > rpc.MaxPageLimit {
		pageSize = rpc.MaxPageLimit
	}
	previewLimit := cfg.PreviewLimit
	if previewLimit <= 0 {
		previewLimit = defaultPreviewLimit
	}
	return &paginator{
		backend:      backend,
		scope:        scope,
		log:          log,
		locale:       locale,
		pageSize:     pageSize,
		previewLimit: previewLimit,
		feeds:        make(map[string]*feedState),
		previews:     make(map[string][]entity.Product),
		inFlight:     make(map[string]bool),
	}
}

func (p *paginator) feedLocked(categoryID string) *feedState {
	fs, ok := p.feeds[categoryID]
	if !ok {
		fs = &feedState{products: make([]entity.Product, 0)}
		p.feeds[categoryID] = fs
	}
	return fs
}

func feedSnapshot(fs *feedState) CategoryFeed {
	products := make([]entity.Product, len(fs.products))
	copy(products, fs.products)
	return CategoryFeed{
		Products: products,
		Cursor:   fs.cursor,
		HasMore:  !fs.exhausted,
	}
}

func (p *paginator) LoadNextPage(ctx context.Context, categoryID string) (CategoryFeed, error) {
	p.mu.Lock()
	fs := p.feedLocked(categoryID)
	if p.inFlight[categoryID] {
		p.log.Debugf("Dropping duplicate page load for category %s: request already in flight", categoryID)
		snapshot := feedSnapshot(fs)
		p.mu.Unlock()
		return snapshot, nil
	}
	if fs.exhausted {
		snapshot := feedSnapshot(fs)
		p.mu.Unlock()
		return snapshot, nil
	}
	p.inFlight[categoryID] = true
	cursor := fs.cursor
	storeID, gen := p.scope.snapshot()
	p.mu.Unlock()

	resp, err := p.backend.ProductsList(ctx, rpc.ProductsListRequest{
		Locale:     p.locale,
		CategoryID: categoryID,
		Limit:      p.pageSize,
		StoreID:    storeID,
		PageToken:  cursor,
	})

	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.inFlight, categoryID)

	if p.scope.generation() != gen {
		p.log.Debugf("Discarding page for category %s: store changed while in flight", categoryID)
		return feedSnapshot(p.feedLocked(categoryID)), nil
	}
	if err != nil {
		p.log.Errorf("Failed to load page for category %s: %v", categoryID, err)
		return CategoryFeed{Products: []entity.Product{}}, err
	}

	fs = p.feedLocked(categoryID)
	fs.products = append(fs.products, productsFromPayload(resp.Products)...)
	// Only a missing token ends pagination. A sparse page with a token keeps
	// the feed open.
	if resp.NextPageToken == nil || *resp.NextPageToken == "" {
		fs.cursor = ""
		fs.exhausted = true
	} else {
		fs.cursor = *resp.NextPageToken
	}
	return feedSnapshot(fs), nil
}

func (p *paginator) Feed(categoryID string) CategoryFeed {
	p.mu.Lock()
	defer p.mu.Unlock()
	return feedSnapshot(p.feedLocked(categoryID))
}

func (p *paginator) LoadPreview(ctx context.Context, categoryID string) ([]entity.Product, error) {
	p.mu.Lock()
	if p.inFlight[categoryID] {
		p.log.Debugf("Dropping preview load for category %s: request already in flight", categoryID)
		prior := p.previews[categoryID]
		p.mu.Unlock()
		return prior, nil
	}
	p.inFlight[categoryID] = true
	storeID, gen := p.scope.snapshot()
	p.mu.Unlock()

	resp, err := p.backend.ProductsList(ctx, rpc.ProductsListRequest{
		Locale:     p.locale,
		CategoryID: categoryID,
		Limit:      p.previewLimit,
		StoreID:    storeID,
	})

	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.inFlight, categoryID)

	if p.scope.generation() != gen {
		p.log.Debugf("Discarding preview for category %s: store changed while in flight", categoryID)
		return p.previews[categoryID], nil
	}
	if err != nil {
		p.log.Errorf("Failed to load preview for category %s: %v", categoryID, err)
		p.previews[categoryID] = []entity.Product{}
		return nil, err
	}

	products := productsFromPayload(resp.Products)
	p.previews[categoryID] = products
	return products, nil
}

func (p *paginator) Preview(categoryID string) ([]entity.Product, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	products, ok := p.previews[categoryID]
	return products, ok
}

func (p *paginator) ResetAll() {
	p.mu.Lock()
	defer p.mu.Unlock()
	// In-flight markers stay: their requests clear them on arrival and the
	// generation guard drops the stale payloads.
	p.feeds = make(map[string]*feedState)
	p.previews = make(map[string][]entity.Product)
}

func productsFromPayload(payload []rpc.ProductPayload) []entity.Product {
	products := make([]entity.Product, 0, len(payload))
	for _, p := range payload {
		products = append(products, entity.Product{
			ID:          p.ID,
			Title:       p.Title,
			Description: p.Description,
			Price:       p.Price,
			ImageURL:    p.ImageURL,
		})
	}
	return products
}
