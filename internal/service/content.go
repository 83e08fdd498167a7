package service

import (
	"context"
	"sync"

	"github.com/velmart/storefront/internal/domain/entity"
	"github.com/velmart/storefront/internal/platform/logger"
	"github.com/velmart/storefront/internal/rpc"
)

type LandingState int

const (
	LandingIdle LandingState = iota
	LandingLoading
	LandingLoaded
	LandingFailed
)

func (s LandingState) String() string {
	switch s {
	case LandingLoading:
		return "loading"
	case LandingLoaded:
		return "loaded"
	case LandingFailed:
		return "failed"
	default:
		return "idle"
	}
}

type CarouselState int

const (
	CarouselIdle CarouselState = iota
	CarouselLoading
	CarouselLoaded
)

// ContentOrchestrator loads the landing composition and drives per-carousel
// product previews through the paginator. Each carousel loads independently:
// a slow or broken one degrades to an empty list without touching the
// page-level state.
type ContentOrchestrator interface {
	// Load moves Idle -> Loading -> Loaded or Failed. It is a no-op while
	// loading or once loaded; from Failed only Retry proceeds.
	Load(ctx context.Context) error
	// Retry re-attempts a failed load. No-op in any other state.
	Retry(ctx context.Context) error
	// LoadCarousels fetches previews for every carousel widget in parallel
	// and returns when all have settled.
	LoadCarousels(ctx context.Context)
	State() LandingState
	Landing() (entity.Landing, bool)
	LastError() error
	RetryCount() int
	Carousel(categoryID string) ([]entity.Product, CarouselState)
	// Reset forces the composition back to Idle; called on store change.
	Reset()
}

type contentOrchestrator struct {
	mu        sync.Mutex
	backend   rpc.Backend
	paginator Paginator
	scope     *storeScope
	log       logger.Logger
	locale    string

	state      LandingState
	loadGen    uint64
	landing    entity.Landing
	lastErr    error
	retryCount int
	carousels  map[string]CarouselState
}

func NewContentOrchestrator(backend rpc.Backend, paginator Paginator, scope *storeScope, log logger.Logger, locale string) ContentOrchestrator {
	if locale == "" {
		locale = defaultCatalogLocale
	}
	return &contentOrchestrator{
		backend:   backend,
		paginator: paginator,
		scope:     scope,
		log:       log,
		locale:    locale,
		carousels: make(map[string]CarouselState),
	}
}

func (o *contentOrchestrator) Load(ctx context.Context) error {
	o.mu.Lock()
	switch o.state {
	case LandingLoading, LandingLoaded:
		o.mu.Unlock()
		return nil
	case LandingFailed:
		// Failed -> Loading only via explicit Retry.
		err := o.lastErr
		o.mu.Unlock()
		return err
	}
	o.state = LandingLoading
	_, gen := o.scope.snapshot()
	o.loadGen = gen
	o.mu.Unlock()

	main, err := o.backend.MainsGet(ctx, o.locale)

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.scope.generation() != gen {
		o.log.Debugf("Discarding landing composition: store changed while in flight")
		// Step back to Idle only if the loading state still belongs to this
		// superseded load; a newer load may already own it.
		if o.state == LandingLoading && o.loadGen == gen {
			o.state = LandingIdle
		}
		return nil
	}
	if err != nil {
		o.log.Errorf("Failed to load landing composition: %v", err)
		o.state = LandingFailed
		o.lastErr = err
		return err
	}

	o.landing = o.mapLanding(main)
	o.state = LandingLoaded
	o.lastErr = nil
	for _, w := range o.landing.Widgets {
		if w.Type == entity.WidgetTypeCarousel {
			o.carousels[w.CategoryID] = CarouselIdle
		}
	}
	return nil
}

func (o *contentOrchestrator) Retry(ctx context.Context) error {
	o.mu.Lock()
	if o.state != LandingFailed {
		o.mu.Unlock()
		return nil
	}
	o.retryCount++
	o.state = LandingIdle
	o.mu.Unlock()
	return o.Load(ctx)
}

func (o *contentOrchestrator) LoadCarousels(ctx context.Context) {
	o.mu.Lock()
	_, gen := o.scope.snapshot()
	var categoryIDs []string
	for _, w := range o.landing.Widgets {
		if w.Type == entity.WidgetTypeCarousel && w.CategoryID != "" {
			categoryIDs = append(categoryIDs, w.CategoryID)
			o.carousels[w.CategoryID] = CarouselLoading
		}
	}
	o.mu.Unlock()

	var wg sync.WaitGroup
	for _, categoryID := range categoryIDs {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			o.loadCarousel(ctx, id, gen)
		}(categoryID)
	}
	wg.Wait()
}

func (o *contentOrchestrator) loadCarousel(ctx context.Context, categoryID string, gen uint64) {
	if _, err := o.paginator.LoadPreview(ctx, categoryID); err != nil {
		// Degraded display: the carousel resolves to an empty product list
		// (the paginator already cached one) instead of failing the page.
		o.log.Warnf("Carousel for category %s degraded to empty: %v", categoryID, err)
	}
	o.mu.Lock()
	// A carousel settling after a store change must not repopulate the map
	// Reset just cleared.
	if o.scope.generation() == gen {
		o.carousels[categoryID] = CarouselLoaded
	}
	o.mu.Unlock()
}

func (o *contentOrchestrator) State() LandingState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

func (o *contentOrchestrator) Landing() (entity.Landing, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state != LandingLoaded {
		return entity.Landing{}, false
	}
	return o.landing, true
}

func (o *contentOrchestrator) LastError() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lastErr
}

func (o *contentOrchestrator) RetryCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.retryCount
}

func (o *contentOrchestrator) Carousel(categoryID string) ([]entity.Product, CarouselState) {
	o.mu.Lock()
	state, ok := o.carousels[categoryID]
	o.mu.Unlock()
	if !ok {
		return nil, CarouselIdle
	}
	products, _ := o.paginator.Preview(categoryID)
	return products, state
}

func (o *contentOrchestrator) Reset() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.state = LandingIdle
	o.landing = entity.Landing{}
	o.lastErr = nil
	o.retryCount = 0
	o.carousels = make(map[string]CarouselState)
}

// mapLanding converts the wire composition, keeping only recognized widget
// types. Unknown tags are logged and skipped rather than failing the page.
func (o *contentOrchestrator) mapLanding(main *rpc.MainPayload) entity.Landing {
	widgets := make([]entity.Widget, 0, len(main.Widgets))
	for _, w := range main.Widgets {
		switch entity.WidgetType(w.Type) {
		case entity.WidgetTypeGroup:
			categories := make([]entity.Category, 0, len(w.Categories))
			for _, c := range w.Categories {
				categories = append(categories, entity.Category{
					ID:          c.ID,
					Title:       c.Title,
					Description: c.Description,
					ImageURL:    c.ImageURL,
				})
			}
			widgets = append(widgets, entity.Widget{
				Type:       entity.WidgetTypeGroup,
				ID:         w.ID,
				Title:      w.Title,
				Categories: categories,
			})
		case entity.WidgetTypeCarousel:
			widgets = append(widgets, entity.Widget{
				Type:       entity.WidgetTypeCarousel,
				ID:         w.ID,
				Title:      w.Title,
				CategoryID: w.CategoryID,
			})
		default:
			o.log.Warnf("Skipping widget of unknown type %q", w.Type)
		}
	}
	return entity.Landing{ID: main.ID, Widgets: widgets}
}
