package service

import (
	"context"
	"sync"
	"time"

	"github.com/velmart/storefront/internal/domain/entity"
	"github.com/velmart/storefront/internal/platform/logger"
	"github.com/velmart/storefront/internal/rpc"
)

const defaultTrackingInterval = 30 * time.Second

// TrackingService polls order tracking state for display. A failed refresh
// keeps the previous snapshot.
type TrackingService interface {
	// Refresh fetches tracking info, for one order or all active orders when
	// orderID is empty.
	Refresh(ctx context.Context, orderID string) ([]entity.OrderInfo, error)
	Orders() []entity.OrderInfo
	// Run polls on the configured interval until the context is cancelled.
	Run(ctx context.Context)
}

type trackingService struct {
	mu       sync.Mutex
	backend  rpc.Backend
	log      logger.Logger
	interval time.Duration
	orders   []entity.OrderInfo
}

func NewTrackingService(backend rpc.Backend, log logger.Logger, interval time.Duration) TrackingService {
	if interval <= 0 {
		interval = defaultTrackingInterval
	}
	return &trackingService{
		backend:  backend,
		log:      log,
		interval: interval,
	}
}

func (s *trackingService) Refresh(ctx context.Context, orderID string) ([]entity.OrderInfo, error) {
	orders, err := s.backend.OrdersTrackingGet(ctx, orderID)
	if err != nil {
		s.log.Warnf("Order tracking refresh failed, keeping previous snapshot: %v", err)
		return s.Orders(), err
	}

	s.mu.Lock()
	s.orders = orders
	s.mu.Unlock()
	return orders, nil
}

func (s *trackingService) Orders() []entity.OrderInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	orders := make([]entity.OrderInfo, len(s.orders))
	copy(orders, s.orders)
	return orders
}

func (s *trackingService) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Refresh(ctx, ""); err != nil {
				s.log.Debugf("Scheduled tracking refresh failed: %v", err)
			}
		}
	}
}
