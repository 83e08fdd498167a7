package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/velmart/storefront/internal/domain/entity"
	"github.com/velmart/storefront/internal/platform/logger"
	"github.com/velmart/storefront/internal/rpc"
)

func TestTrackingRefreshReplacesSnapshot(t *testing.T) {
	orders := []entity.OrderInfo{
		{OrderID: "order-1", State: entity.OrderStatePreparing, UpdatedAt: time.Now()},
		{OrderID: "order-2", State: entity.OrderStateOnTheWay, UpdatedAt: time.Now()},
	}
	backend := &stubBackend{
		ordersTracking: func(_ context.Context, orderID string) ([]entity.OrderInfo, error) {
			assert.Empty(t, orderID)
			return orders, nil
		},
	}
	tracking := NewTrackingService(backend, logger.NoOp{}, time.Minute)

	got, err := tracking.Refresh(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, got, tracking.Orders())
}

func TestTrackingRefreshFailureKeepsPreviousSnapshot(t *testing.T) {
	var fail bool
	backend := &stubBackend{
		ordersTracking: func(context.Context, string) ([]entity.OrderInfo, error) {
			if fail {
				return nil, &rpc.Error{Kind: rpc.KindNetwork}
			}
			return []entity.OrderInfo{{OrderID: "order-1", State: entity.OrderStatePreparing}}, nil
		},
	}
	tracking := NewTrackingService(backend, logger.NoOp{}, time.Minute)

	_, err := tracking.Refresh(context.Background(), "")
	require.NoError(t, err)

	fail = true
	_, err = tracking.Refresh(context.Background(), "")
	require.Error(t, err)

	kept := tracking.Orders()
	require.Len(t, kept, 1)
	assert.Equal(t, "order-1", kept[0].OrderID)
}
