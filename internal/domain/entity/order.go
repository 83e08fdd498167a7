package entity

import "time"

type OrderState string

const (
	OrderStateNew       OrderState = "new"
	OrderStatePreparing OrderState = "preparing"
	OrderStateOnTheWay  OrderState = "on_the_way"
	OrderStateDelivered OrderState = "delivered"
	OrderStateCancelled OrderState = "cancelled"
)

// OrderInfo is a tracking snapshot for a submitted order.
type OrderInfo struct {
	OrderID   string     `json:"order_id"`
	State     OrderState `json:"state"`
	StoreID   string     `json:"store_id,omitempty"`
	Position  *Position  `json:"position,omitempty"`
	UpdatedAt time.Time  `json:"updated_at,omitempty"`
}

func (o *OrderInfo) IsActive() bool {
	switch o.State {
	case OrderStateDelivered, OrderStateCancelled:
		return false
	default:
		return true
	}
}
