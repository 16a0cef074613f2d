package kafka

import "time"

const TopicOrderPaid = `storefront.order-paid`

// OrderPaidEvent is emitted once per snapshot line after a payment is
// verified, so downstream consumers (inventory, notifications) can react.
type OrderPaidEvent struct {
	OrderID   int64     `json:"order_id"`
	ProductID int64     `json:"product_id"`
	Quantity  int       `json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
}
