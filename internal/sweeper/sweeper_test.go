package sweeper

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-service/internal/gateway"
	"storefront-service/internal/orders"
)

type stubStore struct {
	pending    []orders.PendingOrder
	completed  []int64
	insertedTx []orders.Transaction
}

func (s *stubStore) StuckPending(ctx context.Context, minAge time.Duration) ([]orders.PendingOrder, error) {
	return s.pending, nil
}

func (s *stubStore) CompletePayment(ctx context.Context, orderID int64, userID string, t orders.Transaction) ([]orders.LineItem, bool, error) {
	s.completed = append(s.completed, orderID)
	s.insertedTx = append(s.insertedTx, t)
	return []orders.LineItem{{ProductID: 1, ProductName: "x", Quantity: 1, Price: decimal.NewFromInt(100)}}, true, nil
}

type stubGateway struct {
	payments map[string][]gateway.Payment
}

func (g *stubGateway) KeyID() string { return "rzp_test" }
func (g *stubGateway) CreateOrder(ctx context.Context, amount int64, currency, receipt string, notes map[string]interface{}) (gateway.Order, error) {
	return gateway.Order{}, nil
}
func (g *stubGateway) FetchPayment(ctx context.Context, paymentID string) (gateway.Payment, error) {
	return gateway.Payment{}, nil
}
func (g *stubGateway) OrderPayments(ctx context.Context, orderID string) ([]gateway.Payment, error) {
	return g.payments[orderID], nil
}
func (g *stubGateway) VerifySignature(orderID, paymentID, signature string) bool { return false }

type stubPublisher struct {
	published []int64
}

func (p *stubPublisher) PublishOrderPaid(orderID int64, items []orders.LineItem) {
	p.published = append(p.published, orderID)
}

func TestSweepCompletesCapturedOrders(t *testing.T) {
	store := &stubStore{pending: []orders.PendingOrder{
		{ID: 11, UserID: "u1", RazorpayOrderID: "order_a"},
		{ID: 12, UserID: "u2", RazorpayOrderID: "order_b"},
	}}
	gw := &stubGateway{payments: map[string][]gateway.Payment{
		"order_a": {{ID: "pay_1", OrderID: "order_a", Amount: 219900, Status: gateway.StatusCaptured, Method: "upi"}},
		"order_b": {{ID: "pay_2", OrderID: "order_b", Amount: 50000, Status: "failed"}},
	}}
	pub := &stubPublisher{}

	s := New(store, gw, pub, time.Minute, time.Minute)
	s.sweep(context.Background())

	// Only the order with a captured payment is completed and published.
	require.Equal(t, []int64{11}, store.completed)
	require.Equal(t, []int64{11}, pub.published)
	require.Len(t, store.insertedTx, 1)
	assert.Equal(t, "pay_1", store.insertedTx[0].RazorpayPaymentID)
	assert.True(t, store.insertedTx[0].Amount.Equal(decimal.NewFromInt(2199)))
}

func TestSweepLeavesUncapturedPending(t *testing.T) {
	store := &stubStore{pending: []orders.PendingOrder{
		{ID: 20, UserID: "u1", RazorpayOrderID: "order_c"},
	}}
	gw := &stubGateway{payments: map[string][]gateway.Payment{}}
	pub := &stubPublisher{}

	s := New(store, gw, pub, time.Minute, time.Minute)
	s.sweep(context.Background())

	assert.Empty(t, store.completed)
	assert.Empty(t, pub.published)
}
